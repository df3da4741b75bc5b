package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/adoumouangnamouemmanuel/AfridemiQ-sub007/internal/config"
	"github.com/adoumouangnamouemmanuel/AfridemiQ-sub007/internal/kv"
	"github.com/adoumouangnamouemmanuel/AfridemiQ-sub007/internal/offline"
)

// app carries what every subcommand needs once config is loaded.
type app struct {
	cfg   config.Config
	log   *logrus.Logger
	store kv.Store
	be    backend
}

func main() {
	a := &app{log: logrus.New()}
	root := newRootCmd(a)
	err := root.Execute()
	if a.store != nil {
		if cerr := a.store.Close(); cerr != nil {
			a.log.WithError(cerr).Warn("closing store")
		}
	}
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:          "offcache",
		Short:        "Offline-first key/value cache",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
			level, err := logrus.ParseLevel(cfg.LogLevel)
			if err != nil {
				return err
			}
			a.log.SetLevel(level)

			a.be, err = openBackend(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			a.store = a.be.store
			return nil
		},
	}
	root.AddCommand(
		newServeCmd(a),
		newGetCmd(a),
		newSetCmd(a),
		newRmCmd(a),
		newMetaCmd(a),
		newClearCmd(a),
		newTokenCmd(a),
	)
	return root
}

func (a *app) service(opts ...offline.Option) *offline.Service {
	base := []offline.Option{offline.WithLogger(a.log)}
	if a.be.locker != nil {
		base = append(base, offline.WithLocker(a.be.locker))
	}
	return offline.New(a.store, offline.Config{
		Prefix:                 a.cfg.Prefix,
		DefaultExpiry:          a.cfg.DefaultExpiry,
		DefaultVersion:         a.cfg.DefaultVersion,
		StrictRemove:           a.cfg.StrictRemove,
		KeepMismatchedVersions: a.cfg.KeepMismatchedVersions,
	}, append(base, opts...)...)
}
