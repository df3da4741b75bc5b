package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/adoumouangnamouemmanuel/AfridemiQ-sub007/internal/codec"
	httpx "github.com/adoumouangnamouemmanuel/AfridemiQ-sub007/internal/http"
	"github.com/adoumouangnamouemmanuel/AfridemiQ-sub007/internal/metrics"
	"github.com/adoumouangnamouemmanuel/AfridemiQ-sub007/internal/offline"
	"github.com/adoumouangnamouemmanuel/AfridemiQ-sub007/internal/purge"
	"github.com/adoumouangnamouemmanuel/AfridemiQ-sub007/internal/remote"
)

const methodPurge = "PURGE"

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the cache API and the offline-first upstream proxy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			metrics.Register()
			svc := a.service(offline.WithMetrics(metrics.Recorder{}))

			var upstream *remote.Client
			if a.cfg.UpstreamBaseURL != "" {
				upstream = remote.NewClient(a.cfg.UpstreamBaseURL, a.cfg.UpstreamTimeout)
			}
			handler, err := httpx.NewHandler(svc, a.cfg.UpstreamBaseURL, upstream, a.log)
			if err != nil {
				return err
			}
			purgeHandler := &purge.Handler{Cache: svc, Upstream: upstream, Log: a.log}

			mux := http.NewServeMux()
			mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})
			mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
				if _, err := a.store.ListKeys(r.Context()); err != nil {
					http.Error(w, "store unavailable", http.StatusServiceUnavailable)
					return
				}
				w.WriteHeader(http.StatusOK)
			})
			mux.Handle("/metrics", promhttp.Handler())
			mux.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method == methodPurge {
					purgeHandler.ServeHTTP(w, r)
					return
				}
				handler.ServeHTTP(w, r)
			}))

			server := &http.Server{
				Addr:         a.cfg.ListenAddr,
				Handler:      mux,
				ReadTimeout:  15 * time.Second,
				WriteTimeout: 30 * time.Second,
				IdleTimeout:  60 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			errCh := make(chan error, 1)
			go func() {
				a.log.WithField("addr", a.cfg.ListenAddr).WithField("store", a.cfg.Store).Info("listening")
				errCh <- server.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}
			a.log.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	}
}

func newGetCmd(a *app) *cobra.Command {
	var version string
	cmd := &cobra.Command{
		Use:   "get KEY",
		Short: "Print the cached JSON for KEY",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts []offline.ItemOption
			if version != "" {
				opts = append(opts, offline.WithVersion(version))
			}
			v, ok, err := offline.Get[codec.RawMessage](cmd.Context(), a.service(), args[0], opts...)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%s: not cached", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(v))
			return nil
		},
	}
	cmd.Flags().StringVar(&version, "version", "", "version tag to require (default: configured version)")
	return cmd
}

func newSetCmd(a *app) *cobra.Command {
	var (
		ttl      time.Duration
		noExpiry bool
		version  string
	)
	cmd := &cobra.Command{
		Use:   "set KEY [JSON|-]",
		Short: "Cache a JSON value under KEY, read from the argument or stdin",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var body []byte
			if len(args) == 1 || args[1] == "-" {
				b, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				body = b
			} else {
				body = []byte(args[1])
			}
			if !codec.Valid(body) {
				return errors.New("value must be JSON")
			}

			var opts []offline.ItemOption
			switch {
			case noExpiry:
				opts = append(opts, offline.NoExpiry())
			case ttl != 0:
				opts = append(opts, offline.WithExpiry(ttl))
			}
			if version != "" {
				opts = append(opts, offline.WithVersion(version))
			}
			return a.service().SetItem(cmd.Context(), args[0], codec.RawMessage(body), opts...)
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "time to live (default: configured expiry)")
	cmd.Flags().BoolVar(&noExpiry, "no-expiry", false, "never expire by time")
	cmd.Flags().StringVar(&version, "version", "", "version tag (default: configured version)")
	return cmd
}

func newRmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rm KEY",
		Short: "Remove KEY from the cache",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.service().RemoveItem(cmd.Context(), args[0])
		},
	}
}

func newMetaCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "meta KEY",
		Short: "Print the stored metadata for KEY",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, err := a.service().GetMetadata(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if meta == nil {
				return fmt.Errorf("%s: not cached", args[0])
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "cached_at: %s\n", meta.CachedAt().UTC().Format(time.RFC3339Nano))
			if exp, ok := meta.ExpiresAt(); ok {
				fmt.Fprintf(out, "expires_at: %s\n", exp.UTC().Format(time.RFC3339Nano))
			} else {
				fmt.Fprintln(out, "expires_at: never")
			}
			fmt.Fprintf(out, "version: %s\n", meta.Version)
			return nil
		},
	}
}

func newClearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every entry under the configured prefix",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.service().ClearAll(cmd.Context())
		},
	}
}

func newTokenCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage the cached auth token",
	}

	var (
		refresh   string
		expiresAt string
	)
	set := &cobra.Command{
		Use:   "set TOKEN",
		Short: "Cache an auth token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tok := offline.TokenData{Token: args[0], RefreshToken: refresh}
			if expiresAt != "" {
				t, err := time.Parse(time.RFC3339, expiresAt)
				if err != nil {
					return fmt.Errorf("--expires-at: %w", err)
				}
				ms := t.UnixMilli()
				tok.Expiry = &ms
			}
			return a.service().CacheTokenData(cmd.Context(), tok)
		},
	}
	set.Flags().StringVar(&refresh, "refresh", "", "refresh token")
	set.Flags().StringVar(&expiresAt, "expires-at", "", "credential expiry (RFC 3339)")

	get := &cobra.Command{
		Use:   "get",
		Short: "Print the cached auth token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tok, err := a.service().GetCachedTokenData(cmd.Context())
			if err != nil {
				return err
			}
			if tok == nil {
				return errors.New("no token cached")
			}
			b, err := codec.Marshal(tok)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
			if tok.ExpiredAt(time.Now()) {
				a.log.Warn("cached token has expired")
			}
			return nil
		},
	}

	rm := &cobra.Command{
		Use:   "rm",
		Short: "Remove the cached auth token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.service().RemoveTokenData(cmd.Context())
		},
	}

	cmd.AddCommand(set, get, rm)
	return cmd
}
