package main

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/adoumouangnamouemmanuel/AfridemiQ-sub007/internal/config"
	"github.com/adoumouangnamouemmanuel/AfridemiQ-sub007/internal/kv"
	"github.com/adoumouangnamouemmanuel/AfridemiQ-sub007/internal/lock"
)

// backend is an opened store plus the locker that matches its sharing
// scope. A nil locker means the in-process default.
type backend struct {
	store  kv.Store
	locker lock.Locker
}

type openFunc func(ctx context.Context, cfg config.Config) (backend, error)

var backends = map[config.StoreKind]openFunc{
	config.StoreMemory: openMemory,
	config.StoreRedis:  openRedis,
	config.StoreS3:     openS3,
	config.StorePebble: openPebble,
	config.StoreSQLite: openSQLite,
}

func openBackend(ctx context.Context, cfg config.Config) (backend, error) {
	open, ok := backends[cfg.Store]
	if !ok {
		return backend{}, fmt.Errorf("unknown store %q", cfg.Store)
	}
	b, err := open(ctx, cfg)
	if err != nil {
		return backend{}, fmt.Errorf("open %s store: %w", cfg.Store, err)
	}
	return b, nil
}

func openMemory(context.Context, config.Config) (backend, error) {
	return backend{store: kv.NewMemory()}, nil
}

func openRedis(ctx context.Context, cfg config.Config) (backend, error) {
	client := kv.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return backend{}, err
	}
	return backend{
		store: kv.NewRedis(client),
		locker: &lock.Redis{
			Client:  client,
			TTL:     cfg.LockTTL,
			MaxWait: cfg.MaxLockWait,
		},
	}, nil
}

func openS3(ctx context.Context, cfg config.Config) (backend, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, "")),
	)
	if err != nil {
		return backend{}, err
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
		o.BaseEndpoint = aws.String(cfg.S3Endpoint)
	})
	return backend{store: kv.NewS3(cfg.S3Bucket, client)}, nil
}

func openPebble(_ context.Context, cfg config.Config) (backend, error) {
	db, err := kv.OpenPebble(cfg.PebblePath, nil)
	if err != nil {
		return backend{}, err
	}
	return backend{store: db}, nil
}

func openSQLite(_ context.Context, cfg config.Config) (backend, error) {
	db, err := kv.OpenSQLite(cfg.SQLitePath)
	if err != nil {
		return backend{}, err
	}
	return backend{store: db}, nil
}
