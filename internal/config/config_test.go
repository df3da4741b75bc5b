package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, StorePebble, cfg.Store)
	assert.Equal(t, "offline_cache", cfg.Prefix)
	assert.Equal(t, 24*time.Hour, cfg.DefaultExpiry)
	assert.Equal(t, "1.0", cfg.DefaultVersion)
	assert.Equal(t, 45*time.Second, cfg.LockTTL)
	assert.Equal(t, 3*time.Second, cfg.MaxLockWait)
	assert.False(t, cfg.StrictRemove)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("OFFCACHE_STORE", " Redis ")
	t.Setenv("OFFCACHE_REDIS_ADDR", "localhost:6379")
	t.Setenv("OFFCACHE_REDIS_DB", "2")
	t.Setenv("OFFCACHE_DEFAULT_EXPIRY", "90m")
	t.Setenv("OFFCACHE_STRICT_REMOVE", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StoreRedis, cfg.Store)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.Equal(t, 90*time.Minute, cfg.DefaultExpiry)
	assert.True(t, cfg.StrictRemove)
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("OFFCACHE_DEFAULT_EXPIRY", "one day")
	_, err := Load()
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := map[string]struct {
		cfg     Config
		wantErr bool
	}{
		"memory":          {cfg: Config{Store: StoreMemory}},
		"redis ok":        {cfg: Config{Store: StoreRedis, RedisAddr: "r:6379"}},
		"redis no addr":   {cfg: Config{Store: StoreRedis}, wantErr: true},
		"s3 missing keys": {cfg: Config{Store: StoreS3, S3Endpoint: "http://minio", S3Bucket: "b"}, wantErr: true},
		"s3 ok": {cfg: Config{Store: StoreS3, S3Endpoint: "http://minio", S3Bucket: "b",
			S3AccessKey: "a", S3SecretKey: "s"}},
		"pebble no path": {cfg: Config{Store: StorePebble}, wantErr: true},
		"sqlite ok":      {cfg: Config{Store: StoreSQLite, SQLitePath: "x.db"}},
		"unknown store":  {cfg: Config{Store: "etcd"}, wantErr: true},
		"prefix colon":   {cfg: Config{Store: StoreMemory, Prefix: "a:b"}, wantErr: true},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
