package main

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/unkn0wn-root/resizecache"
	"github.com/unkn0wn-root/resizecache/codec"
	asynchook "github.com/unkn0wn-root/resizecache/hooks/async"
	"github.com/unkn0wn-root/resizecache/internal/config"
	"github.com/unkn0wn-root/resizecache/internal/util"
	zaplog "github.com/unkn0wn-root/resizecache/log/zap"
	pr "github.com/unkn0wn-root/resizecache/provider"
	"github.com/unkn0wn-root/resizecache/provider/bigcache"
	"github.com/unkn0wn-root/resizecache/provider/redis"
	"github.com/unkn0wn-root/resizecache/provider/ristretto"
	"github.com/unkn0wn-root/resizecache/store"
	"github.com/unkn0wn-root/resizecache/store/kv"
	"github.com/unkn0wn-root/resizecache/store/s3"
	"github.com/unkn0wn-root/resizecache/transform"
)

// app owns everything built from a Config.
type app struct {
	resizer *resizecache.Resizer
	hooks   *asynchook.Hooks
}

func (a *app) Close(ctx context.Context) error {
	err := a.resizer.Close(ctx)
	if a.hooks != nil {
		a.hooks.Close()
	}
	return err
}

func newLogger(level, format string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	zc := zap.NewProductionConfig()
	if format == "console" {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(lvl)
	return zc.Build()
}

// build wires stores, engine and hooks. extra hooks run synchronously; the
// async queue is only used when extra is non-empty.
func build(ctx context.Context, cfg config.Config, log *zap.Logger, extra ...resizecache.Hooks) (*app, error) {
	origin, err := s3.New(s3Config(cfg, cfg.OriginBucket, ""))
	if err != nil {
		return nil, fmt.Errorf("origin: %w", err)
	}
	cache, err := buildCache(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}
	engine, err := transform.New(transform.Config{
		JPEGQuality: cfg.JPEGQuality,
		Scaler:      cfg.Scaler,
	})
	if err != nil {
		closeCache(ctx, cache)
		return nil, err
	}

	a := &app{}
	opts := resizecache.Options{
		Origin:       origin,
		Cache:        cache,
		Engine:       engine,
		Logger:       zaplog.New(log),
		MaxDimension: cfg.MaxDimension,
	}
	if len(extra) > 0 {
		a.hooks = asynchook.New(resizecache.MultiHooks(extra), 1, 4096)
		opts.Hooks = a.hooks
	}
	r, err := resizecache.New(opts)
	if err != nil {
		closeCache(ctx, cache)
		return nil, err
	}
	a.resizer = r
	return a, nil
}

func s3Config(cfg config.Config, bucket, prefix string) s3.Config {
	return s3.Config{
		Endpoint:     cfg.Endpoint,
		Bucket:       bucket,
		Region:       cfg.Region,
		AccessKey:    cfg.AccessKey,
		SecretKey:    cfg.SecretKey,
		SessionToken: cfg.SessionToken,
		UseSSL:       cfg.UseSSL,
		Prefix:       prefix,
	}
}

func buildCache(ctx context.Context, cfg config.Config, log *zap.Logger) (store.Cache, error) {
	if cfg.Backend == config.BackendS3 {
		return s3.New(s3Config(cfg, cfg.CacheBucket, cfg.CachePrefix))
	}

	p, err := buildProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}
	meta, err := codec.ByName[store.Meta](cfg.MetaCodec)
	if err != nil {
		_ = p.Close(ctx)
		return nil, err
	}
	return kv.New(kv.Options{
		Provider: p,
		Codec:    codec.Limit[store.Meta]{Inner: meta, MaxDecode: 4 << 10},
		TTL:      cfg.KVTTL,
		OnSelfHeal: func(key, reason string) {
			log.Warn("corrupt cache entry removed",
				zap.String("key", util.Digest(key)),
				zap.String("reason", reason))
		},
	})
}

func buildProvider(ctx context.Context, cfg config.Config) (pr.Provider, error) {
	switch cfg.Backend {
	case config.BackendRedis:
		return redis.Dial(ctx, &goredis.UniversalOptions{
			Addrs:    []string{cfg.RedisAddr},
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
	case config.BackendRistretto:
		return ristretto.New(ristretto.Config{
			// ~10 counters per expected entry of ~32KiB
			NumCounters: max(cfg.KVMaxBytes/(32<<10)*10, 1000),
			MaxCost:     cfg.KVMaxBytes,
		})
	case config.BackendBigCache:
		return bigcache.New(ctx, bigcache.Config{
			LifeWindow:         cfg.KVTTL,
			HardMaxCacheSizeMB: int(max(cfg.KVMaxBytes>>20, 1)),
			MaxEntrySize:       32 << 10,
		})
	}
	return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
}

func closeCache(ctx context.Context, c store.Cache) {
	if cl, ok := c.(store.Closer); ok {
		_ = cl.Close(ctx)
	}
}
