package app

import (
	"context"
	"errors"

	"line-auth-web/internal/auth/resolver"
	"line-auth-web/internal/config"
	"line-auth-web/internal/db"
	"line-auth-web/internal/logger"
	"line-auth-web/internal/redis"
	"line-auth-web/internal/session"
)

// Infra holds the optional backing services. Either may be nil.
type Infra struct {
	DB    *db.DB
	Redis *redis.Client
}

func setupInfra(ctx context.Context, cfg config.Config) (*Infra, error) {
	infra := &Infra{}

	if cfg.DatabaseDSN != "" {
		sqlDB, err := db.Open(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		infra.DB = sqlDB
		logger.Info("database ready", nil)
	}

	if cfg.RedisAddr != "" {
		redisClient, err := redis.New(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			_ = infra.Close()
			return nil, err
		}
		infra.Redis = redisClient
		logger.Info("redis ready", nil)
	}

	return infra, nil
}

// Revocations picks Redis when configured, otherwise process memory.
func (i *Infra) Revocations() session.Revocations {
	if i.Redis != nil {
		return session.NewRedisStore(i.Redis.Client)
	}
	logger.Warn("REDIS_ADDR not set, sign-outs are remembered in memory only", nil)
	return session.NewMemoryStore()
}

// Resolver picks the database resolver when configured.
func (i *Infra) Resolver() resolver.Resolver {
	if i.DB != nil {
		return resolver.NewDBResolver(i.DB)
	}
	return resolver.ProfileResolver{}
}

func (i *Infra) Close() error {
	var errs []error
	if i.DB != nil {
		errs = append(errs, i.DB.Close())
	}
	if i.Redis != nil {
		errs = append(errs, i.Redis.Close())
	}
	return errors.Join(errs...)
}
