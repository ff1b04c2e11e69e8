package lock

import (
	"fmt"

	appshared "github.com/ehr/pharmacy/internal/application/shared"
	"github.com/ehr/pharmacy/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Backend names
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// LockerFactory creates batch lockers based on configuration
type LockerFactory struct {
	redisConfig           config.RedisConfig
	lockConfig            config.LockConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// LockerFactoryOption is a functional option for configuring the factory
type LockerFactoryOption func(*LockerFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) LockerFactoryOption {
	return func(f *LockerFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to the in-process locker
// when Redis is unavailable. Default is true.
func WithInMemoryFallback(allow bool) LockerFactoryOption {
	return func(f *LockerFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewLockerFactory creates a new factory
func NewLockerFactory(redisCfg config.RedisConfig, lockCfg config.LockConfig, opts ...LockerFactoryOption) *LockerFactory {
	f := &LockerFactory{
		redisConfig:           redisCfg,
		lockConfig:            lockCfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateRedisLocker creates a Redis-backed locker
func (f *LockerFactory) CreateRedisLocker() (*RedisBatchLocker, error) {
	locker, err := NewRedisBatchLocker(
		RedisConfig{
			Host:     f.redisConfig.Host,
			Port:     f.redisConfig.Port,
			Password: f.redisConfig.Password,
			DB:       f.redisConfig.DB,
		},
		RedisLockerOptions{
			TTL:          f.lockConfig.TTL,
			RetryCount:   f.lockConfig.RetryCount,
			RetryBackoff: f.lockConfig.RetryBackoff,
		},
		f.logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis batch locker: %w", err)
	}
	return locker, nil
}

// CreateLocker returns the configured locker. With the redis backend it
// falls back to the in-process locker when Redis is unreachable and the
// fallback is allowed.
func (f *LockerFactory) CreateLocker() (appshared.BatchLocker, error) {
	if f.lockConfig.Backend != BackendRedis {
		f.logger.Info("using in-memory batch locker")
		return NewMemoryBatchLocker(), nil
	}

	locker, err := f.CreateRedisLocker()
	if err == nil {
		f.logger.Info("using Redis batch locker")
		return locker, nil
	}
	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for batch locking but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory batch locker. "+
		"Stock movements are only serialized within this process.",
		zap.Error(err),
	)
	return NewMemoryBatchLocker(), nil
}
