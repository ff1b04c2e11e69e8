package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	appshared "github.com/ehr/pharmacy/internal/application/shared"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const defaultKeyPrefix = "pharmacy:lock:batch:"

// ErrLockTimeout is returned when a batch lock could not be obtained within
// the configured retries
var ErrLockTimeout = errors.New("batch lock not obtained")

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// RedisLockerOptions tune lock acquisition
type RedisLockerOptions struct {
	TTL          time.Duration
	RetryCount   int
	RetryBackoff time.Duration
	KeyPrefix    string
}

func (o RedisLockerOptions) withDefaults() RedisLockerOptions {
	if o.TTL <= 0 {
		o.TTL = 30 * time.Second
	}
	if o.RetryCount <= 0 {
		o.RetryCount = 50
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = 100 * time.Millisecond
	}
	if o.KeyPrefix == "" {
		o.KeyPrefix = defaultKeyPrefix
	}
	return o
}

// RedisBatchLocker serializes stock movements per batch across processes
// using one redislock key per batch.
type RedisBatchLocker struct {
	client *redis.Client
	locker *redislock.Client
	opts   RedisLockerOptions
	logger *zap.Logger
}

// NewRedisBatchLocker connects to Redis and creates a locker
func NewRedisBatchLocker(cfg RedisConfig, opts RedisLockerOptions, logger *zap.Logger) (*RedisBatchLocker, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return NewRedisBatchLockerWithClient(client, opts, logger), nil
}

// NewRedisBatchLockerWithClient creates a locker over an existing client
func NewRedisBatchLockerWithClient(client *redis.Client, opts RedisLockerOptions, logger *zap.Logger) *RedisBatchLocker {
	return &RedisBatchLocker{
		client: client,
		locker: redislock.New(client),
		opts:   opts.withDefaults(),
		logger: logger,
	}
}

// Key returns the Redis key guarding a batch
func (l *RedisBatchLocker) Key(batchID uuid.UUID) string {
	return l.opts.KeyPrefix + batchID.String()
}

// Lock obtains every batch key in sorted order with linear backoff retries.
// Keys already obtained are released when a later one fails.
func (l *RedisBatchLocker) Lock(ctx context.Context, batchIDs ...uuid.UUID) (func(), error) {
	ids := appshared.SortedUnique(batchIDs)
	held := make([]*redislock.Lock, 0, len(ids))
	obtainOpts := &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(l.opts.RetryBackoff), l.opts.RetryCount),
	}

	for _, id := range ids {
		lk, err := l.locker.Obtain(ctx, l.Key(id), l.opts.TTL, obtainOpts)
		if err != nil {
			l.releaseAll(held)
			if errors.Is(err, redislock.ErrNotObtained) {
				return nil, fmt.Errorf("%w: %s", ErrLockTimeout, id)
			}
			return nil, fmt.Errorf("obtain lock for batch %s: %w", id, err)
		}
		held = append(held, lk)
	}

	return func() { l.releaseAll(held) }, nil
}

// releaseAll runs on a fresh context so a cancelled request still frees its keys
func (l *RedisBatchLocker) releaseAll(held []*redislock.Lock) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := len(held) - 1; i >= 0; i-- {
		if err := held[i].Release(ctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			l.logger.Warn("failed to release batch lock",
				zap.String("key", held[i].Key()),
				zap.Error(err),
			)
		}
	}
}

// Close closes the Redis client
func (l *RedisBatchLocker) Close() error {
	return l.client.Close()
}

var _ appshared.BatchLocker = (*RedisBatchLocker)(nil)
