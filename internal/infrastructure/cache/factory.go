package cache

import (
	"fmt"

	"github.com/bizdocs/backend/internal/application/command"
	"github.com/bizdocs/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// SessionStore is a command session store that holds resources
type SessionStore interface {
	command.SessionStore
	Close() error
}

// SessionStoreFactory creates session stores based on configuration
type SessionStoreFactory struct {
	redisConfig           config.RedisConfig
	keyPrefix             string
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// SessionStoreFactoryOption is a functional option for configuring the factory
type SessionStoreFactoryOption func(*SessionStoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) SessionStoreFactoryOption {
	return func(f *SessionStoreFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to the in-memory store when Redis is unavailable.
// Default is true.
func WithInMemoryFallback(allow bool) SessionStoreFactoryOption {
	return func(f *SessionStoreFactory) {
		f.allowInMemoryFallback = allow
	}
}

// WithKeyPrefix sets the Redis key prefix
func WithKeyPrefix(prefix string) SessionStoreFactoryOption {
	return func(f *SessionStoreFactory) {
		f.keyPrefix = prefix
	}
}

// NewSessionStoreFactory creates a new factory
func NewSessionStoreFactory(cfg config.RedisConfig, opts ...SessionStoreFactoryOption) *SessionStoreFactory {
	f := &SessionStoreFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateRedisStore creates a Redis-backed session store
func (f *SessionStoreFactory) CreateRedisStore() (SessionStore, error) {
	client, err := NewRedisClient(RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis session store: %w", err)
	}
	return NewRedisSessionStore(client, f.keyPrefix), nil
}

// CreateStore returns the in-memory store when Redis is disabled. Otherwise it tries Redis
// and falls back to memory when allowed.
func (f *SessionStoreFactory) CreateStore() (SessionStore, error) {
	if !f.redisConfig.Enabled {
		f.logger.Info("Redis disabled, using in-memory command session store")
		return NewInMemorySessionStore(), nil
	}

	store, err := f.CreateRedisStore()
	if err == nil {
		f.logger.Info("using Redis command session store")
		return store, nil
	}
	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for command sessions but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory command session store. "+
		"Sessions will not be shared across instances.",
		zap.Error(err),
	)
	return NewInMemorySessionStore(), nil
}
