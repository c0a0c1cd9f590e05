package cache

import (
	"github.com/catalogbridge/backend/internal/domain/catalog"
	"github.com/catalogbridge/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// ProductCacheFactory creates product caches based on configuration
type ProductCacheFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// ProductCacheFactoryOption is a functional option for configuring the factory
type ProductCacheFactoryOption func(*ProductCacheFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) ProductCacheFactoryOption {
	return func(f *ProductCacheFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to the in-memory
// cache when Redis is unavailable. Default is true.
func WithInMemoryFallback(allow bool) ProductCacheFactoryOption {
	return func(f *ProductCacheFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewProductCacheFactory creates a new factory
func NewProductCacheFactory(cfg config.RedisConfig, opts ...ProductCacheFactoryOption) *ProductCacheFactory {
	f := &ProductCacheFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateCache creates a product cache based on configuration. When Redis
// is enabled it is tried first; on failure the factory falls back to the
// in-memory cache unless fallback is disabled.
func (f *ProductCacheFactory) CreateCache() (catalog.ProductCache, error) {
	if !f.redisConfig.Enabled {
		f.logger.Info("using in-memory product cache")
		return NewInMemoryProductCache(), nil
	}

	store, err := NewRedisProductCache(RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	})
	if err == nil {
		f.logger.Info("using Redis product cache",
			zap.String("host", f.redisConfig.Host),
			zap.Int("port", f.redisConfig.Port))
		return store, nil
	}

	if !f.allowInMemoryFallback {
		return nil, err
	}
	f.logger.Warn("Redis unavailable, falling back to in-memory product cache", zap.Error(err))
	return NewInMemoryProductCache(), nil
}
