package factory

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Layr-Labs/merkledrop-go/pkg/config"
	"github.com/Layr-Labs/merkledrop-go/pkg/persistence"
	"github.com/Layr-Labs/merkledrop-go/pkg/persistence/badger"
	"github.com/Layr-Labs/merkledrop-go/pkg/persistence/memory"
	"github.com/Layr-Labs/merkledrop-go/pkg/persistence/redis"
)

// NewStore builds the persistence backend named by the store configuration.
func NewStore(cfg *config.StoreConfig, logger *zap.Logger) (persistence.IDistributorPersistence, error) {
	if cfg == nil {
		return nil, fmt.Errorf("store config cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid store config: %w", err)
	}

	switch cfg.Backend {
	case config.StoreBackendMemory:
		return memory.NewMemoryPersistence(), nil
	case config.StoreBackendBadger:
		return badger.NewBadgerPersistence(cfg.DataDir, logger)
	case config.StoreBackendRedis:
		return redis.NewRedisPersistence(&redis.RedisConfig{
			Address: cfg.RedisAddress,
			DB:      cfg.RedisDB,
		}, logger)
	default:
		return nil, fmt.Errorf("unsupported store backend: %s (supported: %s)",
			cfg.Backend, config.SupportedStoreBackendsString())
	}
}
