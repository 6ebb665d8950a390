package factory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Layr-Labs/merkledrop-go/pkg/config"
	"github.com/Layr-Labs/merkledrop-go/pkg/persistence/badger"
	"github.com/Layr-Labs/merkledrop-go/pkg/persistence/memory"
)

func TestNewStoreMemory(t *testing.T) {
	store, err := NewStore(&config.StoreConfig{Backend: config.StoreBackendMemory}, zap.NewNop())
	require.NoError(t, err)
	defer store.Close()

	assert.IsType(t, &memory.MemoryPersistence{}, store)
	require.NoError(t, store.HealthCheck())
}

func TestNewStoreBadger(t *testing.T) {
	store, err := NewStore(&config.StoreConfig{
		Backend: config.StoreBackendBadger,
		DataDir: t.TempDir(),
	}, zap.NewNop())
	require.NoError(t, err)
	defer store.Close()

	assert.IsType(t, &badger.BadgerPersistence{}, store)
	require.NoError(t, store.HealthCheck())
}

func TestNewStoreRejectsInvalidConfig(t *testing.T) {
	logger := zap.NewNop()

	_, err := NewStore(nil, logger)
	require.Error(t, err)

	// Unknown backend
	_, err = NewStore(&config.StoreConfig{Backend: "etcd"}, logger)
	require.Error(t, err)

	// Badger without a data directory
	_, err = NewStore(&config.StoreConfig{Backend: config.StoreBackendBadger}, logger)
	require.Error(t, err)

	// Redis without an address
	_, err = NewStore(&config.StoreConfig{Backend: config.StoreBackendRedis}, logger)
	require.Error(t, err)
}
