package redis

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Layr-Labs/merkledrop-go/pkg/persistence"
	"github.com/Layr-Labs/merkledrop-go/pkg/types"
)

// Key prefixes for namespacing in Redis
const (
	keyPrefixCampaign    = "merkledrop:campaign:"
	keyNextCampaignID    = "merkledrop:campaigns:next_id"
	keySchemaVersion     = "merkledrop:metadata:schema_version"
	currentSchemaVersion = "v1"

	// Key set for listing (Redis doesn't support prefix iteration natively)
	keySetCampaigns = "merkledrop:campaigns:index"
)

// operationTimeout bounds every Redis round trip.
const operationTimeout = 5 * time.Second

// RedisPersistence is a persistence implementation using Redis, suitable for
// cloud-native deployments where distributor state must survive instance
// replacement.
type RedisPersistence struct {
	client    *redis.Client
	logger    *zap.Logger
	keyPrefix string
	mu        sync.RWMutex
	closed    bool
}

var _ persistence.IDistributorPersistence = (*RedisPersistence)(nil)

// RedisConfig holds the configuration for connecting to Redis
type RedisConfig struct {
	// Address is the Redis server address (host:port)
	Address string
	// Password is the optional Redis password
	Password string
	// DB is the Redis database number (0-15)
	DB int
	// KeyPrefix is an optional custom prefix prepended to all keys, for
	// multi-tenant setups. If empty, keys use the default "merkledrop:"
	// namespace.
	KeyPrefix string
}

// NewRedisPersistence creates a new Redis-backed persistence layer.
func NewRedisPersistence(cfg *RedisConfig, logger *zap.Logger) (*RedisPersistence, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address cannot be empty")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Address, err)
	}

	rp := &RedisPersistence{
		client:    client,
		logger:    logger,
		keyPrefix: cfg.KeyPrefix,
	}

	if err := rp.initSchema(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Sugar().Infow("Redis persistence initialized", "address", cfg.Address, "db", cfg.DB)

	return rp, nil
}

// initSchema initializes or validates the schema version
func (r *RedisPersistence) initSchema(ctx context.Context) error {
	key := r.key(keySchemaVersion)

	existing, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return r.client.Set(ctx, key, currentSchemaVersion, 0).Err()
	}
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	if existing != currentSchemaVersion {
		return fmt.Errorf("unsupported schema version: %s (expected: %s)", existing, currentSchemaVersion)
	}

	return nil
}

// key prepends the configured custom prefix, if any.
func (r *RedisPersistence) key(k string) string {
	return r.keyPrefix + k
}

func (r *RedisPersistence) campaignKey(id uint64) string {
	return r.key(fmt.Sprintf("%s%d", keyPrefixCampaign, id))
}

// SaveCampaign persists a campaign snapshot
func (r *RedisPersistence) SaveCampaign(campaign *types.Campaign) error {
	if campaign == nil {
		return fmt.Errorf("cannot save nil Campaign")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return fmt.Errorf("persistence layer is closed")
	}

	data, err := persistence.MarshalCampaign(campaign)
	if err != nil {
		return fmt.Errorf("failed to marshal Campaign: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.campaignKey(campaign.ID), data, 0)
	pipe.SAdd(ctx, r.key(keySetCampaigns), strconv.FormatUint(campaign.ID, 10))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save Campaign: %w", err)
	}

	return nil
}

// LoadCampaign retrieves a campaign snapshot by id
func (r *RedisPersistence) LoadCampaign(id uint64) (*types.Campaign, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, fmt.Errorf("persistence layer is closed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	data, err := r.client.Get(ctx, r.campaignKey(id)).Bytes()
	if err == redis.Nil {
		return nil, nil // Not found is not an error
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load Campaign: %w", err)
	}

	campaign, err := persistence.UnmarshalCampaign(data)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal Campaign: %w", err)
	}

	return campaign, nil
}

// ListCampaigns returns all campaigns sorted by id
func (r *RedisPersistence) ListCampaigns() ([]*types.Campaign, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, fmt.Errorf("persistence layer is closed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	members, err := r.client.SMembers(ctx, r.key(keySetCampaigns)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list campaign ids: %w", err)
	}

	campaigns := make([]*types.Campaign, 0, len(members))
	for _, member := range members {
		id, err := strconv.ParseUint(member, 10, 64)
		if err != nil {
			r.logger.Sugar().Warnw("Invalid campaign id in index, skipping",
				"member", member, "error", err)
			continue
		}

		data, err := r.client.Get(ctx, r.campaignKey(id)).Bytes()
		if err == redis.Nil {
			continue // Index entry without a value; skip
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load Campaign %d: %w", id, err)
		}

		campaign, err := persistence.UnmarshalCampaign(data)
		if err != nil {
			r.logger.Sugar().Warnw("Failed to unmarshal Campaign, skipping",
				"id", id, "error", err)
			continue
		}

		campaigns = append(campaigns, campaign)
	}

	sort.Slice(campaigns, func(i, j int) bool {
		return campaigns[i].ID < campaigns[j].ID
	})

	return campaigns, nil
}

// DeleteCampaign removes a campaign snapshot
func (r *RedisPersistence) DeleteCampaign(id uint64) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return fmt.Errorf("persistence layer is closed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, r.campaignKey(id))
	pipe.SRem(ctx, r.key(keySetCampaigns), strconv.FormatUint(id, 10))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete Campaign: %w", err)
	}

	return nil
}

// SetNextCampaignID stores the next campaign id
func (r *RedisPersistence) SetNextCampaignID(id uint64) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return fmt.Errorf("persistence layer is closed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	if err := r.client.Set(ctx, r.key(keyNextCampaignID), strconv.FormatUint(id, 10), 0).Err(); err != nil {
		return fmt.Errorf("failed to set next campaign id: %w", err)
	}

	return nil
}

// GetNextCampaignID retrieves the next campaign id
func (r *RedisPersistence) GetNextCampaignID() (uint64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return 0, fmt.Errorf("persistence layer is closed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	value, err := r.client.Get(ctx, r.key(keyNextCampaignID)).Result()
	if err == redis.Nil {
		return 0, nil // No id allocated yet
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get next campaign id: %w", err)
	}

	id, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid next campaign id value %q: %w", value, err)
	}

	return id, nil
}

// Close shuts down the persistence layer
func (r *RedisPersistence) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil // Already closed, idempotent
	}
	r.closed = true

	if err := r.client.Close(); err != nil {
		return fmt.Errorf("failed to close redis client: %w", err)
	}

	r.logger.Sugar().Info("Redis persistence closed")
	return nil
}

// HealthCheck verifies the persistence layer is operational
func (r *RedisPersistence) HealthCheck() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return fmt.Errorf("persistence layer is closed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	return r.client.Ping(ctx).Err()
}
