package persistence

import "github.com/Layr-Labs/merkledrop-go/pkg/types"

// IDistributorPersistence defines the interface for persisting distributor
// state across restarts. All implementations must be thread-safe; the
// distributor may save snapshots while serving reads.
//
// The interface supports:
// - Campaign snapshots (save, load, list, delete)
// - Campaign id allocation (next-id counter)
// - Lifecycle management (close, health check)
type IDistributorPersistence interface {
	// SaveCampaign persists a campaign snapshot indexed by campaign id,
	// overwriting any existing snapshot for that id.
	SaveCampaign(campaign *types.Campaign) error

	// LoadCampaign retrieves a campaign snapshot by id.
	// Returns nil if the campaign doesn't exist, error only on storage failure.
	LoadCampaign(id uint64) (*types.Campaign, error)

	// ListCampaigns returns all persisted campaigns sorted by id (ascending).
	// Returns empty slice if none exist, error only on storage failure.
	ListCampaigns() ([]*types.Campaign, error)

	// DeleteCampaign removes a campaign snapshot by id.
	// Idempotent - returns nil if the campaign doesn't exist.
	DeleteCampaign(id uint64) error

	// SetNextCampaignID stores the id the distributor will assign to the
	// next created campaign.
	SetNextCampaignID(id uint64) error

	// GetNextCampaignID returns the stored next campaign id.
	// Returns 0 if none has been stored yet (first run).
	GetNextCampaignID() (uint64, error)

	// Close cleanly shuts down the persistence layer.
	// Idempotent - safe to call multiple times.
	// After Close(), all other operations should return errors.
	Close() error

	// HealthCheck verifies the persistence layer is operational.
	// Returns nil if healthy, error describing the problem if not.
	HealthCheck() error
}
