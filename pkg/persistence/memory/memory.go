package memory

import (
	"fmt"
	"sort"
	"sync"

	"github.com/Layr-Labs/merkledrop-go/pkg/persistence"
	"github.com/Layr-Labs/merkledrop-go/pkg/types"
)

// MemoryPersistence is an in-memory implementation of
// IDistributorPersistence. All data is lost when the process exits, so it is
// intended for tests and local experimentation.
//
// Thread-safe using sync.RWMutex. Deep copies data to prevent external
// mutation.
type MemoryPersistence struct {
	mu sync.RWMutex

	// campaign id -> snapshot
	campaigns map[uint64]*types.Campaign

	nextCampaignID uint64

	closed bool
}

var _ persistence.IDistributorPersistence = (*MemoryPersistence)(nil)

// NewMemoryPersistence creates a new in-memory persistence layer.
func NewMemoryPersistence() *MemoryPersistence {
	return &MemoryPersistence{
		campaigns: make(map[uint64]*types.Campaign),
	}
}

// SaveCampaign persists a campaign snapshot.
func (m *MemoryPersistence) SaveCampaign(campaign *types.Campaign) error {
	if campaign == nil {
		return fmt.Errorf("cannot save nil Campaign")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("persistence layer is closed")
	}

	m.campaigns[campaign.ID] = campaign.Copy()
	return nil
}

// LoadCampaign retrieves a campaign snapshot by id.
func (m *MemoryPersistence) LoadCampaign(id uint64) (*types.Campaign, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, fmt.Errorf("persistence layer is closed")
	}

	campaign, exists := m.campaigns[id]
	if !exists {
		return nil, nil // Not found is not an error
	}

	return campaign.Copy(), nil
}

// ListCampaigns returns all campaigns sorted by id.
func (m *MemoryPersistence) ListCampaigns() ([]*types.Campaign, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, fmt.Errorf("persistence layer is closed")
	}

	ids := make([]uint64, 0, len(m.campaigns))
	for id := range m.campaigns {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	result := make([]*types.Campaign, 0, len(ids))
	for _, id := range ids {
		result = append(result, m.campaigns[id].Copy())
	}

	return result, nil
}

// DeleteCampaign removes a campaign snapshot.
func (m *MemoryPersistence) DeleteCampaign(id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("persistence layer is closed")
	}

	delete(m.campaigns, id)
	return nil
}

// SetNextCampaignID stores the next campaign id.
func (m *MemoryPersistence) SetNextCampaignID(id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("persistence layer is closed")
	}

	m.nextCampaignID = id
	return nil
}

// GetNextCampaignID retrieves the next campaign id.
func (m *MemoryPersistence) GetNextCampaignID() (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return 0, fmt.Errorf("persistence layer is closed")
	}

	return m.nextCampaignID, nil
}

// Close shuts down the persistence layer.
func (m *MemoryPersistence) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	return nil
}

// HealthCheck verifies the persistence layer is operational.
func (m *MemoryPersistence) HealthCheck() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return fmt.Errorf("persistence layer is closed")
	}

	return nil
}
