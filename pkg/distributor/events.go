package distributor

import (
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

// EventType discriminates the distributor's observable state transitions.
type EventType string

const (
	EventCampaignCreated EventType = "campaign_created"
	EventCampaignEdited  EventType = "campaign_edited"
	EventDeposited       EventType = "deposited"
	EventWithdrawn       EventType = "withdrawn"
	EventClaimed         EventType = "claimed"
)

// Event is one entry in the distributor's observable history. Exactly one
// event is emitted per successful state transition, in transition order.
type Event struct {
	ID         uuid.UUID      `json:"id"`
	Type       EventType      `json:"type"`
	Time       time.Time      `json:"time"`
	CampaignID uint64         `json:"campaign_id,omitempty"`
	Caller     common.Address `json:"caller"`
	Token      common.Address `json:"token"`
	Amount     *big.Int       `json:"amount,omitempty"`
}

// EventSink receives distributor events. Emit is called with the
// distributor's lock held, so implementations must not call back into the
// distributor.
type EventSink interface {
	Emit(event Event)
}

// MemorySink records events in order for tests and introspection.
type MemorySink struct {
	mu     sync.Mutex
	events []Event
}

var _ EventSink = (*MemorySink)(nil)

// NewMemorySink returns an empty sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Emit appends the event.
func (s *MemorySink) Emit(event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

// Events returns a copy of the recorded events in emission order.
func (s *MemorySink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}
