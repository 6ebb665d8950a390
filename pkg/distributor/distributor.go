package distributor

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Layr-Labs/merkledrop-go/pkg/authz"
	"github.com/Layr-Labs/merkledrop-go/pkg/custody"
	"github.com/Layr-Labs/merkledrop-go/pkg/logger"
	"github.com/Layr-Labs/merkledrop-go/pkg/merkle"
	"github.com/Layr-Labs/merkledrop-go/pkg/persistence"
	"github.com/Layr-Labs/merkledrop-go/pkg/types"
)

// Distributor is the claim-verifier state machine. It owns the campaign
// registry and every campaign's claimed bitmap, verifies inclusion proofs
// against each campaign's published root, and triggers payouts from the
// shared custody pool.
//
// One mutex serializes the whole check-set-verify-pay sequence of a claim
// as well as all administrative mutations, reproducing the all-or-nothing
// transaction discipline the on-chain original gets from its host ledger.
type Distributor struct {
	mu sync.Mutex

	// campaign registry: id -> record (arena+index, not subclassing)
	campaigns      map[uint64]*types.Campaign
	nextCampaignID uint64

	authorizer authz.Authorizer
	ledger     custody.Ledger
	store      persistence.IDistributorPersistence // optional
	sink       EventSink                           // optional
	now        func() time.Time
	logger     *zap.Logger
}

// Config holds distributor construction dependencies. Authorizer and Ledger
// are required; the rest default sensibly.
type Config struct {
	Authorizer authz.Authorizer
	Ledger     custody.Ledger

	// Store, when set, is loaded at construction and mirrored on every
	// successful mutation.
	Store persistence.IDistributorPersistence

	// Sink receives one event per successful state transition.
	Sink EventSink

	// Clock overrides time.Now, letting tests pin the claim window.
	Clock func() time.Time

	Logger *zap.Logger
}

// NewDistributor creates a distributor, restoring campaigns from the
// configured store if one is set.
func NewDistributor(cfg Config) (*Distributor, error) {
	if cfg.Authorizer == nil {
		return nil, fmt.Errorf("authorizer is required")
	}
	if cfg.Ledger == nil {
		return nil, fmt.Errorf("ledger is required")
	}

	log := cfg.Logger
	if log == nil {
		log, _ = logger.NewLogger(&logger.LoggerConfig{Debug: false})
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	d := &Distributor{
		campaigns:      make(map[uint64]*types.Campaign),
		nextCampaignID: 1,
		authorizer:     cfg.Authorizer,
		ledger:         cfg.Ledger,
		store:          cfg.Store,
		sink:           cfg.Sink,
		now:            clock,
		logger:         log,
	}

	if d.store != nil {
		if err := d.restore(); err != nil {
			return nil, fmt.Errorf("failed to restore distributor state: %w", err)
		}
	}

	return d, nil
}

// restore loads persisted campaigns and the id counter.
func (d *Distributor) restore() error {
	campaigns, err := d.store.ListCampaigns()
	if err != nil {
		return fmt.Errorf("failed to list campaigns: %w", err)
	}
	// The counter write in persist is best-effort, so it can lag the saved
	// campaigns. Derive the counter from both sources; assigning an id that
	// is already taken would overwrite that campaign's claimed bitmap.
	for _, c := range campaigns {
		d.campaigns[c.ID] = c
		if c.ID >= d.nextCampaignID {
			d.nextCampaignID = c.ID + 1
		}
	}

	nextID, err := d.store.GetNextCampaignID()
	if err != nil {
		return fmt.Errorf("failed to load next campaign id: %w", err)
	}
	if nextID > d.nextCampaignID {
		d.nextCampaignID = nextID
	}

	if len(campaigns) > 0 {
		d.logger.Sugar().Infow("Restored campaigns from store",
			"count", len(campaigns), "nextCampaignID", d.nextCampaignID)
	}
	return nil
}

// CreateCampaign allocates a new campaign bound to root with an empty
// claimed bitmap. Administrative; fails with ErrUnauthorized otherwise.
//
// claimStart/claimEnd are unix seconds and are not validated against each
// other: a window with claimStart > claimEnd is permanently inactive.
func (d *Distributor) CreateCampaign(caller common.Address, token common.Address, totalAmount *big.Int, claimStart, claimEnd int64, root common.Hash) (uint64, error) {
	if !d.authorizer.Authorized(caller, authz.RoleAdmin) {
		return 0, ErrUnauthorized
	}
	if totalAmount == nil {
		totalAmount = new(big.Int)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	id := d.nextCampaignID
	d.nextCampaignID++

	campaign := &types.Campaign{
		ID:            id,
		Token:         token,
		TotalAmount:   new(big.Int).Set(totalAmount),
		ClaimedAmount: new(big.Int),
		ClaimStart:    claimStart,
		ClaimEnd:      claimEnd,
		Root:          root,
		Claimed:       types.NewClaimedBitmap(),
	}
	d.campaigns[id] = campaign

	d.persist(campaign, true)
	d.emit(Event{
		Type:       EventCampaignCreated,
		CampaignID: id,
		Caller:     caller,
		Token:      token,
		Amount:     new(big.Int).Set(totalAmount),
	})
	d.logger.Sugar().Infow("Campaign created",
		"campaignId", id, "token", token.Hex(), "root", campaign.Root.Hex(),
		"claimStart", claimStart, "claimEnd", claimEnd)

	return id, nil
}

// EditCampaign overwrites a campaign's window and root in place.
// Administrative. The claimed bitmap and claimed amount are deliberately
// left untouched: indices claimed under the old root stay claimed under the
// replacement root.
func (d *Distributor) EditCampaign(caller common.Address, id uint64, claimStart, claimEnd int64, root common.Hash) error {
	if !d.authorizer.Authorized(caller, authz.RoleAdmin) {
		return ErrUnauthorized
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	campaign, ok := d.campaigns[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrCampaignNotFound, id)
	}

	campaign.ClaimStart = claimStart
	campaign.ClaimEnd = claimEnd
	campaign.Root = root

	d.persist(campaign, false)
	d.emit(Event{
		Type:       EventCampaignEdited,
		CampaignID: id,
		Caller:     caller,
		Token:      campaign.Token,
	})
	d.logger.Sugar().Infow("Campaign edited",
		"campaignId", id, "root", root.Hex(), "claimStart", claimStart, "claimEnd", claimEnd)

	return nil
}

// Deposit transfers value from the caller into the shared custody pool.
// Administrative. Custody is not tracked per campaign: any campaign paying
// the same token draws from the same pool.
func (d *Distributor) Deposit(ctx context.Context, caller common.Address, token common.Address, amount *big.Int) error {
	if !d.authorizer.Authorized(caller, authz.RoleAdmin) {
		return ErrUnauthorized
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ledger.TransferIn(ctx, token, caller, amount); err != nil {
		return fmt.Errorf("%w: %v", ErrDepositFailed, err)
	}

	d.emit(Event{
		Type:   EventDeposited,
		Caller: caller,
		Token:  token,
		Amount: new(big.Int).Set(amount),
	})
	d.logger.Sugar().Infow("Tokens deposited",
		"token", token.Hex(), "amount", amount.String(), "from", caller.Hex())

	return nil
}

// HasClaimed reports whether index has been claimed for the campaign.
// No authorization required.
func (d *Distributor) HasClaimed(id uint64, index uint64) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	campaign, ok := d.campaigns[id]
	if !ok {
		return false, fmt.Errorf("%w: %d", ErrCampaignNotFound, id)
	}
	return campaign.Claimed.IsSet(index), nil
}

// Claim verifies the caller's allocation against the campaign root and, on
// success, marks the index claimed and pays out amount from custody.
//
// The leaf is recomputed from the caller's identity, so a proof is only
// valid for the entity presenting it. The bitmap bit is set before proof
// verification (claim-then-verify-then-pay); a verification or payout
// failure rolls back the bit and the claimed amount before the lock is
// released, so no partial state is ever observable.
func (d *Distributor) Claim(ctx context.Context, caller common.Address, id uint64, index uint64, amount *big.Int, siblings []common.Hash) error {
	// The amount must fit the fixed-width leaf encoding before anything is
	// mutated: a negative value would encode as its absolute value and prove
	// against the legitimate leaf, and a value past 256 bits cannot be
	// encoded at all.
	if amount == nil || amount.Sign() < 0 || amount.BitLen() > 256 {
		return fmt.Errorf("%w: amount outside the encodable range", ErrIncorrectAllocation)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	campaign, ok := d.campaigns[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrCampaignNotFound, id)
	}

	// Window boundaries are inclusive.
	now := d.now().Unix()
	if now < campaign.ClaimStart {
		return ErrClaimUnbegun
	}
	if now > campaign.ClaimEnd {
		return ErrClaimEnded
	}

	if campaign.Claimed.IsSet(index) {
		return ErrAlreadyClaimed
	}

	// Provisionally record the claim before verifying. The rollback below
	// undoes both mutations on any later failure.
	campaign.Claimed.Set(index)
	campaign.ClaimedAmount.Add(campaign.ClaimedAmount, amount)
	rollback := func() {
		campaign.Claimed.Clear(index)
		campaign.ClaimedAmount.Sub(campaign.ClaimedAmount, amount)
	}

	leaf := merkle.HashEntry(index, caller, amount)
	if !merkle.VerifyProof(leaf, siblings, campaign.Root) {
		rollback()
		return ErrIncorrectAllocation
	}

	if err := d.ledger.TransferOut(ctx, campaign.Token, caller, amount); err != nil {
		rollback()
		return fmt.Errorf("%w: %v", ErrPayoutFailed, err)
	}

	d.persist(campaign, false)
	d.emit(Event{
		Type:       EventClaimed,
		CampaignID: id,
		Caller:     caller,
		Token:      campaign.Token,
		Amount:     new(big.Int).Set(amount),
	})
	d.logger.Sugar().Infow("Claim succeeded",
		"campaignId", id, "index", index, "claimer", caller.Hex(), "amount", amount.String())

	return nil
}

// WithdrawToken moves amount of token from custody to the given address.
// Administrative. amount of zero withdraws the entire custody balance of
// that token.
func (d *Distributor) WithdrawToken(ctx context.Context, caller common.Address, token common.Address, to common.Address, amount *big.Int) error {
	return d.withdraw(ctx, caller, token, to, amount)
}

// WithdrawNative is WithdrawToken for the chain-native asset.
func (d *Distributor) WithdrawNative(ctx context.Context, caller common.Address, to common.Address, amount *big.Int) error {
	return d.withdraw(ctx, caller, custody.NativeToken, to, amount)
}

func (d *Distributor) withdraw(ctx context.Context, caller common.Address, token common.Address, to common.Address, amount *big.Int) error {
	if !d.authorizer.Authorized(caller, authz.RoleAdmin) {
		return ErrUnauthorized
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if amount == nil || amount.Sign() == 0 {
		amount = d.ledger.Balance(token)
	}

	if err := d.ledger.TransferOut(ctx, token, to, amount); err != nil {
		return fmt.Errorf("withdrawal transfer failed: %w", err)
	}

	d.emit(Event{
		Type:   EventWithdrawn,
		Caller: caller,
		Token:  token,
		Amount: new(big.Int).Set(amount),
	})
	d.logger.Sugar().Infow("Tokens withdrawn",
		"token", token.Hex(), "amount", amount.String(), "to", to.Hex())

	return nil
}

// Campaign returns a deep-copied snapshot of one campaign.
func (d *Distributor) Campaign(id uint64) (*types.Campaign, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	campaign, ok := d.campaigns[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrCampaignNotFound, id)
	}
	return campaign.Copy(), nil
}

// Campaigns returns deep-copied snapshots of all campaigns in id order.
func (d *Distributor) Campaigns() []*types.Campaign {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]*types.Campaign, 0, len(d.campaigns))
	for id := uint64(1); id < d.nextCampaignID; id++ {
		if c, ok := d.campaigns[id]; ok {
			out = append(out, c.Copy())
		}
	}
	return out
}

// persist mirrors a campaign snapshot to the store. In-memory state is
// authoritative; a store failure is logged, not surfaced, so a durable-layer
// outage cannot fail an otherwise valid claim.
func (d *Distributor) persist(campaign *types.Campaign, withNextID bool) {
	if d.store == nil {
		return
	}
	if err := d.store.SaveCampaign(campaign); err != nil {
		d.logger.Sugar().Errorw("Failed to persist campaign",
			"campaignId", campaign.ID, "error", err)
	}
	if withNextID {
		if err := d.store.SetNextCampaignID(d.nextCampaignID); err != nil {
			d.logger.Sugar().Errorw("Failed to persist next campaign id", "error", err)
		}
	}
}

func (d *Distributor) emit(event Event) {
	if d.sink == nil {
		return
	}
	event.ID = uuid.New()
	event.Time = d.now()
	d.sink.Emit(event)
}
