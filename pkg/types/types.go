package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// AllocationEntry is one raw (recipient, amount) pair from an allocation
// list. Amounts are already scaled to the base unit of the token.
type AllocationEntry struct {
	Recipient common.Address `json:"recipient"`
	Amount    *big.Int       `json:"amount"`
}

// CanonicalEntry is an allocation entry after canonicalization: the list has
// been sorted lexicographically by recipient address and each entry carries
// its zero-based position as Index. The recipient-to-index mapping is fixed
// at generation time; a claimer must present this exact index.
type CanonicalEntry struct {
	Index     uint64         `json:"index"`
	Recipient common.Address `json:"recipient"`
	Amount    *big.Int       `json:"amount"`
}

// Proof is the inclusion-proof artifact distributed out-of-band to a
// recipient and submitted with a claim. Siblings are ordered from the leaf's
// sibling up to the level below the root.
type Proof struct {
	Index     uint64         `json:"index"`
	Recipient common.Address `json:"recipient"`
	Amount    *big.Int       `json:"amount"`
	Siblings  []common.Hash  `json:"siblings"`
}

// Campaign is the unit of configuration bound to one merkle root: a claim
// window, custody bookkeeping, and the claimed bitmap.
//
// ClaimedAmount only ever increases, by exactly the amount of each
// successful claim. Root may be replaced by an authorized edit, but doing so
// does NOT reset Claimed: indices claimed under the old root stay claimed
// under the new one. That behavior is preserved from the original contract
// deliberately; see DESIGN.md.
type Campaign struct {
	ID            uint64         `json:"id"`
	Token         common.Address `json:"token"`
	TotalAmount   *big.Int       `json:"total_amount"`
	ClaimedAmount *big.Int       `json:"claimed_amount"`
	ClaimStart    int64          `json:"claim_start"`
	ClaimEnd      int64          `json:"claim_end"`
	Root          common.Hash    `json:"root"`
	Claimed       ClaimedBitmap  `json:"claimed"`
}

// Copy returns a deep copy of the campaign so callers cannot mutate
// distributor-owned state through a returned snapshot.
func (c *Campaign) Copy() *Campaign {
	if c == nil {
		return nil
	}
	cp := &Campaign{
		ID:         c.ID,
		Token:      c.Token,
		ClaimStart: c.ClaimStart,
		ClaimEnd:   c.ClaimEnd,
		Root:       c.Root,
		Claimed:    c.Claimed.Copy(),
	}
	if c.TotalAmount != nil {
		cp.TotalAmount = new(big.Int).Set(c.TotalAmount)
	}
	if c.ClaimedAmount != nil {
		cp.ClaimedAmount = new(big.Int).Set(c.ClaimedAmount)
	}
	return cp
}
