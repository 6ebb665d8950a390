package types

import (
	"math/bits"

	"github.com/holiman/uint256"
)

// WordBits is the bit width of one bitmap storage word. It matches the
// 256-bit storage-slot word of the on-chain claim-state layout so that one
// word covers 256 allocation indices.
const WordBits = 256

// ClaimedBitmap tracks which allocation indices have been claimed, packed
// 256 indices per word: word index/256, bit index%256. Membership testing
// and insertion are O(1) regardless of allocation size.
//
// The zero map means no index has been claimed. Methods are not safe for
// concurrent use; the owning state machine serializes access.
type ClaimedBitmap map[uint64]*uint256.Int

// NewClaimedBitmap returns an empty bitmap with all bits unset.
func NewClaimedBitmap() ClaimedBitmap {
	return make(ClaimedBitmap)
}

// IsSet reports whether the bit for index has been set.
func (b ClaimedBitmap) IsSet(index uint64) bool {
	word, ok := b[index/WordBits]
	if !ok || word == nil {
		return false
	}
	mask := bitMask(index)
	return !new(uint256.Int).And(word, mask).IsZero()
}

// Set marks index as claimed.
func (b ClaimedBitmap) Set(index uint64) {
	key := index / WordBits
	word, ok := b[key]
	if !ok || word == nil {
		word = new(uint256.Int)
		b[key] = word
	}
	word.Or(word, bitMask(index))
}

// Clear unsets the bit for index. Used only for rolling back a provisional
// set when the remainder of a claim fails.
func (b ClaimedBitmap) Clear(index uint64) {
	key := index / WordBits
	word, ok := b[key]
	if !ok || word == nil {
		return
	}
	word.And(word, new(uint256.Int).Not(bitMask(index)))
	if word.IsZero() {
		delete(b, key)
	}
}

// Count returns the number of set bits. Intended for introspection and
// tests, not the claim hot path.
func (b ClaimedBitmap) Count() uint64 {
	var n uint64
	for _, word := range b {
		if word == nil {
			continue
		}
		w := *word
		for i := 0; i < 4; i++ {
			n += uint64(bits.OnesCount64(w[i]))
		}
	}
	return n
}

// Copy returns a deep copy of the bitmap.
func (b ClaimedBitmap) Copy() ClaimedBitmap {
	cp := make(ClaimedBitmap, len(b))
	for k, v := range b {
		if v == nil {
			continue
		}
		cp[k] = new(uint256.Int).Set(v)
	}
	return cp
}

func bitMask(index uint64) *uint256.Int {
	return new(uint256.Int).Lsh(uint256.NewInt(1), uint(index%WordBits))
}

