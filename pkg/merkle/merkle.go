package merkle

import (
	"bytes"
	"fmt"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/Layr-Labs/merkledrop-go/pkg/types"
)

// Canonicalize produces the canonical ordering of an allocation list: sorted
// lexicographically by recipient address, with each entry assigned its
// position as the index. The ordering is what makes tree construction
// deterministic across environments and input permutations.
//
// Fails with ErrEmptyAllocation on an empty list and ErrDuplicateRecipient
// if the same recipient appears twice (the index assignment would be
// ambiguous).
func Canonicalize(entries []types.AllocationEntry) ([]types.CanonicalEntry, error) {
	if len(entries) == 0 {
		return nil, ErrEmptyAllocation
	}

	// Copy before sorting so the caller's slice is untouched.
	sorted := make([]types.AllocationEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		return bytes.Compare(sorted[i].Recipient[:], sorted[j].Recipient[:]) < 0
	})

	canonical := make([]types.CanonicalEntry, len(sorted))
	for i, entry := range sorted {
		if i > 0 && entry.Recipient == sorted[i-1].Recipient {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateRecipient, entry.Recipient.Hex())
		}
		if entry.Amount == nil || entry.Amount.Sign() < 0 || entry.Amount.BitLen() > 256 {
			return nil, fmt.Errorf("allocation for %s has invalid amount", entry.Recipient.Hex())
		}
		canonical[i] = types.CanonicalEntry{
			Index:     uint64(i),
			Recipient: entry.Recipient,
			Amount:    new(big.Int).Set(entry.Amount),
		}
	}

	return canonical, nil
}

// HashEntry computes the leaf commitment for one allocation entry:
// keccak256(index_uint256 || recipient_20bytes || amount_uint256).
// The fixed-width encoding is injective over the input domain, so distinct
// entries never collide at the encoding layer.
func HashEntry(index uint64, recipient common.Address, amount *big.Int) common.Hash {
	data := make([]byte, 0, 32+20+32)

	var indexBuf [32]byte
	new(big.Int).SetUint64(index).FillBytes(indexBuf[:])
	data = append(data, indexBuf[:]...)

	data = append(data, recipient.Bytes()...)

	var amountBuf [32]byte
	amount.FillBytes(amountBuf[:])
	data = append(data, amountBuf[:]...)

	return crypto.Keccak256Hash(data)
}

// Tree is a binary merkle tree over the canonical allocation list.
// Internal nodes use sorted-pair keccak256 hashing, so verification does not
// need to know whether a proof element was the left or right sibling.
type Tree struct {
	entries []types.CanonicalEntry
	leaves  []common.Hash

	// levels[0] = leaves, levels[len-1] = the single root node
	levels [][]common.Hash
	root   common.Hash
}

// BuildTree constructs the tree bottom-up from canonicalized entries.
// If a level has an odd number of nodes, the last node is duplicated; that
// padding rule is part of the shared builder/verifier contract.
func BuildTree(entries []types.CanonicalEntry) (*Tree, error) {
	if len(entries) == 0 {
		return nil, ErrEmptyAllocation
	}

	leaves := make([]common.Hash, len(entries))
	for i, entry := range entries {
		if entry.Index != uint64(i) {
			return nil, fmt.Errorf("entry %d carries index %d; list is not canonical", i, entry.Index)
		}
		if entry.Amount == nil || entry.Amount.Sign() < 0 || entry.Amount.BitLen() > 256 {
			return nil, fmt.Errorf("entry %d has invalid amount", i)
		}
		leaves[i] = HashEntry(entry.Index, entry.Recipient, entry.Amount)
	}

	levels := make([][]common.Hash, 0)
	levels = append(levels, leaves)

	currentLevel := leaves
	for len(currentLevel) > 1 {
		nextLevel := make([]common.Hash, 0, (len(currentLevel)+1)/2)

		for i := 0; i < len(currentLevel); i += 2 {
			left := currentLevel[i]
			right := left
			if i+1 < len(currentLevel) {
				right = currentLevel[i+1]
			}
			nextLevel = append(nextLevel, hashPair(left, right))
		}

		levels = append(levels, nextLevel)
		currentLevel = nextLevel
	}

	return &Tree{
		entries: entries,
		leaves:  leaves,
		levels:  levels,
		root:    currentLevel[0],
	}, nil
}

// Root returns the tree's root hash, the sole published artifact.
func (t *Tree) Root() common.Hash {
	return t.root
}

// NumLeaves returns the number of allocation entries committed to.
func (t *Tree) NumLeaves() int {
	return len(t.leaves)
}

// Leaf returns the leaf hash at index.
func (t *Tree) Leaf(index uint64) (common.Hash, error) {
	if index >= uint64(len(t.leaves)) {
		return common.Hash{}, fmt.Errorf("%w: index %d, tree has %d leaves", ErrIndexOutOfRange, index, len(t.leaves))
	}
	return t.leaves[index], nil
}

// GenerateProof collects the sibling hashes along the path from the leaf at
// index up to the root. Fails with ErrIndexOutOfRange past the leaf count.
func (t *Tree) GenerateProof(index uint64) (*types.Proof, error) {
	if index >= uint64(len(t.leaves)) {
		return nil, fmt.Errorf("%w: index %d, tree has %d leaves", ErrIndexOutOfRange, index, len(t.leaves))
	}

	siblings := make([]common.Hash, 0, len(t.levels)-1)
	pos := int(index)

	for level := 0; level < len(t.levels)-1; level++ {
		currentLevel := t.levels[level]

		siblingPos := pos + 1
		if pos%2 == 1 {
			siblingPos = pos - 1
		}
		// Last node on an odd level pairs with itself.
		if siblingPos >= len(currentLevel) {
			siblingPos = pos
		}

		siblings = append(siblings, currentLevel[siblingPos])
		pos /= 2
	}

	entry := t.entries[index]
	return &types.Proof{
		Index:     entry.Index,
		Recipient: entry.Recipient,
		Amount:    new(big.Int).Set(entry.Amount),
		Siblings:  siblings,
	}, nil
}

// VerifyProof folds the leaf up through the sibling list with sorted-pair
// hashing and reports whether the result equals root. The fold is
// position-agnostic: sorted-pair combination makes left/right placement
// irrelevant, which is exactly why the builder must use the same rule.
func VerifyProof(leaf common.Hash, siblings []common.Hash, root common.Hash) bool {
	acc := leaf
	for _, sibling := range siblings {
		acc = hashPair(acc, sibling)
	}
	return acc == root
}

// hashPair computes keccak256 of the two child hashes concatenated in
// ascending byte order.
func hashPair(a, b common.Hash) common.Hash {
	if bytes.Compare(b[:], a[:]) < 0 {
		a, b = b, a
	}
	data := make([]byte, 64)
	copy(data[0:32], a[:])
	copy(data[32:64], b[:])
	return crypto.Keccak256Hash(data)
}
