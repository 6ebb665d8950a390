package merkle

import (
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/Layr-Labs/merkledrop-go/pkg/types"
)

// testAllocations creates n allocation entries with distinct recipients
func testAllocations(n int) []types.AllocationEntry {
	entries := make([]types.AllocationEntry, n)
	for i := 0; i < n; i++ {
		entries[i] = types.AllocationEntry{
			Recipient: common.BigToAddress(big.NewInt(int64(i + 1))),
			Amount:    big.NewInt(int64((i + 1) * 100)),
		}
	}
	return entries
}

func mustCanonicalize(t *testing.T, entries []types.AllocationEntry) []types.CanonicalEntry {
	t.Helper()
	canonical, err := Canonicalize(entries)
	require.NoError(t, err)
	return canonical
}

func TestCanonicalize(t *testing.T) {
	entries := []types.AllocationEntry{
		{Recipient: common.BigToAddress(big.NewInt(9)), Amount: big.NewInt(900)},
		{Recipient: common.BigToAddress(big.NewInt(1)), Amount: big.NewInt(100)},
		{Recipient: common.BigToAddress(big.NewInt(5)), Amount: big.NewInt(500)},
	}

	canonical, err := Canonicalize(entries)
	require.NoError(t, err)
	require.Len(t, canonical, 3)

	// Sorted by recipient, indices assigned in order
	require.Equal(t, common.BigToAddress(big.NewInt(1)), canonical[0].Recipient)
	require.Equal(t, common.BigToAddress(big.NewInt(5)), canonical[1].Recipient)
	require.Equal(t, common.BigToAddress(big.NewInt(9)), canonical[2].Recipient)
	for i, entry := range canonical {
		require.Equal(t, uint64(i), entry.Index)
	}

	// Input slice is untouched
	require.Equal(t, common.BigToAddress(big.NewInt(9)), entries[0].Recipient)
}

func TestCanonicalizeEmpty(t *testing.T) {
	canonical, err := Canonicalize(nil)
	require.ErrorIs(t, err, ErrEmptyAllocation)
	require.Nil(t, canonical)
}

func TestCanonicalizeDuplicateRecipient(t *testing.T) {
	dup := common.BigToAddress(big.NewInt(7))
	entries := []types.AllocationEntry{
		{Recipient: dup, Amount: big.NewInt(1)},
		{Recipient: common.BigToAddress(big.NewInt(3)), Amount: big.NewInt(2)},
		{Recipient: dup, Amount: big.NewInt(3)},
	}

	_, err := Canonicalize(entries)
	require.ErrorIs(t, err, ErrDuplicateRecipient)
	require.Contains(t, err.Error(), dup.Hex())
}

func TestCanonicalizeInvalidAmount(t *testing.T) {
	t.Run("nil amount", func(t *testing.T) {
		_, err := Canonicalize([]types.AllocationEntry{
			{Recipient: common.BigToAddress(big.NewInt(1))},
		})
		require.Error(t, err)
	})

	t.Run("negative amount", func(t *testing.T) {
		_, err := Canonicalize([]types.AllocationEntry{
			{Recipient: common.BigToAddress(big.NewInt(1)), Amount: big.NewInt(-5)},
		})
		require.Error(t, err)
	})

	// The leaf encoding is 32 bytes wide; anything past 2^256-1 must be
	// rejected here, before HashEntry is ever reached.
	t.Run("amount past 256 bits", func(t *testing.T) {
		_, err := Canonicalize([]types.AllocationEntry{
			{Recipient: common.BigToAddress(big.NewInt(1)), Amount: new(big.Int).Lsh(big.NewInt(1), 256)},
		})
		require.Error(t, err)
	})

	t.Run("max encodable amount accepted", func(t *testing.T) {
		max := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
		canonical, err := Canonicalize([]types.AllocationEntry{
			{Recipient: common.BigToAddress(big.NewInt(1)), Amount: max},
		})
		require.NoError(t, err)
		require.Equal(t, 0, max.Cmp(canonical[0].Amount))
	})
}

// TestBuildTreeAndProofs covers round-trip proof validity for a range of
// leaf counts, including non-power-of-two paddings.
func TestBuildTreeAndProofs(t *testing.T) {
	testCases := []struct {
		name       string
		numEntries int
	}{
		{"Single entry", 1},
		{"Two entries", 2},
		{"Three entries", 3},
		{"Four entries (power of 2)", 4},
		{"Seven entries", 7},
		{"Eight entries (power of 2)", 8},
		{"Fifteen entries", 15},
		{"Sixteen entries (power of 2)", 16},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			canonical := mustCanonicalize(t, testAllocations(tc.numEntries))
			tree, err := BuildTree(canonical)
			require.NoError(t, err)
			require.NotNil(t, tree)
			require.Equal(t, tc.numEntries, tree.NumLeaves())
			require.NotEqual(t, common.Hash{}, tree.Root())

			for i := 0; i < tc.numEntries; i++ {
				proof, err := tree.GenerateProof(uint64(i))
				require.NoError(t, err)
				require.Equal(t, uint64(i), proof.Index)

				leaf := HashEntry(proof.Index, proof.Recipient, proof.Amount)
				require.True(t, VerifyProof(leaf, proof.Siblings, tree.Root()),
					"proof for leaf %d should be valid", i)
			}
		})
	}
}

func TestBuildTreeEmpty(t *testing.T) {
	tree, err := BuildTree(nil)
	require.ErrorIs(t, err, ErrEmptyAllocation)
	require.Nil(t, tree)
}

func TestBuildTreeNonCanonicalIndices(t *testing.T) {
	entries := []types.CanonicalEntry{
		{Index: 5, Recipient: common.BigToAddress(big.NewInt(1)), Amount: big.NewInt(1)},
	}
	_, err := BuildTree(entries)
	require.Error(t, err)
}

// BuildTree accepts entries directly, so it repeats the amount bounds
// checks rather than relying on Canonicalize having run.
func TestBuildTreeInvalidAmount(t *testing.T) {
	for _, amount := range []*big.Int{nil, big.NewInt(-1), new(big.Int).Lsh(big.NewInt(1), 256)} {
		_, err := BuildTree([]types.CanonicalEntry{
			{Index: 0, Recipient: common.BigToAddress(big.NewInt(1)), Amount: amount},
		})
		require.Error(t, err)
	}
}

func TestGenerateProofOutOfRange(t *testing.T) {
	canonical := mustCanonicalize(t, testAllocations(4))
	tree, err := BuildTree(canonical)
	require.NoError(t, err)

	proof, err := tree.GenerateProof(4)
	require.ErrorIs(t, err, ErrIndexOutOfRange)
	require.Nil(t, proof)

	_, err = tree.Leaf(10)
	require.ErrorIs(t, err, ErrIndexOutOfRange)
}

// TestProofRejection mutates each component of a valid proof and checks
// that verification fails.
func TestProofRejection(t *testing.T) {
	canonical := mustCanonicalize(t, testAllocations(8))
	tree, err := BuildTree(canonical)
	require.NoError(t, err)

	proof, err := tree.GenerateProof(3)
	require.NoError(t, err)

	t.Run("valid baseline", func(t *testing.T) {
		leaf := HashEntry(proof.Index, proof.Recipient, proof.Amount)
		require.True(t, VerifyProof(leaf, proof.Siblings, tree.Root()))
	})

	t.Run("wrong amount", func(t *testing.T) {
		leaf := HashEntry(proof.Index, proof.Recipient, new(big.Int).Add(proof.Amount, big.NewInt(1)))
		require.False(t, VerifyProof(leaf, proof.Siblings, tree.Root()))
	})

	t.Run("wrong recipient", func(t *testing.T) {
		other := common.BigToAddress(big.NewInt(999))
		leaf := HashEntry(proof.Index, other, proof.Amount)
		require.False(t, VerifyProof(leaf, proof.Siblings, tree.Root()))
	})

	t.Run("wrong index", func(t *testing.T) {
		leaf := HashEntry(proof.Index+1, proof.Recipient, proof.Amount)
		require.False(t, VerifyProof(leaf, proof.Siblings, tree.Root()))
	})

	t.Run("tampered sibling", func(t *testing.T) {
		leaf := HashEntry(proof.Index, proof.Recipient, proof.Amount)
		tampered := make([]common.Hash, len(proof.Siblings))
		copy(tampered, proof.Siblings)
		tampered[0][0] ^= 0xFF
		require.False(t, VerifyProof(leaf, tampered, tree.Root()))
	})

	t.Run("wrong root", func(t *testing.T) {
		leaf := HashEntry(proof.Index, proof.Recipient, proof.Amount)
		require.False(t, VerifyProof(leaf, proof.Siblings, common.Hash{1, 2, 3}))
	})

	t.Run("truncated proof", func(t *testing.T) {
		leaf := HashEntry(proof.Index, proof.Recipient, proof.Amount)
		require.False(t, VerifyProof(leaf, proof.Siblings[:len(proof.Siblings)-1], tree.Root()))
	})
}

// TestDeterminism checks that identical allocation sets yield identical
// roots independent of input ordering.
func TestDeterminism(t *testing.T) {
	entries := testAllocations(10)

	canonical1 := mustCanonicalize(t, entries)
	tree1, err := BuildTree(canonical1)
	require.NoError(t, err)

	// Reverse input order; canonicalization must erase the permutation
	reversed := make([]types.AllocationEntry, len(entries))
	for i, entry := range entries {
		reversed[len(entries)-1-i] = entry
	}
	canonical2 := mustCanonicalize(t, reversed)
	tree2, err := BuildTree(canonical2)
	require.NoError(t, err)

	require.Equal(t, tree1.Root(), tree2.Root())
	require.Equal(t, canonical1, canonical2)

	// Repeated runs over the same list agree
	tree3, err := BuildTree(canonical1)
	require.NoError(t, err)
	require.Equal(t, tree1.Root(), tree3.Root())
}

func TestHashEntryDistinctInputs(t *testing.T) {
	base := HashEntry(0, common.BigToAddress(big.NewInt(1)), big.NewInt(100))

	require.NotEqual(t, base, HashEntry(1, common.BigToAddress(big.NewInt(1)), big.NewInt(100)))
	require.NotEqual(t, base, HashEntry(0, common.BigToAddress(big.NewInt(2)), big.NewInt(100)))
	require.NotEqual(t, base, HashEntry(0, common.BigToAddress(big.NewInt(1)), big.NewInt(101)))

	// Deterministic
	require.Equal(t, base, HashEntry(0, common.BigToAddress(big.NewInt(1)), big.NewInt(100)))
}

// TestSortedPairIsOrderAgnostic is the shared builder/verifier contract:
// combining a node with its sibling must not depend on which side it was on.
func TestSortedPairIsOrderAgnostic(t *testing.T) {
	a := common.Hash{0x01}
	b := common.Hash{0x02}
	require.Equal(t, hashPair(a, b), hashPair(b, a))
	// Self-pairing (odd-level padding) is well defined
	require.Equal(t, hashPair(a, a), hashPair(a, a))
}

func TestLargeTree(t *testing.T) {
	sizes := []int{50, 100, 200}

	for _, size := range sizes {
		t.Run(fmt.Sprintf("Size_%d", size), func(t *testing.T) {
			canonical := mustCanonicalize(t, testAllocations(size))
			tree, err := BuildTree(canonical)
			require.NoError(t, err)
			require.Equal(t, size, tree.NumLeaves())

			for _, idx := range []uint64{0, uint64(size / 4), uint64(size / 2), uint64(size - 1)} {
				proof, err := tree.GenerateProof(idx)
				require.NoError(t, err)
				leaf := HashEntry(proof.Index, proof.Recipient, proof.Amount)
				require.True(t, VerifyProof(leaf, proof.Siblings, tree.Root()))
			}
		})
	}
}
