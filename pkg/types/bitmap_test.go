package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClaimedBitmapSetAndIsSet(t *testing.T) {
	b := NewClaimedBitmap()

	require.False(t, b.IsSet(0))
	require.False(t, b.IsSet(255))
	require.False(t, b.IsSet(256))

	b.Set(0)
	require.True(t, b.IsSet(0))
	require.False(t, b.IsSet(1))

	// Bits around word boundaries must not interfere
	b.Set(255)
	b.Set(256)
	require.True(t, b.IsSet(255))
	require.True(t, b.IsSet(256))
	require.False(t, b.IsSet(257))
	require.False(t, b.IsSet(511))

	require.Equal(t, uint64(3), b.Count())
}

func TestClaimedBitmapSetIsIdempotent(t *testing.T) {
	b := NewClaimedBitmap()
	b.Set(42)
	b.Set(42)
	require.True(t, b.IsSet(42))
	require.Equal(t, uint64(1), b.Count())
}

func TestClaimedBitmapClear(t *testing.T) {
	b := NewClaimedBitmap()
	b.Set(100)
	b.Set(101)

	b.Clear(100)
	require.False(t, b.IsSet(100))
	require.True(t, b.IsSet(101))

	// Clearing an unset bit is a no-op
	b.Clear(100)
	b.Clear(9999)
	require.Equal(t, uint64(1), b.Count())

	// Emptying a word drops it entirely
	b.Clear(101)
	require.Empty(t, b)
}

func TestClaimedBitmapLargeIndices(t *testing.T) {
	b := NewClaimedBitmap()
	indices := []uint64{0, 1, 63, 64, 127, 128, 191, 192, 255, 256, 1 << 20, 1<<20 + 1}

	for _, idx := range indices {
		b.Set(idx)
	}
	for _, idx := range indices {
		require.True(t, b.IsSet(idx), "index %d should be set", idx)
	}
	require.Equal(t, uint64(len(indices)), b.Count())
}

func TestClaimedBitmapCopyIsDeep(t *testing.T) {
	b := NewClaimedBitmap()
	b.Set(7)

	cp := b.Copy()
	cp.Set(8)
	cp.Clear(7)

	require.True(t, b.IsSet(7))
	require.False(t, b.IsSet(8))
}

func TestClaimedBitmapJSONRoundTrip(t *testing.T) {
	b := NewClaimedBitmap()
	b.Set(3)
	b.Set(300)
	b.Set(70000)

	data, err := json.Marshal(b)
	require.NoError(t, err)

	var restored ClaimedBitmap
	require.NoError(t, json.Unmarshal(data, &restored))

	require.True(t, restored.IsSet(3))
	require.True(t, restored.IsSet(300))
	require.True(t, restored.IsSet(70000))
	require.False(t, restored.IsSet(4))
	require.Equal(t, b.Count(), restored.Count())
}

func TestCampaignCopyIsDeep(t *testing.T) {
	c := &Campaign{
		ID:      3,
		Claimed: NewClaimedBitmap(),
	}
	c.Claimed.Set(1)

	cp := c.Copy()
	cp.Claimed.Set(2)

	require.True(t, c.Claimed.IsSet(1))
	require.False(t, c.Claimed.IsSet(2))
}
