package persistence

import (
	"encoding/json"
	"fmt"

	"github.com/Layr-Labs/merkledrop-go/pkg/types"
)

// MarshalCampaign serializes a Campaign to JSON bytes. big.Int amounts
// marshal as decimal numbers and bitmap words as hex strings, both with
// built-in JSON support.
func MarshalCampaign(c *types.Campaign) ([]byte, error) {
	if c == nil {
		return nil, fmt.Errorf("cannot marshal nil Campaign")
	}

	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal Campaign to JSON: %w", err)
	}

	return data, nil
}

// UnmarshalCampaign deserializes a Campaign from JSON bytes.
func UnmarshalCampaign(data []byte) (*types.Campaign, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("cannot unmarshal empty data")
	}

	var c types.Campaign
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON to Campaign: %w", err)
	}
	if c.Claimed == nil {
		c.Claimed = types.NewClaimedBitmap()
	}

	return &c, nil
}
