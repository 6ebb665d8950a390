package allocation

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Layr-Labs/merkledrop-go/pkg/types"
)

// RawAllocation is one entry of an allocation source file: a recipient
// address and a human-readable decimal amount.
type RawAllocation struct {
	Recipient string `json:"recipient"`
	Amount    string `json:"amount"`
}

// AllocationFile is the allocation source format consumed by the tree
// builder. Decimals is the scaling precision applied to every amount when
// converting to base units.
type AllocationFile struct {
	Decimals    uint8           `json:"decimals"`
	Allocations []RawAllocation `json:"allocations"`
}

// LoadFile reads and decodes an allocation source file. Malformed input
// fails fast with a descriptive error.
func LoadFile(path string) (*AllocationFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read allocation file %s: %w", path, err)
	}

	var f AllocationFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse allocation file %s: %w", path, err)
	}
	if len(f.Allocations) == 0 {
		return nil, fmt.Errorf("allocation file %s contains no allocations", path)
	}

	return &f, nil
}

// Entries validates recipients and scales amounts to base units, producing
// the raw entry list the tree builder canonicalizes.
func (f *AllocationFile) Entries() ([]types.AllocationEntry, error) {
	entries := make([]types.AllocationEntry, len(f.Allocations))
	for i, raw := range f.Allocations {
		if !common.IsHexAddress(raw.Recipient) {
			return nil, fmt.Errorf("allocation %d: invalid recipient address %q", i, raw.Recipient)
		}

		amount, err := ParseAmount(raw.Amount, f.Decimals)
		if err != nil {
			return nil, fmt.Errorf("allocation %d (%s): %w", i, raw.Recipient, err)
		}

		entries[i] = types.AllocationEntry{
			Recipient: common.HexToAddress(raw.Recipient),
			Amount:    amount,
		}
	}
	return entries, nil
}

// ParseAmount converts a non-negative decimal string to base units by
// shifting decimals places. "1.5" with 6 decimals becomes 1500000. Rejects
// empty input, negative values, malformed digits, and fractional parts
// longer than the precision allows.
func ParseAmount(s string, decimals uint8) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("amount is empty")
	}
	if strings.HasPrefix(s, "-") {
		return nil, fmt.Errorf("amount %q is negative", s)
	}

	intPart := s
	fracPart := ""
	if dot := strings.IndexByte(s, '.'); dot >= 0 {
		intPart = s[:dot]
		fracPart = s[dot+1:]
		if strings.IndexByte(fracPart, '.') >= 0 {
			return nil, fmt.Errorf("amount %q has multiple decimal points", s)
		}
	}
	if intPart == "" && fracPart == "" {
		return nil, fmt.Errorf("amount %q has no digits", s)
	}
	if intPart == "" {
		intPart = "0"
	}

	if len(fracPart) > int(decimals) {
		return nil, fmt.Errorf("amount %q has %d fractional digits, precision allows %d",
			s, len(fracPart), decimals)
	}

	for _, r := range intPart + fracPart {
		if r < '0' || r > '9' {
			return nil, fmt.Errorf("amount %q is not a valid decimal number", s)
		}
	}

	// Pad the fractional part out to the full precision and concatenate.
	digits := intPart + fracPart + strings.Repeat("0", int(decimals)-len(fracPart))

	value, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, fmt.Errorf("amount %q is not a valid decimal number", s)
	}

	return value, nil
}
