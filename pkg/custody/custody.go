package custody

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// NativeToken is the sentinel token address for the chain-native asset.
var NativeToken = common.Address{}

// Ledger moves value between external accounts and the distributor's
// custody. It is the opaque asset-transfer collaborator: implementations
// may sit on top of an ERC20 contract caller, a bank core, or an in-memory
// ledger. Either a transfer fully happens or the call returns an error with
// no balance change.
type Ledger interface {
	// TransferIn moves amount of token from an external account into
	// custody. Fails if the account's balance (or allowance) is
	// insufficient.
	TransferIn(ctx context.Context, token common.Address, from common.Address, amount *big.Int) error

	// TransferOut moves amount of token from custody to an external
	// account. Fails if custody holds less than amount.
	TransferOut(ctx context.Context, token common.Address, to common.Address, amount *big.Int) error

	// Balance returns the custody balance for token.
	Balance(token common.Address) *big.Int
}
