package custody

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

var (
	testToken   = common.BigToAddress(big.NewInt(0xA0))
	testAccount = common.BigToAddress(big.NewInt(0xB0))
	testOther   = common.BigToAddress(big.NewInt(0xC0))
)

func TestMemoryLedgerTransferIn(t *testing.T) {
	l := NewMemoryLedger()
	ctx := context.Background()

	l.Mint(testToken, testAccount, big.NewInt(500))

	require.NoError(t, l.TransferIn(ctx, testToken, testAccount, big.NewInt(300)))
	require.Equal(t, big.NewInt(300), l.Balance(testToken))
	require.Equal(t, big.NewInt(200), l.AccountBalance(testToken, testAccount))
}

func TestMemoryLedgerTransferInInsufficient(t *testing.T) {
	l := NewMemoryLedger()
	ctx := context.Background()

	l.Mint(testToken, testAccount, big.NewInt(100))

	err := l.TransferIn(ctx, testToken, testAccount, big.NewInt(101))
	require.Error(t, err)

	// No partial state change
	require.Equal(t, big.NewInt(0), l.Balance(testToken))
	require.Equal(t, big.NewInt(100), l.AccountBalance(testToken, testAccount))
}

func TestMemoryLedgerTransferOut(t *testing.T) {
	l := NewMemoryLedger()
	ctx := context.Background()

	l.Mint(testToken, testAccount, big.NewInt(500))
	require.NoError(t, l.TransferIn(ctx, testToken, testAccount, big.NewInt(500)))

	require.NoError(t, l.TransferOut(ctx, testToken, testOther, big.NewInt(200)))
	require.Equal(t, big.NewInt(300), l.Balance(testToken))
	require.Equal(t, big.NewInt(200), l.AccountBalance(testToken, testOther))

	err := l.TransferOut(ctx, testToken, testOther, big.NewInt(301))
	require.Error(t, err)
	require.Equal(t, big.NewInt(300), l.Balance(testToken))
}

func TestMemoryLedgerTokensAreIndependent(t *testing.T) {
	l := NewMemoryLedger()
	ctx := context.Background()

	other := common.BigToAddress(big.NewInt(0xA1))
	l.Mint(testToken, testAccount, big.NewInt(100))
	l.Mint(other, testAccount, big.NewInt(50))

	require.NoError(t, l.TransferIn(ctx, testToken, testAccount, big.NewInt(100)))
	require.Equal(t, big.NewInt(100), l.Balance(testToken))
	require.Equal(t, big.NewInt(0), l.Balance(other))
}

func TestMemoryLedgerNativeToken(t *testing.T) {
	l := NewMemoryLedger()
	ctx := context.Background()

	l.Mint(NativeToken, testAccount, big.NewInt(10))
	require.NoError(t, l.TransferIn(ctx, NativeToken, testAccount, big.NewInt(10)))
	require.Equal(t, big.NewInt(10), l.Balance(NativeToken))
}

func TestMemoryLedgerInvalidAmounts(t *testing.T) {
	l := NewMemoryLedger()
	ctx := context.Background()

	require.Error(t, l.TransferIn(ctx, testToken, testAccount, nil))
	require.Error(t, l.TransferIn(ctx, testToken, testAccount, big.NewInt(-1)))
	require.Error(t, l.TransferOut(ctx, testToken, testAccount, nil))
	require.Error(t, l.TransferOut(ctx, testToken, testAccount, big.NewInt(-1)))
}
