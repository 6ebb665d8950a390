package custody

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

// MemoryLedger is a thread-safe in-memory Ledger. External account balances
// are tracked per token alongside the custody pool, which makes it usable
// both as the reference deployment backend and as a test double.
type MemoryLedger struct {
	mu sync.Mutex

	// token -> account -> balance
	accounts map[common.Address]map[common.Address]*big.Int

	// token -> custody balance
	custody map[common.Address]*big.Int
}

var _ Ledger = (*MemoryLedger)(nil)

// NewMemoryLedger returns an empty ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		accounts: make(map[common.Address]map[common.Address]*big.Int),
		custody:  make(map[common.Address]*big.Int),
	}
}

// Mint credits amount of token to an external account.
func (l *MemoryLedger) Mint(token, account common.Address, amount *big.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.accountBalance(token, account).Add(l.accountBalance(token, account), amount)
}

// AccountBalance returns the external balance of account for token.
func (l *MemoryLedger) AccountBalance(token, account common.Address) *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return new(big.Int).Set(l.accountBalance(token, account))
}

// TransferIn moves amount of token from an external account into custody.
func (l *MemoryLedger) TransferIn(_ context.Context, token, from common.Address, amount *big.Int) error {
	if err := validAmount(amount); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	balance := l.accountBalance(token, from)
	if balance.Cmp(amount) < 0 {
		return errors.Errorf("account %s holds %s of token %s, need %s",
			from.Hex(), balance.String(), token.Hex(), amount.String())
	}

	balance.Sub(balance, amount)
	l.custodyBalance(token).Add(l.custodyBalance(token), amount)
	return nil
}

// TransferOut moves amount of token from custody to an external account.
func (l *MemoryLedger) TransferOut(_ context.Context, token, to common.Address, amount *big.Int) error {
	if err := validAmount(amount); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	balance := l.custodyBalance(token)
	if balance.Cmp(amount) < 0 {
		return errors.Errorf("custody holds %s of token %s, need %s",
			balance.String(), token.Hex(), amount.String())
	}

	balance.Sub(balance, amount)
	l.accountBalance(token, to).Add(l.accountBalance(token, to), amount)
	return nil
}

// Balance returns the custody balance for token.
func (l *MemoryLedger) Balance(token common.Address) *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return new(big.Int).Set(l.custodyBalance(token))
}

func (l *MemoryLedger) accountBalance(token, account common.Address) *big.Int {
	tokenAccounts, ok := l.accounts[token]
	if !ok {
		tokenAccounts = make(map[common.Address]*big.Int)
		l.accounts[token] = tokenAccounts
	}
	balance, ok := tokenAccounts[account]
	if !ok {
		balance = new(big.Int)
		tokenAccounts[account] = balance
	}
	return balance
}

func (l *MemoryLedger) custodyBalance(token common.Address) *big.Int {
	balance, ok := l.custody[token]
	if !ok {
		balance = new(big.Int)
		l.custody[token] = balance
	}
	return balance
}

func validAmount(amount *big.Int) error {
	if amount == nil {
		return errors.New("amount cannot be nil")
	}
	if amount.Sign() < 0 {
		return errors.Errorf("amount cannot be negative: %s", amount.String())
	}
	return nil
}
