package interfaces

import (
	"context"
	"errors"

	"github.com/campusride/wallet-ledger/internal/models"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrWalletNotFound  = errors.New("wallet not found")
	ErrPolicyNotFound  = errors.New("policy not found")
	ErrDuplicateEmail  = errors.New("email already registered")
	ErrDuplicateToken  = errors.New("free ride token already exists")
)

// LedgerStore is the persistence boundary of the settlement engine.
// Wallet balances are only ever changed through a LedgerTx.
type LedgerStore interface {
	CreateAccount(ctx context.Context, account models.Account, wallet models.Wallet) error
	GetAccount(ctx context.Context, accountID string) (models.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (models.Account, error)
	GetWallet(ctx context.Context, accountID string) (models.Wallet, error)

	GetPolicy(ctx context.Context, label string) (models.FeeSplitPolicy, error)
	SavePolicy(ctx context.Context, policy models.FeeSplitPolicy) error

	GetEntriesByAccount(ctx context.Context, accountID string) ([]models.LedgerEntry, error)
	GetLedgerEntries(ctx context.Context) ([]models.LedgerEntry, error)

	// WithTx runs fn as one atomic unit. If fn returns an error nothing it wrote is kept.
	WithTx(ctx context.Context, fn func(tx LedgerTx) error) error
}

// LedgerTx is the write side available inside WithTx
type LedgerTx interface {
	// LockWallets loads the wallets owned by accountIDs and holds them until the
	// transaction ends. Locks are taken in ascending account id order.
	LockWallets(ctx context.Context, accountIDs ...string) (map[string]models.Wallet, error)
	UpdateWallet(ctx context.Context, update models.WalletUpdate) error
	SaveEntry(ctx context.Context, entry models.LedgerEntry) error
	IncrementRideCount(ctx context.Context, accountID string) (int, error)
}

// TokenStore keeps issued free ride tokens
type TokenStore interface {
	TokenExists(ctx context.Context, token string) (bool, error)
	// SaveFreeRideToken returns ErrDuplicateToken when the value is taken
	SaveFreeRideToken(ctx context.Context, token models.FreeRideToken) error
}
