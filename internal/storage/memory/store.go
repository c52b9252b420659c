package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/campusride/wallet-ledger/internal/interfaces"
	"github.com/campusride/wallet-ledger/internal/models"
)

// MemoryLedgerStore is an in-memory implementation of interfaces.LedgerStore.
// WithTx holds the store mutex for the whole unit, so transactions are serial.
// Writes are staged and only applied when fn succeeds.
type MemoryLedgerStore struct {
	mu       sync.Mutex
	accounts map[string]models.Account        // by id
	emails   map[string]string                // email -> account id
	wallets  map[string]models.Wallet         // by account id
	policies map[string]models.FeeSplitPolicy // by label
	entries  []models.LedgerEntry
	tokens   map[string]models.FreeRideToken
}

func NewMemoryLedgerStore() *MemoryLedgerStore {
	return &MemoryLedgerStore{
		accounts: make(map[string]models.Account),
		emails:   make(map[string]string),
		wallets:  make(map[string]models.Wallet),
		policies: make(map[string]models.FeeSplitPolicy),
		entries:  make([]models.LedgerEntry, 0),
		tokens:   make(map[string]models.FreeRideToken),
	}
}

func (m *MemoryLedgerStore) CreateAccount(ctx context.Context, account models.Account, wallet models.Wallet) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, taken := m.emails[account.Email]; taken {
		return interfaces.ErrDuplicateEmail
	}
	m.accounts[account.ID] = account
	m.emails[account.Email] = account.ID
	m.wallets[account.ID] = wallet
	return nil
}

func (m *MemoryLedgerStore) GetAccount(ctx context.Context, accountID string) (models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.accounts[accountID]
	if !ok {
		return models.Account{}, interfaces.ErrAccountNotFound
	}
	return a, nil
}

func (m *MemoryLedgerStore) GetAccountByEmail(ctx context.Context, email string) (models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.emails[email]
	if !ok {
		return models.Account{}, interfaces.ErrAccountNotFound
	}
	return m.accounts[id], nil
}

func (m *MemoryLedgerStore) GetWallet(ctx context.Context, accountID string) (models.Wallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.wallets[accountID]
	if !ok {
		return models.Wallet{}, interfaces.ErrWalletNotFound
	}
	return w, nil
}

func (m *MemoryLedgerStore) GetPolicy(ctx context.Context, label string) (models.FeeSplitPolicy, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.policies[label]
	if !ok {
		return models.FeeSplitPolicy{}, interfaces.ErrPolicyNotFound
	}
	return p, nil
}

func (m *MemoryLedgerStore) SavePolicy(ctx context.Context, policy models.FeeSplitPolicy) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.policies[policy.Label] = policy
	return nil
}

// GetLedgerEntries returns a copy of all ledger entries in insertion order
func (m *MemoryLedgerStore) GetLedgerEntries(ctx context.Context) ([]models.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := make([]models.LedgerEntry, len(m.entries))
	copy(copied, m.entries)
	return copied, nil
}

// GetEntriesByAccount returns the entries where the account moved or received money
func (m *MemoryLedgerStore) GetEntriesByAccount(ctx context.Context, accountID string) ([]models.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []models.LedgerEntry
	for _, e := range m.entries {
		if e.Involves(accountID) {
			result = append(result, e)
		}
	}
	return result, nil
}

func (m *MemoryLedgerStore) TokenExists(ctx context.Context, token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, exists := m.tokens[token]
	return exists, nil
}

func (m *MemoryLedgerStore) SaveFreeRideToken(ctx context.Context, token models.FreeRideToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.tokens[token.Token]; exists {
		return interfaces.ErrDuplicateToken
	}
	m.tokens[token.Token] = token
	return nil
}

// Tokens returns every issued token, oldest first
func (m *MemoryLedgerStore) Tokens() []models.FreeRideToken {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.FreeRideToken, 0, len(m.tokens))
	for _, t := range m.tokens {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (m *MemoryLedgerStore) WithTx(ctx context.Context, fn func(tx interfaces.LedgerTx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memoryTx{
		store:   m,
		wallets: make(map[string]models.Wallet),
		rides:   make(map[string]int),
	}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	tx.commit()
	return nil
}

// memoryTx stages writes until the owning WithTx commits.
// It runs with the store mutex already held.
type memoryTx struct {
	store   *MemoryLedgerStore
	wallets map[string]models.Wallet
	entries []models.LedgerEntry
	rides   map[string]int
}

func (t *memoryTx) LockWallets(ctx context.Context, accountIDs ...string) (map[string]models.Wallet, error) {
	out := make(map[string]models.Wallet, len(accountIDs))
	for _, id := range accountIDs {
		w, ok := t.wallets[id]
		if !ok {
			w, ok = t.store.wallets[id]
		}
		if !ok {
			return nil, interfaces.ErrWalletNotFound
		}
		out[id] = w
	}
	return out, nil
}

func (t *memoryTx) UpdateWallet(ctx context.Context, update models.WalletUpdate) error {
	w, ok := t.wallets[update.AccountID]
	if !ok {
		w, ok = t.store.wallets[update.AccountID]
	}
	if !ok || w.ID != update.WalletID {
		return interfaces.ErrWalletNotFound
	}
	w.Balance = update.Balance
	w.UpdatedAt = update.UpdatedAt
	t.wallets[update.AccountID] = w
	return nil
}

func (t *memoryTx) SaveEntry(ctx context.Context, entry models.LedgerEntry) error {
	t.entries = append(t.entries, entry)
	return nil
}

func (t *memoryTx) IncrementRideCount(ctx context.Context, accountID string) (int, error) {
	a, ok := t.store.accounts[accountID]
	if !ok {
		return 0, interfaces.ErrAccountNotFound
	}
	t.rides[accountID]++
	return a.RideCount + t.rides[accountID], nil
}

func (t *memoryTx) commit() {
	for id, w := range t.wallets {
		t.store.wallets[id] = w
	}
	t.store.entries = append(t.store.entries, t.entries...)
	for id, n := range t.rides {
		a := t.store.accounts[id]
		a.RideCount += n
		t.store.accounts[id] = a
	}
}

// Compile-time checks
var (
	_ interfaces.LedgerStore = (*MemoryLedgerStore)(nil)
	_ interfaces.TokenStore  = (*MemoryLedgerStore)(nil)
)
