package ledger

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/campusride/wallet-ledger/internal/interfaces"
	"github.com/campusride/wallet-ledger/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Config is everything the engine needs to know about the deployment.
// It is passed in once at construction; the engine reads no globals.
type Config struct {
	PlatformEmail        string      // operating account that collects fees and fare residuals
	DefaultCarOwnerEmail string      // used when a ride fare names no car owner
	TopUpFees            FeeSchedule // gateway charge on wallet top-ups
}

// RewardIssuer decides whether a completed ride earns a free-ride token
type RewardIssuer interface {
	MaybeIssue(ctx context.Context, account models.Account, rideCount int) (*models.FreeRideToken, error)
}

// Settlement is what a successful operation hands back to the caller
type Settlement struct {
	Entry    models.LedgerEntry    `json:"transaction"`
	FreeRide *models.FreeRideToken `json:"free_ride,omitempty"`
}

// Engine runs the settlement algorithms against a LedgerStore.
// Wallets are guarded twice: by an in-process lock per account and by the
// store's row locks inside WithTx. Both are taken in ascending account id order.
type Engine struct {
	store    interfaces.LedgerStore
	cfg      Config
	log      logrus.FieldLogger
	notifier interfaces.Notifier
	events   interfaces.EventPublisher
	rewards  RewardIssuer
	now      func() time.Time

	muMap map[string]*sync.Mutex // one mutex per account id
	mapMu sync.Mutex             // protects muMap
}

func NewEngine(store interfaces.LedgerStore, cfg Config, log logrus.FieldLogger) *Engine {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Engine{
		store: store,
		cfg:   cfg,
		log:   log.WithField("component", "settlement"),
		now:   func() time.Time { return time.Now().UTC() },
		muMap: make(map[string]*sync.Mutex),
	}
}

func (e *Engine) SetNotifier(n interfaces.Notifier)             { e.notifier = n }
func (e *Engine) SetEventPublisher(p interfaces.EventPublisher) { e.events = p }
func (e *Engine) SetRewardIssuer(r RewardIssuer)                { e.rewards = r }
func (e *Engine) SetClock(now func() time.Time)                 { e.now = now }

func (e *Engine) getAccountLock(accountID string) *sync.Mutex {
	e.mapMu.Lock()
	defer e.mapMu.Unlock()

	if _, exists := e.muMap[accountID]; !exists {
		e.muMap[accountID] = &sync.Mutex{}
	}
	return e.muMap[accountID]
}

// lockAccounts locks every distinct account in ascending id order and returns the unlock func
func (e *Engine) lockAccounts(accountIDs ...string) func() {
	ids := uniqueSorted(accountIDs)
	locks := make([]*sync.Mutex, 0, len(ids))
	for _, id := range ids {
		mu := e.getAccountLock(id)
		mu.Lock()
		locks = append(locks, mu)
	}
	return func() {
		for i := len(locks) - 1; i >= 0; i-- {
			locks[i].Unlock()
		}
	}
}

func uniqueSorted(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// RegisterAccount creates an account together with its empty wallet
func (e *Engine) RegisterAccount(ctx context.Context, name, email string, role models.Role) (models.Account, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return models.Account{}, newError(KindInvalidRequest, "", "email is required")
	}
	now := e.now()
	account := models.Account{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		Role:      role,
		CreatedAt: now,
	}
	wallet := models.Wallet{
		ID:        uuid.NewString(),
		AccountID: account.ID,
		Balance:   decimal.Zero,
		UpdatedAt: now,
	}
	if err := e.store.CreateAccount(ctx, account, wallet); err != nil {
		if errors.Is(err, interfaces.ErrDuplicateEmail) {
			return models.Account{}, newError(KindConflict, email, "an account with email %s already exists", email)
		}
		return models.Account{}, e.internal(err, "create account")
	}
	return account, nil
}

// GetBalance returns the current wallet balance of an account
func (e *Engine) GetBalance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	w, err := e.store.GetWallet(ctx, accountID)
	if err != nil {
		if isMissing(err) {
			return decimal.Zero, newError(KindNotFound, accountID, "wallet for account %s does not exist", accountID)
		}
		return decimal.Zero, e.internal(err, "get balance")
	}
	return w.Balance, nil
}

func (e *Engine) GetLedgerEntries(ctx context.Context) ([]models.LedgerEntry, error) {
	entries, err := e.store.GetLedgerEntries(ctx)
	if err != nil {
		return nil, e.internal(err, "list ledger entries")
	}
	return entries, nil
}

func (e *Engine) GetEntriesByAccount(ctx context.Context, accountID string) ([]models.LedgerEntry, error) {
	if _, err := e.loadAccount(ctx, accountID); err != nil {
		return nil, err
	}
	entries, err := e.store.GetEntriesByAccount(ctx, accountID)
	if err != nil {
		return nil, e.internal(err, "list account entries")
	}
	return entries, nil
}

// loadAccount resolves a transacting party by id
func (e *Engine) loadAccount(ctx context.Context, accountID string) (models.Account, error) {
	a, err := e.store.GetAccount(ctx, accountID)
	if err != nil {
		if isMissing(err) {
			return models.Account{}, newError(KindNotFound, accountID, "account %s does not exist", accountID)
		}
		return models.Account{}, e.internal(err, "load account")
	}
	return a, nil
}

func (e *Engine) loadAccountByEmail(ctx context.Context, email string) (models.Account, error) {
	a, err := e.store.GetAccountByEmail(ctx, email)
	if err != nil {
		if isMissing(err) {
			return models.Account{}, newError(KindNotFound, email, "%s does not exist", email)
		}
		return models.Account{}, e.internal(err, "load account")
	}
	return a, nil
}

// loadParty resolves an account and checks it may take part in settlements
func (e *Engine) loadParty(load func() (models.Account, error)) (models.Account, error) {
	a, err := load()
	if err != nil {
		return models.Account{}, err
	}
	if !a.CanTransact() {
		return models.Account{}, newError(KindUnauthorized, a.ID, "unauthorized access")
	}
	return a, nil
}

func (e *Engine) platformAccount(ctx context.Context) (models.Account, error) {
	return e.loadAccountByEmail(ctx, e.cfg.PlatformEmail)
}

func (e *Engine) loadPolicy(ctx context.Context, label string) (models.FeeSplitPolicy, error) {
	p, err := e.store.GetPolicy(ctx, label)
	if err != nil {
		if errors.Is(err, interfaces.ErrPolicyNotFound) {
			return models.FeeSplitPolicy{}, newError(KindPolicyMissing, label, "percentage price was not set for %s", label)
		}
		return models.FeeSplitPolicy{}, e.internal(err, "load policy")
	}
	return p, nil
}

// settle runs fn inside one store transaction with the given accounts locked.
// Store failures are logged and collapsed into an Internal error.
func (e *Engine) settle(ctx context.Context, op string, accountIDs []string, fn func(tx interfaces.LedgerTx, ws *walletSet) error) error {
	unlock := e.lockAccounts(accountIDs...)
	defer unlock()

	err := e.store.WithTx(ctx, func(tx interfaces.LedgerTx) error {
		wallets, err := tx.LockWallets(ctx, uniqueSorted(accountIDs)...)
		if err != nil {
			return err
		}
		return fn(tx, newWalletSet(wallets))
	})
	if err == nil {
		return nil
	}
	var le *Error
	if errors.As(err, &le) {
		return le
	}
	if isMissing(err) {
		return newError(KindNotFound, "", "wallet does not exist")
	}
	return e.internal(err, op)
}

func (e *Engine) internal(err error, op string) error {
	e.log.WithError(err).WithField("operation", op).Error("storage failure")
	return internalError()
}

func isMissing(err error) bool {
	return errors.Is(err, interfaces.ErrAccountNotFound) || errors.Is(err, interfaces.ErrWalletNotFound)
}
