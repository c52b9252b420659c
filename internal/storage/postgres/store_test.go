package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/campusride/wallet-ledger/internal/interfaces"
	"github.com/campusride/wallet-ledger/internal/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pq.Error{Code: "23505"}))
	assert.True(t, isUniqueViolation(fmt.Errorf("insert: %w", &pq.Error{Code: "23505"})))
	assert.False(t, isUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("23505")))
	assert.False(t, isUniqueViolation(nil))
}

func TestNullString(t *testing.T) {
	assert.False(t, nullString("").Valid)
	ns := nullString("acc-1")
	assert.True(t, ns.Valid)
	assert.Equal(t, "acc-1", ns.String)
}

// openTestStore connects to TEST_DATABASE_URL or skips
func openTestStore(t *testing.T) *PostgresLedgerStore {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	store, err := Open(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func newAccount(t *testing.T, store *PostgresLedgerStore, balance int64) (models.Account, models.Wallet) {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Microsecond)
	a := models.Account{ID: uuid.NewString(), Name: "test", Email: uuid.NewString() + "@pg.test", Role: models.RoleStudent, CreatedAt: now}
	w := models.Wallet{ID: uuid.NewString(), AccountID: a.ID, Balance: decimal.NewFromInt(balance), UpdatedAt: now}
	require.NoError(t, store.CreateAccount(context.Background(), a, w))
	return a, w
}

func TestPostgres_AccountRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	a, _ := newAccount(t, store, 25)

	got, err := store.GetAccountByEmail(ctx, a.Email)
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)

	err = store.CreateAccount(ctx, models.Account{ID: uuid.NewString(), Email: a.Email, Role: models.RoleDriver},
		models.Wallet{ID: uuid.NewString(), Balance: decimal.Zero})
	assert.ErrorIs(t, err, interfaces.ErrDuplicateEmail)

	_, err = store.GetAccount(ctx, uuid.NewString())
	assert.ErrorIs(t, err, interfaces.ErrAccountNotFound)
}

func TestPostgres_WithTxRollsBack(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	a, w := newAccount(t, store, 100)
	boom := errors.New("boom")

	err := store.WithTx(ctx, func(tx interfaces.LedgerTx) error {
		locked, err := tx.LockWallets(ctx, a.ID)
		require.NoError(t, err)
		require.Contains(t, locked, a.ID)
		require.NoError(t, tx.UpdateWallet(ctx, models.WalletUpdate{WalletID: w.ID, AccountID: a.ID, Balance: decimal.Zero, UpdatedAt: time.Now()}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := store.GetWallet(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(decimal.NewFromInt(100)))
}

func TestPostgres_EntryAndRideCount(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	rider, rw := newAccount(t, store, 100)
	driver, dw := newAccount(t, store, 0)
	school, sw := newAccount(t, store, 0)
	platform, pw := newAccount(t, store, 0)

	entry := models.LedgerEntry{
		ID:                   uuid.NewString(),
		Kind:                 models.OperationRideFare,
		Direction:            models.DirectionBoth,
		Amount:               decimal.NewFromInt(10),
		SenderID:             rider.ID,
		SenderWalletID:       rw.ID,
		SenderBalanceBefore:  decimal.NewFromInt(100),
		SenderBalanceAfter:   decimal.NewFromInt(90),
		ReceiverID:           driver.ID,
		ReceiverWalletID:     dw.ID,
		ReceiverBalanceAfter: decimal.NewFromInt(6),
		PlatformID:           platform.ID,
		PlatformWalletID:     pw.ID,
		Split:                &models.FareSplit{SchoolID: school.ID, SchoolWalletID: sw.ID, DriverAmount: decimal.NewFromInt(6), PlatformAmount: decimal.NewFromInt(4)},
		CreatedAt:            time.Now().UTC(),
	}
	err := store.WithTx(ctx, func(tx interfaces.LedgerTx) error {
		if _, err := tx.LockWallets(ctx, rider.ID, driver.ID); err != nil {
			return err
		}
		if err := tx.SaveEntry(ctx, entry); err != nil {
			return err
		}
		n, err := tx.IncrementRideCount(ctx, rider.ID)
		assert.Equal(t, 1, n)
		return err
	})
	require.NoError(t, err)

	entries, err := store.GetEntriesByAccount(ctx, driver.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].Split)
	assert.True(t, entries[0].Split.PlatformAmount.Equal(decimal.NewFromInt(4)))

	assert.Equal(t, pw.ID, entries[0].PlatformWalletID)
	assert.Equal(t, sw.ID, entries[0].Split.SchoolWalletID)

	for _, party := range []string{school.ID, platform.ID} {
		paid, err := store.GetEntriesByAccount(ctx, party)
		require.NoError(t, err)
		assert.Len(t, paid, 1)
	}

	got, _ := store.GetAccount(ctx, rider.ID)
	assert.Equal(t, 1, got.RideCount)
}

func TestPostgres_LockWalletsMissing(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	a, _ := newAccount(t, store, 0)

	err := store.WithTx(ctx, func(tx interfaces.LedgerTx) error {
		_, err := tx.LockWallets(ctx, a.ID, uuid.NewString())
		return err
	})
	assert.ErrorIs(t, err, interfaces.ErrWalletNotFound)
}

func TestPostgres_FreeRideTokens(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	a, _ := newAccount(t, store, 0)
	token := models.FreeRideToken{Token: uuid.NewString(), AccountID: a.ID, Reason: "ride_milestone", CreatedAt: time.Now().UTC()}

	require.NoError(t, store.SaveFreeRideToken(ctx, token))
	assert.ErrorIs(t, store.SaveFreeRideToken(ctx, token), interfaces.ErrDuplicateToken)
	exists, err := store.TokenExists(ctx, token.Token)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestPostgres_OppositeLockOrderDoesNotDeadlock(t *testing.T) {
	store := openTestStore(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	a, _ := newAccount(t, store, 0)
	b, _ := newAccount(t, store, 0)

	errs := make(chan error, 2)
	for _, ids := range [][]string{{a.ID, b.ID}, {b.ID, a.ID}} {
		ids := ids
		go func() {
			errs <- store.WithTx(ctx, func(tx interfaces.LedgerTx) error {
				_, err := tx.LockWallets(ctx, ids...)
				time.Sleep(50 * time.Millisecond)
				return err
			})
		}()
	}
	require.NoError(t, <-errs)
	require.NoError(t, <-errs)
}
