package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/campusride/wallet-ledger/internal/interfaces"
	"github.com/campusride/wallet-ledger/internal/models"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

type PostgresLedgerStore struct {
	db *sql.DB
}

func NewPostgresLedgerStore(db *sql.DB) *PostgresLedgerStore {
	return &PostgresLedgerStore{
		db: db,
	}
}

// Open connects with lib/pq and makes sure the tables exist
func Open(ctx context.Context, dsn string) (*PostgresLedgerStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return NewPostgresLedgerStore(db), nil
}

func (p *PostgresLedgerStore) Close() error {
	return p.db.Close()
}

func (p *PostgresLedgerStore) CreateAccount(ctx context.Context, account models.Account, wallet models.Wallet) (err error) {
	dbTx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			dbTx.Rollback()
		}
	}()

	const insertAccount = `INSERT INTO accounts (id, name, email, role, ride_count, created_at)
	VALUES ($1,$2,$3,$4,$5,$6)`
	_, err = dbTx.ExecContext(ctx, insertAccount, account.ID, account.Name, account.Email, string(account.Role), account.RideCount, account.CreatedAt)
	if isUniqueViolation(err) {
		return interfaces.ErrDuplicateEmail
	}
	if err != nil {
		return err
	}

	const insertWallet = `INSERT INTO wallets (id, account_id, balance, updated_at) VALUES ($1,$2,$3,$4)`
	_, err = dbTx.ExecContext(ctx, insertWallet, wallet.ID, wallet.AccountID, wallet.Balance, wallet.UpdatedAt)
	if err != nil {
		return err
	}
	return dbTx.Commit()
}

const selectAccount = `SELECT id, name, email, role, ride_count, created_at FROM accounts`

func (p *PostgresLedgerStore) GetAccount(ctx context.Context, accountID string) (models.Account, error) {
	return scanAccount(p.db.QueryRowContext(ctx, selectAccount+` WHERE id = $1`, accountID))
}

func (p *PostgresLedgerStore) GetAccountByEmail(ctx context.Context, email string) (models.Account, error) {
	return scanAccount(p.db.QueryRowContext(ctx, selectAccount+` WHERE email = $1`, email))
}

func scanAccount(row *sql.Row) (models.Account, error) {
	var a models.Account
	var role string
	err := row.Scan(&a.ID, &a.Name, &a.Email, &role, &a.RideCount, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return models.Account{}, interfaces.ErrAccountNotFound
	}
	if err != nil {
		return models.Account{}, err
	}
	a.Role = models.Role(role)
	return a, nil
}

func (p *PostgresLedgerStore) GetWallet(ctx context.Context, accountID string) (models.Wallet, error) {
	const query = `SELECT id, account_id, balance, updated_at FROM wallets WHERE account_id = $1`

	var w models.Wallet
	err := p.db.QueryRowContext(ctx, query, accountID).Scan(&w.ID, &w.AccountID, &w.Balance, &w.UpdatedAt)
	if err == sql.ErrNoRows {
		return models.Wallet{}, interfaces.ErrWalletNotFound
	}
	if err != nil {
		return models.Wallet{}, err
	}
	return w, nil
}

func (p *PostgresLedgerStore) GetPolicy(ctx context.Context, label string) (models.FeeSplitPolicy, error) {
	const query = `SELECT label, rate, description FROM fee_split_policies WHERE label = $1`

	var policy models.FeeSplitPolicy
	err := p.db.QueryRowContext(ctx, query, label).Scan(&policy.Label, &policy.Rate, &policy.Description)
	if err == sql.ErrNoRows {
		return models.FeeSplitPolicy{}, interfaces.ErrPolicyNotFound
	}
	if err != nil {
		return models.FeeSplitPolicy{}, err
	}
	return policy, nil
}

func (p *PostgresLedgerStore) SavePolicy(ctx context.Context, policy models.FeeSplitPolicy) error {
	const query = `INSERT INTO fee_split_policies (label, rate, description) VALUES ($1,$2,$3)
	ON CONFLICT (label) DO UPDATE SET rate = EXCLUDED.rate, description = EXCLUDED.description`

	_, err := p.db.ExecContext(ctx, query, policy.Label, policy.Rate, policy.Description)
	return err
}

const selectEntries = `SELECT id, kind, direction, detail, amount,
	sender_id, sender_wallet_id, sender_before, sender_after,
	receiver_id, receiver_wallet_id, receiver_before, receiver_after,
	platform_id, platform_wallet_id,
	processing_fee, platform_fee, split, created_at
	FROM ledger_entries`

func (p *PostgresLedgerStore) GetLedgerEntries(ctx context.Context) ([]models.LedgerEntry, error) {
	rows, err := p.db.QueryContext(ctx, selectEntries+` ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	return scanEntries(rows)
}

func (p *PostgresLedgerStore) GetEntriesByAccount(ctx context.Context, accountID string) ([]models.LedgerEntry, error) {
	rows, err := p.db.QueryContext(ctx, selectEntries+`
	WHERE sender_id = $1 OR receiver_id = $1 OR platform_id = $1
	OR split->>'school_id' = $1 OR split->>'car_owner_id' = $1
	ORDER BY created_at`, accountID)
	if err != nil {
		return nil, err
	}
	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]models.LedgerEntry, error) {
	defer rows.Close()

	var entries []models.LedgerEntry
	for rows.Next() {
		var (
			entry                      models.LedgerEntry
			kind, direction            string
			senderID, senderWallet     sql.NullString
			platformID, platformWallet sql.NullString
			split                      []byte
		)
		err := rows.Scan(
			&entry.ID, &kind, &direction, &entry.Detail, &entry.Amount,
			&senderID, &senderWallet, &entry.SenderBalanceBefore, &entry.SenderBalanceAfter,
			&entry.ReceiverID, &entry.ReceiverWalletID, &entry.ReceiverBalanceBefore, &entry.ReceiverBalanceAfter,
			&platformID, &platformWallet,
			&entry.ProcessingFee, &entry.PlatformFee, &split, &entry.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		entry.Kind = models.OperationKind(kind)
		entry.Direction = models.Direction(direction)
		entry.SenderID = senderID.String
		entry.SenderWalletID = senderWallet.String
		entry.PlatformID = platformID.String
		entry.PlatformWalletID = platformWallet.String
		if len(split) > 0 {
			entry.Split = &models.FareSplit{}
			if err := json.Unmarshal(split, entry.Split); err != nil {
				return nil, fmt.Errorf("decode split of entry %s: %w", entry.ID, err)
			}
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (p *PostgresLedgerStore) TokenExists(ctx context.Context, token string) (bool, error) {
	const query = `SELECT 1 FROM free_ride_tokens WHERE token = $1 LIMIT 1`

	var exists int
	err := p.db.QueryRowContext(ctx, query, token).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (p *PostgresLedgerStore) SaveFreeRideToken(ctx context.Context, token models.FreeRideToken) error {
	const query = `INSERT INTO free_ride_tokens (token, account_id, reason, description, redeemed, created_at)
	VALUES ($1,$2,$3,$4,$5,$6)`

	_, err := p.db.ExecContext(ctx, query, token.Token, token.AccountID, token.Reason, token.Description, token.Redeemed, token.CreatedAt)
	if isUniqueViolation(err) {
		return interfaces.ErrDuplicateToken
	}
	return err
}

// WithTx runs fn inside one database transaction. Wallet rows are locked with
// SELECT ... FOR UPDATE in account id order by LockWallets.
func (p *PostgresLedgerStore) WithTx(ctx context.Context, fn func(tx interfaces.LedgerTx) error) (err error) {
	dbTx, err := p.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			dbTx.Rollback()
		}
	}()

	if err = fn(&postgresTx{tx: dbTx}); err != nil {
		return err
	}
	return dbTx.Commit()
}

type postgresTx struct {
	tx *sql.Tx
}

func (t *postgresTx) LockWallets(ctx context.Context, accountIDs ...string) (map[string]models.Wallet, error) {
	const query = `SELECT id, account_id, balance, updated_at FROM wallets
	WHERE account_id = ANY($1) ORDER BY account_id FOR UPDATE`

	rows, err := t.tx.QueryContext(ctx, query, pq.Array(accountIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	wallets := make(map[string]models.Wallet, len(accountIDs))
	for rows.Next() {
		var w models.Wallet
		if err := rows.Scan(&w.ID, &w.AccountID, &w.Balance, &w.UpdatedAt); err != nil {
			return nil, err
		}
		wallets[w.AccountID] = w
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, id := range accountIDs {
		if _, ok := wallets[id]; !ok {
			return nil, interfaces.ErrWalletNotFound
		}
	}
	return wallets, nil
}

func (t *postgresTx) UpdateWallet(ctx context.Context, update models.WalletUpdate) error {
	const query = `UPDATE wallets SET balance = $1, updated_at = $2 WHERE id = $3 AND account_id = $4`

	res, err := t.tx.ExecContext(ctx, query, update.Balance, update.UpdatedAt, update.WalletID, update.AccountID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return interfaces.ErrWalletNotFound
	}
	return nil
}

func (t *postgresTx) SaveEntry(ctx context.Context, entry models.LedgerEntry) error {
	const query = `INSERT INTO ledger_entries (id, kind, direction, detail, amount,
	sender_id, sender_wallet_id, sender_before, sender_after,
	receiver_id, receiver_wallet_id, receiver_before, receiver_after,
	platform_id, platform_wallet_id,
	processing_fee, platform_fee, split, created_at)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)`

	var split sql.NullString
	if entry.Split != nil {
		raw, err := json.Marshal(entry.Split)
		if err != nil {
			return err
		}
		split = sql.NullString{String: string(raw), Valid: true}
	}
	_, err := t.tx.ExecContext(ctx, query,
		entry.ID, string(entry.Kind), string(entry.Direction), entry.Detail, entry.Amount,
		nullString(entry.SenderID), nullString(entry.SenderWalletID), entry.SenderBalanceBefore, entry.SenderBalanceAfter,
		entry.ReceiverID, entry.ReceiverWalletID, entry.ReceiverBalanceBefore, entry.ReceiverBalanceAfter,
		nullString(entry.PlatformID), nullString(entry.PlatformWalletID),
		entry.ProcessingFee, entry.PlatformFee, split, entry.CreatedAt,
	)
	return err
}

func (t *postgresTx) IncrementRideCount(ctx context.Context, accountID string) (int, error) {
	const query = `UPDATE accounts SET ride_count = ride_count + 1 WHERE id = $1 RETURNING ride_count`

	var count int
	err := t.tx.QueryRowContext(ctx, query, accountID).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, interfaces.ErrAccountNotFound
	}
	return count, err
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

var (
	_ interfaces.LedgerStore = (*PostgresLedgerStore)(nil)
	_ interfaces.TokenStore  = (*PostgresLedgerStore)(nil)
)
