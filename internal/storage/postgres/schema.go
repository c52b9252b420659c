package postgres

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	email       TEXT NOT NULL UNIQUE,
	role        TEXT NOT NULL,
	ride_count  INTEGER NOT NULL DEFAULT 0,
	created_at  TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS wallets (
	id          TEXT PRIMARY KEY,
	account_id  TEXT NOT NULL UNIQUE REFERENCES accounts(id),
	balance     NUMERIC NOT NULL DEFAULT 0,
	updated_at  TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS fee_split_policies (
	label       TEXT PRIMARY KEY,
	rate        NUMERIC NOT NULL,
	description TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS ledger_entries (
	id                  TEXT PRIMARY KEY,
	kind                TEXT NOT NULL,
	direction           TEXT NOT NULL,
	detail              TEXT NOT NULL,
	amount              NUMERIC NOT NULL,
	sender_id           TEXT REFERENCES accounts(id),
	sender_wallet_id    TEXT REFERENCES wallets(id),
	sender_before       NUMERIC NOT NULL DEFAULT 0,
	sender_after        NUMERIC NOT NULL DEFAULT 0,
	receiver_id         TEXT NOT NULL REFERENCES accounts(id),
	receiver_wallet_id  TEXT NOT NULL REFERENCES wallets(id),
	receiver_before     NUMERIC NOT NULL,
	receiver_after      NUMERIC NOT NULL,
	platform_id         TEXT REFERENCES accounts(id),
	platform_wallet_id  TEXT REFERENCES wallets(id),
	processing_fee      NUMERIC NOT NULL DEFAULT 0,
	platform_fee        NUMERIC NOT NULL DEFAULT 0,
	split               JSONB,
	created_at          TIMESTAMPTZ NOT NULL
);
ALTER TABLE ledger_entries ADD COLUMN IF NOT EXISTS platform_id TEXT REFERENCES accounts(id);
ALTER TABLE ledger_entries ADD COLUMN IF NOT EXISTS platform_wallet_id TEXT REFERENCES wallets(id);
CREATE INDEX IF NOT EXISTS ledger_entries_sender_idx ON ledger_entries (sender_id);
CREATE INDEX IF NOT EXISTS ledger_entries_receiver_idx ON ledger_entries (receiver_id);
CREATE INDEX IF NOT EXISTS ledger_entries_platform_idx ON ledger_entries (platform_id);
CREATE INDEX IF NOT EXISTS ledger_entries_school_idx ON ledger_entries ((split->>'school_id'));
CREATE INDEX IF NOT EXISTS ledger_entries_car_owner_idx ON ledger_entries ((split->>'car_owner_id'));

CREATE TABLE IF NOT EXISTS free_ride_tokens (
	token       TEXT PRIMARY KEY,
	account_id  TEXT NOT NULL REFERENCES accounts(id),
	reason      TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	redeemed    BOOLEAN NOT NULL DEFAULT FALSE,
	created_at  TIMESTAMPTZ NOT NULL
);
`
