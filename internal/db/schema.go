package db

import (
	"context"
	"fmt"
	"strings"
)

// sqliteSchema is the full SQLite database schema. Money is stored as decimal
// text so values round-trip exactly.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    email         TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS packs (
    id              TEXT PRIMARY KEY,
    brand           TEXT NOT NULL,
    category        TEXT NOT NULL,
    price           TEXT NOT NULL CHECK (CAST(price AS REAL) > 0),
    status          TEXT NOT NULL DEFAULT 'Not Sold' CHECK (status IN ('Not Sold', 'Sold')),
    number_of_items INTEGER NOT NULL CHECK (number_of_items >= 0),
    last_item_seq   INTEGER NOT NULL DEFAULT 0,
    created_date    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS items (
    id      TEXT PRIMARY KEY,
    pack_id TEXT NOT NULL REFERENCES packs(id)
);

CREATE INDEX IF NOT EXISTS idx_items_pack_id ON items(pack_id);

CREATE TABLE IF NOT EXISTS images (
    id      INTEGER PRIMARY KEY,
    pack_id TEXT NOT NULL REFERENCES packs(id),
    data    BLOB NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_images_pack_id ON images(pack_id);

CREATE TABLE IF NOT EXISTS transactions (
    id        INTEGER PRIMARY KEY,
    pack_id   TEXT NOT NULL REFERENCES packs(id),
    amount    TEXT NOT NULL,
    profit    TEXT NOT NULL,
    sale_date DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_transactions_pack_id ON transactions(pack_id);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);
`

// postgresSchema mirrors sqliteSchema with Postgres column types.
const postgresSchema = `
CREATE TABLE IF NOT EXISTS users (
    id            BIGSERIAL PRIMARY KEY,
    email         TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS packs (
    id              TEXT PRIMARY KEY,
    brand           TEXT NOT NULL,
    category        TEXT NOT NULL,
    price           NUMERIC NOT NULL CHECK (price > 0),
    status          TEXT NOT NULL DEFAULT 'Not Sold' CHECK (status IN ('Not Sold', 'Sold')),
    number_of_items INTEGER NOT NULL CHECK (number_of_items >= 0),
    last_item_seq   INTEGER NOT NULL DEFAULT 0,
    created_date    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS items (
    id      TEXT PRIMARY KEY,
    pack_id TEXT NOT NULL REFERENCES packs(id)
);

CREATE INDEX IF NOT EXISTS idx_items_pack_id ON items(pack_id);

CREATE TABLE IF NOT EXISTS images (
    id      BIGSERIAL PRIMARY KEY,
    pack_id TEXT NOT NULL REFERENCES packs(id),
    data    BYTEA NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_images_pack_id ON images(pack_id);

CREATE TABLE IF NOT EXISTS transactions (
    id        BIGSERIAL PRIMARY KEY,
    pack_id   TEXT NOT NULL REFERENCES packs(id),
    amount    NUMERIC NOT NULL,
    profit    NUMERIC NOT NULL,
    sale_date TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_transactions_pack_id ON transactions(pack_id);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at TIMESTAMPTZ NOT NULL
);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(ctx context.Context, d *DB) error {
	schema := sqliteSchema
	if d.Dialect() == DialectPostgres {
		schema = postgresSchema
	}

	// pgx rejects multiple statements in one prepared Exec, so run them one by one.
	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := d.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	return nil
}
