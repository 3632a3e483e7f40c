package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps each wallet as one row holding its JSON document.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore builds a store backed by PostgreSQL. The wallets table is
// created by infra.MigrateWallets.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// ListIDs returns every stored wallet id.
func (s *PostgresStore) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := s.db.Query(ctx, `SELECT id FROM wallets`)
	if err != nil {
		return nil, fmt.Errorf("list wallet ids: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, fmt.Errorf("scan wallet ids: %w", err)
	}
	return ids, nil
}

// List loads every wallet document.
func (s *PostgresStore) List(ctx context.Context) ([]Wallet, error) {
	rows, err := s.db.Query(ctx, `SELECT id, document FROM wallets`)
	if err != nil {
		return nil, fmt.Errorf("list wallets: %w", err)
	}
	defer rows.Close()

	var wallets []Wallet
	for rows.Next() {
		var (
			id  uuid.UUID
			doc []byte
		)
		if err := rows.Scan(&id, &doc); err != nil {
			return nil, fmt.Errorf("scan wallet: %w", err)
		}
		w, err := decodeRecord(id, doc)
		if err != nil {
			return nil, err
		}
		wallets = append(wallets, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list wallets: %w", err)
	}
	return wallets, nil
}

// Find loads one wallet by id.
func (s *PostgresStore) Find(ctx context.Context, id uuid.UUID) (Wallet, bool, error) {
	var doc []byte
	err := s.db.QueryRow(ctx, `SELECT document FROM wallets WHERE id = $1`, id).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Wallet{}, false, nil
		}
		return Wallet{}, false, fmt.Errorf("read wallet %s: %w", id, err)
	}
	w, err := decodeRecord(id, doc)
	if err != nil {
		return Wallet{}, false, err
	}
	return w, true, nil
}

// Save upserts the wallet row. A checked save locks the row for the duration
// of the token comparison and the write.
func (s *PostgresStore) Save(ctx context.Context, w *Wallet, checkConcurrency bool) error {
	if w == nil || w.ID == uuid.Nil {
		return fmt.Errorf("wallet id is required")
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin save wallet %s: %w", w.ID, err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	record := *w
	insertOnly := false
	if checkConcurrency {
		var stored uuid.UUID
		err := tx.QueryRow(ctx, `SELECT concurrency_token FROM wallets WHERE id = $1 FOR UPDATE`, w.ID).Scan(&stored)
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			// Nothing to lock yet; a concurrent first write must lose the insert.
			insertOnly = true
		case err != nil:
			return fmt.Errorf("read token for wallet %s: %w", w.ID, err)
		case stored != w.ConcurrencyToken:
			return ErrConcurrencyConflict
		}
		record.ConcurrencyToken = uuid.New()
	}

	doc, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode wallet %s: %w", w.ID, err)
	}
	if insertOnly {
		tag, err := tx.Exec(ctx, `INSERT INTO wallets (id, document, concurrency_token, updated_at)
        VALUES ($1, $2, $3, now())
        ON CONFLICT (id) DO NOTHING`,
			record.ID, doc, record.ConcurrencyToken)
		if err != nil {
			return fmt.Errorf("insert wallet %s: %w", w.ID, err)
		}
		if tag.RowsAffected() != 1 {
			return ErrConcurrencyConflict
		}
	} else if _, err := tx.Exec(ctx, `INSERT INTO wallets (id, document, concurrency_token, updated_at)
        VALUES ($1, $2, $3, now())
        ON CONFLICT (id) DO UPDATE SET document = EXCLUDED.document,
            concurrency_token = EXCLUDED.concurrency_token, updated_at = now()`,
		record.ID, doc, record.ConcurrencyToken); err != nil {
		return fmt.Errorf("write wallet %s: %w", w.ID, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit wallet %s: %w", w.ID, err)
	}

	w.ConcurrencyToken = record.ConcurrencyToken
	return nil
}
