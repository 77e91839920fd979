// Package storage is the SQLite implementation of the store's Persister
// port, for deployments that outgrow the JSON snapshot file.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"findash/internal/core"
	"findash/internal/store"

	_ "modernc.org/sqlite"
)

const (
	settingBudget = "monthly_budget_cents"
	settingTheme  = "theme"
)

type SQLiteRepository struct {
	db *sql.DB
}

var _ store.Persister = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Load(ctx context.Context) (store.Snapshot, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, amount_cents, tx_date, category, tx_type, notes
		 FROM transactions ORDER BY position`)
	if err != nil {
		return store.Snapshot{}, fmt.Errorf("select transactions: %w", err)
	}
	defer rows.Close()

	var snap store.Snapshot
	for rows.Next() {
		var (
			tx      core.Transaction
			cents   int64
			isoDate string
			txType  string
		)
		if err := rows.Scan(&tx.ID, &tx.Title, &cents, &isoDate, &tx.Category, &txType, &tx.Notes); err != nil {
			return store.Snapshot{}, fmt.Errorf("scan transaction: %w", err)
		}
		tx.Amount = core.Money{Cents: cents}
		tx.Type = core.TxType(txType)
		if d, err := core.ParseDate(isoDate); err == nil {
			tx.Date = d
		}
		snap.Transactions = append(snap.Transactions, tx)
	}
	if err := rows.Err(); err != nil {
		return store.Snapshot{}, fmt.Errorf("iterate transactions: %w", err)
	}

	if v, err := r.setting(ctx, settingBudget); err != nil {
		return store.Snapshot{}, err
	} else if v.Valid {
		var cents int64
		if _, err := fmt.Sscanf(v.String, "%d", &cents); err == nil {
			snap.MonthlyBudget = core.Money{Cents: cents}
		}
	}
	if v, err := r.setting(ctx, settingTheme); err != nil {
		return store.Snapshot{}, err
	} else if v.Valid {
		snap.Theme = v.String
	}

	slog.InfoContext(ctx, "Snapshot loaded from SQLite",
		"transactions", len(snap.Transactions),
		"budget_cents", snap.MonthlyBudget.Cents)
	return snap, nil
}

func (r *SQLiteRepository) Insert(ctx context.Context, tx core.Transaction) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (id, position, title, amount_cents, tx_date, category, tx_type, notes)
		 VALUES (?, (SELECT COALESCE(MAX(position), 0) + 1 FROM transactions), ?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.Title, tx.Amount.Cents, tx.Date.ISO(), tx.Category, string(tx.Type), tx.Notes)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Update(ctx context.Context, tx core.Transaction) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE transactions
		 SET title = ?, amount_cents = ?, tx_date = ?, category = ?, tx_type = ?, notes = ?
		 WHERE id = ?`,
		tx.Title, tx.Amount.Cents, tx.Date.ISO(), tx.Category, string(tx.Type), tx.Notes, tx.ID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM transactions`); err != nil {
		return fmt.Errorf("clear transactions: %w", err)
	}
	return nil
}

// ReplaceAll swaps the whole table inside one transaction so a failed
// import can never leave a half-written collection behind.
func (r *SQLiteRepository) ReplaceAll(ctx context.Context, txs []core.Transaction) error {
	dbtx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace: %w", err)
	}
	defer dbtx.Rollback()

	if _, err := dbtx.ExecContext(ctx, `DELETE FROM transactions`); err != nil {
		return fmt.Errorf("clear before replace: %w", err)
	}
	for i, tx := range txs {
		_, err := dbtx.ExecContext(ctx,
			`INSERT INTO transactions (id, position, title, amount_cents, tx_date, category, tx_type, notes)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			tx.ID, i+1, tx.Title, tx.Amount.Cents, tx.Date.ISO(), tx.Category, string(tx.Type), tx.Notes)
		if err != nil {
			return fmt.Errorf("insert during replace: %w", err)
		}
	}
	if err := dbtx.Commit(); err != nil {
		return fmt.Errorf("commit replace: %w", err)
	}

	slog.InfoContext(ctx, "Collection replaced in SQLite", "transactions", len(txs))
	return nil
}

func (r *SQLiteRepository) SaveBudget(ctx context.Context, budget core.Money) error {
	return r.saveSetting(ctx, settingBudget, fmt.Sprintf("%d", budget.Cents))
}

func (r *SQLiteRepository) SaveTheme(ctx context.Context, theme string) error {
	return r.saveSetting(ctx, settingTheme, theme)
}

func (r *SQLiteRepository) setting(ctx context.Context, key string) (sql.NullString, error) {
	var v sql.NullString
	err := r.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&v)
	if err == sql.ErrNoRows {
		return sql.NullString{}, nil
	}
	if err != nil {
		return sql.NullString{}, fmt.Errorf("read setting %s: %w", key, err)
	}
	return v, nil
}

func (r *SQLiteRepository) saveSetting(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value)
	if err != nil {
		return fmt.Errorf("save setting %s: %w", key, err)
	}
	return nil
}
