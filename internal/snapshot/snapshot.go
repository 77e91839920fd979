// Package snapshot persists the store as a single JSON document on disk.
//
// The document keeps the layout the tracker has always used: the
// transaction array under "expenses", the budget scalar under
// "monthlyBudget" and the theme flag under "theme". There is no version
// field; the store's normalization pass absorbs schema drift on load.
package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"findash/internal/core"
	"findash/internal/store"
	"findash/internal/transfer"
)

type Persister struct {
	path string

	// cache mirrors what is on disk so per-mutation writes don't have to
	// re-read the file. The store serializes calls, no lock needed.
	txs    []core.Transaction
	budget core.Money
	theme  string
}

type document struct {
	Expenses      []transfer.Record `json:"expenses"`
	MonthlyBudget float64           `json:"monthlyBudget"`
	Theme         string            `json:"theme,omitempty"`
}

// New creates a snapshot persister for the given file path. The directory
// is created if missing; a missing file means an empty collection.
func New(path string) (*Persister, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot directory: %w", err)
	}
	return &Persister{path: path}, nil
}

func (p *Persister) Load(ctx context.Context) (store.Snapshot, error) {
	raw, err := os.ReadFile(p.path)
	if os.IsNotExist(err) {
		slog.InfoContext(ctx, "No snapshot file yet, starting empty", "path", p.path)
		return store.Snapshot{}, nil
	}
	if err != nil {
		return store.Snapshot{}, fmt.Errorf("read snapshot: %w", err)
	}

	txs, budget, err := transfer.DecodeJSON(bytes.NewReader(raw))
	if err != nil {
		return store.Snapshot{}, fmt.Errorf("decode snapshot %s: %w", p.path, err)
	}

	var doc document
	_ = json.Unmarshal(raw, &doc) // theme only; decode errors already caught above

	p.txs = txs
	p.budget = budget
	p.theme = doc.Theme
	return store.Snapshot{Transactions: txs, MonthlyBudget: budget, Theme: doc.Theme}, nil
}

func (p *Persister) Insert(ctx context.Context, tx core.Transaction) error {
	p.txs = append(p.txs, tx)
	return p.flush(ctx)
}

func (p *Persister) Update(ctx context.Context, tx core.Transaction) error {
	for i, t := range p.txs {
		if t.ID == tx.ID {
			p.txs[i] = tx
			break
		}
	}
	return p.flush(ctx)
}

func (p *Persister) Delete(ctx context.Context, id string) error {
	for i, t := range p.txs {
		if t.ID == id {
			p.txs = append(p.txs[:i], p.txs[i+1:]...)
			break
		}
	}
	return p.flush(ctx)
}

func (p *Persister) Clear(ctx context.Context) error {
	p.txs = nil
	return p.flush(ctx)
}

func (p *Persister) ReplaceAll(ctx context.Context, txs []core.Transaction) error {
	p.txs = append([]core.Transaction(nil), txs...)
	return p.flush(ctx)
}

func (p *Persister) SaveBudget(ctx context.Context, budget core.Money) error {
	p.budget = budget
	return p.flush(ctx)
}

func (p *Persister) SaveTheme(ctx context.Context, theme string) error {
	p.theme = theme
	return p.flush(ctx)
}

func (p *Persister) Close() error { return nil }

// flush rewrites the whole document. Write-to-temp plus rename keeps a
// crash from truncating the only copy of the data.
func (p *Persister) flush(ctx context.Context) error {
	doc := document{
		Expenses:      make([]transfer.Record, 0, len(p.txs)),
		MonthlyBudget: p.budget.Units(),
		Theme:         p.theme,
	}
	for _, t := range p.txs {
		doc.Expenses = append(doc.Expenses, transfer.RecordOf(t))
	}

	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	tmp := p.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, p.path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}

	slog.DebugContext(ctx, "Snapshot flushed", "path", p.path, "transactions", len(p.txs))
	return nil
}
