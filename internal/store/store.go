// Package store owns the process-wide transaction collection.
//
// The in-memory copy is authoritative for the session. Every mutation is
// validated first, applied to memory, then persisted through the configured
// Persister; persistence failures are logged and reported through LastError
// but never roll back the in-memory state.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"findash/internal/core"
)

// Snapshot is the durable state: the full collection plus the two scalar
// settings that live alongside it.
type Snapshot struct {
	Transactions  []core.Transaction
	MonthlyBudget core.Money
	Theme         string
}

// Persister is the outbound port for durable storage. Implementations are
// the JSON snapshot file and the SQLite repository.
type Persister interface {
	Load(ctx context.Context) (Snapshot, error)
	Insert(ctx context.Context, tx core.Transaction) error
	Update(ctx context.Context, tx core.Transaction) error
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context) error
	ReplaceAll(ctx context.Context, txs []core.Transaction) error
	SaveBudget(ctx context.Context, budget core.Money) error
	SaveTheme(ctx context.Context, theme string) error
	Close() error
}

// Store holds the ordered transaction collection. All access is serialized;
// reads hand out copies so callers can never mutate shared state.
type Store struct {
	mu        sync.RWMutex
	items     []core.Transaction
	budget    core.Money
	theme     string
	revision  uint64
	lastID    int64
	persister Persister
	lastErr   error
	now       func() time.Time
}

// Open loads the snapshot from the persister, normalizes legacy records and
// returns a ready store. A nil persister gives a memory-only store.
func Open(ctx context.Context, p Persister) (*Store, error) {
	s := &Store{persister: p, theme: "light", now: time.Now}
	if p == nil {
		return s, nil
	}

	snap, err := p.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	normalized, fixed := Normalize(snap.Transactions)
	s.items = normalized
	s.budget = snap.MonthlyBudget
	if snap.Theme != "" {
		s.theme = snap.Theme
	}
	s.bumpLastID()

	// Write the normalized records back so the backend carries the same IDs
	// the session will mutate through; otherwise an edit to a reassigned ID
	// would find no matching row and be lost on restart.
	if fixed > 0 {
		s.persist(ctx, "normalize", func(p Persister) error { return p.ReplaceAll(ctx, normalized) })
	}

	slog.InfoContext(ctx, "Store loaded",
		"transactions", len(s.items),
		"normalized", fixed,
		"budget_cents", s.budget.Cents,
		"theme", s.theme)
	return s, nil
}

// Reload replaces the in-memory state with the backend's current contents.
// The worker process uses it to pick up mutations made by the server
// process before evaluating budgets.
func (s *Store) Reload(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}
	snap, err := s.persister.Load(ctx)
	if err != nil {
		return fmt.Errorf("reload snapshot: %w", err)
	}
	normalized, _ := Normalize(snap.Transactions)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = normalized
	s.budget = snap.MonthlyBudget
	if snap.Theme != "" {
		s.theme = snap.Theme
	}
	s.revision++
	s.bumpLastID()
	return nil
}

// bumpLastID raises the ID floor to the highest numeric ID present, so
// freshly generated IDs never collide with loaded ones.
func (s *Store) bumpLastID() {
	for _, t := range s.items {
		if n, err := strconv.ParseInt(t.ID, 10, 64); err == nil && n > s.lastID {
			s.lastID = n
		}
	}
}

// nextID returns a fresh unique identifier. Creation-time based like the
// original data, with a strictly increasing tail so same-instant adds stay
// unique.
func (s *Store) nextID() string {
	id := s.now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return strconv.FormatInt(id, 10)
}

// Add validates the candidate and appends it with a freshly generated id.
func (s *Store) Add(ctx context.Context, candidate core.Transaction) (core.Transaction, error) {
	if err := candidate.ValidateAt(s.now()); err != nil {
		return core.Transaction{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	candidate.ID = s.nextID()
	s.items = append(s.items, candidate)
	s.revision++
	s.persist(ctx, "add", func(p Persister) error { return p.Insert(ctx, candidate) })

	slog.InfoContext(ctx, "Transaction added",
		"id", candidate.ID,
		"title", candidate.Title,
		"amount_cents", candidate.Amount.Cents,
		"type", string(candidate.Type))
	return candidate, nil
}

// Update re-validates the patch and replaces the matching record in place.
// An unknown id is a silent no-op, reported through the returned bool.
func (s *Store) Update(ctx context.Context, id string, patch core.Transaction) (bool, error) {
	patch.ID = id
	if err := patch.ValidateAt(s.now()); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, t := range s.items {
		if t.ID != id {
			continue
		}
		s.items[i] = patch
		s.revision++
		s.persist(ctx, "update", func(p Persister) error { return p.Update(ctx, patch) })
		slog.InfoContext(ctx, "Transaction updated", "id", id)
		return true, nil
	}
	return false, nil
}

// Remove deletes the matching record if present. Removing an absent id is a
// no-op, so the operation is idempotent.
func (s *Store) Remove(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, t := range s.items {
		if t.ID != id {
			continue
		}
		s.items = append(s.items[:i], s.items[i+1:]...)
		s.revision++
		s.persist(ctx, "remove", func(p Persister) error { return p.Delete(ctx, id) })
		slog.InfoContext(ctx, "Transaction removed", "id", id)
		return true
	}
	return false
}

// Clear empties the collection. Irreversible; user confirmation is the
// caller's responsibility.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := len(s.items)
	s.items = nil
	s.revision++
	s.persist(ctx, "clear", func(p Persister) error { return p.Clear(ctx) })
	slog.InfoContext(ctx, "Collection cleared", "removed", count)
}

// ReplaceAll swaps the whole collection in one step. Used by import, which
// is an atomic replace, never a merge. Incoming records are normalized the
// same way a loaded snapshot is.
func (s *Store) ReplaceAll(ctx context.Context, txs []core.Transaction) {
	normalized, _ := Normalize(txs)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = normalized
	s.revision++
	s.bumpLastID()
	s.persist(ctx, "replace", func(p Persister) error { return p.ReplaceAll(ctx, normalized) })
	slog.InfoContext(ctx, "Collection replaced", "transactions", len(normalized))
}

// List returns a copy of the collection in insertion order.
func (s *Store) List() []core.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Transaction, len(s.items))
	copy(out, s.items)
	return out
}

// Get returns the record with the given id, if present.
func (s *Store) Get(id string) (core.Transaction, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.items {
		if t.ID == id {
			return t, true
		}
	}
	return core.Transaction{}, false
}

// View runs the pipeline over the current collection.
func (s *Store) View(params core.ViewParams) core.View {
	return core.ComputeView(s.List(), params)
}

// Len reports the collection size.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Revision increases on every mutation; view caches key on it.
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// Budget returns the monthly budget ceiling (zero means unset).
func (s *Store) Budget() core.Money {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.budget
}

// SetBudget stores the monthly budget ceiling.
func (s *Store) SetBudget(ctx context.Context, budget core.Money) error {
	if budget.Cents < 0 {
		return core.ErrInvalidAmount
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.budget = budget
	s.persist(ctx, "budget", func(p Persister) error { return p.SaveBudget(ctx, budget) })
	slog.InfoContext(ctx, "Budget updated", "budget_cents", budget.Cents)
	return nil
}

// Theme returns the stored theme flag ("dark" or "light").
func (s *Store) Theme() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.theme
}

// SetTheme stores the theme flag. The server treats it as an opaque setting.
func (s *Store) SetTheme(ctx context.Context, theme string) error {
	if theme != "dark" && theme != "light" {
		return fmt.Errorf("%w: theme must be dark or light", core.ErrValidation)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.theme = theme
	s.persist(ctx, "theme", func(p Persister) error { return p.SaveTheme(ctx, theme) })
	return nil
}

// LastError reports the most recent persistence failure, if any. Memory
// stays authoritative, so callers surface this as a warning, not a fatal.
func (s *Store) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Close releases the persister.
func (s *Store) Close() error {
	if s.persister == nil {
		return nil
	}
	return s.persister.Close()
}

// persist runs a persistence side effect while holding the write lock.
// Failures never unwind the in-memory mutation.
func (s *Store) persist(ctx context.Context, op string, fn func(Persister) error) {
	if s.persister == nil {
		return
	}
	if err := fn(s.persister); err != nil {
		s.lastErr = fmt.Errorf("persist %s: %w", op, err)
		slog.WarnContext(ctx, "Persistence failed, in-memory state remains authoritative",
			"operation", op, "error", err)
		return
	}
	s.lastErr = nil
}
