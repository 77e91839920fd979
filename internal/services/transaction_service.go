package services

import (
	"context"
	"fmt"
	"log/slog"

	"findash/internal/amqp"
	"findash/internal/core"
	"findash/internal/store"
	"findash/internal/transfer"
)

// EventPublisher is the slice of the AMQP client the service needs.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, event *amqp.TransactionEvent) error
	Close() error
}

// TransactionService orchestrates collection mutations and publishes change
// events for downstream consumers. Event publishing is fire-and-forget: a
// broker failure never fails the mutation.
type TransactionService struct {
	store     *store.Store
	publisher EventPublisher
}

func NewTransactionService(s *store.Store, publisher EventPublisher) *TransactionService {
	return &TransactionService{
		store:     s,
		publisher: publisher,
	}
}

// Add validates and appends a transaction, then publishes a create event
// carrying the stored record.
func (s *TransactionService) Add(ctx context.Context, candidate core.Transaction) (core.Transaction, error) {
	added, err := s.store.Add(ctx, candidate)
	if err != nil {
		return core.Transaction{}, err
	}
	s.publishEvent(ctx, amqp.NewTransactionChangeEvent(amqp.ActionCreate, transfer.RecordOf(added)))
	return added, nil
}

// Update replaces the matching record. An unknown id is a no-op and
// publishes nothing.
func (s *TransactionService) Update(ctx context.Context, id string, patch core.Transaction) (bool, error) {
	applied, err := s.store.Update(ctx, id, patch)
	if err != nil {
		return false, err
	}
	if applied {
		if updated, ok := s.store.Get(id); ok {
			s.publishEvent(ctx, amqp.NewTransactionChangeEvent(amqp.ActionUpdate, transfer.RecordOf(updated)))
		}
	}
	return applied, nil
}

// Remove deletes the matching record if present.
func (s *TransactionService) Remove(ctx context.Context, id string) bool {
	removed := s.store.Remove(ctx, id)
	if removed {
		s.publishEvent(ctx, amqp.NewTransactionEvent(amqp.ActionDelete, id))
	}
	return removed
}

// Clear empties the whole collection.
func (s *TransactionService) Clear(ctx context.Context) {
	s.store.Clear(ctx)
	s.publishEvent(ctx, amqp.NewTransactionEvent(amqp.ActionClear, ""))
}

// Import atomically replaces the collection with the imported records.
func (s *TransactionService) Import(ctx context.Context, txs []core.Transaction) {
	s.store.ReplaceAll(ctx, txs)
	s.publishEvent(ctx, amqp.NewTransactionEvent(amqp.ActionImport, ""))
}

func (s *TransactionService) publishEvent(ctx context.Context, event *amqp.TransactionEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishTransactionEvent(ctx, event); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"action", event.Action, "id", event.ID, "error", err)
		// Don't fail the request - the mutation is already applied locally
	}
}

// Close closes both the store and the event publisher.
func (s *TransactionService) Close() error {
	var errs []error

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("store: %w", err))
		}
	}

	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close transaction service: %v", errs)
	}

	return nil
}
