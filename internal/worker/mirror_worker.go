// Package worker contains the background side of the tracker: mirroring
// collection changes to an external sheet and the scheduled budget check.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"findash/internal/amqp"
	"findash/internal/sheets"
)

// MirrorWorker mirrors transaction changes to an external sheet. The worker
// runs in its own process, so the event payload is the source of truth for
// the row content; no state is shared with the publisher.
type MirrorWorker struct {
	appender sheets.TransactionAppender
}

func NewMirrorWorker(appender sheets.TransactionAppender) *MirrorWorker {
	return &MirrorWorker{
		appender: appender,
	}
}

// HandleEvent processes a single transaction change event.
func (w *MirrorWorker) HandleEvent(ctx context.Context, event *amqp.TransactionEvent) error {
	slog.InfoContext(ctx, "Processing transaction event",
		"action", event.Action,
		"id", event.ID)

	switch event.Action {
	case amqp.ActionCreate, amqp.ActionUpdate:
		return w.mirrorOne(ctx, event)
	case amqp.ActionDelete, amqp.ActionClear, amqp.ActionImport:
		// The sheet is an append-only journal; deletions and wholesale
		// replacements are not replayed there.
		slog.DebugContext(ctx, "Event needs no mirroring", "action", event.Action)
		return nil
	default:
		slog.WarnContext(ctx, "Unknown event action, skipping", "action", event.Action)
		return nil
	}
}

func (w *MirrorWorker) mirrorOne(ctx context.Context, event *amqp.TransactionEvent) error {
	if event.Record == nil {
		// An event without its record cannot be replayed; requeueing would
		// never make it whole.
		slog.WarnContext(ctx, "Event carries no record, skipping mirror",
			"action", event.Action, "id", event.ID)
		return nil
	}
	tx := event.Record.Transaction()

	ref, err := w.appender.Append(ctx, tx)
	if err != nil {
		return fmt.Errorf("append to sheet: %w", err)
	}

	slog.InfoContext(ctx, "Mirrored transaction",
		"id", tx.ID,
		"row_ref", ref,
		"title", tx.Title,
		"amount_cents", tx.Amount.Cents)
	return nil
}
