package amqp

import (
	"encoding/json"
	"time"

	"findash/internal/transfer"
)

// Event actions published when the collection changes.
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionClear  = "clear"
	ActionImport = "import"
)

// TransactionEvent is a change notification. Create and update events carry
// the full wire record so consumers in other processes don't have to share
// state with the publisher; delete, clear and import carry only the action.
type TransactionEvent struct {
	Action    string           `json:"action"`
	ID        string           `json:"id,omitempty"`
	Record    *transfer.Record `json:"record,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// NewTransactionEvent creates a change event for the given action and ID.
func NewTransactionEvent(action, id string) *TransactionEvent {
	return &TransactionEvent{
		Action:    action,
		ID:        id,
		Timestamp: time.Now(),
	}
}

// NewTransactionChangeEvent creates a create/update event carrying the
// affected record.
func NewTransactionChangeEvent(action string, rec transfer.Record) *TransactionEvent {
	return &TransactionEvent{
		Action:    action,
		ID:        rec.ID,
		Record:    &rec,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// TransactionEventFromJSON creates an event from JSON bytes
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var e TransactionEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
