// Package transfer encodes and decodes the export document.
//
// The JSON shape mirrors the durable layout the tracker has always used:
//
//	{ "expenses": [...], "monthlyBudget": 150.00, "exportedAt": "..." }
//
// The field is called "expenses" for historical reasons; it carries every
// transaction type. A CSV shape is offered for spreadsheet users.
package transfer

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"findash/internal/core"
)

// ErrFormat marks an unusable import payload. The existing collection is
// never touched when decoding fails.
var ErrFormat = errors.New("import format error")

// Document is the export/import envelope.
type Document struct {
	Expenses      []Record `json:"expenses"`
	MonthlyBudget float64  `json:"monthlyBudget"`
	ExportedAt    string   `json:"exportedAt"`
}

// Record is the wire form of a transaction. Amounts travel as decimal
// numbers in currency units, not cents.
type Record struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Amount   float64 `json:"amount"`
	Date     string  `json:"date"`
	Category string  `json:"category"`
	Type     string  `json:"type,omitempty"`
	Notes    string  `json:"notes,omitempty"`
}

var centsFactor = decimal.NewFromInt(100)

// RecordOf converts a transaction to its wire form.
func RecordOf(t core.Transaction) Record {
	amount, _ := decimal.NewFromInt(t.Amount.Cents).Div(centsFactor).Float64()
	return Record{
		ID:       t.ID,
		Title:    t.Title,
		Amount:   amount,
		Date:     t.Date.ISO(),
		Category: t.Category,
		Type:     string(t.Type),
		Notes:    t.Notes,
	}
}

// Transaction converts the wire record back to the domain form.
func (r Record) Transaction() core.Transaction {
	cents := decimal.NewFromFloat(r.Amount).Mul(centsFactor).Round(0).IntPart()
	tx := core.Transaction{
		ID:       r.ID,
		Title:    r.Title,
		Amount:   core.Money{Cents: cents},
		Category: r.Category,
		Type:     core.TxType(r.Type),
		Notes:    r.Notes,
	}
	// A malformed date leaves the zero value; the record stays in the raw
	// view but out of month buckets.
	if d, err := core.ParseDate(r.Date); err == nil {
		tx.Date = d
	}
	return tx
}

// EncodeJSON writes the export document for the given snapshot.
func EncodeJSON(w io.Writer, txs []core.Transaction, budget core.Money, exportedAt time.Time) error {
	doc := Document{
		Expenses:   make([]Record, 0, len(txs)),
		ExportedAt: exportedAt.UTC().Format(time.RFC3339),
	}
	doc.MonthlyBudget, _ = decimal.NewFromInt(budget.Cents).Div(centsFactor).Float64()
	for _, t := range txs {
		doc.Expenses = append(doc.Expenses, RecordOf(t))
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode export document: %w", err)
	}
	return nil
}

// DecodeJSON parses an export document. A payload that is not valid JSON or
// lacks the expenses array fails with ErrFormat.
func DecodeJSON(r io.Reader) ([]core.Transaction, core.Money, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, core.Money{}, fmt.Errorf("read import payload: %w", err)
	}

	// Decode into a raw map first so a missing "expenses" key can be told
	// apart from an empty one.
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, core.Money{}, fmt.Errorf("%w: not valid JSON", ErrFormat)
	}
	if _, ok := probe["expenses"]; !ok {
		return nil, core.Money{}, fmt.Errorf("%w: missing expenses array", ErrFormat)
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, core.Money{}, fmt.Errorf("%w: %v", ErrFormat, err)
	}

	txs := make([]core.Transaction, 0, len(doc.Expenses))
	for _, rec := range doc.Expenses {
		txs = append(txs, rec.Transaction())
	}
	budget := core.Money{Cents: decimal.NewFromFloat(doc.MonthlyBudget).Mul(centsFactor).Round(0).IntPart()}
	return txs, budget, nil
}

var csvHeader = []string{"id", "title", "amount", "date", "category", "type", "notes"}

// EncodeCSV writes the collection as CSV with a fixed header row.
func EncodeCSV(w io.Writer, txs []core.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, t := range txs {
		amount := decimal.NewFromInt(t.Amount.Cents).Div(centsFactor)
		row := []string{t.ID, t.Title, amount.StringFixed(2), t.Date.ISO(), t.Category, string(t.Type), t.Notes}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// DecodeCSV parses a CSV payload produced by EncodeCSV (or a spreadsheet
// following the same header). Amounts accept any decimal the library can
// parse; bad rows fail the whole import so no partial state slips in.
func DecodeCSV(r io.Reader) ([]core.Transaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(csvHeader)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: missing csv header", ErrFormat)
	}
	if header[0] != csvHeader[0] || header[1] != csvHeader[1] {
		return nil, fmt.Errorf("%w: unexpected csv header", ErrFormat)
	}

	var txs []core.Transaction
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrFormat, line, err)
		}
		amount, err := decimal.NewFromString(row[2])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: bad amount %q", ErrFormat, line, row[2])
		}
		tx := core.Transaction{
			ID:       row[0],
			Title:    row[1],
			Amount:   core.Money{Cents: amount.Mul(centsFactor).Round(0).IntPart()},
			Category: row[4],
			Type:     core.TxType(row[5]),
			Notes:    row[6],
		}
		if d, err := core.ParseDate(row[3]); err == nil {
			tx.Date = d
		}
		txs = append(txs, tx)
	}
	return txs, nil
}
