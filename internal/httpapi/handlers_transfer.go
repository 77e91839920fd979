package httpapi

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"findash/internal/core"
	"findash/internal/transfer"
)

// handleExport streams the collection as a JSON document or CSV.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	if format == "" {
		format = "json"
	}

	txs := s.store.List()
	stamp := time.Now().UTC().Format("2006-01-02")

	switch format {
	case "json":
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="transactions-`+stamp+`.json"`)
		if err := transfer.EncodeJSON(w, txs, s.store.Budget(), time.Now()); err != nil {
			slog.ErrorContext(r.Context(), "Export failed", "format", format, "error", err)
		}
	case "csv":
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="transactions-`+stamp+`.csv"`)
		if err := transfer.EncodeCSV(w, txs); err != nil {
			slog.ErrorContext(r.Context(), "Export failed", "format", format, "error", err)
		}
	default:
		writeBadRequest(w, "format must be json or csv")
	}
}

type importResponse struct {
	Imported int     `json:"imported"`
	Budget   float64 `json:"monthlyBudget,omitempty"`
}

// handleImport replaces the whole collection with the uploaded document.
// The replace is atomic: a payload that fails to decode changes nothing.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	if format == "" {
		if ct := r.Header.Get("Content-Type"); strings.Contains(ct, "csv") {
			format = "csv"
		} else {
			format = "json"
		}
	}

	var (
		txs    []core.Transaction
		budget core.Money
		err    error
	)
	switch format {
	case "json":
		txs, budget, err = transfer.DecodeJSON(r.Body)
	case "csv":
		txs, err = transfer.DecodeCSV(r.Body)
	default:
		writeBadRequest(w, "format must be json or csv")
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.svc.Import(r.Context(), txs)
	resp := importResponse{Imported: s.store.Len()}
	if budget.Cents > 0 {
		if err := s.store.SetBudget(r.Context(), budget); err != nil {
			writeError(w, r, err)
			return
		}
		resp.Budget = budget.Units()
	}

	slog.InfoContext(r.Context(), "Collection imported",
		"format", format,
		"transactions", resp.Imported,
		"budget_cents", budget.Cents)
	writeJSON(w, http.StatusOK, resp)
}
