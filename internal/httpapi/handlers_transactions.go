package httpapi

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"findash/internal/core"
	"findash/internal/transfer"
)

// txPayload is the request body for create and update. The amount travels
// as a JSON number or a decimal string; both forms parse to cents.
type txPayload struct {
	Title    string      `json:"title"`
	Amount   json.Number `json:"amount"`
	Date     string      `json:"date"`
	Category string      `json:"category"`
	Type     string      `json:"type"`
	Notes    string      `json:"notes"`
}

func (p txPayload) toTransaction() (core.Transaction, error) {
	cents, err := core.ParseAmountToCents(p.Amount.String())
	if err != nil {
		return core.Transaction{}, err
	}
	tx := core.Transaction{
		Title:    strings.TrimSpace(p.Title),
		Amount:   core.Money{Cents: cents},
		Category: strings.TrimSpace(p.Category),
		Type:     core.TxType(p.Type),
		Notes:    p.Notes,
	}
	if tx.Type == "" {
		tx.Type = core.TypeExpense
	}
	// A malformed date leaves the zero value; validation reports it.
	if d, err := core.ParseDate(p.Date); err == nil {
		tx.Date = d
	}
	return tx, nil
}

type viewResponse struct {
	Transactions []transfer.Record  `json:"transactions"`
	TotalAmount  float64            `json:"totalAmount"`
	ByCategory   []categoryTotalDTO `json:"byCategory"`
	ByMonth      []monthTotalDTO    `json:"byMonth"`
	NetBalance   float64            `json:"netBalance"`
	Count        int                `json:"count"`
}

type categoryTotalDTO struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
}

type monthTotalDTO struct {
	Month      string  `json:"month"`
	Expense    float64 `json:"expense"`
	Income     float64 `json:"income"`
	Investment float64 `json:"investment"`
}

func viewToResponse(v core.View) viewResponse {
	resp := viewResponse{
		Transactions: make([]transfer.Record, 0, len(v.Transactions)),
		TotalAmount:  v.TotalAmount.Units(),
		NetBalance:   v.NetBalance.Units(),
		Count:        len(v.Transactions),
	}
	for _, t := range v.Transactions {
		resp.Transactions = append(resp.Transactions, transfer.RecordOf(t))
	}
	for _, c := range v.ByCategory {
		resp.ByCategory = append(resp.ByCategory, categoryTotalDTO{Category: c.Category, Amount: c.Amount.Units()})
	}
	for _, m := range v.ByMonth {
		resp.ByMonth = append(resp.ByMonth, monthTotalDTO{
			Month:      m.Month,
			Expense:    m.Expense.Units(),
			Income:     m.Income.Units(),
			Investment: m.Investment.Units(),
		})
	}
	return resp
}

// parseViewParams reads the pipeline controls from the query string.
// Unknown values are rejected rather than silently ignored.
func parseViewParams(r *http.Request) (core.ViewParams, error) {
	q := r.URL.Query()
	params := core.ViewParams{
		Month:  strings.TrimSpace(q.Get("month")),
		Search: q.Get("search"),
	}

	if params.Month != "" {
		n, err := strconv.Atoi(params.Month)
		if err != nil || n < 1 || n > 12 || fmt.Sprintf("%02d", n) != params.Month {
			return core.ViewParams{}, fmt.Errorf("month must be 01..12, got %q", params.Month)
		}
	}
	if v := strings.TrimSpace(q.Get("type")); v != "" {
		t := core.TxType(v)
		if !t.IsValid() {
			return core.ViewParams{}, fmt.Errorf("unknown type %q", v)
		}
		params.Type = t
	}
	if v := strings.TrimSpace(q.Get("sort")); v != "" {
		f := core.SortField(v)
		if !f.IsValid() {
			return core.ViewParams{}, fmt.Errorf("unknown sort field %q", v)
		}
		params.Sort = f
	}
	if v := strings.TrimSpace(q.Get("dir")); v != "" {
		d := core.SortDir(v)
		if !d.IsValid() {
			return core.ViewParams{}, fmt.Errorf("unknown sort direction %q", v)
		}
		params.Dir = d
	}
	return params, nil
}

func (s *Server) viewCacheKey(params core.ViewParams) string {
	p := params.Normalized()
	return fmt.Sprintf("%d|%s|%s|%s|%s|%s",
		s.store.Revision(), p.Month, p.Type, strings.ToLower(p.Search), p.Sort, p.Dir)
}

// cachedView computes the view, memoized per parameter set and revision.
func (s *Server) cachedView(params core.ViewParams) core.View {
	key := s.viewCacheKey(params)
	if v, ok := s.viewCache.Get(key); ok {
		return v
	}
	v := s.store.View(params)
	s.viewCache.Set(key, v)
	return v
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	params, err := parseViewParams(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, viewToResponse(s.cachedView(params)))
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var payload txPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	candidate, err := payload.toTransaction()
	if err != nil {
		writeError(w, r, err)
		return
	}

	added, err := s.svc.Add(r.Context(), candidate)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, transfer.RecordOf(added))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var payload txPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	patch, err := payload.toTransaction()
	if err != nil {
		writeError(w, r, err)
		return
	}

	applied, err := s.svc.Update(r.Context(), id, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !applied {
		writeNotFound(w, "no transaction with id "+id)
		return
	}
	updated, _ := s.store.Get(id)
	writeJSON(w, http.StatusOK, transfer.RecordOf(updated))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.svc.Remove(r.Context(), id) {
		writeNotFound(w, "no transaction with id "+id)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleClearTransactions wipes the collection. The explicit confirm flag
// stands in for the client-side confirmation dialog.
func (s *Server) handleClearTransactions(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("confirm") != "true" {
		writeBadRequest(w, "clearing all transactions requires confirm=true")
		return
	}
	count := s.store.Len()
	s.svc.Clear(r.Context())
	slog.InfoContext(r.Context(), "Collection cleared via API", "removed", count)
	w.WriteHeader(http.StatusNoContent)
}
