package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"findash/internal/core"
	"findash/internal/services"
	"findash/internal/store"
	"findash/internal/transfer"
)

func newTestServer(t *testing.T) (*Server, *store.Store) {
	t.Helper()
	st, err := store.Open(context.Background(), nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	svc := services.NewTransactionService(st, nil)
	budget := services.NewBudgetService(st)
	return NewServer(Config{Addr: ":0"}, st, svc, budget), st
}

func doJSON(t *testing.T, s *Server, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	return rec
}

func createTx(t *testing.T, s *Server, title, amount, date, category, txType string) transfer.Record {
	t.Helper()
	rec := doJSON(t, s, http.MethodPost, "/transactions", map[string]any{
		"title":    title,
		"amount":   json.Number(amount),
		"date":     date,
		"category": category,
		"type":     txType,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create %s: status = %d, body %s", title, rec.Code, rec.Body.String())
	}
	var out transfer.Record
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	return out
}

func TestCreateAndListTransactions(t *testing.T) {
	s, _ := newTestServer(t)

	created := createTx(t, s, "Groceries", "12.50", "2024-01-05", "Food", "expense")
	if created.ID == "" || created.Amount != 12.5 {
		t.Errorf("created = %+v", created)
	}

	rec := doJSON(t, s, http.MethodGet, "/transactions", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: status = %d", rec.Code)
	}
	var view viewResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	if view.Count != 1 || view.TotalAmount != 12.5 {
		t.Errorf("view = %+v", view)
	}
	if len(view.ByCategory) != 1 || view.ByCategory[0].Category != "Food" {
		t.Errorf("byCategory = %+v", view.ByCategory)
	}
}

func TestCreateValidationErrors(t *testing.T) {
	s, st := newTestServer(t)

	tests := []struct {
		name string
		body map[string]any
	}{
		{"empty title", map[string]any{"title": "", "amount": json.Number("10"), "date": "2024-01-05", "category": "Food", "type": "expense"}},
		{"zero amount", map[string]any{"title": "X", "amount": json.Number("0"), "date": "2024-01-05", "category": "Food", "type": "expense"}},
		{"negative amount", map[string]any{"title": "X", "amount": json.Number("-5"), "date": "2024-01-05", "category": "Food", "type": "expense"}},
		{"future date", map[string]any{"title": "X", "amount": json.Number("10"), "date": "2999-01-05", "category": "Food", "type": "expense"}},
		{"missing date", map[string]any{"title": "X", "amount": json.Number("10"), "category": "Food", "type": "expense"}},
		{"category Other", map[string]any{"title": "X", "amount": json.Number("10"), "date": "2024-01-05", "category": "Other", "type": "expense"}},
		{"bad type", map[string]any{"title": "X", "amount": json.Number("10"), "date": "2024-01-05", "category": "Food", "type": "loan"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, s, http.MethodPost, "/transactions", tt.body)
			if rec.Code != http.StatusUnprocessableEntity {
				t.Errorf("status = %d, want 422, body %s", rec.Code, rec.Body.String())
			}
		})
	}
	if st.Len() != 0 {
		t.Errorf("store len = %d, want 0 after rejected creates", st.Len())
	}
}

func TestViewFilteringAndSorting(t *testing.T) {
	s, _ := newTestServer(t)

	createTx(t, s, "Coffee", "3.00", "2024-01-10", "Food", "expense")
	createTx(t, s, "Salary", "2500.00", "2024-01-25", "Salary", "income")
	createTx(t, s, "Bus ticket", "2.00", "2024-02-01", "Transport", "expense")

	rec := doJSON(t, s, http.MethodGet, "/transactions?month=01&type=expense&sort=amount&dir=asc", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var view viewResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.Count != 1 || view.Transactions[0].Title != "Coffee" {
		t.Errorf("view = %+v", view)
	}

	rec = doJSON(t, s, http.MethodGet, "/transactions?search=bus", nil)
	_ = json.Unmarshal(rec.Body.Bytes(), &view)
	if view.Count != 1 || view.Transactions[0].Title != "Bus ticket" {
		t.Errorf("search view = %+v", view)
	}
}

func TestViewParamValidation(t *testing.T) {
	s, _ := newTestServer(t)
	for _, target := range []string{
		"/transactions?month=13",
		"/transactions?month=1",
		"/transactions?month=0a",
		"/transactions?month=+1",
		"/transactions?type=loan",
		"/transactions?sort=color",
		"/transactions?dir=sideways",
	} {
		rec := doJSON(t, s, http.MethodGet, target, nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", target, rec.Code)
		}
	}
}

func TestUpdateTransaction(t *testing.T) {
	s, _ := newTestServer(t)
	created := createTx(t, s, "Groceries", "12.50", "2024-01-05", "Food", "expense")

	rec := doJSON(t, s, http.MethodPut, "/transactions/"+created.ID, map[string]any{
		"title":    "Weekly groceries",
		"amount":   json.Number("15.00"),
		"date":     "2024-01-06",
		"category": "Food",
		"type":     "expense",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update: status = %d, body %s", rec.Code, rec.Body.String())
	}
	var updated transfer.Record
	_ = json.Unmarshal(rec.Body.Bytes(), &updated)
	if updated.Title != "Weekly groceries" || updated.Amount != 15.0 {
		t.Errorf("updated = %+v", updated)
	}

	rec = doJSON(t, s, http.MethodPut, "/transactions/unknown", map[string]any{
		"title": "X", "amount": json.Number("1.00"), "date": "2024-01-05", "category": "Food", "type": "expense",
	})
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown id: status = %d, want 404", rec.Code)
	}
}

func TestDeleteAndClear(t *testing.T) {
	s, st := newTestServer(t)
	created := createTx(t, s, "Groceries", "12.50", "2024-01-05", "Food", "expense")

	rec := doJSON(t, s, http.MethodDelete, "/transactions/"+created.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: status = %d", rec.Code)
	}
	rec = doJSON(t, s, http.MethodDelete, "/transactions/"+created.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete: status = %d, want 404", rec.Code)
	}

	createTx(t, s, "Coffee", "3.00", "2024-01-10", "Food", "expense")
	rec = doJSON(t, s, http.MethodDelete, "/transactions", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("clear without confirm: status = %d, want 400", rec.Code)
	}
	if st.Len() != 1 {
		t.Errorf("store len = %d, want 1 (clear refused)", st.Len())
	}
	rec = doJSON(t, s, http.MethodDelete, "/transactions?confirm=true", nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("clear: status = %d", rec.Code)
	}
	if st.Len() != 0 {
		t.Errorf("store len = %d, want 0", st.Len())
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	s, st := newTestServer(t)
	createTx(t, s, "Groceries", "12.50", "2024-01-05", "Food", "expense")
	createTx(t, s, "Salary", "2500.00", "2024-01-25", "Salary", "income")

	rec := doJSON(t, s, http.MethodGet, "/export", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("export: status = %d", rec.Code)
	}
	exported := rec.Body.String()
	if !strings.Contains(exported, `"expenses"`) || !strings.Contains(exported, `"exportedAt"`) {
		t.Fatalf("export missing envelope fields: %s", exported)
	}

	// Wipe, then import the export back.
	doJSON(t, s, http.MethodDelete, "/transactions?confirm=true", nil)

	req := httptest.NewRequest(http.MethodPost, "/import", strings.NewReader(exported))
	rec = httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("import: status = %d, body %s", rec.Code, rec.Body.String())
	}
	if st.Len() != 2 {
		t.Errorf("store len = %d, want 2 after import", st.Len())
	}
}

func TestImportBadPayloadLeavesCollectionUntouched(t *testing.T) {
	s, st := newTestServer(t)
	createTx(t, s, "Groceries", "12.50", "2024-01-05", "Food", "expense")

	for _, payload := range []string{
		"not json at all",
		`{"monthlyBudget": 100}`, // missing expenses key
		`[1,2,3]`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/import", strings.NewReader(payload))
		rec := httptest.NewRecorder()
		s.Handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("payload %q: status = %d, want 400", payload, rec.Code)
		}
	}
	if st.Len() != 1 {
		t.Errorf("store len = %d, want 1", st.Len())
	}
}

func TestImportCSV(t *testing.T) {
	s, st := newTestServer(t)

	csvBody := "id,title,amount,date,category,type,notes\n1,Groceries,12.50,2024-01-05,Food,expense,\n"
	req := httptest.NewRequest(http.MethodPost, "/import?format=csv", strings.NewReader(csvBody))
	req.Header.Set("Content-Type", "text/csv")
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("csv import: status = %d, body %s", rec.Code, rec.Body.String())
	}
	if st.Len() != 1 {
		t.Errorf("store len = %d, want 1", st.Len())
	}
}

func TestBudgetSettings(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodPut, "/settings/budget", map[string]any{"monthlyBudget": json.Number("500.00")})
	if rec.Code != http.StatusOK {
		t.Fatalf("put budget: status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, s, http.MethodGet, "/settings/budget", nil)
	var got map[string]float64
	_ = json.Unmarshal(rec.Body.Bytes(), &got)
	if got["monthlyBudget"] != 500.0 {
		t.Errorf("budget = %v, want 500", got["monthlyBudget"])
	}

	rec = doJSON(t, s, http.MethodPut, "/settings/budget", map[string]any{"monthlyBudget": json.Number("-10")})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("negative budget: status = %d, want 422", rec.Code)
	}

	// Any spelling of zero clears the ceiling.
	for _, zero := range []json.Number{"0", "0.0", "0.00"} {
		doJSON(t, s, http.MethodPut, "/settings/budget", map[string]any{"monthlyBudget": json.Number("500.00")})
		rec = doJSON(t, s, http.MethodPut, "/settings/budget", map[string]any{"monthlyBudget": zero})
		if rec.Code != http.StatusOK {
			t.Fatalf("clear with %q: status = %d, body %s", zero, rec.Code, rec.Body.String())
		}
		rec = doJSON(t, s, http.MethodGet, "/settings/budget", nil)
		var cleared map[string]float64
		_ = json.Unmarshal(rec.Body.Bytes(), &cleared)
		if cleared["monthlyBudget"] != 0 {
			t.Errorf("budget after clearing with %q = %v, want 0", zero, cleared["monthlyBudget"])
		}
	}
}

func TestThemeSettings(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodPut, "/settings/theme", themeBody{Theme: "dark"})
	if rec.Code != http.StatusOK {
		t.Fatalf("put theme: status = %d", rec.Code)
	}
	rec = doJSON(t, s, http.MethodGet, "/settings/theme", nil)
	var got themeBody
	_ = json.Unmarshal(rec.Body.Bytes(), &got)
	if got.Theme != "dark" {
		t.Errorf("theme = %q, want dark", got.Theme)
	}

	rec = doJSON(t, s, http.MethodPut, "/settings/theme", themeBody{Theme: "neon"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("bad theme: status = %d, want 422", rec.Code)
	}
}

func TestDashboard(t *testing.T) {
	s, st := newTestServer(t)
	ctx := context.Background()

	if err := st.SetBudget(ctx, core.Money{Cents: 10000}); err != nil {
		t.Fatalf("set budget: %v", err)
	}
	createTx(t, s, "Groceries", "95.00", "2024-03-05", "Food", "expense")

	rec := doJSON(t, s, http.MethodGet, "/dashboard?month=2024-03", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("dashboard: status = %d", rec.Code)
	}
	var resp dashboardResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Budget.Level != services.BudgetWarning {
		t.Errorf("budget level = %s, want warning", resp.Budget.Level)
	}
	if resp.Count != 1 {
		t.Errorf("count = %d, want 1", resp.Count)
	}

	rec = doJSON(t, s, http.MethodGet, "/dashboard?month=2024-13", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad month: status = %d, want 400", rec.Code)
	}
}

func TestCategoriesEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/categories", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("categories: status = %d", rec.Code)
	}
	var got map[string][]string
	_ = json.Unmarshal(rec.Body.Bytes(), &got)
	cats := got["categories"]
	if len(cats) == 0 || cats[len(cats)-1] != core.CategoryOther {
		t.Errorf("categories = %v, want list ending in %s", cats, core.CategoryOther)
	}
}

func TestViewCacheInvalidatesOnMutation(t *testing.T) {
	s, _ := newTestServer(t)
	createTx(t, s, "Coffee", "3.00", "2024-01-10", "Food", "expense")

	rec := doJSON(t, s, http.MethodGet, "/transactions", nil)
	var before viewResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &before)

	createTx(t, s, "Tea", "2.00", "2024-01-11", "Food", "expense")

	rec = doJSON(t, s, http.MethodGet, "/transactions", nil)
	var after viewResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &after)

	if before.Count != 1 || after.Count != 2 {
		t.Errorf("counts = %d then %d, want 1 then 2", before.Count, after.Count)
	}
}

func TestHealthEndpoints(t *testing.T) {
	s, _ := newTestServer(t)
	for _, target := range []string{"/healthz", "/readyz"} {
		rec := doJSON(t, s, http.MethodGet, target, nil)
		if rec.Code != http.StatusOK {
			t.Errorf("%s: status = %d", target, rec.Code)
		}
	}
}
