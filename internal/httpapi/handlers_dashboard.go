package httpapi

import (
	"net/http"
	"regexp"
	"strings"
	"time"

	"findash/internal/core"
	"findash/internal/services"
)

var monthKeyRe = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

type dashboardResponse struct {
	Budget     services.BudgetStatus `json:"budget"`
	ByCategory []categoryTotalDTO    `json:"byCategory"`
	ByMonth    []monthTotalDTO       `json:"byMonth"`
	NetBalance float64               `json:"netBalance"`
	Theme      string                `json:"theme"`
	Count      int                   `json:"count"`
}

// handleDashboard returns the chart aggregates over the whole collection
// plus the budget grade for one month (current month by default).
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	month := strings.TrimSpace(r.URL.Query().Get("month"))
	if month == "" {
		month = time.Now().UTC().Format("2006-01")
	} else if !monthKeyRe.MatchString(month) {
		writeBadRequest(w, "month must be YYYY-MM")
		return
	}

	view := s.cachedView(core.ViewParams{})
	resp := dashboardResponse{
		Budget:     s.budget.EvaluateMonth(month),
		NetBalance: view.NetBalance.Units(),
		Theme:      s.store.Theme(),
		Count:      len(view.Transactions),
	}
	for _, c := range view.ByCategory {
		resp.ByCategory = append(resp.ByCategory, categoryTotalDTO{Category: c.Category, Amount: c.Amount.Units()})
	}
	for _, m := range view.ByMonth {
		resp.ByMonth = append(resp.ByMonth, monthTotalDTO{
			Month:      m.Month,
			Expense:    m.Expense.Units(),
			Income:     m.Income.Units(),
			Investment: m.Investment.Units(),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCategories(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"categories": core.Categories()})
}
