package httpapi

import (
	"encoding/json"
	"net/http"

	"findash/internal/core"
)

type budgetBody struct {
	MonthlyBudget json.Number `json:"monthlyBudget"`
}

type themeBody struct {
	Theme string `json:"theme"`
}

func (s *Server) handleGetBudget(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]float64{"monthlyBudget": s.store.Budget().Units()})
}

func (s *Server) handlePutBudget(w http.ResponseWriter, r *http.Request) {
	var body budgetBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	// A zero amount clears the ceiling; ParseAmountToCents rejects
	// non-positive values, so zero in any spelling is handled here.
	var budget core.Money
	if v := body.MonthlyBudget.String(); v != "" {
		if f, ferr := body.MonthlyBudget.Float64(); ferr != nil || f != 0 {
			cents, err := core.ParseAmountToCents(v)
			if err != nil {
				writeError(w, r, err)
				return
			}
			budget = core.Money{Cents: cents}
		}
	}

	if err := s.store.SetBudget(r.Context(), budget); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"monthlyBudget": budget.Units()})
}

func (s *Server) handleGetTheme(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, themeBody{Theme: s.store.Theme()})
}

func (s *Server) handlePutTheme(w http.ResponseWriter, r *http.Request) {
	var body themeBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if err := s.store.SetTheme(r.Context(), body.Theme); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, themeBody{Theme: body.Theme})
}
