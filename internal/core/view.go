package core

import (
	"sort"
	"strings"
)

const (
	SortByDate   SortField = "date"
	SortByAmount SortField = "amount"
	SortByTitle  SortField = "title"

	SortAsc  SortDir = "asc"
	SortDesc SortDir = "desc"
)

type (
	SortField string
	SortDir   string

	// ViewParams selects and orders the visible subset of transactions.
	// Zero values mean "no filter" and the default sort (date descending).
	ViewParams struct {
		Month  string // "01".."12", empty matches all months
		Type   TxType // empty matches all types
		Search string // case-insensitive substring over title, notes, category
		Sort   SortField
		Dir    SortDir
	}

	// CategoryTotal is one pie/bar chart slice.
	CategoryTotal struct {
		Category string
		Amount   Money
	}

	// MonthTotal is one line-chart point, keyed YYYY-MM and split by type.
	MonthTotal struct {
		Month      string
		Expense    Money
		Income     Money
		Investment Money
	}

	// View is the filtered, sorted sequence plus its derived aggregates.
	View struct {
		Transactions []Transaction
		TotalAmount  Money
		ByCategory   []CategoryTotal
		ByMonth      []MonthTotal
		NetBalance   Money
	}
)

// Normalized fills in the default sort field and direction.
func (p ViewParams) Normalized() ViewParams {
	if p.Sort == "" {
		p.Sort = SortByDate
	}
	if p.Dir == "" {
		p.Dir = SortDesc
	}
	return p
}

func (f SortField) IsValid() bool {
	switch f {
	case SortByDate, SortByAmount, SortByTitle:
		return true
	default:
		return false
	}
}

func (d SortDir) IsValid() bool {
	switch d {
	case SortAsc, SortDesc:
		return true
	default:
		return false
	}
}

// ComputeView runs the fixed pipeline: month filter, type filter, text
// search, stable sort, aggregation. It never mutates records and returns
// identical output for identical input.
//
// Records whose date is missing or unparsable still appear in the raw view
// (unless a month filter excludes everything undated) but are skipped by the
// month-bucketed aggregates.
func ComputeView(records []Transaction, params ViewParams) View {
	params = params.Normalized()

	visible := make([]Transaction, 0, len(records))
	for _, t := range records {
		if params.Month != "" {
			if t.Date.IsZero() || t.Date.Format("01") != params.Month {
				continue
			}
		}
		if params.Type != "" && t.Type != params.Type {
			continue
		}
		if !matchesSearch(t, params.Search) {
			continue
		}
		visible = append(visible, t)
	}

	// SliceStable keeps insertion order for equal keys, which makes the
	// rendered order reproducible.
	sort.SliceStable(visible, func(i, j int) bool {
		less := lessByField(visible[i], visible[j], params.Sort)
		if params.Dir == SortDesc {
			greater := lessByField(visible[j], visible[i], params.Sort)
			return greater
		}
		return less
	})

	view := View{Transactions: visible}
	view.aggregate()
	return view
}

func matchesSearch(t Transaction, search string) bool {
	search = strings.ToLower(strings.TrimSpace(search))
	if search == "" {
		return true
	}
	for _, field := range []string{t.Title, t.Notes, t.Category} {
		if strings.Contains(strings.ToLower(field), search) {
			return true
		}
	}
	return false
}

func lessByField(a, b Transaction, field SortField) bool {
	switch field {
	case SortByAmount:
		return a.Amount.Cents < b.Amount.Cents
	case SortByTitle:
		return strings.ToLower(a.Title) < strings.ToLower(b.Title)
	default: // SortByDate; zero dates sort first
		return a.Date.Before(b.Date.Time)
	}
}

func (v *View) aggregate() {
	categoryIndex := make(map[string]int)
	monthIndex := make(map[string]int)

	for _, t := range v.Transactions {
		v.TotalAmount.Cents += t.Amount.Cents

		idx, ok := categoryIndex[t.Category]
		if !ok {
			idx = len(v.ByCategory)
			categoryIndex[t.Category] = idx
			v.ByCategory = append(v.ByCategory, CategoryTotal{Category: t.Category})
		}
		v.ByCategory[idx].Amount.Cents += t.Amount.Cents

		switch t.Type {
		case TypeIncome:
			v.NetBalance.Cents += t.Amount.Cents
		default: // expenses and investments both reduce the balance
			v.NetBalance.Cents -= t.Amount.Cents
		}

		key := t.Date.MonthKey()
		if key == "" {
			continue
		}
		midx, ok := monthIndex[key]
		if !ok {
			midx = len(v.ByMonth)
			monthIndex[key] = midx
			v.ByMonth = append(v.ByMonth, MonthTotal{Month: key})
		}
		switch t.Type {
		case TypeIncome:
			v.ByMonth[midx].Income.Cents += t.Amount.Cents
		case TypeInvestment:
			v.ByMonth[midx].Investment.Cents += t.Amount.Cents
		default:
			v.ByMonth[midx].Expense.Cents += t.Amount.Cents
		}
	}

	// Chart rendering expects months ascending by key.
	sort.Slice(v.ByMonth, func(i, j int) bool {
		return v.ByMonth[i].Month < v.ByMonth[j].Month
	})
}
