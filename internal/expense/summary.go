package expense

import (
	"sort"

	"expense-ledger/internal/models"
)

// Summary aggregates a user's expenses for the dashboard.
type Summary struct {
	Total      float64
	ByCategory map[string]float64
	counts     map[string]int
}

// CategoryTotal is one row of the per-category breakdown.
type CategoryTotal struct {
	Category   string
	Total      float64
	Count      int
	Percentage float64
}

// Summarize folds expenses into a grand total and a subtotal per category.
func Summarize(expenses []models.Expense) Summary {
	s := Summary{
		ByCategory: make(map[string]float64),
		counts:     make(map[string]int),
	}
	for _, e := range expenses {
		s.Total += e.Amount
		s.ByCategory[e.Category] += e.Amount
		s.counts[e.Category]++
	}
	return s
}

// Categories returns the breakdown ordered by subtotal, largest first.
func (s Summary) Categories() []CategoryTotal {
	out := make([]CategoryTotal, 0, len(s.ByCategory))
	for name, total := range s.ByCategory {
		pct := 0.0
		if s.Total > 0 {
			pct = total / s.Total * 100
		}
		out = append(out, CategoryTotal{
			Category:   name,
			Total:      total,
			Count:      s.counts[name],
			Percentage: pct,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Category < out[j].Category
	})
	return out
}
