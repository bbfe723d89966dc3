package handlers

import (
	"net/http"
	"strings"
	"time"

	"expense-ledger/internal/auth"
	"expense-ledger/internal/expense"
	"expense-ledger/internal/models"
)

// CategoryStyle defines the visual style for a category.
type CategoryStyle struct {
	Icon  string
	Color string
}

// suggestedCategories are offered in the expense form; any other text is accepted.
var suggestedCategories = []struct {
	Name  string
	Style CategoryStyle
}{
	{"Food", CategoryStyle{"🍽️", "#60a5fa"}},
	{"Transport", CategoryStyle{"🚌", "#a78bfa"}},
	{"Entertainment", CategoryStyle{"🎮", "#f472b6"}},
	{"Utilities", CategoryStyle{"💡", "#fbbf24"}},
	{"Housing", CategoryStyle{"🏠", "#818cf8"}},
	{"Gifts", CategoryStyle{"🎁", "#fb7185"}},
}

var defaultCategoryStyle = CategoryStyle{Icon: "📦", Color: "#94a3b8"}

func categoryStyle(category string) CategoryStyle {
	for _, c := range suggestedCategories {
		if strings.EqualFold(c.Name, category) {
			return c.Style
		}
	}
	return defaultCategoryStyle
}

func categorySuggestions() []string {
	names := make([]string, 0, len(suggestedCategories))
	for _, c := range suggestedCategories {
		names = append(names, c.Name)
	}
	return names
}

// ExpenseItem represents an expense in the dashboard list.
type ExpenseItem struct {
	models.Expense
	FormattedDate string
	CategoryStyle CategoryStyle
}

// ExpenseGroup groups the expenses of one day.
type ExpenseGroup struct {
	Title string
	Date  string
	Total float64
	Items []ExpenseItem
}

// CategoryItem is one row of the per-category breakdown.
type CategoryItem struct {
	expense.CategoryTotal
	CategoryStyle CategoryStyle
}

// DashboardViewModel is the data passed to the dashboard template.
type DashboardViewModel struct {
	Page
	Total      float64
	Count      int
	Categories []CategoryItem
	Groups     []ExpenseGroup
}

// Dashboard lists the user's expenses with the total and category breakdown.
func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	expenses, err := h.expenses.List(r.Context(), id)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	summary := expense.Summarize(expenses)
	breakdown := summary.Categories()
	categories := make([]CategoryItem, 0, len(breakdown))
	for _, ct := range breakdown {
		categories = append(categories, CategoryItem{CategoryTotal: ct, CategoryStyle: categoryStyle(ct.Category)})
	}

	h.render(w, r, "dashboard.html", DashboardViewModel{
		Page:       pageFor(id, h.takeFlash(w, r)),
		Total:      summary.Total,
		Count:      len(expenses),
		Categories: categories,
		Groups:     groupByDate(expenses, time.Now()),
	})
}

// groupByDate splits expenses, already ordered newest first, into one
// group per day while keeping that order.
func groupByDate(expenses []models.Expense, now time.Time) []ExpenseGroup {
	groups := make([]ExpenseGroup, 0)
	for _, e := range expenses {
		date := e.Date.Format(models.DateLayout)
		if len(groups) == 0 || groups[len(groups)-1].Date != date {
			groups = append(groups, ExpenseGroup{Date: date, Title: groupTitle(e.Date, now)})
		}
		g := &groups[len(groups)-1]
		g.Total += e.Amount
		g.Items = append(g.Items, ExpenseItem{
			Expense:       e,
			FormattedDate: date,
			CategoryStyle: categoryStyle(e.Category),
		})
	}
	return groups
}

func groupTitle(date, now time.Time) string {
	switch date.Format(models.DateLayout) {
	case now.Format(models.DateLayout):
		return "TODAY"
	case now.AddDate(0, 0, -1).Format(models.DateLayout):
		return "YESTERDAY"
	}
	return strings.ToUpper(date.Format("Mon, 02 Jan '06"))
}
