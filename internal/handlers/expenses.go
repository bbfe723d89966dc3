package handlers

import (
	"errors"
	"net/http"

	"expense-ledger/internal/auth"
	"expense-ledger/internal/expense"
	"expense-ledger/internal/models"
)

// FormViewModel is the data passed to the add/edit form template.
type FormViewModel struct {
	Page
	Expense       *models.Expense
	IsEdit        bool
	Action        string
	FormattedDate string
	Suggestions   []string
}

func (h *Handlers) renderForm(w http.ResponseWriter, r *http.Request, id auth.Identity, e *models.Expense, flash Flash) {
	vm := FormViewModel{
		Page:        pageFor(id, flash),
		Action:      "/add_expense",
		Suggestions: categorySuggestions(),
	}
	if e != nil {
		vm.Expense = e
		vm.IsEdit = true
		vm.Action = "/edit_expense/" + formatID(e.ID)
		vm.FormattedDate = formattedDate(e)
	}
	h.render(w, r, "expense_form.html", vm)
}

// AddExpenseForm renders an empty expense form.
func (h *Handlers) AddExpenseForm(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	h.renderForm(w, r, id, nil, h.takeFlash(w, r))
}

// AddExpense creates an expense from the submitted form.
func (h *Handlers) AddExpense(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	if err := r.ParseForm(); err != nil {
		h.renderForm(w, r, id, nil, errorFlash("Invalid form submission"))
		return
	}

	_, err := h.expenses.Create(r.Context(), id, formInput(r))
	if err != nil {
		var verr *expense.ValidationError
		if errors.As(err, &verr) {
			h.renderForm(w, r, id, nil, errorFlash(verr.Message))
			return
		}
		h.renderForm(w, r, id, nil, errorFlash(genericErrorMessage))
		return
	}
	h.redirectWithFlash(w, r, "/dashboard", successFlash("Expense added successfully!"))
}

// EditExpenseForm renders the form for one of the user's expenses.
func (h *Handlers) EditExpenseForm(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	expenseID, ok := parseExpenseID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	e, err := h.expenses.Get(r.Context(), id, expenseID)
	switch {
	case err == nil:
		h.renderForm(w, r, id, e, h.takeFlash(w, r))
	case errors.Is(err, expense.ErrNotFound):
		http.NotFound(w, r)
	case errors.Is(err, expense.ErrUnauthorized):
		h.redirectWithFlash(w, r, "/dashboard", errorFlash("Unauthorized access!"))
	default:
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// EditExpense applies the submitted form to one of the user's expenses.
func (h *Handlers) EditExpense(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	expenseID, ok := parseExpenseID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.redirectWithFlash(w, r, "/dashboard", errorFlash("Invalid form submission"))
		return
	}

	stored, err := h.expenses.Update(r.Context(), id, expenseID, formInput(r))
	var verr *expense.ValidationError
	switch {
	case err == nil:
		h.redirectWithFlash(w, r, "/dashboard", successFlash("Expense updated successfully!"))
	case errors.Is(err, expense.ErrNotFound):
		http.NotFound(w, r)
	case errors.Is(err, expense.ErrUnauthorized):
		h.redirectWithFlash(w, r, "/dashboard", errorFlash("Unauthorized access!"))
	case errors.As(err, &verr):
		h.renderForm(w, r, id, &stored, errorFlash(verr.Message))
	case stored.ID != 0:
		h.renderForm(w, r, id, &stored, errorFlash(genericErrorMessage))
	default:
		h.redirectWithFlash(w, r, "/dashboard", errorFlash(genericErrorMessage))
	}
}

// DeleteExpense removes one of the user's expenses.
func (h *Handlers) DeleteExpense(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	expenseID, ok := parseExpenseID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	err := h.expenses.Delete(r.Context(), id, expenseID)
	switch {
	case err == nil:
		h.redirectWithFlash(w, r, "/dashboard", successFlash("Expense deleted successfully!"))
	case errors.Is(err, expense.ErrNotFound):
		http.NotFound(w, r)
	case errors.Is(err, expense.ErrUnauthorized):
		h.redirectWithFlash(w, r, "/dashboard", errorFlash("Unauthorized access!"))
	default:
		h.redirectWithFlash(w, r, "/dashboard", errorFlash(genericErrorMessage))
	}
}
