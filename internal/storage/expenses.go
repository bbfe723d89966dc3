package storage

import (
	"context"
	"fmt"
	"time"

	"expense-ledger/internal/models"
)

const expenseColumns = "id, amount, description, category, date, user_id"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (models.Expense, error) {
	var (
		e    models.Expense
		date string
	)
	if err := row.Scan(&e.ID, &e.Amount, &e.Description, &e.Category, &date, &e.UserID); err != nil {
		return models.Expense{}, err
	}
	d, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return models.Expense{}, fmt.Errorf("expense %d has malformed date %q: %w", e.ID, date, err)
	}
	e.Date = d
	return e, nil
}

// FindExpenseByID retrieves a single expense by ID, regardless of owner.
func (q *Queries) FindExpenseByID(ctx context.Context, id int64) (*models.Expense, error) {
	row := q.q.QueryRowContext(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE id = ?",
		id,
	)
	e, err := scanExpense(row)
	if err != nil {
		return nil, notFound(err)
	}
	return &e, nil
}

// ListExpensesForUser retrieves the expenses owned by userID, newest first.
func (q *Queries) ListExpensesForUser(ctx context.Context, userID int64) ([]models.Expense, error) {
	rows, err := q.q.QueryContext(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE user_id = ? ORDER BY date DESC, id DESC",
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	expenses := []models.Expense{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

// InsertExpense inserts e and sets its ID.
func (q *Queries) InsertExpense(ctx context.Context, e *models.Expense) error {
	res, err := q.q.ExecContext(ctx,
		"INSERT INTO expenses (amount, description, category, date, user_id) VALUES (?, ?, ?, ?, ?)",
		e.Amount, e.Description, e.Category, e.Date.Format(models.DateLayout), e.UserID,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = id
	return nil
}

// UpdateExpense overwrites the editable fields of an existing expense.
// The owner is never rewritten.
func (q *Queries) UpdateExpense(ctx context.Context, e models.Expense) error {
	res, err := q.q.ExecContext(ctx,
		"UPDATE expenses SET amount = ?, description = ?, category = ?, date = ? WHERE id = ?",
		e.Amount, e.Description, e.Category, e.Date.Format(models.DateLayout), e.ID,
	)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// DeleteExpense removes the expense with the given ID.
func (q *Queries) DeleteExpense(ctx context.Context, id int64) error {
	res, err := q.q.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}
