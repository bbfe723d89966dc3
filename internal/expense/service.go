// Package expense is the single gate every expense mutation passes through.
// It resolves the expense, checks that the actor owns it, validates the
// submitted fields and commits the change atomically.
package expense

import (
	"context"
	"errors"
	"fmt"

	"expense-ledger/internal/auth"
	"expense-ledger/internal/models"
	"expense-ledger/internal/storage"

	"github.com/sirupsen/logrus"
)

var (
	// ErrUnauthenticated is returned when an anonymous actor attempts a mutation.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrUnauthorized is returned when the actor does not own the expense.
	ErrUnauthorized = errors.New("unauthorized access")
	// ErrNotFound is returned when the expense does not exist.
	ErrNotFound = errors.New("expense not found")
	// ErrPersistence is returned when the store failed and the change was rolled back.
	ErrPersistence = errors.New("an error occurred")
)

// Authorize allows the action only when actor owns e.
func Authorize(e models.Expense, actor auth.Identity) error {
	if !actor.Authenticated() || !e.OwnedBy(actor.UserID) {
		return ErrUnauthorized
	}
	return nil
}

// Service mediates every read and write of expenses.
type Service struct {
	db  *storage.DB
	log logrus.FieldLogger
}

// NewService creates an expense service backed by db.
func NewService(db *storage.DB, log logrus.FieldLogger) *Service {
	return &Service{db: db, log: log.WithField("component", "expense")}
}

// List returns the actor's expenses, newest first.
func (s *Service) List(ctx context.Context, actor auth.Identity) ([]models.Expense, error) {
	if !actor.Authenticated() {
		return nil, ErrUnauthenticated
	}
	expenses, err := s.db.ListExpensesForUser(ctx, actor.UserID)
	if err != nil {
		s.log.WithError(err).WithField("user_id", actor.UserID).Error("list expenses failed")
		return nil, fmt.Errorf("%w: list expenses: %w", ErrPersistence, err)
	}
	return expenses, nil
}

// Get returns expense id if actor owns it.
func (s *Service) Get(ctx context.Context, actor auth.Identity, id int64) (*models.Expense, error) {
	if !actor.Authenticated() {
		return nil, ErrUnauthenticated
	}
	e, err := s.locate(ctx, s.db.Queries, actor, id)
	if err != nil && !isGateError(err) {
		return nil, fmt.Errorf("%w: find expense: %w", ErrPersistence, err)
	}
	return e, err
}

// Create validates in and stores it as a new expense owned by actor.
func (s *Service) Create(ctx context.Context, actor auth.Identity, in Input) (models.Expense, error) {
	if !actor.Authenticated() {
		return models.Expense{}, ErrUnauthenticated
	}
	valid, err := ValidateFields(in)
	if err != nil {
		return models.Expense{}, err
	}

	created := valid.applyTo(models.Expense{UserID: actor.UserID})
	err = s.commit(ctx, "create", actor, 0, func(q *storage.Queries) error {
		return q.InsertExpense(ctx, &created)
	})
	if err != nil {
		return models.Expense{}, err
	}
	return created, nil
}

// Update replaces the fields of expense id with in. When validation or the
// commit fails, the expense is returned as it was stored before the attempt
// alongside the error.
func (s *Service) Update(ctx context.Context, actor auth.Identity, id int64, in Input) (models.Expense, error) {
	if !actor.Authenticated() {
		return models.Expense{}, ErrUnauthenticated
	}

	var before, updated models.Expense
	err := s.commit(ctx, "update", actor, id, func(q *storage.Queries) error {
		current, err := s.locate(ctx, q, actor, id)
		if err != nil {
			return err
		}
		before = *current

		valid, err := ValidateFields(in)
		if err != nil {
			return err
		}

		updated = valid.applyTo(*current)
		return q.UpdateExpense(ctx, updated)
	})
	if err != nil {
		return before, err
	}
	return updated, nil
}

// Delete removes expense id if actor owns it.
func (s *Service) Delete(ctx context.Context, actor auth.Identity, id int64) error {
	if !actor.Authenticated() {
		return ErrUnauthenticated
	}
	return s.commit(ctx, "delete", actor, id, func(q *storage.Queries) error {
		if _, err := s.locate(ctx, q, actor, id); err != nil {
			return err
		}
		return q.DeleteExpense(ctx, id)
	})
}

// locate finds expense id and authorizes actor on it. A missing expense is
// reported before ownership is considered.
func (s *Service) locate(ctx context.Context, q *storage.Queries, actor auth.Identity, id int64) (*models.Expense, error) {
	e, err := q.FindExpenseByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := Authorize(*e, actor); err != nil {
		s.log.WithFields(logrus.Fields{
			"user_id":    actor.UserID,
			"expense_id": id,
		}).Info("expense access denied")
		return nil, err
	}
	return e, nil
}

// commit runs fn in one transaction. Gate failures pass through unchanged;
// any other failure is a persistence fault reported as ErrPersistence.
// Either way nothing fn wrote survives.
func (s *Service) commit(ctx context.Context, op string, actor auth.Identity, id int64, fn func(*storage.Queries) error) error {
	err := s.db.InTx(ctx, fn)
	if err == nil {
		return nil
	}
	if isGateError(err) {
		return err
	}

	s.log.WithError(err).WithFields(logrus.Fields{
		"op":         op,
		"user_id":    actor.UserID,
		"expense_id": id,
	}).Error("expense mutation rolled back")
	return fmt.Errorf("%w: %s expense: %w", ErrPersistence, op, err)
}

func isGateError(err error) bool {
	var ve *ValidationError
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrUnauthenticated) ||
		errors.As(err, &ve)
}
