package services

import (
	"context"
	"database/sql"
	"errors"

	"spendlog/internal/models"
	"spendlog/internal/money"
)

// ErrNotFound is returned when an expense does not exist or belongs to a
// different owner; the two cases are indistinguishable on purpose.
var ErrNotFound = errors.New("expense not found")

// ExpenseServiceProvider defines the interface for expense services. Every
// method takes the owner id first, so ownership scoping is part of the
// signature rather than handler discipline.
type ExpenseServiceProvider interface {
	Create(ctx context.Context, ownerID int64, date string, amount money.Amount, description, category, paymentMethod string) (int64, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]models.Expense, error)
	GetByIDForOwner(ctx context.Context, ownerID, id int64) (models.Expense, error)
	UpdateByIDForOwner(ctx context.Context, ownerID, id int64, date string, amount money.Amount, description string) error
	DeleteByIDForOwner(ctx context.Context, ownerID, id int64) error
	SumByOwner(ctx context.Context, ownerID int64) (money.Amount, error)
}

// ExpenseService provides owner-scoped persistence for expense records.
type ExpenseService struct {
	db *sql.DB
}

// NewExpenseService creates a new ExpenseService.
func NewExpenseService(db *sql.DB) *ExpenseService {
	return &ExpenseService{db: db}
}

// Create inserts a new expense owned by ownerID and returns its id.
func (s *ExpenseService) Create(ctx context.Context, ownerID int64, date string, amount money.Amount, description, category, paymentMethod string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO expenses (user_id, date, amount, description, category, payment_method) VALUES (?, ?, ?, ?, ?, ?)",
		ownerID, date, amount.Cents(), description, category, paymentMethod)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListByOwner returns all of ownerID's expenses, oldest id first.
func (s *ExpenseService) ListByOwner(ctx context.Context, ownerID int64) ([]models.Expense, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, user_id, date, amount, description, category, payment_method, created_at FROM expenses WHERE user_id = ? ORDER BY id ASC",
		ownerID)
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

// GetByIDForOwner fetches one expense. Both predicates sit in the same
// query, so a row owned by someone else is as absent as a row that never
// existed.
func (s *ExpenseService) GetByIDForOwner(ctx context.Context, ownerID, id int64) (models.Expense, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, user_id, date, amount, description, category, payment_method, created_at FROM expenses WHERE id = ? AND user_id = ?",
		id, ownerID)

	e, err := scanExpense(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Expense{}, ErrNotFound
		}
		return models.Expense{}, err
	}
	return e, nil
}

// UpdateByIDForOwner updates date, amount, and description of one expense.
// Category and payment method stay fixed after creation.
func (s *ExpenseService) UpdateByIDForOwner(ctx context.Context, ownerID, id int64, date string, amount money.Amount, description string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE expenses SET date = ?, amount = ?, description = ? WHERE id = ? AND user_id = ?",
		date, amount.Cents(), description, id, ownerID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// DeleteByIDForOwner removes one expense. Hard delete, no tombstone.
func (s *ExpenseService) DeleteByIDForOwner(ctx context.Context, ownerID, id int64) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM expenses WHERE id = ? AND user_id = ?", id, ownerID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// SumByOwner returns the total of ownerID's expenses, zero when there are
// none.
func (s *ExpenseService) SumByOwner(ctx context.Context, ownerID int64) (money.Amount, error) {
	var cents int64
	row := s.db.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(amount), 0) FROM expenses WHERE user_id = ?", ownerID)
	if err := row.Scan(&cents); err != nil {
		return 0, err
	}
	return money.FromCents(cents), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(r rowScanner) (models.Expense, error) {
	var e models.Expense
	var cents int64
	if err := r.Scan(&e.ID, &e.UserID, &e.Date, &cents, &e.Description, &e.Category, &e.PaymentMethod, &e.CreatedAt); err != nil {
		return models.Expense{}, err
	}
	e.Amount = money.FromCents(cents)
	return e, nil
}

// requireRow maps a zero affected-row count to ErrNotFound, which is how an
// update or delete against someone else's row presents.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
