package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/finchapp/finch/finch-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// BudgetRepository implements domain.BudgetRepository using PostgreSQL
type BudgetRepository struct {
	pool *pgxpool.Pool
}

// NewBudgetRepository creates a new BudgetRepository
func NewBudgetRepository(pool *pgxpool.Pool) *BudgetRepository {
	return &BudgetRepository{pool: pool}
}

const budgetColumns = `id, user_id, category_id, name, description, limit_amount::text, start_date, end_date, is_active, created_at, updated_at`

// Create inserts a budget. Only raw fields are stored; spending figures are
// derived at read time.
func (r *BudgetRepository) Create(budget *domain.Budget) (*domain.Budget, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		INSERT INTO budgets (user_id, category_id, name, description, limit_amount, start_date, end_date, is_active)
		VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, $8)
		RETURNING `+budgetColumns,
		budget.UserID, budget.CategoryID, budget.Name, budget.Description,
		budget.LimitAmount.String(), budget.StartDate, budget.EndDate, budget.IsActive,
	)
	created, err := scanBudget(row)
	if err != nil {
		if isPgUniqueViolation(err) {
			return nil, domain.ErrBudgetWindowExists
		}
		return nil, err
	}
	return created, nil
}

// GetByID retrieves a budget by its ID scoped to a user
func (r *BudgetRepository) GetByID(userID string, id int32) (*domain.Budget, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		SELECT `+budgetColumns+`
		FROM budgets
		WHERE user_id = $1 AND id = $2`,
		userID, id,
	)
	budget, err := scanBudget(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBudgetNotFound
		}
		return nil, err
	}
	return budget, nil
}

// GetAllByUser retrieves a user's budgets, newest window first, optionally
// filtered on the active flag.
func (r *BudgetRepository) GetAllByUser(userID string, isActive *bool) ([]*domain.Budget, error) {
	ctx := context.Background()
	query := `
		SELECT ` + budgetColumns + `
		FROM budgets
		WHERE user_id = $1`
	args := []any{userID}
	if isActive != nil {
		query += ` AND is_active = $2`
		args = append(args, *isActive)
	}
	query += ` ORDER BY start_date DESC, created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []*domain.Budget{}
	for rows.Next() {
		budget, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, budget)
	}
	return result, rows.Err()
}

// Update replaces a budget's raw fields
func (r *BudgetRepository) Update(userID string, id int32, data *domain.UpdateBudgetData) (*domain.Budget, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		UPDATE budgets
		SET category_id = $3, name = $4, description = $5, limit_amount = $6::numeric,
		    start_date = $7, end_date = $8, is_active = $9, updated_at = now()
		WHERE user_id = $1 AND id = $2
		RETURNING `+budgetColumns,
		userID, id, data.CategoryID, data.Name, data.Description,
		data.LimitAmount.String(), data.StartDate, data.EndDate, data.IsActive,
	)
	budget, err := scanBudget(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBudgetNotFound
		}
		if isPgUniqueViolation(err) {
			return nil, domain.ErrBudgetWindowExists
		}
		return nil, err
	}
	return budget, nil
}

// Delete removes a budget. Budgets own no transactions, so nothing cascades.
func (r *BudgetRepository) Delete(userID string, id int32) error {
	ctx := context.Background()
	tag, err := r.pool.Exec(ctx, `DELETE FROM budgets WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrBudgetNotFound
	}
	return nil
}

// ExistsWindow reports whether another active budget covers the identical
// category and window.
func (r *BudgetRepository) ExistsWindow(userID string, categoryID int32, startDate, endDate time.Time, excludeID int32) (bool, error) {
	ctx := context.Background()
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM budgets
			WHERE user_id = $1 AND category_id = $2
			  AND start_date = $3 AND end_date = $4
			  AND is_active AND id <> $5
		)`,
		userID, categoryID, startDate, endDate, excludeID,
	).Scan(&exists)
	return exists, err
}

func scanBudget(row pgx.Row) (*domain.Budget, error) {
	var (
		b     domain.Budget
		limit string
	)
	err := row.Scan(&b.ID, &b.UserID, &b.CategoryID, &b.Name, &b.Description, &limit, &b.StartDate, &b.EndDate, &b.IsActive, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	b.LimitAmount, err = parseNumeric(limit)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
