package postgres

import (
	"context"
	"errors"

	"github.com/finchapp/finch/finch-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CategoryRepository implements domain.CategoryRepository using PostgreSQL
type CategoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository creates a new CategoryRepository
func NewCategoryRepository(pool *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

const categoryColumns = `id, user_id, name, name_lower, type, created_at, updated_at`

// Create inserts a category. The (user_id, name_lower) unique index is the
// arbiter of name conflicts.
func (r *CategoryRepository) Create(category *domain.Category) (*domain.Category, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		INSERT INTO categories (user_id, name, name_lower, type)
		VALUES ($1, $2, $3, $4)
		RETURNING `+categoryColumns,
		category.UserID, category.Name, category.NameLower, category.Type,
	)
	created, err := scanCategory(row)
	if err != nil {
		if isPgUniqueViolation(err) {
			return nil, domain.ErrCategoryAlreadyExists
		}
		return nil, err
	}
	return created, nil
}

// CreateBatch inserts the given categories in one transaction. Used for
// default-category seeding.
func (r *CategoryRepository) CreateBatch(categories []*domain.Category) error {
	ctx := context.Background()
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, c := range categories {
		_, err := tx.Exec(ctx, `
			INSERT INTO categories (user_id, name, name_lower, type)
			VALUES ($1, $2, $3, $4)`,
			c.UserID, c.Name, c.NameLower, c.Type,
		)
		if err != nil {
			if isPgUniqueViolation(err) {
				return domain.ErrCategoryAlreadyExists
			}
			return err
		}
	}
	return tx.Commit(ctx)
}

// GetByID retrieves a category by its ID scoped to a user
func (r *CategoryRepository) GetByID(userID string, id int32) (*domain.Category, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		SELECT `+categoryColumns+`
		FROM categories
		WHERE user_id = $1 AND id = $2`,
		userID, id,
	)
	category, err := scanCategory(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, err
	}
	return category, nil
}

// GetAllByUser retrieves a user's categories sorted by lowercased name,
// optionally filtered by type.
func (r *CategoryRepository) GetAllByUser(userID string, categoryType *domain.CategoryType) ([]*domain.Category, error) {
	ctx := context.Background()
	query := `
		SELECT ` + categoryColumns + `
		FROM categories
		WHERE user_id = $1`
	args := []any{userID}
	if categoryType != nil {
		query += ` AND type = $2`
		args = append(args, *categoryType)
	}
	query += ` ORDER BY name_lower ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []*domain.Category{}
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, category)
	}
	return result, rows.Err()
}

// CountByUser counts a user's categories
func (r *CategoryRepository) CountByUser(userID string) (int64, error) {
	ctx := context.Background()
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM categories WHERE user_id = $1`, userID).Scan(&count)
	return count, err
}

// Update replaces a category's name and type, re-deriving name_lower
func (r *CategoryRepository) Update(userID string, id int32, name, nameLower string, categoryType domain.CategoryType) (*domain.Category, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		UPDATE categories
		SET name = $3, name_lower = $4, type = $5, updated_at = now()
		WHERE user_id = $1 AND id = $2
		RETURNING `+categoryColumns,
		userID, id, name, nameLower, categoryType,
	)
	category, err := scanCategory(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCategoryNotFound
		}
		if isPgUniqueViolation(err) {
			return nil, domain.ErrCategoryAlreadyExists
		}
		return nil, err
	}
	return category, nil
}

// Delete removes a category. Referencing transactions and budgets are left
// untouched (documented dangling-reference behavior).
func (r *CategoryRepository) Delete(userID string, id int32) error {
	ctx := context.Background()
	tag, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCategoryNotFound
	}
	return nil
}

func scanCategory(row pgx.Row) (*domain.Category, error) {
	var c domain.Category
	err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.NameLower, &c.Type, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
