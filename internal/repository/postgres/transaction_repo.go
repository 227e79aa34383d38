package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/finchapp/finch/finch-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// TransactionRepository implements domain.TransactionRepository using PostgreSQL
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new TransactionRepository
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

const transactionColumns = `id, user_id, type, amount::text, date, note, source, category_id, receipt_id, created_at, updated_at`

// Create inserts a transaction
func (r *TransactionRepository) Create(transaction *domain.Transaction) (*domain.Transaction, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		INSERT INTO transactions (user_id, type, amount, date, note, source, category_id, receipt_id)
		VALUES ($1, $2, $3::numeric, $4, $5, $6, $7, $8)
		RETURNING `+transactionColumns,
		transaction.UserID, transaction.Type, transaction.Amount.String(), transaction.Date,
		transaction.Note, transaction.Source, transaction.CategoryID, transaction.ReceiptID,
	)
	return scanTransaction(row)
}

// GetByID retrieves a transaction by its ID scoped to a user
func (r *TransactionRepository) GetByID(userID string, id int32) (*domain.Transaction, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE user_id = $1 AND id = $2`,
		userID, id,
	)
	tx, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}
	return tx, nil
}

// GetAllByUser retrieves all of a user's transactions, newest date first,
// ties broken by creation time.
func (r *TransactionRepository) GetAllByUser(userID string) ([]*domain.Transaction, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE user_id = $1
		ORDER BY date DESC, created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []*domain.Transaction{}
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, tx)
	}
	return result, rows.Err()
}

// Update replaces a transaction's mutable fields. Receipt linkage is not
// part of the update surface.
func (r *TransactionRepository) Update(userID string, id int32, data *domain.UpdateTransactionData) (*domain.Transaction, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		UPDATE transactions
		SET type = $3, amount = $4::numeric, date = $5, note = $6, source = $7, category_id = $8, updated_at = now()
		WHERE user_id = $1 AND id = $2
		RETURNING `+transactionColumns,
		userID, id, data.Type, data.Amount.String(), data.Date, data.Note, data.Source, data.CategoryID,
	)
	tx, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}
	return tx, nil
}

// Delete removes a transaction
func (r *TransactionRepository) Delete(userID string, id int32) error {
	ctx := context.Background()
	tag, err := r.pool.Exec(ctx, `DELETE FROM transactions WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTransactionNotFound
	}
	return nil
}

// SumExpensesInWindow sums expense amounts for a category within an
// inclusive date window. COALESCE keeps the empty case at zero.
func (r *TransactionRepository) SumExpensesInWindow(userID string, categoryID int32, startDate, endDate time.Time) (decimal.Decimal, error) {
	ctx := context.Background()
	var total string
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0)::text
		FROM transactions
		WHERE user_id = $1 AND category_id = $2 AND type = 'expense'
		  AND date >= $3 AND date <= $4`,
		userID, categoryID, startDate, endDate,
	).Scan(&total)
	if err != nil {
		return decimal.Zero, err
	}
	return parseNumeric(total)
}

// UnlinkReceipt clears receipt_id on any transaction referencing the receipt
func (r *TransactionRepository) UnlinkReceipt(userID string, receiptID int32) error {
	ctx := context.Background()
	_, err := r.pool.Exec(ctx, `
		UPDATE transactions
		SET receipt_id = NULL, updated_at = now()
		WHERE user_id = $1 AND receipt_id = $2`,
		userID, receiptID,
	)
	return err
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var (
		t      domain.Transaction
		amount string
	)
	err := row.Scan(&t.ID, &t.UserID, &t.Type, &amount, &t.Date, &t.Note, &t.Source, &t.CategoryID, &t.ReceiptID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	t.Amount, err = parseNumeric(amount)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
