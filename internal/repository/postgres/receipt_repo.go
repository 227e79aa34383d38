package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/finchapp/finch/finch-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ReceiptRepository implements domain.ReceiptRepository using PostgreSQL.
// The embedded draft transaction is stored as jsonb.
type ReceiptRepository struct {
	pool *pgxpool.Pool
}

// NewReceiptRepository creates a new ReceiptRepository
func NewReceiptRepository(pool *pgxpool.Pool) *ReceiptRepository {
	return &ReceiptRepository{pool: pool}
}

const receiptColumns = `id, user_id, file_key, merchant_name, amount_detected::text, context, transaction_date, is_processed, draft_transaction, created_at, updated_at`

// Create inserts a receipt with its draft
func (r *ReceiptRepository) Create(receipt *domain.Receipt) (*domain.Receipt, error) {
	ctx := context.Background()
	draft, err := marshalDraft(receipt.Draft)
	if err != nil {
		return nil, err
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO receipts (user_id, file_key, merchant_name, amount_detected, context, transaction_date, is_processed, draft_transaction)
		VALUES ($1, $2, $3, $4::numeric, $5, $6, $7, $8::jsonb)
		RETURNING `+receiptColumns,
		receipt.UserID, receipt.FileKey, receipt.MerchantName, receipt.AmountDetected.String(),
		receipt.Context, receipt.TransactionDate, receipt.IsProcessed, draft,
	)
	return scanReceipt(row)
}

// GetByID retrieves a receipt by its ID scoped to a user
func (r *ReceiptRepository) GetByID(userID string, id int32) (*domain.Receipt, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		SELECT `+receiptColumns+`
		FROM receipts
		WHERE user_id = $1 AND id = $2`,
		userID, id,
	)
	receipt, err := scanReceipt(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrReceiptNotFound
		}
		return nil, err
	}
	return receipt, nil
}

// GetAllByUser retrieves all of a user's receipts, most recent first
func (r *ReceiptRepository) GetAllByUser(userID string) ([]*domain.Receipt, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx, `
		SELECT `+receiptColumns+`
		FROM receipts
		WHERE user_id = $1
		ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []*domain.Receipt{}
	for rows.Next() {
		receipt, err := scanReceipt(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, receipt)
	}
	return result, rows.Err()
}

// UpdateDraft replaces the embedded draft transaction
func (r *ReceiptRepository) UpdateDraft(userID string, id int32, draft *domain.DraftTransaction) (*domain.Receipt, error) {
	ctx := context.Background()
	payload, err := marshalDraft(draft)
	if err != nil {
		return nil, err
	}
	row := r.pool.QueryRow(ctx, `
		UPDATE receipts
		SET draft_transaction = $3::jsonb, updated_at = now()
		WHERE user_id = $1 AND id = $2
		RETURNING `+receiptColumns,
		userID, id, payload,
	)
	receipt, err := scanReceipt(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrReceiptNotFound
		}
		return nil, err
	}
	return receipt, nil
}

// SetProcessed flips the processed flag. Missing receipts are ignored.
func (r *ReceiptRepository) SetProcessed(userID string, id int32, processed bool) error {
	ctx := context.Background()
	_, err := r.pool.Exec(ctx, `
		UPDATE receipts
		SET is_processed = $3, updated_at = now()
		WHERE user_id = $1 AND id = $2`,
		userID, id, processed,
	)
	return err
}

// Delete removes a receipt
func (r *ReceiptRepository) Delete(userID string, id int32) error {
	ctx := context.Background()
	tag, err := r.pool.Exec(ctx, `DELETE FROM receipts WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrReceiptNotFound
	}
	return nil
}

// DeleteAllByUser removes every receipt the user owns
func (r *ReceiptRepository) DeleteAllByUser(userID string) (int64, error) {
	ctx := context.Background()
	tag, err := r.pool.Exec(ctx, `DELETE FROM receipts WHERE user_id = $1`, userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func marshalDraft(draft *domain.DraftTransaction) ([]byte, error) {
	if draft == nil {
		return nil, nil
	}
	return json.Marshal(draft)
}

func scanReceipt(row pgx.Row) (*domain.Receipt, error) {
	var (
		rec    domain.Receipt
		amount string
		draft  []byte
	)
	err := row.Scan(&rec.ID, &rec.UserID, &rec.FileKey, &rec.MerchantName, &amount, &rec.Context, &rec.TransactionDate, &rec.IsProcessed, &draft, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	rec.AmountDetected, err = parseNumeric(amount)
	if err != nil {
		return nil, err
	}
	if len(draft) > 0 {
		var d domain.DraftTransaction
		if err := json.Unmarshal(draft, &d); err != nil {
			return nil, err
		}
		rec.Draft = &d
	}
	return &rec, nil
}
