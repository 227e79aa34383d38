package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DraftTransaction is a proposed transaction extracted from a receipt image.
// It is embedded in the receipt and is not a persisted Transaction; the user
// confirms it through the ordinary transaction-create path, which runs full
// validation including category ownership. CategoryID is always nil here —
// the category is chosen by the user at confirmation time.
type DraftTransaction struct {
	Type       TransactionType `json:"type"`
	Amount     decimal.Decimal `json:"amount"`
	Note       string          `json:"note"`
	Date       *time.Time      `json:"date"`
	Source     string          `json:"source"`
	CategoryID *int32          `json:"categoryId"`
	ReceiptID  *int32          `json:"receiptId"`
}

type Receipt struct {
	ID              int32             `json:"id"`
	UserID          string            `json:"userId"`
	FileKey         *string           `json:"fileKey,omitempty"`
	MerchantName    string            `json:"merchantName"`
	AmountDetected  decimal.Decimal   `json:"amountDetected"`
	Context         string            `json:"context"`
	TransactionDate *time.Time        `json:"transactionDate,omitempty"`
	IsProcessed     bool              `json:"isProcessed"`
	Draft           *DraftTransaction `json:"draftTransaction"`
	CreatedAt       time.Time         `json:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`
}

type ReceiptRepository interface {
	Create(receipt *Receipt) (*Receipt, error)
	GetByID(userID string, id int32) (*Receipt, error)
	GetAllByUser(userID string) ([]*Receipt, error)

	// UpdateDraft replaces the embedded draft. Used to backfill the draft's
	// receiptId once the receipt row exists.
	UpdateDraft(userID string, id int32, draft *DraftTransaction) (*Receipt, error)

	// SetProcessed flips the processed flag. A no-op (no error) when the
	// receipt does not exist; callers treat the flag as best effort.
	SetProcessed(userID string, id int32, processed bool) error

	Delete(userID string, id int32) error

	// DeleteAllByUser removes every receipt the user owns and returns how
	// many rows were deleted.
	DeleteAllByUser(userID string) (int64, error)
}
