package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeExpense TransactionType = "expense"
)

// IsValid reports whether t is one of the two known transaction types.
func (t TransactionType) IsValid() bool {
	return t == TransactionTypeIncome || t == TransactionTypeExpense
}

type Transaction struct {
	ID         int32           `json:"id"`
	UserID     string          `json:"userId"`
	Type       TransactionType `json:"type"`
	Amount     decimal.Decimal `json:"amount"`
	Date       time.Time       `json:"date"`
	Note       string          `json:"note"`
	Source     string          `json:"source"`
	CategoryID int32           `json:"categoryId"`
	ReceiptID  *int32          `json:"receiptId,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// UpdateTransactionData carries the replacement fields for a transaction
// update. Receipt linkage is set at create time only and is not updatable.
type UpdateTransactionData struct {
	Type       TransactionType
	Amount     decimal.Decimal
	Date       time.Time
	Note       string
	Source     string
	CategoryID int32
}

type TransactionRepository interface {
	Create(transaction *Transaction) (*Transaction, error)
	GetByID(userID string, id int32) (*Transaction, error)
	GetAllByUser(userID string) ([]*Transaction, error)
	Update(userID string, id int32, data *UpdateTransactionData) (*Transaction, error)
	Delete(userID string, id int32) error

	// SumExpensesInWindow sums expense amounts for a user and category with
	// dates inside [startDate, endDate], both ends inclusive. Zero when no
	// rows match.
	SumExpensesInWindow(userID string, categoryID int32, startDate, endDate time.Time) (decimal.Decimal, error)

	// UnlinkReceipt clears receipt_id on any transaction referencing the
	// given receipt. A no-op when nothing references it.
	UnlinkReceipt(userID string, receiptID int32) error
}
