package service

import (
	"strings"
	"time"

	"github.com/finchapp/finch/finch-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// TransactionService handles transaction-related business logic
type TransactionService struct {
	transactionRepo domain.TransactionRepository
	categoryRepo    domain.CategoryRepository
	receiptRepo     domain.ReceiptRepository
}

// NewTransactionService creates a new TransactionService
func NewTransactionService(transactionRepo domain.TransactionRepository, categoryRepo domain.CategoryRepository, receiptRepo domain.ReceiptRepository) *TransactionService {
	return &TransactionService{
		transactionRepo: transactionRepo,
		categoryRepo:    categoryRepo,
		receiptRepo:     receiptRepo,
	}
}

// CreateTransactionInput holds the input for creating a transaction
type CreateTransactionInput struct {
	Type       domain.TransactionType
	Amount     decimal.Decimal
	Date       *time.Time
	Note       string
	Source     string
	CategoryID int32
	ReceiptID  *int32
}

// CreateTransaction creates a new transaction with validation. When the
// transaction confirms a receipt draft, the receipt is marked processed.
func (s *TransactionService) CreateTransaction(userID string, input CreateTransactionInput) (*domain.Transaction, error) {
	// Validate transaction type
	if !input.Type.IsValid() {
		return nil, domain.ErrInvalidTransactionType
	}

	// Validate amount (must be positive)
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidAmount
	}

	// Validate category is required and belongs to the user
	if input.CategoryID == 0 {
		return nil, domain.ErrCategoryIDRequired
	}
	if _, err := s.categoryRepo.GetByID(userID, input.CategoryID); err != nil {
		return nil, domain.ErrCategoryNotOwned
	}

	// Trim and validate note
	note := strings.TrimSpace(input.Note)
	if len(note) > domain.MaxNoteLength {
		return nil, domain.ErrNoteTooLong
	}

	// Default date to now if not provided
	date := time.Now().UTC()
	if input.Date != nil {
		date = *input.Date
	}

	transaction := &domain.Transaction{
		UserID:     userID,
		Type:       input.Type,
		Amount:     input.Amount,
		Date:       date,
		Note:       note,
		Source:     strings.TrimSpace(input.Source),
		CategoryID: input.CategoryID,
		ReceiptID:  input.ReceiptID,
	}

	created, err := s.transactionRepo.Create(transaction)
	if err != nil {
		return nil, err
	}

	// Confirming a draft marks its receipt processed. Best effort: a missing
	// receipt does not fail the create.
	if created.ReceiptID != nil {
		if err := s.receiptRepo.SetProcessed(userID, *created.ReceiptID, true); err != nil {
			return nil, err
		}
	}

	return created, nil
}

// GetTransactions retrieves all of the user's transactions, newest first
func (s *TransactionService) GetTransactions(userID string) ([]*domain.Transaction, error) {
	return s.transactionRepo.GetAllByUser(userID)
}

// GetTransactionByID retrieves a transaction by ID scoped to the user
func (s *TransactionService) GetTransactionByID(userID string, id int32) (*domain.Transaction, error) {
	return s.transactionRepo.GetByID(userID, id)
}

// UpdateTransactionInput holds the input for updating a transaction. Receipt
// linkage is not part of the update surface.
type UpdateTransactionInput struct {
	Type       domain.TransactionType
	Amount     decimal.Decimal
	Date       time.Time
	Note       string
	Source     string
	CategoryID int32
}

// UpdateTransaction updates an existing transaction with validation
func (s *TransactionService) UpdateTransaction(userID string, id int32, input UpdateTransactionInput) (*domain.Transaction, error) {
	// Validate transaction type
	if !input.Type.IsValid() {
		return nil, domain.ErrInvalidTransactionType
	}

	// Validate amount (must be positive)
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidAmount
	}

	// Validate category is required and belongs to the user
	if input.CategoryID == 0 {
		return nil, domain.ErrCategoryIDRequired
	}
	if _, err := s.categoryRepo.GetByID(userID, input.CategoryID); err != nil {
		return nil, domain.ErrCategoryNotOwned
	}

	// Trim and validate note
	note := strings.TrimSpace(input.Note)
	if len(note) > domain.MaxNoteLength {
		return nil, domain.ErrNoteTooLong
	}

	return s.transactionRepo.Update(userID, id, &domain.UpdateTransactionData{
		Type:       input.Type,
		Amount:     input.Amount,
		Date:       input.Date,
		Note:       note,
		Source:     strings.TrimSpace(input.Source),
		CategoryID: input.CategoryID,
	})
}

// DeleteTransaction deletes a transaction. When the transaction confirmed a
// receipt draft, the receipt reverts to unprocessed so it can be confirmed
// again.
func (s *TransactionService) DeleteTransaction(userID string, id int32) error {
	tx, err := s.transactionRepo.GetByID(userID, id)
	if err != nil {
		return err
	}

	if err := s.transactionRepo.Delete(userID, id); err != nil {
		return err
	}

	if tx.ReceiptID != nil {
		if err := s.receiptRepo.SetProcessed(userID, *tx.ReceiptID, false); err != nil {
			return err
		}
	}

	return nil
}
