package domain

import "errors"

// Domain errors
var (
	ErrNotFound      = errors.New("resource not found")
	ErrAlreadyExists = errors.New("resource already exists")
	ErrInvalidInput  = errors.New("invalid input")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrInternalError = errors.New("internal error")

	ErrCategoryNotFound      = errors.New("category not found")
	ErrCategoryAlreadyExists = errors.New("category already exists")
	ErrCategoryNotOwned      = errors.New("category not found or does not belong to user")
	ErrInvalidCategoryType   = errors.New("type must be either 'income' or 'expense'")

	ErrTransactionNotFound    = errors.New("transaction not found")
	ErrInvalidTransactionType = errors.New("type must be either 'income' or 'expense'")
	ErrInvalidAmount          = errors.New("amount must be a positive number")

	ErrBudgetNotFound     = errors.New("budget not found")
	ErrBudgetWindowExists = errors.New("budget for this category and period already exists")
	ErrInvalidLimitAmount = errors.New("limit amount must be a positive number")
	ErrStartDateRequired  = errors.New("start date is required")
	ErrEndDateRequired    = errors.New("end date is required")
	ErrInvalidDateRange   = errors.New("end date must be after start date")
	ErrCategoryIDRequired = errors.New("category ID is required")

	ErrReceiptNotFound = errors.New("receipt not found")
	ErrNoReceipts      = errors.New("no receipts found")

	ErrNameRequired = errors.New("name is required")
	ErrNameTooLong  = errors.New("name exceeds maximum length")
	ErrNoteTooLong  = errors.New("note exceeds maximum length")
)

// Validation constants
const (
	MaxCategoryNameLength = 100
	MaxBudgetNameLength   = 100
	MaxNoteLength         = 500
)
