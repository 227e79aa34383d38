// Package testutil provides in-memory fakes for service and handler tests.
package testutil

import (
	"context"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/finchapp/finch/finch-backend/internal/domain"
	"github.com/finchapp/finch/finch-backend/internal/ocr"
	"github.com/shopspring/decimal"
)

type userKey struct {
	UserID string
	ID     int32
}

// MockCategoryRepository is a mock implementation of domain.CategoryRepository
type MockCategoryRepository struct {
	Categories map[userKey]*domain.Category
	NextID     int32
	CreateFn   func(category *domain.Category) (*domain.Category, error)
	CountFn    func(userID string) (int64, error)
}

// NewMockCategoryRepository creates a new MockCategoryRepository
func NewMockCategoryRepository() *MockCategoryRepository {
	return &MockCategoryRepository{
		Categories: make(map[userKey]*domain.Category),
		NextID:     1,
	}
}

// Create creates a new category, enforcing the case-insensitive name
// uniqueness the real schema provides
func (m *MockCategoryRepository) Create(category *domain.Category) (*domain.Category, error) {
	if m.CreateFn != nil {
		return m.CreateFn(category)
	}
	for _, existing := range m.Categories {
		if existing.UserID == category.UserID && existing.NameLower == category.NameLower {
			return nil, domain.ErrCategoryAlreadyExists
		}
	}
	category.ID = m.NextID
	m.NextID++
	category.CreatedAt = time.Now()
	category.UpdatedAt = category.CreatedAt
	m.Categories[userKey{category.UserID, category.ID}] = category
	return category, nil
}

// CreateBatch creates all categories or none
func (m *MockCategoryRepository) CreateBatch(categories []*domain.Category) error {
	for _, category := range categories {
		if _, err := m.Create(category); err != nil {
			return err
		}
	}
	return nil
}

// GetByID retrieves a category scoped to a user
func (m *MockCategoryRepository) GetByID(userID string, id int32) (*domain.Category, error) {
	if category, ok := m.Categories[userKey{userID, id}]; ok {
		return category, nil
	}
	return nil, domain.ErrCategoryNotFound
}

// GetAllByUser retrieves a user's categories sorted by lowercase name
func (m *MockCategoryRepository) GetAllByUser(userID string, categoryType *domain.CategoryType) ([]*domain.Category, error) {
	result := []*domain.Category{}
	for _, category := range m.Categories {
		if category.UserID != userID {
			continue
		}
		if categoryType != nil && category.Type != *categoryType {
			continue
		}
		result = append(result, category)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].NameLower < result[j].NameLower })
	return result, nil
}

// CountByUser counts a user's categories
func (m *MockCategoryRepository) CountByUser(userID string) (int64, error) {
	if m.CountFn != nil {
		return m.CountFn(userID)
	}
	var count int64
	for _, category := range m.Categories {
		if category.UserID == userID {
			count++
		}
	}
	return count, nil
}

// Update updates a category's name and type
func (m *MockCategoryRepository) Update(userID string, id int32, name, nameLower string, categoryType domain.CategoryType) (*domain.Category, error) {
	category, ok := m.Categories[userKey{userID, id}]
	if !ok {
		return nil, domain.ErrCategoryNotFound
	}
	for _, existing := range m.Categories {
		if existing.UserID == userID && existing.ID != id && existing.NameLower == nameLower {
			return nil, domain.ErrCategoryAlreadyExists
		}
	}
	category.Name = name
	category.NameLower = nameLower
	category.Type = categoryType
	category.UpdatedAt = time.Now()
	return category, nil
}

// Delete deletes a category
func (m *MockCategoryRepository) Delete(userID string, id int32) error {
	if _, ok := m.Categories[userKey{userID, id}]; !ok {
		return domain.ErrCategoryNotFound
	}
	delete(m.Categories, userKey{userID, id})
	return nil
}

// AddCategory adds a category to the mock repository (helper for tests)
func (m *MockCategoryRepository) AddCategory(category *domain.Category) {
	if category.NameLower == "" {
		category.NameLower = strings.ToLower(category.Name)
	}
	if category.ID >= m.NextID {
		m.NextID = category.ID + 1
	}
	m.Categories[userKey{category.UserID, category.ID}] = category
}

// MockTransactionRepository is a mock implementation of domain.TransactionRepository
type MockTransactionRepository struct {
	Transactions map[userKey]*domain.Transaction
	NextID       int32
	SumFn        func(userID string, categoryID int32, startDate, endDate time.Time) (decimal.Decimal, error)
}

// NewMockTransactionRepository creates a new MockTransactionRepository
func NewMockTransactionRepository() *MockTransactionRepository {
	return &MockTransactionRepository{
		Transactions: make(map[userKey]*domain.Transaction),
		NextID:       1,
	}
}

// Create creates a new transaction
func (m *MockTransactionRepository) Create(transaction *domain.Transaction) (*domain.Transaction, error) {
	transaction.ID = m.NextID
	m.NextID++
	transaction.CreatedAt = time.Now()
	transaction.UpdatedAt = transaction.CreatedAt
	m.Transactions[userKey{transaction.UserID, transaction.ID}] = transaction
	return transaction, nil
}

// GetByID retrieves a transaction scoped to a user
func (m *MockTransactionRepository) GetByID(userID string, id int32) (*domain.Transaction, error) {
	if transaction, ok := m.Transactions[userKey{userID, id}]; ok {
		return transaction, nil
	}
	return nil, domain.ErrTransactionNotFound
}

// GetAllByUser retrieves a user's transactions, newest date first
func (m *MockTransactionRepository) GetAllByUser(userID string) ([]*domain.Transaction, error) {
	result := []*domain.Transaction{}
	for _, transaction := range m.Transactions {
		if transaction.UserID == userID {
			result = append(result, transaction)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.After(result[j].Date) })
	return result, nil
}

// Update updates a transaction's mutable fields
func (m *MockTransactionRepository) Update(userID string, id int32, data *domain.UpdateTransactionData) (*domain.Transaction, error) {
	transaction, ok := m.Transactions[userKey{userID, id}]
	if !ok {
		return nil, domain.ErrTransactionNotFound
	}
	transaction.Type = data.Type
	transaction.Amount = data.Amount
	transaction.Date = data.Date
	transaction.Note = data.Note
	transaction.Source = data.Source
	transaction.CategoryID = data.CategoryID
	transaction.UpdatedAt = time.Now()
	return transaction, nil
}

// Delete deletes a transaction
func (m *MockTransactionRepository) Delete(userID string, id int32) error {
	if _, ok := m.Transactions[userKey{userID, id}]; !ok {
		return domain.ErrTransactionNotFound
	}
	delete(m.Transactions, userKey{userID, id})
	return nil
}

// SumExpensesInWindow sums expense amounts inside the inclusive window
func (m *MockTransactionRepository) SumExpensesInWindow(userID string, categoryID int32, startDate, endDate time.Time) (decimal.Decimal, error) {
	if m.SumFn != nil {
		return m.SumFn(userID, categoryID, startDate, endDate)
	}
	total := decimal.Zero
	for _, transaction := range m.Transactions {
		if transaction.UserID != userID || transaction.CategoryID != categoryID {
			continue
		}
		if transaction.Type != domain.TransactionTypeExpense {
			continue
		}
		if transaction.Date.Before(startDate) || transaction.Date.After(endDate) {
			continue
		}
		total = total.Add(transaction.Amount)
	}
	return total, nil
}

// UnlinkReceipt clears receipt linkage on matching transactions
func (m *MockTransactionRepository) UnlinkReceipt(userID string, receiptID int32) error {
	for _, transaction := range m.Transactions {
		if transaction.UserID == userID && transaction.ReceiptID != nil && *transaction.ReceiptID == receiptID {
			transaction.ReceiptID = nil
		}
	}
	return nil
}

// AddTransaction adds a transaction to the mock repository (helper for tests)
func (m *MockTransactionRepository) AddTransaction(transaction *domain.Transaction) {
	if transaction.ID >= m.NextID {
		m.NextID = transaction.ID + 1
	}
	m.Transactions[userKey{transaction.UserID, transaction.ID}] = transaction
}

// MockBudgetRepository is a mock implementation of domain.BudgetRepository
type MockBudgetRepository struct {
	Budgets map[userKey]*domain.Budget
	NextID  int32
}

// NewMockBudgetRepository creates a new MockBudgetRepository
func NewMockBudgetRepository() *MockBudgetRepository {
	return &MockBudgetRepository{
		Budgets: make(map[userKey]*domain.Budget),
		NextID:  1,
	}
}

// Create creates a new budget
func (m *MockBudgetRepository) Create(budget *domain.Budget) (*domain.Budget, error) {
	budget.ID = m.NextID
	m.NextID++
	budget.CreatedAt = time.Now()
	budget.UpdatedAt = budget.CreatedAt
	m.Budgets[userKey{budget.UserID, budget.ID}] = budget
	return budget, nil
}

// GetByID retrieves a budget scoped to a user
func (m *MockBudgetRepository) GetByID(userID string, id int32) (*domain.Budget, error) {
	if budget, ok := m.Budgets[userKey{userID, id}]; ok {
		return budget, nil
	}
	return nil, domain.ErrBudgetNotFound
}

// GetAllByUser retrieves a user's budgets, newest window first
func (m *MockBudgetRepository) GetAllByUser(userID string, isActive *bool) ([]*domain.Budget, error) {
	result := []*domain.Budget{}
	for _, budget := range m.Budgets {
		if budget.UserID != userID {
			continue
		}
		if isActive != nil && budget.IsActive != *isActive {
			continue
		}
		result = append(result, budget)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartDate.After(result[j].StartDate) })
	return result, nil
}

// Update replaces a budget's raw fields
func (m *MockBudgetRepository) Update(userID string, id int32, data *domain.UpdateBudgetData) (*domain.Budget, error) {
	budget, ok := m.Budgets[userKey{userID, id}]
	if !ok {
		return nil, domain.ErrBudgetNotFound
	}
	budget.CategoryID = data.CategoryID
	budget.Name = data.Name
	budget.Description = data.Description
	budget.LimitAmount = data.LimitAmount
	budget.StartDate = data.StartDate
	budget.EndDate = data.EndDate
	budget.IsActive = data.IsActive
	budget.UpdatedAt = time.Now()
	return budget, nil
}

// Delete deletes a budget
func (m *MockBudgetRepository) Delete(userID string, id int32) error {
	if _, ok := m.Budgets[userKey{userID, id}]; !ok {
		return domain.ErrBudgetNotFound
	}
	delete(m.Budgets, userKey{userID, id})
	return nil
}

// ExistsWindow reports whether an identical active window already exists
func (m *MockBudgetRepository) ExistsWindow(userID string, categoryID int32, startDate, endDate time.Time, excludeID int32) (bool, error) {
	for _, budget := range m.Budgets {
		if budget.UserID != userID || budget.CategoryID != categoryID || budget.ID == excludeID {
			continue
		}
		if budget.IsActive && budget.StartDate.Equal(startDate) && budget.EndDate.Equal(endDate) {
			return true, nil
		}
	}
	return false, nil
}

// AddBudget adds a budget to the mock repository (helper for tests)
func (m *MockBudgetRepository) AddBudget(budget *domain.Budget) {
	if budget.ID >= m.NextID {
		m.NextID = budget.ID + 1
	}
	m.Budgets[userKey{budget.UserID, budget.ID}] = budget
}

// MockReceiptRepository is a mock implementation of domain.ReceiptRepository
type MockReceiptRepository struct {
	Receipts map[userKey]*domain.Receipt
	NextID   int32
}

// NewMockReceiptRepository creates a new MockReceiptRepository
func NewMockReceiptRepository() *MockReceiptRepository {
	return &MockReceiptRepository{
		Receipts: make(map[userKey]*domain.Receipt),
		NextID:   1,
	}
}

// Create creates a new receipt
func (m *MockReceiptRepository) Create(receipt *domain.Receipt) (*domain.Receipt, error) {
	receipt.ID = m.NextID
	m.NextID++
	receipt.CreatedAt = time.Now()
	receipt.UpdatedAt = receipt.CreatedAt
	m.Receipts[userKey{receipt.UserID, receipt.ID}] = receipt
	return receipt, nil
}

// GetByID retrieves a receipt scoped to a user
func (m *MockReceiptRepository) GetByID(userID string, id int32) (*domain.Receipt, error) {
	if receipt, ok := m.Receipts[userKey{userID, id}]; ok {
		return receipt, nil
	}
	return nil, domain.ErrReceiptNotFound
}

// GetAllByUser retrieves a user's receipts
func (m *MockReceiptRepository) GetAllByUser(userID string) ([]*domain.Receipt, error) {
	result := []*domain.Receipt{}
	for _, receipt := range m.Receipts {
		if receipt.UserID == userID {
			result = append(result, receipt)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	return result, nil
}

// UpdateDraft replaces the embedded draft transaction
func (m *MockReceiptRepository) UpdateDraft(userID string, id int32, draft *domain.DraftTransaction) (*domain.Receipt, error) {
	receipt, ok := m.Receipts[userKey{userID, id}]
	if !ok {
		return nil, domain.ErrReceiptNotFound
	}
	receipt.Draft = draft
	receipt.UpdatedAt = time.Now()
	return receipt, nil
}

// SetProcessed flips the processed flag; missing receipts are ignored
func (m *MockReceiptRepository) SetProcessed(userID string, id int32, processed bool) error {
	if receipt, ok := m.Receipts[userKey{userID, id}]; ok {
		receipt.IsProcessed = processed
	}
	return nil
}

// Delete deletes a receipt
func (m *MockReceiptRepository) Delete(userID string, id int32) error {
	if _, ok := m.Receipts[userKey{userID, id}]; !ok {
		return domain.ErrReceiptNotFound
	}
	delete(m.Receipts, userKey{userID, id})
	return nil
}

// DeleteAllByUser deletes every receipt the user owns
func (m *MockReceiptRepository) DeleteAllByUser(userID string) (int64, error) {
	var count int64
	for key, receipt := range m.Receipts {
		if receipt.UserID == userID {
			delete(m.Receipts, key)
			count++
		}
	}
	return count, nil
}

// AddReceipt adds a receipt to the mock repository (helper for tests)
func (m *MockReceiptRepository) AddReceipt(receipt *domain.Receipt) {
	if receipt.ID >= m.NextID {
		m.NextID = receipt.ID + 1
	}
	m.Receipts[userKey{receipt.UserID, receipt.ID}] = receipt
}

// MockExtractor is a mock implementation of ocr.Extractor
type MockExtractor struct {
	Fields    *ocr.ReceiptFields
	Err       error
	ExtractFn func(ctx context.Context, image []byte) (*ocr.ReceiptFields, error)
}

// ExtractReceiptData returns the configured fields or error
func (m *MockExtractor) ExtractReceiptData(ctx context.Context, image []byte) (*ocr.ReceiptFields, error) {
	if m.ExtractFn != nil {
		return m.ExtractFn(ctx, image)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Fields, nil
}

// MockFileRepository is a mock implementation of storage.FileRepository
type MockFileRepository struct {
	Objects  map[string][]byte
	UploadFn func(ctx context.Context, key string, contentType string) (string, error)
	Deleted  []string
}

// NewMockFileRepository creates a new MockFileRepository
func NewMockFileRepository() *MockFileRepository {
	return &MockFileRepository{Objects: make(map[string][]byte)}
}

// Upload records the object under its key
func (m *MockFileRepository) Upload(ctx context.Context, key string, data io.Reader, contentType string, size int64) (string, error) {
	if m.UploadFn != nil {
		return m.UploadFn(ctx, key, contentType)
	}
	buf, err := io.ReadAll(data)
	if err != nil {
		return "", err
	}
	m.Objects[key] = buf
	return key, nil
}

// Delete removes the object and records the key
func (m *MockFileRepository) Delete(ctx context.Context, key string) error {
	delete(m.Objects, key)
	m.Deleted = append(m.Deleted, key)
	return nil
}

// PresignedURL returns a deterministic fake URL
func (m *MockFileRepository) PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	return "https://files.test/" + key, nil
}
