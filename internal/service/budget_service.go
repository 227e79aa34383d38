package service

import (
	"strings"
	"time"

	"github.com/finchapp/finch/finch-backend/internal/config"
	"github.com/finchapp/finch/finch-backend/internal/domain"
	"github.com/shopspring/decimal"
)

var (
	decimalHundred        = decimal.NewFromInt(100)
	closeToLimitThreshold = decimal.NewFromFloat(0.1)
)

// BudgetService handles budget-related business logic. Spending figures are
// derived from transactions at read time and never persisted.
type BudgetService struct {
	budgetRepo      domain.BudgetRepository
	categoryRepo    domain.CategoryRepository
	transactionRepo domain.TransactionRepository
	cfg             config.BudgetConfig
}

// NewBudgetService creates a new BudgetService
func NewBudgetService(budgetRepo domain.BudgetRepository, categoryRepo domain.CategoryRepository, transactionRepo domain.TransactionRepository, cfg config.BudgetConfig) *BudgetService {
	return &BudgetService{
		budgetRepo:      budgetRepo,
		categoryRepo:    categoryRepo,
		transactionRepo: transactionRepo,
		cfg:             cfg,
	}
}

// BudgetInput holds the raw fields for creating or replacing a budget
type BudgetInput struct {
	CategoryID  int32
	Name        string
	Description string
	LimitAmount decimal.Decimal
	StartDate   time.Time
	EndDate     time.Time
	IsActive    *bool
}

// CreateBudget creates a new budget with validation
func (s *BudgetService) CreateBudget(userID string, input BudgetInput) (*domain.BudgetWithSpending, error) {
	name, err := s.validateInput(userID, &input)
	if err != nil {
		return nil, err
	}

	if s.cfg.EnforceUniqueWindow {
		exists, err := s.budgetRepo.ExistsWindow(userID, input.CategoryID, input.StartDate, input.EndDate, 0)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, domain.ErrBudgetWindowExists
		}
	}

	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}

	budget := &domain.Budget{
		UserID:      userID,
		CategoryID:  input.CategoryID,
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		LimitAmount: input.LimitAmount,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
		IsActive:    isActive,
	}

	created, err := s.budgetRepo.Create(budget)
	if err != nil {
		return nil, err
	}
	return s.withSpending(userID, created)
}

// GetBudgets retrieves the user's budgets with derived spending, optionally
// filtered on the active flag.
func (s *BudgetService) GetBudgets(userID string, isActive *bool) ([]*domain.BudgetWithSpending, error) {
	budgets, err := s.budgetRepo.GetAllByUser(userID, isActive)
	if err != nil {
		return nil, err
	}

	result := make([]*domain.BudgetWithSpending, 0, len(budgets))
	for _, budget := range budgets {
		enriched, err := s.withSpending(userID, budget)
		if err != nil {
			return nil, err
		}
		result = append(result, enriched)
	}
	return result, nil
}

// GetBudgetByID retrieves a budget by ID with derived spending
func (s *BudgetService) GetBudgetByID(userID string, id int32) (*domain.BudgetWithSpending, error) {
	budget, err := s.budgetRepo.GetByID(userID, id)
	if err != nil {
		return nil, err
	}
	return s.withSpending(userID, budget)
}

// UpdateBudget replaces a budget's raw fields with validation
func (s *BudgetService) UpdateBudget(userID string, id int32, input BudgetInput) (*domain.BudgetWithSpending, error) {
	name, err := s.validateInput(userID, &input)
	if err != nil {
		return nil, err
	}

	if s.cfg.EnforceUniqueWindow {
		exists, err := s.budgetRepo.ExistsWindow(userID, input.CategoryID, input.StartDate, input.EndDate, id)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, domain.ErrBudgetWindowExists
		}
	}

	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}

	updated, err := s.budgetRepo.Update(userID, id, &domain.UpdateBudgetData{
		CategoryID:  input.CategoryID,
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		LimitAmount: input.LimitAmount,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
		IsActive:    isActive,
	})
	if err != nil {
		return nil, err
	}
	return s.withSpending(userID, updated)
}

// DeleteBudget deletes a budget. Transactions are untouched; budgets only
// observe them.
func (s *BudgetService) DeleteBudget(userID string, id int32) error {
	return s.budgetRepo.Delete(userID, id)
}

func (s *BudgetService) validateInput(userID string, input *BudgetInput) (string, error) {
	// Validate name
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return "", domain.ErrNameRequired
	}
	if len(name) > domain.MaxBudgetNameLength {
		return "", domain.ErrNameTooLong
	}

	// Validate limit amount (must be positive)
	if input.LimitAmount.LessThanOrEqual(decimal.Zero) {
		return "", domain.ErrInvalidLimitAmount
	}

	// Validate date window
	if input.StartDate.IsZero() {
		return "", domain.ErrStartDateRequired
	}
	if input.EndDate.IsZero() {
		return "", domain.ErrEndDateRequired
	}
	if !input.EndDate.After(input.StartDate) {
		return "", domain.ErrInvalidDateRange
	}

	// Validate category is required and belongs to the user
	if input.CategoryID == 0 {
		return "", domain.ErrCategoryIDRequired
	}
	if _, err := s.categoryRepo.GetByID(userID, input.CategoryID); err != nil {
		return "", domain.ErrCategoryNotOwned
	}

	return name, nil
}

// withSpending derives the spending figures for one budget: total expense
// spend in the window, remaining floored at zero, percentage capped at 100.
func (s *BudgetService) withSpending(userID string, budget *domain.Budget) (*domain.BudgetWithSpending, error) {
	totalSpent, err := s.transactionRepo.SumExpensesInWindow(userID, budget.CategoryID, budget.StartDate, budget.EndDate)
	if err != nil {
		return nil, err
	}

	remaining := budget.LimitAmount.Sub(totalSpent)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}

	percentage := decimal.Zero
	isCloseToLimit := false
	if budget.LimitAmount.IsPositive() {
		percentage = totalSpent.Div(budget.LimitAmount).Mul(decimalHundred)
		if percentage.GreaterThan(decimalHundred) {
			percentage = decimalHundred
		}
		isCloseToLimit = remaining.Div(budget.LimitAmount).LessThanOrEqual(closeToLimitThreshold)
	}

	enriched := &domain.BudgetWithSpending{
		Budget:             *budget,
		TotalSpent:         totalSpent,
		RemainingAmount:    remaining,
		SpendingPercentage: percentage,
		IsOverBudget:       totalSpent.GreaterThan(budget.LimitAmount),
		IsCloseToLimit:     isCloseToLimit,
	}

	// The category can be missing when it was deleted after the budget was
	// created; the budget is still returned, category stays null.
	if category, err := s.categoryRepo.GetByID(userID, budget.CategoryID); err == nil {
		enriched.Category = &domain.BudgetCategory{
			ID:   category.ID,
			Name: category.Name,
			Type: category.Type,
		}
	}

	return enriched, nil
}
