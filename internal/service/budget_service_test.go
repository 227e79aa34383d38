package service

import (
	"testing"
	"time"

	"github.com/finchapp/finch/finch-backend/internal/config"
	"github.com/finchapp/finch/finch-backend/internal/domain"
	"github.com/finchapp/finch/finch-backend/internal/testutil"
	"github.com/shopspring/decimal"
)

func newBudgetService(cfg config.BudgetConfig) (*BudgetService, *testutil.MockBudgetRepository, *testutil.MockCategoryRepository, *testutil.MockTransactionRepository) {
	budgetRepo := testutil.NewMockBudgetRepository()
	categoryRepo := testutil.NewMockCategoryRepository()
	transactionRepo := testutil.NewMockTransactionRepository()
	return NewBudgetService(budgetRepo, categoryRepo, transactionRepo, cfg), budgetRepo, categoryRepo, transactionRepo
}

func budgetWindow() (time.Time, time.Time) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	return start, end
}

func TestCreateBudget_Success(t *testing.T) {
	svc, _, categoryRepo, _ := newBudgetService(config.BudgetConfig{})

	userID := "auth0|user1"
	categoryRepo.AddCategory(&domain.Category{ID: 1, UserID: userID, Name: "Groceries", Type: domain.CategoryTypeExpense})
	start, end := budgetWindow()

	budget, err := svc.CreateBudget(userID, BudgetInput{
		CategoryID:  1,
		Name:        "June groceries",
		LimitAmount: decimal.NewFromInt(500),
		StartDate:   start,
		EndDate:     end,
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if !budget.IsActive {
		t.Error("Expected isActive to default to true")
	}
	if !budget.TotalSpent.IsZero() {
		t.Errorf("Expected zero spending on fresh budget, got %s", budget.TotalSpent)
	}
	if !budget.RemainingAmount.Equal(decimal.NewFromInt(500)) {
		t.Errorf("Expected remaining 500, got %s", budget.RemainingAmount)
	}
	if budget.Category == nil || budget.Category.Name != "Groceries" {
		t.Error("Expected resolved category on response")
	}
}

func TestBudgetSpending_Derivation(t *testing.T) {
	svc, budgetRepo, categoryRepo, transactionRepo := newBudgetService(config.BudgetConfig{})

	userID := "auth0|user1"
	categoryRepo.AddCategory(&domain.Category{ID: 1, UserID: userID, Name: "Groceries", Type: domain.CategoryTypeExpense})
	start, end := budgetWindow()
	budgetRepo.AddBudget(&domain.Budget{
		ID: 1, UserID: userID, CategoryID: 1, Name: "June groceries",
		LimitAmount: decimal.NewFromInt(500), StartDate: start, EndDate: end, IsActive: true,
	})

	// 120 + 200 expenses inside the window; income and out-of-window rows
	// must not count
	transactionRepo.AddTransaction(&domain.Transaction{ID: 1, UserID: userID, CategoryID: 1, Type: domain.TransactionTypeExpense, Amount: decimal.NewFromInt(120), Date: start.AddDate(0, 0, 3)})
	transactionRepo.AddTransaction(&domain.Transaction{ID: 2, UserID: userID, CategoryID: 1, Type: domain.TransactionTypeExpense, Amount: decimal.NewFromInt(200), Date: start.AddDate(0, 0, 10)})
	transactionRepo.AddTransaction(&domain.Transaction{ID: 3, UserID: userID, CategoryID: 1, Type: domain.TransactionTypeIncome, Amount: decimal.NewFromInt(50), Date: start.AddDate(0, 0, 5)})
	transactionRepo.AddTransaction(&domain.Transaction{ID: 4, UserID: userID, CategoryID: 1, Type: domain.TransactionTypeExpense, Amount: decimal.NewFromInt(75), Date: end.AddDate(0, 0, 2)})

	budget, err := svc.GetBudgetByID(userID, 1)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if !budget.TotalSpent.Equal(decimal.NewFromInt(320)) {
		t.Errorf("Expected totalSpent 320, got %s", budget.TotalSpent)
	}
	if !budget.RemainingAmount.Equal(decimal.NewFromInt(180)) {
		t.Errorf("Expected remaining 180, got %s", budget.RemainingAmount)
	}
	if !budget.SpendingPercentage.Equal(decimal.NewFromInt(64)) {
		t.Errorf("Expected spendingPercentage 64, got %s", budget.SpendingPercentage)
	}
	if budget.IsOverBudget {
		t.Error("Expected isOverBudget false at 64%")
	}
	if budget.IsCloseToLimit {
		t.Error("Expected isCloseToLimit false at 64%")
	}
}

func TestBudgetSpending_Overspend(t *testing.T) {
	svc, budgetRepo, categoryRepo, transactionRepo := newBudgetService(config.BudgetConfig{})

	userID := "auth0|user1"
	categoryRepo.AddCategory(&domain.Category{ID: 1, UserID: userID, Name: "Groceries", Type: domain.CategoryTypeExpense})
	start, end := budgetWindow()
	budgetRepo.AddBudget(&domain.Budget{
		ID: 1, UserID: userID, CategoryID: 1, Name: "June groceries",
		LimitAmount: decimal.NewFromInt(500), StartDate: start, EndDate: end, IsActive: true,
	})
	transactionRepo.AddTransaction(&domain.Transaction{ID: 1, UserID: userID, CategoryID: 1, Type: domain.TransactionTypeExpense, Amount: decimal.NewFromInt(650), Date: start.AddDate(0, 0, 3)})

	budget, err := svc.GetBudgetByID(userID, 1)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if !budget.RemainingAmount.IsZero() {
		t.Errorf("Expected remaining floored at 0, got %s", budget.RemainingAmount)
	}
	if !budget.SpendingPercentage.Equal(decimal.NewFromInt(100)) {
		t.Errorf("Expected spendingPercentage capped at 100, got %s", budget.SpendingPercentage)
	}
	if !budget.IsOverBudget {
		t.Error("Expected isOverBudget true")
	}
	if !budget.IsCloseToLimit {
		t.Error("Expected isCloseToLimit true when nothing remains")
	}
}

func TestBudgetSpending_CloseToLimit(t *testing.T) {
	svc, budgetRepo, categoryRepo, transactionRepo := newBudgetService(config.BudgetConfig{})

	userID := "auth0|user1"
	categoryRepo.AddCategory(&domain.Category{ID: 1, UserID: userID, Name: "Groceries", Type: domain.CategoryTypeExpense})
	start, end := budgetWindow()
	budgetRepo.AddBudget(&domain.Budget{
		ID: 1, UserID: userID, CategoryID: 1, Name: "June groceries",
		LimitAmount: decimal.NewFromInt(500), StartDate: start, EndDate: end, IsActive: true,
	})
	// 460 spent leaves 40 remaining = 8% of the limit
	transactionRepo.AddTransaction(&domain.Transaction{ID: 1, UserID: userID, CategoryID: 1, Type: domain.TransactionTypeExpense, Amount: decimal.NewFromInt(460), Date: start.AddDate(0, 0, 3)})

	budget, err := svc.GetBudgetByID(userID, 1)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if budget.IsOverBudget {
		t.Error("Expected isOverBudget false at 92%")
	}
	if !budget.IsCloseToLimit {
		t.Error("Expected isCloseToLimit true with 8% remaining")
	}
}

func TestCreateBudget_Validation(t *testing.T) {
	svc, _, categoryRepo, _ := newBudgetService(config.BudgetConfig{})

	userID := "auth0|user1"
	categoryRepo.AddCategory(&domain.Category{ID: 1, UserID: userID, Name: "Groceries", Type: domain.CategoryTypeExpense})
	start, end := budgetWindow()

	cases := []struct {
		name    string
		input   BudgetInput
		wantErr error
	}{
		{"empty name", BudgetInput{CategoryID: 1, LimitAmount: decimal.NewFromInt(100), StartDate: start, EndDate: end}, domain.ErrNameRequired},
		{"zero limit", BudgetInput{CategoryID: 1, Name: "B", LimitAmount: decimal.Zero, StartDate: start, EndDate: end}, domain.ErrInvalidLimitAmount},
		{"missing start", BudgetInput{CategoryID: 1, Name: "B", LimitAmount: decimal.NewFromInt(100), EndDate: end}, domain.ErrStartDateRequired},
		{"missing end", BudgetInput{CategoryID: 1, Name: "B", LimitAmount: decimal.NewFromInt(100), StartDate: start}, domain.ErrEndDateRequired},
		{"inverted window", BudgetInput{CategoryID: 1, Name: "B", LimitAmount: decimal.NewFromInt(100), StartDate: end, EndDate: start}, domain.ErrInvalidDateRange},
		{"missing category", BudgetInput{Name: "B", LimitAmount: decimal.NewFromInt(100), StartDate: start, EndDate: end}, domain.ErrCategoryIDRequired},
		{"foreign category", BudgetInput{CategoryID: 99, Name: "B", LimitAmount: decimal.NewFromInt(100), StartDate: start, EndDate: end}, domain.ErrCategoryNotOwned},
	}

	for _, tc := range cases {
		if _, err := svc.CreateBudget(userID, tc.input); err != tc.wantErr {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.wantErr, err)
		}
	}
}

func TestCreateBudget_DuplicateWindowAllowedByDefault(t *testing.T) {
	svc, _, categoryRepo, _ := newBudgetService(config.BudgetConfig{})

	userID := "auth0|user1"
	categoryRepo.AddCategory(&domain.Category{ID: 1, UserID: userID, Name: "Groceries", Type: domain.CategoryTypeExpense})
	start, end := budgetWindow()

	input := BudgetInput{CategoryID: 1, Name: "June groceries", LimitAmount: decimal.NewFromInt(500), StartDate: start, EndDate: end}
	if _, err := svc.CreateBudget(userID, input); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if _, err := svc.CreateBudget(userID, input); err != nil {
		t.Errorf("Expected duplicate window to be allowed by default, got %v", err)
	}
}

func TestCreateBudget_DuplicateWindowRejectedWhenEnforced(t *testing.T) {
	svc, _, categoryRepo, _ := newBudgetService(config.BudgetConfig{EnforceUniqueWindow: true})

	userID := "auth0|user1"
	categoryRepo.AddCategory(&domain.Category{ID: 1, UserID: userID, Name: "Groceries", Type: domain.CategoryTypeExpense})
	start, end := budgetWindow()

	input := BudgetInput{CategoryID: 1, Name: "June groceries", LimitAmount: decimal.NewFromInt(500), StartDate: start, EndDate: end}
	if _, err := svc.CreateBudget(userID, input); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if _, err := svc.CreateBudget(userID, input); err != domain.ErrBudgetWindowExists {
		t.Errorf("Expected ErrBudgetWindowExists, got %v", err)
	}
}

func TestGetBudgets_ActiveFilter(t *testing.T) {
	svc, budgetRepo, categoryRepo, _ := newBudgetService(config.BudgetConfig{})

	userID := "auth0|user1"
	categoryRepo.AddCategory(&domain.Category{ID: 1, UserID: userID, Name: "Groceries", Type: domain.CategoryTypeExpense})
	start, end := budgetWindow()
	budgetRepo.AddBudget(&domain.Budget{ID: 1, UserID: userID, CategoryID: 1, Name: "Active", LimitAmount: decimal.NewFromInt(100), StartDate: start, EndDate: end, IsActive: true})
	budgetRepo.AddBudget(&domain.Budget{ID: 2, UserID: userID, CategoryID: 1, Name: "Archived", LimitAmount: decimal.NewFromInt(100), StartDate: start, EndDate: end, IsActive: false})

	active := true
	budgets, err := svc.GetBudgets(userID, &active)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(budgets) != 1 || budgets[0].Name != "Active" {
		t.Errorf("Expected only the active budget, got %d", len(budgets))
	}
}

func TestGetBudget_DeletedCategoryLeavesNil(t *testing.T) {
	svc, budgetRepo, _, _ := newBudgetService(config.BudgetConfig{})

	userID := "auth0|user1"
	start, end := budgetWindow()
	budgetRepo.AddBudget(&domain.Budget{ID: 1, UserID: userID, CategoryID: 9, Name: "Orphan", LimitAmount: decimal.NewFromInt(100), StartDate: start, EndDate: end, IsActive: true})

	budget, err := svc.GetBudgetByID(userID, 1)
	if err != nil {
		t.Fatalf("Expected budget to load without its category, got %v", err)
	}
	if budget.Category != nil {
		t.Error("Expected nil category when it no longer exists")
	}
}
