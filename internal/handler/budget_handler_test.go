package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/finchapp/finch/finch-backend/internal/config"
	"github.com/finchapp/finch/finch-backend/internal/domain"
	"github.com/finchapp/finch/finch-backend/internal/service"
	"github.com/finchapp/finch/finch-backend/internal/testutil"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBudgetHandler() (*BudgetHandler, *testutil.MockBudgetRepository, *testutil.MockCategoryRepository, *testutil.MockTransactionRepository) {
	budgetRepo := testutil.NewMockBudgetRepository()
	categoryRepo := testutil.NewMockCategoryRepository()
	transactionRepo := testutil.NewMockTransactionRepository()
	budgetService := service.NewBudgetService(budgetRepo, categoryRepo, transactionRepo, config.BudgetConfig{})
	return NewBudgetHandler(budgetService), budgetRepo, categoryRepo, transactionRepo
}

func TestCreateBudget_HandlerSuccess(t *testing.T) {
	e := echo.New()
	handler, _, categoryRepo, _ := newBudgetHandler()

	userID := "auth0|user1"
	categoryRepo.AddCategory(&domain.Category{ID: 1, UserID: userID, Name: "Groceries", Type: domain.CategoryTypeExpense})

	reqBody := `{"categoryId": 1, "name": "June groceries", "limitAmount": "500", "startDate": "2025-06-01T00:00:00Z", "endDate": "2025-06-30T00:00:00Z"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/budgets", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	setupAuthContext(c, userID)

	require.NoError(t, handler.CreateBudget(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var response BudgetResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))

	assert.Equal(t, "June groceries", response.Name)
	assert.True(t, response.IsActive)
	assert.True(t, response.TotalSpent.IsZero())
	assert.False(t, response.IsOverBudget)
	require.NotNil(t, response.Category)
	assert.Equal(t, "Groceries", response.Category.Name)
}

func TestGetBudget_HandlerDerivesSpending(t *testing.T) {
	e := echo.New()
	handler, budgetRepo, categoryRepo, transactionRepo := newBudgetHandler()

	userID := "auth0|user1"
	categoryRepo.AddCategory(&domain.Category{ID: 1, UserID: userID, Name: "Groceries", Type: domain.CategoryTypeExpense})

	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	budgetRepo.AddBudget(&domain.Budget{
		ID: 1, UserID: userID, CategoryID: 1, Name: "June groceries",
		LimitAmount: decimal.NewFromInt(500), StartDate: start, EndDate: end, IsActive: true,
	})
	transactionRepo.AddTransaction(&domain.Transaction{
		ID: 1, UserID: userID, CategoryID: 1, Type: domain.TransactionTypeExpense,
		Amount: decimal.NewFromInt(320), Date: start.AddDate(0, 0, 5),
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/budgets/1", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("1")

	setupAuthContext(c, userID)

	require.NoError(t, handler.GetBudget(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var response BudgetResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))

	assert.True(t, response.TotalSpent.Equal(decimal.NewFromInt(320)), "totalSpent = %s", response.TotalSpent)
	assert.True(t, response.RemainingAmount.Equal(decimal.NewFromInt(180)), "remaining = %s", response.RemainingAmount)
	assert.True(t, response.SpendingPercentage.Equal(decimal.NewFromInt(64)), "percentage = %s", response.SpendingPercentage)
	assert.False(t, response.IsOverBudget)
}

func TestCreateBudget_HandlerInvalidDateRange(t *testing.T) {
	e := echo.New()
	handler, _, categoryRepo, _ := newBudgetHandler()

	userID := "auth0|user1"
	categoryRepo.AddCategory(&domain.Category{ID: 1, UserID: userID, Name: "Groceries", Type: domain.CategoryTypeExpense})

	reqBody := `{"categoryId": 1, "name": "Backwards", "limitAmount": "500", "startDate": "2025-06-30T00:00:00Z", "endDate": "2025-06-01T00:00:00Z"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/budgets", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	setupAuthContext(c, userID)

	require.NoError(t, handler.CreateBudget(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetBudget_HandlerCrossUser(t *testing.T) {
	e := echo.New()
	handler, budgetRepo, _, _ := newBudgetHandler()

	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	budgetRepo.AddBudget(&domain.Budget{
		ID: 1, UserID: "auth0|owner", CategoryID: 1, Name: "Private",
		LimitAmount: decimal.NewFromInt(500), StartDate: start, EndDate: start.AddDate(0, 1, 0), IsActive: true,
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/budgets/1", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("1")

	setupAuthContext(c, "auth0|intruder")

	require.NoError(t, handler.GetBudget(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
