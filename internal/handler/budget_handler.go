package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/finchapp/finch/finch-backend/internal/domain"
	"github.com/finchapp/finch/finch-backend/internal/middleware"
	"github.com/finchapp/finch/finch-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// BudgetHandler handles budget HTTP requests
type BudgetHandler struct {
	budgetService *service.BudgetService
}

// NewBudgetHandler creates a new BudgetHandler
func NewBudgetHandler(budgetService *service.BudgetService) *BudgetHandler {
	return &BudgetHandler{budgetService: budgetService}
}

// BudgetRequest represents the create/update budget request body
type BudgetRequest struct {
	CategoryID  int32           `json:"categoryId"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	LimitAmount decimal.Decimal `json:"limitAmount"`
	StartDate   time.Time       `json:"startDate"`
	EndDate     time.Time       `json:"endDate"`
	IsActive    *bool           `json:"isActive"`
}

// BudgetCategoryResponse represents the resolved category inside a budget
type BudgetCategoryResponse struct {
	ID   int32  `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// BudgetResponse represents a budget with derived spending in API responses
type BudgetResponse struct {
	ID                 int32                   `json:"id"`
	CategoryID         int32                   `json:"categoryId"`
	Category           *BudgetCategoryResponse `json:"category"`
	Name               string                  `json:"name"`
	Description        string                  `json:"description,omitempty"`
	LimitAmount        decimal.Decimal         `json:"limitAmount"`
	StartDate          string                  `json:"startDate"`
	EndDate            string                  `json:"endDate"`
	IsActive           bool                    `json:"isActive"`
	TotalSpent         decimal.Decimal         `json:"totalSpent"`
	RemainingAmount    decimal.Decimal         `json:"remainingAmount"`
	SpendingPercentage decimal.Decimal         `json:"spendingPercentage"`
	IsOverBudget       bool                    `json:"isOverBudget"`
	IsCloseToLimit     bool                    `json:"isCloseToLimit"`
	CreatedAt          string                  `json:"createdAt"`
	UpdatedAt          string                  `json:"updatedAt"`
}

// CreateBudget handles POST /api/v1/budgets
func (h *BudgetHandler) CreateBudget(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req BudgetRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	budget, err := h.budgetService.CreateBudget(userID, toBudgetInput(req))
	if err != nil {
		if resp := budgetValidationResponse(c, err); resp != nil {
			return resp
		}
		if errors.Is(err, domain.ErrBudgetWindowExists) {
			return NewConflictError(c, "A budget for this category and period already exists")
		}
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to create budget")
		return NewInternalError(c, "Failed to create budget")
	}

	log.Info().Str("user_id", userID).Int32("budget_id", budget.ID).Str("name", budget.Name).Msg("Budget created")

	return c.JSON(http.StatusCreated, toBudgetResponse(budget))
}

// GetBudgets handles GET /api/v1/budgets
func (h *BudgetHandler) GetBudgets(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var isActive *bool
	if raw := c.QueryParam("isActive"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			return NewValidationError(c, "Invalid isActive filter", nil)
		}
		isActive = &parsed
	}

	budgets, err := h.budgetService.GetBudgets(userID, isActive)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to get budgets")
		return NewInternalError(c, "Failed to get budgets")
	}

	response := make([]BudgetResponse, len(budgets))
	for i, budget := range budgets {
		response[i] = toBudgetResponse(budget)
	}

	return c.JSON(http.StatusOK, response)
}

// GetBudget handles GET /api/v1/budgets/:id
func (h *BudgetHandler) GetBudget(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid budget ID", nil)
	}

	budget, err := h.budgetService.GetBudgetByID(userID, int32(id))
	if err != nil {
		if errors.Is(err, domain.ErrBudgetNotFound) {
			return NewNotFoundError(c, "Budget not found")
		}
		log.Error().Err(err).Str("user_id", userID).Int("budget_id", id).Msg("Failed to get budget")
		return NewInternalError(c, "Failed to get budget")
	}

	return c.JSON(http.StatusOK, toBudgetResponse(budget))
}

// UpdateBudget handles PUT /api/v1/budgets/:id
func (h *BudgetHandler) UpdateBudget(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid budget ID", nil)
	}

	var req BudgetRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	budget, err := h.budgetService.UpdateBudget(userID, int32(id), toBudgetInput(req))
	if err != nil {
		if errors.Is(err, domain.ErrBudgetNotFound) {
			return NewNotFoundError(c, "Budget not found")
		}
		if resp := budgetValidationResponse(c, err); resp != nil {
			return resp
		}
		if errors.Is(err, domain.ErrBudgetWindowExists) {
			return NewConflictError(c, "A budget for this category and period already exists")
		}
		log.Error().Err(err).Str("user_id", userID).Int("budget_id", id).Msg("Failed to update budget")
		return NewInternalError(c, "Failed to update budget")
	}

	log.Info().Str("user_id", userID).Int32("budget_id", budget.ID).Msg("Budget updated")
	return c.JSON(http.StatusOK, toBudgetResponse(budget))
}

// DeleteBudget handles DELETE /api/v1/budgets/:id
func (h *BudgetHandler) DeleteBudget(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid budget ID", nil)
	}

	if err := h.budgetService.DeleteBudget(userID, int32(id)); err != nil {
		if errors.Is(err, domain.ErrBudgetNotFound) {
			return NewNotFoundError(c, "Budget not found")
		}
		log.Error().Err(err).Str("user_id", userID).Int("budget_id", id).Msg("Failed to delete budget")
		return NewInternalError(c, "Failed to delete budget")
	}

	log.Info().Str("user_id", userID).Int("budget_id", id).Msg("Budget deleted")
	return c.NoContent(http.StatusNoContent)
}

// budgetValidationResponse maps validation failures to problem details.
// Returns nil when err is not a validation error.
func budgetValidationResponse(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrNameRequired):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "name", Message: "Name is required"},
		})
	case errors.Is(err, domain.ErrNameTooLong):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "name", Message: "Name must be 100 characters or less"},
		})
	case errors.Is(err, domain.ErrInvalidLimitAmount):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "limitAmount", Message: "Limit amount must be a positive number"},
		})
	case errors.Is(err, domain.ErrStartDateRequired):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "startDate", Message: "Start date is required"},
		})
	case errors.Is(err, domain.ErrEndDateRequired):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "endDate", Message: "End date is required"},
		})
	case errors.Is(err, domain.ErrInvalidDateRange):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "endDate", Message: "End date must be after start date"},
		})
	case errors.Is(err, domain.ErrCategoryIDRequired):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "categoryId", Message: "Category ID is required"},
		})
	case errors.Is(err, domain.ErrCategoryNotOwned):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "categoryId", Message: "Category not found or does not belong to user"},
		})
	}
	return nil
}

func toBudgetInput(req BudgetRequest) service.BudgetInput {
	return service.BudgetInput{
		CategoryID:  req.CategoryID,
		Name:        req.Name,
		Description: req.Description,
		LimitAmount: req.LimitAmount,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		IsActive:    req.IsActive,
	}
}

// Helper function to convert domain.BudgetWithSpending to BudgetResponse
func toBudgetResponse(budget *domain.BudgetWithSpending) BudgetResponse {
	resp := BudgetResponse{
		ID:                 budget.ID,
		CategoryID:         budget.CategoryID,
		Name:               budget.Name,
		Description:        budget.Description,
		LimitAmount:        budget.LimitAmount,
		StartDate:          budget.StartDate.Format(time.RFC3339),
		EndDate:            budget.EndDate.Format(time.RFC3339),
		IsActive:           budget.IsActive,
		TotalSpent:         budget.TotalSpent,
		RemainingAmount:    budget.RemainingAmount,
		SpendingPercentage: budget.SpendingPercentage,
		IsOverBudget:       budget.IsOverBudget,
		IsCloseToLimit:     budget.IsCloseToLimit,
		CreatedAt:          budget.CreatedAt.Format(time.RFC3339),
		UpdatedAt:          budget.UpdatedAt.Format(time.RFC3339),
	}
	if budget.Category != nil {
		resp.Category = &BudgetCategoryResponse{
			ID:   budget.Category.ID,
			Name: budget.Category.Name,
			Type: string(budget.Category.Type),
		}
	}
	return resp
}
