package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Budget struct {
	ID          int32           `json:"id"`
	UserID      string          `json:"userId"`
	CategoryID  int32           `json:"categoryId"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	LimitAmount decimal.Decimal `json:"limitAmount"`
	StartDate   time.Time       `json:"startDate"`
	EndDate     time.Time       `json:"endDate"`
	IsActive    bool            `json:"isActive"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// BudgetCategory is the resolved category embedded in budget responses.
type BudgetCategory struct {
	ID   int32        `json:"id"`
	Name string       `json:"name"`
	Type CategoryType `json:"type"`
}

// BudgetWithSpending is a budget plus spending figures derived at read time.
// None of the derived fields are ever persisted.
type BudgetWithSpending struct {
	Budget
	Category           *BudgetCategory `json:"category"`
	TotalSpent         decimal.Decimal `json:"totalSpent"`
	RemainingAmount    decimal.Decimal `json:"remainingAmount"`
	SpendingPercentage decimal.Decimal `json:"spendingPercentage"`
	IsOverBudget       bool            `json:"isOverBudget"`
	IsCloseToLimit     bool            `json:"isCloseToLimit"`
}

// UpdateBudgetData carries the replacement fields for a budget update.
type UpdateBudgetData struct {
	CategoryID  int32
	Name        string
	Description string
	LimitAmount decimal.Decimal
	StartDate   time.Time
	EndDate     time.Time
	IsActive    bool
}

type BudgetRepository interface {
	Create(budget *Budget) (*Budget, error)
	GetByID(userID string, id int32) (*Budget, error)
	GetAllByUser(userID string, isActive *bool) ([]*Budget, error)
	Update(userID string, id int32, data *UpdateBudgetData) (*Budget, error)
	Delete(userID string, id int32) error

	// ExistsWindow reports whether an active budget with the identical
	// category and date window already exists, excluding excludeID (pass 0
	// on create). Only consulted when window uniqueness is enabled.
	ExistsWindow(userID string, categoryID int32, startDate, endDate time.Time, excludeID int32) (bool, error)
}
