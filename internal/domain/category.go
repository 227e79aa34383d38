package domain

import "time"

type CategoryType string

const (
	CategoryTypeIncome  CategoryType = "income"
	CategoryTypeExpense CategoryType = "expense"
)

// IsValid reports whether t is one of the two known category types.
func (t CategoryType) IsValid() bool {
	return t == CategoryTypeIncome || t == CategoryTypeExpense
}

type Category struct {
	ID        int32        `json:"id"`
	UserID    string       `json:"userId"`
	Name      string       `json:"name"`
	NameLower string       `json:"-"`
	Type      CategoryType `json:"type"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// DefaultCategory is a seed entry created for users with no categories yet.
type DefaultCategory struct {
	Name string
	Type CategoryType
}

// DefaultCategories is inserted the first time a user lists categories while
// owning none. Seeding happens once; a user who later deletes everything is
// not re-seeded.
var DefaultCategories = []DefaultCategory{
	{Name: "Food & Dining", Type: CategoryTypeExpense},
	{Name: "Transportation", Type: CategoryTypeExpense},
	{Name: "Healthcare", Type: CategoryTypeExpense},
	{Name: "Shopping", Type: CategoryTypeExpense},
	{Name: "Entertainment", Type: CategoryTypeExpense},
	{Name: "Bills & Utilities", Type: CategoryTypeExpense},
	{Name: "Housing", Type: CategoryTypeExpense},
	{Name: "Education", Type: CategoryTypeExpense},
	{Name: "Personal Care", Type: CategoryTypeExpense},
	{Name: "Travel", Type: CategoryTypeExpense},
	{Name: "Insurance", Type: CategoryTypeExpense},
	{Name: "Taxes", Type: CategoryTypeExpense},
	{Name: "Gifts & Donations", Type: CategoryTypeExpense},
	{Name: "Business Expenses", Type: CategoryTypeExpense},
	{Name: "Other Expenses", Type: CategoryTypeExpense},
	{Name: "Salary", Type: CategoryTypeIncome},
	{Name: "Freelance", Type: CategoryTypeIncome},
	{Name: "Investment", Type: CategoryTypeIncome},
	{Name: "Business", Type: CategoryTypeIncome},
	{Name: "Gifts", Type: CategoryTypeIncome},
	{Name: "Refunds", Type: CategoryTypeIncome},
	{Name: "Other Income", Type: CategoryTypeIncome},
}

type CategoryRepository interface {
	Create(category *Category) (*Category, error)
	CreateBatch(categories []*Category) error
	GetByID(userID string, id int32) (*Category, error)
	GetAllByUser(userID string, categoryType *CategoryType) ([]*Category, error)
	CountByUser(userID string) (int64, error)
	Update(userID string, id int32, name, nameLower string, categoryType CategoryType) (*Category, error)
	Delete(userID string, id int32) error
}
