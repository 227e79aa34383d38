package service

import (
	"strings"
	"testing"

	"github.com/finchapp/finch/finch-backend/internal/domain"
	"github.com/finchapp/finch/finch-backend/internal/testutil"
)

func TestCreateCategory_Success(t *testing.T) {
	categoryRepo := testutil.NewMockCategoryRepository()
	categoryService := NewCategoryService(categoryRepo)

	userID := "auth0|user1"

	category, err := categoryService.CreateCategory(userID, "Groceries", domain.CategoryTypeExpense)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if category.Name != "Groceries" {
		t.Errorf("Expected name 'Groceries', got %s", category.Name)
	}

	if category.NameLower != "groceries" {
		t.Errorf("Expected name_lower 'groceries', got %s", category.NameLower)
	}

	if category.UserID != userID {
		t.Errorf("Expected user ID %s, got %s", userID, category.UserID)
	}
}

func TestCreateCategory_EmptyName(t *testing.T) {
	categoryRepo := testutil.NewMockCategoryRepository()
	categoryService := NewCategoryService(categoryRepo)

	_, err := categoryService.CreateCategory("auth0|user1", "   ", domain.CategoryTypeExpense)
	if err != domain.ErrNameRequired {
		t.Errorf("Expected ErrNameRequired, got %v", err)
	}
}

func TestCreateCategory_TrimsName(t *testing.T) {
	categoryRepo := testutil.NewMockCategoryRepository()
	categoryService := NewCategoryService(categoryRepo)

	category, err := categoryService.CreateCategory("auth0|user1", "  Groceries  ", domain.CategoryTypeExpense)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if category.Name != "Groceries" {
		t.Errorf("Expected trimmed name 'Groceries', got '%s'", category.Name)
	}
}

func TestCreateCategory_NameTooLong(t *testing.T) {
	categoryRepo := testutil.NewMockCategoryRepository()
	categoryService := NewCategoryService(categoryRepo)

	longName := strings.Repeat("a", 101)

	_, err := categoryService.CreateCategory("auth0|user1", longName, domain.CategoryTypeExpense)
	if err != domain.ErrNameTooLong {
		t.Errorf("Expected ErrNameTooLong, got %v", err)
	}
}

func TestCreateCategory_InvalidType(t *testing.T) {
	categoryRepo := testutil.NewMockCategoryRepository()
	categoryService := NewCategoryService(categoryRepo)

	_, err := categoryService.CreateCategory("auth0|user1", "Groceries", domain.CategoryType("savings"))
	if err != domain.ErrInvalidCategoryType {
		t.Errorf("Expected ErrInvalidCategoryType, got %v", err)
	}
}

func TestCreateCategory_DuplicateNameCaseInsensitive(t *testing.T) {
	categoryRepo := testutil.NewMockCategoryRepository()
	categoryService := NewCategoryService(categoryRepo)

	userID := "auth0|user1"

	if _, err := categoryService.CreateCategory(userID, "Groceries", domain.CategoryTypeExpense); err != nil {
		t.Fatalf("Expected no error for first create, got %v", err)
	}

	_, err := categoryService.CreateCategory(userID, "GROCERIES", domain.CategoryTypeExpense)
	if err != domain.ErrCategoryAlreadyExists {
		t.Errorf("Expected ErrCategoryAlreadyExists, got %v", err)
	}
}

func TestCreateCategory_SameNamePerUserAllowed(t *testing.T) {
	categoryRepo := testutil.NewMockCategoryRepository()
	categoryService := NewCategoryService(categoryRepo)

	if _, err := categoryService.CreateCategory("auth0|user1", "Groceries", domain.CategoryTypeExpense); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	// A different user can use the same name
	if _, err := categoryService.CreateCategory("auth0|user2", "Groceries", domain.CategoryTypeExpense); err != nil {
		t.Errorf("Expected no error for second user, got %v", err)
	}
}

func TestGetCategories_SeedsDefaultsOnFirstList(t *testing.T) {
	categoryRepo := testutil.NewMockCategoryRepository()
	categoryService := NewCategoryService(categoryRepo)

	userID := "auth0|user1"

	categories, err := categoryService.GetCategories(userID, nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(categories) != len(domain.DefaultCategories) {
		t.Fatalf("Expected %d seeded categories, got %d", len(domain.DefaultCategories), len(categories))
	}

	// Listing again must not seed twice
	categories, err = categoryService.GetCategories(userID, nil)
	if err != nil {
		t.Fatalf("Expected no error on second list, got %v", err)
	}
	if len(categories) != len(domain.DefaultCategories) {
		t.Errorf("Expected %d categories after second list, got %d", len(domain.DefaultCategories), len(categories))
	}
}

func TestGetCategories_NoReseedAfterDelete(t *testing.T) {
	categoryRepo := testutil.NewMockCategoryRepository()
	categoryService := NewCategoryService(categoryRepo)

	userID := "auth0|user1"
	categoryRepo.AddCategory(&domain.Category{ID: 1, UserID: userID, Name: "Only One", Type: domain.CategoryTypeExpense})

	categories, err := categoryService.GetCategories(userID, nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(categories) != 1 {
		t.Errorf("Expected 1 category, no seeding for non-empty user, got %d", len(categories))
	}
}

func TestGetCategories_TypeFilter(t *testing.T) {
	categoryRepo := testutil.NewMockCategoryRepository()
	categoryService := NewCategoryService(categoryRepo)

	userID := "auth0|user1"
	categoryRepo.AddCategory(&domain.Category{ID: 1, UserID: userID, Name: "Salary", Type: domain.CategoryTypeIncome})
	categoryRepo.AddCategory(&domain.Category{ID: 2, UserID: userID, Name: "Rent", Type: domain.CategoryTypeExpense})

	income := domain.CategoryTypeIncome
	categories, err := categoryService.GetCategories(userID, &income)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(categories) != 1 {
		t.Fatalf("Expected 1 income category, got %d", len(categories))
	}
	if categories[0].Name != "Salary" {
		t.Errorf("Expected 'Salary', got %s", categories[0].Name)
	}
}

func TestGetCategories_InvalidTypeFilter(t *testing.T) {
	categoryRepo := testutil.NewMockCategoryRepository()
	categoryService := NewCategoryService(categoryRepo)

	bad := domain.CategoryType("savings")
	_, err := categoryService.GetCategories("auth0|user1", &bad)
	if err != domain.ErrInvalidCategoryType {
		t.Errorf("Expected ErrInvalidCategoryType, got %v", err)
	}
}

func TestUpdateCategory_Success(t *testing.T) {
	categoryRepo := testutil.NewMockCategoryRepository()
	categoryService := NewCategoryService(categoryRepo)

	userID := "auth0|user1"
	categoryRepo.AddCategory(&domain.Category{ID: 1, UserID: userID, Name: "Groceries", Type: domain.CategoryTypeExpense})

	category, err := categoryService.UpdateCategory(userID, 1, "Food", domain.CategoryTypeExpense)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if category.Name != "Food" {
		t.Errorf("Expected name 'Food', got %s", category.Name)
	}
	if category.NameLower != "food" {
		t.Errorf("Expected name_lower 'food', got %s", category.NameLower)
	}
}

func TestUpdateCategory_NotFound(t *testing.T) {
	categoryRepo := testutil.NewMockCategoryRepository()
	categoryService := NewCategoryService(categoryRepo)

	_, err := categoryService.UpdateCategory("auth0|user1", 42, "Food", domain.CategoryTypeExpense)
	if err != domain.ErrCategoryNotFound {
		t.Errorf("Expected ErrCategoryNotFound, got %v", err)
	}
}

func TestDeleteCategory_CrossUser(t *testing.T) {
	categoryRepo := testutil.NewMockCategoryRepository()
	categoryService := NewCategoryService(categoryRepo)

	categoryRepo.AddCategory(&domain.Category{ID: 1, UserID: "auth0|owner", Name: "Groceries", Type: domain.CategoryTypeExpense})

	// Another user cannot see or delete it
	if err := categoryService.DeleteCategory("auth0|intruder", 1); err != domain.ErrCategoryNotFound {
		t.Errorf("Expected ErrCategoryNotFound for foreign category, got %v", err)
	}

	if err := categoryService.DeleteCategory("auth0|owner", 1); err != nil {
		t.Errorf("Expected owner delete to succeed, got %v", err)
	}
}
