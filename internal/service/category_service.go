package service

import (
	"strings"

	"github.com/finchapp/finch/finch-backend/internal/domain"
)

// CategoryService handles category-related business logic
type CategoryService struct {
	categoryRepo domain.CategoryRepository
}

// NewCategoryService creates a new CategoryService
func NewCategoryService(categoryRepo domain.CategoryRepository) *CategoryService {
	return &CategoryService{categoryRepo: categoryRepo}
}

// CreateCategory creates a new category with validation. Name uniqueness is
// case-insensitive per user.
func (s *CategoryService) CreateCategory(userID string, name string, categoryType domain.CategoryType) (*domain.Category, error) {
	// Validate name
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrNameRequired
	}
	if len(name) > domain.MaxCategoryNameLength {
		return nil, domain.ErrNameTooLong
	}

	// Validate category type
	if !categoryType.IsValid() {
		return nil, domain.ErrInvalidCategoryType
	}

	category := &domain.Category{
		UserID:    userID,
		Name:      name,
		NameLower: strings.ToLower(name),
		Type:      categoryType,
	}

	return s.categoryRepo.Create(category)
}

// GetCategories retrieves the user's categories sorted by name, optionally
// filtered by type. A user with no categories at all is seeded with the
// default set first; seeding happens only on that first empty list.
func (s *CategoryService) GetCategories(userID string, categoryType *domain.CategoryType) ([]*domain.Category, error) {
	if categoryType != nil && !categoryType.IsValid() {
		return nil, domain.ErrInvalidCategoryType
	}

	count, err := s.categoryRepo.CountByUser(userID)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		if err := s.seedDefaults(userID); err != nil {
			return nil, err
		}
	}

	return s.categoryRepo.GetAllByUser(userID, categoryType)
}

// GetCategoryByID retrieves a category by ID scoped to the user
func (s *CategoryService) GetCategoryByID(userID string, id int32) (*domain.Category, error) {
	return s.categoryRepo.GetByID(userID, id)
}

// UpdateCategory updates a category's name and type with validation
func (s *CategoryService) UpdateCategory(userID string, id int32, name string, categoryType domain.CategoryType) (*domain.Category, error) {
	// Validate name
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrNameRequired
	}
	if len(name) > domain.MaxCategoryNameLength {
		return nil, domain.ErrNameTooLong
	}

	// Validate category type
	if !categoryType.IsValid() {
		return nil, domain.ErrInvalidCategoryType
	}

	return s.categoryRepo.Update(userID, id, name, strings.ToLower(name), categoryType)
}

// DeleteCategory deletes a category. Transactions referencing it are left in
// place and keep their category_id.
func (s *CategoryService) DeleteCategory(userID string, id int32) error {
	return s.categoryRepo.Delete(userID, id)
}

func (s *CategoryService) seedDefaults(userID string) error {
	categories := make([]*domain.Category, 0, len(domain.DefaultCategories))
	for _, def := range domain.DefaultCategories {
		categories = append(categories, &domain.Category{
			UserID:    userID,
			Name:      def.Name,
			NameLower: strings.ToLower(def.Name),
			Type:      def.Type,
		})
	}
	return s.categoryRepo.CreateBatch(categories)
}
