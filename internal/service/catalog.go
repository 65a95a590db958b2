package service

import (
	"context"      // Request-scoped cancellation
	"strings"      // String helpers
	"unicode/utf8" // Rune counting

	"shop_system/internal/db"     // Database error helpers
	"shop_system/internal/domain" // Domain models and errors
	"shop_system/internal/policy" // Authorization policy
	"shop_system/internal/utils"  // Redis cache

	"github.com/sirupsen/logrus" // Structured logging
	"gorm.io/gorm"               // GORM ORM library
	"gorm.io/gorm/clause"        // Upsert clauses
)

const menuCacheKey = "catalog:menu"

func categoryTaken() error {
	return domain.NewValidationError("Name", "A category with this name already exists.")
}

// CategoryChoice selects the category of a product: an existing category by
// id, or a new one by name.
type CategoryChoice struct {
	id      uint
	newName string
	isNew   bool
}

// ExistingCategory picks the category with the given id.
func ExistingCategory(id uint) CategoryChoice {
	return CategoryChoice{id: id}
}

// NewCategory asks for a category named name, reusing one whose name
// matches ignoring case and surrounding spaces.
func NewCategory(name string) CategoryChoice {
	return CategoryChoice{newName: name, isNew: true}
}

// IsNew reports whether the choice creates a category by name.
func (c CategoryChoice) IsNew() bool { return c.isNew }

// ID is the existing category id; zero for new categories.
func (c CategoryChoice) ID() uint { return c.id }

// NewName is the requested name of a new category.
func (c CategoryChoice) NewName() string { return c.newName }

// ProductInput is the create/edit product form after category decoding
type ProductInput struct {
	Name        string         `validate:"required,max=200"`
	Description string         `validate:"max=500"`
	ImageURL    string         `validate:"max=500"`
	Category    CategoryChoice `validate:"-"`
}

// CategorySummary is a category with the number of products in it
type CategorySummary struct {
	ID           uint   `json:"id"`
	Name         string `json:"name"`
	ProductCount int64  `json:"productCount"`
}

// CatalogService manages products and categories
type CatalogService struct {
	db    *gorm.DB     // Database handle
	cache *utils.Cache // Menu cache; nil disables caching
}

// NewCatalogService returns a CatalogService; cache may be nil
func NewCatalogService(db *gorm.DB, cache *utils.Cache) *CatalogService {
	return &CatalogService{db: db, cache: cache}
}

// ListProducts returns products with their category, filtered by
// categoryID unless it is zero.
func (s *CatalogService) ListProducts(ctx context.Context, categoryID uint) ([]domain.Product, error) {
	q := s.db.WithContext(ctx).Preload("Category").Order("id")
	if categoryID != 0 {
		q = q.Where("category_id = ?", categoryID)
	}
	var products []domain.Product
	if err := q.Find(&products).Error; err != nil {
		return nil, domain.Transient(err)
	}
	return products, nil
}

// CategoryMenu returns the categories that have at least one product.
func (s *CatalogService) CategoryMenu(ctx context.Context) ([]domain.Category, error) {
	var menu []domain.Category
	if found, err := s.cache.Get(ctx, menuCacheKey, &menu); err == nil && found {
		return menu, nil
	} else if err != nil {
		logrus.WithError(err).Warn("Catalog menu cache read failed")
	}
	err := s.db.WithContext(ctx).
		Where("id IN (?)", s.db.Model(&domain.Product{}).Select("category_id")).
		Order("name").
		Find(&menu).Error
	if err != nil {
		return nil, domain.Transient(err)
	}
	if err := s.cache.Set(ctx, menuCacheKey, menu); err != nil {
		logrus.WithError(err).Warn("Catalog menu cache write failed")
	}
	return menu, nil
}

// ListCategories returns every category by name.
func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	var cats []domain.Category
	if err := s.db.WithContext(ctx).Order("name").Find(&cats).Error; err != nil {
		return nil, domain.Transient(err)
	}
	return cats, nil
}

// CategorySummaries lists every category with its product count.
func (s *CatalogService) CategorySummaries(ctx context.Context, caller policy.Caller) ([]CategorySummary, error) {
	if err := policy.Authorize(caller, policy.ManageCatalog); err != nil {
		return nil, err
	}
	var out []CategorySummary
	err := s.db.WithContext(ctx).Model(&domain.Category{}).
		Select("categories.id, categories.name, COUNT(products.id) AS product_count").
		Joins("LEFT JOIN products ON products.category_id = categories.id").
		Group("categories.id, categories.name").
		Order("categories.name").
		Scan(&out).Error
	if err != nil {
		return nil, domain.Transient(err)
	}
	return out, nil
}

// GetProduct returns one product with its category.
func (s *CatalogService) GetProduct(ctx context.Context, id uint) (*domain.Product, error) {
	var p domain.Product
	if err := s.db.WithContext(ctx).Preload("Category").First(&p, id).Error; err != nil {
		if db.IsNotFound(err) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.Transient(err)
	}
	return &p, nil
}

// GetCategory returns one category.
func (s *CatalogService) GetCategory(ctx context.Context, id uint) (*domain.Category, error) {
	var c domain.Category
	if err := s.db.WithContext(ctx).First(&c, id).Error; err != nil {
		if db.IsNotFound(err) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.Transient(err)
	}
	return &c, nil
}

// CreateProduct stores a new product, creating its category inline when asked.
func (s *CatalogService) CreateProduct(ctx context.Context, caller policy.Caller, in ProductInput) (*domain.Product, error) {
	if err := policy.Authorize(caller, policy.ManageCatalog); err != nil {
		return nil, err
	}
	if err := validateProduct(in); err != nil {
		return nil, err
	}
	product := domain.Product{Name: in.Name, Description: in.Description, ImageURL: in.ImageURL}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		catID, err := resolveCategory(tx, in.Category)
		if err != nil {
			return err
		}
		product.CategoryID = catID
		return tx.Create(&product).Error
	})
	if err != nil {
		return nil, domain.Transient(err)
	}
	s.invalidateMenu(ctx)
	logrus.WithFields(logrus.Fields{
		"product_id":  product.ID,
		"category_id": product.CategoryID,
	}).Info("Product created")
	return &product, nil
}

// UpdateProduct rewrites a product, creating its category inline when asked.
func (s *CatalogService) UpdateProduct(ctx context.Context, caller policy.Caller, id uint, in ProductInput) (*domain.Product, error) {
	if err := policy.Authorize(caller, policy.ManageCatalog); err != nil {
		return nil, err
	}
	if err := validateProduct(in); err != nil {
		return nil, err
	}
	var product domain.Product
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&product, id).Error; err != nil {
			if db.IsNotFound(err) {
				return domain.ErrNotFound
			}
			return err
		}
		catID, err := resolveCategory(tx, in.Category)
		if err != nil {
			return err
		}
		product.Name, product.Description, product.ImageURL, product.CategoryID = in.Name, in.Description, in.ImageURL, catID
		return tx.Model(&product).Updates(map[string]any{
			"name":        in.Name,
			"description": in.Description,
			"image_url":   in.ImageURL,
			"category_id": catID,
		}).Error
	})
	if err != nil {
		return nil, domain.Transient(err)
	}
	s.invalidateMenu(ctx)
	logrus.WithFields(logrus.Fields{
		"product_id":  product.ID,
		"category_id": product.CategoryID,
	}).Info("Product updated")
	return &product, nil
}

// DeleteProduct removes a product and the order lines that reference it.
func (s *CatalogService) DeleteProduct(ctx context.Context, caller policy.Caller, id uint) error {
	if err := policy.Authorize(caller, policy.ManageCatalog); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&domain.OrderItem{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&domain.Product{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return domain.Transient(err)
	}
	s.invalidateMenu(ctx)
	logrus.WithField("product_id", id).Info("Product deleted")
	return nil
}

// RenameCategory renames a category. Names stay unique ignoring case.
func (s *CatalogService) RenameCategory(ctx context.Context, caller policy.Caller, id uint, name string) (*domain.Category, error) {
	if err := policy.Authorize(caller, policy.ManageCatalog); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if err := validateCategoryName("Name", name); err != nil {
		return nil, err
	}
	var cat domain.Category
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&cat, id).Error; err != nil {
			if db.IsNotFound(err) {
				return domain.ErrNotFound
			}
			return err
		}
		taken, err := exists(tx.Model(&domain.Category{}).Where("name_key = ? AND id <> ?", domain.CategoryKey(name), id))
		if err != nil {
			return err
		}
		if taken {
			return categoryTaken()
		}
		cat.Name = name
		return tx.Model(&cat).Updates(map[string]any{
			"name":     name,
			"name_key": domain.CategoryKey(name),
		}).Error
	})
	if db.IsDuplicate(err) {
		err = categoryTaken() // Renamed concurrently to the same key
	}
	if err != nil {
		return nil, domain.Transient(err)
	}
	s.invalidateMenu(ctx)
	logrus.WithField("category_id", cat.ID).Info("Category renamed")
	return &cat, nil
}

// DeleteCategory removes a category with its products and their order lines.
func (s *CatalogService) DeleteCategory(ctx context.Context, caller policy.Caller, id uint) error {
	if err := policy.Authorize(caller, policy.ManageCatalog); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		productIDs := tx.Model(&domain.Product{}).Select("id").Where("category_id = ?", id)
		if err := tx.Where("product_id IN (?)", productIDs).Delete(&domain.OrderItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("category_id = ?", id).Delete(&domain.Product{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&domain.Category{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return domain.Transient(err)
	}
	s.invalidateMenu(ctx)
	logrus.WithField("category_id", id).Info("Category deleted")
	return nil
}

func (s *CatalogService) invalidateMenu(ctx context.Context) {
	if err := s.cache.Delete(ctx, menuCacheKey); err != nil {
		logrus.WithError(err).Warn("Catalog menu cache invalidation failed")
	}
}

// validateProduct checks the product fields and the static part of the
// category choice together, so the form shows every problem at once.
func validateProduct(in ProductInput) error {
	extra := &domain.ValidationError{}
	if in.Category.IsNew() {
		if err := validateCategoryName("NewCategoryName", strings.TrimSpace(in.Category.NewName())); err != nil {
			for f, m := range err.Fields {
				extra.Add(f, m)
			}
		}
	} else if in.Category.ID() == 0 {
		extra.Add("CategoryId", "The category is required.")
	}
	return mergeValidation(validateStruct(in), extra)
}

func validateCategoryName(field, name string) *domain.ValidationError {
	switch {
	case name == "":
		return domain.NewValidationError(field, "The category name is required.")
	case utf8.RuneCountInString(name) > 100:
		return domain.NewValidationError(field, "The category name must be at most 100 characters.")
	}
	return nil
}

// resolveCategory turns a choice into a category id inside tx. New names
// reuse an existing category whose lower-cased name matches.
func resolveCategory(tx *gorm.DB, choice CategoryChoice) (uint, error) {
	if !choice.IsNew() {
		var n int64
		if err := tx.Model(&domain.Category{}).Where("id = ?", choice.ID()).Count(&n).Error; err != nil {
			return 0, err
		}
		if n == 0 {
			return 0, domain.NewValidationError("CategoryId", "The selected category does not exist.")
		}
		return choice.ID(), nil
	}
	name := strings.TrimSpace(choice.NewName())
	id, found, err := categoryByKey(tx, name)
	if err != nil || found {
		return id, err
	}
	// The unique name_key index settles concurrent inserts of the same name;
	// the loser reuses the winner's row.
	cat := domain.Category{Name: name}
	res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&cat)
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		id, found, err := categoryByKey(tx, name)
		if err != nil {
			return 0, err
		}
		if !found {
			// Winner not visible in this transaction's snapshot yet
			return 0, &domain.ConflictError{Reason: domain.ReasonRetry}
		}
		return id, nil
	}
	logrus.WithFields(logrus.Fields{
		"category_id": cat.ID,
		"name":        cat.Name,
	}).Info("Category created inline")
	return cat.ID, nil
}

// categoryByKey finds the category whose name matches ignoring case.
func categoryByKey(tx *gorm.DB, name string) (uint, bool, error) {
	var existing domain.Category
	err := tx.Where("name_key = ?", domain.CategoryKey(name)).First(&existing).Error
	if err != nil {
		if db.IsNotFound(err) {
			return 0, false, nil
		}
		return 0, false, err
	}
	logrus.WithField("category_id", existing.ID).Info("Reusing existing category")
	return existing.ID, true, nil
}
