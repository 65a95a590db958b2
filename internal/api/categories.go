package api

import (
	"shop_system/internal/middleware" // Caller identity
	"shop_system/internal/service"    // Catalog service

	"github.com/gin-gonic/gin" // Gin web framework
)

// Category views
const (
	viewCategoryIndex  = "Categories/Index"
	viewCategoryEdit   = "Categories/Edit"
	viewCategoryDelete = "Categories/Delete"
)

// categoryForm is the rename form
type categoryForm struct {
	Name string `form:"Name" json:"name"`
}

// ListCategoriesHandler lists every category with its product count
func ListCategoriesHandler(catalog *service.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		sums, err := catalog.CategorySummaries(c.Request.Context(), middleware.CallerFrom(c))
		if err != nil {
			fail(c, err, "", nil)
			return
		}
		render(c, viewCategoryIndex, sums)
	}
}

// EditCategoryFormHandler renders the rename form
func EditCategoryFormHandler(catalog *service.CatalogService) gin.HandlerFunc {
	return categoryPage(catalog, viewCategoryEdit)
}

// DeleteCategoryFormHandler shows the delete confirmation
func DeleteCategoryFormHandler(catalog *service.CatalogService) gin.HandlerFunc {
	return categoryPage(catalog, viewCategoryDelete)
}

func categoryPage(catalog *service.CatalogService, view string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		cat, err := catalog.GetCategory(c.Request.Context(), id)
		if err != nil {
			fail(c, err, "", nil)
			return
		}
		render(c, view, cat)
	}
}

// EditCategoryHandler renames a category
func EditCategoryHandler(catalog *service.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		var form categoryForm // Bind form to struct
		if !bindForm(c, &form, viewCategoryEdit) {
			return
		}
		if _, err := catalog.RenameCategory(c.Request.Context(), middleware.CallerFrom(c), id, form.Name); err != nil {
			fail(c, err, viewCategoryEdit, form)
			return
		}
		redirect(c, "/Categories")
	}
}

// DeleteCategoryHandler removes a category, its products and their order lines
func DeleteCategoryHandler(catalog *service.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		if err := catalog.DeleteCategory(c.Request.Context(), middleware.CallerFrom(c), id); err != nil {
			fail(c, err, viewCategoryDelete, gin.H{"id": id})
			return
		}
		redirect(c, "/Categories")
	}
}
