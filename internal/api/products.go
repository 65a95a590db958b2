package api

import (
	"strconv" // Query parsing

	"shop_system/internal/domain"     // Importing domain models
	"shop_system/internal/middleware" // Caller identity
	"shop_system/internal/service"    // Catalog service

	"github.com/gin-gonic/gin" // Gin web framework
)

// Product views
const (
	viewProductIndex   = "Products/Index"
	viewProductDetails = "Products/Details"
	viewProductCreate  = "Products/Create"
	viewProductEdit    = "Products/Edit"
	viewProductDelete  = "Products/Delete"
)

// productForm is the create/edit product form. A negative CategoryID asks
// for a new category named NewCategoryName.
type productForm struct {
	Name            string            `form:"Name" json:"name"`                       // Product name
	Description     string            `form:"Description" json:"description"`         // Optional description
	ImageURL        string            `form:"ImageUrl" json:"imageUrl"`               // Optional image address
	CategoryID      int64             `form:"CategoryId" json:"categoryId"`           // Existing category, or negative for new
	NewCategoryName string            `form:"NewCategoryName" json:"newCategoryName"` // Name when creating a category inline
	Categories      []domain.Category `form:"-" json:"categories"`                    // Select list
	Product         *domain.Product   `form:"-" json:"product,omitempty"`             // Product being edited
}

// input decodes the form into the service input
func (f productForm) input() service.ProductInput {
	in := service.ProductInput{Name: f.Name, Description: f.Description, ImageURL: f.ImageURL}
	switch {
	case f.CategoryID < 0:
		in.Category = service.NewCategory(f.NewCategoryName)
	default:
		in.Category = service.ExistingCategory(uint(f.CategoryID))
	}
	return in
}

// ListProductsHandler lists products, optionally filtered by ?categoryId=,
// with the menu of non-empty categories
func ListProductsHandler(catalog *service.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var categoryID uint64
		if q := c.Query("categoryId"); q != "" {
			v, err := strconv.ParseUint(q, 10, 64)
			if err != nil {
				notFound(c)
				return
			}
			categoryID = v
		}
		products, err := catalog.ListProducts(c.Request.Context(), uint(categoryID))
		if err != nil {
			fail(c, err, "", nil)
			return
		}
		menu, err := catalog.CategoryMenu(c.Request.Context())
		if err != nil {
			fail(c, err, "", nil)
			return
		}
		render(c, viewProductIndex, gin.H{
			"products":   products,   // Products shown
			"categories": menu,       // Filter menu
			"categoryId": categoryID, // Active filter, 0 for all
		})
	}
}

// ProductDetailsHandler shows one product
func ProductDetailsHandler(catalog *service.CatalogService) gin.HandlerFunc {
	return productPage(catalog, viewProductDetails)
}

// DeleteProductFormHandler shows the delete confirmation
func DeleteProductFormHandler(catalog *service.CatalogService) gin.HandlerFunc {
	return productPage(catalog, viewProductDelete)
}

func productPage(catalog *service.CatalogService, view string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		p, err := catalog.GetProduct(c.Request.Context(), id)
		if err != nil {
			fail(c, err, "", nil)
			return
		}
		render(c, view, p)
	}
}

// CreateProductFormHandler renders the empty product form
func CreateProductFormHandler(catalog *service.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		form := productForm{}
		if !withCategories(c, catalog, &form) {
			return
		}
		render(c, viewProductCreate, form)
	}
}

// CreateProductHandler stores a product, creating its category inline when
// CategoryId is negative
func CreateProductHandler(catalog *service.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var form productForm // Bind form to struct
		if !bindForm(c, &form, viewProductCreate) {
			return
		}
		if _, err := catalog.CreateProduct(c.Request.Context(), middleware.CallerFrom(c), form.input()); err != nil {
			if withCategories(c, catalog, &form) {
				fail(c, err, viewProductCreate, form)
			}
			return
		}
		redirect(c, "/Products")
	}
}

// EditProductFormHandler renders the product form filled from the record
func EditProductFormHandler(catalog *service.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		p, err := catalog.GetProduct(c.Request.Context(), id)
		if err != nil {
			fail(c, err, "", nil)
			return
		}
		form := productForm{
			Name:        p.Name,
			Description: p.Description,
			ImageURL:    p.ImageURL,
			CategoryID:  int64(p.CategoryID),
			Product:     p,
		}
		if !withCategories(c, catalog, &form) {
			return
		}
		render(c, viewProductEdit, form)
	}
}

// EditProductHandler rewrites a product
func EditProductHandler(catalog *service.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		var form productForm // Bind form to struct
		if !bindForm(c, &form, viewProductEdit) {
			return
		}
		if _, err := catalog.UpdateProduct(c.Request.Context(), middleware.CallerFrom(c), id, form.input()); err != nil {
			if withCategories(c, catalog, &form) {
				fail(c, err, viewProductEdit, form)
			}
			return
		}
		redirect(c, "/Products")
	}
}

// DeleteProductHandler removes a product and its order lines
func DeleteProductHandler(catalog *service.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		if err := catalog.DeleteProduct(c.Request.Context(), middleware.CallerFrom(c), id); err != nil {
			fail(c, err, viewProductDelete, gin.H{"id": id})
			return
		}
		redirect(c, "/Products")
	}
}

// withCategories fills the category select list, failing the request when
// it cannot be loaded.
func withCategories(c *gin.Context, catalog *service.CatalogService, form *productForm) bool {
	cats, err := catalog.ListCategories(c.Request.Context())
	if err != nil {
		fail(c, err, "", nil)
		return false
	}
	form.Categories = cats
	return true
}
