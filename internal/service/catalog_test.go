package service

import (
	"context"
	"testing"
	"time"

	"shop_system/internal/db/dbtest"
	"shop_system/internal/domain"
	"shop_system/internal/policy"
	"shop_system/internal/utils"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestCreateProductWithNewCategoryIgnoresCase(t *testing.T) {
	conn := dbtest.New(t)
	admin := seedUser(t, conn, "root", true)
	svc := NewCatalogService(conn, nil)
	ctx := context.Background()

	first, err := svc.CreateProduct(ctx, admin, ProductInput{Name: "Go Book", Category: NewCategory("Books")})
	require.NoError(t, err)
	second, err := svc.CreateProduct(ctx, admin, ProductInput{Name: "Rust Book", Category: NewCategory("  books ")})
	require.NoError(t, err)

	assert.Equal(t, first.CategoryID, second.CategoryID)
	assert.EqualValues(t, 1, count(t, conn, &domain.Category{}))

	cat, err := svc.GetCategory(ctx, first.CategoryID)
	require.NoError(t, err)
	assert.Equal(t, "Books", cat.Name)
}

func TestNewCategoryRaceReusesWinner(t *testing.T) {
	conn := dbtest.New(t)
	admin := seedUser(t, conn, "root", true)

	// Another request commits "BOOKS" after our lookup missed
	var rival domain.Category
	raced := false
	require.NoError(t, conn.Callback().Create().Before("gorm:create").Register("test:rival_category", func(tx *gorm.DB) {
		if _, ok := tx.Statement.Dest.(*domain.Category); !ok || raced {
			return
		}
		raced = true
		rival = domain.Category{Name: "BOOKS"}
		tx.AddError(tx.Session(&gorm.Session{NewDB: true}).Create(&rival).Error)
	}))

	p, err := NewCatalogService(conn, nil).CreateProduct(context.Background(), admin, ProductInput{Name: "Go Book", Category: NewCategory("Books")})
	require.NoError(t, err)
	require.True(t, raced)
	assert.Equal(t, rival.ID, p.CategoryID)
	assert.EqualValues(t, 1, count(t, conn, &domain.Category{}))
}

func TestCreateProductWithExistingCategory(t *testing.T) {
	conn := dbtest.New(t)
	admin := seedUser(t, conn, "root", true)
	existing := seedProduct(t, conn, "Pen", "Office")
	svc := NewCatalogService(conn, nil)
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, admin, ProductInput{Name: "Ink", Category: ExistingCategory(existing.CategoryID)})
	require.NoError(t, err)
	assert.Equal(t, existing.CategoryID, p.CategoryID)

	got, err := svc.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Category)
	assert.Equal(t, "Office", got.Category.Name)
}

func TestCreateProductValidation(t *testing.T) {
	conn := dbtest.New(t)
	admin := seedUser(t, conn, "root", true)
	svc := NewCatalogService(conn, nil)
	ctx := context.Background()

	_, err := svc.CreateProduct(ctx, admin, ProductInput{Category: ExistingCategory(0)})
	requireValidation(t, err, "Name", "CategoryId")

	_, err = svc.CreateProduct(ctx, admin, ProductInput{Name: "X", Category: NewCategory("   ")})
	requireValidation(t, err, "NewCategoryName")

	_, err = svc.CreateProduct(ctx, admin, ProductInput{Name: "X", Category: ExistingCategory(999)})
	requireValidation(t, err, "CategoryId")

	assert.Zero(t, count(t, conn, &domain.Product{}))
	assert.Zero(t, count(t, conn, &domain.Category{}))
}

func TestCatalogMutationsRequireAdmin(t *testing.T) {
	conn := dbtest.New(t)
	customer := seedUser(t, conn, "alice", false)
	p := seedProduct(t, conn, "Pen", "Office")
	svc := NewCatalogService(conn, nil)
	ctx := context.Background()

	_, err := svc.CreateProduct(ctx, customer, ProductInput{Name: "X", Category: NewCategory("Y")})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = svc.UpdateProduct(ctx, policy.Caller{}, p.ID, ProductInput{Name: "X", Category: NewCategory("Y")})
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	assert.ErrorIs(t, svc.DeleteProduct(ctx, customer, p.ID), domain.ErrForbidden)
	_, err = svc.CategorySummaries(ctx, customer)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestUpdateProduct(t *testing.T) {
	conn := dbtest.New(t)
	admin := seedUser(t, conn, "root", true)
	p := seedProduct(t, conn, "Pen", "Office")
	svc := NewCatalogService(conn, nil)
	ctx := context.Background()

	updated, err := svc.UpdateProduct(ctx, admin, p.ID, ProductInput{Name: "Fountain Pen", Description: "blue", Category: NewCategory("Luxury")})
	require.NoError(t, err)
	assert.Equal(t, "Fountain Pen", updated.Name)
	assert.NotEqual(t, p.CategoryID, updated.CategoryID)

	_, err = svc.UpdateProduct(ctx, admin, 999, ProductInput{Name: "X", Category: ExistingCategory(p.CategoryID)})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteProductRemovesOrderLines(t *testing.T) {
	conn := dbtest.New(t)
	admin := seedUser(t, conn, "root", true)
	pen := seedProduct(t, conn, "Pen", "Office")
	ink := seedProduct(t, conn, "Ink", "Office")
	_, err := NewOrderService(conn, nil).Create(context.Background(), admin, OrderInput{SelectedProductIDs: []uint{pen.ID, ink.ID}})
	require.NoError(t, err)
	svc := NewCatalogService(conn, nil)

	require.NoError(t, svc.DeleteProduct(context.Background(), admin, pen.ID))
	assert.EqualValues(t, 1, count(t, conn, &domain.OrderItem{}))
	assert.EqualValues(t, 1, count(t, conn, &domain.Order{}))

	assert.ErrorIs(t, svc.DeleteProduct(context.Background(), admin, pen.ID), domain.ErrNotFound)
}

func TestListProductsByCategory(t *testing.T) {
	conn := dbtest.New(t)
	pen := seedProduct(t, conn, "Pen", "Office")
	seedProduct(t, conn, "Apple", "Food")
	svc := NewCatalogService(conn, nil)
	ctx := context.Background()

	all, err := svc.ListProducts(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	office, err := svc.ListProducts(ctx, pen.CategoryID)
	require.NoError(t, err)
	require.Len(t, office, 1)
	assert.Equal(t, "Pen", office[0].Name)
	assert.Equal(t, "Office", office[0].Category.Name)
}

func TestCategoryMenuIsCachedAndInvalidated(t *testing.T) {
	conn := dbtest.New(t)
	admin := seedUser(t, conn, "root", true)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	svc := NewCatalogService(conn, utils.NewCache(rdb, "shop:", time.Minute))
	ctx := context.Background()

	seedProduct(t, conn, "Pen", "Office")
	require.NoError(t, conn.Create(&domain.Category{Name: "Empty"}).Error)

	menu, err := svc.CategoryMenu(ctx)
	require.NoError(t, err)
	require.Len(t, menu, 1)
	assert.Equal(t, "Office", menu[0].Name)
	assert.True(t, mr.Exists("shop:"+menuCacheKey))

	_, err = svc.CreateProduct(ctx, admin, ProductInput{Name: "Apple", Category: NewCategory("Food")})
	require.NoError(t, err)
	assert.False(t, mr.Exists("shop:"+menuCacheKey))

	menu, err = svc.CategoryMenu(ctx)
	require.NoError(t, err)
	assert.Len(t, menu, 2)
}

func TestCategorySummariesAndRename(t *testing.T) {
	conn := dbtest.New(t)
	admin := seedUser(t, conn, "root", true)
	pen := seedProduct(t, conn, "Pen", "Office")
	seedProduct(t, conn, "Ink", "Office")
	food := seedProduct(t, conn, "Apple", "Food")
	svc := NewCatalogService(conn, nil)
	ctx := context.Background()

	sums, err := svc.CategorySummaries(ctx, admin)
	require.NoError(t, err)
	require.Len(t, sums, 2)
	assert.Equal(t, CategorySummary{ID: food.CategoryID, Name: "Food", ProductCount: 1}, sums[0])
	assert.Equal(t, CategorySummary{ID: pen.CategoryID, Name: "Office", ProductCount: 2}, sums[1])

	_, err = svc.RenameCategory(ctx, admin, food.CategoryID, "OFFICE")
	requireValidation(t, err, "Name")

	cat, err := svc.RenameCategory(ctx, admin, food.CategoryID, " Fruit ")
	require.NoError(t, err)
	assert.Equal(t, "Fruit", cat.Name)

	_, err = svc.RenameCategory(ctx, admin, 999, "Other")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteCategoryCascades(t *testing.T) {
	conn := dbtest.New(t)
	admin := seedUser(t, conn, "root", true)
	pen := seedProduct(t, conn, "Pen", "Office")
	apple := seedProduct(t, conn, "Apple", "Food")
	_, err := NewOrderService(conn, nil).Create(context.Background(), admin, OrderInput{SelectedProductIDs: []uint{pen.ID, apple.ID}})
	require.NoError(t, err)
	svc := NewCatalogService(conn, nil)

	require.NoError(t, svc.DeleteCategory(context.Background(), admin, pen.CategoryID))
	assert.EqualValues(t, 1, count(t, conn, &domain.Category{}))
	assert.EqualValues(t, 1, count(t, conn, &domain.Product{}))
	assert.EqualValues(t, 1, count(t, conn, &domain.OrderItem{}))

	assert.ErrorIs(t, svc.DeleteCategory(context.Background(), admin, pen.CategoryID), domain.ErrNotFound)
}
