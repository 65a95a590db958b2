package api

import (
	"time" // Cache TTL

	"shop_system/internal/metrics"    // Prometheus collectors
	"shop_system/internal/middleware" // Request pipeline
	"shop_system/internal/policy"     // Route guards
	"shop_system/internal/service"    // Domain services
	"shop_system/internal/session"    // Session store
	"shop_system/internal/utils"      // Redis cache

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"gorm.io/gorm"                 // GORM ORM library
)

// Deps is everything the router needs
type Deps struct {
	DB             *gorm.DB            // Database handle
	Redis          *redis.Client       // Cache backend; nil disables caching
	Sessions       *session.RedisStore // Session store
	Metrics        *metrics.Metrics    // Collectors; nil disables /metrics
	CacheTTL       time.Duration       // Catalog menu cache TTL
	TrustedProxies []string            // Proxies whose X-Forwarded-For is honoured
}

// NewRouter wires services, middleware and routes
func NewRouter(d Deps) (*gin.Engine, error) {
	r := gin.New()
	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies(d.TrustedProxies); err != nil {
		return nil, err
	}
	r.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.RequestLogger(d.Metrics),
		session.Middleware(d.Sessions),
		middleware.LoadCaller(d.DB, d.Sessions),
	)

	auth := service.NewAuthService(d.DB, d.Metrics)
	catalog := service.NewCatalogService(d.DB, utils.NewCache(d.Redis, "shop:", d.CacheTTL))
	orders := service.NewOrderService(d.DB, d.Metrics)
	users := service.NewUserService(d.DB)

	r.GET("/", HomeHandler())
	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}

	// Auth routes
	authGroup := r.Group("/Auth")
	authGroup.GET("/Register", middleware.Require(policy.Register), RegisterFormHandler())
	authGroup.POST("/Register", RegisterHandler(auth))
	authGroup.GET("/Login", middleware.Require(policy.Login), LoginFormHandler())
	authGroup.POST("/Login", LoginHandler(auth, d.Sessions))
	authGroup.GET("/Logout", LogoutHandler(auth, d.Sessions))

	// Catalog routes; browsing is public
	products := r.Group("/Products")
	products.GET("", ListProductsHandler(catalog))
	products.GET("/Details/:id", ProductDetailsHandler(catalog))
	manageProducts := products.Group("", middleware.Require(policy.ManageCatalog))
	manageProducts.GET("/Create", CreateProductFormHandler(catalog))
	manageProducts.POST("/Create", CreateProductHandler(catalog))
	manageProducts.GET("/Edit/:id", EditProductFormHandler(catalog))
	manageProducts.POST("/Edit/:id", EditProductHandler(catalog))
	manageProducts.GET("/Delete/:id", DeleteProductFormHandler(catalog))
	manageProducts.POST("/Delete/:id", DeleteProductHandler(catalog))

	categories := r.Group("/Categories", middleware.Require(policy.ManageCatalog))
	categories.GET("", ListCategoriesHandler(catalog))
	categories.GET("/Edit/:id", EditCategoryFormHandler(catalog))
	categories.POST("/Edit/:id", EditCategoryHandler(catalog))
	categories.GET("/Delete/:id", DeleteCategoryFormHandler(catalog))
	categories.POST("/Delete/:id", DeleteCategoryHandler(catalog))

	// Order routes (logged-in callers; services scope what they see)
	orderGroup := r.Group("/Orders", middleware.Require(policy.ViewOrder))
	orderGroup.GET("", ListOrdersHandler(orders))
	orderGroup.GET("/Details/:id", OrderDetailsHandler(orders))
	orderGroup.GET("/Create", CreateOrderFormHandler(orders))
	orderGroup.POST("/Create", CreateOrderHandler(orders))
	orderGroup.GET("/Edit/:id", middleware.Require(policy.EditOrder), EditOrderFormHandler(orders))
	orderGroup.POST("/Edit/:id", middleware.Require(policy.EditOrder), EditOrderHandler(orders))
	orderGroup.GET("/Delete/:id", middleware.Require(policy.DeleteOrder), DeleteOrderFormHandler(orders))
	orderGroup.POST("/Delete/:id", middleware.Require(policy.DeleteOrder), DeleteOrderHandler(orders))

	// User admin routes (admin only)
	userGroup := r.Group("/Users", middleware.Require(policy.ManageUsers))
	userGroup.GET("", ListUsersHandler(users))
	userGroup.GET("/Details/:id", UserDetailsHandler(users))
	userGroup.GET("/Create", CreateUserFormHandler())
	userGroup.POST("/Create", CreateUserHandler(users))
	userGroup.GET("/Edit/:id", EditUserFormHandler(users))
	userGroup.POST("/Edit/:id", EditUserHandler(users))
	userGroup.GET("/Delete/:id", DeleteUserFormHandler(users))
	userGroup.POST("/Delete/:id", DeleteUserHandler(users))

	return r, nil
}
