package api

import (
	"shop_system/internal/middleware" // Caller identity

	"github.com/gin-gonic/gin" // Gin web framework
)

// HomeHandler shows who the caller is
func HomeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := middleware.CallerFrom(c)
		render(c, "Home/Index", gin.H{
			"role":   caller.Role().String(), // anonymous, customer or admin
			"userId": caller.ID,              // 0 when anonymous
		})
	}
}
