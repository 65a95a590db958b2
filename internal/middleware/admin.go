package middleware

import (
	"errors"   // Error inspection
	"net/http" // HTTP status codes
	"net/url"  // Return URL encoding
	"strings"  // Path checks

	"shop_system/internal/domain" // Error kinds
	"shop_system/internal/policy" // Authorization policy

	"github.com/gin-gonic/gin" // Gin web framework
)

// LoginPath is where unauthenticated callers are sent.
const LoginPath = "/Auth/Login"

// Require lets the request through only when the caller may perform op.
func Require(op policy.Operation) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := policy.Authorize(CallerFrom(c), op); err != nil {
			Deny(c, err)
			return
		}
		c.Next()
	}
}

// Deny aborts the request for a policy error: anonymous callers go to the
// login page, logged-in callers on login or register go home, and everything
// else is 403.
func Deny(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		c.Redirect(http.StatusFound, LoginPath+"?ReturnUrl="+url.QueryEscape(c.Request.URL.RequestURI()))
		c.Abort()
	case errors.Is(err, domain.ErrAlreadyAuthenticated):
		c.Redirect(http.StatusFound, "/")
		c.Abort()
	default:
		Log(c).WithField("caller_id", CallerFrom(c).ID).Warn("Access denied")
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
	}
}

// LocalURL reports whether u is a path on this site and safe to redirect to.
func LocalURL(u string) bool {
	return strings.HasPrefix(u, "/") && !strings.HasPrefix(u, "//") && !strings.HasPrefix(u, "/\\")
}
