package middleware

import (
	"net/http" // HTTP status codes
	"strconv"  // Admin flag encoding

	"shop_system/internal/db"      // Error helpers
	"shop_system/internal/domain"  // Importing domain models
	"shop_system/internal/policy"  // Caller identity
	"shop_system/internal/session" // Session adapter

	"github.com/gin-gonic/gin" // Gin web framework
	"gorm.io/gorm"             // GORM ORM library
)

const callerKey = "caller"

// LoadCaller resolves the caller bound to the session cookie. The admin flag
// is re-read from the database on every request, and saving the session
// pushes its idle expiry forward.
func LoadCaller(conn *gorm.DB, store *session.RedisStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := session.FromContext(c, store)
		caller := policy.Caller{}
		if id, ok := sess.GetInt(session.KeyUserID); ok && id > 0 {
			var user domain.User // Fetch the current role from database
			err := conn.WithContext(c.Request.Context()).Select("id", "is_admin").First(&user, id).Error
			switch {
			case err == nil:
				caller = policy.Caller{ID: user.ID, IsAdmin: user.IsAdmin}
				sess.SetString(session.KeyIsAdmin, strconv.FormatBool(user.IsAdmin))
				if err := sess.Save(); err != nil {
					Log(c).WithError(err).Warn("Session refresh failed")
				}
			case db.IsNotFound(err):
				// The account is gone; drop its session
				sess.Clear()
				if err := sess.Save(); err != nil {
					Log(c).WithError(err).Warn("Session clear failed")
				}
				Log(c).WithField("user_id", id).Info("Session of deleted user cleared")
			default:
				Log(c).WithError(err).Error("Caller lookup failed")
				c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "operation failed"})
				return
			}
		}
		c.Set(callerKey, caller) // Store caller in context
		c.Next()                 // Proceed to the next handler
	}
}

// CallerFrom returns the caller stored by LoadCaller; anonymous when absent.
func CallerFrom(c *gin.Context) policy.Caller {
	if v, ok := c.Get(callerKey); ok {
		if caller, ok := v.(policy.Caller); ok {
			return caller
		}
	}
	return policy.Caller{}
}
