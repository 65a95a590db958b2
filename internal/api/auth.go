package api

import (
	"shop_system/internal/middleware" // Caller identity
	"shop_system/internal/service"    // Authentication service
	"shop_system/internal/session"    // Session adapter

	"github.com/gin-gonic/gin" // Gin web framework
)

// Auth views
const (
	viewRegister = "Auth/Register"
	viewLogin    = "Auth/Login"
)

// loginForm is the login form with the page to return to
type loginForm struct {
	service.LoginInput
	ReturnURL string `form:"ReturnUrl" json:"returnUrl,omitempty"`
}

// RegisterFormHandler renders the empty registration form
func RegisterFormHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		render(c, viewRegister, service.RegisterInput{})
	}
}

// RegisterHandler creates a customer account and sends the caller to login
func RegisterHandler(auth *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in service.RegisterInput // Bind form to struct
		if !bindForm(c, &in, viewRegister) {
			return
		}
		if err := auth.Register(c.Request.Context(), middleware.CallerFrom(c), in); err != nil {
			// Never echo passwords back
			in.Password, in.ConfirmPassword = "", ""
			fail(c, err, viewRegister, in)
			return
		}
		redirect(c, middleware.LoginPath) // Registration does not log in
	}
}

// LoginFormHandler renders the login form
func LoginFormHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		render(c, viewLogin, loginForm{ReturnURL: c.Query("ReturnUrl")})
	}
}

// LoginHandler binds the identity to the session and redirects home or to
// a local ReturnUrl
func LoginHandler(auth *service.AuthService, store *session.RedisStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in loginForm // Bind form to struct
		if !bindForm(c, &in, viewLogin) {
			return
		}
		sess := session.FromContext(c, store)
		if _, err := auth.Login(c.Request.Context(), middleware.CallerFrom(c), sess, in.LoginInput); err != nil {
			in.Password = ""
			fail(c, err, viewLogin, in)
			return
		}
		if in.ReturnURL != "" && middleware.LocalURL(in.ReturnURL) {
			redirect(c, in.ReturnURL)
			return
		}
		redirect(c, "/")
	}
}

// LogoutHandler clears the session and redirects home. Anonymous callers
// have nothing to clear.
func LogoutHandler(auth *service.AuthService, store *session.RedisStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := middleware.CallerFrom(c)
		if caller.Authenticated() {
			if err := auth.Logout(caller, session.FromContext(c, store)); err != nil {
				fail(c, err, "", nil)
				return
			}
		}
		redirect(c, "/")
	}
}
