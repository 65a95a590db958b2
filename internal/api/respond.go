package api

import (
	"errors"   // Error inspection
	"net/http" // HTTP status codes
	"strconv"  // Path parameter parsing

	"shop_system/internal/domain"     // Error kinds
	"shop_system/internal/middleware" // Policy denials and request logging

	"github.com/gin-gonic/gin" // Gin web framework
)

// User-facing messages for errors without a field
const (
	msgOperationFailed = "The operation failed. Please try again."
	msgRetry           = "The record was modified by another user after you loaded it. Review the current values and submit again."
	msgInvalidLogin    = "Invalid login or password."
	msgBadForm         = "The submitted form could not be read."
)

// View is a rendered page: the view name, its model and, for forms, the
// messages per field. The empty key holds form-level messages.
type View struct {
	View   string            `json:"view"`             // View name, e.g. "Orders/Create"
	Model  any               `json:"model"`            // View model
	Errors map[string]string `json:"errors,omitempty"` // Field errors
}

func render(c *gin.Context, view string, model any) {
	c.JSON(http.StatusOK, View{View: view, Model: model})
}

func renderForm(c *gin.Context, view string, model any, errs map[string]string) {
	c.JSON(http.StatusOK, View{View: view, Model: model, Errors: errs})
}

func notFound(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Not found"})
}

// fail maps a service error onto the response. When view is set, errors a
// user can act on re-render that form with model.
func fail(c *gin.Context, err error, view string, model any) {
	var (
		ve *domain.ValidationError
		ce *domain.ConflictError
	)
	switch {
	case errors.As(err, &ve):
		renderOr400(c, view, model, ve.Fields)
	case errors.As(err, &ce):
		if ce.IsRetry() {
			renderOr400(c, view, model, map[string]string{"": msgRetry})
			return
		}
		renderOr400(c, view, model, map[string]string{ce.Field: ce.Reason})
	case errors.Is(err, domain.ErrInvalidCredentials):
		renderOr400(c, view, model, map[string]string{"": msgInvalidLogin})
	case errors.Is(err, domain.ErrNotFound):
		notFound(c)
	case errors.Is(err, domain.ErrUnauthenticated),
		errors.Is(err, domain.ErrForbidden),
		errors.Is(err, domain.ErrAlreadyAuthenticated):
		middleware.Deny(c, err)
	default:
		_ = c.Error(err)
		middleware.Log(c).WithError(err).Error("Request failed")
		if view != "" {
			renderForm(c, view, model, map[string]string{"": msgOperationFailed})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": msgOperationFailed})
	}
}

func renderOr400(c *gin.Context, view string, model any, errs map[string]string) {
	if view == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"errors": errs})
		return
	}
	renderForm(c, view, model, errs)
}

// bindForm decodes the request body into dst, re-rendering view on failure.
func bindForm(c *gin.Context, dst any, view string) bool {
	if err := c.ShouldBind(dst); err != nil {
		middleware.Log(c).WithError(err).Info("Unreadable form")
		renderForm(c, view, nil, map[string]string{"": msgBadForm})
		return false
	}
	return true
}

// pathID parses the :id parameter; a malformed id is a missing record.
func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		notFound(c)
		return 0, false
	}
	return uint(id), true
}

func redirect(c *gin.Context, to string) {
	c.Redirect(http.StatusFound, to)
}
