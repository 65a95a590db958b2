package service

import (
	"errors"  // Error inspection
	"fmt"     // Message formatting
	"reflect" // Struct tag lookup
	"strings" // String helpers

	"shop_system/internal/domain" // Domain models and errors

	"github.com/go-playground/validator/v10" // Struct validation
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields under their form names so messages land next to inputs.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("form"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	// Accepts any address with a single '@' that is neither first nor last,
	// so intranet addresses like "a@x" are valid.
	_ = v.RegisterValidation("shopemail", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		at := strings.IndexByte(s, '@')
		return at > 0 && at == strings.LastIndexByte(s, '@') && at < len(s)-1
	})
	return v
}

// validateStruct runs the struct's validate tags and converts failures into
// a *domain.ValidationError keyed by field name.
func validateStruct(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	ve := &domain.ValidationError{}
	for _, fe := range fieldErrs {
		ve.Add(fe.Field(), message(fe))
	}
	return ve
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", fe.Field())
	case "max":
		return fmt.Sprintf("The %s field must be at most %s characters.", fe.Field(), fe.Param())
	case "min":
		return fmt.Sprintf("The %s field must have at least %s item(s).", fe.Field(), fe.Param())
	case "eqfield":
		return "Passwords do not match."
	case "shopemail":
		return "Invalid email address."
	default:
		return fmt.Sprintf("The %s field is invalid.", fe.Field())
	}
}

// mergeValidation adds extra's messages to err, which must be nil or a
// *domain.ValidationError.
func mergeValidation(err error, extra *domain.ValidationError) error {
	if extra.Empty() {
		return err
	}
	var ve *domain.ValidationError
	if err == nil || !errors.As(err, &ve) {
		return extra
	}
	for f, m := range extra.Fields {
		ve.Add(f, m)
	}
	return ve
}
