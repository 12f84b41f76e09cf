package handler

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// formErrorMessage turns a gin binding failure into a single human-readable
// form error, using the first failed validation.
func formErrorMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Please check the form and try again."
	}

	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return "All fields are required."
	case "email":
		return "Enter a valid email address."
	case "min":
		return fmt.Sprintf("%s must be at least %s characters.", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters.", fe.Field(), fe.Param())
	case "eqfield":
		return "Passwords do not match."
	default:
		return "Please check the form and try again."
	}
}
