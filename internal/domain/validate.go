package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var structValidator = validator.New()

// Validate checks the struct tags of an entity and reports the first rejected
// field as a *ValidationError.
func Validate(entity any) error {
	if err := structValidator.Struct(entity); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) && len(ve) > 0 {
			return NewValidationError(fieldName(ve[0]), fieldMessage(ve[0]))
		}
		return err
	}
	return nil
}

func fieldName(fe validator.FieldError) string {
	switch fe.Field() {
	case "Key":
		return "image"
	case "AlbumID":
		return "album"
	default:
		return strings.ToLower(fe.Field())
	}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "max":
		return fmt.Sprintf("ensure this value has at most %s characters", fe.Param())
	default:
		return fmt.Sprintf("failed validation (%s)", fe.Tag())
	}
}
