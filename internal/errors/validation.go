package errors

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	pkgerrors "github.com/pkg/errors"
)

// FromValidator converts validator failures into a validation APIError.
// Other errors are returned unchanged.
func FromValidator(err error) error {
	var validationErrs validator.ValidationErrors
	if !pkgerrors.As(err, &validationErrs) {
		return err
	}
	return Validation(ValidationMessages(validationErrs))
}

// ValidationMessages renders each failed rule as a readable sentence keyed
// by the failing field.
func ValidationMessages(errs validator.ValidationErrors) map[string][]string {
	fields := make(map[string][]string, len(errs))
	for _, fe := range errs {
		fields[fe.Field()] = append(fields[fe.Field()], validationMessage(fe))
	}
	return fields
}

func validationMessage(fe validator.FieldError) string {
	attr := strings.ReplaceAll(fe.Field(), "_", " ")

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", attr)
	case "oneof":
		return fmt.Sprintf("The selected %s is invalid.", attr)
	case "min", "gte":
		if isString(fe) {
			return fmt.Sprintf("The %s field must be at least %s characters.", attr, fe.Param())
		}
		return fmt.Sprintf("The %s field must be at least %s.", attr, fe.Param())
	case "max", "lte":
		if isString(fe) {
			return fmt.Sprintf("The %s field must not be greater than %s characters.", attr, fe.Param())
		}
		return fmt.Sprintf("The %s field must not be greater than %s.", attr, fe.Param())
	case "todo_date":
		return fmt.Sprintf("The %s field must be a valid date.", attr)
	case "today_or_later":
		return fmt.Sprintf("The %s field must be a date after or equal to today.", attr)
	case "number", "numeric":
		return fmt.Sprintf("The %s field must be a number.", attr)
	case "ulid":
		return fmt.Sprintf("The %s field must be a valid ULID.", attr)
	default:
		return fmt.Sprintf("The %s field is invalid.", attr)
	}
}

func isString(fe validator.FieldError) bool {
	kind := fe.Kind()
	if kind == reflect.Ptr {
		kind = fe.Type().Elem().Kind()
	}
	return kind == reflect.String
}
