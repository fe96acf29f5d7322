package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sumire/firstissues/internal/domain"
)

// AppValidator adapts go-playground/validator to echo.Validator. Field
// names in errors are the names clients send (json, query or param tag).
type AppValidator struct {
	validator *validator.Validate
}

func NewAppValidator() *AppValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(wireName)
	return &AppValidator{validator: v}
}

func (v *AppValidator) Validate(i any) error {
	err := v.validator.Struct(i)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		msg := fmt.Sprintf("failed on '%s' validation", fe.Tag())
		if fe.Param() != "" {
			msg = fmt.Sprintf("failed on '%s=%s' validation", fe.Tag(), fe.Param())
		}
		return &domain.ValidationError{Field: fe.Field(), Message: msg}
	}
	return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
}

func wireName(f reflect.StructField) string {
	for _, key := range []string{"json", "query", "param"} {
		name, _, _ := strings.Cut(f.Tag.Get(key), ",")
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return f.Name
}
