package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"uk.co.dudmesh.bulksms/internal/model"
)

// Validator adapts go-playground/validator to echo.Validator. Field errors
// are reported as *model.ValidationError using the JSON field name.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{validate: validate}
}

func (v *Validator) Validate(i interface{}) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) || len(fieldErrors) == 0 {
		return fmt.Errorf("validating request: %w", err)
	}
	fe := fieldErrors[0]
	switch fe.Tag() {
	case "required":
		return model.NewValidationError(fe.Field(), fe.Field()+" is required")
	case "max":
		return model.NewValidationError(fe.Field(), fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param()))
	default:
		return model.NewValidationError(fe.Field(), fmt.Sprintf("failed %s check", fe.Tag()))
	}
}
