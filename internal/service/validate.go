package service

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/seams-estates/seams/internal/money"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Use JSON tag names for field names in errors
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Amounts are validated as numbers.
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.NullDecimal); ok && d.Valid {
			f, _ := d.Decimal.Float64()
			return f
		}
		return nil
	}, decimal.NullDecimal{})

	// The type funcs above hand tags a float64, so money reads the original field.
	_ = v.RegisterValidation("money", func(fl validator.FieldLevel) bool {
		field := reflect.Indirect(fl.Parent()).FieldByName(fl.StructFieldName())
		if !field.IsValid() {
			return false
		}
		switch d := field.Interface().(type) {
		case decimal.Decimal:
			return money.Check(d) == nil
		case decimal.NullDecimal:
			return !d.Valid || money.Check(d.Decimal) == nil
		}
		return false
	})

	return v
}

// validateInput runs struct tags and converts failures to a ValidationError.
func validateInput(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	verr := &ValidationError{}
	for _, e := range fieldErrs {
		verr.Fields = append(verr.Fields, FieldError{
			Field:   e.Field(),
			Message: validationMessage(e),
		})
	}
	return verr
}

// validationMessage returns a human-readable validation message
func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "min":
		if e.Kind() == reflect.String {
			return "Must be at least " + e.Param() + " characters"
		}
		return "Must be at least " + e.Param()
	case "max":
		if e.Kind() == reflect.String {
			return "Must be at most " + e.Param() + " characters"
		}
		return "Must be at most " + e.Param()
	case "oneof":
		return "Must be one of: " + e.Param()
	case "gt":
		return "Must be greater than " + e.Param()
	case "gte":
		return "Must be greater than or equal to " + e.Param()
	case "money":
		return "Must have at most 2 decimal places and 10 digits in total"
	case "gtefield":
		return "Must not be before " + e.Param()
	default:
		return "Invalid value"
	}
}
