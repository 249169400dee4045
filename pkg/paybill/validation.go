package paybill

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Currencies accepted by the platform for plan prices and fees.
var Currencies = []string{
	"AUD", "BRL", "CAD", "CNY", "CZK", "DKK", "EUR", "HKD", "HUF", "ILS", "JPY", "MYR", "MXN",
	"TWD", "NZD", "NOK", "PHP", "PLN", "GBP", "RUB", "SGD", "SEK", "CHF", "THB", "USD",
}

const maxURLLength = 2000

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report json names so errors match the wire format.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}

		return name
	})

	_ = v.RegisterValidation("currency", validateCurrency)
	_ = v.RegisterValidation("amount", validateAmount)
	_ = v.RegisterValidation("percentage", validatePercentage)
	_ = v.RegisterValidation("upper_token", validateUpperToken)
	_ = v.RegisterValidation("abs_url", validateAbsoluteURL)

	return v
}

func validateCurrency(fl validator.FieldLevel) bool {
	return slices.Contains(Currencies, fl.Field().String())
}

// validateAmount accepts a non-negative decimal string with at most two fraction digits.
func validateAmount(fl validator.FieldLevel) bool {
	d, err := decimal.NewFromString(fl.Field().String())
	if err != nil {
		return false
	}

	return !d.IsNegative() && d.Exponent() >= -2
}

func validatePercentage(fl validator.FieldLevel) bool {
	d, err := decimal.NewFromString(fl.Field().String())
	if err != nil {
		return false
	}

	return !d.IsNegative() && d.LessThanOrEqual(decimal.NewFromInt(100))
}

func validateUpperToken(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return false
	}

	for _, r := range s {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') && r != '_' {
			return false
		}
	}

	return true
}

func validateAbsoluteURL(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if len(s) == 0 || len(s) > maxURLLength {
		return false
	}

	u, err := url.Parse(s)
	if err != nil {
		return false
	}

	return u.IsAbs() && u.Host != ""
}

// checkStruct validates v and returns the first failure as a *ValidationError.
func checkStruct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	return toValidationError(err, "")
}

// checkVar validates a single value against tag and reports it as field.
func checkVar(field string, value interface{}, tag string) error {
	err := validate.Var(value, tag)
	if err == nil {
		return nil
	}

	return toValidationError(err, field)
}

func toValidationError(err error, field string) error {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return fmt.Errorf("validator: %w", err)
	}

	fe := errs[0]

	name := field
	if name == "" {
		name = fe.Namespace()
		if i := strings.Index(name, "."); i >= 0 {
			name = name[i+1:]
		}
	}

	return &ValidationError{
		Field:   name,
		Rule:    fe.Tag(),
		Value:   fe.Value(),
		Message: ruleMessage(fe),
	}
}

func ruleMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min", "gte":
		return "must be at least " + fe.Param()
	case "max", "lte":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "currency":
		return "must be a supported currency code"
	case "amount":
		return "must be a non-negative decimal with at most two fraction digits"
	case "percentage":
		return "must be a number between 0 and 100"
	case "upper_token":
		return "must be an upper-case token"
	case "abs_url":
		return fmt.Sprintf("must be an absolute URL of at most %d characters", maxURLLength)
	case "numeric":
		return "must be numeric"
	default:
		return ""
	}
}

// lengthBetween is shared by the string setters of the templates and patches.
func lengthBetween(field, value string, lo, hi int) error {
	n := len([]rune(value))
	if n < lo || n > hi {
		return &ValidationError{
			Field:   field,
			Rule:    "len",
			Value:   value,
			Message: fmt.Sprintf("length must be between %d and %d", lo, hi),
		}
	}

	return nil
}
