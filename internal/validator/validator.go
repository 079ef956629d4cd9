package validator

import (
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	ierr "github.com/projectledger/projectledger/internal/errors"
	"github.com/shopspring/decimal"
)

var (
	once     sync.Once
	validate *validator.Validate
)

// GetValidator returns the process-wide validator with the custom decimal rules registered.
func GetValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("decimal_gte0", func(fl validator.FieldLevel) bool {
			d, ok := fl.Field().Interface().(decimal.Decimal)
			return ok && !d.IsNegative()
		})
		_ = validate.RegisterValidation("decimal_gt0", func(fl validator.FieldLevel) bool {
			d, ok := fl.Field().Interface().(decimal.Decimal)
			return ok && d.IsPositive()
		})
		_ = validate.RegisterValidation("percentage", func(fl validator.FieldLevel) bool {
			d, ok := fl.Field().Interface().(decimal.Decimal)
			return ok && !d.IsNegative() && d.LessThanOrEqual(decimal.NewFromInt(100))
		})
	})
	return validate
}

// ValidateRequest runs struct-tag validation and converts failures into a validation error whose
// reportable details name each failing field.
func ValidateRequest(req interface{}) error {
	err := GetValidator().Struct(req)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return ierr.WithError(err).
			WithHint("Request validation failed").
			Mark(ierr.ErrValidation)
	}

	details := make(map[string]interface{}, len(validationErrors))
	fields := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		details[fe.Field()] = fe.Tag()
		fields = append(fields, fe.Field())
	}

	return ierr.WithError(err).
		WithHintf("Invalid value for %s", strings.Join(fields, ", ")).
		WithReportableDetails(details).
		Mark(ierr.ErrValidation)
}
