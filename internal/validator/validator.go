package validator

import (
	"context"
	"errors"
	"regexp"

	"github.com/go-playground/validator/v10"
)

var (
	global        *validator.Validate
	slugRegex     = regexp.MustCompile(`^[a-z0-9][a-z0-9\-]{1,63}$`)
	prefixRegex   = regexp.MustCompile(`^[A-Z0-9]{2,16}$`)
	ErrValidation = errors.New("validation failed")
)

const (
	ErrInvalidFormat      = "Invalid format"
	ErrFieldRequired      = "Field is required"
	ErrFieldExceedsMaxLen = "Field exceeds maximum length"
	ErrFieldBelowMinLen   = "Field is below minimum length"
	ErrUnknownValidation  = "Unknown validation error"
)

func init() {
	global = New()
}

func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("slug", validateSlug)
	_ = v.RegisterValidation("couponprefix", validateCouponPrefix)
	return v
}

func validateSlug(fl validator.FieldLevel) bool {
	return slugRegex.MatchString(fl.Field().String())
}

func validateCouponPrefix(fl validator.FieldLevel) bool {
	return prefixRegex.MatchString(fl.Field().String())
}

// Validate checks structure and reports the first failing field. The
// returned error wraps ErrValidation.
func Validate(ctx context.Context, structure any) error {
	return parseValidationErrors(global.StructCtx(ctx, structure))
}

// FieldError names the field and rule that failed.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Message + ": " + e.Field
}

func (e *FieldError) Unwrap() error {
	return ErrValidation
}

func parseValidationErrors(err error) error {
	if err == nil {
		return nil
	}
	var vErrors validator.ValidationErrors
	if !errors.As(err, &vErrors) || len(vErrors) == 0 {
		return err
	}
	ve := vErrors[0]
	var msg string
	switch ve.Tag() {
	case "slug", "couponprefix":
		msg = ErrInvalidFormat
	case "required":
		msg = ErrFieldRequired
	case "max":
		msg = ErrFieldExceedsMaxLen
	case "min":
		msg = ErrFieldBelowMinLen
	default:
		msg = ErrUnknownValidation
	}
	return &FieldError{Field: ve.Namespace(), Message: msg}
}
