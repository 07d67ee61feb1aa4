package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gdg-garage/checkin-api/internal/attendance"
	"github.com/gdg-garage/checkin-api/internal/validator"
	"github.com/rs/zerolog"
)

const (
	CodeInvalidContact       = "INVALID_CONTACT"
	CodeAlreadyRegistered    = "ALREADY_REGISTERED"
	CodeRegistrationNotFound = "REGISTRATION_NOT_FOUND"
	CodeInvalidCoupon        = "INVALID_COUPON"
	CodeAlreadyRedeemed      = "ALREADY_REDEEMED"
	CodeNotCheckedIn         = "NOT_CHECKED_IN"
	CodePersistenceError     = "PERSISTENCE_ERROR"
	CodeEventNotFound        = "EVENT_NOT_FOUND"
	CodeEventExists          = "EVENT_EXISTS"
	CodeRegistrationClosed   = "REGISTRATION_CLOSED"
	CodeValidationFailed     = "VALIDATION_FAILED"
)

// APIError is the body of every domain failure. It satisfies
// huma.StatusError so huma writes it as-is.
type APIError struct {
	Status     int        `json:"-"`
	Code       string     `json:"code" doc:"Stable machine readable failure code"`
	Message    string     `json:"message"`
	RedeemedAt *time.Time `json:"redeemed_at,omitempty" doc:"When the coupon was redeemed"`
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) GetStatus() int {
	return e.Status
}

// toAPIError maps a service failure onto a status and code. Unclassified
// errors are logged and reported as retryable persistence failures.
func toAPIError(log zerolog.Logger, err error) error {
	var redeemed *attendance.AlreadyRedeemedError
	switch {
	case errors.As(err, &redeemed):
		at := redeemed.RedeemedAt
		return &APIError{Status: http.StatusConflict, Code: CodeAlreadyRedeemed, Message: "Coupon has already been redeemed", RedeemedAt: &at}
	case errors.Is(err, validator.ErrValidation):
		return &APIError{Status: http.StatusUnprocessableEntity, Code: CodeValidationFailed, Message: err.Error()}
	case errors.Is(err, attendance.ErrInvalidContact):
		return &APIError{Status: http.StatusBadRequest, Code: CodeInvalidContact, Message: err.Error()}
	case errors.Is(err, attendance.ErrRegistrationNotFound):
		return &APIError{Status: http.StatusNotFound, Code: CodeRegistrationNotFound, Message: "No registration matches"}
	case errors.Is(err, attendance.ErrInvalidCoupon):
		return &APIError{Status: http.StatusNotFound, Code: CodeInvalidCoupon, Message: "Coupon code is not valid"}
	case errors.Is(err, attendance.ErrNotCheckedIn):
		return &APIError{Status: http.StatusConflict, Code: CodeNotCheckedIn, Message: "Attendee must check in before redeeming"}
	case errors.Is(err, attendance.ErrEventNotFound):
		return &APIError{Status: http.StatusNotFound, Code: CodeEventNotFound, Message: "Event not found"}
	case errors.Is(err, attendance.ErrEventExists):
		return &APIError{Status: http.StatusConflict, Code: CodeEventExists, Message: "An event with this slug already exists"}
	case errors.Is(err, attendance.ErrRegistrationClosed):
		return &APIError{Status: http.StatusForbidden, Code: CodeRegistrationClosed, Message: "Registration is closed for this event"}
	default:
		log.Error().Err(err).Msg("request failed")
		return &APIError{Status: http.StatusServiceUnavailable, Code: CodePersistenceError, Message: "Temporary failure, please retry"}
	}
}
