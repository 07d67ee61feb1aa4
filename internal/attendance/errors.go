package attendance

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidContact       = errors.New("invalid contact")
	ErrAlreadyRegistered    = errors.New("already registered")
	ErrRegistrationNotFound = errors.New("registration not found")
	ErrInvalidCoupon        = errors.New("invalid coupon")
	ErrAlreadyRedeemed      = errors.New("coupon already redeemed")
	ErrNotCheckedIn         = errors.New("attendee not checked in")
	ErrPersistence          = errors.New("persistence error")
	ErrEventNotFound        = errors.New("event not found")
	ErrEventExists          = errors.New("event already exists")
	ErrRegistrationClosed   = errors.New("registration closed")
)

// AlreadyRegisteredError carries the registration that blocked a new one.
type AlreadyRegisteredError struct {
	Existing Attendee
}

func (e *AlreadyRegisteredError) Error() string {
	return ErrAlreadyRegistered.Error()
}

func (e *AlreadyRegisteredError) Is(target error) bool {
	return target == ErrAlreadyRegistered
}

// Public is shown to whoever resubmitted the contact details, so the coupon
// code is withheld and only its state is reported.
func (e *AlreadyRegisteredError) Public() PublicAttendee {
	p := e.Existing.Public()
	p.CouponCode = ""
	return p
}

// AlreadyRedeemedError reports when the coupon was consumed.
type AlreadyRedeemedError struct {
	Code       string
	RedeemedAt time.Time
}

func (e *AlreadyRedeemedError) Error() string {
	return fmt.Sprintf("%s at %s", ErrAlreadyRedeemed, e.RedeemedAt.Format(time.RFC3339))
}

func (e *AlreadyRedeemedError) Is(target error) bool {
	return target == ErrAlreadyRedeemed
}

func persistence(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}
