package notifier

import (
	"context"
	"errors"
	"time"
)

type Kind string

const (
	KindRegistered Kind = "registration.created"
	KindCheckedIn  Kind = "attendee.checked_in"
	KindRedeemed   Kind = "coupon.redeemed"
)

// Notification describes one lifecycle transition. It never carries raw
// contact details.
type Notification struct {
	Kind           Kind      `json:"kind"`
	EventSlug      string    `json:"event_slug"`
	EventTitle     string    `json:"event_title"`
	RegistrationID string    `json:"registration_id"`
	AttendeeName   string    `json:"attendee_name"`
	CouponCode     string    `json:"coupon_code,omitempty"`
	Actor          string    `json:"actor,omitempty"`
	At             time.Time `json:"at"`
}

type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Multi delivers to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n Notification) error {
	var errs []error
	for _, target := range m {
		if target == nil {
			continue
		}
		if err := target.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
