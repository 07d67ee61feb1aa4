package attendance

import (
	"time"

	"github.com/gdg-garage/checkin-api/internal/contact"
	"github.com/gdg-garage/checkin-api/internal/coupon"
	"github.com/gdg-garage/checkin-api/internal/models"
)

// Attendee is the domain view of a registration row. Coupon state is held
// as one value instead of three columns.
type Attendee struct {
	TicketID    string
	EventID     uint
	Email       string
	Phone       string
	FirstName   string
	LastName    string
	IsRcfMember bool
	CheckedInAt *time.Time
	Coupon      coupon.Coupon
	CreatedAt   time.Time
}

func attendeeFromModel(r *models.Registration) (Attendee, error) {
	c, err := coupon.FromFields(r.CouponCode, r.CouponActive, r.CouponUsedAt)
	if err != nil {
		return Attendee{}, err
	}

	a := Attendee{
		TicketID:    r.ID,
		EventID:     r.EventID,
		Email:       r.Email,
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		IsRcfMember: r.IsRcfMember,
		CheckedInAt: r.CheckedInAt,
		Coupon:      c,
		CreatedAt:   r.CreatedAt,
	}
	if r.PhoneNumber != nil {
		a.Phone = *r.PhoneNumber
	}
	return a, nil
}

func (a Attendee) Name() string {
	if a.LastName == "" {
		return a.FirstName
	}
	return a.FirstName + " " + a.LastName
}

func (a Attendee) CheckedIn() bool {
	return a.CheckedInAt != nil
}

// PublicAttendee is what may be shown to whoever holds the ticket id or
// submits matching contact details. Contact data is masked and the coupon
// code only appears while it can still be redeemed.
type PublicAttendee struct {
	TicketID         string     `json:"ticket_id"`
	FirstName        string     `json:"first_name"`
	LastName         string     `json:"last_name"`
	Email            string     `json:"email"`
	Phone            string     `json:"phone,omitempty"`
	CheckedIn        bool       `json:"checked_in"`
	CheckedInAt      *time.Time `json:"checked_in_at,omitempty"`
	CouponState      string     `json:"coupon_state"`
	CouponCode       string     `json:"coupon_code,omitempty"`
	CouponRedeemedAt *time.Time `json:"coupon_redeemed_at,omitempty"`
}

func (a Attendee) Public() PublicAttendee {
	p := PublicAttendee{
		TicketID:    a.TicketID,
		FirstName:   a.FirstName,
		LastName:    a.LastName,
		Email:       contact.MaskEmail(a.Email),
		Phone:       contact.MaskPhone(a.Phone),
		CheckedIn:   a.CheckedIn(),
		CheckedInAt: a.CheckedInAt,
		CouponState: a.Coupon.State.String(),
	}
	switch a.Coupon.State {
	case coupon.StateActive:
		p.CouponCode = a.Coupon.Code
	case coupon.StateRedeemed:
		p.CouponRedeemedAt = a.Coupon.RedeemedAt
	}
	return p
}
