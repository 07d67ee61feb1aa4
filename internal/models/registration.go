package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AttendeeFields are demographic answers collected at registration. The
// engine stores them but never reads them for any decision.
type AttendeeFields struct {
	Gender             string `json:"gender"`
	Level              string `json:"level"`
	RelationshipStatus string `json:"relationship_status"`
	ReferralSource     string `json:"referral_source"`
	Remarks            string `json:"remarks"`
}

// Registration is the ticket. Its ID is the QR payload.
type Registration struct {
	ID             string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	EventID        uint       `json:"event_id" gorm:"not null;uniqueIndex:idx_event_email;uniqueIndex:idx_event_phone"`
	Event          Event      `json:"-" gorm:"foreignKey:EventID"`
	Email          string     `json:"email" gorm:"not null;uniqueIndex:idx_event_email"`
	PhoneNumber    *string    `json:"phone_number" gorm:"uniqueIndex:idx_event_phone"`
	FirstName      string     `json:"first_name"`
	LastName       string     `json:"last_name"`
	IsRcfMember    bool       `json:"is_rcf_member"`
	CheckedInAt    *time.Time `json:"checked_in_at"`
	CouponCode     *string    `json:"coupon_code" gorm:"uniqueIndex"`
	CouponActive   bool       `json:"coupon_active" gorm:"not null;default:false"`
	CouponUsedAt   *time.Time `json:"coupon_used_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	AttendeeFields `gorm:"embedded"`
}

func (r *Registration) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
