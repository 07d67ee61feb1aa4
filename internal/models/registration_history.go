package models

import (
	"gorm.io/gorm"
)

const (
	ActionRegistered     = "registered"
	ActionCheckedIn      = "checked_in"
	ActionCouponIssued   = "coupon_issued"
	ActionCouponRedeemed = "coupon_redeemed"
)

// RegistrationHistory is an append-only log of lifecycle transitions, written
// in the same transaction as the transition itself.
type RegistrationHistory struct {
	gorm.Model
	RegistrationID string `json:"registration_id" gorm:"index;not null"`
	EventID        uint   `json:"event_id" gorm:"index"`
	Action         string `json:"action" gorm:"not null"`
	Actor          string `json:"actor"`
	Detail         string `json:"detail"`
}
