package models

import (
	"gorm.io/gorm"
)

type EventConfig struct {
	RegistrationOpen bool `json:"registration_open"`
	PhoneRequired    bool `json:"phone_required"`
}

type Event struct {
	gorm.Model
	Slug         string `json:"slug" gorm:"uniqueIndex;not null"`
	Title        string `json:"title" gorm:"not null"`
	IsActive     bool   `json:"is_active"`
	CouponPrefix string `json:"coupon_prefix" gorm:"not null"`
	EventConfig  `gorm:"embedded"`
}
