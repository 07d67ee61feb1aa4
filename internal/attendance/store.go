package attendance

import (
	"context"
	"errors"
	"time"

	"github.com/gdg-garage/checkin-api/internal/coupon"
	"github.com/gdg-garage/checkin-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store issues the row-level operations the engine needs. Every state
// transition is a single UPDATE guarded on its precondition, so concurrent
// callers across processes settle on one winner without in-memory locks.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) EventBySlug(ctx context.Context, slug string) (*models.Event, error) {
	var ev models.Event
	err := s.db.WithContext(ctx).Where("slug = ?", slug).First(&ev).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, persistence("load event", err)
	}
	return &ev, nil
}

func (s *Store) EventByID(ctx context.Context, id uint) (*models.Event, error) {
	var ev models.Event
	err := s.db.WithContext(ctx).First(&ev, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, persistence("load event", err)
	}
	return &ev, nil
}

func (s *Store) CreateEvent(ctx context.Context, ev *models.Event) error {
	return s.db.WithContext(ctx).Create(ev).Error
}

func (s *Store) UpdateEvent(ctx context.Context, ev *models.Event, changes map[string]any) error {
	if len(changes) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Model(ev).Updates(changes).Error
}

// ByID returns ErrRegistrationNotFound when no row has that ticket id.
func (s *Store) ByID(ctx context.Context, id string) (*models.Registration, error) {
	return s.first(ctx, "id = ?", id)
}

func (s *Store) ByCouponCode(ctx context.Context, code string) (*models.Registration, error) {
	return s.first(ctx, "coupon_code = ?", code)
}

// Resolve finds an existing registration for the event. Email is checked
// first; phone is only consulted when email finds nothing. Either key may
// be empty, in which case it is skipped.
func (s *Store) Resolve(ctx context.Context, eventID uint, email, phone string) (*models.Registration, error) {
	if email != "" {
		reg, err := s.first(ctx, "event_id = ? AND email = ?", eventID, email)
		if !errors.Is(err, ErrRegistrationNotFound) {
			return reg, err
		}
	}
	if phone != "" {
		return s.first(ctx, "event_id = ? AND phone_number = ?", eventID, phone)
	}
	return nil, ErrRegistrationNotFound
}

func (s *Store) first(ctx context.Context, query string, args ...any) (*models.Registration, error) {
	var reg models.Registration
	err := s.db.WithContext(ctx).Where(query, args...).First(&reg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRegistrationNotFound
	}
	if err != nil {
		return nil, persistence("load registration", err)
	}
	return &reg, nil
}

// Insert creates the row and its history entry. Unique index violations
// are returned untouched for the caller to classify.
func (s *Store) Insert(ctx context.Context, reg *models.Registration, actor string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(reg).Error; err != nil {
			return err
		}
		return appendHistory(tx, reg, models.ActionRegistered, actor, "")
	})
}

// MarkCheckedIn sets checked_in_at if it is still null and, when code is
// non-empty, attaches an active coupon in the same transaction. It reports
// false when another caller checked the registration in first.
func (s *Store) MarkCheckedIn(ctx context.Context, reg *models.Registration, at time.Time, code, actor string) (bool, error) {
	applied := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Registration{}).
			Where("id = ? AND checked_in_at IS NULL", reg.ID).
			Update("checked_in_at", at)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		if err := appendHistory(tx, reg, models.ActionCheckedIn, actor, ""); err != nil {
			return err
		}

		if code != "" {
			res = tx.Model(&models.Registration{}).
				Where("id = ? AND coupon_code IS NULL AND checked_in_at IS NOT NULL", reg.ID).
				Updates(couponColumns(coupon.Coupon{State: coupon.StateActive, Code: code}))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 1 {
				if err := appendHistory(tx, reg, models.ActionCouponIssued, actor, code); err != nil {
					return err
				}
			}
		}

		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}

// Redeem deactivates the coupon only if it is active and the holder is
// checked in. Exactly one of any number of concurrent callers gets true.
func (s *Store) Redeem(ctx context.Context, reg *models.Registration, at time.Time, actor string) (bool, error) {
	detail := ""
	if reg.CouponCode != nil {
		detail = *reg.CouponCode
	}
	redeemed := coupon.Coupon{State: coupon.StateRedeemed, Code: detail, RedeemedAt: &at}

	applied := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Registration{}).
			Where("id = ? AND coupon_active = ? AND checked_in_at IS NOT NULL", reg.ID, true).
			Updates(couponColumns(redeemed))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		applied = true
		return appendHistory(tx, reg, models.ActionCouponRedeemed, actor, detail)
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}

func (s *Store) History(ctx context.Context, registrationID string) ([]models.RegistrationHistory, error) {
	var rows []models.RegistrationHistory
	err := s.db.WithContext(ctx).
		Where("registration_id = ?", registrationID).
		Order("id asc").
		Find(&rows).Error
	return rows, err
}

// couponColumns writes c back onto the three persisted coupon columns.
func couponColumns(c coupon.Coupon) map[string]any {
	code, active, usedAt := c.Fields()
	return map[string]any{
		"coupon_code":    code,
		"coupon_active":  active,
		"coupon_used_at": usedAt,
	}
}

func appendHistory(tx *gorm.DB, reg *models.Registration, action, actor, detail string) error {
	return tx.Create(&models.RegistrationHistory{
		RegistrationID: reg.ID,
		EventID:        reg.EventID,
		Action:         action,
		Actor:          actor,
		Detail:         detail,
	}).Error
}
