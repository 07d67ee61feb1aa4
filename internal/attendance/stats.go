package attendance

import (
	"context"

	"github.com/gdg-garage/checkin-api/internal/models"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const unspecified = "unspecified"

type CouponCounts struct {
	None     int64 `json:"none"`
	Active   int64 `json:"active"`
	Redeemed int64 `json:"redeemed"`
}

// Stats is a read-only aggregate over one event's registrations.
type Stats struct {
	EventID      uint             `json:"event_id"`
	Total        int64            `json:"total"`
	CheckedIn    int64            `json:"checked_in"`
	NotCheckedIn int64            `json:"not_checked_in"`
	RcfMembers   int64            `json:"rcf_members"`
	NonMembers   int64            `json:"non_members"`
	ByGender     map[string]int64 `json:"by_gender"`
	Coupons      CouponCounts     `json:"coupons"`
}

type genderRow struct {
	Gender string
	Count  int64
}

// Stats runs the counting queries concurrently.
func (s *Store) Stats(ctx context.Context, eventID uint) (Stats, error) {
	st := Stats{EventID: eventID, ByGender: map[string]int64{}}
	var genders []genderRow

	g, gctx := errgroup.WithContext(ctx)
	count := func(dst *int64, query string, args ...any) {
		g.Go(func() error {
			q := s.scope(gctx, eventID)
			if query != "" {
				q = q.Where(query, args...)
			}
			return q.Count(dst).Error
		})
	}

	count(&st.Total, "")
	count(&st.CheckedIn, "checked_in_at IS NOT NULL")
	count(&st.RcfMembers, "is_rcf_member = ?", true)
	count(&st.Coupons.None, "coupon_code IS NULL")
	count(&st.Coupons.Active, "coupon_active = ?", true)
	count(&st.Coupons.Redeemed, "coupon_used_at IS NOT NULL")
	g.Go(func() error {
		return s.scope(gctx, eventID).
			Select("gender, count(*) as count").
			Group("gender").
			Scan(&genders).Error
	})

	if err := g.Wait(); err != nil {
		return Stats{}, persistence("aggregate stats", err)
	}

	st.NotCheckedIn = st.Total - st.CheckedIn
	st.NonMembers = st.Total - st.RcfMembers
	for _, row := range genders {
		key := row.Gender
		if key == "" {
			key = unspecified
		}
		st.ByGender[key] += row.Count
	}
	return st, nil
}

func (s *Store) scope(ctx context.Context, eventID uint) *gorm.DB {
	return s.db.WithContext(ctx).Model(&models.Registration{}).Where("event_id = ?", eventID)
}
