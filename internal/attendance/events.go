package attendance

import (
	"context"
	"time"

	"github.com/gdg-garage/checkin-api/internal/coupon"
	"github.com/gdg-garage/checkin-api/internal/database"
	"github.com/gdg-garage/checkin-api/internal/models"
	"github.com/gdg-garage/checkin-api/internal/validator"
)

type EventInput struct {
	Slug             string `validate:"required,slug"`
	Title            string `validate:"required,max=200"`
	CouponPrefix     string `validate:"omitempty,couponprefix"`
	RegistrationOpen bool
	PhoneRequired    bool
}

// EventUpdate toggles configuration. Nil fields are left as they are.
type EventUpdate struct {
	Title            *string `validate:"omitempty,min=1,max=200"`
	IsActive         *bool
	RegistrationOpen *bool
	PhoneRequired    *bool
}

// CreateEvent stores a new active event. An empty coupon prefix is derived
// from the slug.
func (s *Service) CreateEvent(ctx context.Context, in EventInput) (*models.Event, error) {
	if in.CouponPrefix == "" {
		in.CouponPrefix = coupon.PrefixFromSlug(in.Slug)
		if len(in.CouponPrefix) < coupon.MinPrefixLength {
			return nil, &validator.FieldError{Field: "EventInput.Slug", Message: "Slug has too few letters or digits for a coupon prefix"}
		}
	}
	if err := validator.Validate(ctx, in); err != nil {
		return nil, err
	}

	ev := &models.Event{
		Slug:         in.Slug,
		Title:        in.Title,
		IsActive:     true,
		CouponPrefix: in.CouponPrefix,
		EventConfig: models.EventConfig{
			RegistrationOpen: in.RegistrationOpen,
			PhoneRequired:    in.PhoneRequired,
		},
	}
	if err := s.store.CreateEvent(ctx, ev); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrEventExists
		}
		return nil, persistence("create event", err)
	}

	s.log.Info().Uint("event_id", ev.ID).Str("slug", ev.Slug).Msg("event created")
	return ev, nil
}

func (s *Service) UpdateEvent(ctx context.Context, slug string, in EventUpdate) (*models.Event, error) {
	if err := validator.Validate(ctx, in); err != nil {
		return nil, err
	}
	ev, err := s.store.EventBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	changes := map[string]any{}
	if in.Title != nil {
		changes["title"] = *in.Title
	}
	if in.IsActive != nil {
		changes["is_active"] = *in.IsActive
	}
	if in.RegistrationOpen != nil {
		changes["registration_open"] = *in.RegistrationOpen
	}
	if in.PhoneRequired != nil {
		changes["phone_required"] = *in.PhoneRequired
	}
	if err := s.store.UpdateEvent(ctx, ev, changes); err != nil {
		return nil, persistence("update event", err)
	}

	s.log.Info().Uint("event_id", ev.ID).Interface("changes", changes).Msg("event updated")
	return s.store.EventBySlug(ctx, slug)
}

func (s *Service) GetEvent(ctx context.Context, slug string) (*models.Event, error) {
	return s.store.EventBySlug(ctx, slug)
}

// Stats aggregates an event's registrations, served from the cache when one
// is configured and still holds a value.
func (s *Service) Stats(ctx context.Context, slug string) (Stats, error) {
	defer s.metrics.ObserveSince("stats", time.Now())

	ev, err := s.store.EventBySlug(ctx, slug)
	if err != nil {
		return Stats{}, err
	}

	var version int64
	if s.cache != nil {
		var cached Stats
		v, found, err := s.cache.Get(ctx, ev.ID, &cached)
		version = v
		if err != nil {
			s.log.Warn().Err(err).Uint("event_id", ev.ID).Msg("stats cache read failed")
		}
		if found {
			return cached, nil
		}
	}

	st, err := s.store.Stats(ctx, ev.ID)
	if err != nil {
		return Stats{}, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, ev.ID, version, st); err != nil {
			s.log.Warn().Err(err).Uint("event_id", ev.ID).Msg("stats cache write failed")
		}
	}
	return st, nil
}
