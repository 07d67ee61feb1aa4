// Package attendance holds the registration, check-in and coupon lifecycle.
// All coordination between concurrent callers happens in the database
// through unique indexes and conditional updates.
package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gdg-garage/checkin-api/internal/contact"
	"github.com/gdg-garage/checkin-api/internal/coupon"
	"github.com/gdg-garage/checkin-api/internal/database"
	"github.com/gdg-garage/checkin-api/internal/metrics"
	"github.com/gdg-garage/checkin-api/internal/models"
	"github.com/gdg-garage/checkin-api/internal/notifier"
	"github.com/gdg-garage/checkin-api/internal/validator"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

const (
	ActorSelf   = "self"
	ActorVendor = "vendor"

	notifyTimeout = 5 * time.Second
)

// StatsCache stores per-event aggregates between transitions. Get reports the
// version it read; Set stores under that version, and Invalidate starts a new
// one, so a refill racing a transition is never served.
type StatsCache interface {
	Get(ctx context.Context, eventID uint, dst any) (version int64, found bool, err error)
	Set(ctx context.Context, eventID uint, version int64, value any) error
	Invalidate(ctx context.Context, eventID uint) error
}

type Options struct {
	Logger         zerolog.Logger
	Metrics        *metrics.Metrics
	Notifier       notifier.Notifier
	Cache          StatsCache
	Generator      coupon.Generator
	CouponAttempts int
	Now            func() time.Time
}

type Service struct {
	store     *Store
	log       zerolog.Logger
	metrics   *metrics.Metrics
	notifier  notifier.Notifier
	cache     StatsCache
	generator coupon.Generator
	attempts  int
	now       func() time.Time
}

func NewService(db *gorm.DB, opts Options) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.CouponAttempts < 1 {
		opts.CouponAttempts = 1
	}
	return &Service{
		store:     NewStore(db),
		log:       opts.Logger.With().Str("component", "attendance").Logger(),
		metrics:   opts.Metrics,
		notifier:  opts.Notifier,
		cache:     opts.Cache,
		generator: opts.Generator,
		attempts:  opts.CouponAttempts,
		now:       opts.Now,
	}
}

func (s *Service) Store() *Store {
	return s.store
}

type RegisterInput struct {
	Email       string `validate:"required,max=254"`
	Phone       string `validate:"max=32"`
	FirstName   string `validate:"required,max=100"`
	LastName    string `validate:"max=100"`
	IsRcfMember bool
	Fields      models.AttendeeFields
}

// Register creates a ticket for the event. A matching email or phone on the
// same event yields *AlreadyRegisteredError describing the existing ticket.
func (s *Service) Register(ctx context.Context, slug string, in RegisterInput) (Attendee, error) {
	defer s.metrics.ObserveSince("register", time.Now())

	a, err := s.register(ctx, slug, in)
	s.metrics.IncRegistration(outcome(err))
	return a, err
}

func (s *Service) register(ctx context.Context, slug string, in RegisterInput) (Attendee, error) {
	if err := validator.Validate(ctx, in); err != nil {
		return Attendee{}, err
	}

	ev, err := s.store.EventBySlug(ctx, slug)
	if err != nil {
		return Attendee{}, err
	}
	if !ev.IsActive || !ev.RegistrationOpen {
		return Attendee{}, ErrRegistrationClosed
	}

	email := contact.NormalizeEmail(in.Email)
	if email == "" {
		return Attendee{}, fmt.Errorf("%w: email is empty", ErrInvalidContact)
	}
	phone, err := normalizeOptionalPhone(in.Phone)
	if err != nil {
		return Attendee{}, err
	}
	if phone == "" && ev.PhoneRequired {
		return Attendee{}, fmt.Errorf("%w: phone number is required", ErrInvalidContact)
	}

	existing, err := s.alreadyRegistered(ctx, ev.ID, email, phone)
	if err != nil {
		return Attendee{}, err
	}
	if existing != nil {
		return Attendee{}, existing
	}

	reg := &models.Registration{
		EventID:        ev.ID,
		Email:          email,
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		IsRcfMember:    in.IsRcfMember,
		AttendeeFields: in.Fields,
	}
	if phone != "" {
		reg.PhoneNumber = &phone
	}

	if err := s.store.Insert(ctx, reg, ActorSelf); err != nil {
		if !database.IsUniqueViolation(err) {
			return Attendee{}, persistence("insert registration", err)
		}
		// Lost the race to a concurrent submission with the same contact.
		existing, rerr := s.alreadyRegistered(ctx, ev.ID, email, phone)
		if rerr != nil {
			return Attendee{}, rerr
		}
		if existing == nil {
			return Attendee{}, persistence("insert registration", err)
		}
		return Attendee{}, existing
	}

	a, err := attendeeFromModel(reg)
	if err != nil {
		return Attendee{}, persistence("project registration", err)
	}

	s.log.Info().
		Uint("event_id", ev.ID).
		Str("registration_id", reg.ID).
		Str("email", contact.MaskEmail(email)).
		Msg("registration created")
	s.afterTransition(ctx, ev, notifier.Notification{
		Kind:           notifier.KindRegistered,
		RegistrationID: reg.ID,
		AttendeeName:   a.Name(),
		Actor:          ActorSelf,
	})
	return a, nil
}

// alreadyRegistered returns a non-nil *AlreadyRegisteredError when a
// registration matches.
func (s *Service) alreadyRegistered(ctx context.Context, eventID uint, email, phone string) (*AlreadyRegisteredError, error) {
	reg, err := s.store.Resolve(ctx, eventID, email, phone)
	if errors.Is(err, ErrRegistrationNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	a, err := attendeeFromModel(reg)
	if err != nil {
		return nil, persistence("project registration", err)
	}
	return &AlreadyRegisteredError{Existing: a}, nil
}

type CheckInResult struct {
	Attendee         Attendee
	AlreadyCheckedIn bool
}

// CheckInByTicket is the staff path, keyed by the scanned ticket id.
func (s *Service) CheckInByTicket(ctx context.Context, slug, ticketID string, wantCoupon bool, actor string) (CheckInResult, error) {
	defer s.metrics.ObserveSince("check_in", time.Now())

	res, err := s.checkInByTicket(ctx, slug, ticketID, wantCoupon, actor)
	s.metrics.IncCheckIn(checkInOutcome(res, err))
	return res, err
}

func (s *Service) checkInByTicket(ctx context.Context, slug, ticketID string, wantCoupon bool, actor string) (CheckInResult, error) {
	reg, err := s.eventTicket(ctx, slug, ticketID)
	if err != nil {
		return CheckInResult{}, err
	}
	ev, err := s.store.EventByID(ctx, reg.EventID)
	if err != nil {
		return CheckInResult{}, err
	}
	return s.checkIn(ctx, ev, reg, wantCoupon, actor)
}

// CheckInByContact is the self-service path. At least one of email or
// phone must be supplied.
func (s *Service) CheckInByContact(ctx context.Context, slug, email, phone string, wantCoupon bool) (CheckInResult, error) {
	defer s.metrics.ObserveSince("check_in", time.Now())

	res, err := s.checkInByContact(ctx, slug, email, phone, wantCoupon)
	s.metrics.IncCheckIn(checkInOutcome(res, err))
	return res, err
}

func (s *Service) checkInByContact(ctx context.Context, slug, email, phone string, wantCoupon bool) (CheckInResult, error) {
	email = contact.NormalizeEmail(email)
	phone, err := normalizeOptionalPhone(phone)
	if err != nil {
		return CheckInResult{}, err
	}
	if email == "" && phone == "" {
		return CheckInResult{}, fmt.Errorf("%w: email or phone is required", ErrInvalidContact)
	}

	ev, err := s.store.EventBySlug(ctx, slug)
	if err != nil {
		return CheckInResult{}, err
	}
	reg, err := s.store.Resolve(ctx, ev.ID, email, phone)
	if err != nil {
		return CheckInResult{}, err
	}
	return s.checkIn(ctx, ev, reg, wantCoupon, ActorSelf)
}

func (s *Service) checkIn(ctx context.Context, ev *models.Event, reg *models.Registration, wantCoupon bool, actor string) (CheckInResult, error) {
	if reg.CheckedInAt != nil {
		return s.alreadyCheckedIn(reg)
	}

	at := s.now().UTC()
	applied := false
	for attempt := 1; ; attempt++ {
		code := ""
		if wantCoupon {
			var err error
			if code, err = s.generator.Generate(ev.CouponPrefix); err != nil {
				return CheckInResult{}, persistence("generate coupon", err)
			}
		}

		ok, err := s.store.MarkCheckedIn(ctx, reg, at, code, actor)
		if err == nil {
			applied = ok
			break
		}
		if !database.IsUniqueViolation(err) || code == "" || attempt >= s.attempts {
			return CheckInResult{}, persistence("check in", err)
		}
		s.log.Warn().Str("registration_id", reg.ID).Int("attempt", attempt).Msg("coupon code collision, regenerating")
	}

	fresh, err := s.store.ByID(ctx, reg.ID)
	if err != nil {
		return CheckInResult{}, err
	}
	if !applied {
		// Another scan won between the read and the conditional update.
		return s.alreadyCheckedIn(fresh)
	}

	a, err := attendeeFromModel(fresh)
	if err != nil {
		return CheckInResult{}, persistence("project registration", err)
	}

	s.log.Info().
		Uint("event_id", ev.ID).
		Str("registration_id", a.TicketID).
		Str("actor", actor).
		Str("coupon", a.Coupon.State.String()).
		Msg("attendee checked in")
	s.afterTransition(ctx, ev, notifier.Notification{
		Kind:           notifier.KindCheckedIn,
		RegistrationID: a.TicketID,
		AttendeeName:   a.Name(),
		CouponCode:     a.Coupon.Code,
		Actor:          actor,
		At:             at,
	})
	return CheckInResult{Attendee: a}, nil
}

func (s *Service) alreadyCheckedIn(reg *models.Registration) (CheckInResult, error) {
	a, err := attendeeFromModel(reg)
	if err != nil {
		return CheckInResult{}, persistence("project registration", err)
	}
	return CheckInResult{Attendee: a, AlreadyCheckedIn: true}, nil
}

// Redeem consumes a coupon at most once. The code is the only credential.
func (s *Service) Redeem(ctx context.Context, code, actor string) (Attendee, error) {
	defer s.metrics.ObserveSince("redeem", time.Now())

	a, err := s.redeem(ctx, code, actor)
	s.metrics.IncRedemption(outcome(err))
	return a, err
}

func (s *Service) redeem(ctx context.Context, code, actor string) (Attendee, error) {
	if actor == "" {
		actor = ActorVendor
	}

	reg, err := s.lookupCoupon(ctx, code)
	if err != nil {
		return Attendee{}, err
	}
	a, err := s.redeemable(reg)
	if err != nil {
		return Attendee{}, err
	}

	at := s.now().UTC()
	ok, err := s.store.Redeem(ctx, reg, at, actor)
	if err != nil {
		return Attendee{}, persistence("redeem coupon", err)
	}

	fresh, err := s.store.ByID(ctx, reg.ID)
	if err != nil {
		return Attendee{}, err
	}
	if !ok {
		// A concurrent redemption committed first.
		if _, err := s.redeemable(fresh); err != nil {
			return Attendee{}, err
		}
		return Attendee{}, ErrInvalidCoupon
	}
	if a, err = attendeeFromModel(fresh); err != nil {
		return Attendee{}, persistence("project registration", err)
	}

	s.log.Info().
		Uint("event_id", a.EventID).
		Str("registration_id", a.TicketID).
		Str("actor", actor).
		Msg("coupon redeemed")

	ev, err := s.store.EventByID(ctx, a.EventID)
	if err != nil {
		ev = &models.Event{}
		ev.ID = a.EventID
	}
	s.afterTransition(ctx, ev, notifier.Notification{
		Kind:           notifier.KindRedeemed,
		RegistrationID: a.TicketID,
		AttendeeName:   a.Name(),
		CouponCode:     a.Coupon.Code,
		Actor:          actor,
		At:             at,
	})
	return a, nil
}

func (s *Service) lookupCoupon(ctx context.Context, code string) (*models.Registration, error) {
	code = coupon.Normalize(code)
	if !coupon.Valid(code) {
		return nil, ErrInvalidCoupon
	}
	reg, err := s.store.ByCouponCode(ctx, code)
	if errors.Is(err, ErrRegistrationNotFound) {
		return nil, ErrInvalidCoupon
	}
	return reg, err
}

// redeemable applies the redemption guards in order: already redeemed,
// then not checked in.
func (s *Service) redeemable(reg *models.Registration) (Attendee, error) {
	a, err := attendeeFromModel(reg)
	if err != nil {
		s.log.Error().Err(err).Str("registration_id", reg.ID).Msg("coupon columns out of step")
		return Attendee{}, ErrInvalidCoupon
	}
	switch a.Coupon.State {
	case coupon.StateRedeemed:
		return a, &AlreadyRedeemedError{Code: a.Coupon.Code, RedeemedAt: *a.Coupon.RedeemedAt}
	case coupon.StateActive:
	default:
		return a, ErrInvalidCoupon
	}
	if !a.CheckedIn() {
		return a, ErrNotCheckedIn
	}
	return a, nil
}

type CouponStatus struct {
	Code         string
	State        coupon.State
	RedeemedAt   *time.Time
	AttendeeName string
	Redeemable   bool
	Reason       error
}

// InspectCoupon reports whether code could be redeemed right now without
// consuming it.
func (s *Service) InspectCoupon(ctx context.Context, code string) (CouponStatus, error) {
	reg, err := s.lookupCoupon(ctx, code)
	if err != nil {
		return CouponStatus{}, err
	}
	a, reason := s.redeemable(reg)
	if errors.Is(reason, ErrInvalidCoupon) {
		return CouponStatus{}, reason
	}
	return CouponStatus{
		Code:         a.Coupon.Code,
		State:        a.Coupon.State,
		RedeemedAt:   a.Coupon.RedeemedAt,
		AttendeeName: a.Name(),
		Redeemable:   reason == nil,
		Reason:       reason,
	}, nil
}

// GetTicket returns the registration only if it belongs to the event.
func (s *Service) GetTicket(ctx context.Context, slug, ticketID string) (Attendee, error) {
	reg, err := s.eventTicket(ctx, slug, ticketID)
	if err != nil {
		return Attendee{}, err
	}
	a, err := attendeeFromModel(reg)
	if err != nil {
		return Attendee{}, persistence("project registration", err)
	}
	return a, nil
}

// History lists a ticket's transitions, oldest first.
func (s *Service) History(ctx context.Context, slug, ticketID string) ([]models.RegistrationHistory, error) {
	reg, err := s.eventTicket(ctx, slug, ticketID)
	if err != nil {
		return nil, err
	}
	rows, err := s.store.History(ctx, reg.ID)
	if err != nil {
		return nil, persistence("load history", err)
	}
	return rows, nil
}

func (s *Service) eventTicket(ctx context.Context, slug, ticketID string) (*models.Registration, error) {
	ev, err := s.store.EventBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	reg, err := s.store.ByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if reg.EventID != ev.ID {
		return nil, ErrRegistrationNotFound
	}
	return reg, nil
}

// afterTransition drops cached stats and sends a best-effort notification.
// Neither can fail the transition that already committed.
func (s *Service) afterTransition(ctx context.Context, ev *models.Event, n notifier.Notification) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, ev.ID); err != nil {
			s.log.Warn().Err(err).Uint("event_id", ev.ID).Msg("failed to invalidate stats cache")
		}
	}

	if s.notifier == nil {
		return
	}
	n.EventSlug = ev.Slug
	n.EventTitle = ev.Title
	if n.At.IsZero() {
		n.At = s.now().UTC()
	}
	if err := s.notifier.Notify(ctx, n); err != nil {
		s.log.Warn().Err(err).Str("kind", string(n.Kind)).Str("registration_id", n.RegistrationID).Msg("notification failed")
	}
}

func normalizeOptionalPhone(raw string) (string, error) {
	if raw == "" {
		return "", nil
	}
	phone, err := contact.NormalizePhone(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidContact, err)
	}
	return phone, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrAlreadyRegistered):
		return "already_registered"
	case errors.Is(err, ErrAlreadyRedeemed):
		return "already_redeemed"
	case errors.Is(err, ErrNotCheckedIn):
		return "not_checked_in"
	case errors.Is(err, ErrInvalidCoupon):
		return "invalid_coupon"
	case errors.Is(err, ErrInvalidContact):
		return "invalid_contact"
	case errors.Is(err, ErrRegistrationNotFound):
		return "not_found"
	case errors.Is(err, ErrPersistence):
		return "persistence_error"
	default:
		return "rejected"
	}
}

func checkInOutcome(res CheckInResult, err error) string {
	if err == nil && res.AlreadyCheckedIn {
		return "already_checked_in"
	}
	return outcome(err)
}
