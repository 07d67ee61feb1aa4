package handlers

import (
	"context"
	"time"

	"github.com/gdg-garage/checkin-api/internal/attendance"
	"github.com/gdg-garage/checkin-api/internal/auth"
	"github.com/gdg-garage/checkin-api/internal/models"
	"github.com/rs/zerolog"
)

type EventHandler struct {
	svc   *attendance.Service
	guard *auth.Guard
	log   zerolog.Logger
}

func NewEventHandler(svc *attendance.Service, guard *auth.Guard, log zerolog.Logger) *EventHandler {
	return &EventHandler{svc: svc, guard: guard, log: log}
}

type EventBody struct {
	Slug             string    `json:"slug"`
	Title            string    `json:"title"`
	IsActive         bool      `json:"is_active"`
	CouponPrefix     string    `json:"coupon_prefix"`
	RegistrationOpen bool      `json:"registration_open"`
	PhoneRequired    bool      `json:"phone_required"`
	CreatedAt        time.Time `json:"created_at"`
}

type EventResponse struct {
	Body EventBody
}

func eventResponse(ev *models.Event) *EventResponse {
	return &EventResponse{Body: EventBody{
		Slug:             ev.Slug,
		Title:            ev.Title,
		IsActive:         ev.IsActive,
		CouponPrefix:     ev.CouponPrefix,
		RegistrationOpen: ev.RegistrationOpen,
		PhoneRequired:    ev.PhoneRequired,
		CreatedAt:        ev.CreatedAt,
	}}
}

type GetEventRequest struct {
	Slug string `path:"slug"`
}

func (h *EventHandler) HandleGet(ctx context.Context, input *GetEventRequest) (*EventResponse, error) {
	ev, err := h.svc.GetEvent(ctx, input.Slug)
	if err != nil {
		return nil, toAPIError(h.log, err)
	}
	return eventResponse(ev), nil
}

type CreateEventRequest struct {
	auth.AuthInput
	Body struct {
		Slug             string `json:"slug" doc:"Lower-case URL key, e.g. agape-26"`
		Title            string `json:"title" maxLength:"200"`
		CouponPrefix     string `json:"coupon_prefix,omitempty" doc:"Defaults to the slug's letters and digits, upper-cased"`
		RegistrationOpen bool   `json:"registration_open,omitempty"`
		PhoneRequired    bool   `json:"phone_required,omitempty"`
	}
}

func (h *EventHandler) HandleCreate(ctx context.Context, input *CreateEventRequest) (*EventResponse, error) {
	staff, err := h.guard.Authorize(ctx, input.AuthInput)
	if err != nil {
		return nil, err
	}

	ev, err := h.svc.CreateEvent(ctx, attendance.EventInput{
		Slug:             input.Body.Slug,
		Title:            input.Body.Title,
		CouponPrefix:     input.Body.CouponPrefix,
		RegistrationOpen: input.Body.RegistrationOpen,
		PhoneRequired:    input.Body.PhoneRequired,
	})
	if err != nil {
		return nil, toAPIError(h.log, err)
	}

	h.log.Info().Str("slug", ev.Slug).Str("staff", staff.Name).Msg("event created by staff")
	return eventResponse(ev), nil
}

type UpdateEventRequest struct {
	auth.AuthInput
	Slug string `path:"slug"`
	Body struct {
		Title            *string `json:"title,omitempty" maxLength:"200"`
		IsActive         *bool   `json:"is_active,omitempty"`
		RegistrationOpen *bool   `json:"registration_open,omitempty"`
		PhoneRequired    *bool   `json:"phone_required,omitempty"`
	}
}

func (h *EventHandler) HandleUpdate(ctx context.Context, input *UpdateEventRequest) (*EventResponse, error) {
	if _, err := h.guard.Authorize(ctx, input.AuthInput); err != nil {
		return nil, err
	}

	ev, err := h.svc.UpdateEvent(ctx, input.Slug, attendance.EventUpdate{
		Title:            input.Body.Title,
		IsActive:         input.Body.IsActive,
		RegistrationOpen: input.Body.RegistrationOpen,
		PhoneRequired:    input.Body.PhoneRequired,
	})
	if err != nil {
		return nil, toAPIError(h.log, err)
	}
	return eventResponse(ev), nil
}

type StatsRequest struct {
	auth.AuthInput
	Slug string `path:"slug"`
}

type StatsResponse struct {
	Body attendance.Stats
}

func (h *EventHandler) HandleStats(ctx context.Context, input *StatsRequest) (*StatsResponse, error) {
	if _, err := h.guard.Authorize(ctx, input.AuthInput); err != nil {
		return nil, err
	}

	st, err := h.svc.Stats(ctx, input.Slug)
	if err != nil {
		return nil, toAPIError(h.log, err)
	}
	return &StatsResponse{Body: st}, nil
}
