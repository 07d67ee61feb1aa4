package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gdg-garage/checkin-api/internal/attendance"
	"github.com/gdg-garage/checkin-api/internal/auth"
	"github.com/gdg-garage/checkin-api/internal/models"
	"github.com/rs/zerolog"
)

type RegistrationHandler struct {
	svc   *attendance.Service
	guard *auth.Guard
	log   zerolog.Logger
}

func NewRegistrationHandler(svc *attendance.Service, guard *auth.Guard, log zerolog.Logger) *RegistrationHandler {
	return &RegistrationHandler{svc: svc, guard: guard, log: log}
}

type RegistrationRequest struct {
	Slug string `path:"slug" doc:"Event slug"`
	Body struct {
		Email              string `json:"email" maxLength:"254" doc:"Attendee email, matched case-insensitively"`
		Phone              string `json:"phone,omitempty" maxLength:"32" doc:"Nigerian phone number in any common format"`
		FirstName          string `json:"first_name" maxLength:"100"`
		LastName           string `json:"last_name,omitempty" maxLength:"100"`
		IsRcfMember        bool   `json:"is_rcf_member,omitempty"`
		Gender             string `json:"gender,omitempty"`
		Level              string `json:"level,omitempty"`
		RelationshipStatus string `json:"relationship_status,omitempty"`
		ReferralSource     string `json:"referral_source,omitempty"`
		Remarks            string `json:"remarks,omitempty" maxLength:"1000"`
	}
}

type RegistrationResponse struct {
	Status int
	Body   struct {
		TicketID          string                    `json:"ticket_id" doc:"Ticket identity, encoded in the QR code"`
		AlreadyRegistered bool                      `json:"already_registered"`
		Code              string                    `json:"code,omitempty"`
		Attendee          attendance.PublicAttendee `json:"attendee"`
	}
}

// HandleRegister answers 201 for a new ticket and 200 with the existing
// ticket when the contact details are already registered.
func (h *RegistrationHandler) HandleRegister(ctx context.Context, input *RegistrationRequest) (*RegistrationResponse, error) {
	a, err := h.svc.Register(ctx, input.Slug, attendance.RegisterInput{
		Email:       input.Body.Email,
		Phone:       input.Body.Phone,
		FirstName:   input.Body.FirstName,
		LastName:    input.Body.LastName,
		IsRcfMember: input.Body.IsRcfMember,
		Fields: models.AttendeeFields{
			Gender:             input.Body.Gender,
			Level:              input.Body.Level,
			RelationshipStatus: input.Body.RelationshipStatus,
			ReferralSource:     input.Body.ReferralSource,
			Remarks:            input.Body.Remarks,
		},
	})

	res := &RegistrationResponse{Status: http.StatusCreated}
	var dup *attendance.AlreadyRegisteredError
	if errors.As(err, &dup) {
		res.Status = http.StatusOK
		res.Body.AlreadyRegistered = true
		res.Body.Code = CodeAlreadyRegistered
		res.Body.TicketID = dup.Existing.TicketID
		res.Body.Attendee = dup.Public()
		return res, nil
	}
	if err != nil {
		return nil, toAPIError(h.log, err)
	}

	res.Body.TicketID = a.TicketID
	res.Body.Attendee = a.Public()
	return res, nil
}

type TicketRequest struct {
	Slug string `path:"slug"`
	ID   string `path:"id" doc:"Ticket id"`
}

type TicketResponse struct {
	Body attendance.PublicAttendee
}

func (h *RegistrationHandler) HandleTicket(ctx context.Context, input *TicketRequest) (*TicketResponse, error) {
	a, err := h.svc.GetTicket(ctx, input.Slug, input.ID)
	if err != nil {
		return nil, toAPIError(h.log, err)
	}
	return &TicketResponse{Body: a.Public()}, nil
}

type HistoryRequest struct {
	auth.AuthInput
	Slug string `path:"slug"`
	ID   string `path:"id" doc:"Ticket id"`
}

type HistoryEntry struct {
	Action string    `json:"action" enum:"registered,checked_in,coupon_issued,coupon_redeemed"`
	Actor  string    `json:"actor"`
	Detail string    `json:"detail,omitempty"`
	At     time.Time `json:"at"`
}

type HistoryResponse struct {
	Body []HistoryEntry
}

// HandleHistory returns the audit trail of one ticket for staff resolving
// vendor disputes.
func (h *RegistrationHandler) HandleHistory(ctx context.Context, input *HistoryRequest) (*HistoryResponse, error) {
	if _, err := h.guard.Authorize(ctx, input.AuthInput); err != nil {
		return nil, err
	}

	rows, err := h.svc.History(ctx, input.Slug, input.ID)
	if err != nil {
		return nil, toAPIError(h.log, err)
	}

	entries := make([]HistoryEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, HistoryEntry{
			Action: row.Action,
			Actor:  row.Actor,
			Detail: row.Detail,
			At:     row.CreatedAt,
		})
	}
	return &HistoryResponse{Body: entries}, nil
}

type CheckInResponse struct {
	Body struct {
		AlreadyCheckedIn bool                      `json:"already_checked_in"`
		Attendee         attendance.PublicAttendee `json:"attendee"`
	}
}

func checkInResponse(res attendance.CheckInResult) *CheckInResponse {
	out := &CheckInResponse{}
	out.Body.AlreadyCheckedIn = res.AlreadyCheckedIn
	out.Body.Attendee = res.Attendee.Public()
	return out
}

type SelfCheckInRequest struct {
	Slug string `path:"slug"`
	Body struct {
		Email      string `json:"email,omitempty" maxLength:"254"`
		Phone      string `json:"phone,omitempty" maxLength:"32"`
		WantCoupon bool   `json:"want_coupon,omitempty" doc:"Issue a coupon with the check-in"`
	}
}

func (h *RegistrationHandler) HandleSelfCheckIn(ctx context.Context, input *SelfCheckInRequest) (*CheckInResponse, error) {
	res, err := h.svc.CheckInByContact(ctx, input.Slug, input.Body.Email, input.Body.Phone, input.Body.WantCoupon)
	if err != nil {
		return nil, toAPIError(h.log, err)
	}
	return checkInResponse(res), nil
}

type StaffCheckInRequest struct {
	auth.AuthInput
	Slug       string `path:"slug"`
	ID         string `path:"id" doc:"Ticket id from the scanned QR code"`
	WantCoupon bool   `query:"coupon" doc:"Issue a coupon with the check-in"`
}

func (h *RegistrationHandler) HandleStaffCheckIn(ctx context.Context, input *StaffCheckInRequest) (*CheckInResponse, error) {
	staff, err := h.guard.Authorize(ctx, input.AuthInput)
	if err != nil {
		return nil, err
	}

	res, err := h.svc.CheckInByTicket(ctx, input.Slug, input.ID, input.WantCoupon, staff.Name)
	if err != nil {
		return nil, toAPIError(h.log, err)
	}
	return checkInResponse(res), nil
}
