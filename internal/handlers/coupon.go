package handlers

import (
	"context"
	"time"

	"github.com/gdg-garage/checkin-api/internal/attendance"
	"github.com/rs/zerolog"
)

type CouponHandler struct {
	svc *attendance.Service
	log zerolog.Logger
}

func NewCouponHandler(svc *attendance.Service, log zerolog.Logger) *CouponHandler {
	return &CouponHandler{svc: svc, log: log}
}

type InspectCouponRequest struct {
	Code string `path:"code" doc:"Coupon code, case-insensitive"`
}

type InspectCouponResponse struct {
	Body struct {
		Code         string     `json:"code"`
		State        string     `json:"state" enum:"active,redeemed"`
		Redeemable   bool       `json:"redeemable"`
		Reason       string     `json:"reason,omitempty" doc:"Failure code redeeming now would produce"`
		RedeemedAt   *time.Time `json:"redeemed_at,omitempty"`
		AttendeeName string     `json:"attendee_name"`
	}
}

func (h *CouponHandler) HandleInspect(ctx context.Context, input *InspectCouponRequest) (*InspectCouponResponse, error) {
	status, err := h.svc.InspectCoupon(ctx, input.Code)
	if err != nil {
		return nil, toAPIError(h.log, err)
	}

	res := &InspectCouponResponse{}
	res.Body.Code = status.Code
	res.Body.State = status.State.String()
	res.Body.Redeemable = status.Redeemable
	res.Body.RedeemedAt = status.RedeemedAt
	res.Body.AttendeeName = status.AttendeeName
	if status.Reason != nil {
		if apiErr, ok := toAPIError(h.log, status.Reason).(*APIError); ok {
			res.Body.Reason = apiErr.Code
		}
	}
	return res, nil
}

type RedeemRequest struct {
	Body struct {
		Code   string `json:"code" maxLength:"64" doc:"Coupon code presented by the attendee"`
		Vendor string `json:"vendor,omitempty" maxLength:"100" doc:"Name of the redeeming vendor"`
	}
}

type RedeemResponse struct {
	Body struct {
		Code         string    `json:"code"`
		RedeemedAt   time.Time `json:"redeemed_at"`
		AttendeeName string    `json:"attendee_name"`
	}
}

// HandleRedeem consumes the coupon. The code is the only credential.
func (h *CouponHandler) HandleRedeem(ctx context.Context, input *RedeemRequest) (*RedeemResponse, error) {
	a, err := h.svc.Redeem(ctx, input.Body.Code, input.Body.Vendor)
	if err != nil {
		return nil, toAPIError(h.log, err)
	}

	res := &RedeemResponse{}
	res.Body.Code = a.Coupon.Code
	res.Body.AttendeeName = a.Name()
	if a.Coupon.RedeemedAt != nil {
		res.Body.RedeemedAt = *a.Coupon.RedeemedAt
	}
	return res, nil
}
