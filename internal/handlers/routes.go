package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/gdg-garage/checkin-api/internal/logging"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var staffSecurity = []map[string][]string{{"apiKeyAuth": {}}, {"bearerAuth": {}}}

func staffOnly(o *huma.Operation) {
	o.Security = staffSecurity
	o.Tags = append(o.Tags, "staff")
}

func RegisterRoutes(
	r *chi.Mux,
	log zerolog.Logger,
	gatherer prometheus.Gatherer,
	eventHandler *EventHandler,
	registrationHandler *RegistrationHandler,
	couponHandler *CouponHandler,
	apiKeyHandler *APIKeyHandler,
) huma.API {
	r.Use(middleware.RequestID)
	r.Use(logging.Middleware(log))
	r.Use(middleware.Recoverer)

	// Initialize Huma API
	config := huma.DefaultConfig("Check-in API", "1.0.0")
	config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"apiKeyAuth": {
			Type: "apiKey",
			In:   "header",
			Name: "X-API-KEY",
		},
		"bearerAuth": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "JWT",
		},
	}
	api := humachi.New(r, config)

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	huma.Get(api, "/events/{slug}", eventHandler.HandleGet)
	huma.Post(api, "/events/{slug}/registrations", registrationHandler.HandleRegister)
	huma.Get(api, "/events/{slug}/tickets/{id}", registrationHandler.HandleTicket)
	huma.Post(api, "/events/{slug}/check-in", registrationHandler.HandleSelfCheckIn)

	// Vendor routes; the coupon code is the credential
	huma.Get(api, "/coupons/{code}", couponHandler.HandleInspect)
	huma.Post(api, "/coupons/redeem", couponHandler.HandleRedeem)

	// Staff routes
	huma.Post(api, "/events/{slug}/tickets/{id}/check-in", registrationHandler.HandleStaffCheckIn, staffOnly)
	huma.Get(api, "/events/{slug}/tickets/{id}/history", registrationHandler.HandleHistory, staffOnly)
	huma.Get(api, "/events/{slug}/stats", eventHandler.HandleStats, staffOnly)
	huma.Post(api, "/admin/events", eventHandler.HandleCreate, staffOnly)
	huma.Patch(api, "/admin/events/{slug}", eventHandler.HandleUpdate, staffOnly)

	huma.Post(api, "/staff/token", apiKeyHandler.HandleToken, func(o *huma.Operation) {
		o.Security = []map[string][]string{{"apiKeyAuth": {}}}
	})
	huma.Post(api, "/admin/api-keys", apiKeyHandler.HandleCreate, staffOnly)
	huma.Get(api, "/admin/api-keys", apiKeyHandler.HandleList, staffOnly)
	huma.Delete(api, "/admin/api-keys/{id}", apiKeyHandler.HandleDelete, staffOnly)

	return api
}
