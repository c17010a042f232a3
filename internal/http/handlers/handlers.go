package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/diagnosis/heritage-portal/internal/http/middleware"
	"github.com/diagnosis/heritage-portal/internal/http/response"
	"github.com/diagnosis/heritage-portal/internal/service"
	"github.com/diagnosis/heritage-portal/internal/summary"
	pkgmiddleware "github.com/diagnosis/heritage-portal/pkg/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

const maxBodyBytes = 1 << 20

type Handlers struct {
	catalog  service.CatalogService
	bookings service.BookingService
	auth     service.AuthService
	wizard   service.WizardService
	contact  service.ContactService
	limiter  middleware.Limiter
	summary  summary.Builder
}

type Deps struct {
	Catalog  service.CatalogService
	Bookings service.BookingService
	Auth     service.AuthService
	Wizard   service.WizardService
	Contact  service.ContactService
	Limiter  middleware.Limiter
	Currency string
}

func New(d Deps) *Handlers {
	return &Handlers{
		catalog:  d.Catalog,
		bookings: d.Bookings,
		auth:     d.Auth,
		wizard:   d.Wizard,
		contact:  d.Contact,
		limiter:  d.Limiter,
		summary:  summary.NewBuilder(d.Currency),
	}
}

// Router mounts every route on a fresh chi router.
func (h *Handlers) Router(allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(pkgmiddleware.Recover)
	r.Use(pkgmiddleware.RequestID)
	r.Use(pkgmiddleware.ServiceName("heritage-api"))
	r.Use(pkgmiddleware.Logging)
	r.Use(pkgmiddleware.Health)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/v1", func(r chi.Router) {
		r.Get("/rooms", h.ListRooms)
		r.Get("/rooms/{id}", h.GetRoom)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(h.limiter, middleware.RateLimitConfig{
				Requests: 10,
				Window:   time.Minute,
				Prefix:   "auth:",
			}))
			r.Post("/auth/register", h.Register)
			r.Post("/auth/login", h.Login)
		})

		r.Post("/contact", h.Contact)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireUser(h.auth))

			r.Post("/auth/logout", h.Logout)
			r.Get("/me", h.Me)
			r.Get("/me/bookings", h.ListBookings)
			r.Get("/me/bookings/{id}", h.GetBooking)
			r.Post("/bookings", h.CreateBooking)

			r.Post("/wizard", h.OpenWizard)
			r.Get("/wizard/{id}", h.GetWizard)
			r.Post("/wizard/{id}/events", h.ApplyWizardEvent)
			r.Delete("/wizard/{id}", h.CancelWizard)
		})
	})
	return r
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return false
	}
	return true
}

// userID is set for every route behind RequireUser.
func userID(r *http.Request) string {
	if c := middleware.Claims(r); c != nil {
		return c.UserID()
	}
	return ""
}
