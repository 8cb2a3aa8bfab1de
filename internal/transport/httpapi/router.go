package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/kislikjeka/handygo/internal/transport/httpapi/handler"
	"github.com/kislikjeka/handygo/internal/transport/httpapi/middleware"
	"github.com/kislikjeka/handygo/pkg/logger"
)

// Config holds router configuration
type Config struct {
	Logger          *logger.Logger
	AllowedOrigins  []string
	AccountHandler  *handler.AccountHandler
	BookingHandler  *handler.BookingHandler
	InvoiceHandler  *handler.InvoiceHandler
	WalletHandler   *handler.WalletHandler
	RatingHandler   *handler.RatingHandler
	SettingsHandler *handler.SettingsHandler
	SystemHandler   *handler.SystemHandler
	HealthHandler   *handler.HealthHandler
	JWTMiddleware   func(http.Handler) http.Handler
}

// NewRouter creates a new HTTP router
func NewRouter(cfg Config) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(chimiddleware.Compress(5))
	r.Use(middleware.RateLimit()) // Rate limiting: 100 req/s with burst of 20

	// Health check endpoints (no authentication required)
	r.Get("/health", handler.GetHealth)
	r.Get("/health/live", handler.GetLiveness)
	if cfg.HealthHandler != nil {
		r.Get("/health/ready", cfg.HealthHandler.GetReadiness)
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		if cfg.SettingsHandler != nil {
			r.Get("/settings/fare", cfg.SettingsHandler.GetFare)
		}

		if cfg.JWTMiddleware == nil {
			return
		}

		// Protected routes (require JWT authentication)
		r.Group(func(r chi.Router) {
			r.Use(cfg.JWTMiddleware)

			if h := cfg.AccountHandler; h != nil {
				r.Post("/accounts", h.CreateAccount)
				r.Get("/accounts/me", h.GetMe)
				r.Post("/accounts/me/push-token", h.RegisterPushToken)
				r.Put("/accounts/me/bank", h.UpdateBankDetails)
				r.Put("/accounts/me/availability", h.SetAvailability)
			}

			if h := cfg.BookingHandler; h != nil {
				r.Post("/bookings", h.CreateBooking)
				r.Get("/bookings", h.ListBookings)
				r.Route("/bookings/{bookingID}", func(r chi.Router) {
					r.Get("/", h.GetBooking)
					r.Post("/accept", h.AcceptBooking)
					r.Post("/reject", h.RejectBooking)
					r.Post("/start", h.StartBooking)
					r.Post("/complete", h.CompleteBooking)
					r.Post("/cancel", h.CancelBooking)
					r.Post("/pay", h.PayBooking)

					if inv := cfg.InvoiceHandler; inv != nil {
						r.Get("/invoice", inv.GetInvoice)
						r.Put("/invoice", inv.ReplaceInvoice)
						r.Post("/invoice/items", inv.AddItem)
						r.Put("/invoice/items/{itemID}", inv.UpdateItem)
						r.Delete("/invoice/items/{itemID}", inv.DeleteItem)
						r.Put("/invoice/fare", inv.SetFare)
					}
					if rt := cfg.RatingHandler; rt != nil {
						r.Get("/rating", rt.GetBookingRating)
						r.Post("/rating", rt.SubmitRating)
					}
				})

				r.Get("/handymen/me/jobs", h.ListJobs)
				r.Get("/handymen/me/stats", h.GetStats)
				r.Post("/handymen/me/location", h.ReportLocation)
				r.Get("/handymen/{handymanID}/slots", h.GetBookedSlots)
			}

			if h := cfg.RatingHandler; h != nil {
				r.Get("/handymen/{handymanID}/ratings", h.GetHandymanRatings)
			}

			if h := cfg.WalletHandler; h != nil {
				r.Get("/wallet", h.GetBalance)
				r.Get("/wallet/transactions", h.GetTransactions)
				r.Post("/wallet/top-up", h.TopUp)
				r.Post("/wallet/withdraw", h.Withdraw)
				r.Get("/wallet/reconcile", h.Reconcile)
			}

			if h := cfg.SystemHandler; h != nil {
				r.Post("/system/run-checks", h.RunChecks)
				r.Get("/system/status", h.GetStatus)
			}

			// Admin routes
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(middleware.RoleAdmin))

				if cfg.SettingsHandler != nil {
					r.Put("/settings/fare", cfg.SettingsHandler.SetFare)
				}
				if cfg.SystemHandler != nil {
					r.Post("/admin/invoices/migrate", cfg.SystemHandler.MigrateInvoices)
				}
			})
		})
	})

	return r
}
