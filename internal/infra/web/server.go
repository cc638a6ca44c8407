package web

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"reetrack-billing/internal/infra/metrics"
	"reetrack-billing/internal/usecase"
)

type Server struct {
	planUC    usecase.PlanUseCase
	subUC     usecase.SubscriptionUseCase
	billingUC usecase.BillingUseCase
	statsUC   usecase.StatsUseCase

	apiKey        string
	webhookSecret string
	log           *zerolog.Logger
}

func NewServer(
	planUC usecase.PlanUseCase,
	subUC usecase.SubscriptionUseCase,
	billingUC usecase.BillingUseCase,
	statsUC usecase.StatsUseCase,
	apiKey string,
	webhookSecret string,
	logger *zerolog.Logger,
) *Server {
	l := logger.With().Str("component", "WebServer").Logger()
	return &Server{
		planUC:        planUC,
		subUC:         subUC,
		billingUC:     billingUC,
		statsUC:       statsUC,
		apiKey:        apiKey,
		webhookSecret: webhookSecret,
		log:           &l,
	}
}

// Router builds the chi router for the whole HTTP surface. The webhook route
// stays outside the admin auth: the gateway authenticates by signature.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Post("/api/v1/payments/paystack/webhook", s.handlePaystackWebhook)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.authMiddleware)

		r.Route("/orgs/{orgID}", func(r chi.Router) {
			r.Get("/stats", s.handleOrgStats)

			r.Route("/plans", func(r chi.Router) {
				r.Get("/", s.handlePlanList)
				r.Post("/", s.handlePlanCreate)
				r.Get("/{planID}", s.handlePlanGet)
				r.Put("/{planID}", s.handlePlanUpdate)
				r.Post("/{planID}/toggle", s.handlePlanToggle)
				r.Delete("/{planID}", s.handlePlanDelete)
			})
		})

		r.Route("/subscriptions", func(r chi.Router) {
			r.Post("/", s.handleSubscribe)
			r.Get("/{subID}", s.handleSubscriptionGet)
			r.Post("/{subID}/pause", s.handleSubscriptionPause)
			r.Post("/{subID}/resume", s.handleSubscriptionResume)
			r.Post("/{subID}/cancel", s.handleSubscriptionCancel)
		})
		r.Get("/subscribers/{type}/{id}/subscriptions", s.handleSubscriptionList)
		r.Get("/subscribers/{type}/{id}/invoices", s.handleInvoiceList)

		r.Route("/invoices", func(r chi.Router) {
			r.Post("/", s.handleInvoiceCreate)
			r.Get("/{invoiceID}", s.handleInvoiceGet)
		})

		r.Route("/payments", func(r chi.Router) {
			r.Post("/initialize", s.handlePaymentInitialize)
			r.Post("/{paymentID}/refund", s.handlePaymentRefund)
			r.Post("/verify/{reference}", s.handlePaymentVerify)
		})
	})

	return r
}

// authMiddleware provides simple Bearer token authentication for the admin API.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey == "" {
			s.log.Error().Msg("Admin API key is not configured")
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || strings.ToLower(tokenParts[0]) != "bearer" {
			http.Error(w, "Unauthorized: Malformed token", http.StatusUnauthorized)
			return
		}

		if tokenParts[1] != s.apiKey {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		metrics.ObserveHTTPRequest(route, r.Method, ww.Status(), float64(time.Since(start).Milliseconds()))
	})
}
