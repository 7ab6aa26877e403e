package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"gym-membership-platform/internal/config"
	"gym-membership-platform/internal/domain/ports/repository"
	"gym-membership-platform/internal/infra/sched"
	"gym-membership-platform/internal/usecase"
)

// Server is the thin HTTP surface over the payment core. It carries no
// business logic: handlers decode, call a use case, and map errors to status
// codes.
type Server struct {
	cfg       *config.Config
	paymentUC usecase.PaymentUseCase
	subUC     usecase.MembershipUseCase
	gyms      repository.GymRepository
	scheduler *sched.TenantScheduler
	log       *zerolog.Logger
	server    *http.Server
}

func NewServer(
	cfg *config.Config,
	paymentUC usecase.PaymentUseCase,
	subUC usecase.MembershipUseCase,
	gyms repository.GymRepository,
	scheduler *sched.TenantScheduler,
	logger *zerolog.Logger,
) *Server {
	webLog := logger.With().Str("component", "web").Logger()
	return &Server{
		cfg:       cfg,
		paymentUC: paymentUC,
		subUC:     subUC,
		gyms:      gyms,
		scheduler: scheduler,
		log:       &webLog,
	}
}

func (s *Server) Start() error {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "OK")
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/gyms", s.handleCreateGym)
		r.Post("/payments/cash", s.handleCreateCashPayment)
		r.Post("/payments/cash/{paymentID}/confirm", s.handleConfirmCashPayment)
		r.Post("/payments/gateway", s.handleCreateGatewayLink)
	})

	// SSLCommerz posts the payer back to these after checkout; the IPN hits
	// the same verification path server-to-server.
	r.Post("/payments/gateway/callback", s.handleGatewayCallback)
	r.Get("/payments/gateway/callback", s.handleGatewayCallback)

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.cfg.Server.Port),
		Handler: r,
	}
	s.log.Info().Int("port", s.cfg.Server.Port).Msg("HTTP server listening")
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
