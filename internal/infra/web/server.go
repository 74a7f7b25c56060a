package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"ticket-payment-service/internal/infra/logging"
	"ticket-payment-service/internal/infra/worker"
	"ticket-payment-service/internal/usecase"
)

type Server struct {
	checkout  usecase.CheckoutUseCase
	reconcile usecase.ReconcileUseCase
	pool      *worker.Pool
	log       *zerolog.Logger
}

func NewServer(
	checkout usecase.CheckoutUseCase,
	reconcile usecase.ReconcileUseCase,
	pool *worker.Pool,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		checkout:  checkout,
		reconcile: reconcile,
		pool:      pool,
		log:       logger,
	}
}

func (s *Server) Router(allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}))
	r.Use(s.traceMiddleware)

	r.Get("/", s.handleHealth)
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/process_payment", s.handleProcessPayment)
	r.Get("/payment_status/{payment_id}", s.handlePaymentStatus)
	r.Post("/webhook", s.handleWebhook)

	return r
}

// traceMiddleware tags each request with a trace ID for log correlation.
func (s *Server) traceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get("X-Request-Id")
		if traceID == "" {
			traceID = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", traceID)
		next.ServeHTTP(w, r.WithContext(logging.WithTraceID(r.Context(), traceID)))
	})
}
