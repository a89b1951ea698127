package rest

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

const (
	defaultRequestTimeout = 30 * time.Second
	defaultStreamInterval = 5 * time.Second
)

// Handler wires the engine's operations into an HTTP router.
type Handler struct {
	progress    ProgressService
	reactions   ReactionService
	submissions SubmissionService
	leaderboard LeaderboardService
	logger      *zap.Logger

	requestTimeout time.Duration
	streamInterval time.Duration

	router *chi.Mux
}

type HandlerOption func(*Handler)

// WithRequestTimeout overrides the per-request deadline of the plain
// HTTP routes.
func WithRequestTimeout(d time.Duration) HandlerOption {
	return func(h *Handler) { h.requestTimeout = d }
}

// WithStreamInterval overrides the push cadence of the leaderboard
// websocket stream.
func WithStreamInterval(d time.Duration) HandlerOption {
	return func(h *Handler) { h.streamInterval = d }
}

func NewHandler(
	progress ProgressService,
	reactions ReactionService,
	submissions SubmissionService,
	leaderboard LeaderboardService,
	logger *zap.Logger,
	opts ...HandlerOption,
) *Handler {
	h := &Handler{
		progress:       progress,
		reactions:      reactions,
		submissions:    submissions,
		leaderboard:    leaderboard,
		logger:         logger,
		requestTimeout: defaultRequestTimeout,
		streamInterval: defaultStreamInterval,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.setupRouter()
	return h
}

// Router returns the configured router.
func (h *Handler) Router() http.Handler {
	return h.router
}

func (h *Handler) setupRouter() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.loggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-User-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", h.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		// The stream lives until the client disconnects, so it stays
		// outside the request timeout below.
		r.Get("/leaderboard/ws", h.handleLeaderboardStream)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(h.requestTimeout))

			r.Route("/assessments/{assessmentID}", func(r chi.Router) {
				r.Post("/progress", h.handleStartProgress)
				r.Get("/progress", h.handleProgressStatus)
				r.Post("/answers", h.handleSubmitAnswer)
				r.Get("/score", h.handleAssessmentScore)
				r.Post("/submissions", h.handleCreateSubmission)
			})

			r.Route("/submissions/{submissionID}", func(r chi.Router) {
				r.Post("/reactions", h.handleReact)
				r.Post("/validate", h.handleValidateSubmission)
			})

			r.Get("/leaderboard", h.handleLeaderboard)
			r.Get("/users/{userID}/rank", h.handleRank)
		})
	})

	h.router = r
}

// loggingMiddleware logs HTTP requests with zap.
func (h *Handler) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			h.logger.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
