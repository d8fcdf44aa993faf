package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/rewired-gh/matchhedge/internal/logger"
)

// RouterConfig holds HTTP layer settings.
type RouterConfig struct {
	RequestTimeout time.Duration
	AllowedOrigins []string
}

// NewRouter mounts every endpoint on a chi router.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", h.HealthCheck)

	r.Get("/api/v1/presets", h.listPresets)

	r.Route("/api/v1/sessions", func(r chi.Router) {
		r.Post("/", h.CreateSession)

		r.Route("/{sessionID}", func(r chi.Router) {
			r.Delete("/", h.DeleteSession)

			r.Get("/portfolio", h.withSession(h.getPortfolio))
			r.Put("/portfolio", h.withSession(h.putPortfolio))
			r.Post("/evaluate", h.withSession(h.evaluate))
			r.Get("/reference-profits", h.withSession(h.referenceProfits))
			r.Get("/scenarios", h.withSession(h.scenarios))
			r.Get("/coverage", h.withSession(h.coverage))
			r.Get("/presets/{preset}", h.withSession(h.previewPreset))
			r.Post("/presets/{preset}/apply", h.withSession(h.applyPreset))

			r.Post("/probabilities", h.withSession(h.probabilities))
			r.Post("/value", h.withSession(h.value))
			r.Post("/plans", h.withSession(h.plans))

			r.Get("/hedge", h.withSession(h.hedgeStatus))
			r.Post("/hedge/analyze", h.withSession(h.hedgeAnalyze))
			r.Post("/hedge/apply", h.withSession(h.hedgeApply))
			r.Post("/hedge/cancel", h.withSession(h.hedgeCancel))
			r.Post("/hedge/continue/{operationID}", h.withSession(h.hedgeContinue))

			r.Get("/operations", h.withSession(h.listOperations))
			r.Get("/operations/{operationID}", h.withSession(h.getOperation))
			r.Post("/operations/{operationID}/notes", h.withSession(h.addNote))
		})
	})

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		logger.Get().Debug().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}
