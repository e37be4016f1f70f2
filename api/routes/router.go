package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/auroralife/aurora-backend/api/controllers"
	autoshipcontrollers "github.com/auroralife/aurora-backend/api/controllers/autoships"
	"github.com/auroralife/aurora-backend/api/middleware"
	"github.com/auroralife/aurora-backend/internal/autoship"
	"github.com/auroralife/aurora-backend/pkg/config"
	"github.com/auroralife/aurora-backend/pkg/logger"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type rateLimiterStore interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// Deps carries everything the HTTP surface needs.
type Deps struct {
	Config          *config.Config
	Logger          *logger.Logger
	DB              pinger
	Redis           pinger
	RateLimiter     rateLimiterStore
	Autoships       autoship.Service
	PaymentResolver autoship.PaymentResolver
	Runner          autoship.Runner
}

func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(deps.Logger),
		middleware.RequestID(deps.Logger),
		middleware.Logging(deps.Logger),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(deps.Config))
		r.Get("/ready", controllers.HealthReady(deps.Config, deps.Logger, readinessDeps(deps)))
	})

	triggerPolicy := middleware.NewRateLimitPolicy(
		"batch-trigger",
		deps.Config.Autoship.TriggerRateLimit,
		deps.Config.Autoship.TriggerRateWindow,
	)

	r.Route("/api/v1/autoships", func(r chi.Router) {
		r.Post("/", autoshipcontrollers.Create(deps.Autoships, deps.Logger))
		r.With(middleware.RateLimit(triggerPolicy, deps.RateLimiter, deps.Logger)).
			Post("/run", autoshipcontrollers.Run(deps.Runner, deps.Logger))
		r.Route("/{autoshipId}", func(r chi.Router) {
			r.Get("/", autoshipcontrollers.Detail(deps.Autoships, deps.Logger))
			r.Put("/", autoshipcontrollers.Update(deps.Autoships, deps.Logger))
			r.Delete("/", autoshipcontrollers.Cancel(deps.Autoships, deps.Logger))
			r.Post("/payment", autoshipcontrollers.AttachPayment(deps.Autoships, deps.PaymentResolver, deps.Logger))
			r.Get("/runs", autoshipcontrollers.ListRuns(deps.Autoships, deps.Logger))
		})
	})

	return r
}

func readinessDeps(deps Deps) map[string]controllers.Pinger {
	checks := map[string]controllers.Pinger{}
	if deps.DB != nil {
		checks["database"] = deps.DB
	}
	if deps.Redis != nil {
		checks["redis"] = deps.Redis
	}
	return checks
}
