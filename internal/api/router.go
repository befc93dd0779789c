package api

import (
	"log/slog"
	"net/http"
	"os"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
	"github.com/rs/zerolog"

	"github.com/openreferee/server/internal/api/handlers"
	"github.com/openreferee/server/internal/api/middleware"
	"github.com/openreferee/server/internal/config"
	"github.com/openreferee/server/internal/domain/events"
	"github.com/openreferee/server/internal/hub"
	"github.com/openreferee/server/internal/jobs"
	"github.com/openreferee/server/internal/metrics"
	"github.com/openreferee/server/internal/storage/postgres"
)

// Router bundles the HTTP handler with the job client the serve command
// starts and stops alongside the server.
type Router struct {
	Handler     http.Handler
	RiverClient *river.Client[pgx.Tx]
}

// NewRouter wires the full webhook surface: repository, hub collaborators,
// the revision poll workers, and the middleware chain.
func NewRouter(cfg config.Config, logger zerolog.Logger, pool *pgxpool.Pool, version string) (*Router, error) {
	repo, err := postgres.NewRepository(pool)
	if err != nil {
		return nil, err
	}

	sessions := hub.NewSessionFactory(hub.WithTimeout(cfg.Hub.Timeout))
	ops := hub.NewOperations(logger)
	service := events.NewService(repo.Events(), ops, sessions)

	workers := jobs.NewWorkers(repo.Events(), ops, sessions, cfg.Hub.PollInterval, logger)
	slogLogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
	riverClient, err := jobs.NewClient(pool, workers, slogLogger, []rivertype.Hook{metrics.NewRiverMetricsHook()})
	if err != nil {
		return nil, err
	}

	serviceHandler := handlers.NewServiceHandler(version)
	eventsHandler := handlers.NewEventsHandler(service, cfg.Environment)
	editablesHandler := handlers.NewEditablesHandler(service, riverClient, cfg.Environment)
	healthChecker := handlers.NewHealthChecker(pool, riverClient, version)

	auth := middleware.EventTokenAuth(repo.Events(), cfg.Environment)

	mux := http.NewServeMux()
	mux.Handle("/healthz", handlers.Healthz())
	mux.Handle("/health", healthChecker.Health())
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
	mux.Handle("/openapi.json", OpenAPIHandler())

	mux.Handle("/info", methodMux(map[string]http.Handler{
		http.MethodGet: http.HandlerFunc(serviceHandler.ServiceInfo),
	}))

	mux.Handle("/event/{identifier}", methodMux(map[string]http.Handler{
		http.MethodPut:    http.HandlerFunc(eventsHandler.Create),
		http.MethodDelete: auth(http.HandlerFunc(eventsHandler.Remove)),
		http.MethodGet:    auth(http.HandlerFunc(eventsHandler.Get)),
	}))
	mux.Handle("/event/{identifier}/editable/{type}/{contrib_id}", methodMux(map[string]http.Handler{
		http.MethodPut: auth(http.HandlerFunc(editablesHandler.Create)),
	}))
	mux.Handle("/event/{identifier}/editable/{type}/{contrib_id}/{revision_id}", methodMux(map[string]http.Handler{
		http.MethodPost: auth(http.HandlerFunc(editablesHandler.Review)),
	}))

	var handler http.Handler = mux
	handler = middleware.RateLimit(cfg.RateLimit.PerMinute)(handler)
	handler = middleware.WebhookRequestSize()(handler)
	handler = metrics.HTTPMiddleware(handler)
	handler = middleware.RequestLogging(logger)(handler)
	handler = middleware.Tracing(handler)
	handler = middleware.CorrelationID(logger)(handler)

	return &Router{Handler: handler, RiverClient: riverClient}, nil
}

func methodMux(handlers map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handler, ok := handlers[r.Method]; ok {
			handler.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Allow", allowedMethods(handlers))
		w.WriteHeader(http.StatusMethodNotAllowed)
	})
}

func allowedMethods(handlers map[string]http.Handler) string {
	methods := make([]string, 0, len(handlers))
	for method := range handlers {
		methods = append(methods, method)
	}
	sort.Strings(methods)
	return strings.Join(methods, ", ")
}
