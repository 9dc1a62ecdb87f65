package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"github.com/ulule/limiter/v3"

	"github.com/bankhub/testcard-portal/modules/core/presentation/controllers"
	"github.com/bankhub/testcard-portal/modules/core/services"
	"github.com/bankhub/testcard-portal/pkg/application"
	"github.com/bankhub/testcard-portal/pkg/configuration"
	"github.com/bankhub/testcard-portal/pkg/constants"
	"github.com/bankhub/testcard-portal/pkg/metrics"
	"github.com/bankhub/testcard-portal/pkg/middleware"
	"github.com/bankhub/testcard-portal/pkg/server"
)

type DefaultOptions struct {
	Logger        *logrus.Logger
	Configuration *configuration.Configuration
	Application   application.Application
	Pool          *pgxpool.Pool
}

// Default assembles the production middleware stack and the HTTP server. The
// ordering matters: the pool and params must be in the context before the
// authenticator runs, and metrics wrap everything below logging.
func Default(options *DefaultOptions) (*server.HTTPServer, error) {
	app := options.Application
	conf := options.Configuration

	middlewares := []mux.MiddlewareFunc{
		middleware.WithLogger(options.Logger),
		metrics.RequestMetrics(),
		middleware.Provide(constants.AppKey, app),
		middleware.Provide(constants.PoolKey, options.Pool),
		middleware.Cors(strings.Split(conf.AllowedOrigins, ",")...),
		middleware.RequestParams(),
	}

	if conf.RateLimit.Enabled {
		var store limiter.Store
		var err error
		switch conf.RateLimit.Storage {
		case "redis":
			store, err = middleware.NewRedisStore(conf.RateLimit.RedisURL)
			if err != nil {
				options.Logger.WithError(err).Warn("rate limit redis store unavailable, using memory")
				store = middleware.NewMemoryStore()
			}
		default:
			store = middleware.NewMemoryStore()
		}
		middlewares = append(middlewares, authRateLimit(middleware.RateLimit(middleware.RateLimitConfig{
			Requests: conf.RateLimit.AuthRPM,
			Period:   time.Minute,
			Store:    store,
		})))
	}

	auth := app.Service(services.AuthService{}).(*services.AuthService)
	middlewares = append(middlewares, middleware.Authenticate(auth))

	app.RegisterMiddleware(middlewares...)

	if conf.Prometheus.Enabled {
		app.RegisterControllers(metrics.NewPrometheusController(conf.Prometheus.Path))
	}

	return server.NewHTTPServer(
		app,
		controllers.NotFound(),
		controllers.MethodNotAllowed(),
	), nil
}

// authRateLimit narrows a rate limiter to the credential-guessing surface so
// the per-minute budget does not throttle normal dashboard traffic.
func authRateLimit(limit mux.MiddlewareFunc) mux.MiddlewareFunc {
	limited := map[string]bool{
		"/users/login":           true,
		"/users/verify-otp":      true,
		"/users/resend-otp":      true,
		"/users/forgot-password": true,
		"/users/reset-password":  true,
	}
	return func(next http.Handler) http.Handler {
		guarded := limit(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limited[r.URL.Path] {
				guarded.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
