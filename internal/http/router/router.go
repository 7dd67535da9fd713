package router

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/opsdesk/opsdesk-api/internal/auth"
	"github.com/opsdesk/opsdesk-api/internal/config"
	"github.com/opsdesk/opsdesk-api/internal/database"
	"github.com/opsdesk/opsdesk-api/internal/http/handler"
	"github.com/opsdesk/opsdesk-api/internal/http/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "github.com/opsdesk/opsdesk-api/docs" // Import generated swagger docs
)

// Handlers groups the API handlers mounted under /api/v1
type Handlers struct {
	Auth            *handler.AuthHandler
	Users           *handler.UserHandler
	Orders          *handler.OrderHandler
	OrderStatus     *handler.OrderStatusHandler
	PaymentReminder *handler.PaymentReminderHandler
	Notifications   *handler.NotificationHandler
}

// ReadinessCheck is an extra dependency reported by /health/ready
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type Router struct {
	cfg            *config.Config
	logger         *zap.Logger
	db             *gorm.DB
	authMiddleware *auth.Middleware
	rateLimiter    *middleware.RateLimiter
	handlers       Handlers
	checks         []ReadinessCheck
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	authMiddleware *auth.Middleware,
	rateLimiter *middleware.RateLimiter,
	handlers Handlers,
	checks ...ReadinessCheck,
) *Router {
	return &Router{
		cfg:            cfg,
		logger:         logger,
		db:             db,
		authMiddleware: authMiddleware,
		rateLimiter:    rateLimiter,
		handlers:       handlers,
		checks:         checks,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logging(rt.logger))
	if rt.cfg.Server.EnableMetrics {
		r.Use(middleware.Metrics)
	}
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(rt.rateLimiter.LimitByIP)

	// Liveness probe
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Get("/health/db", rt.databaseHealth)
	r.Get("/health/ready", rt.readiness)

	if rt.cfg.Server.EnableMetrics {
		r.Handle("/metrics", promhttp.Handler())
	}

	if rt.cfg.Server.EnableSwagger {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	h := rt.handlers
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rt.authMiddleware.Authenticate)
		r.Use(rt.rateLimiter.LimitByUser)

		r.Get("/auth/me", h.Auth.Me)
		r.Get("/users", h.Users.List)

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", h.Orders.List)
			r.Post("/", h.Orders.Create)
			r.Get("/counts", h.Orders.Counts)
			r.Get("/{id}", h.Orders.Get)
			r.Put("/{id}", h.Orders.Update)
			r.Delete("/{id}", h.OrderStatus.SoftDelete)
			r.Delete("/{id}/purge", h.Orders.Purge)

			r.Post("/{id}/status", h.OrderStatus.Toggle)
			r.Post("/{id}/assign", h.OrderStatus.Assign)
			r.Post("/{id}/review", h.OrderStatus.SendToReview)
			r.Delete("/{id}/review", h.OrderStatus.RemoveFromReview)
			r.Put("/{id}/yearly-package", h.Orders.YearlyPackage)

			r.Get("/{id}/history", h.Orders.History)
			r.Get("/{id}/invoice", h.Orders.Invoice)

			r.Get("/{id}/payment-reminder", h.PaymentReminder.Get)
			r.Put("/{id}/payment-reminder", h.PaymentReminder.Schedule)
			r.Delete("/{id}/payment-reminder", h.PaymentReminder.Cancel)
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", h.Notifications.List)
			r.Get("/count", h.Notifications.GetUnreadCount)
			r.Put("/read-all", h.Notifications.MarkAllAsRead)
			r.Get("/{id}", h.Notifications.GetByID)
			r.Put("/{id}/read", h.Notifications.MarkAsRead)
		})
	})

	return r
}

// databaseHealth is the readiness probe with connection pool stats
func (rt *Router) databaseHealth(w http.ResponseWriter, r *http.Request) {
	stats, err := database.HealthCheckWithStats(rt.db)
	if err != nil {
		rt.logger.Error("Database health check failed", zap.Error(err))
		writeHealth(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":  "unhealthy",
			"error":   err.Error(),
			"service": "database",
		})
		return
	}

	writeHealth(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"service": "database",
		"stats": map[string]interface{}{
			"max_open_connections": stats.MaxOpenConnections,
			"open_connections":     stats.OpenConnections,
			"in_use":               stats.InUse,
			"idle":                 stats.Idle,
			"wait_count":           stats.WaitCount,
			"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
		},
	})
}

// readiness checks the database and every registered dependency
func (rt *Router) readiness(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]interface{})
	allHealthy := true

	report := func(name string, err error) {
		if err != nil {
			rt.logger.Error("readiness check failed", zap.String("check", name), zap.Error(err))
			checks[name] = map[string]interface{}{"status": "unhealthy", "error": err.Error()}
			allHealthy = false
			return
		}
		checks[name] = map[string]interface{}{"status": "healthy"}
	}

	report("database", database.HealthCheck(rt.db))
	for _, c := range rt.checks {
		report(c.Name, c.Check(r.Context()))
	}

	status, code := "healthy", http.StatusOK
	if !allHealthy {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}
	writeHealth(w, code, map[string]interface{}{
		"status": status,
		"checks": checks,
	})
}

func writeHealth(w http.ResponseWriter, status int, body map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
