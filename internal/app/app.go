// Package app assembles services, handlers and the router from backends.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/abdulhamidalthaljy/CareConnect/internal/config"
	"github.com/abdulhamidalthaljy/CareConnect/internal/handler"
	appointmenthandler "github.com/abdulhamidalthaljy/CareConnect/internal/handler/appointment"
	authhandler "github.com/abdulhamidalthaljy/CareConnect/internal/handler/auth"
	chathandler "github.com/abdulhamidalthaljy/CareConnect/internal/handler/chat"
	"github.com/abdulhamidalthaljy/CareConnect/internal/handler/doctor"
	exporthandler "github.com/abdulhamidalthaljy/CareConnect/internal/handler/export"
	filehandler "github.com/abdulhamidalthaljy/CareConnect/internal/handler/file"
	"github.com/abdulhamidalthaljy/CareConnect/internal/handler/patient"
	"github.com/abdulhamidalthaljy/CareConnect/internal/middleware"
	"github.com/abdulhamidalthaljy/CareConnect/internal/realtime"
	"github.com/abdulhamidalthaljy/CareConnect/internal/repository"
	"github.com/abdulhamidalthaljy/CareConnect/internal/router"
	appointmentService "github.com/abdulhamidalthaljy/CareConnect/internal/service/appointment"
	authService "github.com/abdulhamidalthaljy/CareConnect/internal/service/auth"
	chatService "github.com/abdulhamidalthaljy/CareConnect/internal/service/chat"
	"github.com/abdulhamidalthaljy/CareConnect/internal/service/clinical"
	exportService "github.com/abdulhamidalthaljy/CareConnect/internal/service/export"
	fileService "github.com/abdulhamidalthaljy/CareConnect/internal/service/file"
	"github.com/abdulhamidalthaljy/CareConnect/internal/service/notification"
	"github.com/abdulhamidalthaljy/CareConnect/internal/session"
	"github.com/abdulhamidalthaljy/CareConnect/internal/storage"
	"github.com/abdulhamidalthaljy/CareConnect/pkg/messaging"
	"github.com/abdulhamidalthaljy/CareConnect/pkg/metrics"
	"github.com/abdulhamidalthaljy/CareConnect/pkg/security"
)

// Deps are the backends chosen by configuration.
type Deps struct {
	Store    repository.Store
	Sessions session.Store
	Objects  storage.Store
	Broker   messaging.Broker
	Notifier notification.Notifier
	Hasher   security.PasswordHasher
	Registry *prometheus.Registry
	// Checks are extra readiness probes keyed by backend name.
	Checks map[string]handler.Pinger
}

type App struct {
	router *router.Router
	relay  *realtime.Relay
}

func New(cfg *config.Config, deps Deps) (*App, error) {
	switch {
	case deps.Store.Users == nil:
		return nil, fmt.Errorf("app: repository store is required")
	case deps.Sessions == nil:
		return nil, fmt.Errorf("app: session store is required")
	case deps.Objects == nil:
		return nil, fmt.Errorf("app: object storage is required")
	case deps.Broker == nil:
		return nil, fmt.Errorf("app: message broker is required")
	case deps.Hasher == nil:
		return nil, fmt.Errorf("app: password hasher is required")
	}
	if deps.Notifier == nil {
		deps.Notifier = notification.LogNotifier{}
	}
	if deps.Registry == nil {
		deps.Registry = prometheus.NewRegistry()
	}
	m := metrics.New(cfg.Metrics.Namespace, deps.Registry)

	authSvc := authService.NewService(deps.Store.Users, deps.Sessions, deps.Hasher, m)
	clinicalSvc := clinical.NewService(deps.Store)
	fileSvc := fileService.NewService(deps.Store.Files, deps.Objects, cfg.Storage.MaxUploadBytes, m)
	apptSvc := appointmentService.NewService(deps.Store.Users, deps.Store.Appointments, deps.Notifier)
	chatSvc := chatService.NewService(deps.Store.Users, deps.Store.Chat)
	exportSvc := exportService.NewService(deps.Store, clinicalSvc, m)

	relay := realtime.NewRelay(chatSvc, deps.Broker, realtime.NewHub(m), cfg.Messaging.Channel, m)

	authMW := middleware.NewAuthMiddleware(authSvc, cfg.Session.CookieName)
	loginLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Rate:  rate.Limit(cfg.RateLimit.LoginRPS),
		Burst: cfg.RateLimit.LoginBurst,
	})

	checks := map[string]handler.Pinger{"database": deps.Store.Ping}
	for name, check := range deps.Checks {
		checks[name] = check
	}

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowOrigins = cfg.Server.AllowedOrigins
	sizeCfg := middleware.DefaultSizeLimitConfig()
	sizeCfg.MaxUploadSize = cfg.Storage.MaxUploadBytes
	sizeCfg.UploadPaths = []string{"/upload_file"}

	r := router.NewRouter(authMW, router.Handlers{
		Ops: handler.NewHandler(deps.Registry, checks),
		Public: []router.Handler{
			authhandler.NewHandler(authSvc, authMW, authhandler.CookieConfig{
				Name:   cfg.Session.CookieName,
				TTL:    cfg.Session.TTL,
				Secure: cfg.Session.Secure,
			}, loginLimiter.RateLimit()),
		},
		Protected: []router.Handler{
			patient.NewHandler(clinicalSvc),
			doctor.NewHandler(clinicalSvc),
			filehandler.NewHandler(fileSvc),
			appointmenthandler.NewHandler(apptSvc),
			exporthandler.NewHandler(exportSvc),
		},
		Chat: chathandler.NewHandler(chatSvc, relay, cfg.Server.AllowedOrigins),
	}, router.RouterConfig{
		Mode:             cfg.Server.Mode,
		CORSConfig:       corsCfg,
		SizeLimit:        sizeCfg,
		MetricsNamespace: cfg.Metrics.Namespace,
		Registerer:       deps.Registry,
	})
	r.Setup()

	return &App{router: r, relay: relay}, nil
}

// Start begins relaying chat messages; it returns once subscribed.
func (a *App) Start(ctx context.Context) error {
	if err := a.relay.Start(ctx); err != nil {
		return fmt.Errorf("start relay: %w", err)
	}
	return nil
}

func (a *App) Handler() http.Handler {
	return a.router.Engine()
}

func (a *App) Engine() *gin.Engine {
	return a.router.Engine()
}
