package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/abdulhamidalthaljy/CareConnect/internal/app"
	"github.com/abdulhamidalthaljy/CareConnect/internal/config"
	"github.com/abdulhamidalthaljy/CareConnect/internal/handler"
	"github.com/abdulhamidalthaljy/CareConnect/internal/repository"
	"github.com/abdulhamidalthaljy/CareConnect/internal/repository/memory"
	"github.com/abdulhamidalthaljy/CareConnect/internal/repository/postgres"
	"github.com/abdulhamidalthaljy/CareConnect/internal/service/notification"
	"github.com/abdulhamidalthaljy/CareConnect/internal/session"
	"github.com/abdulhamidalthaljy/CareConnect/internal/storage"
	"github.com/abdulhamidalthaljy/CareConnect/pkg/messaging"
	messagingmemory "github.com/abdulhamidalthaljy/CareConnect/pkg/messaging/memory"
	messagingredis "github.com/abdulhamidalthaljy/CareConnect/pkg/messaging/redis"
	"github.com/abdulhamidalthaljy/CareConnect/pkg/security"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP and websocket server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runServer(cmd.Context(), cfg)
		},
	}
}

// closer collects backend shutdown hooks in the order they were opened.
type closer []func() error

func (c *closer) add(fn func() error) { *c = append(*c, fn) }

func (c closer) closeAll() {
	for i := len(c) - 1; i >= 0; i-- {
		if err := c[i](); err != nil {
			log.Warn().Err(err).Msg("close backend")
		}
	}
}

func runServer(parent context.Context, cfg *config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var closers closer
	defer func() { closers.closeAll() }()

	deps, err := buildDeps(cfg, &closers)
	if err != nil {
		return err
	}

	a, err := app.New(cfg, deps)
	if err != nil {
		return err
	}
	if err := a.Start(ctx); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      a.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.Server.Port).Str("database", cfg.Database.Driver).
			Str("sessions", cfg.Session.Driver).Str("storage", cfg.Storage.Driver).
			Str("messaging", cfg.Messaging.Driver).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}
	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	if n, ok := deps.Notifier.(*notification.SMTPNotifier); ok {
		n.Close()
	}
	log.Info().Msg("server exited properly")
	return nil
}

func buildDeps(cfg *config.Config, closers *closer) (app.Deps, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	deps := app.Deps{
		Hasher:   security.NewBcryptHasher(bcrypt.DefaultCost),
		Notifier: notification.New(cfg.SMTP),
		Registry: reg,
		Checks:   map[string]handler.Pinger{},
	}

	store, err := openStore(cfg, closers)
	if err != nil {
		return deps, err
	}
	deps.Store = store

	var rdb *goredis.Client
	redisClient := func() (*goredis.Client, error) {
		if rdb != nil {
			return rdb, nil
		}
		opts, err := goredis.ParseURL(cfg.Redis.URL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		if cfg.Redis.PoolSize > 0 {
			opts.PoolSize = cfg.Redis.PoolSize
		}
		rdb = goredis.NewClient(opts)
		closers.add(rdb.Close)
		deps.Checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		return rdb, nil
	}

	switch cfg.Session.Driver {
	case "redis":
		client, err := redisClient()
		if err != nil {
			return deps, err
		}
		deps.Sessions = session.NewRedisStore(client, cfg.Session.TTL)
	case "jwt":
		deps.Sessions = session.NewJWTStore(cfg.Session.JWTSecret, cfg.Session.TTL)
	default:
		deps.Sessions = session.NewMemoryStore(cfg.Session.TTL)
	}

	switch cfg.Storage.Driver {
	case "minio":
		m := cfg.Storage.Minio
		objects, err := storage.NewMinioStore(m.Endpoint, m.AccessKey, m.SecretKey, m.Bucket, m.UseSSL)
		if err != nil {
			return deps, err
		}
		deps.Objects = objects
	default:
		objects, err := storage.NewFileStore(cfg.Storage.UploadRoot)
		if err != nil {
			return deps, err
		}
		deps.Objects = objects
	}

	broker, err := openBroker(cfg)
	if err != nil {
		return deps, err
	}
	closers.add(broker.Close)
	deps.Broker = broker

	return deps, nil
}

func openStore(cfg *config.Config, closers *closer) (repository.Store, error) {
	if cfg.Database.Driver == "memory" {
		log.Warn().Msg("using in-memory store; data is lost on restart")
		return memory.NewStore(), nil
	}
	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		return repository.Store{}, err
	}
	closers.add(db.Close)
	return postgres.NewStore(db), nil
}

func openBroker(cfg *config.Config) (messaging.Broker, error) {
	if cfg.Messaging.Driver == "redis" {
		return messagingredis.NewRedisBroker(messagingredis.Config{
			URL:      cfg.Redis.URL,
			PoolSize: cfg.Redis.PoolSize,
		}, log.Logger)
	}
	return messagingmemory.NewBroker(), nil
}
