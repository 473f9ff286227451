package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"zoo-management/internal/adapters/auth/jwtauth"
	"zoo-management/internal/adapters/blob/memstore"
	"zoo-management/internal/adapters/blob/s3store"
	"zoo-management/internal/adapters/events/kafkapub"
	"zoo-management/internal/adapters/events/logpub"
	"zoo-management/internal/adapters/events/natspub"
	"zoo-management/internal/adapters/mail/httpmail"
	"zoo-management/internal/adapters/mail/logmail"
	mdb "zoo-management/internal/adapters/storage/mongo"
	pg "zoo-management/internal/adapters/storage/postgres"
	"zoo-management/internal/platform/cache"
	"zoo-management/internal/platform/config"
	"zoo-management/internal/platform/logger"
	"zoo-management/internal/platform/redis"
	"zoo-management/internal/ports/blob"
	"zoo-management/internal/ports/events"
	"zoo-management/internal/ports/mail"
	"zoo-management/internal/router"
)

// @title Zoo Management API
// @version 1.0
// @description Gestión de animales, exhibits, personal, visitantes, tickets, alimentación, salud y reportes.
// @BasePath /
func main() {
	cfg := config.FromEnv()
	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: logger.ParseFormat(cfg.LogFormat),
		App:    cfg.AppName,
	})
	for _, w := range cfg.Warnings() {
		log.Warn("config", map[string]any{"warning": w})
	}
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", map[string]any{"error": err.Error()})
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log logger.Logger) error {
	opts := router.Options{
		Logger:              log,
		Location:            cfg.Location,
		AnalyticsTTL:        cfg.AnalyticsCacheTTL,
		TicketIDMaxAttempts: cfg.TicketIDMaxAttempts,
		FeedingInterval:     cfg.FeedingInterval,
	}

	// Storage
	if cfg.Mongo.URI != "" {
		store, err := mdb.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			return err
		}
		defer closeWith(log, "mongo", func() error { return store.Close(context.Background()) })
		if err := mdb.EnsureIndexes(ctx, store.DB); err != nil {
			return err
		}
		opts.Mongo = store.DB
		log.Info("document store: mongo", map[string]any{"database": cfg.Mongo.Database})
	} else {
		log.Warn("MONGO_URI not set, using in-memory document store", nil)
	}

	if cfg.Postgres.DSN != "" {
		db, err := pg.Open(cfg.Postgres.DSN)
		if err != nil {
			return err
		}
		defer closeWith(log, "postgres", db.Close)
		if err := pg.Migrate(ctx, db); err != nil {
			return err
		}
		opts.DB = db
		log.Info("relational store: postgres", nil)
	} else {
		log.Warn("DB_DSN not set, using in-memory users and staff", nil)
	}

	// Cache
	rc, err := redis.New(ctx, cfg.Redis.URL)
	if err != nil {
		return err
	}
	if rc != nil {
		defer closeWith(log, "redis", rc.Close)
		opts.Cache = cache.NewRedis(rc.Client, cfg.AppName)
	} else {
		opts.Cache = cache.NewMemory()
	}

	// Colaboradores
	if opts.Publisher, err = newPublisher(cfg, log); err != nil {
		return err
	}
	defer closeWith(log, "events", opts.Publisher.Close)

	if opts.Mailer, err = newMailer(cfg); err != nil {
		return err
	}
	if opts.Blobs, err = newBlobStore(ctx, cfg); err != nil {
		return err
	}

	// Auth
	tokens, err := jwtauth.New(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.JWTTTL)
	if err != nil {
		return err
	}
	opts.Tokens = tokens
	if cfg.Auth.DevMode {
		log.Warn("AUTH_DEV_MODE enabled: X-Debug-User-ID headers are trusted", nil)
	} else {
		opts.AuthVerifier = tokens
	}

	svcs := router.Build(opts)
	if cfg.Auth.AdminEmail != "" && cfg.Auth.AdminPassword != "" {
		admin, err := svcs.Users.EnsureAdmin(ctx, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword)
		if err != nil {
			return err
		}
		log.Info("admin ready", map[string]any{"user_id": admin.ID})
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router.Mount(svcs, opts),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting server", map[string]any{"addr": cfg.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("shutting down", nil)
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func newPublisher(cfg config.Config, log logger.Logger) (events.Publisher, error) {
	switch cfg.Events.Driver {
	case "nats":
		return natspub.New(cfg.Events.NATSURL, cfg.AppName)
	case "kafka":
		return kafkapub.New(cfg.Events.KafkaBrokers, cfg.AppName)
	default:
		return logpub.New(log), nil
	}
}

func newMailer(cfg config.Config) (mail.Sender, error) {
	if cfg.Mail.BaseURL == "" {
		return logmail.Sender{}, nil
	}
	return httpmail.New(httpmail.Config{
		BaseURL: cfg.Mail.BaseURL,
		APIKey:  cfg.Mail.APIKey,
		From:    cfg.Mail.From,
	})
}

func newBlobStore(ctx context.Context, cfg config.Config) (blob.Store, error) {
	if cfg.Blob.Driver != "s3" {
		return memstore.New(), nil
	}
	return s3store.New(ctx, s3store.Config{
		Bucket:          cfg.Blob.Bucket,
		Region:          cfg.Blob.Region,
		Endpoint:        cfg.Blob.Endpoint,
		PathStyle:       cfg.Blob.PathStyle,
		AccessKeyID:     cfg.Blob.AccessKeyID,
		SecretAccessKey: cfg.Blob.SecretAccessKey,
	})
}

func closeWith(log logger.Logger, name string, fn func() error) {
	if err := fn(); err != nil {
		log.Warn("close failed", map[string]any{"resource": name, "error": err.Error()})
	}
}
