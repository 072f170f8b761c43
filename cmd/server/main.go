// Package main is the entry point for the srcbook server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"srcbook/internal/auth"
	"srcbook/internal/booking"
	"srcbook/internal/config"
	"srcbook/internal/controller"
	"srcbook/internal/logger"
	"srcbook/internal/observability"
	"srcbook/internal/srcom"
	"srcbook/internal/store/postgres"
	"srcbook/internal/syncer"
)

func main() {
	migrateFlag := flag.Bool("migrate", false, "Run database migrations before starting")
	configPath := flag.String("config", "", "Path to config file (default: none, environment only)")
	addUser := flag.String("adduser", "", "Create or update a password user as name:password and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	slogger := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := postgres.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer store.Close()

	if *migrateFlag {
		version, err := postgres.Migrate(store.DB())
		if err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		slogger.Info("migrations applied", "version", version)
	}

	if *addUser != "" {
		if err := createUser(ctx, store, *addUser); err != nil {
			log.Fatalf("Failed to add user: %v", err)
		}
		slogger.Info("user saved", "username", strings.SplitN(*addUser, ":", 2)[0])
		return
	}

	shutdownTracer, err := observability.InitTracer(ctx, "srcbook", cfg.OTELEndpoint)
	if err != nil {
		log.Fatalf("Failed to init tracing: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			slogger.Warn("failed to shutdown tracer", "error", err)
		}
	}()

	metricsHandler, shutdownMetrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatalf("Failed to init metrics: %v", err)
	}
	defer func() {
		if err := shutdownMetrics(context.Background()); err != nil {
			slogger.Warn("failed to shutdown metrics", "error", err)
		}
	}()
	if err := observability.RegisterBookingsGauge(store); err != nil {
		slogger.Warn("bookings gauge unavailable", "error", err)
	}

	policy, err := srcom.ParseDecodePolicy(cfg.DecodePolicy)
	if err != nil {
		log.Fatalf("Invalid decode policy: %v", err)
	}
	client := srcom.New(srcom.Config{
		BaseURL:      cfg.UpstreamURL,
		Timeout:      cfg.UpstreamTimeout,
		DecodePolicy: policy,
	})

	games := make([]booking.Game, len(cfg.Games))
	for i, g := range cfg.Games {
		games[i] = booking.Game{ID: g.ID, Name: g.Name}
	}
	svc := booking.New(client, store, games, booking.Policy{ForceRelease: cfg.ForceRelease}, slogger)

	resolver, err := newResolver(cfg, client, store)
	if err != nil {
		log.Fatalf("Failed to set up authentication: %v", err)
	}

	if cfg.SyncInterval > 0 {
		agent := syncer.New(svc, syncer.AgentConfig{
			Interval:   cfg.SyncInterval,
			MaxBackoff: cfg.SyncMaxBackoff,
		}, slogger)
		go agent.Run(ctx)
	}

	addr := fmt.Sprintf(":%d", cfg.HTTPPort)
	srv := controller.New(addr, svc, store, resolver, controller.Options{
		AuthenticatedClaims: cfg.AuthenticatedClaims,
		RateLimit:           cfg.RateLimit,
		RateBurst:           cfg.RateBurst,
		Metrics:             metricsHandler,
		Logger:              slogger,
	})

	slogger.Info("srcbook starting", "addr", addr, "games", len(games), "auth_mode", cfg.AuthMode)
	if err := srv.Run(ctx); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
	slogger.Info("server exited properly")
}

func newResolver(cfg *config.Config, client *srcom.Client, store *postgres.Store) (auth.Resolver, error) {
	if cfg.AuthMode == "password" {
		return auth.NewPasswordResolver(store), nil
	}
	return auth.NewAPIKeyResolver(client, cfg.IdentityCacheSize, cfg.IdentityCacheTTL)
}

func createUser(ctx context.Context, store *postgres.Store, spec string) error {
	name, password, ok := strings.Cut(spec, ":")
	if !ok {
		return errors.New("expected name:password")
	}
	user, err := auth.NewUser(name, password)
	if err != nil {
		return err
	}
	return store.CreateUser(ctx, user)
}

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags]\n\nServes the srcbook booking API.\n\n", os.Args[0])
		flag.PrintDefaults()
	}
}
