package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/cors"

	"github.com/ZayanAhmed07/SpikeLeagueScrim/cache"
	"github.com/ZayanAhmed07/SpikeLeagueScrim/config"
	"github.com/ZayanAhmed07/SpikeLeagueScrim/database"
	"github.com/ZayanAhmed07/SpikeLeagueScrim/events"
	"github.com/ZayanAhmed07/SpikeLeagueScrim/internal/completion"
	scrimevents "github.com/ZayanAhmed07/SpikeLeagueScrim/internal/events"
	"github.com/ZayanAhmed07/SpikeLeagueScrim/internal/guard"
	"github.com/ZayanAhmed07/SpikeLeagueScrim/internal/handler"
	"github.com/ZayanAhmed07/SpikeLeagueScrim/internal/lifecycle"
	"github.com/ZayanAhmed07/SpikeLeagueScrim/internal/notifier"
	"github.com/ZayanAhmed07/SpikeLeagueScrim/internal/readycheck"
	"github.com/ZayanAhmed07/SpikeLeagueScrim/internal/repository"
	"github.com/ZayanAhmed07/SpikeLeagueScrim/internal/service"
	"github.com/ZayanAhmed07/SpikeLeagueScrim/internal/sweeper"
	"github.com/ZayanAhmed07/SpikeLeagueScrim/logger"
	"github.com/ZayanAhmed07/SpikeLeagueScrim/natsjetstream"
)

// App wires the whole service together and owns the shutdown order.
type App struct {
	cfg *config.Config
	log *logger.Logger

	httpServer *http.Server
	readyCheck *readycheck.Coordinator
	scheduler  *sweeper.Scheduler

	cleanups []func()
}

func New(cfg *config.Config) (*App, error) {
	var log *logger.Logger
	if cfg.Server.Environment == "development" {
		log = logger.Development("scrim-core")
	} else {
		log = logger.New(logger.Config{
			Level:       cfg.Server.LogLevel,
			Format:      "json",
			ServiceName: "scrim-core",
		})
	}

	a := &App{cfg: cfg, log: log}

	// DynamoDB
	db, err := database.NewDynamoDBClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize DynamoDB: %w", err)
	}

	// Redis
	redisClient, err := cache.NewRedisClient(cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Redis: %w", err)
	}
	a.cleanups = append(a.cleanups, func() {
		if err := redisClient.Close(); err != nil {
			log.Error("failed to close Redis client", "error", err)
		}
	})

	// NATS JetStream
	natsClient, appErr := natsjetstream.NewClient(&natsjetstream.Config{
		URL:           cfg.NATS.URL,
		MaxReconnect:  cfg.NATS.MaxReconnect,
		ReconnectWait: time.Duration(cfg.NATS.ReconnectWaitSeconds) * time.Second,
		Timeout:       time.Duration(cfg.NATS.TimeoutSeconds) * time.Second,
	})
	if appErr != nil {
		return nil, fmt.Errorf("failed to initialize NATS: %w", appErr)
	}
	a.cleanups = append(a.cleanups, func() {
		if err := natsClient.Close(); err != nil {
			log.Error("failed to close NATS client", "error", err)
		}
	})

	ctx := context.Background()
	streams := []struct {
		name     string
		subjects []string
	}{
		{events.ScrimCommandsStream, []string{events.ScrimCommandsWildcard}},
		{events.GatewayEventsStream, []string{events.GatewayEventsWildcard}},
		{events.ScrimEventsStream, []string{
			events.ScrimEventsWildcard,
			events.GatewayOutboundNotify,
			events.GatewayOutboundShow,
		}},
	}
	for _, s := range streams {
		if appErr := natsClient.EnsureStream(ctx, s.name, s.subjects); appErr != nil {
			return nil, fmt.Errorf("failed to provision stream %s: %w", s.name, appErr)
		}
	}

	publisher := natsjetstream.NewPublisher(natsClient)
	subscriber := natsjetstream.NewSubscriber(natsClient)

	// Storage
	transactionRepo := database.NewTransactionRepository(db)
	scrimRepo := repository.NewScrimRepository(db)
	ackRepo := repository.NewAckRepository(db, transactionRepo)
	presentations := cache.NewPresentationRepo(redisClient.GetClient())

	// Domain
	engine := lifecycle.NewEngine(scrimRepo, log)
	g := guard.New(scrimRepo, engine, log)
	notify := notifier.NewNotifier(publisher, log)
	present := notifier.NewPresenter(publisher, presentations, log)
	eventPublisher := scrimevents.NewPublisher(publisher, log)

	a.readyCheck = readycheck.NewCoordinator(
		engine, g, notify, present, eventPublisher, log,
		cfg.Scrim.ReadyCheckTimeout(),
	)
	completionCoordinator := completion.NewCoordinator(
		scrimRepo, ackRepo, engine, g, notify, present, eventPublisher, log,
	)

	svc := service.NewScrimService(
		scrimRepo, engine, g, a.readyCheck, completionCoordinator,
		notify, present, eventPublisher, log,
	)

	// Expiry sweeper
	sw := sweeper.New(scrimRepo, engine, notify, present, eventPublisher, log, cfg.Scrim.StaleAfter())
	a.scheduler = sweeper.NewScheduler(cfg.Scrim.SweepInterval(), sw.Sweep, log)

	// Transport
	natsHandler := handler.NewNATSHandler(subscriber, svc, a.readyCheck, presentations, notify, log)
	if err := natsHandler.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start NATS handler: %w", err)
	}

	httpHandler := handler.NewHTTPHandler(svc, log)
	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet},
	})
	a.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler: corsMiddleware.Handler(httpHandler.Router()),
	}

	return a, nil
}

// Start launches the sweeper and the HTTP server. It blocks until the HTTP
// server stops.
func (a *App) Start() error {
	a.scheduler.Start()

	a.log.Info("http server listening", "addr", a.httpServer.Addr)
	if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop shuts everything down in reverse dependency order.
func (a *App) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.log.Error("http server shutdown failed", "error", err)
	}

	a.scheduler.Stop()
	a.readyCheck.Stop()

	for i := len(a.cleanups) - 1; i >= 0; i-- {
		a.cleanups[i]()
	}

	a.log.Info("application stopped")
}
