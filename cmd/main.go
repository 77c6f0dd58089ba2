package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"groupchat/internal/cache"
	"groupchat/internal/config"
	"groupchat/internal/delivery/gql"
	"groupchat/internal/delivery/http_delivery"
	"groupchat/internal/delivery/websocket"
	"groupchat/internal/domain"
	"groupchat/internal/events"
	"groupchat/internal/logger"
	"groupchat/internal/metrics"
	"groupchat/internal/pagination"
	"groupchat/internal/repository"
	"groupchat/internal/usecase"
)

func main() {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load: %v", err)
	}

	zl, err := logger.New(logger.Config{Development: cfg.Development(), Level: os.Getenv("LOG_LEVEL")})
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	if err := run(cfg, zl); err != nil {
		zl.Fatal("server exited with error", zap.Error(err))
	}
	zl.Info("server exited properly")
}

func run(cfg *config.Config, zl *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	var (
		userRepo    domain.UserRepository
		groupRepo   domain.GroupRepository
		messageRepo domain.MessageRepository
	)
	switch cfg.Database.Driver {
	case "memory":
		zl.Warn("using in-memory store, data is lost on exit")
		store := repository.NewMemoryStore()
		userRepo, groupRepo, messageRepo = store, store, store
	default:
		db, err := config.Connect(ctx, cfg.Database, zl)
		if err != nil {
			return err
		}
		defer func(db *sql.DB) { _ = db.Close() }(db)
		if err := config.Migrate(ctx, db); err != nil {
			return err
		}
		userRepo = repository.NewUserRepository(db)
		groupRepo = repository.NewGroupRepository(db)
		messageRepo = repository.NewMessageRepository(db)
	}

	var opts []usecase.Option
	opts = append(opts, usecase.WithMetrics(m))

	var exister usecase.GroupExister = groupRepo
	if cfg.Redis.Addr != "" {
		rdb, err := cache.NewRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return err
		}
		defer rdb.Close()
		gc := cache.NewGroupCache(groupRepo, rdb, cfg.Redis.Prefix, cfg.GroupTTL, zl)
		exister = gc
		opts = append(opts, usecase.WithGroupInvalidator(gc))
		zl.Info("group cache enabled", zap.String("addr", cfg.Redis.Addr))
	}

	if len(cfg.Kafka.Brokers) > 0 {
		prod := events.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicMessageCreated)
		defer func() { _ = prod.Close() }()
		opts = append(opts, usecase.WithNotifier(prod))
		zl.Info("kafka events enabled", zap.Strings("brokers", cfg.Kafka.Brokers))
	}

	hub := websocket.NewHub(zl, m)
	go hub.Run(ctx)
	opts = append(opts, usecase.WithNotifier(hub), usecase.WithMembershipListener(hub))

	paginator := pagination.NewPaginator(
		usecase.NewPaginationStore(exister, messageRepo),
		pagination.WithDefaults(pagination.ConnectionInput{First: pagination.IntPtr(cfg.Pagination.DefaultFirst)}),
		pagination.WithMaxPageSize(cfg.Pagination.MaxPageSize),
	)
	uc := usecase.NewChatUsecase(userRepo, messageRepo, groupRepo, paginator, zl, opts...)

	schema, err := gql.NewSchema(uc)
	if err != nil {
		return err
	}

	settings := websocket.DefaultSettings()
	if cfg.WriteDeadline > 0 {
		settings.WriteWait = cfg.WriteDeadline
	}
	if cfg.PingInterval > 0 {
		settings.PingPeriod = cfg.PingInterval
		settings.PongWait = cfg.PingInterval * 10 / 9
	}
	if cfg.WS.MaxMessageSizeBytes > 0 {
		settings.MaxMessageSize = cfg.WS.MaxMessageSizeBytes
	}

	limiter := http_delivery.NewIPRateLimiter(cfg.HTTP.RateLimitPerMin, cfg.HTTP.RateLimitBurst, zl)
	go limiter.Cleanup(ctx, time.Minute, 5*time.Minute)

	srv := &http.Server{
		Addr: cfg.Addr(),
		Handler: http_delivery.Handler(http_delivery.Routes{
			GraphQL:   gql.Handler(schema, zl),
			WebSocket: websocket.NewWebSocketHandler(uc, hub, settings, zl),
			Metrics:   m,
			Limiter:   limiter,
			Log:       zl,
		}),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		zl.Info("starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}
	zl.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Error("server shutdown failed", zap.Error(err))
	}
	return nil
}
