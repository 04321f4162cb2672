package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"order-lookup/config"
	"order-lookup/internal/api"
	"order-lookup/internal/broker"
	"order-lookup/internal/handoff"
	"order-lookup/internal/redisclient"
	"order-lookup/internal/service"
	"order-lookup/internal/sheet"
	"order-lookup/internal/store"
	"order-lookup/internal/util"
	"order-lookup/internal/worker"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// backend bundles the row, announcement and like sources of one storage choice
type backend struct {
	rows          service.RowSource
	announcements service.AnnouncementSource
	likes         service.LikeSink
}

type readinessCheck struct {
	name  string
	check func(context.Context) error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting order lookup service", zap.String("row_source", cfg.Sheet.Backend))

	tp, err := util.InitTracer(util.ServiceName, cfg.Observ.JaegerEndpoint)
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Error("Error shutting down tracer", zap.Error(err))
		}
	}()

	var readiness []readinessCheck
	addReady := func(name string, check func(context.Context) error) {
		readiness = append(readiness, readinessCheck{name: name, check: check})
	}

	var sheetClient *sheet.Client
	if cfg.Sheet.APIURL != "" {
		sheetClient, err = sheet.NewClient(cfg.Sheet)
		if err != nil {
			logger.Fatal("Failed to create sheet client", zap.Error(err))
		}
	}

	var db *store.Store
	if cfg.Database.URL != "" {
		db, err = store.NewStore(cfg.Database.URL)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer db.Close()
		if err := db.Migrate(context.Background()); err != nil {
			logger.Fatal("Failed to migrate database", zap.Error(err))
		}
		addReady("postgres", db.Ping)
		logger.Info("Database connected")
	}

	var src backend
	switch cfg.Sheet.Backend {
	case config.RowSourcePostgres:
		src = backend{rows: db, announcements: db, likes: db}
	default:
		src = backend{rows: sheetClient, announcements: sheetClient, likes: sheetClient}
	}

	var (
		rowCache  service.RowCache  = service.NewMemoryRowCache()
		likeGuard service.LikeGuard = service.NewMemoryLikeGuard()
		ledger    worker.EventLedger
	)
	if db != nil {
		ledger = db
	}

	if cfg.Redis.Addr != "" {
		redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()

		rowCache = redisClient
		likeGuard = service.NewRedisLikeGuard(redisClient, cfg.Redis.LikeTTL)
		if ledger == nil {
			ledger = redisClient
		}
		addReady("redis", redisClient.Ping)
		logger.Info("Redis connected")
	}

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	var (
		dispatcher service.LikeDispatcher
		likeWorker *worker.LikeWorker
		direct     *service.DirectLikeDispatcher
	)
	if len(cfg.Kafka.Brokers) > 0 {
		producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicLikes)
		defer producer.Close()
		dispatcher = service.NewKafkaLikeDispatcher(broker.NewEventPublisher(producer))
		logger.Info("Kafka producer initialized", zap.Strings("brokers", cfg.Kafka.Brokers))

		consumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicLikes, cfg.Kafka.ConsumerGroup)
		likeWorker = worker.NewLikeWorker(consumer, src.likes, ledger)
		go func() {
			if err := likeWorker.Start(workerCtx); err != nil && workerCtx.Err() == nil {
				logger.Error("Like worker error", zap.Error(err))
			}
		}()
	} else {
		direct = service.NewDirectLikeDispatcher(src.likes, cfg.Sheet.Timeout)
		dispatcher = direct
	}

	if cfg.Sheet.Backend == config.RowSourcePostgres && sheetClient != nil && cfg.Sheet.MirrorInterval > 0 {
		syncer := worker.NewMirrorSyncer(sheetClient, db, cfg.Sheet.MirrorInterval)
		go syncer.Start(workerCtx)
	}

	sessions := service.NewSessionManager(cfg.Session.IdleTTL, cfg.Session.MaxSessions)
	go sessions.Run(workerCtx)

	links := handoff.NewLinks(cfg.Links)
	services := api.Services{
		Lookup:        service.NewLookupService(src.rows, rowCache, cfg),
		Sessions:      sessions,
		Checkout:      service.NewCheckoutService(links),
		Announcements: service.NewAnnouncementService(src.announcements, likeGuard, dispatcher, cfg.Business.ImportantKeywords),
		Admin:         service.NewAdminService(cfg.Business.AdminPassword),
	}

	if cfg.Server.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(services, links, cfg.Server.IsProduction())
	for _, r := range readiness {
		handler.AddReadinessCheck(r.name, r.check)
	}
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	workerCancel()
	if likeWorker != nil {
		if err := likeWorker.Stop(); err != nil {
			logger.Error("Error stopping like worker", zap.Error(err))
		}
	}
	if direct != nil {
		direct.Wait()
	}

	logger.Info("Server exited")
}
