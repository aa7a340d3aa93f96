package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	_ "github.com/noah-isme/hall-matrix-api/api/swagger"
	"github.com/noah-isme/hall-matrix-api/internal/allocation"
	"github.com/noah-isme/hall-matrix-api/internal/events"
	"github.com/noah-isme/hall-matrix-api/internal/handler"
	"github.com/noah-isme/hall-matrix-api/internal/repository"
	"github.com/noah-isme/hall-matrix-api/internal/service"
	"github.com/noah-isme/hall-matrix-api/pkg/cache"
	"github.com/noah-isme/hall-matrix-api/pkg/config"
	"github.com/noah-isme/hall-matrix-api/pkg/database"
	"github.com/noah-isme/hall-matrix-api/pkg/jobs"
	"github.com/noah-isme/hall-matrix-api/pkg/lock"
	"github.com/noah-isme/hall-matrix-api/pkg/logger"
)

// @title Hall Matrix API
// @version 1.0.0
// @description Exam hall seat allocation service
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg.Env, cfg.Log)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Fatal("server stopped with error", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) (err error) {
	var closers []func() error
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			err = multierr.Append(err, closers[i]())
		}
	}()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	closers = append(closers, db.Close)

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		logr.Info("schema migrations applied")
	}

	metrics := service.NewMetricsService()
	validate := validator.New()
	checks := map[string]handler.Check{"postgres": db.PingContext}

	var (
		redisClient *redis.Client
		cacheRepo   service.CacheRepository
		locker      lock.Locker = lock.NewKeyedMutex()
	)
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		closers = append(closers, redisClient.Close)
		cacheRepo = repository.NewCacheRepository(redisClient)
		locker = lock.Chain{
			locker,
			lock.NewRedisLocker(redisClient, "hall-matrix:lock:", cfg.Allocation.LockTTL, logr.Named("lock")),
		}
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Allocation.QueryCacheTTL, logr.Named("cache"), cfg.Redis.Enabled)

	var publisher service.EventPublisher
	if cfg.Events.Enabled {
		broker := events.NewAMQPBroker(cfg.Events.AMQPURL, logr.Named("amqp"))
		closers = append(closers, broker.Close)

		queue := jobs.NewQueue("allocation-events", events.DeliveryHandler(broker, cfg.Events.Queue, 0), jobs.QueueConfig{
			Workers:    cfg.Events.WorkerConcurrency,
			MaxRetries: cfg.Events.WorkerRetries,
			RetryDelay: cfg.Events.RetryDelay,
			Logger:     logr.Named("events"),
			Observe: func(_ jobs.Job, outcome jobs.Outcome) {
				metrics.ObserveEvent(string(outcome))
			},
		})
		queue.Start(context.Background())
		closers = append(closers, func() error {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return queue.Shutdown(shutdownCtx)
		})
		publisher = events.NewDispatcher(queue)
	}

	studentRepo := repository.NewStudentRepository(db)
	hallRepo := repository.NewHallRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	invigilatorRepo := repository.NewInvigilatorRepository(db)
	allocationRepo := repository.NewAllocationRepository(db)

	allocationSvc := service.NewAllocationService(
		service.NewRosterResolver(studentRepo, logr.Named("roster")),
		allocation.NewHallPool(hallRepo),
		invigilatorRepo,
		allocationRepo,
		locker,
		publisher,
		cacheSvc,
		metrics,
		validate,
		logr.Named("allocation"),
		service.AllocationServiceConfig{
			Engine: allocation.Options{
				RowWidth:     cfg.Allocation.RowWidth,
				MaxDeferrals: cfg.Allocation.MaxDeferrals,
				FillPolicy:   allocation.FillPolicy(cfg.Allocation.FillPolicy),
			},
			StudentsPerInvigilator: cfg.Allocation.StudentsPerInvigilator,
			LockTimeout:            cfg.Allocation.LockTimeout,
			WriteTimeout:           cfg.Allocation.WriteTimeout,
			QueryCacheTTL:          cfg.Allocation.QueryCacheTTL,
		},
	)
	referenceSvc := service.NewReferenceService(studentRepo, hallRepo, subjectRepo, invigilatorRepo, validate, logr.Named("reference"))
	authSvc := service.NewAuthService(logr.Named("auth"), service.AuthConfig{
		Secret:   cfg.JWT.Secret,
		Issuer:   cfg.JWT.Issuer,
		Audience: cfg.JWT.Audience,
	})

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	router := newRouter(cfg, logr, routeDeps{
		auth:        authSvc,
		metrics:     metrics,
		allocations: handler.NewAllocationHandler(allocationSvc),
		reference:   handler.NewReferenceHandler(referenceSvc),
		metricsAPI:  handler.NewMetricsHandler(metrics),
		health:      handler.NewHealthHandler(checks),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
