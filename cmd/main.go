// @title DVA Report CVSS Service API
// @version 1.0
// @description CVSS v3.1 base scoring for DVA report findings.
// @host localhost:8004
// @BasePath /api/cvss

package main

import (
	"context"
	_ "dva-report-service-golang/docs"
	v1 "dva-report-service-golang/internal/api/v1"
	"dva-report-service-golang/internal/cache"
	"dva-report-service-golang/internal/config"
	"dva-report-service-golang/internal/consumer"
	"dva-report-service-golang/internal/logging"
	"dva-report-service-golang/internal/redis"
	"dva-report-service-golang/internal/scheduler"
	"dva-report-service-golang/internal/telemetry"
	"os"
	"os/signal"
	"syscall"
	"time"

	fiber "github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	fiberSwagger "github.com/gofiber/swagger"
)

func main() {
	//load configs
	cfg := config.LoadConfig()
	logging.InitLogger(cfg.LogDebug)
	defer logging.Sync()
	log := logging.Logger

	if err := cfg.OverlayError(); err != nil {
		log.Warnf("[CONFIG] overlay ignored: %v", err)
	}
	log.Infof("[CONFIG] Loaded configuration: %+v", *cfg)

	shutdownMetrics, err := telemetry.InitMetrics()
	if err != nil {
		log.Fatalf("failed to init metrics: %v", err)
	}
	log.Info("[OTEL] Metrics initialized for dva-cvss-service")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//score cache is optional
	var scores *cache.ScoreCache
	if cfg.RedisEnabled {
		if err := redis.InitRedis(cfg.RedisURL); err != nil {
			log.Warnf("[REDIS] running without score cache: %v", err)
		} else {
			scores = cache.New(redis.Client, cfg.ScoreCacheTTL)
			defer redis.CloseRedis()

			warm, err := scheduler.StartCacheWarmScheduler(cfg.CacheWarmSpec, cfg.CacheWarmBatch, scores,
				&redis.Locker{Key: "cvss:warm:lock", TTL: 10 * time.Minute})
			if err != nil {
				log.Errorf("[Scheduler] Failed to schedule cache warm: %v", err)
			} else {
				defer warm.Stop()
			}
		}
	}

	//finding consumer
	consumerDone := make(chan struct{})
	if cfg.KafkaEnabled {
		worker, err := consumer.NewWorker(cfg, scores)
		if err != nil {
			log.Errorf("[Consumer] disabled: %v", err)
			close(consumerDone)
		} else {
			go func() {
				defer close(consumerDone)
				if err := worker.Run(ctx); err != nil {
					log.Errorf("consume error: %v", err)
				}
				if err := worker.Close(); err != nil {
					log.Warnf("[Kafka] closing writers: %v", err)
				}
			}()
		}
	} else {
		close(consumerDone)
	}

	//start API
	app := fiber.New(fiber.Config{ErrorHandler: v1.ErrorHandler})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: "GET,POST,HEAD,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	api := app.Group("/api/cvss")
	v1.RegisterScoreRoutes(api, scores)

	// Swagger UI
	app.Get("/swagger/*", fiberSwagger.HandlerDefault)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	log.Info("[STARTUP] CVSS Service running...")

	//wait until shutdown
	<-ctx.Done()

	if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
		log.Warnf("[EXIT] server shutdown: %v", err)
	}
	select {
	case <-consumerDone:
	case <-time.After(10 * time.Second):
		log.Warn("[EXIT] consumer did not stop in time")
	}
	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownMetrics(flushCtx); err != nil {
		log.Warnf("[EXIT] metrics shutdown: %v", err)
	}

	log.Info("[EXIT] CVSS Service stopped gracefully")
}
