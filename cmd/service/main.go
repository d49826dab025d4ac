package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"availability-service/config"
	"availability-service/internal/cache"
	"availability-service/internal/consumer"
	"availability-service/internal/producer"
	"availability-service/internal/repository"
	"availability-service/internal/scheduler"
	"availability-service/internal/service"
	transport "availability-service/internal/transport/http"
	"availability-service/pkg/database"
	"availability-service/pkg/logger"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()
	isDev := os.Getenv("ENV") == "development"
	if err := logger.Init(isDev); err != nil {
		panic(err)
	}

	defer logger.Sync()

	log := logger.L()

	cfg := config.Load(log)
	db := database.ConnectDB(&cfg.DB.Config, log)
	defer database.CloseDB(db, log)

	repos := repository.New(db)

	var settings service.SettingsProvider = &service.RepoSettingsProvider{Settings: repos.Settings}
	if cfg.Redis.Enabled {
		sc, err := cache.NewSettingsCache(
			cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			time.Duration(cfg.Redis.TTLSeconds)*time.Second,
			repos.Settings, log,
		)
		if err != nil {
			log.Fatal("redis connect failed", zap.Error(err))
		}
		defer sc.Close()
		settings = sc
	}

	cascade := producer.NewCascadeProducer(cfg.KafkaBrokers, cfg.KafkaCascadeTopic)
	defer cascade.Close()
	pms := producer.NewPMSProducer(cfg.KafkaBrokers, cfg.KafkaPMSOutboundTopic)
	defer pms.Close()

	svc := service.NewAvailabilityService(repos, settings, cascade, pms, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	feed := consumer.NewMaintenanceFeedConsumer(
		cfg.KafkaBrokers, cfg.KafkaFeedGroupID, cfg.KafkaFeedTopic, svc, log,
	)
	defer feed.Close()
	go func() {
		if err := feed.Run(ctx); err != nil {
			log.Error("maintenance feed consumer stopped", zap.Error(err))
		}
	}()

	sched := scheduler.NewScheduler(svc, log)
	sched.Start(ctx)
	defer sched.Stop()

	r := transport.Router(svc, log)
	go func() {
		if err := r.Run(":" + cfg.Port); err != nil {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()
	log.Info("Availability service started", zap.String("port", cfg.Port))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Info("Shutting down availability service...")
	cancel()
	log.Info("Availability service stopped gracefully")
}
