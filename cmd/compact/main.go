package main

import (
	"context"
	"fmt"
	"os"

	"availability-service/config"
	"availability-service/internal/producer"
	"availability-service/internal/repository"
	"availability-service/internal/service"
	"availability-service/pkg/database"
	"availability-service/pkg/logger"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Разовый бэкфилл: исторические дни OUT_OF_ORDER/OUT_OF_INVENTORY без ссылки
// на блок группируются в записи Maintenance, по отелю за транзакцию.
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

	cascade := producer.NewCascadeProducer(cfg.KafkaBrokers, cfg.KafkaCascadeTopic)
	defer cascade.Close()
	pms := producer.NewPMSProducer(cfg.KafkaBrokers, cfg.KafkaPMSOutboundTopic)
	defer pms.Close()

	svc := service.NewAvailabilityService(
		repos,
		&service.RepoSettingsProvider{Settings: repos.Settings},
		cascade, pms, log,
	)

	ctx := context.Background()

	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "hotel":
			if len(os.Args) < 3 {
				fmt.Println("Usage: go run cmd/compact/main.go hotel <hotel-uuid>")
				os.Exit(1)
			}
			hotelID, err := uuid.Parse(os.Args[2])
			if err != nil {
				log.Fatal("invalid hotel id", zap.String("arg", os.Args[2]), zap.Error(err))
			}
			log.Info("running compaction for hotel", zap.String("hotel_id", hotelID.String()))
			res, err := svc.CompactHotel(ctx, hotelID)
			if err != nil {
				log.Fatal("failed to compact hotel", zap.Error(err))
			}
			log.Info("hotel compaction finished",
				zap.Int("blocks", res.BlocksCreated),
				zap.Int64("rows_linked", res.RowsLinked))
		case "all":
			fallthrough
		default:
			log.Info("running full compaction")
			res, err := svc.CompactAll(ctx)
			if err != nil {
				log.Fatal("failed to run full compaction", zap.Error(err))
			}
			log.Info("full compaction finished",
				zap.Int("hotels", res.Hotels),
				zap.Int("failed", res.Failed),
				zap.Int("blocks", res.Blocks))
		}
	} else {
		fmt.Println("Usage: go run cmd/compact/main.go [hotel <uuid>|all]")
		fmt.Println("  hotel <uuid> - compact a single hotel")
		fmt.Println("  all          - compact every hotel (default)")
		os.Exit(1)
	}

	log.Info("compaction completed successfully")
}
