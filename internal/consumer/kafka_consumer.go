package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"availability-service/internal/models"
	"availability-service/internal/service"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type FeedItem struct {
	RoomUnitExternalCode    string `json:"room_unit_external_code"`
	From                    string `json:"from"`
	To                      string `json:"to"`
	Type                    string `json:"type"`
	MaintenanceExternalCode string `json:"maintenance_external_code"`
}

type FeedMessage struct {
	HotelID uuid.UUID  `json:"hotel_id"`
	Items   []FeedItem `json:"items"`
}

// MaintenanceFeedConsumer принимает батчи обслуживаний из PMS и прогоняет их
// через нормализатор/дедуп/upsert. Кривые сообщения логируются и пропускаются.
type MaintenanceFeedConsumer struct {
	reader *kafka.Reader
	svc    service.Availability
	log    *zap.Logger
}

func NewMaintenanceFeedConsumer(brokers []string, groupID, topic string, svc service.Availability, log *zap.Logger) *MaintenanceFeedConsumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:           brokers,
		GroupID:           groupID,
		Topic:             topic,
		MinBytes:          10e3,
		MaxBytes:          10e6,
		CommitInterval:    time.Second,
		HeartbeatInterval: 3 * time.Second,
		SessionTimeout:    30 * time.Second,
	})
	return &MaintenanceFeedConsumer{reader: r, svc: svc, log: log}
}

func (c *MaintenanceFeedConsumer) Run(ctx context.Context) error {
	c.log.Info("kafka consumer started")
	for {
		m, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			c.log.Error("read message", zap.Error(err))
			continue
		}

		var fm FeedMessage
		if err := json.Unmarshal(m.Value, &fm); err != nil {
			c.log.Error("unmarshal feed message", zap.ByteString("value", m.Value), zap.Error(err))
			continue
		}
		if fm.HotelID == uuid.Nil || len(fm.Items) == 0 {
			c.log.Warn("invalid feed message", zap.Any("msg", fm))
			continue
		}

		events := make([]service.MaintenanceEvent, 0, len(fm.Items))
		for _, it := range fm.Items {
			events = append(events, service.MaintenanceEvent{
				RoomUnitExternalCode:    it.RoomUnitExternalCode,
				From:                    it.From,
				To:                      it.To,
				Type:                    models.DayStatus(it.Type),
				MaintenanceExternalCode: it.MaintenanceExternalCode,
			})
		}

		res, err := c.svc.ApplyMaintenanceFeed(ctx, fm.HotelID, events)
		if err != nil {
			c.log.Error("apply maintenance feed failed",
				zap.String("hotel_id", fm.HotelID.String()), zap.Error(err))
			continue
		}
		c.log.Info("maintenance feed applied",
			zap.String("hotel_id", fm.HotelID.String()),
			zap.Int("events", res.EventsIn),
			zap.Int64("rows", res.RowsApplied),
			zap.Int("skipped_rooms", res.SkippedRooms))
	}
}

func (c *MaintenanceFeedConsumer) Close() error { return c.reader.Close() }
