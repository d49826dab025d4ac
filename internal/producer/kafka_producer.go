package producer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// RecomputeAvailabilityEvent — запрос на пересчёт агрегированной доступности
// room-product'ов; потребляет его внешний сервис доступности продуктов
type RecomputeAvailabilityEvent struct {
	HotelID        uuid.UUID   `json:"hotel_id"`
	RoomProductIDs []uuid.UUID `json:"room_product_ids"`
	Dates          []string    `json:"dates"`
	TriggeredAt    time.Time   `json:"triggered_at"`
}

type CascadeProducer struct {
	writer *kafka.Writer
}

func NewCascadeProducer(brokers []string, topic string) *CascadeProducer {
	return &CascadeProducer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireAll,
		},
	}
}

func (p *CascadeProducer) RecomputeAvailability(ctx context.Context, hotelID uuid.UUID, roomProductIDs []uuid.UUID, dates []time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	ds := make([]string, 0, len(dates))
	for _, d := range dates {
		ds = append(ds, d.Format("2006-01-02"))
	}

	value, err := json.Marshal(RecomputeAvailabilityEvent{
		HotelID:        hotelID,
		RoomProductIDs: roomProductIDs,
		Dates:          ds,
		TriggeredAt:    time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(hotelID.String()),
		Value: value,
	})
}

func (p *CascadeProducer) Close() error {
	return p.writer.Close()
}

// MaintenanceDeletedEvent — best-effort уведомление PMS после локального
// освобождения блоков
type MaintenanceDeletedEvent struct {
	HotelID       uuid.UUID `json:"hotel_id"`
	ExternalCodes []string  `json:"external_codes"`
	DeletedAt     time.Time `json:"deleted_at"`
}

type PMSProducer struct {
	writer *kafka.Writer
}

func NewPMSProducer(brokers []string, topic string) *PMSProducer {
	return &PMSProducer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireAll,
		},
	}
}

func (p *PMSProducer) DeleteMaintenance(ctx context.Context, hotelID uuid.UUID, externalCodes []string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	value, err := json.Marshal(MaintenanceDeletedEvent{
		HotelID:       hotelID,
		ExternalCodes: externalCodes,
		DeletedAt:     time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(hotelID.String()),
		Value: value,
	})
}

func (p *PMSProducer) Close() error {
	return p.writer.Close()
}
