package service

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CascadeTrigger запускает пересчёт агрегированной доступности room-product'ов.
// Вызов fire-and-forget: выполняется после коммита, вне транзакции записи.
type CascadeTrigger interface {
	RecomputeAvailability(ctx context.Context, hotelID uuid.UUID, roomProductIDs []uuid.UUID, dates []time.Time) error
}

// PMSNotifier — best-effort уведомление PMS об удалённых у нас блоках
type PMSNotifier interface {
	DeleteMaintenance(ctx context.Context, hotelID uuid.UUID, externalCodes []string) error
}

// SettingsProvider отдаёт времена заезда/выезда отеля ("HH:MM")
type SettingsProvider interface {
	GetCheckInOut(ctx context.Context, hotelID uuid.UUID) (checkIn, checkOut string, err error)
}
