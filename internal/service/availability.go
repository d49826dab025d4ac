package service

import (
	"context"
	"time"

	"availability-service/internal/models"

	"github.com/google/uuid"
)

// MaintenanceEvent — сырое событие из фида PMS. From/To остаются строками:
// формат у PMS нестабильный, битое время трактуется как полночь (см. nights.go).
type MaintenanceEvent struct {
	RoomUnitExternalCode    string
	From                    string
	To                      string
	Type                    models.DayStatus
	MaintenanceExternalCode string
}

// PendingUpdate — нормализованное обновление: список ночей и целевой статус.
// Не персистится; живёт между нормализатором, дедупликатором и upsert-движком.
type PendingUpdate struct {
	RoomExternalCode        string
	Dates                   []time.Time
	Status                  models.DayStatus
	MaintenanceExternalCode string
}

type FeedResult struct {
	EventsIn     int
	RowsApplied  int64
	SkippedRooms int
	// ReleasedCodes — внешние коды блоков, удалённых как сироты после применения фида
	ReleasedCodes []string
}

type ReleaseResult struct {
	RowsReleased   int64
	DeletedBlocks  int64
	RoomProductIDs []uuid.UUID
}

type ReconcileResult struct {
	Freed          int
	Assigned       int
	RoomProductIDs []uuid.UUID
}

type ReconcileRunResult struct {
	Hotels  int
	Failed  int
	Flipped int
}

type CompactResult struct {
	BlocksCreated int
	RowsLinked    int64
}

type CompactRunResult struct {
	Hotels int
	Failed int
	Blocks int
}

type Availability interface {
	ApplyMaintenanceFeed(ctx context.Context, hotelID uuid.UUID, events []MaintenanceEvent) (*FeedResult, error)
	ReleaseMaintenances(ctx context.Context, hotelID uuid.UUID, externalCodes []string) (*ReleaseResult, error)
	ProvisionRoomUnit(ctx context.Context, hotelID, roomUnitID uuid.UUID, days int) (int64, error)
	ApplyReservation(ctx context.Context, hotelID, roomUnitID uuid.UUID, from, to time.Time, assigned bool) (int64, error)
	ListDays(ctx context.Context, hotelID, roomUnitID uuid.UUID, from, to time.Time) ([]models.AvailabilityDay, error)

	ReconcileHotel(ctx context.Context, hotelID uuid.UUID, from, to time.Time) (*ReconcileResult, error)
	ReconcileAll(ctx context.Context, from, to time.Time) (*ReconcileRunResult, error)

	CompactHotel(ctx context.Context, hotelID uuid.UUID) (*CompactResult, error)
	CompactAll(ctx context.Context) (*CompactRunResult, error)
}
