package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"availability-service/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// upsertChunkSize ограничивает размер одного INSERT, чтобы не держать блокировки долго
const upsertChunkSize = 1000

type UpsertOptions struct {
	// OverrideAssigned разрешает перезапись ASSIGNED, но только для строк без maintenance_id
	OverrideAssigned bool
	// CreateMaintenance дополнительно требует, чтобы строка ещё не была привязана к блоку
	CreateMaintenance bool
}

// PartialBatchError: чанки не обёрнуты в общую транзакцию, поэтому при сбое
// часть строк уже зафиксирована. Повтор безопасен — ключ натуральный, гарды по статусу.
type PartialBatchError struct {
	Applied int64
	Total   int
	Err     error
}

func (e *PartialBatchError) Error() string {
	return fmt.Sprintf("partial batch failure: %d rows applied of %d: %v", e.Applied, e.Total, e.Err)
}

func (e *PartialBatchError) Unwrap() error { return e.Err }

type RoomDate struct {
	RoomUnitID uuid.UUID
	Date       time.Time
}

type AvailabilityRepo interface {
	// BulkUpsert пишет строки чанками; конфликт по (hotel_id, room_unit_id, date),
	// перезапись только при выполнении гарда. Возвращает число реально записанных строк.
	BulkUpsert(ctx context.Context, rows []models.AvailabilityDay, opt UpsertOptions) (int64, error)
	// BulkProvision создаёт строки без перезаписи существующих (заведение номера / ресинк PMS)
	BulkProvision(ctx context.Context, rows []models.AvailabilityDay) (int64, error)

	ListDays(ctx context.Context, hotelID, roomUnitID uuid.UUID, from, to time.Time) ([]models.AvailabilityDay, error)

	// ListUnlinkedMaintenanceDays отдаёт исторические строки для компактора:
	// статус OUT_OF_ORDER/OUT_OF_INVENTORY без ссылки на блок, сортировка (room, date)
	ListUnlinkedMaintenanceDays(ctx context.Context, hotelID uuid.UUID) ([]models.AvailabilityDay, error)
	LinkMaintenance(ctx context.Context, dayIDs []uuid.UUID, maintenanceID uuid.UUID) (int64, error)

	// ReleaseByMaintenanceIDs переводит все ссылающиеся строки в AVAILABLE и
	// обнуляет ссылку; возвращает затронутые (room, date) для каскада
	ReleaseByMaintenanceIDs(ctx context.Context, hotelID uuid.UUID, ids []uuid.UUID) ([]RoomDate, error)

	// Сверочные проходы: только пара ASSIGNED/AVAILABLE, остальные статусы не трогаются
	ReconcileAssignedToAvailable(ctx context.Context, hotelID uuid.UUID, from, to time.Time) ([]RoomDate, error)
	ReconcileAvailableToAssigned(ctx context.Context, hotelID uuid.UUID, from, to time.Time) ([]RoomDate, error)
}

type availabilityRepo struct{ db *gorm.DB }

func NewAvailabilityRepo(db *gorm.DB) AvailabilityRepo { return &availabilityRepo{db: db} }

func upsertGuard(opt UpsertOptions) clause.Expression {
	notAssigned := clause.Expr{SQL: "availability_days.status <> ?", Vars: []interface{}{models.DayAssigned}}
	noMaintenance := clause.Expr{SQL: "availability_days.maintenance_id IS NULL"}

	switch {
	case opt.CreateMaintenance:
		// новый блок никогда не перепривязывает уже обслуживаемый день
		return clause.And(notAssigned, noMaintenance)
	case opt.OverrideAssigned:
		return clause.Or(notAssigned, noMaintenance)
	default:
		return notAssigned
	}
}

func (r *availabilityRepo) BulkUpsert(ctx context.Context, rows []models.AvailabilityDay, opt UpsertOptions) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	onConflict := clause.OnConflict{
		Columns: []clause.Column{{Name: "hotel_id"}, {Name: "room_unit_id"}, {Name: "date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"status":         gorm.Expr("excluded.status"),
			"maintenance_id": gorm.Expr("excluded.maintenance_id"),
			"updated_at":     gorm.Expr("now()"),
		}),
		Where: clause.Where{Exprs: []clause.Expression{upsertGuard(opt)}},
	}

	var applied int64
	for start := 0; start < len(rows); start += upsertChunkSize {
		end := start + upsertChunkSize
		if end > len(rows) {
			end = len(rows)
		}
		chunk := rows[start:end]

		tx := r.db.WithContext(ctx).Clauses(onConflict).Create(&chunk)
		if tx.Error != nil {
			return applied, &PartialBatchError{Applied: applied, Total: len(rows), Err: tx.Error}
		}
		applied += tx.RowsAffected
	}
	return applied, nil
}

func (r *availabilityRepo) BulkProvision(ctx context.Context, rows []models.AvailabilityDay) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	var created int64
	for start := 0; start < len(rows); start += upsertChunkSize {
		end := start + upsertChunkSize
		if end > len(rows) {
			end = len(rows)
		}
		chunk := rows[start:end]

		tx := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&chunk)
		if tx.Error != nil {
			return created, &PartialBatchError{Applied: created, Total: len(rows), Err: tx.Error}
		}
		created += tx.RowsAffected
	}
	return created, nil
}

func (r *availabilityRepo) ListDays(ctx context.Context, hotelID, roomUnitID uuid.UUID, from, to time.Time) ([]models.AvailabilityDay, error) {
	var list []models.AvailabilityDay
	err := r.db.WithContext(ctx).
		Where("hotel_id = ? AND room_unit_id = ? AND date >= ? AND date < ?", hotelID, roomUnitID, from, to).
		Order("date ASC").
		Find(&list).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return list, err
}

func (r *availabilityRepo) ListUnlinkedMaintenanceDays(ctx context.Context, hotelID uuid.UUID) ([]models.AvailabilityDay, error) {
	var list []models.AvailabilityDay
	err := r.db.WithContext(ctx).
		Where("hotel_id = ? AND maintenance_id IS NULL AND status IN ?", hotelID,
			[]models.DayStatus{models.DayOutOfOrder, models.DayOutOfInventory}).
		Order("hotel_id ASC, room_unit_id ASC, date ASC").
		Find(&list).Error
	return list, err
}

func (r *availabilityRepo) LinkMaintenance(ctx context.Context, dayIDs []uuid.UUID, maintenanceID uuid.UUID) (int64, error) {
	if len(dayIDs) == 0 {
		return 0, nil
	}
	tx := r.db.WithContext(ctx).
		Model(&models.AvailabilityDay{}).
		Where("id IN ?", dayIDs).
		Update("maintenance_id", maintenanceID)
	return tx.RowsAffected, tx.Error
}

func (r *availabilityRepo) ReleaseByMaintenanceIDs(ctx context.Context, hotelID uuid.UUID, ids []uuid.UUID) ([]RoomDate, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var affected []RoomDate
	err := r.db.WithContext(ctx).Raw(`
UPDATE availability_days
SET status = ?, maintenance_id = NULL, updated_at = now()
WHERE hotel_id = ? AND maintenance_id IN ?
RETURNING room_unit_id, date
`, models.DayAvailable, hotelID, ids).Scan(&affected).Error
	return affected, err
}

// activeSliceOverlap: активная бронь занимает ночь D, если date(from_time) <= D
// и D < date(to_time). Дата выезда не считается занятой, каким бы ни было
// время выезда — та же полуоткрытая семантика, что у писателя броней.
const activeSliceOverlap = `
SELECT 1 FROM reservation_slices s
WHERE s.room_unit_id = availability_days.room_unit_id
  AND s.deleted_at IS NULL
  AND s.status NOT IN ('CANCELLED','RELEASED','PAYMENT_FAILED')
  AND s.from_time < availability_days.date + interval '1 day'
  AND s.to_time >= availability_days.date + interval '1 day'
`

func (r *availabilityRepo) ReconcileAssignedToAvailable(ctx context.Context, hotelID uuid.UUID, from, to time.Time) ([]RoomDate, error) {
	var affected []RoomDate
	err := r.db.WithContext(ctx).Raw(`
UPDATE availability_days
SET status = ?, updated_at = now()
WHERE hotel_id = ? AND date >= ? AND date < ?
  AND status = ?
  AND NOT EXISTS (`+activeSliceOverlap+`)
RETURNING room_unit_id, date
`, models.DayAvailable, hotelID, from, to, models.DayAssigned).Scan(&affected).Error
	return affected, err
}

func (r *availabilityRepo) ReconcileAvailableToAssigned(ctx context.Context, hotelID uuid.UUID, from, to time.Time) ([]RoomDate, error) {
	var affected []RoomDate
	err := r.db.WithContext(ctx).Raw(`
UPDATE availability_days
SET status = ?, updated_at = now()
WHERE hotel_id = ? AND date >= ? AND date < ?
  AND status = ?
  AND EXISTS (`+activeSliceOverlap+`)
RETURNING room_unit_id, date
`, models.DayAssigned, hotelID, from, to, models.DayAvailable).Scan(&affected).Error
	return affected, err
}
