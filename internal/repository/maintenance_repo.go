package repository

import (
	"context"
	"errors"

	"availability-service/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MaintenanceRepo interface {
	// FindOrCreate идемпотентен: один и тот же id для одной пары (hotel, external_code)
	FindOrCreate(ctx context.Context, hotelID, roomUnitID uuid.UUID, externalCode string) (*models.Maintenance, error)
	Create(ctx context.Context, m *models.Maintenance) error
	GetByID(ctx context.Context, hotelID, id uuid.UUID) (*models.Maintenance, error)
	GetByExternalCodes(ctx context.Context, hotelID uuid.UUID, codes []string) ([]models.Maintenance, error)
	DeleteByIDs(ctx context.Context, hotelID uuid.UUID, ids []uuid.UUID) (int64, error)
	// DeleteOrphans удаляет блоки, на которые не ссылается ни одна строка дня;
	// возвращает внешние коды удалённых — для best-effort уведомления PMS
	DeleteOrphans(ctx context.Context, hotelID uuid.UUID) ([]string, error)
}

type maintenanceRepo struct{ db *gorm.DB }

func NewMaintenanceRepo(db *gorm.DB) MaintenanceRepo { return &maintenanceRepo{db: db} }

func (r *maintenanceRepo) FindOrCreate(ctx context.Context, hotelID, roomUnitID uuid.UUID, externalCode string) (*models.Maintenance, error) {
	rec := models.Maintenance{
		HotelID:      hotelID,
		RoomUnitID:   roomUnitID,
		ExternalCode: &externalCode,
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:     []clause.Column{{Name: "hotel_id"}, {Name: "external_code"}},
			TargetWhere: clause.Where{Exprs: []clause.Expression{clause.Expr{SQL: "external_code IS NOT NULL"}}},
			DoNothing:   true,
		}).
		Create(&rec).Error
	if err != nil {
		return nil, err
	}

	// При конфликте Create ничего не вернул — перечитываем существующую запись
	var out models.Maintenance
	err = r.db.WithContext(ctx).
		First(&out, "hotel_id = ? AND external_code = ?", hotelID, externalCode).Error
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *maintenanceRepo) Create(ctx context.Context, m *models.Maintenance) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *maintenanceRepo) GetByID(ctx context.Context, hotelID, id uuid.UUID) (*models.Maintenance, error) {
	var m models.Maintenance
	err := r.db.WithContext(ctx).First(&m, "hotel_id = ? AND id = ?", hotelID, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *maintenanceRepo) GetByExternalCodes(ctx context.Context, hotelID uuid.UUID, codes []string) ([]models.Maintenance, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	var list []models.Maintenance
	err := r.db.WithContext(ctx).
		Where("hotel_id = ? AND external_code IN ?", hotelID, codes).
		Find(&list).Error
	return list, err
}

func (r *maintenanceRepo) DeleteByIDs(ctx context.Context, hotelID uuid.UUID, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tx := r.db.WithContext(ctx).
		Where("hotel_id = ? AND id IN ?", hotelID, ids).
		Delete(&models.Maintenance{})
	return tx.RowsAffected, tx.Error
}

func (r *maintenanceRepo) DeleteOrphans(ctx context.Context, hotelID uuid.UUID) ([]string, error) {
	var codes []*string
	err := r.db.WithContext(ctx).Raw(`
DELETE FROM maintenances m
WHERE m.hotel_id = ?
  AND NOT EXISTS (
    SELECT 1 FROM availability_days d WHERE d.maintenance_id = m.id
  )
RETURNING m.external_code
`, hotelID).Scan(&codes).Error
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(codes))
	for _, c := range codes {
		if c != nil && *c != "" {
			out = append(out, *c)
		}
	}
	return out, nil
}
