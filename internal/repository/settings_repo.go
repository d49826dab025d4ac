package repository

import (
	"context"
	"errors"

	"availability-service/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SettingsRepo interface {
	Get(ctx context.Context, hotelID uuid.UUID) (*models.HotelSettings, error)
	Upsert(ctx context.Context, s *models.HotelSettings) error
}

type settingsRepo struct{ db *gorm.DB }

func NewSettingsRepo(db *gorm.DB) SettingsRepo { return &settingsRepo{db: db} }

func (r *settingsRepo) Get(ctx context.Context, hotelID uuid.UUID) (*models.HotelSettings, error) {
	var s models.HotelSettings
	err := r.db.WithContext(ctx).First(&s, "hotel_id = ?", hotelID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *settingsRepo) Upsert(ctx context.Context, s *models.HotelSettings) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "hotel_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"check_in_time":  s.CheckInTime,
				"check_out_time": s.CheckOutTime,
				"updated_at":     gorm.Expr("now()"),
			}),
		}).
		Create(s).Error
}
