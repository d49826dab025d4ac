package repository

import (
	"context"
	"errors"

	"availability-service/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RoomRepo interface {
	GetByID(ctx context.Context, hotelID, roomUnitID uuid.UUID) (*models.RoomUnit, error)
	GetByExternalCodes(ctx context.Context, hotelID uuid.UUID, codes []string) ([]models.RoomUnit, error)
	// ListHotelIDs — отели с заведёнными номерами; по этому списку идёт сверочный джоб
	ListHotelIDs(ctx context.Context) ([]uuid.UUID, error)
	// ProductIDsForRooms — room-product'ы, в состав которых входят затронутые номера
	ProductIDsForRooms(ctx context.Context, hotelID uuid.UUID, roomUnitIDs []uuid.UUID) ([]uuid.UUID, error)
}

type roomRepo struct{ db *gorm.DB }

func NewRoomRepo(db *gorm.DB) RoomRepo { return &roomRepo{db: db} }

func (r *roomRepo) GetByID(ctx context.Context, hotelID, roomUnitID uuid.UUID) (*models.RoomUnit, error) {
	var room models.RoomUnit
	err := r.db.WithContext(ctx).First(&room, "hotel_id = ? AND id = ?", hotelID, roomUnitID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *roomRepo) GetByExternalCodes(ctx context.Context, hotelID uuid.UUID, codes []string) ([]models.RoomUnit, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	var list []models.RoomUnit
	err := r.db.WithContext(ctx).
		Where("hotel_id = ? AND external_code IN ?", hotelID, codes).
		Find(&list).Error
	return list, err
}

func (r *roomRepo) ListHotelIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.RoomUnit{}).
		Distinct("hotel_id").
		Order("hotel_id ASC").
		Pluck("hotel_id", &ids).Error
	return ids, err
}

func (r *roomRepo) ProductIDsForRooms(ctx context.Context, hotelID uuid.UUID, roomUnitIDs []uuid.UUID) ([]uuid.UUID, error) {
	if len(roomUnitIDs) == 0 {
		return nil, nil
	}
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.RoomProductAssignment{}).
		Joins("JOIN room_products p ON p.id = room_product_assignments.room_product_id").
		Where("p.hotel_id = ? AND room_product_assignments.room_unit_id IN ?", hotelID, roomUnitIDs).
		Distinct("room_product_assignments.room_product_id").
		Pluck("room_product_assignments.room_product_id", &ids).Error
	return ids, err
}
