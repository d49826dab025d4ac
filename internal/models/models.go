package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DayStatus string

const (
	DayAvailable      DayStatus = "AVAILABLE"
	DayAssigned       DayStatus = "ASSIGNED"
	DayOutOfOrder     DayStatus = "OUT_OF_ORDER"
	DayOutOfInventory DayStatus = "OUT_OF_INVENTORY"
	DayBlocked        DayStatus = "BLOCKED"
)

// MaintenanceStatuses — статусы, которые группируются в блоки Maintenance
var MaintenanceStatuses = []DayStatus{DayOutOfOrder, DayOutOfInventory, DayBlocked}

func (s DayStatus) IsMaintenance() bool {
	return s == DayOutOfOrder || s == DayOutOfInventory || s == DayBlocked
}

// RoomUnit принадлежит соседней подсистеме; здесь читаем только маппинг id/код
type RoomUnit struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	HotelID      uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:ux_room_units_hotel_external"`
	ExternalCode string    `gorm:"type:text;not null;uniqueIndex:ux_room_units_hotel_external"`
	Status       string    `gorm:"type:text;not null;default:'ACTIVE'"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}

func (RoomUnit) TableName() string {
	return "room_units"
}

// HotelSettings хранит времена заезда/выезда в формате "HH:MM"
type HotelSettings struct {
	HotelID      uuid.UUID `gorm:"type:uuid;primaryKey"`
	CheckInTime  string    `gorm:"type:char(5);not null;default:'15:00'"`
	CheckOutTime string    `gorm:"type:char(5);not null;default:'11:00'"`

	UpdatedAt time.Time `gorm:"not null;default:now()"`
}

func (HotelSettings) TableName() string {
	return "hotel_settings"
}

type AvailabilityDay struct {
	ID            uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	HotelID       uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:ux_availability_days_hotel_room_date,priority:1"`
	RoomUnitID    uuid.UUID  `gorm:"type:uuid;not null;index;uniqueIndex:ux_availability_days_hotel_room_date,priority:2"`
	Date          time.Time  `gorm:"type:date;not null;uniqueIndex:ux_availability_days_hotel_room_date,priority:3"`
	Status        DayStatus  `gorm:"type:text;not null;default:'AVAILABLE';index"`
	MaintenanceID *uuid.UUID `gorm:"type:uuid;index"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}

func (AvailabilityDay) TableName() string {
	return "availability_days"
}

// Maintenance не хранит диапазон дат: диапазон выводится из ссылающихся
// строк availability_days. Запись без ссылок — сирота и подлежит удалению.
type Maintenance struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	HotelID      uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:ux_maintenances_hotel_external"`
	RoomUnitID   uuid.UUID `gorm:"type:uuid;not null;index"`
	ExternalCode *string   `gorm:"type:text;uniqueIndex:ux_maintenances_hotel_external"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
}

func (Maintenance) TableName() string {
	return "maintenances"
}

type ReservationStatus string

const (
	ReservationConfirmed     ReservationStatus = "CONFIRMED"
	ReservationCancelled     ReservationStatus = "CANCELLED"
	ReservationReleased      ReservationStatus = "RELEASED"
	ReservationPaymentFailed ReservationStatus = "PAYMENT_FAILED"
)

// ReservationSlice — источник истины «комната занята бронью»; сервис его не пишет
type ReservationSlice struct {
	ID         uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	HotelID    uuid.UUID         `gorm:"type:uuid;not null;index"`
	RoomUnitID uuid.UUID         `gorm:"type:uuid;not null;index"`
	FromTime   time.Time         `gorm:"not null"`
	ToTime     time.Time         `gorm:"not null"`
	Status     ReservationStatus `gorm:"type:text;not null;default:'CONFIRMED';index"`

	CreatedAt time.Time      `gorm:"not null;default:now()"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (ReservationSlice) TableName() string {
	return "reservation_slices"
}

type RoomProduct struct {
	ID      uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	HotelID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name    string    `gorm:"type:text;not null"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
}

func (RoomProduct) TableName() string {
	return "room_products"
}

type RoomProductAssignment struct {
	ID            uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	RoomProductID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:ux_room_product_assignments"`
	RoomUnitID    uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:ux_room_product_assignments"`
}

func (RoomProductAssignment) TableName() string {
	return "room_product_assignments"
}
