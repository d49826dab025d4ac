package repository

import "gorm.io/gorm"

type Repository struct {
	DB           *gorm.DB
	Availability AvailabilityRepo
	Maintenances MaintenanceRepo
	Rooms        RoomRepo
	Settings     SettingsRepo
}

func buildRepository(db *gorm.DB) *Repository {
	return &Repository{
		DB:           db,
		Availability: NewAvailabilityRepo(db),
		Maintenances: NewMaintenanceRepo(db),
		Rooms:        NewRoomRepo(db),
		Settings:     NewSettingsRepo(db),
	}
}

func New(db *gorm.DB) *Repository { return buildRepository(db) }

// Глобальная транзакция на весь набор репо
func (r *Repository) WithTx(fn func(tx *Repository) error) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		return fn(buildRepository(tx))
	})
}
