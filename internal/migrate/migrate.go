package migrate

import (
	"context"

	"availability-service/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type MigrateOptions struct {
	CreateExtensions       bool // pgcrypto, uuid-ossp
	CreateChecks           bool // CHECK-constraint'ы на статусы
	CreateIndexes          bool // индексы и UNIQUE
	CreateFKsViaSQL        bool // FK через Exec после AutoMigrate
	CreateUpdatedAtTrigger bool // триггеры updated_at
}

func DefaultMigrateOptions() MigrateOptions {
	return MigrateOptions{
		CreateExtensions:       true,
		CreateChecks:           true,
		CreateIndexes:          true,
		CreateFKsViaSQL:        true,
		CreateUpdatedAtTrigger: true,
	}
}

func MigrateAvailabilityDB(ctx context.Context, db *gorm.DB, log *zap.Logger, opt MigrateOptions) error {
	log.Info("Начало миграции базы доступности номеров")

	// Расширения
	if opt.CreateExtensions {
		log.Info("Создание расширений PostgreSQL")
		if err := db.WithContext(ctx).Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto`).Error; err != nil {
			log.Error("pgcrypto error", zap.Error(err))
			return err
		}
		if err := db.WithContext(ctx).Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
			log.Error("uuid-ossp error", zap.Error(err))
			return err
		}
		log.Info("Расширения созданы")
	}

	// Таблицы
	log.Info("Создание таблиц доступности")
	if err := db.WithContext(ctx).AutoMigrate(
		&models.RoomUnit{},
		&models.HotelSettings{},
		&models.AvailabilityDay{},
		&models.Maintenance{},
		&models.ReservationSlice{},
		&models.RoomProduct{},
		&models.RoomProductAssignment{},
	); err != nil {
		log.Error("AutoMigrate error", zap.Error(err))
		return err
	}
	log.Info("Таблицы созданы")

	// Триггеры updated_at
	if opt.CreateUpdatedAtTrigger {
		log.Info("Создание триггеров updated_at")
		if err := db.WithContext(ctx).Exec(`
CREATE OR REPLACE FUNCTION set_updated_at() RETURNS trigger AS $$
BEGIN NEW.updated_at = now(); RETURN NEW; END; $$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS trg_availability_days_updated ON availability_days;
CREATE TRIGGER trg_availability_days_updated BEFORE UPDATE ON availability_days
FOR EACH ROW EXECUTE FUNCTION set_updated_at();

DROP TRIGGER IF EXISTS trg_room_units_updated ON room_units;
CREATE TRIGGER trg_room_units_updated BEFORE UPDATE ON room_units
FOR EACH ROW EXECUTE FUNCTION set_updated_at();
`).Error; err != nil {
			log.Error("triggers error", zap.Error(err))
			return err
		}
		log.Info("Триггеры созданы")
	}

	// CHECK-и
	if opt.CreateChecks {
		log.Info("Создание CHECK-ограничений")

		if err := db.WithContext(ctx).Exec(`
ALTER TABLE availability_days
	DROP CONSTRAINT IF EXISTS chk_availability_days_status_allowed,
	ADD CONSTRAINT chk_availability_days_status_allowed
	CHECK (status IN ('AVAILABLE','ASSIGNED','OUT_OF_ORDER','OUT_OF_INVENTORY','BLOCKED'));
`).Error; err != nil {
			log.Error("chk availability_days.status", zap.Error(err))
			return err
		}

		if err := db.WithContext(ctx).Exec(`
ALTER TABLE reservation_slices
	DROP CONSTRAINT IF EXISTS chk_reservation_slices_time_order,
	ADD CONSTRAINT chk_reservation_slices_time_order
	CHECK (to_time > from_time);
`).Error; err != nil {
			log.Error("chk reservation_slices.time", zap.Error(err))
			return err
		}

		log.Info("CHECK-и созданы")
	}

	// Индексы и уникальности
	if opt.CreateIndexes {
		log.Info("Создание индексов и уникальностей")

		// Инвариант «ровно одна строка на (отель, номер, дату)» держит база, не код
		if err := db.WithContext(ctx).Exec(`
CREATE UNIQUE INDEX IF NOT EXISTS ux_availability_days_hotel_room_date
ON availability_days (hotel_id, room_unit_id, date);
`).Error; err != nil {
			log.Error("ux availability_days hotel_room_date", zap.Error(err))
			return err
		}

		if err := db.WithContext(ctx).Exec(`
CREATE INDEX IF NOT EXISTS ix_availability_days_maintenance
ON availability_days (maintenance_id) WHERE maintenance_id IS NOT NULL;
`).Error; err != nil {
			log.Error("ix availability_days maintenance", zap.Error(err))
			return err
		}

		if err := db.WithContext(ctx).Exec(`
CREATE UNIQUE INDEX IF NOT EXISTS ux_maintenances_hotel_external
ON maintenances (hotel_id, external_code) WHERE external_code IS NOT NULL;
`).Error; err != nil {
			log.Error("ux maintenances hotel_external", zap.Error(err))
			return err
		}

		if err := db.WithContext(ctx).Exec(`
CREATE UNIQUE INDEX IF NOT EXISTS ux_room_units_hotel_external
ON room_units (hotel_id, external_code);
`).Error; err != nil {
			log.Error("ux room_units hotel_external", zap.Error(err))
			return err
		}

		if err := db.WithContext(ctx).Exec(`
CREATE INDEX IF NOT EXISTS ix_reservation_slices_room_window
ON reservation_slices (room_unit_id, from_time, to_time);
`).Error; err != nil {
			log.Error("ix reservation_slices room_window", zap.Error(err))
			return err
		}

		if err := db.WithContext(ctx).Exec(`
CREATE UNIQUE INDEX IF NOT EXISTS ux_room_product_assignments
ON room_product_assignments (room_product_id, room_unit_id);
`).Error; err != nil {
			log.Error("ux room_product_assignments", zap.Error(err))
			return err
		}

		log.Info("Индексы созданы")
	}

	// Внешние ключи
	if opt.CreateFKsViaSQL {
		log.Info("Создание внешних ключей")

		if err := db.WithContext(ctx).Exec(`
ALTER TABLE availability_days
  DROP CONSTRAINT IF EXISTS fk_availability_days_room_unit,
  ADD CONSTRAINT fk_availability_days_room_unit
    FOREIGN KEY (room_unit_id) REFERENCES room_units(id) ON DELETE CASCADE;
`).Error; err != nil {
			log.Error("fk availability_days.room_unit_id", zap.Error(err))
			return err
		}

		// maintenance_id — слабая ссылка: при удалении блока строка остаётся, ссылка обнуляется
		if err := db.WithContext(ctx).Exec(`
ALTER TABLE availability_days
  DROP CONSTRAINT IF EXISTS fk_availability_days_maintenance,
  ADD CONSTRAINT fk_availability_days_maintenance
    FOREIGN KEY (maintenance_id) REFERENCES maintenances(id) ON DELETE SET NULL;
`).Error; err != nil {
			log.Error("fk availability_days.maintenance_id", zap.Error(err))
			return err
		}

		if err := db.WithContext(ctx).Exec(`
ALTER TABLE room_product_assignments
  DROP CONSTRAINT IF EXISTS fk_room_product_assignments_product,
  ADD CONSTRAINT fk_room_product_assignments_product
    FOREIGN KEY (room_product_id) REFERENCES room_products(id) ON DELETE CASCADE;
`).Error; err != nil {
			log.Error("fk room_product_assignments.room_product_id", zap.Error(err))
			return err
		}

		log.Info("Внешние ключи созданы")
	}

	log.Info("Миграция базы доступности успешно завершена")
	return nil
}
