package service

import (
	"context"

	"availability-service/internal/models"
	"availability-service/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// dayRun — непрерывная последовательность дней одного номера с одним статусом
type dayRun struct {
	roomUnitID uuid.UUID
	status     models.DayStatus
	dayIDs     []uuid.UUID
}

// splitRuns — один RLE-проход по строкам, отсортированным по (room, date).
// Ран закрывается сменой номера, сменой статуса или разрывом хотя бы в день:
// даже два одинаковых статуса через дырку дают два отдельных блока.
func splitRuns(rows []models.AvailabilityDay) []dayRun {
	var runs []dayRun
	var cur *dayRun
	var nextDate string

	for _, row := range rows {
		date := dateOnly(row.Date)
		extends := cur != nil &&
			cur.roomUnitID == row.RoomUnitID &&
			cur.status == row.Status &&
			date.Format("2006-01-02") == nextDate

		if !extends {
			runs = append(runs, dayRun{roomUnitID: row.RoomUnitID, status: row.Status})
			cur = &runs[len(runs)-1]
		}
		cur.dayIDs = append(cur.dayIDs, row.ID)
		nextDate = date.AddDate(0, 0, 1).Format("2006-01-02")
	}
	return runs
}

// CompactHotel группирует исторические дни без ссылки на блок в Maintenance.
// Статусы строк не меняются — только проставляется maintenance_id.
// В отличие от исходной системы бэкфилл не одна гигантская транзакция:
// каждый отель фиксируется отдельно.
func (s *availabilityService) CompactHotel(ctx context.Context, hotelID uuid.UUID) (*CompactResult, error) {
	if hotelID == uuid.Nil {
		return nil, ErrHotelRequired
	}

	rows, err := s.repo.Availability.ListUnlinkedMaintenanceDays(ctx, hotelID)
	if err != nil {
		return nil, err
	}
	runs := splitRuns(rows)
	if len(runs) == 0 {
		return &CompactResult{}, nil
	}

	res := &CompactResult{}
	err = s.repo.WithTx(func(tx *repository.Repository) error {
		for _, run := range runs {
			m := models.Maintenance{
				HotelID:    hotelID,
				RoomUnitID: run.roomUnitID,
			}
			if err := tx.Maintenances.Create(ctx, &m); err != nil {
				return err
			}
			linked, err := tx.Availability.LinkMaintenance(ctx, run.dayIDs, m.ID)
			if err != nil {
				return err
			}
			res.BlocksCreated++
			res.RowsLinked += linked
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// CompactAll — обход отелей с изоляцией сбоев, как у сверочного джоба
func (s *availabilityService) CompactAll(ctx context.Context) (*CompactRunResult, error) {
	hotels, err := s.repo.Rooms.ListHotelIDs(ctx)
	if err != nil {
		return nil, err
	}

	res := &CompactRunResult{Hotels: len(hotels)}
	for _, hotelID := range hotels {
		r, err := s.CompactHotel(ctx, hotelID)
		if err != nil {
			res.Failed++
			s.log.Error("hotel compaction failed",
				zap.String("hotel_id", hotelID.String()), zap.Error(err))
			continue
		}
		res.Blocks += r.BlocksCreated
	}

	s.log.Info("compaction run finished",
		zap.Int("hotels", res.Hotels),
		zap.Int("failed", res.Failed),
		zap.Int("blocks", res.Blocks))
	return res, nil
}
