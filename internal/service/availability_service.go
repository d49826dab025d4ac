package service

import (
	"context"
	"time"

	"availability-service/internal/models"
	"availability-service/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultProvisionDays = 365

type availabilityService struct {
	repo     *repository.Repository
	settings SettingsProvider
	cascade  CascadeTrigger
	pms      PMSNotifier
	log      *zap.Logger
	now      func() time.Time
}

func NewAvailabilityService(
	repo *repository.Repository,
	settings SettingsProvider,
	cascade CascadeTrigger,
	pms PMSNotifier,
	log *zap.Logger,
) *availabilityService {
	return &availabilityService{
		repo:     repo,
		settings: settings,
		cascade:  cascade,
		pms:      pms,
		log:      log,
		now:      time.Now,
	}
}

// RepoSettingsProvider читает времена заезда/выезда напрямую из базы;
// используется, когда redis-кэш выключен. Дефолты — 15:00/11:00.
type RepoSettingsProvider struct {
	Settings repository.SettingsRepo
}

func (p *RepoSettingsProvider) GetCheckInOut(ctx context.Context, hotelID uuid.UUID) (string, string, error) {
	s, err := p.Settings.Get(ctx, hotelID)
	if err != nil {
		return "", "", err
	}
	if s == nil {
		return "15:00", "11:00", nil
	}
	return s.CheckInTime, s.CheckOutTime, nil
}

func (s *availabilityService) ApplyMaintenanceFeed(ctx context.Context, hotelID uuid.UUID, events []MaintenanceEvent) (*FeedResult, error) {
	if hotelID == uuid.Nil {
		return nil, ErrHotelRequired
	}
	res := &FeedResult{EventsIn: len(events)}
	if len(events) == 0 {
		return res, nil
	}

	checkIn, checkOut, err := s.settings.GetCheckInOut(ctx, hotelID)
	if err != nil {
		return nil, err
	}

	updates := make([]PendingUpdate, 0, len(events))
	for _, ev := range events {
		if u, ok := NormalizeMaintenanceEvent(ev, checkIn, checkOut, s.log); ok {
			updates = append(updates, u)
		}
	}
	updates = dedupeUpdates(updates)
	if len(updates) == 0 {
		return res, nil
	}

	rooms, err := s.roomsByExternalCode(ctx, hotelID, updates)
	if err != nil {
		return nil, err
	}

	var createRows, releaseRows []models.AvailabilityDay
	affectedRooms := make(map[uuid.UUID]struct{})
	affectedDates := make(map[time.Time]struct{})

	for _, u := range updates {
		room, ok := rooms[u.RoomExternalCode]
		if !ok {
			res.SkippedRooms++
			s.log.Warn("room external code not mapped, update skipped",
				zap.String("hotel_id", hotelID.String()),
				zap.String("room", u.RoomExternalCode))
			continue
		}

		var maintenanceID *uuid.UUID
		if u.Status.IsMaintenance() && u.MaintenanceExternalCode != "" {
			m, err := s.repo.Maintenances.FindOrCreate(ctx, hotelID, room.ID, u.MaintenanceExternalCode)
			if err != nil {
				return nil, err
			}
			maintenanceID = &m.ID
		}

		for _, d := range u.Dates {
			row := models.AvailabilityDay{
				HotelID:       hotelID,
				RoomUnitID:    room.ID,
				Date:          d,
				Status:        u.Status,
				MaintenanceID: maintenanceID,
			}
			if u.Status.IsMaintenance() {
				createRows = append(createRows, row)
			} else {
				releaseRows = append(releaseRows, row)
			}
			affectedRooms[room.ID] = struct{}{}
			affectedDates[d] = struct{}{}
		}
	}

	// Новые блоки не перепривязывают уже обслуживаемые дни; освобождения идут
	// под обычным гардом и не трогают ASSIGNED
	applied, err := s.repo.Availability.BulkUpsert(ctx, createRows, repository.UpsertOptions{CreateMaintenance: true})
	res.RowsApplied += applied
	if err != nil {
		return res, err
	}
	applied, err = s.repo.Availability.BulkUpsert(ctx, releaseRows, repository.UpsertOptions{})
	res.RowsApplied += applied
	if err != nil {
		return res, err
	}

	// Освобождения могли оставить блоки без единой ссылающейся строки
	orphanCodes, err := s.repo.Maintenances.DeleteOrphans(ctx, hotelID)
	if err != nil {
		return res, err
	}
	res.ReleasedCodes = orphanCodes

	s.fireCascade(ctx, hotelID, keysOf(affectedRooms), dateKeysOf(affectedDates))
	s.notifyPMSDeleted(ctx, hotelID, orphanCodes)

	return res, nil
}

func (s *availabilityService) roomsByExternalCode(ctx context.Context, hotelID uuid.UUID, updates []PendingUpdate) (map[string]models.RoomUnit, error) {
	codes := make([]string, 0, len(updates))
	seen := make(map[string]struct{}, len(updates))
	for _, u := range updates {
		if _, ok := seen[u.RoomExternalCode]; ok {
			continue
		}
		seen[u.RoomExternalCode] = struct{}{}
		codes = append(codes, u.RoomExternalCode)
	}

	list, err := s.repo.Rooms.GetByExternalCodes(ctx, hotelID, codes)
	if err != nil {
		return nil, err
	}
	out := make(map[string]models.RoomUnit, len(list))
	for _, r := range list {
		out[r.ExternalCode] = r
	}
	return out, nil
}

func (s *availabilityService) ReleaseMaintenances(ctx context.Context, hotelID uuid.UUID, externalCodes []string) (*ReleaseResult, error) {
	if hotelID == uuid.Nil {
		return nil, ErrHotelRequired
	}

	blocks, err := s.repo.Maintenances.GetByExternalCodes(ctx, hotelID, externalCodes)
	if err != nil {
		return nil, err
	}
	if len(blocks) == 0 {
		return nil, ErrMaintenanceNotFound
	}

	ids := make([]uuid.UUID, 0, len(blocks))
	for _, b := range blocks {
		ids = append(ids, b.ID)
	}

	var affected []repository.RoomDate
	var deleted int64
	err = s.repo.WithTx(func(tx *repository.Repository) error {
		var txErr error
		affected, txErr = tx.Availability.ReleaseByMaintenanceIDs(ctx, hotelID, ids)
		if txErr != nil {
			return txErr
		}
		deleted, txErr = tx.Maintenances.DeleteByIDs(ctx, hotelID, ids)
		return txErr
	})
	if err != nil {
		return nil, err
	}

	roomIDs, dates := splitRoomDates(affected)
	productIDs := s.fireCascade(ctx, hotelID, roomIDs, dates)
	s.notifyPMSDeleted(ctx, hotelID, externalCodes)

	return &ReleaseResult{
		RowsReleased:   int64(len(affected)),
		DeletedBlocks:  deleted,
		RoomProductIDs: productIDs,
	}, nil
}

func (s *availabilityService) ProvisionRoomUnit(ctx context.Context, hotelID, roomUnitID uuid.UUID, days int) (int64, error) {
	if hotelID == uuid.Nil {
		return 0, ErrHotelRequired
	}
	room, err := s.repo.Rooms.GetByID(ctx, hotelID, roomUnitID)
	if err != nil {
		return 0, err
	}
	if room == nil {
		return 0, ErrRoomUnitNotFound
	}

	if days <= 0 {
		days = defaultProvisionDays
	}
	start := dateOnly(s.now())
	rows := make([]models.AvailabilityDay, 0, days)
	for i := 0; i < days; i++ {
		rows = append(rows, models.AvailabilityDay{
			HotelID:    hotelID,
			RoomUnitID: roomUnitID,
			Date:       start.AddDate(0, 0, i),
			Status:     models.DayAvailable,
		})
	}
	return s.repo.Availability.BulkProvision(ctx, rows)
}

// ApplyReservation — писатель со стороны подсистемы броней: коммит даёт
// ASSIGNED, отмена возвращает AVAILABLE. Освобождение снимает ASSIGNED через
// флаг переопределения, но дни, привязанные к maintenance, гард не отдаст.
// Ночи брони считаются напрямую ([date(from), date(to))) — без отсечек CI/CO,
// те применяются только к фиду обслуживаний.
func (s *availabilityService) ApplyReservation(ctx context.Context, hotelID, roomUnitID uuid.UUID, from, to time.Time, assigned bool) (int64, error) {
	if hotelID == uuid.Nil {
		return 0, ErrHotelRequired
	}
	room, err := s.repo.Rooms.GetByID(ctx, hotelID, roomUnitID)
	if err != nil {
		return 0, err
	}
	if room == nil {
		return 0, ErrRoomUnitNotFound
	}

	nights := reservationNights(from, to)
	if len(nights) == 0 {
		return 0, nil
	}

	status := models.DayAssigned
	opt := repository.UpsertOptions{}
	if !assigned {
		status = models.DayAvailable
		opt.OverrideAssigned = true
	}

	rows := make([]models.AvailabilityDay, 0, len(nights))
	for _, d := range nights {
		rows = append(rows, models.AvailabilityDay{
			HotelID:    hotelID,
			RoomUnitID: roomUnitID,
			Date:       d,
			Status:     status,
		})
	}

	applied, err := s.repo.Availability.BulkUpsert(ctx, rows, opt)
	if err != nil {
		return applied, err
	}

	s.fireCascade(ctx, hotelID, []uuid.UUID{roomUnitID}, nights)
	return applied, nil
}

func (s *availabilityService) ListDays(ctx context.Context, hotelID, roomUnitID uuid.UUID, from, to time.Time) ([]models.AvailabilityDay, error) {
	if hotelID == uuid.Nil {
		return nil, ErrHotelRequired
	}
	if !from.Before(to) {
		return nil, ErrWindowRequired
	}
	return s.repo.Availability.ListDays(ctx, hotelID, roomUnitID, from, to)
}

// fireCascade запрашивает пересчёт агрегированной доступности; сбой каскада
// не валит исходную запись — он только логируется
func (s *availabilityService) fireCascade(ctx context.Context, hotelID uuid.UUID, roomIDs []uuid.UUID, dates []time.Time) []uuid.UUID {
	if len(roomIDs) == 0 || len(dates) == 0 {
		return nil
	}
	productIDs, err := s.repo.Rooms.ProductIDsForRooms(ctx, hotelID, roomIDs)
	if err != nil {
		s.log.Error("room product lookup for cascade failed",
			zap.String("hotel_id", hotelID.String()), zap.Error(err))
		return nil
	}
	if len(productIDs) == 0 {
		return nil
	}
	if err := s.cascade.RecomputeAvailability(ctx, hotelID, productIDs, dates); err != nil {
		s.log.Warn("cascade recompute request failed",
			zap.String("hotel_id", hotelID.String()),
			zap.Int("products", len(productIDs)), zap.Error(err))
	}
	return productIDs
}

func (s *availabilityService) notifyPMSDeleted(ctx context.Context, hotelID uuid.UUID, codes []string) {
	if len(codes) == 0 {
		return
	}
	if err := s.pms.DeleteMaintenance(ctx, hotelID, codes); err != nil {
		s.log.Warn("pms delete-maintenance notification failed",
			zap.String("hotel_id", hotelID.String()),
			zap.Strings("codes", codes), zap.Error(err))
	}
}

func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func splitRoomDates(list []repository.RoomDate) ([]uuid.UUID, []time.Time) {
	roomSet := make(map[uuid.UUID]struct{})
	dateSet := make(map[time.Time]struct{})
	for _, rd := range list {
		roomSet[rd.RoomUnitID] = struct{}{}
		dateSet[dateOnly(rd.Date)] = struct{}{}
	}
	return keysOf(roomSet), dateKeysOf(dateSet)
}

func keysOf(set map[uuid.UUID]struct{}) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}

func dateKeysOf(set map[time.Time]struct{}) []time.Time {
	out := make([]time.Time, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}
