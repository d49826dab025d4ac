package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"availability-service/internal/models"
	"availability-service/internal/repository"
	"availability-service/internal/service"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// --- моки с функциональными полями ---

type mockAvailabilityRepo struct {
	BulkUpsertFunc    func(ctx context.Context, rows []models.AvailabilityDay, opt repository.UpsertOptions) (int64, error)
	BulkProvisionFunc func(ctx context.Context, rows []models.AvailabilityDay) (int64, error)
}

func (m *mockAvailabilityRepo) BulkUpsert(ctx context.Context, rows []models.AvailabilityDay, opt repository.UpsertOptions) (int64, error) {
	if m.BulkUpsertFunc != nil {
		return m.BulkUpsertFunc(ctx, rows, opt)
	}
	return int64(len(rows)), nil
}

func (m *mockAvailabilityRepo) BulkProvision(ctx context.Context, rows []models.AvailabilityDay) (int64, error) {
	if m.BulkProvisionFunc != nil {
		return m.BulkProvisionFunc(ctx, rows)
	}
	return int64(len(rows)), nil
}

func (m *mockAvailabilityRepo) ListDays(ctx context.Context, hotelID, roomUnitID uuid.UUID, from, to time.Time) ([]models.AvailabilityDay, error) {
	return nil, nil
}

func (m *mockAvailabilityRepo) ListUnlinkedMaintenanceDays(ctx context.Context, hotelID uuid.UUID) ([]models.AvailabilityDay, error) {
	return nil, nil
}

func (m *mockAvailabilityRepo) LinkMaintenance(ctx context.Context, dayIDs []uuid.UUID, maintenanceID uuid.UUID) (int64, error) {
	return 0, nil
}

func (m *mockAvailabilityRepo) ReleaseByMaintenanceIDs(ctx context.Context, hotelID uuid.UUID, ids []uuid.UUID) ([]repository.RoomDate, error) {
	return nil, nil
}

func (m *mockAvailabilityRepo) ReconcileAssignedToAvailable(ctx context.Context, hotelID uuid.UUID, from, to time.Time) ([]repository.RoomDate, error) {
	return nil, nil
}

func (m *mockAvailabilityRepo) ReconcileAvailableToAssigned(ctx context.Context, hotelID uuid.UUID, from, to time.Time) ([]repository.RoomDate, error) {
	return nil, nil
}

type mockMaintenanceRepo struct {
	FindOrCreateFunc  func(ctx context.Context, hotelID, roomUnitID uuid.UUID, externalCode string) (*models.Maintenance, error)
	DeleteOrphansFunc func(ctx context.Context, hotelID uuid.UUID) ([]string, error)
	GetByCodesFunc    func(ctx context.Context, hotelID uuid.UUID, codes []string) ([]models.Maintenance, error)
}

func (m *mockMaintenanceRepo) FindOrCreate(ctx context.Context, hotelID, roomUnitID uuid.UUID, externalCode string) (*models.Maintenance, error) {
	if m.FindOrCreateFunc != nil {
		return m.FindOrCreateFunc(ctx, hotelID, roomUnitID, externalCode)
	}
	return &models.Maintenance{ID: uuid.New(), HotelID: hotelID, RoomUnitID: roomUnitID, ExternalCode: &externalCode}, nil
}

func (m *mockMaintenanceRepo) Create(ctx context.Context, rec *models.Maintenance) error {
	rec.ID = uuid.New()
	return nil
}

func (m *mockMaintenanceRepo) GetByID(ctx context.Context, hotelID, id uuid.UUID) (*models.Maintenance, error) {
	return nil, nil
}

func (m *mockMaintenanceRepo) GetByExternalCodes(ctx context.Context, hotelID uuid.UUID, codes []string) ([]models.Maintenance, error) {
	if m.GetByCodesFunc != nil {
		return m.GetByCodesFunc(ctx, hotelID, codes)
	}
	return nil, nil
}

func (m *mockMaintenanceRepo) DeleteByIDs(ctx context.Context, hotelID uuid.UUID, ids []uuid.UUID) (int64, error) {
	return int64(len(ids)), nil
}

func (m *mockMaintenanceRepo) DeleteOrphans(ctx context.Context, hotelID uuid.UUID) ([]string, error) {
	if m.DeleteOrphansFunc != nil {
		return m.DeleteOrphansFunc(ctx, hotelID)
	}
	return nil, nil
}

type mockRoomRepo struct {
	GetByIDFunc      func(ctx context.Context, hotelID, roomUnitID uuid.UUID) (*models.RoomUnit, error)
	GetByCodesFunc   func(ctx context.Context, hotelID uuid.UUID, codes []string) ([]models.RoomUnit, error)
	ProductIDsFunc   func(ctx context.Context, hotelID uuid.UUID, roomUnitIDs []uuid.UUID) ([]uuid.UUID, error)
	ListHotelIDsFunc func(ctx context.Context) ([]uuid.UUID, error)
}

func (m *mockRoomRepo) GetByID(ctx context.Context, hotelID, roomUnitID uuid.UUID) (*models.RoomUnit, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, hotelID, roomUnitID)
	}
	return nil, nil
}

func (m *mockRoomRepo) GetByExternalCodes(ctx context.Context, hotelID uuid.UUID, codes []string) ([]models.RoomUnit, error) {
	if m.GetByCodesFunc != nil {
		return m.GetByCodesFunc(ctx, hotelID, codes)
	}
	return nil, nil
}

func (m *mockRoomRepo) ListHotelIDs(ctx context.Context) ([]uuid.UUID, error) {
	if m.ListHotelIDsFunc != nil {
		return m.ListHotelIDsFunc(ctx)
	}
	return nil, nil
}

func (m *mockRoomRepo) ProductIDsForRooms(ctx context.Context, hotelID uuid.UUID, roomUnitIDs []uuid.UUID) ([]uuid.UUID, error) {
	if m.ProductIDsFunc != nil {
		return m.ProductIDsFunc(ctx, hotelID, roomUnitIDs)
	}
	return []uuid.UUID{uuid.New()}, nil
}

type mockSettings struct{ checkIn, checkOut string }

func (m *mockSettings) GetCheckInOut(ctx context.Context, hotelID uuid.UUID) (string, string, error) {
	return m.checkIn, m.checkOut, nil
}

type mockCascade struct {
	calls int
	err   error
	last  []uuid.UUID
}

func (m *mockCascade) RecomputeAvailability(ctx context.Context, hotelID uuid.UUID, productIDs []uuid.UUID, dates []time.Time) error {
	m.calls++
	m.last = productIDs
	return m.err
}

type mockPMS struct {
	calls int
	codes []string
}

func (m *mockPMS) DeleteMaintenance(ctx context.Context, hotelID uuid.UUID, externalCodes []string) error {
	m.calls++
	m.codes = externalCodes
	return nil
}

type fixture struct {
	avail   *mockAvailabilityRepo
	maints  *mockMaintenanceRepo
	rooms   *mockRoomRepo
	cascade *mockCascade
	pms     *mockPMS
	svc     service.Availability
}

func newFixture() *fixture {
	f := &fixture{
		avail:   &mockAvailabilityRepo{},
		maints:  &mockMaintenanceRepo{},
		rooms:   &mockRoomRepo{},
		cascade: &mockCascade{},
		pms:     &mockPMS{},
	}
	repo := &repository.Repository{
		Availability: f.avail,
		Maintenances: f.maints,
		Rooms:        f.rooms,
	}
	f.svc = service.NewAvailabilityService(
		repo,
		&mockSettings{checkIn: "14:00", checkOut: "11:00"},
		f.cascade,
		f.pms,
		zap.NewNop(),
	)
	return f
}

func roomWithCode(hotelID uuid.UUID, code string) models.RoomUnit {
	return models.RoomUnit{ID: uuid.New(), HotelID: hotelID, ExternalCode: code}
}

// --- ApplyMaintenanceFeed ---

func TestApplyMaintenanceFeed_RequiresHotel(t *testing.T) {
	f := newFixture()
	_, err := f.svc.ApplyMaintenanceFeed(context.Background(), uuid.Nil, nil)
	if !service.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestApplyMaintenanceFeed_SplitsCreateAndReleaseGuards(t *testing.T) {
	f := newFixture()
	hotelID := uuid.New()
	room := roomWithCode(hotelID, "R-101")

	f.rooms.GetByCodesFunc = func(ctx context.Context, h uuid.UUID, codes []string) ([]models.RoomUnit, error) {
		return []models.RoomUnit{room}, nil
	}

	type call struct {
		rows []models.AvailabilityDay
		opt  repository.UpsertOptions
	}
	var calls []call
	f.avail.BulkUpsertFunc = func(ctx context.Context, rows []models.AvailabilityDay, opt repository.UpsertOptions) (int64, error) {
		calls = append(calls, call{rows: rows, opt: opt})
		return int64(len(rows)), nil
	}

	events := []service.MaintenanceEvent{
		{
			RoomUnitExternalCode:    "R-101",
			From:                    "2024-04-01T16:00:00",
			To:                      "2024-04-03T15:00:00",
			Type:                    models.DayOutOfOrder,
			MaintenanceExternalCode: "MNT-7",
		},
		// вывернутый интервал нормализуется в освобождение
		{
			RoomUnitExternalCode: "R-101",
			From:                 "2024-04-10T20:00:00",
			To:                   "2024-04-10T08:00:00",
			Type:                 models.DayOutOfOrder,
		},
	}

	res, err := f.svc.ApplyMaintenanceFeed(context.Background(), hotelID, events)
	if err != nil {
		t.Fatalf("feed failed: %v", err)
	}
	if len(calls) != 2 {
		t.Fatalf("expected 2 upsert batches, got %d", len(calls))
	}

	create, release := calls[0], calls[1]
	if !create.opt.CreateMaintenance {
		t.Fatal("maintenance rows must go under the create-maintenance guard")
	}
	if len(create.rows) != 2 {
		t.Fatalf("two nights 04-01 and 04-02 must yield 2 rows, got %d", len(create.rows))
	}
	for _, row := range create.rows {
		if row.Status != models.DayOutOfOrder || row.MaintenanceID == nil {
			t.Fatalf("create row: status=%s maintenance=%v", row.Status, row.MaintenanceID)
		}
	}

	if release.opt.CreateMaintenance || release.opt.OverrideAssigned {
		t.Fatalf("release rows must use the default guard: %+v", release.opt)
	}
	if len(release.rows) != 2 {
		t.Fatalf("inverted range must yield 2 release rows, got %d", len(release.rows))
	}
	for _, row := range release.rows {
		if row.Status != models.DayAvailable || row.MaintenanceID != nil {
			t.Fatalf("release row: status=%s maintenance=%v", row.Status, row.MaintenanceID)
		}
	}

	if res.RowsApplied != 4 {
		t.Fatalf("rows applied: %d", res.RowsApplied)
	}
	if f.cascade.calls != 1 {
		t.Fatalf("cascade must fire once, fired %d times", f.cascade.calls)
	}
}

func TestApplyMaintenanceFeed_UnknownRoomSkipped(t *testing.T) {
	f := newFixture()
	hotelID := uuid.New()

	f.rooms.GetByCodesFunc = func(ctx context.Context, h uuid.UUID, codes []string) ([]models.RoomUnit, error) {
		return nil, nil
	}

	var upserts int
	f.avail.BulkUpsertFunc = func(ctx context.Context, rows []models.AvailabilityDay, opt repository.UpsertOptions) (int64, error) {
		if len(rows) > 0 {
			upserts++
		}
		return 0, nil
	}

	res, err := f.svc.ApplyMaintenanceFeed(context.Background(), hotelID, []service.MaintenanceEvent{
		{RoomUnitExternalCode: "GHOST", From: "2024-04-01T16:00:00", To: "2024-04-02T09:00:00", Type: models.DayBlocked},
	})
	if err != nil {
		t.Fatalf("feed failed: %v", err)
	}
	if res.SkippedRooms != 1 {
		t.Fatalf("skipped rooms: %d", res.SkippedRooms)
	}
	if upserts != 0 {
		t.Fatal("no rows must be written for an unmapped room")
	}
	if f.cascade.calls != 0 {
		t.Fatal("cascade must not fire when nothing was written")
	}
}

func TestApplyMaintenanceFeed_OrphansNotifyPMS(t *testing.T) {
	f := newFixture()
	hotelID := uuid.New()
	room := roomWithCode(hotelID, "R-101")

	f.rooms.GetByCodesFunc = func(ctx context.Context, h uuid.UUID, codes []string) ([]models.RoomUnit, error) {
		return []models.RoomUnit{room}, nil
	}
	f.maints.DeleteOrphansFunc = func(ctx context.Context, h uuid.UUID) ([]string, error) {
		return []string{"MNT-1", "MNT-2"}, nil
	}

	res, err := f.svc.ApplyMaintenanceFeed(context.Background(), hotelID, []service.MaintenanceEvent{
		{RoomUnitExternalCode: "R-101", From: "2024-04-10T20:00:00", To: "2024-04-10T08:00:00", Type: models.DayOutOfOrder},
	})
	if err != nil {
		t.Fatalf("feed failed: %v", err)
	}
	if len(res.ReleasedCodes) != 2 {
		t.Fatalf("released codes: %v", res.ReleasedCodes)
	}
	if f.pms.calls != 1 || len(f.pms.codes) != 2 {
		t.Fatalf("pms notified %d times with %v", f.pms.calls, f.pms.codes)
	}
}

func TestApplyMaintenanceFeed_CascadeFailureIsNotFatal(t *testing.T) {
	f := newFixture()
	f.cascade.err = errors.New("broker down")
	hotelID := uuid.New()
	room := roomWithCode(hotelID, "R-101")

	f.rooms.GetByCodesFunc = func(ctx context.Context, h uuid.UUID, codes []string) ([]models.RoomUnit, error) {
		return []models.RoomUnit{room}, nil
	}

	_, err := f.svc.ApplyMaintenanceFeed(context.Background(), hotelID, []service.MaintenanceEvent{
		{RoomUnitExternalCode: "R-101", From: "2024-04-01T16:00:00", To: "2024-04-02T09:00:00", Type: models.DayOutOfInventory, MaintenanceExternalCode: "MNT-9"},
	})
	if err != nil {
		t.Fatalf("a failed cascade must not fail the feed: %v", err)
	}
	if f.cascade.calls != 1 {
		t.Fatalf("cascade attempts: %d", f.cascade.calls)
	}
}

// --- ReleaseMaintenances ---

func TestReleaseMaintenances_UnknownCodes(t *testing.T) {
	f := newFixture()
	f.maints.GetByCodesFunc = func(ctx context.Context, h uuid.UUID, codes []string) ([]models.Maintenance, error) {
		return nil, nil
	}

	_, err := f.svc.ReleaseMaintenances(context.Background(), uuid.New(), []string{"MNT-404"})
	if !errors.Is(err, service.ErrMaintenanceNotFound) {
		t.Fatalf("expected ErrMaintenanceNotFound, got %v", err)
	}
}

// --- ProvisionRoomUnit ---

func TestProvisionRoomUnit_UnknownRoom(t *testing.T) {
	f := newFixture()
	_, err := f.svc.ProvisionRoomUnit(context.Background(), uuid.New(), uuid.New(), 30)
	if !errors.Is(err, service.ErrRoomUnitNotFound) {
		t.Fatalf("expected ErrRoomUnitNotFound, got %v", err)
	}
}

func TestProvisionRoomUnit_BuildsRequestedWindow(t *testing.T) {
	f := newFixture()
	hotelID, roomID := uuid.New(), uuid.New()

	f.rooms.GetByIDFunc = func(ctx context.Context, h, r uuid.UUID) (*models.RoomUnit, error) {
		return &models.RoomUnit{ID: roomID, HotelID: hotelID, ExternalCode: "R-101"}, nil
	}

	var got []models.AvailabilityDay
	f.avail.BulkProvisionFunc = func(ctx context.Context, rows []models.AvailabilityDay) (int64, error) {
		got = rows
		return int64(len(rows)), nil
	}

	created, err := f.svc.ProvisionRoomUnit(context.Background(), hotelID, roomID, 10)
	if err != nil {
		t.Fatalf("provision failed: %v", err)
	}
	if created != 10 || len(got) != 10 {
		t.Fatalf("created=%d rows=%d", created, len(got))
	}
	for i, row := range got {
		if row.Status != models.DayAvailable {
			t.Fatalf("row %d status %s", i, row.Status)
		}
		if i > 0 && !row.Date.Equal(got[i-1].Date.AddDate(0, 0, 1)) {
			t.Fatalf("dates not contiguous at row %d", i)
		}
	}
}

// --- ApplyReservation ---

func TestApplyReservation_CommitUsesDefaultGuard(t *testing.T) {
	f := newFixture()
	hotelID, roomID := uuid.New(), uuid.New()

	f.rooms.GetByIDFunc = func(ctx context.Context, h, r uuid.UUID) (*models.RoomUnit, error) {
		return &models.RoomUnit{ID: roomID, HotelID: hotelID, ExternalCode: "R-101"}, nil
	}

	var gotRows []models.AvailabilityDay
	var gotOpt repository.UpsertOptions
	f.avail.BulkUpsertFunc = func(ctx context.Context, rows []models.AvailabilityDay, opt repository.UpsertOptions) (int64, error) {
		gotRows, gotOpt = rows, opt
		return int64(len(rows)), nil
	}

	from := time.Date(2024, 7, 1, 15, 0, 0, 0, time.UTC)
	to := time.Date(2024, 7, 3, 10, 0, 0, 0, time.UTC)
	if _, err := f.svc.ApplyReservation(context.Background(), hotelID, roomID, from, to, true); err != nil {
		t.Fatalf("reservation failed: %v", err)
	}

	if gotOpt.OverrideAssigned || gotOpt.CreateMaintenance {
		t.Fatalf("commit must use the default guard: %+v", gotOpt)
	}
	// двухночная бронь 07-01→07-03: ночи 07-01 и 07-02, время выезда роли не играет
	if len(gotRows) != 2 {
		t.Fatalf("two-night stay must write 2 rows, got %d", len(gotRows))
	}
	for _, row := range gotRows {
		if row.Status != models.DayAssigned {
			t.Fatalf("row status: %s", row.Status)
		}
	}
	if f.cascade.calls != 1 {
		t.Fatalf("cascade calls: %d", f.cascade.calls)
	}
}

func TestApplyReservation_OneNightStayWritesOneRow(t *testing.T) {
	f := newFixture()
	hotelID, roomID := uuid.New(), uuid.New()

	f.rooms.GetByIDFunc = func(ctx context.Context, h, r uuid.UUID) (*models.RoomUnit, error) {
		return &models.RoomUnit{ID: roomID, HotelID: hotelID, ExternalCode: "R-101"}, nil
	}

	var gotRows []models.AvailabilityDay
	f.avail.BulkUpsertFunc = func(ctx context.Context, rows []models.AvailabilityDay, opt repository.UpsertOptions) (int64, error) {
		gotRows = rows
		return int64(len(rows)), nil
	}

	from := time.Date(2024, 7, 1, 15, 0, 0, 0, time.UTC)
	to := time.Date(2024, 7, 2, 10, 0, 0, 0, time.UTC)
	applied, err := f.svc.ApplyReservation(context.Background(), hotelID, roomID, from, to, true)
	if err != nil {
		t.Fatalf("reservation failed: %v", err)
	}
	if applied != 1 || len(gotRows) != 1 {
		t.Fatalf("one-night stay must write exactly 1 row, applied=%d rows=%d", applied, len(gotRows))
	}
	if !gotRows[0].Date.Equal(time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("night written: %s", gotRows[0].Date.Format("2006-01-02"))
	}
}

func TestApplyReservation_ReleaseOverridesAssigned(t *testing.T) {
	f := newFixture()
	hotelID, roomID := uuid.New(), uuid.New()

	f.rooms.GetByIDFunc = func(ctx context.Context, h, r uuid.UUID) (*models.RoomUnit, error) {
		return &models.RoomUnit{ID: roomID, HotelID: hotelID, ExternalCode: "R-101"}, nil
	}

	var gotOpt repository.UpsertOptions
	var gotStatus models.DayStatus
	f.avail.BulkUpsertFunc = func(ctx context.Context, rows []models.AvailabilityDay, opt repository.UpsertOptions) (int64, error) {
		gotOpt = opt
		if len(rows) > 0 {
			gotStatus = rows[0].Status
		}
		return int64(len(rows)), nil
	}

	from := time.Date(2024, 7, 1, 15, 0, 0, 0, time.UTC)
	to := time.Date(2024, 7, 2, 15, 0, 0, 0, time.UTC)
	if _, err := f.svc.ApplyReservation(context.Background(), hotelID, roomID, from, to, false); err != nil {
		t.Fatalf("release failed: %v", err)
	}

	if !gotOpt.OverrideAssigned {
		t.Fatal("release must override ASSIGNED rows")
	}
	if gotStatus != models.DayAvailable {
		t.Fatalf("release status: %s", gotStatus)
	}
}

// --- ListDays ---

func TestListDays_WindowValidation(t *testing.T) {
	f := newFixture()
	d := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	_, err := f.svc.ListDays(context.Background(), uuid.New(), uuid.New(), d, d)
	if !service.IsValidation(err) {
		t.Fatalf("empty window must be rejected, got %v", err)
	}
}
