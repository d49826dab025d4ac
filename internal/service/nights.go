package service

import (
	"time"

	"availability-service/internal/models"

	"go.uber.org/zap"
)

// Ночь храним как календарную дату: полночь UTC без компонента времени.
// Проживание с ночи X по ночь Y занимает даты [X, Y) — ночь выезда исключена.

var datetimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// splitDateTime разбирает строку PMS на дату и минуты от полуночи.
// Битое время не ошибка: берём полночь, наверху это залогируют.
func splitDateTime(s string) (date time.Time, clockMins int, ok bool) {
	for _, layout := range datetimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC),
				t.Hour()*60 + t.Minute(), true
		}
	}
	if len(s) >= 10 {
		if t, err := time.Parse("2006-01-02", s[:10]); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), 0, false
		}
	}
	return time.Time{}, 0, false
}

// reservationNights — ночи, занятые бронью: [date(from), date(to)).
// Ночь выезда исключена всегда; время выезда здесь роли не играет,
// правила отсечек CI/CO относятся только к событиям обслуживания.
func reservationNights(from, to time.Time) []time.Time {
	start := dateOnly(from)
	end := dateOnly(to)
	if !start.Before(end) {
		return nil
	}
	nights := make([]time.Time, 0, int(end.Sub(start).Hours()/24))
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		nights = append(nights, d)
	}
	return nights
}

// parseClock разбирает "HH:MM"; мусор трактуется как 00:00
func parseClock(s string) int {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0
	}
	return t.Hour()*60 + t.Minute()
}

// NormalizeMaintenanceEvent переводит интервал события PMS в список ночей.
// Заезд до времени выезда относится к предыдущей ночи; выезд не позже
// времени заезда — тоже.
func NormalizeMaintenanceEvent(ev MaintenanceEvent, checkIn, checkOut string, log *zap.Logger) (PendingUpdate, bool) {
	if !ev.Type.IsMaintenance() && ev.Type != models.DayAvailable && ev.Type != models.DayAssigned {
		log.Warn("pms event with unknown status skipped",
			zap.String("room", ev.RoomUnitExternalCode),
			zap.String("type", string(ev.Type)))
		return PendingUpdate{}, false
	}

	fromDate, fromMins, fromOK := splitDateTime(ev.From)
	toDate, toMins, toOK := splitDateTime(ev.To)

	if fromDate.IsZero() || toDate.IsZero() {
		log.Warn("pms event without a parseable date skipped",
			zap.String("room", ev.RoomUnitExternalCode),
			zap.String("from", ev.From), zap.String("to", ev.To))
		return PendingUpdate{}, false
	}
	if !fromOK || !toOK {
		log.Warn("malformed time in pms event, midnight assumed",
			zap.String("room", ev.RoomUnitExternalCode),
			zap.String("from", ev.From), zap.String("to", ev.To))
	}

	ciMins := parseClock(checkIn)
	coMins := parseClock(checkOut)

	startNight := fromDate
	if fromMins < coMins {
		startNight = startNight.AddDate(0, 0, -1)
	}
	endNight := toDate
	if toMins <= ciMins {
		endNight = endNight.AddDate(0, 0, -1)
	}

	status := ev.Type

	// Вывернутый интервал: исходная система трактовала его как освобождение
	// одной ночи и следующей за ней. Поведение сохранено для совместимости,
	// хотя скорее всего это маскирует кривое событие выше по течению.
	if startNight.After(endNight) {
		return PendingUpdate{
			RoomExternalCode:        ev.RoomUnitExternalCode,
			Dates:                   []time.Time{startNight, startNight.AddDate(0, 0, 1)},
			Status:                  models.DayAvailable,
			MaintenanceExternalCode: ev.MaintenanceExternalCode,
		}, true
	}

	dates := make([]time.Time, 0, int(endNight.Sub(startNight).Hours()/24))
	for d := startNight; d.Before(endNight); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}

	return PendingUpdate{
		RoomExternalCode:        ev.RoomUnitExternalCode,
		Dates:                   dates,
		Status:                  status,
		MaintenanceExternalCode: ev.MaintenanceExternalCode,
	}, true
}
