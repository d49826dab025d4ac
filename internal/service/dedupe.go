package service

import "time"

type dayKey struct {
	room string
	date string
}

func keyFor(room string, d time.Time) dayKey {
	return dayKey{room: room, date: d.Format("2006-01-02")}
}

// dedupeUpdates схлопывает батч до одной записи на (комната, дата):
// побеждает последнее вхождение в исходном порядке (last-write-wins).
// Идём с конца с set'ом увиденных ключей, затем разворачиваем обратно —
// относительный порядок выживших записей не меняется, списки дат не
// пересортировываются.
func dedupeUpdates(items []PendingUpdate) []PendingUpdate {
	seen := make(map[dayKey]struct{})
	kept := make([]PendingUpdate, 0, len(items))

	for i := len(items) - 1; i >= 0; i-- {
		it := items[i]
		dates := make([]time.Time, 0, len(it.Dates))
		for _, d := range it.Dates {
			k := keyFor(it.RoomExternalCode, d)
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			dates = append(dates, d)
		}
		if len(dates) == 0 {
			continue
		}
		it.Dates = dates
		kept = append(kept, it)
	}

	// восстановить исходный порядок
	for i, j := 0, len(kept)-1; i < j; i, j = i+1, j-1 {
		kept[i], kept[j] = kept[j], kept[i]
	}
	return kept
}
