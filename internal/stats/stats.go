package stats

import (
	"strings"
	"time"

	"github.com/BearBump/TrackDesk/internal/models"
)

// Подстроки, по которым трекинг считается "в пути". Сравнение регистрозависимое.
var inTransitMarkers = []string{"Transit", "Processing", "Received"}

// Compute scans records and returns fresh aggregate counters.
// Delivered is an exact match while in-transit is a substring match.
func Compute(records []*models.TrackingRecord, now time.Time) models.Stats {
	monthStart := MonthStart(now)

	st := models.Stats{TotalPackages: len(records)}
	for _, t := range records {
		if IsInTransit(t.CurrentStatus) {
			st.InTransit++
		}
		if t.CurrentStatus == models.TrackingStatusDelivered {
			st.Delivered++
		}
		if !t.CreatedAt.Before(monthStart) {
			st.ThisMonth++
		}
	}
	return st
}

func IsInTransit(status string) bool {
	for _, m := range inTransitMarkers {
		if strings.Contains(status, m) {
			return true
		}
	}
	return false
}

// MonthStart returns midnight of the first day of now's month, in now's location.
func MonthStart(now time.Time) time.Time {
	y, m, _ := now.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, now.Location())
}
