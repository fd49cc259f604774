package jobs

import (
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/campuswatch/campuswatch/internal/campus"
	"github.com/campuswatch/campuswatch/internal/database"
	"github.com/campuswatch/campuswatch/internal/utils"
)

// StaleNotifier receives the set of incidents that have sat unattended past
// the stale threshold.
type StaleNotifier interface {
	NotifyStale(incidents []database.Incident, now time.Time)
}

// StaleMonitor periodically finds incidents stuck in reported state and
// pushes a digest to the notifier so they are not forgotten.
type StaleMonitor struct {
	db       *gorm.DB
	notifier StaleNotifier

	// lastAlerted tracks which incidents were already included in a digest
	// so each stale incident is flagged once, not every tick.
	lastAlerted map[uint]bool
}

// NewStaleMonitor creates a new stale report monitor.
func NewStaleMonitor(db *gorm.DB, notifier StaleNotifier) *StaleMonitor {
	return &StaleMonitor{
		db:          db,
		notifier:    notifier,
		lastAlerted: make(map[uint]bool),
	}
}

// Check finds newly stale incidents and notifies once per incident. Returns
// the number of incidents included in this digest.
func (m *StaleMonitor) Check(now time.Time) (int, error) {
	settings, err := database.GetOrCreateAggregationSettings(m.db)
	if err != nil {
		return 0, err
	}

	cutoff := now.Add(-time.Duration(settings.StaleReportMinutes) * time.Minute)

	var incidents []database.Incident
	err = m.db.Where("status = ? AND reported_at < ?",
		campus.StatusReported, cutoff).Order("reported_at ASC").Find(&incidents).Error
	if err != nil {
		return 0, err
	}

	fresh := make([]database.Incident, 0, len(incidents))
	seen := make(map[uint]bool, len(incidents))
	for _, inc := range incidents {
		seen[inc.ID] = true
		if !m.lastAlerted[inc.ID] {
			fresh = append(fresh, inc)
			m.lastAlerted[inc.ID] = true
		}
	}

	// Forget incidents that left reported state so the map stays bounded.
	for id := range m.lastAlerted {
		if !seen[id] {
			delete(m.lastAlerted, id)
		}
	}

	if len(fresh) > 0 {
		log.Printf("StaleMonitor: %d report(s) unattended for over %s",
			len(fresh), utils.FormatDuration(time.Duration(settings.StaleReportMinutes)*time.Minute))
		if m.notifier != nil {
			m.notifier.NotifyStale(fresh, now)
		}
	}
	return len(fresh), nil
}

// Start begins periodic monitoring until stop is closed.
func (m *StaleMonitor) Start(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := m.Check(time.Now()); err != nil {
				log.Printf("Stale monitor error: %v", err)
			}
		case <-stop:
			log.Println("Stale monitor stopped")
			return
		}
	}
}
