package database

import "time"

// AggregationSettings controls duplicate detection and severity rollup
// behavior. Stored as a singleton row so operators can tune the heuristics
// without a restart.
type AggregationSettings struct {
	ID uint `gorm:"primaryKey" json:"id"`

	// Duplicate detection
	DedupEnabled        bool    `gorm:"default:true" json:"dedup_enabled"`
	TimeWindowMinutes   int     `gorm:"default:30" json:"time_window_minutes"`
	SimilarityThreshold float64 `gorm:"type:decimal(3,2);default:0.30" json:"similarity_threshold"`

	// Severity rollup. Policy is "relative" (tiers scaled to the busiest
	// location) or "absolute" (fixed thresholds below).
	SeverityPolicy    string `gorm:"type:varchar(20);default:'relative'" json:"severity_policy"`
	CriticalThreshold int    `gorm:"default:10" json:"critical_threshold"`
	HighThreshold     int    `gorm:"default:6" json:"high_threshold"`
	MediumThreshold   int    `gorm:"default:3" json:"medium_threshold"`

	// Escalation
	NotifyPriorityThreshold int `gorm:"default:3" json:"notify_priority_threshold"`
	StaleReportMinutes      int `gorm:"default:60" json:"stale_report_minutes"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (AggregationSettings) TableName() string {
	return "aggregation_settings"
}

// NewDefaultAggregationSettings returns settings with default values.
func NewDefaultAggregationSettings() *AggregationSettings {
	return &AggregationSettings{
		DedupEnabled:            true,
		TimeWindowMinutes:       30,
		SimilarityThreshold:     0.30,
		SeverityPolicy:          "relative",
		CriticalThreshold:       10,
		HighThreshold:           6,
		MediumThreshold:         3,
		NotifyPriorityThreshold: 3,
		StaleReportMinutes:      60,
	}
}

// TimeWindow returns the duplicate time window as a duration.
func (s *AggregationSettings) TimeWindow() time.Duration {
	return time.Duration(s.TimeWindowMinutes) * time.Minute
}
