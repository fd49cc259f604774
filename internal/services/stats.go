package services

import (
	"sort"

	"github.com/campuswatch/campuswatch/internal/database"
)

// Severity is the discretized urgency tier for a location.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Severity policies. Relative scales tiers to the busiest location;
// absolute uses the fixed thresholds from the aggregation settings.
const (
	SeverityPolicyRelative = "relative"
	SeverityPolicyAbsolute = "absolute"
)

// LocationStat is the per-location rollup consumed by the heatmap grid and
// the ranked intensity list.
type LocationStat struct {
	Location string   `json:"location"`
	Count    int      `json:"count"`
	Severity Severity `json:"severity"`
}

// ComputeLocationStats rolls the incident set up by location. Every
// enumerated location appears exactly once, locations with no incidents
// included with count 0. Counts are raw report counts (not weighted by
// duplicate count). The result is ordered by count descending; ties keep
// the location enum order.
func ComputeLocationStats(incidents []database.Incident, locations []string, settings *database.AggregationSettings) []LocationStat {
	counts := make(map[string]int, len(locations))
	known := make(map[string]bool, len(locations))
	for _, loc := range locations {
		known[loc] = true
	}
	for _, inc := range incidents {
		if known[inc.Location] {
			counts[inc.Location]++
		}
	}

	max := 0
	for _, loc := range locations {
		if counts[loc] > max {
			max = counts[loc]
		}
	}

	stats := make([]LocationStat, 0, len(locations))
	for _, loc := range locations {
		count := counts[loc]
		stats = append(stats, LocationStat{
			Location: loc,
			Count:    count,
			Severity: severityFor(count, max, settings),
		})
	}

	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].Count > stats[j].Count
	})
	return stats
}

// severityFor discretizes a count into a tier under the configured policy.
func severityFor(count, max int, settings *database.AggregationSettings) Severity {
	if settings.SeverityPolicy == SeverityPolicyAbsolute {
		switch {
		case count >= settings.CriticalThreshold:
			return SeverityCritical
		case count >= settings.HighThreshold:
			return SeverityHigh
		case count >= settings.MediumThreshold:
			return SeverityMedium
		default:
			return SeverityLow
		}
	}

	// Relative policy: tiers scale with the busiest location.
	if count == 0 || max == 0 {
		return SeverityLow
	}
	switch {
	case count == max:
		return SeverityCritical
	case float64(count) >= 0.5*float64(max):
		return SeverityHigh
	case float64(count) >= 0.25*float64(max):
		return SeverityMedium
	default:
		return SeverityLow
	}
}
