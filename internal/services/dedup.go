package services

import (
	"strings"
	"time"

	"github.com/campuswatch/campuswatch/internal/database"
)

// The duplicate engine decides whether a new report corroborates existing
// incidents. It is pure: callers load the candidate set, run CorrelateReport,
// and persist the returned increments themselves.

// Report is the minimal view of a new submission the engine needs.
type Report struct {
	Location    string
	Description string
	ReportedAt  time.Time
}

// Correlation is the outcome of matching a report against existing incidents.
type Correlation struct {
	// MatchedIDs are the ids of corroborated incidents, in the processing
	// order (ascending report time). Each one gets +1 priority and
	// +1 duplicate count.
	MatchedIDs []uint

	// Priority and DuplicateCount are the final counters for the new
	// incident. When several incidents match, the last match processed
	// wins: the new report inherits that incident's post-increment values.
	Priority       int
	DuplicateCount int
}

// IsDuplicate reports whether the report corroborated at least one incident.
func (c Correlation) IsDuplicate() bool {
	return len(c.MatchedIDs) > 0
}

// Similarity returns the bag-of-words overlap ratio of two descriptions:
// the number of distinct words present in both, divided by the word count of
// the longer description. Lowercased, whitespace-split, order-insensitive.
// The result is symmetric and bounded to [0,1].
func Similarity(a, b string) float64 {
	wordsA := strings.Fields(strings.ToLower(a))
	wordsB := strings.Fields(strings.ToLower(b))
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0
	}

	inB := make(map[string]bool, len(wordsB))
	for _, w := range wordsB {
		inB[w] = true
	}

	common := 0
	counted := make(map[string]bool, len(wordsA))
	for _, w := range wordsA {
		if inB[w] && !counted[w] {
			common++
			counted[w] = true
		}
	}

	longer := len(wordsA)
	if len(wordsB) > longer {
		longer = len(wordsB)
	}
	return float64(common) / float64(longer)
}

// CorrelateReport matches a new report against existing incidents. An
// existing incident is corroborated when all three hold: same location
// (exact match), report times within the window, and description similarity
// strictly above the threshold.
//
// Existing incidents are processed in the order given; callers pass them in
// ascending report-time order so that "last match wins" means the most
// recent corroborated incident determines the new report's counters.
func CorrelateReport(report Report, existing []database.Incident, window time.Duration, threshold float64) Correlation {
	result := Correlation{
		Priority:       1,
		DuplicateCount: 1,
	}

	for _, inc := range existing {
		if inc.Location != report.Location {
			continue
		}

		gap := report.ReportedAt.Sub(inc.ReportedAt)
		if gap < 0 {
			gap = -gap
		}
		if gap > window {
			continue
		}

		if Similarity(inc.Description, report.Description) <= threshold {
			continue
		}

		result.MatchedIDs = append(result.MatchedIDs, inc.ID)
		result.Priority = inc.Priority + 1
		result.DuplicateCount = inc.DuplicateCount + 1
	}

	return result
}
