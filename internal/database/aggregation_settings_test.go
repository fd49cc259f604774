package database

import (
	"testing"
	"time"
)

func TestNewDefaultAggregationSettings(t *testing.T) {
	s := NewDefaultAggregationSettings()

	if !s.DedupEnabled {
		t.Error("expected dedup enabled by default")
	}
	if s.TimeWindowMinutes != 30 {
		t.Errorf("expected 30 minute window, got %d", s.TimeWindowMinutes)
	}
	if s.SimilarityThreshold != 0.30 {
		t.Errorf("expected similarity threshold 0.30, got %f", s.SimilarityThreshold)
	}
	if s.SeverityPolicy != "relative" {
		t.Errorf("expected relative severity policy, got '%s'", s.SeverityPolicy)
	}
	if s.CriticalThreshold != 10 || s.HighThreshold != 6 || s.MediumThreshold != 3 {
		t.Errorf("unexpected absolute thresholds: %d/%d/%d", s.CriticalThreshold, s.HighThreshold, s.MediumThreshold)
	}
}

func TestAggregationSettings_TimeWindow(t *testing.T) {
	s := AggregationSettings{TimeWindowMinutes: 45}
	if s.TimeWindow() != 45*time.Minute {
		t.Errorf("expected 45m window, got %v", s.TimeWindow())
	}
}

func TestGetOrCreateAggregationSettings(t *testing.T) {
	db := setupTestDB(t)

	settings, err := GetOrCreateAggregationSettings(db)
	if err != nil {
		t.Fatalf("failed to get settings: %v", err)
	}
	if settings.ID == 0 {
		t.Error("expected settings row to be persisted")
	}
	if settings.TimeWindowMinutes != 30 {
		t.Errorf("expected default window, got %d", settings.TimeWindowMinutes)
	}

	// Second call returns the same singleton.
	again, err := GetOrCreateAggregationSettings(db)
	if err != nil {
		t.Fatalf("failed to get settings again: %v", err)
	}
	if again.ID != settings.ID {
		t.Errorf("expected singleton row, got IDs %d and %d", settings.ID, again.ID)
	}
}

func TestUpdateAggregationSettings(t *testing.T) {
	db := setupTestDB(t)

	settings, err := GetOrCreateAggregationSettings(db)
	if err != nil {
		t.Fatalf("failed to get settings: %v", err)
	}

	settings.TimeWindowMinutes = 15
	settings.SeverityPolicy = "absolute"
	if err := UpdateAggregationSettings(db, settings); err != nil {
		t.Fatalf("failed to update settings: %v", err)
	}

	reloaded, err := GetOrCreateAggregationSettings(db)
	if err != nil {
		t.Fatalf("failed to reload settings: %v", err)
	}
	if reloaded.TimeWindowMinutes != 15 {
		t.Errorf("expected window 15, got %d", reloaded.TimeWindowMinutes)
	}
	if reloaded.SeverityPolicy != "absolute" {
		t.Errorf("expected absolute policy, got '%s'", reloaded.SeverityPolicy)
	}
}
