package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/campuswatch/campuswatch/internal/campus"
	"github.com/campuswatch/campuswatch/internal/database"
	"github.com/campuswatch/campuswatch/internal/utils"
	"gorm.io/gorm"
)

// Actor identifies the authenticated user performing an operation.
type Actor struct {
	ID   uint
	Name string
	Role campus.Role
}

// EventSink receives change notifications after successful mutations.
// The websocket hub implements this; a nil sink disables fan-out.
type EventSink interface {
	IncidentCreated(incident database.Incident)
	IncidentUpdated(incident database.Incident)
}

// EscalationNotifier is told when a corroborated incident crosses the
// priority threshold. Implementations must not block.
type EscalationNotifier interface {
	NotifyEscalation(incident database.Incident)
}

// IncidentService owns the incident lifecycle: submission (with duplicate
// correlation), listing, and authority-gated status transitions.
type IncidentService struct {
	db       *gorm.DB
	profile  *campus.Profile
	sink     EventSink
	notifier EscalationNotifier
}

// NewIncidentService creates a new incident service. sink and notifier may
// be nil.
func NewIncidentService(db *gorm.DB, profile *campus.Profile, sink EventSink, notifier EscalationNotifier) *IncidentService {
	return &IncidentService{
		db:       db,
		profile:  profile,
		sink:     sink,
		notifier: notifier,
	}
}

// CreateIncidentInput holds the fields of a new report.
type CreateIncidentInput struct {
	Location    string
	Type        string
	Description string
	VideoURL    string
	ReportedBy  string
	ReportedAt  time.Time // zero means now
}

// CreateIncident validates and persists a new report, running duplicate
// correlation against recent incidents at the same location inside one
// transaction. Matched incidents get their counters incremented; the new
// incident inherits the counters of the last match.
func (s *IncidentService) CreateIncident(ctx context.Context, input CreateIncidentInput) (*database.Incident, error) {
	if !s.profile.ValidLocation(input.Location) {
		return nil, fmt.Errorf("%w: unknown location %q", ErrValidation, input.Location)
	}
	if !s.profile.ValidIncidentType(input.Type) {
		return nil, fmt.Errorf("%w: unknown incident type %q", ErrValidation, input.Type)
	}
	if strings.TrimSpace(input.Description) == "" {
		return nil, fmt.Errorf("%w: description is required", ErrValidation)
	}

	reportedAt := input.ReportedAt
	if reportedAt.IsZero() {
		reportedAt = time.Now()
	}
	reportedBy := input.ReportedBy
	if reportedBy == "" {
		reportedBy = "Anonymous"
	}

	incident := database.Incident{
		Location:    input.Location,
		Type:        input.Type,
		Description: strings.TrimSpace(input.Description),
		VideoURL:    input.VideoURL,
		ReportedBy:  reportedBy,
		Status:      campus.StatusReported,
		ReportedAt:  reportedAt,
	}

	var correlation Correlation
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		settings, err := database.GetOrCreateAggregationSettings(tx)
		if err != nil {
			return fmt.Errorf("failed to load aggregation settings: %w", err)
		}

		correlation = Correlation{Priority: 1, DuplicateCount: 1}
		if settings.DedupEnabled {
			window := settings.TimeWindow()
			var candidates []database.Incident
			err := tx.Where("location = ? AND reported_at BETWEEN ? AND ?",
				incident.Location,
				reportedAt.Add(-window),
				reportedAt.Add(window),
			).Order("reported_at ASC").Find(&candidates).Error
			if err != nil {
				return fmt.Errorf("failed to load correlation candidates: %w", err)
			}

			correlation = CorrelateReport(Report{
				Location:    incident.Location,
				Description: incident.Description,
				ReportedAt:  incident.ReportedAt,
			}, candidates, window, settings.SimilarityThreshold)

			if correlation.IsDuplicate() {
				err := tx.Model(&database.Incident{}).
					Where("id IN ?", correlation.MatchedIDs).
					Updates(map[string]interface{}{
						"priority":        gorm.Expr("priority + 1"),
						"duplicate_count": gorm.Expr("duplicate_count + 1"),
					}).Error
				if err != nil {
					return fmt.Errorf("failed to increment corroborated incidents: %w", err)
				}
			}
		}

		incident.Priority = correlation.Priority
		incident.DuplicateCount = correlation.DuplicateCount
		if err := tx.Create(&incident).Error; err != nil {
			return fmt.Errorf("failed to create incident: %w", err)
		}
		return nil
	})
	if err != nil {
		if classified := classifyStoreError(err); classified != err {
			return nil, fmt.Errorf("create incident: %w", classified)
		}
		return nil, err
	}

	log.Printf("IncidentService: report %s at %s (%s): %s",
		incident.UUID, incident.Location, incident.Type, utils.EscapeForLogging(incident.Description, 120))
	if correlation.IsDuplicate() {
		log.Printf("IncidentService: report %s corroborates %d incident(s) at %s, priority now %d",
			incident.UUID, len(correlation.MatchedIDs), incident.Location, incident.Priority)
	}

	s.publishCreate(ctx, incident, correlation)
	return &incident, nil
}

// publishCreate fans the new incident (and any incremented matches) out to
// observers and triggers escalation when the priority threshold is crossed.
// Fan-out failures must never fail the submission.
func (s *IncidentService) publishCreate(ctx context.Context, incident database.Incident, correlation Correlation) {
	if s.sink != nil {
		s.sink.IncidentCreated(incident)
		if correlation.IsDuplicate() {
			var updated []database.Incident
			if err := s.db.WithContext(ctx).Where("id IN ?", correlation.MatchedIDs).Find(&updated).Error; err != nil {
				log.Printf("IncidentService: failed to reload corroborated incidents for fan-out: %v", err)
			} else {
				for _, inc := range updated {
					s.sink.IncidentUpdated(inc)
				}
			}
		}
	}

	if s.notifier != nil {
		settings, err := database.GetOrCreateAggregationSettings(s.db)
		if err != nil {
			log.Printf("IncidentService: failed to load settings for escalation check: %v", err)
			return
		}
		if incident.Priority >= settings.NotifyPriorityThreshold {
			s.notifier.NotifyEscalation(incident)
		}
	}
}

// ListFilter narrows a ListIncidents query.
type ListFilter struct {
	Location        string
	Status          campus.Status
	ExcludeResolved bool
	Offset          int
	Limit           int
}

// ListIncidents returns incidents newest first, with the total count for
// pagination.
func (s *IncidentService) ListIncidents(ctx context.Context, filter ListFilter) ([]database.Incident, int64, error) {
	query := s.db.WithContext(ctx).Model(&database.Incident{})
	if filter.Location != "" {
		query = query.Where("location = ?", filter.Location)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.ExcludeResolved {
		query = query.Where("status <> ?", campus.StatusResolved)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count incidents: %w", classifyStoreError(err))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 500
	}

	var incidents []database.Incident
	err := query.Order("reported_at DESC").Offset(filter.Offset).Limit(limit).Find(&incidents).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list incidents: %w", classifyStoreError(err))
	}
	return incidents, total, nil
}

// GetByUUID returns a single incident by its public id.
func (s *IncidentService) GetByUUID(ctx context.Context, uuid string) (*database.Incident, error) {
	var incident database.Incident
	err := s.db.WithContext(ctx).Where("uuid = ?", uuid).First(&incident).Error
	if err != nil {
		return nil, fmt.Errorf("incident %s: %w", uuid, classifyStoreError(err))
	}
	return &incident, nil
}

// UpdateStatus performs an authority-gated status transition. A denied
// attempt leaves the incident untouched and reports a permission error.
func (s *IncidentService) UpdateStatus(ctx context.Context, uuid string, newStatus campus.Status, actor Actor) (*database.Incident, error) {
	if !s.profile.CanChangeStatus(actor.Role) {
		log.Printf("IncidentService: denied status change on %s by %s (role %s)", uuid, actor.Name, actor.Role)
		return nil, fmt.Errorf("role %s may not change incident status: %w", actor.Role, ErrPermission)
	}
	if !campus.ValidStatus(newStatus) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, newStatus)
	}

	var incident database.Incident
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("uuid = ?", uuid).First(&incident).Error; err != nil {
			return fmt.Errorf("incident %s: %w", uuid, classifyStoreError(err))
		}
		if !campus.CanTransition(incident.Status, newStatus) {
			return fmt.Errorf("%w: cannot transition from %s to %s", ErrValidation, incident.Status, newStatus)
		}
		if err := tx.Model(&incident).Update("status", newStatus).Error; err != nil {
			return fmt.Errorf("failed to update status: %w", classifyStoreError(err))
		}
		incident.Status = newStatus
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("IncidentService: %s moved incident %s to %s", actor.Name, uuid, newStatus)
	if s.sink != nil {
		s.sink.IncidentUpdated(incident)
	}
	return &incident, nil
}

// LocationStats rolls the incident set up per campus location under the
// configured severity policy. Resolved incidents are included unless
// excludeResolved is set.
func (s *IncidentService) LocationStats(ctx context.Context, excludeResolved bool) ([]LocationStat, error) {
	settings, err := database.GetOrCreateAggregationSettings(s.db.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to load aggregation settings: %w", classifyStoreError(err))
	}

	query := s.db.WithContext(ctx).Model(&database.Incident{})
	if excludeResolved {
		query = query.Where("status <> ?", campus.StatusResolved)
	}
	var incidents []database.Incident
	if err := query.Find(&incidents).Error; err != nil {
		return nil, fmt.Errorf("failed to load incidents for stats: %w", classifyStoreError(err))
	}

	return ComputeLocationStats(incidents, s.profile.Locations, settings), nil
}
