// Package store keeps an in-memory mirror of the incident set, keyed by
// public id. The websocket hub serves its snapshot to new subscribers so a
// client never has to race a full refresh against the change stream, and
// at-least-once delivery of change events collapses into idempotent upserts.
package store

import (
	"sort"
	"sync"

	"github.com/campuswatch/campuswatch/internal/database"
	"github.com/google/uuid"
)

// Mirror is a concurrency-safe incident cache keyed by incident UUID.
type Mirror struct {
	mu        sync.RWMutex
	incidents map[string]database.Incident
}

func NewMirror() *Mirror {
	return &Mirror{incidents: make(map[string]database.Incident)}
}

// Replace swaps the whole mirror for a freshly loaded incident set. Used on
// startup and whenever the change stream is interrupted and the client of
// record falls back to a full refresh.
func (m *Mirror) Replace(incidents []database.Incident) {
	next := make(map[string]database.Incident, len(incidents))
	for _, inc := range incidents {
		next[inc.UUID] = inc
	}

	m.mu.Lock()
	m.incidents = next
	m.mu.Unlock()
}

// Upsert inserts or overwrites one incident. Applying the same event twice
// is harmless, so redelivered change events need no tracking.
func (m *Mirror) Upsert(inc database.Incident) {
	m.mu.Lock()
	m.incidents[inc.UUID] = inc
	m.mu.Unlock()
}

// UpsertTemp inserts an optimistic placeholder for a submission that has
// not been acknowledged yet and returns its provisional id.
func (m *Mirror) UpsertTemp(inc database.Incident) string {
	tempID := "temp-" + uuid.NewString()
	inc.UUID = tempID

	m.mu.Lock()
	m.incidents[tempID] = inc
	m.mu.Unlock()
	return tempID
}

// Reconcile replaces a provisional entry with the authoritative record. The
// two can never coexist afterwards, so an optimistic row is never rendered
// twice. Reconciling an unknown temp id still stores the authoritative row.
func (m *Mirror) Reconcile(tempID string, authoritative database.Incident) {
	m.mu.Lock()
	delete(m.incidents, tempID)
	m.incidents[authoritative.UUID] = authoritative
	m.mu.Unlock()
}

// Remove drops an incident from the mirror.
func (m *Mirror) Remove(uuid string) {
	m.mu.Lock()
	delete(m.incidents, uuid)
	m.mu.Unlock()
}

// Get returns one incident by public id.
func (m *Mirror) Get(uuid string) (database.Incident, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	inc, ok := m.incidents[uuid]
	return inc, ok
}

// Len returns the number of cached incidents.
func (m *Mirror) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.incidents)
}

// Snapshot returns all cached incidents, newest report first. Ties fall
// back to id order so the output is deterministic.
func (m *Mirror) Snapshot() []database.Incident {
	m.mu.RLock()
	out := make([]database.Incident, 0, len(m.incidents))
	for _, inc := range m.incidents {
		out = append(out, inc)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].ReportedAt.Equal(out[j].ReportedAt) {
			return out[i].ReportedAt.After(out[j].ReportedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}
