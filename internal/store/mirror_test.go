package store

import (
	"strings"
	"testing"
	"time"

	"github.com/campuswatch/campuswatch/internal/database"
)

func inc(id uint, uuid string, at time.Time) database.Incident {
	return database.Incident{
		ID:         id,
		UUID:       uuid,
		Location:   "Gate A",
		Type:       "fire",
		ReportedAt: at,
	}
}

func TestMirror_Replace(t *testing.T) {
	m := NewMirror()
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	m.Upsert(inc(1, "old-1", base))

	m.Replace([]database.Incident{
		inc(2, "new-1", base),
		inc(3, "new-2", base.Add(time.Minute)),
	})

	if m.Len() != 2 {
		t.Fatalf("expected 2 incidents after replace, got %d", m.Len())
	}
	if _, ok := m.Get("old-1"); ok {
		t.Error("expected old entry gone after replace")
	}
}

func TestMirror_UpsertIdempotent(t *testing.T) {
	m := NewMirror()
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	// At-least-once delivery: the same create event applied twice must not
	// produce two entries.
	m.Upsert(inc(1, "abc", base))
	m.Upsert(inc(1, "abc", base))

	if m.Len() != 1 {
		t.Errorf("expected 1 incident after duplicate upsert, got %d", m.Len())
	}

	// An update event overwrites in place.
	updated := inc(1, "abc", base)
	updated.Priority = 3
	m.Upsert(updated)

	got, ok := m.Get("abc")
	if !ok || got.Priority != 3 {
		t.Errorf("expected updated priority 3, got %+v", got)
	}
}

func TestMirror_TempReconcile(t *testing.T) {
	m := NewMirror()
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	tempID := m.UpsertTemp(database.Incident{Location: "Canteen", Type: "fight", ReportedAt: base})
	if !strings.HasPrefix(tempID, "temp-") {
		t.Errorf("expected temp prefix, got %q", tempID)
	}
	if m.Len() != 1 {
		t.Fatalf("expected 1 provisional entry, got %d", m.Len())
	}

	authoritative := inc(9, "real-uuid", base)
	m.Reconcile(tempID, authoritative)

	if m.Len() != 1 {
		t.Fatalf("provisional and authoritative rows coexist: %d entries", m.Len())
	}
	if _, ok := m.Get(tempID); ok {
		t.Error("expected provisional entry removed")
	}
	if got, ok := m.Get("real-uuid"); !ok || got.ID != 9 {
		t.Errorf("expected authoritative entry, got %+v ok=%v", got, ok)
	}
}

func TestMirror_ReconcileUnknownTemp(t *testing.T) {
	m := NewMirror()
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	// The change stream may deliver the authoritative create before the
	// submission response reconciles; storing it must still work.
	m.Reconcile("temp-never-existed", inc(4, "real", base))
	if _, ok := m.Get("real"); !ok {
		t.Error("expected authoritative entry stored despite unknown temp id")
	}
}

func TestMirror_Snapshot(t *testing.T) {
	m := NewMirror()
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	m.Upsert(inc(1, "a", base))
	m.Upsert(inc(2, "b", base.Add(2*time.Minute)))
	m.Upsert(inc(3, "c", base.Add(time.Minute)))

	snap := m.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("expected 3 incidents, got %d", len(snap))
	}
	want := []string{"b", "c", "a"}
	for i, w := range want {
		if snap[i].UUID != w {
			t.Errorf("snapshot[%d] = %s, want %s", i, snap[i].UUID, w)
		}
	}

	// Mutating the snapshot must not affect the mirror.
	snap[0].Priority = 99
	if got, _ := m.Get("b"); got.Priority == 99 {
		t.Error("snapshot aliases mirror storage")
	}
}

func TestMirror_Remove(t *testing.T) {
	m := NewMirror()
	m.Upsert(inc(1, "a", time.Now()))
	m.Remove("a")
	if m.Len() != 0 {
		t.Errorf("expected empty mirror after remove, got %d", m.Len())
	}
}
