package store

import (
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ringdown/chimed/internal/item"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	s, err := New(filepath.Join(t.TempDir(), "items.db"), log)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleItem(id string) item.Item {
	stopped := time.Date(2025, 3, 11, 7, 5, 0, 0, time.UTC)
	return item.Item{
		ID:            id,
		Kind:          item.KindAlarm,
		DisplayName:   "wake up",
		ScheduledTime: time.Date(2025, 3, 12, 7, 0, 0, 0, time.UTC),
		Repeat:        item.RepeatWeekly,
		RepeatDays:    item.DaySet{time.Monday, time.Friday},
		Message:       "time to get up",
		Target:        "bedroom",
		SoundRef:      "birds",
		Enabled:       true,
		Status:        item.StatusScheduled,
		NotifyTarget:  "phone",
		LastStoppedAt: &stopped,
	}
}

func TestPutLoadRoundTrip(t *testing.T) {
	s := newTestStore(t)

	want := sampleItem("alarm_1")
	s.Put(want)
	s.Flush()

	items, err := s.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("Load() returned %d items, want 1", len(items))
	}

	got := items[0]
	if got.ID != want.ID || got.Kind != want.Kind || got.DisplayName != want.DisplayName {
		t.Errorf("identity mismatch: got %+v", got)
	}
	if !got.ScheduledTime.Equal(want.ScheduledTime) {
		t.Errorf("ScheduledTime = %v, want %v", got.ScheduledTime, want.ScheduledTime)
	}
	if got.Repeat != want.Repeat || !got.RepeatDays.Contains(time.Monday) || !got.RepeatDays.Contains(time.Friday) {
		t.Errorf("repeat mismatch: %v %v", got.Repeat, got.RepeatDays.Names())
	}
	if got.Status != want.Status || !got.Enabled {
		t.Errorf("state mismatch: status=%v enabled=%v", got.Status, got.Enabled)
	}
	if got.LastStoppedAt == nil || !got.LastStoppedAt.Equal(*want.LastStoppedAt) {
		t.Errorf("LastStoppedAt = %v, want %v", got.LastStoppedAt, want.LastStoppedAt)
	}
}

func TestPutOverwritesExisting(t *testing.T) {
	s := newTestStore(t)

	it := sampleItem("alarm_1")
	s.Put(it)

	it.Status = item.StatusStopped
	it.ScheduledTime = it.ScheduledTime.AddDate(0, 0, 7)
	s.Put(it)
	s.Flush()

	items, err := s.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("Load() returned %d items, want 1", len(items))
	}
	if items[0].Status != item.StatusStopped {
		t.Errorf("Status = %v, want stopped", items[0].Status)
	}
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)

	s.Put(sampleItem("alarm_1"))
	s.Put(sampleItem("alarm_2"))
	s.Flush()

	s.Delete("alarm_1")
	s.Flush()

	items, err := s.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(items) != 1 || items[0].ID != "alarm_2" {
		t.Fatalf("Load() after delete = %+v, want only alarm_2", items)
	}
}

func TestDeleteWinsOverStagedPut(t *testing.T) {
	s := newTestStore(t)

	s.Put(sampleItem("alarm_1"))
	s.Delete("alarm_1")
	s.Flush()

	items, err := s.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("Load() = %+v, want empty", items)
	}
}

func TestDebouncedFlush(t *testing.T) {
	s := newTestStore(t)

	s.Put(sampleItem("alarm_1"))

	// Nothing on disk until the debounce window elapses.
	items, err := s.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("Load() before debounce = %d items, want 0", len(items))
	}

	deadline := time.Now().Add(3 * saveDelay)
	for time.Now().Before(deadline) {
		items, err = s.Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if len(items) == 1 {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatal("item never flushed to disk")
}

func TestCloseFlushesPendingWrites(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	path := filepath.Join(t.TempDir(), "items.db")

	s, err := New(path, log)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	s.Put(sampleItem("reminder_x"))
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	s2, err := New(path, log)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer s2.Close()

	items, err := s2.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(items) != 1 || items[0].ID != "reminder_x" {
		t.Fatalf("Load() after reopen = %+v, want reminder_x", items)
	}
}
