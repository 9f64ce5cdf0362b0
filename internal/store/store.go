// Package store persists items to SQLite with a short write debounce.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/ringdown/chimed/internal/item"
)

// saveDelay batches bursts of writes (a snooze updates time, status and
// bookkeeping fields back to back) into a single flush.
const saveDelay = time.Second

// Store provides SQLite-backed storage for alarms and reminders. Writes are
// debounced: Put and Delete stage changes in memory and a flush lands them
// about a second later. The in-memory coordinator state stays authoritative;
// a failed flush is logged and retried on the next write.
type Store struct {
	db  *sql.DB
	log *logrus.Logger

	mu      sync.Mutex
	dirty   map[string]item.Item
	deleted map[string]struct{}
	timer   *time.Timer
	closed  bool
}

// New opens (or creates) the SQLite database at dbPath and ensures the
// items table exists.
func New(dbPath string, log *logrus.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	if err := createTable(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{
		db:      db,
		log:     log,
		dirty:   make(map[string]item.Item),
		deleted: make(map[string]struct{}),
	}, nil
}

func createTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS items (
			id                    TEXT PRIMARY KEY,
			kind                  TEXT NOT NULL,
			display_name          TEXT NOT NULL DEFAULT '',
			scheduled_time        TEXT NOT NULL,
			repeat                TEXT NOT NULL DEFAULT 'once',
			repeat_days           TEXT NOT NULL DEFAULT '[]',
			message               TEXT NOT NULL DEFAULT '',
			target                TEXT NOT NULL DEFAULT '',
			sound_ref             TEXT NOT NULL DEFAULT '',
			enabled               INTEGER NOT NULL DEFAULT 1,
			status                TEXT NOT NULL DEFAULT 'scheduled',
			notify_target         TEXT NOT NULL DEFAULT '',
			last_stopped_at       TEXT,
			last_rescheduled_from TEXT,
			updated_at            TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	return nil
}

// Close flushes pending writes and closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
	}
	s.mu.Unlock()

	s.Flush()
	return s.db.Close()
}

// Load reads every persisted item. Rows that fail to decode are skipped with
// a warning so one corrupt row cannot take the whole schedule down.
func (s *Store) Load() ([]item.Item, error) {
	rows, err := s.db.Query(`
		SELECT id, kind, display_name, scheduled_time, repeat, repeat_days,
		       message, target, sound_ref, enabled, status, notify_target,
		       last_stopped_at, last_rescheduled_from
		FROM items ORDER BY scheduled_time ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load items: %w", err)
	}
	defer rows.Close()

	var items []item.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			s.log.WithError(err).Warn("skipping unreadable item row")
			continue
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// Put stages an item for persistence. The write lands after the debounce
// window unless Flush is called first.
func (s *Store) Put(it item.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.dirty[it.ID] = it
	delete(s.deleted, it.ID)
	s.schedule()
}

// Delete stages a removal.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	delete(s.dirty, id)
	s.deleted[id] = struct{}{}
	s.schedule()
}

// schedule arms the debounce timer. Caller holds s.mu.
func (s *Store) schedule() {
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(saveDelay, s.Flush)
}

// Flush writes all staged changes immediately.
func (s *Store) Flush() {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	dirty := s.dirty
	deleted := s.deleted
	s.dirty = make(map[string]item.Item)
	s.deleted = make(map[string]struct{})
	s.mu.Unlock()

	if len(dirty) == 0 && len(deleted) == 0 {
		return
	}

	for id := range deleted {
		if _, err := s.db.Exec(`DELETE FROM items WHERE id = ?`, id); err != nil {
			s.log.WithError(err).WithField("id", id).Warn("failed to delete item row")
		}
	}
	for _, it := range dirty {
		if err := s.upsert(it); err != nil {
			s.log.WithError(err).WithField("id", it.ID).Warn("failed to persist item")
		}
	}
}

func (s *Store) upsert(it item.Item) error {
	days, err := json.Marshal(it.RepeatDays.Names())
	if err != nil {
		return fmt.Errorf("failed to encode repeat days: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO items (id, kind, display_name, scheduled_time, repeat,
			repeat_days, message, target, sound_ref, enabled, status,
			notify_target, last_stopped_at, last_rescheduled_from, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			kind = excluded.kind,
			display_name = excluded.display_name,
			scheduled_time = excluded.scheduled_time,
			repeat = excluded.repeat,
			repeat_days = excluded.repeat_days,
			message = excluded.message,
			target = excluded.target,
			sound_ref = excluded.sound_ref,
			enabled = excluded.enabled,
			status = excluded.status,
			notify_target = excluded.notify_target,
			last_stopped_at = excluded.last_stopped_at,
			last_rescheduled_from = excluded.last_rescheduled_from,
			updated_at = excluded.updated_at
	`, it.ID, it.Kind, it.DisplayName,
		it.ScheduledTime.Format(time.RFC3339), it.Repeat, string(days),
		it.Message, it.Target, it.SoundRef, boolToInt(it.Enabled), it.Status,
		it.NotifyTarget, optTime(it.LastStoppedAt), optTime(it.LastRescheduledFrom),
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to upsert item: %w", err)
	}
	return nil
}

func scanItem(rows *sql.Rows) (item.Item, error) {
	var it item.Item
	var scheduled, days string
	var enabled int
	var stoppedAt, rescheduledFrom sql.NullString

	if err := rows.Scan(&it.ID, &it.Kind, &it.DisplayName, &scheduled,
		&it.Repeat, &days, &it.Message, &it.Target, &it.SoundRef,
		&enabled, &it.Status, &it.NotifyTarget,
		&stoppedAt, &rescheduledFrom); err != nil {
		return item.Item{}, fmt.Errorf("failed to scan item: %w", err)
	}

	t, err := parseStoredTime(scheduled)
	if err != nil {
		return item.Item{}, fmt.Errorf("item %s: bad scheduled_time %q: %w", it.ID, scheduled, err)
	}
	it.ScheduledTime = t

	var names []string
	if err := json.Unmarshal([]byte(days), &names); err != nil {
		return item.Item{}, fmt.Errorf("item %s: bad repeat_days %q: %w", it.ID, days, err)
	}
	if it.RepeatDays, err = item.ParseDays(names); err != nil {
		return item.Item{}, fmt.Errorf("item %s: %w", it.ID, err)
	}

	it.Enabled = enabled != 0
	it.LastStoppedAt = optTimePtr(stoppedAt)
	it.LastRescheduledFrom = optTimePtr(rescheduledFrom)
	return it, nil
}

// parseStoredTime accepts RFC 3339 and, for rows written by older builds,
// a naive local timestamp.
func parseStoredTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.ParseInLocation("2006-01-02 15:04:05", s, time.Local)
}

func optTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339)
}

func optTimePtr(s sql.NullString) *time.Time {
	if !s.Valid {
		return nil
	}
	t, err := parseStoredTime(s.String)
	if err != nil {
		return nil
	}
	return &t
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
