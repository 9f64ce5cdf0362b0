// Package coordinator owns the schedule: it arms timers, fires rings,
// applies user actions and keeps the store in sync.
package coordinator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/ringdown/chimed/internal/announcer"
	"github.com/ringdown/chimed/internal/item"
)

// Storage is the persistence surface the coordinator writes through. The
// in-memory state is authoritative; storage failures degrade durability,
// never behavior.
type Storage interface {
	Load() ([]item.Item, error)
	Put(it item.Item)
	Delete(id string)
	Flush()
}

// Ringer runs one ring session until stopped or exhausted.
type Ringer interface {
	Ring(ctx context.Context, req announcer.Request, stop <-chan struct{}) announcer.Outcome
}

// SoundResolver maps an item's sound reference to a playable media path.
type SoundResolver interface {
	ResolveOrDefault(kind item.Kind, ref string) string
}

// Notifier receives item lifecycle events for out-of-band channels
// (currently the Telegram bridge). Calls happen after the state change is
// already persisted.
type Notifier interface {
	ItemTriggered(it item.Item)
	ItemStopped(it item.Item)
}

// handle is the live scheduling state of one item.
type handle struct {
	timer    *time.Timer
	stop     chan struct{}
	stopOnce sync.Once
	ringing  bool
}

func (h *handle) signalStop() {
	h.stopOnce.Do(func() { close(h.stop) })
}

// Coordinator is the single writer for all item state.
type Coordinator struct {
	store    Storage
	ringer   Ringer
	sounds   SoundResolver
	notifier Notifier
	log      *logrus.Logger

	// now is the clock, overridable in tests.
	now func() time.Time

	// maxAttempts bounds each ring session; zero leaves the announcer's
	// default in place.
	maxAttempts int

	mu       sync.Mutex
	items    map[string]item.Item
	handles  map[string]*handle
	alarmSeq int

	ctx  context.Context
	cron *cron.Cron
	wg   sync.WaitGroup
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithClock replaces the coordinator's clock.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// WithNotifier attaches a lifecycle notifier.
func WithNotifier(n Notifier) Option {
	return func(c *Coordinator) { c.notifier = n }
}

// WithMaxAttempts caps how many times a ring escalates before giving up.
func WithMaxAttempts(n int) Option {
	return func(c *Coordinator) { c.maxAttempts = n }
}

// SetNotifier attaches a lifecycle notifier after construction. The bridge
// needs the coordinator to exist first, so wiring happens in two steps.
func (c *Coordinator) SetNotifier(n Notifier) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notifier = n
}

// New creates a coordinator. Call Run to load persisted items and start
// scheduling.
func New(store Storage, ringer Ringer, sounds SoundResolver, log *logrus.Logger, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:   store,
		ringer:  ringer,
		sounds:  sounds,
		log:     log,
		now:     time.Now,
		items:   make(map[string]item.Item),
		handles: make(map[string]*handle),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run loads persisted items, resumes interrupted rings, arms future timers
// and starts the minutely catch-up sweep. It blocks until ctx is canceled,
// then waits for active rings to wind down.
func (c *Coordinator) Run(ctx context.Context) error {
	c.ctx = ctx

	items, err := c.store.Load()
	if err != nil {
		// A broken store means starting from an empty schedule, not
		// refusing to start.
		c.log.WithError(err).Error("failed to load items, starting empty")
		items = nil
	}

	c.mu.Lock()
	for _, it := range items {
		c.items[it.ID] = it
		c.bumpAlarmSeq(it.ID)
	}
	c.mu.Unlock()

	for _, it := range items {
		c.resume(it)
	}

	c.cron = cron.New()
	if _, err := c.cron.AddFunc("* * * * *", c.sweep); err != nil {
		return fmt.Errorf("failed to schedule catch-up sweep: %w", err)
	}
	c.cron.Start()

	c.log.WithField("items", len(items)).Info("coordinator running")

	<-ctx.Done()

	cronCtx := c.cron.Stop()
	<-cronCtx.Done()

	c.mu.Lock()
	for _, h := range c.handles {
		if h.timer != nil {
			h.timer.Stop()
		}
	}
	c.mu.Unlock()

	c.wg.Wait()
	c.store.Flush()
	return nil
}

// resume re-establishes one loaded item after a restart.
func (c *Coordinator) resume(it item.Item) {
	now := c.now()

	if !it.Enabled {
		return
	}

	switch {
	case it.Status == item.StatusActive:
		// The daemon died mid-ring; pick the ring back up.
		c.log.WithField("id", it.ID).Info("resuming interrupted ring")
		c.startRing(it.ID)

	case it.ScheduledTime.After(now):
		c.arm(it.ID, it.ScheduledTime)

	default:
		// Past due. One-shots fire immediately so the user still hears
		// about it; recurring items skip to their next occurrence.
		if it.Repeat == item.RepeatOnce || it.Repeat == item.RepeatCustom {
			c.log.WithField("id", it.ID).Info("firing past-due item after restart")
			c.startRing(it.ID)
			return
		}
		next, ok := item.NextTrigger(it, now)
		if !ok {
			return
		}
		c.mu.Lock()
		it.ScheduledTime = next
		it.Status = item.StatusScheduled
		c.items[it.ID] = it
		c.mu.Unlock()
		c.store.Put(it)
		c.arm(it.ID, next)
	}
}

// arm schedules a fire for id at t, replacing any previous timer.
func (c *Coordinator) arm(id string, t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.armLocked(id, t)
}

func (c *Coordinator) armLocked(id string, t time.Time) {
	if h, ok := c.handles[id]; ok && h.timer != nil {
		h.timer.Stop()
	}
	h := &handle{stop: make(chan struct{})}
	h.timer = time.AfterFunc(time.Until(t), func() { c.fire(id) })
	c.handles[id] = h
	itemsArmed.Inc()
}

// disarmLocked cancels id's timer and signals any active ring.
func (c *Coordinator) disarmLocked(id string) {
	h, ok := c.handles[id]
	if !ok {
		return
	}
	if h.timer != nil {
		h.timer.Stop()
	}
	h.signalStop()
	delete(c.handles, id)
}

// fire is the timer callback: it transitions the item to active and starts
// the ring session.
func (c *Coordinator) fire(id string) {
	c.startRing(id)
}

// startRing marks the item active, persists, notifies, and runs the ring
// loop in its own goroutine.
func (c *Coordinator) startRing(id string) {
	c.mu.Lock()
	it, ok := c.items[id]
	if !ok || !it.Enabled {
		c.mu.Unlock()
		return
	}
	// At most one live session per item. The timer fire and the minutely
	// sweep can coincide on minute-aligned schedules; the check-and-create
	// has to happen under the lock.
	if h, ok := c.handles[id]; ok && h.ringing {
		c.mu.Unlock()
		return
	}

	it.Status = item.StatusActive
	c.items[id] = it

	h := &handle{stop: make(chan struct{}), ringing: true}
	if old, ok := c.handles[id]; ok && old.timer != nil {
		old.timer.Stop()
	}
	c.handles[id] = h
	c.mu.Unlock()

	c.store.Put(it)
	ringsStarted.WithLabelValues(string(it.Kind)).Inc()
	activeRings.Inc()

	if c.notifier != nil {
		// The active state must be durable before it becomes visible
		// outside the process.
		c.store.Flush()
		go c.notifier.ItemTriggered(it)
	}

	ctx := c.ctx
	if ctx == nil {
		ctx = context.Background()
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer activeRings.Dec()

		outcome := c.ringer.Ring(ctx, announcer.Request{
			Target:      it.Target,
			Text:        announceText(it),
			MediaPath:   c.sounds.ResolveOrDefault(it.Kind, it.SoundRef),
			MaxAttempts: c.maxAttempts,
		}, h.stop)

		ringsEnded.WithLabelValues(string(outcome)).Inc()
		if outcome == announcer.OutcomeCanceled {
			// Shutdown: leave status active so the next start
			// resumes the ring.
			return
		}
		c.settle(id, outcome)
	}()
}

// settle records the post-ring state. Stops driven through Stop and Snooze
// rewrite the item themselves before the ring goroutine gets here, so settle
// only acts when the item is still marked active.
func (c *Coordinator) settle(id string, outcome announcer.Outcome) {
	c.mu.Lock()
	it, ok := c.items[id]
	if !ok || it.Status != item.StatusActive {
		c.mu.Unlock()
		return
	}

	now := c.now()
	stoppedAt := now
	it.LastStoppedAt = &stoppedAt

	switch it.Repeat {
	case item.RepeatOnce, item.RepeatCustom:
		it.Status = item.StatusCompleted
		it.Enabled = false
		c.items[id] = it
		c.disarmLocked(id)
	default:
		next, hasNext := item.NextTrigger(it, now)
		if !hasNext {
			it.Status = item.StatusError
			c.items[id] = it
			c.disarmLocked(id)
			break
		}
		it.ScheduledTime = next
		if outcome == announcer.OutcomeStopped {
			it.Status = item.StatusStopped
		} else {
			it.Status = item.StatusScheduled
		}
		c.items[id] = it
		c.armLocked(id, next)
	}
	c.mu.Unlock()

	c.store.Put(it)
	c.log.WithFields(logrus.Fields{
		"id":      id,
		"outcome": outcome,
		"status":  it.Status,
	}).Info("ring settled")
}

// sweep catches items whose timer never fired (clock jumps, suspend). Runs
// every minute.
func (c *Coordinator) sweep() {
	now := c.now()

	c.mu.Lock()
	var due []string
	for id, it := range c.items {
		if !it.Enabled || it.Status == item.StatusActive {
			continue
		}
		if !it.ScheduledTime.After(now) {
			if h, ok := c.handles[id]; ok && h.ringing {
				continue
			}
			due = append(due, id)
		}
	}
	c.mu.Unlock()

	for _, id := range due {
		c.log.WithField("id", id).Warn("sweep firing missed item")
		c.startRing(id)
	}
}

// bumpAlarmSeq keeps the auto-id counter ahead of loaded ids. Caller holds
// c.mu.
func (c *Coordinator) bumpAlarmSeq(id string) {
	var n int
	if _, err := fmt.Sscanf(id, "alarm_%d", &n); err == nil && n > c.alarmSeq {
		c.alarmSeq = n
	}
}

// announceText builds the spoken phrase for an item. Auto-named alarms
// announce as a plain "Alarm"; named ones lead with their name. Reminders
// always lead with theirs.
func announceText(it item.Item) string {
	clock := it.ScheduledTime.Format("3:04 PM")

	var text string
	if it.IsAlarm() {
		if it.DisplayName != "" && !isAutoAlarmID(it.ID) {
			text = fmt.Sprintf("%s alarm. It's %s", it.DisplayName, clock)
		} else {
			text = fmt.Sprintf("Alarm. It's %s", clock)
		}
	} else {
		text = fmt.Sprintf("Time to %s. It's %s", it.DisplayName, clock)
	}
	if it.Message != "" {
		text += ". " + it.Message
	}
	return text
}

// isAutoAlarmID reports whether id came from the alarm_N auto-namer.
func isAutoAlarmID(id string) bool {
	var n int
	_, err := fmt.Sscanf(id, "alarm_%d", &n)
	return err == nil
}
