package coordinator

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ringdown/chimed/internal/item"
)

// ScheduleRequest describes a new alarm or reminder.
type ScheduleRequest struct {
	Kind         item.Kind
	Name         string
	When         string
	Repeat       item.Repeat
	Days         []string
	Message      string
	Target       string
	Sound        string
	NotifyTarget string
}

// Schedule creates and arms a new item. Alarms without a name get an
// auto-generated one; a clashing alarm name is suffixed, a clashing reminder
// name is an error.
func (c *Coordinator) Schedule(req ScheduleRequest) (item.Item, error) {
	now := c.now()

	when, dateExplicit, err := item.ParseWhen(req.When, now)
	if err != nil {
		return item.Item{}, err
	}
	if !when.After(now) {
		if dateExplicit {
			return item.Item{}, fmt.Errorf("%w: %q is in the past", item.ErrInvalidInput, req.When)
		}
		// A bare clock time that already passed means tomorrow.
		when = when.AddDate(0, 0, 1)
	}

	repeat := req.Repeat
	if repeat == "" {
		repeat = item.RepeatOnce
	}
	days, err := item.ParseDays(req.Days)
	if err != nil {
		return item.Item{}, err
	}

	it := item.Item{
		Kind:          req.Kind,
		DisplayName:   strings.TrimSpace(req.Name),
		ScheduledTime: when,
		Repeat:        repeat,
		RepeatDays:    days,
		Message:       strings.TrimSpace(req.Message),
		Target:        req.Target,
		SoundRef:      req.Sound,
		Enabled:       true,
		Status:        item.StatusScheduled,
		NotifyTarget:  req.NotifyTarget,
	}
	if err := it.Validate(); err != nil {
		return item.Item{}, err
	}

	// Recurring items snap to their first matching occurrence; the parsed
	// time only contributes the time of day.
	if repeat != item.RepeatOnce && repeat != item.RepeatCustom {
		if next, ok := item.NextTrigger(it, now); ok {
			it.ScheduledTime = next
		}
	}

	c.mu.Lock()
	it.ID, it.DisplayName, err = c.assignIDLocked(it)
	if err != nil {
		c.mu.Unlock()
		return item.Item{}, err
	}
	c.items[it.ID] = it
	c.armLocked(it.ID, it.ScheduledTime)
	c.mu.Unlock()

	c.store.Put(it)
	itemsScheduled.WithLabelValues(string(it.Kind)).Inc()
	c.log.WithField("id", it.ID).WithField("at", it.ScheduledTime).Info("item scheduled")
	return it, nil
}

// assignIDLocked picks a unique id (and possibly adjusted display name) for
// a new item. Caller holds c.mu.
func (c *Coordinator) assignIDLocked(it item.Item) (id, name string, err error) {
	name = it.DisplayName

	if it.IsAlarm() && name == "" {
		c.alarmSeq++
		return fmt.Sprintf("alarm_%d", c.alarmSeq), fmt.Sprintf("Alarm %d", c.alarmSeq), nil
	}

	id = item.NameToID(name)
	if _, taken := c.items[id]; !taken {
		return id, name, nil
	}

	if !it.IsAlarm() {
		return "", "", fmt.Errorf("%w: a reminder named %q already exists", item.ErrInvalidInput, name)
	}

	// Alarms auto-rename instead of failing.
	for n := 2; ; n++ {
		cand := fmt.Sprintf("%s_%d", id, n)
		if _, taken := c.items[cand]; !taken {
			return cand, fmt.Sprintf("%s %d", name, n), nil
		}
	}
}

// Stop stops a ringing item, or quiets a scheduled one. Recurring items are
// re-armed for their next occurrence; one-shots are retired. expectKind
// narrows the operation to one kind; pass "" for either.
func (c *Coordinator) Stop(id string, expectKind item.Kind) (item.Item, error) {
	now := c.now()

	c.mu.Lock()
	it, ok := c.items[id]
	if !ok {
		c.mu.Unlock()
		return item.Item{}, fmt.Errorf("%w: %s", item.ErrNotFound, id)
	}
	if expectKind != "" && it.Kind != expectKind {
		c.mu.Unlock()
		return item.Item{}, fmt.Errorf("%w: %s is a %s", item.ErrTypeMismatch, id, it.Kind)
	}
	// Stopping an already-stopped item is a no-op, not a rewrite.
	if it.Status == item.StatusStopped || it.Status == item.StatusCompleted {
		c.mu.Unlock()
		return it, nil
	}

	c.disarmLocked(id)

	stoppedAt := now
	it.LastStoppedAt = &stoppedAt
	it.Status = item.StatusStopped

	switch it.Repeat {
	case item.RepeatOnce, item.RepeatCustom:
		it.Enabled = false
		if it.Repeat == item.RepeatOnce {
			it.Status = item.StatusCompleted
		}
		c.items[id] = it
	default:
		if next, hasNext := item.NextTrigger(it, now); hasNext {
			it.ScheduledTime = next
			c.items[id] = it
			c.armLocked(id, next)
		} else {
			it.Status = item.StatusError
			c.items[id] = it
		}
	}
	c.mu.Unlock()

	c.store.Put(it)
	if c.notifier != nil {
		// Durable before externally visible.
		c.store.Flush()
		go c.notifier.ItemStopped(it)
	}
	c.log.WithField("id", id).Info("item stopped")
	return it, nil
}

// StopAll stops everything that is currently ringing.
func (c *Coordinator) StopAll() []item.Item {
	c.mu.Lock()
	var ringing []string
	for id, it := range c.items {
		if it.Status == item.StatusActive {
			ringing = append(ringing, id)
		}
	}
	c.mu.Unlock()

	var stopped []item.Item
	for _, id := range ringing {
		it, err := c.Stop(id, "")
		if err != nil {
			continue
		}
		stopped = append(stopped, it)
	}
	return stopped
}

// Snooze quiets an item and re-arms it a few minutes out, on a whole-minute
// boundary. Works on both ringing and scheduled items.
func (c *Coordinator) Snooze(id string, minutes int, expectKind item.Kind) (item.Item, error) {
	if minutes <= 0 {
		return item.Item{}, fmt.Errorf("%w: snooze minutes must be positive", item.ErrInvalidInput)
	}
	now := c.now()

	c.mu.Lock()
	it, ok := c.items[id]
	if !ok {
		c.mu.Unlock()
		return item.Item{}, fmt.Errorf("%w: %s", item.ErrNotFound, id)
	}
	if expectKind != "" && it.Kind != expectKind {
		c.mu.Unlock()
		return item.Item{}, fmt.Errorf("%w: %s is a %s", item.ErrTypeMismatch, id, it.Kind)
	}

	c.disarmLocked(id)

	prev := it.ScheduledTime
	it.LastRescheduledFrom = &prev
	it.ScheduledTime = now.Add(time.Duration(minutes) * time.Minute).Truncate(time.Minute)
	it.Status = item.StatusScheduled
	it.Enabled = true
	c.items[id] = it
	c.armLocked(id, it.ScheduledTime)
	c.mu.Unlock()

	c.store.Put(it)
	snoozes.Inc()
	c.log.WithField("id", id).WithField("until", it.ScheduledTime).Info("item snoozed")
	return it, nil
}

// EditRequest holds the optional fields of a partial update. The id never
// changes; Name only adjusts the display name.
type EditRequest struct {
	Name    *string
	When    *string
	Message *string
	Sound   *string
	Repeat  *item.Repeat
	Days    *[]string
	Target  *string
	Enabled *bool
}

// timeAffecting reports whether the edit can move the item's trigger.
func (req EditRequest) timeAffecting() bool {
	return req.When != nil || req.Repeat != nil || req.Days != nil || req.Enabled != nil
}

// Edit applies a partial update. The item is re-armed only when a field
// that affects its trigger changed; message, name, sound and target edits
// leave the schedule alone.
func (c *Coordinator) Edit(id string, req EditRequest) (item.Item, error) {
	now := c.now()

	c.mu.Lock()
	it, ok := c.items[id]
	if !ok {
		c.mu.Unlock()
		return item.Item{}, fmt.Errorf("%w: %s", item.ErrNotFound, id)
	}

	updated := it
	if req.Name != nil {
		updated.DisplayName = strings.TrimSpace(*req.Name)
	}
	if req.When != nil {
		when, dateExplicit, err := item.ParseWhen(*req.When, now)
		if err != nil {
			c.mu.Unlock()
			return item.Item{}, err
		}
		if !when.After(now) {
			if dateExplicit {
				c.mu.Unlock()
				return item.Item{}, fmt.Errorf("%w: %q is in the past", item.ErrInvalidInput, *req.When)
			}
			when = when.AddDate(0, 0, 1)
		}
		updated.ScheduledTime = when
	}
	if req.Message != nil {
		updated.Message = strings.TrimSpace(*req.Message)
	}
	if req.Sound != nil {
		updated.SoundRef = *req.Sound
	}
	if req.Repeat != nil {
		updated.Repeat = *req.Repeat
	}
	if req.Days != nil {
		days, err := item.ParseDays(*req.Days)
		if err != nil {
			c.mu.Unlock()
			return item.Item{}, err
		}
		updated.RepeatDays = days
	}
	if req.Target != nil {
		updated.Target = *req.Target
	}
	if req.Enabled != nil {
		updated.Enabled = *req.Enabled
	}

	if err := updated.Validate(); err != nil {
		c.mu.Unlock()
		return item.Item{}, err
	}

	if !req.timeAffecting() {
		c.items[id] = updated
		c.mu.Unlock()
		c.store.Put(updated)
		c.log.WithField("id", id).Info("item edited")
		return updated, nil
	}

	c.disarmLocked(id)

	if updated.Enabled {
		// Recurring items snap to their first matching occurrence; a
		// one-shot keeps the exact time it was given.
		if updated.Repeat != item.RepeatOnce && updated.Repeat != item.RepeatCustom {
			next, hasNext := item.NextTrigger(updated, now)
			if !hasNext {
				c.mu.Unlock()
				return item.Item{}, fmt.Errorf("%w: no next occurrence", item.ErrInvalidInput)
			}
			updated.ScheduledTime = next
		}
		updated.Status = item.StatusScheduled
		c.armLocked(id, updated.ScheduledTime)
	} else {
		updated.Status = item.StatusStopped
	}
	c.items[id] = updated
	c.mu.Unlock()

	c.store.Put(updated)
	c.log.WithField("id", id).Info("item edited")
	return updated, nil
}

// Delete removes an item entirely, silencing it first if it is ringing.
func (c *Coordinator) Delete(id string, expectKind item.Kind) error {
	c.mu.Lock()
	it, ok := c.items[id]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", item.ErrNotFound, id)
	}
	if expectKind != "" && it.Kind != expectKind {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s is a %s", item.ErrTypeMismatch, id, it.Kind)
	}
	c.disarmLocked(id)
	delete(c.items, id)
	c.mu.Unlock()

	c.store.Delete(id)
	c.log.WithField("id", id).Info("item deleted")
	return nil
}

// DeleteAll removes every item, optionally limited to one kind. It returns
// the number of items removed.
func (c *Coordinator) DeleteAll(kind item.Kind) int {
	c.mu.Lock()
	var ids []string
	for id, it := range c.items {
		if kind == "" || it.Kind == kind {
			ids = append(ids, id)
		}
	}
	for _, id := range ids {
		c.disarmLocked(id)
		delete(c.items, id)
	}
	c.mu.Unlock()

	for _, id := range ids {
		c.store.Delete(id)
	}
	c.log.WithField("count", len(ids)).Info("items deleted")
	return len(ids)
}

// Get returns one item by id.
func (c *Coordinator) Get(id string) (item.Item, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	it, ok := c.items[id]
	if !ok {
		return item.Item{}, fmt.Errorf("%w: %s", item.ErrNotFound, id)
	}
	return it, nil
}

// List returns all items, optionally limited to one kind, ordered by next
// trigger time.
func (c *Coordinator) List(kind item.Kind) []item.Item {
	c.mu.Lock()
	items := make([]item.Item, 0, len(c.items))
	for _, it := range c.items {
		if kind == "" || it.Kind == kind {
			items = append(items, it)
		}
	}
	c.mu.Unlock()

	sort.Slice(items, func(i, j int) bool {
		if items[i].ScheduledTime.Equal(items[j].ScheduledTime) {
			return items[i].ID < items[j].ID
		}
		return items[i].ScheduledTime.Before(items[j].ScheduledTime)
	})
	return items
}
