package reminder

import (
	"sync"
	"testing"
	"time"

	"github.com/notchly-app/notchly/internal/models"
)

// fakeClock is a settable wall clock shared with the manager under test.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

type recordingOverlay struct {
	mu    sync.Mutex
	peeks []PeekKind
}

func (o *recordingOverlay) ShowSneakPeek(kind PeekKind, snapshot models.ReminderSnapshot) {
	o.mu.Lock()
	o.peeks = append(o.peeks, kind)
	o.mu.Unlock()
}

func (o *recordingOverlay) count(kind PeekKind) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := 0
	for _, k := range o.peeks {
		if k == kind {
			n++
		}
	}
	return n
}

func testConfig() models.ReminderConfig {
	return models.ReminderConfig{
		Enabled:           true,
		LeadMinutes:       0, // set via lead in event helpers below
		CriticalWindowSec: 5,
		HideAllDay:        true,
		HideCompleted:     true,
	}
}

func eventAt(id string, start time.Time) models.CalendarEvent {
	return models.CalendarEvent{ID: id, Title: id, Start: start, End: start.Add(30 * time.Minute)}
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestComputeUpcoming(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	now := base

	past := eventAt("past", base.Add(-time.Minute))
	soon := eventAt("soon", base.Add(10*time.Minute))
	later := eventAt("later", base.Add(40*time.Minute))
	allDay := eventAt("allday", base.Add(20*time.Minute))
	allDay.AllDay = true
	done := eventAt("done", base.Add(25*time.Minute))
	done.Completed = true

	tests := []struct {
		name    string
		cfg     models.ReminderConfig
		events  []models.CalendarEvent
		wantIDs []string
	}{
		{
			name:    "filters past all-day and completed, sorts by trigger",
			cfg:     models.ReminderConfig{Enabled: true, LeadMinutes: 5, HideAllDay: true, HideCompleted: true},
			events:  []models.CalendarEvent{later, done, soon, past, allDay},
			wantIDs: []string{"soon", "later"},
		},
		{
			name:    "disabled yields nothing",
			cfg:     models.ReminderConfig{Enabled: false, LeadMinutes: 5},
			events:  []models.CalendarEvent{soon},
			wantIDs: nil,
		},
		{
			name:    "all-day kept when not hidden",
			cfg:     models.ReminderConfig{Enabled: true, LeadMinutes: 5},
			events:  []models.CalendarEvent{allDay, done},
			wantIDs: []string{"allday", "done"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := computeUpcoming(tt.events, tt.cfg, now)
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("got %d entries, want %d", len(got), len(tt.wantIDs))
			}
			for i, id := range tt.wantIDs {
				if got[i].Event.ID != id {
					t.Errorf("entry %d = %s, want %s", i, got[i].Event.ID, id)
				}
				wantTrigger := got[i].Event.Start.Add(-tt.cfg.LeadTime())
				if !got[i].TriggerDate.Equal(wantTrigger) {
					t.Errorf("entry %d trigger = %v, want %v", i, got[i].TriggerDate, wantTrigger)
				}
			}
		})
	}
}

func TestTriggerCorrectness(t *testing.T) {
	// Events at T=100s, 120s, 200s with a 10s lead time.
	epoch := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	clock := &fakeClock{t: epoch.Add(89 * time.Second)}

	cfg := models.ReminderConfig{Enabled: true, CriticalWindowSec: 2}
	m := NewManager(Options{Config: cfg, Now: clock.Now})

	events := []models.CalendarEvent{
		eventAt("e100", epoch.Add(100*time.Second)),
		eventAt("e120", epoch.Add(120*time.Second)),
		eventAt("e200", epoch.Add(200*time.Second)),
	}

	// Lead time is 10s: patch entries in directly via config + recompute.
	lead := 10 * time.Second
	m.mu.Lock()
	m.upcoming = []models.ReminderEntry{
		models.NewReminderEntry(events[0], lead),
		models.NewReminderEntry(events[1], lead),
		models.NewReminderEntry(events[2], lead),
	}
	m.mu.Unlock()

	m.Wake()
	if _, ok := m.ActiveReminder(); ok {
		t.Fatal("at now=89s no entry should be active")
	}

	clock.Set(epoch.Add(91 * time.Second))
	m.Wake()
	active, ok := m.ActiveReminder()
	if !ok || active.Event.ID != "e100" {
		t.Fatalf("at now=91s want e100 active, got %v ok=%v", active.Event.ID, ok)
	}

	clock.Set(epoch.Add(101 * time.Second))
	m.Wake()
	if active, ok = m.ActiveReminder(); ok {
		t.Fatalf("at now=101s e100 must be cleared and e120's trigger (110s) not yet reached, got %v", active.Event.ID)
	}
	up := m.UpcomingEntries()
	if len(up) == 0 || up[0].Event.ID != "e120" {
		t.Fatalf("at now=101s the e120 entry should head the queue, got %v", up)
	}

	clock.Set(epoch.Add(111 * time.Second))
	m.Wake()
	active, ok = m.ActiveReminder()
	if !ok || active.Event.ID != "e120" {
		t.Fatalf("at now=111s want e120 active, got %v ok=%v", active.Event.ID, ok)
	}
}

func TestPastTriggerActivatesImmediately(t *testing.T) {
	epoch := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	clock := &fakeClock{t: epoch}
	m := NewManager(Options{Config: models.ReminderConfig{Enabled: true, LeadMinutes: 30}, Now: clock.Now})

	// Starts in 5 minutes with a 30-minute lead: trigger is already past.
	m.SetEvents([]models.CalendarEvent{eventAt("late", epoch.Add(5*time.Minute))})

	waitFor(t, "late entry active", func() bool {
		active, ok := m.ActiveReminder()
		return ok && active.Event.ID == "late"
	})
}

func TestCriticalPeekFiresOncePerEntry(t *testing.T) {
	epoch := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	clock := &fakeClock{t: epoch}
	overlay := &recordingOverlay{}
	cfg := models.ReminderConfig{Enabled: true, LeadMinutes: 10, CriticalWindowSec: 60}
	m := NewManager(Options{Config: cfg, Overlay: overlay, Now: clock.Now})

	m.SetEvents([]models.CalendarEvent{eventAt("ev", epoch.Add(5*time.Minute))})
	waitFor(t, "ev active", func() bool {
		_, ok := m.ActiveReminder()
		return ok
	})
	if got := overlay.count(PeekStandard); got != 1 {
		t.Fatalf("standard peek count = %d, want 1", got)
	}
	if got := overlay.count(PeekCritical); got != 0 {
		t.Fatalf("critical peek should not fire outside the critical window, got %d", got)
	}

	// Enter the critical window; re-evaluating repeatedly must not repeat
	// either peek.
	clock.Set(epoch.Add(4*time.Minute + 30*time.Second))
	m.Wake()
	m.Wake()
	m.Wake()
	if got := overlay.count(PeekCritical); got != 1 {
		t.Fatalf("critical peek count = %d, want 1", got)
	}
	if got := overlay.count(PeekStandard); got != 1 {
		t.Fatalf("standard peek count = %d, want 1", got)
	}
}

func TestEmptyTitleRendersPlaceholder(t *testing.T) {
	epoch := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	clock := &fakeClock{t: epoch}
	m := NewManager(Options{Config: models.ReminderConfig{Enabled: true, LeadMinutes: 10}, Now: clock.Now})

	ev := eventAt("untitled", epoch.Add(time.Minute))
	ev.Title = ""
	m.SetEvents([]models.CalendarEvent{ev})

	waitFor(t, "snapshot with placeholder title", func() bool {
		snap, ok := m.Snapshots().Last()
		return ok && snap.Title == placeholderTitle
	})
}

func TestLockQueuesEventApplication(t *testing.T) {
	epoch := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	clock := &fakeClock{t: epoch}
	m := NewManager(Options{Config: models.ReminderConfig{Enabled: true, LeadMinutes: 10}, Now: clock.Now})

	m.HandleLockChange(true)
	m.SetEvents([]models.CalendarEvent{eventAt("queued", epoch.Add(time.Minute))})

	time.Sleep(50 * time.Millisecond)
	if _, ok := m.ActiveReminder(); ok {
		t.Fatal("locked manager must not apply calendar events")
	}

	m.HandleLockChange(false)
	waitFor(t, "queued events applied after unlock", func() bool {
		active, ok := m.ActiveReminder()
		return ok && active.Event.ID == "queued"
	})
}

func TestRelockDuringCooldownKeepsQueuedEvents(t *testing.T) {
	epoch := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	clock := &fakeClock{t: epoch}
	m := NewManager(Options{Config: models.ReminderConfig{Enabled: true, LeadMinutes: 10}, Now: clock.Now})

	// Prime the cooldown window with an initial lock/unlock cycle.
	m.HandleLockChange(true)
	m.HandleLockChange(false)

	m.HandleLockChange(true)
	m.SetEvents([]models.CalendarEvent{eventAt("queued", epoch.Add(time.Minute))})

	// Unlocking inside the cooldown defers the recompute; the re-lock cancels
	// that timer before it fires.
	clock.Set(epoch.Add(time.Second))
	m.HandleLockChange(false)
	m.HandleLockChange(true)

	// The queued snapshot must still be applied on the next unlock.
	clock.Set(epoch.Add(10 * time.Second))
	m.HandleLockChange(false)
	waitFor(t, "queued entry active after second unlock", func() bool {
		active, ok := m.ActiveReminder()
		return ok && active.Event.ID == "queued"
	})
}

func TestRelativeDescription(t *testing.T) {
	tests := []struct {
		until time.Duration
		want  string
	}{
		{30 * time.Second, "now"},
		{59 * time.Second, "now"},
		{3 * time.Minute, "in 3 min"},
		{61 * time.Minute, "in 1 h 1 min"},
		{2 * time.Hour, "in 2 h"},
	}
	for _, tt := range tests {
		if got := relativeDescription(tt.until); got != tt.want {
			t.Errorf("relativeDescription(%v) = %q, want %q", tt.until, got, tt.want)
		}
	}
}
