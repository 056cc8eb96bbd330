package calendar

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/notchly-app/notchly/internal/models"
)

// AuthorizationStatus mirrors the OS store's per-entity authorization state.
type AuthorizationStatus string

const (
	AuthorizationNotDetermined AuthorizationStatus = "not_determined"
	AuthorizationAuthorized    AuthorizationStatus = "authorized"
	AuthorizationDenied        AuthorizationStatus = "denied"
)

// Store is the event source adapter for calendars and reminders. It owns the
// current immutable event snapshot; downstream consumers only ever read it.
//
// Concurrent Refresh calls are serialized: a caller arriving while a refresh
// is in flight waits for — and shares the result of — that refresh instead of
// issuing a second round of fetches.
type Store struct {
	fetcher *Fetcher
	sources []models.CalendarSource

	mu        sync.RWMutex
	events    []models.CalendarEvent
	completed map[string]bool // local completion overlay keyed by event id
	subs      map[string]chan []models.CalendarEvent

	flightMu sync.Mutex
	inFlight bool
	waiters  []chan error
}

// NewStore creates a store over the configured ICS sources.
func NewStore(sources []models.CalendarSource) *Store {
	return &Store{
		fetcher:   NewFetcher(),
		sources:   sources,
		completed: make(map[string]bool),
		subs:      make(map[string]chan []models.CalendarEvent),
	}
}

// AuthorizationFor reports access to the given entity type. ICS subscriptions
// need no OS grant, so both entity types are always authorized; the method
// exists so consumers degrade the same way they would against a denying store.
func (s *Store) AuthorizationFor(entity string) AuthorizationStatus {
	return AuthorizationAuthorized
}

// Calendars returns the configured calendar descriptions.
func (s *Store) Calendars() []models.CalendarInfo {
	infos := make([]models.CalendarInfo, 0, len(s.sources))
	for _, src := range s.sources {
		infos = append(infos, models.CalendarInfo{ID: src.ID, Title: src.Title, Color: src.Color})
	}
	return infos
}

// Events returns the current snapshot filtered to [from, to).
func (s *Store) Events(from, to time.Time) []models.CalendarEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.CalendarEvent, 0, len(s.events))
	for _, ev := range s.events {
		if ev.Start.Before(to) && ev.End.After(from) {
			out = append(out, ev)
		}
	}
	return out
}

// SetReminderCompleted marks a reminder-type event completed locally. The
// overlay survives refreshes until the feed itself reports completion.
func (s *Store) SetReminderCompleted(id string, completed bool) {
	s.mu.Lock()
	if completed {
		s.completed[id] = true
	} else {
		delete(s.completed, id)
	}
	snapshot := s.applyOverlayLocked(s.events)
	s.events = snapshot
	s.mu.Unlock()

	s.broadcast(snapshot)
}

// Subscribe registers for event snapshot updates under the given id.
func (s *Store) Subscribe(id string) <-chan []models.CalendarEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan []models.CalendarEvent, 4)
	s.subs[id] = ch
	return ch
}

// Unsubscribe removes a subscription.
func (s *Store) Unsubscribe(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ch, ok := s.subs[id]; ok {
		close(ch)
		delete(s.subs, id)
	}
}

// Refresh fetches and re-expands all sources, replacing the snapshot
// wholesale. Overlapping callers share one round of fetches.
func (s *Store) Refresh(ctx context.Context) error {
	s.flightMu.Lock()
	if s.inFlight {
		wait := make(chan error, 1)
		s.waiters = append(s.waiters, wait)
		s.flightMu.Unlock()
		select {
		case err := <-wait:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	s.inFlight = true
	s.flightMu.Unlock()

	err := s.refresh(ctx)

	s.flightMu.Lock()
	s.inFlight = false
	waiters := s.waiters
	s.waiters = nil
	s.flightMu.Unlock()

	for _, w := range waiters {
		w <- err
	}
	return err
}

func (s *Store) refresh(ctx context.Context) error {
	now := time.Now()
	rangeStart := now.Add(-24 * time.Hour)
	rangeEnd := now.Add(14 * 24 * time.Hour)

	all := make([]models.CalendarEvent, 0)
	var lastErr error
	for _, src := range s.sources {
		res, err := s.fetcher.Fetch(ctx, src.ID, src.URL)
		if err != nil {
			// A failed source surfaces as an absent source, not a fatal refresh.
			log.Printf("[calendar] refresh source %s: %v", src.ID, err)
			lastErr = err
			continue
		}
		parsed, err := parseICS(src.ID, res.Body)
		if err != nil {
			log.Printf("[calendar] parse source %s: %v", src.ID, err)
			lastErr = err
			continue
		}
		info := models.CalendarInfo{ID: src.ID, Title: src.Title, Color: src.Color}
		all = append(all, expandOccurrences(parsed, info, rangeStart, rangeEnd)...)
	}

	sort.Slice(all, func(i, j int) bool { return all[i].Start.Before(all[j].Start) })

	s.mu.Lock()
	snapshot := s.applyOverlayLocked(all)
	s.events = snapshot
	s.mu.Unlock()

	s.broadcast(snapshot)

	if len(all) == 0 && lastErr != nil {
		return lastErr
	}
	return nil
}

// applyOverlayLocked stamps local completion marks onto a fresh snapshot.
func (s *Store) applyOverlayLocked(events []models.CalendarEvent) []models.CalendarEvent {
	out := make([]models.CalendarEvent, len(events))
	copy(out, events)
	for i := range out {
		if s.completed[out[i].ID] {
			out[i].Completed = true
		}
	}
	return out
}

// broadcast sends the snapshot to all subscribers. Non-blocking: a slow
// subscriber drops intermediate snapshots and catches up on the next one.
func (s *Store) broadcast(snapshot []models.CalendarEvent) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, ch := range s.subs {
		select {
		case ch <- snapshot:
		default:
		}
	}
}
