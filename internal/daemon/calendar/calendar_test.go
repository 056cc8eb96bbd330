package calendar

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/notchly-app/notchly/internal/models"
)

func icsBody(events ...string) []byte {
	body := "BEGIN:VCALENDAR\nVERSION:2.0\nPRODID:-//test//EN\n" +
		strings.Join(events, "") + "END:VCALENDAR\n"
	return []byte(strings.ReplaceAll(body, "\n", "\r\n"))
}

func vevent(lines ...string) string {
	return "BEGIN:VEVENT\n" + strings.Join(lines, "\n") + "\nEND:VEVENT\n"
}

func TestParseICSBasicEvent(t *testing.T) {
	body := icsBody(vevent(
		"UID:standup@example.com",
		"SUMMARY:Standup",
		"DTSTART:20250602T090000Z",
		"DTEND:20250602T091500Z",
	))

	events, err := parseICS("work", body)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 {
		t.Fatalf("parsed %d events", len(events))
	}
	ev := events[0]
	if ev.UID != "standup@example.com" || ev.Summary != "Standup" {
		t.Fatalf("event = %+v", ev)
	}
	want := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	if !ev.Start.Equal(want) {
		t.Fatalf("start = %v", ev.Start)
	}
	if ev.AllDay || ev.IsTodo || ev.IsOverride {
		t.Fatalf("flags = %+v", ev)
	}
}

func TestParseICSAllDay(t *testing.T) {
	body := icsBody(vevent(
		"UID:holiday@example.com",
		"SUMMARY:Holiday",
		"DTSTART;VALUE=DATE:20250605",
		"DTEND;VALUE=DATE:20250606",
	))

	events, err := parseICS("cal", body)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || !events[0].AllDay {
		t.Fatalf("events = %+v", events)
	}
}

func TestParseICSCompletedTodo(t *testing.T) {
	body := icsBody(vevent(
		"UID:task@example.com",
		"SUMMARY:File taxes",
		"DTSTART:20250602T090000Z",
		"DTEND:20250602T100000Z",
		"STATUS:COMPLETED",
	))

	events, err := parseICS("cal", body)
	if err != nil {
		t.Fatal(err)
	}
	if !events[0].IsTodo || !events[0].Completed {
		t.Fatalf("event = %+v", events[0])
	}
}

func TestParseICSAttendance(t *testing.T) {
	body := icsBody(vevent(
		"UID:meet@example.com",
		"SUMMARY:Review",
		"DTSTART:20250602T090000Z",
		"DTEND:20250602T100000Z",
		"ATTENDEE;PARTSTAT=DECLINED:mailto:me@example.com",
	))

	events, err := parseICS("cal", body)
	if err != nil {
		t.Fatal(err)
	}
	if events[0].Attendance != "declined" {
		t.Fatalf("attendance = %q", events[0].Attendance)
	}
}

func TestParseICSSkipsMissingUID(t *testing.T) {
	body := icsBody(
		vevent("SUMMARY:Broken", "DTSTART:20250602T090000Z", "DTEND:20250602T100000Z"),
		vevent("UID:ok@example.com", "SUMMARY:Fine", "DTSTART:20250602T090000Z", "DTEND:20250602T100000Z"),
	)

	events, err := parseICS("cal", body)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].UID != "ok@example.com" {
		t.Fatalf("events = %+v", events)
	}
}

func TestParseICSTime(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
	}{
		{"20250602T090000Z", time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)},
		{"20250602T090000", time.Date(2025, 6, 2, 9, 0, 0, 0, time.Local)},
		{"20250602", time.Date(2025, 6, 2, 0, 0, 0, 0, time.Local)},
	}
	for _, c := range cases {
		got, err := parseICSTime(c.in)
		if err != nil {
			t.Errorf("parseICSTime(%q): %v", c.in, err)
			continue
		}
		if !got.Equal(c.want) {
			t.Errorf("parseICSTime(%q) = %v, want %v", c.in, got, c.want)
		}
	}
	if _, err := parseICSTime(""); err == nil {
		t.Error("empty value parsed")
	}
}

func baseRecurring() parsedEvent {
	return parsedEvent{
		SourceID: "cal",
		UID:      "daily@example.com",
		Summary:  "Daily sync",
		Start:    time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC),
		End:      time.Date(2025, 6, 2, 9, 15, 0, 0, time.UTC),
		RawRRule: "FREQ=DAILY;COUNT=5",
	}
}

func testInfo() models.CalendarInfo {
	return models.CalendarInfo{ID: "cal", Title: "Work", Color: "#FF9F0A"}
}

func TestExpandRecurringCount(t *testing.T) {
	rangeStart := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	rangeEnd := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)

	out := expandOccurrences([]parsedEvent{baseRecurring()}, testInfo(), rangeStart, rangeEnd)
	if len(out) != 5 {
		t.Fatalf("expanded %d occurrences, want 5", len(out))
	}
	for i, ev := range out {
		want := time.Date(2025, 6, 2+i, 9, 0, 0, 0, time.UTC)
		if !ev.Start.Equal(want) {
			t.Fatalf("occurrence %d start = %v, want %v", i, ev.Start, want)
		}
		if ev.End.Sub(ev.Start) != 15*time.Minute {
			t.Fatalf("occurrence %d duration = %v", i, ev.End.Sub(ev.Start))
		}
	}
	if out[0].ID == out[1].ID {
		t.Fatal("occurrence ids collide")
	}
}

func TestExpandRespectsExDates(t *testing.T) {
	ev := baseRecurring()
	ev.ExDates = []time.Time{time.Date(2025, 6, 3, 9, 0, 0, 0, time.UTC)}

	out := expandOccurrences([]parsedEvent{ev},
		testInfo(),
		time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC))
	if len(out) != 4 {
		t.Fatalf("expanded %d occurrences, want 4", len(out))
	}
	for _, occ := range out {
		if occ.Start.Day() == 3 {
			t.Fatalf("excluded date still present: %v", occ.Start)
		}
	}
}

func TestExpandAppliesOverride(t *testing.T) {
	recurrence := time.Date(2025, 6, 4, 9, 0, 0, 0, time.UTC)
	override := parsedEvent{
		SourceID:   "cal",
		UID:        "daily@example.com",
		Summary:    "Daily sync (moved)",
		Start:      time.Date(2025, 6, 4, 11, 0, 0, 0, time.UTC),
		End:        time.Date(2025, 6, 4, 11, 30, 0, 0, time.UTC),
		Recurrence: &recurrence,
		IsOverride: true,
	}

	out := expandOccurrences([]parsedEvent{baseRecurring(), override},
		testInfo(),
		time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC))
	if len(out) != 5 {
		t.Fatalf("expanded %d occurrences, want 5", len(out))
	}

	var moved *models.CalendarEvent
	for i := range out {
		if out[i].Title == "Daily sync (moved)" {
			moved = &out[i]
		}
	}
	if moved == nil {
		t.Fatal("override instance missing")
	}
	if moved.Start.Hour() != 11 {
		t.Fatalf("override start = %v", moved.Start)
	}
}

func TestExpandNonRecurringRangeFilter(t *testing.T) {
	ev := parsedEvent{
		UID:     "old@example.com",
		Summary: "Ancient",
		Start:   time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
		End:     time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
	}
	out := expandOccurrences([]parsedEvent{ev}, testInfo(),
		time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC))
	if len(out) != 0 {
		t.Fatalf("out-of-range event survived: %+v", out)
	}
}

func liveICS() []byte {
	start := time.Now().Add(2 * time.Hour).UTC()
	return icsBody(vevent(
		"UID:live@example.com",
		"SUMMARY:Soon",
		fmt.Sprintf("DTSTART:%s", start.Format("20060102T150405Z")),
		fmt.Sprintf("DTEND:%s", start.Add(30*time.Minute).Format("20060102T150405Z")),
	))
}

func TestStoreRefreshAndSubscribe(t *testing.T) {
	body := liveICS()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(body)
	}))
	defer srv.Close()

	store := NewStore([]models.CalendarSource{{ID: "cal", Title: "Work", URL: srv.URL}})
	ch := store.Subscribe("test")
	defer store.Unsubscribe("test")

	if err := store.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	select {
	case events := <-ch:
		if len(events) != 1 || events[0].Title != "Soon" {
			t.Fatalf("events = %+v", events)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot broadcast")
	}

	got := store.Events(time.Now(), time.Now().Add(24*time.Hour))
	if len(got) != 1 {
		t.Fatalf("Events returned %d", len(got))
	}
}

func TestStoreCompletionOverlaySurvivesRefresh(t *testing.T) {
	// Same body on every fetch so the per-occurrence event id stays stable
	// across refreshes.
	body := liveICS()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(body)
	}))
	defer srv.Close()

	store := NewStore([]models.CalendarSource{{ID: "cal", Title: "Work", URL: srv.URL}})
	if err := store.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	events := store.Events(time.Now(), time.Now().Add(24*time.Hour))
	if len(events) != 1 {
		t.Fatalf("events = %+v", events)
	}
	store.SetReminderCompleted(events[0].ID, true)

	if err := store.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	events = store.Events(time.Now(), time.Now().Add(24*time.Hour))
	if len(events) != 1 || !events[0].Completed {
		t.Fatalf("overlay lost: %+v", events)
	}
}

func TestConcurrentRefreshCoalesces(t *testing.T) {
	var requests atomic.Int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		<-release
		w.Write(liveICS())
	}))
	defer srv.Close()

	store := NewStore([]models.CalendarSource{{ID: "cal", Title: "Work", URL: srv.URL}})

	var wg sync.WaitGroup
	errs := make([]error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = store.Refresh(context.Background())
		}(i)
	}

	// Let the goroutines pile up on the in-flight fetch, then release it.
	time.Sleep(200 * time.Millisecond)
	close(release)
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("refresh %d: %v", i, err)
		}
	}
	if n := requests.Load(); n != 1 {
		t.Fatalf("server saw %d requests, want 1", n)
	}
}

func TestFetcherRevalidatesWithETag(t *testing.T) {
	body := liveICS()
	var conditional atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-None-Match") == `"v1"` {
			conditional.Add(1)
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		w.Write(body)
	}))
	defer srv.Close()

	f := NewFetcher()
	first, err := f.Fetch(context.Background(), "cal", srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if first.FromCache {
		t.Fatal("first fetch reported cached")
	}

	second, err := f.Fetch(context.Background(), "cal", srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if !second.FromCache {
		t.Fatal("304 response did not reuse cache")
	}
	if string(second.Body) != string(first.Body) {
		t.Fatal("cached body differs")
	}
	if conditional.Load() != 1 {
		t.Fatalf("conditional requests = %d", conditional.Load())
	}
}

func TestStoreFailedSourceKeepsOthers(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(liveICS())
	}))
	defer good.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()

	store := NewStore([]models.CalendarSource{
		{ID: "bad", Title: "Broken", URL: bad.URL},
		{ID: "good", Title: "Work", URL: good.URL},
	})

	if err := store.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh with one healthy source failed: %v", err)
	}
	events := store.Events(time.Now(), time.Now().Add(24*time.Hour))
	if len(events) != 1 {
		t.Fatalf("events = %+v", events)
	}
}
