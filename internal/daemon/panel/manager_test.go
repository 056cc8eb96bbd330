package panel

import (
	"sync"
	"testing"

	"github.com/notchly-app/notchly/internal/models"
)

type fakeSurface struct {
	mu        sync.Mutex
	frame     models.Rect
	setFrames int
	front     int
	out       int
	attached  int
	detached  int
	excluded  int
}

func (s *fakeSurface) SetFrame(frame models.Rect, animated bool) {
	s.mu.Lock()
	s.frame = frame
	s.setFrames++
	s.mu.Unlock()
}
func (s *fakeSurface) OrderFront()         { s.mu.Lock(); s.front++; s.mu.Unlock() }
func (s *fakeSurface) OrderOut()           { s.mu.Lock(); s.out++; s.mu.Unlock() }
func (s *fakeSurface) Attach()             { s.mu.Lock(); s.attached++; s.mu.Unlock() }
func (s *fakeSurface) Detach()             { s.mu.Lock(); s.detached++; s.mu.Unlock() }
func (s *fakeSurface) ExcludeFromCapture() { s.mu.Lock(); s.excluded++; s.mu.Unlock() }

type harness struct {
	board    *Board
	surfaces map[Kind]*fakeSurface
	locked   bool
	screen   models.Rect
	offsets  models.WidgetsConfig
}

func newHarness() *harness {
	return &harness{
		board:    NewBoard(),
		surfaces: make(map[Kind]*fakeSurface),
		locked:   true,
		screen:   models.Rect{X: 0, Y: 0, W: 1512, H: 982},
	}
}

func (h *harness) deps() Deps {
	return Deps{
		Surface: func(kind Kind) Surface {
			s := &fakeSurface{}
			h.surfaces[kind] = s
			return s
		},
		Board: h.board,
		Gate:  func() bool { return h.locked },
		Context: func() models.LockScreenContext {
			return models.LockScreenContext{Frame: h.screen}
		},
		Offsets: func() models.WidgetsConfig { return h.offsets },
	}
}

func TestShowPlacesAndOrdersFront(t *testing.T) {
	h := newHarness()
	m := NewWeatherManager(h.deps(), nil)

	m.Show(models.WeatherSnapshot{Temperature: "21°"})

	s := h.surfaces[KindWeather]
	if s == nil || s.front != 1 || s.attached != 1 || s.excluded != 1 {
		t.Fatalf("surface = %+v", s)
	}
	if !m.Visible() {
		t.Fatal("expected visible")
	}
	if _, ok := h.board.Frame(KindWeather); !ok {
		t.Fatal("frame not published to board")
	}
}

func TestLockGateBlocksShowAndUpdate(t *testing.T) {
	h := newHarness()
	h.locked = false
	m := NewWeatherManager(h.deps(), nil)

	m.Show(models.WeatherSnapshot{Temperature: "21°"})
	m.Update(models.WeatherSnapshot{Temperature: "22°"})

	if m.Visible() {
		t.Fatal("widget visible while unlocked")
	}
	if len(h.surfaces) != 0 {
		t.Fatal("surface created while unlocked")
	}
}

func TestUpdateNeverCreatesWindow(t *testing.T) {
	h := newHarness()
	m := NewTimerManager(h.deps(), nil)

	m.Update(models.TimerSnapshot{Name: "Tea", Remaining: 0})

	if m.Visible() || len(h.surfaces) != 0 {
		t.Fatal("update created a window")
	}
}

func TestEqualSnapshotSkipsRender(t *testing.T) {
	h := newHarness()
	renders := 0
	m := NewWeatherManager(h.deps(), func(models.WeatherSnapshot) { renders++ })

	snap := models.WeatherSnapshot{Temperature: "21°"}
	m.Show(snap)
	m.Update(snap)
	m.Update(snap)

	if renders != 1 {
		t.Fatalf("renders = %d, want 1", renders)
	}
	if h.surfaces[KindWeather].setFrames != 1 {
		t.Fatalf("setFrames = %d, want 1", h.surfaces[KindWeather].setFrames)
	}

	m.Update(models.WeatherSnapshot{Temperature: "22°"})
	if renders != 2 {
		t.Fatalf("renders after change = %d, want 2", renders)
	}
}

func TestHideClearsBoardFrame(t *testing.T) {
	h := newHarness()
	m := NewMusicManager(h.deps(), nil)

	m.Show(models.MusicSnapshot{Title: "Song"})
	m.Hide()

	s := h.surfaces[KindMusic]
	if s.out != 1 || s.detached != 1 {
		t.Fatalf("surface = %+v", s)
	}
	if _, ok := h.board.Frame(KindMusic); ok {
		t.Fatal("board frame survived hide")
	}
	if m.Visible() {
		t.Fatal("still visible after hide")
	}
}

func TestNoScreenSkipsSilently(t *testing.T) {
	h := newHarness()
	h.screen = models.Rect{}
	m := NewWeatherManager(h.deps(), nil)

	m.Show(models.WeatherSnapshot{Temperature: "21°"})

	if m.Visible() || len(h.surfaces) != 0 {
		t.Fatal("rendered without a usable screen")
	}
}

func TestTimerStacksAboveMusic(t *testing.T) {
	h := newHarness()
	deps := h.deps()
	music := NewMusicManager(deps, nil)
	timer := NewTimerManager(deps, nil)

	music.Show(models.MusicSnapshot{Title: "Song"})
	timer.Show(models.TimerSnapshot{Name: "Tea"})

	musicFrame, _ := h.board.Frame(KindMusic)
	timerFrame, _ := h.board.Frame(KindTimer)
	if timerFrame.Y != musicFrame.MaxY()+siblingGap {
		t.Fatalf("timer Y = %v, want %v", timerFrame.Y, musicFrame.MaxY()+siblingGap)
	}
}

func TestReminderStacksBelowWeather(t *testing.T) {
	h := newHarness()
	deps := h.deps()
	weather := NewWeatherManager(deps, nil)
	reminder := NewReminderManager(deps, nil)

	weather.Show(models.WeatherSnapshot{Temperature: "21°"})
	reminder.Show(models.ReminderSnapshot{Title: "Standup"})

	weatherFrame, _ := h.board.Frame(KindWeather)
	reminderFrame, _ := h.board.Frame(KindReminder)
	if reminderFrame.MaxY() != weatherFrame.Y-siblingGap {
		t.Fatalf("reminder top = %v, want %v", reminderFrame.MaxY(), weatherFrame.Y-siblingGap)
	}
}

func TestSiblingHideReflowsStack(t *testing.T) {
	h := newHarness()
	deps := h.deps()
	music := NewMusicManager(deps, nil)
	timer := NewTimerManager(deps, nil)

	music.Show(models.MusicSnapshot{Title: "Song"})
	timer.Show(models.TimerSnapshot{Name: "Tea"})
	stacked, _ := h.board.Frame(KindTimer)

	music.Hide()

	reflowed, _ := h.board.Frame(KindTimer)
	if reflowed == stacked {
		t.Fatal("timer did not reflow after music hide")
	}
	want := FrameFor(h.screen, timerSize, anchorBottomBand(h.board, h.screen, timerSize), 0)
	if reflowed != want {
		t.Fatalf("timer frame = %+v, want fallback %+v", reflowed, want)
	}
}

func TestRefreshPositionTracksScreenChange(t *testing.T) {
	h := newHarness()
	m := NewWeatherManager(h.deps(), nil)
	m.Show(models.WeatherSnapshot{Temperature: "21°"})
	before := h.surfaces[KindWeather].frame

	h.screen = models.Rect{X: 0, Y: 0, W: 2560, H: 1440}
	m.RefreshPosition(false)

	after := h.surfaces[KindWeather].frame
	if after == before {
		t.Fatal("frame unchanged after screen change")
	}
	if after.X+after.W/2 != h.screen.W/2 {
		t.Fatalf("not centered: frame %+v on %+v", after, h.screen)
	}
}

func TestClampOffset(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{0, 0},
		{160, 160},
		{-160, -160},
		{161, 160},
		{-500, -160},
		{42.5, 42.5},
	}
	for _, c := range cases {
		if got := ClampOffset(c.in); got != c.want {
			t.Errorf("ClampOffset(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestFrameNeverExceedsScreen(t *testing.T) {
	screen := models.Rect{X: 0, Y: 0, W: 1512, H: 982}
	offsets := []float64{-1000, -160, 0, 160, 1000}
	anchors := []float64{-500, 0, 500, 2000}
	for _, off := range offsets {
		for _, anchor := range anchors {
			f := FrameFor(screen, weatherSize, anchor, off)
			if f.Y < screen.Y || f.MaxY() > screen.MaxY() ||
				f.X < screen.X || f.MaxX() > screen.MaxX() {
				t.Fatalf("frame %+v exceeds screen %+v (anchor=%v offset=%v)", f, screen, anchor, off)
			}
		}
	}
}

func TestOffsetShiftsWithinClamp(t *testing.T) {
	h := newHarness()
	h.offsets.Music.VerticalOffset = 1000 // clamps to 160
	m := NewMusicManager(h.deps(), nil)
	m.Show(models.MusicSnapshot{Title: "Song"})

	got, _ := h.board.Frame(KindMusic)
	want := FrameFor(h.screen, musicSize, anchorBottomBand(h.board, h.screen, musicSize), MaxVerticalOffset)
	if got != want {
		t.Fatalf("frame = %+v, want clamped %+v", got, want)
	}
}
