package panel

import "github.com/notchly-app/notchly/internal/models"

// Default content sizes per widget, in points.
var (
	musicSize    = Size{W: 300, H: 84}
	weatherSize  = Size{W: 260, H: 96}
	timerSize    = Size{W: 280, H: 72}
	reminderSize = Size{W: 320, H: 80}
)

// Deps are the shared inputs every widget manager needs.
type Deps struct {
	Surface SurfaceFactory
	Board   *Board
	Gate    func() bool
	Context func() models.LockScreenContext
	Offsets func() models.WidgetsConfig
}

// NewMusicManager places the now-playing widget near the bottom of the
// lock screen.
func NewMusicManager(deps Deps, render func(models.MusicSnapshot)) *Manager[models.MusicSnapshot] {
	return NewManager(Options[models.MusicSnapshot]{
		Kind:    KindMusic,
		Size:    musicSize,
		Surface: deps.Surface,
		Board:   deps.Board,
		Gate:    deps.Gate,
		Context: deps.Context,
		Offset:  func() float64 { return deps.Offsets().Music.VerticalOffset },
		Anchor:  anchorBottomBand,
		Render:  render,
	})
}

// NewTimerManager stacks the timer widget above the music widget.
func NewTimerManager(deps Deps, render func(models.TimerSnapshot)) *Manager[models.TimerSnapshot] {
	return NewManager(Options[models.TimerSnapshot]{
		Kind:    KindTimer,
		Size:    timerSize,
		Surface: deps.Surface,
		Board:   deps.Board,
		Gate:    deps.Gate,
		Context: deps.Context,
		Offset:  func() float64 { return deps.Offsets().Timer.VerticalOffset },
		Anchor:  anchorAbove(KindMusic, anchorBottomBand),
		Render:  render,
	})
}

// NewWeatherManager places the weather widget near the top of the lock
// screen.
func NewWeatherManager(deps Deps, render func(models.WeatherSnapshot)) *Manager[models.WeatherSnapshot] {
	return NewManager(Options[models.WeatherSnapshot]{
		Kind:    KindWeather,
		Size:    weatherSize,
		Surface: deps.Surface,
		Board:   deps.Board,
		Gate:    deps.Gate,
		Context: deps.Context,
		Offset:  func() float64 { return deps.Offsets().Weather.VerticalOffset },
		Anchor:  anchorTopBand,
		Render:  render,
	})
}

// NewReminderManager stacks the reminder widget below the weather widget.
func NewReminderManager(deps Deps, render func(models.ReminderSnapshot)) *Manager[models.ReminderSnapshot] {
	return NewManager(Options[models.ReminderSnapshot]{
		Kind:    KindReminder,
		Size:    reminderSize,
		Surface: deps.Surface,
		Board:   deps.Board,
		Gate:    deps.Gate,
		Context: deps.Context,
		Offset:  func() float64 { return deps.Offsets().Reminder.VerticalOffset },
		Anchor:  anchorBelow(KindWeather, anchorTopBand),
		Render:  render,
	})
}
