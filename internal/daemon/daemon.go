// Package daemon is the composition root: it wires the event source
// adapters, state machines, lock coordinator, and panel managers together
// and owns their lifecycles. Nothing in here is a singleton; every
// dependency is passed in explicitly.
package daemon

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/notchly-app/notchly/internal/buildinfo"
	"github.com/notchly-app/notchly/internal/config"
	"github.com/notchly-app/notchly/internal/daemon/calendar"
	"github.com/notchly-app/notchly/internal/daemon/lockstate"
	"github.com/notchly-app/notchly/internal/daemon/notify"
	"github.com/notchly-app/notchly/internal/daemon/panel"
	"github.com/notchly-app/notchly/internal/daemon/prefs"
	"github.com/notchly-app/notchly/internal/daemon/reminder"
	"github.com/notchly-app/notchly/internal/daemon/systimer"
	"github.com/notchly-app/notchly/internal/daemon/weather"
	"github.com/notchly-app/notchly/internal/models"
)

// Refresh cadences for the cron scheduler.
const (
	calendarRefreshSpec = "@every 5m"
	weatherRefreshSpec  = "@every 30m"
)

// Options configures a Daemon. Nil fields get working defaults; tests and
// the native UI layer inject their own.
type Options struct {
	Settings *models.Settings
	// Surfaces creates the OS windows for the panel managers. Nil installs
	// logging stubs; the native window layer registers real surfaces.
	Surfaces panel.SurfaceFactory
	// Overlay receives reminder sneak-peek requests.
	Overlay reminder.Overlay
	// Chimer plays lock/unlock sounds. Nil disables chimes.
	Chimer lockstate.Chimer
	// Notifications is the lock/wake notification source. Nil uses the
	// log-stream source.
	Notifications notify.Source
	// Screens enumerates displays for the lock coordinator. Nil means a
	// single unknown screen, which disables widget placement.
	Screens func() []models.Screen
	// CacheDir overrides the weather cache location. Empty uses
	// ~/.notchly/cache.
	CacheDir string
}

// Daemon owns every long-lived component of the notchly background process.
type Daemon struct {
	mu       sync.Mutex
	settings *models.Settings

	store       *calendar.Store
	reminders   *reminder.Manager
	timers      *systimer.Manager
	bridge      *systimer.Bridge
	timerStream *systimer.Stream
	coordinator *lockstate.Coordinator
	weather     *weather.Service
	watcher     *prefs.Watcher
	cron        *cron.Cron

	notifications notify.Source
	startStream   func(ctx context.Context) // nil when Notifications was injected

	board         *panel.Board
	musicPanel    *panel.Manager[models.MusicSnapshot]
	weatherPanel  *panel.Manager[models.WeatherSnapshot]
	timerPanel    *panel.Manager[models.TimerSnapshot]
	reminderPanel *panel.Manager[models.ReminderSnapshot]

	eventsCh   chan []models.CalendarEvent
	settingsCh chan models.ReminderConfig

	cancel  context.CancelFunc
	stopped chan struct{}
}

// New wires a daemon from options.
func New(opts Options) (*Daemon, error) {
	settings := opts.Settings
	if settings == nil {
		loaded, err := config.LoadSettings()
		if err != nil {
			return nil, fmt.Errorf("load settings: %w", err)
		}
		settings = loaded
	}

	d := &Daemon{
		settings:   settings,
		eventsCh:   make(chan []models.CalendarEvent, 4),
		settingsCh: make(chan models.ReminderConfig, 4),
		stopped:    make(chan struct{}),
	}

	overlay := opts.Overlay
	if overlay == nil {
		overlay = logOverlay{}
	}

	d.store = calendar.NewStore(settings.Calendars)
	d.reminders = reminder.NewManager(reminder.Options{
		Config:  settings.Reminders,
		Overlay: overlay,
	})

	d.timers = systimer.NewManager(nil)
	d.bridge = systimer.NewBridge(d.timers, systimer.NewScriptProbe(), nil)
	d.timerStream = systimer.NewStream(d.bridge, "")

	d.coordinator = lockstate.NewCoordinator(lockstate.Options{
		Chimer:   opts.Chimer,
		Settings: func() models.LockScreenConfig { return d.currentSettings().LockScreen },
		Screens:  opts.Screens,
	})

	surfaces := opts.Surfaces
	if surfaces == nil {
		surfaces = newStubSurface
	}
	d.board = panel.NewBoard()
	deps := panel.Deps{
		Surface: surfaces,
		Board:   d.board,
		Gate:    d.coordinator.IsLocked,
		Context: d.coordinator.LockScreenContext,
		Offsets: func() models.WidgetsConfig { return d.currentSettings().Widgets },
	}
	d.musicPanel = panel.NewMusicManager(deps, nil)
	d.weatherPanel = panel.NewWeatherManager(deps, nil)
	d.timerPanel = panel.NewTimerManager(deps, nil)
	d.reminderPanel = panel.NewReminderManager(deps, nil)

	cacheDir := opts.CacheDir
	if cacheDir == "" {
		if dir, err := config.GlobalCacheDir(); err == nil {
			cacheDir = dir
		}
	}
	d.weather = weather.NewService(weather.Options{
		Providers: []weather.Provider{&weather.OpenMeteo{}, &weather.MetNo{}},
		CacheDir:  cacheDir,
		Settings:  func() models.WeatherConfig { return d.currentSettings().Weather },
	})

	d.notifications = opts.Notifications
	if d.notifications == nil {
		src := notify.NewStreamSource()
		d.notifications = src
		d.startStream = src.Start
	}

	watcher, err := prefs.New()
	if err != nil {
		return nil, fmt.Errorf("create prefs watcher: %w", err)
	}
	d.watcher = watcher

	d.cron = cron.New()
	return d, nil
}

// Run starts every component and blocks until ctx is cancelled.
func (d *Daemon) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	defer close(d.stopped)

	if err := config.EnsureGlobalDir(); err != nil {
		return err
	}

	// Reminder state machine and its debounced inputs.
	go d.reminders.Run(ctx, d.eventsCh, d.settingsCh)

	// System timer mirror: log stream with AX fallback.
	go d.timerStream.Run(ctx)
	if meta, err := config.LoadTimerMeta(); err == nil && meta.Name != "" {
		d.bridge.SetPreferenceMetadata(meta.Name, meta.Duration())
	}

	// Lock/wake notifications feed the coordinator and everything gated
	// behind it.
	if d.startStream != nil {
		d.startStream(ctx)
	}
	go d.routeNotifications(ctx)

	// Calendar events into the reminder manager.
	storeCh := d.store.Subscribe("daemon")
	go d.routeCalendarEvents(ctx, storeCh)

	// Snapshot feeds into the lock-screen widgets.
	go d.routeSnapshots(ctx)

	// Lock flips gate the reminder recompute queue.
	go d.routeLockChanges(ctx)

	// Settings hot reload and external timer metadata.
	if err := d.watcher.Start(); err != nil {
		log.Printf("[daemon] prefs watcher failed to start: %v", err)
	} else {
		go d.routePrefs(ctx)
	}

	// Periodic refreshes, plus one immediate round.
	if _, err := d.cron.AddFunc(calendarRefreshSpec, func() { d.refreshCalendar(ctx) }); err != nil {
		return fmt.Errorf("schedule calendar refresh: %w", err)
	}
	if _, err := d.cron.AddFunc(weatherRefreshSpec, func() { d.refreshWeather(ctx) }); err != nil {
		return fmt.Errorf("schedule weather refresh: %w", err)
	}
	d.cron.Start()
	go d.refreshCalendar(ctx)
	go d.refreshWeather(ctx)

	// Register the widgets with the coordinator now that all managers
	// exist. Show hands each manager its latest snapshot.
	d.registerWidgets()

	log.Printf("[daemon] notchly %s running (pid %d recorded)", buildinfo.Version, d.recordPID())

	<-ctx.Done()
	d.shutdown()
	return nil
}

// Stop requests a shutdown.
func (d *Daemon) Stop() {
	if d.cancel != nil {
		d.cancel()
	}
	<-d.stopped
}

func (d *Daemon) shutdown() {
	d.cron.Stop()
	d.watcher.Stop()
	d.reminders.Stop()
	d.store.Unsubscribe("daemon")
	_ = config.RemoveDaemonInfo()
	log.Printf("[daemon] stopped")
}

func (d *Daemon) recordPID() int {
	info := models.NewDaemonInfo(os.Getpid())
	if err := config.SaveDaemonInfo(info); err != nil {
		log.Printf("[daemon] failed to write daemon.yaml: %v", err)
	}
	return info.PID
}

func (d *Daemon) currentSettings() models.Settings {
	d.mu.Lock()
	defer d.mu.Unlock()
	return *d.settings
}

// registerWidgets connects the panel managers to the lock coordinator's
// show/hide sequencing, each re-showing its latest published snapshot.
func (d *Daemon) registerWidgets() {
	d.coordinator.SetWidgets(lockstate.Widgets{
		Weather:  feedWidget(d.weatherPanel, d.weather.Snapshots()),
		Timer:    feedWidget(d.timerPanel, d.timers.Snapshots()),
		Reminder: feedWidget(d.reminderPanel, d.reminders.Snapshots()),
	})
}

func (d *Daemon) routeNotifications(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-d.notifications.Events():
			if !ok {
				return
			}
			d.coordinator.Handle(ev)
			if ev.Type == notify.EventScreensDidWake || ev.Type == notify.EventScreenParamsChanged {
				d.reminders.Wake()
				d.refreshPanelPositions()
			}
		}
	}
}

func (d *Daemon) refreshPanelPositions() {
	d.musicPanel.RefreshPosition(false)
	d.weatherPanel.RefreshPosition(false)
	d.timerPanel.RefreshPosition(false)
	d.reminderPanel.RefreshPosition(false)
}

func (d *Daemon) routeCalendarEvents(ctx context.Context, ch <-chan []models.CalendarEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case events, ok := <-ch:
			if !ok {
				return
			}
			select {
			case d.eventsCh <- events:
			default:
				log.Printf("[daemon] event channel full, dropping calendar snapshot")
			}
		}
	}
}

func (d *Daemon) routeSnapshots(ctx context.Context) {
	_, reminderCh := d.reminders.Snapshots().Subscribe()
	_, timerCh := d.timers.Snapshots().Subscribe()
	_, weatherCh := d.weather.Snapshots().Subscribe()
	for {
		select {
		case <-ctx.Done():
			return
		case snap := <-reminderCh:
			d.reminderPanel.Update(snap)
		case snap := <-timerCh:
			d.timerPanel.Update(snap)
		case snap := <-weatherCh:
			d.weatherPanel.Update(snap)
		}
	}
}

func (d *Daemon) routeLockChanges(ctx context.Context) {
	_, lockCh := d.coordinator.Locked().Subscribe()
	for {
		select {
		case <-ctx.Done():
			return
		case locked := <-lockCh:
			d.reminders.HandleLockChange(locked)
		}
	}
}

func (d *Daemon) routePrefs(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-d.watcher.Events():
			if !ok {
				return
			}
			d.applyPrefChange(ev)
		}
	}
}

func (d *Daemon) applyPrefChange(ev prefs.Event) {
	switch ev.Type {
	case prefs.EventSettingsChanged:
		d.mu.Lock()
		d.settings = ev.Settings
		d.mu.Unlock()
		select {
		case d.settingsCh <- ev.Settings.Reminders:
		default:
		}
		d.refreshPanelPositions()
		log.Printf("[daemon] settings reloaded")
	case prefs.EventTimerMetaChanged:
		d.applyTimerMeta(ev.TimerMeta)
	}
}

func (d *Daemon) applyTimerMeta(meta *models.TimerMeta) {
	switch meta.Action {
	case "start":
		name := meta.Name
		if name == "" {
			name = "Timer"
		}
		d.timers.StartManual(name, meta.Duration())
		log.Printf("[daemon] manual timer %q started (%s)", name, meta.Duration())
	case "stop":
		d.timers.Stop()
		log.Printf("[daemon] manual timer stopped")
	default:
		d.bridge.SetPreferenceMetadata(meta.Name, meta.Duration())
	}
}

func (d *Daemon) refreshCalendar(ctx context.Context) {
	if err := d.store.Refresh(ctx); err != nil {
		log.Printf("[daemon] calendar refresh failed: %v", err)
	}
}

func (d *Daemon) refreshWeather(ctx context.Context) {
	if err := d.weather.Refresh(ctx); err != nil {
		log.Printf("[daemon] weather refresh failed: %v", err)
	}
}

// RefreshWeatherNow triggers an immediate weather refresh, for the tray.
func (d *Daemon) RefreshWeatherNow() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	d.refreshWeather(ctx)
}

// Coordinator exposes the lock coordinator for the UI layer.
func (d *Daemon) Coordinator() *lockstate.Coordinator { return d.coordinator }

// Reminders exposes the reminder manager.
func (d *Daemon) Reminders() *reminder.Manager { return d.reminders }

// Timers exposes the system timer manager.
func (d *Daemon) Timers() *systimer.Manager { return d.timers }

// logOverlay is the default sneak-peek sink until the native overlay layer
// registers itself.
type logOverlay struct{}

func (logOverlay) ShowSneakPeek(kind reminder.PeekKind, snap models.ReminderSnapshot) {
	log.Printf("[overlay] %s peek: %s %s", kind, snap.Title, snap.Relative)
}

// feedWidget adapts a panel manager plus its snapshot feed to the lock
// coordinator's Widget contract: Show renders the latest snapshot.
func feedWidget[T comparable](mgr *panel.Manager[T], feed interface{ Last() (T, bool) }) lockstate.Widget {
	return widgetAdapter[T]{mgr: mgr, feed: feed}
}

type widgetAdapter[T comparable] struct {
	mgr  *panel.Manager[T]
	feed interface{ Last() (T, bool) }
}

func (w widgetAdapter[T]) Show() {
	if snap, ok := w.feed.Last(); ok {
		w.mgr.Show(snap)
	}
}

func (w widgetAdapter[T]) Hide() {
	w.mgr.Hide()
}
