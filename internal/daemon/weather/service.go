package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/peterbourgon/diskv/v3"

	"github.com/notchly-app/notchly/internal/bus"
	"github.com/notchly-app/notchly/internal/models"
)

// fetchTimeout bounds one provider attempt.
const fetchTimeout = 10 * time.Second

const cacheKey = "weather-last-good"

// Options configures the weather service.
type Options struct {
	// Providers in no particular order; the preferred one is selected per
	// refresh from settings.
	Providers []Provider
	// CacheDir is where the last good snapshot is persisted. Empty disables
	// persistence.
	CacheDir string
	// Settings supplies the current weather configuration.
	Settings func() models.WeatherConfig
}

// Service refreshes weather through the configured providers and keeps the
// last good snapshot warm across failures and restarts.
type Service struct {
	mu sync.Mutex

	providers []Provider
	cache     *diskv.Diskv
	settings  func() models.WeatherConfig

	current models.WeatherSnapshot
	hasGood bool

	feed *bus.Feed[models.WeatherSnapshot]
}

// NewService creates the service. A persisted last-good snapshot is restored
// immediately; otherwise the placeholder snapshot is published so the widget
// renders "--" until the first fetch succeeds.
func NewService(opts Options) *Service {
	s := &Service{
		providers: opts.Providers,
		settings:  opts.Settings,
		feed:      bus.NewFeed[models.WeatherSnapshot](),
	}
	if opts.CacheDir != "" {
		s.cache = diskv.New(diskv.Options{
			BasePath:     opts.CacheDir,
			CacheSizeMax: 1 << 16,
		})
	}
	if snap, ok := s.restore(); ok {
		s.current = snap
		s.hasGood = true
		s.feed.Publish(snap)
	} else {
		s.current = models.PlaceholderWeather()
		s.feed.Publish(s.current)
	}
	return s
}

// Snapshots returns the snapshot feed.
func (s *Service) Snapshots() *bus.Feed[models.WeatherSnapshot] { return s.feed }

// Snapshot returns the current snapshot.
func (s *Service) Snapshot() models.WeatherSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Refresh fetches from the preferred provider, falling back to one secondary
// attempt. On total failure the last good snapshot stays published.
func (s *Service) Refresh(ctx context.Context) error {
	cfg := models.WeatherConfig{}
	if s.settings != nil {
		cfg = s.settings()
	}

	var lastErr error
	for i, p := range s.orderedProviders(cfg.Provider) {
		if i > 1 {
			break
		}
		attemptCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
		snap, err := p.Fetch(attemptCtx, cfg)
		cancel()
		if err != nil {
			log.Printf("[weather] %s fetch failed: %v", p.Name(), err)
			lastErr = err
			continue
		}
		s.apply(snap)
		return nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("weather: no providers configured")
	}
	return lastErr
}

func (s *Service) orderedProviders(preferred string) []Provider {
	ordered := make([]Provider, 0, len(s.providers))
	for _, p := range s.providers {
		if p.Name() == preferred {
			ordered = append(ordered, p)
		}
	}
	for _, p := range s.providers {
		if p.Name() != preferred {
			ordered = append(ordered, p)
		}
	}
	return ordered
}

func (s *Service) apply(snap models.WeatherSnapshot) {
	s.mu.Lock()
	s.current = snap
	s.hasGood = true
	s.mu.Unlock()

	s.feed.Publish(snap)
	s.persist(snap)
}

func (s *Service) persist(snap models.WeatherSnapshot) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return
	}
	if err := s.cache.Write(cacheKey, data); err != nil {
		log.Printf("[weather] cache write failed: %v", err)
	}
}

func (s *Service) restore() (models.WeatherSnapshot, bool) {
	if s.cache == nil || !s.cache.Has(cacheKey) {
		return models.WeatherSnapshot{}, false
	}
	data, err := s.cache.Read(cacheKey)
	if err != nil {
		return models.WeatherSnapshot{}, false
	}
	var snap models.WeatherSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return models.WeatherSnapshot{}, false
	}
	return snap, true
}
