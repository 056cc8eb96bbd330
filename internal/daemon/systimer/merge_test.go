package systimer

import (
	"testing"
	"time"

	"github.com/notchly-app/notchly/internal/models"
)

func durPtr(d time.Duration) *time.Duration { return &d }
func boolPtr(b bool) *bool                  { return &b }
func strPtr(s string) *string               { return &s }

func TestMergePrecedence(t *testing.T) {
	logObs := &models.ExternalObservation{Identifier: "AB12", Remaining: durPtr(100 * time.Second)}
	axObs := &models.ExternalObservation{Remaining: durPtr(90 * time.Second), Name: strPtr("ax title")}
	prefObs := &models.ExternalObservation{Name: strPtr("Tea"), Total: durPtr(5 * time.Minute)}

	got := merge(logObs, axObs, prefObs, sample{})

	if got.Identifier != "AB12" {
		t.Errorf("identifier = %q, want AB12", got.Identifier)
	}
	if got.Remaining == nil || *got.Remaining != 100*time.Second {
		t.Errorf("remaining should come from the log stream, got %v", got.Remaining)
	}
	if got.Name == nil || *got.Name != "ax title" {
		t.Errorf("name should come from the richer AX source, got %v", got.Name)
	}
	if got.Total == nil || *got.Total != 5*time.Minute {
		t.Errorf("total should fall through to preference metadata, got %v", got.Total)
	}
}

func TestMergePausedButDrainingReportsRunning(t *testing.T) {
	// Log says paused, but remaining dropped 2s since the last sample:
	// a paused timer cannot also be losing time.
	logObs := &models.ExternalObservation{
		Identifier: "AB12",
		Paused:     boolPtr(true),
		Remaining:  durPtr(58 * time.Second),
	}
	last := sample{remaining: 60 * time.Second, at: time.Now(), valid: true}

	got := merge(logObs, nil, nil, last)
	if got.Paused == nil || *got.Paused {
		t.Error("bridge must report running, not paused")
	}
}

func TestMergePausedWithinToleranceStaysPaused(t *testing.T) {
	logObs := &models.ExternalObservation{
		Identifier: "AB12",
		Paused:     boolPtr(true),
		Remaining:  durPtr(59500 * time.Millisecond),
	}
	last := sample{remaining: 60 * time.Second, at: time.Now(), valid: true}

	got := merge(logObs, nil, nil, last)
	if got.Paused == nil || !*got.Paused {
		t.Error("a 0.5s drop is within tolerance; paused must stand")
	}
}

func TestMergeIndependentRunningOverridesPaused(t *testing.T) {
	logObs := &models.ExternalObservation{Identifier: "AB12", Paused: boolPtr(true)}
	axObs := &models.ExternalObservation{Paused: boolPtr(false)}

	got := merge(logObs, axObs, nil, sample{})
	if got.Paused == nil || *got.Paused {
		t.Error("independent running report must override paused")
	}
}

func TestMergeFiredSticks(t *testing.T) {
	logObs := &models.ExternalObservation{Identifier: "AB12", Fired: true, Remaining: durPtr(0)}
	prefObs := &models.ExternalObservation{Name: strPtr("Tea")}

	got := merge(logObs, nil, prefObs, sample{})
	if !got.Fired {
		t.Error("fired flag must survive the merge")
	}
}
