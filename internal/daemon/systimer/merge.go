package systimer

import (
	"time"

	"github.com/notchly-app/notchly/internal/models"
)

// pausedDriftTolerance is how much remaining time may shrink between samples
// before a "paused" report is overridden: a paused timer cannot also be
// losing time.
const pausedDriftTolerance = 750 * time.Millisecond

// sample is the last applied remaining-time reading, used to detect drift.
type sample struct {
	remaining time.Duration
	at        time.Time
	valid     bool
}

// merge combines up to three partial observations of the external timer into
// one. Precedence is fixed — log stream over accessibility poll over
// preference metadata — and never depends on call order. The paused/running
// conflict rule from the bridge design lives here and nowhere else:
//
//   - if the winning source reports paused but remaining has measurably
//     decreased since the last applied sample, the result is running;
//   - if any source reports running while the winner reports paused, running
//     wins.
func merge(logObs, axObs, prefObs *models.ExternalObservation, last sample) models.ExternalObservation {
	var out models.ExternalObservation

	// Lowest priority first; richer sources overwrite field by field.
	for _, obs := range []*models.ExternalObservation{prefObs, axObs, logObs} {
		if obs == nil {
			continue
		}
		if obs.Identifier != "" {
			out.Identifier = obs.Identifier
		}
		if obs.Name != nil {
			out.Name = obs.Name
		}
		if obs.Total != nil {
			out.Total = obs.Total
		}
		if obs.Remaining != nil {
			out.Remaining = obs.Remaining
		}
		if obs.Paused != nil {
			out.Paused = obs.Paused
		}
		if obs.Fired {
			out.Fired = true
		}
		if obs.ObservedAt.After(out.ObservedAt) {
			out.ObservedAt = obs.ObservedAt
		}
	}

	if out.Paused != nil && *out.Paused {
		if anyReportsRunning(logObs, axObs, prefObs) {
			running := false
			out.Paused = &running
		} else if out.Remaining != nil && last.valid && last.remaining-*out.Remaining > pausedDriftTolerance {
			running := false
			out.Paused = &running
		}
	}

	return out
}

func anyReportsRunning(obs ...*models.ExternalObservation) bool {
	running := 0
	paused := 0
	for _, o := range obs {
		if o == nil || o.Paused == nil {
			continue
		}
		if *o.Paused {
			paused++
		} else {
			running++
		}
	}
	return running > 0 && paused > 0
}
