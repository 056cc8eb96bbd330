package daemon

import (
	"log"

	"github.com/notchly-app/notchly/internal/daemon/panel"
	"github.com/notchly-app/notchly/internal/models"
)

// stubSurface stands in for the native window layer. It logs placement so
// the full pipeline stays observable when the daemon runs without the UI
// process attached.
type stubSurface struct {
	kind panel.Kind
}

func newStubSurface(kind panel.Kind) panel.Surface {
	return &stubSurface{kind: kind}
}

func (s *stubSurface) SetFrame(frame models.Rect, animated bool) {
	log.Printf("[surface] %s frame x=%.0f y=%.0f w=%.0f h=%.0f animated=%t",
		s.kind, frame.X, frame.Y, frame.W, frame.H, animated)
}

func (s *stubSurface) OrderFront()         { log.Printf("[surface] %s front", s.kind) }
func (s *stubSurface) OrderOut()           { log.Printf("[surface] %s out", s.kind) }
func (s *stubSurface) Attach()             {}
func (s *stubSurface) Detach()             {}
func (s *stubSurface) ExcludeFromCapture() {}
