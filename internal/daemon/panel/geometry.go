package panel

import "github.com/notchly-app/notchly/internal/models"

// MaxVerticalOffset bounds the user-configurable placement offset in points.
const MaxVerticalOffset = 160.0

const (
	// safeMargin keeps widgets off the very edge of the screen.
	safeMargin = 24.0
	// siblingGap separates vertically stacked widgets.
	siblingGap = 12.0
	// topBand and bottomBand are the default distances from the screen edge
	// for widgets with no visible sibling to stack against.
	topBand    = 96.0
	bottomBand = 120.0
)

// Size is a widget's content size in points.
type Size struct {
	W, H float64
}

// ClampOffset limits a configured vertical offset to ±MaxVerticalOffset.
func ClampOffset(v float64) float64 {
	if v > MaxVerticalOffset {
		return MaxVerticalOffset
	}
	if v < -MaxVerticalOffset {
		return -MaxVerticalOffset
	}
	return v
}

// FrameFor computes a widget frame: centered horizontally on the screen,
// bottom edge at anchorY shifted by the clamped offset, then clamped into
// the screen's safe band so it never runs off-screen.
func FrameFor(screen models.Rect, size Size, anchorY, offset float64) models.Rect {
	frame := models.Rect{
		X: screen.X + (screen.W-size.W)/2,
		Y: anchorY + ClampOffset(offset),
		W: size.W,
		H: size.H,
	}
	return clampToSafeBand(screen, frame)
}

func clampToSafeBand(screen, frame models.Rect) models.Rect {
	minY := screen.Y + safeMargin
	maxY := screen.MaxY() - safeMargin - frame.H
	if maxY < minY {
		maxY = minY
	}
	if frame.Y < minY {
		frame.Y = minY
	}
	if frame.Y > maxY {
		frame.Y = maxY
	}

	if frame.X < screen.X {
		frame.X = screen.X
	}
	if frame.MaxX() > screen.MaxX() {
		frame.X = screen.MaxX() - frame.W
	}
	return frame
}

// Anchor resolves the bottom Y coordinate a widget stacks from, given the
// current sibling frames.
type Anchor func(board *Board, screen models.Rect, size Size) float64

// anchorBottomBand places the widget a fixed distance above the screen bottom.
func anchorBottomBand(_ *Board, screen models.Rect, _ Size) float64 {
	return screen.Y + bottomBand
}

// anchorTopBand places the widget a fixed distance below the screen top.
func anchorTopBand(_ *Board, screen models.Rect, size Size) float64 {
	return screen.MaxY() - topBand - size.H
}

// anchorAbove stacks the widget above a sibling's top edge, falling back
// when the sibling is not visible.
func anchorAbove(sibling Kind, fallback Anchor) Anchor {
	return func(board *Board, screen models.Rect, size Size) float64 {
		if f, ok := board.Frame(sibling); ok {
			return f.MaxY() + siblingGap
		}
		return fallback(board, screen, size)
	}
}

// anchorBelow stacks the widget below a sibling's bottom edge, falling back
// when the sibling is not visible.
func anchorBelow(sibling Kind, fallback Anchor) Anchor {
	return func(board *Board, screen models.Rect, size Size) float64 {
		if f, ok := board.Frame(sibling); ok {
			return f.Y - siblingGap - size.H
		}
		return fallback(board, screen, size)
	}
}
