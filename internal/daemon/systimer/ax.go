package systimer

import (
	"bytes"
	"context"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/notchly-app/notchly/internal/models"
)

// axScriptTimeout bounds one accessibility read.
const axScriptTimeout = 800 * time.Millisecond

// readTimerScript asks System Events for the menu-bar timer indicator's
// title. Empty output means no timer is visible.
const readTimerScript = `tell application "System Events" to tell process "Clock"
	try
		get value of attribute "AXTitle" of menu bar item 1 of menu bar 2
	on error
		return ""
	end try
end tell`

// trustScript succeeds only when this process is trusted for Accessibility.
const trustScript = `tell application "System Events" to count processes`

// indicatorPattern matches countdown text like "4:59" or "1:04:59",
// optionally with a leading pause glyph.
var indicatorPattern = regexp.MustCompile(`(?:(\d+):)?(\d{1,2}):(\d{2})`)

// ScriptProbe reads the menu-bar timer through osascript-driven
// Accessibility queries. Used as the fallback source while the log stream is
// down.
type ScriptProbe struct{}

// NewScriptProbe creates the osascript-backed probe.
func NewScriptProbe() *ScriptProbe {
	return &ScriptProbe{}
}

// Trusted reports whether Accessibility control is granted. A denied probe
// fails fast; the bridge logs that once and stays inert.
func (p *ScriptProbe) Trusted() bool {
	ctx, cancel := context.WithTimeout(context.Background(), axScriptTimeout)
	defer cancel()
	return exec.CommandContext(ctx, "osascript", "-e", trustScript).Run() == nil
}

// ReadTimer returns the current indicator reading, or nil when no timer
// element is visible.
func (p *ScriptProbe) ReadTimer() (*models.ExternalObservation, error) {
	ctx, cancel := context.WithTimeout(context.Background(), axScriptTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "osascript", "-e", readTimerScript)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return nil, err
	}

	text := strings.TrimSpace(stdout.String())
	if text == "" {
		return nil, nil
	}
	return parseIndicator(text, time.Now()), nil
}

// parseIndicator turns indicator text into an observation. The pause glyph
// the indicator shows while suspended marks the reading paused.
func parseIndicator(text string, now time.Time) *models.ExternalObservation {
	m := indicatorPattern.FindStringSubmatch(text)
	if m == nil {
		return nil
	}

	hours := 0
	if m[1] != "" {
		hours, _ = strconv.Atoi(m[1])
	}
	mins, _ := strconv.Atoi(m[2])
	secs, _ := strconv.Atoi(m[3])
	remaining := time.Duration(hours)*time.Hour + time.Duration(mins)*time.Minute + time.Duration(secs)*time.Second

	paused := strings.ContainsRune(text, '⏸') // ⏸
	return &models.ExternalObservation{
		Remaining:  &remaining,
		Paused:     &paused,
		ObservedAt: now,
	}
}
