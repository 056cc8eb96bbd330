package calendar

import (
	"bytes"
	"errors"
	"log"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
)

// parsedEvent is the normalized representation of a VEVENT/VTODO before
// recurrence expansion.
type parsedEvent struct {
	SourceID string
	UID      string

	Summary string
	Start   time.Time
	End     time.Time
	AllDay  bool

	IsTodo    bool // reminder-type item
	Completed bool

	Attendance string // PARTSTAT, lowercased

	RawRRule   string
	ExDates    []time.Time
	Recurrence *time.Time // RECURRENCE-ID, if this VEVENT overrides an instance
	IsOverride bool
}

// parseICS parses one ICS payload into parsed events. Individual component
// failures are logged and skipped; the rest of the feed still applies.
func parseICS(sourceID string, body []byte) ([]parsedEvent, error) {
	if len(body) == 0 {
		return nil, errors.New("empty ICS body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	events := make([]parsedEvent, 0)
	for _, comp := range cal.Events() {
		ev, perr := parseVEvent(sourceID, comp)
		if perr != nil {
			log.Printf("[calendar] skipping component in %s: %v", sourceID, perr)
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

func parseVEvent(sourceID string, ve *ical.VEvent) (parsedEvent, error) {
	var out parsedEvent
	out.SourceID = sourceID

	uidProp := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uidProp == nil || uidProp.Value == "" {
		return out, errors.New("missing UID")
	}
	out.UID = uidProp.Value

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Summary = p.Value
	}

	start, _ := ve.GetStartAt()
	end, _ := ve.GetEndAt()
	out.Start = start
	out.End = end

	// All-day if DTSTART carries VALUE=DATE or has no time component.
	if dtStart := ve.GetProperty(ical.ComponentPropertyDtStart); dtStart != nil {
		if params := dtStart.ICalParameters; params != nil {
			if vs, ok := params["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
				out.AllDay = true
			}
		}
		if !strings.Contains(dtStart.Value, "T") {
			out.AllDay = true
		}
	}

	if p := ve.GetProperty(ical.ComponentPropertyStatus); p != nil {
		if strings.EqualFold(p.Value, "COMPLETED") {
			out.IsTodo = true
			out.Completed = true
		}
	}

	if p := ve.GetProperty(ical.ComponentPropertyAttendee); p != nil {
		if params := p.ICalParameters; params != nil {
			if ps, ok := params["PARTSTAT"]; ok && len(ps) > 0 {
				out.Attendance = strings.ToLower(ps[0])
			}
		}
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		out.RawRRule = p.Value
	}

	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if t, err := parseICSTime(part); err == nil {
				out.ExDates = append(out.ExDates, t)
			}
		}
	}

	if p := ve.GetProperty("RECURRENCE-ID"); p != nil {
		if t, err := parseICSTime(p.Value); err == nil {
			out.Recurrence = &t
			out.IsOverride = true
		}
	}

	return out, nil
}

// parseICSTime parses a basic ICS date/date-time string.
func parseICSTime(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, errors.New("empty time value")
	}

	if strings.HasSuffix(v, "Z") {
		return time.Parse("20060102T150405Z", v)
	}
	if strings.Contains(v, "T") {
		return time.ParseInLocation("20060102T150405", v, time.Local)
	}
	return time.ParseInLocation("20060102", v, time.Local)
}
