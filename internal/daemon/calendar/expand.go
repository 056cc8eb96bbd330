package calendar

import (
	"fmt"
	"log"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/notchly-app/notchly/internal/models"
)

// maxOccurrencesPerEvent caps recurrence expansion so a malformed RRULE
// cannot produce an unbounded event list.
const maxOccurrencesPerEvent = 500

// expandOccurrences turns parsed events into concrete CalendarEvent
// occurrences inside [rangeStart, rangeEnd], handling RRULE, EXDATE and
// RECURRENCE-ID overrides.
func expandOccurrences(events []parsedEvent, info models.CalendarInfo, rangeStart, rangeEnd time.Time) []models.CalendarEvent {
	baseByUID := make(map[string][]parsedEvent)
	overridesByUID := make(map[string][]parsedEvent)
	for _, ev := range events {
		if ev.IsOverride && ev.Recurrence != nil {
			overridesByUID[ev.UID] = append(overridesByUID[ev.UID], ev)
		} else {
			baseByUID[ev.UID] = append(baseByUID[ev.UID], ev)
		}
	}

	out := make([]models.CalendarEvent, 0, len(events))
	for uid, bases := range baseByUID {
		ovs := overridesByUID[uid]
		for _, ev := range bases {
			if ev.RawRRule == "" {
				if rangesOverlap(ev.Start, ev.End, rangeStart, rangeEnd) {
					out = append(out, makeEvent(ev, info, ev.Start, ev.End))
				}
				continue
			}
			out = append(out, expandRecurring(ev, ovs, info, rangeStart, rangeEnd)...)
		}
	}
	return out
}

func expandRecurring(ev parsedEvent, overrides []parsedEvent, info models.CalendarInfo, rangeStart, rangeEnd time.Time) []models.CalendarEvent {
	r, err := rrule.StrToRRule(ev.RawRRule)
	if err != nil {
		log.Printf("[calendar] bad RRULE for %s: %v", ev.UID, err)
		return nil
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	loc := ev.Start.Location()
	starts := set.Between(rangeStart.In(loc), rangeEnd.In(loc), true)
	if len(starts) > maxOccurrencesPerEvent {
		log.Printf("[calendar] truncating occurrences for %s at %d", ev.UID, maxOccurrencesPerEvent)
		starts = starts[:maxOccurrencesPerEvent]
	}

	dur := ev.End.Sub(ev.Start)
	out := make([]models.CalendarEvent, 0, len(starts))
	for _, start := range starts {
		end := start.Add(dur)
		if ev.AllDay {
			day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
			start, end = day, day.Add(24*time.Hour)
		}

		inst := ev
		if o, ok := findOverride(overrides, start); ok {
			inst, start, end = o, o.Start, o.End
		}
		out = append(out, makeEvent(inst, info, start, end))
	}
	return out
}

func findOverride(overrides []parsedEvent, start time.Time) (parsedEvent, bool) {
	for _, ov := range overrides {
		if ov.Recurrence != nil && ov.Recurrence.In(start.Location()).Equal(start) {
			return ov, true
		}
	}
	return parsedEvent{}, false
}

func makeEvent(ev parsedEvent, info models.CalendarInfo, start, end time.Time) models.CalendarEvent {
	return models.CalendarEvent{
		// Per-occurrence id so two instances of one recurring event stay distinct.
		ID:         fmt.Sprintf("%s/%s", ev.UID, start.Format(time.RFC3339)),
		Title:      ev.Summary,
		Start:      start,
		End:        end,
		AllDay:     ev.AllDay,
		CalendarID: info.ID,
		Color:      info.Color,
		IsReminder: ev.IsTodo,
		Completed:  ev.Completed,
		Attendance: models.AttendanceStatus(ev.Attendance),
	}
}

func rangesOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aEnd.Before(bStart) && !bEnd.Before(aStart)
}
