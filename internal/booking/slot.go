package booking

import (
	"strings"
	"time"
)

// DateLayout is the service date format, interpreted in the business timezone
const DateLayout = "2006-01-02"

// Slot is a named service window within a day
type Slot string

const (
	Slot1 Slot = "Slot 1"
	Slot2 Slot = "Slot 2"
	Slot3 Slot = "Slot 3"
)

type slotHours struct {
	start, end int
}

var slotWindows = map[Slot]slotHours{
	Slot1: {start: 8, end: 12},
	Slot2: {start: 13, end: 17},
	Slot3: {start: 18, end: 22},
}

// AllSlots returns the slots in day order
func AllSlots() []Slot {
	return []Slot{Slot1, Slot2, Slot3}
}

// ParseSlot validates a slot name
func ParseSlot(s string) (Slot, error) {
	slot := Slot(strings.TrimSpace(s))
	if _, ok := slotWindows[slot]; !ok {
		return "", ErrInvalidSlot
	}
	return slot, nil
}

// ParseDate parses a service date in the given location.
// A full timestamp is accepted and truncated to its date part.
func ParseDate(date string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	date = strings.TrimSpace(date)
	if i := strings.IndexByte(date, 'T'); i > 0 {
		date = date[:i]
	}
	day, err := time.ParseInLocation(DateLayout, date, loc)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return day, nil
}

// Window returns the start and end instants of the slot on day.
// day must be midnight in the business timezone, as returned by ParseDate.
func (s Slot) Window(day time.Time) (time.Time, time.Time) {
	h := slotWindows[s]
	y, m, d := day.Date()
	loc := day.Location()
	start := time.Date(y, m, d, h.start, 0, 0, 0, loc)
	end := time.Date(y, m, d, h.end, 0, 0, 0, loc)
	return start.UTC(), end.UTC()
}

func (s Slot) String() string {
	return string(s)
}
