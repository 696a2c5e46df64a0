package building

import (
	"fmt"
	"time"
)

// SlotDuration is the granularity of time-of-day slots.
const SlotDuration = 15 * time.Minute

// TimeSlot is a time of day quantized to SlotDuration, stored as minutes since midnight.
type TimeSlot int

// SlotOf floors a time of day (duration since midnight) to its slot.
func SlotOf(timeOfDay time.Duration) TimeSlot {
	step := int(SlotDuration / time.Minute)
	minutes := int(timeOfDay / time.Minute)
	return TimeSlot(minutes / step * step)
}

// String renders the slot as HH:MM
func (s TimeSlot) String() string {
	return fmt.Sprintf("%02d:%02d", int(s)/60, int(s)%60)
}

// ParseTimeSlot parses an HH:MM string aligned to the slot grid.
func ParseTimeSlot(v string) (TimeSlot, error) {
	t, err := time.Parse("15:04", v)
	if err != nil {
		return 0, fmt.Errorf("invalid time slot %q: %w", v, err)
	}
	slot := TimeSlot(t.Hour()*60 + t.Minute())
	if int(slot)%int(SlotDuration/time.Minute) != 0 {
		return 0, fmt.Errorf("invalid time slot %q: not aligned to %s", v, SlotDuration)
	}
	return slot, nil
}

// MarshalText implements encoding.TextMarshaler so slots can key JSON objects.
func (s TimeSlot) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *TimeSlot) UnmarshalText(text []byte) error {
	v, err := ParseTimeSlot(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Window is the daily operating window covered by priors. End is exclusive.
type Window struct {
	Start TimeSlot
	End   TimeSlot
}

// DefaultWindow covers 08:00 to 18:00.
func DefaultWindow() Window {
	return Window{Start: 8 * 60, End: 18 * 60}
}

// ParseWindow builds a window from two HH:MM strings.
func ParseWindow(start, end string) (Window, error) {
	s, err := ParseTimeSlot(start)
	if err != nil {
		return Window{}, err
	}
	e, err := ParseTimeSlot(end)
	if err != nil {
		return Window{}, err
	}
	if e <= s {
		return Window{}, fmt.Errorf("window end %s must be after start %s", e, s)
	}
	return Window{Start: s, End: e}, nil
}

// Slots lists every slot in the window in order.
func (w Window) Slots() []TimeSlot {
	step := TimeSlot(SlotDuration / time.Minute)
	var out []TimeSlot
	for s := w.Start; s < w.End; s += step {
		out = append(out, s)
	}
	return out
}

// Last returns the last slot of the window.
func (w Window) Last() TimeSlot {
	return w.End - TimeSlot(SlotDuration/time.Minute)
}

// Contains reports whether the slot lies inside the window.
func (w Window) Contains(s TimeSlot) bool {
	return s >= w.Start && s < w.End
}

// SlotFor quantizes a time of day. Anything at or past the window end
// clamps to the last slot of the day; earlier times keep their own slot.
func (w Window) SlotFor(timeOfDay time.Duration) TimeSlot {
	s := SlotOf(timeOfDay)
	if s >= w.End {
		return w.Last()
	}
	return s
}
