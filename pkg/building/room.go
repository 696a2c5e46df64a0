// Package building describes the fixed room universe of the building, the
// sensors installed in it and the time-of-day slots used to index priors.
package building

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// RoomCount is the number of rooms in the building.
const RoomCount = 34

// ErrUnknownRoom is returned when a room or sensor id is outside the fixed universe.
var ErrUnknownRoom = errors.New("unknown room")

// Room identifies one of the building's rooms ("r1".."r34").
type Room string

var rooms = func() []Room {
	out := make([]Room, RoomCount)
	for i := range out {
		out[i] = Room(fmt.Sprintf("r%d", i+1))
	}
	return out
}()

// Rooms returns every room in numeric order. The slice is a copy.
func Rooms() []Room {
	out := make([]Room, len(rooms))
	copy(out, rooms)
	return out
}

// Number returns the numeric part of the room id, or 0 if the id is invalid.
func (r Room) Number() int {
	s, ok := strings.CutPrefix(string(r), "r")
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > RoomCount {
		return 0
	}
	if strconv.Itoa(n) != s {
		return 0
	}
	return n
}

// Valid reports whether the room belongs to the building.
func (r Room) Valid() bool {
	return r.Number() != 0
}

// ParseRoom validates a room id
func ParseRoom(s string) (Room, error) {
	r := Room(strings.TrimSpace(s))
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownRoom, s)
	}
	return r, nil
}

// LightFor returns the light identifier controlling the room ("lights7" for "r7").
func LightFor(r Room) string {
	return fmt.Sprintf("lights%d", r.Number())
}
