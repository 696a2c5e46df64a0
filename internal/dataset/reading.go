package dataset

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/saaga0h/jeeves-occupancy/pkg/building"
)

// ErrData marks malformed or missing log content.
var ErrData = errors.New("data error")

// SensorKind tags a reading with the kind of sensor that produced it
type SensorKind string

const (
	KindMotion SensorKind = "motion"
	KindCamera SensorKind = "camera"
	KindDoor   SensorKind = "door"
	KindRobot  SensorKind = "robot"
)

// Reading is one sensor value for one timestep
type Reading interface {
	Kind() SensorKind
}

// MotionReading is a binary motion trigger
type MotionReading struct {
	Detected bool
}

// CameraReading is a person count reported by a camera
type CameraReading struct {
	Count int
}

// DoorReading is a door sensor's activity count for one timestep.
// The logs carry a count; "open" and "closed" map to 1 and 0.
type DoorReading struct {
	Count int
}

// RobotReading is a mobile robot's (location, count) report
type RobotReading struct {
	Location string
	Count    int
}

func (MotionReading) Kind() SensorKind { return KindMotion }
func (CameraReading) Kind() SensorKind { return KindCamera }
func (DoorReading) Kind() SensorKind   { return KindDoor }
func (RobotReading) Kind() SensorKind  { return KindRobot }

// Active reports whether the door sensor registered any activity.
func (d DoorReading) Active() bool {
	return d.Count > 0
}

// Room returns the reported location as a room, if it names one.
// Corridor and empty reports return false.
func (r RobotReading) Room() (building.Room, bool) {
	room := building.Room(r.Location)
	return room, room.Valid()
}

var robotPattern = regexp.MustCompile(`^\(\s*['"]?([^'",()]*?)['"]?\s*,\s*(-?[0-9]+(?:\.0+)?)\s*\)$`)

// ParseReading converts a raw log cell into a typed reading
func ParseReading(kind SensorKind, raw string) (Reading, error) {
	value := strings.TrimSpace(raw)

	switch kind {
	case KindMotion:
		switch strings.ToLower(value) {
		case "motion":
			return MotionReading{Detected: true}, nil
		case "no motion":
			return MotionReading{Detected: false}, nil
		}
		return nil, fmt.Errorf("%w: invalid motion state %q", ErrData, raw)

	case KindCamera:
		count, err := ParseCount(value)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid camera count %q", ErrData, raw)
		}
		return CameraReading{Count: count}, nil

	case KindDoor:
		switch strings.ToLower(value) {
		case "open":
			return DoorReading{Count: 1}, nil
		case "closed":
			return DoorReading{Count: 0}, nil
		}
		count, err := ParseCount(value)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid door reading %q", ErrData, raw)
		}
		return DoorReading{Count: count}, nil

	case KindRobot:
		m := robotPattern.FindStringSubmatch(value)
		if m == nil {
			return nil, fmt.Errorf("%w: invalid robot report %q", ErrData, raw)
		}
		count, err := ParseCount(m[2])
		if err != nil {
			return nil, fmt.Errorf("%w: invalid robot count %q", ErrData, raw)
		}
		return RobotReading{Location: strings.TrimSpace(m[1]), Count: count}, nil
	}

	return nil, fmt.Errorf("%w: unknown sensor kind %q", ErrData, kind)
}

// ParseCount parses a non-negative integer count. Integral floats ("2.0") are accepted.
func ParseCount(v string) (int, error) {
	v = strings.TrimSpace(v)
	if n, err := strconv.Atoi(v); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("negative count %d", n)
		}
		return n, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, err
	}
	if f < 0 || f != float64(int(f)) {
		return 0, fmt.Errorf("count %q is not a non-negative integer", v)
	}
	return int(f), nil
}
