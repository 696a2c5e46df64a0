package dataset

import (
	"time"

	"github.com/saaga0h/jeeves-occupancy/pkg/building"
)

// Record is one sampled timestep of the building
type Record struct {
	Source    string        // file the record came from, if any
	Line      int           // line number within Source
	TimeOfDay time.Duration // time since midnight, date discarded

	// Occupancy holds ground-truth occupant counts. Live simulator
	// records may leave it empty.
	Occupancy map[building.Room]int

	Motion  map[string]MotionReading
	Cameras map[string]CameraReading
	Doors   map[string]DoorReading
	Robots  map[string]RobotReading
}

// NewRecord creates an empty record at the given time of day
func NewRecord(timeOfDay time.Duration) *Record {
	return &Record{
		TimeOfDay: timeOfDay,
		Occupancy: make(map[building.Room]int),
		Motion:    make(map[string]MotionReading),
		Cameras:   make(map[string]CameraReading),
		Doors:     make(map[string]DoorReading),
		Robots:    make(map[string]RobotReading),
	}
}

// Occupied reports whether the room had at least one occupant.
func (r *Record) Occupied(room building.Room) bool {
	return r.Occupancy[room] > 0
}

// RobotNames reports whether any robot's report this timestep names the room.
func (r *Record) RobotNames(room building.Room) bool {
	for _, report := range r.Robots {
		if reported, ok := report.Room(); ok && reported == room {
			return true
		}
	}
	return false
}

// Set stores a typed reading under its sensor id
func (r *Record) Set(sensorID string, reading Reading) {
	switch v := reading.(type) {
	case MotionReading:
		r.Motion[sensorID] = v
	case CameraReading:
		r.Cameras[sensorID] = v
	case DoorReading:
		r.Doors[sensorID] = v
	case RobotReading:
		r.Robots[sensorID] = v
	}
}
