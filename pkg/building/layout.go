package building

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Layout maps every installed sensor to the room it observes
type Layout struct {
	MotionSensors map[string]Room `yaml:"motion_sensors"`
	Cameras       map[string]Room `yaml:"cameras"`
	DoorSensors   map[string]Room `yaml:"door_sensors"`
	Robots        []string        `yaml:"robots"`
}

// DefaultLayout returns the sensor placement of the reference floor plan.
func DefaultLayout() *Layout {
	return &Layout{
		MotionSensors: map[string]Room{
			"motion_sensor1": "r1",
			"motion_sensor2": "r14",
			"motion_sensor3": "r19",
			"motion_sensor4": "r28",
			"motion_sensor5": "r29",
			"motion_sensor6": "r32",
		},
		Cameras: map[string]Room{
			"camera1": "r3",
			"camera2": "r21",
			"camera3": "r25",
			"camera4": "r34",
		},
		DoorSensors: map[string]Room{
			"door_sensor1": "r2",
			"door_sensor2": "r3",
			"door_sensor3": "r20",
			"door_sensor4": "r26",
			"door_sensor5": "r28",
		},
		Robots: []string{"robot1", "robot2"},
	}
}

// LoadLayout reads and validates a layout from a YAML file
func LoadLayout(path string) (*Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read layout file: %w", err)
	}

	var layout Layout
	if err := yaml.Unmarshal(data, &layout); err != nil {
		return nil, fmt.Errorf("failed to parse layout YAML: %w", err)
	}

	if err := layout.Validate(); err != nil {
		return nil, fmt.Errorf("layout validation failed: %w", err)
	}

	return &layout, nil
}

// Validate checks that every sensor id is unique and maps to a room of the building
func (l *Layout) Validate() error {
	seen := make(map[string]string)
	claim := func(kind, id string) error {
		if id == "" {
			return fmt.Errorf("empty %s id", kind)
		}
		if other, ok := seen[id]; ok {
			return fmt.Errorf("sensor id %q declared as both %s and %s", id, other, kind)
		}
		seen[id] = kind
		return nil
	}

	groups := []struct {
		kind    string
		sensors map[string]Room
	}{
		{"motion sensor", l.MotionSensors},
		{"camera", l.Cameras},
		{"door sensor", l.DoorSensors},
	}
	for _, g := range groups {
		for _, id := range sortedKeys(g.sensors) {
			if err := claim(g.kind, id); err != nil {
				return err
			}
			if _, err := ParseRoom(string(g.sensors[id])); err != nil {
				return fmt.Errorf("%s %q: %w", g.kind, id, err)
			}
		}
	}
	for _, id := range l.Robots {
		if err := claim("robot", id); err != nil {
			return err
		}
	}

	return nil
}

// HasAssignedSensor reports whether a motion sensor or camera is installed in the room.
func (l *Layout) HasAssignedSensor(room Room) bool {
	for _, r := range l.MotionSensors {
		if r == room {
			return true
		}
	}
	for _, r := range l.Cameras {
		if r == room {
			return true
		}
	}
	return false
}

// MotionSensorIDs returns the motion sensor ids in sorted order.
func (l *Layout) MotionSensorIDs() []string { return sortedKeys(l.MotionSensors) }

// CameraIDs returns the camera ids in sorted order.
func (l *Layout) CameraIDs() []string { return sortedKeys(l.Cameras) }

// DoorSensorIDs returns the door sensor ids in sorted order.
func (l *Layout) DoorSensorIDs() []string { return sortedKeys(l.DoorSensors) }

func sortedKeys(m map[string]Room) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
