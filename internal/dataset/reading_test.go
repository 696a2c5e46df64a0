package dataset

import (
	"errors"
	"testing"
)

func TestParseReading(t *testing.T) {
	tests := []struct {
		name    string
		kind    SensorKind
		raw     string
		want    Reading
		wantErr bool
	}{
		{"motion", KindMotion, "motion", MotionReading{Detected: true}, false},
		{"no motion", KindMotion, " no motion ", MotionReading{Detected: false}, false},
		{"motion garbage", KindMotion, "on", nil, true},
		{"camera count", KindCamera, "3", CameraReading{Count: 3}, false},
		{"camera float count", KindCamera, "2.0", CameraReading{Count: 2}, false},
		{"camera fractional", KindCamera, "1.5", nil, true},
		{"door count", KindDoor, "1", DoorReading{Count: 1}, false},
		{"door float count", KindDoor, "2.0", DoorReading{Count: 2}, false},
		{"door open", KindDoor, "Open", DoorReading{Count: 1}, false},
		{"door closed", KindDoor, "closed", DoorReading{Count: 0}, false},
		{"door empty", KindDoor, "", nil, true},
		{"door negative", KindDoor, "-1", nil, true},
		{"door garbage", KindDoor, "ajar", nil, true},
		{"robot tuple", KindRobot, "('r12', 3)", RobotReading{Location: "r12", Count: 3}, false},
		{"robot double quotes", KindRobot, `("r2", 0)`, RobotReading{Location: "r2", Count: 0}, false},
		{"robot corridor", KindRobot, "('c2', 1)", RobotReading{Location: "c2", Count: 1}, false},
		{"robot missing count", KindRobot, "('r2',)", nil, true},
		{"robot scalar", KindRobot, "4", nil, true},
		{"unknown kind", SensorKind("lidar"), "1", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseReading(tt.kind, tt.raw)
			if tt.wantErr {
				if !errors.Is(err, ErrData) {
					t.Errorf("expected ErrData, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %#v, got %#v", tt.want, got)
			}
			if got.Kind() != tt.kind {
				t.Errorf("expected kind %s, got %s", tt.kind, got.Kind())
			}
		})
	}
}

func TestDoorReadingActive(t *testing.T) {
	for count, want := range map[int]bool{0: false, 1: true, 3: true} {
		if got := (DoorReading{Count: count}).Active(); got != want {
			t.Errorf("count %d: expected %v, got %v", count, want, got)
		}
	}
}
