package building

import (
	"errors"
	"testing"
)

func TestRooms(t *testing.T) {
	all := Rooms()
	if len(all) != RoomCount {
		t.Fatalf("expected %d rooms, got %d", RoomCount, len(all))
	}
	if all[0] != "r1" || all[RoomCount-1] != "r34" {
		t.Errorf("unexpected room order: first=%s last=%s", all[0], all[RoomCount-1])
	}

	// Callers must not be able to mutate the universe
	all[0] = "r99"
	if Rooms()[0] != "r1" {
		t.Error("Rooms() returned shared backing storage")
	}
}

func TestParseRoom(t *testing.T) {
	tests := []struct {
		input   string
		want    Room
		wantErr bool
	}{
		{"r1", "r1", false},
		{"r34", "r34", false},
		{" r7 ", "r7", false},
		{"r0", "", true},
		{"r35", "", true},
		{"r07", "", true},
		{"c1", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseRoom(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownRoom) {
					t.Errorf("expected ErrUnknownRoom, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestLightFor(t *testing.T) {
	if got := LightFor("r12"); got != "lights12" {
		t.Errorf("expected lights12, got %s", got)
	}
}
