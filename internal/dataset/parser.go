package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/saaga0h/jeeves-occupancy/pkg/building"
)

// TimeColumn is the header of the time-of-day column.
const TimeColumn = "time"

// Parser turns historical log tables into validated records
type Parser struct {
	layout *building.Layout
	logger *slog.Logger
}

// NewParser creates a parser for logs recorded with the given sensor layout
func NewParser(layout *building.Layout, logger *slog.Logger) *Parser {
	return &Parser{
		layout: layout,
		logger: logger,
	}
}

type column struct {
	index int
	id    string
	kind  SensorKind
}

// header resolves the column positions required by the layout
type header struct {
	time    int
	rooms   map[building.Room]int
	sensors []column
}

func (p *Parser) parseHeader(names []string) (*header, error) {
	pos := make(map[string]int, len(names))
	for i, name := range names {
		pos[strings.TrimSpace(name)] = i
	}

	lookup := func(name string) (int, error) {
		i, ok := pos[name]
		if !ok {
			return 0, fmt.Errorf("%w: missing column %q", ErrData, name)
		}
		return i, nil
	}

	h := &header{rooms: make(map[building.Room]int, building.RoomCount)}

	var err error
	if h.time, err = lookup(TimeColumn); err != nil {
		return nil, err
	}
	for _, room := range building.Rooms() {
		i, err := lookup(string(room))
		if err != nil {
			return nil, err
		}
		h.rooms[room] = i
	}

	groups := []struct {
		kind SensorKind
		ids  []string
	}{
		{KindMotion, p.layout.MotionSensorIDs()},
		{KindCamera, p.layout.CameraIDs()},
		{KindDoor, p.layout.DoorSensorIDs()},
		{KindRobot, p.layout.Robots},
	}
	for _, g := range groups {
		for _, id := range g.ids {
			i, err := lookup(id)
			if err != nil {
				return nil, err
			}
			h.sensors = append(h.sensors, column{index: i, id: id, kind: g.kind})
		}
	}

	return h, nil
}

// Parse reads every row of a CSV log. The source name is only used for error context.
func (p *Parser) Parse(source string, r io.Reader) ([]*Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	names, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%s: %w: empty log", source, ErrData)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read header: %w", source, err)
	}

	h, err := p.parseHeader(names)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}

	var records []*Record
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w: %v", source, ErrData, err)
		}
		line, _ := reader.FieldPos(0)
		if len(fields) != len(names) {
			return nil, fmt.Errorf("%s:%d: %w: expected %d fields, got %d", source, line, ErrData, len(names), len(fields))
		}

		rec, err := p.parseRow(h, fields)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", source, line, err)
		}
		rec.Source = source
		rec.Line = line
		records = append(records, rec)
	}

	p.logger.Debug("Parsed log table", "source", source, "rows", len(records))
	return records, nil
}

func (p *Parser) parseRow(h *header, fields []string) (*Record, error) {
	timeOfDay, err := ParseTimeOfDay(fields[h.time])
	if err != nil {
		return nil, err
	}

	rec := NewRecord(timeOfDay)
	for room, i := range h.rooms {
		count, err := ParseCount(fields[i])
		if err != nil {
			return nil, fmt.Errorf("%w: room %s count %q", ErrData, room, fields[i])
		}
		rec.Occupancy[room] = count
	}

	for _, col := range h.sensors {
		reading, err := ParseReading(col.kind, fields[col.index])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", col.id, err)
		}
		rec.Set(col.id, reading)
	}

	return rec, nil
}

// ParseFile parses one CSV log file
func (p *Parser) ParseFile(path string) ([]*Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer f.Close()

	return p.Parse(path, f)
}

// LoadFiles parses several log files and concatenates their rows in order
func (p *Parser) LoadFiles(paths ...string) ([]*Record, error) {
	if len(paths) == 0 {
		return nil, errors.New("no log files given")
	}

	var all []*Record
	for _, path := range paths {
		records, err := p.ParseFile(path)
		if err != nil {
			return nil, err
		}
		all = append(all, records...)
	}

	p.logger.Info("Loaded historical logs", "files", len(paths), "rows", len(all))
	return all, nil
}

// ParseTimeOfDay parses HH:MM:SS (or HH:MM) into a duration since midnight.
// A leading date, if present, is discarded.
func ParseTimeOfDay(v string) (time.Duration, error) {
	v = strings.TrimSpace(v)
	if i := strings.LastIndexAny(v, " T"); i >= 0 {
		v = v[i+1:]
	}

	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, v); err == nil {
			return time.Duration(t.Hour())*time.Hour +
				time.Duration(t.Minute())*time.Minute +
				time.Duration(t.Second())*time.Second, nil
		}
	}
	return 0, fmt.Errorf("%w: invalid timestamp %q", ErrData, v)
}
