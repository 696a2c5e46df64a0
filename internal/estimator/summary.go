package estimator

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/saaga0h/jeeves-occupancy/pkg/building"
)

// WriteSummary prints every learned table in a human-readable report
func WriteSummary(w io.Writer, params *Params) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, "Prior probabilities for all rooms and time slots:")
	for _, room := range building.Rooms() {
		fmt.Fprintf(tw, "\nRoom %s:\n", room)
		slots := params.Priors[room]
		keys := make([]building.TimeSlot, 0, len(slots))
		for slot := range slots {
			keys = append(keys, slot)
		}
		sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
		for _, slot := range keys {
			fmt.Fprintf(tw, "  %s:\t%.4f\n", slot, slots[slot])
		}
	}

	fmt.Fprintln(tw, "\nSensor Reliabilities:")
	for _, id := range sortedIDs(params.Reliability.Motion) {
		m := params.Reliability.Motion[id]
		fmt.Fprintf(tw, "%s:\n", id)
		fmt.Fprintf(tw, "  motion:\t%.4f%s\n", m.Motion, undefinedMark(m.Defined(RateMotion)))
		fmt.Fprintf(tw, "  no motion:\t%.4f%s\n", m.NoMotion, undefinedMark(m.Defined(RateNoMotion)))
	}
	rel := params.Reliability
	for _, id := range sortedIDs(rel.Cameras) {
		fmt.Fprintf(tw, "%s:\t%.4f%s\n", id, rel.Cameras[id], undefinedMark(rel.AccuracyDefined(id)))
	}
	for _, id := range sortedIDs(rel.Robots) {
		fmt.Fprintf(tw, "%s:\t%.4f%s\n", id, rel.Robots[id], undefinedMark(rel.AccuracyDefined(id)))
	}

	fmt.Fprintln(tw, "\nTransition Probabilities:")
	for _, room := range building.Rooms() {
		probs := params.Transitions[room]
		fmt.Fprintf(tw, "%s:\n", room)
		fmt.Fprintf(tw, "  Stay occupied:\t%.4f\n", probs.StayOccupied)
		fmt.Fprintf(tw, "  Become occupied:\t%.4f\n", probs.BecomeOccupied)
	}

	return tw.Flush()
}

func undefinedMark(defined bool) string {
	if defined {
		return ""
	}
	return " (undefined)"
}

func sortedIDs[V any](m map[string]V) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
