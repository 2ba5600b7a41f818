package domain

import "sort"

const SlotGranularityMinutes = 60

// GenerateSlots expands windows into bookable start times every
// SlotGranularityMinutes, skipping occupied times. A candidate equal to a
// window's end is never offered. Each time is emitted at most once and the
// result is ascending.
func GenerateSlots(windows []AvailabilitySlot, occupied map[TimeOfDay]struct{}) []TimeOfDay {
	out := make([]TimeOfDay, 0, 16)
	seen := make(map[TimeOfDay]struct{}, 16)

	for _, w := range windows {
		if !w.IsActive || w.StartTime >= w.EndTime {
			continue
		}
		for candidate := w.StartTime; candidate < w.EndTime; candidate += SlotGranularityMinutes {
			if _, ok := occupied[candidate]; ok {
				continue
			}
			if _, ok := seen[candidate]; ok {
				continue
			}
			seen[candidate] = struct{}{}
			out = append(out, candidate)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func FormatSlots(slots []TimeOfDay) []string {
	out := make([]string, len(slots))
	for i, s := range slots {
		out[i] = s.String()
	}
	return out
}
