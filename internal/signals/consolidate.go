package signals

import (
	"sort"

	"github.com/seyoungseyoung/GoldenEyeNavigator/internal/models"
)

// Consolidate sorts raw events by date and keeps only direction changes, so no two
// adjacent entries share a direction. The input is not modified.
func Consolidate(raw []models.SignalEvent) []models.SignalEvent {
	if len(raw) == 0 {
		return []models.SignalEvent{}
	}

	sorted := make([]models.SignalEvent, len(raw))
	copy(sorted, raw)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	out := make([]models.SignalEvent, 0, len(sorted))
	var last models.Direction
	for _, ev := range sorted {
		if ev.Direction == last {
			continue
		}
		out = append(out, ev)
		last = ev.Direction
	}
	return out
}

// AnnotateLatest returns a copy of timeline with the last event's rationale replaced.
func AnnotateLatest(timeline []models.SignalEvent, rationale string) []models.SignalEvent {
	out := make([]models.SignalEvent, len(timeline))
	copy(out, timeline)
	if len(out) > 0 && rationale != "" {
		out[len(out)-1].Rationale = rationale
	}
	return out
}
