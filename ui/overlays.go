package ui

import (
	rl "github.com/gen2brain/raylib-go/raylib"
)

// OverlayID uniquely identifies an overlay.
type OverlayID string

// Standard overlay IDs.
const (
	OverlaySpeciesColors    OverlayID = "species_colors"
	OverlayObservationLines OverlayID = "observation_lines"
	OverlayHitboxes         OverlayID = "hitboxes"
	OverlayEvolutionPanel   OverlayID = "evolution_panel"
	OverlayPerfPanel        OverlayID = "perf_panel"
)

// OverlayDescriptor defines an overlay that can be toggled.
type OverlayDescriptor struct {
	ID        OverlayID
	Name      string
	Key       int32  // 0 = no key
	KeyLabel  string // shown in the controls panel
	Category  string // "visual", "debug" or "panels"
	Exclusive []OverlayID
	Default   bool
}

var defaultOverlays = []OverlayDescriptor{
	{ID: OverlaySpeciesColors, Name: "Species Colors", Key: rl.KeyS, KeyLabel: "S", Category: "visual", Default: true},
	{ID: OverlayObservationLines, Name: "Observation Lines", Key: rl.KeyL, KeyLabel: "L", Category: "visual"},
	{ID: OverlayHitboxes, Name: "Hitboxes", Key: rl.KeyB, KeyLabel: "B", Category: "debug"},
	{ID: OverlayEvolutionPanel, Name: "Evolution Stats", Key: rl.KeyN, KeyLabel: "N", Category: "panels",
		Exclusive: []OverlayID{OverlayPerfPanel}, Default: true},
	{ID: OverlayPerfPanel, Name: "Performance", Key: rl.KeyP, KeyLabel: "P", Category: "panels",
		Exclusive: []OverlayID{OverlayEvolutionPanel}},
}

// OverlayRegistry tracks which overlays are on. Descriptors keep their
// registration order for display.
type OverlayRegistry struct {
	descriptors []OverlayDescriptor
	index       map[OverlayID]int
	enabled     map[OverlayID]bool
}

// NewOverlayRegistry creates a registry with the standard overlays.
func NewOverlayRegistry() *OverlayRegistry {
	r := &OverlayRegistry{
		index:   make(map[OverlayID]int),
		enabled: make(map[OverlayID]bool),
	}
	for _, desc := range defaultOverlays {
		r.Register(desc)
	}
	return r
}

// Register adds an overlay, replacing any with the same ID.
func (r *OverlayRegistry) Register(desc OverlayDescriptor) {
	if i, ok := r.index[desc.ID]; ok {
		r.descriptors[i] = desc
	} else {
		r.index[desc.ID] = len(r.descriptors)
		r.descriptors = append(r.descriptors, desc)
	}
	r.enabled[desc.ID] = desc.Default
}

// Toggle flips an overlay and returns its new state.
func (r *OverlayRegistry) Toggle(id OverlayID) bool {
	r.SetEnabled(id, !r.enabled[id])
	return r.enabled[id]
}

// SetEnabled sets an overlay's state. Enabling one turns off the overlays
// it excludes. Unknown IDs are ignored.
func (r *OverlayRegistry) SetEnabled(id OverlayID, enabled bool) {
	i, ok := r.index[id]
	if !ok {
		return
	}
	r.enabled[id] = enabled
	if enabled {
		for _, other := range r.descriptors[i].Exclusive {
			r.enabled[other] = false
		}
	}
}

// IsEnabled returns whether an overlay is active.
func (r *OverlayRegistry) IsEnabled(id OverlayID) bool {
	return r.enabled[id]
}

// ByCategory returns the overlays in category, in registration order.
func (r *OverlayRegistry) ByCategory(category string) []OverlayDescriptor {
	var result []OverlayDescriptor
	for _, desc := range r.descriptors {
		if desc.Category == category {
			result = append(result, desc)
		}
	}
	return result
}

// Categories returns each category once, in first-seen order.
func (r *OverlayRegistry) Categories() []string {
	var cats []string
	seen := make(map[string]bool)
	for _, desc := range r.descriptors {
		if !seen[desc.Category] {
			seen[desc.Category] = true
			cats = append(cats, desc.Category)
		}
	}
	return cats
}

// HandleKeyPress toggles the overlay bound to key. ok is false when no
// overlay uses the key.
func (r *OverlayRegistry) HandleKeyPress(key int32) (id OverlayID, enabled, ok bool) {
	if key == 0 {
		return "", false, false
	}
	for _, desc := range r.descriptors {
		if desc.Key == key {
			return desc.ID, r.Toggle(desc.ID), true
		}
	}
	return "", false, false
}
