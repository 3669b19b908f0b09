// Package telemetry provides per-generation statistics, run output, and the
// hall of fame.
package telemetry

// EventType identifies telemetry events.
type EventType uint8

const (
	EventFlap EventType = iota
	EventPass
	EventDeath
)

// String returns a lowercase name for logs.
func (t EventType) String() string {
	switch t {
	case EventFlap:
		return "flap"
	case EventPass:
		return "pass"
	case EventDeath:
		return "death"
	default:
		return "unknown"
	}
}

// Event represents a single telemetry event.
type Event struct {
	Type   EventType
	Tick   int
	BirdID int

	// Optional fields depending on event type
	Score   int     // pass: score after the passage
	Cause   string  // death: what the bird hit
	Fitness float64 // death: final fitness
}

// NewFlapEvent creates a flap event.
func NewFlapEvent(tick, birdID int) Event {
	return Event{Type: EventFlap, Tick: tick, BirdID: birdID}
}

// NewPassEvent creates a pipe passage event. Passages belong to the
// generation, not to one bird.
func NewPassEvent(tick, score int) Event {
	return Event{Type: EventPass, Tick: tick, BirdID: -1, Score: score}
}

// NewDeathEvent creates an elimination event.
func NewDeathEvent(tick, birdID int, cause string, fitness float64) Event {
	return Event{
		Type:    EventDeath,
		Tick:    tick,
		BirdID:  birdID,
		Cause:   cause,
		Fitness: fitness,
	}
}
