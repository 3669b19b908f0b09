package telemetry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// HallEntry is one champion genome and how it performed.
type HallEntry struct {
	RunID      string          `json:"run_id"`
	Generation int             `json:"generation"`
	BirdID     int             `json:"bird_id"`
	Fitness    float64         `json:"fitness"`
	Score      int             `json:"score"`
	Nodes      int             `json:"nodes"`
	Links      int             `json:"links"`
	Genome     json.RawMessage `json:"genome"`
}

// HallOfFame keeps the best genomes seen across a run, sorted by fitness
// descending.
type HallOfFame struct {
	entries []HallEntry
	maxSize int
}

// NewHallOfFame creates an empty hall holding at most maxSize entries.
func NewHallOfFame(maxSize int) *HallOfFame {
	if maxSize < 1 {
		maxSize = 1
	}
	return &HallOfFame{
		entries: make([]HallEntry, 0, maxSize),
		maxSize: maxSize,
	}
}

// Consider inserts the entry if it beats the weakest one or the hall has
// room. Returns true if the entry was added.
func (hof *HallOfFame) Consider(entry HallEntry) bool {
	// Find insertion point (sorted descending by fitness)
	idx := sort.Search(len(hof.entries), func(i int) bool {
		return hof.entries[i].Fitness < entry.Fitness
	})

	// If hall is full and entry would be last (lowest), skip it
	if len(hof.entries) >= hof.maxSize && idx >= hof.maxSize {
		return false
	}

	hof.entries = append(hof.entries, HallEntry{})
	copy(hof.entries[idx+1:], hof.entries[idx:])
	hof.entries[idx] = entry

	if len(hof.entries) > hof.maxSize {
		hof.entries = hof.entries[:hof.maxSize]
	}
	return true
}

// Best returns the top entry, or false if the hall is empty.
func (hof *HallOfFame) Best() (HallEntry, bool) {
	if len(hof.entries) == 0 {
		return HallEntry{}, false
	}
	return hof.entries[0], true
}

// Entries returns the entries, best first. The slice must not be modified.
func (hof *HallOfFame) Entries() []HallEntry {
	return hof.entries
}

// Size returns the number of entries.
func (hof *HallOfFame) Size() int {
	return len(hof.entries)
}

// TopFitness returns the highest fitness in the hall, or 0 if empty.
func (hof *HallOfFame) TopFitness() float64 {
	if len(hof.entries) == 0 {
		return 0
	}
	return hof.entries[0].Fitness
}

// MarshalJSON serializes the hall of fame to JSON.
func (hof *HallOfFame) MarshalJSON() ([]byte, error) {
	return json.MarshalIndent(hof.entries, "", "  ")
}

// LoadHallOfFameFromFile reads a hall of fame JSON file. The hall keeps at
// least maxSize slots, more if the file holds more entries. Genomes come back
// compacted, whatever indentation the file used.
func LoadHallOfFameFromFile(path string, maxSize int) (*HallOfFame, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading hall of fame: %w", err)
	}

	var entries []HallEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing hall of fame JSON: %w", err)
	}

	hof := NewHallOfFame(max(maxSize, len(entries)))
	for i, e := range entries {
		if len(e.Genome) > 0 {
			var buf bytes.Buffer
			if err := json.Compact(&buf, e.Genome); err != nil {
				return nil, fmt.Errorf("compacting genome of entry %d: %w", i, err)
			}
			e.Genome = buf.Bytes()
		}
		hof.Consider(e)
	}
	return hof, nil
}
