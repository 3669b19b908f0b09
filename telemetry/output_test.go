package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gocarina/gocsv"
)

func TestOutputManagerDisabled(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil || om != nil {
		t.Fatalf("NewOutputManager(\"\") = %v, %v; want nil, nil", om, err)
	}
	// Methods are nil-safe
	if err := om.WriteGeneration(GenerationStats{}); err != nil {
		t.Error(err)
	}
	if err := om.Close(); err != nil {
		t.Error(err)
	}
}

func TestOutputManagerWritesHeaderOnce(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatal(err)
	}

	for g := 0; g < 3; g++ {
		if err := om.WriteGeneration(GenerationStats{RunID: "r", Generation: g, Score: g * 2}); err != nil {
			t.Fatal(err)
		}
	}
	if err := om.WriteSpecies([]SpeciesRecord{{Generation: 0, SpeciesID: 1, Size: 4}, {Generation: 0, SpeciesID: 2, Size: 6}}); err != nil {
		t.Fatal(err)
	}
	if err := om.Close(); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(filepath.Join(dir, "generations.csv"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	var rows []GenerationStats
	if err := gocsv.Unmarshal(f, &rows); err != nil {
		t.Fatalf("unmarshal generations.csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	if rows[2].Generation != 2 || rows[2].Score != 4 {
		t.Errorf("last row = %+v", rows[2])
	}

	data, err := os.ReadFile(filepath.Join(dir, "species.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(string(data), "species_id"); n != 1 {
		t.Errorf("species header written %d times", n)
	}
}
