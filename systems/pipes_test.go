package systems

import (
	"math/rand"
	"testing"

	"github.com/pthm-cable/flappy/config"
)

func TestGapInvariant(t *testing.T) {
	cfg := config.Defaults()

	for seed := int64(0); seed < 50; seed++ {
		rng := rand.New(rand.NewSource(seed))
		f := NewPipeField(cfg, RandomGaps(rng, cfg.Pipe.MinGapTop, cfg.Pipe.MaxGapTop))
		for i := 0; i < 20; i++ {
			f.Spawn()
		}
		for i, p := range f.Pipes() {
			if p.GapBottom()-p.GapTop != cfg.Pipe.Gap {
				t.Fatalf("seed %d pipe %d: gap %v, want %v", seed, i, p.GapBottom()-p.GapTop, cfg.Pipe.Gap)
			}
			if p.GapTop < float64(cfg.Pipe.MinGapTop) || p.GapTop >= float64(cfg.Pipe.MaxGapTop) {
				t.Fatalf("seed %d pipe %d: gap top %v outside [%d, %d)", seed, i, p.GapTop, cfg.Pipe.MinGapTop, cfg.Pipe.MaxGapTop)
			}
			if p.TopY()+float64(p.Height) != p.GapTop {
				t.Fatalf("seed %d pipe %d: top pipe does not end at the gap", seed, i)
			}
		}
	}
}

func TestPipeFieldAdvanceAndRetire(t *testing.T) {
	cfg := config.Defaults()
	f := NewPipeField(cfg, FixedGaps(300))
	f.Spawn()

	ticks := 0
	for f.RetireOffscreen() == 0 {
		f.Advance()
		ticks++
		if ticks > 1000 {
			t.Fatal("pipe never retired")
		}
	}

	// x + 104 < 0 first holds at x = -105, i.e. 500 - 5*121
	if ticks != 121 {
		t.Errorf("retired after %d ticks, want 121", ticks)
	}
	if f.Len() != 0 {
		t.Errorf("Len() = %d after retire, want 0", f.Len())
	}
}

func TestRetireKeepsOrder(t *testing.T) {
	cfg := config.Defaults()
	f := NewPipeField(cfg, FixedGaps(100, 200, 300))
	f.Spawn()
	f.At(0).X = -200
	f.Spawn()
	f.Spawn()
	f.At(2).X = 700

	if n := f.RetireOffscreen(); n != 1 {
		t.Fatalf("retired %d pipes, want 1", n)
	}
	if f.At(0).GapTop != 200 || f.At(1).GapTop != 300 {
		t.Errorf("order after retire: %v, %v", f.At(0).GapTop, f.At(1).GapTop)
	}
}

func TestActiveIndex(t *testing.T) {
	cfg := config.Defaults()
	f := NewPipeField(cfg, FixedGaps(300))
	f.Spawn()
	f.Spawn()
	f.At(0).X = 100 // trailing edge at 204
	f.At(1).X = 500

	tests := []struct {
		name string
		refX float64
		want int
	}{
		{"before first trailing edge", 150, 0},
		{"on first trailing edge", 204, 0},
		{"past first", 230, 1},
		{"past everything", 700, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.ActiveIndex(tt.refX); got != tt.want {
				t.Errorf("ActiveIndex(%v) = %d, want %d", tt.refX, got, tt.want)
			}
		})
	}
}

func TestActiveIndexEmptyField(t *testing.T) {
	cfg := config.Defaults()
	f := NewPipeField(cfg, FixedGaps(300))
	if got := f.ActiveIndex(230); got != -1 {
		t.Errorf("ActiveIndex on new field = %d, want -1", got)
	}

	f.Spawn()
	f.At(0).X = -float64(cfg.Pipe.Width) - 1
	if removed := f.RetireOffscreen(); removed != 1 {
		t.Fatalf("retired %d pipes, want 1", removed)
	}
	if got := f.ActiveIndex(230); got != -1 {
		t.Errorf("ActiveIndex after retiring every pipe = %d, want -1", got)
	}
}

func TestFixedGapsCycles(t *testing.T) {
	next := FixedGaps(1, 2)
	got := []int{next(), next(), next()}
	if got[0] != 1 || got[1] != 2 || got[2] != 1 {
		t.Errorf("FixedGaps sequence = %v, want [1 2 1]", got)
	}
}
