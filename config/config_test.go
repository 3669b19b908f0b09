package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") failed: %v", err)
	}

	if cfg.Pipe.Gap != 200 {
		t.Errorf("pipe.gap = %v, want 200", cfg.Pipe.Gap)
	}
	if cfg.Bird.JumpVelocity != -10.5 {
		t.Errorf("bird.jump_velocity = %v, want -10.5", cfg.Bird.JumpVelocity)
	}
	if cfg.Derived.HalfGravity != 1.5 {
		t.Errorf("derived half gravity = %v, want 1.5", cfg.Derived.HalfGravity)
	}
	if cfg.World.GroundY != 630 {
		t.Errorf("world.ground_y = %v, want 630", cfg.World.GroundY)
	}
}

func TestLoadOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "override.yaml")
	if err := os.WriteFile(path, []byte("evolution:\n  population: 7\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Evolution.Population != 7 {
		t.Errorf("population = %d, want 7", cfg.Evolution.Population)
	}
	// Untouched fields keep defaults
	if cfg.Pipe.SpawnX != 500 {
		t.Errorf("pipe.spawn_x = %v, want 500", cfg.Pipe.SpawnX)
	}
}

func TestValidateRejectsBadGeometry(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"gap smaller than bird", func(c *Config) { c.Pipe.Gap = 40 }, "pipe.gap"},
		{"empty gap range", func(c *Config) { c.Pipe.MinGapTop = 300; c.Pipe.MaxGapTop = 300 }, "gap range"},
		{"gap range under ground", func(c *Config) { c.Pipe.MaxGapTop = 620 }, "max_gap_top"},
		{"zero population", func(c *Config) { c.Evolution.Population = 0 }, "population"},
		{"spawn behind bird", func(c *Config) { c.Pipe.SpawnX = 100 }, "spawn_x"},
		{"stopped pipes", func(c *Config) { c.Pipe.Velocity = 0 }, "pipe.velocity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg := Defaults()
	cfg.Evolution.Generations = 3

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Evolution.Generations != 3 {
		t.Errorf("generations = %d, want 3", loaded.Evolution.Generations)
	}
}

func TestCfgAfterInit(t *testing.T) {
	MustInit("")
	if Cfg().Screen.TargetFPS != 30 {
		t.Errorf("target_fps = %d, want 30", Cfg().Screen.TargetFPS)
	}
}
