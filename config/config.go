// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	World     WorldConfig     `yaml:"world"`
	Bird      BirdConfig      `yaml:"bird"`
	Pipe      PipeConfig      `yaml:"pipe"`
	Ground    GroundConfig    `yaml:"ground"`
	Fitness   FitnessConfig   `yaml:"fitness"`
	Neural    NeuralConfig    `yaml:"neural"`
	Evolution EvolutionConfig `yaml:"evolution"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Stream    StreamConfig    `yaml:"stream"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// WorldConfig holds fixed world geometry.
type WorldConfig struct {
	GroundY float64 `yaml:"ground_y"` // Birds touching this line are eliminated
}

// BirdConfig holds bird physics and sprite footprint.
type BirdConfig struct {
	StartX           float64 `yaml:"start_x"`
	StartY           float64 `yaml:"start_y"`
	Width            int     `yaml:"width"`
	Height           int     `yaml:"height"`
	JumpVelocity     float64 `yaml:"jump_velocity"`     // Velocity set by a flap (negative = up)
	Gravity          float64 `yaml:"gravity"`           // d = v*t + 0.5*g*t^2
	MaxFall          float64 `yaml:"max_fall"`          // Per-tick displacement cap (downwards)
	MaxRotation      float64 `yaml:"max_rotation"`      // Tilt while climbing, degrees
	RotationVelocity float64 `yaml:"rotation_velocity"` // Tilt decrease per tick while falling
	AnimationTime    int     `yaml:"animation_time"`    // Ticks per wing frame
}

// PipeConfig holds obstacle geometry.
type PipeConfig struct {
	Gap       float64 `yaml:"gap"`
	Velocity  float64 `yaml:"velocity"`
	SpawnX    float64 `yaml:"spawn_x"`
	Width     int     `yaml:"width"`
	Height    int     `yaml:"height"`      // Height of one pipe sprite
	MinGapTop int     `yaml:"min_gap_top"` // Inclusive
	MaxGapTop int     `yaml:"max_gap_top"` // Exclusive
}

// GroundConfig holds the scrolling base strip.
type GroundConfig struct {
	Velocity float64 `yaml:"velocity"`
	Width    float64 `yaml:"width"`
}

// FitnessConfig holds reward shaping constants.
type FitnessConfig struct {
	TickReward       float64 `yaml:"tick_reward"`
	PassBonus        float64 `yaml:"pass_bonus"`
	CollisionPenalty float64 `yaml:"collision_penalty"`
	ActionThreshold  float64 `yaml:"action_threshold"` // Policy output above this flaps
}

// NeuralConfig holds brain genome and NEAT mutation parameters.
type NeuralConfig struct {
	InitialConnectionProb float64 `yaml:"initial_connection_prob"`
	WeightMutPower        float64 `yaml:"weight_mut_power"`
	MutateLinkWeightsProb float64 `yaml:"mutate_link_weights_prob"`
	MutateAddNodeProb     float64 `yaml:"mutate_add_node_prob"`
	MutateAddLinkProb     float64 `yaml:"mutate_add_link_prob"`
	MutateToggleProb      float64 `yaml:"mutate_toggle_enable_prob"`
	MateOnlyProb          float64 `yaml:"mate_only_prob"`
	CompatThreshold       float64 `yaml:"compat_threshold"`
	DisjointCoeff         float64 `yaml:"disjoint_coeff"`
	ExcessCoeff           float64 `yaml:"excess_coeff"`
	MutdiffCoeff          float64 `yaml:"mutdiff_coeff"`
	DropOffAge            int     `yaml:"drop_off_age"`
}

// EvolutionConfig holds generation-level parameters.
type EvolutionConfig struct {
	Population        int     `yaml:"population"`
	Generations       int     `yaml:"generations"`
	FitnessThreshold  float64 `yaml:"fitness_threshold"` // Stop once best fitness reaches this (0 = never)
	Elitism           int     `yaml:"elitism"`           // Best genomes per species copied unchanged
	SurvivalThreshold float64 `yaml:"survival_threshold"`
	MaxTicks          int     `yaml:"max_ticks"` // Per-generation tick cap (0 = unlimited)
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	HallOfFameSize int `yaml:"hall_of_fame_size"`
}

// StreamConfig holds spectator websocket parameters.
type StreamConfig struct {
	Addr          string `yaml:"addr"`           // Empty disables the feed
	FrameInterval int    `yaml:"frame_interval"` // Publish every N ticks
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	HalfGravity float64 // 0.5 * Bird.Gravity
	NumInputs   int     // Observation size plus bias
	ScreenW32   float32
	ScreenH32   float32
	GroundY32   float32
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Defaults returns a fresh copy of the embedded defaults.
func Defaults() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults invalid: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	cfg.computeDerived()

	return cfg, nil
}

// Validate reports every configuration value that would make a generation
// unplayable or undefined. It is checked once at load time, never per tick.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.World.GroundY > 0, "world.ground_y must be positive, got %v", c.World.GroundY)

	check(c.Bird.Width > 0 && c.Bird.Height > 0, "bird footprint must be positive, got %dx%d", c.Bird.Width, c.Bird.Height)
	check(c.Bird.StartY >= 0 && c.Bird.StartY+float64(c.Bird.Height) < c.World.GroundY,
		"bird.start_y %v places the bird outside [0, ground_y)", c.Bird.StartY)
	check(c.Bird.MaxFall > 0, "bird.max_fall must be positive, got %v", c.Bird.MaxFall)
	check(c.Bird.AnimationTime > 0, "bird.animation_time must be positive, got %d", c.Bird.AnimationTime)

	check(c.Pipe.Gap > float64(c.Bird.Height), "pipe.gap %v leaves no room for a bird of height %d", c.Pipe.Gap, c.Bird.Height)
	check(c.Pipe.Velocity > 0, "pipe.velocity must be positive, got %v", c.Pipe.Velocity)
	check(c.Pipe.Width > 0 && c.Pipe.Height > 0, "pipe sprite must be positive, got %dx%d", c.Pipe.Width, c.Pipe.Height)
	check(c.Pipe.MinGapTop < c.Pipe.MaxGapTop, "pipe gap range [%d, %d) is empty", c.Pipe.MinGapTop, c.Pipe.MaxGapTop)
	check(c.Pipe.MinGapTop >= 0, "pipe.min_gap_top must be >= 0, got %d", c.Pipe.MinGapTop)
	// The ground may cover part of the lowest gaps; what remains must still fit a bird.
	check(c.World.GroundY-float64(c.Pipe.MaxGapTop-1) > float64(c.Bird.Height),
		"pipe.max_gap_top %d leaves no room above ground_y %v", c.Pipe.MaxGapTop, c.World.GroundY)
	check(c.Pipe.SpawnX > c.Bird.StartX, "pipe.spawn_x %v must be ahead of bird.start_x %v", c.Pipe.SpawnX, c.Bird.StartX)

	check(c.Ground.Width > 0, "ground.width must be positive, got %v", c.Ground.Width)
	check(c.Evolution.Population > 0, "evolution.population must be positive, got %d", c.Evolution.Population)
	check(c.Evolution.MaxTicks >= 0, "evolution.max_ticks must be >= 0, got %d", c.Evolution.MaxTicks)

	return errors.Join(errs...)
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.HalfGravity = 0.5 * c.Bird.Gravity
	c.Derived.NumInputs = 4 // y, |y-gap_top|, |y-gap_bottom|, bias
	c.Derived.ScreenW32 = float32(c.Screen.Width)
	c.Derived.ScreenH32 = float32(c.Screen.Height)
	c.Derived.GroundY32 = float32(c.World.GroundY)

	if c.Stream.FrameInterval < 1 {
		c.Stream.FrameInterval = 1
	}
	if c.Telemetry.HallOfFameSize < 1 {
		c.Telemetry.HallOfFameSize = 1
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
