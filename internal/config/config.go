package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/softsim/internal/activity"
	"github.com/san-kum/softsim/internal/color"
	"github.com/san-kum/softsim/internal/topology"
	"github.com/san-kum/softsim/internal/xpbd"
)

var ErrInvalid = errors.New("config: invalid value")

const (
	DefaultDuration = 10.0
	DefaultFPS      = 60.0
	DefaultSpacing  = 0.25
	DefaultMass     = 0.1
	DefaultHeight   = 1.5
)

type Config struct {
	Name      string          `yaml:"name"`
	Count     int             `yaml:"count"`
	Gap       float64         `yaml:"gap"`
	Duration  float64         `yaml:"duration"`
	FPS       float64         `yaml:"fps"`
	Coloring  string          `yaml:"coloring"`
	Shape     ShapeConfig     `yaml:"shape"`
	Solver    SolverConfig    `yaml:"solver"`
	Collision CollisionConfig `yaml:"collision"`
	Sleep     SleepConfig     `yaml:"sleep"`
	Repair    RepairConfig    `yaml:"repair"`
	Filter    FilterConfig    `yaml:"filter"`
	Pins      []PinConfig     `yaml:"pins"`
}

// PinConfig freezes all particles within Radius of Point after the
// body is built.
type PinConfig struct {
	Point  [3]float64 `yaml:"point"`
	Radius float64    `yaml:"radius"`
}

// ShapeConfig selects the body source: a procedural lattice, or a
// generated cuboid/icosphere surface run through the mesh builder.
type ShapeConfig struct {
	Kind       string           `yaml:"kind"` // lattice, cuboid, icosphere
	Nx         int              `yaml:"nx"`
	Ny         int              `yaml:"ny"`
	Nz         int              `yaml:"nz"`
	Spacing    float64          `yaml:"spacing"`
	Size       float64          `yaml:"size"`
	Segments   int              `yaml:"segments"`
	Origin     [3]float64       `yaml:"origin"`
	Mass       float64          `yaml:"mass"`
	Volumes    bool             `yaml:"volumes"`
	Threshold  int              `yaml:"tetra_threshold"`
	Seed       int64            `yaml:"seed"`
	Compliance ComplianceConfig `yaml:"compliance"`
}

type ComplianceConfig struct {
	Structural float64 `yaml:"structural"`
	Shear      float64 `yaml:"shear"`
	Bend       float64 `yaml:"bend"`
	Interior   float64 `yaml:"interior"`
	Volume     float64 `yaml:"volume"`
}

type SolverConfig struct {
	Gravity     [3]float64 `yaml:"gravity"`
	Damping     float64    `yaml:"damping"`
	TargetDelta float64    `yaml:"target_delta"`
	MaxSubsteps int        `yaml:"max_substeps"`
	Iterations  int        `yaml:"iterations"`
	LambdaDecay float64    `yaml:"lambda_decay"`
	MaxSpeed    float64    `yaml:"max_speed"`
}

type CollisionConfig struct {
	Enabled        bool    `yaml:"enabled"`
	ParticleRadius float64 `yaml:"particle_radius"`
	Ground         bool    `yaml:"ground"`
	GroundHeight   float64 `yaml:"ground_height"`
}

type SleepConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Speed       float64 `yaml:"speed"`
	Time        float64 `yaml:"time"`
	WakeImpulse float64 `yaml:"wake_impulse"`
	WakeSpeed   float64 `yaml:"wake_speed"`
	WakeRadius  float64 `yaml:"wake_radius"`
}

type RepairConfig struct {
	Mode        string  `yaml:"mode"`
	Compliance  float64 `yaml:"compliance"`
	RadiusScale float64 `yaml:"radius_scale"`
}

type FilterConfig struct {
	Cutoff         float64 `yaml:"cutoff"`
	MaxPerParticle int     `yaml:"max_per_particle"`
	MaxLength      float64 `yaml:"max_length"`
}

func DefaultConfig() *Config {
	params := xpbd.DefaultParams()
	thresholds := activity.DefaultThresholds()
	return &Config{
		Name:     "cube",
		Count:    1,
		Gap:      0.5,
		Duration: DefaultDuration,
		FPS:      DefaultFPS,
		Coloring: "greedy",
		Shape: ShapeConfig{
			Kind:     "lattice",
			Nx:       4,
			Ny:       4,
			Nz:       4,
			Spacing:  DefaultSpacing,
			Size:     1.0,
			Segments: 2,
			Origin:   [3]float64{0, DefaultHeight, 0},
			Mass:     DefaultMass,
			Volumes:  true,
			Compliance: ComplianceConfig{
				Structural: 0,
				Shear:      1e-5,
				Bend:       1e-4,
				Interior:   1e-5,
				Volume:     1e-6,
			},
		},
		Solver: SolverConfig{
			Gravity:     [3]float64(params.Gravity),
			Damping:     params.Damping,
			TargetDelta: params.TargetDelta,
			MaxSubsteps: params.MaxSubsteps,
			Iterations:  params.Iterations,
			LambdaDecay: params.LambdaDecay,
			MaxSpeed:    params.MaxSpeed,
		},
		Collision: CollisionConfig{
			Enabled:        true,
			ParticleRadius: params.ParticleRadius,
			Ground:         true,
			GroundHeight:   0,
		},
		Sleep: SleepConfig{
			Enabled:     true,
			Speed:       thresholds.SleepSpeed,
			Time:        thresholds.SleepTime,
			WakeImpulse: thresholds.WakeImpulse,
			WakeSpeed:   thresholds.WakeSpeed,
			WakeRadius:  thresholds.WakeRadius,
		},
		Repair: RepairConfig{
			Mode:        "bridge",
			Compliance:  1e-3,
			RadiusScale: 1.5,
		},
		Filter: FilterConfig{
			MaxPerParticle: 4,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	switch c.Shape.Kind {
	case "lattice", "cuboid", "icosphere":
	default:
		return fmt.Errorf("%w: unknown shape kind %q", ErrInvalid, c.Shape.Kind)
	}
	if c.Shape.Mass <= 0 {
		return fmt.Errorf("%w: mass must be positive", ErrInvalid)
	}
	if c.Shape.Kind == "lattice" {
		if c.Shape.Nx < 1 || c.Shape.Ny < 1 || c.Shape.Nz < 1 {
			return fmt.Errorf("%w: lattice resolution must be at least 1 per axis", ErrInvalid)
		}
		if c.Shape.Spacing <= 0 {
			return fmt.Errorf("%w: spacing must be positive", ErrInvalid)
		}
	} else if c.Shape.Size <= 0 {
		return fmt.Errorf("%w: size must be positive", ErrInvalid)
	}
	if c.Solver.TargetDelta <= 0 {
		return fmt.Errorf("%w: target_delta must be positive", ErrInvalid)
	}
	if c.Solver.MaxSubsteps < 1 {
		return fmt.Errorf("%w: max_substeps must be at least 1", ErrInvalid)
	}
	if c.Solver.Iterations < 1 {
		return fmt.Errorf("%w: iterations must be at least 1", ErrInvalid)
	}
	if c.Solver.LambdaDecay < 0 || c.Solver.LambdaDecay > 1 {
		return fmt.Errorf("%w: lambda_decay must be in [0,1]", ErrInvalid)
	}
	if c.Count < 1 {
		return fmt.Errorf("%w: count must be at least 1", ErrInvalid)
	}
	if c.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive", ErrInvalid)
	}
	if c.FPS <= 0 {
		return fmt.Errorf("%w: fps must be positive", ErrInvalid)
	}
	if _, err := color.ParseStrategy(c.Coloring); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if _, err := topology.ParseRepairMode(c.Repair.Mode); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// Params bridges the solver and collision sections to xpbd.Params.
func (c *Config) Params() xpbd.Params {
	return xpbd.Params{
		Gravity:          mgl64.Vec3(c.Solver.Gravity),
		Damping:          c.Solver.Damping,
		TargetDelta:      c.Solver.TargetDelta,
		MaxSubsteps:      c.Solver.MaxSubsteps,
		Iterations:       c.Solver.Iterations,
		LambdaDecay:      c.Solver.LambdaDecay,
		ParticleRadius:   c.Collision.ParticleRadius,
		MaxSpeed:         c.Solver.MaxSpeed,
		CollisionEnabled: c.Collision.Enabled,
	}
}

// Thresholds bridges the sleep section. Disabling the section zeroes
// the speed threshold, which turns sleeping off in the controller.
func (c *Config) Thresholds() activity.Thresholds {
	if !c.Sleep.Enabled {
		return activity.Thresholds{}
	}
	return activity.Thresholds{
		SleepSpeed:  c.Sleep.Speed,
		SleepTime:   c.Sleep.Time,
		WakeImpulse: c.Sleep.WakeImpulse,
		WakeSpeed:   c.Sleep.WakeSpeed,
		WakeRadius:  c.Sleep.WakeRadius,
	}
}

func (c *Config) LatticeOptions() topology.LatticeOptions {
	return topology.LatticeOptions{
		Nx:          c.Shape.Nx,
		Ny:          c.Shape.Ny,
		Nz:          c.Shape.Nz,
		Spacing:     c.Shape.Spacing,
		Origin:      mgl64.Vec3(c.Shape.Origin),
		Mass:        c.Shape.Mass,
		Structural:  c.Shape.Compliance.Structural,
		Shear:       c.Shape.Compliance.Shear,
		Bend:        c.Shape.Compliance.Bend,
		Volume:      c.Shape.Compliance.Volume,
		WithVolumes: c.Shape.Volumes,
	}
}

func (c *Config) MeshOptions() topology.MeshOptions {
	opts := topology.DefaultMeshOptions()
	opts.Mass = c.Shape.Mass
	opts.Structural = c.Shape.Compliance.Structural
	opts.Bend = c.Shape.Compliance.Bend
	opts.Interior = c.Shape.Compliance.Interior
	opts.Volume = c.Shape.Compliance.Volume
	opts.Seed = c.Shape.Seed
	if c.Shape.Threshold > 0 {
		opts.TetraThreshold = c.Shape.Threshold
	}
	return opts
}

func (c *Config) RepairOptions() topology.RepairOptions {
	mode, err := topology.ParseRepairMode(c.Repair.Mode)
	if err != nil {
		mode = topology.RepairOff
	}
	return topology.RepairOptions{
		Mode:        mode,
		Compliance:  c.Repair.Compliance,
		RadiusScale: c.Repair.RadiusScale,
	}
}

func (c *Config) FilterOptions() topology.FilterOptions {
	return topology.FilterOptions{
		StructuralCutoff: c.Filter.Cutoff,
		MaxPerParticle:   c.Filter.MaxPerParticle,
		MaxLength:        c.Filter.MaxLength,
	}
}

func (c *Config) Strategy() color.Strategy {
	s, err := color.ParseStrategy(c.Coloring)
	if err != nil {
		return color.Greedy
	}
	return s
}

// Colliders builds the static environment described by the collision
// section.
func (c *Config) Colliders() []xpbd.Collider {
	if !c.Collision.Enabled || !c.Collision.Ground {
		return nil
	}
	return []xpbd.Collider{
		xpbd.Plane(mgl64.Vec3{0, 1, 0}, c.Collision.GroundHeight),
	}
}
