package config

import "sort"

// Presets are named scenes built on top of DefaultConfig.
var Presets = map[string]*Config{
	"cube-drop": cubeDrop(),
	"beam":      beam(),
	"ball":      ball(),
	"jelly":     jelly(),
	"wall":      wall(),
}

func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func cubeDrop() *Config {
	cfg := DefaultConfig()
	cfg.Name = "cube-drop"
	cfg.Shape.Origin = [3]float64{0, 2, 0}
	return cfg
}

// beam pins one end of a long lattice so it sags under gravity.
func beam() *Config {
	cfg := DefaultConfig()
	cfg.Name = "beam"
	cfg.Shape.Nx = 12
	cfg.Shape.Ny = 2
	cfg.Shape.Nz = 2
	cfg.Shape.Spacing = 0.2
	cfg.Shape.Origin = [3]float64{0, 1.5, 0}
	cfg.Shape.Compliance.Shear = 5e-5
	cfg.Shape.Compliance.Bend = 5e-4
	cfg.Pins = []PinConfig{{Point: [3]float64{0, 1.6, 0.1}, Radius: 0.15}}
	cfg.Duration = 8
	return cfg
}

func ball() *Config {
	cfg := DefaultConfig()
	cfg.Name = "ball"
	cfg.Shape.Kind = "icosphere"
	cfg.Shape.Size = 0.5
	cfg.Shape.Segments = 2
	cfg.Shape.Origin = [3]float64{0, 2, 0}
	cfg.Shape.Mass = 0.08
	cfg.Shape.Seed = 3
	cfg.Solver.Damping = 0.02
	return cfg
}

func jelly() *Config {
	cfg := DefaultConfig()
	cfg.Name = "jelly"
	cfg.Shape.Nx = 5
	cfg.Shape.Ny = 5
	cfg.Shape.Nz = 5
	cfg.Shape.Spacing = 0.2
	cfg.Shape.Origin = [3]float64{0, 1.2, 0}
	cfg.Shape.Compliance.Structural = 1e-5
	cfg.Shape.Compliance.Shear = 1e-3
	cfg.Shape.Compliance.Bend = 1e-2
	cfg.Shape.Compliance.Volume = 1e-5
	cfg.Sleep.Time = 1.5
	return cfg
}

// wall drops a row of small cubes that settle, sleep, and wake each
// other through the proximity broadcast.
func wall() *Config {
	cfg := DefaultConfig()
	cfg.Name = "wall"
	cfg.Count = 3
	cfg.Gap = 0.3
	cfg.Shape.Nx = 3
	cfg.Shape.Ny = 3
	cfg.Shape.Nz = 3
	cfg.Shape.Spacing = 0.2
	cfg.Shape.Origin = [3]float64{0, 1, 0}
	cfg.Sleep.Speed = 0.08
	cfg.Sleep.Time = 0.5
	cfg.Sleep.WakeRadius = 1.5
	return cfg
}
