package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/guptarohit/asciigraph"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/san-kum/softsim/internal/body"
	"github.com/san-kum/softsim/internal/color"
	"github.com/san-kum/softsim/internal/compute"
	"github.com/san-kum/softsim/internal/config"
	"github.com/san-kum/softsim/internal/export"
	"github.com/san-kum/softsim/internal/geom"
	"github.com/san-kum/softsim/internal/record"
	"github.com/san-kum/softsim/internal/topology"
	"github.com/san-kum/softsim/internal/viz"
	"github.com/san-kum/softsim/internal/world"
	"github.com/san-kum/softsim/internal/xpbd"
)

var (
	dataDir string
	verbose bool

	presetName string
	configPath string
	shapeKind  string
	coloring   string
	repairMode string
	bodyCount  int
	duration   float64
	fps        float64
	backendKey string
	workers    int

	outPath     string
	svgPath     string
	snapAt      float64
	benchFrames int
	withProfile bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "softsim",
	Short: "deformable soft body simulation lab",
	Long: `softsim builds deformable bodies out of XPBD particle lattices and
meshes, steps them headless or in a live terminal view, and archives
the resulting frame data for later inspection.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// The live view owns the terminal, so route logs nowhere there.
		if cmd.Name() == "live" {
			logger = zap.NewNop()
			return nil
		}
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "run a headless simulation and archive the frames",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveConfig(cmd)
		if err != nil {
			return err
		}
		be, err := buildBackend()
		if err != nil {
			return err
		}
		defer be.Close()

		w, err := buildWorld(cfg, be, logger)
		if err != nil {
			return err
		}

		frames := int(cfg.Duration * cfg.FPS)
		delta := 1.0 / cfg.FPS
		rec := record.NewRecorder(frames)

		ctx := context.Background()
		start := time.Now()
		for i := 0; i < frames; i++ {
			if err := w.Step(ctx, delta); err != nil {
				return fmt.Errorf("frame %d: %w", i, err)
			}
			rec.Observe(w.Stats())
		}
		elapsed := time.Since(start)

		store := record.New(dataDir)
		if err := store.Init(); err != nil {
			return err
		}
		meta := runMetadata(cfg, w)
		meta.Metrics = record.Summarize(rec.Frames())
		id, err := store.Save(meta, rec.Frames())
		if err != nil {
			return err
		}

		st := w.Stats()
		fmt.Printf("simulated %.1fs (%d frames) in %v\n",
			cfg.Duration, frames, elapsed.Round(time.Millisecond))
		fmt.Printf("bodies: %d awake, %d asleep, %d degraded\n",
			st.Awake, st.Asleep, st.Degraded)
		fmt.Printf("run id: %s\n", id)
		keys := make([]string, 0, len(meta.Metrics))
		for k := range meta.Metrics {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("  %s: %.4f\n", k, meta.Metrics[k])
		}
		return nil
	},
}

var liveCmd = &cobra.Command{
	Use:   "live",
	Short: "watch a simulation in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveConfig(cmd)
		if err != nil {
			return err
		}
		be, err := buildBackend()
		if err != nil {
			return err
		}
		defer be.Close()

		w, err := buildWorld(cfg, be, logger)
		if err != nil {
			return err
		}

		p := tea.NewProgram(viz.NewModel(w, cfg.Name, 1.0/cfg.FPS))
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("failed to run viewer: %w", err)
		}
		return nil
	},
}

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "print topology and coloring stats without running the solver",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveConfig(cmd)
		if err != nil {
			return err
		}
		topo, err := buildTopology(cfg)
		if err != nil {
			return err
		}
		report, err := topology.Repair(topo, cfg.RepairOptions())
		if err != nil {
			return err
		}
		topo.Constraints = topology.FilterLongRange(topo.Constraints, len(topo.Particles), cfg.FilterOptions())

		colors, colorCount, err := color.Apply(topo.Constraints, len(topo.Particles), cfg.Strategy())
		if err != nil {
			return err
		}
		byKind := make(map[string]int)
		for _, c := range topo.Constraints {
			byKind[c.Kind.String()]++
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "shape\t%s\n", cfg.Shape.Kind)
		fmt.Fprintf(tw, "particles\t%d\n", len(topo.Particles))
		fmt.Fprintf(tw, "constraints\t%d\n", len(topo.Constraints))
		kinds := make([]string, 0, len(byKind))
		for k := range byKind {
			kinds = append(kinds, k)
		}
		sort.Strings(kinds)
		for _, k := range kinds {
			fmt.Fprintf(tw, "  %s\t%d\n", k, byKind[k])
		}
		fmt.Fprintf(tw, "tetrahedra\t%d\n", len(topo.Volumes))
		fmt.Fprintf(tw, "coloring\t%s\n", cfg.Coloring)
		fmt.Fprintf(tw, "colors\t%d\n", colorCount)
		fmt.Fprintf(tw, "islands\t%d (was %d, %d constraints added)\n",
			report.ComponentsAfter, report.ComponentsBefore, report.Added)
		tw.Flush()

		if colorCount > 0 && len(colors) > 0 {
			sizes := make([]float64, colorCount)
			for _, c := range colors {
				sizes[c]++
			}
			fmt.Println()
			fmt.Println(asciigraph.Plot(sizes,
				asciigraph.Height(8),
				asciigraph.Width(60),
				asciigraph.Caption("constraints per color")))
		}
		return nil
	},
}

var plotCmd = &cobra.Command{
	Use:   "plot <run-id>",
	Short: "show metadata and energy history for an archived run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store := record.New(dataDir)
		meta, err := store.Load(args[0])
		if err != nil {
			return fmt.Errorf("failed to load run: %w", err)
		}
		frames, err := store.LoadFrames(args[0])
		if err != nil {
			return fmt.Errorf("failed to load frames: %w", err)
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "name\t%s\n", meta.Name)
		fmt.Fprintf(tw, "when\t%s\n", meta.Timestamp.Format("2006-01-02 15:04:05"))
		fmt.Fprintf(tw, "shape\t%s\n", meta.Shape)
		fmt.Fprintf(tw, "coloring\t%s\n", meta.Coloring)
		fmt.Fprintf(tw, "bodies\t%d\n", meta.Bodies)
		fmt.Fprintf(tw, "particles\t%d\n", meta.Particles)
		fmt.Fprintf(tw, "constraints\t%d\n", meta.Constraints)
		fmt.Fprintf(tw, "frames\t%d\n", meta.Frames)
		fmt.Fprintf(tw, "duration\t%.2fs\n", meta.Duration)
		keys := make([]string, 0, len(meta.Metrics))
		for k := range meta.Metrics {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(tw, "%s\t%.4f\n", k, meta.Metrics[k])
		}
		tw.Flush()

		if len(frames) > 1 {
			kinetic := make([]float64, len(frames))
			awake := make([]float64, len(frames))
			for i, f := range frames {
				kinetic[i] = f.Kinetic
				awake[i] = float64(f.Awake)
			}
			fmt.Println()
			fmt.Println(asciigraph.Plot(kinetic,
				asciigraph.Height(10),
				asciigraph.Width(80),
				asciigraph.Caption("kinetic energy")))
			fmt.Println()
			fmt.Println(asciigraph.Plot(awake,
				asciigraph.Height(5),
				asciigraph.Width(80),
				asciigraph.Caption("awake bodies")))
			if svgPath != "" {
				if err := export.WriteFile(svgPath, export.SeriesSVG(kinetic, 800, 240, "")); err != nil {
					return err
				}
				fmt.Printf("wrote %s\n", svgPath)
			}
		}
		return nil
	},
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot <out.svg>",
	Short: "render a wireframe still of the scene to an SVG file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveConfig(cmd)
		if err != nil {
			return err
		}
		be, err := buildBackend()
		if err != nil {
			return err
		}
		defer be.Close()

		w, err := buildWorld(cfg, be, logger)
		if err != nil {
			return err
		}

		delta := 1.0 / cfg.FPS
		ctx := context.Background()
		for i := 0; i < int(snapAt*cfg.FPS); i++ {
			if err := w.Step(ctx, delta); err != nil {
				return fmt.Errorf("frame %d: %w", i, err)
			}
		}

		cam := viz.NewCamera()
		if w.Len() > 0 {
			center := mgl64.Vec3{}
			for _, b := range w.Bodies() {
				center = center.Add(b.Center())
			}
			cam.Center = center.Mul(1 / float64(w.Len()))
		}

		wf := viz.NewWireframe()
		wf.Edges = append(wf.Edges, viz.GroundWireframe(2.5, 0.5).Edges...)
		var scratch []mgl64.Vec3
		for _, b := range w.Bodies() {
			scratch = b.Positions(scratch[:0])
			viz.BodyEdges(wf, scratch, b.ConstraintPairs(nil))
		}

		canvas := viz.NewCanvas(120, 40)
		viz.Render3D(canvas, wf, cam)
		if err := export.WriteFile(args[0], export.CanvasSVG(canvas, 4)); err != nil {
			return err
		}
		fmt.Printf("wrote %s (t=%.2fs)\n", args[0], w.Time())
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "list archived runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		store := record.New(dataDir)
		runs, err := store.List()
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("no runs recorded")
			return nil
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tSHAPE\tBODIES\tFRAMES\tDURATION\tWHEN")
		for _, r := range runs {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%.2fs\t%s\n",
				r.ID, r.Name, r.Shape, r.Bodies, r.Frames, r.Duration,
				r.Timestamp.Format("2006-01-02 15:04:05"))
		}
		return tw.Flush()
	},
}

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "list built-in scene presets",
	RunE: func(cmd *cobra.Command, args []string) error {
		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tSHAPE\tBODIES\tCOLORING\tDURATION")
		for _, name := range config.ListPresets() {
			p := config.GetPreset(name)
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%.0fs\n",
				name, p.Shape.Kind, p.Count, p.Coloring, p.Duration)
		}
		return tw.Flush()
	},
}

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "benchmark coloring strategies across lattice resolutions",
	RunE: func(cmd *cobra.Command, args []string) error {
		if withProfile {
			p := profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook)
			defer p.Stop()
		}
		be, err := buildBackend()
		if err != nil {
			return err
		}
		defer be.Close()

		delta := 1.0 / config.DefaultFPS
		ctx := context.Background()

		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "SIZE\tPARTICLES\tSTRATEGY\tCOLORS\tSUBSTEPS\tELAPSED\tSTEPS/SEC")
		var scaling []float64
		for _, size := range []int{4, 6, 8} {
			for _, strat := range []string{"none", "greedy", "cluster", "indepset"} {
				cfg := config.DefaultConfig()
				cfg.Shape.Nx, cfg.Shape.Ny, cfg.Shape.Nz = size, size, size
				cfg.Coloring = strat
				cfg.Sleep.Enabled = false
				if err := cfg.Validate(); err != nil {
					return err
				}
				w, err := buildWorld(cfg, be, zap.NewNop())
				if err != nil {
					return err
				}
				start := time.Now()
				for i := 0; i < benchFrames; i++ {
					if err := w.Step(ctx, delta); err != nil {
						return fmt.Errorf("frame %d: %w", i, err)
					}
				}
				elapsed := time.Since(start)
				b := w.Body(0)
				substeps := b.Stats().Substeps
				stepsPerSec := float64(benchFrames*substeps) / elapsed.Seconds()
				fmt.Fprintf(tw, "%d\t%d\t%s\t%d\t%d\t%v\t%.0f\n",
					size, b.NumParticles(), strat, b.ColorCount(), substeps,
					elapsed.Round(time.Microsecond), stepsPerSec)
				if strat == "greedy" {
					scaling = append(scaling, stepsPerSec)
				}
			}
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		if len(scaling) > 1 {
			fmt.Println()
			fmt.Println(asciigraph.Plot(scaling,
				asciigraph.Height(6),
				asciigraph.Width(40),
				asciigraph.Caption("greedy steps/sec by size")))
		}
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export <run-id>",
	Short: "export an archived run as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store := record.New(dataDir)
		meta, err := store.Load(args[0])
		if err != nil {
			return fmt.Errorf("failed to load run: %w", err)
		}
		frames, err := store.LoadFrames(args[0])
		if err != nil {
			return fmt.Errorf("failed to load frames: %w", err)
		}
		if outPath != "" {
			return record.ExportJSON(outPath, *meta, frames)
		}
		return record.ExportJSONStdout(*meta, frames)
	},
}

var exportCSVCmd = &cobra.Command{
	Use:   "export-csv <run-id>",
	Short: "export the frames of an archived run as CSV",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store := record.New(dataDir)
		frames, err := store.LoadFrames(args[0])
		if err != nil {
			return fmt.Errorf("failed to load frames: %w", err)
		}
		if outPath != "" {
			return record.ExportCSV(outPath, frames)
		}
		return record.ExportCSVStdout(frames)
	},
}

// resolveConfig layers the scene sources: defaults, then the named preset,
// then the config file, then any flag the user set on the command line.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if presetName != "" {
		p := config.GetPreset(presetName)
		if p == nil {
			return nil, fmt.Errorf("unknown preset %q (available: %s)",
				presetName, strings.Join(config.ListPresets(), ", "))
		}
		cfg = p
	}
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	flags := cmd.Flags()
	if flags.Changed("shape") {
		cfg.Shape.Kind = shapeKind
	}
	if flags.Changed("coloring") {
		cfg.Coloring = coloring
	}
	if flags.Changed("repair") {
		cfg.Repair.Mode = repairMode
	}
	if flags.Changed("count") {
		cfg.Count = bodyCount
	}
	if flags.Changed("time") {
		cfg.Duration = duration
	}
	if flags.Changed("fps") {
		cfg.FPS = fps
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func buildBackend() (compute.Backend, error) {
	return backendFor(backendKey, workers)
}

func backendFor(key string, n int) (compute.Backend, error) {
	switch key {
	case "auto", "":
		return compute.Auto(), nil
	case "serial":
		return compute.Serial{}, nil
	case "pool":
		return compute.NewPool(n), nil
	}
	return nil, fmt.Errorf("unknown backend %q (available: auto, serial, pool)", key)
}

func buildWorld(cfg *config.Config, be compute.Backend, log *zap.Logger) (*world.World, error) {
	w := world.New(world.Options{Logger: log, IndexCell: cfg.Sleep.WakeRadius})
	for _, col := range cfg.Colliders() {
		w.AddCollider(col)
	}
	for i := 0; i < cfg.Count; i++ {
		b, err := buildBody(cfg, i, be, log)
		if err != nil {
			return nil, err
		}
		w.AddBody(b)
	}
	return w, nil
}

func buildBody(cfg *config.Config, idx int, be compute.Backend, log *zap.Logger) (*body.Body, error) {
	topo, err := buildTopology(cfg)
	if err != nil {
		return nil, err
	}
	if idx > 0 {
		shift := mgl64.Vec3{float64(idx) * (shapeExtent(cfg) + cfg.Gap), 0, 0}
		for i := range topo.Particles {
			topo.Particles[i].Position = topo.Particles[i].Position.Add(shift)
		}
	}

	report, err := topology.Repair(topo, cfg.RepairOptions())
	if err != nil {
		return nil, err
	}
	if report.ComponentsAfter > 1 {
		log.Warn("Constraint graph still split after repair",
			zap.Int("components", report.ComponentsAfter))
	}
	topo.Constraints = topology.FilterLongRange(topo.Constraints, len(topo.Particles), cfg.FilterOptions())

	// Pins are baked into the rest state so Reset keeps them anchored.
	for _, pin := range cfg.Pins {
		pinParticles(topo, mgl64.Vec3(pin.Point), pin.Radius)
	}

	name := cfg.Name
	if cfg.Count > 1 {
		name = fmt.Sprintf("%s-%d", cfg.Name, idx)
	}
	b, err := body.New(topo, body.Options{
		Name:       name,
		Strategy:   cfg.Strategy(),
		Params:     cfg.Params(),
		Thresholds: cfg.Thresholds(),
		Backend:    be,
		Logger:     log,
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

func buildTopology(cfg *config.Config) (*xpbd.Topology, error) {
	switch cfg.Shape.Kind {
	case "lattice":
		return topology.BuildLattice(cfg.LatticeOptions())
	case "cuboid":
		s := cfg.Shape.Size
		mesh := geom.Cuboid(mgl64.Vec3(cfg.Shape.Origin), mgl64.Vec3{s, s, s}, cfg.Shape.Segments)
		topo, _, err := topology.BuildFromMesh(mesh, cfg.MeshOptions())
		return topo, err
	case "icosphere":
		mesh := geom.Icosphere(mgl64.Vec3(cfg.Shape.Origin), cfg.Shape.Size, cfg.Shape.Segments)
		topo, _, err := topology.BuildFromMesh(mesh, cfg.MeshOptions())
		return topo, err
	}
	return nil, fmt.Errorf("unknown shape kind %q", cfg.Shape.Kind)
}

func pinParticles(topo *xpbd.Topology, point mgl64.Vec3, radius float64) int {
	if radius <= 0 {
		return 0
	}
	n := 0
	for i := range topo.Particles {
		if topo.Particles[i].Position.Sub(point).Len() > radius {
			continue
		}
		topo.Particles[i].InvMass = 0
		n++
	}
	return n
}

// shapeExtent returns the x span of one body, used to place bodies
// side by side without overlap.
func shapeExtent(cfg *config.Config) float64 {
	if cfg.Shape.Kind == "lattice" {
		return float64(cfg.Shape.Nx-1) * cfg.Shape.Spacing
	}
	if cfg.Shape.Kind == "icosphere" {
		return 2 * cfg.Shape.Size
	}
	return cfg.Shape.Size
}

func runMetadata(cfg *config.Config, w *world.World) record.RunMetadata {
	particles, constraints := 0, 0
	for _, b := range w.Bodies() {
		particles += b.NumParticles()
		constraints += b.NumConstraints()
	}
	return record.RunMetadata{
		Name:        cfg.Name,
		Shape:       cfg.Shape.Kind,
		Coloring:    cfg.Coloring,
		Bodies:      w.Len(),
		Particles:   particles,
		Constraints: constraints,
	}
}

func addSceneFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&presetName, "preset", "", "start from a named preset")
	f.StringVar(&configPath, "config", "", "load the scene from a YAML file")
	f.StringVar(&shapeKind, "shape", "lattice", "shape kind (lattice, cuboid, icosphere)")
	f.StringVar(&coloring, "coloring", "greedy", "constraint coloring strategy (none, greedy, cluster, indepset)")
	f.StringVar(&repairMode, "repair", "bridge", "connectivity repair mode (off, bridge, proximity, hybrid)")
	f.IntVar(&bodyCount, "count", 1, "number of bodies")
	f.Float64Var(&duration, "time", config.DefaultDuration, "simulated seconds")
	f.Float64Var(&fps, "fps", config.DefaultFPS, "frames per second")
	f.StringVar(&backendKey, "backend", "auto", "compute backend (auto, serial, pool)")
	f.IntVar(&workers, "workers", 0, "worker count for the pool backend (0 = all cores)")
}

func main() {
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", record.DefaultDir, "run archive directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	addSceneFlags(runCmd)
	addSceneFlags(liveCmd)
	addSceneFlags(snapshotCmd)
	addSceneFlags(inspectCmd)
	snapshotCmd.Flags().Float64Var(&snapAt, "at", 0, "simulated seconds to advance before rendering")

	plotCmd.Flags().StringVar(&svgPath, "svg", "", "also write the kinetic series as an SVG plot")

	benchCmd.Flags().IntVar(&benchFrames, "frames", 240, "frames to step per combination")
	benchCmd.Flags().BoolVar(&withProfile, "profile", false, "write a CPU profile to the working directory")
	benchCmd.Flags().StringVar(&backendKey, "backend", "auto", "compute backend (auto, serial, pool)")
	benchCmd.Flags().IntVar(&workers, "workers", 0, "worker count for the pool backend (0 = all cores)")

	exportCmd.Flags().StringVar(&outPath, "out", "", "write to a file instead of stdout")
	exportCSVCmd.Flags().StringVar(&outPath, "out", "", "write to a file instead of stdout")

	rootCmd.AddCommand(runCmd, liveCmd, snapshotCmd, inspectCmd, plotCmd, listCmd, presetsCmd, benchCmd, exportCmd, exportCSVCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
