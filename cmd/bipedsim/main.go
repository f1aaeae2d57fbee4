package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/bipedsim/internal/config"
	"github.com/san-kum/bipedsim/internal/control"
	"github.com/san-kum/bipedsim/internal/integrators"
	"github.com/san-kum/bipedsim/internal/log"
	"github.com/san-kum/bipedsim/internal/metrics"
	"github.com/san-kum/bipedsim/internal/optim"
	"github.com/san-kum/bipedsim/internal/physics"
	"github.com/san-kum/bipedsim/internal/report"
	"github.com/san-kum/bipedsim/internal/robot"
	"github.com/san-kum/bipedsim/internal/sim"
	"github.com/san-kum/bipedsim/internal/storage"
	"github.com/san-kum/bipedsim/internal/viz"
)

var (
	dataDir    string
	configFile string
	logLevel   string
	preset     string
	duration   float64
	seed       int64
	noise      float64
	outPath    string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "bipedsim",
		Short: "bipedal standing balance simulator",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.Init(logLevel)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".bipedsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	standCmd := &cobra.Command{
		Use:   "stand",
		Short: "run a standing balance session",
		RunE:  runStand,
	}
	standCmd.Flags().StringVar(&preset, "preset", "default", "scenario preset")
	standCmd.Flags().Float64Var(&duration, "time", 0, "duration override (s)")
	standCmd.Flags().Int64Var(&seed, "seed", 0, "random seed override")
	standCmd.Flags().Float64Var(&noise, "noise", -1, "IMU noise override (deg)")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "interactive live balance view",
		RunE:  runLive,
	}
	liveCmd.Flags().StringVar(&preset, "preset", "default", "scenario preset")

	tuneCmd := &cobra.Command{
		Use:   "tune",
		Short: "grid search posture gains for the best stability score",
		RunE:  runTune,
	}
	tuneCmd.Flags().StringVar(&preset, "preset", "perturbed", "scenario preset to tune against")
	tuneCmd.Flags().Float64Var(&duration, "time", 5, "evaluation duration per candidate (s)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	reportCmd := &cobra.Command{
		Use:   "report [run_id]",
		Short: "render PNG and HTML reports for a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  reportRun,
	}
	reportCmd.Flags().StringVar(&outPath, "out", "", "output path prefix (default: run id)")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run history as CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list scenario presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range config.ListPresets() {
				fmt.Println(name)
			}
			return nil
		},
	}

	urdfCmd := &cobra.Command{
		Use:   "urdf",
		Short: "print the robot model as URDF",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			desc, err := cfg.Description()
			if err != nil {
				return err
			}
			fmt.Print(robot.GenerateURDF(desc))
			return nil
		},
	}

	rootCmd.AddCommand(standCmd, liveCmd, tuneCmd, listCmd, plotCmd, reportCmd, exportCmd, exportCSVCmd, presetsCmd, urdfCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig resolves the run configuration: preset, then config file
// on top if given.
func loadConfig() (*config.Config, error) {
	if configFile != "" {
		return config.Load(configFile)
	}
	cfg := config.GetPreset(preset)
	if cfg == nil {
		return nil, fmt.Errorf("unknown preset %q (available: %v)", preset, config.ListPresets())
	}
	return cfg, nil
}

// buildWorld assembles the environment, controller and observer from a
// validated configuration.
func buildWorld(cfg *config.Config) (*sim.Environment, *control.Standing, *metrics.Stability, *robot.Description, error) {
	desc, err := cfg.Description()
	if err != nil {
		return nil, nil, nil, nil, err
	}

	plant := physics.NewBiped()
	plant.Friction = cfg.Simulation.GroundFriction
	plant.Gravity = cfg.Simulation.Gravity

	env, err := sim.NewEnvironment(desc, plant, integrators.NewRK4(), cfg.EnvConfig(), cfg.BaselinePose())
	if err != nil {
		return nil, nil, nil, nil, err
	}

	ctrl, err := control.NewStanding(cfg.StandingConfig(), desc)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	stability := metrics.NewStability(cfg.StabilityThresholds(), cfg.StabilityWeights())
	return env, ctrl, stability, desc, nil
}

func runStand(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("time") {
		cfg.Simulation.Duration = duration
	}
	if cmd.Flags().Changed("seed") {
		cfg.Simulation.Seed = seed
	}
	if cmd.Flags().Changed("noise") {
		cfg.Simulation.NoiseLevel = noise
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	env, ctrl, stability, _, err := buildWorld(cfg)
	if err != nil {
		return err
	}

	session, err := sim.NewSession(env, ctrl, cfg.SessionConfig(), stability)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("standing for %.1fs (preset %s)...\n", cfg.Simulation.Duration, preset)
	start := time.Now()
	result, err := session.Run(ctx)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	summary := stability.Summary()
	runID, err := st.Save(preset, cfg.Simulation.Seed, cfg.Simulation.ControlDt, &result, summary)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("ticks: %d\n\n", result.Ticks)
	fmt.Printf("score:       %.1f\n", summary.Score)
	fmt.Printf("stable:      %v\n", summary.IsStable)
	fmt.Printf("mean height: %.4f m (std %.5f)\n", summary.MeanHeight, summary.StdHeight)
	fmt.Printf("tilt std:    roll %.3f°, pitch %.3f°\n", summary.StdRoll, summary.StdPitch)
	fmt.Printf("max drift:   %.4f m\n", summary.MaxDrift)
	fmt.Printf("violations:  %d\n", summary.Violations)
	fmt.Printf("saturations: %d\n", ctrl.Saturations())
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	env, ctrl, stability, desc, err := buildWorld(cfg)
	if err != nil {
		return err
	}

	m := viz.NewModel(env, ctrl, stability, desc, cfg.Simulation.ControlDt)
	p := tea.NewProgram(m)
	_, err = p.Run()
	return err
}

func runTune(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.Simulation.Duration = duration

	gs := optim.NewGridSearch(
		[]string{"pitch_kp", "pitch_kd", "roll_kp"},
		[][]float64{
			{0.1, 0.2, 0.3, 0.5, 0.8},
			{0.02, 0.05, 0.1, 0.2},
			{0.1, 0.3, 0.5},
		},
	)
	fmt.Printf("tuning against preset %s: %d candidates, %.1fs each\n", preset, gs.Candidates(), duration)

	eval := func(ctx context.Context, params map[string]float64) (float64, error) {
		env, ctrl, stability, _, err := buildWorld(cfg)
		if err != nil {
			return 0, err
		}
		for name, val := range params {
			if err := ctrl.SetParam(name, val); err != nil {
				return 0, err
			}
		}
		session, err := sim.NewSession(env, ctrl, cfg.SessionConfig(), stability)
		if err != nil {
			return 0, err
		}
		if _, err := session.Run(ctx); err != nil {
			return 0, err
		}
		return stability.Score(), nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	best, score, err := gs.Search(ctx, eval)
	if err != nil {
		return err
	}
	if best == nil {
		return fmt.Errorf("no candidate completed")
	}

	fmt.Printf("\nbest score: %.2f\n", score)
	for _, name := range []string{"pitch_kp", "pitch_kd", "roll_kp"} {
		fmt.Printf("  %s: %g\n", name, best[name])
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRESET\tTIME\tDURATION\tSCORE\tSTABLE")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.1f\t%v\n",
			run.ID,
			run.Preset,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Stability.Score,
			run.Stability.IsStable,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	history, err := st.LoadHistory(args[0])
	if err != nil {
		return err
	}
	if len(history) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s (score %.1f)\n\n", meta.ID, meta.Stability.Score)

	traces := []struct {
		caption string
		f       func(sim.HistoryRow) float64
	}{
		{"height (m)", func(r sim.HistoryRow) float64 { return r.Height }},
		{"roll (deg)", func(r sim.HistoryRow) float64 { return r.Roll }},
		{"pitch (deg)", func(r sim.HistoryRow) float64 { return r.Pitch }},
		{"drift (m)", func(r sim.HistoryRow) float64 { return r.Drift }},
	}
	for _, tr := range traces {
		data := make([]float64, len(history))
		for i, row := range history {
			data[i] = tr.f(row)
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(8),
			asciigraph.Width(80),
			asciigraph.Caption(tr.caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func reportRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	history, err := st.LoadHistory(runID)
	if err != nil {
		return err
	}

	prefix := outPath
	if prefix == "" {
		prefix = runID
	}

	cfg, err := loadConfigOrDefault()
	if err != nil {
		return err
	}

	pngPath := prefix + ".png"
	if err := report.SavePNG(pngPath, history, cfg.StabilityThresholds()); err != nil {
		return err
	}
	htmlPath := prefix + ".html"
	if err := report.SaveHTML(htmlPath, meta.ID, history, meta.Stability); err != nil {
		return err
	}

	fmt.Printf("wrote %s and %s\n", pngPath, htmlPath)
	return nil
}

// loadConfigOrDefault is loadConfig but tolerant of a missing preset
// flag, for commands that only need thresholds.
func loadConfigOrDefault() (*config.Config, error) {
	if configFile != "" {
		return config.Load(configFile)
	}
	return config.DefaultConfig(), nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	history, err := st.LoadHistory(args[0])
	if err != nil {
		return err
	}
	if len(history) == 0 {
		return fmt.Errorf("no data to export")
	}

	w := csv.NewWriter(os.Stdout)
	defer w.Flush()

	if err := w.Write([]string{"time", "height", "roll", "pitch", "x", "y", "drift"}); err != nil {
		return err
	}
	for _, row := range history {
		rec := []string{
			strconv.FormatFloat(row.Time, 'f', 6, 64),
			strconv.FormatFloat(row.Height, 'f', 6, 64),
			strconv.FormatFloat(row.Roll, 'f', 6, 64),
			strconv.FormatFloat(row.Pitch, 'f', 6, 64),
			strconv.FormatFloat(row.X, 'f', 6, 64),
			strconv.FormatFloat(row.Y, 'f', 6, 64),
			strconv.FormatFloat(row.Drift, 'f', 6, 64),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	return nil
}
