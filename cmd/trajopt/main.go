package main

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/trajopt/internal/config"
	"github.com/san-kum/trajopt/internal/metrics"
	"github.com/san-kum/trajopt/internal/optim"
	"github.com/san-kum/trajopt/internal/phys"
	"github.com/san-kum/trajopt/internal/store"
	"github.com/san-kum/trajopt/internal/trajectory"
	"github.com/san-kum/trajopt/internal/tui"
)

var (
	configFile string
	outFile    string
	live       bool
	verbose    bool

	steps          int
	shootingLength int
	maxIterations  int
	model          string
)

func main() {
	root := &cobra.Command{
		Use:   "trajopt",
		Short: "Multiple-shooting trajectory optimization for controlled dynamical systems",
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "YAML config file")
	root.PersistentFlags().StringVarP(&outFile, "out", "o", "", "export trajectory (.json, .csv or .svg)")
	root.PersistentFlags().StringVarP(&model, "model", "m", "", "system model (pendulum, springchain)")
	root.PersistentFlags().IntVar(&steps, "steps", 0, "horizon length in timesteps")
	root.PersistentFlags().IntVar(&shootingLength, "shooting-length", 0, "timesteps per shooting segment")

	optimizeCmd := &cobra.Command{
		Use:   "optimize",
		Short: "Solve the shooting problem and report the optimized trajectory",
		RunE:  runOptimize,
	}
	optimizeCmd.Flags().BoolVar(&live, "live", false, "show live optimization progress")
	optimizeCmd.Flags().IntVar(&maxIterations, "max-iter", 0, "solver iteration limit")

	rolloutCmd := &cobra.Command{
		Use:   "rollout",
		Short: "Simulate the current trajectory parameters without optimizing",
		RunE:  runRollout,
	}
	rolloutCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "dump problem internals")

	root.AddCommand(optimizeCmd, rolloutCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if model != "" {
		cfg.Model = model
	}
	if steps > 0 {
		cfg.Steps = steps
	}
	if shootingLength > 0 {
		cfg.ShootingLength = shootingLength
	}
	if maxIterations > 0 {
		cfg.MaxIterations = maxIterations
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func buildSystem(cfg *config.Config) (phys.System, error) {
	switch cfg.Model {
	case "pendulum", "":
		p := phys.NewPendulum()
		p.Dt = cfg.Dt
		if cfg.ModelParams.Mass > 0 {
			p.Mass = cfg.ModelParams.Mass
		}
		if cfg.ModelParams.Length > 0 {
			p.Length = cfg.ModelParams.Length
		}
		if cfg.ModelParams.Damping > 0 {
			p.Damping = cfg.ModelParams.Damping
		}
		if cfg.ModelParams.MaxForce > 0 {
			p.MaxForce = cfg.ModelParams.MaxForce
		}
		if len(cfg.InitState.Pos) > 0 {
			p.Theta = cfg.InitState.Pos[0]
		}
		if len(cfg.InitState.Vel) > 0 {
			p.Omega = cfg.InitState.Vel[0]
		}
		return p, nil
	case "springchain":
		masses := cfg.ModelParams.Masses
		if masses <= 0 {
			masses = 2
		}
		c := phys.NewSpringChain(masses)
		c.Dt = cfg.Dt
		if cfg.ModelParams.Mass > 0 {
			c.Mass = cfg.ModelParams.Mass
		}
		if cfg.ModelParams.Stiffness > 0 {
			c.Stiffness = cfg.ModelParams.Stiffness
		}
		if cfg.ModelParams.Damping > 0 {
			c.Damping = cfg.ModelParams.Damping
		}
		if cfg.ModelParams.MaxForce > 0 {
			c.MaxForce = cfg.ModelParams.MaxForce
		}
		copy(c.InitPos, cfg.InitState.Pos)
		copy(c.InitVel, cfg.InitState.Vel)
		return c, nil
	default:
		return nil, fmt.Errorf("unknown model %q", cfg.Model)
	}
}

func buildProblem(cfg *config.Config) (*trajectory.Problem, error) {
	sys, err := buildSystem(cfg)
	if err != nil {
		return nil, err
	}
	d := sys.NumDofs()

	goalPos := make([]float64, d)
	goalVel := make([]float64, d)
	copy(goalPos, cfg.Loss.GoalPos)
	copy(goalVel, cfg.Loss.GoalVel)
	tw, pw, vw := cfg.Loss.TorqueWeight, cfg.Loss.PosWeight, cfg.Loss.VelWeight

	stepLoss := func(pos, vel, torque []float64) float64 {
		sum := 0.0
		for _, u := range torque {
			sum += tw * u * u
		}
		return sum
	}
	finalLoss := func(pos, vel []float64) float64 {
		sum := 0.0
		for i := range pos {
			dp := pos[i] - goalPos[i]
			dv := vel[i] - goalVel[i]
			sum += pw*dp*dp + vw*dv*dv
		}
		return sum
	}

	return trajectory.NewProblem(sys, stepLoss, finalLoss, trajectory.Options{
		Steps:             cfg.Steps,
		ShootingLength:    cfg.ShootingLength,
		TuneStartingPoint: cfg.TuneStartingPoint,
		EnforceLoop:       cfg.EnforceLoop,
		FinalState:        cfg.FinalState,
		DisableActuators:  cfg.DisableActuators,
		BarrierStrength:   cfg.BarrierStrength,
	})
}

func runOptimize(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	prob, err := buildProblem(cfg)
	if err != nil {
		return err
	}

	opts := optim.Options{
		MaxIterations: cfg.MaxIterations,
		Accuracy:      cfg.Accuracy,
	}

	var result *optim.Result
	var solveErr error

	if live {
		prog := tea.NewProgram(tui.New())
		opts.Progress = func(eval int, loss float64) {
			prog.Send(tui.ProgressMsg{Eval: eval, Loss: loss})
		}
		go func() {
			result, solveErr = optim.NewSolver(prob, opts).Solve()
			msg := tui.DoneMsg{Err: solveErr}
			if result != nil {
				msg.Loss = result.Loss
				msg.Converged = result.Converged
			}
			prog.Send(msg)
		}()
		if _, err := prog.Run(); err != nil {
			return err
		}
	} else {
		result, solveErr = optim.NewSolver(prob, opts).Solve()
	}
	if solveErr != nil {
		return solveErr
	}

	fmt.Printf("loss: %.6g (converged=%v, %d iterations, %d evaluations)\n",
		result.Loss, result.Converged, result.Iterations, result.Evaluations)

	roll := prob.LastRollout()
	for _, diag := range roll.Diagnostics {
		fmt.Fprintln(os.Stderr, "diag:", diag)
	}

	g, err := prob.EvalConstraints(prob.Encode(trajectory.EncodeState))
	if err != nil {
		return err
	}
	controls := prob.Controls()
	fmt.Printf("worst gap: %.3g  control effort: %.4g\n",
		metrics.MaxAbs(g), metrics.ControlEffort(controls))

	plotTrajectory(prob.LastRollout())
	return export(cfg, prob)
}

func runRollout(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	prob, err := buildProblem(cfg)
	if err != nil {
		return err
	}

	roll := prob.Unroll()
	fmt.Printf("loss: %.6g  knot loss: %.6g\n", roll.Loss, roll.KnotLoss)
	for _, diag := range roll.Diagnostics {
		fmt.Fprintln(os.Stderr, "diag:", diag)
	}
	if verbose {
		prob.Debug(os.Stdout)
	}

	plotTrajectory(roll)
	return export(cfg, prob)
}

func plotTrajectory(roll *trajectory.Rollout) {
	if roll == nil || len(roll.Positions) < 2 {
		return
	}
	series := make([]float64, len(roll.Positions))
	for t, pos := range roll.Positions {
		series[t] = pos[0]
	}
	fmt.Println(asciigraph.Plot(series,
		asciigraph.Height(12), asciigraph.Width(72),
		asciigraph.Caption("position[0] over horizon")))
}

func export(cfg *config.Config, prob *trajectory.Problem) error {
	if outFile == "" {
		return nil
	}
	roll := prob.LastRollout()
	if roll == nil {
		roll = prob.Unroll()
	}

	times := make([]float64, len(roll.Positions))
	for t := range times {
		times[t] = float64(t) * cfg.Dt
	}
	data := &store.ExportData{
		Model:      cfg.Model,
		Dt:         cfg.Dt,
		Steps:      cfg.Steps,
		Times:      times,
		Positions:  roll.Positions,
		Velocities: roll.Velocities,
		Torques:    prob.Controls(),
		Loss:       roll.Loss,
		KnotLoss:   roll.KnotLoss,
	}

	switch filepath.Ext(outFile) {
	case ".csv":
		return store.ExportCSV(outFile, data)
	case ".svg":
		return store.ExportSVG(outFile, data)
	default:
		return store.ExportJSON(outFile, data)
	}
}
