package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/san-kum/enginesim/internal/config"
	"github.com/san-kum/enginesim/internal/engine"
	"github.com/san-kum/enginesim/internal/storage"
	"github.com/san-kum/enginesim/internal/sweep"
	"github.com/san-kum/enginesim/internal/system"
	"github.com/san-kum/enginesim/internal/viz"
)

// loadCase reads a case file, or falls back to a preset of that name.
func loadCase(arg string) (*config.Case, error) {
	if _, err := os.Stat(arg); err == nil {
		return config.Load(arg)
	}
	if c := config.GetPreset(arg); c != nil {
		return c, nil
	}
	return nil, fmt.Errorf("%s: no such case file or preset (presets: %v)", arg, config.ListPresets())
}

type sweepHooks struct {
	result func(engine.Performance)
}

type sweepResult struct {
	points []engine.Performance
	runIDs []string
	last   storage.Run
}

// runSweep runs the system to steady state once per speed and stores every
// run. Systems without an engine run once.
func runSweep(ctx context.Context, c *config.Case, sys *system.System, set system.Settings, speeds []float64, st *storage.Store, hooks sweepHooks) (sweepResult, error) {
	var res sweepResult
	if sys.Engine() == nil {
		if _, err := sys.AdvanceToSteadyState(ctx, set); err != nil {
			return res, err
		}
		run, err := storage.FromSystem(c.Name, sys, nil, withTime)
		if err != nil {
			return res, err
		}
		id, err := st.Save(run)
		if err != nil {
			return res, err
		}
		res.runIDs, res.last = append(res.runIDs, id), run
		return res, nil
	}

	save := func(pt sweep.Point) error {
		run, err := storage.FromSystem(c.Name, pt.System, &pt.Performance, withTime)
		if err != nil {
			return err
		}
		id, err := st.Save(run)
		if err != nil {
			return err
		}
		log.WithFields(log.Fields{"run": id, "speed": pt.Speed}).Debug("run saved")
		res.runIDs = append(res.runIDs, id)
		res.last = run
		if hooks.result != nil {
			hooks.result(pt.Performance)
		}
		return nil
	}

	var err error
	res.points, err = sweep.Sequential(ctx, sys, set, speeds, save)
	return res, err
}

func runCase(cmd *cobra.Command, args []string) error {
	c, err := loadCase(args[0])
	if err != nil {
		return err
	}
	if c.Name == "" {
		c.Name = args[0]
	}
	set, err := config.LoadSettings(settingsFile)
	if err != nil {
		return err
	}
	sys, err := c.Build()
	if err != nil {
		return err
	}
	points := c.Speeds
	if len(speeds) > 0 {
		points = speeds
	}
	if sys.Engine() != nil && len(points) == 0 {
		points = []float64{sys.Engine().Speed()}
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var res sweepResult
	if progress {
		res, err = sweepWithProgress(ctx, c, sys, set, points, st)
	} else {
		res, err = runSweep(ctx, c, sys, set, points, st, sweepHooks{})
	}
	if err != nil {
		return err
	}

	fmt.Println(viz.Title.Render(c.Name))
	if len(res.points) > 0 {
		fmt.Println(viz.PerformanceTable(res.points))
	} else {
		printFinalStates(sys)
	}
	for _, id := range res.runIDs {
		fmt.Println(viz.Subtle.Render("saved " + id))
	}
	if jsonOut != "" {
		return storage.ExportJSONFile(jsonOut, res.last)
	}
	return nil
}

func sweepWithProgress(ctx context.Context, c *config.Case, sys *system.System, set system.Settings, points []float64, st *storage.Store) (sweepResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(viz.NewSweepModel(c.Name, points, cancel))
	sys.AddObserver(viz.ProgramObserver{Program: p})

	// Log lines would tear the view.
	log.SetOutput(io.Discard)
	defer log.SetOutput(os.Stderr)

	type outcome struct {
		res sweepResult
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		finished := 0
		if len(points) > 0 {
			p.Send(viz.PointMsg{Index: 0, Speed: points[0]})
		}
		res, err := runSweep(ctx, c, sys, set, points, st, sweepHooks{
			result: func(perf engine.Performance) {
				p.Send(viz.ResultMsg(perf))
				if finished++; finished < len(points) {
					p.Send(viz.PointMsg{Index: finished, Speed: points[finished]})
				}
			},
		})
		p.Send(viz.DoneMsg{Err: err})
		done <- outcome{res, err}
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-done
		return sweepResult{}, err
	}
	out := <-done
	return out.res, out.err
}

func printFinalStates(sys *system.System) {
	var rows [][]string
	for _, el := range sys.Elements() {
		st := el.State()
		rows = append(rows, []string{
			el.Name(),
			el.Kind().String(),
			fmt.Sprintf("%.5f", st.Pressure/1e5),
			fmt.Sprintf("%.2f", st.Temperature),
		})
	}
	fmt.Println(viz.Table([]string{"Element", "Kind", "Pressure [bar]", "Temperature [K]"}, rows))
	fmt.Println(viz.MetricLabel.Render("simulated ") + viz.MetricValue.Render(fmt.Sprintf("%.4f s", sys.Time())))
}

func optimize(cmd *cobra.Command, args []string) error {
	c, err := loadCase(args[0])
	if err != nil {
		return err
	}
	if len(gridParams) == 0 {
		return fmt.Errorf("no grid, pass at least one --param")
	}
	params := make([]sweep.Param, 0, len(gridParams))
	for _, s := range gridParams {
		p, err := sweep.ParseParam(s)
		if err != nil {
			return err
		}
		params = append(params, p)
	}
	metric, err := sweep.Metric(metricName)
	if err != nil {
		return err
	}
	set, err := config.LoadSettings(settingsFile)
	if err != nil {
		return err
	}
	sys, err := c.Build()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	g := sweep.NewGridSearch(params...)
	log.WithFields(log.Fields{"points": g.Size(), "metric": metricName}).Info("grid search")
	best, err := g.Search(ctx, sys, set, metric)
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(params))
	for _, p := range params {
		rows = append(rows, []string{p.Name, fmt.Sprintf("%g", best.Params[p.Name])})
	}
	fmt.Println(viz.Title.Render(fmt.Sprintf("best %s of %d points", metricName, best.Evaluated)))
	fmt.Println(viz.Table([]string{"Parameter", "Value"}, rows))
	fmt.Println(viz.PerformanceTable([]engine.Performance{best.Performance}))
	return nil
}
