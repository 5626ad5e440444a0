package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/guptarohit/asciigraph"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/enginesim/internal/config"
	"github.com/san-kum/enginesim/internal/export"
	"github.com/san-kum/enginesim/internal/storage"
	"github.com/san-kum/enginesim/internal/system"
	"github.com/san-kum/enginesim/internal/thermo"
	"github.com/san-kum/enginesim/internal/viz"
)

func listPerformance(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	defer st.Close()

	records, err := st.List()
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	headers := append([]string{"Run", "Case", "Time"}, viz.PerformanceColumns()...)
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		row := []string{r.RunID, r.Case, r.Timestamp.Local().Format("2006-01-02 15:04:05")}
		row = append(row, viz.PerformanceCells(r.Performance)...)
		rows = append(rows, row)
	}
	fmt.Println(viz.Table(headers, rows))
	return nil
}

func plotSeries(cmd *cobra.Command, args []string) error {
	runID, object := args[0], args[1]
	st := storage.New(dataDir)
	sr, err := st.LoadSeries(runID, object)
	if err != nil {
		return err
	}
	if len(sr.Rows) == 0 {
		return fmt.Errorf("%s/%s has no samples", runID, object)
	}

	if pvPlot {
		// Cylinder columns: crank angle, pressure [bar], temperature, volume [cm³], mass.
		if len(sr.Headers) < 5 || !strings.HasPrefix(sr.Headers[0], "crank-angle") {
			return fmt.Errorf("%s is not a cylinder", object)
		}
		p := make([]float64, len(sr.Rows))
		v := make([]float64, len(sr.Rows))
		for i, r := range sr.Rows {
			p[i], v[i] = r[1], r[3]
		}
		out, err := viz.PVDiagram(v, p, 60, height, logScale)
		if err != nil {
			return err
		}
		fmt.Println(viz.Title.Render(fmt.Sprintf("%s  p [bar] vs V [cm³]", object)))
		fmt.Println(out)
		return writeSVG(v, p, sr.Headers[3], sr.Headers[1])
	}

	if column < 0 || column >= len(sr.Headers) {
		return fmt.Errorf("column %d out of range, %s has %d columns: %v", column, object, len(sr.Headers), sr.Headers)
	}
	data := make([]float64, len(sr.Rows))
	for i, r := range sr.Rows {
		data[i] = r[column]
	}
	graph := asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("%s: %s", object, sr.Headers[column])),
	)
	fmt.Println(graph)
	x := sr.Times
	xLabel := "time [s]"
	if len(x) != len(data) {
		x = make([]float64, len(sr.Rows))
		for i, r := range sr.Rows {
			x[i] = r[0]
		}
		xLabel = sr.Headers[0]
	}
	return writeSVG(x, data, xLabel, sr.Headers[column])
}

func writeSVG(x, y []float64, xLabel, yLabel string) error {
	if svgOut == "" {
		return nil
	}
	pts, err := export.Zip(x, y)
	if err != nil {
		return err
	}
	if err := export.WriteSVG(svgOut, pts, 800, 600, xLabel, yLabel); err != nil {
		return err
	}
	log.WithField("file", svgOut).Info("wrote svg")
	return nil
}

func listSpecies(cmd *cobra.Command, args []string) error {
	table := thermo.DefaultTable()
	if speciesFile != "" {
		var err error
		if table, err = thermo.LoadTable(speciesFile); err != nil {
			return err
		}
	}
	rows := make([][]string, 0, table.Len())
	for i := 0; i < table.Len(); i++ {
		sp := table.Species(i)
		rows = append(rows, []string{
			sp.Name,
			fmt.Sprintf("%.4f", sp.MolarMass),
			formatAtoms(sp.Atoms),
			fmt.Sprintf("%g - %g", sp.Thermo.TLow, sp.Thermo.THigh),
		})
	}
	fmt.Println(viz.Title.Render(table.Name()))
	fmt.Println(viz.Table([]string{"Species", "M [kg/kmol]", "Atoms", "T range [K]"}, rows))
	return nil
}

func formatAtoms(atoms map[string]float64) string {
	keys := make([]string, 0, len(atoms))
	for k := range atoms {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s:%g", k, atoms[k])
	}
	return strings.Join(parts, " ")
}

func presets(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		rows := make([][]string, 0, len(config.Presets))
		for _, name := range config.ListPresets() {
			c := config.GetPreset(name)
			kind := "network"
			if c.Engine != nil {
				kind = fmt.Sprintf("%d-cylinder engine", len(c.Engine.Cylinders))
			}
			rows = append(rows, []string{name, c.Name, kind, fmt.Sprint(len(c.Speeds))})
		}
		fmt.Println(viz.Table([]string{"Preset", "Case", "Kind", "Speeds"}, rows))
		return nil
	}

	c := config.GetPreset(args[0])
	if c == nil {
		return fmt.Errorf("unknown preset: %s (available: %v)", args[0], config.ListPresets())
	}
	if presetOut != "" {
		return config.Save(presetOut, c)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}

func writeSettings(cmd *cobra.Command, args []string) error {
	if err := config.SaveSettings(settingsOut, system.DefaultSettings()); err != nil {
		return err
	}
	fmt.Println(viz.Subtle.Render("wrote " + settingsOut))
	return nil
}
