// Package report renders a completed run: a static PNG chart via gonum
// plot and an interactive HTML page via go-echarts.
package report

import (
	"fmt"
	"os"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/san-kum/bipedsim/internal/metrics"
	"github.com/san-kum/bipedsim/internal/sim"
)

// SavePNG writes a three-tile summary chart: base height with the fall
// threshold, roll/pitch with the tilt ceilings, and ground drift.
func SavePNG(path string, history []sim.HistoryRow, th metrics.Thresholds) error {
	if len(history) == 0 {
		return fmt.Errorf("report: empty history")
	}

	heightPlot, err := linePlot("Base Height", "time (s)", "height (m)",
		series{name: "height", pts: column(history, func(r sim.HistoryRow) float64 { return r.Height })})
	if err != nil {
		return err
	}
	addHLine(heightPlot, history, th.MinHeight)

	tiltPlot, err := linePlot("Tilt", "time (s)", "angle (deg)",
		series{name: "roll", pts: column(history, func(r sim.HistoryRow) float64 { return r.Roll })},
		series{name: "pitch", pts: column(history, func(r sim.HistoryRow) float64 { return r.Pitch })})
	if err != nil {
		return err
	}
	addHLine(tiltPlot, history, th.MaxRoll)
	addHLine(tiltPlot, history, -th.MaxRoll)

	driftPlot, err := linePlot("Ground Drift", "time (s)", "drift (m)",
		series{name: "drift", pts: column(history, func(r sim.HistoryRow) float64 { return r.Drift })})
	if err != nil {
		return err
	}

	img := vgimg.New(8*vg.Inch, 9*vg.Inch)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows: 3, Cols: 1,
		PadX: vg.Millimeter * 2, PadY: vg.Millimeter * 2,
		PadTop: vg.Millimeter * 2, PadBottom: vg.Millimeter * 2,
		PadLeft: vg.Millimeter * 2, PadRight: vg.Millimeter * 2,
	}
	plots := [][]*plot.Plot{{heightPlot}, {tiltPlot}, {driftPlot}}
	canvases := plot.Align(plots, tiles, dc)
	for r := range plots {
		plots[r][0].Draw(canvases[r][0])
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	png := vgimg.PngCanvas{Canvas: img}
	_, err = png.WriteTo(f)
	return err
}

type series struct {
	name string
	pts  plotter.XYs
}

func linePlot(title, xlabel, ylabel string, ss ...series) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xlabel
	p.Y.Label.Text = ylabel
	p.Legend.Top = true

	for i, s := range ss {
		line, err := plotter.NewLine(s.pts)
		if err != nil {
			return nil, err
		}
		line.LineStyle.Width = vg.Points(1.5)
		line.Color = plotutil.Color(i)
		p.Add(line)
		p.Legend.Add(s.name, line)
	}
	return p, nil
}

// addHLine draws a horizontal reference line across the full time span.
func addHLine(p *plot.Plot, history []sim.HistoryRow, y float64) {
	t0 := history[0].Time
	t1 := history[len(history)-1].Time
	line, err := plotter.NewLine(plotter.XYs{{X: t0, Y: y}, {X: t1, Y: y}})
	if err != nil {
		return
	}
	line.LineStyle.Width = vg.Points(0.5)
	line.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
	p.Add(line)
}

func column(history []sim.HistoryRow, f func(sim.HistoryRow) float64) plotter.XYs {
	pts := make(plotter.XYs, len(history))
	for i, row := range history {
		pts[i].X = row.Time
		pts[i].Y = f(row)
	}
	return pts
}
