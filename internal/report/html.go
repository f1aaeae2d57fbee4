package report

import (
	"fmt"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/san-kum/bipedsim/internal/metrics"
	"github.com/san-kum/bipedsim/internal/sim"
)

// SaveHTML writes an interactive report page: a stability score gauge
// followed by height, tilt and drift traces.
func SaveHTML(path, title string, history []sim.HistoryRow, summary metrics.Summary) error {
	if len(history) == 0 {
		return fmt.Errorf("report: empty history")
	}

	times := make([]string, len(history))
	for i, row := range history {
		times[i] = fmt.Sprintf("%.2f", row.Time)
	}

	page := components.NewPage()
	page.PageTitle = title
	page.AddCharts(
		scoreGauge(summary),
		lineChart("Base Height (m)", times,
			lineSeries{"height", history, func(r sim.HistoryRow) float64 { return r.Height }}),
		lineChart("Tilt (deg)", times,
			lineSeries{"roll", history, func(r sim.HistoryRow) float64 { return r.Roll }},
			lineSeries{"pitch", history, func(r sim.HistoryRow) float64 { return r.Pitch }}),
		lineChart("Ground Drift (m)", times,
			lineSeries{"drift", history, func(r sim.HistoryRow) float64 { return r.Drift }}),
	)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return page.Render(f)
}

type lineSeries struct {
	name    string
	history []sim.HistoryRow
	f       func(sim.HistoryRow) float64
}

func lineChart(title string, times []string, ss ...lineSeries) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "time (s)"}),
	)

	line.SetXAxis(times)
	for _, s := range ss {
		data := make([]opts.LineData, len(s.history))
		for i, row := range s.history {
			data[i] = opts.LineData{Value: s.f(row)}
		}
		line.AddSeries(s.name, data)
	}
	return line
}

func scoreGauge(summary metrics.Summary) *charts.Gauge {
	gauge := charts.NewGauge()
	gauge.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Stability Score",
			Subtitle: fmt.Sprintf("%d samples, %d violations", summary.Samples, summary.Violations),
		}),
	)
	gauge.AddSeries("score", []opts.GaugeData{{Name: "score", Value: summary.Score}})
	return gauge
}
