package exporter

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"cohort-ltv/pkg/models"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// WriteChart renders LTV_latest as bars and CAC as a line with point
// markers, by cohort month, on a shared value axis. Cohorts whose CAC is
// undefined are simply skipped by the line series.
func WriteChart(path string, summary []models.SummaryRow) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create chart directory: %w", err)
	}

	p := plot.New()
	p.Title.Text = "Cohort LTV vs CAC"
	p.Y.Label.Text = "USD"

	ltv := make(plotter.Values, len(summary))
	labels := make([]string, len(summary))
	for i, s := range summary {
		if !math.IsNaN(s.LTVLatest) {
			ltv[i] = s.LTVLatest
		}
		labels[i] = s.CohortMonth
	}

	bars, err := plotter.NewBarChart(ltv, vg.Points(20))
	if err != nil {
		return fmt.Errorf("build LTV bars: %w", err)
	}
	bars.LineStyle.Width = 0
	bars.Color = plotutil.Color(0)
	p.Add(bars)
	p.Legend.Add("LTV", bars)

	var cacPts plotter.XYs
	for i, s := range summary {
		if math.IsNaN(s.CAC) {
			continue
		}
		cacPts = append(cacPts, plotter.XY{X: float64(i), Y: s.CAC})
	}
	if len(cacPts) > 0 {
		line, points, err := plotter.NewLinePoints(cacPts)
		if err != nil {
			return fmt.Errorf("build CAC line: %w", err)
		}
		line.Color = plotutil.Color(1)
		points.Color = plotutil.Color(1)
		points.Shape = draw.CircleGlyph{}
		p.Add(line, points)
		p.Legend.Add("CAC", line, points)
	}

	p.NominalX(labels...)
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter
	p.Legend.Top = true

	if err := p.Save(7*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("save chart: %w", err)
	}

	slog.Info("chart written", slog.String("path", path), slog.Int("cohorts", len(summary)))
	return nil
}
