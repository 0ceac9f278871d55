package report

import (
	"errors"
	"fmt"
	"sync"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/KaramelBytes/milexcast/internal/pipeline"
)

// Panel owns at most one live chart. Rendering a new chart releases the
// previous one first.
type Panel struct {
	mu      sync.Mutex
	current *plot.Plot
}

// Current returns the live chart, or nil.
func (p *Panel) Current() *plot.Plot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Release drops the live chart.
func (p *Panel) Release() {
	p.mu.Lock()
	p.current = nil
	p.mu.Unlock()
}

// Render builds the actual-versus-predicted chart for res and saves it as a
// PNG at path.
func (p *Panel) Render(res *pipeline.Result, path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = nil

	pl, err := buildChart(res)
	if err != nil {
		return err
	}
	if err := pl.Save(10*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("save chart: %w", err)
	}
	p.current = pl
	return nil
}

func buildChart(res *pipeline.Result) (*plot.Plot, error) {
	rows := Rows(res)
	if len(rows) == 0 {
		return nil, errors.New("chart: no held-out rows to plot")
	}
	pl := plot.New()
	pl.Title.Text = fmt.Sprintf("Military expenditure: %s", res.Country)
	pl.X.Label.Text = "Year"
	pl.Y.Label.Text = "Expenditure (billions USD)"
	pl.Y.Tick.Marker = billionsTicker{}
	pl.Add(plotter.NewGrid())

	actual := make(plotter.XYs, len(rows))
	for i, r := range rows {
		actual[i].X = float64(r.Year)
		actual[i].Y = r.Actual
	}
	line, points, err := plotter.NewLinePoints(actual)
	if err != nil {
		return nil, fmt.Errorf("chart: %w", err)
	}
	line.Width = vg.Points(2)
	pl.Add(line, points)
	pl.Legend.Add("Actual", line, points)

	for i, id := range modelIDs(res) {
		xys := make(plotter.XYs, len(rows))
		for k, r := range rows {
			xys[k].X = float64(r.Year)
			xys[k].Y = r.Predictions[id]
		}
		l, s, err := plotter.NewLinePoints(xys)
		if err != nil {
			return nil, fmt.Errorf("chart %s: %w", id, err)
		}
		l.Color = plotutil.Color(i + 1)
		l.Dashes = []vg.Length{vg.Points(5), vg.Points(5)}
		s.GlyphStyle.Color = l.Color
		s.GlyphStyle.Shape = plotutil.Shape(i + 1)
		pl.Add(l, s)
		pl.Legend.Add(id.DisplayName(), l, s)
	}
	pl.Legend.Top = true
	return pl, nil
}

// billionsTicker labels the default tick positions in billions.
type billionsTicker struct{}

func (billionsTicker) Ticks(min, max float64) []plot.Tick {
	ticks := plot.DefaultTicks{}.Ticks(min, max)
	for i := range ticks {
		if ticks[i].Label != "" {
			ticks[i].Label = fmt.Sprintf("%.2f", ticks[i].Value/1e9)
		}
	}
	return ticks
}
