package export

import (
	"fmt"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/okian/k0sqa/internal/domain/task"
	"github.com/okian/k0sqa/internal/histogram"
	"github.com/okian/k0sqa/internal/stats"
)

// WriteReport renders every one-dimensional histogram of the registry as a
// bar chart on a single HTML page, headed by the event counter and the
// mass summary.
func WriteReport(path string, reg *histogram.Registry, mass stats.MassSummary) error {
	page := components.NewPage()
	page.PageTitle = "K0s tracking-efficiency QA"

	for _, name := range reg.NamesCounter() {
		snap, err := reg.Counter(name)
		if err != nil {
			return err
		}
		page.AddCharts(counterChart(snap))
	}

	for _, name := range reg.Names1D() {
		snap, err := reg.Histogram1D(name)
		if err != nil {
			return err
		}
		page.AddCharts(histogramChart(snap, mass))
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrReport, err)
	}
	defer func() { _ = f.Close() }()

	if err := page.Render(f); err != nil {
		return fmt.Errorf("%w: %v", ErrReport, err)
	}
	return nil
}

func counterChart(snap histogram.CounterSnapshot) *charts.Bar {
	x := make([]string, 0, len(snap.Labels))
	y := make([]opts.BarData, 0, len(snap.Labels))
	for _, label := range snap.Labels {
		x = append(x, label)
		y = append(y, opts.BarData{Value: snap.Counts[label]})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "600px", Height: "360px"}),
		charts.WithTitleOpts(opts.Title{Title: snap.Name}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(x).
		AddSeries("count", y,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)
	return bar
}

func histogramChart(snap histogram.H1Snapshot, mass stats.MassSummary) *charts.Bar {
	x := make([]string, snap.Axis.Bins)
	y := make([]opts.BarData, snap.Axis.Bins)
	for i := 0; i < snap.Axis.Bins; i++ {
		x[i] = fmt.Sprintf("%.4g", snap.Axis.BinCenter(i))
		y[i] = opts.BarData{Value: snap.Counts[i]}
	}

	subtitle := fmt.Sprintf("entries=%d under=%g over=%g", snap.Entries, snap.Under, snap.Over)
	if snap.Name == task.HistMass && mass.InRange > 0 {
		subtitle = fmt.Sprintf("%s mean=%.4f sigma=%.4f signal=%.1f%%",
			subtitle, mass.Mean, mass.StdDev, mass.SignalFraction*100)
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "420px"}),
		charts.WithTitleOpts(opts.Title{Title: snap.Name, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: snap.Axis.Title}),
	)
	bar.SetXAxis(x).AddSeries("count", y)
	return bar
}
