package monitor

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/path.report/internal/costmap"
)

// CostmapChart renders an HTML scatter of the costmap's non-free cells
// with the original and smoothed paths overlaid. Debugging aid: lets a
// browser check what the smoother saw without any frontend.
func CostmapChart(w io.Writer, grid *costmap.Grid, original, smoothed []float64) error {
	cells := make([]opts.ScatterData, 0, 1024)
	for my := 0; my < grid.SizeY(); my++ {
		for mx := 0; mx < grid.SizeX(); mx++ {
			v := grid.Cost(mx, my)
			if v == costmap.FreeSpace {
				continue
			}
			wx, wy := grid.MapToWorld(mx, my)
			cells = append(cells, opts.ScatterData{Value: []interface{}{wx, wy, v}})
		}
	}

	ox, oy := grid.Origin()
	maxX := ox + float64(grid.SizeX())*grid.Resolution()
	maxY := oy + float64(grid.SizeY())*grid.Resolution()

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Costmap", Theme: "dark", Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{Title: "Costmap and path", Subtitle: fmt.Sprintf("%dx%d cells, %.2fm resolution", grid.SizeX(), grid.SizeY(), grid.Resolution())}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: ox, Max: maxX, Name: "X (m)"}),
		charts.WithYAxisOpts(opts.YAxis{Min: oy, Max: maxY, Name: "Y (m)"}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        costmap.Unknown,
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: []string{"#31688e", "#35b779", "#fde725", "#ff3333"}},
		}),
	)

	scatter.AddSeries("cells", cells, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 4}))
	scatter.AddSeries("original", pathScatter(original), charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 8}))
	scatter.AddSeries("smoothed", pathScatter(smoothed), charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 8}))

	return scatter.Render(w)
}

// ConvergenceChart renders an HTML line chart of cost per major iteration
// for one smoothing run.
func ConvergenceChart(w io.Writer, runID string, trace []float64) error {
	x := make([]string, len(trace))
	y := make([]opts.LineData, len(trace))
	for i, c := range trace {
		x[i] = fmt.Sprintf("%d", i)
		y[i] = opts.LineData{Value: c}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Convergence", Width: "900px", Height: "500px"}),
		charts.WithTitleOpts(opts.Title{Title: "Cost per iteration", Subtitle: fmt.Sprintf("run %s", runID)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "cost"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "iteration"}),
	)
	line.SetXAxis(x).AddSeries("cost", y)

	return line.Render(w)
}

func pathScatter(path []float64) []opts.ScatterData {
	out := make([]opts.ScatterData, 0, len(path)/2)
	for i := 0; i+1 < len(path); i += 2 {
		out = append(out, opts.ScatterData{Value: []interface{}{path[i], path[i+1]}})
	}
	return out
}
