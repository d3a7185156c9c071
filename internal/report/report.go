// Package report renders the session profit curve as a standalone HTML page.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	chartypes "github.com/go-echarts/go-echarts/v2/types"

	"tradinglions/internal/store/sqlite"
)

// RenderProfitCurve writes an ECharts line chart of cumulative profit.
func RenderProfitCurve(w io.Writer, summary sqlite.Summary, points []sqlite.ProfitPoint) error {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme:     chartypes.ThemeWesteros,
			PageTitle: "Trading Results",
		}),
		charts.WithTitleOpts(opts.Title{
			Title: "Cumulative profit",
			Subtitle: fmt.Sprintf("%d settled | %d wins / %d losses / %d draws | net %+.2f",
				summary.Total, summary.Wins, summary.Losses, summary.Draws, summary.NetProfit),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", XAxisIndex: []int{0}}),
		charts.WithYAxisOpts(opts.YAxis{Scale: opts.Bool(true)}),
	)

	xAxis := make([]string, 0, len(points))
	series := make([]opts.LineData, 0, len(points))
	for _, p := range points {
		xAxis = append(xAxis, time.Unix(p.ClosedAt, 0).Format("01-02 15:04"))
		series = append(series, opts.LineData{
			Value: p.Cumulative,
			Name:  fmt.Sprintf("%s %+.2f", p.Asset, p.Profit),
		})
	}
	line.SetXAxis(xAxis).
		AddSeries("cumulative", series,
			charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(true)}),
			charts.WithAreaStyleOpts(opts.AreaStyle{Opacity: opts.Float(0.15)}),
		)
	return line.Render(w)
}
