package debug

import (
	"cmp"
	"io"
	"net/http"
	"slices"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

// Charts 曲线绘制
type Charts struct {
	Record
}

func newLine(title, subtitle, unit string) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme: types.ThemeWesteros,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: subtitle,
		}),
		charts.WithLegendOpts(opts.Legend{
			Type:   "scroll",
			Orient: "vertical",
			Right:  "10",
			Top:    "20",
			Bottom: "20",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{
			Name:        "泵压力 Pa",
			SplitNumber: 20,
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name:  unit,
			Scale: opts.Bool(true),
		}),
		charts.WithAnimation(true),
	)
	return line
}

// Render 格式化
func (c *Charts) Render(w io.Writer) error {
	entries := c.Snapshot()
	slices.SortStableFunc(entries, func(a, b Entry) int { return cmp.Compare(a.PumpPressure, b.PumpPressure) })

	lineF := newLine("分支流量", "各分支质量流量随泵压力变化曲线", "kg/s")
	lineP := newLine("回路压力", "共享压力变化随泵压力变化曲线", "Pa")

	// 处理数据
	xAxis := make([]string, len(entries))
	for i, e := range entries {
		xAxis[i] = strconv.FormatFloat(e.PumpPressure, 'g', 6, 64)
	}
	lineF.SetXAxis(xAxis)
	for _, name := range c.Names {
		items := make([]opts.LineData, len(entries))
		for i, e := range entries {
			items[i].Value = e.Flows[name]
		}
		lineF.AddSeries(name, items)
	}
	lineP.SetXAxis(xAxis)
	items := make([]opts.LineData, len(entries))
	for i, e := range entries {
		items[i].Value = e.Pressure
	}
	lineP.AddSeries("pressure", items)

	// 构建界面
	page := components.NewPage()
	page.PageTitle = "CIET"
	page.AddCharts(
		lineF,
		lineP,
	)
	return page.Render(w)
}

// Handler 发布到网页面
func (c *Charts) Handler(w http.ResponseWriter, _ *http.Request) {
	if err := c.Render(w); err != nil {
		c.Error(err)
	}
}
