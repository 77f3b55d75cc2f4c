package debug

import (
	"cmp"
	"fmt"
	"io"
	"slices"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// 图片尺寸
var (
	PlotWidth  = 8 * vg.Inch
	PlotHeight = 5 * vg.Inch
)

// Plot 静态图片输出，流量随泵压力变化
type Plot struct {
	Record
	Format string // png、svg、pdf，默认 png
}

func (p *Plot) build() (*plot.Plot, error) {
	entries := p.Snapshot()
	slices.SortStableFunc(entries, func(a, b Entry) int { return cmp.Compare(a.PumpPressure, b.PumpPressure) })

	graph := plot.New()
	graph.Title.Text = "CIET 分支流量"
	graph.X.Label.Text = "pump pressure (Pa)"
	graph.Y.Label.Text = "mass flow (kg/s)"
	graph.Add(plotter.NewGrid())
	for i, name := range p.Names {
		xys := make(plotter.XYs, len(entries))
		for j, e := range entries {
			xys[j].X = e.PumpPressure
			xys[j].Y = e.Flows[name]
		}
		line, points, err := plotter.NewLinePoints(xys)
		if err != nil {
			return nil, fmt.Errorf("分支 %s 绘图失败: %w", name, err)
		}
		line.Color = plotutil.Color(i)
		points.Color = plotutil.Color(i)
		points.Shape = plotutil.Shape(i)
		graph.Add(line, points)
		graph.Legend.Add(name, line, points)
	}
	graph.Legend.Top = true
	return graph, nil
}

// Render 输出图片
func (p *Plot) Render(w io.Writer) error {
	graph, err := p.build()
	if err != nil {
		return err
	}
	format := p.Format
	if format == "" {
		format = "png"
	}
	writer, err := graph.WriterTo(PlotWidth, PlotHeight, format)
	if err != nil {
		return err
	}
	_, err = writer.WriteTo(w)
	return err
}

// Save 保存到文件，格式由扩展名决定
func (p *Plot) Save(path string) error {
	graph, err := p.build()
	if err != nil {
		return err
	}
	return graph.Save(PlotWidth, PlotHeight, path)
}
