package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"ciet/analysis"
	"ciet/network/debug"

	"github.com/spf13/cobra"
)

func newSweepCmd(opts *options) *cobra.Command {
	var (
		from, to  float64
		steps     int
		html, img string
	)
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "泵压力扫描，可输出 HTML 图表与静态图片",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("html") && cfg.Output.HTML != "" {
				html = cfg.Output.HTML
			}
			if !cmd.Flags().Changed("png") && cfg.Output.PNG != "" {
				img = cfg.Output.PNG
			}
			net, err := opts.network(cfg)
			if err != nil {
				return err
			}
			chart := &debug.Charts{}
			net.SetDebugger(chart)
			points, err := analysis.Sweep(cmd.Context(), net, from, to, steps, cfg.Input())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "pump_pa,pressure_pa,%s\n", strings.Join(net.Names(), ","))
			for _, p := range points {
				fmt.Fprintf(out, "%g,%.6f", p.PumpPressure, p.Pressure)
				for _, flow := range p.Flows {
					fmt.Fprintf(out, ",%.9g", flow)
				}
				fmt.Fprintln(out)
			}

			if html != "" {
				if err := writeFile(html, chart.Render); err != nil {
					return err
				}
				slog.Info("图表已输出", "path", html)
			}
			if img != "" {
				graph := &debug.Plot{Record: debug.Record{Names: chart.Names, Entries: chart.Snapshot()}}
				if err := graph.Save(img); err != nil {
					return err
				}
				slog.Info("图片已输出", "path", img)
			}
			return nil
		},
	}
	flags := cmd.Flags()
	flags.Float64Var(&from, "from", 0, "起始泵压力 Pa")
	flags.Float64Var(&to, "to", 5000, "终止泵压力 Pa")
	flags.IntVar(&steps, "steps", 21, "扫描点数")
	flags.StringVar(&html, "html", "", "HTML 图表输出路径")
	flags.StringVar(&img, "png", "", "图片输出路径，格式由扩展名决定")
	return cmd
}

func writeFile(path string, render func(w io.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := render(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
