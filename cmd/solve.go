package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"ciet/analysis"
	"ciet/catalog"
	"ciet/network"

	"github.com/spf13/cobra"
)

func newSolveCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "solve",
		Short: "以给定泵压力与阀门状态求解一次",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			net, err := opts.network(cfg)
			if err != nil {
				return err
			}
			in := cfg.Input()
			res, err := net.SolveContext(cmd.Context(), in)
			if err != nil {
				return err
			}
			if err := printResult(cmd, in, res); err != nil {
				return err
			}
			pumpBranch, ok := net.PumpBranch()
			if !ok {
				return nil
			}
			flow := res.Flow(pumpBranch.Name)
			dev, err := analysis.LoopUncertainty(net, flow, in.PumpPressure, in.Temperature, catalog.Fitted)
			if err != nil {
				return err
			}
			if err := printUncertainty(cmd.OutOrStdout(), dev); err != nil {
				return err
			}
			operating, err := analysis.OperatingDeviation(net, flow, analysis.FlowmeterFraction, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pump_pressure_deviation\t%.6f\tPa\n", operating)
			return nil
		},
	}
}

func printResult(cmd *cobra.Command, in network.Input, res network.Result) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "pump_pressure\t%g\tPa\n", in.PumpPressure)
	fmt.Fprintf(w, "temperature\t%g\t°C\n", in.Temperature)
	fmt.Fprintf(w, "pressure\t%.6f\tPa\n", res.Pressure)
	for i, name := range res.Names {
		state := "open"
		if !in.Valves.IsOpen(name) {
			state = "closed"
		}
		fmt.Fprintf(w, "flow_%s\t%.9g\tkg/s\t%s\n", name, res.Flows[i], state)
	}
	fmt.Fprintf(w, "iterations\t%d\t\n", res.Iter)
	fmt.Fprintf(w, "elapsed\t%s\t\n", res.Elapsed)
	return w.Flush()
}

func printUncertainty(out io.Writer, dev analysis.Uncertainty) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "error_manometer\t%.6f\tPa\n", dev.Manometer)
	fmt.Fprintf(w, "error_flowmeter\t%.6f\tPa\n", dev.Flowmeter)
	fmt.Fprintf(w, "error_fldk\t%.6f\tPa\n", dev.FLDK)
	fmt.Fprintf(w, "error_total\t%.6f\tPa\n", dev.Total)
	return w.Flush()
}
