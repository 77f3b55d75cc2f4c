package main

import (
	"fmt"

	"ciet/analysis"
	"ciet/catalog"

	"github.com/spf13/cobra"
)

func newPumpCmd(opts *options) *cobra.Command {
	var (
		flow     float64
		fraction float64
	)
	cmd := &cobra.Command{
		Use:   "pump",
		Short: "求达到指定泵分支流量所需的泵压力",
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
			pump, err := analysis.RequiredPumpPressure(net, flow, in)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "flow\t%g\tkg/s\n", flow)
			fmt.Fprintf(out, "pump_pressure\t%.6f\tPa\n", pump)
			if fraction > 0 {
				dev, err := analysis.FlowmeterDeviation(net, flow, 0, fraction, in.Temperature)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "flowmeter_deviation\t%.6f\tPa\n", dev)
			}
			fmt.Fprintf(out, "experimental_loss\t%.6f\tPa\n", analysis.ExperimentalPressureLoss(flow))
			in.PumpPressure = pump
			slope, err := analysis.Sensitivity(cmd.Context(), net, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "sensitivity\t%g\tkg/s/Pa\n", slope)
			unc, err := analysis.LoopUncertainty(net, flow, pump, in.Temperature, catalog.Fitted)
			if err != nil {
				return err
			}
			return printUncertainty(out, unc)
		},
	}
	cmd.Flags().Float64Var(&flow, "flow", 0.05, "泵分支质量流量 kg/s")
	cmd.Flags().Float64Var(&fraction, "fraction", 0, "流量计相对误差，0 为不估计")
	return cmd
}
