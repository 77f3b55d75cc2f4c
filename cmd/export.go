package main

import (
	"ciet"

	"github.com/spf13/cobra"
)

func newExportCmd(opts *options) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "导出回路网表",
		RunE: func(cmd *cobra.Command, args []string) error {
			loop := ciet.NewCIETLoop()
			if opts.netlist != "" {
				loop = ciet.NewLoop()
				if err := loop.Load(opts.netlist); err != nil {
					return err
				}
			}
			if out == "" {
				return loop.Write(cmd.OutOrStdout())
			}
			return loop.Export(out)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "输出文件，默认标准输出")
	return cmd
}
