package main

import (
	"fmt"
	"log/slog"
	"os"

	"ciet"
	"ciet/catalog"
	"ciet/config"
	"ciet/network"
	"ciet/types"

	"github.com/spf13/cobra"
)

// options 公共命令行参数
type options struct {
	config      string
	netlist     string
	temperature float64
	pump        float64
	ctah        bool
	heater      bool
	dhx         bool
	verbose     bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:          "ciet",
		Short:        "CIET 三分支回路等温稳态流量求解",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if opts.verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
		},
	}
	flags := root.PersistentFlags()
	flags.StringVar(&opts.config, "config", "", "YAML 配置文件")
	flags.StringVar(&opts.netlist, "netlist", "", "回路网表文件，默认内置 CIET 回路")
	flags.Float64Var(&opts.temperature, "temp", 21, "流体温度 °C")
	flags.Float64Var(&opts.pump, "pump", 0, "泵压力 Pa")
	flags.BoolVar(&opts.ctah, types.BranchCTAH, true, "CTAH 分支阀门开启")
	flags.BoolVar(&opts.heater, types.BranchHeater, true, "Heater 分支阀门开启")
	flags.BoolVar(&opts.dhx, types.BranchDHX, true, "DHX 分支阀门开启")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "调试日志")

	root.AddCommand(
		newSolveCmd(opts),
		newSweepCmd(opts),
		newServeCmd(opts),
		newExportCmd(opts),
		newPumpCmd(opts),
	)
	return root
}

// load 合并配置文件与命令行参数，命令行显式给出的参数优先
func (opts *options) load(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	if opts.config != "" {
		var err error
		if cfg, err = config.Load(opts.config); err != nil {
			return nil, err
		}
	}
	flags := cmd.Flags()
	if cfg.Valves == nil {
		cfg.Valves = make(map[string]bool)
	}
	if opts.config == "" || flags.Changed("temp") {
		cfg.Temperature = opts.temperature
	}
	if opts.config == "" || flags.Changed("pump") {
		cfg.PumpPressure = opts.pump
	}
	// 未给出的阀门视为开启，只写入显式给出的参数
	valves := map[string]bool{types.BranchCTAH: opts.ctah, types.BranchHeater: opts.heater, types.BranchDHX: opts.dhx}
	for name, open := range valves {
		if flags.Changed(name) {
			cfg.Valves[name] = open
		}
	}
	if flags.Changed("netlist") || cfg.Netlist == "" {
		cfg.Netlist = opts.netlist
	}
	return cfg, cfg.Validate()
}

// network 按配置创建网络
func (opts *options) network(cfg *config.Config) (*network.Network, error) {
	var (
		net *network.Network
		err error
	)
	if cfg.Netlist == "" {
		net, err = catalog.NewCIET(nil)
	} else {
		loop := ciet.NewLoop()
		if err = loop.Load(cfg.Netlist); err != nil {
			return nil, fmt.Errorf("加载网表 %s: %w", cfg.Netlist, err)
		}
		net, err = loop.Network(nil)
	}
	if err != nil {
		return nil, err
	}
	if err := net.CheckValves(cfg.Input().Valves); err != nil {
		return nil, err
	}
	cfg.Apply(net)
	return net, nil
}
