// Package catalog CIET 回路元件数据
// 三个分支均自上方汇合点向下方汇合点排列，净高差相同。
package catalog

import (
	"ciet/element"
	"ciet/fluid"
	"ciet/friction"
	"ciet/network"
	"ciet/types"
)

// 常用几何参数
const (
	PipeDiameter  = 2.79e-2 // 主管道内径 m
	PipeRoughness = 1.5e-5  // 管道粗糙度 m
)

// 实验拟合的损失系数
var (
	StaticMixer = friction.RePower(21, 4000, 1)     // 静态混合器
	Flowmeter   = friction.RePower(18, 93000, 1.35) // 流量计
)

func pipe(name string, length, angle, formLoss float64) element.Config {
	return element.Pipe(name, PipeDiameter, length, angle, PipeRoughness, formLoss)
}

func custom(name string, length, angle float64, k friction.Correlation) element.Config {
	return element.Custom(name, PipeDiameter, length, angle, PipeRoughness, k, friction.Zero())
}

// CTAH 冷却器分支，第 11 个元件为泵
func CTAH() network.BranchConfig {
	return network.BranchConfig{
		Name: types.BranchCTAH,
		Components: []element.Config{
			pipe("pipe_6a", 0.1526, 51.526384, 5.05),
			custom("static_mixer_41", 0.33, 51.526384, StaticMixer),
			element.Custom("ctah_vertical", 1.19e-2, 0.3302, -90, PipeRoughness,
				friction.RePower(3.9, 36000, 1), friction.Zero()).WithArea(1.33e-3),
			element.Custom("ctah_horizontal", 1.19e-2, 1.2342, 0, PipeRoughness,
				friction.RePower(400, 52000, 1), friction.Zero()).WithArea(1.33e-3),
			pipe("pipe_8a", 0.22245, -90, 3.75),
			custom("static_mixer_40", 0.33, -90, StaticMixer),
			pipe("pipe_9", 0.7112, -42.73211, 0.8),
			pipe("pipe_10", 2.4511, -90, 0.45),
			pipe("pipe_11", 0.4826, -63.47465, 2.4),
			pipe("pipe_12", 0.333375, 0, 21.65),
			element.Pump("ctah_pump", PipeDiameter, 0.36, 0, PipeRoughness),
			pipe("pipe_13", 1.273175, 0, 12.95),
			pipe("pipe_14", 0.6687, 90, 2.4),
			custom("flowmeter_40", 0.36, 90, Flowmeter),
			pipe("pipe_15", 0.3556, -49.36983, 0.8),
			pipe("pipe_16", 0.644525, -90, 1.9),
			pipe("branch_17", 0.473075, 0, 3.15),
		},
	}
}

// Heater 加热器分支，作为回路压力搜索参考
func Heater() network.BranchConfig {
	heater := func(name string, length float64, k float64) element.Config {
		return element.Custom(name, 6.6e-3, length, -90, PipeRoughness,
			friction.Constant(k), friction.Churchill(1)).WithArea(3.64e-4)
	}
	return network.BranchConfig{
		Name:      types.BranchHeater,
		Reference: true,
		Components: []element.Config{
			pipe("branch_5", 0.7493, 17.7632628225, 0.5),
			pipe("pipe_4", 0.2413, -49.743387, 2.4),
			pipe("pipe_3", 1.2827, -90, 3.15),
			custom("static_mixer_10", 0.33, -90, StaticMixer),
			pipe("pipe_2a", 0.149425, -90, 1.8),
			heater("heater_top_head_1a", 0.0889, 3.75),
			heater("ciet_heater_v1", 1.6383, 0),
			heater("heater_bottom_head_1b", 0.19685, 3.95),
			pipe("pipe_18", 0.1778, -40.00520, 5.4),
		},
	}
}

// DHX 换热器分支，带止回阀
func DHX() network.BranchConfig {
	return network.BranchConfig{
		Name:       types.BranchDHX,
		CheckValve: true,
		Components: []element.Config{
			pipe("pipe_26", 0.2159, -90, 1.75),
			custom("static_mixer_21", 0.33, -90, StaticMixer),
			pipe("pipe_25a", 0.22245, -90, 1.35),
			element.Custom("dhx_shell_side", 5.65e-3, 1.18745, -90, PipeRoughness,
				friction.Constant(23.9), friction.Churchill(1)).WithArea(9.43e-4),
			custom("static_mixer_20", 0.33, -90, StaticMixer),
			pipe("pipe_23a", 0.0891, -90, 3.75),
			pipe("pipe_22", 0.69215, -90, 9.95),
			custom("flowmeter_20", 0.36, -90, Flowmeter),
			pipe("pipe_21", 0.487725, -90, 4.4),
			pipe("pipe_20", 0.33655, 0, 0.95),
			pipe("pipe_19", 0.219075, 46.4387183473, 7.5),
		},
	}
}

// Branches 分支配置，顺序为 CTAH、Heater、DHX
func Branches() []network.BranchConfig {
	return []network.BranchConfig{CTAH(), Heater(), DHX()}
}

// NewCIET 创建 CIET 三分支网络
func NewCIET(props fluid.Properties) (*network.Network, error) {
	if props == nil {
		props = fluid.NewTherminol()
	}
	return network.New(props, Branches()...)
}

// Fitted 各分支中损失系数来自实验拟合的元件，用于拟合误差估计
var Fitted = map[string][]string{
	types.BranchCTAH:   {"static_mixer_41", "ctah_horizontal", "static_mixer_40", "flowmeter_40"},
	types.BranchHeater: {"static_mixer_10", "ciet_heater_v1"},
	types.BranchDHX:    {"static_mixer_20", "static_mixer_21", "flowmeter_20"},
}
