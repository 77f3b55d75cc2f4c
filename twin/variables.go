// Package twin 数字孪生服务，周期求解并通过 HTTP 发布可读写变量
package twin

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"ciet/analysis"
	"ciet/network"
)

// 变量错误定义
var (
	ErrValue  = errors.New("变量值无效")
	ErrBranch = errors.New("未知分支")
)

// Inputs 可写变量
type Inputs struct {
	PumpPressure float64         `json:"pump_pressure"` // 泵压力 Pa
	Temperature  float64         `json:"temperature"`   // 流体温度 °C
	Valves       map[string]bool `json:"valves"`        // 阀门开启状态
}

// Outputs 只读变量
type Outputs struct {
	RunID           string               `json:"run_id"`
	Pressure        float64              `json:"pressure"`            // 共享压力 Pa
	Flows           map[string]float64   `json:"flows"`               // 分支流量 kg/s
	Iter            int                  `json:"iter"`                // 迭代次数
	CalculationTime float64              `json:"calculation_time_ms"` // 计算耗时 ms
	Deviation       analysis.Uncertainty `json:"deviation"`           // 回路压降误差估计
	Error           string               `json:"error,omitempty"`     // 最近一次失败
	UpdatedAt       time.Time            `json:"updated_at"`
}

// Snapshot 变量快照
type Snapshot struct {
	Inputs  Inputs  `json:"inputs"`
	Outputs Outputs `json:"outputs"`
}

// Variables 读写变量表，并发安全
type Variables struct {
	mu      sync.RWMutex
	names   []string
	inputs  Inputs
	outputs Outputs
}

// NewVariables 创建变量表，names 为网络分支名称
func NewVariables(names []string, in network.Input) *Variables {
	vars := &Variables{
		names: append([]string(nil), names...),
		inputs: Inputs{
			PumpPressure: in.PumpPressure,
			Temperature:  in.Temperature,
			Valves:       make(map[string]bool, len(names)),
		},
		outputs: Outputs{Flows: make(map[string]float64, len(names))},
	}
	for _, name := range names {
		vars.inputs.Valves[name] = in.Valves.IsOpen(name)
		vars.outputs.Flows[name] = 0
	}
	return vars
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// SetPumpPressure 设置泵压力
func (vars *Variables) SetPumpPressure(pressure float64) error {
	if !finite(pressure) {
		return fmt.Errorf("泵压力 %g: %w", pressure, ErrValue)
	}
	vars.mu.Lock()
	vars.inputs.PumpPressure = pressure
	vars.mu.Unlock()
	return nil
}

// SetTemperature 设置流体温度，范围在求解时检查
func (vars *Variables) SetTemperature(temperature float64) error {
	if !finite(temperature) {
		return fmt.Errorf("温度 %g: %w", temperature, ErrValue)
	}
	vars.mu.Lock()
	vars.inputs.Temperature = temperature
	vars.mu.Unlock()
	return nil
}

// SetValve 设置分支阀门
func (vars *Variables) SetValve(name string, open bool) error {
	vars.mu.Lock()
	defer vars.mu.Unlock()
	if _, ok := vars.inputs.Valves[name]; !ok {
		return fmt.Errorf("%q: %w", name, ErrBranch)
	}
	vars.inputs.Valves[name] = open
	return nil
}

// SetInput 整体替换输入，用于配置重载
func (vars *Variables) SetInput(in network.Input) error {
	if !finite(in.PumpPressure) || !finite(in.Temperature) {
		return fmt.Errorf("泵压力 %g 温度 %g: %w", in.PumpPressure, in.Temperature, ErrValue)
	}
	vars.mu.Lock()
	defer vars.mu.Unlock()
	for name := range in.Valves {
		if _, ok := vars.inputs.Valves[name]; !ok {
			return fmt.Errorf("%q: %w", name, ErrBranch)
		}
	}
	vars.inputs.PumpPressure = in.PumpPressure
	vars.inputs.Temperature = in.Temperature
	for _, name := range vars.names {
		vars.inputs.Valves[name] = in.Valves.IsOpen(name)
	}
	return nil
}

// Input 当前输入
func (vars *Variables) Input() network.Input {
	vars.mu.RLock()
	defer vars.mu.RUnlock()
	return network.Input{
		PumpPressure: vars.inputs.PumpPressure,
		Temperature:  vars.inputs.Temperature,
		Valves:       network.ValvesFromBool(vars.inputs.Valves),
	}
}

// Publish 发布求解结果，失败时保留上次流量与误差估计并记录错误
func (vars *Variables) Publish(runID string, res network.Result, dev analysis.Uncertainty, err error) {
	vars.mu.Lock()
	defer vars.mu.Unlock()
	vars.outputs.RunID = runID
	vars.outputs.UpdatedAt = time.Now()
	vars.outputs.CalculationTime = float64(res.Elapsed) / float64(time.Millisecond)
	if err != nil {
		vars.outputs.Error = err.Error()
		return
	}
	vars.outputs.Error = ""
	vars.outputs.Pressure = res.Pressure
	vars.outputs.Iter = res.Iter
	vars.outputs.Deviation = dev
	for i, name := range res.Names {
		vars.outputs.Flows[name] = res.Flows[i]
	}
}

// Snapshot 变量拷贝
func (vars *Variables) Snapshot() Snapshot {
	vars.mu.RLock()
	defer vars.mu.RUnlock()
	snap := Snapshot{Inputs: vars.inputs, Outputs: vars.outputs}
	snap.Inputs.Valves = make(map[string]bool, len(vars.inputs.Valves))
	for k, v := range vars.inputs.Valves {
		snap.Inputs.Valves[k] = v
	}
	snap.Outputs.Flows = make(map[string]float64, len(vars.outputs.Flows))
	for k, v := range vars.outputs.Flows {
		snap.Outputs.Flows[k] = v
	}
	return snap
}
