package network

import (
	"ciet/element"
	"ciet/maths"
	"fmt"
	"math"
)

// Branch 串联分支
// 分支内元件共享同一质量流量，压力变化逐个相加。
type Branch struct {
	Name        string            // 分支名称
	CheckValve  bool              // 止回阀
	Index       []int             // 元件索引，自上而下
	Convergency maths.Convergency // 收敛参数
	FlowBracket float64           // 流量搜索半宽 kg/s

	arena []element.Component
}

// Len 元件数量
func (branch *Branch) Len() int { return len(branch.Index) }

// Component 第 i 个元件
func (branch *Branch) Component(i int) *element.Component { return &branch.arena[branch.Index[i]] }

// PressureChange 分支压力变化，按顺序累加各元件
func (branch *Branch) PressureChange(massFlow, temperature float64) (float64, error) {
	var sum float64
	for _, id := range branch.Index {
		change, err := branch.arena[id].PressureChange(massFlow, temperature)
		if err != nil {
			return 0, fmt.Errorf("分支 %s: %w", branch.Name, err)
		}
		sum += change
	}
	return sum, nil
}

// ZeroFlowPressure 零流量压力变化，即静压与压力源之和
func (branch *Branch) ZeroFlowPressure(temperature float64) (float64, error) {
	return branch.PressureChange(0, temperature)
}

// Hydrostatic 分支静压，不含压力源
func (branch *Branch) Hydrostatic(temperature float64) float64 {
	var sum float64
	for _, id := range branch.Index {
		sum += branch.arena[id].Hydrostatic(temperature)
	}
	return sum
}

// Elevation 分支净高差 ΣL·sin(θ)，m
func (branch *Branch) Elevation() float64 {
	var sum float64
	for _, id := range branch.Index {
		ele := &branch.arena[id]
		sum += ele.Length * sinDeg(ele.Angle)
	}
	return sum
}

// MassFlowFromPressureChange 由分支压力变化反求流量
// 在 [-FlowBracket, FlowBracket] 内使用 Brent 方法求根。
func (branch *Branch) MassFlowFromPressureChange(pressureChange, temperature float64) (float64, error) {
	root, err := maths.Brent(-branch.FlowBracket, branch.FlowBracket, func(massFlow float64) (float64, error) {
		change, err := branch.PressureChange(massFlow, temperature)
		return change - pressureChange, err
	}, branch.Convergency)
	if err != nil {
		return 0, fmt.Errorf("分支 %s 流量求解失败 ΔP=%g: %w", branch.Name, pressureChange, err)
	}
	return root.X, nil
}

func sinDeg(angle float64) float64 { return math.Sin(angle * math.Pi / 180) }
