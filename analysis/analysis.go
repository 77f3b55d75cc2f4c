// Package analysis 基于网络求解的工况扫描与误差估计
package analysis

import (
	"context"
	"errors"
	"fmt"
	"math"

	"ciet/element"
	"ciet/maths"
	"ciet/network"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"
)

// 分析错误定义
var (
	ErrSteps  = errors.New("扫描点数至少为 2")
	ErrNoPump = errors.New("网络无泵")
	ErrClosed = errors.New("泵分支关闭或无并联回路")
	ErrMass   = errors.New("质量守恒不满足")
)

// 误差估计参数
var (
	FlowThreshold         = 0.0004 // 低于该流量时不估计流量计误差 kg/s
	MassTolerance         = 0.0004 // 质量守恒检查容差 kg/s
	PressureStep          = 10.0   // 共享压力扰动 Pa
	SensitivityStep       = 10.0   // 泵压力扰动 Pa
	ReferenceDensity      = 1061.0 // 实验参考密度 kg/m³
	ManometerGravity      = 9.81   // 实验换算重力加速度 m/s²
	ManometerReadingError = 14.7   // 压力计读数误差 Pa
	FlowmeterFraction     = 0.02   // 科氏流量计相对误差
	FLDKFraction          = 0.10   // 拟合损失系数相对误差
)

// Point 扫描点
type Point struct {
	PumpPressure float64
	network.Result
}

// Sweep 泵压力扫描，from 到 to 等分 n 个点
func Sweep(ctx context.Context, net *network.Network, from, to float64, n int, in network.Input) ([]Point, error) {
	if n < 2 {
		return nil, fmt.Errorf("n=%d: %w", n, ErrSteps)
	}
	pumps := floats.Span(make([]float64, n), from, to)
	points := make([]Point, 0, n)
	for _, pump := range pumps {
		in.PumpPressure = pump
		res, err := net.SolveContext(ctx, in)
		if err != nil {
			return points, err
		}
		points = append(points, Point{PumpPressure: pump, Result: res})
	}
	return points, nil
}

// pumpSetup 检查泵分支与并联回路，并将泵压力清零
func pumpSetup(net *network.Network, in network.Input) (*network.Branch, error) {
	pumpBranch, ok := net.PumpBranch()
	if !ok {
		return nil, ErrNoPump
	}
	if err := net.CheckValves(in.Valves); err != nil {
		return nil, err
	}
	if !in.Valves.IsOpen(pumpBranch.Name) {
		return nil, fmt.Errorf("分支 %s: %w", pumpBranch.Name, ErrClosed)
	}
	open := 0
	for _, branch := range net.Branches {
		if branch != pumpBranch && in.Valves.IsOpen(branch.Name) {
			open++
		}
	}
	if open == 0 {
		return nil, ErrClosed
	}
	if err := net.Fluid.Validate(in.Temperature); err != nil {
		return nil, err
	}
	net.Reset()
	return pumpBranch, net.SetPumpPressure(0)
}

// returnFlow 给定共享压力，除泵分支外各分支流量之和
func returnFlow(net *network.Network, pumpBranch *network.Branch, pressure float64, in network.Input) (float64, error) {
	var sum float64
	for _, branch := range net.Branches {
		if branch == pumpBranch {
			continue
		}
		flow, err := net.BranchFlow(branch, pressure, in)
		if err != nil {
			return 0, err
		}
		sum += flow
	}
	return sum, nil
}

// RequiredPumpPressure 达到指定泵分支流量所需的泵压力
// 先求其余分支合计回流为 -ṁ 的共享压力，再扣除泵分支零泵压下的压力变化。
func RequiredPumpPressure(net *network.Network, flow float64, in network.Input) (float64, error) {
	pumpBranch, err := pumpSetup(net, in)
	if err != nil {
		return 0, err
	}
	reference := net.Branches[net.Reference]
	if reference == pumpBranch {
		reference = nil
		for _, branch := range net.Branches {
			if branch != pumpBranch {
				reference = branch
				break
			}
		}
	}
	center, err := reference.ZeroFlowPressure(in.Temperature)
	if err != nil {
		return 0, err
	}
	root, err := maths.Brent(center-net.PressureBracket, center+net.PressureBracket, func(pressure float64) (float64, error) {
		back, err := returnFlow(net, pumpBranch, pressure, in)
		return flow + back, err
	}, net.Convergency)
	if err != nil {
		return 0, fmt.Errorf("流量 %g 对应压力求解失败: %w", flow, err)
	}
	change, err := pumpBranch.PressureChange(flow, in.Temperature)
	if err != nil {
		return 0, err
	}
	return root.X - change, nil
}

// Sensitivity 工作点处泵分支流量对泵压力的导数 dṁ/dP
func Sensitivity(ctx context.Context, net *network.Network, in network.Input) (float64, error) {
	pumpBranch, ok := net.PumpBranch()
	if !ok {
		return 0, ErrNoPump
	}
	var first error
	slope := fd.Derivative(func(pump float64) float64 {
		if first != nil {
			return math.NaN()
		}
		in.PumpPressure = pump
		res, err := net.SolveContext(ctx, in)
		if err != nil {
			first = err
			return math.NaN()
		}
		return res.Flow(pumpBranch.Name)
	}, in.PumpPressure, &fd.Settings{Formula: fd.Central, Step: SensitivityStep})
	return slope, first
}

// FlowmeterDeviation 流量计误差引起的回路压降偏差
// 回路压降为泵分支与参考分支压力变化之差，取中心差分斜率乘以流量误差，返回绝对值。
func FlowmeterDeviation(net *network.Network, flow, pump, fraction, temperature float64) (float64, error) {
	if math.Abs(flow) <= FlowThreshold {
		return 0, nil
	}
	pumpBranch, ok := net.PumpBranch()
	if !ok {
		return 0, ErrNoPump
	}
	reference := net.Branches[net.Reference]
	if err := net.Fluid.Validate(temperature); err != nil {
		return 0, err
	}
	net.Reset()
	if err := net.SetPumpPressure(pump); err != nil {
		return 0, err
	}
	var first error
	loop := func(m float64) float64 {
		up, err := pumpBranch.PressureChange(m, temperature)
		if err != nil {
			first = errors.Join(first, err)
			return math.NaN()
		}
		down, err := reference.PressureChange(-m, temperature)
		if err != nil {
			first = errors.Join(first, err)
			return math.NaN()
		}
		return up - down
	}
	step := math.Abs(flow * fraction)
	if step == 0 {
		return 0, nil
	}
	gradient := fd.Derivative(loop, flow, &fd.Settings{Formula: fd.Central, Step: step})
	return math.Abs(flow * fraction * gradient), first
}

// OperatingDeviation 工作点处流量误差对应的泵压力偏差
// 共享压力上下扰动 PressureStep，由所得泵压力与流量差分求斜率。
func OperatingDeviation(net *network.Network, flow, fraction float64, in network.Input) (float64, error) {
	if math.Abs(flow) <= FlowThreshold {
		return 0, nil
	}
	pumpBranch, ok := net.PumpBranch()
	if !ok {
		return 0, ErrNoPump
	}
	if !in.Valves.IsOpen(pumpBranch.Name) {
		return 0, nil
	}
	open := 0
	for _, branch := range net.Branches {
		if branch != pumpBranch && in.Valves.IsOpen(branch.Name) {
			open++
		}
	}
	if open == 0 {
		return 0, nil
	}
	if err := net.Fluid.Validate(in.Temperature); err != nil {
		return 0, err
	}
	net.Reset()
	if err := net.SetPumpPressure(in.PumpPressure); err != nil {
		return 0, err
	}
	pressure, err := pumpBranch.PressureChange(flow, in.Temperature)
	if err != nil {
		return 0, err
	}
	back, err := returnFlow(net, pumpBranch, pressure, in)
	if err != nil {
		return 0, err
	}
	if math.Abs(flow+back) >= MassTolerance {
		return 0, fmt.Errorf("ṁ=%g 回流=%g: %w", flow, back, ErrMass)
	}

	// 泵压力置零后由共享压力反推泵分支流量与所需泵压力
	if err := net.SetPumpPressure(0); err != nil {
		return 0, err
	}
	pair := func(pressure float64) (m, pump float64, err error) {
		back, err := returnFlow(net, pumpBranch, pressure, in)
		if err != nil {
			return 0, 0, err
		}
		m = -back
		change, err := pumpBranch.PressureChange(m, in.Temperature)
		if err != nil {
			return 0, 0, err
		}
		return m, pressure - change, nil
	}
	m1, pump1, err := pair(pressure + PressureStep)
	if err != nil {
		return 0, err
	}
	m2, pump2, err := pair(pressure - PressureStep)
	if err != nil {
		return 0, err
	}
	if m1 == m2 {
		return 0, nil
	}
	return flow * fraction * (pump2 - pump1) / (m2 - m1), nil
}

// FLDKDeviation 拟合损失系数误差引起的分支压降偏差，各元件偏差平方和开方
// names 为空时取分支内全部自定义元件。
func FLDKDeviation(branch *network.Branch, names []string, flow, fraction, temperature float64) (float64, error) {
	selected := func(i int) bool {
		ele := branch.Component(i)
		if len(names) == 0 {
			return !ele.Pump && ele.Kind == element.KindCustom
		}
		for _, name := range names {
			if ele.Name == name {
				return true
			}
		}
		return false
	}
	var squares []float64
	for i := 0; i < branch.Len(); i++ {
		if !selected(i) {
			continue
		}
		ele := branch.Component(i)
		loss, err := ele.PressureLoss(flow, temperature)
		if err != nil {
			return 0, err
		}
		squares = append(squares, fraction*loss*fraction*loss)
	}
	return math.Sqrt(floats.Sum(squares)), nil
}

// ExperimentalPressureLoss 压力计 m42、m43 拟合的实验回路压降 Pa
func ExperimentalPressureLoss(flow float64) float64 {
	m42 := -20.4218536540637*flow*flow - 0.874137365300828*flow + 1
	m43 := 10.1573390552631*flow*flow + 2.33678270779408*flow + 1
	return ReferenceDensity * ManometerGravity * (m43 - m42)
}

// Uncertainty 回路压降误差估计 Pa
type Uncertainty struct {
	Manometer float64 `json:"manometer_pa"` // 压力计读数
	Flowmeter float64 `json:"flowmeter_pa"` // 流量计误差传递
	FLDK      float64 `json:"fldk_pa"`      // 拟合损失系数
	Total     float64 `json:"total_pa"`     // 平方和开方
}

// LoopUncertainty 泵分支与参考分支组成回路的压降误差
// 两分支均按泵分支流量 flow 估计拟合误差，fitted 为各分支拟合元件名称。
func LoopUncertainty(net *network.Network, flow, pump, temperature float64, fitted map[string][]string) (Uncertainty, error) {
	unc := Uncertainty{Manometer: ManometerReadingError}
	pumpBranch, ok := net.PumpBranch()
	if !ok {
		return unc, ErrNoPump
	}
	var err error
	if unc.Flowmeter, err = FlowmeterDeviation(net, flow, pump, FlowmeterFraction, temperature); err != nil {
		return unc, err
	}
	branches := []*network.Branch{pumpBranch}
	if reference := net.Branches[net.Reference]; reference != pumpBranch {
		branches = append(branches, reference)
	}
	var squares []float64
	for _, branch := range branches {
		names, ok := fitted[branch.Name]
		if !ok {
			continue
		}
		dev, err := FLDKDeviation(branch, names, flow, FLDKFraction, temperature)
		if err != nil {
			return unc, err
		}
		squares = append(squares, dev*dev)
	}
	unc.FLDK = math.Sqrt(floats.Sum(squares))
	unc.Total = math.Sqrt(unc.Manometer*unc.Manometer + unc.Flowmeter*unc.Flowmeter + floats.Sum(squares))
	return unc, nil
}
