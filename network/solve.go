package network

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"ciet/maths"

	"gonum.org/v1/gonum/floats"
)

// ErrInput 求解输入错误
var ErrInput = errors.New("求解输入错误")

// Input 求解输入
type Input struct {
	PumpPressure float64 // 泵压力 Pa
	Temperature  float64 // 流体温度 °C
	Valves       Valves  // 阀门状态，nil 表示全部开启
}

// Result 求解结果
type Result struct {
	Pressure float64       // 共享压力变化 Pa
	Names    []string      // 分支名称
	Flows    []float64     // 分支质量流量 kg/s，与 Names 同序
	Elapsed  time.Duration // 计算耗时
	Iter     int           // 回路求根迭代次数
}

// Flow 按名称取分支流量
func (res Result) Flow(name string) float64 {
	for i, n := range res.Names {
		if n == name {
			return res.Flows[i]
		}
	}
	return 0
}

// Imbalance 质量守恒残差 Σṁ
func (res Result) Imbalance() float64 { return floats.Sum(res.Flows) }

// Solve 求解
func (net *Network) Solve(in Input) (Result, error) {
	return net.SolveContext(context.Background(), in)
}

// SolveContext 求解回路压力与各分支流量
// 每次调用前重置所有元件状态，结果不依赖之前的调用。
func (net *Network) SolveContext(ctx context.Context, in Input) (res Result, err error) {
	start := time.Now()
	defer func() {
		res.Elapsed = time.Since(start)
		if net.Debug == nil || !net.Debug.IsDebug() {
			return
		}
		if err != nil {
			net.Debug.Error(err)
		} else {
			net.Debug.Update(in, res)
		}
	}()
	if math.IsNaN(in.PumpPressure) || math.IsInf(in.PumpPressure, 0) {
		return Result{}, fmt.Errorf("泵压力 %g: %w", in.PumpPressure, ErrInput)
	}
	if err := net.Fluid.Validate(in.Temperature); err != nil {
		return Result{}, errors.Join(err, ErrInput)
	}
	if err := net.CheckValves(in.Valves); err != nil {
		return Result{}, errors.Join(err, ErrInput)
	}
	net.Reset()
	if err := net.SetPumpPressure(in.PumpPressure); err != nil {
		return Result{}, errors.Join(err, ErrInput)
	}
	res = Result{Names: net.Names(), Flows: make([]float64, len(net.Branches))}

	// 各分支零流量压力
	zeroFlow := make([]float64, len(net.Branches))
	for i, branch := range net.Branches {
		if zeroFlow[i], err = branch.ZeroFlowPressure(in.Temperature); err != nil {
			return Result{}, err
		}
	}
	center := zeroFlow[net.Reference]

	// 全部关闭时不求根；仅一个分支开启时无并联回路，流量为零，压力取该分支零流量压力
	open, last := 0, net.Reference
	for i, branch := range net.Branches {
		if in.Valves.IsOpen(branch.Name) {
			open, last = open+1, i
		}
	}
	switch open {
	case 0:
		res.Pressure = center
		return res, nil
	case 1:
		res.Pressure = zeroFlow[last]
		return res, nil
	}

	flows := make([]float64, len(net.Branches))
	residual := func(pressure float64) (float64, error) {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		if err := net.branchFlows(pressure, in, zeroFlow, flows); err != nil {
			return 0, err
		}
		return floats.Sum(flows), nil
	}
	root, found, err := net.checkValveRoot(in, zeroFlow, residual)
	if err != nil {
		return Result{}, err
	}
	if !found {
		root, err = maths.Brent(center-net.PressureBracket, center+net.PressureBracket, residual, net.Convergency)
		if err != nil {
			return Result{}, fmt.Errorf("回路压力求解失败 泵压力=%g: %w", in.PumpPressure, err)
		}
	}

	// 在根处重新计算各分支流量，阀门与止回阀规则与残差一致
	if err := net.branchFlows(root.X, in, zeroFlow, res.Flows); err != nil {
		return Result{}, err
	}
	res.Pressure = root.X
	res.Iter = root.Iter
	return res, nil
}

// checkValveRoot 检查止回阀分支零流量压力处是否已满足质量守恒
// 根落在止回阀折点上时残差在根附近不光滑，Brent 可能在迭代上限内无法收敛。
func (net *Network) checkValveRoot(in Input, zeroFlow []float64, residual maths.Func) (maths.Root, bool, error) {
	for i, branch := range net.Branches {
		if !branch.CheckValve || !in.Valves.IsOpen(branch.Name) {
			continue
		}
		fx, err := residual(zeroFlow[i])
		if err != nil {
			return maths.Root{}, false, err
		}
		if net.Convergency.IsRootFound(fx) {
			return maths.Root{X: zeroFlow[i], Fx: fx}, true, nil
		}
	}
	return maths.Root{}, false, nil
}

// branchFlows 给定共享压力计算各分支流量
func (net *Network) branchFlows(pressure float64, in Input, zeroFlow, flows []float64) error {
	for i, branch := range net.Branches {
		switch {
		case !in.Valves.IsOpen(branch.Name):
			flows[i] = 0
		case checkValveBlocks(branch, pressure, zeroFlow[i]):
			flows[i] = 0
		default:
			flow, err := branch.MassFlowFromPressureChange(pressure, in.Temperature)
			if err != nil {
				return err
			}
			flows[i] = flow
		}
	}
	return nil
}

// BranchFlow 给定共享压力计算单个分支流量，应用阀门与止回阀规则
// 调用前需已设置泵压力。
func (net *Network) BranchFlow(branch *Branch, pressure float64, in Input) (float64, error) {
	if !in.Valves.IsOpen(branch.Name) {
		return 0, nil
	}
	if branch.CheckValve {
		zeroFlow, err := branch.ZeroFlowPressure(in.Temperature)
		if err != nil {
			return 0, err
		}
		if checkValveBlocks(branch, pressure, zeroFlow) {
			return 0, nil
		}
	}
	return branch.MassFlowFromPressureChange(pressure, in.Temperature)
}
