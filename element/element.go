package element

import (
	"ciet/fluid"
	"ciet/friction"
	"ciet/types"
	"errors"
	"fmt"
	"math"
)

// 求解错误定义
var (
	ErrNoInverse   = errors.New("自定义元件无解析反函数")
	ErrInverseIter = errors.New("管道反函数迭代未收敛")
)

// inverseMaxIter 管道反函数最大迭代次数
const inverseMaxIter = 100

// Component 元件
// 几何为只读配置；Source 与缓存为可变状态，每次求解前需 Reset。
type Component struct {
	Config
	Source float64 // 内部压力源 Pa，仅泵使用

	fluid fluid.Properties
	area  float64
	last  Last
}

// Last 上次计算缓存
type Last struct {
	MassFlow       float64 // kg/s
	PressureChange float64 // Pa
}

// New 创建元件，参数错误在此处返回
func New(config Config, props fluid.Properties) (Component, error) {
	if err := config.Validate(); err != nil {
		return Component{}, err
	}
	if props == nil {
		return Component{}, fmt.Errorf("%s 未指定流体: %w", config.Name, ErrGeometry)
	}
	return Component{Config: config, fluid: props, area: config.FlowArea()}, nil
}

// Reset 清空压力源与缓存
func (ele *Component) Reset() {
	ele.Source = 0
	ele.last = Last{}
}

// Last 上次计算结果
func (ele *Component) Last() Last { return ele.last }

// Reynolds 带符号雷诺数 Re = ṁ·D/(A·μ)
func (ele *Component) Reynolds(massFlow, temperature float64) float64 {
	return massFlow * ele.Diameter / (ele.area * ele.fluid.Viscosity(temperature))
}

// Hydrostatic 静压项 -ρ·g·L·sin(θ)
func (ele *Component) Hydrostatic(temperature float64) float64 {
	return -ele.fluid.Density(temperature) * types.Gravity * ele.Length * math.Sin(ele.Angle*math.Pi/180)
}

// FLDK 带符号广义阻力系数 f·L/D + K
func (ele *Component) FLDK(reynolds float64) (float64, error) {
	rr := ele.RoughnessRatio()
	switch ele.Kind {
	case KindPipe:
		fldk, err := friction.FLDK(math.Abs(reynolds), rr, ele.LengthToDiameter(), ele.FormLoss)
		if err != nil {
			return 0, err
		}
		if reynolds < 0 {
			return -fldk, nil
		}
		return fldk, nil
	case KindCustom:
		k, err := ele.K.Eval(reynolds, rr)
		if err != nil {
			return 0, err
		}
		darcy, err := ele.Darcy.Eval(reynolds, rr)
		if err != nil {
			return 0, err
		}
		return darcy*ele.LengthToDiameter() + k, nil
	}
	return 0, fmt.Errorf("%s %s: %w", ele.Name, ele.Kind, ErrGeometry)
}

// PressureLoss 压降 (f·L/D + K)·ρv²/2，与流向同号
// 零流量直接返回零，不进入关联式。
func (ele *Component) PressureLoss(massFlow, temperature float64) (float64, error) {
	if massFlow == 0 {
		return 0, nil
	}
	reynolds := ele.Reynolds(massFlow, temperature)
	if reynolds == 0 {
		return 0, nil
	}
	fldk, err := ele.FLDK(reynolds)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", ele.Name, err)
	}
	// ρv²/2 = μ²Re²/(2ρD²)
	mu, rho := ele.fluid.Viscosity(temperature), ele.fluid.Density(temperature)
	return fldk * mu * mu * reynolds * reynolds / (2 * rho * ele.Diameter * ele.Diameter), nil
}

// PressureChange 压力变化 -ΔP_loss + 静压 + 压力源
func (ele *Component) PressureChange(massFlow, temperature float64) (float64, error) {
	loss, err := ele.PressureLoss(massFlow, temperature)
	if err != nil {
		return 0, err
	}
	change := -loss + ele.Hydrostatic(temperature) + ele.Source
	ele.last = Last{MassFlow: massFlow, PressureChange: change}
	return change, nil
}

// MassFlowFromPressureChange 由压力变化反求流量
// 管道按 Bejan 数求解 Re 的二次方程，摩擦系数随 Re 更新直至收敛；
// 自定义元件无解析解，由所在分支求根。
func (ele *Component) MassFlowFromPressureChange(pressureChange, temperature float64) (float64, error) {
	if ele.Kind != KindPipe {
		return 0, fmt.Errorf("%s: %w", ele.Name, ErrNoInverse)
	}
	loss := ele.Hydrostatic(temperature) + ele.Source - pressureChange
	if loss == 0 {
		return 0, nil
	}
	mu, rho := ele.fluid.Viscosity(temperature), ele.fluid.Density(temperature)
	// Be = |ΔP|·ρD²/μ²，满足 fldk(Re)·Re² = 2Be
	bejan := math.Abs(loss) * rho * ele.Diameter * ele.Diameter / (mu * mu)
	reynolds, err := ele.solveReynolds(bejan)
	if err != nil {
		return 0, err
	}
	massFlow := math.Copysign(reynolds*ele.area*mu/ele.Diameter, loss)
	ele.last = Last{MassFlow: massFlow, PressureChange: pressureChange}
	return massFlow, nil
}

// solveReynolds 以 φ = f(Re)·Re 固定后，(φ·L/D)·Re + K·Re² = 2Be 为二次方程
// 外层用 Wegstein 加速的不动点迭代更新 φ。
func (ele *Component) solveReynolds(bejan float64) (float64, error) {
	ld, rr, k := ele.LengthToDiameter(), ele.RoughnessRatio(), ele.FormLoss
	quadratic := func(phi float64) float64 {
		b := phi * ld
		return 4 * bejan / (b + math.Sqrt(b*b+8*k*bejan))
	}
	step := func(reynolds float64) (float64, error) {
		darcy, err := friction.Darcy(reynolds, rr)
		if err != nil {
			return 0, err
		}
		return quadratic(darcy * reynolds), nil
	}
	// 层流初值 φ = 64
	x0 := quadratic(64)
	g0, err := step(x0)
	if err != nil {
		return 0, err
	}
	x1 := 0.5 * (x0 + g0)
	for i := 0; i < inverseMaxIter; i++ {
		g1, err := step(x1)
		if err != nil {
			return 0, err
		}
		if math.Abs(g1-x1) <= 1e-12*x1 {
			return g1, nil
		}
		q := 0.5
		if x1 != x0 {
			if slope := (g1 - g0) / (x1 - x0); slope != 1 {
				q = min(max(slope/(slope-1), -0.5), 0.9)
			}
		}
		x0, g0 = x1, g1
		x1 = q*x1 + (1-q)*g1
	}
	return 0, fmt.Errorf("%s Be=%g: %w", ele.Name, bejan, ErrInverseIter)
}
