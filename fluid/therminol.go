package fluid

import (
	"errors"
	"fmt"
	"math"
)

// ErrTemperatureRange 温度超出物性关联式适用范围
var ErrTemperatureRange = errors.New("温度超出物性适用范围")

// Properties 流体物性接口，温度单位 °C
type Properties interface {
	Name() string
	Density(temperature float64) float64   // 密度 kg/m³
	Viscosity(temperature float64) float64 // 动力粘度 Pa·s
	Validate(temperature float64) error
}

// Therminol Therminol VP-1 导热油
// 关联式取自 Zweibaum 的 CIET 物性拟合，适用 20–180 °C。
type Therminol struct {
	MinTemperature float64
	MaxTemperature float64
}

// NewTherminol 默认适用范围
func NewTherminol() *Therminol {
	return &Therminol{MinTemperature: 20, MaxTemperature: 180}
}

func (Therminol) Name() string { return "therminol-vp1" }

// Density ρ = 1078 - 0.85 T
func (Therminol) Density(temperature float64) float64 {
	return 1078 - 0.85*temperature
}

// Viscosity μ = 0.130 / T^1.072
func (Therminol) Viscosity(temperature float64) float64 {
	return 0.130 / math.Pow(temperature, 1.072)
}

// HeatCapacity cp = 1518 + 2.82 T，单位 J/(kg·K)
func (Therminol) HeatCapacity(temperature float64) float64 {
	return 1518 + 2.82*temperature
}

// ThermalConductivity k = 0.142 - 0.00016 T，单位 W/(m·K)
func (Therminol) ThermalConductivity(temperature float64) float64 {
	return 0.142 - 0.00016*temperature
}

// KinematicViscosity ν = μ/ρ
func (fluid Therminol) KinematicViscosity(temperature float64) float64 {
	return fluid.Viscosity(temperature) / fluid.Density(temperature)
}

// Validate 检查温度范围
func (fluid Therminol) Validate(temperature float64) error {
	if math.IsNaN(temperature) || temperature < fluid.MinTemperature || temperature > fluid.MaxTemperature {
		return fmt.Errorf("%s %g °C 不在 [%g, %g]: %w", fluid.Name(), temperature, fluid.MinTemperature, fluid.MaxTemperature, ErrTemperatureRange)
	}
	return nil
}
