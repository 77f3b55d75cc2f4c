package element

import (
	"ciet/friction"
	"errors"
	"fmt"
	"math"
	"strconv"
)

// ErrGeometry 元件几何或阻力参数错误
var ErrGeometry = errors.New("元件参数错误")

// Kind 元件类型
type Kind uint8

// 元件类型定义
const (
	KindPipe   Kind = iota // 管道：Churchill 摩擦系数 + 固定形阻 K
	KindCustom             // 自定义：k(Re) 与 darcy(Re, ε/D) 关联式
)

func (kind Kind) String() string {
	switch kind {
	case KindPipe:
		return "pipe"
	case KindCustom:
		return "custom"
	}
	return "unknown(" + strconv.Itoa(int(kind)) + ")"
}

// MarshalText 以名称序列化
func (kind Kind) MarshalText() ([]byte, error) { return []byte(kind.String()), nil }

// UnmarshalText 按名称解析
func (kind *Kind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "pipe":
		*kind = KindPipe
	case "custom":
		*kind = KindCustom
	default:
		return fmt.Errorf("未知元件类型 %q: %w", text, ErrGeometry)
	}
	return nil
}

// Config 元件配置结构体，存储元件的静态几何与阻力信息
// 配置为纯数据，求解过程中保持不变。
type Config struct {
	Name      string               `yaml:"name" json:"name"`                     // 元件名称
	Kind      Kind                 `yaml:"kind" json:"kind"`                     // 元件类型
	Diameter  float64              `yaml:"diameter" json:"diameter"`             // 水力直径 m
	Length    float64              `yaml:"length" json:"length"`                 // 长度 m
	Angle     float64              `yaml:"angle" json:"angle"`                   // 倾角 °，沿名义流向向上为正
	Roughness float64              `yaml:"roughness" json:"roughness"`           // 绝对粗糙度 m
	Area      float64              `yaml:"area,omitempty" json:"area,omitempty"` // 流通面积 m²，为零时按直径计算
	FormLoss  float64              `yaml:"form_loss,omitempty" json:"form_loss"` // 管道形阻系数 K
	K         friction.Correlation `yaml:"k,omitempty" json:"k"`                 // 自定义 k(Re)
	Darcy     friction.Correlation `yaml:"darcy,omitempty" json:"darcy"`         // 自定义 darcy(Re, ε/D)
	Pump      bool                 `yaml:"pump,omitempty" json:"pump,omitempty"` // 是否为泵
}

// Pipe 管道配置
func Pipe(name string, diameter, length, angle, roughness, formLoss float64) Config {
	return Config{Name: name, Kind: KindPipe, Diameter: diameter, Length: length, Angle: angle, Roughness: roughness, FormLoss: formLoss}
}

// Custom 自定义阻力元件配置
func Custom(name string, diameter, length, angle, roughness float64, k, darcy friction.Correlation) Config {
	return Config{Name: name, Kind: KindCustom, Diameter: diameter, Length: length, Angle: angle, Roughness: roughness, K: k, Darcy: darcy}
}

// Pump 泵配置，无摩擦无形阻
func Pump(name string, diameter, length, angle, roughness float64) Config {
	config := Custom(name, diameter, length, angle, roughness, friction.Zero(), friction.Zero())
	config.Pump = true
	return config
}

// WithArea 指定流通面积
func (config Config) WithArea(area float64) Config {
	config.Area = area
	return config
}

// FlowArea 流通面积
func (config *Config) FlowArea() float64 {
	if config.Area > 0 {
		return config.Area
	}
	return math.Pi * config.Diameter * config.Diameter / 4
}

// RoughnessRatio ε/D
func (config *Config) RoughnessRatio() float64 { return config.Roughness / config.Diameter }

// LengthToDiameter L/D
func (config *Config) LengthToDiameter() float64 { return config.Length / config.Diameter }

// Validate 检查配置
func (config *Config) Validate() error {
	finite := func(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
	switch {
	case config.Name == "":
		return fmt.Errorf("名称为空: %w", ErrGeometry)
	case !finite(config.Length) || config.Length <= 0:
		return fmt.Errorf("%s 长度 %g: %w", config.Name, config.Length, ErrGeometry)
	case !finite(config.Diameter) || config.Diameter <= 0:
		return fmt.Errorf("%s 直径 %g: %w", config.Name, config.Diameter, ErrGeometry)
	case !finite(config.Roughness) || config.Roughness < 0:
		return fmt.Errorf("%s 粗糙度 %g: %w", config.Name, config.Roughness, ErrGeometry)
	case !finite(config.Angle):
		return fmt.Errorf("%s 倾角 %g: %w", config.Name, config.Angle, ErrGeometry)
	case !finite(config.Area) || config.Area < 0:
		return fmt.Errorf("%s 流通面积 %g: %w", config.Name, config.Area, ErrGeometry)
	}
	switch config.Kind {
	case KindPipe:
		if !finite(config.FormLoss) || config.FormLoss < 0 {
			return fmt.Errorf("%s 形阻系数 %g: %w", config.Name, config.FormLoss, ErrGeometry)
		}
	case KindCustom:
		if err := config.K.Validate(); err != nil {
			return fmt.Errorf("%s k: %w", config.Name, errors.Join(err, ErrGeometry))
		}
		if err := config.Darcy.Validate(); err != nil {
			return fmt.Errorf("%s darcy: %w", config.Name, errors.Join(err, ErrGeometry))
		}
	default:
		return fmt.Errorf("%s %s: %w", config.Name, config.Kind, ErrGeometry)
	}
	return nil
}
