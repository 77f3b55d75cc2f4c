package friction

import (
	"errors"
	"fmt"
	"math"
)

// 摩擦系数错误定义
var (
	ErrZeroReynolds      = errors.New("雷诺数为零")
	ErrNegativeReynolds  = errors.New("雷诺数为负")
	ErrNegativeRoughness = errors.New("粗糙度为负")
	ErrLengthToDiameter  = errors.New("长径比必须为正")
	ErrNegativeK         = errors.New("形阻系数为负")
)

// Darcy Churchill 关联式计算 Darcy 摩擦系数
// 覆盖层流、过渡区与湍流，roughnessRatio 为 ε/D。
func Darcy(reynolds, roughnessRatio float64) (float64, error) {
	switch {
	case reynolds == 0:
		return 0, ErrZeroReynolds
	case reynolds < 0:
		return 0, fmt.Errorf("Re=%g: %w", reynolds, ErrNegativeReynolds)
	case roughnessRatio < 0:
		return 0, fmt.Errorf("ε/D=%g: %w", roughnessRatio, ErrNegativeRoughness)
	}
	return churchill(reynolds, roughnessRatio), nil
}

// Fanning Fanning 摩擦系数，为 Darcy 的四分之一
func Fanning(reynolds, roughnessRatio float64) (float64, error) {
	darcy, err := Darcy(reynolds, roughnessRatio)
	return darcy / 4, err
}

// churchill 以层流项 64/Re 提出公因子，小雷诺数时不溢出
//
//	f = 8 [(8/Re)^12 + (A+B)^-1.5]^(1/12)
//	  = 64/Re · [1 + (Re/8)^12 (A+B)^-1.5]^(1/12)
func churchill(reynolds, roughnessRatio float64) float64 {
	a := math.Pow(2.457*math.Log(1/(math.Pow(7/reynolds, 0.9)+0.27*roughnessRatio)), 16)
	b := math.Pow(37530/reynolds, 16)
	turbulent := math.Pow(reynolds/8, 12) / math.Pow(a+b, 1.5)
	return 64 / reynolds * math.Pow(1+turbulent, 1.0/12)
}

// FLDK 广义阻力系数 f·L/D + K
func FLDK(reynolds, roughnessRatio, lengthToDiameter, k float64) (float64, error) {
	if lengthToDiameter <= 0 {
		return 0, fmt.Errorf("L/D=%g: %w", lengthToDiameter, ErrLengthToDiameter)
	}
	if k < 0 {
		return 0, fmt.Errorf("K=%g: %w", k, ErrNegativeK)
	}
	darcy, err := Darcy(reynolds, roughnessRatio)
	if err != nil {
		return 0, err
	}
	return darcy*lengthToDiameter + k, nil
}
