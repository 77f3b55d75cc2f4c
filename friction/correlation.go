package friction

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrCorrelation 关联式定义错误
var ErrCorrelation = errors.New("关联式定义错误")

// Kind 关联式类型
type Kind uint8

// 关联式类型定义
const (
	KindZero      Kind = iota // 恒为零
	KindConstant              // 常数 A
	KindRePower               // A + B/|Re|^N
	KindChurchill             // A·f_churchill(|Re|, ε/D)
)

var kindNames = [...]string{
	KindZero:      "zero",
	KindConstant:  "const",
	KindRePower:   "repow",
	KindChurchill: "churchill",
}

func (kind Kind) String() string {
	if int(kind) < len(kindNames) {
		return kindNames[kind]
	}
	return "unknown(" + strconv.Itoa(int(kind)) + ")"
}

// MarshalText 以名称序列化
func (kind Kind) MarshalText() ([]byte, error) { return []byte(kind.String()), nil }

// UnmarshalText 按名称解析
func (kind *Kind) UnmarshalText(text []byte) error {
	for i, name := range kindNames {
		if name == string(text) {
			*kind = Kind(i)
			return nil
		}
	}
	return fmt.Errorf("未知关联式类型 %q: %w", text, ErrCorrelation)
}

// Correlation 雷诺数关联式
// 用于自定义元件的 k(Re) 与 darcy(Re, ε/D)。
type Correlation struct {
	Kind Kind    `yaml:"kind" json:"kind"`
	A    float64 `yaml:"a,omitempty" json:"a,omitempty"`
	B    float64 `yaml:"b,omitempty" json:"b,omitempty"`
	N    float64 `yaml:"n,omitempty" json:"n,omitempty"`
}

// Zero 恒为零
func Zero() Correlation { return Correlation{Kind: KindZero} }

// Constant 常数
func Constant(a float64) Correlation { return Correlation{Kind: KindConstant, A: a} }

// RePower A + B/|Re|^N
func RePower(a, b, n float64) Correlation { return Correlation{Kind: KindRePower, A: a, B: b, N: n} }

// Churchill A 倍的 Churchill 摩擦系数
func Churchill(a float64) Correlation { return Correlation{Kind: KindChurchill, A: a} }

// Validate 检查系数
func (corr Correlation) Validate() error {
	for _, v := range [...]float64{corr.A, corr.B, corr.N} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%s 系数非有限数: %w", corr, ErrCorrelation)
		}
	}
	switch corr.Kind {
	case KindZero:
	case KindConstant, KindChurchill:
		if corr.A < 0 {
			return fmt.Errorf("%s 系数为负: %w", corr, ErrCorrelation)
		}
	case KindRePower:
		if corr.A < 0 || corr.B < 0 || corr.N < 0 {
			return fmt.Errorf("%s 系数为负: %w", corr, ErrCorrelation)
		}
	default:
		return fmt.Errorf("%s: %w", corr.Kind, ErrCorrelation)
	}
	return nil
}

// Eval 计算关联式
// 负雷诺数取绝对值计算后取反，保证压降与流向相反。
func (corr Correlation) Eval(reynolds, roughnessRatio float64) (float64, error) {
	if reynolds == 0 {
		return 0, ErrZeroReynolds
	}
	value, err := corr.magnitude(math.Abs(reynolds), roughnessRatio)
	if err != nil {
		return 0, err
	}
	if reynolds < 0 {
		return -value, nil
	}
	return value, nil
}

func (corr Correlation) magnitude(reynolds, roughnessRatio float64) (float64, error) {
	switch corr.Kind {
	case KindZero:
		return 0, nil
	case KindConstant:
		return corr.A, nil
	case KindRePower:
		return corr.A + corr.B*math.Pow(reynolds, -corr.N), nil
	case KindChurchill:
		darcy, err := Darcy(reynolds, roughnessRatio)
		return corr.A * darcy, err
	}
	return 0, fmt.Errorf("%s: %w", corr.Kind, ErrCorrelation)
}

// String 网表格式 kind(a,b,n)
func (corr Correlation) String() string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	switch corr.Kind {
	case KindZero:
		return "zero"
	case KindConstant, KindChurchill:
		return corr.Kind.String() + "(" + f(corr.A) + ")"
	case KindRePower:
		return corr.Kind.String() + "(" + f(corr.A) + "," + f(corr.B) + "," + f(corr.N) + ")"
	}
	return corr.Kind.String()
}

// ParseCorrelation 解析网表格式关联式
func ParseCorrelation(s string) (Correlation, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	name, args := s, []float64(nil)
	if i := strings.IndexByte(s, '('); i >= 0 {
		if !strings.HasSuffix(s, ")") {
			return Correlation{}, fmt.Errorf("括号不匹配 %q: %w", s, ErrCorrelation)
		}
		name = s[:i]
		for _, field := range strings.Split(s[i+1:len(s)-1], ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return Correlation{}, fmt.Errorf("参数 %q: %w", field, ErrCorrelation)
			}
			args = append(args, v)
		}
	}
	var corr Correlation
	switch name {
	case "zero":
		corr = Zero()
	case "const":
		if len(args) != 1 {
			return Correlation{}, fmt.Errorf("const 需要 1 个参数 %q: %w", s, ErrCorrelation)
		}
		corr = Constant(args[0])
	case "churchill":
		a := 1.0
		if len(args) > 1 {
			return Correlation{}, fmt.Errorf("churchill 最多 1 个参数 %q: %w", s, ErrCorrelation)
		} else if len(args) == 1 {
			a = args[0]
		}
		corr = Churchill(a)
	case "repow":
		if len(args) != 3 {
			return Correlation{}, fmt.Errorf("repow 需要 3 个参数 %q: %w", s, ErrCorrelation)
		}
		corr = RePower(args[0], args[1], args[2])
	default:
		return Correlation{}, fmt.Errorf("未知关联式 %q: %w", s, ErrCorrelation)
	}
	return corr, corr.Validate()
}
