package maths

import (
	"ciet/types"
	"errors"
	"fmt"
	"math"
)

// 求根错误定义
var (
	ErrNoBracket     = errors.New("区间端点函数值同号")
	ErrNoConvergence = errors.New("达到最大迭代次数仍未收敛")
	ErrNotFinite     = errors.New("函数值非有限数")
)

// Func 求根目标函数
type Func func(x float64) (float64, error)

// Convergency 收敛判定参数
type Convergency struct {
	Eps     float64 // 收敛容差，|f(x)| 或区间宽度小于该值即收敛
	MaxIter int     // 最大迭代次数
}

// NewConvergency 默认收敛参数
func NewConvergency() Convergency {
	return Convergency{Eps: types.Tolerance, MaxIter: types.MaxIterations}
}

// IsRootFound 函数值足够小
func (conv Convergency) IsRootFound(y float64) bool { return math.Abs(y) < conv.Eps }

// IsConverged 区间足够小
func (conv Convergency) IsConverged(x1, x2 float64) bool { return math.Abs(x1-x2) < conv.Eps }

// Root 求根结果
type Root struct {
	X    float64 // 根
	Fx   float64 // 根处函数值
	Iter int     // 迭代次数
}

// eval 计算并检查函数值
func eval(f Func, x float64) (float64, error) {
	y, err := f(x)
	if err != nil {
		return y, err
	}
	if math.IsNaN(y) || math.IsInf(y, 0) {
		return y, fmt.Errorf("x=%g: %w", x, ErrNotFinite)
	}
	return y, nil
}

// Brent 在区间 [a, b] 内使用 Brent 方法求根
// 结合二分、割线与逆二次插值，要求 f(a) 与 f(b) 异号。
func Brent(a, b float64, f Func, conv Convergency) (Root, error) {
	fa, err := eval(f, a)
	if err != nil {
		return Root{}, err
	}
	if conv.IsRootFound(fa) {
		return Root{X: a, Fx: fa}, nil
	}
	fb, err := eval(f, b)
	if err != nil {
		return Root{}, err
	}
	if conv.IsRootFound(fb) {
		return Root{X: b, Fx: fb}, nil
	}
	if fa*fb > 0 {
		return Root{}, fmt.Errorf("[%g, %g] f=(%g, %g): %w", a, b, fa, fb, ErrNoBracket)
	}
	c, fc := a, fa
	d := b - a
	e := d
	for iter := 1; iter <= conv.MaxIter; iter++ {
		// 保持根位于 b 与 c 之间
		if fb*fc > 0 {
			c, fc = a, fa
			d = b - a
			e = d
		}
		// b 为当前最优估计
		if math.Abs(fc) < math.Abs(fb) {
			a, b, c = b, c, b
			fa, fb, fc = fb, fc, fb
		}
		tol := 2*epsilon*math.Abs(b) + 0.5*conv.Eps
		xm := 0.5 * (c - b)
		if math.Abs(xm) <= tol || conv.IsRootFound(fb) {
			return Root{X: b, Fx: fb, Iter: iter}, nil
		}
		if math.Abs(e) >= tol && math.Abs(fa) > math.Abs(fb) {
			var p, q float64
			s := fb / fa
			if a == c {
				// 割线
				p = 2 * xm * s
				q = 1 - s
			} else {
				// 逆二次插值
				q = fa / fc
				r := fb / fc
				p = s * (2*xm*q*(q-r) - (b-a)*(r-1))
				q = (q - 1) * (r - 1) * (s - 1)
			}
			if p > 0 {
				q = -q
			}
			p = math.Abs(p)
			if 2*p < math.Min(3*xm*q-math.Abs(tol*q), math.Abs(e*q)) {
				e = d
				d = p / q
			} else {
				d = xm
				e = d
			}
		} else {
			d = xm
			e = d
		}
		a, fa = b, fb
		if math.Abs(d) > tol {
			b += d
		} else {
			b += math.Copysign(tol, xm)
		}
		if fb, err = eval(f, b); err != nil {
			return Root{}, err
		}
		if conv.IsRootFound(fb) {
			return Root{X: b, Fx: fb, Iter: iter}, nil
		}
	}
	return Root{X: b, Fx: fb, Iter: conv.MaxIter}, fmt.Errorf("x=%g f=%g: %w", b, fb, ErrNoConvergence)
}

// epsilon 双精度机器精度
const epsilon = 2.220446049250313e-16
