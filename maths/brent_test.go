package maths

import (
	"errors"
	"math"
	"testing"
)

func TestBrentSqrt(t *testing.T) {
	conv := NewConvergency()
	root, err := Brent(0, 2, func(x float64) (float64, error) { return x*x - 2, nil }, conv)
	if err != nil {
		t.Fatalf("求根失败 %s", err)
	}
	if math.Abs(root.X-math.Sqrt2) > 1e-9 {
		t.Errorf("根不正确: 期望 %v, 实际 %v", math.Sqrt2, root.X)
	}
	if root.Iter > conv.MaxIter {
		t.Errorf("迭代次数超限: %d", root.Iter)
	}
}

func TestBrentTranscendental(t *testing.T) {
	// cos(x) = x 的根约为 0.739085133215
	root, err := Brent(0, 1, func(x float64) (float64, error) { return math.Cos(x) - x, nil }, NewConvergency())
	if err != nil {
		t.Fatalf("求根失败 %s", err)
	}
	if math.Abs(root.X-0.7390851332151607) > 1e-9 {
		t.Errorf("根不正确: 实际 %v", root.X)
	}
}

func TestBrentEndpointRoot(t *testing.T) {
	// 端点即为根时直接返回，不进入迭代
	root, err := Brent(-1, 1, func(x float64) (float64, error) { return x - 1, nil }, NewConvergency())
	if err != nil {
		t.Fatalf("求根失败 %s", err)
	}
	if root.X != 1 || root.Iter != 0 {
		t.Errorf("端点根处理错误: 根 %v, 迭代 %d", root.X, root.Iter)
	}
}

func TestBrentOddFunction(t *testing.T) {
	// 奇函数在对称区间上第一步即落在零点
	calls := 0
	root, err := Brent(-1, 1, func(x float64) (float64, error) {
		calls++
		return x * math.Abs(x), nil
	}, NewConvergency())
	if err != nil {
		t.Fatalf("求根失败 %s", err)
	}
	if root.X != 0 {
		t.Errorf("根不正确: 期望 0, 实际 %v", root.X)
	}
	if calls != 3 {
		t.Errorf("函数调用次数: 期望 3, 实际 %d", calls)
	}
}

func TestBrentLastStep(t *testing.T) {
	// 最后一次允许的迭代恰好命中根
	conv := Convergency{Eps: 1e-9, MaxIter: 1}
	root, err := Brent(0, 1, func(x float64) (float64, error) { return x - 0.25, nil }, conv)
	if err != nil {
		t.Fatalf("求根失败: %v", err)
	}
	if math.Abs(root.X-0.25) > 1e-12 || root.Iter != 1 {
		t.Errorf("根 %v 迭代 %d", root.X, root.Iter)
	}
}

func TestBrentErrors(t *testing.T) {
	t.Run("NoBracket", func(t *testing.T) {
		_, err := Brent(-1, 1, func(x float64) (float64, error) { return x*x + 1, nil }, NewConvergency())
		if !errors.Is(err, ErrNoBracket) {
			t.Errorf("错误类型不正确: %v", err)
		}
	})
	t.Run("NoConvergence", func(t *testing.T) {
		conv := Convergency{Eps: 1e-15, MaxIter: 2}
		_, err := Brent(0, 3, func(x float64) (float64, error) { return math.Exp(x) - 10, nil }, conv)
		if !errors.Is(err, ErrNoConvergence) {
			t.Errorf("错误类型不正确: %v", err)
		}
	})
	t.Run("NotFinite", func(t *testing.T) {
		_, err := Brent(0, 1, func(x float64) (float64, error) { return math.NaN(), nil }, NewConvergency())
		if !errors.Is(err, ErrNotFinite) {
			t.Errorf("错误类型不正确: %v", err)
		}
	})
	t.Run("Propagate", func(t *testing.T) {
		want := errors.New("目标函数失败")
		_, err := Brent(0, 1, func(x float64) (float64, error) { return 0, want }, NewConvergency())
		if !errors.Is(err, want) {
			t.Errorf("错误未传递: %v", err)
		}
	})
}
