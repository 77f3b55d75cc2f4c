package friction

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// churchillReference 未提取公因子的原始形式
func churchillReference(re, rr float64) float64 {
	a := math.Pow(2.457*math.Log(1/(math.Pow(7/re, 0.9)+0.27*rr)), 16)
	b := math.Pow(37530/re, 16)
	inner := math.Pow(8/re, 12) + 1/math.Pow(a+b, 1.5)
	fanning := 2 * math.Pow(inner, 1.0/12)
	return 4 * fanning
}

func TestDarcy(t *testing.T) {
	for _, re := range []float64{1, 100, 1000, 2300, 4000, 1e4, 1e5, 1e6, 1e7} {
		got, err := Darcy(re, 5e-4)
		require.NoError(t, err)
		assert.InEpsilon(t, churchillReference(re, 5e-4), got, 1e-12, "Re=%g", re)
	}

	// 层流区趋近 64/Re
	laminar, err := Darcy(100, 0)
	require.NoError(t, err)
	assert.InEpsilon(t, 0.64, laminar, 1e-9)

	// 极小雷诺数不溢出
	tiny, err := Darcy(1e-30, 5e-4)
	require.NoError(t, err)
	assert.InEpsilon(t, 64e30, tiny, 1e-9)

	fanning, err := Fanning(1e5, 5e-4)
	require.NoError(t, err)
	darcy, _ := Darcy(1e5, 5e-4)
	assert.InDelta(t, darcy/4, fanning, 1e-15)
}

func TestDarcyErrors(t *testing.T) {
	_, err := Darcy(0, 0)
	assert.ErrorIs(t, err, ErrZeroReynolds)
	_, err = Darcy(-10, 0)
	assert.ErrorIs(t, err, ErrNegativeReynolds)
	_, err = Darcy(10, -1)
	assert.ErrorIs(t, err, ErrNegativeRoughness)
}

func TestFLDK(t *testing.T) {
	fldk, err := FLDK(1e4, 5e-4, 10, 2)
	require.NoError(t, err)
	darcy, _ := Darcy(1e4, 5e-4)
	assert.InDelta(t, darcy*10+2, fldk, 1e-12)

	_, err = FLDK(1e4, 5e-4, 0, 2)
	assert.ErrorIs(t, err, ErrLengthToDiameter)
	_, err = FLDK(1e4, 5e-4, 10, -1)
	assert.ErrorIs(t, err, ErrNegativeK)
}

func TestCorrelationOddSymmetry(t *testing.T) {
	list := []Correlation{Zero(), Constant(3.75), RePower(21, 4000, 1), RePower(18, 93000, 1.35), Churchill(1)}
	for _, corr := range list {
		for _, re := range []float64{1, 250, 2300, 8.5e3, 1e5} {
			pos, err := corr.Eval(re, 5e-4)
			require.NoError(t, err)
			neg, err := corr.Eval(-re, 5e-4)
			require.NoError(t, err)
			assert.Equal(t, -pos, neg, "%s Re=%g", corr, re)
		}
	}

	// 具体数值
	k, err := RePower(21, 4000, 1).Eval(-2000, 0)
	require.NoError(t, err)
	assert.InDelta(t, -23.0, k, 1e-12)

	_, err = Constant(1).Eval(0, 0)
	assert.ErrorIs(t, err, ErrZeroReynolds)
}

func TestCorrelationParse(t *testing.T) {
	for _, corr := range []Correlation{Zero(), Constant(3.75), RePower(18, 93000, 1.35), Churchill(0.5)} {
		parsed, err := ParseCorrelation(corr.String())
		require.NoError(t, err)
		assert.Equal(t, corr, parsed)
	}

	parsed, err := ParseCorrelation(" Churchill ")
	require.NoError(t, err)
	assert.Equal(t, Churchill(1), parsed)

	for _, bad := range []string{"", "foo(1)", "const", "repow(1,2)", "const(x)", "const(1", "const(-1)", "churchill(1,2)"} {
		_, err := ParseCorrelation(bad)
		assert.ErrorIs(t, err, ErrCorrelation, "%q", bad)
	}
}

func TestKindText(t *testing.T) {
	var kind Kind
	require.NoError(t, kind.UnmarshalText([]byte("repow")))
	assert.Equal(t, KindRePower, kind)
	text, err := KindChurchill.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "churchill", string(text))
	assert.ErrorIs(t, kind.UnmarshalText([]byte("quadratic")), ErrCorrelation)
}
