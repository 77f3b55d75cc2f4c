package fluid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTherminolProperties(t *testing.T) {
	fluid := NewTherminol()
	// 21 °C 设计工况
	assert.InDelta(t, 1060.15, fluid.Density(21), 1e-9)
	assert.InEpsilon(t, 0.0049719215602, fluid.Viscosity(21), 1e-8)
	assert.InDelta(t, 1577.22, fluid.HeatCapacity(21), 1e-9)
	assert.InDelta(t, 0.13864, fluid.ThermalConductivity(21), 1e-12)
	assert.InDelta(t, fluid.Viscosity(21)/fluid.Density(21), fluid.KinematicViscosity(21), 1e-18)

	// 温度升高密度和粘度下降
	assert.Less(t, fluid.Density(80), fluid.Density(21))
	assert.Less(t, fluid.Viscosity(80), fluid.Viscosity(21))
}

func TestTherminolValidate(t *testing.T) {
	fluid := NewTherminol()
	require.NoError(t, fluid.Validate(21))
	require.NoError(t, fluid.Validate(180))
	require.ErrorIs(t, fluid.Validate(19.9), ErrTemperatureRange)
	require.ErrorIs(t, fluid.Validate(200), ErrTemperatureRange)
}
