package ciet

import (
	"bytes"
	"ciet/catalog"
	"ciet/element"
	"ciet/network"
	"ciet/types"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ciet.net")
	require.NoError(t, NewCIETLoop().Export(path))

	loop := NewLoop()
	require.NoError(t, loop.Load(path))
	assert.Equal(t, catalog.Branches(), loop.Branches)

	net, err := loop.Network(nil)
	require.NoError(t, err)
	want, err := catalog.NewCIET(nil)
	require.NoError(t, err)
	in := network.Input{PumpPressure: 500, Temperature: 21}
	got, err := net.Solve(in)
	require.NoError(t, err)
	res, err := want.Solve(in)
	require.NoError(t, err)
	assert.Equal(t, res.Flows, got.Flows)
}

const small = `
# 两分支测试回路
.branch up reference
.branch down checkvalve
up   p1   pipe   0.0279 1.0 90  1.5e-5 K=1.5   # 竖直上升
up   pump custom 0.0279 0.3 0   1.5e-5 pump
down p2   pipe   0.0279 1.0 -90 1.5e-5 K=2
down h1   custom 0.0066 0.5 0   1.5e-5 area=3.64e-4 k=const(3.75) darcy=churchill
`

func TestLoadReader(t *testing.T) {
	loop := NewLoop()
	require.NoError(t, loop.LoadReader(strings.NewReader(small)))
	require.Len(t, loop.Branches, 2)
	up, down := loop.Branches[0], loop.Branches[1]
	assert.True(t, up.Reference)
	assert.True(t, down.CheckValve)
	require.Len(t, up.Components, 2)
	assert.Equal(t, element.Pipe("p1", 0.0279, 1, 90, 1.5e-5, 1.5), up.Components[0])
	assert.True(t, up.Components[1].Pump)
	assert.Equal(t, 3.64e-4, down.Components[1].Area)
	assert.Equal(t, "churchill(1)", down.Components[1].Darcy.String())

	var buf bytes.Buffer
	require.NoError(t, loop.Write(&buf))
	again := NewLoop()
	require.NoError(t, again.LoadReader(&buf))
	assert.Equal(t, loop.Branches, again.Branches)

	net, err := loop.Network(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, net.Reference)
	assert.GreaterOrEqual(t, net.Pump, 0)
}

func TestNetworkReference(t *testing.T) {
	for _, netlist := range []string{
		strings.Replace(small, ".branch up reference", ".branch up", 1),
		strings.Replace(small, ".branch down checkvalve", ".branch down checkvalve reference", 1),
	} {
		loop := NewLoop()
		require.NoError(t, loop.LoadReader(strings.NewReader(netlist)))
		_, err := loop.Network(nil)
		assert.ErrorIs(t, err, network.ErrReference)
	}
}

func TestLoadErrors(t *testing.T) {
	for _, line := range []string{
		".loop x",
		".branch",
		".branch a valve",
		"a p1 pipe 0.0279 1.0",
		"a p1 elbow 0.0279 1 0 0",
		"a p1 pipe 0.0279 x 0 0",
		"a p1 pipe 0.0279 1 0 0 K=-1",
		"a p1 pipe 0.0279 1 0 0 bend=3",
		"a p1 custom 0.0279 1 0 0 k=poly(1)",
		"a p1 pipe 0.0279 1 0 0 area=big",
	} {
		err := NewLoop().LoadReader(strings.NewReader(line))
		assert.ErrorIs(t, err, ErrLoad, line)
	}
}

func TestNetworkNames(t *testing.T) {
	net, err := NewCIETLoop().Network(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{types.BranchCTAH, types.BranchHeater, types.BranchDHX}, net.Names())
}
