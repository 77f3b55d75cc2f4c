package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"ciet/catalog"
	"ciet/network"
	"ciet/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
temperature: 40
pump_pressure: 1200
valves:
  dhx: false
solver:
  tolerance: 1.0e-10
  max_iterations: 50
host:
  listen: 0.0.0.0:9000
  interval: 250ms
output:
  html: sweep.html
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(sample))
	require.NoError(t, err)
	assert.Equal(t, 40.0, cfg.Temperature)
	assert.Equal(t, 1200.0, cfg.PumpPressure)
	assert.Equal(t, map[string]bool{types.BranchDHX: false}, cfg.Valves)
	assert.Equal(t, 1e-10, cfg.Solver.Tolerance)
	assert.Equal(t, 50, cfg.Solver.MaxIterations)
	assert.Equal(t, types.PressureBracket, cfg.Solver.PressureBracket)
	assert.Equal(t, 250*time.Millisecond, cfg.Host.Interval)
	assert.Equal(t, "0.0.0.0:9000", cfg.Host.Listen)
	assert.Equal(t, "sweep.html", cfg.Output.HTML)

	in := cfg.Input()
	assert.Equal(t, 1200.0, in.PumpPressure)
	assert.False(t, in.Valves.IsOpen(types.BranchDHX))
	assert.True(t, in.Valves.IsOpen(types.BranchCTAH))
}

func TestParseInvalid(t *testing.T) {
	for _, data := range []string{
		"temperature: 5",
		"temperature: 500",
		"solver: {tolerance: 0}",
		"solver: {max_iterations: 0}",
		"host: {listen: nowhere}",
		"host: {interval: 0s}",
		"temperature: [",
	} {
		_, err := Parse([]byte(data))
		assert.ErrorIs(t, err, ErrConfig, data)
	}
}

func TestDefaultRoundTrip(t *testing.T) {
	data, err := Default().Marshal()
	require.NoError(t, err)
	cfg, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestApply(t *testing.T) {
	cfg := Default()
	cfg.Solver.MaxIterations = 40
	cfg.Solver.PressureBracket = 20000
	cfg.Solver.FlowBracket = 2
	net, err := catalog.NewCIET(nil)
	require.NoError(t, err)
	cfg.Apply(net)
	assert.Equal(t, 40, net.Convergency.MaxIter)
	assert.Equal(t, 20000.0, net.PressureBracket)
	for _, branch := range net.Branches {
		assert.Equal(t, 40, branch.Convergency.MaxIter)
		assert.Equal(t, 2.0, branch.FlowBracket)
	}
	res, err := net.Solve(cfg.Input())
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.Flow(types.BranchDHX))
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWatch(t *testing.T) {
	Debounce = 10 * time.Millisecond
	path := filepath.Join(t.TempDir(), "ciet.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pump_pressure: 0\n"), 0o644))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	changes := make(chan *Config, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, nil, func(cfg *Config) { changes <- cfg })
	}()

	// 等待监视建立后写入
	var got *Config
	for got == nil {
		require.NoError(t, os.WriteFile(path, []byte("pump_pressure: 750\n"), 0o644))
		select {
		case got = <-changes:
		case <-time.After(200 * time.Millisecond):
		case <-ctx.Done():
			t.Fatal("配置变化未触发回调")
		}
	}
	assert.Equal(t, 750.0, got.PumpPressure)
	assert.Equal(t, network.Input{PumpPressure: 750, Temperature: types.DefaultTemperature, Valves: got.Input().Valves}, got.Input())

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
