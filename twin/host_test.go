package twin

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ciet/analysis"
	"ciet/catalog"
	"ciet/config"
	"ciet/network"
	"ciet/types"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newHost(t *testing.T, mutate func(*config.Config)) *Host {
	t.Helper()
	cfg := config.Default()
	cfg.Host.Listen = "127.0.0.1:0"
	cfg.Host.Interval = 10 * time.Millisecond
	if mutate != nil {
		mutate(cfg)
	}
	net, err := catalog.NewCIET(nil)
	require.NoError(t, err)
	return NewHost(net, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestVariablesAPI(t *testing.T) {
	host := newHost(t, nil)
	h := host.Handler()

	w := do(t, h, http.MethodPut, "/variables/pump_pressure", `{"value": 500}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = do(t, h, http.MethodPut, "/variables/valves/dhx", `{"open": false}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = do(t, h, http.MethodPut, "/variables/temperature", `{"value": 21}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	in := host.Vars.Input()
	assert.Equal(t, 500.0, in.PumpPressure)
	assert.False(t, in.Valves.IsOpen(types.BranchDHX))
	assert.True(t, in.Valves.IsOpen(types.BranchCTAH))

	w = do(t, h, http.MethodPost, "/solve", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res solveResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.NotEmpty(t, res.RunID)
	assert.InEpsilon(t, 0.0117747036, res.Flows[types.BranchCTAH], 0.01)
	assert.Equal(t, 0.0, res.Flows[types.BranchDHX])

	w = do(t, h, http.MethodGet, "/variables", "")
	require.Equal(t, http.StatusOK, w.Code)
	var snap Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, res.RunID, snap.Outputs.RunID)
	assert.Equal(t, res.Flows, snap.Outputs.Flows)
	assert.Empty(t, snap.Outputs.Error)
	assert.Equal(t, 500.0, snap.Inputs.PumpPressure)
}

func TestVariablesAPIErrors(t *testing.T) {
	host := newHost(t, nil)
	h := host.Handler()

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPut, "/variables/pump_pressure", `{}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPut, "/variables/pump_pressure", `{"value": "x"}`).Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPut, "/variables/valves/primary", `{"open": true}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPut, "/variables/valves/dhx", `{}`).Code)

	// 温度超出物性范围时求解失败并记录错误
	require.Equal(t, http.StatusOK, do(t, h, http.MethodPut, "/variables/temperature", `{"value": 400}`).Code)
	w := do(t, h, http.MethodPost, "/solve", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NotEmpty(t, host.Vars.Snapshot().Outputs.Error)
}

func TestSolveRateLimit(t *testing.T) {
	host := newHost(t, func(cfg *config.Config) {
		cfg.Host.SolveRate = 0.001
		cfg.Host.SolveBurst = 1
	})
	h := host.Handler()
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/solve", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, do(t, h, http.MethodPost, "/solve", "").Code)

	w := do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "ciet_solve_rate_limited_total 1")
	assert.Contains(t, body, `ciet_solves_total{outcome="ok",trigger="demand"} 1`)
	assert.Contains(t, body, `ciet_branch_mass_flow_kg_per_s{branch="ctah"}`)
}

func TestChartAndHealth(t *testing.T) {
	host := newHost(t, nil)
	h := host.Handler()
	_, err := host.Step(context.Background())
	require.NoError(t, err)

	w := do(t, h, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), host.ID)

	w = do(t, h, http.MethodGet, "/chart", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, bytes.Contains(w.Body.Bytes(), []byte("echarts")))
}

func TestApply(t *testing.T) {
	host := newHost(t, nil)
	cfg := config.Default()
	cfg.PumpPressure = 2000
	cfg.Valves[types.BranchHeater] = false
	cfg.Solver.MaxIterations = 40
	require.NoError(t, host.Apply(cfg))
	in := host.Vars.Input()
	assert.Equal(t, 2000.0, in.PumpPressure)
	assert.False(t, in.Valves.IsOpen(types.BranchHeater))
	assert.Equal(t, 40, host.net.Convergency.MaxIter)
}

func TestRun(t *testing.T) {
	host := newHost(t, func(cfg *config.Config) { cfg.PumpPressure = 1000 })
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- host.Run(ctx) }()

	require.Eventually(t, func() bool {
		return host.Vars.Snapshot().Outputs.RunID != ""
	}, 5*time.Second, 10*time.Millisecond)
	snap := host.Vars.Snapshot()
	assert.Greater(t, snap.Outputs.Flows[types.BranchCTAH], 0.0)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("服务未在超时内退出")
	}
}

func TestVariablesValidation(t *testing.T) {
	vars := NewVariables([]string{"a", "b"}, config.Default().Input())
	assert.ErrorIs(t, vars.SetPumpPressure(math.NaN()), ErrValue)
	assert.ErrorIs(t, vars.SetTemperature(math.NaN()), ErrValue)
	assert.ErrorIs(t, vars.SetValve("c", true), ErrBranch)
	require.NoError(t, vars.SetValve("a", false))
	snap := vars.Snapshot()
	assert.Equal(t, map[string]bool{"a": false, "b": true}, snap.Inputs.Valves)
}

func TestDeviation(t *testing.T) {
	host := newHost(t, func(cfg *config.Config) { cfg.PumpPressure = 1000 })
	_, err := host.Step(context.Background())
	require.NoError(t, err)

	dev := host.Vars.Snapshot().Outputs.Deviation
	assert.Equal(t, analysis.ManometerReadingError, dev.Manometer)
	assert.Positive(t, dev.Flowmeter)
	assert.Positive(t, dev.FLDK)
	want := math.Sqrt(dev.Manometer*dev.Manometer + dev.Flowmeter*dev.Flowmeter + dev.FLDK*dev.FLDK)
	assert.InEpsilon(t, want, dev.Total, 1e-9)

	w := do(t, host.Handler(), http.MethodGet, "/variables", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total_pa"`)

	w = do(t, host.Handler(), http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `ciet_loop_pressure_error_pa{source="total"}`)
	assert.Contains(t, w.Body.String(), `ciet_loop_pressure_error_pa{source="manometer"} 14.7`)
}

func TestApplyUnknownValve(t *testing.T) {
	host := newHost(t, nil)
	cfg := config.Default()
	cfg.Valves["ctha"] = false
	assert.ErrorIs(t, host.Apply(cfg), ErrBranch)
	assert.True(t, host.Vars.Input().Valves.IsOpen(types.BranchCTAH))

	vars := NewVariables([]string{"a", "b"}, config.Default().Input())
	assert.ErrorIs(t, vars.SetInput(network.Input{Temperature: 21, Valves: network.Valves{"c": network.Closed}}), ErrBranch)
}
