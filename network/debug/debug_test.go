package debug

import (
	"bytes"
	"ciet/catalog"
	"ciet/network"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sweep(t *testing.T, d network.Debug) *network.Network {
	t.Helper()
	net, err := catalog.NewCIET(nil)
	require.NoError(t, err)
	net.SetDebugger(d)
	for _, pump := range []float64{1000, -1000, 0, 500, -500} {
		_, err := net.Solve(network.Input{PumpPressure: pump, Temperature: 21})
		require.NoError(t, err)
	}
	return net
}

func TestRecord(t *testing.T) {
	record := &Record{}
	sweep(t, record)
	entries := record.Snapshot()
	require.Len(t, entries, 5)
	assert.Equal(t, []string{"ctah", "heater", "dhx"}, record.Names)
	assert.Equal(t, 1000.0, entries[0].PumpPressure)
	assert.Greater(t, entries[0].Flows["ctah"], 0.0)
	assert.True(t, entries[0].Valves["dhx"])
	assert.NotEqual(t, entries[0].RunID, entries[1].RunID)

	record.Error(errors.New("测试错误"))
	var buf bytes.Buffer
	require.NoError(t, record.Render(&buf))
	var decoded struct {
		Names   []string
		Entries []Entry
		Errors  []string
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Len(t, decoded.Entries, 5)
	assert.Equal(t, []string{"测试错误"}, decoded.Errors)
}

func TestCharts(t *testing.T) {
	chart := &Charts{}
	sweep(t, chart)
	var buf bytes.Buffer
	require.NoError(t, chart.Render(&buf))
	html := buf.String()
	assert.True(t, strings.Contains(html, "echarts"))
	assert.Contains(t, html, "分支流量")
	assert.Contains(t, html, "heater")
}

func TestPlot(t *testing.T) {
	img := &Plot{}
	sweep(t, img)
	var buf bytes.Buffer
	require.NoError(t, img.Render(&buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")))

	img.Format = "svg"
	buf.Reset()
	require.NoError(t, img.Render(&buf))
	assert.Contains(t, buf.String(), "<svg")

	path := filepath.Join(t.TempDir(), "sweep.png")
	require.NoError(t, img.Save(path))
	assert.FileExists(t, path)
}

func TestRecordLimit(t *testing.T) {
	record := &Record{Limit: 2}
	sweep(t, record)
	entries := record.Snapshot()
	require.Len(t, entries, 2)
	assert.Equal(t, 500.0, entries[0].PumpPressure)
	assert.Equal(t, -500.0, entries[1].PumpPressure)
}
