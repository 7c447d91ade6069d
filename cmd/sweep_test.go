package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sim "github.com/sharp-sim/sharp-sim/sim"
)

func TestRunSweep_PrintsOneLinePerNoiseLevel(t *testing.T) {
	// GIVEN a cross-core scenario, exact without noise
	cfg := sim.DefaultScenarioConfig()
	cfg.Variant = sim.VariantCrossCore

	var buf bytes.Buffer
	rows, summary, err := runSweep(&buf, cfg, 0, 30, 10)
	require.NoError(t, err)

	// THEN noise levels 0, 10, 20 ran and the noiseless point is perfect
	require.Len(t, rows, 3)
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "0 --> 6", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "10 --> "))
	assert.True(t, strings.HasPrefix(lines[2], "20 --> "))

	for i, row := range rows {
		assert.Equal(t, i*10, row.Noise)
		assert.Equal(t, 6, row.KeyLen)
		assert.Equal(t, sim.VariantCrossCore, row.Variant)
	}
	assert.Equal(t, 3, summary.Runs)
	assert.Equal(t, 6, summary.MaxCorrect)
}

func TestRunSweep_IsDeterministic(t *testing.T) {
	cfg := sim.DefaultScenarioConfig()
	var a, b bytes.Buffer
	_, _, err := runSweep(&a, cfg, 1, 50, 7)
	require.NoError(t, err)
	_, _, err = runSweep(&b, cfg, 1, 50, 7)
	require.NoError(t, err)
	assert.Equal(t, a.String(), b.String())
}

func TestRunSweep_InvalidRange(t *testing.T) {
	cfg := sim.DefaultScenarioConfig()
	tests := []struct {
		name           string
		from, to, step int
		wantErr        string
	}{
		{"zero step", 1, 10, 0, "step must be > 0"},
		{"empty range", 10, 10, 1, "noise range [10, 10)"},
		{"above 100", 1, 102, 1, "noise range [1, 102)"},
		{"negative start", -1, 10, 1, "noise range [-1, 10)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := runSweep(&bytes.Buffer{}, cfg, tt.from, tt.to, tt.step)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestWriteCSVFile(t *testing.T) {
	cfg := sim.DefaultScenarioConfig()
	rows, _, err := runSweep(&bytes.Buffer{}, cfg, 0, 2, 1)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "sweep.csv")
	require.NoError(t, writeCSVFile(path, rows))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 3, "header plus one line per noise level")
	assert.True(t, strings.HasPrefix(lines[0], "RunID,"))
}

func TestPrintSummary(t *testing.T) {
	cfg := sim.DefaultScenarioConfig()
	cfg.Variant = sim.VariantCrossCore
	_, summary, err := runSweep(&bytes.Buffer{}, cfg, 0, 1, 1)
	require.NoError(t, err)

	var buf bytes.Buffer
	printSummary(&buf, summary)
	assert.Equal(t, "Runs: 1\nCorrect bits: min 6 max 6 of 6\nAccuracy: mean 1.0000 stddev 0.0000\n", buf.String())
}
