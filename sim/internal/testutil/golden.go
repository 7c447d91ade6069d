// Package testutil provides shared test infrastructure for the simulator.
// It consolidates deterministic eviction policies, the golden scenario
// dataset and assertion helpers used across sim/ and its sub-packages.
package testutil

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// GoldenDataset represents the structure of testdata/golden_scenarios.json.
type GoldenDataset struct {
	Tests []GoldenTestCase `json:"tests"`
}

// GoldenTestCase is a group scenario driven by a deterministic policy whose
// outcome was derived by hand.
type GoldenTestCase struct {
	Name       string        `json:"name"`
	Policy     string        `json:"policy"` // a name accepted by DeterministicPolicy
	Capacity   int           `json:"capacity"`
	Spies      int           `json:"spies"`
	Interval   int64         `json:"interval"`
	Key        string        `json:"key"`
	Iterations int           `json:"iterations"`
	Expected   GoldenOutcome `json:"expected"`
}

// GoldenOutcome is the expected result of a golden test case.
type GoldenOutcome struct {
	Partial   string `json:"partial"` // compact form, same for every iteration
	Final     string `json:"final"`
	Conflicts int    `json:"conflicts"`
	Unknown   int    `json:"unknown"`
	Wrong     int    `json:"wrong"`
	Ticks     int64  `json:"ticks"` // clock value when the victim finished
}

// LoadGoldenDataset loads the golden dataset from the testdata directory.
// The path is resolved relative to this source file: sim/internal/testutil/ → testdata/.
func LoadGoldenDataset(t *testing.T) *GoldenDataset {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get current file path")
	}
	path := filepath.Join(filepath.Dir(thisFile), "..", "..", "..", "testdata", "golden_scenarios.json")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read golden dataset: %v", err)
	}

	var dataset GoldenDataset
	if err := json.Unmarshal(data, &dataset); err != nil {
		t.Fatalf("Failed to parse golden dataset: %v", err)
	}

	return &dataset
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}
