// Package testutil provides shared assertion and fixture helpers used across
// the sim, sim/stats, sim/replication and cmd test packages.
package testutil

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

// AssertFloat64Equal compares two float64 values with relative tolerance.
// Two NaNs compare equal; a NaN against a number does not.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if math.IsNaN(want) || math.IsNaN(got) {
		if !(math.IsNaN(want) && math.IsNaN(got)) {
			t.Errorf("%s: got %v, want %v", name, got, want)
		}
		return
	}
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}

// AssertNaN fails unless got is NaN.
func AssertNaN(t *testing.T, name string, got float64) {
	t.Helper()
	if !math.IsNaN(got) {
		t.Errorf("%s: got %v, want NaN", name, got)
	}
}

// WriteFile writes contents to name inside a fresh temporary directory and
// returns the full path.
func WriteFile(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}
