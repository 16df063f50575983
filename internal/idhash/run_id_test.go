package idhash

import (
	"testing"
)

func TestComputeRunID_Deterministic(t *testing.T) {
	a := ComputeRunID("SP500", 1000, 2000, 500, "bw=50", "abc")
	b := ComputeRunID("SP500", 1000, 2000, 500, "bw=50", "abc")

	if a != b {
		t.Errorf("expected identical ids, got %s and %s", a, b)
	}
	if len(a) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(a))
	}
}

func TestComputeRunID_Sensitivity(t *testing.T) {
	base := ComputeRunID("SP500", 1000, 2000, 500, "bw=50", "abc")

	variants := map[string]string{
		"series":  ComputeRunID("NDX", 1000, 2000, 500, "bw=50", "abc"),
		"first":   ComputeRunID("SP500", 1001, 2000, 500, "bw=50", "abc"),
		"last":    ComputeRunID("SP500", 1000, 2001, 500, "bw=50", "abc"),
		"points":  ComputeRunID("SP500", 1000, 2000, 501, "bw=50", "abc"),
		"params":  ComputeRunID("SP500", 1000, 2000, 500, "bw=60", "abc"),
		"version": ComputeRunID("SP500", 1000, 2000, 500, "bw=50", "abd"),
	}
	for name, id := range variants {
		if id == base {
			t.Errorf("changing %s did not change the run id", name)
		}
	}
}

func TestComputeDataVersion(t *testing.T) {
	a := ComputeDataVersion([]float64{1, 2, 3})
	if a != ComputeDataVersion([]float64{1, 2, 3}) {
		t.Error("data version not deterministic")
	}
	if a == ComputeDataVersion([]float64{1, 2, 3.0000000001}) {
		t.Error("small value change not detected")
	}
	if a == ComputeDataVersion([]float64{3, 2, 1}) {
		t.Error("reordering not detected")
	}
	if len(ComputeDataVersion(nil)) != 64 {
		t.Error("empty input should still hash to 64 hex chars")
	}
}
