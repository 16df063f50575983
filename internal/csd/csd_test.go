package csd

import (
	"math"
	"math/rand"
	"testing"

	"flr-tracker/internal/domain"
)

func constantSeries(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func randomWalk(n int, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	v := 1000.0
	for i := range out {
		v += rng.NormFloat64() * 5
		out[i] = v
	}
	return out
}

func arProcess(n int, phi float64, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	for i := 1; i < n; i++ {
		out[i] = phi*out[i-1] + rng.NormFloat64()
	}
	return out
}

func TestDetrend_ConstantSeriesZeroResiduals(t *testing.T) {
	values := constantSeries(400, 4321.5)
	trend, residuals := Detrend(values, DefaultBandwidth, 4)

	for i := range values {
		if residuals[i] != 0 {
			t.Fatalf("residual[%d] = %v, want exactly 0", i, residuals[i])
		}
		if trend[i] != values[i] {
			t.Fatalf("trend[%d] = %v, want %v", i, trend[i], values[i])
		}
	}
}

func TestDetrend_LinearInteriorIsTrend(t *testing.T) {
	n := 1001
	values := make([]float64, n)
	for i := range values {
		values[i] = 100 + 0.5*float64(i)
	}
	_, residuals := Detrend(values, 50, 0)

	// Symmetric weights reproduce a line far from the edges.
	if r := residuals[n/2]; math.Abs(r) > 1e-6 {
		t.Errorf("interior residual = %v, want ~0", r)
	}
}

func TestDetrend_WorkerCountDeterministic(t *testing.T) {
	values := randomWalk(600, 7)
	trend1, res1 := Detrend(values, 50, 1)
	trend8, res8 := Detrend(values, 50, 8)

	for i := range values {
		if trend1[i] != trend8[i] || res1[i] != res8[i] {
			t.Fatalf("index %d differs across worker counts", i)
		}
	}
}

func TestDetrend_Empty(t *testing.T) {
	trend, residuals := Detrend(nil, 50, 2)
	if len(trend) != 0 || len(residuals) != 0 {
		t.Errorf("expected empty output, got %d/%d", len(trend), len(residuals))
	}
}

func TestRollingAR1_ZeroVarianceUndefined(t *testing.T) {
	ar1 := RollingAR1(make([]float64, 600), 250)
	if ar1.Count() != 0 {
		t.Errorf("expected no defined AR(1) values, got %d", ar1.Count())
	}
	if _, ok := ar1.Latest(); ok {
		t.Error("Latest should report undefined")
	}
}

func TestRollingAR1_DefinedFromWindowPlusOne(t *testing.T) {
	residuals := arProcess(400, 0.5, 3)
	window := 50
	ar1 := RollingAR1(residuals, window)

	for i := 0; i <= window; i++ {
		if _, ok := ar1.At(i); ok {
			t.Fatalf("index %d should be undefined", i)
		}
	}
	for i := window + 1; i < len(residuals); i++ {
		if _, ok := ar1.At(i); !ok {
			t.Fatalf("index %d should be defined", i)
		}
	}
}

func TestRollingAR1_ClampedToUnitInterval(t *testing.T) {
	// Alternating residuals are perfectly anti-correlated at lag 1.
	residuals := make([]float64, 300)
	for i := range residuals {
		if i%2 == 0 {
			residuals[i] = 1
		} else {
			residuals[i] = -1
		}
	}
	ar1 := RollingAR1(residuals, 100)

	v, ok := ar1.Latest()
	if !ok {
		t.Fatal("expected a defined AR(1) value")
	}
	if v < -1 || v > 1 {
		t.Errorf("AR(1) = %v outside [-1, 1]", v)
	}
	if math.Abs(v+1) > 1e-9 {
		t.Errorf("AR(1) = %v, want -1", v)
	}

	for _, v := range RollingAR1(randomWalk(500, 11), 60).DefinedValues() {
		if v < -1 || v > 1 {
			t.Fatalf("AR(1) = %v outside [-1, 1]", v)
		}
	}
}

func TestRollingAR1_RecoversPersistence(t *testing.T) {
	persistent, _ := RollingAR1(arProcess(1000, 0.9, 42), 250).Latest()
	if persistent < 0.7 {
		t.Errorf("AR(1) of phi=0.9 process = %v, want > 0.7", persistent)
	}

	noise, _ := RollingAR1(arProcess(1000, 0, 42), 250).Latest()
	if math.Abs(noise) > 0.3 {
		t.Errorf("AR(1) of white noise = %v, want near 0", noise)
	}
}

func TestRollingAR1_NoLookahead(t *testing.T) {
	residuals := arProcess(400, 0.6, 5)
	last := len(residuals) - 1
	before, _ := RollingAR1(residuals, 100).At(last)

	residuals[last] += 1000
	after, _ := RollingAR1(residuals, 100).At(last)

	if before != after {
		t.Errorf("value at %d changed from %v to %v after editing residual %d", last, before, after, last)
	}
}

func TestRollingVariance(t *testing.T) {
	v := RollingVariance([]float64{1, 2, 3, 4, 10}, 3)

	for i := 0; i < 3; i++ {
		if _, ok := v.At(i); ok {
			t.Errorf("index %d should be undefined", i)
		}
	}
	// var(1,2,3) with n-1 denominator
	if got, ok := v.At(3); !ok || math.Abs(got-1) > 1e-12 {
		t.Errorf("At(3) = %v, %v; want 1, true", got, ok)
	}
	if got, ok := v.At(4); !ok || math.Abs(got-1) > 1e-12 {
		t.Errorf("At(4) = %v, %v; want 1, true", got, ok)
	}
}

func TestKendallTau(t *testing.T) {
	up := make([]float64, 120)
	down := make([]float64, 120)
	for i := range up {
		up[i] = float64(i)
		down[i] = -float64(i)
	}

	tests := []struct {
		name     string
		values   []float64
		lookback int
		want     float64
	}{
		{"increasing", up, 100, 1},
		{"decreasing", down, 100, -1},
		{"constant", constantSeries(100, 0.5), 100, 0},
		{"too short", up[:99], 100, 0},
		{"empty", nil, 100, 0},
		{"mixed", []float64{1, 3, 2}, 3, 1.0 / 3.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := KendallTau(tt.values, tt.lookback)
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("KendallTau() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStatus(t *testing.T) {
	tests := []struct {
		ar1  float64
		want string
	}{
		{0.95, domain.CSDStatusCritical},
		{0.81, domain.CSDStatusCritical},
		{0.8, domain.CSDStatusElevated},
		{0.71, domain.CSDStatusElevated},
		{0.7, domain.CSDStatusRising},
		{0.61, domain.CSDStatusRising},
		{0.6, domain.CSDStatusNormal},
		{0, domain.CSDStatusNormal},
		{-0.9, domain.CSDStatusNormal},
	}

	for _, tt := range tests {
		if got := Status(tt.ar1); got != tt.want {
			t.Errorf("Status(%v) = %s, want %s", tt.ar1, got, tt.want)
		}
	}
}

func TestAnalyze_ShortSeries(t *testing.T) {
	result := Analyze(randomWalk(200, 1), DefaultParams())

	if result.AR1.Count() != 0 {
		t.Errorf("expected no AR(1) values, got %d", result.AR1.Count())
	}
	if result.Report.CurrentAR1 != 0 {
		t.Errorf("CurrentAR1 = %v, want 0", result.Report.CurrentAR1)
	}
	if result.Report.KendallTau != 0 {
		t.Errorf("KendallTau = %v, want 0", result.Report.KendallTau)
	}
	if result.Report.Status != domain.CSDStatusNormal {
		t.Errorf("Status = %s, want NORMAL", result.Report.Status)
	}
}

func TestAnalyze_ConstantSeries(t *testing.T) {
	result := Analyze(constantSeries(700, 50), DefaultParams())

	if result.AR1.Count() != 0 {
		t.Errorf("constant series should leave AR(1) undefined, got %d values", result.AR1.Count())
	}
	if result.Report.Status != domain.CSDStatusNormal {
		t.Errorf("Status = %s, want NORMAL", result.Report.Status)
	}
	if result.Report.CurrentVariance != 0 {
		t.Errorf("CurrentVariance = %v, want 0", result.Report.CurrentVariance)
	}
}

func TestAnalyze_FullSeries(t *testing.T) {
	values := randomWalk(800, 9)
	p := DefaultParams()
	result := Analyze(values, p)

	if len(result.Trend) != len(values) || len(result.Residuals) != len(values) {
		t.Fatalf("series lengths do not match input")
	}
	if got, want := result.AR1.Count(), len(values)-p.Window-1; got != want {
		t.Errorf("defined AR(1) count = %d, want %d", got, want)
	}
	latest, _ := result.AR1.Latest()
	if result.Report.CurrentAR1 != latest {
		t.Errorf("CurrentAR1 = %v, want latest %v", result.Report.CurrentAR1, latest)
	}
	if result.Report.Status != Status(latest) {
		t.Errorf("Status = %s, want %s", result.Report.Status, Status(latest))
	}
	if tau := result.Report.KendallTau; tau < -1 || tau > 1 {
		t.Errorf("KendallTau = %v outside [-1, 1]", tau)
	}
}

func TestParamsValidate(t *testing.T) {
	if err := DefaultParams().Validate(); err != nil {
		t.Fatalf("default params invalid: %v", err)
	}

	bad := []Params{
		{Bandwidth: 0, Window: 250, TauLookback: 100},
		{Bandwidth: 50, Window: 1, TauLookback: 100},
		{Bandwidth: 50, Window: 250, TauLookback: 1},
		{Bandwidth: 50, Window: 250, TauLookback: 100, Workers: -1},
	}
	for _, p := range bad {
		if err := p.Validate(); err == nil {
			t.Errorf("Validate(%+v) expected error", p)
		}
	}
}

func TestClampUnit(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{1 + 1e-12, 1},
		{-1 - 1e-12, -1},
		{1, 1},
		{-1, -1},
		{0.42, 0.42},
		{-0.999999, -0.999999},
	}
	for _, tt := range tests {
		if got := clampUnit(tt.in); got != tt.want {
			t.Errorf("clampUnit(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
