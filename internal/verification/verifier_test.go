package verification

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"flr-tracker/internal/config"
	"flr-tracker/internal/domain"
	"flr-tracker/internal/pipeline"
	"flr-tracker/internal/storage/memory"
)

var baseTs = time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC).UnixMilli()

func testRecord() *domain.RunRecord {
	return &domain.RunRecord{
		RunID:          "run1",
		SeriesID:       "SP500",
		GeneratedAt:    1000,
		FirstTs:        baseTs,
		LastTs:         baseTs + 199*domain.DayMs,
		Points:         200,
		Composite:      48.25,
		RegimeStatus:   "TRANSITION",
		Signal:         "CAUTION",
		CSDStatus:      "NORMAL",
		CurrentAR1:     0.42,
		KendallTau:     0.1,
		IsBubble:       false,
		LPPLConfidence: 0,
	}
}

func TestCompareRunRecords_ExactMatch(t *testing.T) {
	stored := testRecord()
	replayed := testRecord()
	replayed.GeneratedAt = 2000
	replayed.Document = []byte("{}")

	divergences := CompareRunRecords(stored, replayed)

	if len(divergences) != 0 {
		t.Errorf("Expected 0 divergences, got %d: %v", len(divergences), divergences)
	}
}

func TestCompareRunRecords_CompositeDivergence(t *testing.T) {
	stored := testRecord()
	replayed := testRecord()
	replayed.Composite = 51.0

	divergences := CompareRunRecords(stored, replayed)

	if len(divergences) != 1 {
		t.Fatalf("Expected 1 divergence, got %d", len(divergences))
	}
	if divergences[0].Field != "Composite" {
		t.Errorf("Expected Composite divergence, got %s", divergences[0].Field)
	}
}

func TestCompareRunRecords_StatusDivergence(t *testing.T) {
	stored := testRecord()
	replayed := testRecord()
	replayed.CSDStatus = "CRITICAL"
	replayed.IsBubble = true

	divergences := CompareRunRecords(stored, replayed)

	fields := make(map[string]bool)
	for _, d := range divergences {
		fields[d.Field] = true
	}
	if !fields["CSDStatus"] || !fields["IsBubble"] {
		t.Errorf("Expected CSDStatus and IsBubble divergences, got %v", divergences)
	}
}

func TestCompareRunRecords_WithinTolerance(t *testing.T) {
	stored := testRecord()
	replayed := testRecord()
	replayed.CurrentAR1 = stored.CurrentAR1 + FloatTolerance/2

	if divergences := CompareRunRecords(stored, replayed); len(divergences) != 0 {
		t.Errorf("Expected 0 divergences within tolerance, got %v", divergences)
	}
}

func TestFloatEquals(t *testing.T) {
	tests := []struct {
		a, b     float64
		expected bool
	}{
		{1.0, 1.0, true},
		{1.0, 1.0 + FloatTolerance/2, true},
		{1.0, 1.0 + FloatTolerance*2, false},
		{math.NaN(), math.NaN(), true},
		{math.NaN(), 0, false},
		{0, math.NaN(), false},
	}

	for _, tt := range tests {
		if got := floatEquals(tt.a, tt.b); got != tt.expected {
			t.Errorf("floatEquals(%v, %v) = %v, expected %v", tt.a, tt.b, got, tt.expected)
		}
	}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Default()
	if err != nil {
		t.Fatal(err)
	}
	cfg.Analysis.Bandwidth = 10
	cfg.Analysis.Window = 50
	cfg.Analysis.TauLookback = 20
	cfg.Analysis.LPPLLookback = 200
	cfg.Analysis.LPPLMinPoints = 100
	cfg.Output.Dir = t.TempDir()
	return cfg
}

func seed(t *testing.T, store *memory.ObservationStore, from, to int) {
	t.Helper()
	var obs []*domain.Observation
	for i := from; i < to; i++ {
		ts := baseTs + int64(i)*domain.DayMs
		price := 1000 * math.Exp(0.0005*float64(i)) * (1 + 0.01*math.Sin(float64(i)/3))
		obs = append(obs,
			&domain.Observation{SeriesID: "SP500", TimestampMs: ts, Value: price},
			&domain.Observation{SeriesID: "RRPONTSYD", TimestampMs: ts, Value: 500},
		)
		if i%7 == 0 {
			obs = append(obs,
				&domain.Observation{SeriesID: "WALCL", TimestampMs: ts, Value: 7_000_000},
				&domain.Observation{SeriesID: "WTREGEN", TimestampMs: ts, Value: 700_000},
			)
		}
	}
	if err := store.InsertBulk(context.Background(), obs); err != nil {
		t.Fatal(err)
	}
}

func TestReplayVerifier_VerifyRun_Match(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	obs := memory.NewObservationStore()
	runs := memory.NewRunStore()
	seed(t, obs, 0, 250)

	out, err := pipeline.New(obs, cfg).WithRunStore(runs).Run(ctx)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	v := NewReplayVerifier(runs, pipeline.New(obs, cfg))
	result, err := v.VerifyRun(ctx, out.RunID)
	if err != nil {
		t.Fatalf("VerifyRun failed: %v", err)
	}

	if !result.Match {
		t.Errorf("Expected match, got divergences: %v", result.Divergences)
	}
	if result.ReplayedRunID != out.RunID {
		t.Errorf("Expected replayed run ID %s, got %s", out.RunID, result.ReplayedRunID)
	}
	if result.StoredRegime != out.Result.Regime.Status {
		t.Errorf("Expected stored regime %s, got %s", out.Result.Regime.Status, result.StoredRegime)
	}
}

func clockAt(day int) func() time.Time {
	return func() time.Time { return time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC) }
}

func TestReplayVerifier_OlderRunAfterNewData(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	obs := memory.NewObservationStore()
	runs := memory.NewRunStore()
	seed(t, obs, 0, 250)

	first, err := pipeline.New(obs, cfg).WithRunStore(runs).WithClock(clockAt(1)).Run(ctx)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// A new day arrives and a second run is recorded.
	seed(t, obs, 250, 251)
	second, err := pipeline.New(obs, cfg).WithRunStore(runs).WithClock(clockAt(2)).Run(ctx)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if first.RunID == second.RunID {
		t.Fatal("expected distinct run IDs")
	}

	v := NewReplayVerifier(runs, pipeline.New(obs, cfg))

	result, err := v.VerifyRun(ctx, first.RunID)
	if err != nil {
		t.Fatalf("VerifyRun failed: %v", err)
	}
	if !result.Match {
		t.Errorf("older run diverges: %v", result.Divergences)
	}

	result, err = v.VerifyLatest(ctx, "SP500")
	if err != nil {
		t.Fatalf("VerifyLatest failed: %v", err)
	}
	if result.RunID != second.RunID || !result.Match {
		t.Errorf("latest = %s match=%v, want %s matching: %v", result.RunID, result.Match, second.RunID, result.Divergences)
	}
}

func TestReplayVerifier_DataChangedInRange(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	obs := memory.NewObservationStore()
	runs := memory.NewRunStore()
	seed(t, obs, 0, 250)

	out, err := pipeline.New(obs, cfg).WithRunStore(runs).Run(ctx)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// Same dates, one revised price inside the stored range.
	revised := memory.NewObservationStore()
	seed(t, revised, 0, 100)
	ts := baseTs + 100*domain.DayMs
	if err := revised.InsertBulk(ctx, []*domain.Observation{
		{SeriesID: "SP500", TimestampMs: ts, Value: 5000},
		{SeriesID: "RRPONTSYD", TimestampMs: ts, Value: 500},
	}); err != nil {
		t.Fatal(err)
	}
	seed(t, revised, 101, 250)

	result, err := NewReplayVerifier(runs, pipeline.New(revised, cfg)).VerifyRun(ctx, out.RunID)
	if err != nil {
		t.Fatalf("VerifyRun failed: %v", err)
	}
	if result.Match {
		t.Fatal("Expected divergence after a revised price")
	}
	fields := make(map[string]bool)
	for _, d := range result.Divergences {
		fields[d.Field] = true
	}
	if !fields["RunID"] {
		t.Errorf("Expected RunID divergence, got %v", result.Divergences)
	}
	if fields["Points"] || fields["FirstTs"] || fields["LastTs"] {
		t.Errorf("date range should match, got %v", result.Divergences)
	}
}

func TestReplayVerifier_RunNotFound(t *testing.T) {
	ctx := context.Background()
	v := NewReplayVerifier(memory.NewRunStore(), pipeline.New(memory.NewObservationStore(), testConfig(t)))

	if _, err := v.VerifyRun(ctx, "missing"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Expected ErrRunNotFound, got %v", err)
	}
	if _, err := v.VerifyLatest(ctx, "SP500"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Expected ErrRunNotFound, got %v", err)
	}
}
