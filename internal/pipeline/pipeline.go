// Package pipeline runs one end-to-end analysis: load stored observations,
// build the timeline, run the engine, write the output artifacts and persist
// the run record.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"flr-tracker/internal/audit"
	"flr-tracker/internal/config"
	"flr-tracker/internal/domain"
	"flr-tracker/internal/engine"
	"flr-tracker/internal/idhash"
	"flr-tracker/internal/normalization"
	"flr-tracker/internal/observability"
	"flr-tracker/internal/reporting"
	"flr-tracker/internal/storage"
)

// Audit operation names.
const (
	OpLoadSeries    = "LOAD_SERIES"
	OpBuildTimeline = "BUILD_TIMELINE"
)

// ErrEmptyTimeline is returned when no date has price and liquidity data.
var ErrEmptyTimeline = errors.New("timeline is empty")

// Outcome describes one completed run.
type Outcome struct {
	RunID           string
	Result          *engine.Result
	Document        *reporting.Document
	JSON            []byte
	Files           []string
	AlreadyRecorded bool // run record with the same id already existed
}

// Pipeline wires stores, engine and reporting together.
type Pipeline struct {
	observations storage.ObservationStore
	runs         storage.RunStore // optional
	engineCfg    engine.Config
	series       config.SeriesConfig
	output       config.OutputConfig
	storeName    string
	metrics      *observability.Metrics
	log          zerolog.Logger
	clock        func() time.Time
}

// New creates a pipeline reading observations from obs.
func New(obs storage.ObservationStore, cfg *config.Config) *Pipeline {
	return &Pipeline{
		observations: obs,
		engineCfg:    cfg.Engine(),
		series:       cfg.Series,
		output:       cfg.Output,
		storeName:    cfg.Storage.Backend,
		log:          zerolog.Nop(),
		clock:        func() time.Time { return time.Now().UTC() },
	}
}

// WithRunStore enables run record persistence.
func (p *Pipeline) WithRunStore(runs storage.RunStore) *Pipeline {
	p.runs = runs
	return p
}

// WithMetrics sets the metrics sink.
func (p *Pipeline) WithMetrics(m *observability.Metrics) *Pipeline {
	p.metrics = m
	return p
}

// WithLogger sets the logger.
func (p *Pipeline) WithLogger(log zerolog.Logger) *Pipeline {
	p.log = log
	return p
}

// WithClock sets a custom clock function for deterministic output.
func (p *Pipeline) WithClock(clock func() time.Time) *Pipeline {
	p.clock = clock
	return p
}

// Run executes the pipeline and writes output files:
// - flr-data.json
// - FLR_REPORT.md
// - timeseries.csv
func (p *Pipeline) Run(ctx context.Context) (*Outcome, error) {
	started := time.Now()
	out, err := p.run(ctx)
	status := "success"
	if err != nil {
		status = "error"
	}
	p.metrics.RecordPipelineRun(status, time.Since(started))
	return out, err
}

// Analysis is the in-memory result of the load, timeline and engine steps.
type Analysis struct {
	RunID       string
	Series      domain.PriceSeries
	Rows        []domain.TimelineRow
	Result      *engine.Result
	Sufficiency *SufficiencyResult
	Trail       *audit.Trail
}

// timeRange bounds the observations an analysis reads.
type timeRange struct {
	first, last int64 // price dates, Unix ms, inclusive
}

// Analyze loads the stored observations and runs the engine without writing
// artifacts or persisting a run record.
func (p *Pipeline) Analyze(ctx context.Context) (*Analysis, error) {
	return p.analyze(ctx, nil)
}

// AnalyzeRange is Analyze restricted to price dates in [first, last].
// Liquidity and auxiliary series are read up to last only, so values observed
// before first still forward fill onto the first price dates.
func (p *Pipeline) AnalyzeRange(ctx context.Context, first, last int64) (*Analysis, error) {
	return p.analyze(ctx, &timeRange{first: first, last: last})
}

func (p *Pipeline) analyze(ctx context.Context, r *timeRange) (*Analysis, error) {
	trail := audit.NewTrail().WithClock(p.clock)

	// 1. Load series
	inputs, err := p.loadInputs(ctx, trail, r)
	if err != nil {
		return nil, err
	}

	// 2. Build timeline
	rows, err := normalization.BuildTimeline(inputs)
	if err != nil {
		return nil, fmt.Errorf("build timeline: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyTimeline
	}
	snapshot := normalization.Snapshot(rows, inputs)
	trail.Record(OpBuildTimeline, "forward fill onto price dates", map[string]any{
		"records":       len(rows),
		"start":         domain.DateString(rows[0].TimestampMs),
		"end":           domain.DateString(rows[len(rows)-1].TimestampMs),
		"net_liquidity": snapshot.NetLiquidity,
	})
	p.metrics.RecordTimeline(len(rows), snapshot.NetLiquidity)

	// 3. Analyze
	eng, err := engine.New(p.engineCfg, trail)
	if err != nil {
		return nil, err
	}
	series := normalization.PriceSeries(p.series.Price, rows)
	result, err := eng.Run(series, snapshot)
	if err != nil {
		return nil, fmt.Errorf("analyze %s: %w", series.ID, err)
	}
	p.metrics.RecordAnalysis(result.CSD.Report, result.LPPL, result.Regime)

	// 4. Sufficiency (reported only)
	suff := NewSufficiencyChecker(eng.Config()).Check(rows, snapshot)

	runID := idhash.ComputeRunID(
		series.ID,
		series.Timestamps[0],
		series.Timestamps[series.Len()-1],
		series.Len(),
		eng.Config().Fingerprint(),
		idhash.ComputeDataVersion(series.Values),
	)

	return &Analysis{
		RunID:       runID,
		Series:      series,
		Rows:        rows,
		Result:      result,
		Sufficiency: suff,
		Trail:       trail,
	}, nil
}

// NewRunRecord builds the persisted summary of an analysis.
func NewRunRecord(a *Analysis, generatedAt time.Time, document []byte) *domain.RunRecord {
	r := a.Result
	return &domain.RunRecord{
		RunID:          a.RunID,
		SeriesID:       a.Series.ID,
		GeneratedAt:    generatedAt.UnixMilli(),
		FirstTs:        a.Series.Timestamps[0],
		LastTs:         a.Series.Timestamps[a.Series.Len()-1],
		Points:         a.Series.Len(),
		Composite:      r.Regime.Composite,
		RegimeStatus:   r.Regime.Status,
		Signal:         r.Regime.Signal,
		CSDStatus:      r.CSD.Report.Status,
		CurrentAR1:     r.CSD.Report.CurrentAR1,
		KendallTau:     r.CSD.Report.KendallTau,
		IsBubble:       r.LPPL.IsBubble,
		LPPLConfidence: r.LPPL.Confidence,
		Document:       document,
	}
}

func (p *Pipeline) run(ctx context.Context) (*Outcome, error) {
	a, err := p.Analyze(ctx)
	if err != nil {
		return nil, err
	}

	// 5. Document
	generatedAt := p.clock()
	doc := reporting.NewGenerator(p.output.Version).
		WithClock(func() time.Time { return generatedAt }).
		Generate(reporting.Input{
			RunID:     a.RunID,
			SeriesIDs: p.seriesIDs(),
			Rows:      a.Rows,
			Result:    a.Result,
			Audit:     a.Trail.Entries(),
			Quality:   convertToDataQuality(a.Sufficiency),
		})

	out := &Outcome{RunID: a.RunID, Result: a.Result, Document: doc}
	if err := p.writeFiles(out); err != nil {
		return nil, err
	}

	// 6. Persist
	if p.runs != nil {
		dup, err := p.storeRun(ctx, NewRunRecord(a, generatedAt, out.JSON))
		if err != nil {
			return nil, err
		}
		out.AlreadyRecorded = dup
	}

	p.log.Info().
		Str("run_id", a.RunID).
		Int("records", len(a.Rows)).
		Str("regime", a.Result.Regime.Status).
		Float64("composite", a.Result.Regime.Composite).
		Bool("bubble", a.Result.LPPL.IsBubble).
		Bool("sufficient", a.Sufficiency.AllPass).
		Msg("pipeline run complete")

	return out, nil
}

// loadInputs reads every configured series from the observation store.
func (p *Pipeline) loadInputs(ctx context.Context, trail *audit.Trail, r *timeRange) (normalization.Inputs, error) {
	counts := make(map[string]any)
	load := func(id string) ([]domain.Observation, error) {
		if id == "" {
			return nil, nil
		}
		var (
			obs   []*domain.Observation
			err   error
			op    = "get_by_series"
			start = time.Now()
		)
		switch {
		case r == nil:
			obs, err = p.observations.GetBySeries(ctx, id)
		case id == p.series.Price:
			op = "get_by_time_range"
			obs, err = p.observations.GetByTimeRange(ctx, id, r.first, r.last)
		default:
			op = "get_by_time_range"
			obs, err = p.observations.GetByTimeRange(ctx, id, math.MinInt64, r.last)
		}
		p.metrics.RecordDBQuery(p.storeName, op, time.Since(start), err)
		if err != nil {
			return nil, fmt.Errorf("load series %s: %w", id, err)
		}
		counts[id] = len(obs)
		values := make([]domain.Observation, len(obs))
		for i, o := range obs {
			values[i] = *o
		}
		return values, nil
	}

	var (
		in  normalization.Inputs
		err error
	)
	s := p.series
	targets := []struct {
		id  string
		dst *[]domain.Observation
	}{
		{s.Price, &in.Price},
		{s.BalanceSheet, &in.BalanceSheet},
		{s.TGA, &in.TGA},
		{s.RRP, &in.RRP},
		{s.Reserves, &in.Reserves},
		{s.HighYieldSpread, &in.HighYieldSpread},
		{s.InvestmentSpread, &in.InvestmentSpread},
		{s.FundingSpread, &in.FundingSpread},
	}
	for _, t := range targets {
		if *t.dst, err = load(t.id); err != nil {
			return in, err
		}
	}

	if len(s.Aux) > 0 {
		in.Aux = make(map[string][]domain.Observation, len(s.Aux))
		for name, id := range s.Aux {
			obs, err := load(id)
			if err != nil {
				return in, err
			}
			in.Aux[name] = obs
		}
	}

	details := map[string]any{
		"backend":      p.storeName,
		"observations": counts,
	}
	if r != nil {
		details["start"] = domain.DateString(r.first)
		details["end"] = domain.DateString(r.last)
	}
	trail.Record(OpLoadSeries, "observation store", details)
	return in, nil
}

func (p *Pipeline) writeFiles(out *Outcome) error {
	if err := os.MkdirAll(p.output.Dir, 0755); err != nil {
		return err
	}

	data, err := reporting.RenderJSON(out.Document)
	if err != nil {
		return fmt.Errorf("render json: %w", err)
	}
	out.JSON = data

	csv, err := reporting.RenderTimeseriesCSV(out.Document.Timeseries)
	if err != nil {
		return fmt.Errorf("render csv: %w", err)
	}

	files := []struct {
		name string
		data []byte
	}{
		{p.output.JSON, data},
		{p.output.Markdown, []byte(reporting.RenderMarkdown(out.Document))},
		{p.output.CSV, []byte(csv)},
	}
	for _, f := range files {
		path := filepath.Join(p.output.Dir, f.name)
		if err := os.WriteFile(path, f.data, 0644); err != nil {
			return err
		}
		out.Files = append(out.Files, path)
	}
	return nil
}

// storeRun persists the run record. A duplicate run id reports true.
func (p *Pipeline) storeRun(ctx context.Context, rec *domain.RunRecord) (bool, error) {
	start := time.Now()
	err := p.runs.Insert(ctx, rec)
	duplicate := errors.Is(err, storage.ErrDuplicateKey)
	queryErr := err
	if duplicate {
		queryErr = nil
	}
	p.metrics.RecordDBQuery(p.storeName, "insert_run", time.Since(start), queryErr)
	if duplicate {
		p.log.Debug().Str("run_id", rec.RunID).Msg("run already recorded")
		p.metrics.RecordRunStored(true)
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("store run: %w", err)
	}
	p.metrics.RecordRunStored(false)
	return false, nil
}

func (p *Pipeline) seriesIDs() []string {
	cfg := config.Config{Series: p.series}
	return cfg.SeriesIDs()
}
