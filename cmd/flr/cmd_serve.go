package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"flr-tracker/internal/config"
	"flr-tracker/internal/observability"
	"flr-tracker/internal/pipeline"
	"flr-tracker/internal/storage"
	"flr-tracker/internal/storage/memory"
)

// serveCmd implements 'flr serve'
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the pipeline on an interval and serve the latest report",
	Long: `Run the pipeline immediately and then every server.interval. Serves:
  /metrics                 Prometheus metrics
  /healthz                 liveness
  /api/v1/report/latest    latest flr-data.json document
  /status                  scheduler state`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	st, cleanup, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := observability.NewMetrics("flr", reg)

	srv := newServer(cfg, st, m, reg, logger)
	return srv.Run(ctx)
}

// Server runs the scheduled pipeline and the HTTP endpoints.
type Server struct {
	cfg      *config.Config
	stores   *stores
	metrics  *observability.Metrics
	gatherer prometheus.Gatherer
	logger   zerolog.Logger

	mu              sync.Mutex
	started         time.Time
	lastRun         time.Time
	lastErr         string
	lastDoc         []byte
	pipelineRunning bool
	pipelineRuns    int
}

func newServer(c *config.Config, st *stores, m *observability.Metrics, g prometheus.Gatherer, log zerolog.Logger) *Server {
	return &Server{
		cfg:      c,
		stores:   st,
		metrics:  m,
		gatherer: g,
		logger:   log,
		started:  time.Now().UTC(),
	}
}

// Run starts the HTTP server and the scheduler and blocks until ctx is done
// or the HTTP server fails. The scheduler has stopped when Run returns.
func (s *Server) Run(ctx context.Context) error {
	httpSrv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s.serve(ctx, httpSrv.ListenAndServe, httpSrv.Shutdown)
}

// serve runs listen next to the scheduler. Both exit paths cancel the
// scheduler and wait for it, so no pipeline run outlives the stores.
func (s *Server) serve(ctx context.Context, listen func() error, shutdown func(context.Context) error) error {
	schedCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.cfg.Server.Addr).Msg("starting HTTP server")
		if err := listen(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	schedErr := make(chan error, 1)
	go func() { schedErr <- s.runScheduler(schedCtx) }()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
		s.logger.Error().Err(runErr).Msg("HTTP server error")
	}

	s.logger.Info().Msg("shutting down")
	cancel()
	shutdownCtx, stop := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer stop()
	if err := shutdown(shutdownCtx); err != nil {
		s.logger.Warn().Err(err).Msg("HTTP shutdown")
	}

	<-schedErr
	return runErr
}

func (s *Server) runScheduler(ctx context.Context) error {
	s.logger.Info().Dur("interval", s.cfg.Server.Interval).Msg("starting pipeline scheduler")

	// Run immediately on start
	s.runPipeline(ctx)

	ticker := time.NewTicker(s.cfg.Server.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.runPipeline(ctx)
		}
	}
}

// runPipeline executes one pipeline run unless one is already in progress.
func (s *Server) runPipeline(ctx context.Context) {
	s.mu.Lock()
	if s.pipelineRunning {
		s.mu.Unlock()
		s.logger.Warn().Msg("pipeline already running, skipping")
		return
	}
	s.pipelineRunning = true
	s.mu.Unlock()

	var (
		doc    []byte
		errMsg string
	)
	defer func() {
		s.mu.Lock()
		s.pipelineRunning = false
		s.lastRun = time.Now().UTC()
		s.pipelineRuns++
		s.lastErr = errMsg
		if doc != nil {
			s.lastDoc = doc
		}
		s.mu.Unlock()
	}()

	// The memory backend reloads the CSV files into a fresh store each run.
	observations := s.stores.observations
	if s.stores.memory {
		observations = memory.NewObservationStore()
		if _, err := ingestCSV(ctx, s.cfg, observations, s.metrics); err != nil {
			errMsg = err.Error()
			s.logger.Error().Err(err).Msg("ingestion failed")
			return
		}
	}

	out, err := pipeline.New(observations, s.cfg).
		WithRunStore(s.stores.runs).
		WithMetrics(s.metrics).
		WithLogger(s.logger).
		Run(ctx)
	if err != nil {
		errMsg = err.Error()
		s.logger.Error().Err(err).Msg("pipeline failed")
		return
	}
	doc = out.JSON
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", observability.HandlerFor(s.gatherer))
	mux.HandleFunc("/api/v1/report/latest", s.handleLatest)
	mux.HandleFunc("/status", s.handleStatus)

	return mux
}

// handleLatest serves the most recent document: the stored run record first,
// then the last in-process result.
func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var doc []byte
	rec, err := s.stores.runs.GetLatest(r.Context(), s.cfg.Series.Price)
	switch {
	case err == nil:
		doc = rec.Document
	case errors.Is(err, storage.ErrNotFound):
	default:
		s.logger.Warn().Err(err).Msg("load latest run")
	}

	if len(doc) == 0 {
		s.mu.Lock()
		doc = s.lastDoc
		s.mu.Unlock()
	}
	if len(doc) == 0 {
		http.Error(w, "no report available yet", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(doc)
}

// StatusResponse is the JSON response for /status endpoint.
type StatusResponse struct {
	Status          string    `json:"status"`
	Uptime          string    `json:"uptime"`
	Backend         string    `json:"backend"`
	LastPipelineRun time.Time `json:"last_pipeline_run,omitempty"`
	LastError       string    `json:"last_error,omitempty"`
	PipelineRuns    int       `json:"pipeline_runs"`
	PipelineRunning bool      `json:"pipeline_running"`
}

// handleStatus returns server status as JSON.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	resp := StatusResponse{
		Status:          "running",
		Uptime:          time.Since(s.started).Round(time.Second).String(),
		Backend:         s.cfg.Storage.Backend,
		LastPipelineRun: s.lastRun,
		LastError:       s.lastErr,
		PipelineRuns:    s.pipelineRuns,
		PipelineRunning: s.pipelineRunning,
	}
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Warn().Err(err).Msg("encode status")
	}
}
