package domain

// RunRecord is the persisted summary of one pipeline run.
// Corresponds to the analysis_runs table in PostgreSQL.
type RunRecord struct {
	RunID       string // deterministic hash of input and parameters
	SeriesID    string
	GeneratedAt int64 // Unix ms
	FirstTs     int64 // first timeline timestamp, Unix ms
	LastTs      int64 // last timeline timestamp, Unix ms
	Points      int

	Composite    float64
	RegimeStatus string
	Signal       string

	CSDStatus  string
	CurrentAR1 float64
	KendallTau float64

	IsBubble       bool
	LPPLConfidence int

	Document []byte // rendered JSON document
}
