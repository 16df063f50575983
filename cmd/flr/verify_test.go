package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flr-tracker/internal/pipeline"
	"flr-tracker/internal/storage/memory"
	"flr-tracker/internal/verification"
)

func TestVerifyStored_MatchAndDivergence(t *testing.T) {
	srv := testServer(t)
	ctx := context.Background()

	obs := memory.NewObservationStore()
	_, err := ingestCSV(ctx, srv.cfg, obs, nil)
	require.NoError(t, err)
	st := &stores{observations: obs, runs: memory.NewRunStore(), memory: true}

	out, err := pipeline.New(obs, srv.cfg).WithRunStore(st.runs).Run(ctx)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, verifyStored(ctx, srv.cfg, st, out.RunID, &buf))
	assert.Contains(t, buf.String(), "OK")

	// Revised prices inside the stored range no longer reproduce the run.
	writeSeries(t, srv.cfg.Series.CSVDir, "SP500", 151, 1, func(i int) float64 { return 4000 + float64(i) })
	longer := memory.NewObservationStore()
	_, err = ingestCSV(ctx, srv.cfg, longer, nil)
	require.NoError(t, err)
	st.observations = longer

	buf.Reset()
	err = verifyStored(ctx, srv.cfg, st, "", &buf)
	assert.ErrorIs(t, err, errDiverged)
	assert.Contains(t, buf.String(), "RunID")
	assert.NotContains(t, buf.String(), "Points")
}

func TestVerifyStored_UnknownRun(t *testing.T) {
	srv := testServer(t)
	err := verifyStored(context.Background(), srv.cfg, srv.stores, "missing", &bytes.Buffer{})
	assert.True(t, errors.Is(err, verification.ErrRunNotFound))
}
