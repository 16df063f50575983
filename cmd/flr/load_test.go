package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flr-tracker/internal/storage/memory"
)

func TestPrintLoadSummary(t *testing.T) {
	srv := testServer(t)
	ctx := context.Background()
	store := memory.NewObservationStore()

	counts, err := ingestCSV(ctx, srv.cfg, store, nil)
	require.NoError(t, err)
	assert.Equal(t, 150, counts["SP500"])
	assert.NotContains(t, counts, "WRESBAL")

	var buf bytes.Buffer
	require.NoError(t, printLoadSummary(ctx, srv.cfg, store, counts, &buf))
	out := buf.String()
	assert.Contains(t, out, "SP500          150 observations")
	assert.Contains(t, out, "Stored series: 4")
	assert.Contains(t, out, "  missing WRESBAL")
	assert.NotContains(t, out, "missing SP500")

	// A second load skips stored series and reports nothing new.
	counts, err = ingestCSV(ctx, srv.cfg, store, nil)
	require.NoError(t, err)
	assert.Empty(t, counts)
}
