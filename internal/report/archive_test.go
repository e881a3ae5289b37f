package report_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kode4food/streamtest/internal/report"
)

func TestArchive(t *testing.T) {
	ctx := context.Background()

	a, err := report.OpenArchive(ctx, "mem://", "runs/")
	require.NoError(t, err)
	defer func() { _ = a.Close() }()

	t.Run("Get returns not found for missing run", func(t *testing.T) {
		_, err := a.Get(ctx, "missing")
		assert.ErrorIs(t, err, report.ErrRunNotFound)
	})

	t.Run("Put and Get round-trip", func(t *testing.T) {
		require.NoError(t, a.Put(ctx, "run-1", sampleResults()))

		got, err := a.Get(ctx, "run-1")
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "values", got[0].Name)
		assert.True(t, got[0].Passed)
		assert.False(t, got[1].Passed)
		assert.Len(t, got[1].Error, 200)
		assert.Nil(t, got[1].Err)
	})

	t.Run("Delete removes run", func(t *testing.T) {
		require.NoError(t, a.Delete(ctx, "run-1"))
		_, err := a.Get(ctx, "run-1")
		assert.ErrorIs(t, err, report.ErrRunNotFound)
		assert.NoError(t, a.Delete(ctx, "run-1"))
	})
}

func TestArchiveFileBucket(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	a, err := report.OpenArchive(ctx, "file://"+dir, "")
	require.NoError(t, err)
	require.NoError(t, a.Put(ctx, "local", sampleResults()[:1]))
	require.NoError(t, a.Close())

	b, err := report.OpenArchive(ctx, "file://"+dir, "")
	require.NoError(t, err)
	defer func() { _ = b.Close() }()
	got, err := b.Get(ctx, "local")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a.yaml", got[0].File)
}

func TestOpenArchiveBadURL(t *testing.T) {
	_, err := report.OpenArchive(context.Background(), "nope://x", "")
	assert.Error(t, err)
}
