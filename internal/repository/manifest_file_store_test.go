package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StratForge/internal/domain/models"
)

func testManifest() *models.Manifest {
	return &models.Manifest{
		Strategy:           "momentum_v1",
		FeatureIDs:         []string{"5m_rsi_fast_low", "5m_rsi_fast_high"},
		TrainingSymbols:    []string{"BTCUSDT"},
		TrainingTimeframes: []string{"5m"},
		CreatedAt:          time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestFileManifestStoreRoundTrip(t *testing.T) {
	store, err := NewFileManifestStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "run-1", testManifest()))

	got, err := store.Load(ctx, "run-1")
	require.NoError(t, err)
	want := testManifest()
	assert.Equal(t, want.Strategy, got.Strategy)
	assert.Equal(t, want.FeatureIDs, got.FeatureIDs)
	assert.Equal(t, want.TrainingSymbols, got.TrainingSymbols)
	assert.Equal(t, want.TrainingTimeframes, got.TrainingTimeframes)
	assert.True(t, got.CreatedAt.Equal(want.CreatedAt))
}

func TestFileManifestStoreWriteOnce(t *testing.T) {
	store, err := NewFileManifestStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "run-1", testManifest()))

	err = store.Save(ctx, "run-1", testManifest())
	require.ErrorIs(t, err, ErrManifestExists)

	// the first manifest survives untouched
	got, err := store.Load(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "momentum_v1", got.Strategy)
}

func TestFileManifestStoreNotFound(t *testing.T) {
	store, err := NewFileManifestStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Load(context.Background(), "nope")
	require.ErrorIs(t, err, ErrManifestNotFound)
}

func TestFileManifestStoreRejectsBadRunIDs(t *testing.T) {
	store, err := NewFileManifestStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	for _, id := range []string{"", "a/b", `a\b`, "..", "x..y"} {
		assert.Error(t, store.Save(ctx, id, testManifest()), "id=%q", id)
		_, err := store.Load(ctx, id)
		assert.Error(t, err, "id=%q", id)
	}
}

func TestFileManifestStoreNoTempLeftovers(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileManifestStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Save(context.Background(), "run-1", testManifest()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "run-1.json", entries[0].Name())
	assert.Equal(t, ".json", filepath.Ext(entries[0].Name()))
}
