package ml

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"accident-severity-api/dataset"
)

func assertSameArtifact(t *testing.T, want, got *Artifact) {
	t.Helper()
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.ModelVersion, got.ModelVersion)
	assert.True(t, want.TrainedAt.Equal(got.TrainedAt))
	assert.Equal(t, want.Columns, got.Columns)
	assert.Equal(t, want.Label.Classes(), got.Label.Classes())
	assert.Equal(t, want.Encoders.Columns(), got.Encoders.Columns())

	frame := dataset.Synthetic(25, 11)
	wv, gv := want.Vectorizer(), got.Vectorizer()
	for i := 0; i < frame.Len(); i++ {
		value := func(col string) string { return frame.Value(i, col) }
		x1, _ := wv.Vector(value)
		x2, _ := gv.Vector(value)
		assert.Equal(t, x1, x2)
		p1, err := want.Model.PredictProba(x1)
		require.NoError(t, err)
		p2, err := got.Model.PredictProba(x2)
		require.NoError(t, err)
		assert.Equal(t, p1, p2)
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(filepath.Join(t.TempDir(), "models"))

	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, ErrArtifactNotFound)

	first := trainSynthetic(t, 200)
	require.NoError(t, store.Save(ctx, first))
	got, err := store.Load(ctx)
	require.NoError(t, err)
	assertSameArtifact(t, first, got)

	second := trainSynthetic(t, 200)
	require.NoError(t, store.Save(ctx, second))
	got, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)

	entries, err := os.ReadDir(store.Dir)
	require.NoError(t, err)
	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, e.Name())
		}
	}
	assert.Equal(t, []string{"artifacts-" + second.ID}, dirs, "superseded and staging dirs are removed")
}

func TestFileStoreRejectsMixedPair(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := NewFileStore(dir)

	first := trainSynthetic(t, 200)
	second := trainSynthetic(t, 200)
	require.NoError(t, store.Save(ctx, first))

	_, encoders, err := encodeArtifact(second)
	require.NoError(t, err)
	live := filepath.Join(dir, "artifacts-"+first.ID, EncodersFileName)
	require.NoError(t, os.WriteFile(live, encoders, 0o644))

	_, err = store.Load(ctx)
	assert.ErrorIs(t, err, ErrArtifactMismatch)
}

func TestFileStoreCorruptPointer(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, currentPointer), []byte("../elsewhere\n"), 0o644))

	_, err := NewFileStore(dir).Load(context.Background())
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrArtifactNotFound)
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := OpenSQLiteStore(ctx, filepath.Join(t.TempDir(), "artifacts.db"))
	require.NoError(t, err)
	defer store.Close()

	_, err = store.Load(ctx)
	assert.ErrorIs(t, err, ErrArtifactNotFound)

	first := trainSynthetic(t, 200)
	require.NoError(t, store.Save(ctx, first))
	got, err := store.Load(ctx)
	require.NoError(t, err)
	assertSameArtifact(t, first, got)

	second := trainSynthetic(t, 200)
	require.NoError(t, store.Save(ctx, second))
	got, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)
}

func TestSaveRejectsInvalidArtifact(t *testing.T) {
	a := trainSynthetic(t, 200)
	broken := *a
	broken.Columns = broken.Columns[:3]

	err := NewFileStore(t.TempDir()).Save(context.Background(), &broken)
	assert.ErrorIs(t, err, ErrArtifactMismatch)
}

func TestDecodeArtifactMismatch(t *testing.T) {
	a := trainSynthetic(t, 200)
	b := trainSynthetic(t, 200)
	model, _, err := encodeArtifact(a)
	require.NoError(t, err)
	_, encoders, err := encodeArtifact(b)
	require.NoError(t, err)

	_, err = decodeArtifact(model, encoders)
	assert.ErrorIs(t, err, ErrArtifactMismatch)
}
