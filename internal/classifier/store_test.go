package classifier

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facemark/facemark-api/internal/vision"
)

func TestStoreStartsUntrained(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "model.json"))
	require.NoError(t, err)

	assert.False(t, store.Trained())
	_, err = store.Current()
	assert.ErrorIs(t, err, ErrNotTrained)
}

func TestStoreSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	store, err := NewStore(path)
	require.NoError(t, err)

	model := NewModel(3)
	require.NoError(t, model.Fit(
		[]string{"s001", "s002"},
		[]vision.Embedding{constantEmbedding(0.1), constantEmbedding(0.9)},
	))
	require.NoError(t, store.Save(model))
	assert.True(t, store.Trained())

	// A fresh store must pick up the artifact from disk.
	reopened, err := NewStore(path)
	require.NoError(t, err)
	loaded, err := reopened.Current()
	require.NoError(t, err)

	pred, err := loaded.Predict(constantEmbedding(0.85))
	require.NoError(t, err)
	assert.Equal(t, "s002", pred.Label)
}

func TestStoreRejectsUnknownVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version": 99}`), 0o644))

	_, err := NewStore(path)
	assert.Error(t, err)
}

func TestStoreSaveLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.json")
	store, err := NewStore(path)
	require.NoError(t, err)

	model := NewModel(1)
	require.NoError(t, model.Fit([]string{"s"}, []vision.Embedding{constantEmbedding(0.5)}))
	require.NoError(t, store.Save(model))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "model.json", entries[0].Name())
}
