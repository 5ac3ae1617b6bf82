package pipelines

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/cogito/internal/interfaces"
)

func TestDefaultCatalogCoversAllTasks(t *testing.T) {
	catalog := DefaultCatalog()

	for _, kind := range []interfaces.TaskKind{
		interfaces.TaskClassification,
		interfaces.TaskSentiment,
		interfaces.TaskGeneration,
		interfaces.TaskEmbedding,
		interfaces.TaskDetection,
		interfaces.TaskTranscription,
	} {
		model, err := catalog.ModelFor(kind)
		require.NoError(t, err, "task %s", kind)
		assert.NotEmpty(t, model)
	}
}

func TestLoadCatalogMissingFileUsesDefaults(t *testing.T) {
	catalog, err := LoadCatalog(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	model, err := catalog.ModelFor(interfaces.TaskEmbedding)
	require.NoError(t, err)
	assert.Equal(t, "Xenova/all-MiniLM-L6-v2", model)
}

func TestLoadCatalogMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models.yaml")
	content := "pipelines:\n  feature-extraction:\n    model: custom/embedder\n    quantized: false\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	catalog, err := LoadCatalog(path)
	require.NoError(t, err)

	model, err := catalog.ModelFor(interfaces.TaskEmbedding)
	require.NoError(t, err)
	assert.Equal(t, "custom/embedder", model)

	// Untouched entries keep their defaults.
	model, err = catalog.ModelFor(interfaces.TaskGeneration)
	require.NoError(t, err)
	assert.Equal(t, "Xenova/gpt2", model)
}

func TestLoadCatalogRejectsEmptyModel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models.yaml")
	content := "pipelines:\n  text-generation:\n    quantized: true\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := LoadCatalog(path)
	assert.Error(t, err)
}
