package pipelines

import (
	"fmt"
	"os"

	"github.com/ternarybob/cogito/internal/interfaces"
	"gopkg.in/yaml.v3"
)

// CatalogEntry describes the model assigned to one task kind.
type CatalogEntry struct {
	Model     string `yaml:"model"`
	Quantized bool   `yaml:"quantized"`
	Revision  string `yaml:"revision,omitempty"`
}

// Catalog maps task kinds to model identifiers, loaded from a YAML
// manifest. Missing entries fall back to the built-in defaults, which
// mirror the reference model set.
type Catalog struct {
	Pipelines map[interfaces.TaskKind]CatalogEntry `yaml:"pipelines"`
}

// DefaultCatalog returns the built-in model assignments.
func DefaultCatalog() *Catalog {
	return &Catalog{
		Pipelines: map[interfaces.TaskKind]CatalogEntry{
			interfaces.TaskClassification: {Model: "Xenova/mobilebert-uncased-mnli", Quantized: true},
			interfaces.TaskSentiment:      {Model: "Xenova/distilbert-base-multilingual-cased-sentiments-student", Quantized: true},
			interfaces.TaskGeneration:     {Model: "Xenova/gpt2", Quantized: true},
			interfaces.TaskEmbedding:      {Model: "Xenova/all-MiniLM-L6-v2", Quantized: true},
			interfaces.TaskDetection:      {Model: "Xenova/detr-resnet-50", Quantized: true},
			interfaces.TaskTranscription:  {Model: "Xenova/whisper-tiny.en", Quantized: true},
		},
	}
}

// LoadCatalog reads a YAML catalog file, merging over the defaults. A
// missing file is not an error; the defaults apply.
func LoadCatalog(path string) (*Catalog, error) {
	catalog := DefaultCatalog()
	if path == "" {
		return catalog, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return catalog, nil
		}
		return nil, fmt.Errorf("failed to read model catalog %s: %w", path, err)
	}

	var loaded Catalog
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("failed to parse model catalog %s: %w", path, err)
	}

	for kind, entry := range loaded.Pipelines {
		if entry.Model == "" {
			return nil, fmt.Errorf("model catalog %s: empty model for task %q", path, kind)
		}
		catalog.Pipelines[kind] = entry
	}

	return catalog, nil
}

// ModelFor returns the model identifier for a task kind.
func (c *Catalog) ModelFor(kind interfaces.TaskKind) (string, error) {
	entry, ok := c.Pipelines[kind]
	if !ok {
		return "", fmt.Errorf("no model configured for task %q", kind)
	}
	return entry.Model, nil
}
