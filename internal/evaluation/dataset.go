// Package evaluation runs a labelled question set through the agent and scores the answers.
package evaluation

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/mwiater/docent/internal/metrics"
	"github.com/xeipuuv/gojsonschema"
)

// DefaultDatasetPath is where eval looks for questions when no --dataset is given.
const DefaultDatasetPath = "evaluation/dataset.json"

//go:embed schema.json
var datasetSchema []byte

// Dataset is the on-disk question set.
type Dataset struct {
	Questions []Question `json:"questions"`
}

// Question is one labelled evaluation item. It is never mutated after loading.
type Question struct {
	ID               string   `json:"id"`
	Question         string   `json:"question"`
	ExpectedTopics   []string `json:"expected_topics"`
	ExpectedCode     bool     `json:"expected_code"`
	ExpectedSnippets []string `json:"expected_snippets,omitempty"`
	Category         string   `json:"category"`
	Difficulty       string   `json:"difficulty"`
	ReferenceAnswer  string   `json:"reference_answer,omitempty"`
}

// LoadDataset reads and schema-validates a dataset file.
func LoadDataset(path string) (Dataset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Dataset{}, fmt.Errorf("error reading dataset: %w", err)
	}
	return ParseDataset(raw)
}

// ParseDataset validates raw against the embedded schema, then decodes it.
// Question ids must be unique.
func ParseDataset(raw []byte) (Dataset, error) {
	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(datasetSchema), gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return Dataset{}, fmt.Errorf("dataset schema validation error: %w", err)
	}
	if !result.Valid() {
		var errs []string
		for _, desc := range result.Errors() {
			errs = append(errs, desc.String())
		}
		return Dataset{}, fmt.Errorf("dataset validation failed: %s", strings.Join(errs, ", "))
	}

	var ds Dataset
	if err := json.Unmarshal(raw, &ds); err != nil {
		return Dataset{}, fmt.Errorf("error parsing dataset: %w", err)
	}
	seen := make(map[string]struct{}, len(ds.Questions))
	for _, q := range ds.Questions {
		if _, dup := seen[q.ID]; dup {
			return Dataset{}, fmt.Errorf("dataset contains duplicate question id %q", q.ID)
		}
		seen[q.ID] = struct{}{}
	}
	return ds, nil
}

// Meta maps question ids to their grouping labels.
func (d Dataset) Meta() map[string]metrics.QuestionMeta {
	out := make(map[string]metrics.QuestionMeta, len(d.Questions))
	for _, q := range d.Questions {
		out[q.ID] = metrics.QuestionMeta{Category: q.Category, Difficulty: q.Difficulty}
	}
	return out
}

// Limit returns a dataset holding at most n questions; n <= 0 keeps them all.
func (d Dataset) Limit(n int) Dataset {
	if n <= 0 || n >= len(d.Questions) {
		return d
	}
	return Dataset{Questions: d.Questions[:n]}
}
