package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"abacengine/builder"
	"abacengine/policy"
)

// JSONStore reads a single flat JSON document shaped
// {"policies": [...]}, mirroring the teacher's mock_storage.go
// loadPolicies convention. It re-reads and re-parses the file on every
// LoadAll call; PolicyCache is what makes that affordable.
type JSONStore struct {
	path string
}

// NewJSONStore builds a JSONStore reading from path.
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

type jsonDocument struct {
	Policies []map[string]any `json:"policies"`
}

func (s *JSONStore) LoadAll(ctx context.Context) ([]*policy.Policy, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("jsonstore: failed to read %s: %w", s.path, err)
	}

	var doc jsonDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("jsonstore: failed to parse %s: %w", s.path, err)
	}

	return builder.New().BuildPolicies(doc.Policies)
}

func (s *JSONStore) LoadByName(ctx context.Context, name string) (*policy.Policy, error) {
	policies, err := s.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	return findByName(policies, name)
}
