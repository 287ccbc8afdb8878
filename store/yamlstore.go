package store

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"abacengine/builder"
	"abacengine/policy"
)

// YAMLStore reads the same logical document as JSONStore, in YAML, using
// gopkg.in/yaml.v3. YAML is an equivalent surface for the same policy
// document shape, not a separate schema.
type YAMLStore struct {
	path string
}

// NewYAMLStore builds a YAMLStore reading from path.
func NewYAMLStore(path string) *YAMLStore {
	return &YAMLStore{path: path}
}

type yamlDocument struct {
	Policies []map[string]any `yaml:"policies"`
}

func (s *YAMLStore) LoadAll(ctx context.Context) ([]*policy.Policy, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("yamlstore: failed to read %s: %w", s.path, err)
	}

	var doc yamlDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("yamlstore: failed to parse %s: %w", s.path, err)
	}

	return builder.New().BuildPolicies(normalizeYAMLRecords(doc.Policies))
}

// normalizeYAMLRecords rewrites map[any]any-style nested entries that
// yaml.v3 can surface inside []any values (e.g. "arguments") into
// map[string]any so the builder's type assertions succeed the same way
// they do for JSON-decoded input.
func normalizeYAMLRecords(records []map[string]any) []map[string]any {
	out := make([]map[string]any, len(records))
	for i, r := range records {
		out[i] = normalizeYAMLValue(r).(map[string]any)
	}
	return out
}

func normalizeYAMLValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalizeYAMLValue(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprintf("%v", k)] = normalizeYAMLValue(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalizeYAMLValue(val)
		}
		return out
	default:
		return v
	}
}

func (s *YAMLStore) LoadByName(ctx context.Context, name string) (*policy.Policy, error) {
	policies, err := s.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	return findByName(policies, name)
}
