package store

import (
	"fmt"
	"strings"
)

// Open resolves a PolicyStore from a path by its file extension. It is
// convenience glue for cmd/server-style callers wiring a store from a
// single config string; it is never used by PolicyCache or the evaluator
// directly, which take a PolicyStore value.
func Open(path string) (PolicyStore, error) {
	switch ext := strings.ToLower(extOf(path)); ext {
	case ".json":
		return NewJSONStore(path), nil
	case ".yaml", ".yml":
		return NewYAMLStore(path), nil
	default:
		return nil, fmt.Errorf("store: unsupported policy file extension %q (want .json, .yaml, or .yml)", ext)
	}
}

func extOf(path string) string {
	i := strings.LastIndexByte(path, '.')
	if i < 0 {
		return ""
	}
	return path[i:]
}
