package store

import "testing"

func TestOpen_DispatchesByExtension(t *testing.T) {
	if _, err := Open("policies.json"); err != nil {
		t.Fatalf("Open(.json): %v", err)
	}
	if _, err := Open("policies.yaml"); err != nil {
		t.Fatalf("Open(.yaml): %v", err)
	}
	if _, err := Open("policies.yml"); err != nil {
		t.Fatalf("Open(.yml): %v", err)
	}
	if _, err := Open("policies.toml"); err == nil {
		t.Fatal("expected an error for an unsupported extension")
	}
}
