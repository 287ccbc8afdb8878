package categorizer

import "testing"

type invoice struct{}

type draft struct{}

func (draft) Category() string { return "draft-document" }

func TestCategoryOf_TypeNameFallback(t *testing.T) {
	c := New()
	if got := c.SubjectCategory(&invoice{}); got != "invoice" {
		t.Fatalf("got %q, want %q", got, "invoice")
	}
}

func TestCategoryOf_RegisteredOverride(t *testing.T) {
	c := New()
	c.Register(&invoice{}, "billing-invoice")
	if got := c.SubjectCategory(&invoice{}); got != "billing-invoice" {
		t.Fatalf("got %q, want %q", got, "billing-invoice")
	}
}

func TestCategoryOf_CategoryMethodWins(t *testing.T) {
	c := New()
	c.Register(&draft{}, "should-not-win")
	if got := c.SubjectCategory(&draft{}); got != "draft-document" {
		t.Fatalf("got %q, want %q", got, "draft-document")
	}
}

func TestCategoryOf_MapFallback(t *testing.T) {
	c := New()
	if got := c.ActorCategory(map[string]any{"id": 1}); got != "map" {
		t.Fatalf("got %q, want %q", got, "map")
	}
}

func TestCategoryOf_Nil(t *testing.T) {
	c := New()
	if got := c.ActorCategory(nil); got != "" {
		t.Fatalf("got %q, want empty string", got)
	}
}
