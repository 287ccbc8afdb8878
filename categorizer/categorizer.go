// Package categorizer decouples policy text (actions, actor/subject
// category names written into a policy document) from concrete Go types:
// a Policy never names a Go struct, only a category string, and
// Categorizer is what turns a live actor or subject value into that
// string at evaluation time.
package categorizer

import (
	"reflect"
	"strings"
)

// Categorizer maps a live actor or subject value to the category name a
// policy document refers to by string (e.g. "user", "service-account",
// "post", "invoice").
type Categorizer interface {
	ActorCategory(actor any) string
	SubjectCategory(subject any) string
}

// category is implemented by domain types that know their own category
// name; it takes priority over every fallback DefaultCategorizer applies.
type category interface {
	Category() string
}

// DefaultCategorizer derives a category name from, in priority order: a
// Category() string method, a registered override by reflect.Type, "map"
// for any map value, or the Go type's own unqualified name with its first
// letter lowercased (e.g. *models.Invoice -> "invoice").
type DefaultCategorizer struct {
	overrides map[reflect.Type]string
}

// New builds a DefaultCategorizer with no overrides registered.
func New() *DefaultCategorizer {
	return &DefaultCategorizer{overrides: make(map[reflect.Type]string)}
}

// Register binds sample's concrete type to an explicit category name,
// taking priority over the type-name fallback (but not over a Category()
// method, which is always authoritative).
func (c *DefaultCategorizer) Register(sample any, name string) {
	c.overrides[reflect.TypeOf(sample)] = name
}

func (c *DefaultCategorizer) ActorCategory(actor any) string {
	return c.categoryOf(actor)
}

func (c *DefaultCategorizer) SubjectCategory(subject any) string {
	return c.categoryOf(subject)
}

func (c *DefaultCategorizer) categoryOf(v any) string {
	if v == nil {
		return ""
	}
	if cat, ok := v.(category); ok {
		return cat.Category()
	}

	t := reflect.TypeOf(v)
	if name, ok := c.overrides[t]; ok {
		return name
	}

	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() == reflect.Map {
		return "map"
	}
	return lowerFirst(t.Name())
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
