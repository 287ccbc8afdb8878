// Package attribute implements the engine's capability for resolving an
// Attribute reference into a concrete value against a PolicyContext. The
// source system this engine replaces did this via unconstrained runtime
// reflection; here the capability is an explicit, narrow interface
// (Accessor) with a reflective default implementation and an optional
// per-type fast-path registry, so a caller who wants to avoid reflection on
// a hot PIP type can register an explicit resolver function instead.
package attribute

import (
	"reflect"
	"strings"

	"abacengine/constants"
	"abacengine/policy"
)

// Accessor resolves Attribute references against a PolicyContext.
type Accessor interface {
	Resolve(ctx policy.PolicyContext, attr policy.Attribute) (any, error)
}

// FieldResolver is a registered fast-path for a concrete PIP type: given the
// PIP value and a leaf attribute name, return the value and whether it was
// found. Registering one for a hot type skips the reflective fallback
// entirely for that type.
type FieldResolver func(pip any, name string) (any, bool)

// ReflectiveAccessor is the default Accessor. It implements the loose,
// duck-typed lookup contract: a zero-arg Get<X>() method, then an exported
// field named X (honoring a `pip:"name"` tag override), then a
// GetAttributes() map, in that order.
type ReflectiveAccessor struct {
	registry map[reflect.Type]FieldResolver
}

// NewAccessor builds a ReflectiveAccessor with no registered fast paths.
func NewAccessor() *ReflectiveAccessor {
	return &ReflectiveAccessor{registry: make(map[reflect.Type]FieldResolver)}
}

// Register installs a fast-path FieldResolver for every PIP value of the
// concrete type of sample. Subsequent resolutions against values of that
// type skip reflection.
func (a *ReflectiveAccessor) Register(sample any, resolver FieldResolver) {
	a.registry[reflect.TypeOf(sample)] = resolver
}

// Resolve implements Accessor.
func (a *ReflectiveAccessor) Resolve(ctx policy.PolicyContext, attr policy.Attribute) (any, error) {
	switch attr.Entity {
	case constants.EntityLiteral:
		return attr.Literal, nil

	case constants.EntityActor:
		return a.resolveDotted(ctx.Actor, attr.Name)

	case constants.EntitySubject:
		if len(ctx.Subjects) == 0 {
			return nil, notResolvable(string(attr.Entity), attr.Name, "no subjects in context")
		}
		// The engine resolves subject attributes against the first subject in
		// the ordered sequence; multi-subject category narrowing happens
		// earlier, in retrieval, not here.
		return a.resolveDotted(ctx.Subjects[0], attr.Name)

	case constants.EntityEnvironment:
		return a.resolveEnvironment(ctx.Environment, attr.Name)

	default:
		return nil, notResolvable(string(attr.Entity), attr.Name, "unknown entity kind")
	}
}

// resolveEnvironment looks up the first dotted segment by exact key in the
// environment map, then recurses the remaining segments into that value
// (which may itself be a PIP or a nested map).
func (a *ReflectiveAccessor) resolveEnvironment(env map[string]any, dotted string) (any, error) {
	parts := strings.SplitN(dotted, ".", 2)
	key := parts[0]

	value, exists := env[key]
	if !exists {
		return nil, notResolvable(string(constants.EntityEnvironment), dotted, "no such environment key")
	}
	if len(parts) == 1 {
		return value, nil
	}
	return a.resolveDotted(value, parts[1])
}

// resolveDotted walks a dotted attribute name through nested PIPs/maps
// using the loose lookup contract at each segment.
func (a *ReflectiveAccessor) resolveDotted(root any, dotted string) (any, error) {
	current := root
	parts := strings.Split(dotted, ".")

	for i, part := range parts {
		next, err := a.resolveOne(current, part)
		if err != nil {
			return nil, err
		}
		current = next
		_ = i
	}
	return current, nil
}

// resolveOne resolves a single leaf segment against obj using the loose
// contract: registered fast-path, then Get<X>(), then exported field, then
// GetAttributes()/map lookup.
func (a *ReflectiveAccessor) resolveOne(obj any, name string) (any, error) {
	if obj == nil {
		return nil, notResolvable("", name, "nil value in path")
	}

	if resolver, ok := a.registry[reflect.TypeOf(obj)]; ok {
		if v, found := resolver(obj, name); found {
			return v, nil
		}
		return nil, notResolvable("", name, "not found via registered resolver")
	}

	if v, ok := tryGetter(obj, name); ok {
		return v, nil
	}
	if v, ok := tryField(obj, name); ok {
		return v, nil
	}
	if v, ok := tryAttributeMap(obj, name); ok {
		return v, nil
	}

	return nil, notResolvable("", name, "no getter, field, or attribute map matched")
}

// tryGetter looks for a zero-arg, single-return public method named
// Get<Capitalized(name)>, matched case-insensitively.
func tryGetter(obj any, name string) (any, bool) {
	v := reflect.ValueOf(obj)
	if !v.IsValid() {
		return nil, false
	}
	getterName := "Get" + capitalize(name)

	method := v.MethodByName(getterName)
	if !method.IsValid() {
		// Case-insensitive scan over all methods.
		t := v.Type()
		for i := 0; i < t.NumMethod(); i++ {
			if strings.EqualFold(t.Method(i).Name, getterName) {
				method = v.Method(i)
				break
			}
		}
	}
	if !method.IsValid() {
		return nil, false
	}
	mt := method.Type()
	if mt.NumIn() != 0 || mt.NumOut() != 1 {
		return nil, false
	}
	results := method.Call(nil)
	return results[0].Interface(), true
}

// tryField looks for an exported struct field named name (case-insensitive),
// honoring a `pip:"name"` tag override.
func tryField(obj any, name string) (any, bool) {
	v := reflect.ValueOf(obj)
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil, false
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, false
	}

	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		if tag := field.Tag.Get("pip"); tag != "" {
			if tag == name {
				return v.Field(i).Interface(), true
			}
			continue
		}
		if strings.EqualFold(field.Name, name) {
			return v.Field(i).Interface(), true
		}
	}
	return nil, false
}

// tryAttributeMap consults policy.PIP.GetAttributes(), or treats obj as a
// plain map[string]any directly (the shape a nested environment value or a
// JSON-decoded literal commonly takes).
func tryAttributeMap(obj any, name string) (any, bool) {
	if pip, ok := obj.(policy.PIP); ok {
		if v, found := pip.GetAttributes()[name]; found {
			return v, true
		}
		return nil, false
	}
	if m, ok := obj.(map[string]any); ok {
		v, found := m[name]
		return v, found
	}
	return nil, false
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
