package attribute

import "fmt"

// NotResolvableError is the recoverable error signaled when an Attribute
// reference cannot be resolved against a PolicyContext. It is never
// surfaced to the caller: the PDP converts it into a per-policy
// indeterminate outcome.
type NotResolvableError struct {
	Entity string
	Name   string
	Reason string
}

func (e *NotResolvableError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("attribute not resolvable: %s.%s (%s)", e.Entity, e.Name, e.Reason)
	}
	return fmt.Sprintf("attribute not resolvable: %s.%s", e.Entity, e.Name)
}

func notResolvable(entity, name, reason string) error {
	return &NotResolvableError{Entity: entity, Name: name, Reason: reason}
}
