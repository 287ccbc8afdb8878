package policy

import (
	"fmt"

	"abacengine/constants"
)

// Attribute is a symbolic pointer into a request context: either a named
// reference into the actor, a subject, or the environment, or a literal
// value carried inline.
type Attribute struct {
	Entity  constants.EntityKind
	Name    string
	Literal any
}

// Actor builds an attribute reference into the request's actor.
func Actor(name string) Attribute {
	return Attribute{Entity: constants.EntityActor, Name: name}
}

// Subject builds an attribute reference into a request subject.
func Subject(name string) Attribute {
	return Attribute{Entity: constants.EntitySubject, Name: name}
}

// Env builds an attribute reference into the request's environment map.
func Env(name string) Attribute {
	return Attribute{Entity: constants.EntityEnvironment, Name: name}
}

// Literal builds a literal operand that resolves to itself.
func Literal(value any) Attribute {
	return Attribute{Entity: constants.EntityLiteral, Literal: value}
}

// Validate enforces the invariant that exactly one of (Name, Literal) is
// set, and that Entity=literal iff Literal is set.
func (a Attribute) Validate() error {
	if !constants.IsValidEntity(string(a.Entity)) {
		return fmt.Errorf("attribute: unknown entity kind %q", a.Entity)
	}
	isLiteral := a.Entity == constants.EntityLiteral
	hasLiteral := a.Literal != nil
	hasName := a.Name != ""

	if isLiteral != hasLiteral {
		return fmt.Errorf("attribute: entity=literal must coincide with a set literal value")
	}
	if isLiteral && hasName {
		return fmt.Errorf("attribute: literal attribute must not carry a name")
	}
	if !isLiteral && !hasName {
		return fmt.Errorf("attribute: non-literal attribute must carry a name")
	}
	return nil
}

// IsLiteral reports whether the attribute is an inline literal.
func (a Attribute) IsLiteral() bool {
	return a.Entity == constants.EntityLiteral
}

func (a Attribute) String() string {
	if a.IsLiteral() {
		return fmt.Sprintf("literal(%v)", a.Literal)
	}
	return fmt.Sprintf("%s.%s", a.Entity, a.Name)
}
