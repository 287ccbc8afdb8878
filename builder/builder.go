// Package builder turns declarative, map-shaped policy records (as decoded
// from JSON or YAML) into the typed expr/policy tree the evaluator walks.
// It is the only place in the engine that looks at the wire shape described
// for policy documents; every store backend decodes its own format into
// map[string]any/[]any first and then calls into this package.
package builder

import (
	"abacengine/constants"
	"abacengine/expr"
	"abacengine/policy"
)

// operand is a single resolved side of an expression: either an attribute
// reference or an inline literal, paired with the record key it came from
// (used only for deterministic Left/Right ordering).
type operand struct {
	key  string
	attr policy.Attribute
}

// leftPriority orders which attribute-shaped key becomes the Left/Subject
// operand when a record carries more than one: actor before subject before
// environment, matching the order the spec's own examples read in.
var leftPriority = []string{"actor" + constants.KeySuffixAttribute, "subject" + constants.KeySuffixAttribute, "environment" + constants.KeySuffixAttribute}

func priorityOf(key string) int {
	for i, k := range leftPriority {
		if k == key {
			return i
		}
	}
	return len(leftPriority)
}

// ExpressionBuilder constructs expr nodes from declarative records, bound
// to a single operator Registry.
type ExpressionBuilder struct {
	registry *expr.Registry
}

// New builds an ExpressionBuilder over a fresh operator registry.
func New() *ExpressionBuilder {
	return &ExpressionBuilder{registry: expr.NewRegistry()}
}

// BuildExpression disambiguates record's shape and returns the
// corresponding Unary, Binary, or Function node as a policy.Expression.
//
// Shape rules:
//   - "function" + "arguments" present               -> Function
//   - "operator" present, exactly one operand (an
//     attribute-shaped key or a "value" key)          -> Unary
//   - "operator" present, exactly two operands         -> Binary
//   - anything else                                    -> MalformedExpressionError
func (b *ExpressionBuilder) BuildExpression(record map[string]any) (policy.Expression, error) {
	if fnRaw, ok := record[constants.KeyFunction]; ok {
		return b.buildFunction(record, fnRaw)
	}

	opRaw, hasOp := record[constants.KeyOperator]
	if !hasOp {
		return nil, malformed("record has neither \"function\" nor \"operator\"")
	}

	operands, err := collectOperands(record)
	if err != nil {
		return nil, err
	}

	switch len(operands) {
	case 1:
		return b.buildUnary(opRaw, operands[0])
	case 2:
		return b.buildBinary(opRaw, operands)
	default:
		return nil, malformed("operator %v has %d operand(s), want 1 or 2", opRaw, len(operands))
	}
}

func (b *ExpressionBuilder) buildUnary(opRaw any, op operand) (policy.Expression, error) {
	opName, ok := opRaw.(string)
	if !ok {
		return nil, malformed("operator must be a string, got %T", opRaw)
	}
	if !constants.IsValidUnary(opName) {
		return nil, malformed("unknown unary operator %q", opName)
	}
	node, err := expr.NewUnary(b.registry, constants.UnaryOperator(opName), op.attr)
	if err != nil {
		return nil, malformed("%v", err)
	}
	return node, nil
}

func (b *ExpressionBuilder) buildBinary(opRaw any, operands []operand) (policy.Expression, error) {
	opName, ok := opRaw.(string)
	if !ok {
		return nil, malformed("operator must be a string, got %T", opRaw)
	}
	if !constants.IsValidBinary(opName) {
		return nil, malformed("unknown binary operator %q", opName)
	}

	left, right := operands[0], operands[1]
	if priorityOf(left.key) > priorityOf(right.key) {
		left, right = right, left
	}

	node, err := expr.NewBinary(b.registry, constants.BinaryOperator(opName), left.attr, right.attr)
	if err != nil {
		return nil, malformed("%v", err)
	}
	return node, nil
}

func (b *ExpressionBuilder) buildFunction(record map[string]any, fnRaw any) (policy.Expression, error) {
	fnName, ok := fnRaw.(string)
	if !ok {
		return nil, malformed("function name must be a string, got %T", fnRaw)
	}
	if !constants.IsValidFunction(fnName) {
		return nil, malformed("unknown function %q", fnName)
	}

	subjectOperands, err := collectAttributeOperands(record)
	if err != nil {
		return nil, err
	}
	if len(subjectOperands) != 1 {
		return nil, malformed("function %q must have exactly one attribute-shaped subject key, found %d", fnName, len(subjectOperands))
	}

	argsRaw, ok := record[constants.KeyArguments]
	if !ok {
		return nil, malformed("function %q is missing \"arguments\"", fnName)
	}
	argList, ok := argsRaw.([]any)
	if !ok {
		return nil, malformed("function %q: \"arguments\" must be a list, got %T", fnName, argsRaw)
	}

	args := make([]policy.Attribute, 0, len(argList))
	for i, raw := range argList {
		attr, err := resolveArgument(raw)
		if err != nil {
			return nil, malformed("function %q argument %d: %v", fnName, i, err)
		}
		args = append(args, attr)
	}

	node, err := expr.NewFunction(b.registry, constants.FunctionName(fnName), subjectOperands[0].attr, args)
	if err != nil {
		return nil, malformed("%v", err)
	}
	return node, nil
}

// resolveArgument turns a single "arguments" list element into an
// Attribute: a one-key attribute-shaped map becomes an Attribute reference,
// anything else is an inline literal.
func resolveArgument(raw any) (policy.Attribute, error) {
	if m, ok := raw.(map[string]any); ok && len(m) == 1 {
		for key, val := range m {
			if attr, ok, err := attributeFromKey(key, val); ok || err != nil {
				if err != nil {
					return policy.Attribute{}, err
				}
				return attr, nil
			}
		}
	}
	return policy.Literal(raw), nil
}

// collectOperands gathers every attribute-shaped key plus an optional
// "value" key from record, in map iteration order (ordering is reimposed
// later by leftPriority where it matters).
func collectOperands(record map[string]any) ([]operand, error) {
	operands, err := collectAttributeOperands(record)
	if err != nil {
		return nil, err
	}
	if raw, ok := record[constants.KeyValue]; ok {
		operands = append(operands, operand{key: constants.KeyValue, attr: policy.Literal(raw)})
	}
	return operands, nil
}

func collectAttributeOperands(record map[string]any) ([]operand, error) {
	var operands []operand
	for key, raw := range record {
		attr, ok, err := attributeFromKey(key, raw)
		if err != nil {
			return nil, err
		}
		if ok {
			operands = append(operands, operand{key: key, attr: attr})
		}
	}
	return operands, nil
}

// attributeFromKey recognizes a "<entity>_attribute" key and builds the
// corresponding Attribute. ok is false when key does not carry the
// attribute suffix at all (not an error, just "not an operand key").
func attributeFromKey(key string, raw any) (policy.Attribute, bool, error) {
	suffix := constants.KeySuffixAttribute
	if len(key) <= len(suffix) || key[len(key)-len(suffix):] != suffix {
		return policy.Attribute{}, false, nil
	}
	name, ok := raw.(string)
	if !ok {
		return policy.Attribute{}, false, malformed("attribute key %q must name a string attribute, got %T", key, raw)
	}
	prefix := key[:len(key)-len(suffix)]
	switch prefix {
	case "actor":
		return policy.Actor(name), true, nil
	case "subject":
		return policy.Subject(name), true, nil
	case "environment":
		return policy.Env(name), true, nil
	default:
		return policy.Attribute{}, false, malformed("unknown attribute entity %q in key %q", prefix, key)
	}
}
