package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind represents the typed domain of a task's answers. Concrete kinds
// implement the unexported isKind marker enabling a closed set.
//
// Contract:
//   - Validate normalizes an already-typed value into the kind's canonical
//     Go representation (bool, int64, float64, string, []string, time.Time)
//     or reports why it does not belong to the domain
//   - Parse converts raw reviewer input (one line of text) into the domain
//   - Validate must accept every value Parse can produce, and every value a
//     JSON round-trip of a canonical value can produce
type Kind interface {
	isKind()

	// Name returns the stable identifier of the kind ("bool", "choice", ...).
	Name() string

	// Validate normalizes v into the kind's canonical representation.
	Validate(v any) (any, error)

	// Parse converts raw textual input into the kind's domain.
	Parse(raw string) (any, error)
}

// booleanStates maps accepted textual spellings to boolean values.
var booleanStates = map[string]bool{
	"true": true, "false": false,
	"t": true, "f": false,
	"1": true, "0": false,
	"yes": true, "no": false,
	"y": true, "n": false,
	"on": true, "off": false,
}

// BoolKind accepts boolean answers.
type BoolKind struct{}

func (BoolKind) isKind() {}

// Name implements Kind.
func (BoolKind) Name() string { return "bool" }

// Validate implements Kind.
func (BoolKind) Validate(v any) (any, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		if parsed, ok := booleanStates[strings.ToLower(strings.TrimSpace(b))]; ok {
			return parsed, nil
		}
	}
	return nil, fmt.Errorf("expected a boolean, got %T", v)
}

// Parse implements Kind.
func (k BoolKind) Parse(raw string) (any, error) {
	if parsed, ok := booleanStates[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return parsed, nil
	}
	return nil, fmt.Errorf("%q is not a recognized boolean", raw)
}

// IntKind accepts integer answers. Canonical representation is int64; whole
// floats are accepted because JSON decoding yields float64 for all numbers.
type IntKind struct{}

func (IntKind) isKind() {}

// Name implements Kind.
func (IntKind) Name() string { return "int" }

// Validate implements Kind.
func (IntKind) Validate(v any) (any, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case float64:
		if n == float64(int64(n)) {
			return int64(n), nil
		}
		return nil, fmt.Errorf("expected an integer, got fractional number %v", n)
	case string:
		return IntKind{}.Parse(n)
	}
	return nil, fmt.Errorf("expected an integer, got %T", v)
}

// Parse implements Kind.
func (IntKind) Parse(raw string) (any, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%q is not an integer", raw)
	}
	return n, nil
}

// FloatKind accepts numeric answers. Canonical representation is float64.
type FloatKind struct{}

func (FloatKind) isKind() {}

// Name implements Kind.
func (FloatKind) Name() string { return "float" }

// Validate implements Kind.
func (FloatKind) Validate(v any) (any, error) {
	switch n := v.(type) {
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case float32:
		return float64(n), nil
	case float64:
		return n, nil
	case string:
		return FloatKind{}.Parse(n)
	}
	return nil, fmt.Errorf("expected a number, got %T", v)
}

// Parse implements Kind.
func (FloatKind) Parse(raw string) (any, error) {
	n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return nil, fmt.Errorf("%q is not a number", raw)
	}
	return n, nil
}

// TextKind accepts free text answers.
type TextKind struct{}

func (TextKind) isKind() {}

// Name implements Kind.
func (TextKind) Name() string { return "str" }

// Validate implements Kind.
func (TextKind) Validate(v any) (any, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	return nil, fmt.Errorf("expected text, got %T", v)
}

// Parse implements Kind.
func (TextKind) Parse(raw string) (any, error) { return raw, nil }

// ChoiceKind accepts exactly one value out of an enumerated choice set.
// Labels optionally maps choices to display descriptions for renderers; it
// does not participate in validation.
type ChoiceKind struct {
	Choices []string
	Labels  map[string]string
}

func (ChoiceKind) isKind() {}

// Name implements Kind.
func (ChoiceKind) Name() string { return "choice" }

// Validate implements Kind.
func (k ChoiceKind) Validate(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("expected one of %v, got %T", k.Choices, v)
	}
	for _, c := range k.Choices {
		if s == c {
			return s, nil
		}
	}
	return nil, fmt.Errorf("%q is not one of %v", s, k.Choices)
}

// Parse implements Kind.
func (k ChoiceKind) Parse(raw string) (any, error) {
	return k.Validate(strings.TrimSpace(raw))
}

// MultiChoiceKind accepts a subset of an enumerated choice set. Canonical
// representation is []string in input order with duplicates removed.
type MultiChoiceKind struct {
	Choices []string
}

func (MultiChoiceKind) isKind() {}

// Name implements Kind.
func (MultiChoiceKind) Name() string { return "multichoice" }

// Validate implements Kind.
func (k MultiChoiceKind) Validate(v any) (any, error) {
	var members []any
	switch vv := v.(type) {
	case []string:
		members = make([]any, len(vv))
		for i, s := range vv {
			members[i] = s
		}
	case []any:
		members = vv
	case string:
		return k.Parse(vv)
	default:
		return nil, fmt.Errorf("expected a list of choices, got %T", v)
	}

	seen := make(map[string]bool, len(members))
	out := make([]string, 0, len(members))
	for _, m := range members {
		s, ok := m.(string)
		if !ok {
			return nil, fmt.Errorf("expected a choice string, got %T", m)
		}
		if !k.contains(s) {
			return nil, fmt.Errorf("%q is not one of %v", s, k.Choices)
		}
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out, nil
}

// Parse implements Kind; raw input is a comma-separated list of choices.
func (k MultiChoiceKind) Parse(raw string) (any, error) {
	parts := strings.Split(raw, ",")
	members := make([]any, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			members = append(members, p)
		}
	}
	return k.Validate(members)
}

func (k MultiChoiceKind) contains(s string) bool {
	for _, c := range k.Choices {
		if s == c {
			return true
		}
	}
	return false
}

// TimestampKind accepts point-in-time answers. Canonical representation is
// time.Time; the textual form is RFC 3339.
type TimestampKind struct{}

func (TimestampKind) isKind() {}

// Name implements Kind.
func (TimestampKind) Name() string { return "timestamp" }

// Validate implements Kind.
func (TimestampKind) Validate(v any) (any, error) {
	switch ts := v.(type) {
	case time.Time:
		return ts, nil
	case string:
		return TimestampKind{}.Parse(ts)
	}
	return nil, fmt.Errorf("expected a timestamp, got %T", v)
}

// Parse implements Kind.
func (TimestampKind) Parse(raw string) (any, error) {
	ts, err := time.Parse(time.RFC3339, strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("%q is not an RFC 3339 timestamp", raw)
	}
	return ts, nil
}

// KindByName resolves a kind identifier (as produced by Kind.Name) back to a
// concrete kind. Choice kinds require the enumerated choice set.
func KindByName(name string, choices []string) (Kind, error) {
	switch name {
	case "bool":
		return BoolKind{}, nil
	case "int":
		return IntKind{}, nil
	case "float":
		return FloatKind{}, nil
	case "str":
		return TextKind{}, nil
	case "choice":
		if len(choices) == 0 {
			return nil, fmt.Errorf("kind %q requires choices", name)
		}
		return ChoiceKind{Choices: choices}, nil
	case "multichoice":
		if len(choices) == 0 {
			return nil, fmt.Errorf("kind %q requires choices", name)
		}
		return MultiChoiceKind{Choices: choices}, nil
	case "timestamp":
		return TimestampKind{}, nil
	default:
		return nil, fmt.Errorf("unknown task kind %q", name)
	}
}

// InferKind derives a kind from a sample of cell values, used when tasks are
// reconstructed from a previously exported table. Nil cells are skipped; a
// column of only nils infers free text.
func InferKind(values []any) Kind {
	var inferred Kind
	for _, v := range values {
		if v == nil {
			continue
		}
		k := kindOf(v)
		switch {
		case inferred == nil:
			inferred = k
		case inferred.Name() == k.Name():
			// consistent column
		case inferred.Name() == "int" && k.Name() == "float",
			inferred.Name() == "float" && k.Name() == "int":
			inferred = FloatKind{}
		default:
			return TextKind{}
		}
	}
	if inferred == nil {
		return TextKind{}
	}
	return inferred
}

func kindOf(v any) Kind {
	switch v.(type) {
	case bool:
		return BoolKind{}
	case int, int32, int64:
		return IntKind{}
	case float32, float64:
		return FloatKind{}
	case time.Time:
		return TimestampKind{}
	default:
		return TextKind{}
	}
}
