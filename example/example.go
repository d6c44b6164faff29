// Package example synthesizes representative payloads from resolved schema
// fragments, preferring the examples the schema declares.
package example

import (
	"fmt"

	"github.com/kolah/respec/schema"
)

// Synthesizer builds example values. The zero value is not usable; use New.
type Synthesizer struct {
	logger schema.Logger
}

// New creates a Synthesizer that reports placeholder values to logger.
func New(logger schema.Logger) *Synthesizer {
	return &Synthesizer{logger: schema.OrNop(logger)}
}

// Synthesize is shorthand for New(nil).Synthesize(fragment).
func Synthesize(fragment map[string]any) (any, error) {
	return New(nil).Synthesize(fragment)
}

// Synthesize returns an example value for fragment. Declared examples are
// returned verbatim; objects and arrays are built from their children and
// scalars without an example get a typed placeholder. Truncated recursive
// branches yield nil.
func (s *Synthesizer) Synthesize(fragment map[string]any) (any, error) {
	return s.value(fragment)
}

func (s *Synthesizer) value(raw any) (any, error) {
	n, err := schema.ParseNode(raw)
	if err != nil {
		return nil, err
	}

	switch {
	case n.Truncated:
		return nil, nil
	case n.HasExample:
		return n.Example, nil
	case len(n.AllOf) > 0:
		return s.merge(n)
	case len(n.OneOf) > 0:
		return s.value(n.OneOf[0])
	case len(n.AnyOf) > 0:
		return s.value(n.AnyOf[0])
	}

	switch n.Kind {
	case schema.KindObject:
		return s.object(n)
	case schema.KindArray:
		item, err := s.value(n.Items)
		if err != nil {
			return nil, err
		}
		return []any{item}, nil
	default:
		s.logger.Warn("Item is missing an explicit example value", "schema", n.Raw)
		return placeholder(n.Kind), nil
	}
}

func (s *Synthesizer) object(n *schema.Node) (any, error) {
	out := make(map[string]any, len(n.Properties))
	if n.Properties == nil {
		if n.AdditionalProperties == nil {
			return out, nil
		}
		v, err := s.value(n.AdditionalProperties)
		if err != nil {
			return nil, err
		}
		out[""] = v
		return out, nil
	}

	for name, prop := range n.Properties {
		v, err := s.value(prop)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", name, err)
		}
		out[name] = v
	}
	return out, nil
}

// merge combines allOf members. Object members contribute their keys; the
// last non-object member wins otherwise.
func (s *Synthesizer) merge(n *schema.Node) (any, error) {
	var (
		merged map[string]any
		last   any
	)
	for _, member := range n.AllOf {
		v, err := s.value(member)
		if err != nil {
			return nil, err
		}
		obj, ok := v.(map[string]any)
		if !ok {
			last = v
			continue
		}
		if merged == nil {
			merged = make(map[string]any, len(obj))
		}
		for k, val := range obj {
			merged[k] = val
		}
	}

	if n.Properties != nil {
		own, err := s.object(n)
		if err != nil {
			return nil, err
		}
		if merged == nil {
			merged = make(map[string]any)
		}
		for k, val := range own.(map[string]any) {
			merged[k] = val
		}
	}

	if merged != nil {
		return merged, nil
	}
	return last, nil
}

func placeholder(kind schema.Kind) any {
	switch kind {
	case schema.KindString, schema.KindFile:
		return ""
	case schema.KindInteger:
		return 0
	case schema.KindNumber:
		return 0.0
	case schema.KindBoolean:
		return false
	default:
		return nil
	}
}
