package schema

import "fmt"

// Kind is the JSON Schema `type` of a node.
type Kind string

const (
	KindObject  Kind = "object"
	KindArray   Kind = "array"
	KindString  Kind = "string"
	KindNumber  Kind = "number"
	KindInteger Kind = "integer"
	KindBoolean Kind = "boolean"
	KindNull    Kind = "null"
	// KindFile is the Swagger 2.0 response type for binary payloads.
	KindFile Kind = "file"
)

func (k Kind) valid() bool {
	switch k {
	case KindObject, KindArray, KindString, KindNumber, KindInteger, KindBoolean, KindNull, KindFile:
		return true
	}
	return false
}

// Node is a typed view over one level of a resolved schema. Children stay
// raw and are parsed on demand.
type Node struct {
	Kind       Kind
	Example    any
	HasExample bool
	// Truncated is set on recursive-ref sentinels.
	Truncated bool

	Properties map[string]map[string]any
	// AdditionalProperties is nil unless it is a schema (not a boolean).
	AdditionalProperties map[string]any
	Items                map[string]any

	AllOf []map[string]any
	OneOf []map[string]any
	AnyOf []map[string]any

	Raw map[string]any
}

// IsComposite reports whether the node is an allOf/oneOf/anyOf composition.
func (n *Node) IsComposite() bool {
	return len(n.AllOf) > 0 || len(n.OneOf) > 0 || len(n.AnyOf) > 0
}

// ParseNode validates the shape of one schema level. A node needs a `type`
// unless it carries an `example`, is a sentinel, or is a composition.
func ParseNode(v any) (*Node, error) {
	raw, ok := v.(map[string]any)
	if !ok {
		return nil, &SchemaShapeError{Node: v, Message: fmt.Sprintf("schema node must be a mapping, got %T", v)}
	}

	n := &Node{Raw: raw}
	if IsSentinel(raw) {
		n.Truncated = true
		return n, nil
	}
	if ex, ok := raw["example"]; ok {
		n.Example = ex
		n.HasExample = true
	}

	kind, err := parseKind(raw)
	if err != nil {
		return nil, err
	}
	n.Kind = kind

	for key, dst := range map[string]*[]map[string]any{"allOf": &n.AllOf, "oneOf": &n.OneOf, "anyOf": &n.AnyOf} {
		list, err := schemaList(raw, key)
		if err != nil {
			return nil, err
		}
		*dst = list
	}

	if n.Kind == "" && !n.HasExample && !n.IsComposite() {
		return nil, &SchemaShapeError{Node: raw, Message: "schema node has no `type`"}
	}

	if props, ok := raw["properties"]; ok {
		pm, ok := props.(map[string]any)
		if !ok {
			return nil, &SchemaShapeError{Node: raw, Message: "`properties` must be a mapping"}
		}
		n.Properties = make(map[string]map[string]any, len(pm))
		for name, p := range pm {
			child, ok := p.(map[string]any)
			if !ok {
				return nil, &SchemaShapeError{Node: raw, Message: fmt.Sprintf("property %q must be a schema", name)}
			}
			n.Properties[name] = child
		}
	}

	if ap, ok := raw["additionalProperties"].(map[string]any); ok {
		n.AdditionalProperties = ap
	}

	if items, ok := raw["items"]; ok {
		im, ok := items.(map[string]any)
		if !ok {
			return nil, &SchemaShapeError{Node: raw, Message: "`items` must be a schema"}
		}
		n.Items = im
	}
	if n.Kind == KindArray && n.Items == nil && !n.HasExample {
		return nil, &SchemaShapeError{Node: raw, Message: "array schema has no `items`"}
	}

	return n, nil
}

func parseKind(raw map[string]any) (Kind, error) {
	t, ok := raw["type"]
	if !ok {
		return "", nil
	}

	var kind Kind
	switch tv := t.(type) {
	case string:
		kind = Kind(tv)
	case []any:
		// OpenAPI 3.1 type arrays: prefer the first non-null entry.
		for _, item := range tv {
			s, ok := item.(string)
			if !ok {
				continue
			}
			if kind == "" || kind == KindNull {
				kind = Kind(s)
			}
		}
	default:
		return "", &SchemaShapeError{Node: raw, Message: fmt.Sprintf("`type` must be a string, got %T", t)}
	}

	if !kind.valid() {
		return "", &SchemaShapeError{Node: raw, Message: fmt.Sprintf("unknown schema type %q", kind)}
	}
	return kind, nil
}

func schemaList(raw map[string]any, key string) ([]map[string]any, error) {
	v, ok := raw[key]
	if !ok {
		return nil, nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil, &SchemaShapeError{Node: raw, Message: fmt.Sprintf("`%s` must be a list", key)}
	}
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, &SchemaShapeError{Node: raw, Message: fmt.Sprintf("`%s` entries must be schemas", key)}
		}
		out = append(out, m)
	}
	return out, nil
}
