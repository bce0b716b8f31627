package provider

// Type is a JSON schema primitive type.
type Type string

const (
	TypeObject  Type = "object"
	TypeArray   Type = "array"
	TypeString  Type = "string"
	TypeNumber  Type = "number"
	TypeInteger Type = "integer"
	TypeBoolean Type = "boolean"
)

// Schema is a vendor neutral subset of JSON schema: enough to describe a
// fixed shape record with enums and nullable fields.
type Schema struct {
	Type        Type
	Description string
	Enum        []string
	Nullable    bool
	Items       *Schema
	Properties  map[string]*Schema
	// Order lists property names in declaration order. Properties missing
	// from Order are appended in map order.
	Order    []string
	Required []string
}

// propertyNames returns Order followed by any remaining property names.
func (s *Schema) propertyNames() []string {
	seen := make(map[string]bool, len(s.Properties))
	names := make([]string, 0, len(s.Properties))
	for _, n := range s.Order {
		if _, ok := s.Properties[n]; ok && !seen[n] {
			names = append(names, n)
			seen[n] = true
		}
	}
	for n := range s.Properties {
		if !seen[n] {
			names = append(names, n)
		}
	}
	return names
}

// ToJSONSchema renders s as a JSON schema document in the strict dialect
// OpenAI requires: every property is required, nullable fields use a type
// union with "null", and objects forbid additional properties.
func (s *Schema) ToJSONSchema() map[string]any {
	if s == nil {
		return map[string]any{}
	}
	out := map[string]any{}
	if s.Nullable {
		out["type"] = []string{string(s.Type), "null"}
	} else {
		out["type"] = string(s.Type)
	}
	if s.Description != "" {
		out["description"] = s.Description
	}
	if len(s.Enum) > 0 {
		enum := make([]any, 0, len(s.Enum)+1)
		for _, e := range s.Enum {
			enum = append(enum, e)
		}
		if s.Nullable {
			enum = append(enum, nil)
		}
		out["enum"] = enum
	}
	if s.Items != nil {
		out["items"] = s.Items.ToJSONSchema()
	}
	if s.Type == TypeObject {
		names := s.propertyNames()
		props := make(map[string]any, len(names))
		for _, n := range names {
			props[n] = s.Properties[n].ToJSONSchema()
		}
		out["properties"] = props
		out["required"] = names
		out["additionalProperties"] = false
	}
	return out
}
