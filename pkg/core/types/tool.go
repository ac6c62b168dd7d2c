package types

// Tool describes a function exposed to the realtime model.
//
// The realtime API expects tools declared inline in the session config with
// type "function" and a JSON Schema under "parameters".
type Tool struct {
	Type        string      `json:"type"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Parameters  *JSONSchema `json:"parameters,omitempty"`
}

// ToolTypeFunction is the only tool type the realtime session accepts.
const ToolTypeFunction = "function"

// NewFunctionTool creates a new function tool.
func NewFunctionTool(name, description string, schema *JSONSchema) Tool {
	return Tool{
		Type:        ToolTypeFunction,
		Name:        name,
		Description: description,
		Parameters:  schema,
	}
}

// JSONSchema describes tool parameters.
type JSONSchema struct {
	Type                 string                `json:"type"`
	Properties           map[string]JSONSchema `json:"properties,omitempty"`
	Required             []string              `json:"required,omitempty"`
	Description          string                `json:"description,omitempty"`
	Enum                 []string              `json:"enum,omitempty"`
	Items                *JSONSchema           `json:"items,omitempty"`
	AdditionalProperties *bool                 `json:"additionalProperties,omitempty"`
}

// ObjectSchema builds an object schema from properties and required names.
func ObjectSchema(properties map[string]JSONSchema, required ...string) *JSONSchema {
	return &JSONSchema{
		Type:       "object",
		Properties: properties,
		Required:   required,
	}
}
