package model

import "github.com/google/jsonschema-go/jsonschema"

// ToolSpec describes a tool advertised to the language model
type ToolSpec struct {
	Name        string
	Description string
	Parameters  *jsonschema.Schema
}
