// Package prompt holds the prompt templates behind every flow. Templates are
// JSON documents; a built-in set is embedded in the binary and a resources
// directory can override any of them at startup.
package prompt

import (
	"encoding/json"
	"fmt"
)

// PromptTemplate represents a reusable prompt with metadata
type PromptTemplate struct {
	ID               string           `json:"id"`                   // Unique identifier (e.g., "flows.diagnose_plant")
	Name             string           `json:"name"`                 // Human-readable name
	Category         string           `json:"category"`             // Folder the template lives in (flows, assistant)
	Description      string           `json:"description"`          // Description of prompt purpose
	SystemPrompt     string           `json:"system_prompt"`        // The system prompt content
	UserPromptTmpl   string           `json:"user_prompt_template"` // Go template for user prompt
	ResponseSchemaID string           `json:"response_schema_ref"`  // Reference to response schema
	Variables        []PromptVariable `json:"variables"`            // Variables used in template
	Version          string           `json:"version"`              // Version for tracking changes
}

// PromptVariable defines a variable used in a prompt template
type PromptVariable struct {
	Name        string `json:"name"`        // Variable name (e.g., "Language")
	Type        string `json:"type"`        // Type: string, int, array, object
	Description string `json:"description"` // What this variable represents
	Required    bool   `json:"required"`    // Whether this variable is required
	Default     string `json:"default"`     // Default value if not provided
}

// ResponseSchema represents the expected JSON response structure
type ResponseSchema struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	JSONSchema  string   `json:"json_schema"` // JSON Schema definition as string
	Required    []string `json:"-"`           // Top-level required properties
}

// ParseSchema reads a JSON Schema document and records its top-level
// required properties.
func ParseSchema(id string, data []byte) (*ResponseSchema, error) {
	var doc struct {
		Required []string `json:"required"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid schema %s: %w", id, err)
	}
	return &ResponseSchema{ID: id, Name: id, JSONSchema: string(data), Required: doc.Required}, nil
}

// PromptExecutionContext holds runtime values for prompt execution
type PromptExecutionContext struct {
	Variables map[string]interface{}
}

// NewContext creates a new execution context
func NewContext() *PromptExecutionContext {
	return &PromptExecutionContext{
		Variables: make(map[string]interface{}),
	}
}

// Set adds a variable to the context
func (c *PromptExecutionContext) Set(key string, value interface{}) *PromptExecutionContext {
	c.Variables[key] = value
	return c
}

// Has reports whether key was set to a non-empty value.
func (c *PromptExecutionContext) Has(key string) bool {
	v, ok := c.Variables[key]
	if !ok || v == nil {
		return false
	}
	if s, isString := v.(string); isString {
		return s != ""
	}
	return true
}
