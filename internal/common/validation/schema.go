// internal/common/validation/schema.go
package validation

import (
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// Schema names known to the engine.
const (
	SchemaBidSubmitted     = "bid-submitted"
	SchemaEvaluateJobInput = "evaluate-job-bids"
	SchemaTransitionInput  = "transition-job-status"
)

const bidSubmittedSchema = `{
  "type": "object",
  "required": ["bidId"],
  "properties": {
    "bidId": {"type": "string", "minLength": 1},
    "jobId": {"type": "string"},
    "submittedAt": {"type": "string"}
  }
}`

const evaluateJobInputSchema = `{
  "type": "object",
  "required": ["jobId"],
  "properties": {
    "jobId": {"type": "string", "minLength": 1},
    "requestedBy": {"type": "string"}
  }
}`

const transitionInputSchema = `{
  "type": "object",
  "required": ["jobId", "toStatus", "actorId"],
  "properties": {
    "jobId": {"type": "string", "minLength": 1},
    "toStatus": {
      "type": "string",
      "enum": ["DRAFT", "OPEN", "AWARDED", "IN_PROGRESS", "COMPLETED", "DISPUTED", "PAID", "CANCELLED", "CLOSED"]
    },
    "actorId": {"type": "string", "minLength": 1},
    "notes": {"type": "string"}
  }
}`

var builtin = map[string]string{
	SchemaBidSubmitted:     bidSubmittedSchema,
	SchemaEvaluateJobInput: evaluateJobInputSchema,
	SchemaTransitionInput:  transitionInputSchema,
}

// Source returns the JSON text of a built-in schema.
func Source(name string) (string, bool) {
	src, ok := builtin[name]
	return src, ok
}

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Validator holds compiled JSON schemas keyed by name.
type Validator struct {
	mu      sync.RWMutex
	schemas map[string]*gojsonschema.Schema
}

// NewValidator compiles the built-in schemas.
func NewValidator() (*Validator, error) {
	v := &Validator{schemas: make(map[string]*gojsonschema.Schema)}
	for name, src := range builtin {
		if err := v.Register(name, src); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// Register compiles and stores a schema under name.
func (v *Validator) Register(name, schemaJSON string) error {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		return fmt.Errorf("compile schema %s: %w", name, err)
	}
	v.mu.Lock()
	v.schemas[name] = schema
	v.mu.Unlock()
	return nil
}

// ValidateJSON validates a raw JSON document.
func (v *Validator) ValidateJSON(name string, doc []byte) (*ValidationResult, error) {
	return v.validate(name, gojsonschema.NewBytesLoader(doc))
}

// ValidateDocument validates an already decoded value (map, struct).
func (v *Validator) ValidateDocument(name string, doc interface{}) (*ValidationResult, error) {
	return v.validate(name, gojsonschema.NewGoLoader(doc))
}

func (v *Validator) validate(name string, loader gojsonschema.JSONLoader) (*ValidationResult, error) {
	v.mu.RLock()
	schema, ok := v.schemas[name]
	v.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown schema: %s", name)
	}

	result, err := schema.Validate(loader)
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   desc.Field(),
			Message: desc.Description(),
			Code:    strings.ToUpper(desc.Type()),
		})
	}
	return out, nil
}

// GetErrorMessages flattens the errors into "field: message" strings.
func (vr *ValidationResult) GetErrorMessages() []string {
	msgs := make([]string, 0, len(vr.Errors))
	for _, e := range vr.Errors {
		msgs = append(msgs, fmt.Sprintf("%s: %s", e.Field, e.Message))
	}
	return msgs
}

// HasErrors reports whether any error concerns field.
func (vr *ValidationResult) HasErrors(field string) bool {
	for _, e := range vr.Errors {
		if e.Field == field {
			return true
		}
	}
	return false
}

// Error joins the messages, for wrapping into an invalid-input error.
func (vr *ValidationResult) Error() string {
	return strings.Join(vr.GetErrorMessages(), "; ")
}
