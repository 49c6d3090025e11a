package approval

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// toolSchemas holds the input contract for every tool the backend may
// propose. An action whose tool is absent here is not approvable.
var toolSchemas = map[string]string{
	"file.search": `{
		"type": "object",
		"properties": {"query": {"type": "string", "minLength": 1}},
		"required": ["query"]
	}`,
	"ops.summary": `{"type": "object"}`,
	"files.scan": `{
		"type": "object",
		"properties": {"paths": {"type": "array", "items": {"type": "string"}}}
	}`,
	"email.fetch": `{
		"type": "object",
		"properties": {
			"limit": {"type": "integer", "minimum": 1, "maximum": 50},
			"mailbox": {"type": ["string", "null"]}
		}
	}`,
	"news.headlines": `{"type": "object"}`,
	"task.create": `{
		"type": "object",
		"properties": {
			"title": {"type": "string", "minLength": 1},
			"due_date": {"type": ["string", "null"]},
			"course": {"type": ["string", "null"]},
			"url": {"type": ["string", "null"]}
		},
		"required": ["title"]
	}`,
	"notify.send": `{
		"type": "object",
		"properties": {
			"title": {"type": "string", "minLength": 1},
			"message": {"type": "string", "minLength": 1},
			"click_url": {"type": ["string", "null"]}
		},
		"required": ["title", "message"]
	}`,
	"web.search": `{
		"type": "object",
		"properties": {
			"q": {"type": "string", "minLength": 2},
			"limit": {"type": "integer", "minimum": 1, "maximum": 10}
		},
		"required": ["q"]
	}`,
}

// compileToolSchemas compiles every entry of toolSchemas once at gate
// construction.
func compileToolSchemas() (map[string]*jsonschema.Schema, error) {
	compiled := make(map[string]*jsonschema.Schema, len(toolSchemas))
	for name, src := range toolSchemas {
		doc, err := jsonschema.UnmarshalJSON(strings.NewReader(src))
		if err != nil {
			return nil, fmt.Errorf("unmarshal schema for %s: %w", name, err)
		}
		c := jsonschema.NewCompiler()
		resource := name + ".json"
		if err := c.AddResource(resource, doc); err != nil {
			return nil, fmt.Errorf("add schema resource for %s: %w", name, err)
		}
		schema, err := c.Compile(resource)
		if err != nil {
			return nil, fmt.Errorf("compile schema for %s: %w", name, err)
		}
		compiled[name] = schema
	}
	return compiled, nil
}

// validateInput checks a proposed action's input against its tool contract.
func (g *Gate) validateInput(toolName string, input map[string]any) error {
	schema, ok := g.schemas[toolName]
	if !ok {
		// Tools outside the catalog pass through unvalidated; the backend
		// is the authority on what it will execute.
		return nil
	}
	if input == nil {
		input = map[string]any{}
	}
	// Round-trip through jsonschema's decoder so numbers validate as
	// json.Number rather than float64.
	raw, err := json.Marshal(input)
	if err != nil {
		return fmt.Errorf("encode input: %w", err)
	}
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(string(raw)))
	if err != nil {
		return fmt.Errorf("decode input: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("input for %s: %w", toolName, err)
	}
	return nil
}
