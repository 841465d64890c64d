package model

import (
	"bytes"
	"encoding/json"
	"fmt"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// schemaBaseURL only names the in-memory resources; nothing is fetched.
const schemaBaseURL = "https://tasklist.invalid/schema/"

const taskSchemaJSON = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"properties": {
		"id": {"type": "string", "minLength": 1},
		"_id": {"type": "string", "minLength": 1},
		"title": {"type": "string"},
		"completed": {"type": "boolean"}
	},
	"anyOf": [
		{"required": ["id"]},
		{"required": ["_id"]}
	]
}`

const taskListSchemaJSON = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "array",
	"items": {"$ref": "task.json"}
}`

const createRequestSchemaJSON = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"properties": {
		"title": {"type": "string", "minLength": 1, "pattern": "\\S"}
	},
	"required": ["title"],
	"additionalProperties": false
}`

const updateRequestSchemaJSON = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"properties": {
		"title": {"type": "string", "minLength": 1, "pattern": "\\S"},
		"completed": {"type": "boolean"}
	},
	"minProperties": 1,
	"additionalProperties": false
}`

var (
	taskSchema          *jsonschema.Schema
	taskListSchema      *jsonschema.Schema
	createRequestSchema *jsonschema.Schema
	updateRequestSchema *jsonschema.Schema
)

func init() {
	compiler := jsonschema.NewCompiler()
	resources := map[string]string{
		"task.json":           taskSchemaJSON,
		"task_list.json":      taskListSchemaJSON,
		"create_request.json": createRequestSchemaJSON,
		"update_request.json": updateRequestSchemaJSON,
	}
	for name, src := range resources {
		if err := compiler.AddResource(schemaBaseURL+name, bytes.NewReader([]byte(src))); err != nil {
			panic(fmt.Sprintf("add schema %s: %v", name, err))
		}
	}

	taskSchema = mustCompile(compiler, schemaBaseURL+"task.json")
	taskListSchema = mustCompile(compiler, schemaBaseURL+"task_list.json")
	createRequestSchema = mustCompile(compiler, schemaBaseURL+"create_request.json")
	updateRequestSchema = mustCompile(compiler, schemaBaseURL+"update_request.json")
}

func mustCompile(c *jsonschema.Compiler, name string) *jsonschema.Schema {
	s, err := c.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("compile schema %s: %v", name, err))
	}
	return s
}

// ValidateTaskJSON checks a single task payload
func ValidateTaskJSON(data []byte) error {
	return validate(taskSchema, data)
}

// ValidateTaskListJSON checks a task array payload
func ValidateTaskListJSON(data []byte) error {
	return validate(taskListSchema, data)
}

// ValidateCreateRequestJSON checks a POST /tasks body
func ValidateCreateRequestJSON(data []byte) error {
	return validate(createRequestSchema, data)
}

// ValidateUpdateRequestJSON checks a PUT /tasks/{id} body
func ValidateUpdateRequestJSON(data []byte) error {
	return validate(updateRequestSchema, data)
}

func validate(s *jsonschema.Schema, data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}
	if err := s.Validate(v); err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	return nil
}
