package validation

const (
	catalogSchemaURL = "https://pipetrace.dev/schemas/catalog.json"
	recordSchemaURL  = "https://pipetrace.dev/schemas/record.json"
)

// catalogSchemaJSON is the JSON Schema for CatalogDocument.
const catalogSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://pipetrace.dev/schemas/catalog.json",
  "type": "object",
  "required": ["steps"],
  "properties": {
    "version": {
      "type": "string",
      "pattern": "^[0-9]+(\\.[0-9]+)*$"
    },
    "steps": {
      "type": "array",
      "minItems": 1,
      "maxItems": 5,
      "items": { "$ref": "#/$defs/entry" }
    },
    "options_schema": {
      "type": "object"
    }
  },
  "additionalProperties": false,
  "$defs": {
    "step_id": {
      "type": "string",
      "enum": ["classification", "search", "generation", "confidence", "followup"]
    },
    "entry": {
      "type": "object",
      "required": ["id", "label"],
      "properties": {
        "id": { "$ref": "#/$defs/step_id" },
        "label": { "type": "string" },
        "enabled_when": { "type": "string" },
        "summary": { "type": "string" },
        "escalate_when": { "type": "string" }
      },
      "additionalProperties": false
    }
  }
}`

// recordSchemaJSON is the JSON Schema for one journal line.
const recordSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://pipetrace.dev/schemas/record.json",
  "type": "object",
  "required": ["type"],
  "properties": {
    "type": {
      "type": "string",
      "enum": ["RESET", "START", "STEP_START", "STEP_COMPLETE", "STEP_ERROR",
               "STEP_UPDATE", "STEP_SKIP", "COMPLETE", "ERROR"]
    },
    "id": { "type": "string", "minLength": 1 },
    "enabled": {
      "type": "array",
      "items": { "type": "string", "minLength": 1 }
    },
    "data": {},
    "raw": { "type": "boolean" },
    "error": { "type": "string" },
    "at": { "type": "string", "format": "date-time" }
  },
  "additionalProperties": false,
  "allOf": [
    {
      "if": {
        "properties": { "type": { "enum": ["STEP_START", "STEP_COMPLETE", "STEP_ERROR", "STEP_UPDATE", "STEP_SKIP"] } }
      },
      "then": { "required": ["id"] }
    },
    {
      "if": { "properties": { "type": { "const": "STEP_UPDATE" } } },
      "then": { "required": ["data"] }
    }
  ]
}`
