package services

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// wireRecord is the JSON shape the model must emit for one message.
// It mirrors domain.ChatRecord but keeps Message as a pointer so a missing
// key is distinguishable from an empty string during validation, and Role
// as a plain string so alien values can be coerced instead of rejected.
type wireRecord struct {
	Time    *string `json:"time"    jsonschema:"oneof_type=string;null"`
	Speaker string  `json:"speaker"`
	Role    string  `json:"role"    jsonschema:"enum=Agent,enum=User,enum=Unknown"`
	Message *string `json:"message"`
}

// recordArraySchema builds the grammar constraint for chunk parsing:
// a JSON array of objects with exactly the four recognised keys.
func recordArraySchema() (json.RawMessage, error) {
	r := &jsonschema.Reflector{
		DoNotReference: true,
		Anonymous:      true,
	}

	item := r.Reflect(&wireRecord{})
	item.Version = ""

	schema := &jsonschema.Schema{
		Type:  "array",
		Items: item,
	}

	data, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("marshal record schema: %w", err)
	}
	return data, nil
}

// stringArraySchema builds the grammar constraint for segmentation:
// a JSON array of strings, one per conversation.
func stringArraySchema() (json.RawMessage, error) {
	schema := &jsonschema.Schema{
		Type:  "array",
		Items: &jsonschema.Schema{Type: "string"},
	}

	data, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("marshal segment schema: %w", err)
	}
	return data, nil
}
