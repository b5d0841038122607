package relaylib

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/qri-io/jsonschema"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

var completionRequestJSONSchema = func() *jsonschema.Schema {
	data := `{
        "type": "object",
        "required": [
            "messages"
        ],
        "additionalProperties": false,
        "properties": {
            "model": {
                "type": "string",
                "minLength": 1,
                "maxLength": 128
            },
            "messages": {
                "type": "array",
                "minItems": 1,
                "items": {
                    "type": "object",
                    "required": [
                        "role",
                        "content"
                    ],
                    "additionalProperties": false,
                    "properties": {
                        "role": {
                            "type": "string",
                            "enum": ["system", "user", "assistant"]
                        },
                        "content": {
                            "type": "string"
                        }
                    }
                }
            },
            "temperature": {
                "type": "number",
                "minimum": 0,
                "maximum": 2
            },
            "top_p": {
                "type": "number",
                "minimum": 0,
                "maximum": 1
            },
            "max_tokens": {
                "type": "integer",
                "minimum": 1
            }
        }
    }`

	rv := &jsonschema.Schema{}
	if err := json.Unmarshal([]byte(data), rv); err != nil {
		panic(err)
	}

	return rv
}()

// ParseCompletionRequest validates raw JSON document against a strict
// schema and builds a request out of it. Nothing else is accepted: no
// unknown fields, no unknown roles.
func ParseCompletionRequest(ctx context.Context, raw []byte) (CompletionRequest, error) {
	rv := CompletionRequest{}

	errs, err := completionRequestJSONSchema.ValidateBytes(ctx, raw)
	if err != nil {
		return rv, fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}

	if len(errs) > 0 {
		return rv, fmt.Errorf("%w: %s", ErrInvalidParams, errs[0].Error())
	}

	if err := json.Unmarshal(raw, &rv); err != nil {
		return rv, fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}

	return rv, nil
}

// NewPromptRequest makes a request of a single user message.
func NewPromptRequest(prompt string) CompletionRequest {
	return CompletionRequest{
		Messages: []Message{
			{Role: RoleUser, Content: prompt},
		},
	}
}
