package hypothesis

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// customSchema constrains operator-supplied hypothesis documents before a
// custom run starts. Unknown fields are rejected so typos fail loudly instead
// of silently running the default behavior.
const customSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "additionalProperties": false,
  "required": ["id", "name", "price", "bribeBudget", "bribeAmount", "bribeRound", "cartelChance", "paywallStrict"],
  "properties": {
    "id": {"type": "integer", "minimum": 1},
    "name": {"type": "string", "minLength": 1},
    "description": {"type": "string"},
    "price": {"type": "number", "minimum": 0},
    "bribeBudget": {"type": "number", "minimum": 0},
    "bribeAmount": {"type": "number", "minimum": 0},
    "bribeRound": {"type": "integer", "minimum": 1},
    "cartelChance": {"type": "number", "minimum": 0, "maximum": 1},
    "whistleblower": {"type": "boolean"},
    "whistleblowerRound": {"type": "integer", "minimum": 1},
    "paywallStrict": {"type": "boolean"}
  }
}`

var compiledSchema = jsonschema.MustCompileString("hypothesis.schema.json", customSchema)

// ParseCustom validates a raw JSON hypothesis document against the schema and
// decodes it. The returned hypothesis also passes Validate.
func ParseCustom(raw json.RawMessage) (Hypothesis, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Hypothesis{}, fmt.Errorf("parse custom hypothesis: %w", err)
	}
	if err := compiledSchema.Validate(doc); err != nil {
		return Hypothesis{}, fmt.Errorf("invalid custom hypothesis: %w", err)
	}

	var h Hypothesis
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&h); err != nil {
		return Hypothesis{}, fmt.Errorf("decode custom hypothesis: %w", err)
	}
	if err := h.Validate(); err != nil {
		return Hypothesis{}, fmt.Errorf("invalid custom hypothesis: %w", err)
	}
	return h, nil
}
