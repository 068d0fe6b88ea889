package domain

import (
	"encoding/json"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// inputFields is TransactionInput without its decode hooks.
type inputFields TransactionInput

// UnmarshalJSON decodes a record. A field of the wrong type does not fail
// the surrounding document; it is kept on DecodeErr so a batch can reject
// the one record and score the rest. Syntax errors still fail the decode.
func (in *TransactionInput) UnmarshalJSON(data []byte) error {
	var fields inputFields
	err := json.Unmarshal(data, &fields)

	var typeErr *json.UnmarshalTypeError
	switch {
	case err == nil:
		*in = TransactionInput(fields)
	case errors.As(err, &typeErr):
		*in = TransactionInput(fields)
		field := typeErr.Field
		if field == "" {
			field = FieldRecord
		}
		in.DecodeErr = InvalidField(field, fmt.Errorf("cannot use JSON %s as %s", typeErr.Value, typeErr.Type))
	default:
		return err
	}
	return nil
}

// UnmarshalYAML is the YAML counterpart of UnmarshalJSON.
func (in *TransactionInput) UnmarshalYAML(value *yaml.Node) error {
	var fields inputFields
	err := value.Decode(&fields)

	var typeErr *yaml.TypeError
	switch {
	case err == nil:
		*in = TransactionInput(fields)
	case errors.As(err, &typeErr):
		*in = TransactionInput(fields)
		in.DecodeErr = InvalidField(failingYAMLKey(value), typeErr)
	default:
		return err
	}
	return nil
}

// failingYAMLKey finds the first mapping key whose value does not decode.
func failingYAMLKey(value *yaml.Node) string {
	if value.Kind != yaml.MappingNode {
		return FieldRecord
	}
	for i := 0; i+1 < len(value.Content); i += 2 {
		pair := &yaml.Node{
			Kind:    yaml.MappingNode,
			Tag:     "!!map",
			Content: value.Content[i : i+2],
		}
		var fields inputFields
		if err := pair.Decode(&fields); err != nil {
			return value.Content[i].Value
		}
	}
	return FieldRecord
}
