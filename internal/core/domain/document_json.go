package domain

import (
	"encoding/json"
	"fmt"

	"github.com/buger/jsonparser"
)

// ParseDocument decodes a JSON object keeping the source key order at every
// level. A repeated key keeps its first position and its last value.
func ParseDocument(data []byte) (*Node, error) {
	if !json.Valid(data) {
		return nil, fmt.Errorf("parse document: %w: malformed json", ErrInvalidInput)
	}
	value, dataType, _, err := jsonparser.Get(data)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	if dataType != jsonparser.Object {
		return nil, fmt.Errorf("parse document: %w: top-level value is %s, want object", ErrInvalidInput, dataType)
	}
	return parseObject(value)
}

func parseObject(data []byte) (*Node, error) {
	node := NewNode()
	err := jsonparser.ObjectEach(data, func(rawKey []byte, raw []byte, dataType jsonparser.ValueType, _ int) error {
		key, err := jsonparser.ParseString(rawKey)
		if err != nil {
			return fmt.Errorf("key %q: %w", rawKey, err)
		}
		value, err := parseValue(raw, dataType)
		if err != nil {
			return fmt.Errorf("field %q: %w", key, err)
		}
		node.Set(key, value)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return node, nil
}

func parseValue(raw []byte, dataType jsonparser.ValueType) (any, error) {
	switch dataType {
	case jsonparser.Object:
		return parseObject(raw)
	case jsonparser.Array:
		items := make([]any, 0)
		var itemErr error
		_, err := jsonparser.ArrayEach(raw, func(value []byte, valueType jsonparser.ValueType, _ int, err error) {
			if itemErr != nil {
				return
			}
			if err != nil {
				itemErr = err
				return
			}
			item, err := parseValue(value, valueType)
			if err != nil {
				itemErr = err
				return
			}
			items = append(items, item)
		})
		if err != nil {
			return nil, err
		}
		if itemErr != nil {
			return nil, itemErr
		}
		return items, nil
	case jsonparser.Number:
		return jsonparser.ParseFloat(raw)
	case jsonparser.String:
		return jsonparser.ParseString(raw)
	case jsonparser.Boolean:
		return jsonparser.ParseBoolean(raw)
	case jsonparser.Null:
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported json value type %s", dataType)
	}
}
