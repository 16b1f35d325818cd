package main

import (
	"bytes"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/inoxlang/tickscript/internal/core"
	"github.com/inoxlang/tickscript/internal/hosttypes"
	"golang.org/x/exp/maps"
)

const ENTITY_REFERENCE_PREFIX = "@"

var ErrInvalidValue = errors.New("invalid value")

// parseValue converts the text of a console argument to a value: JSON literals are converted to the
// corresponding values (objects become maps with their keys in natural order) and @<uuid> refers to a live entity.
func parseValue(s string, entities *hosttypes.EntityRegistry) (core.Value, error) {
	s = strings.TrimSpace(s)

	if ref, ok := strings.CutPrefix(s, ENTITY_REFERENCE_PREFIX); ok {
		id, err := uuid.Parse(ref)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidValue, err)
		}
		e, ok := entities.Get(id)
		if !ok {
			return nil, fmt.Errorf("%w: %s", hosttypes.ErrEntityNotFound, id)
		}
		return e, nil
	}

	decoder := json.NewDecoder(bytes.NewReader([]byte(s)))
	decoder.UseNumber()

	var v any
	if err := decoder.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidValue, err)
	}
	if decoder.More() {
		return nil, fmt.Errorf("%w: unexpected data after the value", ErrInvalidValue)
	}
	return convertJSONValue(v)
}

func convertJSONValue(v any) (core.Value, error) {
	switch val := v.(type) {
	case nil:
		return core.NULL, nil
	case bool:
		return core.Bool(val), nil
	case string:
		return core.String(val), nil
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return core.Int(i), nil
		}
		f, err := val.Float64()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidValue, err)
		}
		return core.Float(f), nil
	case []any:
		elements := make([]core.Value, 0, len(val))
		for _, e := range val {
			converted, err := convertJSONValue(e)
			if err != nil {
				return nil, err
			}
			elements = append(elements, converted)
		}
		return core.NewList(elements...), nil
	case map[string]any:
		keys := maps.Keys(val)
		slices.SortFunc(keys, naturalCompare)

		m := core.NewMap()
		for _, k := range keys {
			converted, err := convertJSONValue(val[k])
			if err != nil {
				return nil, err
			}
			m.Set(k, converted)
		}
		return m, nil
	}
	return nil, fmt.Errorf("%w: %T", ErrInvalidValue, v)
}
