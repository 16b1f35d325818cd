package compound

import (
	"bytes"
	"errors"
	"fmt"
	"math"

	"github.com/goccy/go-json"
)

var (
	ErrMissingField     = errors.New("missing field")
	ErrInvalidFieldType = errors.New("invalid field type")
)

// A Compound is a tree of named fields, it is the serialized form of nodes, statements, values, scopes and programs.
// Field values are nil, bool, integers, floats, strings, Compounds and lists ([]any) of those.
type Compound map[string]any

func New() Compound {
	return Compound{}
}

func (c Compound) Has(key string) bool {
	_, ok := c[key]
	return ok
}

func (c Compound) Put(key string, value any) Compound {
	c[key] = value
	return c
}

func (c Compound) PutInt(key string, value int64) Compound {
	c[key] = value
	return c
}

func (c Compound) PutFloat(key string, value float64) Compound {
	c[key] = value
	return c
}

func (c Compound) PutString(key string, value string) Compound {
	c[key] = value
	return c
}

func (c Compound) PutBool(key string, value bool) Compound {
	c[key] = value
	return c
}

func (c Compound) PutCompound(key string, value Compound) Compound {
	c[key] = value
	return c
}

func (c Compound) PutCompounds(key string, values []Compound) Compound {
	list := make([]any, len(values))
	for i, v := range values {
		list[i] = v
	}
	c[key] = list
	return c
}

func (c Compound) PutStrings(key string, values []string) Compound {
	list := make([]any, len(values))
	for i, v := range values {
		list[i] = v
	}
	c[key] = list
	return c
}

func (c Compound) get(key string) (any, error) {
	v, ok := c[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMissingField, key)
	}
	return v, nil
}

func fieldTypeError(key string, expected string, v any) error {
	return fmt.Errorf("%w: field %q should be a %s, not a %T", ErrInvalidFieldType, key, expected, v)
}

func (c Compound) Int(key string) (int64, error) {
	v, err := c.get(key)
	if err != nil {
		return 0, err
	}
	i, ok := toInt(v)
	if !ok {
		return 0, fieldTypeError(key, "integer", v)
	}
	return i, nil
}

// IntOr returns the integer field or defaultValue if the field is absent.
func (c Compound) IntOr(key string, defaultValue int64) (int64, error) {
	if !c.Has(key) {
		return defaultValue, nil
	}
	return c.Int(key)
}

func (c Compound) Float(key string) (float64, error) {
	v, err := c.get(key)
	if err != nil {
		return 0, err
	}
	switch f := v.(type) {
	case float64:
		return f, nil
	case float32:
		return float64(f), nil
	case interface{ Float64() (float64, error) }: //json.Number
		return f.Float64()
	}
	if i, ok := toInt(v); ok {
		return float64(i), nil
	}
	return 0, fieldTypeError(key, "float", v)
}

func (c Compound) String(key string) (string, error) {
	v, err := c.get(key)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fieldTypeError(key, "string", v)
	}
	return s, nil
}

func (c Compound) Bool(key string) (bool, error) {
	v, err := c.get(key)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, fieldTypeError(key, "boolean", v)
	}
	return b, nil
}

// BoolOr returns the boolean field or false if the field is absent.
func (c Compound) BoolOr(key string) (bool, error) {
	if !c.Has(key) {
		return false, nil
	}
	return c.Bool(key)
}

func (c Compound) Compound(key string) (Compound, error) {
	v, err := c.get(key)
	if err != nil {
		return nil, err
	}
	compound, ok := asCompound(v)
	if !ok {
		return nil, fieldTypeError(key, "compound", v)
	}
	return compound, nil
}

func (c Compound) List(key string) ([]any, error) {
	v, err := c.get(key)
	if err != nil {
		return nil, err
	}
	switch l := v.(type) {
	case []any:
		return l, nil
	case []Compound:
		list := make([]any, len(l))
		for i, e := range l {
			list[i] = e
		}
		return list, nil
	case nil:
		return nil, nil
	}
	return nil, fieldTypeError(key, "list", v)
}

func (c Compound) Compounds(key string) ([]Compound, error) {
	list, err := c.List(key)
	if err != nil {
		return nil, err
	}
	compounds := make([]Compound, len(list))
	for i, e := range list {
		compound, ok := asCompound(e)
		if !ok {
			return nil, fieldTypeError(fmt.Sprintf("%s[%d]", key, i), "compound", e)
		}
		compounds[i] = compound
	}
	return compounds, nil
}

func (c Compound) Strings(key string) ([]string, error) {
	list, err := c.List(key)
	if err != nil {
		return nil, err
	}
	strings := make([]string, len(list))
	for i, e := range list {
		s, ok := e.(string)
		if !ok {
			return nil, fieldTypeError(fmt.Sprintf("%s[%d]", key, i), "string", e)
		}
		strings[i] = s
	}
	return strings, nil
}

func asCompound(v any) (Compound, bool) {
	switch m := v.(type) {
	case Compound:
		return m, true
	case map[string]any:
		return Compound(m), true
	}
	return nil, false
}

func toInt(v any) (int64, bool) {
	switch i := v.(type) {
	case int:
		return int64(i), true
	case int32:
		return int64(i), true
	case int64:
		return i, true
	case uint8:
		return int64(i), true
	case float64:
		if i != math.Trunc(i) {
			return 0, false
		}
		return int64(i), true
	case interface{ Int64() (int64, error) }: //json.Number
		n, err := i.Int64()
		return n, err == nil
	}
	return 0, false
}

// Marshal encodes a compound in JSON, object keys are sorted so the encoding of a given tree is always the same.
func Marshal(c Compound) ([]byte, error) {
	return json.Marshal(c)
}

// Unmarshal decodes a JSON-encoded compound, numbers are kept in their textual form so that
// integers are never rounded and re-encoding is byte-identical.
func Unmarshal(data []byte) (Compound, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var c Compound
	if err := decoder.Decode(&c); err != nil {
		return nil, err
	}
	if c == nil {
		return nil, errors.New("compound: null document")
	}
	return c, nil
}
