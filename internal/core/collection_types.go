package core

import (
	"github.com/inoxlang/tickscript/internal/ast"
	"github.com/inoxlang/tickscript/internal/compound"
)

func init() {
	initListType()
	initMapType()
	initSetType()
}

func initListType() {
	LIST_TYPE.Str = func(self Value) string {
		return formatCollection(self, nil)
	}
	LIST_TYPE.Truthy = func(self Value) bool { return self.(*List).Len() > 0 }
	LIST_TYPE.Equal = func(self, other Value) bool {
		return collectionsEqual(self, other, nil)
	}
	LIST_TYPE.Add = func(scope *Scope, self, other Value, inPlace bool) (Value, error) {
		list := self.(*List)
		otherList, ok := other.(*List)
		if !ok {
			return nil, fmtUnsupportedOperation(ast.Add.String(), self, other)
		}
		if inPlace {
			list.Append(otherList.Elements()...)
			return list, nil
		}
		return NewList(append(list.Elements(), otherList.elements...)...), nil
	}
	LIST_TYPE.Mul = func(scope *Scope, self, other Value, inPlace bool) (Value, error) {
		count, ok := other.(Int)
		if !ok {
			return nil, fmtUnsupportedOperation(ast.Mul.String(), self, other)
		}
		if count < 0 {
			return nil, NewEvaluationError(ErrIllegalArgument, "count", Str(count))
		}
		list := self.(*List)
		if count > 0 && len(list.elements) > MAX_REPETITION_LENGTH/int(count) {
			return nil, NewEvaluationError(ErrIllegalArgument, "count", Str(count))
		}
		elements := make([]Value, 0, len(list.elements)*int(count))
		for i := 0; i < int(count); i++ {
			elements = append(elements, list.elements...)
		}
		if inPlace {
			list.elements = elements
			return list, nil
		}
		return NewList(elements...), nil
	}
	LIST_TYPE.Contains = func(scope *Scope, self, item Value) (bool, error) {
		return indexOf(self.(*List).elements, item) >= 0, nil
	}
	LIST_TYPE.Len = func(self Value) int { return self.(*List).Len() }
	LIST_TYPE.Iterate = func(self Value) []Value { return self.(*List).Elements() }
	LIST_TYPE.GetItem = func(scope *Scope, self, key Value) (Value, error) {
		list := self.(*List)
		i, err := listIndex(list, key)
		if err != nil {
			return nil, err
		}
		return list.elements[i], nil
	}
	LIST_TYPE.SetItem = func(scope *Scope, self, key, value Value) error {
		list := self.(*List)
		i, err := listIndex(list, key)
		if err != nil {
			return err
		}
		list.elements[i] = value
		return nil
	}
	LIST_TYPE.DeleteItem = func(scope *Scope, self, key Value) error {
		list := self.(*List)
		i, err := listIndex(list, key)
		if err != nil {
			return err
		}
		list.removeAt(i)
		return nil
	}
	LIST_TYPE.ExplicitCast = func(scope *Scope, v Value) (Value, error) {
		elements, err := Iterate(v)
		if err != nil {
			return nil, NewEvaluationError(ErrCastFailed, TypeOf(v).Name, LIST_TYPE.Name)
		}
		return NewList(elements...), nil
	}
	LIST_TYPE.Encode = func(ctx *EncodeContext, v Value) (compound.Compound, error) {
		elements, err := encodeValues(ctx, v.(*List).elements)
		if err != nil {
			return nil, err
		}
		return compound.New().PutCompounds("Elements", elements), nil
	}
	LIST_TYPE.New = func() Value { return NewList() }
	LIST_TYPE.Fill = func(ctx *DecodeContext, self Value, c compound.Compound) error {
		elements, err := decodeValues(ctx, c, "Elements")
		if err != nil {
			return err
		}
		self.(*List).elements = elements
		return nil
	}

	list := func(v Value) *List { return v.(*List) }

	LIST_TYPE.Methods = map[string]*Method{
		"add": {
			Doc:    "Appends a value to the list.",
			Params: []Parameter{{Name: "value", Nullable: true}},
			Impl: func(scope *Scope, self Value, args []Value) (Value, error) {
				list(self).Append(args[0])
				return NULL, nil
			},
		},
		"insert": {
			Doc:    "Inserts a value before the element at index.",
			Params: []Parameter{{Name: "index", Type: INT_TYPE}, {Name: "value", Nullable: true}},
			Impl: func(scope *Scope, self Value, args []Value) (Value, error) {
				if !list(self).insert(int64(args[0].(Int)), args[1]) {
					return nil, NewEvaluationError(ErrIndexOutOfRange, Str(args[0]))
				}
				return NULL, nil
			},
		},
		"pop": {
			Doc: "Removes and returns the last element.",
			Impl: func(scope *Scope, self Value, args []Value) (Value, error) {
				l := list(self)
				if l.Len() == 0 {
					return nil, NewEvaluationError(ErrEmptyCollection, LIST_TYPE.Name)
				}
				return l.removeAt(l.Len() - 1), nil
			},
		},
		"clear": {
			Doc: "Removes all elements.",
			Impl: func(scope *Scope, self Value, args []Value) (Value, error) {
				list(self).elements = nil
				return NULL, nil
			},
		},
		"index": {
			Doc:    "Returns the index of the first element equal to value, or -1.",
			Params: []Parameter{{Name: "value", Nullable: true}},
			Impl: func(scope *Scope, self Value, args []Value) (Value, error) {
				return Int(indexOf(list(self).elements, args[0])), nil
			},
		},
		"count": {
			Doc:    "Returns the number of elements equal to value.",
			Params: []Parameter{{Name: "value", Nullable: true}},
			Impl: func(scope *Scope, self Value, args []Value) (Value, error) {
				count := 0
				for _, e := range list(self).elements {
					if Equal(e, args[0]) {
						count++
					}
				}
				return Int(count), nil
			},
		},
		"copy": {
			Doc: "Returns a shallow copy of the list.",
			Impl: func(scope *Scope, self Value, args []Value) (Value, error) {
				return NewList(list(self).Elements()...), nil
			},
		},
	}
	setMethodNames(LIST_TYPE)
}

func initMapType() {
	MAP_TYPE.Str = func(self Value) string {
		return formatCollection(self, nil)
	}
	MAP_TYPE.Truthy = func(self Value) bool { return self.(*Map).Len() > 0 }
	MAP_TYPE.Equal = func(self, other Value) bool {
		return collectionsEqual(self, other, nil)
	}
	MAP_TYPE.Contains = func(scope *Scope, self, item Value) (bool, error) {
		key, ok := item.(String)
		if !ok {
			return false, nil
		}
		_, ok = self.(*Map).Get(string(key))
		return ok, nil
	}
	MAP_TYPE.Len = func(self Value) int { return self.(*Map).Len() }
	MAP_TYPE.Iterate = func(self Value) []Value {
		return stringList(self.(*Map).keys).elements
	}
	MAP_TYPE.GetItem = func(scope *Scope, self, key Value) (Value, error) {
		k, err := mapKey(key)
		if err != nil {
			return nil, err
		}
		value, ok := self.(*Map).Get(k)
		if !ok {
			return nil, NewEvaluationError(ErrNoSuchKey, k)
		}
		return value, nil
	}
	MAP_TYPE.SetItem = func(scope *Scope, self, key, value Value) error {
		k, err := mapKey(key)
		if err != nil {
			return err
		}
		self.(*Map).Set(k, value)
		return nil
	}
	MAP_TYPE.DeleteItem = func(scope *Scope, self, key Value) error {
		k, err := mapKey(key)
		if err != nil {
			return err
		}
		if !self.(*Map).Delete(k) {
			return NewEvaluationError(ErrNoSuchKey, k)
		}
		return nil
	}
	MAP_TYPE.Encode = func(ctx *EncodeContext, v Value) (compound.Compound, error) {
		m := v.(*Map)
		entries := make([]compound.Compound, 0, m.Len())
		for _, key := range m.keys {
			value, err := ctx.EncodeValue(m.entries[key])
			if err != nil {
				return nil, err
			}
			entries = append(entries, compound.New().PutString("Key", key).PutCompound("Value", value))
		}
		return compound.New().PutCompounds("Entries", entries), nil
	}
	MAP_TYPE.New = func() Value { return NewMap() }
	MAP_TYPE.Fill = func(ctx *DecodeContext, self Value, c compound.Compound) error {
		entries, err := c.Compounds("Entries")
		if err != nil {
			return err
		}
		m := self.(*Map)
		for _, entry := range entries {
			key, err := entry.String("Key")
			if err != nil {
				return err
			}
			encodedValue, err := entry.Compound("Value")
			if err != nil {
				return err
			}
			value, err := DecodeValue(ctx, encodedValue)
			if err != nil {
				return err
			}
			m.Set(key, value)
		}
		return nil
	}

	asMap := func(v Value) *Map { return v.(*Map) }

	MAP_TYPE.Methods = map[string]*Method{
		"keys": {
			Doc: "Returns the list of keys in insertion order.",
			Impl: func(scope *Scope, self Value, args []Value) (Value, error) {
				return stringList(asMap(self).keys), nil
			},
		},
		"values": {
			Doc: "Returns the list of values in insertion order.",
			Impl: func(scope *Scope, self Value, args []Value) (Value, error) {
				m := asMap(self)
				values := make([]Value, 0, m.Len())
				m.ForEach(func(_ string, value Value) {
					values = append(values, value)
				})
				return NewList(values...), nil
			},
		},
		"get": {
			Doc:    "Returns the value associated with key, or default if the key is not present.",
			Params: []Parameter{{Name: "key", Type: STRING_TYPE}, {Name: "default", Nullable: true}},
			Impl: func(scope *Scope, self Value, args []Value) (Value, error) {
				if value, ok := asMap(self).Get(string(args[0].(String))); ok {
					return value, nil
				}
				return args[1], nil
			},
		},
		"clear": {
			Doc: "Removes all entries.",
			Impl: func(scope *Scope, self Value, args []Value) (Value, error) {
				asMap(self).clear()
				return NULL, nil
			},
		},
		"copy": {
			Doc: "Returns a shallow copy of the map.",
			Impl: func(scope *Scope, self Value, args []Value) (Value, error) {
				clone := NewMap()
				asMap(self).ForEach(clone.Set)
				return clone, nil
			},
		},
	}
	setMethodNames(MAP_TYPE)
}

func initSetType() {
	SET_TYPE.Str = func(self Value) string {
		return formatCollection(self, nil)
	}
	SET_TYPE.Truthy = func(self Value) bool { return self.(*Set).Len() > 0 }
	SET_TYPE.Equal = func(self, other Value) bool {
		s, ok := other.(*Set)
		if !ok || s.Len() != self.(*Set).Len() {
			return false
		}
		for key := range self.(*Set).index {
			if _, ok := s.index[key]; !ok {
				return false
			}
		}
		return true
	}
	SET_TYPE.Add = func(scope *Scope, self, other Value, inPlace bool) (Value, error) {
		otherSet, ok := other.(*Set)
		if !ok {
			return nil, fmtUnsupportedOperation(ast.Add.String(), self, other)
		}
		result := self.(*Set)
		if !inPlace {
			result = NewSet(result.elements...)
		}
		for _, e := range otherSet.Elements() {
			result.Add(e)
		}
		return result, nil
	}
	SET_TYPE.Sub = func(scope *Scope, self, other Value, inPlace bool) (Value, error) {
		otherSet, ok := other.(*Set)
		if !ok {
			return nil, fmtUnsupportedOperation(ast.Sub.String(), self, other)
		}
		result := self.(*Set)
		if !inPlace {
			result = NewSet(result.elements...)
		}
		for _, e := range otherSet.Elements() {
			result.Remove(e)
		}
		return result, nil
	}
	SET_TYPE.Contains = func(scope *Scope, self, item Value) (bool, error) {
		return self.(*Set).Has(item), nil
	}
	SET_TYPE.Len = func(self Value) int { return self.(*Set).Len() }
	SET_TYPE.Iterate = func(self Value) []Value { return self.(*Set).Elements() }
	SET_TYPE.ExplicitCast = func(scope *Scope, v Value) (Value, error) {
		elements, err := Iterate(v)
		if err != nil {
			return nil, NewEvaluationError(ErrCastFailed, TypeOf(v).Name, SET_TYPE.Name)
		}
		return NewSet(elements...), nil
	}
	SET_TYPE.Encode = func(ctx *EncodeContext, v Value) (compound.Compound, error) {
		elements, err := encodeValues(ctx, v.(*Set).elements)
		if err != nil {
			return nil, err
		}
		return compound.New().PutCompounds("Elements", elements), nil
	}
	SET_TYPE.New = func() Value { return NewSet() }
	//the index is rebuilt by reindex once all collections of the table are filled.
	SET_TYPE.Fill = func(ctx *DecodeContext, self Value, c compound.Compound) error {
		elements, err := decodeValues(ctx, c, "Elements")
		if err != nil {
			return err
		}
		self.(*Set).elements = elements
		return nil
	}

	set := func(v Value) *Set { return v.(*Set) }

	SET_TYPE.Methods = map[string]*Method{
		"add": {
			Doc:    "Adds a value to the set, returns false if the value was already present.",
			Params: []Parameter{{Name: "value", Nullable: true}},
			Impl: func(scope *Scope, self Value, args []Value) (Value, error) {
				return Bool(set(self).Add(args[0])), nil
			},
		},
		"remove": {
			Doc:    "Removes a value from the set, returns false if the value was not present.",
			Params: []Parameter{{Name: "value", Nullable: true}},
			Impl: func(scope *Scope, self Value, args []Value) (Value, error) {
				return Bool(set(self).Remove(args[0])), nil
			},
		},
		"clear": {
			Doc: "Removes all elements.",
			Impl: func(scope *Scope, self Value, args []Value) (Value, error) {
				set(self).clear()
				return NULL, nil
			},
		},
		"copy": {
			Doc: "Returns a shallow copy of the set.",
			Impl: func(scope *Scope, self Value, args []Value) (Value, error) {
				return NewSet(set(self).elements...), nil
			},
		},
	}
	setMethodNames(SET_TYPE)
}

func indexOf(values []Value, v Value) int {
	for i, e := range values {
		if Equal(e, v) {
			return i
		}
	}
	return -1
}

func listIndex(list *List, key Value) (int, error) {
	i, ok := key.(Int)
	if !ok {
		return 0, NewEvaluationError(ErrInvalidArgumentType, "[]", "index", INT_TYPE.Name, TypeOf(key).Name)
	}
	index, ok := list.normalizeIndex(int64(i))
	if !ok {
		return 0, NewEvaluationError(ErrIndexOutOfRange, Str(key))
	}
	return index, nil
}

func mapKey(key Value) (string, error) {
	s, ok := key.(String)
	if !ok {
		return "", NewEvaluationError(ErrInvalidArgumentType, "[]", "key", STRING_TYPE.Name, TypeOf(key).Name)
	}
	return string(s), nil
}
