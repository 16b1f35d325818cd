package core

import (
	"math"
	"slices"
	"strconv"
	"strings"
)

const (
	//maximum length of the result of a repetition (string or list multiplied by an integer).
	MAX_REPETITION_LENGTH = 1 << 24

	MAX_NESTING_DEPTH = 1000

	//representation of a collection inside itself.
	CYCLE_REPR = "..."
)

type List struct {
	elements []Value
}

func NewList(elements ...Value) *List {
	return &List{elements: elements}
}

func (*List) Kind() TypeKind { return ListKind }

func (l *List) Len() int {
	return len(l.elements)
}

func (l *List) At(i int) Value {
	return l.elements[i]
}

// Elements returns a copy of the elements.
func (l *List) Elements() []Value {
	return slices.Clone(l.elements)
}

func (l *List) Append(values ...Value) {
	l.elements = append(l.elements, values...)
}

// normalizeIndex supports negative indexes (-1 is the last element).
func (l *List) normalizeIndex(i int64) (int, bool) {
	if i < 0 {
		i += int64(len(l.elements))
	}
	if i < 0 || i >= int64(len(l.elements)) {
		return 0, false
	}
	return int(i), true
}

func (l *List) insert(i int64, v Value) bool {
	if i < 0 {
		i += int64(len(l.elements))
	}
	if i < 0 || i > int64(len(l.elements)) {
		return false
	}
	l.elements = slices.Insert(l.elements, int(i), v)
	return true
}

func (l *List) removeAt(i int) Value {
	v := l.elements[i]
	l.elements = slices.Delete(l.elements, i, i+1)
	return v
}

// A Map is a mapping from strings to values that keeps the insertion order of its keys.
type Map struct {
	keys    []string
	entries map[string]Value
}

func NewMap() *Map {
	return &Map{entries: map[string]Value{}}
}

func (*Map) Kind() TypeKind { return MapKind }

func (m *Map) Len() int {
	return len(m.keys)
}

func (m *Map) Get(key string) (Value, bool) {
	v, ok := m.entries[key]
	return v, ok
}

func (m *Map) Set(key string, value Value) {
	if _, ok := m.entries[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.entries[key] = value
}

func (m *Map) Delete(key string) bool {
	if _, ok := m.entries[key]; !ok {
		return false
	}
	delete(m.entries, key)
	m.keys = slices.DeleteFunc(m.keys, func(k string) bool { return k == key })
	return true
}

func (m *Map) Keys() []string {
	return slices.Clone(m.keys)
}

func (m *Map) ForEach(fn func(key string, value Value)) {
	for _, k := range m.keys {
		fn(k, m.entries[k])
	}
}

func (m *Map) clear() {
	m.keys = nil
	m.entries = map[string]Value{}
}

// A Set is an insertion-ordered set of values, two values are the same element if their content keys are equal.
// The content key of a mutable element is computed when the element is added.
type Set struct {
	elements []Value
	index    map[string]int
}

func NewSet(elements ...Value) *Set {
	set := &Set{index: map[string]int{}}
	for _, e := range elements {
		set.Add(e)
	}
	return set
}

func (*Set) Kind() TypeKind { return SetKind }

func (s *Set) Len() int {
	return len(s.elements)
}

func (s *Set) Elements() []Value {
	return slices.Clone(s.elements)
}

func (s *Set) Has(v Value) bool {
	_, ok := s.index[contentKey(v)]
	return ok
}

func (s *Set) Add(v Value) bool {
	key := contentKey(v)
	if _, ok := s.index[key]; ok {
		return false
	}
	s.index[key] = len(s.elements)
	s.elements = append(s.elements, v)
	return true
}

func (s *Set) Remove(v Value) bool {
	key := contentKey(v)
	i, ok := s.index[key]
	if !ok {
		return false
	}
	s.elements = slices.Delete(s.elements, i, i+1)
	delete(s.index, key)
	for k, j := range s.index {
		if j > i {
			s.index[k] = j - 1
		}
	}
	return true
}

// reindex recomputes the content keys of the elements, the first of several elements with the same key
// is kept.
func (s *Set) reindex() {
	elements := s.elements
	s.elements = nil
	s.index = map[string]int{}
	for _, e := range elements {
		s.Add(e)
	}
}

func (s *Set) clear() {
	s.elements = nil
	s.index = map[string]int{}
}

func isCollection(v Value) bool {
	switch v.(type) {
	case *List, *Map, *Set:
		return true
	}
	return false
}

// formatCollection returns the representation of a list, map or set. visiting holds the collections being
// formatted, a collection met again (cycle) is represented by CYCLE_REPR.
func formatCollection(v Value, visiting []Value) string {
	if len(visiting) >= MAX_NESTING_DEPTH || slices.Contains(visiting, v) {
		return CYCLE_REPR
	}
	visiting = append(visiting, v)

	formatElement := func(e Value) string {
		if isCollection(e) {
			return formatCollection(e, visiting)
		}
		return Repr(e)
	}
	format := func(values []Value) string {
		reprs := make([]string, len(values))
		for i, e := range values {
			reprs[i] = formatElement(e)
		}
		return strings.Join(reprs, ", ")
	}

	switch val := v.(type) {
	case *List:
		return "[" + format(val.elements) + "]"
	case *Set:
		if val.Len() == 0 {
			return "{,}"
		}
		return "{" + format(val.elements) + "}"
	case *Map:
		buf := strings.Builder{}
		buf.WriteByte('{')
		for i, key := range val.keys {
			if i > 0 {
				buf.WriteString(", ")
			}
			buf.WriteString(strconv.Quote(key))
			buf.WriteString(": ")
			buf.WriteString(formatElement(val.entries[key]))
		}
		buf.WriteByte('}')
		return buf.String()
	}
	return Repr(v)
}

type valuePair struct {
	a, b Value
}

// collectionsEqual compares two collections by content. A pair of collections already being compared is
// considered equal, comparisons nested deeper than MAX_NESTING_DEPTH fail.
func collectionsEqual(a, b Value, visiting []valuePair) bool {
	if !isCollection(a) || !isCollection(b) {
		return Equal(a, b)
	}
	if a == b {
		return true
	}
	if len(visiting) >= MAX_NESTING_DEPTH {
		return false
	}
	pair := valuePair{a, b}
	if slices.Contains(visiting, pair) {
		return true
	}
	visiting = append(visiting, pair)

	switch x := a.(type) {
	case *List:
		y, ok := b.(*List)
		if !ok || len(x.elements) != len(y.elements) {
			return false
		}
		for i := range x.elements {
			if !collectionsEqual(x.elements[i], y.elements[i], visiting) {
				return false
			}
		}
		return true
	case *Map:
		y, ok := b.(*Map)
		if !ok || x.Len() != y.Len() {
			return false
		}
		for key, value := range x.entries {
			otherValue, ok := y.entries[key]
			if !ok || !collectionsEqual(value, otherValue, visiting) {
				return false
			}
		}
		return true
	case *Set:
		return Equal(a, b)
	}
	return false
}

// contentKey returns a string that is the same for two values if they are equal, numbers that are equal
// across int and float have the same key.
func contentKey(v Value) string {
	return contentKeyOf(v, nil)
}

func contentKeyOf(v Value, visiting []Value) string {
	switch val := v.(type) {
	case Null:
		return "null"
	case Bool:
		return "b" + strconv.FormatBool(bool(val))
	case Int:
		return "n" + strconv.FormatInt(int64(val), 10)
	case Float:
		f := float64(val)
		if f == math.Trunc(f) && math.Abs(f) < 1<<63 {
			return "n" + strconv.FormatInt(int64(f), 10)
		}
		return "n" + strconv.FormatFloat(f, 'g', -1, 64)
	case String:
		return "s" + strconv.Quote(string(val))
	}

	if !isCollection(v) {
		return TypeOf(v).Name + ":" + Repr(v)
	}
	if len(visiting) >= MAX_NESTING_DEPTH || slices.Contains(visiting, v) {
		return CYCLE_REPR
	}
	visiting = append(visiting, v)

	join := func(values []Value) string {
		keys := make([]string, len(values))
		for i, e := range values {
			keys[i] = contentKeyOf(e, visiting)
		}
		return strings.Join(keys, ",")
	}

	switch val := v.(type) {
	case *List:
		return "l[" + join(val.elements) + "]"
	case *Set:
		return "s{" + join(val.elements) + "}"
	default:
		m := v.(*Map)
		buf := strings.Builder{}
		buf.WriteString("m{")
		m.ForEach(func(key string, value Value) {
			buf.WriteString(strconv.Quote(key))
			buf.WriteByte(':')
			buf.WriteString(contentKeyOf(value, visiting))
			buf.WriteByte(',')
		})
		buf.WriteByte('}')
		return buf.String()
	}
}
