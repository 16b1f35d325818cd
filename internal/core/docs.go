package core

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/exp/maps"
)

type DocKind string

const (
	TYPE_DOC     DocKind = "type"
	PROPERTY_DOC DocKind = "property"
	METHOD_DOC   DocKind = "method"
	FUNCTION_DOC DocKind = "function"

	MEMBER_SEPARATOR = "."
)

var (
	ErrNoDocumentation = errors.New("no documentation")
	ErrUnknownDocKind  = errors.New("unknown documentation kind")
)

// Documentation returns the documentation of a type, a type member (type.member) or a builtin function.
func Documentation(kind DocKind, name string) (string, error) {
	switch kind {
	case TYPE_DOC:
		t, ok := TypeByName(name)
		if !ok {
			return "", fmt.Errorf("%w: type %s", ErrNoDocumentation, name)
		}
		return typeDocumentation(t), nil
	case PROPERTY_DOC, METHOD_DOC:
		typeName, member, ok := strings.Cut(name, MEMBER_SEPARATOR)
		if !ok {
			return "", fmt.Errorf("%w: %s should have the form <type>.<member>", ErrNoDocumentation, name)
		}
		t, ok := TypeByName(typeName)
		if !ok {
			return "", fmt.Errorf("%w: type %s", ErrNoDocumentation, typeName)
		}
		if kind == PROPERTY_DOC {
			prop, ok := t.Properties[member]
			if !ok {
				return "", fmt.Errorf("%w: property %s", ErrNoDocumentation, name)
			}
			suffix := ""
			if prop.Set == nil {
				suffix = " (read-only)"
			}
			return fmt.Sprintf("%s.%s%s\n%s", t.Name, prop.Name, suffix, prop.Doc), nil
		}
		method, ok := t.Methods[member]
		if !ok {
			return "", fmt.Errorf("%w: method %s", ErrNoDocumentation, name)
		}
		return fmt.Sprintf("%s.%s(%s)\n%s", t.Name, method.Name, joinParameters(method.Params), method.Doc), nil
	case FUNCTION_DOC:
		fn, ok := LookupBuiltin(name)
		if !ok {
			return "", fmt.Errorf("%w: function %s", ErrNoDocumentation, name)
		}
		return fmt.Sprintf("%s(%s)\n%s", fn.Name, joinParameters(fn.Params), fn.Doc), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownDocKind, kind)
	}
}

func typeDocumentation(t *Type) string {
	buf := strings.Builder{}
	buf.WriteString(t.Name)
	buf.WriteString("\n")
	buf.WriteString(t.Doc)

	if len(t.Properties) > 0 {
		names := maps.Keys(t.Properties)
		slices.SortFunc(names, naturalCompare)
		buf.WriteString("\nproperties: ")
		buf.WriteString(strings.Join(names, ", "))
	}
	if len(t.Methods) > 0 {
		names := maps.Keys(t.Methods)
		slices.SortFunc(names, naturalCompare)
		buf.WriteString("\nmethods: ")
		buf.WriteString(strings.Join(names, ", "))
	}
	return buf.String()
}

func joinParameters(params []Parameter) string {
	s := make([]string, len(params))
	for i, p := range params {
		s[i] = p.String()
	}
	return strings.Join(s, ", ")
}
