package hosttypes

import (
	"strconv"
	"strings"

	"github.com/inoxlang/tickscript/internal/ast"
	"github.com/inoxlang/tickscript/internal/compound"
	"github.com/inoxlang/tickscript/internal/core"
)

const (
	RESOURCE_LOCATION_TYPE_NAME = "resource_location"
	DEFAULT_NAMESPACE           = "minecraft"
	NAMESPACE_SEPARATOR         = ":"
)

var RESOURCE_LOCATION_TYPE = core.RegisterType(&core.Type{
	Name: RESOURCE_LOCATION_TYPE_NAME,
	Doc:  "Location of a resource of the host (block, item, ...) written namespace:path, the namespace defaults to " + DEFAULT_NAMESPACE + ".",
})

// A ResourceLocation is an immutable value, unlike entities it is fully serialized.
type ResourceLocation struct {
	Namespace string
	Path      string
}

func (ResourceLocation) Kind() core.TypeKind { return RESOURCE_LOCATION_TYPE.Kind }

func (r ResourceLocation) String() string {
	return r.Namespace + NAMESPACE_SEPARATOR + r.Path
}

// ParseResourceLocation parses namespace:path or path, the namespace only allows [a-z0-9_.-] and the path
// also allows '/'.
func ParseResourceLocation(s string) (ResourceLocation, bool) {
	namespace, path, ok := strings.Cut(s, NAMESPACE_SEPARATOR)
	if !ok {
		namespace, path = DEFAULT_NAMESPACE, s
	}
	return makeResourceLocation(namespace, path)
}

func makeResourceLocation(namespace, path string) (ResourceLocation, bool) {
	if !isValidResourceName(namespace, false) || !isValidResourceName(path, true) {
		return ResourceLocation{}, false
	}
	return ResourceLocation{Namespace: namespace, Path: path}, true
}

func isValidResourceName(s string, allowSlash bool) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '.', r == '-':
		case r == '/' && allowSlash:
		default:
			return false
		}
	}
	return true
}

func init() {
	t := RESOURCE_LOCATION_TYPE
	location := func(v core.Value) ResourceLocation { return v.(ResourceLocation) }
	castFailed := func(from core.Value) error {
		return core.NewEvaluationError(core.ErrCastFailed, core.TypeOf(from).Name, RESOURCE_LOCATION_TYPE_NAME)
	}

	t.Str = func(self core.Value) string { return location(self).String() }
	t.Repr = func(self core.Value) string {
		return RESOURCE_LOCATION_TYPE_NAME + "(" + strconv.Quote(location(self).String()) + ")"
	}
	t.Equal = func(self, other core.Value) bool {
		switch o := other.(type) {
		case ResourceLocation:
			return o == location(self)
		case core.String:
			parsed, ok := ParseResourceLocation(string(o))
			return ok && parsed == location(self)
		}
		return false
	}
	t.Compare = func(scope *core.Scope, self, other core.Value) (int, error) {
		o, ok := other.(ResourceLocation)
		if !ok {
			return 0, core.NewEvaluationError(core.ErrUnsupportedOperator, "comparison", t.Name, core.TypeOf(other).Name)
		}
		return strings.Compare(location(self).String(), o.String()), nil
	}
	t.Add = func(scope *core.Scope, self, other core.Value, inPlace bool) (core.Value, error) {
		s, ok := other.(core.String)
		if !ok {
			return nil, core.NewEvaluationError(core.ErrUnsupportedOperator, ast.Add.String(), t.Name, core.TypeOf(other).Name)
		}
		return core.String(location(self).String()) + s, nil
	}
	t.ExplicitCast = func(scope *core.Scope, v core.Value) (core.Value, error) {
		switch val := v.(type) {
		case core.String:
			r, ok := ParseResourceLocation(string(val))
			if !ok {
				return nil, castFailed(v)
			}
			return r, nil
		case *core.Map:
			//the map should have exactly the keys namespace and path, a null namespace is the default one.
			namespace, hasNamespace := val.Get("namespace")
			path, hasPath := val.Get("path")
			if val.Len() != 2 || !hasNamespace || !hasPath {
				return nil, core.NewEvaluationError(core.ErrIllegalArgument, "map", "keys should be namespace and path")
			}
			pathString, ok := path.(core.String)
			if !ok {
				return nil, core.NewEvaluationError(core.ErrCastFailed, core.TypeOf(path).Name, core.STRING_TYPE.Name)
			}
			namespaceString := core.String(DEFAULT_NAMESPACE)
			if namespace != core.NULL {
				namespaceString, ok = namespace.(core.String)
				if !ok {
					return nil, core.NewEvaluationError(core.ErrCastFailed, core.TypeOf(namespace).Name, core.STRING_TYPE.Name)
				}
			}
			r, ok := makeResourceLocation(string(namespaceString), string(pathString))
			if !ok {
				return nil, castFailed(v)
			}
			return r, nil
		}
		return nil, castFailed(v)
	}
	t.Encode = func(ctx *core.EncodeContext, v core.Value) (compound.Compound, error) {
		return compound.New().PutString("Value", location(v).String()), nil
	}
	t.Decode = func(ctx *core.DecodeContext, c compound.Compound) (core.Value, error) {
		s, err := c.String("Value")
		if err != nil {
			return nil, err
		}
		r, ok := ParseResourceLocation(s)
		if !ok {
			return nil, core.NewEvaluationError(core.ErrCastFailed, core.STRING_TYPE.Name, RESOURCE_LOCATION_TYPE_NAME)
		}
		return r, nil
	}
	t.Properties = map[string]*core.Property{
		"namespace": {
			Name: "namespace",
			Doc:  "Namespace of the resource.",
			Get: func(scope *core.Scope, self core.Value) (core.Value, error) {
				return core.String(location(self).Namespace), nil
			},
		},
		"path": {
			Name: "path",
			Doc:  "Path of the resource inside its namespace.",
			Get: func(scope *core.Scope, self core.Value) (core.Value, error) {
				return core.String(location(self).Path), nil
			},
		},
	}
}
