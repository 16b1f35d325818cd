package core

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/inoxlang/tickscript/internal/ast"
	"github.com/inoxlang/tickscript/internal/compound"
)

func init() {
	STRING_TYPE.Str = func(self Value) string { return string(self.(String)) }
	STRING_TYPE.Repr = func(self Value) string { return strconv.Quote(string(self.(String))) }
	STRING_TYPE.Truthy = func(self Value) bool { return self.(String) != "" }
	STRING_TYPE.Equal = func(self, other Value) bool {
		s, ok := other.(String)
		return ok && s == self.(String)
	}
	STRING_TYPE.Compare = func(scope *Scope, self, other Value) (int, error) {
		s, ok := other.(String)
		if !ok {
			return 0, fmtUnsupportedOperation("comparison", self, other)
		}
		return strings.Compare(string(self.(String)), string(s)), nil
	}
	STRING_TYPE.Add = func(scope *Scope, self, other Value, inPlace bool) (Value, error) {
		s, ok := other.(String)
		if !ok {
			return nil, fmtUnsupportedOperation(ast.Add.String(), self, other)
		}
		return self.(String) + s, nil
	}
	STRING_TYPE.Mul = func(scope *Scope, self, other Value, inPlace bool) (Value, error) {
		count, ok := other.(Int)
		if !ok {
			return nil, fmtUnsupportedOperation(ast.Mul.String(), self, other)
		}
		str := string(self.(String))
		if count < 0 || (count > 0 && len(str) > MAX_REPETITION_LENGTH/int(count)) {
			return nil, NewEvaluationError(ErrIllegalArgument, "count", Str(count))
		}
		return String(strings.Repeat(str, int(count))), nil
	}
	STRING_TYPE.Contains = func(scope *Scope, self, item Value) (bool, error) {
		s, ok := item.(String)
		if !ok {
			return false, fmtUnsupportedOperation(ast.In.String(), item, self)
		}
		return strings.Contains(string(self.(String)), string(s)), nil
	}
	STRING_TYPE.Len = func(self Value) int {
		return utf8.RuneCountInString(string(self.(String)))
	}
	STRING_TYPE.Iterate = func(self Value) []Value {
		runes := []rune(string(self.(String)))
		chars := make([]Value, len(runes))
		for i, r := range runes {
			chars[i] = String(r)
		}
		return chars
	}
	STRING_TYPE.GetItem = func(scope *Scope, self, key Value) (Value, error) {
		i, ok := key.(Int)
		if !ok {
			return nil, NewEvaluationError(ErrInvalidArgumentType, "[]", "index", INT_TYPE.Name, TypeOf(key).Name)
		}
		runes := []rune(string(self.(String)))
		if i < 0 {
			i += Int(len(runes))
		}
		if i < 0 || int(i) >= len(runes) {
			return nil, NewEvaluationError(ErrIndexOutOfRange, Str(key))
		}
		return String(runes[i]), nil
	}
	STRING_TYPE.ExplicitCast = func(scope *Scope, v Value) (Value, error) {
		return String(Str(v)), nil
	}
	STRING_TYPE.Encode = func(ctx *EncodeContext, v Value) (compound.Compound, error) {
		return compound.New().PutString("Value", string(v.(String))), nil
	}
	STRING_TYPE.Decode = func(ctx *DecodeContext, c compound.Compound) (Value, error) {
		s, err := c.String("Value")
		return String(s), err
	}

	stringParam := func(name string) Parameter {
		return Parameter{Name: name, Type: STRING_TYPE}
	}
	str := func(v Value) string {
		return string(v.(String))
	}

	STRING_TYPE.Methods = map[string]*Method{
		"upper": {
			Doc: "Returns the string converted to upper case.",
			Impl: func(scope *Scope, self Value, args []Value) (Value, error) {
				return String(strings.ToUpper(str(self))), nil
			},
		},
		"lower": {
			Doc: "Returns the string converted to lower case.",
			Impl: func(scope *Scope, self Value, args []Value) (Value, error) {
				return String(strings.ToLower(str(self))), nil
			},
		},
		"trim": {
			Doc: "Returns the string without leading and trailing whitespace.",
			Impl: func(scope *Scope, self Value, args []Value) (Value, error) {
				return String(strings.TrimSpace(str(self))), nil
			},
		},
		"split": {
			Doc:    "Splits the string around each occurrence of the separator.",
			Params: []Parameter{stringParam("separator")},
			Impl: func(scope *Scope, self Value, args []Value) (Value, error) {
				return stringList(strings.Split(str(self), str(args[0]))), nil
			},
		},
		"replace": {
			Doc:    "Replaces all occurrences of old by new.",
			Params: []Parameter{stringParam("old"), stringParam("new")},
			Impl: func(scope *Scope, self Value, args []Value) (Value, error) {
				return String(strings.ReplaceAll(str(self), str(args[0]), str(args[1]))), nil
			},
		},
		"starts_with": {
			Doc:    "Returns true if the string starts with the prefix.",
			Params: []Parameter{stringParam("prefix")},
			Impl: func(scope *Scope, self Value, args []Value) (Value, error) {
				return Bool(strings.HasPrefix(str(self), str(args[0]))), nil
			},
		},
		"ends_with": {
			Doc:    "Returns true if the string ends with the suffix.",
			Params: []Parameter{stringParam("suffix")},
			Impl: func(scope *Scope, self Value, args []Value) (Value, error) {
				return Bool(strings.HasSuffix(str(self), str(args[0]))), nil
			},
		},
		"find": {
			Doc:    "Returns the index of the first occurrence of the substring, or -1.",
			Params: []Parameter{stringParam("substring")},
			Impl: func(scope *Scope, self Value, args []Value) (Value, error) {
				s := str(self)
				i := strings.Index(s, str(args[0]))
				if i < 0 {
					return Int(-1), nil
				}
				return Int(utf8.RuneCountInString(s[:i])), nil
			},
		},
	}
	setMethodNames(STRING_TYPE)
}

func setMethodNames(t *Type) {
	for name, method := range t.Methods {
		method.Name = name
	}
}
