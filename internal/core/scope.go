package core

// A Variable is a named value in a scope.
// Public variables are readable from outside the program, Editable variables are writable from outside the program
// (they should also be public), Constant variables cannot be reassigned and non-Deletable variables cannot be deleted.
type Variable struct {
	Name      string
	Value     Value
	Public    bool
	Editable  bool
	Constant  bool
	Deletable bool
}

// A Scope maps unique names to variables, it keeps the declaration order of its variables.
// The parent pointer is non-owning, the outermost scope of a program (the global scope) has no parent.
type Scope struct {
	parent    *Scope
	program   *Program
	names     []string
	variables map[string]*Variable
}

func NewScope(parent *Scope, program *Program) *Scope {
	return &Scope{
		parent:    parent,
		program:   program,
		variables: map[string]*Variable{},
	}
}

func (s *Scope) Parent() *Scope {
	return s.parent
}

func (s *Scope) Program() *Program {
	return s.program
}

func (s *Scope) IsGlobal() bool {
	return s.parent == nil
}

// Variables returns the variables declared in s in declaration order.
func (s *Scope) Variables() []*Variable {
	vars := make([]*Variable, len(s.names))
	for i, name := range s.names {
		vars[i] = s.variables[name]
	}
	return vars
}

func (s *Scope) Len() int {
	return len(s.names)
}

func (s *Scope) DeclareVariable(v *Variable) error {
	if _, ok := s.variables[v.Name]; ok {
		return NewEvaluationError(ErrVariableAlreadyDeclared, v.Name)
	}
	s.names = append(s.names, v.Name)
	s.variables[v.Name] = v
	return nil
}

// Lookup searches the variable in s and then in its ancestors.
func (s *Scope) Lookup(name string) (*Variable, *Scope, bool) {
	for scope := s; scope != nil; scope = scope.parent {
		if v, ok := scope.variables[name]; ok {
			return v, scope, true
		}
	}
	return nil, nil, false
}

func (s *Scope) GetVariable(name string, fromOutside bool) (Value, error) {
	v, _, ok := s.Lookup(name)
	if !ok {
		return nil, NewEvaluationError(ErrUndefinedVariable, name)
	}
	if fromOutside && !v.Public {
		return nil, NewEvaluationError(ErrNotPublic, name)
	}
	return v.Value, nil
}

func (s *Scope) SetVariable(name string, value Value, fromOutside bool) error {
	v, _, ok := s.Lookup(name)
	if !ok {
		return NewEvaluationError(ErrUndefinedVariable, name)
	}
	if fromOutside && !v.Public {
		return NewEvaluationError(ErrNotPublic, name)
	}
	if v.Constant || (fromOutside && !v.Editable) {
		return NewEvaluationError(ErrNotEditable, name)
	}
	v.Value = value
	return nil
}

func (s *Scope) DeleteVariable(name string, fromOutside bool) error {
	v, owner, ok := s.Lookup(name)
	if !ok {
		return NewEvaluationError(ErrUndefinedVariable, name)
	}
	if fromOutside && !v.Public {
		return NewEvaluationError(ErrNotPublic, name)
	}
	if !v.Deletable {
		return NewEvaluationError(ErrNotDeletable, name)
	}
	delete(owner.variables, name)
	for i, n := range owner.names {
		if n == name {
			owner.names = append(owner.names[:i], owner.names[i+1:]...)
			break
		}
	}
	return nil
}
