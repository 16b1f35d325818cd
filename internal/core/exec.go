package core

import (
	"errors"
	"fmt"

	"github.com/inoxlang/tickscript/internal/ast"
)

type SignalKind int

const (
	ProceedSignal SignalKind = iota
	BreakSignal
	ContinueSignal
	ReturnSignal
	WaitSignal
)

var signalKindNames = [...]string{
	ProceedSignal:  "proceed",
	BreakSignal:    "break",
	ContinueSignal: "continue",
	ReturnSignal:   "return",
	WaitSignal:     "wait",
}

func (k SignalKind) String() string {
	return signalKindNames[k]
}

// A Signal is the control-flow result of the execution of a statement.
type Signal struct {
	Kind  SignalKind
	Value Value //return value, nil if not a return signal
	Ticks int64 //wait duration
}

type FrameKind int

const (
	BlockFrame FrameKind = iota
	BranchFrame
	LoopFrame
	TryFrame
	ExceptFrame
)

var frameKindNames = [...]string{
	BlockFrame:  "block",
	BranchFrame: "branch",
	LoopFrame:   "loop",
	TryFrame:    "try",
	ExceptFrame: "except",
}

func (k FrameKind) String() string {
	return frameKindNames[k]
}

func frameKindFromString(s string) (FrameKind, bool) {
	for i, name := range frameKindNames {
		if name == s {
			return FrameKind(i), true
		}
	}
	return 0, false
}

// A Frame is an entry of the resumption cursor: the statement list being executed, the index of the next
// statement to execute and the scope of the list. The parent of a frame's scope is the scope of the frame below.
type Frame struct {
	Kind   FrameKind
	ListID int           //id of Body in the statement index of the program, -1 for function bodies
	Owner  ast.Statement //statement owning Body, nil for the base frame
	Body   []ast.Statement
	Index  int
	Scope  *Scope

	//iteration state of for loops: either a snapshot of the iterated collection or a range.
	Elements []Value
	Range    *Range
	Position int64
}

func (f *Frame) iterationLength() int64 {
	if f.Range != nil {
		return f.Range.Len()
	}
	return int64(len(f.Elements))
}

func (f *Frame) currentElement() Value {
	if f.Range != nil {
		return f.Range.At(f.Position)
	}
	return f.Elements[f.Position]
}

// An Executor executes statement lists with an explicit stack of frames instead of recursion, this allows
// a suspended execution (wait) to be resumed later or to be serialized.
type Executor struct {
	frames    []*Frame
	program   *Program
	index     *ast.StatementIndex //nil for function bodies
	allowWait bool
}

func newProgramExecutor(p *Program, allowWait bool) *Executor {
	return &Executor{
		program:   p,
		index:     p.index,
		allowWait: allowWait,
		frames: []*Frame{{
			Kind:   BlockFrame,
			ListID: ast.MODULE_BODY_LIST_ID,
			Body:   p.module.Statements,
			Scope:  p.global,
		}},
	}
}

func newFunctionExecutor(scope *Scope, body []ast.Statement) *Executor {
	return &Executor{
		program: scope.program,
		frames: []*Frame{{
			Kind:   BlockFrame,
			ListID: -1,
			Body:   body,
			Scope:  scope,
		}},
	}
}

// Frames returns the resumption cursor, from the base frame to the innermost frame.
func (e *Executor) Frames() []*Frame {
	return e.frames
}

func (e *Executor) Done() bool {
	return len(e.frames) == 0
}

// Run executes statements until the base frame is exhausted, a return or wait signal is produced or
// an uncaught error is raised. After a wait signal the executor can be run again to resume the execution.
func (e *Executor) Run() (Signal, error) {
	for len(e.frames) > 0 {
		frame := e.frames[len(e.frames)-1]

		if frame.Index >= len(frame.Body) {
			if err := e.endFrame(frame); err != nil {
				if e.recover(err) {
					continue
				}
				return Signal{}, err
			}
			continue
		}

		stmt := frame.Body[frame.Index]
		frame.Index++

		if err := e.program.countStatement(); err != nil {
			return Signal{}, locateError(err, stmt.Base())
		}

		signal, err := e.execStatement(stmt, frame.Scope)
		if err != nil {
			err = locateError(err, stmt.Base())
			if e.recover(err) {
				continue
			}
			return Signal{}, err
		}

		switch signal.Kind {
		case BreakSignal, ContinueSignal:
			if err := e.unwindToLoop(signal.Kind == BreakSignal); err != nil {
				return Signal{}, locateError(err, stmt.Base())
			}
		case ReturnSignal:
			e.frames = nil
			return signal, nil
		case WaitSignal:
			return signal, nil
		}
	}
	return Signal{Kind: ProceedSignal}, nil
}

func (e *Executor) push(frame *Frame) {
	e.frames = append(e.frames, frame)
}

func (e *Executor) pop() {
	e.frames[len(e.frames)-1] = nil
	e.frames = e.frames[:len(e.frames)-1]
}

func (e *Executor) listID(owner ast.Statement, role ast.ListRole, branch int) int {
	if e.index == nil {
		return -1
	}
	id, ok := e.index.ID(ast.ListKey{Owner: owner, Role: role, Branch: branch})
	if !ok {
		return -1
	}
	return id
}

// endFrame is called when all the statements of the innermost frame have been executed.
func (e *Executor) endFrame(frame *Frame) error {
	if frame.Kind == LoopFrame {
		if err := e.program.countStatement(); err != nil {
			return locateError(err, frame.Owner.Base())
		}

		parent := frame.Scope.parent

		switch loop := frame.Owner.(type) {
		case *ast.WhileLoopStatement:
			condition, err := EvalExpression(loop.Condition, parent)
			if err != nil {
				e.pop()
				return err
			}
			if Truthy(condition) {
				frame.Scope = childScope(parent)
				frame.Index = 0
				return nil
			}
		case *ast.ForLoopStatement:
			frame.Position++
			if frame.Position < frame.iterationLength() {
				scope, err := iterationScope(loop, parent, frame.currentElement())
				if err != nil {
					e.pop()
					return locateError(err, loop.Base())
				}
				frame.Scope = scope
				frame.Index = 0
				return nil
			}
		}
	}
	e.pop()
	return nil
}

// unwindToLoop pops the frames above the innermost loop frame, the loop frame is also popped for break.
func (e *Executor) unwindToLoop(isBreak bool) error {
	for i := len(e.frames) - 1; i >= 0; i-- {
		frame := e.frames[i]
		if frame.Kind != LoopFrame {
			continue
		}
		if isBreak {
			e.frames = e.frames[:i]
		} else {
			e.frames = e.frames[:i+1]
			frame.Index = len(frame.Body)
		}
		return nil
	}
	e.frames = nil
	return NewEvaluationError(ErrInvalidControlFlow)
}

// recover replaces the innermost try frame with an except frame if err is catchable, it returns false
// if the error cannot be caught by this executor.
func (e *Executor) recover(err error) bool {
	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) || !evalErr.Catchable() {
		return false
	}

	for i := len(e.frames) - 1; i >= 0; i-- {
		frame := e.frames[i]
		if frame.Kind != TryFrame {
			continue
		}
		try := frame.Owner.(*ast.TryExceptStatement)
		e.frames = e.frames[:i]

		exceptScope := childScope(frame.Scope.parent)
		declErr := exceptScope.DeclareVariable(&Variable{
			Name:      try.ErrorVariable,
			Value:     newErrorValue(evalErr),
			Deletable: true,
		})
		if declErr != nil {
			return false
		}

		e.push(&Frame{
			Kind:   ExceptFrame,
			ListID: e.listID(try, ast.ExceptBody, 0),
			Owner:  try,
			Body:   try.Except,
			Scope:  exceptScope,
		})
		return true
	}
	return false
}

func childScope(parent *Scope) *Scope {
	return NewScope(parent, parent.program)
}

func iterationScope(loop *ast.ForLoopStatement, parent *Scope, element Value) (*Scope, error) {
	scope := childScope(parent)
	err := scope.DeclareVariable(&Variable{Name: loop.Variable, Value: element, Deletable: true})
	return scope, err
}

// execStatement executes a single statement, compound statements push a frame instead of executing their body.
func (e *Executor) execStatement(stmt ast.Statement, scope *Scope) (Signal, error) {
	proceed := Signal{Kind: ProceedSignal}

	switch s := stmt.(type) {
	case *ast.ImportStatement:
		module, err := scope.program.importModule(s)
		if err != nil {
			return Signal{}, err
		}
		return proceed, scope.DeclareVariable(&Variable{Name: s.BindingName(), Value: module, Deletable: true})
	case *ast.DeclareVariableStatement:
		value, err := EvalExpression(s.Value, scope)
		if err != nil {
			return Signal{}, err
		}
		return proceed, scope.DeclareVariable(&Variable{
			Name:      s.Name,
			Value:     value,
			Public:    s.Public,
			Editable:  s.Editable,
			Constant:  s.Constant,
			Deletable: !s.Constant,
		})
	case *ast.AssignVariableStatement:
		value, err := EvalExpression(s.Value, scope)
		if err != nil {
			return Signal{}, err
		}
		if op, isCompound := s.Operator.BinaryOperator(); isCompound {
			variable, _, ok := scope.Lookup(s.Name)
			if !ok {
				return Signal{}, NewEvaluationError(ErrUndefinedVariable, s.Name)
			}
			if variable.Constant {
				return Signal{}, NewEvaluationError(ErrNotEditable, s.Name)
			}
			value, err = BinaryOp(scope, op, variable.Value, value, true)
			if err != nil {
				return Signal{}, err
			}
		}
		return proceed, scope.SetVariable(s.Name, value, false)
	case *ast.SetItemStatement:
		target, err := EvalExpression(s.Target, scope)
		if err != nil {
			return Signal{}, err
		}
		key, err := EvalExpression(s.Key, scope)
		if err != nil {
			return Signal{}, err
		}
		value, err := EvalExpression(s.Value, scope)
		if err != nil {
			return Signal{}, err
		}
		if op, isCompound := s.Operator.BinaryOperator(); isCompound {
			current, err := GetItem(scope, target, key)
			if err != nil {
				return Signal{}, err
			}
			value, err = BinaryOp(scope, op, current, value, true)
			if err != nil {
				return Signal{}, err
			}
		}
		return proceed, SetItem(scope, target, key, value)
	case *ast.SetPropertyStatement:
		target, err := EvalExpression(s.Target, scope)
		if err != nil {
			return Signal{}, err
		}
		value, err := EvalExpression(s.Value, scope)
		if err != nil {
			return Signal{}, err
		}
		if op, isCompound := s.Operator.BinaryOperator(); isCompound {
			current, err := getProperty(scope, target, s.Property)
			if err != nil {
				return Signal{}, err
			}
			value, err = BinaryOp(scope, op, current, value, true)
			if err != nil {
				return Signal{}, err
			}
		}
		return proceed, setProperty(scope, target, s.Property, value)
	case *ast.DeleteVariableStatement:
		return proceed, scope.DeleteVariable(s.Name, false)
	case *ast.DeleteItemStatement:
		target, err := EvalExpression(s.Target, scope)
		if err != nil {
			return Signal{}, err
		}
		key, err := EvalExpression(s.Key, scope)
		if err != nil {
			return Signal{}, err
		}
		return proceed, DeleteItem(scope, target, key)
	case *ast.IfStatement:
		for i, branch := range s.Branches {
			condition, err := EvalExpression(branch.Condition, scope)
			if err != nil {
				return Signal{}, err
			}
			if Truthy(condition) {
				e.push(&Frame{
					Kind:   BranchFrame,
					ListID: e.listID(s, ast.IfBranchBody, i),
					Owner:  s,
					Body:   branch.Body,
					Scope:  childScope(scope),
				})
				return proceed, nil
			}
		}
		if s.Else != nil {
			e.push(&Frame{
				Kind:   BranchFrame,
				ListID: e.listID(s, ast.ElseBody, 0),
				Owner:  s,
				Body:   s.Else,
				Scope:  childScope(scope),
			})
		}
		return proceed, nil
	case *ast.WhileLoopStatement:
		condition, err := EvalExpression(s.Condition, scope)
		if err != nil {
			return Signal{}, err
		}
		if Truthy(condition) {
			e.push(&Frame{
				Kind:   LoopFrame,
				ListID: e.listID(s, ast.LoopBody, 0),
				Owner:  s,
				Body:   s.Body,
				Scope:  childScope(scope),
			})
		}
		return proceed, nil
	case *ast.ForLoopStatement:
		iterable, err := EvalExpression(s.Iterable, scope)
		if err != nil {
			return Signal{}, err
		}
		frame := &Frame{
			Kind:   LoopFrame,
			ListID: e.listID(s, ast.LoopBody, 0),
			Owner:  s,
			Body:   s.Body,
		}
		if r, ok := iterable.(Range); ok {
			frame.Range = &r
		} else {
			frame.Elements, err = Iterate(iterable)
			if err != nil {
				return Signal{}, err
			}
		}
		if frame.iterationLength() == 0 {
			return proceed, nil
		}
		frame.Scope, err = iterationScope(s, scope, frame.currentElement())
		if err != nil {
			return Signal{}, err
		}
		e.push(frame)
		return proceed, nil
	case *ast.TryExceptStatement:
		e.push(&Frame{
			Kind:   TryFrame,
			ListID: e.listID(s, ast.TryBody, 0),
			Owner:  s,
			Body:   s.Body,
			Scope:  childScope(scope),
		})
		return proceed, nil
	case *ast.DefineFunctionStatement:
		return proceed, scope.DeclareVariable(&Variable{
			Name:      s.Name,
			Value:     newUserFunction(s, scope.program),
			Public:    s.Public,
			Constant:  true,
			Deletable: true,
		})
	case *ast.WaitStatement:
		if !e.allowWait {
			return Signal{}, NewEvaluationError(ErrWaitOutsideProgram)
		}
		ticks, err := EvalExpression(s.Ticks, scope)
		if err != nil {
			return Signal{}, err
		}
		n, ok := ticks.(Int)
		if !ok || n < 0 {
			return Signal{}, NewEvaluationError(ErrInvalidWaitTicks, Repr(ticks))
		}
		return Signal{Kind: WaitSignal, Ticks: int64(n)}, nil
	case *ast.BreakStatement:
		return Signal{Kind: BreakSignal}, nil
	case *ast.ContinueStatement:
		return Signal{Kind: ContinueSignal}, nil
	case *ast.ReturnStatement:
		var value Value = NULL
		if s.Value != nil {
			var err error
			value, err = EvalExpression(s.Value, scope)
			if err != nil {
				return Signal{}, err
			}
		}
		return Signal{Kind: ReturnSignal, Value: value}, nil
	case *ast.ExpressionStatement:
		_, err := EvalExpression(s.Expression, scope)
		return proceed, err
	default:
		return Signal{}, fmt.Errorf("cannot execute %#v (%T)", stmt, stmt)
	}
}
