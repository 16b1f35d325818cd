package ast

import (
	"fmt"
	"strings"
)

const REPEAT_FOREVER = -1

// A Module is the root of a parsed program.
type Module struct {
	Statements []Statement
	Schedule   *Schedule //nil if the module has no schedule header
}

// Schedule is the optional module header 'schedule <delay> [repeat <n>|forever];': the program
// waits Delay ticks before its first statement and is restarted Repeat more times after completion.
type Schedule struct {
	Delay  int64
	Repeat int64 //REPEAT_FOREVER means forever
}

func (s *Schedule) String() string {
	switch {
	case s.Repeat == REPEAT_FOREVER:
		return fmt.Sprintf("schedule %d forever;", s.Delay)
	case s.Repeat > 0:
		return fmt.Sprintf("schedule %d repeat %d;", s.Delay, s.Repeat)
	default:
		return fmt.Sprintf("schedule %d;", s.Delay)
	}
}

func (m *Module) String() string {
	buf := strings.Builder{}
	if m.Schedule != nil {
		buf.WriteString(m.Schedule.String())
		buf.WriteByte('\n')
	}
	for _, stmt := range m.Statements {
		buf.WriteString(stmt.String())
		buf.WriteByte('\n')
	}
	return buf.String()
}

// ListRole is the role of a statement list inside its owner statement.
type ListRole int

const (
	ModuleBody ListRole = iota
	IfBranchBody
	ElseBody
	LoopBody
	TryBody
	ExceptBody
	FunctionBody
)

// ListKey identifies a statement list by its owner statement (nil for the module body), its role and
// the index of the branch for if branches.
type ListKey struct {
	Owner  Statement
	Role   ListRole
	Branch int
}

const MODULE_BODY_LIST_ID = 0

// A StatementIndex numbers every statement list of a module in pre-order, the module body has the id 0.
// The numbering only depends on the shape of the tree: the index of a decoded module assigns the same ids
// as the index of the module that was encoded.
type StatementIndex struct {
	lists [][]Statement
	keys  []ListKey
	ids   map[ListKey]int
}

func IndexStatementLists(module *Module) *StatementIndex {
	index := &StatementIndex{
		ids: map[ListKey]int{},
	}
	index.add(ListKey{Role: ModuleBody}, module.Statements)
	return index
}

func (index *StatementIndex) add(key ListKey, list []Statement) {
	index.ids[key] = len(index.lists)
	index.lists = append(index.lists, list)
	index.keys = append(index.keys, key)

	for _, stmt := range list {
		switch s := stmt.(type) {
		case *IfStatement:
			for i, branch := range s.Branches {
				index.add(ListKey{Owner: s, Role: IfBranchBody, Branch: i}, branch.Body)
			}
			if s.Else != nil {
				index.add(ListKey{Owner: s, Role: ElseBody}, s.Else)
			}
		case *WhileLoopStatement:
			index.add(ListKey{Owner: s, Role: LoopBody}, s.Body)
		case *ForLoopStatement:
			index.add(ListKey{Owner: s, Role: LoopBody}, s.Body)
		case *TryExceptStatement:
			index.add(ListKey{Owner: s, Role: TryBody}, s.Body)
			index.add(ListKey{Owner: s, Role: ExceptBody}, s.Except)
		case *DefineFunctionStatement:
			index.add(ListKey{Owner: s, Role: FunctionBody}, s.Body)
		}
	}
}

func (index *StatementIndex) Len() int {
	return len(index.lists)
}

// ID returns the id of the list identified by key, ok is false if the list is not part of the indexed module.
func (index *StatementIndex) ID(key ListKey) (id int, ok bool) {
	id, ok = index.ids[key]
	return
}

// List returns the list with the given id and its key.
func (index *StatementIndex) List(id int) ([]Statement, ListKey, bool) {
	if id < 0 || id >= len(index.lists) {
		return nil, ListKey{}, false
	}
	return index.lists[id], index.keys[id], true
}
