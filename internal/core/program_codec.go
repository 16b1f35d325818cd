package core

import (
	"fmt"

	"github.com/inoxlang/tickscript/internal/ast"
	"github.com/inoxlang/tickscript/internal/compound"
)

// fields of serialized programs
const (
	PROGRAM_ID_FIELD             = "ID"
	PROGRAM_NAME_FIELD           = "Name"
	PROGRAM_MODULE_FIELD         = "Module"
	PROGRAM_IS_IMPORT_FIELD      = "IsImport"
	PROGRAM_ARGS_FIELD           = "Args"
	PROGRAM_TREE_FIELD           = "Tree"
	PROGRAM_STATUS_FIELD         = "Status"
	PROGRAM_WAIT_TICKS_FIELD     = "WaitTicks"
	PROGRAM_REPEATS_LEFT_FIELD   = "RepeatsLeft"
	PROGRAM_PAUSED_WAITING_FIELD = "PausedWhileWaiting"
	PROGRAM_GLOBALS_FIELD        = "Globals"
	PROGRAM_CURSOR_FIELD         = "Cursor"
	PROGRAM_IMPORTS_FIELD        = "Imports"
)

// MarshalProgram serializes the whole state of p: statement tree, global scope, cursor with its scopes and
// counters, imported modules. The original source text is not needed to restore it.
func MarshalProgram(p *Program) ([]byte, error) {
	c, err := EncodeProgram(p)
	if err != nil {
		return nil, err
	}
	return compound.Marshal(c)
}

// DecodeProgram restores a program serialized by MarshalProgram.
func DecodeProgram(ctx *DecodeContext, data []byte) (*Program, error) {
	c, err := compound.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = NewDecodeContext(nil)
	}
	ctx.programs = map[int64]*Program{}
	ctx.refs = nil

	//the programs are created first: functions and module values refer to them by id.
	p, err := decodeProgramHeader(ctx, c, nil)
	if err != nil {
		return nil, err
	}

	if c.Has(COLLECTIONS_FIELD) {
		if err := ctx.loadReferences(c); err != nil {
			return nil, err
		}
	}

	if err := decodeProgramState(ctx, c, p); err != nil {
		return nil, err
	}
	return p, nil
}

// EncodeProgram encodes p and the modules it imports, the collections referenced by their variables are
// stored once in a table at the top level.
func EncodeProgram(p *Program) (compound.Compound, error) {
	ctx := NewEncodeContext()
	ctx.registerPrograms(p)

	c, err := encodeProgram(ctx, p)
	if err != nil {
		return nil, err
	}
	return ctx.putReferences(c)
}

func encodeProgram(ctx *EncodeContext, p *Program) (compound.Compound, error) {
	id, _ := ctx.programID(p)

	c := compound.New().
		PutInt(PROGRAM_ID_FIELD, id).
		PutString(PROGRAM_NAME_FIELD, p.name).
		PutString(PROGRAM_MODULE_FIELD, p.moduleName).
		PutBool(PROGRAM_IS_IMPORT_FIELD, p.isImport).
		PutStrings(PROGRAM_ARGS_FIELD, p.args).
		PutCompound(PROGRAM_TREE_FIELD, ast.EncodeModule(p.module)).
		PutString(PROGRAM_STATUS_FIELD, p.status.String()).
		PutInt(PROGRAM_WAIT_TICKS_FIELD, p.waitTicks).
		PutInt(PROGRAM_REPEATS_LEFT_FIELD, p.repeatsLeft).
		PutBool(PROGRAM_PAUSED_WAITING_FIELD, p.pausedWhileWaiting)

	globals, err := encodeVariables(ctx, p.global)
	if err != nil {
		return nil, err
	}
	c.PutCompounds(PROGRAM_GLOBALS_FIELD, globals)

	if p.executor != nil {
		cursor, err := encodeCursor(ctx, p.executor.frames)
		if err != nil {
			return nil, err
		}
		c.PutCompounds(PROGRAM_CURSOR_FIELD, cursor)
	}

	//imported modules are kept even if no variable refers to them anymore, the functions they define may
	//still be referenced.
	if len(p.imports) > 0 {
		imports := make([]compound.Compound, len(p.imports))
		for i, imported := range p.imports {
			if imports[i], err = encodeProgram(ctx, imported); err != nil {
				return nil, fmt.Errorf("module %s: %w", imported.moduleName, err)
			}
		}
		c.PutCompounds(PROGRAM_IMPORTS_FIELD, imports)
	}
	return c, nil
}

// decodeProgramHeader creates p and the modules it imports without their scopes and cursors.
func decodeProgramHeader(ctx *DecodeContext, c compound.Compound, importer *Program) (*Program, error) {
	id, err := c.Int(PROGRAM_ID_FIELD)
	if err != nil {
		return nil, err
	}
	if _, ok := ctx.programs[id]; ok {
		return nil, fmt.Errorf("%w: duplicate program id %d", compound.ErrInvalidFieldType, id)
	}
	name, err := c.String(PROGRAM_NAME_FIELD)
	if err != nil {
		return nil, err
	}
	moduleName, err := c.String(PROGRAM_MODULE_FIELD)
	if err != nil {
		return nil, err
	}
	isImport, err := c.BoolOr(PROGRAM_IS_IMPORT_FIELD)
	if err != nil {
		return nil, err
	}
	args, err := c.Strings(PROGRAM_ARGS_FIELD)
	if err != nil {
		return nil, err
	}
	tree, err := c.Compound(PROGRAM_TREE_FIELD)
	if err != nil {
		return nil, err
	}
	module, err := ast.DecodeModule(tree)
	if err != nil {
		return nil, err
	}

	p := newProgram(ctx.manager, name, moduleName, isImport, args, module)
	p.importer = importer
	if importer != nil {
		p.logger = importer.logger.With().Str("module", moduleName).Logger()
	}
	ctx.programs[id] = p

	statusName, err := c.String(PROGRAM_STATUS_FIELD)
	if err != nil {
		return nil, err
	}
	status, ok := programStatusFromString(statusName)
	if !ok {
		return nil, fmt.Errorf("%w: unknown program status %q", compound.ErrInvalidFieldType, statusName)
	}
	p.status = status

	if p.waitTicks, err = c.IntOr(PROGRAM_WAIT_TICKS_FIELD, 0); err != nil {
		return nil, err
	}
	if p.repeatsLeft, err = c.IntOr(PROGRAM_REPEATS_LEFT_FIELD, 0); err != nil {
		return nil, err
	}
	if p.pausedWhileWaiting, err = c.BoolOr(PROGRAM_PAUSED_WAITING_FIELD); err != nil {
		return nil, err
	}

	if c.Has(PROGRAM_IMPORTS_FIELD) {
		imports, err := c.Compounds(PROGRAM_IMPORTS_FIELD)
		if err != nil {
			return nil, err
		}
		for _, encoded := range imports {
			imported, err := decodeProgramHeader(ctx, encoded, p)
			if err != nil {
				return nil, err
			}
			p.imports = append(p.imports, imported)
		}
	}
	return p, nil
}

// decodeProgramState decodes the global scope and the cursor of p and of the modules it imports.
func decodeProgramState(ctx *DecodeContext, c compound.Compound, p *Program) error {
	p.global = NewScope(nil, p)
	if err := decodeVariables(ctx, c, PROGRAM_GLOBALS_FIELD, p.global); err != nil {
		return err
	}

	if c.Has(PROGRAM_CURSOR_FIELD) {
		frames, err := c.Compounds(PROGRAM_CURSOR_FIELD)
		if err != nil {
			return err
		}
		executor, err := decodeCursor(ctx, p, frames)
		if err != nil {
			return err
		}
		p.executor = executor
	}

	if !c.Has(PROGRAM_IMPORTS_FIELD) {
		return nil
	}
	imports, err := c.Compounds(PROGRAM_IMPORTS_FIELD)
	if err != nil {
		return err
	}
	for i, encoded := range imports {
		if err := decodeProgramState(ctx, encoded, p.imports[i]); err != nil {
			return fmt.Errorf("module %s: %w", p.imports[i].moduleName, err)
		}
	}
	return nil
}

// fields of serialized variables
const (
	VARIABLE_NAME_FIELD      = "Name"
	VARIABLE_VALUE_FIELD     = "Value"
	VARIABLE_PUBLIC_FIELD    = "Public"
	VARIABLE_EDITABLE_FIELD  = "Editable"
	VARIABLE_CONSTANT_FIELD  = "Constant"
	VARIABLE_DELETABLE_FIELD = "Deletable"
)

func encodeVariables(ctx *EncodeContext, scope *Scope) ([]compound.Compound, error) {
	variables := scope.Variables()
	encoded := make([]compound.Compound, len(variables))

	for i, v := range variables {
		value, err := ctx.EncodeValue(v.Value)
		if err != nil {
			return nil, fmt.Errorf("variable %s: %w", v.Name, err)
		}
		encoded[i] = compound.New().
			PutString(VARIABLE_NAME_FIELD, v.Name).
			PutCompound(VARIABLE_VALUE_FIELD, value).
			PutBool(VARIABLE_PUBLIC_FIELD, v.Public).
			PutBool(VARIABLE_EDITABLE_FIELD, v.Editable).
			PutBool(VARIABLE_CONSTANT_FIELD, v.Constant).
			PutBool(VARIABLE_DELETABLE_FIELD, v.Deletable)
	}
	return encoded, nil
}

func decodeVariables(ctx *DecodeContext, c compound.Compound, key string, scope *Scope) error {
	list, err := c.Compounds(key)
	if err != nil {
		return err
	}

	for _, encoded := range list {
		v := &Variable{}
		if v.Name, err = encoded.String(VARIABLE_NAME_FIELD); err != nil {
			return err
		}
		valueCompound, err := encoded.Compound(VARIABLE_VALUE_FIELD)
		if err != nil {
			return err
		}
		if v.Value, err = DecodeValue(ctx, valueCompound); err != nil {
			return fmt.Errorf("variable %s: %w", v.Name, err)
		}
		if v.Public, err = encoded.BoolOr(VARIABLE_PUBLIC_FIELD); err != nil {
			return err
		}
		if v.Editable, err = encoded.BoolOr(VARIABLE_EDITABLE_FIELD); err != nil {
			return err
		}
		if v.Constant, err = encoded.BoolOr(VARIABLE_CONSTANT_FIELD); err != nil {
			return err
		}
		if v.Deletable, err = encoded.BoolOr(VARIABLE_DELETABLE_FIELD); err != nil {
			return err
		}
		if err := scope.DeclareVariable(v); err != nil {
			return err
		}
	}
	return nil
}

// fields of serialized cursor frames
const (
	FRAME_KIND_FIELD      = "Kind"
	FRAME_LIST_ID_FIELD   = "ListID"
	FRAME_INDEX_FIELD     = "Index"
	FRAME_VARIABLES_FIELD = "Variables"
	FRAME_ELEMENTS_FIELD  = "Elements"
	FRAME_RANGE_FIELD     = "Range"
	FRAME_POSITION_FIELD  = "Position"
)

// encodeCursor encodes the frames of a program executor, the scope of the base frame is the global scope
// and is not repeated.
func encodeCursor(ctx *EncodeContext, frames []*Frame) ([]compound.Compound, error) {
	encoded := make([]compound.Compound, len(frames))

	for i, frame := range frames {
		c := compound.New().
			PutString(FRAME_KIND_FIELD, frame.Kind.String()).
			PutInt(FRAME_LIST_ID_FIELD, int64(frame.ListID)).
			PutInt(FRAME_INDEX_FIELD, int64(frame.Index))

		if i > 0 {
			variables, err := encodeVariables(ctx, frame.Scope)
			if err != nil {
				return nil, err
			}
			c.PutCompounds(FRAME_VARIABLES_FIELD, variables)
		}

		switch {
		case frame.Range != nil:
			r, err := ctx.EncodeValue(*frame.Range)
			if err != nil {
				return nil, err
			}
			c.PutCompound(FRAME_RANGE_FIELD, r).PutInt(FRAME_POSITION_FIELD, frame.Position)
		case frame.Elements != nil:
			elements, err := encodeValues(ctx, frame.Elements)
			if err != nil {
				return nil, err
			}
			c.PutCompounds(FRAME_ELEMENTS_FIELD, elements).PutInt(FRAME_POSITION_FIELD, frame.Position)
		}
		encoded[i] = c
	}
	return encoded, nil
}

func decodeCursor(ctx *DecodeContext, p *Program, encoded []compound.Compound) (*Executor, error) {
	if len(encoded) == 0 {
		return nil, fmt.Errorf("%w: empty cursor", compound.ErrInvalidFieldType)
	}

	executor := &Executor{program: p, index: p.index, allowWait: !p.isImport}

	for i, c := range encoded {
		kindName, err := c.String(FRAME_KIND_FIELD)
		if err != nil {
			return nil, err
		}
		kind, ok := frameKindFromString(kindName)
		if !ok {
			return nil, fmt.Errorf("%w: unknown frame kind %q", compound.ErrInvalidFieldType, kindName)
		}
		listID, err := c.Int(FRAME_LIST_ID_FIELD)
		if err != nil {
			return nil, err
		}
		index, err := c.Int(FRAME_INDEX_FIELD)
		if err != nil {
			return nil, err
		}

		body, key, ok := p.index.List(int(listID))
		if !ok || index < 0 || index > int64(len(body)) {
			return nil, fmt.Errorf("%w: invalid cursor position %d:%d", compound.ErrInvalidFieldType, listID, index)
		}
		if (i == 0) != (listID == ast.MODULE_BODY_LIST_ID) {
			return nil, fmt.Errorf("%w: the module body should be the base frame", compound.ErrInvalidFieldType)
		}
		if kind == LoopFrame && key.Role != ast.LoopBody {
			return nil, fmt.Errorf("%w: loop frame over a non-loop body", compound.ErrInvalidFieldType)
		}

		frame := &Frame{
			Kind:   kind,
			ListID: int(listID),
			Owner:  key.Owner,
			Body:   body,
			Index:  int(index),
		}

		if i == 0 {
			frame.Scope = p.global
		} else {
			frame.Scope = NewScope(executor.frames[i-1].Scope, p)
			if err := decodeVariables(ctx, c, FRAME_VARIABLES_FIELD, frame.Scope); err != nil {
				return nil, err
			}
		}

		if frame.Position, err = c.IntOr(FRAME_POSITION_FIELD, 0); err != nil {
			return nil, err
		}

		switch {
		case c.Has(FRAME_RANGE_FIELD):
			rangeCompound, err := c.Compound(FRAME_RANGE_FIELD)
			if err != nil {
				return nil, err
			}
			r, err := decodeRange(rangeCompound)
			if err != nil {
				return nil, err
			}
			frame.Range = &r
		case c.Has(FRAME_ELEMENTS_FIELD):
			if frame.Elements, err = decodeValues(ctx, c, FRAME_ELEMENTS_FIELD); err != nil {
				return nil, err
			}
		}

		executor.frames = append(executor.frames, frame)
	}
	return executor, nil
}
