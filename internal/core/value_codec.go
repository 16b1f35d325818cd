package core

import (
	"fmt"

	"github.com/inoxlang/tickscript/internal/compound"
)

const (
	TYPE_FIELD        = "Type"
	REF_FIELD         = "Ref"
	ID_FIELD          = "ID"
	COLLECTIONS_FIELD = "Collections"
)

// An ObjectResolver resolves the lookup key of a live host object (entity, world object, ...) to a value,
// it is provided by the host when programs are restored.
type ObjectResolver interface {
	ResolveObject(typeName string, key string) (Value, error)
}

// An EncodeContext holds the state shared by the values of a program and of the modules it imports while
// they are encoded. A reference value is assigned an id the first time it is met, its content is encoded
// once in a table and every occurrence is encoded as {"Type": ..., "Ref": id}: aliasing and cycles survive
// a round trip.
type EncodeContext struct {
	refIDs     map[Value]int64
	refs       []Value
	programIDs map[*Program]int64
}

func NewEncodeContext() *EncodeContext {
	return &EncodeContext{
		refIDs:     map[Value]int64{},
		programIDs: map[*Program]int64{},
	}
}

func (ctx *EncodeContext) EncodeValue(v Value) (compound.Compound, error) {
	t := TypeOf(v)
	if t.IsReference() {
		id, ok := ctx.refIDs[v]
		if !ok {
			id = int64(len(ctx.refs))
			ctx.refIDs[v] = id
			ctx.refs = append(ctx.refs, v)
		}
		return compound.New().PutString(TYPE_FIELD, t.Name).PutInt(REF_FIELD, id), nil
	}

	if t.Encode == nil {
		return nil, NewEvaluationError(ErrValueNotSerializable, t.Name)
	}
	c, err := t.Encode(ctx, v)
	if err != nil {
		return nil, err
	}
	return c.PutString(TYPE_FIELD, t.Name), nil
}

func (ctx *EncodeContext) programID(p *Program) (int64, bool) {
	id, ok := ctx.programIDs[p]
	return id, ok
}

// registerPrograms assigns an id to p and to the modules it imports, recursively.
func (ctx *EncodeContext) registerPrograms(p *Program) {
	if _, ok := ctx.programIDs[p]; ok {
		return
	}
	ctx.programIDs[p] = int64(len(ctx.programIDs))
	for _, imported := range p.imports {
		ctx.registerPrograms(imported)
	}
}

// putReferences encodes the content of the reference values met so far and stores the table in c. The
// table grows while it is encoded, nested collections are therefore handled without recursion.
func (ctx *EncodeContext) putReferences(c compound.Compound) (compound.Compound, error) {
	var encoded []compound.Compound

	for i := 0; i < len(ctx.refs); i++ {
		v := ctx.refs[i]
		t := TypeOf(v)
		content, err := t.Encode(ctx, v)
		if err != nil {
			return nil, err
		}
		encoded = append(encoded, content.PutString(TYPE_FIELD, t.Name).PutInt(ID_FIELD, int64(i)))
	}

	if len(encoded) > 0 {
		c.PutCompounds(COLLECTIONS_FIELD, encoded)
	}
	return c, nil
}

// EncodeValue encodes a standalone value, the table of the collections it contains is stored next to it.
func EncodeValue(v Value) (compound.Compound, error) {
	ctx := NewEncodeContext()
	c, err := ctx.EncodeValue(v)
	if err != nil {
		return nil, err
	}
	return ctx.putReferences(c)
}

// A DecodeContext holds what the Decode hooks of types need to reconstruct values.
type DecodeContext struct {
	Resolver ObjectResolver //can be nil

	manager  *ProgramManager
	programs map[int64]*Program
	refs     map[int64]Value
}

func NewDecodeContext(resolver ObjectResolver) *DecodeContext {
	return &DecodeContext{Resolver: resolver}
}

// Resolve resolves a live object, it fails with ErrObjectNotResolved if there is no resolver.
func (ctx *DecodeContext) Resolve(typeName string, key string) (Value, error) {
	if ctx == nil || ctx.Resolver == nil {
		return nil, NewEvaluationError(ErrObjectNotResolved, typeName, key)
	}
	v, err := ctx.Resolver.ResolveObject(typeName, key)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", ErrObjectNotResolved, typeName, key, err)
	}
	return v, nil
}

// program returns the decoded program (or imported module) with the given id.
func (ctx *DecodeContext) program(id int64) (*Program, error) {
	p, ok := ctx.programs[id]
	if !ok {
		return nil, fmt.Errorf("%w: unknown program %d", compound.ErrInvalidFieldType, id)
	}
	return p, nil
}

// loadReferences decodes the table of reference values stored in c. All values are first created empty so
// that references between them, including cycles, can be resolved while they are filled.
func (ctx *DecodeContext) loadReferences(c compound.Compound) error {
	encoded, err := c.Compounds(COLLECTIONS_FIELD)
	if err != nil {
		return err
	}

	ctx.refs = make(map[int64]Value, len(encoded))
	types := make([]*Type, len(encoded))

	for i, e := range encoded {
		typeName, err := e.String(TYPE_FIELD)
		if err != nil {
			return err
		}
		t, ok := TypeByName(typeName)
		if !ok || !t.IsReference() {
			return NewEvaluationError(ErrValueNotSerializable, typeName)
		}
		id, err := e.Int(ID_FIELD)
		if err != nil {
			return err
		}
		if _, ok := ctx.refs[id]; ok {
			return fmt.Errorf("%w: duplicate collection id %d", compound.ErrInvalidFieldType, id)
		}
		types[i] = t
		ctx.refs[id] = t.New()
	}

	for i, e := range encoded {
		id, _ := e.Int(ID_FIELD)
		if err := types[i].Fill(ctx, ctx.refs[id], e); err != nil {
			return err
		}
	}

	//set keys depend on the content of the elements, they are computed once every collection is filled.
	for _, v := range ctx.refs {
		if set, ok := v.(*Set); ok {
			set.reindex()
		}
	}
	return nil
}

func DecodeValue(ctx *DecodeContext, c compound.Compound) (Value, error) {
	if ctx == nil {
		ctx = NewDecodeContext(nil)
	}
	if c.Has(COLLECTIONS_FIELD) {
		if err := ctx.loadReferences(c); err != nil {
			return nil, err
		}
	}

	typeName, err := c.String(TYPE_FIELD)
	if err != nil {
		return nil, err
	}
	t, ok := TypeByName(typeName)
	if !ok {
		return nil, NewEvaluationError(ErrValueNotSerializable, typeName)
	}

	if t.IsReference() {
		id, err := c.Int(REF_FIELD)
		if err != nil {
			return nil, err
		}
		v, ok := ctx.refs[id]
		if !ok || TypeOf(v) != t {
			return nil, fmt.Errorf("%w: unknown %s %d", compound.ErrInvalidFieldType, typeName, id)
		}
		return v, nil
	}

	if t.Decode == nil {
		return nil, NewEvaluationError(ErrValueNotSerializable, typeName)
	}
	return t.Decode(ctx, c)
}

func encodeValues(ctx *EncodeContext, values []Value) ([]compound.Compound, error) {
	encoded := make([]compound.Compound, len(values))
	for i, v := range values {
		c, err := ctx.EncodeValue(v)
		if err != nil {
			return nil, err
		}
		encoded[i] = c
	}
	return encoded, nil
}

func decodeValues(ctx *DecodeContext, c compound.Compound, key string) ([]Value, error) {
	list, err := c.Compounds(key)
	if err != nil {
		return nil, err
	}
	values := make([]Value, len(list))
	for i, e := range list {
		values[i], err = DecodeValue(ctx, e)
		if err != nil {
			return nil, err
		}
	}
	return values, nil
}
