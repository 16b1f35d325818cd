package hosttypes

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/inoxlang/tickscript/internal/compound"
	"github.com/inoxlang/tickscript/internal/core"
	cmap "github.com/orcaman/concurrent-map/v2"
)

const ENTITY_TYPE_NAME = "entity"

var (
	ENTITY_TYPE = core.RegisterType(&core.Type{
		Name: ENTITY_TYPE_NAME,
		Doc:  "Live object of the host world. Only the UUID of an entity is saved, entities are resolved by the host when programs are restored.",
	})

	ErrUnknownObjectType = errors.New("unknown object type")
	ErrEntityNotFound    = errors.New("entity not found")

	_ core.ObjectResolver = (*EntityRegistry)(nil)
)

// An Entity is shared by reference between the host and the programs.
type Entity struct {
	ID   uuid.UUID
	Name string
}

func (*Entity) Kind() core.TypeKind { return ENTITY_TYPE.Kind }

func init() {
	t := ENTITY_TYPE
	entity := func(v core.Value) *Entity { return v.(*Entity) }

	t.Str = func(self core.Value) string {
		e := entity(self)
		if e.Name == "" {
			return e.ID.String()
		}
		return e.Name
	}
	t.Repr = func(self core.Value) string {
		e := entity(self)
		return "entity(" + strconv.Quote(e.Name) + ", " + e.ID.String() + ")"
	}
	t.Equal = func(self, other core.Value) bool {
		o, ok := other.(*Entity)
		return ok && o.ID == entity(self).ID
	}
	t.Encode = func(ctx *core.EncodeContext, v core.Value) (compound.Compound, error) {
		return compound.New().PutString("UUID", entity(v).ID.String()), nil
	}
	t.Decode = func(ctx *core.DecodeContext, c compound.Compound) (core.Value, error) {
		id, err := c.String("UUID")
		if err != nil {
			return nil, err
		}
		return ctx.Resolve(ENTITY_TYPE_NAME, id)
	}
	t.Properties = map[string]*core.Property{
		"uuid": {
			Name: "uuid",
			Doc:  "UUID of the entity.",
			Get: func(scope *core.Scope, self core.Value) (core.Value, error) {
				return core.String(entity(self).ID.String()), nil
			},
		},
		"name": {
			Name: "name",
			Doc:  "Custom name of the entity, empty if it has none.",
			Get: func(scope *core.Scope, self core.Value) (core.Value, error) {
				return core.String(entity(self).Name), nil
			},
			Set: func(scope *core.Scope, self, value core.Value) error {
				s, ok := value.(core.String)
				if !ok {
					return core.NewEvaluationError(core.ErrInvalidArgumentType, "name", core.TypeOf(value).Name)
				}
				entity(self).Name = string(s)
				return nil
			},
		},
	}
}

// EntityRegistry holds the live entities of the host, it resolves entity references when programs are restored.
type EntityRegistry struct {
	entities cmap.ConcurrentMap[string, *Entity]
}

func NewEntityRegistry() *EntityRegistry {
	return &EntityRegistry{entities: cmap.New[*Entity]()}
}

// Spawn creates an entity with a random UUID and adds it to the registry.
func (r *EntityRegistry) Spawn(name string) *Entity {
	e := &Entity{ID: uuid.New(), Name: name}
	r.Add(e)
	return e
}

func (r *EntityRegistry) Add(e *Entity) {
	r.entities.Set(e.ID.String(), e)
}

func (r *EntityRegistry) Get(id uuid.UUID) (*Entity, bool) {
	return r.entities.Get(id.String())
}

func (r *EntityRegistry) Remove(id uuid.UUID) {
	r.entities.Remove(id.String())
}

func (r *EntityRegistry) Count() int {
	return r.entities.Count()
}

func (r *EntityRegistry) ResolveObject(typeName string, key string) (core.Value, error) {
	if typeName != ENTITY_TYPE_NAME {
		return nil, fmt.Errorf("%w: %s", ErrUnknownObjectType, typeName)
	}
	id, err := uuid.Parse(key)
	if err != nil {
		return nil, err
	}
	e, ok := r.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEntityNotFound, id)
	}
	return e, nil
}
