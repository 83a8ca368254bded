package value

import (
	"fmt"
	"sync/atomic"

	"github.com/dolthub/swiss"
)

// nextTypeID hands out globally unique instance type ids (§3.1: "assigned
// at class creation and is globally unique for the process").
var nextTypeID uint64

func newTypeID() uint64 { return atomic.AddUint64(&nextTypeID, 1) }

// constructorName is the reserved method name special-cased by class
// derivation (never copied from a base class) and by construction (§4.8).
const constructorName = "new"

// Class holds a class's metadata: name, optional base, its own method
// table, its static field table and a unique instance type-id. The method
// table is written only by the StoreMethod sequence the compiler emits
// while building a class body; the static field table stays writable
// afterwards, since StoreField/AssignField on a Class value set a static
// field at any time.
type Class struct {
	name         Symbol
	base         *Class
	methods      *swiss.Map[Symbol, Value]
	staticFields *swiss.Map[Symbol, Value]
	typeID       uint64
	ancestorIDs  map[uint64]bool
}

// NewClass creates a class with no base.
func NewClass(name Symbol) *Class {
	id := newTypeID()
	return &Class{
		name:         name,
		methods:      swiss.NewMap[Symbol, Value](4),
		staticFields: swiss.NewMap[Symbol, Value](0),
		typeID:       id,
		ancestorIDs:  map[uint64]bool{id: true},
	}
}

// NewDerivedClass creates a class deriving from base, per §4.2: the base's
// method table is copied omitting the constructor, and the base's static
// fields are cloned so subclass static mutations do not affect the parent.
func NewDerivedClass(name Symbol, base *Class) *Class {
	id := newTypeID()
	c := &Class{
		name:         name,
		base:         base,
		methods:      swiss.NewMap[Symbol, Value](4),
		staticFields: swiss.NewMap[Symbol, Value](0),
		typeID:       id,
		ancestorIDs:  make(map[uint64]bool, len(base.ancestorIDs)+1),
	}
	for k := range base.ancestorIDs {
		c.ancestorIDs[k] = true
	}
	c.ancestorIDs[id] = true

	base.methods.Iter(func(k Symbol, v Value) bool {
		if k.Text() != constructorName {
			c.methods.Put(k, v)
		}
		return false
	})
	base.staticFields.Iter(func(k Symbol, v Value) bool {
		c.staticFields.Put(k, v)
		return false
	})
	return c
}

func (c *Class) String() string { return fmt.Sprintf("class %s", c.name.Text()) }
func (*Class) Kind() Kind       { return KindClass }

// Name returns the class's declared name.
func (c *Class) Name() Symbol { return c.name }

// Base returns the class's base class, or nil if it has none.
func (c *Class) Base() *Class { return c.base }

// TypeID returns the class's unique instance type id.
func (c *Class) TypeID() uint64 { return c.typeID }

// Method looks up name in this class's own method table (which already
// contains any inherited methods copied in at derivation time).
func (c *Class) Method(name Symbol) (Value, bool) { return c.methods.Get(name) }

// SetMethod installs or replaces a method. Mutating a base class after a
// subclass has been derived from it does not affect the subclass, since the
// subclass already holds its own copy (§3.1, §8 "method copy at
// inheritance").
func (c *Class) SetMethod(name Symbol, fn Value) { c.methods.Put(name, fn) }

// StaticField and SetStaticField manage the class's own static field table,
// used for static (non-self) members declared in a class body.
func (c *Class) StaticField(name Symbol) (Value, bool) { return c.staticFields.Get(name) }
func (c *Class) SetStaticField(name Symbol, v Value)   { c.staticFields.Put(name, v) }

// IsClass reports whether other is this class or any of its ancestors, an
// O(1) set-membership test against the type-id set computed at derivation
// time.
func (c *Class) IsClass(other *Class) bool {
	if other == nil {
		return false
	}
	return c.ancestorIDs[other.typeID]
}
