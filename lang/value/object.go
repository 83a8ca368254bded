package value

import (
	"fmt"

	"github.com/dolthub/swiss"
)

// Object is a shared, mutable mapping from Symbol to Value plus a Class
// back-reference. Equality is by reference identity (§3.1). The Class
// reference is set once at construction and never mutated (§3.1 invariant).
type Object struct {
	class  *Class
	fields *swiss.Map[Symbol, Value]
}

// NewObject allocates an Object of the given class with no fields set.
func NewObject(class *Class) *Object {
	return &Object{class: class, fields: swiss.NewMap[Symbol, Value](4)}
}

func (o *Object) String() string { return fmt.Sprintf("%s(%p)", o.class.Name().Text(), o) }
func (*Object) Kind() Kind       { return KindObject }

// Class returns the object's class, fixed at construction time.
func (o *Object) Class() *Class { return o.class }

// Field returns the value stored under name, if any.
func (o *Object) Field(name Symbol) (Value, bool) { return o.fields.Get(name) }

// SetField stores val under name, overwriting any previous value.
func (o *Object) SetField(name Symbol, val Value) { o.fields.Put(name, val) }

// FieldsSnapshot returns a copy of the object's fields for reflection; the
// caller may freely mutate the returned map without affecting the object.
func (o *Object) FieldsSnapshot() map[Symbol]Value {
	snap := make(map[Symbol]Value, o.fields.Count())
	o.fields.Iter(func(k Symbol, v Value) bool {
		snap[k] = v
		return false
	})
	return snap
}
