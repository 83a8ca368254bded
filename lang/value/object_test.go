package value

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestObjectFieldGetSet(t *testing.T) {
	var in Interner
	class := NewClass(in.Intern("Point"))
	o := NewObject(class)

	xSym := in.Intern("x")
	_, ok := o.Field(xSym)
	require.False(t, ok)

	o.SetField(xSym, Int(3))
	v, ok := o.Field(xSym)
	require.True(t, ok)
	require.Equal(t, Int(3), v)

	o.SetField(xSym, Int(4))
	v, _ = o.Field(xSym)
	require.Equal(t, Int(4), v)
}

func TestObjectClassIsFixed(t *testing.T) {
	var in Interner
	class := NewClass(in.Intern("Point"))
	o := NewObject(class)
	require.Same(t, class, o.Class())
}

func TestObjectFieldsSnapshotIsIndependentCopy(t *testing.T) {
	var in Interner
	class := NewClass(in.Intern("Point"))
	o := NewObject(class)
	xSym := in.Intern("x")
	o.SetField(xSym, Int(1))

	snap := o.FieldsSnapshot()
	require.Equal(t, Int(1), snap[xSym])

	snap[xSym] = Int(99)
	v, _ := o.Field(xSym)
	require.Equal(t, Int(1), v)
}

func TestObjectIdentityEquality(t *testing.T) {
	var in Interner
	class := NewClass(in.Intern("Point"))
	a := NewObject(class)
	b := NewObject(class)
	require.NotSame(t, a, b)
}

func TestObjectKind(t *testing.T) {
	var in Interner
	class := NewClass(in.Intern("Point"))
	o := NewObject(class)
	require.Equal(t, KindObject, o.Kind())
}
