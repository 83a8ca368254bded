package value

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewClassIsItsOwnAncestor(t *testing.T) {
	var in Interner
	a := NewClass(in.Intern("A"))
	require.True(t, a.IsClass(a))
}

func TestDerivedClassIsAncestorOfItself(t *testing.T) {
	var in Interner
	base := NewClass(in.Intern("Base"))
	derived := NewDerivedClass(in.Intern("Derived"), base)

	require.True(t, derived.IsClass(base))
	require.True(t, derived.IsClass(derived))
	require.False(t, base.IsClass(derived))
}

func TestDerivedClassCopiesMethodsExceptConstructor(t *testing.T) {
	var in Interner
	base := NewClass(in.Intern("Base"))
	newSym := in.Intern("new")
	greetSym := in.Intern("greet")
	base.SetMethod(newSym, &FnNative{Name: "new"})
	base.SetMethod(greetSym, &FnNative{Name: "greet"})

	derived := NewDerivedClass(in.Intern("Derived"), base)

	_, hasNew := derived.Method(newSym)
	require.False(t, hasNew)

	got, hasGreet := derived.Method(greetSym)
	require.True(t, hasGreet)
	require.Equal(t, "greet", got.(*FnNative).Name)
}

func TestDerivedClassMethodCopyIsSnapshot(t *testing.T) {
	var in Interner
	base := NewClass(in.Intern("Base"))
	greetSym := in.Intern("greet")
	base.SetMethod(greetSym, &FnNative{Name: "original"})

	derived := NewDerivedClass(in.Intern("Derived"), base)

	// Mutating the base's method table after derivation must not affect the
	// already-derived subclass's own copy.
	base.SetMethod(greetSym, &FnNative{Name: "replaced"})

	got, ok := derived.Method(greetSym)
	require.True(t, ok)
	require.Equal(t, "original", got.(*FnNative).Name)
}

func TestDerivedClassStaticFieldsAreCloned(t *testing.T) {
	var in Interner
	base := NewClass(in.Intern("Base"))
	countSym := in.Intern("count")
	base.SetStaticField(countSym, Int(1))

	derived := NewDerivedClass(in.Intern("Derived"), base)
	derived.SetStaticField(countSym, Int(2))

	baseVal, _ := base.StaticField(countSym)
	derivedVal, _ := derived.StaticField(countSym)
	require.Equal(t, Int(1), baseVal)
	require.Equal(t, Int(2), derivedVal)
}

func TestClassNameAndBase(t *testing.T) {
	var in Interner
	base := NewClass(in.Intern("Base"))
	derived := NewDerivedClass(in.Intern("Derived"), base)

	require.Equal(t, "Derived", derived.Name().Text())
	require.Same(t, base, derived.Base())
	require.Nil(t, base.Base())
}

func TestClassTypeIDsAreUnique(t *testing.T) {
	var in Interner
	a := NewClass(in.Intern("A"))
	b := NewClass(in.Intern("B"))
	require.NotEqual(t, a.TypeID(), b.TypeID())
}

func TestIsClassRejectsNil(t *testing.T) {
	var in Interner
	a := NewClass(in.Intern("A"))
	require.False(t, a.IsClass(nil))
}

func TestUnrelatedClassesAreNotInstances(t *testing.T) {
	var in Interner
	a := NewClass(in.Intern("A"))
	b := NewClass(in.Intern("B"))
	require.False(t, a.IsClass(b))
	require.False(t, b.IsClass(a))
}
