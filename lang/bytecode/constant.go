package bytecode

// Symbol marks a constant-pool string as an interned-name constant (used by
// LoadGlobal/StoreGlobal, LoadField/StoreField/AssignField, LoadMethod/
// StoreMethod, CreateClass/InheritClass and LoadModule) rather than a plain
// String literal value. The two need to dedup separately even when their
// text is identical, since a String constant becomes a value.String at
// PushConst time while a Symbol constant is resolved through the runtime's
// symbol interner (see lang/runtime) to get identity-comparable equality.
type Symbol string

// Constant is the set of concrete Go types that may legally appear in a
// Program's constant pool: int64 and float64 for numeric literals outside
// the dedicated {0,1} opcodes, string for String literals, Symbol for
// interned names, and *value.FnScript (held as `any` to avoid an import
// cycle between bytecode and value) for a function literal, referenced by
// PushConst when it captures no upvalues and by CreateClosure when it does.
type Constant = any
