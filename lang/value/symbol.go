package value

import "sync"

// Symbol is an interned name: equality is by interned id, not by text
// (§3.1). Symbols are created exclusively through an Interner so that
// symbol_of("a") == symbol_of("a") regardless of call site, while keeping
// the interner itself scoped to one Interner instance (one per lang/runtime
// Runtime) rather than a true process-wide global, per §9's design note,
// so that multiple embedded VMs do not share interned ids.
type Symbol struct {
	id   uint32
	text string
}

func (s Symbol) String() string { return s.text }
func (Symbol) Kind() Kind       { return KindSymbol }

// Text returns the symbol's underlying name.
func (s Symbol) Text() string { return s.text }

// Interner assigns stable, comparable ids to symbol text. The zero value is
// ready to use.
type Interner struct {
	mu   sync.Mutex
	ids  map[string]uint32
	text []string
}

// Intern returns the Symbol for name, creating and caching a new id the
// first time name is seen.
func (in *Interner) Intern(name string) Symbol {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.ids == nil {
		in.ids = make(map[string]uint32)
	}
	if id, ok := in.ids[name]; ok {
		return Symbol{id: id, text: name}
	}
	id := uint32(len(in.text))
	in.text = append(in.text, name)
	in.ids[name] = id
	return Symbol{id: id, text: name}
}
