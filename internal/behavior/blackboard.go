package behavior

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/joeycumines/goblinscript/internal/geom"
)

// Kind tags the payload of a Value.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindVector
	KindNodeState
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindVector:
		return "vector"
	case KindNodeState:
		return "node-state"
	}
	return "invalid"
}

// Value is a tagged blackboard value. Accessors report ok=false on a kind
// mismatch instead of converting.
type Value struct {
	kind Kind
	i    int
	f    float32
	s    string
	v    geom.Vec2
	st   Status
	b    bool
}

func Bool(b bool) Value              { return Value{kind: KindBool, b: b} }
func Int(i int) Value                { return Value{kind: KindInt, i: i} }
func Float(f float32) Value          { return Value{kind: KindFloat, f: f} }
func String(s string) Value          { return Value{kind: KindString, s: s} }
func Vector(v geom.Vec2) Value       { return Value{kind: KindVector, v: v} }
func NodeState(st Status) Value      { return Value{kind: KindNodeState, st: st} }
func (v Value) Kind() Kind           { return v.kind }
func (v Value) IsValid() bool        { return v.kind != KindInvalid }
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }
func (v Value) AsInt() (int, bool)   { return v.i, v.kind == KindInt }
func (v Value) AsFloat() (float32, bool) {
	return v.f, v.kind == KindFloat
}
func (v Value) AsString() (string, bool)    { return v.s, v.kind == KindString }
func (v Value) AsVector() (geom.Vec2, bool) { return v.v, v.kind == KindVector }
func (v Value) AsNodeState() (Status, bool) { return v.st, v.kind == KindNodeState }

// Any unwraps the payload into a plain Go value (nil when invalid).
func (v Value) Any() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat:
		return float64(v.f)
	case KindString:
		return v.s
	case KindVector:
		return v.v
	case KindNodeState:
		return v.st.String()
	}
	return nil
}

func (v Value) String() string {
	if v.kind == KindInvalid {
		return "<invalid>"
	}
	return fmt.Sprintf("%s(%v)", v.kind, v.Any())
}

// Blackboard is a character's key/value memory. It doubles as the external
// run state of the behavior tree: composites and stateful leaves keep their
// per-character progress under NodeKey entries, never on the node itself.
//
// A Blackboard is safe for concurrent use. The zero value is ready to use.
type Blackboard struct {
	mu   sync.RWMutex
	data map[string]Value

	// tree is the Tree whose node ids own the synthetic keys.
	tree atomic.Pointer[Tree]
}

// NewBlackboard returns an empty blackboard.
func NewBlackboard() *Blackboard { return new(Blackboard) }

// NodeKey builds the synthetic key "<id>.<suffix>" used by tree nodes.
func NodeKey(id int, suffix string) string {
	return strconv.Itoa(id) + "." + suffix
}

// IsNodeKey reports whether key has the "<digits>.<suffix>" form.
func IsNodeKey(key string) bool {
	i := strings.IndexByte(key, '.')
	if i <= 0 {
		return false
	}
	for _, r := range key[:i] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Get returns the value stored under key.
func (b *Blackboard) Get(key string) (Value, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.data[key]
	return v, ok
}

// Set stores v under key, replacing any previous value.
func (b *Blackboard) Set(key string, v Value) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.data == nil {
		b.data = make(map[string]Value)
	}
	b.data[key] = v
}

// GetInt returns the Int stored under key; ok is false if missing or mismatched.
func (b *Blackboard) GetInt(key string) (int, bool) {
	v, _ := b.Get(key)
	return v.AsInt()
}

func (b *Blackboard) GetFloat(key string) (float32, bool) {
	v, _ := b.Get(key)
	return v.AsFloat()
}

func (b *Blackboard) GetVector(key string) (geom.Vec2, bool) {
	v, _ := b.Get(key)
	return v.AsVector()
}

func (b *Blackboard) GetBool(key string) (bool, bool) {
	v, _ := b.Get(key)
	return v.AsBool()
}

func (b *Blackboard) GetString(key string) (string, bool) {
	v, _ := b.Get(key)
	return v.AsString()
}

// Has reports whether key is present.
func (b *Blackboard) Has(key string) bool {
	_, ok := b.Get(key)
	return ok
}

// Delete removes key.
func (b *Blackboard) Delete(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.data, key)
}

// Keys returns all keys, sorted.
func (b *Blackboard) Keys() []string {
	b.mu.RLock()
	keys := make([]string, 0, len(b.data))
	for k := range b.data {
		keys = append(keys, k)
	}
	b.mu.RUnlock()
	sort.Strings(keys)
	return keys
}

// Len returns the number of entries.
func (b *Blackboard) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.data)
}

// Clear removes every entry. The tree binding is kept.
func (b *Blackboard) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	clear(b.data)
}

// Snapshot returns a copy of the entries.
func (b *Blackboard) Snapshot() map[string]Value {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string]Value, len(b.data))
	for k, v := range b.data {
		out[k] = v
	}
	return out
}

// Tree returns the tree currently bound to b, or nil.
func (b *Blackboard) Tree() *Tree { return b.tree.Load() }

// Rebind drops every synthetic node key and binds b to t (which may be nil).
// Semantic keys such as "target_pos" survive.
func (b *Blackboard) Rebind(t *Tree) {
	b.mu.Lock()
	for k := range b.data {
		if IsNodeKey(k) {
			delete(b.data, k)
		}
	}
	b.tree.Store(t)
	b.mu.Unlock()
}

// bind claims b for t on first use and reports whether t owns b.
func (b *Blackboard) bind(t *Tree) bool {
	if b.tree.CompareAndSwap(nil, t) {
		return true
	}
	return b.tree.Load() == t
}
