package confval

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Kind discriminates the closed set of value shapes a config file can hold.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindList
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return "invalid"
	}
}

// Value is a recursive tagged value representing parsed config content
// independent of its source format. Maps preserve insertion order and
// numbers keep their source literal so unaffected content round-trips.
type Value struct {
	kind  Kind
	b     bool
	lit   string // number literal or string text
	list  []Value
	pairs []Pair
}

// Pair is one ordered key/value entry of a map value.
type Pair struct {
	Key string
	Val Value
}

// Null returns the null value.
func Null() Value { return Value{kind: KindNull} }

// Boolean returns a bool value.
func Boolean(b bool) Value { return Value{kind: KindBool, b: b} }

// Number returns a number value holding the given source literal.
func Number(lit string) Value { return Value{kind: KindNumber, lit: lit} }

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, lit: s} }

// List returns a list value over the given elements.
func List(elems ...Value) Value {
	return Value{kind: KindList, list: elems}
}

// Map returns an empty ordered map value.
func Map() Value { return Value{kind: KindMap} }

// Kind reports the value's shape.
func (v Value) Kind() Kind { return v.kind }

// Bool returns the boolean payload. Valid only for KindBool.
func (v Value) Bool() bool { return v.b }

// Literal returns the number literal or string text payload.
func (v Value) Literal() string { return v.lit }

// Items returns the list elements. Valid only for KindList.
func (v Value) Items() []Value { return v.list }

// Pairs returns the ordered map entries. Valid only for KindMap.
func (v Value) Pairs() []Pair { return v.pairs }

// Len returns the number of list elements or map entries.
func (v Value) Len() int {
	if v.kind == KindList {
		return len(v.list)
	}
	return len(v.pairs)
}

// Get looks up a map key.
func (v Value) Get(key string) (Value, bool) {
	for _, p := range v.pairs {
		if p.Key == key {
			return p.Val, true
		}
	}
	return Value{}, false
}

// Set writes a map key, preserving the position of existing keys and
// appending new ones. The receiver must be a map value.
func (v *Value) Set(key string, val Value) {
	for i, p := range v.pairs {
		if p.Key == key {
			v.pairs[i].Val = val
			return
		}
	}
	v.pairs = append(v.pairs, Pair{Key: key, Val: val})
}

// Equal reports deep equality of two values. Numbers compare by literal.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindNumber, KindString:
		return a.lit == b.lit
	case KindList:
		if len(a.list) != len(b.list) {
			return false
		}
		for i := range a.list {
			if !Equal(a.list[i], b.list[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(a.pairs) != len(b.pairs) {
			return false
		}
		for i := range a.pairs {
			if a.pairs[i].Key != b.pairs[i].Key || !Equal(a.pairs[i].Val, b.pairs[i].Val) {
				return false
			}
		}
		return true
	}
	return false
}

// FromGo converts a decoded-JSON style Go value (map[string]any, []any,
// string, bool, nil, json.Number, float64, int) into a Value. Map keys are
// sorted so the result is deterministic regardless of Go map iteration.
func FromGo(v any) (Value, error) {
	switch x := v.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Boolean(x), nil
	case string:
		return String(x), nil
	case json.Number:
		return Number(x.String()), nil
	case int:
		return Number(strconv.Itoa(x)), nil
	case int64:
		return Number(strconv.FormatInt(x, 10)), nil
	case float64:
		return Number(strconv.FormatFloat(x, 'g', -1, 64)), nil
	case []any:
		out := make([]Value, 0, len(x))
		for _, e := range x {
			ev, err := FromGo(e)
			if err != nil {
				return Value{}, err
			}
			out = append(out, ev)
		}
		return List(out...), nil
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		m := Map()
		for _, k := range keys {
			kv, err := FromGo(x[k])
			if err != nil {
				return Value{}, err
			}
			m.Set(k, kv)
		}
		return m, nil
	default:
		return Value{}, fmt.Errorf("confval: unsupported Go value of type %T", v)
	}
}
