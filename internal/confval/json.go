package confval

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// ParseJSON decodes JSON bytes into a Value using a token stream so object
// key order is preserved and number literals survive untouched.
func ParseJSON(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeJSON(dec)
	if err != nil {
		return Value{}, fmt.Errorf("parse json: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return Value{}, fmt.Errorf("parse json: trailing content after document")
	}
	return v, nil
}

func decodeJSON(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}
	return decodeJSONToken(dec, tok)
}

func decodeJSONToken(dec *json.Decoder, tok json.Token) (Value, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			m := Map()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Value{}, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return Value{}, fmt.Errorf("object key is %T, want string", keyTok)
				}
				val, err := decodeJSON(dec)
				if err != nil {
					return Value{}, err
				}
				m.Set(key, val)
			}
			if _, err := dec.Token(); err != nil { // consume '}'
				return Value{}, err
			}
			return m, nil
		case '[':
			var elems []Value
			for dec.More() {
				ev, err := decodeJSON(dec)
				if err != nil {
					return Value{}, err
				}
				elems = append(elems, ev)
			}
			if _, err := dec.Token(); err != nil { // consume ']'
				return Value{}, err
			}
			return List(elems...), nil
		}
		return Value{}, fmt.Errorf("unexpected delimiter %v", t)
	case string:
		return String(t), nil
	case bool:
		return Boolean(t), nil
	case json.Number:
		return Number(t.String()), nil
	case nil:
		return Null(), nil
	default:
		return Value{}, fmt.Errorf("unexpected token %v", tok)
	}
}

// RenderJSON serializes a Value as two-space indented JSON with a trailing
// newline.
func RenderJSON(v Value) ([]byte, error) {
	var b strings.Builder
	if err := writeJSON(&b, v, 0); err != nil {
		return nil, fmt.Errorf("render json: %w", err)
	}
	b.WriteString("\n")
	return []byte(b.String()), nil
}

func writeJSON(b *strings.Builder, v Value, depth int) error {
	indent := strings.Repeat("  ", depth)
	inner := strings.Repeat("  ", depth+1)

	switch v.Kind() {
	case KindNull:
		b.WriteString("null")
	case KindBool:
		if v.Bool() {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case KindNumber:
		b.WriteString(v.Literal())
	case KindString:
		quoted, err := json.Marshal(v.Literal())
		if err != nil {
			return err
		}
		b.Write(quoted)
	case KindList:
		if v.Len() == 0 {
			b.WriteString("[]")
			return nil
		}
		b.WriteString("[\n")
		for i, e := range v.Items() {
			b.WriteString(inner)
			if err := writeJSON(b, e, depth+1); err != nil {
				return err
			}
			if i < v.Len()-1 {
				b.WriteString(",")
			}
			b.WriteString("\n")
		}
		b.WriteString(indent)
		b.WriteString("]")
	case KindMap:
		if v.Len() == 0 {
			b.WriteString("{}")
			return nil
		}
		b.WriteString("{\n")
		for i, p := range v.Pairs() {
			quoted, err := json.Marshal(p.Key)
			if err != nil {
				return err
			}
			b.WriteString(inner)
			b.Write(quoted)
			b.WriteString(": ")
			if err := writeJSON(b, p.Val, depth+1); err != nil {
				return err
			}
			if i < v.Len()-1 {
				b.WriteString(",")
			}
			b.WriteString("\n")
		}
		b.WriteString(indent)
		b.WriteString("}")
	default:
		return fmt.Errorf("invalid value kind %v", v.Kind())
	}
	return nil
}
