package confval

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"
)

// ParseINI decodes INI-like bytes (sections of key=value lines) into a map
// of section name to a map of keys. Keys appearing before any section
// header land in the unnamed section "". Comments and blank lines are not
// retained; like the formats it sits beside, the codec round-trips keys
// and values, not layout.
func ParseINI(data []byte) (Value, error) {
	out := Map()
	section := ""

	sc := bufio.NewScanner(bytes.NewReader(data))
	lineNum := 0
	for sc.Scan() {
		lineNum++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}
		if strings.HasPrefix(line, "[") {
			if !strings.HasSuffix(line, "]") {
				return Value{}, fmt.Errorf("parse ini: line %d: unterminated section header", lineNum)
			}
			section = strings.TrimSpace(line[1 : len(line)-1])
			if _, ok := out.Get(section); !ok {
				out.Set(section, Map())
			}
			continue
		}
		eq := strings.Index(line, "=")
		if eq < 0 {
			return Value{}, fmt.Errorf("parse ini: line %d: expected key=value", lineNum)
		}
		key := strings.TrimSpace(line[:eq])
		val := strings.TrimSpace(line[eq+1:])
		if key == "" {
			return Value{}, fmt.Errorf("parse ini: line %d: empty key", lineNum)
		}
		sect, ok := out.Get(section)
		if !ok {
			sect = Map()
		}
		sect.Set(key, String(val))
		out.Set(section, sect)
	}
	if err := sc.Err(); err != nil {
		return Value{}, fmt.Errorf("parse ini: %w", err)
	}
	return out, nil
}

// RenderINI serializes a two-level map as INI text: unnamed-section keys
// first, then each [section] followed by its "key = value" lines and a
// blank separator line.
func RenderINI(v Value) ([]byte, error) {
	if v.Kind() != KindMap {
		return nil, fmt.Errorf("render ini: top level must be a map, got %v", v.Kind())
	}

	var b strings.Builder
	for _, p := range v.Pairs() {
		if p.Key != "" {
			continue
		}
		if err := writeINISection(&b, p.Val); err != nil {
			return nil, err
		}
		b.WriteString("\n")
	}
	for _, p := range v.Pairs() {
		if p.Key == "" {
			continue
		}
		fmt.Fprintf(&b, "[%s]\n", p.Key)
		if err := writeINISection(&b, p.Val); err != nil {
			return nil, err
		}
		b.WriteString("\n")
	}
	return []byte(b.String()), nil
}

func writeINISection(b *strings.Builder, v Value) error {
	if v.Kind() != KindMap {
		return fmt.Errorf("render ini: section value must be a map, got %v", v.Kind())
	}
	for _, p := range v.Pairs() {
		lit, err := iniScalar(p.Val)
		if err != nil {
			return fmt.Errorf("render ini: key %q: %w", p.Key, err)
		}
		fmt.Fprintf(b, "%s = %s\n", p.Key, lit)
	}
	return nil
}

// iniScalar coerces a scalar value to its INI text form.
func iniScalar(v Value) (string, error) {
	switch v.Kind() {
	case KindNull:
		return "", nil
	case KindBool:
		if v.Bool() {
			return "true", nil
		}
		return "false", nil
	case KindNumber, KindString:
		return v.Literal(), nil
	default:
		return "", fmt.Errorf("nested %v not representable", v.Kind())
	}
}
