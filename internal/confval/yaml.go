package confval

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseYAML decodes YAML bytes into a Value. The yaml.v3 node tree is used
// so map key order survives the round trip. An empty document parses to an
// empty map.
func ParseYAML(data []byte) (Value, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Value{}, fmt.Errorf("parse yaml: %w", err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return Map(), nil
	}
	v, err := fromYAMLNode(doc.Content[0])
	if err != nil {
		return Value{}, err
	}
	if v.Kind() == KindNull {
		// "---\n" and whitespace-only documents behave like empty files.
		return Map(), nil
	}
	return v, nil
}

func fromYAMLNode(n *yaml.Node) (Value, error) {
	switch n.Kind {
	case yaml.AliasNode:
		return fromYAMLNode(n.Alias)
	case yaml.MappingNode:
		m := Map()
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := n.Content[i].Value
			val, err := fromYAMLNode(n.Content[i+1])
			if err != nil {
				return Value{}, err
			}
			m.Set(key, val)
		}
		return m, nil
	case yaml.SequenceNode:
		elems := make([]Value, 0, len(n.Content))
		for _, c := range n.Content {
			ev, err := fromYAMLNode(c)
			if err != nil {
				return Value{}, err
			}
			elems = append(elems, ev)
		}
		return List(elems...), nil
	case yaml.ScalarNode:
		switch n.Tag {
		case "!!null":
			return Null(), nil
		case "!!bool":
			return Boolean(strings.EqualFold(n.Value, "true")), nil
		case "!!int", "!!float":
			return Number(n.Value), nil
		default:
			return String(n.Value), nil
		}
	default:
		return Value{}, fmt.Errorf("parse yaml: unsupported node kind %d", n.Kind)
	}
}

// RenderYAML serializes a Value as YAML with two-space indentation.
func RenderYAML(v Value) ([]byte, error) {
	node, err := toYAMLNode(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(node); err != nil {
		return nil, fmt.Errorf("render yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("render yaml: %w", err)
	}
	return buf.Bytes(), nil
}

func toYAMLNode(v Value) (*yaml.Node, error) {
	switch v.Kind() {
	case KindNull:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	case KindBool:
		s := "false"
		if v.Bool() {
			s = "true"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: s}, nil
	case KindNumber:
		tag := "!!int"
		if strings.ContainsAny(v.Literal(), ".eE") && !strings.HasPrefix(v.Literal(), "0x") {
			tag = "!!float"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: v.Literal()}, nil
	case KindString:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v.Literal()}, nil
	case KindList:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, e := range v.Items() {
			c, err := toYAMLNode(e)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, c)
		}
		return n, nil
	case KindMap:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, p := range v.Pairs() {
			c, err := toYAMLNode(p.Val)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: p.Key}, c)
		}
		return n, nil
	default:
		return nil, fmt.Errorf("render yaml: invalid value kind %v", v.Kind())
	}
}
