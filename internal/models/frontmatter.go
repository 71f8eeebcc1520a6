package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

// Frontmatter is an ordered string-keyed mapping decoded from a note's YAML
// header. Key order is preserved so that user-authored metadata round-trips
// through update operations. Nested values are stored as decoded by yaml.v3
// and are not merged deeply.
type Frontmatter struct {
	keys   []string
	values map[string]any
}

// NewFrontmatter returns an empty Frontmatter.
func NewFrontmatter() *Frontmatter {
	return &Frontmatter{values: make(map[string]any)}
}

// FrontmatterOf builds a Frontmatter from alternating key/value pairs.
// It panics on an odd number of arguments or a non-string key.
func FrontmatterOf(kv ...any) *Frontmatter {
	if len(kv)%2 != 0 {
		panic("models: FrontmatterOf needs key/value pairs")
	}
	fm := NewFrontmatter()
	for i := 0; i < len(kv); i += 2 {
		fm.Set(kv[i].(string), kv[i+1])
	}
	return fm
}

// Len returns the number of keys.
func (f *Frontmatter) Len() int {
	if f == nil {
		return 0
	}
	return len(f.keys)
}

// Keys returns the keys in authored order.
func (f *Frontmatter) Keys() []string {
	if f == nil {
		return nil
	}
	return slices.Clone(f.keys)
}

// Get returns the value stored under key.
func (f *Frontmatter) Get(key string) (any, bool) {
	if f == nil || f.values == nil {
		return nil, false
	}
	v, ok := f.values[key]
	return v, ok
}

// String returns the value under key when it is a non-empty scalar.
func (f *Frontmatter) String(key string) string {
	v, ok := f.Get(key)
	if !ok || v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	case []any, map[string]any:
		return ""
	default:
		return fmt.Sprint(s)
	}
}

// Set stores value under key. Existing keys keep their position.
func (f *Frontmatter) Set(key string, value any) {
	if f.values == nil {
		f.values = make(map[string]any)
	}
	if _, ok := f.values[key]; !ok {
		f.keys = append(f.keys, key)
	}
	f.values[key] = value
}

// Delete removes key if present.
func (f *Frontmatter) Delete(key string) {
	if f == nil || f.values == nil {
		return
	}
	if _, ok := f.values[key]; !ok {
		return
	}
	delete(f.values, key)
	f.keys = slices.DeleteFunc(f.keys, func(k string) bool { return k == key })
}

// Merge copies every key of other into f. Values from other win.
func (f *Frontmatter) Merge(other *Frontmatter) {
	for _, k := range other.Keys() {
		v, _ := other.Get(k)
		f.Set(k, v)
	}
}

// Clone returns a shallow copy.
func (f *Frontmatter) Clone() *Frontmatter {
	out := NewFrontmatter()
	if f == nil {
		return out
	}
	out.keys = slices.Clone(f.keys)
	maps.Copy(out.values, f.values)
	return out
}

// Map returns an unordered copy of the mapping.
func (f *Frontmatter) Map() map[string]any {
	out := make(map[string]any, f.Len())
	if f != nil {
		maps.Copy(out, f.values)
	}
	return out
}

// UnmarshalYAML decodes a YAML mapping node, keeping key order.
func (f *Frontmatter) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.DocumentNode && len(node.Content) == 1 {
		node = node.Content[0]
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("frontmatter: expected a mapping, got %s", kindName(node.Kind))
	}
	f.keys = nil
	f.values = make(map[string]any, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		var v any
		if err := node.Content[i+1].Decode(&v); err != nil {
			return fmt.Errorf("frontmatter: key %q: %w", node.Content[i].Value, err)
		}
		f.Set(node.Content[i].Value, v)
	}
	return nil
}

// MarshalYAML encodes the mapping in key order.
func (f *Frontmatter) MarshalYAML() (any, error) {
	out := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, k := range f.Keys() {
		var val yaml.Node
		if err := val.Encode(f.values[k]); err != nil {
			return nil, fmt.Errorf("frontmatter: encode %q: %w", k, err)
		}
		unquoteTimestamps(&val)
		out.Content = append(out.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
			&val,
		)
	}
	return out, nil
}

// timestampLayouts are the date forms yaml.v3 resolves as !!timestamp.
var timestampLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// unquoteTimestamps restores plain dates. yaml.v3 decodes an unquoted date
// into a string, and encoding that string quotes it; written notes keep
// `created: 2025-01-08` as authored.
func unquoteTimestamps(n *yaml.Node) {
	if n.Kind == yaml.ScalarNode {
		if n.Tag != "!!str" {
			return
		}
		for _, layout := range timestampLayouts {
			if _, err := time.Parse(layout, n.Value); err == nil {
				n.Tag = "!!timestamp"
				n.Style = 0
				return
			}
		}
		return
	}
	for _, c := range n.Content {
		unquoteTimestamps(c)
	}
}

// MarshalJSON encodes the mapping as a JSON object in key order.
func (f *Frontmatter) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range f.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(f.values[k])
		if err != nil {
			return nil, fmt.Errorf("frontmatter: encode %q: %w", k, err)
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, keeping key order.
func (f *Frontmatter) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("frontmatter: expected a JSON object")
	}
	f.keys = nil
	f.values = make(map[string]any)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("frontmatter: unexpected token %v", tok)
		}
		var v any
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("frontmatter: key %q: %w", key, err)
		}
		f.Set(key, v)
	}
	_, err = dec.Token()
	return err
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.ScalarNode:
		return "scalar"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.AliasNode:
		return "alias"
	case yaml.DocumentNode:
		return "document"
	default:
		return "unknown node"
	}
}
