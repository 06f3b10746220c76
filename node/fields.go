package node

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Fields is the flat, serializable form of a node. Values are strings, int64
// numbers or string slices. Fields decoded from JSON may carry float64 numbers
// and []interface{} lists instead; FromFields accepts both.
type Fields map[string]interface{}

// Field names.
const (
	FieldType     = "type"
	FieldParent   = "parent"
	FieldChildren = "children"
	FieldText     = "text"
	FieldFormat   = "format"
	FieldMode     = "mode"
	FieldTag      = "tag"
	FieldLanguage = "language"
)

// Fields returns the field map for a node. Only fields meaningful for the
// node's kind are included.
func (n *Node) Fields() Fields {
	f := Fields{
		FieldType:   n.Kind.String(),
		FieldParent: string(n.Parent),
	}
	if n.IsElement() {
		children := make([]string, len(n.Children))
		for i, ch := range n.Children {
			children[i] = string(ch)
		}
		f[FieldChildren] = children
	}
	switch n.Kind {
	case KindText:
		f[FieldText] = n.Text
		f[FieldFormat] = int64(n.Format)
		f[FieldMode] = int64(n.Mode)
	case KindHeading, KindList:
		f[FieldTag] = n.Tag
	case KindCode:
		f[FieldLanguage] = n.Language
	}
	return f
}

// FromFields instantiates a node from its field map. The node's kind is taken
// from field "type"; unknown kinds are rejected with ErrUnknownKind.
func FromFields(key Key, f Fields) (*Node, error) {
	typ, ok := f[FieldType].(string)
	if !ok {
		return nil, fmt.Errorf("node %s: missing type: %w", key, ErrUnknownKind)
	}
	kind, err := KindFromString(typ)
	if err != nil {
		return nil, fmt.Errorf("node %s: type %q: %w", key, typ, err)
	}
	n := &Node{Key: key, Kind: kind}
	if err := n.SetField(FieldParent, f[FieldParent]); err != nil {
		return nil, err
	}
	for name, value := range f {
		if name == FieldType || name == FieldParent {
			continue
		}
		if err := n.SetField(name, value); err != nil {
			return nil, err
		}
	}
	if n.IsElement() && n.Children == nil {
		n.Children = []Key{}
	}
	return n, nil
}

// SetField sets a single field of n from its serialized value. Setting the
// type of a node is not supported, as a node never changes its kind.
// Unknown field names are ignored, so that newer peers may add fields.
func (n *Node) SetField(name string, value interface{}) (err error) {
	switch name {
	case FieldType:
		if s, _ := value.(string); s != n.Kind.String() {
			err = fmt.Errorf("node %s: cannot change type from %s to %v", n.Key, n.Kind, value)
		}
	case FieldParent:
		var s string
		s, err = toString(value)
		n.Parent = Key(s)
	case FieldChildren:
		n.Children, err = toKeys(value)
	case FieldText:
		n.Text, err = toString(value)
	case FieldFormat:
		var i int64
		i, err = toInt64(value)
		n.Format = Format(i)
	case FieldMode:
		var i int64
		i, err = toInt64(value)
		n.Mode = TextMode(i)
	case FieldTag:
		n.Tag, err = toString(value)
	case FieldLanguage:
		n.Language, err = toString(value)
	}
	if err != nil {
		err = fmt.Errorf("node %s: field %s: %w", n.Key, name, err)
	}
	return
}

// DiffFields returns the sorted names of fields which differ between a and b,
// including fields present in only one of them.
func DiffFields(a, b Fields) []string {
	var names []string
	for name, va := range a {
		if vb, ok := b[name]; !ok || !ValueEqual(va, vb) {
			names = append(names, name)
		}
	}
	for name := range b {
		if _, ok := a[name]; !ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// ValueEqual compares two field values, tolerating the representation
// differences introduced by JSON decoding.
func ValueEqual(a, b interface{}) bool {
	switch a.(type) {
	case string:
		sb, ok := b.(string)
		return ok && sb == a.(string)
	case []string, []Key, []interface{}:
		ka, erra := toKeys(a)
		kb, errb := toKeys(b)
		return erra == nil && errb == nil && keysEqual(ka, kb)
	case nil:
		return b == nil
	}
	ia, erra := toInt64(a)
	ib, errb := toInt64(b)
	return erra == nil && errb == nil && ia == ib
}

// --- Value conversion ------------------------------------------------------

func toString(v interface{}) (string, error) {
	switch s := v.(type) {
	case nil:
		return "", nil
	case string:
		return s, nil
	case Key:
		return string(s), nil
	}
	return "", fmt.Errorf("expected string, have %T", v)
}

func toInt64(v interface{}) (int64, error) {
	switch i := v.(type) {
	case nil:
		return 0, nil
	case int:
		return int64(i), nil
	case int64:
		return i, nil
	case int32:
		return int64(i), nil
	case uint16:
		return int64(i), nil
	case float64:
		return int64(i), nil
	case json.Number:
		return i.Int64()
	}
	return 0, fmt.Errorf("expected number, have %T", v)
}

func toKeys(v interface{}) ([]Key, error) {
	switch l := v.(type) {
	case nil:
		return []Key{}, nil
	case []Key:
		keys := make([]Key, len(l))
		copy(keys, l)
		return keys, nil
	case []string:
		keys := make([]Key, len(l))
		for i, s := range l {
			keys[i] = Key(s)
		}
		return keys, nil
	case []interface{}:
		keys := make([]Key, len(l))
		for i, x := range l {
			s, ok := x.(string)
			if !ok {
				return nil, fmt.Errorf("expected list of strings, have element %T", x)
			}
			keys[i] = Key(s)
		}
		return keys, nil
	}
	return nil, fmt.Errorf("expected list of strings, have %T", v)
}
