package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Doc is an immutable view of an entity's JSON fields.
//
// Doc has value semantics: With returns a new Doc backed by a new map and
// leaves the receiver untouched. List values read through Strings are copies.
type Doc struct {
	fields map[string]any
}

func NewDoc(fields map[string]any) Doc {
	m := make(map[string]any, len(fields))
	for k, v := range fields {
		m[k] = v
	}
	return Doc{fields: m}
}

// DocOf converts a typed entity (anything with json tags) into a Doc.
func DocOf(v any) (Doc, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return Doc{}, err
	}
	var d Doc
	if err := json.Unmarshal(b, &d); err != nil {
		return Doc{}, err
	}
	return d, nil
}

func (d Doc) IsZero() bool { return d.fields == nil }

func (d Doc) ID() string {
	s, _ := d.fields["id"].(string)
	return s
}

func (d Doc) EntityID() string { return d.ID() }

func (d Doc) Get(name string) (any, bool) {
	v, ok := d.fields[name]
	return v, ok
}

func (d Doc) String(name string) string {
	switch v := d.fields[name].(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

func (d Doc) Int(name string) int {
	switch v := d.fields[name].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0
		}
		return int(n)
	case string:
		n, _ := strconv.Atoi(v)
		return n
	default:
		return 0
	}
}

// Strings returns a copy of a list field. Missing or non-list fields yield nil.
func (d Doc) Strings(name string) []string {
	switch v := d.fields[name].(type) {
	case []string:
		out := make([]string, len(v))
		copy(out, v)
		return out
	case []any:
		out := make([]string, 0, len(v))
		for _, x := range v {
			if s, ok := x.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// With returns a copy of d with name set to value.
func (d Doc) With(name string, value any) Doc {
	m := make(map[string]any, len(d.fields)+1)
	for k, v := range d.fields {
		m[k] = v
	}
	m[name] = value
	return Doc{fields: m}
}

// Decode unmarshals d into a typed entity.
func (d Doc) Decode(out any) error {
	b, err := json.Marshal(d.fields)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

// Equal compares the JSON encodings of two docs.
func (d Doc) Equal(o Doc) bool {
	a, err := json.Marshal(d.fields)
	if err != nil {
		return false
	}
	b, err := json.Marshal(o.fields)
	if err != nil {
		return false
	}
	return bytes.Equal(a, b)
}

func (d Doc) MarshalJSON() ([]byte, error) {
	if d.fields == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(d.fields)
}

func (d *Doc) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return err
	}
	if m == nil {
		m = map[string]any{}
	}
	d.fields = m
	return nil
}
