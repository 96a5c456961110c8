// Package record is a host for REXL expressions backed by a YAML document
// holding a schema and the data it describes.
package record

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"go.rexl.dev/pkg"
)

// Record resolves identifier paths against YAML data. Paths listed in the
// schema take the declared type; other paths are typed by their data.
type Record struct {
	schema map[string]rexl.Type
	data   map[string]any
}

type document struct {
	Schema map[string]string `yaml:"schema"`
	Data   map[string]any    `yaml:"data"`
}

// Load reads a record document:
//
//	schema:
//	  age: number
//	  flags: list<boolean>
//	data:
//	  age: 40
//	  flags: [false, true]
func Load(r io.Reader) (*Record, error) {
	var doc document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse record: %w", err)
	}

	rec := &Record{
		schema: make(map[string]rexl.Type, len(doc.Schema)),
		data:   doc.Data,
	}

	for path, name := range doc.Schema {
		t, err := ParseType(name)
		if err != nil {
			return nil, fmt.Errorf("schema %s: %w", path, err)
		}
		rec.schema[path] = t
	}

	return rec, nil
}

// LoadFile loads the record document at path.
func LoadFile(path string) (*Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read record file: %w", err)
	}
	defer f.Close()

	return Load(f)
}

// ParseType reads a schema type name such as "number" or "list<date>".
func ParseType(name string) (rexl.Type, error) {
	name = strings.TrimSpace(name)

	lower := strings.ToLower(name)
	if strings.HasPrefix(lower, "list<") && strings.HasSuffix(lower, ">") {
		elem, err := ParseType(name[len("list<") : len(name)-1])
		if err != nil {
			return rexl.Type{}, err
		}

		return rexl.ListOf(elem), nil
	}

	c, ok := rexl.ParseTypeClass(name)
	if !ok {
		return rexl.Type{}, fmt.Errorf("unknown type %q", name)
	}

	return rexl.TypeOf(c), nil
}

// Paths lists the schema paths in order.
func (r *Record) Paths() []string {
	paths := make([]string, 0, len(r.schema))
	for path := range r.schema {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	return paths
}

// DescribeIdentifier is a rexl.TypeResolver.
func (r *Record) DescribeIdentifier(path []string) (rexl.Type, error) {
	key := strings.Join(path, ".")
	if t, ok := r.schema[key]; ok {
		return t, nil
	}

	raw, ok := r.lookup(path)
	if !ok {
		return rexl.Type{}, fmt.Errorf("%w: %s", rexl.ErrUnknownIdentifier, key)
	}

	v, err := toValue(raw)
	if err != nil {
		return rexl.Type{}, fmt.Errorf("%s: %w", key, err)
	}

	return typeOf(v), nil
}

// ResolveIdentifier is a rexl.ValueResolver. Schema paths without data
// resolve to null of the declared class.
func (r *Record) ResolveIdentifier(path []string) (rexl.Value, error) {
	key := strings.Join(path, ".")
	t, typed := r.schema[key]

	raw, found := r.lookup(path)
	switch {
	case !found && !typed:
		return rexl.Value{}, fmt.Errorf("%w: %s", rexl.ErrUnknownIdentifier, key)
	case !found:
		return rexl.Null(t.Class), nil
	}

	v, err := toValue(raw)
	if err != nil {
		return rexl.Value{}, fmt.Errorf("%s: %w", key, err)
	}

	if !typed {
		return v, nil
	}

	v, err = conform(v, t)
	if err != nil {
		return rexl.Value{}, fmt.Errorf("%s: %w", key, err)
	}

	return v, nil
}

// lookup walks nested mappings, falling back to a flat dotted key.
func (r *Record) lookup(path []string) (any, bool) {
	if raw, ok := walk(r.data, path); ok {
		return raw, true
	}

	raw, ok := r.data[strings.Join(path, ".")]
	return raw, ok
}

func walk(cur any, path []string) (any, bool) {
	for _, name := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}

		if cur, ok = m[name]; !ok {
			return nil, false
		}
	}

	return cur, true
}

func toValue(raw any) (rexl.Value, error) {
	switch raw := raw.(type) {
	case map[string]any:
		return rexl.Value{}, errors.New("a mapping is not a value")
	case time.Time:
		return rexl.NewString(raw.UTC().Format(time.RFC3339)), nil
	case []any:
		items := make([]rexl.Value, len(raw))
		for i, item := range raw {
			v, err := toValue(item)
			if err != nil {
				return rexl.Value{}, err
			}
			items[i] = v
		}

		return rexl.NewList(items...), nil
	}

	return rexl.ValueOf(raw)
}

// conform casts v, and each element of a list, to the declared type.
func conform(v rexl.Value, t rexl.Type) (rexl.Value, error) {
	if t.Class != rexl.List || t.Elem == nil || v.Class != rexl.List {
		return t.Class.Cast(v)
	}

	items := v.Items()
	out := make([]rexl.Value, len(items))
	for i, item := range items {
		cast, err := conform(item, *t.Elem)
		if err != nil {
			return rexl.Value{}, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = cast
	}

	return rexl.NewList(out...), nil
}

func typeOf(v rexl.Value) rexl.Type {
	if v.Class != rexl.List {
		return rexl.TypeOf(v.Class)
	}

	elem := rexl.Untyped
	for _, item := range v.Items() {
		switch {
		case item.IsNull():
		case elem == rexl.Untyped:
			elem = item.Class
		case elem != item.Class:
			return rexl.ListOf(rexl.TypeOf(rexl.Untyped))
		}
	}

	return rexl.ListOf(rexl.TypeOf(elem))
}
