package statepath

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"golang.org/x/exp/maps"
)

// Kind classifies a node of a Shape.
type Kind int

const (
	KindScalar Kind = iota
	KindObject
	KindSequence
)

func (k Kind) String() string {
	switch k {
	case KindObject:
		return "object"
	case KindSequence:
		return "sequence"
	default:
		return "scalar"
	}
}

// Shape describes the structure of a state tree: named fields for objects and
// an element shape for sequences.
type Shape struct {
	Kind   Kind
	Fields map[string]*Shape
	Elem   *Shape
}

var (
	jsonMarshaler = reflect.TypeOf((*json.Marshaler)(nil)).Elem()
	byteSlice     = reflect.TypeOf([]byte(nil))
)

// Schema is the runtime replacement for compile-time path enumeration: the
// root shape of one container's snapshot type.
type Schema struct {
	name string
	root *Shape
}

// SchemaOf derives the schema of T from its json-tagged fields.
func SchemaOf[T any]() *Schema {
	t := reflect.TypeOf((*T)(nil)).Elem()
	return &Schema{name: t.String(), root: shapeOf(t, map[reflect.Type]bool{})}
}

// NewSchema wraps an explicitly built shape.
func NewSchema(name string, root *Shape) *Schema {
	return &Schema{name: name, root: root}
}

// Name is the Go type name the schema was derived from.
func (s *Schema) Name() string { return s.name }

// Root returns the top-level shape.
func (s *Schema) Root() *Shape { return s.root }

func shapeOf(t reflect.Type, visiting map[reflect.Type]bool) *Shape {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Implements(jsonMarshaler) || reflect.PointerTo(t).Implements(jsonMarshaler) {
		return &Shape{Kind: KindScalar}
	}
	switch t.Kind() {
	case reflect.Struct:
		if visiting[t] {
			return &Shape{Kind: KindScalar}
		}
		visiting[t] = true
		defer delete(visiting, t)

		shape := &Shape{Kind: KindObject, Fields: map[string]*Shape{}}
		addStructFields(shape, t, visiting)
		return shape
	case reflect.Slice, reflect.Array:
		if t == byteSlice {
			return &Shape{Kind: KindScalar}
		}
		return &Shape{Kind: KindSequence, Elem: shapeOf(t.Elem(), visiting)}
	default:
		return &Shape{Kind: KindScalar}
	}
}

func addStructFields(shape *Shape, t reflect.Type, visiting map[reflect.Type]bool) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name, skip := jsonName(f)
		if skip {
			continue
		}
		ft := f.Type
		for ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}
		if f.Anonymous && ft.Kind() == reflect.Struct && f.Tag.Get("json") == "" {
			addStructFields(shape, ft, visiting)
			continue
		}
		if !f.IsExported() {
			continue
		}
		shape.Fields[name] = shapeOf(f.Type, visiting)
	}
}

func jsonName(f reflect.StructField) (string, bool) {
	tag := f.Tag.Get("json")
	if tag == "-" {
		return "", true
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		name = f.Name
	}
	return name, false
}

// Paths enumerates every legal path of the schema in sorted order. Sequence
// indices are symbolic ("images[]").
func (s *Schema) Paths() []string {
	return s.root.Paths()
}

// Paths enumerates the legal paths below this shape.
func (sh *Shape) Paths() []string {
	var out []string
	sh.walk("", func(p string) { out = append(out, p) })
	sort.Strings(out)
	return out
}

func (sh *Shape) walk(prefix string, emit func(string)) {
	if sh == nil || sh.Kind != KindObject {
		return
	}
	for _, name := range maps.Keys(sh.Fields) {
		field := sh.Fields[name]
		full := prefix + name
		emit(full)
		switch field.Kind {
		case KindObject:
			field.walk(full+".", emit)
		case KindSequence:
			emit(full + "[]")
			if field.Elem != nil && field.Elem.Kind == KindObject {
				field.Elem.walk(full+"[].", emit)
			}
		}
	}
}

// Validate reports whether p addresses a location the schema allows.
func (s *Schema) Validate(p Path) error {
	_, err := s.lookup(p)
	return err
}

// ValidateAll validates every path of a selector set.
func (s *Schema) ValidateAll(paths []Path) error {
	for _, p := range paths {
		if err := s.Validate(p); err != nil {
			return err
		}
	}
	return nil
}

func (s *Schema) lookup(p Path) (*Shape, error) {
	if p.IsWildcard() {
		return s.root, nil
	}
	cur := s.root
	for i, seg := range p.segs {
		if cur.Kind != KindObject {
			return nil, fmt.Errorf("%w: %s: %q is not an object in %s", ErrInvalidPath, p, Of(p.segs[:i]...), s.name)
		}
		next, ok := cur.Fields[seg.Name]
		if !ok {
			return nil, fmt.Errorf("%w: %s: no field %q in %s", ErrInvalidPath, p, seg.Name, s.name)
		}
		if seg.Indexed {
			if next.Kind != KindSequence {
				return nil, fmt.Errorf("%w: %s: %q is not a sequence", ErrInvalidPath, p, seg.Name)
			}
			next = next.Elem
		}
		cur = next
	}
	return cur, nil
}

// Project computes the minimal shape produced by selecting paths: the chain
// of fields leading to each selected value, merged across all paths.
func (s *Schema) Project(paths ...Path) (*Shape, error) {
	if SelectsAll(paths) {
		return s.root.clone(), nil
	}
	var out *Shape
	for _, p := range paths {
		leaf, err := s.lookup(p)
		if err != nil {
			return nil, err
		}
		out = merge(out, chain(p.segs, leaf))
	}
	return out, nil
}

func chain(segs []Segment, leaf *Shape) *Shape {
	if len(segs) == 0 {
		return leaf.clone()
	}
	seg := segs[0]
	inner := chain(segs[1:], leaf)
	if seg.Indexed {
		inner = &Shape{Kind: KindSequence, Elem: inner}
	}
	return &Shape{Kind: KindObject, Fields: map[string]*Shape{seg.Name: inner}}
}

func merge(a, b *Shape) *Shape {
	if a == nil {
		return b
	}
	if b == nil || a.Kind != b.Kind {
		return a
	}
	switch a.Kind {
	case KindObject:
		for name, bf := range b.Fields {
			a.Fields[name] = merge(a.Fields[name], bf)
		}
	case KindSequence:
		a.Elem = merge(a.Elem, b.Elem)
	}
	return a
}

func (sh *Shape) clone() *Shape {
	if sh == nil {
		return nil
	}
	out := &Shape{Kind: sh.Kind, Elem: sh.Elem.clone()}
	if sh.Fields != nil {
		out.Fields = make(map[string]*Shape, len(sh.Fields))
		for name, f := range sh.Fields {
			out.Fields[name] = f.clone()
		}
	}
	return out
}
