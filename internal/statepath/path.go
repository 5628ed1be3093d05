package statepath

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidPath is returned for strings that do not parse as a path and for
// paths that do not exist in a schema.
var ErrInvalidPath = errors.New("invalid path")

// WildcardText is the textual form of the path that selects everything.
const WildcardText = "*"

// Segment is one field step of a path, optionally followed by an index.
type Segment struct {
	Name     string
	Indexed  bool
	Index    int
	Symbolic bool // "[]" in enumerated paths; matches any concrete index
}

func (s Segment) String() string {
	if !s.Indexed {
		return s.Name
	}
	if s.Symbolic {
		return s.Name + "[]"
	}
	return s.Name + "[" + strconv.Itoa(s.Index) + "]"
}

// Path locates a value inside a state tree, e.g. project.images[3].tags.
type Path struct {
	segs     []Segment
	wildcard bool
}

// Wildcard selects the whole tree.
var Wildcard = Path{wildcard: true}

// Parse reads the dotted/indexed notation. "*" parses to Wildcard.
func Parse(text string) (Path, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Path{}, fmt.Errorf("%w: empty", ErrInvalidPath)
	}
	if trimmed == WildcardText {
		return Wildcard, nil
	}

	parts := strings.Split(trimmed, ".")
	segs := make([]Segment, 0, len(parts))
	for _, part := range parts {
		seg, err := parseSegment(part)
		if err != nil {
			return Path{}, fmt.Errorf("%w: %q: %v", ErrInvalidPath, text, err)
		}
		segs = append(segs, seg)
	}
	return Path{segs: segs}, nil
}

// MustParse is Parse for package-level selector declarations.
func MustParse(text string) Path {
	p, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return p
}

// ParseAll parses a selector set. An empty input yields an empty set.
func ParseAll(texts ...string) ([]Path, error) {
	paths := make([]Path, 0, len(texts))
	for _, text := range texts {
		p, err := Parse(text)
		if err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}

func parseSegment(part string) (Segment, error) {
	if part == "" {
		return Segment{}, errors.New("empty segment")
	}
	open := strings.IndexByte(part, '[')
	if open < 0 {
		if strings.ContainsAny(part, "]*") {
			return Segment{}, fmt.Errorf("unexpected character in %q", part)
		}
		return Segment{Name: part}, nil
	}
	name := part[:open]
	if name == "" {
		return Segment{}, fmt.Errorf("index without field name in %q", part)
	}
	if !strings.HasSuffix(part, "]") {
		return Segment{}, fmt.Errorf("unterminated index in %q", part)
	}
	inner := part[open+1 : len(part)-1]
	if strings.ContainsAny(inner, "[]") {
		return Segment{}, fmt.Errorf("nested index in %q", part)
	}
	if inner == "" {
		return Segment{Name: name, Indexed: true, Symbolic: true}, nil
	}
	idx, err := strconv.Atoi(inner)
	if err != nil || idx < 0 {
		return Segment{}, fmt.Errorf("index %q is not a non-negative integer", inner)
	}
	return Segment{Name: name, Indexed: true, Index: idx}, nil
}

// Of builds a path from already-validated segments.
func Of(segs ...Segment) Path {
	return Path{segs: append([]Segment(nil), segs...)}
}

// Field returns a new path with name appended.
func (p Path) Field(name string) Path {
	return p.append(Segment{Name: name})
}

// At returns a new path whose last segment is indexed by idx.
func (p Path) At(idx int) Path {
	if len(p.segs) == 0 {
		return p
	}
	segs := append([]Segment(nil), p.segs...)
	last := &segs[len(segs)-1]
	last.Indexed, last.Index, last.Symbolic = true, idx, false
	return Path{segs: segs}
}

func (p Path) append(seg Segment) Path {
	segs := make([]Segment, 0, len(p.segs)+1)
	segs = append(segs, p.segs...)
	return Path{segs: append(segs, seg)}
}

// IsWildcard reports whether p selects the whole tree.
func (p Path) IsWildcard() bool { return p.wildcard }

// Segments returns a copy of the path's segments.
func (p Path) Segments() []Segment {
	return append([]Segment(nil), p.segs...)
}

// Len is the number of field segments.
func (p Path) Len() int { return len(p.segs) }

// Symbolic returns p with every concrete index replaced by "[]".
func (p Path) Symbolic() Path {
	segs := p.Segments()
	for i := range segs {
		if segs[i].Indexed {
			segs[i].Symbolic = true
			segs[i].Index = 0
		}
	}
	return Path{segs: segs, wildcard: p.wildcard}
}

func (p Path) String() string {
	if p.wildcard {
		return WildcardText
	}
	parts := make([]string, len(p.segs))
	for i, seg := range p.segs {
		parts[i] = seg.String()
	}
	return strings.Join(parts, ".")
}

// Equal compares two paths segment by segment.
func (p Path) Equal(other Path) bool {
	if p.wildcard || other.wildcard {
		return p.wildcard == other.wildcard
	}
	if len(p.segs) != len(other.segs) {
		return false
	}
	for i := range p.segs {
		if p.segs[i] != other.segs[i] {
			return false
		}
	}
	return true
}

// SelectsAll reports whether a selector set means "everything": empty, or
// containing the wildcard.
func SelectsAll(selectors []Path) bool {
	if len(selectors) == 0 {
		return true
	}
	for _, p := range selectors {
		if p.wildcard {
			return true
		}
	}
	return false
}
