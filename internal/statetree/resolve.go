package statetree

import "github.com/five82/tagger/internal/statepath"

// Lookup is the result of resolving a path: either a present value (which may
// be nil for an explicit null) or missing.
type Lookup struct {
	Value   any
	Present bool
}

// Missing is the lookup of a path that does not exist in a tree.
var Missing = Lookup{}

// Equal treats two missing lookups as equal and missing vs. present null as
// unequal.
func (l Lookup) Equal(other Lookup) bool {
	if l.Present != other.Present {
		return false
	}
	return !l.Present || Equal(l.Value, other.Value)
}

// Resolve walks p through root. It never panics: any absent field, non-object
// intermediate, out-of-range or symbolic index yields Missing.
func Resolve(p statepath.Path, root any) Lookup {
	if p.IsWildcard() {
		return Lookup{Value: root, Present: true}
	}
	cur := root
	for _, seg := range p.Segments() {
		obj, ok := cur.(map[string]any)
		if !ok {
			return Missing
		}
		next, ok := obj[seg.Name]
		if !ok {
			return Missing
		}
		if seg.Indexed {
			if seg.Symbolic {
				return Missing
			}
			seq, ok := next.([]any)
			if !ok || seg.Index >= len(seq) {
				return Missing
			}
			next = seq[seg.Index]
		}
		cur = next
	}
	return Lookup{Value: cur, Present: true}
}
