package statetree

import "github.com/five82/tagger/internal/statepath"

// Changed reports whether any selected path differs between before and after.
// An empty selector set or one containing the wildcard compares whole trees.
func Changed(selectors []statepath.Path, before, after Tree) bool {
	if statepath.SelectsAll(selectors) {
		return !Equal(before, after)
	}
	for _, p := range selectors {
		if !Resolve(p, before).Equal(Resolve(p, after)) {
			return true
		}
	}
	return false
}

// Project builds the minimal partial tree holding only the selected paths.
// Paths that do not resolve contribute nothing. The result shares no objects
// or sequences with snap.
func Project(selectors []statepath.Path, snap Tree) Tree {
	if statepath.SelectsAll(selectors) {
		return CloneTree(snap)
	}
	acc := Tree{}
	for _, p := range selectors {
		if p.Len() == 0 {
			continue
		}
		l := Resolve(p, snap)
		if !l.Present {
			continue
		}
		assign(acc, p.Segments(), Clone(l.Value))
	}
	return acc
}

func assign(node map[string]any, segs []statepath.Segment, value any) {
	seg := segs[0]
	last := len(segs) == 1

	if !seg.Indexed {
		if last {
			node[seg.Name] = value
			return
		}
		child, ok := node[seg.Name].(map[string]any)
		if !ok {
			child = map[string]any{}
			node[seg.Name] = child
		}
		assign(child, segs[1:], value)
		return
	}

	seq, _ := node[seg.Name].([]any)
	if len(seq) <= seg.Index {
		grown := make([]any, seg.Index+1)
		copy(grown, seq)
		seq = grown
	}
	node[seg.Name] = seq
	if last {
		seq[seg.Index] = value
		return
	}
	child, ok := seq[seg.Index].(map[string]any)
	if !ok {
		child = map[string]any{}
		seq[seg.Index] = child
	}
	assign(child, segs[1:], value)
}
