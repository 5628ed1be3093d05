package statetree

import (
	"testing"

	"github.com/go-playground/assert/v2"

	"github.com/five82/tagger/internal/statepath"
)

func paths(texts ...string) []statepath.Path {
	out := make([]statepath.Path, len(texts))
	for i, text := range texts {
		out[i] = statepath.MustParse(text)
	}
	return out
}

func appTree(imageName string, projects []any, tags []any) Tree {
	return Tree{
		"projects": projects,
		"currentProject": map[string]any{
			"name": "cats",
			"currentImage": map[string]any{
				"name": imageName,
				"tags": tags,
			},
		},
	}
}

func TestChanged_WildcardComparesWholeTree(t *testing.T) {
	a := Tree{"a": 1.0, "b": 2.0}
	b := Tree{"a": 1.0, "b": 3.0}
	for _, sel := range [][]statepath.Path{nil, {}, paths("*"), paths("a", "*")} {
		assert.Equal(t, Changed(sel, a, b), !Equal(a, b))
		assert.Equal(t, Changed(sel, a, CloneTree(a)), false)
	}
}

func TestChanged_SelectedPathsOnly(t *testing.T) {
	a := Tree{"a": 1.0, "b": 2.0}
	b := Tree{"a": 1.0, "b": 3.0}
	assert.Equal(t, Changed(paths("a"), a, b), false)
	assert.Equal(t, Changed(paths("b"), a, b), true)
	assert.Equal(t, Changed(paths("a", "b"), a, b), true)
}

func TestChanged_MissingVersusNull(t *testing.T) {
	sel := paths("a")
	assert.Equal(t, Changed(sel, Tree{"a": nil}, Tree{}), true)
	assert.Equal(t, Changed(sel, Tree{}, Tree{"a": nil}), true)
	assert.Equal(t, Changed(sel, Tree{}, Tree{}), false)
	assert.Equal(t, Changed(sel, Tree{"a": nil}, Tree{"a": nil}), false)

	// Missing through an absent or null intermediate is still just missing.
	deep := paths("x.y.z")
	assert.Equal(t, Changed(deep, Tree{"x": nil}, Tree{}), false)
	assert.Equal(t, Changed(deep, Tree{"x": map[string]any{}}, Tree{"x": 3.0}), false)
	assert.Equal(t, Changed(deep, Tree{"x": map[string]any{"y": map[string]any{"z": nil}}}, Tree{}), true)
}

func TestChanged_IndexedPaths(t *testing.T) {
	before := Tree{"images": []any{
		map[string]any{"name": "a.png", "tags": []any{"cat"}},
		map[string]any{"name": "b.png", "tags": []any{"dog"}},
	}}
	after := CloneTree(before)
	after["images"].([]any)[1].(map[string]any)["tags"] = []any{"dog", "puppy"}

	assert.Equal(t, Changed(paths("images[0].tags"), before, after), false)
	assert.Equal(t, Changed(paths("images[1].tags"), before, after), true)
	assert.Equal(t, Changed(paths("images[1].tags[0]"), before, after), false)
	assert.Equal(t, Changed(paths("images[1].tags[1]"), before, after), true)
	assert.Equal(t, Changed(paths("images[9].name"), before, after), false)
}

func TestChanged_ScenarioTagsUnaffectedByOtherFields(t *testing.T) {
	sel := paths("currentProject.currentImage.tags")
	before := appTree("a.png", []any{"cats"}, []any{"tabby", "indoor"})
	after := appTree("b.png", []any{"cats", "dogs"}, []any{"tabby", "indoor"})
	assert.Equal(t, Changed(sel, before, after), false)
}

func TestChanged_ScenarioExactStringEquality(t *testing.T) {
	tags := []any{"tabby"}
	before := appTree("a.png", []any{"cats"}, tags)
	after := appTree("a.png ", []any{"cats"}, tags)
	assert.Equal(t, Changed(paths("currentProject.currentImage.tags"), before, after), false)
	assert.Equal(t, Changed(paths("currentProject.currentImage.name"), before, after), true)
}

func TestProject_EmptySelectorClonesSnapshot(t *testing.T) {
	snap := appTree("a.png", []any{"cats"}, []any{"tabby"})
	got := Project(nil, snap)
	assert.Equal(t, Equal(got, snap), true)
	assert.Equal(t, Equal(Project(paths("*"), snap), snap), true)

	got["currentProject"].(map[string]any)["name"] = "mutated"
	assert.Equal(t, snap["currentProject"].(map[string]any)["name"], "cats")
}

func TestProject_MinimalPartial(t *testing.T) {
	snap := appTree("a.png", []any{"cats"}, []any{"tabby"})
	got := Project(paths("currentProject.currentImage.tags"), snap)
	want := Tree{
		"currentProject": map[string]any{
			"currentImage": map[string]any{
				"tags": []any{"tabby"},
			},
		},
	}
	assert.Equal(t, got, want)
}

func TestProject_MergesSiblingPaths(t *testing.T) {
	snap := Tree{"a": 1.0, "b": 2.0, "c": map[string]any{"d": 3.0, "e": 4.0}}
	got := Project(paths("a", "c.e"), snap)
	assert.Equal(t, got, Tree{"a": 1.0, "c": map[string]any{"e": 4.0}})

	// Overlapping selectors: the broader one wins without aliasing the snapshot.
	got = Project(paths("c", "c.d"), snap)
	assert.Equal(t, got, Tree{"c": map[string]any{"d": 3.0, "e": 4.0}})
	got["c"].(map[string]any)["d"] = 99.0
	assert.Equal(t, snap["c"].(map[string]any)["d"], 3.0)
}

func TestProject_IndexedPathsBuildSequences(t *testing.T) {
	snap := Tree{"images": []any{
		map[string]any{"name": "a.png"},
		map[string]any{"name": "b.png"},
		map[string]any{"name": "c.png"},
	}}
	got := Project(paths("images[2].name"), snap)
	assert.Equal(t, got, Tree{"images": []any{nil, nil, map[string]any{"name": "c.png"}}})
}

func TestProject_MissingBranchesContributeNothing(t *testing.T) {
	snap := Tree{"a": map[string]any{"b": 1.0}, "n": nil}
	got := Project(paths("a.x.y", "q", "images[3]", "a.b", "n"), snap)
	assert.Equal(t, got, Tree{"a": map[string]any{"b": 1.0}, "n": nil})
}

func TestProject_MutatingResultNeverTouchesSnapshot(t *testing.T) {
	snap := appTree("a.png", []any{"cats"}, []any{"tabby", "indoor"})
	original := CloneTree(snap)

	got := Project(paths("currentProject.currentImage", "projects"), snap)
	img := got["currentProject"].(map[string]any)["currentImage"].(map[string]any)
	img["name"] = "changed"
	img["tags"].([]any)[0] = "changed"
	got["projects"] = append(got["projects"].([]any), "more")

	assert.Equal(t, snap, original)
}

func TestResolve(t *testing.T) {
	snap := Tree{"a": map[string]any{"list": []any{1.0, nil}}}
	tests := []struct {
		path string
		want Lookup
	}{
		{"a.list[0]", Lookup{Value: 1.0, Present: true}},
		{"a.list[1]", Lookup{Value: nil, Present: true}},
		{"a.list[2]", Missing},
		{"a.list[]", Missing},
		{"a.missing", Missing},
		{"a.list.x", Missing},
		{"a.list[0].x", Missing},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got := Resolve(statepath.MustParse(tt.path), snap)
			assert.Equal(t, got, tt.want)
		})
	}
}

func TestEncodeDecode(t *testing.T) {
	type img struct {
		Name string   `json:"name"`
		Tags []string `json:"tags"`
	}
	tree, raw, err := Encode(struct {
		Image img `json:"image"`
	}{Image: img{Name: "a.png", Tags: []string{"cat"}}})
	assert.Equal(t, err, nil)
	assert.NotEqual(t, len(raw), 0)
	assert.Equal(t, tree["image"], map[string]any{"name": "a.png", "tags": []any{"cat"}})

	decoded, err := Decode[img](tree["image"])
	assert.Equal(t, err, nil)
	assert.Equal(t, decoded, img{Name: "a.png", Tags: []string{"cat"}})
}
