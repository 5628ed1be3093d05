package tagging

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/golang/glog"
	"github.com/jellydator/ttlcache/v3"

	"github.com/five82/tagger/internal/api"
	"github.com/five82/tagger/internal/state"
)

const (
	keyTxtFile       = "txtFile"
	keyUncategorized = "uncategorizedTags"
)

// Image holds one image's tag file. It is a child container: every change
// is published through the root store.
type Image struct {
	project    string
	name       string
	backend    api.Backend
	node       *state.Child
	categories func() []api.Category

	text   *ttlcache.Cache[string, string]
	groups *ttlcache.Cache[string, []string]

	mu          sync.Mutex
	tags        []string
	dirty       bool
	suggestions []api.Suggestion
	autoTag     AutoTagStatus
	loading     bool
	saving      bool
}

func newImage(project, name string, backend api.Backend, parent state.Parent, categories func() []api.Category) *Image {
	return &Image{
		project:    project,
		name:       name,
		backend:    backend,
		node:       state.NewChild("image/"+name, parent),
		categories: categories,
		text: ttlcache.New[string, string](
			ttlcache.WithTTL[string, string](ttlcache.NoTTL),
			ttlcache.WithDisableTouchOnHit[string, string](),
		),
		groups: ttlcache.New[string, []string](
			ttlcache.WithTTL[string, []string](ttlcache.NoTTL),
			ttlcache.WithDisableTouchOnHit[string, []string](),
		),
		autoTag: AutoTagIdle,
	}
}

// Name is the image filename.
func (i *Image) Name() string { return i.name }

// State returns the image's lifecycle status.
func (i *Image) State() state.Status { return i.node.State() }

// Tags returns a copy of the current tags.
func (i *Image) Tags() []string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return slices.Clone(i.tags)
}

// TxtFile returns the caption file text for the current tags.
func (i *Image) TxtFile() string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.txtFileLocked()
}

// UncategorizedTags returns the tags outside every project category.
func (i *Image) UncategorizedTags() []string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return slices.Clone(i.uncategorizedLocked())
}

// LoadTags fetches the tag file. A call while a load is in flight is ignored
// unless refresh is set.
func (i *Image) LoadTags(ctx context.Context, refresh bool) {
	i.mu.Lock()
	if i.loading && !refresh {
		i.mu.Unlock()
		glog.V(1).Infof("[tagging]image %s: load already in flight", i.name)
		return
	}
	i.loading = true
	i.mu.Unlock()

	i.node.SetStateAndNotify(state.Loading)
	tags, err := i.backend.ImageTags(ctx, i.project, i.name)

	i.mu.Lock()
	i.loading = false
	if err == nil {
		i.tags = normalizeTags(tags)
		i.dirty = false
		i.invalidateLocked()
	}
	i.mu.Unlock()

	if err != nil {
		glog.Warningf("[tagging]image %s/%s: load tags: %v", i.project, i.name, err)
		i.node.SetStateAndNotify(state.ErrorLoading)
		return
	}
	i.node.SetStateAndNotify(state.Loaded)
}

// SaveTags writes the current tags back. Failure moves the image to
// ErrorSaving; a later successful save returns it to Loaded.
func (i *Image) SaveTags(ctx context.Context) {
	i.mu.Lock()
	if i.saving {
		i.mu.Unlock()
		glog.V(1).Infof("[tagging]image %s: save already in flight", i.name)
		return
	}
	i.saving = true
	tags := slices.Clone(i.tags)
	i.mu.Unlock()

	err := i.backend.SaveImageTags(ctx, i.project, i.name, tags)

	i.mu.Lock()
	i.saving = false
	if err == nil && slices.Equal(tags, i.tags) {
		i.dirty = false
	}
	i.mu.Unlock()

	if err != nil {
		glog.Warningf("[tagging]image %s/%s: save tags: %v", i.project, i.name, err)
		i.node.SetStateAndNotify(state.ErrorSaving)
		return
	}
	glog.Infof("[tagging]saved %d tags for %s/%s", len(tags), i.project, i.name)
	if i.node.State() == state.ErrorSaving {
		i.node.SetStateAndNotify(state.Loaded)
		return
	}
	i.node.NotifyListeners()
}

// AddTag appends tag unless it is blank or already present.
func (i *Image) AddTag(tag string) bool {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return false
	}
	i.mu.Lock()
	if slices.Contains(i.tags, tag) {
		i.mu.Unlock()
		return false
	}
	i.tags = append(i.tags, tag)
	i.mutatedLocked()
	i.mu.Unlock()

	i.node.NotifyListeners()
	return true
}

// RemoveTag deletes tag if present.
func (i *Image) RemoveTag(tag string) bool {
	i.mu.Lock()
	idx := slices.Index(i.tags, tag)
	if idx < 0 {
		i.mu.Unlock()
		return false
	}
	i.tags = slices.Delete(i.tags, idx, idx+1)
	i.mutatedLocked()
	i.mu.Unlock()

	i.node.NotifyListeners()
	return true
}

// SetTags replaces all tags.
func (i *Image) SetTags(tags []string) {
	i.mu.Lock()
	i.tags = normalizeTags(tags)
	i.mutatedLocked()
	i.mu.Unlock()

	i.node.NotifyListeners()
}

// AcceptSuggestion moves a suggested tag into the tag list.
func (i *Image) AcceptSuggestion(tag string) bool {
	i.mu.Lock()
	idx := slices.IndexFunc(i.suggestions, func(s api.Suggestion) bool { return s.Tag == tag })
	if idx < 0 {
		i.mu.Unlock()
		return false
	}
	i.suggestions = slices.Delete(i.suggestions, idx, idx+1)
	if !slices.Contains(i.tags, tag) {
		i.tags = append(i.tags, tag)
		i.mutatedLocked()
	}
	i.mu.Unlock()

	i.node.NotifyListeners()
	return true
}

// AutoTag streams model suggestions for the image. Suggestions already in
// the tag list are skipped. It blocks until the stream ends.
func (i *Image) AutoTag(ctx context.Context) {
	i.mu.Lock()
	if i.autoTag == AutoTagRunning {
		i.mu.Unlock()
		return
	}
	i.autoTag = AutoTagRunning
	i.suggestions = nil
	i.mu.Unlock()
	i.node.NotifyListeners()

	ok := i.backend.StreamSuggestions(ctx, i.project, i.name, func(s api.Suggestion) {
		i.mu.Lock()
		known := slices.Contains(i.tags, s.Tag) ||
			slices.ContainsFunc(i.suggestions, func(existing api.Suggestion) bool { return existing.Tag == s.Tag })
		if !known {
			i.suggestions = append(i.suggestions, s)
		}
		i.mu.Unlock()
		if !known {
			i.node.NotifyListeners()
		}
	})

	i.mu.Lock()
	if ok {
		i.autoTag = AutoTagDone
	} else {
		i.autoTag = AutoTagFailed
	}
	count := len(i.suggestions)
	i.mu.Unlock()

	if !ok {
		glog.Warningf("[tagging]image %s/%s: autotag stream failed after %d suggestions", i.project, i.name, count)
	}
	i.node.NotifyListeners()
}

// Retry repeats the operation that failed: a load after ErrorLoading, a
// save after ErrorSaving. Other states are left alone.
func (i *Image) Retry(ctx context.Context) {
	switch i.node.State() {
	case state.ErrorLoading:
		i.LoadTags(ctx, true)
	case state.ErrorSaving:
		i.SaveTags(ctx)
	}
}

// invalidate drops the derived values; categories changed.
func (i *Image) invalidate() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.invalidateLocked()
}

func (i *Image) mutatedLocked() {
	i.dirty = true
	i.invalidateLocked()
}

func (i *Image) invalidateLocked() {
	i.text.DeleteAll()
	i.groups.DeleteAll()
}

func (i *Image) txtFileLocked() string {
	if item := i.text.Get(keyTxtFile); item != nil {
		return item.Value()
	}
	text := CaptionText(i.tags)
	i.text.Set(keyTxtFile, text, ttlcache.NoTTL)
	return text
}

func (i *Image) uncategorizedLocked() []string {
	if item := i.groups.Get(keyUncategorized); item != nil {
		return item.Value()
	}
	var categories []api.Category
	if i.categories != nil {
		categories = i.categories()
	}
	out := Uncategorized(i.tags, categories)
	i.groups.Set(keyUncategorized, out, ttlcache.NoTTL)
	return out
}

func (i *Image) snapshot() *ImageSnapshot {
	i.mu.Lock()
	defer i.mu.Unlock()
	return &ImageSnapshot{
		Name:              i.name,
		State:             i.node.State(),
		Tags:              slices.Clone(i.tags),
		Dirty:             i.dirty,
		Suggestions:       slices.Clone(i.suggestions),
		AutoTag:           i.autoTag,
		TxtFile:           i.txtFileLocked(),
		UncategorizedTags: slices.Clone(i.uncategorizedLocked()),
	}
}
