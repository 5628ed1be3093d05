package tagging

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/golang/glog"
	"golang.org/x/sync/errgroup"

	"github.com/five82/tagger/internal/api"
	"github.com/five82/tagger/internal/state"
)

// ErrUnknownImage is returned by SelectImage for a name the project does not
// list.
var ErrUnknownImage = errors.New("image not in project")

// Project holds one project's image list and tag categories, plus the image
// currently being edited.
type Project struct {
	name    string
	backend api.Backend
	node    *state.Child

	// categories is read by images while they hold their own lock.
	categories atomic.Pointer[[]api.Category]

	mu      sync.Mutex
	images  []string
	current *Image
	loading bool
}

func newProject(name string, backend api.Backend, parent state.Parent) *Project {
	return &Project{
		name:    name,
		backend: backend,
		node:    state.NewChild("project/"+name, parent),
	}
}

// Name is the project name.
func (p *Project) Name() string { return p.name }

// State returns the project's lifecycle status.
func (p *Project) State() state.Status { return p.node.State() }

// Images returns a copy of the image filenames.
func (p *Project) Images() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.images)
}

// Categories returns the project's tag categories.
func (p *Project) Categories() []api.Category {
	if cats := p.categories.Load(); cats != nil {
		return *cats
	}
	return nil
}

// CurrentImage returns the selected image, or nil.
func (p *Project) CurrentImage() *Image {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Load fetches images and categories concurrently. A call while a load is
// in flight is ignored unless refresh is set.
func (p *Project) Load(ctx context.Context, refresh bool) {
	p.mu.Lock()
	if p.loading && !refresh {
		p.mu.Unlock()
		glog.V(1).Infof("[tagging]project %s: load already in flight", p.name)
		return
	}
	p.loading = true
	p.mu.Unlock()

	p.node.SetStateAndNotify(state.Loading)

	var images []string
	var categories []api.Category
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		images, err = p.backend.ProjectImages(gctx, p.name)
		if err != nil {
			return fmt.Errorf("list images: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		categories, err = p.backend.ProjectCategories(gctx, p.name)
		if err != nil {
			return fmt.Errorf("list categories: %w", err)
		}
		return nil
	})
	err := g.Wait()

	p.mu.Lock()
	p.loading = false
	var current *Image
	if err == nil {
		p.images = images
		p.categories.Store(&categories)
		current = p.current
		if current != nil && !slices.Contains(images, current.Name()) {
			p.current = nil
			current = nil
		}
	}
	p.mu.Unlock()

	if err != nil {
		glog.Warningf("[tagging]project %s: load failed: %v", p.name, err)
		p.node.SetStateAndNotify(state.ErrorLoading)
		return
	}
	if current != nil {
		current.invalidate()
	}
	glog.Infof("[tagging]project %s: %d images, %d categories", p.name, len(images), len(categories))
	p.node.SetStateAndNotify(state.Loaded)
}

// SelectImage makes name the current image and loads its tags. Selecting
// the current image again does not reload it.
func (p *Project) SelectImage(ctx context.Context, name string) (*Image, error) {
	p.mu.Lock()
	if !slices.Contains(p.images, name) {
		p.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrUnknownImage, name)
	}
	if p.current != nil && p.current.Name() == name {
		img := p.current
		p.mu.Unlock()
		return img, nil
	}
	img := newImage(p.name, name, p.backend, p.node, p.Categories)
	p.current = img
	p.mu.Unlock()

	p.node.NotifyListeners()
	img.LoadTags(ctx, false)
	return img, nil
}

// Retry reloads the project after ErrorLoading, otherwise retries the
// current image.
func (p *Project) Retry(ctx context.Context) {
	if p.node.State() == state.ErrorLoading {
		p.Load(ctx, true)
		return
	}
	if img := p.CurrentImage(); img != nil {
		img.Retry(ctx)
	}
}

func (p *Project) snapshot() *ProjectSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	snap := &ProjectSnapshot{
		Name:       p.name,
		State:      p.node.State(),
		Images:     slices.Clone(p.images),
		Categories: p.Categories(),
	}
	if p.current != nil {
		snap.CurrentImage = p.current.snapshot()
	}
	return snap
}
