package tagging

import (
	"context"
	"slices"
	"sync"

	"github.com/golang/glog"

	"github.com/five82/tagger/internal/api"
	"github.com/five82/tagger/internal/state"
)

// App is the root container: it owns the store every view subscribes to.
type App struct {
	backend api.Backend
	store   *state.Store

	mu       sync.Mutex
	projects []api.ProjectSummary
	current  *Project
	loading  bool
}

// NewApp builds the root container around backend.
func NewApp(backend api.Backend) *App {
	a := &App{backend: backend}
	a.store = state.NewStore("app", a.snapshot, state.WithSchema(Schema))
	return a
}

// Store returns the root store for subscriptions.
func (a *App) Store() *state.Store { return a.store }

// State returns the project list status.
func (a *App) State() state.Status { return a.store.State() }

// Projects returns a copy of the loaded project list.
func (a *App) Projects() []api.ProjectSummary {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.projects)
}

// CurrentProject returns the open project, or nil.
func (a *App) CurrentProject() *Project {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current
}

// LoadProjects fetches the project list. A call while a load is in flight
// is ignored unless refresh is set.
func (a *App) LoadProjects(ctx context.Context, refresh bool) {
	a.mu.Lock()
	if a.loading && !refresh {
		a.mu.Unlock()
		glog.V(1).Info("[tagging]projects load already in flight")
		return
	}
	a.loading = true
	a.mu.Unlock()

	a.store.SetStateAndNotify(state.Loading)
	projects, err := a.backend.ListProjects(ctx)

	a.mu.Lock()
	a.loading = false
	if err == nil {
		a.projects = projects
	}
	a.mu.Unlock()

	if err != nil {
		glog.Warningf("[tagging]load projects: %v", err)
		a.store.SetStateAndNotify(state.ErrorLoading)
		return
	}
	glog.V(1).Infof("[tagging]loaded %d projects", len(projects))
	a.store.SetStateAndNotify(state.Loaded)
}

// OpenProject replaces the current project with name and loads it. Opening
// the project that is already current returns it unchanged.
func (a *App) OpenProject(ctx context.Context, name string) *Project {
	a.mu.Lock()
	if a.current != nil && a.current.Name() == name {
		p := a.current
		a.mu.Unlock()
		return p
	}
	p := newProject(name, a.backend, a.store)
	a.current = p
	a.mu.Unlock()

	glog.Infof("[tagging]open project %s", name)
	a.store.NotifyListeners()
	p.Load(ctx, false)
	return p
}

// CloseProject drops the current project.
func (a *App) CloseProject() {
	a.mu.Lock()
	if a.current == nil {
		a.mu.Unlock()
		return
	}
	a.current = nil
	a.mu.Unlock()

	a.store.NotifyListeners()
}

// Retry reloads the project list after ErrorLoading, otherwise retries the
// open project.
func (a *App) Retry(ctx context.Context) {
	if a.store.State() == state.ErrorLoading {
		a.LoadProjects(ctx, true)
		return
	}
	if p := a.CurrentProject(); p != nil {
		p.Retry(ctx)
	}
}

func (a *App) snapshot() any {
	a.mu.Lock()
	defer a.mu.Unlock()
	snap := AppSnapshot{Projects: slices.Clone(a.projects)}
	if a.current != nil {
		snap.CurrentProject = a.current.snapshot()
	}
	return snap
}
