package bind

import (
	"fmt"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/golang/glog"
	"github.com/oklog/ulid/v2"

	"github.com/five82/tagger/internal/state"
	"github.com/five82/tagger/internal/statepath"
)

// Source is a container a binding can subscribe to.
type Source interface {
	Subscribe(id string, cb state.Callback, selectors ...statepath.Path) error
	Unsubscribe(id string)
}

var _ Source = (*state.Store)(nil)

// UpdateMsg carries a delivered projection into the bubbletea program.
type UpdateMsg struct {
	Name   string
	Update state.Update
}

// Binding ties one view to one source and selector set.
type Binding struct {
	name      string
	selectors []statepath.Path

	mu     sync.Mutex
	src    Source
	id     string
	latest state.Update
	has    bool

	updates chan state.Update
	done    chan struct{}
	once    sync.Once
}

// New builds an unmounted binding. name is echoed in every UpdateMsg.
func New(name string, selectors ...statepath.Path) *Binding {
	return &Binding{
		name:      name,
		selectors: append([]statepath.Path(nil), selectors...),
		updates:   make(chan state.Update, 1),
		done:      make(chan struct{}),
	}
}

// Name identifies the binding in UpdateMsg.
func (b *Binding) Name() string { return b.name }

// ID returns the current registration id, or "" when unmounted.
func (b *Binding) ID() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.id
}

// Source returns the mounted source, or nil.
func (b *Binding) Source() Source {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.src
}

// Mount subscribes to src. A nil src unmounts. Mounting the source that is
// already mounted does nothing; a different source replaces the old
// registration with a fresh one.
func (b *Binding) Mount(src Source) error {
	if src == nil {
		b.Unmount()
		return nil
	}

	b.mu.Lock()
	if b.src == src {
		b.mu.Unlock()
		return nil
	}
	prevSrc, prevID := b.src, b.id
	id := b.name + "-" + ulid.Make().String()
	b.src, b.id = src, id
	b.has = false
	b.discardLocked()
	b.mu.Unlock()

	if prevSrc != nil {
		prevSrc.Unsubscribe(prevID)
	}
	if err := src.Subscribe(id, b.deliver, b.selectors...); err != nil {
		b.mu.Lock()
		if b.id == id {
			b.src, b.id = nil, ""
		}
		b.mu.Unlock()
		return fmt.Errorf("bind %s: %w", b.name, err)
	}
	glog.V(2).Infof("[bind]%s mounted as %s", b.name, id)
	return nil
}

// Unmount removes the registration. It is safe to call when unmounted.
func (b *Binding) Unmount() {
	b.mu.Lock()
	src, id := b.src, b.id
	b.src, b.id = nil, ""
	b.discardLocked()
	b.mu.Unlock()

	if src != nil {
		src.Unsubscribe(id)
		glog.V(2).Infof("[bind]%s unmounted %s", b.name, id)
	}
}

// Latest returns the last delivered update for the current registration.
func (b *Binding) Latest() (state.Update, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.latest, b.has
}

// Listen waits for the next delivery. Deliveries that arrive while nobody
// listens collapse into the newest one.
func (b *Binding) Listen() tea.Cmd {
	return func() tea.Msg {
		select {
		case u := <-b.updates:
			return UpdateMsg{Name: b.name, Update: u}
		case <-b.done:
			return nil
		}
	}
}

// Close unmounts and releases any pending Listen.
func (b *Binding) Close() {
	b.Unmount()
	b.once.Do(func() { close(b.done) })
}

// deliver runs on the container's dispatch path and never blocks.
func (b *Binding) deliver(u state.Update) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if u.ID != b.id {
		return
	}
	b.latest, b.has = u, true

	select {
	case b.updates <- u:
		return
	default:
	}
	select {
	case <-b.updates:
	default:
	}
	select {
	case b.updates <- u:
	default:
	}
}

// discardLocked drops an undelivered update from the previous registration.
func (b *Binding) discardLocked() {
	select {
	case <-b.updates:
	default:
	}
}
