package state

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"github.com/golang/glog"

	"github.com/five82/tagger/internal/statepath"
	"github.com/five82/tagger/internal/statetree"
)

var (
	// ErrDuplicateSubscriber is returned when an id is already registered.
	ErrDuplicateSubscriber = errors.New("subscriber already registered")
	// ErrNilCallback is returned when Subscribe is given no callback.
	ErrNilCallback = errors.New("subscriber callback is nil")
)

// Update is one delivery to a subscriber: the container's status at the time
// of the pass plus the projection of the canonical snapshot onto the
// subscriber's selectors.
type Update struct {
	ID    string
	State Status
	Data  statetree.Tree
}

// IsLoading reports whether the container was loading for this update.
func (u Update) IsLoading() bool { return u.State.IsLoading() }

// IsError reports whether the container was in an error state.
func (u Update) IsError() bool { return u.State.IsError() }

// Callback receives projected updates.
type Callback func(Update)

// Parent is the notify path a child container forwards to.
type Parent interface {
	NotifyListeners()
	NotifyAll()
}

// Container is the behavior shared by root stores and child containers.
type Container interface {
	Parent
	State() Status
	SetStateAndNotify(Status)
}

var (
	_ Container = (*Store)(nil)
	_ Container = (*Child)(nil)
)

type registration struct {
	id        string
	cb        Callback
	selectors []statepath.Path
	active    atomic.Bool

	// guarded by Store.mu
	last      statetree.Tree
	lastState Status

	// guarded by dispatcher.mu
	ready bool
	held  []Update
}

// Store is a root container: it owns the subscriber table and derives its
// canonical snapshot from the owner's private fields through source.
type Store struct {
	name   string
	source func() any
	schema *statepath.Schema
	status statusCell

	mu          sync.Mutex
	order       []string
	subs        map[string]*registration
	fingerprint uint64
	lastStatus  Status
	computed    bool

	dispatch dispatcher
}

// Option configures a Store.
type Option func(*Store)

// WithSchema makes Subscribe reject selectors the schema does not allow.
func WithSchema(schema *statepath.Schema) Option {
	return func(s *Store) { s.schema = schema }
}

// NewStore builds a root container. source must return the canonical
// snapshot (a json-encodable value); it runs under the store lock and must
// not subscribe to or notify the store.
func NewStore(name string, source func() any, opts ...Option) *Store {
	s := &Store{
		name:   name,
		source: source,
		subs:   make(map[string]*registration),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name identifies the store in diagnostics.
func (s *Store) Name() string { return s.name }

// State returns the current lifecycle status.
func (s *Store) State() Status { return s.status.get() }

// SetStateAndNotify assigns next and, when it differs from the current status,
// delivers to every subscriber regardless of selectors.
func (s *Store) SetStateAndNotify(next Status) {
	prev, changed := s.status.swap(next)
	if !changed {
		return
	}
	if !CanTransition(prev, next) {
		glog.Warningf("[state]%s: unexpected transition %s -> %s", s.name, prev, next)
	}
	glog.V(1).Infof("[state]%s: %s -> %s", s.name, prev, next)
	s.NotifyAll()
}

// Subscribe registers cb for the given selectors (none, or the wildcard,
// selects everything) and delivers one initial projection of the current
// snapshot on the calling goroutine before returning. Updates computed while
// the initial projection is being delivered follow it in order.
func (s *Store) Subscribe(id string, cb Callback, selectors ...statepath.Path) error {
	if cb == nil {
		return ErrNilCallback
	}
	for _, p := range selectors {
		for _, seg := range p.Segments() {
			if seg.Symbolic {
				return fmt.Errorf("subscribe %s: %w: %s selects no concrete element", id, statepath.ErrInvalidPath, p)
			}
		}
	}
	if s.schema != nil {
		if err := s.schema.ValidateAll(selectors); err != nil {
			return fmt.Errorf("subscribe %s: %w", id, err)
		}
	}

	s.mu.Lock()
	if _, exists := s.subs[id]; exists {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrDuplicateSubscriber, id)
	}
	tree, fp, err := s.snapshot()
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("subscribe %s: %w", id, err)
	}
	status := s.status.get()
	if fp != s.fingerprint || status != s.lastStatus {
		// the new registration saw a snapshot the last pass did not, so the
		// next pass must compare every registration
		s.computed = false
	}
	reg := &registration{
		id:        id,
		cb:        cb,
		selectors: append([]statepath.Path(nil), selectors...),
		last:      tree,
		lastState: status,
	}
	reg.active.Store(true)
	s.subs[id] = reg
	s.order = append(s.order, id)
	initial := Update{ID: id, State: status, Data: statetree.Project(reg.selectors, tree)}
	s.mu.Unlock()

	glog.V(2).Infof("[state]%s: subscribe %s %v", s.name, id, selectors)
	reg.invoke(initial)
	s.dispatch.release(reg)
	return nil
}

// Unsubscribe removes a registration. Unknown ids are ignored.
func (s *Store) Unsubscribe(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reg, ok := s.subs[id]
	if !ok {
		return
	}
	reg.active.Store(false)
	delete(s.subs, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	glog.V(2).Infof("[state]%s: unsubscribe %s", s.name, id)
}

// Subscribers returns the registered ids in registration order.
func (s *Store) Subscribers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.order...)
}

// NotifyListeners recomputes the canonical snapshot and delivers to each
// subscriber whose selected paths (or observed status) changed since its
// last delivery.
func (s *Store) NotifyListeners() { s.notify(false) }

// NotifyAll recomputes the canonical snapshot and delivers to every
// subscriber. Status transitions, including those of child containers, use
// this path.
func (s *Store) NotifyAll() { s.notify(true) }

func (s *Store) notify(force bool) {
	s.mu.Lock()
	tree, fp, err := s.snapshot()
	if err != nil {
		s.mu.Unlock()
		glog.Errorf("[state]%s: snapshot failed: %v", s.name, err)
		return
	}
	status := s.status.get()
	if !force && s.computed && fp == s.fingerprint && status == s.lastStatus {
		s.mu.Unlock()
		return
	}
	s.fingerprint, s.lastStatus, s.computed = fp, status, true

	batch := make([]delivery, 0, len(s.order))
	for _, id := range s.order {
		reg := s.subs[id]
		if !force && reg.lastState == status && !statetree.Changed(reg.selectors, reg.last, tree) {
			continue
		}
		reg.last, reg.lastState = tree, status
		batch = append(batch, delivery{
			reg:    reg,
			update: Update{ID: id, State: status, Data: statetree.Project(reg.selectors, tree)},
		})
	}
	s.dispatch.enqueue(batch...)
	s.mu.Unlock()

	glog.V(2).Infof("[state]%s: notify force=%t deliveries=%d", s.name, force, len(batch))
	s.dispatch.drain()
}

// ReadOnly returns a copy of the canonical snapshot.
func (s *Store) ReadOnly() (statetree.Tree, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tree, _, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	return statetree.CloneTree(tree), nil
}

// Fingerprint is the hash of the snapshot used by the last notify pass.
func (s *Store) Fingerprint() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fingerprint
}

func (s *Store) snapshot() (statetree.Tree, uint64, error) {
	if s.source == nil {
		return statetree.Tree{}, 0, nil
	}
	tree, raw, err := statetree.Encode(s.source())
	if err != nil {
		return nil, 0, err
	}
	if tree == nil {
		tree = statetree.Tree{}
	}
	return tree, xxhash.Sum64(raw), nil
}
