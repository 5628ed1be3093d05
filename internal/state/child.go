package state

import "github.com/golang/glog"

// Child is a container without its own subscriber table. Observers of its
// data subscribe to the root store; every notification is forwarded to the
// parent.
type Child struct {
	name   string
	parent Parent
	status statusCell
}

// NewChild builds a child container. A nil parent makes notifications no-ops.
func NewChild(name string, parent Parent) *Child {
	return &Child{name: name, parent: parent}
}

// State returns the child's own lifecycle status.
func (c *Child) State() Status { return c.status.get() }

// SetStateAndNotify assigns next and forwards a full notify pass upward.
func (c *Child) SetStateAndNotify(next Status) {
	prev, changed := c.status.swap(next)
	if !changed {
		return
	}
	if !CanTransition(prev, next) {
		glog.Warningf("[state]%s: unexpected transition %s -> %s", c.name, prev, next)
	}
	glog.V(1).Infof("[state]%s: %s -> %s", c.name, prev, next)
	c.NotifyAll()
}

// NotifyListeners forwards to the parent.
func (c *Child) NotifyListeners() {
	if c.parent != nil {
		c.parent.NotifyListeners()
	}
}

// NotifyAll forwards to the parent.
func (c *Child) NotifyAll() {
	if c.parent != nil {
		c.parent.NotifyAll()
	}
}
