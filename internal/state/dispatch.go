package state

import (
	"sync"

	"github.com/golang/glog"
)

type delivery struct {
	reg    *registration
	update Update
}

// dispatcher delivers callbacks in FIFO order. A delivery that triggers
// another notify pass only enqueues; the goroutine already draining delivers
// it after the current callback returns. Deliveries for a registration whose
// initial payload is still being delivered are held and released ahead of
// anything queued later.
type dispatcher struct {
	mu       sync.Mutex
	queue    []delivery
	draining bool
}

// enqueue appends batch without delivering. Store calls it under its own
// lock so batches enter the queue in the order they were computed.
func (d *dispatcher) enqueue(batch ...delivery) {
	if len(batch) == 0 {
		return
	}
	d.mu.Lock()
	d.queue = append(d.queue, batch...)
	d.mu.Unlock()
}

// drain delivers queued updates unless another call is already draining.
func (d *dispatcher) drain() {
	d.mu.Lock()
	if d.draining {
		d.mu.Unlock()
		return
	}
	d.draining = true
	for len(d.queue) > 0 {
		next := d.queue[0]
		d.queue[0] = delivery{}
		d.queue = d.queue[1:]
		if !next.reg.ready {
			next.reg.held = append(next.reg.held, next.update)
			continue
		}
		d.mu.Unlock()
		next.reg.invoke(next.update)
		d.mu.Lock()
	}
	d.queue = nil
	d.draining = false
	d.mu.Unlock()
}

// release marks reg ready after its initial delivery and puts any held
// updates at the front of the queue.
func (d *dispatcher) release(reg *registration) {
	d.mu.Lock()
	reg.ready = true
	if len(reg.held) > 0 {
		held := make([]delivery, 0, len(reg.held)+len(d.queue))
		for _, u := range reg.held {
			held = append(held, delivery{reg: reg, update: u})
		}
		d.queue = append(held, d.queue...)
		reg.held = nil
	}
	d.mu.Unlock()
	d.drain()
}

func (r *registration) invoke(u Update) {
	if !r.active.Load() {
		return
	}
	defer func() {
		if p := recover(); p != nil {
			glog.Errorf("[state]subscriber %s panicked: %v", r.id, p)
		}
	}()
	r.cb(u)
}
