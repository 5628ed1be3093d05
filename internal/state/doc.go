// Package state provides subscribable containers for Tagger's client state.
//
// # Overview
//
// Views never poll or read container fields directly. They subscribe to a
// root Store with a set of paths (see package statepath) and receive an
// Update only when the values at those paths change. Each Update carries the
// minimal projection of the canonical snapshot onto the subscriber's paths.
//
// # Architecture
//
//	Container method (App/Project/Image):
//	┌──────────────────┐
//	│ lock, mutate,    │
//	│ unlock           │
//	│      ↓           │
//	│ NotifyListeners()│──→ Child forwards to parent ──→ root Store
//	└──────────────────┘
//
//	Root Store notify pass:
//	┌──────────────────────────────────────────────┐
//	│ source() → canonical snapshot → Tree + hash │
//	│ for each registration (registration order): │
//	│   Changed(selectors, last, now)?            │
//	│     → Project(selectors, now) → queue       │
//	└──────────────────────────────────────────────┘
//	        ↓
//	FIFO dispatcher → Callback(Update)
//
// # Core Types
//
// Store:
//   - Root container with the subscriber table
//   - Canonical snapshot derived from the owner's private fields by a source
//     function, never mutated by outside code
//   - Optional schema validation of selectors (WithSchema)
//
// Child:
//   - Own Status, no subscriber table
//   - Every notification is forwarded to its parent, so observers of a
//     child's data subscribe to the root with a path through the child
//
// Status:
//
//	Init → Loading → Loaded
//	Loading → ErrorLoading        (read failed)
//	Loaded  → ErrorSaving         (write failed)
//	ErrorLoading/ErrorSaving → Loading/Loaded  (explicit retry)
//	Loaded → Loading              (explicit refresh)
//
// # Delivery Semantics
//
//   - Subscribe delivers one initial projection on the calling goroutine
//     before returning, even while another goroutine is draining. Updates
//     computed meanwhile for the new registration are held and follow it.
//   - Selectors with a symbolic index ("tags[]") are rejected; they name
//     no concrete element.
//   - Unsubscribe is idempotent; a queued delivery for a removed
//     registration is dropped.
//   - A status change delivers to every subscriber regardless of selectors,
//     because Update.State is part of every payload.
//   - A notify pass whose snapshot hash and status match the previous pass
//     does no per-subscriber work.
//   - Deliveries run outside the store's lock in FIFO order. A callback that
//     mutates a container is queued behind the current delivery instead of
//     interleaving with it.
//   - A panicking callback is recovered and logged; other subscribers still
//     receive the pass.
//
// # Concurrency Model
//
// Bubble Tea runs commands on goroutines, so containers may be mutated
// concurrently. The store serializes notify passes with a mutex and computes
// the snapshot inside the pass. Each pass enqueues its batch before the
// lock is released, so batches are delivered in the order they were
// computed and a later pass never delivers older data than an earlier one.
// A notify that finds another goroutine draining returns after enqueueing;
// that goroutine delivers the batch. An initial projection may run on its
// subscribing goroutine concurrently with deliveries to other subscribers.
//
// # Testing Considerations
//
// Construct a fresh Store per test with a closure over test-owned fields:
//
//	data := map[string]any{"a": 1, "b": 2}
//	s := state.NewStore("test", func() any { return data })
package state
