package state

import (
	"fmt"
	"sync"
)

// Status is a container's load lifecycle.
type Status int

const (
	Init Status = iota
	Loading
	Loaded
	ErrorLoading
	ErrorSaving
)

func (s Status) String() string {
	switch s {
	case Init:
		return "init"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case ErrorLoading:
		return "error_loading"
	case ErrorSaving:
		return "error_saving"
	default:
		return "unknown"
	}
}

// MarshalText lets snapshots carry statuses as readable strings.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText reads a status written by MarshalText.
func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseStatus is the inverse of Status.String.
func ParseStatus(name string) (Status, error) {
	for st := Init; st <= ErrorSaving; st++ {
		if st.String() == name {
			return st, nil
		}
	}
	return Init, fmt.Errorf("unknown status %q", name)
}

// IsLoading reports whether a load is in flight.
func (s Status) IsLoading() bool { return s == Loading }

// IsError reports whether the last load or save failed.
func (s Status) IsError() bool { return s == ErrorLoading || s == ErrorSaving }

var transitions = map[Status][]Status{
	Init:         {Loading},
	Loading:      {Loaded, ErrorLoading},
	Loaded:       {Loading, ErrorSaving},
	ErrorLoading: {Loading, Loaded},
	ErrorSaving:  {Loading, Loaded},
}

// CanTransition reports whether from -> to is a lifecycle edge. Loaded ->
// Loading is the explicit refresh edge.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type statusCell struct {
	mu     sync.Mutex
	status Status
}

func (c *statusCell) get() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// swap stores next and returns the previous value and whether it changed.
func (c *statusCell) swap(next Status) (Status, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev := c.status
	if prev == next {
		return prev, false
	}
	c.status = next
	return prev, true
}
