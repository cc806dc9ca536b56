package resource

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrReleased is returned when a stage touches the buffer after the
	// releaser freed it.
	ErrReleased = errors.New("resource: buffer used after release")

	// ErrNotReleaser is returned when a stage other than the designated
	// releaser attempts to free the buffer.
	ErrNotReleaser = errors.New("resource: release by non-releaser stage")

	// ErrDoubleRelease is returned on a second free of the same generation.
	ErrDoubleRelease = errors.New("resource: buffer released twice")
)

// AllocFunc allocates the underlying buffer. It is called once per handle
// lifetime, by the owner, on first use.
type AllocFunc func() (any, error)

// FreeFunc frees the underlying buffer. It is called exactly once, by the
// designated releaser.
type FreeFunc func(buf any) error

// Handle is a reference-counted-by-protocol handle to an exclusively-owned
// buffer. Roles are fixed at configuration time: one owner who allocates,
// ordered holders who use, one releaser who frees.
//
// Generations track per-item use: the owner's Acquire opens a generation and
// Release closes it only after every registered holder has acquired it,
// catching stages wired in the wrong order.
type Handle struct {
	mu    sync.Mutex
	alloc AllocFunc
	free  FreeFunc

	owner    string
	releaser string
	holders  []string

	buf       any
	allocated bool
	released  bool

	generation uint64
	touched    map[string]uint64
}

// NewHandle creates a handle with the given allocator and finalizer. The
// owner allocates lazily on its first Acquire.
func NewHandle(owner string, alloc AllocFunc, free FreeFunc) *Handle {
	return &Handle{
		alloc:   alloc,
		free:    free,
		owner:   owner,
		touched: make(map[string]uint64),
	}
}

// AddHolder registers a stage that uses the buffer between owner and
// releaser. Configuration time only.
func (h *Handle) AddHolder(stage string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.holders = append(h.holders, stage)
}

// SetReleaser designates the stage that frees the buffer. Must be called
// before the pipeline starts; the protocol cannot infer it from data flow.
func (h *Handle) SetReleaser(stage string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.releaser = stage
}

// Owner returns the allocating stage.
func (h *Handle) Owner() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.owner
}

// Acquire returns the buffer for the given stage. The owner's first Acquire
// allocates; the owner's Acquire also opens a new generation for the current
// item. Any Acquire after release fails.
func (h *Handle) Acquire(stage string) (any, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.released {
		return nil, fmt.Errorf("%w (stage %q)", ErrReleased, stage)
	}
	if stage == h.owner {
		if !h.allocated {
			buf, err := h.alloc()
			if err != nil {
				return nil, fmt.Errorf("resource: allocation by owner %q: %w", h.owner, err)
			}
			h.buf = buf
			h.allocated = true
		}
		h.generation++
	} else if !h.allocated {
		return nil, fmt.Errorf("resource: stage %q acquired before owner %q allocated", stage, h.owner)
	}
	h.touched[stage] = h.generation
	return h.buf, nil
}

// Release frees the buffer. Only the designated releaser may call it, only
// once, and only after every registered holder has acquired the current
// generation.
func (h *Handle) Release(stage string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if stage != h.releaser {
		return fmt.Errorf("%w (stage %q, releaser %q)", ErrNotReleaser, stage, h.releaser)
	}
	if h.released {
		return fmt.Errorf("%w (stage %q)", ErrDoubleRelease, stage)
	}
	if !h.allocated {
		return fmt.Errorf("resource: release by %q before owner %q allocated", stage, h.owner)
	}
	for _, holder := range h.holders {
		if h.touched[holder] != h.generation {
			return fmt.Errorf("resource: release by %q before holder %q used generation %d", stage, holder, h.generation)
		}
	}
	h.released = true
	buf := h.buf
	h.buf = nil
	if h.free != nil {
		if err := h.free(buf); err != nil {
			return fmt.Errorf("resource: free by releaser %q: %w", stage, err)
		}
	}
	return nil
}

// Released reports whether the buffer has been freed.
func (h *Handle) Released() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.released
}

// Generation returns the current item generation opened by the owner.
func (h *Handle) Generation() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.generation
}
