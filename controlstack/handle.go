package controlstack

import (
	"fmt"
	"runtime/debug"

	"github.com/sarchlab/ecatsim/pdo"
)

// noCopy makes go vet's copylocks check flag copies of the struct that
// embeds it.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Handle exclusively owns a Session. Ownership moves with Move and is never
// shared; the session is closed exactly once, by Release on the handle that
// owns it at that time. A Handle must not be copied.
type Handle struct {
	noCopy noCopy

	session  Session
	released bool
}

// NewHandle takes ownership of s.
func NewHandle(s Session) *Handle {
	return &Handle{session: s}
}

// Valid reports whether the handle owns a live session.
func (h *Handle) Valid() bool {
	return h != nil && h.session != nil && !h.released
}

// Move transfers the session to a new handle. h is left empty, and a later
// Release on h does nothing.
func (h *Handle) Move() *Handle {
	moved := &Handle{session: h.session, released: h.released}
	h.session = nil

	return moved
}

// Cycle runs one cycle of the owned session. A panic inside the session is
// recovered and returned as an error wrapping ErrPanic.
func (h *Handle) Cycle(in *pdo.Sensors, out *pdo.Commands) (err error) {
	if !h.Valid() {
		return ErrNoSession
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v\n%s", ErrPanic, r, debug.Stack())
		}
	}()

	return h.session.Cycle(in, out)
}

// Release closes the owned session. Only the first call closes it.
func (h *Handle) Release() error {
	if h.session == nil || h.released {
		return nil
	}

	h.released = true

	if err := h.session.Close(); err != nil {
		return fmt.Errorf("controlstack: closing session: %w", err)
	}

	return nil
}
