// Package hooking lets the bridge expose what happens inside a bus cycle to
// loggers, recorders, and monitors without coupling the cycle logic to them.
package hooking

import (
	"errors"
	"fmt"
)

// HookPos names a point in a cycle or event where hooks fire. Positions are
// compared by pointer.
type HookPos struct {
	Name string
}

// HookCtx describes one firing.
type HookCtx struct {
	// Domain raised the hook.
	Domain Hookable

	// Pos is where in the domain's work the hook fires.
	Pos *HookPos

	// Item is the subject of the firing. Its type is fixed per position.
	Item any
}

// Hookable is anything observers can attach to.
type Hookable interface {
	// AcceptHook registers a hook. Hooks are registered before the domain
	// runs and are never removed.
	AcceptHook(hook Hook)

	// Hooks returns the registered hooks in registration order.
	Hooks() []Hook
}

// Hook observes a Hookable.
type Hook interface {
	Func(ctx HookCtx)
}

// HookFunc adapts a function to Hook. It is registered through a pointer so
// that duplicate registration can be detected.
type HookFunc func(ctx HookCtx)

// Func calls f(ctx).
func (f *HookFunc) Func(ctx HookCtx) {
	(*f)(ctx)
}

// NewHookFunc wraps f so that it can be registered as a Hook.
func NewHookFunc(f func(ctx HookCtx)) *HookFunc {
	h := HookFunc(f)
	return &h
}

// PanicError is returned by InvokeHook for a hook that panicked.
type PanicError struct {
	Pos   *HookPos
	Hook  Hook
	Value any
}

func (e *PanicError) Error() string {
	pos := "?"
	if e.Pos != nil {
		pos = e.Pos.Name
	}

	return fmt.Sprintf("hooking: %s hook %T panicked: %v", pos, e.Hook, e.Value)
}

// HookableBase keeps the hook list for a Hookable.
type HookableBase struct {
	hooks []Hook
}

// NewHookableBase creates an empty HookableBase.
func NewHookableBase() *HookableBase {
	return &HookableBase{}
}

// Hooks returns the registered hooks.
func (h *HookableBase) Hooks() []Hook {
	return h.hooks
}

// AcceptHook registers a hook. Registering the same hook twice panics.
func (h *HookableBase) AcceptHook(hook Hook) {
	for _, registered := range h.hooks {
		if registered == hook {
			panic("duplicated hook")
		}
	}

	h.hooks = append(h.hooks, hook)
}

// InvokeHook calls every hook with ctx. A hook that panics does not keep the
// later hooks from running; each panic is returned as a *PanicError, joined
// when there are several.
func (h *HookableBase) InvokeHook(ctx HookCtx) error {
	var errs []error

	for _, hook := range h.hooks {
		if err := call(hook, ctx); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func call(hook Hook, ctx HookCtx) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Pos: ctx.Pos, Hook: hook, Value: r}
		}
	}()

	hook.Func(ctx)

	return nil
}

var _ Hookable = (*HookableBase)(nil)
