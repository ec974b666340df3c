package dispatch

import (
	"context"

	"github.com/google/uuid"
)

// Func is the implementation shape registered under a key. The context is
// the one passed to Dispatch; implementations may block or fail, and the
// engine imposes no timeout or retry around them.
type Func func(ctx context.Context, args ...any) (any, error)

// Entry pairs a signature with an implementation under a key. Entries are
// immutable once created and owned exclusively by the Registry; accessors
// return defensive copies of mutable fields.
type Entry struct {
	id   uuid.UUID
	key  Key
	sig  Signature
	fn   Func
	seq  uint64
	meta map[string]any
}

// Key returns the key the entry is registered under.
func (e *Entry) Key() Key { return e.key }

// Signature returns a copy of the entry's signature.
func (e *Entry) Signature() Signature { return e.sig.clone() }

// Seq returns the entry's registration sequence number. Sequence numbers
// increase monotonically per registry and determine stable iteration order.
func (e *Entry) Seq() uint64 { return e.seq }

// Metadata returns a copy of the metadata attached at registration, or nil.
func (e *Entry) Metadata() map[string]any {
	if e.meta == nil {
		return nil
	}
	out := make(map[string]any, len(e.meta))
	for k, v := range e.meta {
		out[k] = v
	}
	return out
}

// Handle references exactly one registered entry. It is returned by
// Register and consumed by Unregister; after unregistration it is inert
// and passing it to Unregister again is a no-op. The zero Handle is inert.
type Handle struct {
	id  uuid.UUID
	key Key
}

// Key returns the key of the entry the handle references.
func (h Handle) Key() Key { return h.key }

func (h Handle) valid() bool { return h.id != uuid.Nil }
