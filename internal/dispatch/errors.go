package dispatch

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for errors.Is checks. The typed errors below unwrap to
// these.
var (
	ErrUnknownKey         = errors.New("unknown dispatch key")
	ErrNoMatch            = errors.New("no matching entry")
	ErrAmbiguous          = errors.New("ambiguous dispatch")
	ErrDuplicateSignature = errors.New("duplicate signature")
)

// UnknownKeyError reports a dispatch or lookup against a key that has no
// registration history.
type UnknownKeyError struct {
	Key Key
}

func (e *UnknownKeyError) Error() string {
	return fmt.Sprintf("dispatch: unknown key %q", e.Key)
}

func (e *UnknownKeyError) Unwrap() error { return ErrUnknownKey }

// NoMatchError reports that entries exist for the key but none satisfy the
// given arguments.
type NoMatchError struct {
	Key      Key
	ArgTypes []string
}

func (e *NoMatchError) Error() string {
	return fmt.Sprintf("dispatch: no entry for key %q matches arguments (%s)",
		e.Key, strings.Join(e.ArgTypes, ", "))
}

func (e *NoMatchError) Unwrap() error { return ErrNoMatch }

// TiedEntry identifies one participant in an ambiguous dispatch.
type TiedEntry struct {
	Signature Signature
	Seq       uint64
}

// AmbiguousError reports two or more entries tying for highest specificity.
// Ties are a configuration error; the resolver never breaks them by
// registration order.
type AmbiguousError struct {
	Key  Key
	Tied []TiedEntry
}

func (e *AmbiguousError) Error() string {
	parts := make([]string, len(e.Tied))
	for i, t := range e.Tied {
		parts[i] = fmt.Sprintf("%s [seq %d]", t.Signature, t.Seq)
	}
	return fmt.Sprintf("dispatch: ambiguous dispatch for key %q: %d entries tie at top specificity: %s",
		e.Key, len(e.Tied), strings.Join(parts, ", "))
}

func (e *AmbiguousError) Unwrap() error { return ErrAmbiguous }

// DuplicateError reports a registration whose signature is identical to an
// existing entry under the same key, without override requested.
type DuplicateError struct {
	Key       Key
	Signature Signature
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("dispatch: signature %s already registered under key %q (use Override to replace)",
		e.Signature, e.Key)
}

func (e *DuplicateError) Unwrap() error { return ErrDuplicateSignature }
