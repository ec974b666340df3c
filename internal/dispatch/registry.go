package dispatch

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zjrosen/dispatch/internal/cachemanager"
	"github.com/zjrosen/dispatch/internal/log"
	"github.com/zjrosen/dispatch/internal/pubsub"
)

// Key names one logical dispatchable operation.
type Key string

// EntryEvent is the payload published on registry mutations.
type EntryEvent struct {
	Key       Key
	Signature string
	Seq       uint64
}

// snapshot is the immutable state published to readers. Mutations build a
// replacement and swap the pointer; the generation number travels with the
// entry map so cached resolutions can never cross a mutation boundary.
type snapshot struct {
	entries map[Key][]*Entry
	gen     uint64
}

// Registry owns the mapping from key to registered entries. Create one
// with New and pass it explicitly to registration and dispatch call sites;
// there is no package-level instance.
//
// Dispatch is expected to be far more frequent than registration: reads go
// against a lock-free published snapshot, while Register/Unregister
// serialize on a mutex and publish a complete copy-on-write replacement.
type Registry struct {
	mu   sync.Mutex // serializes mutations
	snap atomic.Pointer[snapshot]
	seq  atomic.Uint64

	cache    cachemanager.CacheManager[string, *Entry]
	cacheTTL time.Duration
	tracer   trace.Tracer
	broker   *pubsub.Broker[EntryEvent]
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		tracer: noop.NewTracerProvider().Tracer("dispatch"),
		broker: pubsub.NewBroker[EntryEvent](),
	}
	r.snap.Store(&snapshot{entries: map[Key][]*Entry{}})
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Events returns the broker on which registration, retirement, and
// unregistration events are published.
func (r *Registry) Events() *pubsub.Broker[EntryEvent] {
	return r.broker
}

// Close shuts down the event broker. The registry itself remains usable;
// further mutations simply publish no events.
func (r *Registry) Close() {
	r.broker.Close()
}

// Register inserts a new entry under key and returns a Handle referencing
// it. It fails with *DuplicateError if an entry with an identical signature
// already exists under key and Override was not requested; with Override,
// the earlier entry is retired.
func (r *Registry) Register(key Key, sig Signature, fn Func, opts ...RegisterOption) (Handle, error) {
	if key == "" {
		return Handle{}, fmt.Errorf("dispatch: key must not be empty")
	}
	if fn == nil {
		return Handle{}, fmt.Errorf("dispatch: implementation must not be nil")
	}
	if err := sig.validate(); err != nil {
		return Handle{}, fmt.Errorf("dispatch: invalid signature for key %q: %w", key, err)
	}

	var o registerOptions
	for _, opt := range opts {
		opt(&o)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.snap.Load()
	existing := cur.entries[key]

	var retired *Entry
	for _, e := range existing {
		if e.sig.Equal(sig) {
			if !o.override {
				return Handle{}, &DuplicateError{Key: key, Signature: sig.clone()}
			}
			retired = e
			break
		}
	}

	entry := &Entry{
		id:   uuid.New(),
		key:  key,
		sig:  sig.clone(),
		fn:   fn,
		seq:  r.seq.Add(1),
		meta: cloneMetadata(o.metadata),
	}

	keyEntries := make([]*Entry, 0, len(existing)+1)
	for _, e := range existing {
		if retired != nil && e.id == retired.id {
			continue
		}
		keyEntries = append(keyEntries, e)
	}
	keyEntries = append(keyEntries, entry)

	r.publish(cur, key, keyEntries)

	if retired != nil {
		r.broker.Publish(pubsub.RetiredEvent, EntryEvent{Key: key, Signature: retired.sig.String(), Seq: retired.seq})
	}
	r.broker.Publish(pubsub.RegisteredEvent, EntryEvent{Key: key, Signature: entry.sig.String(), Seq: entry.seq})
	log.Debug(log.CatRegistry, "registered entry",
		"key", key, "signature", entry.sig.String(), "seq", entry.seq, "override", o.override)

	return Handle{id: entry.id, key: key}, nil
}

// Unregister removes the entry the handle references, if still present.
// It is idempotent: unregistering an already-removed entry (or the zero
// Handle) is a no-op, not an error.
func (r *Registry) Unregister(h Handle) {
	if !h.valid() {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.snap.Load()
	existing, ok := cur.entries[h.key]
	if !ok {
		return
	}

	idx := -1
	for i, e := range existing {
		if e.id == h.id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}

	removed := existing[idx]
	// The key stays present with an empty slice: registration history
	// distinguishes UnknownKeyError from an empty lookup.
	keyEntries := make([]*Entry, 0, len(existing)-1)
	keyEntries = append(keyEntries, existing[:idx]...)
	keyEntries = append(keyEntries, existing[idx+1:]...)

	r.publish(cur, h.key, keyEntries)

	r.broker.Publish(pubsub.UnregisteredEvent, EntryEvent{Key: h.key, Signature: removed.sig.String(), Seq: removed.seq})
	log.Debug(log.CatRegistry, "unregistered entry",
		"key", h.key, "signature", removed.sig.String(), "seq", removed.seq)
}

// publish swaps in a new snapshot with key bound to keyEntries. Callers
// must hold r.mu.
func (r *Registry) publish(cur *snapshot, key Key, keyEntries []*Entry) {
	next := &snapshot{
		entries: make(map[Key][]*Entry, len(cur.entries)+1),
		gen:     cur.gen + 1,
	}
	for k, v := range cur.entries {
		next.entries[k] = v
	}
	next.entries[key] = keyEntries
	r.snap.Store(next)
}

// Lookup returns a read-only snapshot of all entries currently registered
// under key, in registration order. A key with registration history but no
// live entries yields an empty slice; a key never registered yields
// *UnknownKeyError.
func (r *Registry) Lookup(key Key) ([]*Entry, error) {
	snap := r.snap.Load()
	entries, ok := snap.entries[key]
	if !ok {
		return nil, &UnknownKeyError{Key: key}
	}
	out := make([]*Entry, len(entries))
	copy(out, entries)
	return out, nil
}

// Signatures returns the ordered signatures currently registered under key,
// for debugging and documentation. Sequence numbers are not exposed.
func (r *Registry) Signatures(key Key) ([]Signature, error) {
	snap := r.snap.Load()
	entries, ok := snap.entries[key]
	if !ok {
		return nil, &UnknownKeyError{Key: key}
	}
	sigs := make([]Signature, len(entries))
	for i, e := range entries {
		sigs[i] = e.sig.clone()
	}
	return sigs, nil
}

// EntryInfo describes one live entry for introspection output.
type EntryInfo struct {
	Signature string         `json:"signature"`
	Seq       uint64         `json:"seq"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Describe returns introspection records for every live entry under key, in
// registration order.
func (r *Registry) Describe(key Key) ([]EntryInfo, error) {
	snap := r.snap.Load()
	entries, ok := snap.entries[key]
	if !ok {
		return nil, &UnknownKeyError{Key: key}
	}
	infos := make([]EntryInfo, len(entries))
	for i, e := range entries {
		infos[i] = EntryInfo{
			Signature: e.sig.String(),
			Seq:       e.seq,
			Metadata:  cloneMetadata(e.meta),
		}
	}
	return infos, nil
}

// Keys returns every key with registration history, sorted.
func (r *Registry) Keys() []string {
	snap := r.snap.Load()
	keys := make([]string, 0, len(snap.entries))
	for k := range snap.entries {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	return keys
}

// Contains reports whether key has at least one live entry.
func (r *Registry) Contains(key Key) bool {
	snap := r.snap.Load()
	return len(snap.entries[key]) > 0
}

// Count returns the number of live entries under key; zero for unknown keys.
func (r *Registry) Count(key Key) int {
	snap := r.snap.Load()
	return len(snap.entries[key])
}

// Size returns the total number of live entries across all keys.
func (r *Registry) Size() int {
	snap := r.snap.Load()
	n := 0
	for _, entries := range snap.entries {
		n += len(entries)
	}
	return n
}

// Dispatch resolves key against args and invokes the winning entry,
// returning its result or error unchanged. Resolution failures surface as
// *UnknownKeyError, *NoMatchError, or *AmbiguousError; the engine never
// retries or silently substitutes another entry.
func (r *Registry) Dispatch(ctx context.Context, key Key, args ...any) (any, error) {
	snap := r.snap.Load()
	entries, ok := snap.entries[key]
	if !ok {
		return nil, &UnknownKeyError{Key: key}
	}

	entry, cached, err := r.resolveCached(ctx, snap, key, entries, args)
	if err != nil {
		log.Debug(log.CatResolve, "resolution failed", "key", key, "error", err)
		return nil, err
	}

	log.Debug(log.CatResolve, "resolved entry",
		"key", key, "signature", entry.sig.String(), "seq", entry.seq, "cached", cached)

	return r.invoke(ctx, entry, args, cached)
}

// resolveCached consults the resolution cache when it is enabled and sound
// for this key's entry set, falling back to a full resolve.
func (r *Registry) resolveCached(ctx context.Context, snap *snapshot, key Key, entries []*Entry, args []any) (*Entry, bool, error) {
	cacheable := r.cache != nil
	if cacheable {
		for _, e := range entries {
			if e.sig.hasPredicate() {
				cacheable = false
				break
			}
		}
	}

	var ckey string
	if cacheable {
		ckey = resolutionCacheKey(key, snap.gen, args)
		if e, ok := r.cache.Get(ctx, ckey); ok {
			return e, true, nil
		}
	}

	entry, err := resolve(key, entries, args)
	if err != nil {
		return nil, false, err
	}
	if cacheable {
		r.cache.Set(ctx, ckey, entry, r.cacheTTL)
	}
	return entry, false, nil
}

// resolutionCacheKey folds the snapshot generation into the cache key, so
// every mutation implicitly invalidates all prior resolutions.
func resolutionCacheKey(key Key, gen uint64, args []any) string {
	return fmt.Sprintf("%s|%d|%s", key, gen, strings.Join(argTypeNames(args), ","))
}

func cloneMetadata(meta map[string]any) map[string]any {
	if meta == nil {
		return nil
	}
	out := make(map[string]any, len(meta))
	for k, v := range meta {
		out[k] = v
	}
	return out
}
