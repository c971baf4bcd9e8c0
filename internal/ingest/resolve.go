package ingest

import "sync"

// ParticipantID is a batch-scoped participant identifier assigned on first
// sight of a display name. Durable database ids are assigned separately by
// the store; this id exists so extraction and consolidation can dedupe
// identities before any persistence happens.
type ParticipantID int64

// Resolver maps display names to stable identifiers for the duration of a
// batch run. Matching is exact and case-sensitive: "Bob" and "bob " are
// distinct identities. Safe for concurrent use; if extraction is ever
// parallelized across files, the mutex keeps allocation single-writer.
type Resolver struct {
	mu    sync.Mutex
	ids   map[string]ParticipantID
	names []string
}

// NewResolver returns an empty Resolver.
func NewResolver() *Resolver {
	return &Resolver{ids: make(map[string]ParticipantID)}
}

// Resolve returns the identifier for name, allocating one on first sight.
// The same name always resolves to the same id; distinct names never share
// one.
func (r *Resolver) Resolve(name string) ParticipantID {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.ids[name]; ok {
		return id
	}
	id := ParticipantID(len(r.names) + 1)
	r.ids[name] = id
	r.names = append(r.names, name)
	return id
}

// Names returns all resolved names in first-sight order.
func (r *Resolver) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Len reports the number of distinct identities resolved so far.
func (r *Resolver) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.names)
}
