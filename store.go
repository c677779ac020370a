package dombind

import (
	"strings"

	"github.com/golang/glog"
)

// ChangeFunc is invoked when a subscribed path (or a descendant of a
// wildcard prefix) is written. path is the concrete path that was written,
// not the subscription pattern.
type ChangeFunc func(path string, value, old any)

// subscription pairs a callback with a removal identity. Callbacks are not
// comparable in Go, so each Subscribe call gets its own id.
type subscription struct {
	id int
	fn ChangeFunc
}

// Store is a path-addressed state tree with synchronous publish/subscribe.
//
// Paths are dot-delimited strings ("user.name"). Writing through a missing
// intermediate auto-vivifies it as a nested map; writing through a scalar
// intermediate replaces the scalar with a map, discarding it. Subscriptions
// may target an exact path, or a wildcard prefix ("user.*") matching any
// write at or under that prefix.
//
// A Store is an explicitly constructed instance, passed by reference into
// every renderer; there is no ambient global. It assumes the engine's
// single-threaded, cooperative execution model and is not safe for
// concurrent use: all writes, notifications, and re-evaluations run to
// completion inside the task that issued the originating Set.
//
// Reset must never be called from inside a notify callback; that is a
// programming error, not a supported cancellation point.
type Store struct {
	tree   map[string]any
	subs   map[string][]subscription
	order  []string // subscription paths in registration order
	nextID int
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		tree: make(map[string]any),
		subs: make(map[string][]subscription),
	}
}

// Get returns the value at a dotted path, or nil when any intermediate is
// missing or not a map. Malformed paths (empty, or with empty segments)
// return nil; Get never panics on well-formed string paths.
func (s *Store) Get(path string) any {
	segs, ok := splitPath(path)
	if !ok {
		return nil
	}
	var cur any = s.tree
	for _, seg := range segs {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur, ok = m[seg]
		if !ok {
			return nil
		}
	}
	return cur
}

// Set writes a value at a dotted path, auto-vivifying intermediate maps,
// then synchronously notifies every matching subscriber before returning.
// A write of a value equal to the current one still notifies; renders are
// idempotent and the store does not compare.
//
// Malformed paths are a silent no-op by contract with callers.
func (s *Store) Set(path string, value any) {
	segs, ok := splitPath(path)
	if !ok {
		glog.V(2).Infof("dombind: ignoring set with malformed path %q", path)
		return
	}
	cur := s.tree
	for _, seg := range segs[:len(segs)-1] {
		next, ok := cur[seg].(map[string]any)
		if !ok {
			// auto-vivify; a scalar intermediate is discarded
			next = make(map[string]any)
			cur[seg] = next
		}
		cur = next
	}
	last := segs[len(segs)-1]
	old := cur[last]
	cur[last] = value
	s.notify(path, value, old)
}

// SetNamespace bulk-replaces an entire top-level mapping and notifies every
// subscriber whose registered path sits at or under the namespace. Each
// subscriber receives the freshly-read value at its own subscribed path, so
// scalar consumers see scalars rather than the whole namespace object.
func (s *Store) SetNamespace(name string, data map[string]any) {
	if name == "" || strings.Contains(name, ".") {
		glog.V(2).Infof("dombind: ignoring namespace load with malformed name %q", name)
		return
	}
	s.tree[name] = data

	for _, pattern := range append([]string(nil), s.order...) {
		lookup, match := namespaceLookupPath(pattern, name)
		if !match {
			continue
		}
		value := s.Get(lookup)
		for _, sub := range append([]subscription(nil), s.subs[pattern]...) {
			sub.fn(lookup, value, nil)
		}
	}
}

// namespaceLookupPath reports whether a subscription pattern falls under the
// namespace and returns the concrete path to read for its callback.
func namespaceLookupPath(pattern, name string) (string, bool) {
	lookup := strings.TrimSuffix(pattern, ".*")
	if lookup != name && !strings.HasPrefix(lookup, name+".") {
		return "", false
	}
	return lookup, true
}

// Subscribe registers a callback for a path or wildcard pattern and returns
// a function that removes exactly this callback. Removing the last callback
// for a path prunes the path entry.
func (s *Store) Subscribe(path string, fn ChangeFunc) func() {
	if path == "" || fn == nil {
		return func() {}
	}
	s.nextID++
	id := s.nextID
	if _, exists := s.subs[path]; !exists {
		s.order = append(s.order, path)
	}
	s.subs[path] = append(s.subs[path], subscription{id: id, fn: fn})

	return func() {
		list := s.subs[path]
		for i, sub := range list {
			if sub.id == id {
				s.subs[path] = append(list[:i], list[i+1:]...)
				break
			}
		}
		if len(s.subs[path]) == 0 {
			delete(s.subs, path)
			for i, p := range s.order {
				if p == path {
					s.order = append(s.order[:i], s.order[i+1:]...)
					break
				}
			}
		}
	}
}

// Reset clears the tree and all subscriptions atomically. See the Store
// doc comment for the reentrancy constraint.
func (s *Store) Reset() {
	s.tree = make(map[string]any)
	s.subs = make(map[string][]subscription)
	s.order = nil
}

// notify delivers a write to exact-path subscribers first, then walks the
// ancestor chain from most-specific to least-specific, delivering to
// wildcard subscribers at each level. Order within a level is insertion
// order. Callback lists are copied so an unsubscribe from inside a callback
// cannot skip or double-deliver.
func (s *Store) notify(path string, value, old any) {
	for _, sub := range append([]subscription(nil), s.subs[path]...) {
		sub.fn(path, value, old)
	}
	segs := strings.Split(path, ".")
	for i := len(segs); i >= 1; i-- {
		pattern := strings.Join(segs[:i], ".") + ".*"
		for _, sub := range append([]subscription(nil), s.subs[pattern]...) {
			sub.fn(path, value, old)
		}
	}
}

// splitPath validates and splits a dotted path. Empty paths and paths with
// empty segments are rejected.
func splitPath(path string) ([]string, bool) {
	if path == "" {
		return nil, false
	}
	segs := strings.Split(path, ".")
	for _, seg := range segs {
		if seg == "" || seg == "*" {
			return nil, false
		}
	}
	return segs, true
}
