// Package watch provides the in-memory list of crates being watched.
package watch

import "sync"

// Entry is a single watched crate and its last-known version.
type Entry struct {
	// Name is the crate name as registered on crates.io
	Name string
	// Version is the last version reported by the registry
	Version string
}

// List is a mutex-guarded mapping from crate name to its last-known
// version. It is shared between the command handler and the poller;
// the lock is held only for the duration of a single operation, never
// across network calls.
type List struct {
	mu       sync.Mutex
	versions map[string]string
}

// NewList creates an empty watch list.
func NewList() *List {
	return &List{
		versions: make(map[string]string),
	}
}

// Set inserts or overwrites the entry for name.
func (l *List) Set(name, version string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.versions[name] = version
}

// Get returns the stored version for name.
func (l *List) Get(name string) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	version, ok := l.versions[name]
	return version, ok
}

// Remove deletes the entry for name, returning the prior version and
// whether the name was being watched.
func (l *List) Remove(name string) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	version, ok := l.versions[name]
	if ok {
		delete(l.versions, name)
	}
	return version, ok
}

// Len returns the number of watched crates.
func (l *List) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.versions)
}

// Snapshot returns a copy of all entries under a single lock
// acquisition. The caller is free to iterate without holding the lock.
func (l *List) Snapshot() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries := make([]Entry, 0, len(l.versions))
	for name, version := range l.versions {
		entries = append(entries, Entry{Name: name, Version: version})
	}
	return entries
}

// CompareAndSwap updates the version for name only if the entry still
// exists and still holds old. It returns true if the swap happened.
// The poller uses this so a crate removed (or re-added with a newer
// version) while a registry query was in flight is not clobbered.
func (l *List) CompareAndSwap(name, old, new string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	current, ok := l.versions[name]
	if !ok || current != old {
		return false
	}
	l.versions[name] = new
	return true
}
