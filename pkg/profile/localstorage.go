package profile

import (
	"log/slog"
	"sort"
	"sync"
)

// LocalStorage is a persistent string key/value store.
type LocalStorage struct {
	path   string
	logger *slog.Logger

	mu      sync.Mutex
	entries map[string]string
}

// Get returns the value stored under key.
func (l *LocalStorage) Get(key string) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	v, ok := l.entries[key]
	return v, ok
}

// Set stores value under key.
func (l *LocalStorage) Set(key, value string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	next := l.copy()
	next[key] = value
	if err := saveJSON(l.path, next); err != nil {
		return err
	}
	l.entries = next

	l.logger.Debug("storage item set", "key", key)
	return nil
}

// Remove deletes key. Removing an absent key is not an error.
func (l *LocalStorage) Remove(key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.entries[key]; !ok {
		return nil
	}

	next := l.copy()
	delete(next, key)
	if err := saveJSON(l.path, next); err != nil {
		return err
	}
	l.entries = next

	l.logger.Debug("storage item removed", "key", key)
	return nil
}

// Keys lists the stored keys, sorted.
func (l *LocalStorage) Keys() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	keys := make([]string, 0, len(l.entries))
	for k := range l.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (l *LocalStorage) copy() map[string]string {
	out := make(map[string]string, len(l.entries)+1)
	for k, v := range l.entries {
		out[k] = v
	}
	return out
}
