package profile

import (
	"log/slog"
	"sort"
	"sync"
	"time"
)

type cookie struct {
	Value   string    `json:"value"`
	Expires time.Time `json:"expires"`
}

// Cookies is a persistent cookie jar. Expired cookies are invisible and are
// dropped on the next write.
type Cookies struct {
	path   string
	now    func() time.Time
	logger *slog.Logger

	mu      sync.Mutex
	entries map[string]cookie
}

// Get returns the value of a live cookie.
func (c *Cookies) Get(name string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[name]
	if !ok || !c.now().Before(e.Expires) {
		return "", false
	}
	return e.Value, true
}

// Expires returns the expiry of a live cookie.
func (c *Cookies) Expires(name string) (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[name]
	if !ok || !c.now().Before(e.Expires) {
		return time.Time{}, false
	}
	return e.Expires, true
}

// Set stores a cookie until expires.
func (c *Cookies) Set(name, value string, expires time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.live()
	next[name] = cookie{Value: value, Expires: expires.UTC()}
	if err := saveJSON(c.path, next); err != nil {
		return err
	}
	c.entries = next

	c.logger.Debug("cookie set", "name", name, "expires", expires)
	return nil
}

// Remove deletes a cookie. Removing an absent cookie is not an error.
func (c *Cookies) Remove(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.live()
	delete(next, name)
	if err := saveJSON(c.path, next); err != nil {
		return err
	}
	c.entries = next

	c.logger.Debug("cookie removed", "name", name)
	return nil
}

// Names lists the live cookie names, sorted.
func (c *Cookies) Names() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	names := make([]string, 0, len(c.entries))
	for name := range c.live() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// live copies the unexpired entries. Callers must hold the lock.
func (c *Cookies) live() map[string]cookie {
	now := c.now()
	out := make(map[string]cookie, len(c.entries)+1)
	for k, v := range c.entries {
		if now.Before(v.Expires) {
			out[k] = v
		}
	}
	return out
}
