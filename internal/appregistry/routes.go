package appregistry

import (
	"sync"

	"github.com/labstack/echo/v4"
)

// MountFunc registers an application's HTTP routes on its route group.
// Bundled applications contribute one at process start; the kernel never
// executes plugin code beyond this registration.
type MountFunc func(g *echo.Group)

// RouteTable maps application codes to their routers. Reads dominate;
// reloads briefly take the write lock while swapping entries.
type RouteTable struct {
	mu     sync.RWMutex
	mounts map[string]MountFunc
}

// NewRouteTable creates an empty route table.
func NewRouteTable() *RouteTable {
	return &RouteTable{mounts: make(map[string]MountFunc)}
}

// Register adds or replaces the router for an application code.
func (t *RouteTable) Register(code string, mount MountFunc) {
	t.mu.Lock()
	t.mounts[code] = mount
	t.mu.Unlock()
}

// Lookup returns the router for an application code.
func (t *RouteTable) Lookup(code string) (MountFunc, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	mount, ok := t.mounts[code]
	return mount, ok
}

// Codes returns the registered application codes.
func (t *RouteTable) Codes() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	codes := make([]string, 0, len(t.mounts))
	for code := range t.mounts {
		codes = append(codes, code)
	}
	return codes
}
