package nav

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/aretw0/introspection"
)

// ActiveItemKey is the local storage key of the selected menu item.
const ActiveItemKey = "activeItem"

// DefaultActiveItem is selected when nothing valid is stored.
const DefaultActiveItem = RouteDashboard

// ErrUnknownItem is returned when selecting an item that is not in the menu.
var ErrUnknownItem = errors.New("unknown menu item")

// Item is one entry of the side menu.
type Item struct {
	ID     string
	Label  string
	Route  string
	Active bool
}

// DefaultItems returns the menu entries in display order.
func DefaultItems() []Item {
	return []Item{
		{ID: "settings", Label: "Settings", Route: RouteSettings},
		{ID: "music", Label: "Music", Route: RouteMusic},
		{ID: "journal", Label: "Journal", Route: RouteJournal},
		{ID: "tasks", Label: "Tasks", Route: RouteTasks},
		{ID: "notes", Label: "Notes", Route: RouteNotes},
		{ID: "dashboard", Label: "Dashboard", Route: RouteDashboard},
	}
}

// Storage persists the active item.
type Storage interface {
	Get(key string) (string, bool)
	Set(key, value string) error
}

// Navigator moves the router to a route.
type Navigator interface {
	Navigate(name string) Route
}

// MenuState is the observable menu state.
type MenuState struct {
	ActiveItemID string `json:"active_item_id"`
	IsMenuOpen   bool   `json:"is_menu_open"`
}

// Menu is the side menu. It is safe for concurrent use.
type Menu struct {
	storage Storage
	nav     Navigator
	logger  *slog.Logger

	mu     sync.Mutex
	items  []Item
	active string
	open   bool
}

// MenuOption configures a Menu.
type MenuOption func(*Menu)

// WithItems replaces DefaultItems.
func WithItems(items ...Item) MenuOption {
	return func(m *Menu) {
		m.items = append([]Item(nil), items...)
	}
}

// WithMenuLogger sets the logger.
func WithMenuLogger(logger *slog.Logger) MenuOption {
	return func(m *Menu) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewMenu restores the active item from storage. An unknown stored id falls
// back to DefaultActiveItem. The menu starts closed.
func NewMenu(storage Storage, nav Navigator, opts ...MenuOption) *Menu {
	m := &Menu{
		storage: storage,
		nav:     nav,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		items:   DefaultItems(),
	}
	for _, opt := range opts {
		opt(m)
	}

	active := DefaultActiveItem
	if stored, ok := storage.Get(ActiveItemKey); ok {
		if m.indexOf(stored) >= 0 {
			active = stored
		} else {
			m.logger.Warn("ignoring unknown stored menu item", "item", stored)
		}
	}
	m.activate(active)
	return m
}

func (m *Menu) indexOf(id string) int {
	for i, it := range m.items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

// activate marks id active and moves it last. Callers must hold the lock
// (or own the menu exclusively).
func (m *Menu) activate(id string) {
	m.active = id
	for i := range m.items {
		m.items[i].Active = m.items[i].ID == id
	}
	sort.SliceStable(m.items, func(i, j int) bool {
		return !m.items[i].Active && m.items[j].Active
	})
}

// Items returns a copy of the entries in display order.
func (m *Menu) Items() []Item {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Item(nil), m.items...)
}

// ActiveItem returns the selected item id.
func (m *Menu) ActiveItem() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// ActiveLabel returns the label of the selected item.
func (m *Menu) ActiveLabel() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i := m.indexOf(m.active); i >= 0 {
		return m.items[i].Label
	}
	return ""
}

// IsOpen reports whether the menu is expanded.
func (m *Menu) IsOpen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.open
}

// Toggle opens or closes the menu.
func (m *Menu) Toggle() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.open = !m.open
	return m.open
}

// Select persists id as the active item, closes the menu and navigates to
// the item's route. It returns where the router landed.
func (m *Menu) Select(id string) (Route, error) {
	m.mu.Lock()
	i := m.indexOf(id)
	if i < 0 {
		m.mu.Unlock()
		return Route{}, fmt.Errorf("%w: %q", ErrUnknownItem, id)
	}
	route := m.items[i].Route

	if err := m.storage.Set(ActiveItemKey, id); err != nil {
		m.mu.Unlock()
		return Route{}, fmt.Errorf("failed to persist active item: %w", err)
	}
	m.activate(id)
	m.open = false
	m.mu.Unlock()

	m.logger.Debug("menu item selected", "item", id)

	if m.nav == nil {
		return Route{Name: route}, nil
	}
	return m.nav.Navigate(route), nil
}

// Snapshot returns the current menu state.
func (m *Menu) Snapshot() MenuState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return MenuState{ActiveItemID: m.active, IsMenuOpen: m.open}
}

// State implements introspection.Introspectable.
func (m *Menu) State() any {
	return m.Snapshot()
}

// ComponentType implements introspection.Component.
func (m *Menu) ComponentType() string {
	return "menu"
}

var _ introspection.Introspectable = (*Menu)(nil)
var _ introspection.Component = (*Menu)(nil)
