// Package rotation persists the named-monitor cursor used to pick which
// monitor a single-monitor invocation serves next.
package rotation

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/veighnsche/darkwall/pkg/types"
)

// document is the on-disk JSON shape (spec §6.4).
type document struct {
	Cursor     *string              `json:"cursor"`
	LastServed map[string]time.Time `json:"last_served"`
}

// Manager loads, mutates, and atomically persists RotationState, grounded
// on the teacher's pkg/state.Manager temp-file-then-rename idiom.
type Manager struct {
	path string
	mu   sync.Mutex
}

// NewManager returns a Manager persisting to path.
func NewManager(path string) *Manager {
	return &Manager{path: path}
}

// load reads the persisted document, treating a missing or corrupt file
// as fresh state (spec §4.6 invariant: never blocks startup).
func (m *Manager) load() document {
	raw, err := os.ReadFile(m.path)
	if err != nil {
		return document{LastServed: make(map[string]time.Time)}
	}
	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return document{LastServed: make(map[string]time.Time)}
	}
	if doc.LastServed == nil {
		doc.LastServed = make(map[string]time.Time)
	}
	return doc
}

// persist writes doc via temp-file-then-rename. A write failure is
// StatePersistError and is never fatal to the caller's pipeline run.
func (m *Manager) persist(doc document) error {
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return types.Wrap(types.ErrStatePersistError, "rotation.persist", err)
	}

	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return types.Wrap(types.ErrStatePersistError, "rotation.persist", err)
	}

	tempPath := m.path + ".tmp"
	f, err := os.OpenFile(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return types.Wrap(types.ErrStatePersistError, "rotation.persist", err)
	}
	if _, err := f.Write(raw); err != nil {
		f.Close()
		return types.Wrap(types.ErrStatePersistError, "rotation.persist", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return types.Wrap(types.ErrStatePersistError, "rotation.persist", err)
	}
	if err := f.Close(); err != nil {
		return types.Wrap(types.ErrStatePersistError, "rotation.persist", err)
	}
	if err := os.Rename(tempPath, m.path); err != nil {
		return types.Wrap(types.ErrStatePersistError, "rotation.persist", err)
	}
	return nil
}

// Next returns the monitor name to serve next: the persisted cursor, if it
// still names a currently-configured monitor, otherwise the first
// configured monitor. Record already advances the cursor to the monitor
// *after* the one it serves, so Next never needs to advance further.
func (m *Manager) Next(configuredMonitors []string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(configuredMonitors) == 0 {
		return ""
	}

	doc := m.load()
	if doc.Cursor == nil {
		return configuredMonitors[0]
	}
	idx := indexOf(configuredMonitors, *doc.Cursor)
	if idx < 0 {
		return configuredMonitors[0]
	}
	return configuredMonitors[idx]
}

// Record advances the cursor to the monitor after name (wrapping within
// configuredMonitors) and records now as name's last-served time, then
// persists atomically.
func (m *Manager) Record(name string, configuredMonitors []string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc := m.load()
	doc.LastServed[name] = now

	idx := indexOf(configuredMonitors, name)
	var next *string
	if idx >= 0 && len(configuredMonitors) > 0 {
		n := configuredMonitors[(idx+1)%len(configuredMonitors)]
		next = &n
	}
	doc.Cursor = next

	return m.persist(doc)
}

// Reset discards persisted state; a subsequent Next returns the first
// configured monitor.
func (m *Manager) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := os.Remove(m.path); err != nil && !os.IsNotExist(err) {
		return types.Wrap(types.ErrStatePersistError, "rotation.Reset", err)
	}
	return nil
}

// LastServed returns the persisted last-served time for name, if any.
func (m *Manager) LastServed(name string) (time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc := m.load()
	t, ok := doc.LastServed[name]
	return t, ok
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}
