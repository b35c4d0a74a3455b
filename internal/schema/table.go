package schema

import (
	"slices"
	"sync"
)

// Table is the shared, name-keyed store of synthesized schemas. It is written
// during the declaration phase and frozen once a document is assembled; after
// Freeze it is safe for any number of concurrent readers.
type Table struct {
	mu        sync.RWMutex
	order     []string
	nodes     map[string]*Node
	errorSets map[string]ErrorSet
	conflicts []*ConflictError
	frozen    bool
}

// NewTable returns an empty, writable table.
func NewTable() *Table {
	return &Table{
		nodes:     make(map[string]*Node),
		errorSets: make(map[string]ErrorSet),
	}
}

// Register stores n under name. Registering an equal node again is a no-op.
// A structurally different node keeps the first one and records a
// ConflictError, reported later through Conflicts.
func (t *Table) Register(name string, n *Node) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.frozen {
		return ErrFrozen
	}
	existing, ok := t.nodes[name]
	if !ok {
		t.nodes[name] = n
		t.order = append(t.order, name)
		return nil
	}
	if !existing.Equal(n) {
		t.addConflictLocked(name)
	}
	return nil
}

// conflict records a ConflictError for name without touching its node.
func (t *Table) conflict(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.addConflictLocked(name)
}

func (t *Table) addConflictLocked(name string) {
	if !slices.ContainsFunc(t.conflicts, func(c *ConflictError) bool { return c.Name == name }) {
		t.conflicts = append(t.conflicts, &ConflictError{Name: name})
	}
}

// Lookup returns the node registered under name.
func (t *Table) Lookup(name string) (*Node, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n, ok := t.nodes[name]
	return n, ok
}

// Names returns the registered names in registration order.
func (t *Table) Names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.order)
}

// Conflicts returns one error per conflicting name, in detection order.
func (t *Table) Conflicts() []*ConflictError {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.conflicts)
}

// SetErrors stores the per-status error responses extracted for a type.
func (t *Table) SetErrors(name string, set ErrorSet) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.frozen {
		return ErrFrozen
	}
	t.errorSets[name] = set
	return nil
}

// Errors returns the error responses extracted for the type name.
func (t *Table) Errors(name string) (ErrorSet, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.errorSets[name]
	return s, ok
}

// Freeze makes the table read-only.
func (t *Table) Freeze() {
	t.mu.Lock()
	t.frozen = true
	t.mu.Unlock()
}

// Frozen reports whether Freeze has been called.
func (t *Table) Frozen() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.frozen
}
