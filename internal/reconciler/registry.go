package reconciler

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var errEmptyName = errors.New("reconciler name is empty")

// Registry resolves reconcilers by task type. It is safe for concurrent
// use, although the executor drives tasks strictly in sequence.
type Registry struct {
	mu          sync.RWMutex
	reconcilers map[string]Reconciler
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{reconcilers: make(map[string]Reconciler)}
}

// Register adds a reconciler, rejecting duplicates.
func (r *Registry) Register(rec Reconciler) error {
	if rec == nil {
		return fmt.Errorf("reconciler is nil")
	}
	meta := rec.Metadata()
	if err := meta.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.reconcilers[meta.Name]; exists {
		return fmt.Errorf("reconciler %q already registered", meta.Name)
	}
	r.reconcilers[meta.Name] = rec
	return nil
}

// Get resolves the reconciler for a task type.
func (r *Registry) Get(taskType string) (Reconciler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.reconcilers[taskType]
	if !ok {
		return nil, fmt.Errorf("no reconciler registered for task type %q", taskType)
	}
	return rec, nil
}

// List returns registered metadata sorted by name.
func (r *Registry) List() []Metadata {
	r.mu.RLock()
	defer r.mu.RUnlock()

	metas := make([]Metadata, 0, len(r.reconcilers))
	for _, rec := range r.reconcilers {
		metas = append(metas, rec.Metadata())
	}
	sort.Slice(metas, func(i, j int) bool { return metas[i].Name < metas[j].Name })
	return metas
}
