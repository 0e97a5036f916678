package rule

import (
	"sync"

	"github.com/coachkit/automation/internal/action"
	"github.com/coachkit/automation/internal/condition"
)

// Registry is the process-wide rule store. Reads vastly outnumber writes,
// so it uses an RWMutex; every mutation installs a fresh *Rule, so a reader
// holding a snapshot can never observe a half-updated rule.
type Registry struct {
	mu    sync.RWMutex
	rules map[string]*Rule
	order []string
}

func NewRegistry() *Registry {
	return &Registry{rules: make(map[string]*Rule)}
}

// Add registers a rule, replacing any rule with the same ID.
func (r *Registry) Add(rl Rule) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.rules[rl.ID]; !exists {
		r.order = append(r.order, rl.ID)
	}
	r.rules[rl.ID] = &rl
}

// Patch describes a partial rule update; nil fields are left unchanged.
type Patch struct {
	Name       *string
	Trigger    Trigger
	Conditions []condition.Condition
	Actions    []action.Action
}

// Update applies a patch to a rule. Unknown IDs are a silent no-op so stale
// callers cannot crash the engine.
func (r *Registry) Update(id string, p Patch) {
	r.mu.Lock()
	defer r.mu.Unlock()
	old, ok := r.rules[id]
	if !ok {
		return
	}
	next := *old
	if p.Name != nil {
		next.Name = *p.Name
	}
	if p.Trigger != nil {
		next.Trigger = p.Trigger
	}
	if p.Conditions != nil {
		next.Conditions = p.Conditions
	}
	if p.Actions != nil {
		next.Actions = p.Actions
	}
	r.rules[id] = &next
}

// Enable turns a rule on. Unknown IDs are a silent no-op.
func (r *Registry) Enable(id string) { r.setEnabled(id, true) }

// Disable turns a rule off. Unknown IDs are a silent no-op.
func (r *Registry) Disable(id string) { r.setEnabled(id, false) }

func (r *Registry) setEnabled(id string, enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	old, ok := r.rules[id]
	if !ok || old.Enabled == enabled {
		return
	}
	next := *old
	next.Enabled = enabled
	r.rules[id] = &next
}

// Get returns the rule with the given ID.
func (r *Registry) Get(id string) (*Rule, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rl, ok := r.rules[id]
	return rl, ok
}

// Snapshot returns the current rules in registration order. The returned
// rules are shared immutable values; callers must not modify them.
func (r *Registry) Snapshot() []*Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Rule, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.rules[id])
	}
	return out
}

// Len returns the number of registered rules.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rules)
}

// Reseed replaces the entire rule set, used on config hot-reload.
func (r *Registry) Reseed(rules []Rule) {
	next := make(map[string]*Rule, len(rules))
	order := make([]string, 0, len(rules))
	for i := range rules {
		rl := rules[i]
		if _, exists := next[rl.ID]; !exists {
			order = append(order, rl.ID)
		}
		next[rl.ID] = &rl
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules = next
	r.order = order
}
