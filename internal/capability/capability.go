// Package capability implements the external handlers the engine routes
// turns to: general conversation, knowledge retrieval, calendar lookup, and
// business-card extraction, plus the synthesis capability the aggregator
// uses to combine parallel outputs. All adapters are constructor-injected;
// nothing here is a process-wide singleton.
package capability

import (
	"github.com/loqui-ai/loqui/internal/engine"
)

// Registry resolves capability ids to their adapters. It is populated once
// during wiring and read-only afterwards, satisfying engine.AdapterSet.
type Registry struct {
	adapters map[engine.CapabilityID]engine.Adapter
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[engine.CapabilityID]engine.Adapter)}
}

// Register binds an adapter to a capability id, replacing any previous
// binding.
func (r *Registry) Register(id engine.CapabilityID, a engine.Adapter) {
	r.adapters[id] = a
}

// Adapter implements engine.AdapterSet.
func (r *Registry) Adapter(id engine.CapabilityID) (engine.Adapter, bool) {
	a, ok := r.adapters[id]
	return a, ok
}

// IDs returns the registered capability ids in fixed priority order.
func (r *Registry) IDs() []engine.CapabilityID {
	var ids []engine.CapabilityID
	for _, id := range engine.AllCapabilities {
		if _, ok := r.adapters[id]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}
