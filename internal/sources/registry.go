package sources

import (
	"sort"

	"ats-aggregator/internal/config"
	"ats-aggregator/internal/errors"
)

const (
	StatusReady         = "ready"
	StatusMisconfigured = "misconfigured"
)

// Registry maps source ids to constructors and knows which ones configuration
// enables. It is built once and never modified; it performs no network I/O.
type Registry struct {
	constructors map[string]Constructor
	configs      map[string]config.SourceConfig
	enabled      []string
	deps         Deps
}

// NewRegistry snapshots the constructor table and per-source configuration.
func NewRegistry(constructors map[string]Constructor, configs map[string]config.SourceConfig, deps Deps) *Registry {
	r := &Registry{
		constructors: make(map[string]Constructor, len(constructors)),
		configs:      make(map[string]config.SourceConfig, len(configs)),
		deps:         deps,
	}
	for id, c := range constructors {
		r.constructors[id] = c
	}
	for id, c := range configs {
		r.configs[id] = c
		if _, ok := constructors[id]; ok && c.Enabled {
			r.enabled = append(r.enabled, id)
		}
	}
	sort.Strings(r.enabled)
	return r
}

// Create builds a fresh adapter for id.
func (r *Registry) Create(id string) (Source, error) {
	construct, ok := r.constructors[id]
	if !ok {
		return nil, errors.Wrapf(ErrUnsupportedSource, "%q", id)
	}

	cfg, ok := r.configs[id]
	if !ok || !cfg.Enabled {
		return nil, Misconfigured(id, "not enabled")
	}

	source, err := construct(id, cfg, r.deps)
	if err != nil {
		if errors.Is(err, ErrConfiguration) {
			return nil, err
		}
		return nil, &ConfigurationError{Source: id, Reason: err.Error()}
	}
	return source, nil
}

// ListEnabled returns the sorted ids that are enabled and constructible.
func (r *Registry) ListEnabled() []string {
	return append([]string(nil), r.enabled...)
}

// Supported returns every id with a registered constructor, sorted.
func (r *Registry) Supported() []string {
	ids := make([]string, 0, len(r.constructors))
	for id := range r.constructors {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// SourceStatus is the registry's view of one enabled source.
type SourceStatus struct {
	ID     string
	Status string
	Reason string
}

// Statuses reports whether each enabled source can be constructed. It does not
// contact any upstream.
func (r *Registry) Statuses() []SourceStatus {
	statuses := make([]SourceStatus, 0, len(r.enabled))
	for _, id := range r.enabled {
		status := SourceStatus{ID: id, Status: StatusReady}
		if _, err := r.Create(id); err != nil {
			status.Status = StatusMisconfigured
			status.Reason = err.Error()
		}
		statuses = append(statuses, status)
	}
	return statuses
}
