// Package builtin wires the adapters shipped with the service into a registry.
package builtin

import (
	"ats-aggregator/internal/config"
	"ats-aggregator/internal/sources"
	"ats-aggregator/internal/sources/ashby"
	"ats-aggregator/internal/sources/breezyhr"
	"ats-aggregator/internal/sources/greenhouse"
	"ats-aggregator/internal/sources/lever"
)

// Constructors returns a fresh copy of the built-in constructor table.
func Constructors() map[string]sources.Constructor {
	return map[string]sources.Constructor{
		"ashby":      ashby.New,
		"breezyhr":   breezyhr.New,
		"greenhouse": greenhouse.New,
		"lever":      lever.New,
	}
}

// NewRegistry builds the registry for cfg. deps.Config defaults to cfg.
func NewRegistry(cfg *config.Config, deps sources.Deps) *sources.Registry {
	if deps.Config == nil {
		deps.Config = cfg
	}
	return sources.NewRegistry(Constructors(), cfg.Sources, deps)
}
