package builtin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ats-aggregator/internal/config"
	"ats-aggregator/internal/platforms"
	"ats-aggregator/internal/sources"
	"ats-aggregator/internal/sources/sourcestest"
)

func TestConstructors_AreCatalogPlatforms(t *testing.T) {
	for id := range Constructors() {
		_, ok := platforms.Lookup(id)
		assert.True(t, ok, "%s is missing from the platform catalog", id)
	}
}

func TestNewRegistry_FromConfig(t *testing.T) {
	cfg := config.Default()
	gh := cfg.Sources["greenhouse"]
	gh.Enabled = true
	gh.BoardIDs = []string{"stripe"}
	cfg.Sources["greenhouse"] = gh

	lever := cfg.Sources["lever"]
	lever.Enabled = true // no company ids
	cfg.Sources["lever"] = lever

	deps, _ := sourcestest.Deps(cfg)
	registry := NewRegistry(cfg, deps)

	assert.Equal(t, []string{"greenhouse", "lever"}, registry.ListEnabled())

	src, err := registry.Create("greenhouse")
	require.NoError(t, err)
	assert.Equal(t, "greenhouse", src.ID())

	_, err = registry.Create("lever")
	assert.ErrorIs(t, err, sources.ErrConfiguration)

	_, err = registry.Create("workday")
	assert.ErrorIs(t, err, sources.ErrUnsupportedSource)

	statuses := registry.Statuses()
	require.Len(t, statuses, 2)
	assert.Equal(t, sources.StatusReady, statuses[0].Status)
	assert.Equal(t, sources.StatusMisconfigured, statuses[1].Status)
}
