package sources

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ats-aggregator/internal/config"
	"ats-aggregator/internal/errors"
	"ats-aggregator/pkg/models"
)

type stubSource struct{ id string }

func (s stubSource) ID() string { return s.id }

func (s stubSource) Search(context.Context, models.SearchCriteria) ([]models.Posting, error) {
	return nil, nil
}

func stubConstructor(id string, cfg config.SourceConfig, _ Deps) (Source, error) {
	if len(cfg.BoardIDs) == 0 {
		return nil, Misconfigured(id, "missing board ids")
	}
	return stubSource{id: id}, nil
}

func TestRegistry_CreateAndListEnabled(t *testing.T) {
	constructors := map[string]Constructor{
		"alpha": stubConstructor,
		"beta":  stubConstructor,
		"gamma": stubConstructor,
	}
	configs := map[string]config.SourceConfig{
		"gamma": {Enabled: true, BoardIDs: []string{"g"}},
		"alpha": {Enabled: true, BoardIDs: []string{"a"}},
		"beta":  {Enabled: false, BoardIDs: []string{"b"}},
		"delta": {Enabled: true, BoardIDs: []string{"d"}},
	}

	registry := NewRegistry(constructors, configs, Deps{})

	assert.Equal(t, []string{"alpha", "gamma"}, registry.ListEnabled(), "sorted, enabled and constructible only")
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, registry.Supported())

	source, err := registry.Create("alpha")
	require.NoError(t, err)
	assert.Equal(t, "alpha", source.ID())

	_, err = registry.Create("delta")
	assert.ErrorIs(t, err, ErrUnsupportedSource)

	_, err = registry.Create("beta")
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestRegistry_IsImmutable(t *testing.T) {
	constructors := map[string]Constructor{"alpha": stubConstructor}
	configs := map[string]config.SourceConfig{"alpha": {Enabled: true, BoardIDs: []string{"a"}}}

	registry := NewRegistry(constructors, configs, Deps{})
	delete(constructors, "alpha")
	configs["alpha"] = config.SourceConfig{Enabled: false}

	_, err := registry.Create("alpha")
	require.NoError(t, err)

	enabled := registry.ListEnabled()
	enabled[0] = "mutated"
	assert.Equal(t, []string{"alpha"}, registry.ListEnabled())
}

func TestRegistry_ConfigurationErrors(t *testing.T) {
	failing := func(id string, _ config.SourceConfig, _ Deps) (Source, error) {
		return nil, errors.New("bad credentials file")
	}
	registry := NewRegistry(
		map[string]Constructor{"alpha": stubConstructor, "beta": failing},
		map[string]config.SourceConfig{
			"alpha": {Enabled: true},
			"beta":  {Enabled: true},
		},
		Deps{},
	)

	_, err := registry.Create("alpha")
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "alpha", cfgErr.Source)
	assert.Contains(t, cfgErr.Reason, "missing board ids")

	_, err = registry.Create("beta")
	assert.ErrorIs(t, err, ErrConfiguration, "plain constructor errors are wrapped as configuration errors")

	statuses := registry.Statuses()
	require.Len(t, statuses, 2)
	for _, s := range statuses {
		assert.Equal(t, StatusMisconfigured, s.Status)
		assert.NotEmpty(t, s.Reason)
	}
}
