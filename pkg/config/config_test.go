package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaultsWithNoConfigFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.HistoryCap)
	assert.Equal(t, 100000, cfg.KDFIterations)
	assert.Contains(t, cfg.ReservedUsernames, "root")
}
