package main

import (
	"testing"

	"github.com/san-kum/dalitz/internal/config"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveConfig(t *testing.T) {
	configFile, preset = "", ""

	cfg, err := resolveConfig("d_pipik")
	require.NoError(t, err)
	assert.Equal(t, "d_pipik", cfg.Model)

	preset = "kstar"
	cfg, err = resolveConfig("d_pipik")
	require.NoError(t, err)
	assert.Equal(t, config.GetPreset("d_pipik", "kstar"), cfg)

	preset = "nope"
	_, err = resolveConfig("d_pipik")
	assert.Error(t, err)

	preset = ""
	_, err = resolveConfig("")
	assert.Error(t, err)
	_, err = resolveConfig("unknown")
	assert.Error(t, err)
}

func TestResolveConfigFile(t *testing.T) {
	orig := fs
	defer func() { fs = orig; configFile = "" }()

	fs = afero.NewMemMapFs()
	require.NoError(t, config.SaveFs(fs, "/models/m.yaml", config.DefaultConfig()))

	configFile = "/models/m.yaml"
	cfg, err := resolveConfig("ignored")
	require.NoError(t, err)
	assert.Equal(t, "d_pipik", cfg.Model)
	assert.Equal(t, "/models", cfg.BaseDir)
}
