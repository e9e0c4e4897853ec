// cmd/tools/decision-batch/main_test.go
package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlagOverridesConfiguredInput(t *testing.T) {
	path, err := resolveInput("./override.json")
	require.NoError(t, err)
	assert.Equal(t, "./override.json", path)
}

func TestConfiguredInputIsUsedWhenFlagAbsent(t *testing.T) {
	path, err := resolveConfiguredInput("./data/validation_results.json")
	require.NoError(t, err)
	assert.Equal(t, "./data/validation_results.json", path)
}

func TestMissingInputEverywhereIsAnError(t *testing.T) {
	_, err := resolveConfiguredInput("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pipeline.validation_file")
}
