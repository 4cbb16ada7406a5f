package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	cmd := Run()

	require.NotNil(t, cmd)
	assert.Equal(t, "run", cmd.Use)
	assert.Equal(t, "Run the full experiment workflow", cmd.Short)
}

func TestRun_ConfigFlag(t *testing.T) {
	cmd := Run()

	flag := cmd.Flags().Lookup("config")
	require.NotNil(t, flag, "config flag should exist")
	assert.Equal(t, "c", flag.Shorthand)
	assert.Equal(t, "", flag.DefValue)
}

func TestRun_MetricsFileFlag(t *testing.T) {
	cmd := Run()

	flag := cmd.Flags().Lookup("metrics-file")
	require.NotNil(t, flag, "metrics-file flag should exist")
	assert.Equal(t, "", flag.DefValue)
}

func TestRun_RunE(t *testing.T) {
	cmd := Run()
	assert.NotNil(t, cmd.RunE, "Run command should have RunE function")
}
