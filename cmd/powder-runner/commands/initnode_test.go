package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/powderci/powder-runner/cmd/powder-runner/handlers"
)

func TestInitNode(t *testing.T) {
	cmd := InitNode()

	require.NotNil(t, cmd)
	assert.Equal(t, "init-node", cmd.Use)
	assert.Equal(t, "SSH to a node and run its setup", cmd.Short)
}

func TestInitNode_IPFlag(t *testing.T) {
	cmd := InitNode()

	flag := cmd.Flags().Lookup("ip")
	require.NotNil(t, flag, "ip flag should exist")
	assert.Equal(t, "", flag.DefValue)
}

func TestInitNode_MissingIPIsUsageError(t *testing.T) {
	root := Root()
	root.SetArgs([]string{"init-node"})

	err := root.Execute()
	require.Error(t, err)
	assert.True(t, handlers.IsUsageError(err))
	assert.Equal(t, 3, ExitCode(err))
	assert.Contains(t, err.Error(), "--ip is required")
}
