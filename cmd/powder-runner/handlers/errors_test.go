package handlers

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsage(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, Usage(nil))
	})

	t.Run("wraps error", func(t *testing.T) {
		err := Usage(errors.New("unknown flag: --nodes"))
		require.Error(t, err)
		assert.Equal(t, "unknown flag: --nodes", err.Error())
		assert.True(t, IsUsageError(err))
	})

	t.Run("unwraps to cause", func(t *testing.T) {
		cause := errors.New("bad value")
		assert.ErrorIs(t, Usage(cause), cause)
	})
}

func TestUsagef(t *testing.T) {
	err := Usagef("invalid node address %q", "not-an-ip")
	require.Error(t, err)
	assert.Equal(t, `invalid node address "not-an-ip"`, err.Error())
	assert.True(t, IsUsageError(err))
}

func TestIsUsageError(t *testing.T) {
	t.Run("wrapped deeper", func(t *testing.T) {
		err := fmt.Errorf("init-node: %w", Usagef("--ip is required"))
		assert.True(t, IsUsageError(err))
	})

	t.Run("plain error", func(t *testing.T) {
		assert.False(t, IsUsageError(errors.New("disk full")))
	})

	t.Run("nil", func(t *testing.T) {
		assert.False(t, IsUsageError(nil))
	})
}

func TestUnreachable(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, Unreachable(nil))
	})

	t.Run("wraps error", func(t *testing.T) {
		cause := errors.New("failed to connect to 155.98.36.11:22 after 4 attempts")
		err := Unreachable(cause)
		require.Error(t, err)
		assert.True(t, IsUnreachableError(err))
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, cause.Error(), err.Error())
	})

	t.Run("wrapped deeper", func(t *testing.T) {
		err := fmt.Errorf("verify: %w", Unreachable(errors.New("timeout")))
		assert.True(t, IsUnreachableError(err))
	})

	t.Run("usage and unreachable stay distinct", func(t *testing.T) {
		usage := Usagef("--ip is required")
		assert.False(t, IsUnreachableError(usage))

		unreachable := Unreachable(errors.New("no route to host"))
		assert.False(t, IsUsageError(unreachable))
	})
}
