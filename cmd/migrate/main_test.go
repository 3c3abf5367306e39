package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	cmd, err := parseCommand(nil)
	require.NoError(t, err)
	assert.Equal(t, "up", cmd.name)

	cmd, err = parseCommand([]string{"DOWN"})
	require.NoError(t, err)
	assert.Equal(t, "down", cmd.name)

	cmd, err = parseCommand([]string{"force", "3"})
	require.NoError(t, err)
	assert.Equal(t, command{name: "force", version: 3}, cmd)

	_, err = parseCommand([]string{"force"})
	assert.Error(t, err)
	_, err = parseCommand([]string{"force", "three"})
	assert.Error(t, err)
	_, err = parseCommand([]string{"drop"})
	assert.ErrorContains(t, err, "unknown command")
}
