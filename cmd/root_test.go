package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasServe(t *testing.T) {
	found := false
	for _, c := range rootCmd.Commands() {
		if c.Name() == "serve" {
			found = true
		}
	}
	assert.True(t, found, "serve subcommand registered")
}

func TestRootCommand_Version(t *testing.T) {
	assert.NotEmpty(t, rootCmd.Version)
}

func TestServeFlags_BoundToConfigKeys(t *testing.T) {
	for flag, key := range serveFlags {
		require.NotNil(t, serveCmd.Flags().Lookup(flag), flag)
		assert.NotEmpty(t, key)
	}
	require.NoError(t, serveCmd.Flags().Set("port", "9100"))
	t.Cleanup(func() { _ = serveCmd.Flags().Set("port", "8931") })
	assert.Equal(t, 9100, v.GetInt("server.port"))
}
