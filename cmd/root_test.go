// File: cmd/root_test.go
package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersion(t *testing.T) {
	t.Run("subcommand", func(t *testing.T) {
		out, err := executeCommand(t, "", "version")
		require.NoError(t, err)
		assert.Equal(t, "mediumctl version "+Version+"\n", out)
	})

	t.Run("flag", func(t *testing.T) {
		out, err := executeCommand(t, "", "--version")
		require.NoError(t, err)
		assert.Equal(t, "mediumctl version "+Version+"\n", out)
	})
}

func TestConfigReachesCommands(t *testing.T) {
	t.Run("headless flag", func(t *testing.T) {
		fake := newFakeClient()
		fake.posts["abc"] = "<p>x</p>"
		seen := useFakeClient(t, fake)

		_, err := executeCommand(t, "", "--headless", "read", "abc")
		require.NoError(t, err)
		require.Len(t, *seen, 1)
		assert.True(t, (*seen)[0].Browser().Headless)
	})

	t.Run("config file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "custom.yaml")
		require.NoError(t, os.WriteFile(path, []byte("browser:\n  max_tabs: 7\nplatform:\n  base_url: http://127.0.0.1:9999\n"), 0o600))

		fake := newFakeClient()
		fake.posts["abc"] = "<p>x</p>"
		seen := useFakeClient(t, fake)

		_, err := executeCommand(t, "", "--config", path, "read", "abc")
		require.NoError(t, err)
		require.Len(t, *seen, 1)
		assert.Equal(t, 7, (*seen)[0].Browser().MaxTabs)
		assert.Equal(t, "http://127.0.0.1:9999", (*seen)[0].Platform().BaseURL)
	})

	t.Run("environment", func(t *testing.T) {
		t.Setenv("MEDIUMCTL_POST_SAVE_SETTLE", "3s")

		fake := newFakeClient()
		fake.posts["abc"] = "<p>x</p>"
		seen := useFakeClient(t, fake)

		_, err := executeCommand(t, "", "read", "abc")
		require.NoError(t, err)
		require.Len(t, *seen, 1)
		assert.Equal(t, "3s", (*seen)[0].Post().SaveSettle.String())
	})

	t.Run("invalid config stops before the client opens", func(t *testing.T) {
		t.Setenv("MEDIUMCTL_BROWSER_MAX_TABS", "0")
		seen := useFakeClient(t, newFakeClient())

		_, err := executeCommand(t, "", "read", "abc")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to load or validate config")
		assert.Empty(t, *seen)
	})

	t.Run("missing config file", func(t *testing.T) {
		_, err := executeCommand(t, "", "--config", filepath.Join(t.TempDir(), "absent.yaml"), "version")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to initialize configuration")
	})
}
