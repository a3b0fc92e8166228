package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupUserConfig(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	configPath := filepath.Join(tmpDir, AppName, "config.yaml")

	t.Run("no config exists", func(t *testing.T) {
		backupPath, err := BackupUserConfig()
		require.NoError(t, err)
		assert.Empty(t, backupPath)
	})

	t.Run("backup existing config", func(t *testing.T) {
		// Given: a user config
		require.NoError(t, os.MkdirAll(filepath.Dir(configPath), 0o755))
		content := "mirror:\n  path: /srv/panamax\n"
		require.NoError(t, os.WriteFile(configPath, []byte(content), 0o644))

		// When: backing it up
		backupPath, err := BackupUserConfig()
		require.NoError(t, err)

		// Then: the backup holds the same content
		data, err := os.ReadFile(backupPath)
		require.NoError(t, err)
		assert.Equal(t, content, string(data))
		assert.Contains(t, filepath.Base(backupPath), "config.yaml"+BackupSuffix+".")
	})

	t.Run("keeps only the newest backups", func(t *testing.T) {
		for range MaxBackups + 2 {
			_, err := BackupUserConfig()
			require.NoError(t, err)
			time.Sleep(2 * time.Millisecond)
		}

		backups, err := ListUserConfigBackups()
		require.NoError(t, err)
		assert.Len(t, backups, MaxBackups)
		assert.Greater(t, backups[0], backups[len(backups)-1], "newest first")
	})
}

func TestListUserConfigBackups_NoDirectory(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(t.TempDir(), "missing"))

	backups, err := ListUserConfigBackups()
	require.NoError(t, err)
	assert.Empty(t, backups)
}
