package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())
}

func TestValidateRejectsBadPort(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.Port = 0
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsUnknownVaultBackend(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Vault.Backend = "s3"
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsMissingLocalPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Vault.Backend = "local"
	cfg.Vault.Local.Path = ""
	assert.Error(t, cfg.Validate())
}

func TestValidateRequiresGitRepoURLForGitBackend(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Vault.Backend = "git"
	assert.Error(t, cfg.Validate())

	cfg.Vault.Git.RepoURL = "git@example.com:vault.git"
	cfg.Vault.Git.LocalPath = "/tmp/vault"
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromYAMLOverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
vault:
  backend: local
  local:
    path: /data/vault
`), 0o644))

	cfg, err := LoadFromYAML(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "/data/vault", cfg.Vault.Local.Path)
	assert.Equal(t, "localhost", cfg.Server.Host)
}

func TestLoadFromYAMLRejectsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: -1\n"), 0o644))

	_, err := LoadFromYAML(path)
	assert.Error(t, err)
}
