package gitvault

import "time"

// Config holds Git repository configuration for a vault whose top-level
// directories are mounted as folders.
type Config struct {
	RepoURL   string `yaml:"url"`
	Branch    string `yaml:"branch"`
	LocalPath string `yaml:"local_path"`

	SSHKeyPath string `yaml:"ssh_key_path"`

	AutoSync     bool          `yaml:"auto_sync"`
	SyncInterval time.Duration `yaml:"sync_interval"`

	ShallowClone bool `yaml:"shallow_clone"`
	SingleBranch bool `yaml:"single_branch"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Branch:       "main",
		LocalPath:    "./vault_clone",
		SyncInterval: 5 * time.Minute,
		AutoSync:     true,
		ShallowClone: true,
		SingleBranch: true,
	}
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if c.RepoURL == "" {
		return ErrNoRepoURL
	}
	if c.LocalPath == "" {
		return ErrNoLocalPath
	}
	if c.Branch == "" {
		return ErrNoBranch
	}
	return nil
}
