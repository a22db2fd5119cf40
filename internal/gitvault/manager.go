// Package gitvault clones and syncs a Git-backed vault and loads its
// Markdown files into shared documents the link-graph subsystem operates
// on.
package gitvault

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"
)

// Manager handles Git repository operations for a cloned vault.
type Manager struct {
	config     Config
	repo       *git.Repository
	mu         sync.RWMutex
	syncMu     sync.Mutex
	lastSync   time.Time
	syncTicker *time.Ticker
	stopChan   chan struct{}

	onUpdate func(changedFiles []string)
}

// NewManager returns a Manager for the given configuration.
func NewManager(config Config) (*Manager, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Manager{config: config, stopChan: make(chan struct{})}, nil
}

// Initialize clones the repository if it is not already present locally,
// otherwise opens it and pulls the latest changes.
func (m *Manager) Initialize(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := os.Stat(m.config.LocalPath); err == nil {
		repo, err := git.PlainOpen(m.config.LocalPath)
		if err != nil {
			m.logger().Warn("failed to open existing repo, re-cloning", "error", err)
			os.RemoveAll(m.config.LocalPath)
		} else {
			m.repo = repo
			m.logger().Info("opened existing vault repository", "path", m.config.LocalPath)
			if err := m.pullInternal(ctx); err != nil {
				m.logger().Warn("failed to pull latest changes", "error", err)
			}
			return nil
		}
	}

	m.logger().Info("cloning vault repository", "url", m.config.RepoURL, "path", m.config.LocalPath)
	cloneOptions := &git.CloneOptions{
		URL:           m.config.RepoURL,
		Auth:          m.getAuth(),
		SingleBranch:  m.config.SingleBranch,
		ReferenceName: plumbing.NewBranchReferenceName(m.config.Branch),
	}
	if m.config.ShallowClone {
		cloneOptions.Depth = 1
	}

	repo, err := git.PlainCloneContext(ctx, m.config.LocalPath, false, cloneOptions)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCloneFailed, err)
	}

	m.repo = repo
	m.lastSync = time.Now()
	return nil
}

// Pull fetches and merges the latest changes, invoking the update
// callback (if set) with the list of changed file paths.
func (m *Manager) Pull(ctx context.Context) error {
	if !m.syncMu.TryLock() {
		return ErrSyncInProgress
	}
	defer m.syncMu.Unlock()

	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pullInternal(ctx)
}

func (m *Manager) pullInternal(ctx context.Context) error {
	if m.repo == nil {
		return ErrRepoNotFound
	}

	worktree, err := m.repo.Worktree()
	if err != nil {
		return err
	}

	oldFiles := m.getFileList()

	err = worktree.PullContext(ctx, &git.PullOptions{
		RemoteName:    "origin",
		Auth:          m.getAuth(),
		Force:         true,
		SingleBranch:  m.config.SingleBranch,
		ReferenceName: plumbing.NewBranchReferenceName(m.config.Branch),
	})
	if err != nil && err != git.NoErrAlreadyUpToDate {
		return fmt.Errorf("%w: %v", ErrPullFailed, err)
	}

	m.lastSync = time.Now()

	newFiles := m.getFileList()
	changedFiles := m.findChangedFiles(oldFiles, newFiles)
	if len(changedFiles) > 0 && m.onUpdate != nil {
		m.logger().Info("detected changed files", "count", len(changedFiles))
		go m.onUpdate(changedFiles)
	}

	return nil
}

// StartAutoSync begins periodic synchronization; a no-op if AutoSync is
// disabled.
func (m *Manager) StartAutoSync(ctx context.Context) {
	if !m.config.AutoSync {
		return
	}

	m.syncTicker = time.NewTicker(m.config.SyncInterval)
	go func() {
		m.logger().Info("starting auto-sync", "interval", m.config.SyncInterval)
		for {
			select {
			case <-m.syncTicker.C:
				if err := m.Pull(ctx); err != nil {
					m.logger().Warn("auto-sync failed", "error", err)
				}
			case <-m.stopChan:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop terminates auto-sync.
func (m *Manager) Stop() {
	if m.syncTicker != nil {
		m.syncTicker.Stop()
	}
	close(m.stopChan)
}

// SetUpdateCallback sets the function invoked with the list of changed
// file paths after every successful pull that changed something.
func (m *Manager) SetUpdateCallback(callback func(changedFiles []string)) {
	m.onUpdate = callback
}

// GetLastSync returns the time of the last successful sync.
func (m *Manager) GetLastSync() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastSync
}

// GetLocalPath returns the local repository path.
func (m *Manager) GetLocalPath() string {
	return m.config.LocalPath
}

func (m *Manager) getAuth() transport.AuthMethod {
	if m.config.SSHKeyPath != "" {
		auth, err := ssh.NewPublicKeysFromFile("git", m.config.SSHKeyPath, "")
		if err == nil {
			return auth
		}
		m.logger().Warn("failed to load SSH key", "error", err)
	}
	return nil
}

func (m *Manager) getFileList() map[string]time.Time {
	files := make(map[string]time.Time)
	repoPath := m.config.LocalPath

	err := filepath.Walk(repoPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() && info.Name() == ".git" {
			return filepath.SkipDir
		}
		if !info.IsDir() {
			relPath, _ := filepath.Rel(m.config.LocalPath, path)
			files[relPath] = info.ModTime()
		}
		return nil
	})
	if err != nil {
		m.logger().Warn("error walking vault repository", "error", err)
	}
	return files
}

func (m *Manager) findChangedFiles(oldFiles, newFiles map[string]time.Time) []string {
	var changed []string
	for path, newTime := range newFiles {
		oldTime, exists := oldFiles[path]
		if !exists || !oldTime.Equal(newTime) {
			changed = append(changed, path)
		}
	}
	for path := range oldFiles {
		if _, exists := newFiles[path]; !exists {
			changed = append(changed, path)
		}
	}
	return changed
}

func (m *Manager) logger() *slog.Logger {
	return slog.Default().With("component", "gitvault")
}
