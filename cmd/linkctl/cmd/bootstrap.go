package cmd

import (
	"context"
	"fmt"

	"github.com/ali01/linkweave/internal/config"
	"github.com/ali01/linkweave/internal/docresolver"
	"github.com/ali01/linkweave/internal/gitvault"
	"github.com/ali01/linkweave/internal/renamedetect"
	"github.com/ali01/linkweave/internal/worker"
)

// vault bundles the pieces every subcommand needs to operate on a loaded
// vault: the document store, the path resolver kept in sync with it, and
// a worker ready to reindex or to run in the background for watch.
type vault struct {
	store    *gitvault.Store
	resolver *docresolver.Resolver
	worker   *worker.Worker
	manager  *gitvault.Manager // non-nil only for the git backend
	path     string            // local filesystem path the store was loaded from
}

// loadVault loads cfg's configured vault backend once (cloning it first if
// it is git-backed) and wires a resolver and worker over it.
func loadVault(cfg *config.Config) (*vault, error) {
	store := gitvault.NewStore()

	var manager *gitvault.Manager
	var localPath string

	switch cfg.Vault.Backend {
	case "git":
		m, err := gitvault.NewManager(cfg.Vault.Git)
		if err != nil {
			return nil, fmt.Errorf("creating git vault manager: %w", err)
		}
		if err := m.Initialize(context.Background()); err != nil {
			return nil, fmt.Errorf("initializing git vault: %w", err)
		}
		manager = m
		localPath = m.GetLocalPath()
	case "local":
		localPath = cfg.Vault.Local.Path
	default:
		return nil, fmt.Errorf("unknown vault backend: %s", cfg.Vault.Backend)
	}

	if err := store.LoadFromDisk(localPath); err != nil {
		return nil, fmt.Errorf("loading vault from %s: %w", localPath, err)
	}

	resolver := docresolver.New()
	store.SyncResolver(resolver)

	w := worker.New(store, resolver, renamedetect.New())

	return &vault{store: store, resolver: resolver, worker: w, manager: manager, path: localPath}, nil
}
