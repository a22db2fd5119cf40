package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ali01/linkweave/internal/localvault"
)

func newWatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Watch the vault and keep the link graph up to date in the foreground",
		Long: `watch loads the configured vault, starts the debounced indexing worker, and
keeps it fed as the vault changes: a local backend is watched directly with
fsnotify, a git backend is re-pulled on its configured interval. Runs in the
foreground until interrupted.`,
		RunE: runWatch,
	}
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	v, err := loadVault(cfg)
	if err != nil {
		return err
	}

	v.worker.ReindexAllBacklinks()
	go v.worker.Run()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var localWatcher *localvault.Watcher
	switch cfg.Vault.Backend {
	case "local":
		lw, err := localvault.New(v.path, v.store, v.worker)
		if err != nil {
			return fmt.Errorf("creating local vault watcher: %w", err)
		}
		if err := lw.Start(); err != nil {
			return fmt.Errorf("starting local vault watcher: %w", err)
		}
		localWatcher = lw
		fmt.Printf("Watching %s for changes. Press Ctrl+C to stop.\n", v.path)
	case "git":
		v.manager.SetUpdateCallback(func(changedFiles []string) {
			if err := v.store.LoadFromDisk(v.path); err != nil {
				log.Printf("Warning: reloading vault after pull failed: %v", err)
				return
			}
			v.store.SyncResolver(v.resolver)

			seen := make(map[string]struct{}, len(changedFiles))
			for _, f := range changedFiles {
				folderDocID := v.store.FolderDocIDForRelPath(f)
				if _, ok := seen[folderDocID]; ok {
					continue
				}
				seen[folderDocID] = struct{}{}
				v.worker.OnDocumentUpdate(folderDocID)
			}
		})
		v.manager.StartAutoSync(ctx)
		fmt.Printf("Syncing %s on its configured interval. Press Ctrl+C to stop.\n", v.path)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	fmt.Println("\nShutting down watcher...")
	v.worker.Stop()
	if localWatcher != nil {
		if err := localWatcher.Stop(); err != nil {
			log.Printf("Error stopping local vault watcher: %v", err)
		}
	}
	if v.manager != nil {
		v.manager.Stop()
	}

	return nil
}
