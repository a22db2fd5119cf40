// Package main is the entry point for the link-graph indexing server.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ali01/linkweave/internal/config"
	"github.com/ali01/linkweave/internal/docresolver"
	"github.com/ali01/linkweave/internal/gitvault"
	"github.com/ali01/linkweave/internal/linkservice"
	"github.com/ali01/linkweave/internal/localvault"
	"github.com/ali01/linkweave/internal/renamedetect"
	"github.com/ali01/linkweave/internal/toolapi"
	"github.com/ali01/linkweave/internal/worker"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Server panic recovered: %v", r)
			log.Printf("Stack trace:\n%s", debug.Stack())
			os.Exit(1)
		}
	}()

	configPath := "config.yaml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	cfg, err := config.LoadFromYAML(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	store := gitvault.NewStore()
	var gitManager *gitvault.Manager
	var localWatcher *localvault.Watcher

	resolver := docresolver.New()
	renames := renamedetect.New()
	w := worker.New(store, resolver, renames)

	switch cfg.Vault.Backend {
	case "git":
		gitManager, err = gitvault.NewManager(cfg.Vault.Git)
		if err != nil {
			log.Fatalf("Failed to create git vault manager: %v", err)
		}
		if err := gitManager.Initialize(ctx); err != nil {
			log.Fatalf("Failed to initialize git vault: %v", err)
		}
		if err := store.LoadFromDisk(gitManager.GetLocalPath()); err != nil {
			log.Fatalf("Failed to load vault from disk: %v", err)
		}
		gitManager.SetUpdateCallback(func(changedFiles []string) {
			if err := store.LoadFromDisk(gitManager.GetLocalPath()); err != nil {
				log.Printf("Warning: reloading vault after pull failed: %v", err)
				return
			}
			store.SyncResolver(resolver)
			for _, folderDocID := range changedFolderDocIDs(store, changedFiles) {
				w.OnDocumentUpdate(folderDocID)
			}
		})
		gitManager.StartAutoSync(ctx)
	case "local":
		if err := store.LoadFromDisk(cfg.Vault.Local.Path); err != nil {
			log.Fatalf("Failed to load vault from disk: %v", err)
		}
	default:
		log.Fatalf("Unknown vault backend: %s", cfg.Vault.Backend)
	}

	store.SyncResolver(resolver)

	if cfg.Worker.ReindexOnStartup {
		w.ReindexAllBacklinks()
	}
	go w.Run()

	if cfg.Vault.Backend == "local" {
		localWatcher, err = localvault.New(cfg.Vault.Local.Path, store, w)
		if err != nil {
			log.Fatalf("Failed to create local vault watcher: %v", err)
		}
		if err := localWatcher.Start(); err != nil {
			log.Fatalf("Failed to start local vault watcher: %v", err)
		}
	}

	svc := linkservice.New(store, resolver)

	router := gin.Default()
	toolapi.NewHandler(svc).Register(router)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 30 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("HTTP server panic recovered: %v", r)
				log.Printf("Stack trace:\n%s", debug.Stack())
				quit <- syscall.SIGTERM
			}
		}()

		log.Printf("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
		os.Exit(1)
	}

	log.Println("Stopping services...")
	w.Stop()

	if localWatcher != nil {
		if err := localWatcher.Stop(); err != nil {
			log.Printf("Warning: error stopping local vault watcher: %v", err)
		}
	}

	if gitManager != nil {
		log.Println("Stopping git vault manager...")
		gitManager.Stop()
	}

	log.Println("Server exiting")
}

// changedFolderDocIDs maps a git pull's changed-file list to the distinct
// set of folder document ids the worker needs to re-queue, mirroring
// internal/localvault.Watcher.reload's path-to-folder mapping for the
// fsnotify-driven backend.
func changedFolderDocIDs(store *gitvault.Store, changedFiles []string) []string {
	seen := make(map[string]struct{}, len(changedFiles))
	var ids []string
	for _, f := range changedFiles {
		id := store.FolderDocIDForRelPath(f)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}
