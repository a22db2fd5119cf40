package localvault

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ali01/linkweave/internal/docresolver"
	"github.com/ali01/linkweave/internal/gitvault"
	"github.com/ali01/linkweave/internal/renamedetect"
	"github.com/ali01/linkweave/internal/shareddoc"
	"github.com/ali01/linkweave/internal/worker"
)

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
}

func TestWatcherReloadsOnFileChange(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Lens", "Notes.md"), "v1")

	store := gitvault.NewStore()
	require.NoError(t, store.LoadFromDisk(root))

	resolver := docresolver.New()
	store.SyncResolver(resolver)

	w := worker.New(store, resolver, renamedetect.New())
	go w.Run()
	defer w.Stop()

	lw, err := New(root, store, w)
	require.NoError(t, err)
	require.NoError(t, lw.Start())
	defer lw.Stop()

	writeFile(t, filepath.Join(root, "Lens", "Notes.md"), "v2 edited")

	require.Eventually(t, func() bool {
		var text string
		folderDocID := store.FolderDocIDForName("Lens")
		for _, docID := range store.ContentDocsIn(folderDocID) {
			doc, _, ok := store.Lookup(docID)
			if !ok {
				continue
			}
			doc.Read(func(txn shareddoc.ReadTxn) {
				if t, ok := txn.GetText("contents"); ok {
					text = t
				}
			})
		}
		return text == "v2 edited"
	}, 3*time.Second, 50*time.Millisecond)
}

func TestFolderNameForPathHandlesLooseAndNestedFiles(t *testing.T) {
	root := t.TempDir()
	lw := &Watcher{root: root}

	assert.Equal(t, filepath.Base(root), lw.folderNameFor(filepath.Join(root, "Welcome.md")))
	assert.Equal(t, "Lens", lw.folderNameFor(filepath.Join(root, "Lens", "Notes.md")))
	assert.Equal(t, "Lens", lw.folderNameFor(filepath.Join(root, "Lens", "Sub", "Deep.md")))
}
