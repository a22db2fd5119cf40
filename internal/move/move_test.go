package move

import (
	"testing"

	"github.com/ali01/linkweave/internal/backlink"
	"github.com/ali01/linkweave/internal/docresolver"
	"github.com/ali01/linkweave/internal/folder"
	"github.com/ali01/linkweave/internal/shareddoc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func markdownEntry(id string) shareddoc.Value {
	return shareddoc.MapValue(map[string]shareddoc.Value{
		"id":   shareddoc.StringValue(id),
		"type": shareddoc.StringValue("markdown"),
	})
}

func contentDoc(text string) *shareddoc.Doc {
	d := shareddoc.NewDoc()
	d.Write(shareddoc.OriginLinkIndexer, func(txn shareddoc.WriteTxn) {
		txn.SetText("contents", text)
	})
	return d
}

func textOf(d *shareddoc.Doc) string {
	var s string
	d.Read(func(txn shareddoc.ReadTxn) { s, _ = txn.GetText("contents") })
	return s
}

// TestScenario6DirectoryMoveRewritesBacklinkersAndOutgoingLinks mirrors
// spec.md §8 scenario 6: moving Welcome.md into Archive/ within the same
// folder must rewrite both the backlinker pointing at it and its own
// outgoing link, whose relative path changes along with its own location.
func TestScenario6DirectoryMoveRewritesBacklinkersAndOutgoingLinks(t *testing.T) {
	folder0 := shareddoc.NewDoc()
	folder0.Write(shareddoc.OriginLinkIndexer, func(txn shareddoc.WriteTxn) {
		txn.MapInsert("folder_config", "name", shareddoc.StringValue("Lens"))
		txn.MapInsert("filemeta_v0", "/Welcome.md", markdownEntry("W"))
		txn.MapInsert("filemeta_v0", "/Notes/Ideas.md", markdownEntry("I"))
		txn.MapInsert("filemeta_v0", "/Getting Started.md", markdownEntry("G"))
	})

	welcomeDoc := contentDoc("Check [[Notes/Ideas]]")
	gettingStartedDoc := contentDoc("See [[Welcome]]")

	sources := []backlink.FolderSource{{Doc: folder0, Name: "Lens"}}
	backlink.Index("W", welcomeDoc, sources)
	backlink.Index("G", gettingStartedDoc, sources)

	resolver := docresolver.New()
	resolver.RebuildFromFolder("folder-0-id", "relay-1", folder0)

	folderArg := Folder{Doc: folder0, DocID: "folder-0-id", Name: "Lens"}
	contentDocs := map[string]*shareddoc.Doc{
		"W": welcomeDoc,
		"G": gettingStartedDoc,
	}

	result, err := Document("W", "/Archive/Welcome.md", folderArg, folderArg, []Folder{folderArg}, resolver, "relay-1", contentDocs)
	require.NoError(t, err)

	assert.Equal(t, "See [[Archive/Welcome]]", textOf(gettingStartedDoc))
	assert.Equal(t, "Check [[../Notes/Ideas]]", textOf(welcomeDoc))
	assert.Equal(t, 2, result.LinksRewritten)
	assert.Equal(t, "/Welcome.md", result.OldPath)
	assert.Equal(t, "/Archive/Welcome.md", result.NewPath)
}

// TestP7ResolverReflectsMoveAndBacklinkersStillResolve exercises property
// P7: after a move, the resolver's forward lookup lands on the new path,
// the old path is gone, and every backlinker's rewritten text still
// resolves to the moved document.
func TestP7ResolverReflectsMoveAndBacklinkersStillResolve(t *testing.T) {
	folder0 := shareddoc.NewDoc()
	folder0.Write(shareddoc.OriginLinkIndexer, func(txn shareddoc.WriteTxn) {
		txn.MapInsert("folder_config", "name", shareddoc.StringValue("Lens"))
		txn.MapInsert("filemeta_v0", "/Welcome.md", markdownEntry("W"))
		txn.MapInsert("filemeta_v0", "/Getting Started.md", markdownEntry("G"))
	})

	welcomeDoc := contentDoc("no outgoing links")
	gettingStartedDoc := contentDoc("See [[Welcome]]")

	sources := []backlink.FolderSource{{Doc: folder0, Name: "Lens"}}
	backlink.Index("W", welcomeDoc, sources)
	backlink.Index("G", gettingStartedDoc, sources)

	resolver := docresolver.New()
	resolver.RebuildFromFolder("folder-0-id", "relay-1", folder0)

	oldFullPath := "Lens/Welcome.md"
	beforeInfo, ok := resolver.ResolvePath(oldFullPath)
	require.True(t, ok)
	require.Equal(t, "W", beforeInfo.UUID)

	folderArg := Folder{Doc: folder0, DocID: "folder-0-id", Name: "Lens"}
	contentDocs := map[string]*shareddoc.Doc{
		"W": welcomeDoc,
		"G": gettingStartedDoc,
	}

	_, err := Document("W", "/Archive/Welcome.md", folderArg, folderArg, []Folder{folderArg}, resolver, "relay-1", contentDocs)
	require.NoError(t, err)

	newFullPath := "Lens/Archive/Welcome.md"
	afterInfo, ok := resolver.ResolvePath(newFullPath)
	require.True(t, ok, "P7a: resolve_path(new_full_path).uuid == uuid")
	assert.Equal(t, "W", afterInfo.UUID)

	_, stillThere := resolver.ResolvePath(oldFullPath)
	assert.False(t, stillThere, "P7b: resolve_path(old_full_path) is None")

	assert.Equal(t, "See [[Archive/Welcome]]", textOf(gettingStartedDoc), "P7c: backlinker text resolves to uuid at its new virtual path")
}

func TestDocumentReturnsNotFoundForUnknownUUID(t *testing.T) {
	folder0 := shareddoc.NewDoc()
	folder0.Write(shareddoc.OriginLinkIndexer, func(txn shareddoc.WriteTxn) {
		txn.MapInsert("folder_config", "name", shareddoc.StringValue("Lens"))
	})
	folderArg := Folder{Doc: folder0, DocID: "folder-0-id", Name: "Lens"}
	resolver := docresolver.New()

	_, err := Document("missing", "/New.md", folderArg, folderArg, []Folder{folderArg}, resolver, "relay-1", nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCrossFolderMoveRelocatesFilemetaEntry(t *testing.T) {
	source := shareddoc.NewDoc()
	source.Write(shareddoc.OriginLinkIndexer, func(txn shareddoc.WriteTxn) {
		txn.MapInsert("folder_config", "name", shareddoc.StringValue("Lens"))
		txn.MapInsert("filemeta_v0", "/Welcome.md", markdownEntry("W"))
	})
	target := shareddoc.NewDoc()
	target.Write(shareddoc.OriginLinkIndexer, func(txn shareddoc.WriteTxn) {
		txn.MapInsert("folder_config", "name", shareddoc.StringValue("Lens Edu"))
	})

	resolver := docresolver.New()
	resolver.RebuildFromFolder("folder-0-id", "relay-1", source)
	resolver.RebuildFromFolder("folder-1-id", "relay-1", target)

	sourceArg := Folder{Doc: source, DocID: "folder-0-id", Name: "Lens"}
	targetArg := Folder{Doc: target, DocID: "folder-1-id", Name: "Lens Edu"}

	result, err := Document("W", "/Welcome.md", sourceArg, targetArg, []Folder{sourceArg, targetArg}, resolver, "relay-1", nil)
	require.NoError(t, err)
	assert.Equal(t, "Lens", result.OldFolderName)
	assert.Equal(t, "Lens Edu", result.NewFolderName)

	source.Read(func(txn shareddoc.ReadTxn) {
		_, stillThere := txn.GetMap("filemeta_v0")["/Welcome.md"]
		assert.False(t, stillThere)
	})
	target.Read(func(txn shareddoc.ReadTxn) {
		v, ok := txn.GetMap("filemeta_v0")["/Welcome.md"]
		require.True(t, ok)
		id, _ := folder.WrapEntry(v).ExtractID()
		assert.Equal(t, "W", id)
	})

	newPath, ok := resolver.PathForUUID("W")
	require.True(t, ok)
	assert.Equal(t, "Lens Edu/Welcome.md", newPath)
}
