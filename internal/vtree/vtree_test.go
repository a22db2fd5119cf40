package vtree

import (
	"testing"

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

func newFolderDoc(name string, entries map[string]shareddoc.Value) *shareddoc.Doc {
	d := shareddoc.NewDoc()
	d.Write(shareddoc.OriginLinkIndexer, func(txn shareddoc.WriteTxn) {
		txn.MapInsert("folder_config", "name", shareddoc.StringValue(name))
		for path, v := range entries {
			txn.MapInsert("filemeta_v0", path, v)
		}
	})
	return d
}

func TestBuildSkipsEntriesWithoutID(t *testing.T) {
	lens := newFolderDoc("Lens", map[string]shareddoc.Value{
		"/Notes.md": markdownEntry("N"),
		"/NoID.md":  shareddoc.MapValue(map[string]shareddoc.Value{"type": shareddoc.StringValue("markdown")}),
	})
	entries := Build([]FolderSource{{Doc: lens, Name: "Lens"}})
	require.Len(t, entries, 1)
	assert.Equal(t, "/Lens/Notes.md", entries[0].VirtualPath)
}

func TestResolveRelativeWinsOverAbsolute(t *testing.T) {
	// Scenario 3 from spec: relative-beats-absolute.
	entries := []Entry{
		{VirtualPath: "/Lens/Notes/Ideas.md", EntryType: "markdown", ID: "Sib", FolderIdx: 0},
		{VirtualPath: "/Lens/Ideas.md", EntryType: "markdown", ID: "Root", FolderIdx: 0},
	}
	source := "/Lens/Notes/Source.md"
	got := Resolve("Ideas", &source, entries)
	require.NotNil(t, got)
	assert.Equal(t, "Sib", got.ID)
}

func TestResolveAbsoluteFallback(t *testing.T) {
	entries := []Entry{
		{VirtualPath: "/Lens/Ideas.md", EntryType: "markdown", ID: "Root", FolderIdx: 0},
	}
	source := "/Lens/Notes/Source.md"
	got := Resolve("Ideas", &source, entries)
	require.NotNil(t, got)
	assert.Equal(t, "Root", got.ID)
}

func TestResolveNoBasenameFallback(t *testing.T) {
	entries := []Entry{
		{VirtualPath: "/Lens/Deep/Nested/Ideas.md", EntryType: "markdown", ID: "X", FolderIdx: 0},
	}
	source := "/Lens/Notes/Source.md"
	got := Resolve("Ideas", &source, entries)
	assert.Nil(t, got, "must not fall back to basename-only matching")
}

func TestResolveIgnoresNonMarkdown(t *testing.T) {
	entries := []Entry{
		{VirtualPath: "/Lens/Ideas.md", EntryType: "folder", ID: "X", FolderIdx: 0},
	}
	source := "/Lens/Source.md"
	got := Resolve("Ideas", &source, entries)
	assert.Nil(t, got)
}

func TestResolveCaseInsensitive(t *testing.T) {
	entries := []Entry{
		{VirtualPath: "/Lens/IDEAS.md", EntryType: "markdown", ID: "X", FolderIdx: 0},
	}
	source := "/Lens/Source.md"
	got := Resolve("ideas", &source, entries)
	require.NotNil(t, got)
	assert.Equal(t, "X", got.ID)
}

func TestResolveExplicitCrossFolder(t *testing.T) {
	// Scenario 2: explicit cross-folder link.
	entries := []Entry{
		{VirtualPath: "/Lens/Welcome.md", EntryType: "markdown", ID: "W", FolderIdx: 0},
		{VirtualPath: "/Lens Edu/Syllabus.md", EntryType: "markdown", ID: "S", FolderIdx: 1},
	}
	source := "/Lens/Welcome.md"
	got := Resolve("Lens Edu/Syllabus", &source, entries)
	require.NotNil(t, got)
	assert.Equal(t, "S", got.ID)
}

func TestComputeRelativeWikilink(t *testing.T) {
	tests := []struct {
		name   string
		source string
		target string
		want   string
	}{
		{"same folder subdir", "/Lens/Getting Started.md", "/Lens/Archive/Welcome.md", "Archive/Welcome"},
		{"sibling subdir needs pop", "/Lens/Notes/Ideas.md", "/Lens/Archive/Welcome.md", "../Archive/Welcome"},
		{"cross folder", "/Lens/Getting Started.md", "/Lens Edu/Welcome.md", "../Lens Edu/Welcome"},
		{"same dir", "/Lens/Getting Started.md", "/Lens/Welcome.md", "Welcome"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeRelativeWikilink(tt.source, tt.target))
		})
	}
}

func TestP6SelfLinkIsBasename(t *testing.T) {
	// P6: compute_relative_wikilink(a, a) is the basename of a without ".md".
	a := "/Lens/Notes/Ideas.md"
	assert.Equal(t, "Ideas", ComputeRelativeWikilink(a, a))
}
