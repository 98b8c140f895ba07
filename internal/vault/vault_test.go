package vault

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/djherbis/times"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestVault(t *testing.T) *Vault {
	t.Helper()
	v, err := New(t.TempDir())
	require.NoError(t, err)
	return v
}

func writeFile(t *testing.T, v *Vault, rel, content string) {
	t.Helper()
	full := filepath.Join(v.Root(), filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func readFile(t *testing.T, v *Vault, rel string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(v.Root(), filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(b)
}

func TestSplitFrontMatter(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		wantFront string
		wantBody  string
	}{
		{"no front matter", "hello\n", "", "hello\n"},
		{"simple", "---\na: 1\n---\nbody\n", "a: 1\n", "body\n"},
		{"empty block", "---\n---\nbody", "", "body"},
		{"closing at eof", "---\na: 1\n---", "a: 1\n", ""},
		{"crlf", "---\r\na: 1\r\n---\r\nbody", "a: 1\r\n", "body"},
		{"unterminated", "---\na: 1\n", "", "---\na: 1\n"},
		{"lone delimiter", "---", "", "---"},
		{"delimiter not first", "x\n---\na: 1\n---\n", "", "x\n---\na: 1\n---\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			front, body := splitFrontMatter([]byte(tt.content))
			assert.Equal(t, tt.wantFront, string(front))
			assert.Equal(t, tt.wantBody, string(body))
		})
	}
}

func TestJoinFrontMatter(t *testing.T) {
	out, err := joinFrontMatter(Metadata{"Status": "Done"}, []byte("body\n"))
	require.NoError(t, err)
	assert.Equal(t, "---\nStatus: Done\n---\nbody\n", string(out))

	out, err = joinFrontMatter(Metadata{}, []byte("body\n"))
	require.NoError(t, err)
	assert.Equal(t, "body\n", string(out))
}

func TestParseFrontMatterInvalid(t *testing.T) {
	_, err := parseFrontMatter([]byte("a: [unclosed\n"))
	assert.Error(t, err)
}

func TestAvailable(t *testing.T) {
	v := newTestVault(t)
	assert.NoError(t, v.Available())

	missing, err := New(filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, err)
	assert.ErrorIs(t, missing.Available(), ErrIndexUnavailable)

	_, err = missing.List("Tasks")
	assert.ErrorIs(t, err, ErrIndexUnavailable)
}

func TestCreateOrGet(t *testing.T) {
	v := newTestVault(t)

	doc, err := v.CreateOrGet("Tasks/Nested/Write docs.md")
	require.NoError(t, err)
	assert.Equal(t, "Tasks/Nested/Write docs.md", doc.Path)
	assert.Equal(t, "Write docs", doc.Name())
	assert.Equal(t, "Tasks/Nested", doc.Dir())
	assert.Empty(t, doc.Metadata)
	assert.False(t, doc.ModTime.IsZero())

	// existing content is preserved
	writeFile(t, v, "Tasks/Existing.md", "---\nStatus: Open\n---\nkeep me\n")
	doc, err = v.CreateOrGet("Tasks/Existing.md")
	require.NoError(t, err)
	assert.Equal(t, "Open", doc.Metadata["Status"])
	assert.Equal(t, "---\nStatus: Open\n---\nkeep me\n", readFile(t, v, "Tasks/Existing.md"))

	_, err = v.CreateOrGet("Tasks/notes.txt")
	assert.ErrorIs(t, err, ErrNotDocument)
}

func TestPathEscapesRoot(t *testing.T) {
	v := newTestVault(t)

	// leading dot-dots are clamped to the root
	doc, err := v.CreateOrGet("../../outside.md")
	require.NoError(t, err)
	assert.Equal(t, "outside.md", doc.Path)
	assert.FileExists(t, filepath.Join(v.Root(), "outside.md"))
}

func TestWriteMetadata(t *testing.T) {
	v := newTestVault(t)
	writeFile(t, v, "Task.md", "---\nStatus: Open\nTags:\n  - a\n---\n# Body\n\ntext\n")

	err := v.WriteMetadata("Task.md", func(m Metadata) error {
		m["Status"] = "Done"
		m["Notion ID"] = "page-1"
		return nil
	})
	require.NoError(t, err)

	meta, err := v.ReadMetadata("Task.md")
	require.NoError(t, err)
	assert.Equal(t, "Done", meta["Status"])
	assert.Equal(t, "page-1", meta["Notion ID"])
	assert.Equal(t, []any{"a"}, meta["Tags"])

	doc, err := v.Stat("Task.md")
	require.NoError(t, err)
	assert.Equal(t, meta, doc.Metadata)

	content := readFile(t, v, "Task.md")
	assert.Contains(t, content, "# Body\n\ntext\n")

	entries, err := os.ReadDir(v.Root())
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriteMetadataError(t *testing.T) {
	v := newTestVault(t)
	original := "---\nStatus: Open\n---\nbody\n"
	writeFile(t, v, "Task.md", original)

	boom := errors.New("boom")
	err := v.WriteMetadata("Task.md", func(m Metadata) error {
		m["Status"] = "Changed"
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, original, readFile(t, v, "Task.md"))

	err = v.WriteMetadata("Missing.md", func(Metadata) error { return nil })
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWriteMetadataAddsBlock(t *testing.T) {
	v := newTestVault(t)
	writeFile(t, v, "Plain.md", "just text\n")

	require.NoError(t, v.WriteMetadata("Plain.md", func(m Metadata) error {
		m["Notion ID"] = "abc"
		return nil
	}))
	assert.Equal(t, "---\nNotion ID: abc\n---\njust text\n", readFile(t, v, "Plain.md"))
}

func TestSetBody(t *testing.T) {
	v := newTestVault(t)
	writeFile(t, v, "Task.md", "---\nStatus: Open\n---\nold\n")

	require.NoError(t, v.SetBody("Task.md", []byte("new\n")))
	assert.Equal(t, "---\nStatus: Open\n---\nnew\n", readFile(t, v, "Task.md"))
}

func TestRename(t *testing.T) {
	v := newTestVault(t)
	writeFile(t, v, "Tasks/Old.md", "---\nNotion ID: p1\n---\n")
	writeFile(t, v, "Tasks/Taken.md", "taken\n")

	require.NoError(t, v.Rename("Tasks/Old.md", "Archive/New.md"))
	assert.False(t, v.Exists("Tasks/Old.md"))
	assert.True(t, v.Exists("Archive/New.md"))

	err := v.Rename("Archive/New.md", "Tasks/Taken.md")
	assert.ErrorIs(t, err, ErrExists)
	assert.Equal(t, "taken\n", readFile(t, v, "Tasks/Taken.md"))
	assert.True(t, v.Exists("Archive/New.md"))

	err = v.Rename("Nope.md", "Other.md")
	assert.ErrorIs(t, err, ErrNotFound)

	// same path is a no-op
	assert.NoError(t, v.Rename("Archive/New.md", "Archive/New.md"))
}

func TestRenameMovesChangeTime(t *testing.T) {
	v := newTestVault(t)
	writeFile(t, v, "Tasks/Old.md", "---\nNotion ID: p1\n---\n")
	old := time.Now().Add(-time.Hour)
	full := filepath.Join(v.Root(), "Tasks", "Old.md")
	require.NoError(t, os.Chtimes(full, old, old))
	info, err := os.Stat(full)
	require.NoError(t, err)
	if !times.Get(info).HasChangeTime() {
		t.Skip("no change time on this platform")
	}

	require.NoError(t, v.Rename("Tasks/Old.md", "Tasks/New.md"))

	doc, err := v.Stat("Tasks/New.md")
	require.NoError(t, err)
	assert.WithinDuration(t, old, doc.ModTime, time.Second)
	assert.True(t, doc.CTime.After(old.Add(time.Minute)))
}

func TestRenameDirectory(t *testing.T) {
	v := newTestVault(t)
	writeFile(t, v, "Tasks/Tasks.md", "folder note\n")
	writeFile(t, v, "Tasks/One.md", "one\n")

	require.NoError(t, v.Rename("Tasks", "Work"))
	assert.True(t, v.Exists("Work/One.md"))
	assert.True(t, v.Exists("Work/Tasks.md"))
	assert.False(t, v.Exists("Tasks"))
}

func TestDelete(t *testing.T) {
	v := newTestVault(t)
	writeFile(t, v, "Gone.md", "x\n")

	require.NoError(t, v.Delete("Gone.md"))
	assert.False(t, v.Exists("Gone.md"))
	assert.ErrorIs(t, v.Delete("Gone.md"), ErrNotFound)
	assert.ErrorIs(t, v.Delete(""), ErrOutsideRoot)
}

func TestList(t *testing.T) {
	v := newTestVault(t)
	writeFile(t, v, "Tasks/A.md", "---\nNotion ID: a\n---\n")
	writeFile(t, v, "Tasks/sub/B.md", "---\nNotion ID: b\n---\n")
	writeFile(t, v, "Tasks/notes.txt", "ignored\n")
	writeFile(t, v, "Tasks/.obsidian/C.md", "hidden\n")
	writeFile(t, v, "Tasks/Broken.md", "---\na: [unclosed\n---\n")
	writeFile(t, v, "Other/D.md", "elsewhere\n")

	docs, err := v.List("Tasks")
	require.NoError(t, err)

	var paths []string
	byPath := map[string]*Document{}
	for _, d := range docs {
		paths = append(paths, d.Path)
		byPath[d.Path] = d
	}
	sort.Strings(paths)
	assert.Equal(t, []string{"Tasks/A.md", "Tasks/Broken.md", "Tasks/sub/B.md"}, paths)
	assert.Equal(t, "b", byPath["Tasks/sub/B.md"].Metadata["Notion ID"])
	assert.Empty(t, byPath["Tasks/Broken.md"].Metadata)

	docs, err = v.List("Missing")
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestNotePath(t *testing.T) {
	assert.Equal(t, "Tasks/Write docs.md", NotePath("Tasks", "Write docs"))
	assert.Equal(t, "Top.md", NotePath("", "Top"))
}

func TestList_IgnoreFile(t *testing.T) {
	v := newTestVault(t)
	writeFile(t, v, "Tasks/A.md", "a\n")
	writeFile(t, v, "Tasks/Drawing.excalidraw.md", "drawing\n")
	writeFile(t, v, "Tasks/templates/T.md", "template\n")
	writeFile(t, v, "Tasks/Draft.md", "draft\n")
	writeFile(t, v, IgnoreFile, "# local only\ntemplates/\nDraft.md\n")

	docs, err := v.List("Tasks")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Tasks/A.md", docs[0].Path)
}

func TestIgnored(t *testing.T) {
	v := newTestVault(t)
	writeFile(t, v, IgnoreFile, "Archive/\r\n")

	tests := []struct {
		path string
		want bool
	}{
		{"Tasks/A.md", false},
		{"Tasks/.obsidian/A.md", true},
		{".trash/A.md", true},
		{"Archive/Old.md", true},
		{"Tasks/A.sync-conflict-20240101.md", true},
		{"Tasks/A conflicted copy.md", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, v.Ignored(tt.path), tt.path)
	}
}

func TestWatcher_Relevant(t *testing.T) {
	v := newTestVault(t)
	w := NewWatcher(v)

	rel, ok := w.relevant(filepath.Join(v.Root(), "Tasks", "A.md"))
	assert.True(t, ok)
	assert.Equal(t, "Tasks/A.md", rel)

	for _, p := range []string{
		filepath.Join(v.Root(), "Tasks", "notes.txt"),
		filepath.Join(v.Root(), ".obsidian", "workspace.md"),
		filepath.Join(filepath.Dir(v.Root()), "elsewhere.md"),
	} {
		_, ok := w.relevant(p)
		assert.False(t, ok, p)
	}
}

func TestWatcher_Events(t *testing.T) {
	v := newTestVault(t)
	w := NewWatcher(v)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	writeFile(t, v, "skip.txt", "x\n")
	writeFile(t, v, "Note.md", "hello\n")

	deadline := time.After(5 * time.Second)
	for {
		select {
		case rel := <-w.Events():
			if rel == "Note.md" {
				return
			}
		case <-deadline:
			t.Fatal("no event for Note.md")
		}
	}
}
