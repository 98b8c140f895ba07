package sync

import (
	"context"
	"testing"

	"github.com/openmined/notionsync/internal/notion"
	"github.com/openmined/notionsync/internal/vault"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateBinding_CreatesFolderNote(t *testing.T) {
	h := newHarness(t, nil)
	h.gw.addDatabase("db1", taskSchema)

	require.NoError(t, h.engine.UpdateBinding(context.Background(), "db1", "/Work/Tasks/"))

	assert.True(t, h.vault.Exists("Work/Tasks/Tasks.md"))
	assert.Equal(t, "Work/Tasks", h.settings.Get().Files["db1"].Path)
}

func TestUpdateBinding_MovesFolder(t *testing.T) {
	h := newHarness(t, map[string]string{"db1": "Tasks"})
	seedTasks(h)
	h.write("Tasks/Tasks.md", "")
	h.sync(DirectionNone)

	require.NoError(t, h.engine.UpdateBinding(context.Background(), "db1", "Archive"))

	assert.False(t, h.vault.Exists("Tasks"))
	assert.Equal(t, []string{"Archive/Archive.md", "Archive/Ship it.md", "Archive/Write docs.md"}, h.docs("Archive"))
	assert.Equal(t, "Archive", h.settings.Get().Files["db1"].Path)

	// the moved documents are still correlated
	run := h.sync(DirectionNone)
	assert.Empty(t, run.Downloaded())
	assert.Zero(t, h.gw.totalPushes())
	assert.Equal(t, "p1", h.meta("Archive/Write docs.md")[CorrelationKey])
}

func TestUpdateBinding_DestinationTaken(t *testing.T) {
	h := newHarness(t, map[string]string{"db1": "Tasks"})
	seedTasks(h)
	h.write("Tasks/Tasks.md", "folder note\n")
	h.write("Archive/other.md", "other\n")
	h.sync(DirectionNone)

	err := h.engine.UpdateBinding(context.Background(), "db1", "Archive")
	require.ErrorIs(t, err, ErrFolderTaken)

	assert.Equal(t, "folder note\n", h.read("Tasks/Tasks.md"))
	assert.False(t, h.vault.Exists("Tasks/Archive.md"))
	assert.Equal(t, []string{"Tasks/Ship it.md", "Tasks/Tasks.md", "Tasks/Write docs.md"}, h.docs("Tasks"))
	assert.Equal(t, []string{"Archive/other.md"}, h.docs("Archive"))
	assert.Equal(t, "Tasks", h.settings.Get().Files["db1"].Path)
}

func TestUpdateBinding_IntoOwnSubfolder(t *testing.T) {
	h := newHarness(t, map[string]string{"db1": "Tasks"})
	h.write("Tasks/Tasks.md", "folder note\n")

	err := h.engine.UpdateBinding(context.Background(), "db1", "Tasks/Done")
	require.ErrorIs(t, err, ErrFolderTaken)

	assert.True(t, h.vault.Exists("Tasks/Tasks.md"))
	assert.False(t, h.vault.Exists("Tasks/Done.md"))
	assert.Equal(t, "Tasks", h.settings.Get().Files["db1"].Path)
}

func TestUpdateBinding_ClearDeletesFolderNote(t *testing.T) {
	h := newHarness(t, map[string]string{"db1": "Tasks"})
	h.write("Tasks/Tasks.md", "")
	h.write("Tasks/keep.md", "")

	require.NoError(t, h.engine.UpdateBinding(context.Background(), "db1", ""))

	assert.False(t, h.vault.Exists("Tasks/Tasks.md"))
	assert.True(t, h.vault.Exists("Tasks/keep.md"))
	assert.Equal(t, "", h.settings.Get().Files["db1"].Path)

	// clearing twice is fine
	require.NoError(t, h.engine.UpdateBinding(context.Background(), "db1", ""))

	run := h.sync(DirectionNone)
	assert.Empty(t, run.Collections)
}

func TestUpdateBinding_SamePath(t *testing.T) {
	h := newHarness(t, map[string]string{"db1": "Tasks"})

	require.NoError(t, h.engine.UpdateBinding(context.Background(), "db1", "Tasks/"))
	assert.False(t, h.vault.Exists("Tasks/Tasks.md"))
	assert.Equal(t, "Tasks", h.settings.Get().Files["db1"].Path)
}

func TestUpdateBinding_MissingOldFolder(t *testing.T) {
	h := newHarness(t, map[string]string{"db1": "Gone"})

	require.NoError(t, h.engine.UpdateBinding(context.Background(), "db1", "Fresh"))
	assert.True(t, h.vault.Exists("Fresh/Fresh.md"))
}

func TestDownloadPage(t *testing.T) {
	h := newHarness(t, map[string]string{"db1": "Tasks"})
	seedTasks(h)

	path, err := h.engine.DownloadPage(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "Tasks/Write docs.md", path)
	assert.Equal(t, "Doing", h.meta(path)["Status"])

	// same document on a second pull
	h.gw.edit("p1", future, map[string]notion.PropertyValue{"Status": selectValue("Done")})
	again, err := h.engine.DownloadPage(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, path, again)
	assert.Equal(t, "Done", h.meta(path)["Status"])
	assert.Equal(t, []string{"Tasks/Write docs.md"}, h.docs("Tasks"))
}

func TestDownloadPage_NotBound(t *testing.T) {
	h := newHarness(t, map[string]string{"db1": "Tasks"})
	h.gw.addPage("db2", "q1", past, map[string]notion.PropertyValue{"Name": title("Elsewhere")})

	_, err := h.engine.DownloadPage(context.Background(), "q1")
	assert.ErrorIs(t, err, ErrNotBound)
}

func TestUploadFile_Linked(t *testing.T) {
	h := newHarness(t, map[string]string{"db1": "Tasks"})
	seedTasks(h)
	h.sync(DirectionNone)

	require.NoError(t, h.vault.WriteMetadata("Tasks/Write docs.md", func(m vault.Metadata) error {
		m["Status"] = "Blocked"
		return nil
	}))

	id, err := h.engine.UploadFile(context.Background(), "Tasks/Write docs.md")
	require.NoError(t, err)
	assert.Equal(t, "p1", id)

	pushes := h.gw.pushes("p1")
	require.Len(t, pushes, 1)
	assert.Equal(t, "Blocked", pushes[0]["Status"].Select.Name)

	// nothing left to push
	_, err = h.engine.UploadFile(context.Background(), "Tasks/Write docs.md")
	require.NoError(t, err)
	assert.Len(t, h.gw.pushes("p1"), 1)
}

func TestUploadFile_CreatesRecord(t *testing.T) {
	h := newHarness(t, map[string]string{"db1": "Work", "db2": "Work/Tasks"})
	h.write("Work/Tasks/New idea.md", "---\nStatus: Todo\n---\nbody\n")

	id, err := h.engine.UploadFile(context.Background(), "Work/Tasks/New idea.md")
	require.NoError(t, err)
	assert.Equal(t, "new-1", id)

	// the deepest binding owns the document
	page := h.gw.page("new-1")
	assert.Equal(t, "db2", page.Parent.DatabaseID)
	name, err := page.Title()
	require.NoError(t, err)
	assert.Equal(t, "New idea", name)
	assert.Equal(t, "Todo", page.Properties["Status"].Select.Name)

	assert.Equal(t, "new-1", h.meta("Work/Tasks/New idea.md")[CorrelationKey])
	assert.Contains(t, h.read("Work/Tasks/New idea.md"), "body")
}

func TestUploadFile_NotBound(t *testing.T) {
	h := newHarness(t, map[string]string{"db1": "Tasks"})
	h.write("Notes/loose.md", "")

	_, err := h.engine.UploadFile(context.Background(), "Notes/loose.md")
	assert.ErrorIs(t, err, ErrNotBound)
	assert.Empty(t, pushCalls(h.gw.callLog()))
}
