package sync

import (
	"errors"
	"testing"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/openmined/notionsync/internal/notion"
	"github.com/openmined/notionsync/internal/vault"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		downloading, uploading bool
		force                  Direction
		want                   Decision
	}{
		{false, false, DirectionNone, DecisionSkip},
		{true, false, DirectionNone, DecisionDownload},
		{false, true, DirectionNone, DecisionUpload},
		{true, true, DirectionNone, DecisionConflict},
		{true, true, DirectionDownload, DecisionDownload},
		{true, true, DirectionUpload, DecisionUpload},
		{false, false, DirectionDownload, DecisionSkip},
		{false, true, DirectionDownload, DecisionUpload},
		{true, false, DirectionUpload, DecisionDownload},
	}
	for _, tt := range tests {
		got := Classify(tt.downloading, tt.uploading, tt.force)
		assert.Equal(t, tt.want, got, "down=%v up=%v force=%s", tt.downloading, tt.uploading, tt.force)
	}
}

func TestClassifyPair(t *testing.T) {
	wm := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	before, after := wm.Add(-time.Minute), wm.Add(time.Minute)

	page := func(edited time.Time) *notion.Page {
		return &notion.Page{ID: "abc-123", CreatedTime: before, LastEditedTime: edited}
	}
	doc := func(mod time.Time) *vault.Document {
		return &vault.Document{Path: "Tasks/a.md", ModTime: mod, CTime: mod}
	}
	newPass := func(force Direction, pending ...string) *pass {
		return &pass{watermark: wm, force: force, pending: mapset.NewSet(pending...)}
	}

	assert.Equal(t, DecisionSkip, classifyPair(page(before), doc(before), newPass(DirectionNone)))
	assert.Equal(t, DecisionDownload, classifyPair(page(after), doc(before), newPass(DirectionNone)))
	assert.Equal(t, DecisionUpload, classifyPair(page(before), doc(after), newPass(DirectionNone)))
	assert.Equal(t, DecisionConflict, classifyPair(page(after), doc(after), newPass(DirectionNone)))

	// pending conflicts stay flagged even without new edits
	assert.Equal(t, DecisionConflict, classifyPair(page(before), doc(before), newPass(DirectionNone, "abc123")))

	// a forced pass only looks at its own side
	assert.Equal(t, DecisionDownload, classifyPair(page(after), doc(after), newPass(DirectionDownload, "abc123")))
	assert.Equal(t, DecisionUpload, classifyPair(page(after), doc(after), newPass(DirectionUpload, "abc123")))
	assert.Equal(t, DecisionSkip, classifyPair(page(before), doc(after), newPass(DirectionDownload)))
	assert.Equal(t, DecisionSkip, classifyPair(page(after), doc(before), newPass(DirectionUpload)))

	// a freshly created record counts as a remote change
	created := &notion.Page{ID: "x", CreatedTime: after, LastEditedTime: before}
	assert.Equal(t, DecisionDownload, classifyPair(created, doc(before), newPass(DirectionNone)))
}

func TestParseDirection(t *testing.T) {
	for in, want := range map[string]Direction{
		"":         DirectionNone,
		"none":     DirectionNone,
		"download": DirectionDownload,
		" Pull ":   DirectionDownload,
		"down":     DirectionDownload,
		"upload":   DirectionUpload,
		"PUSH":     DirectionUpload,
		"up":       DirectionUpload,
	} {
		got, err := ParseDirection(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseDirection("sideways")
	assert.True(t, errors.Is(err, ErrInvalidDirection))
}

func TestDirectionAndDecisionString(t *testing.T) {
	assert.Equal(t, "none", DirectionNone.String())
	assert.Equal(t, "download", DirectionDownload.String())
	assert.Equal(t, "upload", DirectionUpload.String())
	assert.Equal(t, "conflict", DecisionConflict.String())
	assert.Equal(t, "decision(9)", Decision(9).String())
}

func TestSameID(t *testing.T) {
	assert.True(t, sameID("1A2B-3C", "1a2b3c"))
	assert.True(t, sameID(" abc ", "abc"))
	assert.False(t, sameID("", ""))
	assert.False(t, sameID("abc", "abd"))
}

func TestFileName(t *testing.T) {
	tests := []struct {
		title, want string
	}{
		{"Write docs", "Write docs"},
		{"a/b\\c:d", "abcd"},
		{`what? "now" <ok> | #tag ^ref [x]`, "what now ok  tag ref x"},
		{"...hidden.", "hidden"},
		{"  padded  ", "padded"},
		{"tab\there", "tabhere"},
		{"", untitled},
		{"///", untitled},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, fileName(tt.title), tt.title)
	}
}

func TestMatchesTitle(t *testing.T) {
	assert.True(t, matchesTitle("Ship it", "Ship it"))
	assert.True(t, matchesTitle("Ship it (2)", "Ship it"))
	assert.True(t, matchesTitle("Ship it (12)", "Ship it"))
	assert.False(t, matchesTitle("Ship it (2)", "Ship"))
	assert.False(t, matchesTitle("Ship it 2", "Ship it"))
	assert.False(t, matchesTitle("Shipped", "Ship it"))
}

func TestCeilMillis(t *testing.T) {
	base := time.UnixMilli(1_700_000_000_000)
	assert.Equal(t, base.UnixMilli(), ceilMillis(base))
	assert.Equal(t, base.UnixMilli()+1, ceilMillis(base.Add(time.Nanosecond)))
	assert.Equal(t, base.UnixMilli()+1, ceilMillis(base.Add(999*time.Microsecond)))
}

func TestCleanDirAndFolderNote(t *testing.T) {
	assert.Equal(t, "Tasks", cleanDir("/Tasks/"))
	assert.Equal(t, "Work/Tasks", cleanDir(`Work\Tasks`))
	assert.Equal(t, "", cleanDir("../.."))
	assert.Equal(t, "Work/Tasks/Tasks.md", folderNote("Work/Tasks"))
	assert.Equal(t, "", folderNote(""))
}

func TestNextConflictIDs(t *testing.T) {
	e := &Engine{}
	pair := &Pair{Record: &notion.Page{ID: "c-1"}, Document: &vault.Document{Path: "T/c.md"}}
	run := &Run{Collections: []*CollectionRun{{CollectionID: "db1"}}}
	cr := run.Collections[0]
	cr.conflict(pair)
	cr.downloaded("a1", "T/a.md")

	// a1 was reached and cleared; z9 was never reached and stays pending;
	// c1 is carried once even though it appears in both lists
	got := e.nextConflictIDs([]string{"a1", "z9", "C1"}, run)
	assert.Equal(t, []string{"c-1", "z9"}, got)

	assert.Equal(t, []string{}, e.nextConflictIDs(nil, &Run{}))
}

func TestRunSummary(t *testing.T) {
	run := &Run{Collections: []*CollectionRun{
		{CollectionID: "a"},
		{CollectionID: "b", Err: errors.New("boom")},
	}}
	run.Collections[0].downloaded("1", "x.md")
	run.Collections[0].uploaded("2", "y.md")
	run.Collections[0].skipped("3", "z.md")
	run.Collections[0].failed("4", "w.md", errors.New("nope"))

	assert.Equal(t, Summary{Downloaded: 1, Uploaded: 1, Skipped: 1, Failed: 1, FailedCollections: 1}, run.Summary())
	assert.Equal(t, []string{"1"}, run.Downloaded())
	assert.Equal(t, []string{"4"}, run.Failed())

	// nil collection runs discard outcomes
	var nilRun *CollectionRun
	nilRun.downloaded("1", "x.md")
	assert.Nil(t, nilRun.ids(ResultDownloaded))
}
