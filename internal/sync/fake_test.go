package sync

import (
	"context"
	"fmt"
	"maps"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	gosync "sync"
	"testing"
	"time"

	"github.com/openmined/notionsync/internal/config"
	"github.com/openmined/notionsync/internal/notion"
	"github.com/openmined/notionsync/internal/vault"
	"github.com/stretchr/testify/require"
)

// fakeGateway is an in-memory Notion workspace.
type fakeGateway struct {
	mu        gosync.Mutex
	pages     map[string]*notion.Page
	databases map[string]*notion.Database
	people    map[string]string
	calls     []string
	filters   []*notion.Filter
	updates   map[string][]map[string]notion.PropertyValue
	failQuery map[string]error
	failPush  map[string]error
	onUpdate  func(pageID string)
	nextID    int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		pages:     map[string]*notion.Page{},
		databases: map[string]*notion.Database{},
		people:    map[string]string{},
		updates:   map[string][]map[string]notion.PropertyValue{},
		failQuery: map[string]error{},
		failPush:  map[string]error{},
	}
}

func (f *fakeGateway) addDatabase(id string, schema map[string]notion.PropertyType) {
	f.mu.Lock()
	defer f.mu.Unlock()
	props := map[string]notion.PropertySchema{}
	for name, kind := range schema {
		props[name] = notion.PropertySchema{ID: name, Name: name, Type: kind}
	}
	f.databases[id] = &notion.Database{Object: "database", ID: id, Title: notion.TextSpans(id), Properties: props}
}

func (f *fakeGateway) addPage(dbID, id string, edited time.Time, props map[string]notion.PropertyValue) *notion.Page {
	f.mu.Lock()
	defer f.mu.Unlock()
	page := &notion.Page{
		Object:         "page",
		ID:             id,
		CreatedTime:    edited,
		LastEditedTime: edited,
		Parent:         notion.Parent{Type: "database_id", DatabaseID: dbID},
		Properties:     maps.Clone(props),
	}
	f.pages[id] = page
	return clonePage(page)
}

// edit changes a record as if someone edited it in Notion at t.
func (f *fakeGateway) edit(id string, t time.Time, props map[string]notion.PropertyValue) {
	f.mu.Lock()
	defer f.mu.Unlock()
	page := f.pages[id]
	for k, v := range props {
		page.Properties[k] = v
	}
	page.LastEditedTime = t
}

func (f *fakeGateway) setTimes(id string, t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages[id].CreatedTime = t
	f.pages[id].LastEditedTime = t
}

func (f *fakeGateway) page(id string) *notion.Page {
	f.mu.Lock()
	defer f.mu.Unlock()
	return clonePage(f.pages[id])
}

func (f *fakeGateway) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

func (f *fakeGateway) pushes(id string) []map[string]notion.PropertyValue {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.updates[id])
}

func (f *fakeGateway) totalPushes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, u := range f.updates {
		n += len(u)
	}
	return n
}

func (f *fakeGateway) QueryDatabase(_ context.Context, databaseID string, filter *notion.Filter) ([]*notion.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "query:"+databaseID)
	f.filters = append(f.filters, filter)
	if err := f.failQuery[databaseID]; err != nil {
		return nil, err
	}

	var since time.Time
	if filter != nil && filter.LastEditedTime != nil {
		var err error
		since, err = time.Parse(time.RFC3339, filter.LastEditedTime.OnOrAfter)
		if err != nil {
			return nil, err
		}
	}

	var out []*notion.Page
	for _, page := range f.pages {
		if page.Parent.DatabaseID != databaseID || page.Archived {
			continue
		}
		if !since.IsZero() && page.LastEditedTime.Before(since) {
			continue
		}
		out = append(out, clonePage(page))
	}
	slices.SortFunc(out, func(a, b *notion.Page) int {
		if c := a.LastEditedTime.Compare(b.LastEditedTime); c != 0 {
			return c
		}
		return compareStrings(a.ID, b.ID)
	})
	return out, nil
}

func (f *fakeGateway) GetDatabase(_ context.Context, databaseID string) (*notion.Database, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "database:"+databaseID)
	db, ok := f.databases[databaseID]
	if !ok {
		return nil, &notion.APIError{Status: http.StatusNotFound, Code: notion.CodeObjectNotFound}
	}
	return db, nil
}

func (f *fakeGateway) GetPage(_ context.Context, pageID string, _ bool) (*notion.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "page:"+pageID)
	page, ok := f.pages[pageID]
	if !ok {
		return nil, &notion.APIError{Status: http.StatusNotFound, Code: notion.CodeObjectNotFound}
	}
	return clonePage(page), nil
}

func (f *fakeGateway) UpdatePage(_ context.Context, pageID string, properties map[string]notion.PropertyValue) (*notion.Page, error) {
	f.mu.Lock()
	f.calls = append(f.calls, "update:"+pageID)
	hook := f.onUpdate
	f.mu.Unlock()

	if hook != nil {
		hook(pageID)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failPush[pageID]; err != nil {
		return nil, err
	}
	page, ok := f.pages[pageID]
	if !ok {
		return nil, &notion.APIError{Status: http.StatusNotFound, Code: notion.CodeObjectNotFound}
	}
	f.updates[pageID] = append(f.updates[pageID], maps.Clone(properties))
	for k, v := range properties {
		page.Properties[k] = v
	}
	page.LastEditedTime = time.Now()
	return clonePage(page), nil
}

func (f *fakeGateway) CreatePage(_ context.Context, databaseID string, properties map[string]notion.PropertyValue) (*notion.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "create:"+databaseID)
	db, ok := f.databases[databaseID]
	if !ok {
		return nil, &notion.APIError{Status: http.StatusNotFound, Code: notion.CodeObjectNotFound}
	}

	f.nextID++
	id := fmt.Sprintf("new-%d", f.nextID)
	props := map[string]notion.PropertyValue{}
	for name, schema := range db.Properties {
		props[name] = emptyValue(schema.Type)
	}
	for k, v := range properties {
		props[k] = v
	}
	now := time.Now()
	page := &notion.Page{
		Object:         "page",
		ID:             id,
		CreatedTime:    now,
		LastEditedTime: now,
		Parent:         notion.Parent{Type: "database_id", DatabaseID: databaseID},
		Properties:     props,
	}
	f.pages[id] = page
	return clonePage(page), nil
}

func (f *fakeGateway) PersonName(_ context.Context, userID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	name, ok := f.people[userID]
	if !ok {
		return "", &notion.APIError{Status: http.StatusNotFound, Code: notion.CodeObjectNotFound}
	}
	return name, nil
}

func (f *fakeGateway) PageTitle(_ context.Context, pageID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	page, ok := f.pages[pageID]
	if !ok {
		return "", &notion.APIError{Status: http.StatusNotFound, Code: notion.CodeObjectNotFound}
	}
	return page.Title()
}

func emptyValue(kind notion.PropertyType) notion.PropertyValue {
	v := notion.PropertyValue{Type: kind}
	switch kind {
	case notion.TypeTitle:
		v.Title = []notion.RichText{}
	case notion.TypeRichText:
		v.RichText = []notion.RichText{}
	case notion.TypeMultiSelect:
		v.MultiSelect = []notion.SelectOption{}
	case notion.TypeCheckbox:
		v.Checkbox = new(bool)
	}
	return v
}

func clonePage(p *notion.Page) *notion.Page {
	if p == nil {
		return nil
	}
	out := *p
	out.Properties = maps.Clone(p.Properties)
	return &out
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func title(s string) notion.PropertyValue {
	return notion.PropertyValue{Type: notion.TypeTitle, Title: notion.TextSpans(s)}
}

func selectValue(name string) notion.PropertyValue {
	return notion.PropertyValue{Type: notion.TypeSelect, Select: &notion.SelectOption{Name: name}}
}

func richText(s string) notion.PropertyValue {
	return notion.PropertyValue{Type: notion.TypeRichText, RichText: notion.TextSpans(s)}
}

func checkbox(b bool) notion.PropertyValue {
	return notion.PropertyValue{Type: notion.TypeCheckbox, Checkbox: &b}
}

var taskSchema = map[string]notion.PropertyType{
	"Name":   notion.TypeTitle,
	"Status": notion.TypeSelect,
	"Notes":  notion.TypeRichText,
	"Done":   notion.TypeCheckbox,
}

// harness wires an engine to a fake gateway, a vault in a temp dir and a
// settings file.
type harness struct {
	t        *testing.T
	gw       *fakeGateway
	vault    *vault.Vault
	settings *config.Store
	engine   *Engine
}

func newHarness(t *testing.T, bindings map[string]string) *harness {
	t.Helper()
	root := t.TempDir()

	v, err := vault.New(filepath.Join(root, "vault"))
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(v.Root(), 0o755))

	store, err := config.OpenStore(filepath.Join(root, "settings.json"))
	require.NoError(t, err)
	files := map[string]config.Binding{}
	for id, dir := range bindings {
		files[id] = config.Binding{Path: dir}
	}
	_, err = store.ApplyPatch(config.SettingsPatch{Files: files})
	require.NoError(t, err)

	gw := newFakeGateway()
	for id := range bindings {
		gw.addDatabase(id, taskSchema)
	}

	return &harness{
		t:        t,
		gw:       gw,
		vault:    v,
		settings: store,
		engine:   New(gw, v, store),
	}
}

func (h *harness) sync(force Direction) *Run {
	h.t.Helper()
	run, err := h.engine.Sync(context.Background(), force)
	require.NoError(h.t, err)
	return run
}

func (h *harness) abs(rel string) string {
	return filepath.Join(h.vault.Root(), filepath.FromSlash(rel))
}

func (h *harness) write(rel, content string) {
	h.t.Helper()
	require.NoError(h.t, os.MkdirAll(filepath.Dir(h.abs(rel)), 0o755))
	require.NoError(h.t, os.WriteFile(h.abs(rel), []byte(content), 0o644))
}

func (h *harness) read(rel string) string {
	h.t.Helper()
	b, err := os.ReadFile(h.abs(rel))
	require.NoError(h.t, err)
	return string(b)
}

func (h *harness) meta(rel string) vault.Metadata {
	h.t.Helper()
	m, err := h.vault.ReadMetadata(rel)
	require.NoError(h.t, err)
	return m
}

// touch sets a document's timestamps.
func (h *harness) touch(rel string, t time.Time) {
	h.t.Helper()
	require.NoError(h.t, os.Chtimes(h.abs(rel), t, t))
}

// settle moves the watermark just past now, so local edits made so far
// read as already synced.
func (h *harness) settle() {
	h.t.Helper()
	ms := time.Now().Add(time.Second).UnixMilli()
	_, err := h.settings.ApplyPatch(config.SettingsPatch{LastSync: &ms})
	require.NoError(h.t, err)
}

func (h *harness) docs(dir string) []string {
	h.t.Helper()
	docs, err := h.vault.List(dir)
	require.NoError(h.t, err)
	var out []string
	for _, d := range docs {
		out = append(out, d.Path)
	}
	slices.Sort(out)
	return out
}
