package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aTrapDeer/catalyst-backend/internal/blob"
	"github.com/aTrapDeer/catalyst-backend/internal/content"
	"github.com/aTrapDeer/catalyst-backend/internal/notify"
	"github.com/aTrapDeer/catalyst-backend/internal/render"
	"github.com/aTrapDeer/catalyst-backend/internal/store"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	srv    *Server
	store  *store.Store
	blobs  *blob.Memory
	kv     *store.MemoryKV
	router http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	kv := store.NewMemoryKV()
	st := store.New(kv, notify.NewBus(), store.WithClock(func() time.Time { return fixedNow }))
	rd, err := render.New(render.Site{Title: "Catalyst"})
	require.NoError(t, err)
	blobs := blob.NewMemory()
	srv := New(st, rd, blobs, Options{CacheTTL: time.Minute})
	t.Cleanup(srv.Close)
	return &fixture{srv: srv, store: st, blobs: blobs, kv: kv, router: srv.Router()}
}

func (f *fixture) do(t *testing.T, method, path string, body []byte, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) postJSON(t *testing.T, path string, v any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(v)
	require.NoError(t, err)
	return f.do(t, http.MethodPost, path, body, "application/json")
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

var workshop = content.Event{
	Name:        "Intro to Go",
	Date:        "2099-03-01",
	Location:    "Room 101",
	Type:        content.EventWorkshop,
	Description: "Hands on",
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "running")
}

func TestCreateListGetJSON(t *testing.T) {
	f := newFixture(t)

	rec := f.postJSON(t, "/api/events", workshop)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[content.Event](t, rec)
	assert.NotZero(t, created.ID)
	assert.Equal(t, content.DefaultEventImage, created.Image)

	rec = f.do(t, http.MethodGet, "/api/events", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []content.Event{created}, decode[[]content.Event](t, rec))

	rec = f.do(t, http.MethodGet, fmt.Sprintf("/api/events/%d", created.ID), nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created, decode[content.Event](t, rec))
}

func TestCreateFromForm(t *testing.T) {
	f := newFixture(t)
	form := url.Values{
		"title":       {"Vision"},
		"description": {"Image models"},
		"github":      {"https://github.com/catalyst/vision"},
		"tags":        {" CV , PyTorch ,,"},
	}
	rec := f.do(t, http.MethodPost, "/api/projects", []byte(form.Encode()), "application/x-www-form-urlencoded")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	p := decode[content.Project](t, rec)
	assert.Equal(t, []string{"CV", "PyTorch"}, p.Tags)
	assert.Equal(t, content.DefaultProjectIcon, p.Icon)
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	f := newFixture(t)

	rec := f.postJSON(t, "/api/events", content.Event{Name: "No date"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[Response](t, rec).Error, "required")

	bad := workshop
	bad.Type = "Party"
	rec = f.postJSON(t, "/api/events", bad)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/events", []byte("{"), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	all, err := store.For(f.store, content.Events).All(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestUnknownCollection(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/widgets", nil, "").Code)
	assert.Equal(t, http.StatusNotFound, f.postJSON(t, "/api/widgets", map[string]string{}).Code)
}

func TestUpdate(t *testing.T) {
	f := newFixture(t)
	created := decode[content.BlogPost](t, f.postJSON(t, "/api/blog", content.BlogPost{
		Title: "Hello", Category: "News", Content: "First post",
	}))

	body, _ := json.Marshal(content.BlogPost{Title: "Hello again", Category: "News", Content: "Edited"})
	rec := f.do(t, http.MethodPut, fmt.Sprintf("/api/blog/%d", created.ID), body, "application/json")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	updated := decode[content.BlogPost](t, rec)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, created.Date, updated.Date)
	assert.Equal(t, "Hello again", updated.Title)

	rec = f.do(t, http.MethodPut, "/api/blog/42", body, "application/json")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodPut, "/api/blog/abc", body, "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// PUT replaces the whole record, so a partial body is rejected
	rec = f.do(t, http.MethodPut, fmt.Sprintf("/api/blog/%d", created.ID), []byte(`{"title":"Only a title"}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	got := decode[content.BlogPost](t, f.do(t, http.MethodGet, fmt.Sprintf("/api/blog/%d", created.ID), nil, ""))
	assert.Equal(t, "Edited", got.Content)
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	created := decode[content.Resource](t, f.postJSON(t, "/api/resources", content.Resource{
		Title: "Tour of Go", Description: "Start here", URL: "https://go.dev/tour",
	}))

	rec := f.do(t, http.MethodDelete, fmt.Sprintf("/api/resources/%d", created.ID), nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"deleted": true}, decode[Response](t, rec).Data)

	rec = f.do(t, http.MethodDelete, fmt.Sprintf("/api/resources/%d", created.ID), nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"deleted": false}, decode[Response](t, rec).Data)
}

func TestClearCollectionAndAll(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, http.StatusCreated, f.postJSON(t, "/api/events", workshop).Code)
	require.Equal(t, http.StatusCreated, f.postJSON(t, "/api/testimonials", content.Testimonial{Name: "Ada", Role: "Member", Text: "Great"}).Code)

	require.Equal(t, http.StatusOK, f.do(t, http.MethodDelete, "/api/events", nil, "").Code)
	assert.Equal(t, 0, decode[render.Counts](t, f.do(t, http.MethodGet, "/api/stats", nil, "")).Events)
	assert.Equal(t, 1, decode[render.Counts](t, f.do(t, http.MethodGet, "/api/stats", nil, "")).Testimonials)

	require.Equal(t, http.StatusOK, f.do(t, http.MethodDelete, "/api/data", nil, "").Code)
	assert.Equal(t, render.Counts{}, decode[render.Counts](t, f.do(t, http.MethodGet, "/api/stats", nil, "")))
}

func TestStats(t *testing.T) {
	f := newFixture(t)
	past := workshop
	past.Date = "2024-01-01"
	f.postJSON(t, "/api/events", workshop)
	f.postJSON(t, "/api/events", past)
	f.postJSON(t, "/api/blog", content.BlogPost{Title: "t", Category: "c", Content: "x"})

	counts := decode[render.Counts](t, f.do(t, http.MethodGet, "/api/stats", nil, ""))
	assert.Equal(t, 2, counts.Events)
	assert.Equal(t, 1, counts.UpcomingEvents)
	assert.Equal(t, 1, counts.Blog)
}

func TestExportArchivesAndDownloads(t *testing.T) {
	f := newFixture(t)
	f.postJSON(t, "/api/events", workshop)

	rec := f.do(t, http.MethodGet, "/api/export", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="catalyst-admin-data-2025-01-01.json"`, rec.Header().Get("Content-Disposition"))

	doc := decode[content.Snapshot](t, rec)
	require.Len(t, doc.Events, 1)
	assert.Equal(t, "2025-01-01T12:00:00.000Z", doc.ExportDate)

	infos := decode[[]blob.Info](t, f.do(t, http.MethodGet, "/api/exports", nil, ""))
	require.Len(t, infos, 1)
	assert.Equal(t, blob.ArchiveKey(fixedNow), infos[0].Key)

	name := strings.TrimPrefix(infos[0].Key, blob.ArchivePrefix)
	rec = f.do(t, http.MethodGet, "/api/exports/"+name, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, string(mustExport(t, f)), rec.Body.String())

	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/exports/missing.json", nil, "").Code)
}

func mustExport(t *testing.T, f *fixture) []byte {
	t.Helper()
	snap, err := f.store.Export(context.Background())
	require.NoError(t, err)
	doc, err := store.MarshalExport(snap)
	require.NoError(t, err)
	return doc
}

func TestRestoreArchive(t *testing.T) {
	f := newFixture(t)
	f.postJSON(t, "/api/events", workshop)
	f.do(t, http.MethodGet, "/api/export", nil, "")
	require.Equal(t, http.StatusOK, f.do(t, http.MethodDelete, "/api/data", nil, "").Code)

	name := strings.TrimPrefix(blob.ArchiveKey(fixedNow), blob.ArchivePrefix)
	rec := f.do(t, http.MethodPost, "/api/exports/"+name+"/restore", nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	events := decode[[]content.Event](t, f.do(t, http.MethodGet, "/api/events", nil, ""))
	require.Len(t, events, 1)
	assert.Equal(t, workshop.Name, events[0].Name)
}

func TestImport(t *testing.T) {
	f := newFixture(t)
	doc := `{"events":[{"id":1,"name":"Imported","date":"2099-01-01","location":"Hall","type":"Seminar","description":"d","image":"x.png"}],"projects":[]}`

	rec := f.do(t, http.MethodPost, "/api/import", []byte(doc), "application/json")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	events := decode[[]content.Event](t, f.do(t, http.MethodGet, "/api/events", nil, ""))
	require.Len(t, events, 1)
	assert.Equal(t, "Imported", events[0].Name)
}

func TestImportRejectsIncompleteDocument(t *testing.T) {
	f := newFixture(t)
	f.postJSON(t, "/api/events", workshop)
	before := mustExport(t, f)

	rec := f.do(t, http.MethodPost, "/api/import", []byte(`{"events":[]}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotEmpty(t, decode[Response](t, rec).Error)

	rec = f.do(t, http.MethodPost, "/api/import", []byte(`not json`), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, before, mustExport(t, f))
}

func TestPages(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "No upcoming events at the moment.")

	rec = f.do(t, http.MethodGet, "/admin", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No upcoming events")

	// the cached page must not survive a write
	f.postJSON(t, "/api/events", workshop)
	rec = f.do(t, http.MethodGet, "/", nil, "")
	assert.Contains(t, rec.Body.String(), workshop.Name)
	assert.NotContains(t, rec.Body.String(), "No upcoming events at the moment.")
}

func TestBlogPostPage(t *testing.T) {
	f := newFixture(t)
	post := decode[content.BlogPost](t, f.postJSON(t, "/api/blog", content.BlogPost{
		Title: "Release notes", Category: "News", Content: "We shipped **v2**.",
	}))

	rec := f.do(t, http.MethodGet, fmt.Sprintf("/blog/%d/", post.ID), nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Release notes")
	assert.Contains(t, rec.Body.String(), "<strong>v2</strong>")

	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/blog/7", nil, "").Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/blog/nope", nil, "").Code)
}

func TestListIsCachedUntilWrite(t *testing.T) {
	f := newFixture(t)
	assert.Empty(t, decode[[]content.Event](t, f.do(t, http.MethodGet, "/api/events", nil, "")))

	// a value written behind the store's back is not seen while cached
	f.kv.Set(content.Events.Key(), []byte(`[{"id":9,"name":"sneaky"}]`))
	assert.Empty(t, decode[[]content.Event](t, f.do(t, http.MethodGet, "/api/events", nil, "")))

	f.postJSON(t, "/api/events", workshop)
	events := decode[[]content.Event](t, f.do(t, http.MethodGet, "/api/events", nil, ""))
	assert.Len(t, events, 2)
}

// gateKV holds the first armed read of the events key after it has read
// the value, until release is closed.
type gateKV struct {
	*store.MemoryKV
	armed   atomic.Bool
	entered chan struct{}
	release chan struct{}
}

func (g *gateKV) Get(ctx context.Context, key string) (store.Entry, error) {
	e, err := g.MemoryKV.Get(ctx, key)
	if key == content.Events.Key() && g.armed.CompareAndSwap(true, false) {
		close(g.entered)
		<-g.release
	}
	return e, err
}

func TestReadOverlappingWriteIsNotCached(t *testing.T) {
	kv := &gateKV{MemoryKV: store.NewMemoryKV(), entered: make(chan struct{}), release: make(chan struct{})}
	st := store.New(kv, notify.NewBus(), store.WithClock(func() time.Time { return fixedNow }))
	rd, err := render.New(render.Site{})
	require.NoError(t, err)
	srv := New(st, rd, nil, Options{CacheTTL: time.Minute})
	defer srv.Close()
	router := srv.Router()

	list := func() []content.Event {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/events", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		return decode[[]content.Event](t, rec)
	}

	kv.armed.Store(true)
	stale := make(chan []content.Event, 1)
	go func() {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/events", nil))
		var events []content.Event
		_ = json.Unmarshal(rec.Body.Bytes(), &events)
		stale <- events
	}()

	<-kv.entered
	_, err = store.For(st, content.Events).Create(context.Background(), workshop)
	require.NoError(t, err)
	close(kv.release)
	assert.Empty(t, <-stale)

	assert.Len(t, list(), 1)
}

func TestRateLimitedWrites(t *testing.T) {
	kv := store.NewMemoryKV()
	st := store.New(kv, notify.NewBus())
	rd, err := render.New(render.Site{})
	require.NoError(t, err)
	srv := New(st, rd, nil, Options{RateLimit: 1})
	defer srv.Close()
	router := srv.Router()

	post := func() int {
		req := httptest.NewRequest(http.MethodDelete, "/api/events", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec.Code
	}
	assert.Equal(t, http.StatusOK, post())
	assert.Equal(t, http.StatusTooManyRequests, post())

	// reads are not limited
	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestArchivesWithoutBlobStore(t *testing.T) {
	st := store.New(store.NewMemoryKV(), notify.NewBus())
	rd, err := render.New(render.Site{})
	require.NoError(t, err)
	srv := New(st, rd, nil, Options{})
	defer srv.Close()

	req := httptest.NewRequest(http.MethodGet, "/api/exports", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestWebSocketReceivesChanges(t *testing.T) {
	f := newFixture(t)
	ts := httptest.NewServer(f.router)
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/changes"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return f.srv.hub.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	resp, err := http.Post(ts.URL+"/api/events", "application/json", strings.NewReader(mustJSON(t, workshop)))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var change notify.Change
	require.NoError(t, json.Unmarshal(msg, &change))
	assert.Equal(t, content.Events.Key(), change.Key)
	assert.Equal(t, content.NameEvents, change.Collection)
	assert.Contains(t, string(change.Value), workshop.Name)
}

func TestWebSocketRejectsForeignOrigin(t *testing.T) {
	st := store.New(store.NewMemoryKV(), notify.NewBus())
	rd, err := render.New(render.Site{})
	require.NoError(t, err)
	srv := New(st, rd, nil, Options{FrontendURLs: []string{"https://catalyst.example"}})
	defer srv.Close()
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/changes"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, http.Header{"Origin": {"https://evil.example"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, http.Header{"Origin": {"https://catalyst.example"}})
	require.NoError(t, err)
	conn.Close()
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}
