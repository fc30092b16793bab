package store

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aTrapDeer/catalyst-backend/internal/content"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()
	_, err := For(s, content.Events).Create(ctx, content.Event{Name: "GenAI Workshop", Date: "2025-02-01", Location: "Lab 3", Type: content.EventWorkshop, Description: "Prompting"})
	require.NoError(t, err)
	_, err = For(s, content.PastEvents).Create(ctx, content.PastEvent{Name: "Kickoff", Image: "images/kickoff.jpg"})
	require.NoError(t, err)
	_, err = For(s, content.Projects).Create(ctx, content.Project{Title: "Tutor Bot", Tags: []string{"LLM", "Go"}})
	require.NoError(t, err)
	_, err = For(s, content.Testimonials).Create(ctx, content.Testimonial{Name: "Priya", Role: "Student", Text: "Great"})
	require.NoError(t, err)
	_, err = For(s, content.Resources).Create(ctx, content.Resource{Title: "Course", URL: "https://example.com"})
	require.NoError(t, err)
	_, err = For(s, content.Blog).Create(ctx, content.BlogPost{Title: "Hello", Category: "News", Content: "First post"})
	require.NoError(t, err)
}

func TestExportImportRoundTrip(t *testing.T) {
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			src := newStore(NewMemoryKV())
			seed(t, src)

			exported, err := src.Export(ctx)
			require.NoError(t, err)
			assert.Equal(t, "2025-01-01T12:00:00.000Z", exported.ExportDate)
			doc, err := MarshalExport(exported)
			require.NoError(t, err)

			dst := newStore(kv)
			require.NoError(t, dst.Import(ctx, doc))

			want, err := src.Snapshot(ctx)
			require.NoError(t, err)
			got, err := dst.Snapshot(ctx)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestImportRequiresEventsAndProjects(t *testing.T) {
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(kv)
			seed(t, s)

			before := rawState(t, s)
			err := s.Import(ctx, []byte(`{"events": [], "blog": []}`))
			require.ErrorIs(t, err, content.ErrImport)
			assert.Equal(t, before, rawState(t, s))

			err = s.Import(ctx, []byte(`{"events": [], "projects": null}`))
			require.ErrorIs(t, err, content.ErrImport)
			assert.Equal(t, before, rawState(t, s))
		})
	}
}

func TestImportRejectsMalformedDocuments(t *testing.T) {
	ctx := context.Background()
	s := newStore(NewMemoryKV())
	seed(t, s)
	before := rawState(t, s)

	for _, doc := range []string{
		`not json`,
		`[]`,
		`{"events": [], "projects": [], "blog": {"title": "x"}}`,
		`{"events": [{"id": "nope"}], "projects": []}`,
	} {
		assert.ErrorIs(t, s.Import(ctx, []byte(doc)), content.ErrImport, doc)
	}
	assert.Equal(t, before, rawState(t, s))
}

func TestImportLeavesAbsentCollections(t *testing.T) {
	ctx := context.Background()
	s := newStore(NewMemoryKV())
	seed(t, s)

	require.NoError(t, s.Import(ctx, []byte(`{"events": [], "projects": [{"id": 5, "title": "Only", "tags": []}]}`)))
	snap, err := s.Snapshot(ctx)
	require.NoError(t, err)
	assert.Empty(t, snap.Events)
	require.Len(t, snap.Projects, 1)
	assert.Equal(t, int64(5), snap.Projects[0].ID)
	assert.Len(t, snap.Blog, 1)
	assert.Len(t, snap.Testimonials, 1)
}

func TestMarshalExportShape(t *testing.T) {
	doc, err := MarshalExport(content.Snapshot{ExportDate: "2025-01-01T00:00:00.000Z"})
	require.NoError(t, err)
	var shape map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(doc, &shape))
	for _, name := range append([]string{"exportDate"}, content.Names...) {
		assert.Contains(t, shape, name)
	}
}

func rawState(t *testing.T, s *Store) map[string]string {
	t.Helper()
	state := map[string]string{}
	for _, name := range content.Names {
		key, _ := content.KeyFor(name)
		entry, err := s.kv.Get(context.Background(), key)
		require.NoError(t, err)
		state[key] = string(entry.Value)
	}
	return state
}
