package server

import (
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"net/url"

	"github.com/aTrapDeer/catalyst-backend/internal/content"
	"github.com/aTrapDeer/catalyst-backend/internal/store"
)

const maxBodyBytes = 4 << 20

// endpoint is the type-erased API of one collection.
type endpoint struct {
	list   func(ctx context.Context) (interface{}, error)
	get    func(ctx context.Context, id int64) (interface{}, error)
	create func(r *http.Request) (interface{}, error)
	update func(r *http.Request, id int64) (interface{}, error)
	remove func(ctx context.Context, id int64) (bool, error)
	clear  func(ctx context.Context) error
}

func endpoints(st *store.Store) map[string]endpoint {
	return map[string]endpoint{
		content.NameEvents:       endpointFor(st, content.Events, content.EventFromForm),
		content.NamePastEvents:   endpointFor(st, content.PastEvents, content.PastEventFromForm),
		content.NameProjects:     endpointFor(st, content.Projects, content.ProjectFromForm),
		content.NameTestimonials: endpointFor(st, content.Testimonials, content.TestimonialFromForm),
		content.NameResources:    endpointFor(st, content.Resources, content.ResourceFromForm),
		content.NameBlog:         endpointFor(st, content.Blog, content.BlogPostFromForm),
	}
}

func endpointFor[T content.Record[T]](st *store.Store, c content.Collection[T], fromForm func(url.Values) T) endpoint {
	repo := store.For(st, c)
	return endpoint{
		list: func(ctx context.Context) (interface{}, error) {
			return repo.All(ctx)
		},
		get: func(ctx context.Context, id int64) (interface{}, error) {
			return repo.Get(ctx, id)
		},
		create: func(r *http.Request) (interface{}, error) {
			rec, err := decodeRecord(r, fromForm)
			if err != nil {
				return nil, err
			}
			return repo.Create(r.Context(), rec)
		},
		update: func(r *http.Request, id int64) (interface{}, error) {
			rec, err := decodeRecord(r, fromForm)
			if err != nil {
				return nil, err
			}
			return repo.Update(r.Context(), id, rec)
		},
		remove: repo.Delete,
		clear:  repo.Clear,
	}
}

// decodeRecord reads a submitted record from a form post or a JSON body
// and checks its required fields.
func decodeRecord[T content.Record[T]](r *http.Request, fromForm func(url.Values) T) (T, error) {
	var rec T
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxBodyBytes); err != nil {
			return rec, fmt.Errorf("%w: %s", content.ErrValidation, err)
		}
		rec = fromForm(r.PostForm)
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return rec, fmt.Errorf("%w: %s", content.ErrValidation, err)
		}
		rec = fromForm(r.PostForm)
	default:
		if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
			return rec, fmt.Errorf("%w: invalid json: %s", content.ErrValidation, err)
		}
	}
	return rec, rec.Validate()
}
