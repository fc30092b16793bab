package render

import (
	"fmt"
	"html/template"
	"sort"

	"github.com/aTrapDeer/catalyst-backend/internal/metrics"
	log "github.com/sirupsen/logrus"
)

// Public page target ids.
const (
	TargetEventsGrid         = "events-grid"
	TargetPastEventsGallery  = "past-events-gallery"
	TargetProjectsGrid       = "projects-grid"
	TargetTestimonialsSlider = "testimonials-slider"
	TargetResourcesGrid      = "resources-grid"
	TargetBlogGrid           = "blog-grid"

	StatTotalEvents       = "totalEvents"
	StatTotalPastEvents   = "totalPastEvents"
	StatTotalProjects     = "totalProjects"
	StatTotalTestimonials = "totalTestimonials"
	StatTotalBlogs        = "totalBlogs"
)

// Admin dashboard target ids.
const (
	TargetEventsTable      = "eventsTableBody"
	TargetPastEventsAdmin  = "pastEventsGrid"
	TargetProjectsAdmin    = "projectsGrid"
	TargetTestimonialsGrid = "testimonialsGrid"
	TargetResourcesAdmin   = "resourcesGrid"
	TargetBlogAdmin        = "blogGrid"
)

var PublicTargets = []string{
	TargetEventsGrid, TargetPastEventsGallery, TargetProjectsGrid,
	TargetTestimonialsSlider, TargetResourcesGrid, TargetBlogGrid,
	StatTotalEvents, StatTotalPastEvents, StatTotalProjects, StatTotalTestimonials,
}

var AdminTargets = []string{
	TargetEventsTable, TargetPastEventsAdmin, TargetProjectsAdmin,
	TargetTestimonialsGrid, TargetResourcesAdmin, TargetBlogAdmin,
	StatTotalEvents, StatTotalProjects, StatTotalTestimonials, StatTotalBlogs,
}

// Targets is anything rendered markup can be placed into by id.
type Targets interface {
	Has(id string) bool
	Set(id string, markup template.HTML)
}

// MissingTargetError is reported when markup is sent to an id the
// targets do not have.
type MissingTargetError struct {
	ID string
}

func (e *MissingTargetError) Error() string {
	return fmt.Sprintf("render target #%s not found", e.ID)
}

// Apply places markup into the target id. A missing target is logged and
// counted, and nothing else happens.
func Apply(t Targets, id string, markup template.HTML) error {
	if !t.Has(id) {
		metrics.MissingTargets.WithLabelValues(id).Inc()
		err := &MissingTargetError{ID: id}
		log.Warn(err)
		return err
	}
	t.Set(id, markup)
	return nil
}

// Fill applies every fragment, in id order.
func Fill(t Targets, frags Fragments) {
	ids := make([]string, 0, len(frags))
	for id := range frags {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		_ = Apply(t, id, frags[id])
	}
}

// Page is a fixed set of slots, one per target id of a page layout.
type Page struct {
	Slots map[string]template.HTML
	ids   map[string]struct{}
}

func NewPage(ids ...string) *Page {
	p := &Page{Slots: make(map[string]template.HTML), ids: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		p.ids[id] = struct{}{}
	}
	return p
}

func (p *Page) Has(id string) bool {
	_, ok := p.ids[id]
	return ok
}

func (p *Page) Set(id string, markup template.HTML) { p.Slots[id] = markup }
