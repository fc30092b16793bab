// Package render turns content snapshots into the markup of the public
// site and the admin dashboard.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"strconv"
	"time"

	"github.com/aTrapDeer/catalyst-backend/internal/content"
	"github.com/aTrapDeer/catalyst-backend/internal/metrics"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

//go:embed templates/*.html
var templateFS embed.FS

// Fragments is rendered markup keyed by target id.
type Fragments map[string]template.HTML

// Site holds the page-wide values of every layout.
type Site struct {
	Title   string
	BaseURL string
	// BlogLimit caps the posts on the public page; zero shows all.
	BlogLimit int
}

type Renderer struct {
	tmpl *template.Template
	md   goldmark.Markdown
	site Site
}

func New(site Site) (*Renderer, error) {
	tmpl, err := template.New("catalyst").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	if site.BaseURL == "" {
		site.BaseURL = "/"
	}
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			gmhtml.WithHardWraps(),
		),
	)
	return &Renderer{tmpl: tmpl, md: md, site: site}, nil
}

func (r *Renderer) Site() Site { return r.site }

// Public renders every surface of the public page.
func (r *Renderer) Public(snap content.Snapshot, now time.Time) (Fragments, error) {
	frags := Fragments{}
	surfaces := []struct {
		id   string
		data any
	}{
		{TargetEventsGrid, UpcomingEvents(snap.Events, now)},
		{TargetPastEventsGallery, snap.PastEvents},
		{TargetProjectsGrid, snap.Projects},
		{TargetTestimonialsSlider, snap.Testimonials},
		{TargetResourcesGrid, snap.Resources},
		{TargetBlogGrid, BlogPosts(snap.Blog, r.site.BlogLimit)},
	}
	for _, s := range surfaces {
		markup, err := r.Fragment(s.id, s.data)
		if err != nil {
			return nil, err
		}
		frags[s.id] = markup
	}

	counts := CountsOf(snap, now)
	frags[StatTotalEvents] = count(counts.UpcomingEvents)
	frags[StatTotalPastEvents] = count(counts.PastEvents)
	frags[StatTotalProjects] = count(counts.Projects)
	frags[StatTotalTestimonials] = count(counts.Testimonials)
	return frags, nil
}

// Admin renders every surface of the dashboard.
func (r *Renderer) Admin(snap content.Snapshot) (Fragments, error) {
	frags := Fragments{}
	surfaces := []struct {
		id   string
		data any
	}{
		{TargetEventsTable, snap.Events},
		{TargetPastEventsAdmin, snap.PastEvents},
		{TargetProjectsAdmin, snap.Projects},
		{TargetTestimonialsGrid, snap.Testimonials},
		{TargetResourcesAdmin, snap.Resources},
		{TargetBlogAdmin, BlogPosts(snap.Blog, 0)},
	}
	for _, s := range surfaces {
		markup, err := r.Fragment(s.id, s.data)
		if err != nil {
			return nil, err
		}
		frags[s.id] = markup
	}

	frags[StatTotalEvents] = count(len(snap.Events))
	frags[StatTotalProjects] = count(len(snap.Projects))
	frags[StatTotalTestimonials] = count(len(snap.Testimonials))
	frags[StatTotalBlogs] = count(len(snap.Blog))
	return frags, nil
}

// Fragment renders the surface named by a target id.
func (r *Renderer) Fragment(id string, data any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, id, data); err != nil {
		return "", fmt.Errorf("render %s: %w", id, err)
	}
	metrics.Renders.WithLabelValues(id).Inc()
	return template.HTML(buf.String()), nil
}

type pageData struct {
	SiteTitle  string
	BaseURL    string
	Slots      map[string]template.HTML
	EventTypes []string
}

// PublicPage writes the complete public page.
func (r *Renderer) PublicPage(w io.Writer, snap content.Snapshot, now time.Time) error {
	frags, err := r.Public(snap, now)
	if err != nil {
		return err
	}
	page := NewPage(PublicTargets...)
	Fill(page, frags)
	return r.layout(w, "index.html", r.pageData(page))
}

// AdminPage writes the complete dashboard.
func (r *Renderer) AdminPage(w io.Writer, snap content.Snapshot) error {
	frags, err := r.Admin(snap)
	if err != nil {
		return err
	}
	page := NewPage(AdminTargets...)
	Fill(page, frags)
	return r.layout(w, "admin.html", r.pageData(page))
}

// PostPage writes the detail page of one blog post, its content read as Markdown.
func (r *Renderer) PostPage(w io.Writer, post content.BlogPost) error {
	var body bytes.Buffer
	if err := r.md.Convert([]byte(post.Content), &body); err != nil {
		return fmt.Errorf("convert post %d: %w", post.ID, err)
	}
	data := struct {
		SiteTitle string
		BaseURL   string
		Post      content.BlogPost
		Body      template.HTML
	}{r.site.Title, r.site.BaseURL, post, template.HTML(body.String())}
	return r.layout(w, "post.html", data)
}

func (r *Renderer) pageData(p *Page) pageData {
	return pageData{
		SiteTitle:  r.site.Title,
		BaseURL:    r.site.BaseURL,
		Slots:      p.Slots,
		EventTypes: content.EventTypes,
	}
}

func (r *Renderer) layout(w io.Writer, name string, data any) error {
	if err := r.tmpl.ExecuteTemplate(w, name, data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	metrics.Renders.WithLabelValues(name).Inc()
	return nil
}

func count(n int) template.HTML {
	return template.HTML(strconv.Itoa(n))
}
