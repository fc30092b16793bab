// models.go these are the records kept in each content collection
package content

import (
	"strings"
	"time"
)

// Event types offered by the admin event form.
const (
	EventWorkshop     = "Workshop"
	EventHackathon    = "Hackathon"
	EventGuestLecture = "Guest Lecture"
	EventSeminar      = "Seminar"
	EventCompetition  = "Competition"
)

// EventTypes lists the accepted event types in form order.
var EventTypes = []string{EventWorkshop, EventHackathon, EventGuestLecture, EventSeminar, EventCompetition}

const (
	DefaultEventImage   = "images/default-event.jpg"
	DefaultProjectIcon  = "code"
	DefaultResourceIcon = "book-open"
	DefaultReadTime     = "5"
)

type Event struct {
	ID          int64  `json:"id"`
	Name        string `json:"name" validate:"required,notblank"`
	Date        string `json:"date" validate:"required,catalystdate"` // YYYY-MM-DD
	Location    string `json:"location" validate:"required,notblank"`
	Type        string `json:"type" validate:"required,oneof=Workshop Hackathon 'Guest Lecture' Seminar Competition"`
	Description string `json:"description" validate:"required,notblank"`
	Image       string `json:"image"`
}

type PastEvent struct {
	ID          int64  `json:"id"`
	Name        string `json:"name" validate:"required,notblank"`
	Image       string `json:"image" validate:"required,notblank"`
	Date        string `json:"date,omitempty"`
	Description string `json:"description,omitempty"`
}

type Project struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title" validate:"required,notblank"`
	Description string   `json:"description" validate:"required,notblank"`
	Github      string   `json:"github" validate:"required,notblank"`
	Tags        []string `json:"tags" validate:"required,min=1"`
	Icon        string   `json:"icon"`
}

type Testimonial struct {
	ID    int64  `json:"id"`
	Name  string `json:"name" validate:"required,notblank"`
	Role  string `json:"role" validate:"required,notblank"`
	Text  string `json:"text" validate:"required,notblank"`
	Image string `json:"image"`
}

type Resource struct {
	ID          int64  `json:"id"`
	Title       string `json:"title" validate:"required,notblank"`
	Description string `json:"description" validate:"required,notblank"`
	URL         string `json:"url" validate:"required,notblank"`
	Icon        string `json:"icon"`
}

type BlogPost struct {
	ID       int64  `json:"id"`
	Title    string `json:"title" validate:"required,notblank"`
	Category string `json:"category" validate:"required,notblank"`
	Content  string `json:"content" validate:"required,notblank"`
	ReadTime string `json:"readTime"`
	Image    string `json:"image"`
	Date     string `json:"date"` // RFC 3339, stamped on creation
}

func (e Event) RecordID() int64         { return e.ID }
func (e Event) WithID(id int64) Event   { e.ID = id; return e }
func (e Event) Retain(prev Event) Event { e.ID = prev.ID; return e }
func (e Event) Validate() error         { return check(e) }

func (e Event) Prepare(_ time.Time) Event {
	if strings.TrimSpace(e.Image) == "" {
		e.Image = DefaultEventImage
	}
	return e
}

func (p PastEvent) RecordID() int64                 { return p.ID }
func (p PastEvent) WithID(id int64) PastEvent       { p.ID = id; return p }
func (p PastEvent) Retain(prev PastEvent) PastEvent { p.ID = prev.ID; return p }
func (p PastEvent) Validate() error                 { return check(p) }
func (p PastEvent) Prepare(_ time.Time) PastEvent   { return p }

func (p Project) RecordID() int64             { return p.ID }
func (p Project) WithID(id int64) Project     { p.ID = id; return p }
func (p Project) Retain(prev Project) Project { p.ID = prev.ID; return p }
func (p Project) Validate() error             { return check(p) }

func (p Project) Prepare(_ time.Time) Project {
	if strings.TrimSpace(p.Icon) == "" {
		p.Icon = DefaultProjectIcon
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	return p
}

func (t Testimonial) RecordID() int64                     { return t.ID }
func (t Testimonial) WithID(id int64) Testimonial         { t.ID = id; return t }
func (t Testimonial) Retain(prev Testimonial) Testimonial { t.ID = prev.ID; return t }
func (t Testimonial) Validate() error                     { return check(t) }

func (t Testimonial) Prepare(_ time.Time) Testimonial {
	if strings.TrimSpace(t.Image) == "" {
		t.Image = InitialAvatar(t.Name)
	}
	return t
}

func (r Resource) RecordID() int64               { return r.ID }
func (r Resource) WithID(id int64) Resource      { r.ID = id; return r }
func (r Resource) Retain(prev Resource) Resource { r.ID = prev.ID; return r }
func (r Resource) Validate() error               { return check(r) }

func (r Resource) Prepare(_ time.Time) Resource {
	if strings.TrimSpace(r.Icon) == "" {
		r.Icon = DefaultResourceIcon
	}
	return r
}

func (b BlogPost) RecordID() int64          { return b.ID }
func (b BlogPost) WithID(id int64) BlogPost { b.ID = id; return b }
func (b BlogPost) Validate() error          { return check(b) }

// Retain keeps the id and the publication date of the stored post.
func (b BlogPost) Retain(prev BlogPost) BlogPost {
	b.ID = prev.ID
	b.Date = prev.Date
	return b
}

func (b BlogPost) Prepare(now time.Time) BlogPost {
	if strings.TrimSpace(b.ReadTime) == "" {
		b.ReadTime = DefaultReadTime
	}
	if strings.TrimSpace(b.Image) == "" {
		b.Image = BlogPlaceholder
	}
	b.Date = now.UTC().Format(TimestampLayout)
	return b
}

// ParseTags splits comma separated form input into trimmed tags.
func ParseTags(raw string) []string {
	tags := []string{}
	for _, tag := range strings.Split(raw, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
