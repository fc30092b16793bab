package content

import (
	"net/url"
	"strings"
)

// The admin forms post url-encoded fields named after the json tags.

func EventFromForm(v url.Values) Event {
	return Event{
		Name:        field(v, "name"),
		Date:        field(v, "date"),
		Location:    field(v, "location"),
		Type:        field(v, "type"),
		Description: field(v, "description"),
		Image:       field(v, "image"),
	}
}

func PastEventFromForm(v url.Values) PastEvent {
	return PastEvent{
		Name:        field(v, "name"),
		Image:       field(v, "image"),
		Date:        field(v, "date"),
		Description: field(v, "description"),
	}
}

func ProjectFromForm(v url.Values) Project {
	return Project{
		Title:       field(v, "title"),
		Description: field(v, "description"),
		Github:      field(v, "github"),
		Tags:        ParseTags(v.Get("tags")),
		Icon:        field(v, "icon"),
	}
}

func TestimonialFromForm(v url.Values) Testimonial {
	return Testimonial{
		Name:  field(v, "name"),
		Role:  field(v, "role"),
		Text:  field(v, "text"),
		Image: field(v, "image"),
	}
}

func ResourceFromForm(v url.Values) Resource {
	return Resource{
		Title:       field(v, "title"),
		Description: field(v, "description"),
		URL:         field(v, "url"),
		Icon:        field(v, "icon"),
	}
}

func BlogPostFromForm(v url.Values) BlogPost {
	return BlogPost{
		Title:    field(v, "title"),
		Category: field(v, "category"),
		Content:  v.Get("content"),
		ReadTime: field(v, "readTime"),
		Image:    field(v, "image"),
	}
}

func field(v url.Values, name string) string {
	return strings.TrimSpace(v.Get(name))
}
