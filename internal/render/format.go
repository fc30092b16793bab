package render

import (
	"html/template"
	"net/url"
	"strings"

	"github.com/aTrapDeer/catalyst-backend/internal/content"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var eventIcons = map[string]string{
	content.EventWorkshop:     "terminal",
	content.EventHackathon:    "cpu",
	content.EventGuestLecture: "mic",
	content.EventSeminar:      "users",
	content.EventCompetition:  "award",
}

// EventIcon is the feather icon name shown on an event card.
func EventIcon(eventType string) string {
	if icon, ok := eventIcons[eventType]; ok {
		return icon
	}
	return "calendar"
}

var lower = cases.Lower(language.English)

// TypeClass turns an event type into its CSS class, "Guest Lecture" -> "guest-lecture".
func TypeClass(eventType string) string {
	return strings.Join(strings.Fields(lower.String(eventType)), "-")
}

// FormatDate renders a stored date as "Jan 2, 2006". Empty dates render
// empty and unreadable ones are shown as stored.
func FormatDate(s string) string {
	if s == "" {
		return ""
	}
	t, ok := content.ParseDate(s)
	if !ok {
		return s
	}
	return t.UTC().Format("Jan 2, 2006")
}

// ImageURL marks image sources as safe for src and url() attributes.
// Only web URLs, relative paths and inline images are let through.
func ImageURL(s string) template.URL {
	s = strings.TrimSpace(s)
	u, err := url.Parse(s)
	if s == "" || err != nil {
		return "#"
	}
	switch strings.ToLower(u.Scheme) {
	case "", "http", "https":
		return template.URL(s)
	case "data":
		if strings.HasPrefix(strings.ToLower(u.Opaque), "image/") {
			return template.URL(s)
		}
	}
	return "#"
}

// IsDefaultEventImage reports whether the event card should skip its image.
func IsDefaultEventImage(image string) bool {
	return image == "" || image == content.DefaultEventImage
}

var funcs = template.FuncMap{
	"formatDate":    FormatDate,
	"eventIcon":     EventIcon,
	"typeClass":     TypeClass,
	"imageURL":      ImageURL,
	"defaultImage":  IsDefaultEventImage,
	"publicExcerpt": func(s string) string { return Excerpt(s, PublicExcerptLength) },
	"adminExcerpt":  func(s string) string { return Excerpt(s, AdminExcerptLength) },
	"actions":       func(collection string, id int64) cardActions { return cardActions{collection, id} },
}

type cardActions struct {
	Collection string
	ID         int64
}
