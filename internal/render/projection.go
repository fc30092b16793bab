package render

import (
	"sort"
	"time"
	"unicode/utf8"

	"github.com/aTrapDeer/catalyst-backend/internal/content"
)

const (
	PublicExcerptLength = 150
	AdminExcerptLength  = 120
)

// UpcomingEvents keeps the events dated today or later and orders them by
// date. Events on the same date keep their stored order. Events whose date
// does not parse are left out.
func UpcomingEvents(events []content.Event, now time.Time) []content.Event {
	today := startOfDay(now)
	type dated struct {
		at    time.Time
		event content.Event
	}
	var keep []dated
	for _, ev := range events {
		at, ok := content.ParseDate(ev.Date)
		if !ok || at.Before(today) {
			continue
		}
		keep = append(keep, dated{at: at, event: ev})
	}
	sort.SliceStable(keep, func(i, j int) bool { return keep[i].at.Before(keep[j].at) })

	out := make([]content.Event, len(keep))
	for i, d := range keep {
		out[i] = d.event
	}
	return out
}

// BlogPosts orders posts newest first and keeps at most limit of them.
// A limit of zero or less keeps every post. Posts with an unreadable date
// go last, in stored order.
func BlogPosts(posts []content.BlogPost, limit int) []content.BlogPost {
	out := append([]content.BlogPost(nil), posts...)
	sort.SliceStable(out, func(i, j int) bool {
		a, okA := content.ParseDate(out[i].Date)
		b, okB := content.ParseDate(out[j].Date)
		switch {
		case !okA:
			return false
		case !okB:
			return true
		}
		return a.After(b)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	if out == nil {
		out = []content.BlogPost{}
	}
	return out
}

// Excerpt cuts s to its first n characters and marks the cut with "...".
// The marker is added even when s is shorter than n.
func Excerpt(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s + "..."
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}

// Counts are the collection sizes shown in the statistic elements.
type Counts struct {
	Events         int `json:"events"`
	UpcomingEvents int `json:"upcomingEvents"`
	PastEvents     int `json:"pastEvents"`
	Projects       int `json:"projects"`
	Testimonials   int `json:"testimonials"`
	Resources      int `json:"resources"`
	Blog           int `json:"blog"`
}

func CountsOf(snap content.Snapshot, now time.Time) Counts {
	return Counts{
		Events:         len(snap.Events),
		UpcomingEvents: len(UpcomingEvents(snap.Events, now)),
		PastEvents:     len(snap.PastEvents),
		Projects:       len(snap.Projects),
		Testimonials:   len(snap.Testimonials),
		Resources:      len(snap.Resources),
		Blog:           len(snap.Blog),
	}
}

// startOfDay is midnight of now's calendar day, expressed in UTC so it
// compares with date-only values, which parse as UTC.
func startOfDay(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
