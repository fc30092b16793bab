package content

import "time"

// Record is implemented by the six record types. Methods use value
// receivers and return modified copies.
type Record[T any] interface {
	RecordID() int64
	WithID(id int64) T
	// Prepare applies form defaults and creation-time fields.
	Prepare(now time.Time) T
	// Retain carries immutable fields of prev over to the receiver.
	Retain(prev T) T
	Validate() error
}

// Collection identifies one persisted collection and the record type it holds.
type Collection[T Record[T]] struct {
	name string
	key  string
}

func (c Collection[T]) Name() string { return c.name }

// Key is the storage key the collection is persisted under.
func (c Collection[T]) Key() string { return c.key }

// Collection names as they appear in export documents and API paths.
const (
	NameEvents       = "events"
	NamePastEvents   = "pastEvents"
	NameProjects     = "projects"
	NameTestimonials = "testimonials"
	NameResources    = "resources"
	NameBlog         = "blog"
)

var (
	Events       = Collection[Event]{name: NameEvents, key: "catalyst_events"}
	PastEvents   = Collection[PastEvent]{name: NamePastEvents, key: "catalyst_past_events"}
	Projects     = Collection[Project]{name: NameProjects, key: "catalyst_projects"}
	Testimonials = Collection[Testimonial]{name: NameTestimonials, key: "catalyst_testimonials"}
	Resources    = Collection[Resource]{name: NameResources, key: "catalyst_resources"}
	Blog         = Collection[BlogPost]{name: NameBlog, key: "catalyst_blog"}
)

// Names lists every collection in export order.
var Names = []string{NameEvents, NamePastEvents, NameProjects, NameTestimonials, NameResources, NameBlog}

var keys = map[string]string{
	NameEvents:       Events.Key(),
	NamePastEvents:   PastEvents.Key(),
	NameProjects:     Projects.Key(),
	NameTestimonials: Testimonials.Key(),
	NameResources:    Resources.Key(),
	NameBlog:         Blog.Key(),
}

// KeyFor returns the storage key of the named collection.
func KeyFor(name string) (string, bool) {
	key, ok := keys[name]
	return key, ok
}

// NameFor is the inverse of KeyFor.
func NameFor(key string) (string, bool) {
	for name, k := range keys {
		if k == key {
			return name, true
		}
	}
	return "", false
}
