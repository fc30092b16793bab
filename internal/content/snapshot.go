package content

import (
	"fmt"
	"time"
)

// Snapshot is every collection at one point in time. It doubles as the
// export document.
type Snapshot struct {
	Events       []Event       `json:"events"`
	PastEvents   []PastEvent   `json:"pastEvents"`
	Projects     []Project     `json:"projects"`
	Testimonials []Testimonial `json:"testimonials"`
	Resources    []Resource    `json:"resources"`
	Blog         []BlogPost    `json:"blog"`
	ExportDate   string        `json:"exportDate,omitempty"`
}

// ExportFileName is the download name of an export taken at t.
func ExportFileName(t time.Time) string {
	return fmt.Sprintf("catalyst-admin-data-%s.json", t.UTC().Format(DateLayout))
}
