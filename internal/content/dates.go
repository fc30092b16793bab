package content

import "time"

// TimestampLayout matches the millisecond ISO timestamps written by browsers.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// DateLayout is the layout of event dates.
const DateLayout = "2006-01-02"

var dateLayouts = []string{
	time.RFC3339Nano,
	TimestampLayout,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	DateLayout,
}

// ParseDate parses the date formats that appear in stored records.
// Date-only values are read as UTC midnight.
func ParseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
