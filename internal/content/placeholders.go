package content

import (
	"net/url"
	"unicode/utf8"
)

// BlogPlaceholder is the banner used for posts submitted without an image.
const BlogPlaceholder = "data:image/svg+xml,%3Csvg xmlns=%22http://www.w3.org/2000/svg%22 width=%22400%22 height=%22200%22%3E%3Crect fill=%22%231e1e38%22 width=%22400%22 height=%22200%22/%3E%3Ctext x=%2250%25%22 y=%2250%25%22 dominant-baseline=%22middle%22 text-anchor=%22middle%22 fill=%22%236b6b8f%22 font-size=%2216%22%3EBlog%20Post%3C/text%3E%3C/svg%3E"

const avatarPrefix = "data:image/svg+xml,%3Csvg xmlns=%22http://www.w3.org/2000/svg%22 width=%22100%22 height=%22100%22%3E%3Crect fill=%22%234f46e5%22 width=%22100%22 height=%22100%22/%3E%3Ctext x=%2250%25%22 y=%2250%25%22 dominant-baseline=%22middle%22 text-anchor=%22middle%22 fill=%22white%22 font-size=%2240%22%3E"

const avatarSuffix = "%3C/text%3E%3C/svg%3E"

// InitialAvatar returns an SVG data URI showing the first letter of name.
func InitialAvatar(name string) string {
	initial := ""
	if r, size := utf8.DecodeRuneInString(name); size > 0 && r != utf8.RuneError {
		initial = url.PathEscape(string(r))
	}
	return avatarPrefix + initial + avatarSuffix
}
