package common

import (
	"time"
)

const dateLayout = "Jan 2, 2006 15:04"

// FormatDate renders a submission timestamp for the admin pages.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(dateLayout)
}
