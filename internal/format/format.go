// internal/format/format.go
package format

import (
	"strconv"
	"time"
)

// Count renders star and fork counts, abbreviating thousands: 1540 -> "1.5k".
func Count(n int) string {
	if n >= 1000 {
		return strconv.FormatFloat(float64(n)/1000, 'f', 1, 64) + "k"
	}
	return strconv.Itoa(n)
}

// Date renders a timestamp as a long US date, e.g. "January 25, 2011".
func Date(t time.Time) string {
	return t.Format("January 2, 2006")
}
