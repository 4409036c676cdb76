package cache

import (
	"time"
)

// dayKeyLayout is the ISO calendar-date form used for all cache-date keys.
const dayKeyLayout = "2006-01-02"

// UTCDayKey is the cache-date key for the disclosure source: the current
// calendar date, UTC-normalized.
func UTCDayKey(now time.Time) string {
	return now.UTC().Format(dayKeyLayout)
}

// CutoffDayKey is the cache-date key for the insider source: the current
// calendar date in the reference timezone, rolled back one day when the
// local time is still before the cutoff hour. The source's data is not
// considered "for today" until after that hour.
func CutoffDayKey(now time.Time, loc *time.Location, cutoffHour int) string {
	local := now.In(loc)
	if local.Hour() < cutoffHour {
		local = local.AddDate(0, 0, -1)
	}
	return local.Format(dayKeyLayout)
}
