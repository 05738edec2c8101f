package verification

import (
	"time"

	"github.com/ClearGateLLC/kidpass/store"
)

// The rule table stores weekday tags, the clock hands out time.Weekday
// values. This table is the single place the two numberings meet; rule
// storage and rule evaluation both go through it.
var weekdayTags = map[time.Weekday]string{
	time.Monday:    store.DAY_MON,
	time.Tuesday:   store.DAY_TUE,
	time.Wednesday: store.DAY_WED,
	time.Thursday:  store.DAY_THU,
	time.Friday:    store.DAY_FRI,
	time.Saturday:  store.DAY_SAT,
	time.Sunday:    store.DAY_SUN,
}

func WeekdayTag(t time.Time) string {
	return weekdayTags[t.Weekday()]
}
