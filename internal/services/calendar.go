package services

import "time"

const DateLayout = "2006-01-02"

// Calendar resolves "today" as a calendar day in the server's configured zone.
type Calendar struct {
	now func() time.Time
	loc *time.Location
}

func NewCalendar(now func() time.Time, loc *time.Location) Calendar {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.Local
	}
	return Calendar{now: now, loc: loc}
}

// Today returns midnight of the current day in the calendar's zone.
func (c Calendar) Today() time.Time {
	t := c.now().In(c.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, c.loc)
}

func (c Calendar) Hour() int {
	return c.now().In(c.loc).Hour()
}

// LastDays returns the n days ending today, oldest first.
func (c Calendar) LastDays(n int) []time.Time {
	today := c.Today()
	days := make([]time.Time, n)
	for i := range n {
		days[i] = today.AddDate(0, 0, i-(n-1))
	}
	return days
}

func FormatDay(t time.Time) string {
	return t.Format(DateLayout)
}

func ParseDay(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}
