package entity

import (
	"fmt"
	"regexp"
	"time"

	"golang-stock-recommender/pkg/utils"
)

// marketCloseHour is the daily close of the tracked exchanges (15:00 CST).
const marketCloseHour = 15

var weekIDPattern = regexp.MustCompile(`^(\d{4})-W(\d{2})$`)

// Week identifies one ISO year-week evaluation period, e.g. "2024-W17".
type Week struct {
	Year int
	Week int
}

// ParseWeekID parses an ISO week identifier of the form "2024-W17".
func ParseWeekID(id string) (Week, error) {
	m := weekIDPattern.FindStringSubmatch(id)
	if m == nil {
		return Week{}, fmt.Errorf("%w %q, want YYYY-Www", ErrInvalidWeekID, id)
	}
	var w Week
	fmt.Sscanf(m[1], "%d", &w.Year)
	fmt.Sscanf(m[2], "%d", &w.Week)
	if w.Week < 1 || w.Week > 53 {
		return Week{}, fmt.Errorf("%w %q: week number %d out of range", ErrInvalidWeekID, id, w.Week)
	}
	return w, nil
}

// WeekOf returns the ISO week containing t.
func WeekOf(t time.Time) Week {
	year, week := t.ISOWeek()
	return Week{Year: year, Week: week}
}

// String formats the week as its canonical "YYYY-Www" identifier.
func (w Week) String() string {
	return fmt.Sprintf("%d-W%02d", w.Year, w.Week)
}

// Monday returns the first day of the ISO week in CST.
func (w Week) Monday() time.Time {
	loc := utils.LocationCST()
	// January 4th is always inside ISO week 1.
	jan4 := time.Date(w.Year, time.January, 4, 0, 0, 0, 0, loc)
	weekday := int(jan4.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	week1Monday := jan4.AddDate(0, 0, 1-weekday)
	return week1Monday.AddDate(0, 0, (w.Week-1)*7)
}

// Friday returns the last trading day of the week in CST.
func (w Week) Friday() time.Time {
	return w.Monday().AddDate(0, 0, 4)
}

// MarketClose returns the Friday close of the week: the point after which
// the week counts as elapsed for price synchronization.
func (w Week) MarketClose() time.Time {
	friday := w.Friday()
	return time.Date(friday.Year(), friday.Month(), friday.Day(), marketCloseHour, 0, 0, 0, friday.Location())
}

// Elapsed reports whether the week's trading has fully completed as of now.
func (w Week) Elapsed(now time.Time) bool {
	return now.After(w.MarketClose())
}
