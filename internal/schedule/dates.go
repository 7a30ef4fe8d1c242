// Package schedule holds the visit date arithmetic and the per-subject
// classification (on schedule, due soon, overdue). Everything here is pure:
// the current time is always passed in.
package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tOgg1/visitwatch/internal/models"
)

const (
	// DisplayLayout is how dates are shown to people (DD/MM/YYYY).
	DisplayLayout = "02/01/2006"

	// TimestampLayout is what gets sent to the subject service when a visit is recorded.
	TimestampLayout = "2006/01/02 15:04:05"

	day = 24 * time.Hour
)

// DateLayout tags which literal shape a date string was read as.
type DateLayout int

const (
	LayoutDayFirst      DateLayout = iota // DD/MM/YYYY
	LayoutDayFirstTime                    // DD/MM/YYYY HH:mm:ss
	LayoutYearFirst                       // YYYY/MM/DD
	LayoutYearFirstTime                   // YYYY/MM/DD HH:mm:ss
)

func (l DateLayout) String() string {
	switch l {
	case LayoutDayFirst:
		return "DD/MM/YYYY"
	case LayoutDayFirstTime:
		return "DD/MM/YYYY HH:mm:ss"
	case LayoutYearFirst:
		return "YYYY/MM/DD"
	case LayoutYearFirstTime:
		return "YYYY/MM/DD HH:mm:ss"
	default:
		return "unknown"
	}
}

// Date is a parsed subject date.
type Date struct {
	Time   time.Time
	Layout DateLayout
}

// Parse reads input using the layout rule: a first slash segment of exactly
// four characters means year-first, anything else means day-first. A
// day-first year must have four digits; "05/06/25" is rejected rather than
// read as year 25. An optional HH:mm:ss time may follow after whitespace.
func Parse(input string, loc *time.Location) (Date, error) {
	if loc == nil {
		loc = time.Local
	}
	fields := strings.Fields(input)
	if len(fields) == 0 || len(fields) > 2 {
		return Date{}, invalidDate(input)
	}

	parts := strings.Split(fields[0], "/")
	if len(parts) != 3 {
		return Date{}, invalidDate(input)
	}
	nums := make([]int, 3)
	for i, part := range parts {
		n, ok := atoiDigits(part)
		if !ok {
			return Date{}, invalidDate(input)
		}
		nums[i] = n
	}

	out := Date{Layout: LayoutDayFirst}
	var year, month, dom int
	if len(parts[0]) == 4 {
		year, month, dom = nums[0], nums[1], nums[2]
		out.Layout = LayoutYearFirst
	} else {
		if len(parts[2]) != 4 {
			return Date{}, invalidDate(input)
		}
		dom, month, year = nums[0], nums[1], nums[2]
	}
	if month < 1 || month > 12 || dom < 1 || dom > daysIn(year, time.Month(month)) {
		return Date{}, invalidDate(input)
	}

	var hour, minute, second int
	if len(fields) == 2 {
		clock := strings.Split(fields[1], ":")
		if len(clock) != 3 {
			return Date{}, invalidDate(input)
		}
		vals := make([]int, 3)
		for i, part := range clock {
			n, ok := atoiDigits(part)
			if !ok {
				return Date{}, invalidDate(input)
			}
			vals[i] = n
		}
		hour, minute, second = vals[0], vals[1], vals[2]
		if hour > 23 || minute > 59 || second > 59 {
			return Date{}, invalidDate(input)
		}
		if out.Layout == LayoutYearFirst {
			out.Layout = LayoutYearFirstTime
		} else {
			out.Layout = LayoutDayFirstTime
		}
	}

	out.Time = time.Date(year, time.Month(month), dom, hour, minute, second, 0, loc)
	return out, nil
}

// ParseDate parses input in the local time zone.
func ParseDate(input string) (time.Time, error) {
	d, err := Parse(input, time.Local)
	if err != nil {
		return time.Time{}, err
	}
	return d.Time, nil
}

// AddDays adds n calendar days, rolling months and years and keeping the time of day.
func AddDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}

// StartOfDay returns local midnight of t's calendar day.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DaysBetween is the signed number of day boundaries from a to b. Both sides
// are reduced to their calendar day first, so the time of day never matters
// and a short or long DST day still counts as one.
func DaysBetween(a, b time.Time) int {
	diff := civilDay(b).Sub(civilDay(a))
	return ceilDays(diff)
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	return DaysBetween(a, b) == 0
}

// FormatLocal renders t as DD/MM/YYYY.
func FormatLocal(t time.Time) string {
	return t.Format(DisplayLayout)
}

// FormatTimestamp renders t as YYYY/MM/DD HH:mm:ss.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

func civilDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ceilDays(d time.Duration) int {
	n := d / day
	if d%day > 0 {
		n++
	}
	return int(n)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func atoiDigits(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

func invalidDate(input string) error {
	return fmt.Errorf("%w: %q", models.ErrInvalidDateFormat, input)
}
