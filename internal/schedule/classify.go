package schedule

import (
	"fmt"
	"time"

	"github.com/tOgg1/visitwatch/internal/models"
)

// DefaultSoonHorizonDays is how far ahead a visit counts as due soon.
const DefaultSoonHorizonDays = 2

// VisitStatus is the three-way schedule classification.
type VisitStatus string

const (
	StatusOnSchedule VisitStatus = "on_schedule"
	StatusDueSoon    VisitStatus = "due_soon"
	StatusOverdue    VisitStatus = "overdue"
)

// VisitInfo is derived from a subject and a point in time. It is never stored.
type VisitInfo struct {
	NextDueDate time.Time

	// DaysUntilDue is negative once the visit is late.
	DaysUntilDue int

	IsPending bool
	IsSoon    bool

	FormattedLastVerified string
	FormattedNextDue      string

	// Layout is the literal shape last_verified_date was read as.
	Layout DateLayout
}

// Status collapses the flags into one value.
func (v VisitInfo) Status() VisitStatus {
	switch {
	case v.IsPending:
		return StatusOverdue
	case v.IsSoon:
		return StatusDueSoon
	default:
		return StatusOnSchedule
	}
}

// Badge is the short label the dashboard shows next to the due date.
func (v VisitInfo) Badge() string {
	switch {
	case v.IsPending:
		return "Pendente"
	case v.IsSoon && v.DaysUntilDue == 1:
		return "Amanhã"
	case v.IsSoon:
		return fmt.Sprintf("%d dias", v.DaysUntilDue)
	default:
		return ""
	}
}

// Classifier computes VisitInfo. The zero value uses the default horizon
// and the local time zone.
type Classifier struct {
	SoonHorizonDays int
	Location        *time.Location
}

// Default is the classifier used by the package-level Classify.
var Default = Classifier{SoonHorizonDays: DefaultSoonHorizonDays}

// Classify runs the default classifier.
func Classify(subject models.Subject, now time.Time) (VisitInfo, error) {
	return Default.Classify(subject, now)
}

// Classify derives the visit schedule of subject as seen at now.
func (c Classifier) Classify(subject models.Subject, now time.Time) (VisitInfo, error) {
	return c.ClassifyDates(subject.LastVerifiedDate, subject.VerifyFrequencyInDays, now)
}

// ClassifyDates is Classify on raw field values.
func (c Classifier) ClassifyDates(lastVerified string, frequencyDays int, now time.Time) (VisitInfo, error) {
	if frequencyDays < 0 {
		return VisitInfo{}, fmt.Errorf("%w: verify frequency %d", models.ErrInvalidArgument, frequencyDays)
	}
	loc := c.location()
	last, err := Parse(lastVerified, loc)
	if err != nil {
		return VisitInfo{}, err
	}

	next := AddDays(last.Time, frequencyDays)
	today := StartOfDay(now.In(loc))
	due := StartOfDay(next)
	days := DaysBetween(today, due)

	return VisitInfo{
		NextDueDate:           next,
		DaysUntilDue:          days,
		IsPending:             today.After(due),
		IsSoon:                days > 0 && days <= c.horizon(),
		FormattedLastVerified: FormatLocal(last.Time),
		FormattedNextDue:      FormatLocal(next),
		Layout:                last.Layout,
	}, nil
}

func (c Classifier) horizon() int {
	if c.SoonHorizonDays <= 0 {
		return DefaultSoonHorizonDays
	}
	return c.SoonHorizonDays
}

func (c Classifier) location() *time.Location {
	if c.Location == nil {
		return time.Local
	}
	return c.Location
}
