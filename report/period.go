package report

import (
	"fmt"
	"time"
)

// Kind is the length of a reporting period.
type Kind string

const (
	Monthly Kind = "monthly"
	Yearly  Kind = "yearly"
)

func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case Monthly, Yearly:
		return Kind(s), nil
	}
	return "", fmt.Errorf("unsupported report kind %q, expected monthly or yearly", s)
}

// Period is the half-open interval [Start, End) a report covers, in UTC.
type Period struct {
	Kind  Kind
	Start time.Time
	End   time.Time
}

// PreviousPeriod is the last complete month or year before now.
func PreviousPeriod(kind Kind, now time.Time) Period {
	now = now.UTC()
	switch kind {
	case Yearly:
		end := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
		return Period{Kind: kind, Start: end.AddDate(-1, 0, 0), End: end}
	default:
		end := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		return Period{Kind: Monthly, Start: end.AddDate(0, -1, 0), End: end}
	}
}

// Label is 2024-05 for a month and 2024 for a year.
func (p Period) Label() string {
	if p.Kind == Yearly {
		return p.Start.Format("2006")
	}
	return p.Start.Format("2006-01")
}

func (p Period) Title() string {
	if p.Kind == Yearly {
		return "Yearly Financial Report " + p.Label()
	}
	return "Monthly Financial Report " + p.Label()
}

func (p Period) FileName(format string) string {
	return fmt.Sprintf("%s_financial_report_%s.%s", p.Kind, p.Label(), format)
}
