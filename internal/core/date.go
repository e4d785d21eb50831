package core

import (
	"fmt"
	"strings"
	"time"
)

const dayLayout = "2006-01-02"

// ParseDay reads a calendar day from a stored date string. Both "2024-01-02" and
// "2024-01-02T10:30:00Z" (or a space separated time) are accepted; the time of day
// is dropped. Malformed values report false.
func ParseDay(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if len(s) < len(dayLayout) {
		return time.Time{}, false
	}
	if len(s) > len(dayLayout) && s[len(dayLayout)] != 'T' && s[len(dayLayout)] != ' ' {
		return time.Time{}, false
	}
	t, err := time.Parse(dayLayout, s[:len(dayLayout)])
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// DayKey returns the YYYY-MM-DD part of a stored date, or "" if it is malformed.
func DayKey(s string) string {
	t, ok := ParseDay(s)
	if !ok {
		return ""
	}
	return t.Format(dayLayout)
}

// FormatDay renders t as a stored date string.
func FormatDay(t time.Time) string {
	return t.Format(dayLayout)
}

// Month identifies a budget period. It serialises as "YYYY-MM".
type Month struct {
	Year  int
	Month time.Month
}

// MonthOf returns the calendar month containing t.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// ParseMonth parses "YYYY-MM".
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", strings.TrimSpace(s))
	if err != nil {
		return Month{}, ErrInvalidMonth
	}
	return MonthOf(t), nil
}

func (m Month) String() string {
	if m.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

func (m Month) IsZero() bool { return m.Year == 0 && m.Month == 0 }

func (m Month) Validate() error {
	if m.Year < 1 || m.Month < time.January || m.Month > time.December {
		return ErrInvalidMonth
	}
	return nil
}

// Contains reports whether the stored date falls inside the month.
func (m Month) Contains(date string) bool {
	t, ok := ParseDay(date)
	return ok && t.Year() == m.Year && t.Month() == m.Month
}

// Before orders months chronologically.
func (m Month) Before(o Month) bool {
	if m.Year != o.Year {
		return m.Year < o.Year
	}
	return m.Month < o.Month
}

// Label renders the month for people, e.g. "January 2024".
func (m Month) Label() string {
	if m.IsZero() {
		return ""
	}
	return m.Month.String() + " " + fmt.Sprint(m.Year)
}

func (m Month) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText leaves the month zero when the text does not parse.
func (m *Month) UnmarshalText(b []byte) error {
	parsed, err := ParseMonth(string(b))
	if err != nil {
		*m = Month{}
		return nil
	}
	*m = parsed
	return nil
}
