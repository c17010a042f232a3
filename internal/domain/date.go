package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

const dateLayout = "2006-01-02"

// Date is a calendar day with no time-of-day. The zero value is unset.
type Date struct {
	t time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's own location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

func (d Date) Time() time.Time { return d.t }
func (d Date) IsZero() bool { return d.t.IsZero() }
func (d Date) Year() int { return d.t.Year() }
func (d Date) Month() time.Month { return d.t.Month() }
func (d Date) Day() int { return d.t.Day() }
func (d Date) Weekday() time.Weekday { return d.t.Weekday() }
func (d Date) Before(o Date) bool { return d.t.Before(o.t) }
func (d Date) After(o Date) bool { return d.t.After(o.t) }
func (d Date) Equal(o Date) bool { return d.t.Equal(o.t) }

func (d Date) AddDays(n int) Date {
	return Date{t: d.t.AddDate(0, 0, n)}
}

// AddMonths moves to the first day of the month n months away.
func (d Date) AddMonths(n int) Date {
	first := time.Date(d.t.Year(), d.t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return Date{t: first.AddDate(0, n, 0)}
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	// Accept full timestamps from clients that send ISO strings.
	if len(s) > len(dateLayout) {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return fmt.Errorf("invalid date %q: %w", s, err)
		}
		*d = DateOf(t)
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Nights counts whole nights between two days, rounding partial days up.
func Nights(checkIn, checkOut Date) int {
	return int(math.Ceil(checkOut.t.Sub(checkIn.t).Hours() / 24))
}

// DateRange is a stay. It is complete only when both ends are set.
type DateRange struct {
	CheckIn  *Date `json:"check_in"`
	CheckOut *Date `json:"check_out"`
}

func (r DateRange) Complete() bool {
	return r.CheckIn != nil && r.CheckOut != nil
}

// Nights returns 0 for an incomplete range.
func (r DateRange) Nights() int {
	if !r.Complete() {
		return 0
	}
	return Nights(*r.CheckIn, *r.CheckOut)
}

// Overlaps reports whether any taken night falls inside the stay. The
// check-out day is not a night of the stay.
func (r DateRange) Overlaps(taken []Date) bool {
	if !r.Complete() {
		return false
	}
	for _, d := range taken {
		if !d.Before(*r.CheckIn) && d.Before(*r.CheckOut) {
			return true
		}
	}
	return false
}

// BlockedDays turns taken nights into days the picker cannot offer at all:
// those whose own night and the night before are both taken. The first
// night of a block stays selectable so a stay can check out the morning
// another guest checks in; checking in on it is caught by Overlaps.
func BlockedDays(taken []Date) []Date {
	set := make(map[string]bool, len(taken))
	for _, d := range taken {
		set[d.String()] = true
	}
	var out []Date
	for _, d := range taken {
		if set[d.AddDays(-1).String()] {
			out = append(out, d)
		}
	}
	return out
}
