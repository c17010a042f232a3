// Package calendar holds the check-in/check-out picker. State is a plain
// value so it can be embedded in wizard state and serialised with it.
package calendar

import "github.com/diagnosis/heritage-portal/internal/domain"

type Phase string

const (
	AwaitingCheckIn  Phase = "awaiting-check-in"
	AwaitingCheckOut Phase = "awaiting-check-out"
)

type Class string

const (
	ClassPlain    Class = "plain"
	ClassDisabled Class = "disabled"
	ClassCheckIn  Class = "check-in"
	ClassCheckOut Class = "check-out"
	ClassInRange  Class = "in-range"
	ClassEmpty    Class = "empty"
)

// Cell is one square of the month grid. Padding cells have no date.
type Cell struct {
	Date  *domain.Date `json:"date,omitempty"`
	Day   int          `json:"day,omitempty"`
	Class Class        `json:"class"`
}

type State struct {
	Month    domain.Date   `json:"month"`
	CheckIn  *domain.Date  `json:"check_in"`
	CheckOut *domain.Date  `json:"check_out"`
	Disabled []domain.Date `json:"disabled,omitempty"`
}

// NewState opens on today's month with nothing selected.
func NewState(today domain.Date, disabled []domain.Date) State {
	return State{
		Month:    today.AddMonths(0),
		Disabled: append([]domain.Date(nil), disabled...),
	}
}

func (s State) Range() domain.DateRange {
	return domain.DateRange{CheckIn: s.CheckIn, CheckOut: s.CheckOut}
}

func (s State) Phase() Phase {
	if s.CheckIn == nil || s.CheckOut != nil {
		return AwaitingCheckIn
	}
	return AwaitingCheckOut
}

func (s State) NextMonth() State {
	s.Month = s.Month.AddMonths(1)
	return s
}

func (s State) PrevMonth() State {
	s.Month = s.Month.AddMonths(-1)
	return s
}

func (s State) IsDisabled(d domain.Date) bool {
	for _, x := range s.Disabled {
		if x.Equal(d) {
			return true
		}
	}
	return false
}

// Select applies a click on d and reports whether the selection changed.
// A check-out on or before the check-in is ignored rather than restarting
// the range.
func (s State) Select(d domain.Date) (State, bool) {
	if d.IsZero() || s.IsDisabled(d) {
		return s, false
	}

	switch s.Phase() {
	case AwaitingCheckIn:
		in := d
		s.CheckIn = &in
		s.CheckOut = nil
		return s, true
	default:
		if !d.After(*s.CheckIn) {
			return s, false
		}
		out := d
		s.CheckOut = &out
		return s, true
	}
}

func (s State) Classify(d domain.Date) Class {
	switch {
	case s.IsDisabled(d):
		return ClassDisabled
	case s.CheckIn != nil && d.Equal(*s.CheckIn):
		return ClassCheckIn
	case s.CheckOut != nil && d.Equal(*s.CheckOut):
		return ClassCheckOut
	case s.CheckIn != nil && s.CheckOut != nil && d.After(*s.CheckIn) && d.Before(*s.CheckOut):
		return ClassInRange
	default:
		return ClassPlain
	}
}

// Grid lays out the displayed month starting on Sunday. Day 1 is preceded
// by one empty cell per weekday offset.
func (s State) Grid() []Cell {
	first := s.Month.AddMonths(0)
	days := first.AddMonths(1).AddDays(-1).Day()
	offset := int(first.Weekday())

	cells := make([]Cell, 0, offset+days)
	for i := 0; i < offset; i++ {
		cells = append(cells, Cell{Class: ClassEmpty})
	}
	for day := 1; day <= days; day++ {
		d := first.AddDays(day - 1)
		cells = append(cells, Cell{Date: &d, Day: day, Class: s.Classify(d)})
	}
	return cells
}

// Title is the month heading, e.g. "January 2024".
func (s State) Title() string {
	return s.Month.Time().Format("January 2006")
}

var Weekdays = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// Picker wraps State with change notifications for callers that hold a
// long-lived picker.
type Picker struct {
	state    State
	onChange []func(domain.DateRange)
}

func New(today domain.Date, disabled []domain.Date) *Picker {
	return &Picker{state: NewState(today, disabled)}
}

func (p *Picker) OnChange(fn func(domain.DateRange)) {
	p.onChange = append(p.onChange, fn)
}

func (p *Picker) SelectDate(d domain.Date) bool {
	next, changed := p.state.Select(d)
	p.state = next
	if changed {
		for _, fn := range p.onChange {
			fn(next.Range())
		}
	}
	return changed
}

func (p *Picker) NextMonth() { p.state = p.state.NextMonth() }
func (p *Picker) PrevMonth() { p.state = p.state.PrevMonth() }
func (p *Picker) State() State { return p.state }
func (p *Picker) Grid() []Cell { return p.state.Grid() }
func (p *Picker) Title() string { return p.state.Title() }
