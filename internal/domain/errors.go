package domain

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUpstream     = errors.New("upstream unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrConflict     = errors.New("conflict")
	ErrRateLimited  = errors.New("rate limited")
)

// Field keys used in FieldErrors.
const (
	FieldFullName = "fullName"
	FieldEmail    = "email"
	FieldPhone    = "phone"
	FieldAdults   = "adults"
	FieldChildren = "children"
	FieldGuests   = "guests"
	FieldCheckIn  = "checkIn"
	FieldCheckOut = "checkOut"
	FieldDates    = "dates"
	FieldSubmit   = "submit"
)

// MsgDatesTaken is reported when a stay covers a night another booking holds.
const MsgDatesTaken = "Selected dates are no longer available"

// FieldErrors maps a form field to its message. An empty map means valid.
type FieldErrors map[string]string

func (f FieldErrors) Error() string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+f[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (f FieldErrors) Valid() bool {
	return len(f) == 0
}

// Merge copies other into f, keeping f's message on duplicate keys.
func (f FieldErrors) Merge(other FieldErrors) FieldErrors {
	out := FieldErrors{}
	for k, v := range other {
		out[k] = v
	}
	for k, v := range f {
		out[k] = v
	}
	return out
}

// AsFieldErrors unwraps err into FieldErrors when it carries them.
func AsFieldErrors(err error) (FieldErrors, bool) {
	var fe FieldErrors
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}
