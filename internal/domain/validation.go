package domain

import (
	"fmt"
	"math"
	"regexp"
	"strings"
)

const (
	MinNights = 1
	MaxNights = 30
)

var (
	// Coarse shape check only: something@something.something.
	emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)
	phonePattern = regexp.MustCompile(`^\+?[\d\s-]{10,}$`)
)

func IsValidEmail(email string) bool {
	return emailPattern.MatchString(strings.TrimSpace(email))
}

func IsValidPhone(phone string) bool {
	return phonePattern.MatchString(strings.TrimSpace(phone))
}

// ValidateGuestInfo checks the guest form against the room being booked.
// Every rule is evaluated so several errors can be reported at once.
func ValidateGuestInfo(g GuestInfo, room Room) FieldErrors {
	errs := FieldErrors{}

	if strings.TrimSpace(g.FullName) == "" {
		errs[FieldFullName] = "Full name is required"
	}

	switch {
	case strings.TrimSpace(g.Email) == "":
		errs[FieldEmail] = "Email is required"
	case !IsValidEmail(g.Email):
		errs[FieldEmail] = "Invalid email format"
	}

	switch {
	case strings.TrimSpace(g.Phone) == "":
		errs[FieldPhone] = "Phone number is required"
	case !IsValidPhone(g.Phone):
		errs[FieldPhone] = "Invalid phone number format"
	}

	if g.Adults < 1 {
		errs[FieldAdults] = "At least one adult is required"
	}
	if g.Children < 0 {
		errs[FieldChildren] = "Children cannot be negative"
	}
	if guestsExceed(g.Adults, g.Children, room.Occupancy) {
		errs[FieldGuests] = fmt.Sprintf("Maximum %d guests allowed", room.Occupancy)
	}

	return errs
}

func ValidateDates(r DateRange) FieldErrors {
	errs := FieldErrors{}

	if r.CheckIn == nil {
		errs[FieldCheckIn] = "Check-in date is required"
	}
	if r.CheckOut == nil {
		errs[FieldCheckOut] = "Check-out date is required"
	}
	if r.Complete() {
		nights := r.Nights()
		if nights < MinNights {
			errs[FieldDates] = "Minimum one night stay required"
		}
		if nights > MaxNights {
			errs[FieldDates] = fmt.Sprintf("Maximum %d nights stay allowed", MaxNights)
		}
	}

	return errs
}

// guestsExceed reports adults+children > occupancy without wrapping.
func guestsExceed(adults, children, occupancy int) bool {
	if children > 0 && adults > math.MaxInt-children {
		return true
	}
	if children < 0 && adults < math.MinInt-children {
		return false
	}
	return adults+children > occupancy
}

// NormalizeGuestInfo trims free-text fields before validation and storage.
func NormalizeGuestInfo(g GuestInfo) GuestInfo {
	g.FullName = strings.TrimSpace(g.FullName)
	g.Email = strings.TrimSpace(g.Email)
	g.Phone = strings.TrimSpace(g.Phone)
	g.SpecialRequests = strings.TrimSpace(g.SpecialRequests)
	return g
}
