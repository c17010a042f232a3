package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// TaxRate is the flat tax applied to the room total.
var TaxRate = decimal.RequireFromString("0.18")

type PriceBreakdown struct {
	Nights    int             `json:"nights"`
	Rate      decimal.Decimal `json:"rate"`
	RoomTotal decimal.Decimal `json:"room_total"`
	Tax       decimal.Decimal `json:"tax"`
	Total     decimal.Decimal `json:"total"`
}

// ComputeTotal prices a stay at rate per night. Amounts keep full precision;
// rounding belongs to presentation. A stay shorter than one night yields a
// FieldErrors value keyed on "dates".
func ComputeTotal(rate decimal.Decimal, checkIn, checkOut Date) (PriceBreakdown, error) {
	if checkIn.IsZero() || checkOut.IsZero() {
		return PriceBreakdown{}, FieldErrors{FieldDates: "Check-in and check-out dates are required"}
	}
	nights := Nights(checkIn, checkOut)
	if nights < 1 {
		return PriceBreakdown{}, FieldErrors{FieldDates: "Minimum one night stay required"}
	}
	if rate.IsNegative() {
		return PriceBreakdown{}, fmt.Errorf("negative room rate %s", rate)
	}

	roomTotal := rate.Mul(decimal.NewFromInt(int64(nights)))
	tax := roomTotal.Mul(TaxRate)
	return PriceBreakdown{
		Nights:    nights,
		Rate:      rate,
		RoomTotal: roomTotal,
		Tax:       tax,
		Total:     roomTotal.Add(tax),
	}, nil
}

// PriceRange is ComputeTotal for a DateRange that may be incomplete.
func PriceRange(rate decimal.Decimal, r DateRange) (PriceBreakdown, error) {
	if !r.Complete() {
		return PriceBreakdown{}, FieldErrors{FieldDates: "Check-in and check-out dates are required"}
	}
	return ComputeTotal(rate, *r.CheckIn, *r.CheckOut)
}
