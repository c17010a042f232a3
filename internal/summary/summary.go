// Package summary turns a draft or a stored booking into the figures and
// guest details shown to the guest before and after booking.
package summary

import (
	"io"
	"strconv"
	"text/template"

	"github.com/diagnosis/heritage-portal/internal/domain"
	"github.com/shopspring/decimal"
)

const (
	DefaultCurrency    = "₹"
	UnavailableMessage = "Room information not available"
	dateFormat         = "Mon, 2 Jan 2006"
)

type Line struct {
	Label  string `json:"label"`
	Amount string `json:"amount"`
}

type Guest struct {
	FullName        string `json:"full_name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Adults          int    `json:"adults"`
	Children        int    `json:"children"`
	SpecialRequests string `json:"special_requests,omitempty"`
}

type Summary struct {
	Available  bool   `json:"available"`
	Message    string `json:"message,omitempty"`
	BookingID  string `json:"booking_id,omitempty"`
	Status     string `json:"status,omitempty"`
	RoomName   string `json:"room_name,omitempty"`
	Category   string `json:"category,omitempty"`
	CoverImage string `json:"cover_image,omitempty"`
	CheckIn    string `json:"check_in,omitempty"`
	CheckOut   string `json:"check_out,omitempty"`
	Nights     int    `json:"nights"`
	Lines      []Line `json:"lines,omitempty"`
	Total      string `json:"total,omitempty"`
	Guest      Guest  `json:"guest"`
}

// Builder carries presentation settings.
type Builder struct {
	Currency string
}

func NewBuilder(currency string) Builder {
	if currency == "" {
		currency = DefaultCurrency
	}
	return Builder{Currency: currency}
}

// Build summarises a draft. A nil room is rendered as unavailable rather
// than failing, since stored bookings can outlive their room data.
func (b Builder) Build(room *domain.Room, r domain.DateRange, g domain.GuestInfo) Summary {
	s := Summary{Guest: guestOf(g)}
	if r.CheckIn != nil {
		s.CheckIn = r.CheckIn.Time().Format(dateFormat)
	}
	if r.CheckOut != nil {
		s.CheckOut = r.CheckOut.Time().Format(dateFormat)
	}
	s.Nights = r.Nights()

	if room == nil {
		s.Message = UnavailableMessage
		return s
	}
	s.Available = true
	s.RoomName = room.Name
	s.Category = string(room.Category)
	s.CoverImage = room.CoverImage()

	price, err := domain.PriceRange(room.Rate, r)
	if err != nil {
		return s
	}
	s.Lines = []Line{
		{Label: "Room Rate (" + b.Money(room.Rate) + " × " + nightsLabel(price.Nights) + ")", Amount: b.Money(price.RoomTotal)},
		{Label: "Taxes & Fees (18%)", Amount: b.Money(price.Tax)},
	}
	s.Total = b.Money(price.Total)
	return s
}

// FromBooking summarises a stored booking using its denormalised room.
// The stored total is reported as is.
func (b Builder) FromBooking(bk domain.Booking) Summary {
	s := b.Build(bk.Room, bk.Range(), bk.GuestInfo())
	s.BookingID = bk.ID
	s.Status = string(bk.Status)
	s.Total = b.Money(bk.TotalAmount)
	return s
}

// Money formats an amount with two decimals, e.g. "₹17700.00".
func (b Builder) Money(d decimal.Decimal) string {
	return b.Currency + d.StringFixed(2)
}

func Build(room *domain.Room, r domain.DateRange, g domain.GuestInfo) Summary {
	return NewBuilder(DefaultCurrency).Build(room, r, g)
}

func FromBooking(bk domain.Booking) Summary {
	return NewBuilder(DefaultCurrency).FromBooking(bk)
}

func nightsLabel(n int) string {
	if n == 1 {
		return "1 night"
	}
	return strconv.Itoa(n) + " nights"
}

func guestOf(g domain.GuestInfo) Guest {
	return Guest{
		FullName:        g.FullName,
		Email:           g.Email,
		Phone:           g.Phone,
		Adults:          g.Adults,
		Children:        g.Children,
		SpecialRequests: g.SpecialRequests,
	}
}

var textTemplate = template.Must(template.New("summary").Parse(`{{if .BookingID}}Booking {{.BookingID}}{{if .Status}} ({{.Status}}){{end}}
{{end}}{{if .Available}}{{.RoomName}} - {{.Category}}
{{else}}{{.Message}}
{{end}}Check-in:  {{.CheckIn}}
Check-out: {{.CheckOut}}
Nights:    {{.Nights}}
Guest:     {{.Guest.FullName}} <{{.Guest.Email}}>, {{.Guest.Phone}}
Guests:    {{.Guest.Adults}} adult(s), {{.Guest.Children}} child(ren)
{{with .Guest.SpecialRequests}}Requests:  {{.}}
{{end}}{{range .Lines}}{{.Label}}: {{.Amount}}
{{end}}{{if .Total}}Total: {{.Total}}
{{end}}`))

// Render writes a plain-text summary.
func (s Summary) Render(w io.Writer) error {
	return textTemplate.Execute(w, s)
}
