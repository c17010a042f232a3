package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryDeluxe            Category = "Deluxe"
	CategorySuite             Category = "Suite"
	CategoryHeritageSuite     Category = "Heritage Suite"
	CategoryRoyalSuite        Category = "Royal Suite"
	CategoryPresidentialSuite Category = "Presidential Suite"
)

// Categories lists every room category in catalog order.
var Categories = []Category{
	CategoryDeluxe,
	CategorySuite,
	CategoryHeritageSuite,
	CategoryRoyalSuite,
	CategoryPresidentialSuite,
}

func ParseCategory(s string) (Category, error) {
	for _, c := range Categories {
		if strings.EqualFold(string(c), strings.TrimSpace(s)) {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown room category %q", s)
}

type Room struct {
	ID          string          `json:"id"`
	Category    Category        `json:"category"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Size        int             `json:"size"`
	Occupancy   int             `json:"occupancy"`
	Rate        decimal.Decimal `json:"rate"`
	Amenities   []string        `json:"amenities"`
	Images      []string        `json:"images"`
	IsAvailable bool            `json:"is_available"`
}

// CoverImage is the first gallery image, or "" for a room without images.
func (r Room) CoverImage() string {
	if len(r.Images) == 0 {
		return ""
	}
	return r.Images[0]
}

type Icon string

const (
	IconNone    Icon = ""
	IconWifi    Icon = "wifi"
	IconTV      Icon = "tv"
	IconCoffee  Icon = "coffee"
	IconAC      Icon = "wind"
	IconMiniBar Icon = "martini"
	IconPool    Icon = "waves"
	IconJacuzzi Icon = "bath"
	IconBalcony Icon = "balcony"
)

// amenityIcons maps the amenity labels used in the rooms table to icons.
// Keys are lower case.
var amenityIcons = map[string]Icon{
	"wifi":             IconWifi,
	"free wifi":        IconWifi,
	"free wi-fi":       IconWifi,
	"wi-fi":            IconWifi,
	"tv":               IconTV,
	"smart tv":         IconTV,
	"flat screen tv":   IconTV,
	"coffee maker":     IconCoffee,
	"tea/coffee maker": IconCoffee,
	"ac":               IconAC,
	"air conditioning": IconAC,
	"mini bar":         IconMiniBar,
	"private pool":     IconPool,
	"jacuzzi":          IconJacuzzi,
	"private balcony":  IconBalcony,
}

func AmenityIcon(amenity string) Icon {
	return amenityIcons[strings.ToLower(strings.TrimSpace(amenity))]
}

type Amenity struct {
	Label string `json:"label"`
	Icon  Icon   `json:"icon,omitempty"`
}

func (r Room) AmenityList() []Amenity {
	out := make([]Amenity, 0, len(r.Amenities))
	for _, a := range r.Amenities {
		out = append(out, Amenity{Label: a, Icon: AmenityIcon(a)})
	}
	return out
}
