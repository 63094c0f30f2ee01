// Package places is a small client for the Google Places API (New).
//
// The Place type mirrors the REST representation and is also what the action
// server stores inside Rasa slots, so its JSON form must stay stable.
package places

import "strings"

type LatLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type Viewport struct {
	Low  LatLng `json:"low"`
	High LatLng `json:"high"`
}

type LocalizedText struct {
	Text         string `json:"text"`
	LanguageCode string `json:"languageCode,omitempty"`
}

type PriceLevel string

const (
	PriceLevelUnspecified   PriceLevel = "PRICE_LEVEL_UNSPECIFIED"
	PriceLevelFree          PriceLevel = "PRICE_LEVEL_FREE"
	PriceLevelInexpensive   PriceLevel = "PRICE_LEVEL_INEXPENSIVE"
	PriceLevelModerate      PriceLevel = "PRICE_LEVEL_MODERATE"
	PriceLevelExpensive     PriceLevel = "PRICE_LEVEL_EXPENSIVE"
	PriceLevelVeryExpensive PriceLevel = "PRICE_LEVEL_VERY_EXPENSIVE"
)

// Label is the human form of the level: "inexpensive", "very expensive", ...
func (p PriceLevel) Label() string {
	if p == "" || p == PriceLevelUnspecified {
		return ""
	}
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(string(p), "PRICE_LEVEL_")), "_", " ")
}

type ParkingOptions struct {
	FreeParkingLot    *bool `json:"freeParkingLot,omitempty"`
	PaidParkingLot    *bool `json:"paidParkingLot,omitempty"`
	FreeStreetParking *bool `json:"freeStreetParking,omitempty"`
	PaidStreetParking *bool `json:"paidStreetParking,omitempty"`
	ValetParking      *bool `json:"valetParking,omitempty"`
	FreeGarageParking *bool `json:"freeGarageParking,omitempty"`
	PaidGarageParking *bool `json:"paidGarageParking,omitempty"`
}

type PaymentOptions struct {
	AcceptsCreditCards *bool `json:"acceptsCreditCards,omitempty"`
	AcceptsDebitCards  *bool `json:"acceptsDebitCards,omitempty"`
	AcceptsCashOnly    *bool `json:"acceptsCashOnly,omitempty"`
	AcceptsNfc         *bool `json:"acceptsNfc,omitempty"`
}

type Place struct {
	ID                     string          `json:"id,omitempty"`
	DisplayName            *LocalizedText  `json:"displayName,omitempty"`
	PrimaryType            string          `json:"primaryType,omitempty"`
	PrimaryTypeDisplayName *LocalizedText  `json:"primaryTypeDisplayName,omitempty"`
	FormattedAddress       string          `json:"formattedAddress,omitempty"`
	ShortFormattedAddress  string          `json:"shortFormattedAddress,omitempty"`
	NationalPhoneNumber    string          `json:"nationalPhoneNumber,omitempty"`
	Location               *LatLng         `json:"location,omitempty"`
	Viewport               *Viewport       `json:"viewport,omitempty"`
	Rating                 *float64        `json:"rating,omitempty"`
	PriceLevel             PriceLevel      `json:"priceLevel,omitempty"`
	WebsiteURI             string          `json:"websiteUri,omitempty"`
	AllowsDogs             *bool           `json:"allowsDogs,omitempty"`
	GoodForChildren        *bool           `json:"goodForChildren,omitempty"`
	MenuForChildren        *bool           `json:"menuForChildren,omitempty"`
	OutdoorSeating         *bool           `json:"outdoorSeating,omitempty"`
	Reservable             *bool           `json:"reservable,omitempty"`
	Restroom               *bool           `json:"restroom,omitempty"`
	ServesVegetarianFood   *bool           `json:"servesVegetarianFood,omitempty"`
	Takeout                *bool           `json:"takeout,omitempty"`
	ParkingOptions         *ParkingOptions `json:"parkingOptions,omitempty"`
	PaymentOptions         *PaymentOptions `json:"paymentOptions,omitempty"`
	RegularOpeningHours    *OpeningHours   `json:"regularOpeningHours,omitempty"`
}

// Name returns the display name text, or "" when the field was not requested.
func (p *Place) Name() string {
	if p == nil || p.DisplayName == nil {
		return ""
	}
	return p.DisplayName.Text
}

// TypeName returns the localized primary type ("Italian Restaurant").
func (p *Place) TypeName() string {
	if p == nil || p.PrimaryTypeDisplayName == nil {
		return ""
	}
	return p.PrimaryTypeDisplayName.Text
}

// Address prefers the short address and falls back to the formatted one.
func (p *Place) Address() string {
	if p == nil {
		return ""
	}
	if p.ShortFormattedAddress != "" {
		return p.ShortFormattedAddress
	}
	return p.FormattedAddress
}

// Bool dereferences an optional flag; ok is false when the API did not report it.
func Bool(v *bool) (value, ok bool) {
	if v == nil {
		return false, false
	}
	return *v, true
}
