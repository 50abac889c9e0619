package models

import (
	"fmt"
	"strings"
	"time"
)

// ListingType is what the creator offers or asks for. The stored value is
// the upper-case token; DisplayName is for people.
type ListingType string

const (
	ListingDonation ListingType = "DONATION"
	ListingLoan     ListingType = "LOAN"
	ListingExchange ListingType = "EXCHANGE"
	ListingRequest  ListingType = "REQUEST"
)

// ListingTypes lists every type in display order.
var ListingTypes = []ListingType{ListingDonation, ListingLoan, ListingExchange, ListingRequest}

// ParseListingType accepts a stored token in any letter case.
func ParseListingType(s string) (ListingType, error) {
	t := ListingType(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range ListingTypes {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown listing type %q", s)
}

func (t ListingType) DisplayName() string {
	switch t {
	case ListingDonation:
		return "Doação"
	case ListingLoan:
		return "Empréstimo"
	case ListingExchange:
		return "Troca"
	case ListingRequest:
		return "Pedido"
	}
	return string(t)
}

// Campus is one of the university campuses a listing is located at.
type Campus string

const (
	CampusDarcyRibeiro Campus = "DARCY_RIBEIRO"
	CampusPlanaltina   Campus = "PLANALTINA"
	CampusCeilandia    Campus = "CEILANDIA"
	CampusGama         Campus = "GAMA"
)

var Campuses = []Campus{CampusDarcyRibeiro, CampusPlanaltina, CampusCeilandia, CampusGama}

// ParseCampus accepts a stored token in any letter case.
func ParseCampus(s string) (Campus, error) {
	c := Campus(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Campuses {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown campus %q", s)
}

func (c Campus) DisplayName() string {
	switch c {
	case CampusDarcyRibeiro:
		return "Darcy Ribeiro"
	case CampusPlanaltina:
		return "Planaltina"
	case CampusCeilandia:
		return "Ceilândia"
	case CampusGama:
		return "Gama"
	}
	return string(c)
}

type Listing struct {
	ID          string
	Title       string
	Description string
	Type        ListingType
	Campus      Campus
	CreatorID   string
	CreatedAt   time.Time
}
