package models

import (
	"fmt"
	"time"
)

// PropertyType discriminates which feature variant a listing carries.
type PropertyType string

const (
	PropertyLand        PropertyType = "land"
	PropertyResidential PropertyType = "residential"
	PropertyCommercial  PropertyType = "commercial"
	PropertyIndustrial  PropertyType = "industrial"
)

func (t PropertyType) Valid() bool {
	switch t {
	case PropertyLand, PropertyResidential, PropertyCommercial, PropertyIndustrial:
		return true
	}
	return false
}

type ListingType string

const (
	ListingSale ListingType = "sale"
	ListingRent ListingType = "rent"
)

func (t ListingType) Valid() bool {
	return t == ListingSale || t == ListingRent
}

// PropertyStatus values for the moderation workflow.
type PropertyStatus string

const (
	PropertyPending  PropertyStatus = "pending"
	PropertyApproved PropertyStatus = "approved"
	PropertyRejected PropertyStatus = "rejected"
	PropertySold     PropertyStatus = "sold"
)

func (s PropertyStatus) Valid() bool {
	switch s {
	case PropertyPending, PropertyApproved, PropertyRejected, PropertySold:
		return true
	}
	return false
}

// Feature variants. Exactly one variant is populated per property, selected
// by PropertyType.

type ResidentialFeatures struct {
	Bedrooms  int  `json:"bedrooms"`
	Bathrooms int  `json:"bathrooms"`
	Floors    int  `json:"floors"`
	Furnished bool `json:"furnished"`
	Parking   bool `json:"parking"`
}

type CommercialFeatures struct {
	Rooms         int  `json:"rooms"`
	Floors        int  `json:"floors"`
	ParkingSpaces int  `json:"parking_spaces"`
	StreetFacing  bool `json:"street_facing"`
}

type IndustrialFeatures struct {
	CeilingHeightM float64 `json:"ceiling_height_m"`
	LoadingDocks   int     `json:"loading_docks"`
	PowerKVA       int     `json:"power_kva"`
}

type LandFeatures struct {
	Zoning     string `json:"zoning"`
	RoadAccess bool   `json:"road_access"`
	Serviced   bool   `json:"serviced"`
}

// Features holds the variant-specific feature group. At most one field is
// non-nil, and it must match the property's type.
type Features struct {
	Residential *ResidentialFeatures `json:"residential,omitempty"`
	Commercial  *CommercialFeatures  `json:"commercial,omitempty"`
	Industrial  *IndustrialFeatures  `json:"industrial,omitempty"`
	Land        *LandFeatures        `json:"land,omitempty"`
}

// Validate enforces the tagged-union invariant: exactly the variant that
// matches propertyType is set.
func (f Features) Validate(propertyType PropertyType) error {
	set := 0
	var match bool
	if f.Residential != nil {
		set++
		match = match || propertyType == PropertyResidential
	}
	if f.Commercial != nil {
		set++
		match = match || propertyType == PropertyCommercial
	}
	if f.Industrial != nil {
		set++
		match = match || propertyType == PropertyIndustrial
	}
	if f.Land != nil {
		set++
		match = match || propertyType == PropertyLand
	}

	if set != 1 {
		return fmt.Errorf("%w: exactly one feature group required, got %d", ErrBadRequest, set)
	}
	if !match {
		return fmt.Errorf("%w: feature group does not match property type %q", ErrBadRequest, propertyType)
	}
	return nil
}

// AmenitiesFor lists the amenities selectable for a property type.
var AmenitiesFor = map[PropertyType][]string{
	PropertyResidential: {"water", "electricity", "internet", "garden", "pool", "security", "elevator"},
	PropertyCommercial:  {"water", "electricity", "internet", "security", "elevator", "signage"},
	PropertyIndustrial:  {"water", "electricity", "security", "rail_access", "crane"},
	PropertyLand:        {"water", "electricity", "fenced"},
}

// ValidAmenity reports whether name is selectable for the given type.
func ValidAmenity(propertyType PropertyType, name string) bool {
	for _, a := range AmenitiesFor[propertyType] {
		if a == name {
			return true
		}
	}
	return false
}

type Property struct {
	ID           string
	OwnerID      string
	Title        string
	Slug         string
	Description  string
	PropertyType PropertyType
	ListingType  ListingType
	Price        float64
	Area         float64 // square meters
	Neighborhood string
	Address      string
	Latitude     float64
	Longitude    float64
	Images       []string
	Amenities    []string
	Features     Features
	ContactPhone string
	ContactEmail string
	Status       PropertyStatus
	AdminNotes   string
	Featured     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PubliclyVisible reports whether the listing may be shown to readers who
// are neither the owner nor an admin.
func (p *Property) PubliclyVisible() bool {
	return p.Status == PropertyApproved
}
