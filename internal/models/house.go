package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// HouseStatus is the occupancy state of a house.
type HouseStatus string

const (
	HouseVacant      HouseStatus = "vacant"
	HouseOccupied    HouseStatus = "occupied"
	HouseUnderRepair HouseStatus = "under_repair"
	HouseReserved    HouseStatus = "reserved"
)

// Valid reports whether s is a recognized status.
func (s HouseStatus) Valid() bool {
	switch s {
	case HouseVacant, HouseOccupied, HouseUnderRepair, HouseReserved:
		return true
	}
	return false
}

// HouseType is the unit layout.
type HouseType string

const (
	HouseOneBedroom   HouseType = "1_bedroom"
	HouseTwoBedroom   HouseType = "2_bedroom"
	HouseThreeBedroom HouseType = "3_bedroom"
	HouseFourBedroom  HouseType = "4_bedroom"
	HouseBedsitter    HouseType = "bedsitter"
)

func (t HouseType) Valid() bool {
	switch t {
	case HouseOneBedroom, HouseTwoBedroom, HouseThreeBedroom, HouseFourBedroom, HouseBedsitter:
		return true
	}
	return false
}

// House is a rentable unit in the estate.
type House struct {
	// ID is the unique identifier for the house (UUID format).
	ID string `json:"id"`

	// HouseNumber is the human-facing unit label (unique, e.g. "A12").
	HouseNumber string `json:"house_number"`

	HouseType HouseType   `json:"house_type"`
	Status    HouseStatus `json:"status"`
	Location  string      `json:"location"`

	// RentAmount is the monthly rent in KES.
	RentAmount decimal.Decimal `json:"rent_amount"`

	Bedrooms    int       `json:"bedrooms"`
	Bathrooms   int       `json:"bathrooms"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// HouseStats summarizes occupancy across the estate.
type HouseStats struct {
	Total         int     `json:"total"`
	Occupied      int     `json:"occupied"`
	Vacant        int     `json:"vacant"`
	UnderRepair   int     `json:"under_repair"`
	Reserved      int     `json:"reserved"`
	OccupancyRate float64 `json:"occupancy_rate"`
}
