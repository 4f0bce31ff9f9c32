package models

import (
	"strconv"
	"strings"
	"time"
)

const (
	UnknownCity    = "Unknown city"
	UnknownVehicle = "Unknown vehicle"
	FlexibleTiming = "Flexible"
)

// ServiceRequest is the unified view over repair and towing requests.
type ServiceRequest struct {
	Id          string      `json:"id"`
	Source      Source      `json:"source"`
	CustomerId  string      `json:"customerId"`
	Status      string      `json:"status"`
	Amount      *float64    `json:"amount"`
	PricingType PricingType `json:"pricingType"`
	ServiceType string      `json:"serviceType"`
	Vehicle     string      `json:"vehicle"`
	City        string      `json:"city"`
	Location    string      `json:"location"`
	Destination string      `json:"destination,omitempty"`
	Description string      `json:"description"`
	Timing      string      `json:"timing"`
	CreatedAt   time.Time   `json:"createdAt"`
	BidStats    BidStats    `json:"bidStats"`
}

// RepairRequest is a row of the repair_requests table. Nullable columns are pointers.
type RepairRequest struct {
	Id           string
	CustomerId   string
	Status       string
	Budget       *float64
	PricingType  *string
	ServiceType  *string
	VehicleMake  *string
	VehicleModel *string
	VehicleYear  *int
	City         *string
	Address      *string
	Description  *string
	Urgency      *string
	CreatedAt    time.Time
}

func (r RepairRequest) Normalize() ServiceRequest {
	return ServiceRequest{
		Id:          r.Id,
		Source:      SourceRepair,
		CustomerId:  r.CustomerId,
		Status:      r.Status,
		Amount:      r.Budget,
		PricingType: pricingOrDefault(r.PricingType),
		ServiceType: orDefault(r.ServiceType, "repair"),
		Vehicle:     vehicleSummary(r.VehicleYear, r.VehicleMake, r.VehicleModel),
		City:        orDefault(r.City, UnknownCity),
		Location:    orDefault(r.Address, ""),
		Description: orDefault(r.Description, ""),
		Timing:      orDefault(r.Urgency, FlexibleTiming),
		CreatedAt:   r.CreatedAt,
	}
}

// TowingRequest is a row of the towing_requests table.
type TowingRequest struct {
	Id              string
	CustomerId      string
	Status          string
	TotalCost       *float64
	PricingType     *string
	VehicleInfo     *string
	PickupCity      *string
	PickupAddress   *string
	DropoffAddress  *string
	Notes           *string
	PreferredTiming *string
	CreatedAt       time.Time
}

func (t TowingRequest) Normalize() ServiceRequest {
	return ServiceRequest{
		Id:          t.Id,
		Source:      SourceTowing,
		CustomerId:  t.CustomerId,
		Status:      t.Status,
		Amount:      t.TotalCost,
		PricingType: pricingOrDefault(t.PricingType),
		ServiceType: "towing",
		Vehicle:     orDefault(t.VehicleInfo, UnknownVehicle),
		City:        orDefault(t.PickupCity, UnknownCity),
		Location:    orDefault(t.PickupAddress, ""),
		Destination: orDefault(t.DropoffAddress, ""),
		Description: orDefault(t.Notes, ""),
		Timing:      orDefault(t.PreferredTiming, FlexibleTiming),
		CreatedAt:   t.CreatedAt,
	}
}

func orDefault(s *string, def string) string {
	if s == nil || *s == "" {
		return def
	}
	return *s
}

func pricingOrDefault(s *string) PricingType {
	if s != nil && PricingType(*s) == PricingBid {
		return PricingBid
	}
	return PricingFixed
}

func vehicleSummary(year *int, vehicleMake, vehicleModel *string) string {
	parts := make([]string, 0, 3)
	if year != nil && *year > 0 {
		parts = append(parts, strconv.Itoa(*year))
	}
	if s := orDefault(vehicleMake, ""); s != "" {
		parts = append(parts, s)
	}
	if s := orDefault(vehicleModel, ""); s != "" {
		parts = append(parts, s)
	}
	if len(parts) == 0 {
		return UnknownVehicle
	}
	return strings.Join(parts, " ")
}
