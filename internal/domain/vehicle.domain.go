package domain

import "time"

// Vehicle images are capped; documents are not.
const MaxVehicleImages = 3

const (
	VehicleFileImage    = "image"
	VehicleFileDocument = "document"
)

type Vehicle struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"userId"`
	PlateNumber        string    `json:"plateNumber"`
	Model              string    `json:"model"`
	SeatCount          int       `json:"seatCount"`
	TripType           string    `json:"tripType"`
	Color              string    `json:"color"`
	WindowType         string    `json:"windowType"`
	Sunroof            bool      `json:"sunroof"`
	FourByFour         bool      `json:"fourByFour"`
	AdditionalFeatures []string  `json:"additionalFeatures"`
	Images             []FileRef `json:"images"`
	Documents          []FileRef `json:"documents"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// PublicVehicle is a vehicle joined with the safe driver fields exposed on
// the unauthenticated listing.
type PublicVehicle struct {
	Vehicle
	Driver PublicDriver `json:"driver"`
}

type PublicDriver struct {
	UserID         string   `json:"userId"`
	FirstName      string   `json:"firstName"`
	Level          string   `json:"level"`
	Languages      []string `json:"languages"`
	ProfilePicture *string  `json:"profilePicture,omitempty"`
}

func IsValidTripType(v string) bool {
	switch v {
	case "centralized", "by-road", "both", "":
		return true
	}
	return false
}

func IsValidWindowType(v string) bool {
	switch v {
	case "glass", "canvas", "both", "":
		return true
	}
	return false
}
