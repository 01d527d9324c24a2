package model

import "time"

type FuelType string

const (
	FuelPetrol   FuelType = "petrol"
	FuelDiesel   FuelType = "diesel"
	FuelHybrid   FuelType = "hybrid"
	FuelElectric FuelType = "electric"
)

type TransmissionType string

const (
	TransmissionManual    TransmissionType = "manual"
	TransmissionAutomatic TransmissionType = "automatic"
)

// Vehicle is a unit of stock, offered for sale, long-term rental, or both.
type Vehicle struct {
	ID                 uint             `gorm:"primaryKey" json:"id"`
	Brand              string           `gorm:"size:100;not null;index" json:"brand"`
	Model              string           `gorm:"size:100;not null;index" json:"model"`
	Year               int              `gorm:"not null" json:"year"`
	Mileage            float64          `json:"mileage"`
	RegistrationNumber string           `gorm:"size:20;uniqueIndex" json:"registration_number"`
	Price              float64          `json:"price"`
	MonthlyRentalPrice float64          `json:"monthly_rental_price"`
	IsAvailableForSale bool             `gorm:"not null;default:true" json:"is_available_for_sale"`
	IsAvailableForRent bool             `gorm:"not null;default:false" json:"is_available_for_rent"`
	FuelType           FuelType         `gorm:"size:16" json:"fuel_type"`
	Transmission       TransmissionType `gorm:"size:16" json:"transmission"`
	Color              string           `gorm:"size:50" json:"color"`
	Doors              int              `json:"doors"`
	Seats              int              `json:"seats"`
	Features           string           `gorm:"type:text" json:"features"` // JSON object of equipment
	Images             string           `gorm:"type:text" json:"images"`   // JSON array of URLs
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
}
