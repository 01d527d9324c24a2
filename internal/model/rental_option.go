package model

import "time"

// RentalOption is a named add-on priced per month.
type RentalOption struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:128;not null" json:"name"`
	Description  string    `gorm:"type:text" json:"description"`
	MonthlyPrice float64   `gorm:"not null" json:"monthly_price"`
	IsMandatory  bool      `gorm:"not null;default:false" json:"is_mandatory"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
