package model

import "time"

type ServiceType string

const (
	ServiceInsurance        ServiceType = "insurance"
	ServiceAssistance       ServiceType = "assistance"
	ServiceMaintenance      ServiceType = "maintenance"
	ServiceTechnicalControl ServiceType = "technical_control"
)

type ServiceStatus string

const (
	ServiceActive   ServiceStatus = "active"
	ServiceInactive ServiceStatus = "inactive"
)

// RentalService is a subscription service bundled with long-term rentals.
type RentalService struct {
	ID                 uint          `gorm:"primaryKey" json:"id"`
	Type               ServiceType   `gorm:"size:32;not null" json:"type"`
	Name               string        `gorm:"size:128;not null" json:"name"`
	Description        string        `gorm:"type:text" json:"description"`
	PricePerMonth      float64       `gorm:"not null" json:"price_per_month"`
	DurationMonths     int           `gorm:"not null" json:"duration_months"`
	IsMandatory        bool          `gorm:"not null;default:false" json:"is_mandatory"`
	TermsAndConditions string        `gorm:"type:text" json:"terms_and_conditions"`
	Status             ServiceStatus `gorm:"size:16;not null;default:active" json:"status"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

// DossierService links a rental service to a dossier, with the price and
// validity period frozen at subscription time.
type DossierService struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	DossierID    uint      `gorm:"not null;index:idx_dossier_service,unique" json:"dossier_id"`
	ServiceID    uint      `gorm:"not null;index:idx_dossier_service,unique" json:"service_id"`
	MonthlyPrice float64   `gorm:"not null" json:"monthly_price"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
	CreatedAt    time.Time `json:"created_at"`
}
