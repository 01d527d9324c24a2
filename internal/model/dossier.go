package model

import (
	"encoding/json"
	"fmt"
	"time"
)

type DossierType string

const (
	DossierTypePurchase DossierType = "purchase"
	DossierTypeRental   DossierType = "rental"
)

func (t DossierType) Valid() bool {
	return t == DossierTypePurchase || t == DossierTypeRental
}

// DossierStatus is the single status representation used across storage,
// services and the wire format.
type DossierStatus string

const (
	DossierPending          DossierStatus = "pending"
	DossierInProgress       DossierStatus = "in_progress"
	DossierDocumentsMissing DossierStatus = "documents_missing"
	DossierAccepted         DossierStatus = "accepted"
	DossierRejected         DossierStatus = "rejected"
	DossierCancelled        DossierStatus = "cancelled"
)

func (s DossierStatus) Valid() bool {
	switch s {
	case DossierPending, DossierInProgress, DossierDocumentsMissing,
		DossierAccepted, DossierRejected, DossierCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is permitted.
func (s DossierStatus) IsTerminal() bool {
	switch s {
	case DossierAccepted, DossierRejected, DossierCancelled:
		return true
	}
	return false
}

// BlockingStatuses are the statuses under which a user may not open another
// dossier for the same vehicle. DOCUMENTS_MISSING is intentionally excluded,
// matching observed behavior.
var BlockingStatuses = []DossierStatus{DossierPending, DossierInProgress}

// DossierDocument is one entry of a dossier's ordered document list.
type DossierDocument struct {
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	URL        string    `json:"url"`
	UploadedAt time.Time `json:"uploaded_at"`
	Status     string    `json:"status"`
	Comment    string    `json:"comment,omitempty"`
}

// Dossier is one application for purchasing or renting a specific vehicle
// by a specific user. Dossiers are never hard-deleted: cancellation is a
// terminal status, not a row removal.
type Dossier struct {
	ID        uint          `gorm:"primaryKey" json:"id"`
	UserID    uint          `gorm:"not null;index" json:"user_id"`
	VehicleID uint          `gorm:"not null;index" json:"vehicle_id"`
	Type      DossierType   `gorm:"size:16;not null" json:"type"`
	Status    DossierStatus `gorm:"size:32;not null;index" json:"status"`

	MonthlyIncome               float64   `json:"monthly_income"`
	EmploymentContractType      string    `gorm:"size:50" json:"employment_contract_type"`
	EmployerName                string    `gorm:"size:100" json:"employer_name"`
	EmploymentStartDate         time.Time `json:"employment_start_date"`
	CurrentLoansMonthlyPayments float64   `json:"current_loans_monthly_payments"`
	DesiredRentalMonths         int       `json:"desired_rental_months,omitempty"` // rental dossiers only

	Comments      string `gorm:"type:text" json:"comments"`
	AdminComments string `gorm:"type:text" json:"admin_comments"`
	Documents     string `gorm:"type:text" json:"-"` // JSON array of DossierDocument

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DocumentList returns the parsed document list; empty on parse error.
func (d *Dossier) DocumentList() []DossierDocument {
	if d.Documents == "" {
		return nil
	}
	var docs []DossierDocument
	_ = json.Unmarshal([]byte(d.Documents), &docs)
	return docs
}

// SetDocumentList stores the document list as JSON.
func (d *Dossier) SetDocumentList(docs []DossierDocument) {
	if len(docs) == 0 {
		d.Documents = "[]"
		return
	}
	b, _ := json.Marshal(docs)
	d.Documents = string(b)
}

// AppendAdminComment appends a timestamped note to the admin-comment log.
// The log is append-only: callers must not reset it.
func (d *Dossier) AppendAdminComment(at time.Time, note string) {
	entry := fmt.Sprintf("[%s] %s", at.UTC().Format(time.RFC3339), note)
	if d.AdminComments == "" {
		d.AdminComments = entry
		return
	}
	d.AdminComments += "\n" + entry
}
