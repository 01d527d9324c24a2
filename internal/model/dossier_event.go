package model

import "time"

// Workflow event actions recorded in the audit trail.
const (
	EventDossierCreated     = "dossier.created"
	EventStatusUpdated      = "dossier.status_updated"
	EventDocumentsRequested = "dossier.documents_requested"
	EventDossierCancelled   = "dossier.cancelled"
)

// DossierEvent is one append-only audit record of a workflow transition.
// Events travel through the broker and are persisted by the event worker.
type DossierEvent struct {
	ID         uint          `gorm:"primaryKey" json:"id"`
	DossierID  uint          `gorm:"not null;index" json:"dossier_id"`
	Action     string        `gorm:"size:48;not null" json:"action"`
	FromStatus DossierStatus `gorm:"size:32" json:"from_status"`
	ToStatus   DossierStatus `gorm:"size:32" json:"to_status"`
	ActorID    uint          `json:"actor_id"`
	Note       string        `gorm:"type:text" json:"note,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
}
