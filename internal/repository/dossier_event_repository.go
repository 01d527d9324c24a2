package repository

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/mmotors/backoffice/internal/model"
)

type DossierEventRepository struct {
	db *gorm.DB
}

func NewDossierEventRepository(db *gorm.DB) *DossierEventRepository {
	return &DossierEventRepository{db: db}
}

func (r *DossierEventRepository) Create(event *model.DossierEvent) error {
	if err := r.db.Create(event).Error; err != nil {
		return fmt.Errorf("create dossier event failed: %w", err)
	}
	return nil
}

func (r *DossierEventRepository) ListByDossierID(dossierID uint) ([]model.DossierEvent, error) {
	var events []model.DossierEvent
	if err := r.db.Where("dossier_id = ?", dossierID).
		Order("id ASC").Find(&events).Error; err != nil {
		return nil, fmt.Errorf("list dossier events failed: %w", err)
	}
	return events, nil
}
