package repository

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mmotors/backoffice/internal/model"
)

type DossierRepository struct {
	db *gorm.DB
}

func NewDossierRepository(db *gorm.DB) *DossierRepository {
	return &DossierRepository{db: db}
}

// DossierFilter narrows dossier listings. Zero values mean "no constraint".
type DossierFilter struct {
	Type          model.DossierType
	Status        model.DossierStatus
	Statuses      []model.DossierStatus
	VehicleID     uint
	UserID        uint
	CreatedAfter  time.Time
	CreatedBefore time.Time
}

func (r *DossierRepository) Create(dossier *model.Dossier) error {
	if err := r.db.Create(dossier).Error; err != nil {
		return fmt.Errorf("create dossier failed: %w", err)
	}
	return nil
}

func (r *DossierRepository) GetByID(id uint) (*model.Dossier, error) {
	var dossier model.Dossier
	if err := r.db.First(&dossier, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query dossier failed: %w", err)
	}
	return &dossier, nil
}

func (r *DossierRepository) GetByIDAndUserID(id, userID uint) (*model.Dossier, error) {
	var dossier model.Dossier
	if err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&dossier).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query dossier failed: %w", err)
	}
	return &dossier, nil
}

// FindActive returns the user's dossier for the vehicle whose status is in
// the given set, or nil if none exists.
func (r *DossierRepository) FindActive(userID, vehicleID uint, statuses []model.DossierStatus) (*model.Dossier, error) {
	var dossier model.Dossier
	err := r.db.Where("user_id = ? AND vehicle_id = ? AND status IN ?", userID, vehicleID, statuses).
		First(&dossier).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query active dossier failed: %w", err)
	}
	return &dossier, nil
}

func (r *DossierRepository) List(filter DossierFilter) ([]model.Dossier, error) {
	q := r.db.Model(&model.Dossier{})
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if len(filter.Statuses) > 0 {
		q = q.Where("status IN ?", filter.Statuses)
	}
	if filter.VehicleID != 0 {
		q = q.Where("vehicle_id = ?", filter.VehicleID)
	}
	if filter.UserID != 0 {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if !filter.CreatedAfter.IsZero() {
		q = q.Where("created_at >= ?", filter.CreatedAfter)
	}
	if !filter.CreatedBefore.IsZero() {
		q = q.Where("created_at <= ?", filter.CreatedBefore)
	}

	var dossiers []model.Dossier
	if err := q.Order("created_at DESC").Find(&dossiers).Error; err != nil {
		return nil, fmt.Errorf("list dossiers failed: %w", err)
	}
	return dossiers, nil
}

func (r *DossierRepository) Update(dossier *model.Dossier) error {
	if err := r.db.Save(dossier).Error; err != nil {
		return fmt.Errorf("update dossier failed: %w", err)
	}
	return nil
}
