package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/mmotors/backoffice/internal/model"
)

type RentalOptionRepository struct {
	db *gorm.DB
}

func NewRentalOptionRepository(db *gorm.DB) *RentalOptionRepository {
	return &RentalOptionRepository{db: db}
}

func (r *RentalOptionRepository) Create(option *model.RentalOption) error {
	if err := r.db.Create(option).Error; err != nil {
		return fmt.Errorf("create rental option failed: %w", err)
	}
	return nil
}

func (r *RentalOptionRepository) GetByID(id uint) (*model.RentalOption, error) {
	var option model.RentalOption
	if err := r.db.First(&option, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query rental option failed: %w", err)
	}
	return &option, nil
}

func (r *RentalOptionRepository) List() ([]model.RentalOption, error) {
	var options []model.RentalOption
	if err := r.db.Order("name ASC").Find(&options).Error; err != nil {
		return nil, fmt.Errorf("list rental options failed: %w", err)
	}
	return options, nil
}

func (r *RentalOptionRepository) Update(option *model.RentalOption) error {
	if err := r.db.Save(option).Error; err != nil {
		return fmt.Errorf("update rental option failed: %w", err)
	}
	return nil
}

func (r *RentalOptionRepository) Delete(id uint) error {
	if err := r.db.Delete(&model.RentalOption{}, id).Error; err != nil {
		return fmt.Errorf("delete rental option failed: %w", err)
	}
	return nil
}

type RentalServiceRepository struct {
	db *gorm.DB
}

func NewRentalServiceRepository(db *gorm.DB) *RentalServiceRepository {
	return &RentalServiceRepository{db: db}
}

// ServiceFilter narrows service listings. Zero values mean "no constraint".
type ServiceFilter struct {
	Type             model.ServiceType
	Status           model.ServiceStatus
	IsMandatory      *bool
	MaxPricePerMonth float64
}

func (r *RentalServiceRepository) Create(service *model.RentalService) error {
	if err := r.db.Create(service).Error; err != nil {
		return fmt.Errorf("create rental service failed: %w", err)
	}
	return nil
}

func (r *RentalServiceRepository) GetByID(id uint) (*model.RentalService, error) {
	var service model.RentalService
	if err := r.db.First(&service, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query rental service failed: %w", err)
	}
	return &service, nil
}

func (r *RentalServiceRepository) List(filter ServiceFilter) ([]model.RentalService, error) {
	q := r.db.Model(&model.RentalService{})
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.IsMandatory != nil {
		q = q.Where("is_mandatory = ?", *filter.IsMandatory)
	}
	if filter.MaxPricePerMonth > 0 {
		q = q.Where("price_per_month <= ?", filter.MaxPricePerMonth)
	}

	var services []model.RentalService
	if err := q.Order("name ASC").Find(&services).Error; err != nil {
		return nil, fmt.Errorf("list rental services failed: %w", err)
	}
	return services, nil
}

func (r *RentalServiceRepository) Update(service *model.RentalService) error {
	if err := r.db.Save(service).Error; err != nil {
		return fmt.Errorf("update rental service failed: %w", err)
	}
	return nil
}

// AttachToDossier records a dossier's subscription to a service.
func (r *RentalServiceRepository) AttachToDossier(link *model.DossierService) error {
	if err := r.db.Create(link).Error; err != nil {
		return fmt.Errorf("attach service to dossier failed: %w", err)
	}
	return nil
}

func (r *RentalServiceRepository) DetachFromDossier(dossierID, serviceID uint) error {
	if err := r.db.Where("dossier_id = ? AND service_id = ?", dossierID, serviceID).
		Delete(&model.DossierService{}).Error; err != nil {
		return fmt.Errorf("detach service from dossier failed: %w", err)
	}
	return nil
}

func (r *RentalServiceRepository) ListForDossier(dossierID uint) ([]model.DossierService, error) {
	var links []model.DossierService
	if err := r.db.Where("dossier_id = ?", dossierID).Find(&links).Error; err != nil {
		return nil, fmt.Errorf("list dossier services failed: %w", err)
	}
	return links, nil
}

func (r *RentalServiceRepository) GetDossierLink(dossierID, serviceID uint) (*model.DossierService, error) {
	var link model.DossierService
	err := r.db.Where("dossier_id = ? AND service_id = ?", dossierID, serviceID).First(&link).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query dossier service link failed: %w", err)
	}
	return &link, nil
}
