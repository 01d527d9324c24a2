package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/mmotors/backoffice/internal/model"
)

type VehicleRepository struct {
	db *gorm.DB
}

func NewVehicleRepository(db *gorm.DB) *VehicleRepository {
	return &VehicleRepository{db: db}
}

// VehicleFilter narrows vehicle listings. Zero values mean "no constraint".
type VehicleFilter struct {
	Brand      string
	ForSale    *bool
	ForRent    *bool
	MaxPrice   float64
	MaxMonthly float64
	FuelType   model.FuelType
}

func (r *VehicleRepository) Create(vehicle *model.Vehicle) error {
	if err := r.db.Create(vehicle).Error; err != nil {
		return fmt.Errorf("create vehicle failed: %w", err)
	}
	return nil
}

func (r *VehicleRepository) GetByID(id uint) (*model.Vehicle, error) {
	var vehicle model.Vehicle
	if err := r.db.First(&vehicle, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query vehicle failed: %w", err)
	}
	return &vehicle, nil
}

func (r *VehicleRepository) List(filter VehicleFilter) ([]model.Vehicle, error) {
	q := r.db.Model(&model.Vehicle{})
	if filter.Brand != "" {
		q = q.Where("brand = ?", filter.Brand)
	}
	if filter.ForSale != nil {
		q = q.Where("is_available_for_sale = ?", *filter.ForSale)
	}
	if filter.ForRent != nil {
		q = q.Where("is_available_for_rent = ?", *filter.ForRent)
	}
	if filter.MaxPrice > 0 {
		q = q.Where("price <= ?", filter.MaxPrice)
	}
	if filter.MaxMonthly > 0 {
		q = q.Where("monthly_rental_price <= ?", filter.MaxMonthly)
	}
	if filter.FuelType != "" {
		q = q.Where("fuel_type = ?", filter.FuelType)
	}

	var vehicles []model.Vehicle
	if err := q.Order("created_at DESC").Find(&vehicles).Error; err != nil {
		return nil, fmt.Errorf("list vehicles failed: %w", err)
	}
	return vehicles, nil
}

func (r *VehicleRepository) Update(vehicle *model.Vehicle) error {
	if err := r.db.Save(vehicle).Error; err != nil {
		return fmt.Errorf("update vehicle failed: %w", err)
	}
	return nil
}

func (r *VehicleRepository) Delete(id uint) error {
	if err := r.db.Delete(&model.Vehicle{}, id).Error; err != nil {
		return fmt.Errorf("delete vehicle failed: %w", err)
	}
	return nil
}
