package app

import (
	"strings"
	"time"

	"github.com/mmotors/backoffice/internal/model"
	"github.com/mmotors/backoffice/internal/repository"
)

// CatalogService manages the vehicle stock and the rental service and option
// catalog. Reads are public, writes are admin-only.
type CatalogService struct {
	vehicleRepo *repository.VehicleRepository
	serviceRepo *repository.RentalServiceRepository
	optionRepo  *repository.RentalOptionRepository
}

func NewCatalogService(
	vehicleRepo *repository.VehicleRepository,
	serviceRepo *repository.RentalServiceRepository,
	optionRepo *repository.RentalOptionRepository,
) *CatalogService {
	return &CatalogService{
		vehicleRepo: vehicleRepo,
		serviceRepo: serviceRepo,
		optionRepo:  optionRepo,
	}
}

func (s *CatalogService) ListVehicles(filter repository.VehicleFilter) ([]model.Vehicle, error) {
	return s.vehicleRepo.List(filter)
}

func (s *CatalogService) GetVehicle(id uint) (*model.Vehicle, error) {
	vehicle, err := s.vehicleRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if vehicle == nil {
		return nil, ErrNotFound
	}
	return vehicle, nil
}

func (s *CatalogService) CreateVehicle(actor Actor, vehicle *model.Vehicle) error {
	if !actor.IsAdmin {
		return ErrForbidden
	}
	if err := validateVehicle(vehicle); err != nil {
		return err
	}
	return s.vehicleRepo.Create(vehicle)
}

func (s *CatalogService) UpdateVehicle(actor Actor, vehicle *model.Vehicle) error {
	if !actor.IsAdmin {
		return ErrForbidden
	}
	if vehicle.ID == 0 {
		return ErrInvalidInput
	}
	if existing, err := s.vehicleRepo.GetByID(vehicle.ID); err != nil {
		return err
	} else if existing == nil {
		return ErrNotFound
	}
	if err := validateVehicle(vehicle); err != nil {
		return err
	}
	return s.vehicleRepo.Update(vehicle)
}

func (s *CatalogService) DeleteVehicle(actor Actor, id uint) error {
	if !actor.IsAdmin {
		return ErrForbidden
	}
	if _, err := s.GetVehicle(id); err != nil {
		return err
	}
	return s.vehicleRepo.Delete(id)
}

func validateVehicle(v *model.Vehicle) error {
	if strings.TrimSpace(v.Brand) == "" || strings.TrimSpace(v.Model) == "" {
		return ErrInvalidInput
	}
	if v.Year < 1950 || v.Year > time.Now().Year()+1 {
		return ErrInvalidInput
	}
	if v.Price < 0 || v.MonthlyRentalPrice < 0 || v.Mileage < 0 {
		return ErrInvalidInput
	}
	return nil
}

func (s *CatalogService) ListServices(filter repository.ServiceFilter) ([]model.RentalService, error) {
	return s.serviceRepo.List(filter)
}

func (s *CatalogService) GetService(id uint) (*model.RentalService, error) {
	service, err := s.serviceRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if service == nil {
		return nil, ErrNotFound
	}
	return service, nil
}

func (s *CatalogService) CreateService(actor Actor, service *model.RentalService) error {
	if !actor.IsAdmin {
		return ErrForbidden
	}
	if err := validateService(service); err != nil {
		return err
	}
	if service.Status == "" {
		service.Status = model.ServiceActive
	}
	return s.serviceRepo.Create(service)
}

func (s *CatalogService) UpdateService(actor Actor, service *model.RentalService) error {
	if !actor.IsAdmin {
		return ErrForbidden
	}
	if service.ID == 0 {
		return ErrInvalidInput
	}
	if existing, err := s.serviceRepo.GetByID(service.ID); err != nil {
		return err
	} else if existing == nil {
		return ErrNotFound
	}
	if err := validateService(service); err != nil {
		return err
	}
	return s.serviceRepo.Update(service)
}

// DeactivateService retires a service from the catalog without touching the
// dossiers already subscribed to it.
func (s *CatalogService) DeactivateService(actor Actor, id uint) error {
	if !actor.IsAdmin {
		return ErrForbidden
	}
	service, err := s.GetService(id)
	if err != nil {
		return err
	}
	service.Status = model.ServiceInactive
	return s.serviceRepo.Update(service)
}

func validateService(svc *model.RentalService) error {
	switch svc.Type {
	case model.ServiceInsurance, model.ServiceAssistance, model.ServiceMaintenance, model.ServiceTechnicalControl:
	default:
		return ErrInvalidInput
	}
	if strings.TrimSpace(svc.Name) == "" {
		return ErrInvalidInput
	}
	if svc.PricePerMonth < 0 || svc.DurationMonths < 0 {
		return ErrInvalidInput
	}
	return nil
}

func (s *CatalogService) ListOptions() ([]model.RentalOption, error) {
	return s.optionRepo.List()
}

func (s *CatalogService) GetOption(id uint) (*model.RentalOption, error) {
	option, err := s.optionRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if option == nil {
		return nil, ErrNotFound
	}
	return option, nil
}

func (s *CatalogService) CreateOption(actor Actor, option *model.RentalOption) error {
	if !actor.IsAdmin {
		return ErrForbidden
	}
	if strings.TrimSpace(option.Name) == "" || option.MonthlyPrice < 0 {
		return ErrInvalidInput
	}
	return s.optionRepo.Create(option)
}

func (s *CatalogService) UpdateOption(actor Actor, option *model.RentalOption) error {
	if !actor.IsAdmin {
		return ErrForbidden
	}
	if option.ID == 0 {
		return ErrInvalidInput
	}
	if existing, err := s.optionRepo.GetByID(option.ID); err != nil {
		return err
	} else if existing == nil {
		return ErrNotFound
	}
	if strings.TrimSpace(option.Name) == "" || option.MonthlyPrice < 0 {
		return ErrInvalidInput
	}
	return s.optionRepo.Update(option)
}

func (s *CatalogService) DeleteOption(actor Actor, id uint) error {
	if !actor.IsAdmin {
		return ErrForbidden
	}
	if _, err := s.GetOption(id); err != nil {
		return err
	}
	return s.optionRepo.Delete(id)
}
