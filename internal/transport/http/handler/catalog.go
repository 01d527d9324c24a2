package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mmotors/backoffice/internal/app"
	"github.com/mmotors/backoffice/internal/model"
	"github.com/mmotors/backoffice/internal/repository"
	"github.com/mmotors/backoffice/internal/transport/http/middleware"
	"github.com/mmotors/backoffice/internal/transport/http/response"
)

// CatalogHandler serves the public vehicle/service/option catalog plus the
// admin write endpoints behind it.
type CatalogHandler struct {
	catalogService *app.CatalogService
}

func NewCatalogHandler(catalogService *app.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

func pathID(c *gin.Context) (uint, bool) {
	raw := c.Param("id")
	parsed, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || parsed == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid id")
		return 0, false
	}
	return uint(parsed), true
}

func queryBool(c *gin.Context, name string) *bool {
	raw, ok := c.GetQuery(name)
	if !ok {
		return nil
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &parsed
}

func queryFloat(c *gin.Context, name string) float64 {
	parsed, err := strconv.ParseFloat(c.Query(name), 64)
	if err != nil {
		return 0
	}
	return parsed
}

func (h *CatalogHandler) ListVehicles(c *gin.Context) {
	filter := repository.VehicleFilter{
		Brand:      c.Query("brand"),
		ForSale:    queryBool(c, "for_sale"),
		ForRent:    queryBool(c, "for_rent"),
		MaxPrice:   queryFloat(c, "max_price"),
		MaxMonthly: queryFloat(c, "max_monthly"),
		FuelType:   model.FuelType(c.Query("fuel_type")),
	}

	vehicles, err := h.catalogService.ListVehicles(filter)
	if err != nil {
		response.FromError(c, err, "list vehicles failed")
		return
	}
	response.OK(c, vehicles)
}

func (h *CatalogHandler) GetVehicle(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	vehicle, err := h.catalogService.GetVehicle(id)
	if err != nil {
		response.FromError(c, err, "fetch vehicle failed")
		return
	}
	response.OK(c, vehicle)
}

func (h *CatalogHandler) CreateVehicle(c *gin.Context) {
	actor, _ := middleware.Actor(c)

	var vehicle model.Vehicle
	if err := c.ShouldBindJSON(&vehicle); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}
	vehicle.ID = 0

	if err := h.catalogService.CreateVehicle(actor, &vehicle); err != nil {
		response.FromError(c, err, "create vehicle failed")
		return
	}
	response.OK(c, vehicle)
}

func (h *CatalogHandler) UpdateVehicle(c *gin.Context) {
	actor, _ := middleware.Actor(c)
	id, ok := pathID(c)
	if !ok {
		return
	}

	var vehicle model.Vehicle
	if err := c.ShouldBindJSON(&vehicle); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}
	vehicle.ID = id

	if err := h.catalogService.UpdateVehicle(actor, &vehicle); err != nil {
		response.FromError(c, err, "update vehicle failed")
		return
	}
	response.OK(c, vehicle)
}

func (h *CatalogHandler) DeleteVehicle(c *gin.Context) {
	actor, _ := middleware.Actor(c)
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.catalogService.DeleteVehicle(actor, id); err != nil {
		response.FromError(c, err, "delete vehicle failed")
		return
	}
	response.OK(c, gin.H{"deleted": id})
}

func (h *CatalogHandler) ListServices(c *gin.Context) {
	filter := repository.ServiceFilter{
		Type:             model.ServiceType(c.Query("type")),
		Status:           model.ServiceStatus(c.Query("status")),
		IsMandatory:      queryBool(c, "mandatory"),
		MaxPricePerMonth: queryFloat(c, "max_price_per_month"),
	}

	services, err := h.catalogService.ListServices(filter)
	if err != nil {
		response.FromError(c, err, "list rental services failed")
		return
	}
	response.OK(c, services)
}

func (h *CatalogHandler) GetService(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	service, err := h.catalogService.GetService(id)
	if err != nil {
		response.FromError(c, err, "fetch rental service failed")
		return
	}
	response.OK(c, service)
}

func (h *CatalogHandler) CreateService(c *gin.Context) {
	actor, _ := middleware.Actor(c)

	var service model.RentalService
	if err := c.ShouldBindJSON(&service); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}
	service.ID = 0

	if err := h.catalogService.CreateService(actor, &service); err != nil {
		response.FromError(c, err, "create rental service failed")
		return
	}
	response.OK(c, service)
}

func (h *CatalogHandler) UpdateService(c *gin.Context) {
	actor, _ := middleware.Actor(c)
	id, ok := pathID(c)
	if !ok {
		return
	}

	var service model.RentalService
	if err := c.ShouldBindJSON(&service); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}
	service.ID = id

	if err := h.catalogService.UpdateService(actor, &service); err != nil {
		response.FromError(c, err, "update rental service failed")
		return
	}
	response.OK(c, service)
}

func (h *CatalogHandler) DeactivateService(c *gin.Context) {
	actor, _ := middleware.Actor(c)
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.catalogService.DeactivateService(actor, id); err != nil {
		response.FromError(c, err, "deactivate rental service failed")
		return
	}
	response.OK(c, gin.H{"deactivated": id})
}

func (h *CatalogHandler) ListOptions(c *gin.Context) {
	options, err := h.catalogService.ListOptions()
	if err != nil {
		response.FromError(c, err, "list rental options failed")
		return
	}
	response.OK(c, options)
}

func (h *CatalogHandler) CreateOption(c *gin.Context) {
	actor, _ := middleware.Actor(c)

	var option model.RentalOption
	if err := c.ShouldBindJSON(&option); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}
	option.ID = 0

	if err := h.catalogService.CreateOption(actor, &option); err != nil {
		response.FromError(c, err, "create rental option failed")
		return
	}
	response.OK(c, option)
}

func (h *CatalogHandler) UpdateOption(c *gin.Context) {
	actor, _ := middleware.Actor(c)
	id, ok := pathID(c)
	if !ok {
		return
	}

	var option model.RentalOption
	if err := c.ShouldBindJSON(&option); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}
	option.ID = id

	if err := h.catalogService.UpdateOption(actor, &option); err != nil {
		response.FromError(c, err, "update rental option failed")
		return
	}
	response.OK(c, option)
}

func (h *CatalogHandler) DeleteOption(c *gin.Context) {
	actor, _ := middleware.Actor(c)
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.catalogService.DeleteOption(actor, id); err != nil {
		response.FromError(c, err, "delete rental option failed")
		return
	}
	response.OK(c, gin.H{"deleted": id})
}
