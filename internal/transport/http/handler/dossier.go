package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mmotors/backoffice/internal/app"
	"github.com/mmotors/backoffice/internal/model"
	"github.com/mmotors/backoffice/internal/repository"
	"github.com/mmotors/backoffice/internal/transport/http/middleware"
	"github.com/mmotors/backoffice/internal/transport/http/response"
)

type DossierHandler struct {
	dossierService *app.DossierService
}

func NewDossierHandler(dossierService *app.DossierService) *DossierHandler {
	return &DossierHandler{dossierService: dossierService}
}

type CreateDossierRequest struct {
	VehicleID                   uint      `json:"vehicle_id" binding:"required"`
	Type                        string    `json:"type" binding:"required"`
	MonthlyIncome               float64   `json:"monthly_income" binding:"required"`
	EmploymentContractType      string    `json:"employment_contract_type"`
	EmployerName                string    `json:"employer_name"`
	EmploymentStartDate         time.Time `json:"employment_start_date"`
	CurrentLoansMonthlyPayments float64   `json:"current_loans_monthly_payments"`
	DesiredRentalMonths         int       `json:"desired_rental_months"`
	Comments                    string    `json:"comments"`
}

func (h *DossierHandler) Create(c *gin.Context) {
	actor, _ := middleware.Actor(c)

	var req CreateDossierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	dossier, err := h.dossierService.Create(c.Request.Context(), actor, app.CreateDossierInput{
		VehicleID:                   req.VehicleID,
		Type:                        model.DossierType(req.Type),
		MonthlyIncome:               req.MonthlyIncome,
		EmploymentContractType:      req.EmploymentContractType,
		EmployerName:                req.EmployerName,
		EmploymentStartDate:         req.EmploymentStartDate,
		CurrentLoansMonthlyPayments: req.CurrentLoansMonthlyPayments,
		DesiredRentalMonths:         req.DesiredRentalMonths,
		Comments:                    req.Comments,
	})
	if err != nil {
		response.FromError(c, err, "create dossier failed")
		return
	}
	response.OK(c, dossier)
}

func (h *DossierHandler) ListMine(c *gin.Context) {
	actor, _ := middleware.Actor(c)

	dossiers, err := h.dossierService.ListMine(actor, model.DossierStatus(c.Query("status")))
	if err != nil {
		response.FromError(c, err, "list dossiers failed")
		return
	}
	response.OK(c, dossiers)
}

func (h *DossierHandler) Get(c *gin.Context) {
	actor, _ := middleware.Actor(c)
	id, ok := pathID(c)
	if !ok {
		return
	}

	dossier, err := h.dossierService.Get(actor, id)
	if err != nil {
		response.FromError(c, err, "fetch dossier failed")
		return
	}
	response.OK(c, dossier)
}

type UpdateDossierRequest struct {
	MonthlyIncome               *float64   `json:"monthly_income"`
	EmploymentContractType      *string    `json:"employment_contract_type"`
	EmployerName                *string    `json:"employer_name"`
	EmploymentStartDate         *time.Time `json:"employment_start_date"`
	CurrentLoansMonthlyPayments *float64   `json:"current_loans_monthly_payments"`
	DesiredRentalMonths         *int       `json:"desired_rental_months"`
	Comments                    *string    `json:"comments"`
	Status                      *string    `json:"status"`
	AdminComments               *string    `json:"admin_comments"`
}

func (h *DossierHandler) Update(c *gin.Context) {
	actor, _ := middleware.Actor(c)
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req UpdateDossierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	patch := app.FieldPatch{
		MonthlyIncome:               req.MonthlyIncome,
		EmploymentContractType:      req.EmploymentContractType,
		EmployerName:                req.EmployerName,
		EmploymentStartDate:         req.EmploymentStartDate,
		CurrentLoansMonthlyPayments: req.CurrentLoansMonthlyPayments,
		DesiredRentalMonths:         req.DesiredRentalMonths,
		Comments:                    req.Comments,
		AdminComments:               req.AdminComments,
	}
	if req.Status != nil {
		status := model.DossierStatus(*req.Status)
		patch.Status = &status
	}

	dossier, err := h.dossierService.UpdateFields(actor, id, patch)
	if err != nil {
		response.FromError(c, err, "update dossier failed")
		return
	}
	response.OK(c, dossier)
}

func (h *DossierHandler) Cancel(c *gin.Context) {
	actor, _ := middleware.Actor(c)
	id, ok := pathID(c)
	if !ok {
		return
	}

	dossier, err := h.dossierService.Cancel(c.Request.Context(), actor, id)
	if err != nil {
		response.FromError(c, err, "cancel dossier failed")
		return
	}
	response.OK(c, dossier)
}

type AddDocumentRequest struct {
	Type string `json:"type" binding:"required"`
	Name string `json:"name" binding:"required"`
	URL  string `json:"url"`
}

func (h *DossierHandler) AddDocument(c *gin.Context) {
	actor, _ := middleware.Actor(c)
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req AddDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	dossier, err := h.dossierService.AddDocument(actor, id, req.Type, req.Name, req.URL)
	if err != nil {
		response.FromError(c, err, "add document failed")
		return
	}
	response.OK(c, dossier)
}

type AttachServiceRequest struct {
	ServiceID    uint       `json:"service_id" binding:"required"`
	MonthlyPrice *float64   `json:"monthly_price"`
	StartDate    *time.Time `json:"start_date"`
	EndDate      *time.Time `json:"end_date"`
}

func (h *DossierHandler) AttachService(c *gin.Context) {
	actor, _ := middleware.Actor(c)
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req AttachServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	input := app.AttachServiceInput{
		ServiceID:    req.ServiceID,
		MonthlyPrice: req.MonthlyPrice,
	}
	if req.StartDate != nil {
		input.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		input.EndDate = *req.EndDate
	}

	link, err := h.dossierService.AttachService(actor, id, input)
	if err != nil {
		response.FromError(c, err, "attach service failed")
		return
	}
	response.OK(c, link)
}

func (h *DossierHandler) DetachService(c *gin.Context) {
	actor, _ := middleware.Actor(c)
	id, ok := pathID(c)
	if !ok {
		return
	}
	serviceID, err := strconv.ParseUint(c.Param("serviceID"), 10, 32)
	if err != nil || serviceID == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid service id")
		return
	}

	if err := h.dossierService.DetachService(actor, id, uint(serviceID)); err != nil {
		response.FromError(c, err, "detach service failed")
		return
	}
	response.OK(c, gin.H{"detached": serviceID})
}

func (h *DossierHandler) ListServices(c *gin.Context) {
	actor, _ := middleware.Actor(c)
	id, ok := pathID(c)
	if !ok {
		return
	}

	links, err := h.dossierService.ListServices(actor, id)
	if err != nil {
		response.FromError(c, err, "list dossier services failed")
		return
	}
	response.OK(c, links)
}

// Admin endpoints.

func (h *DossierHandler) AdminList(c *gin.Context) {
	actor, _ := middleware.Actor(c)

	filter := repository.DossierFilter{
		Type:   model.DossierType(c.Query("type")),
		Status: model.DossierStatus(c.Query("status")),
	}
	if raw := c.Query("vehicle_id"); raw != "" {
		if parsed, err := strconv.ParseUint(raw, 10, 32); err == nil {
			filter.VehicleID = uint(parsed)
		}
	}
	if raw := c.Query("user_id"); raw != "" {
		if parsed, err := strconv.ParseUint(raw, 10, 32); err == nil {
			filter.UserID = uint(parsed)
		}
	}

	dossiers, err := h.dossierService.List(actor, filter)
	if err != nil {
		response.FromError(c, err, "list dossiers failed")
		return
	}
	response.OK(c, dossiers)
}

type UpdateStatusRequest struct {
	Status       string `json:"status" binding:"required"`
	AdminComment string `json:"admin_comment"`
}

func (h *DossierHandler) AdminUpdateStatus(c *gin.Context) {
	actor, _ := middleware.Actor(c)
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	dossier, err := h.dossierService.UpdateStatus(c.Request.Context(), actor, id, model.DossierStatus(req.Status), req.AdminComment)
	if err != nil {
		response.FromError(c, err, "update dossier status failed")
		return
	}
	response.OK(c, dossier)
}

type RequestDocumentsRequest struct {
	DocumentTypes []string `json:"document_types" binding:"required,min=1"`
	Message       string   `json:"message"`
}

func (h *DossierHandler) AdminRequestDocuments(c *gin.Context) {
	actor, _ := middleware.Actor(c)
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req RequestDocumentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	dossier, err := h.dossierService.RequestDocuments(c.Request.Context(), actor, id, req.DocumentTypes, req.Message)
	if err != nil {
		response.FromError(c, err, "request documents failed")
		return
	}
	response.OK(c, dossier)
}

func (h *DossierHandler) AdminListEvents(c *gin.Context) {
	actor, _ := middleware.Actor(c)
	id, ok := pathID(c)
	if !ok {
		return
	}

	events, err := h.dossierService.ListEvents(actor, id)
	if err != nil {
		response.FromError(c, err, "list dossier events failed")
		return
	}
	response.OK(c, events)
}
