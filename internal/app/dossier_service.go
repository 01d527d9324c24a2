package app

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/mmotors/backoffice/internal/model"
	"github.com/mmotors/backoffice/internal/repository"
)

// EventPublisher delivers workflow events to the audit pipeline. A nil
// publisher disables auditing; publish failures never fail the operation.
type EventPublisher interface {
	Publish(ctx context.Context, event model.DossierEvent) error
}

// DossierService is the workflow engine governing creation and status
// transitions of purchase/rental dossiers.
type DossierService struct {
	dossierRepo *repository.DossierRepository
	vehicleRepo *repository.VehicleRepository
	serviceRepo *repository.RentalServiceRepository
	eventRepo   *repository.DossierEventRepository
	events      EventPublisher
}

func NewDossierService(
	dossierRepo *repository.DossierRepository,
	vehicleRepo *repository.VehicleRepository,
	serviceRepo *repository.RentalServiceRepository,
	eventRepo *repository.DossierEventRepository,
	events EventPublisher,
) *DossierService {
	return &DossierService{
		dossierRepo: dossierRepo,
		vehicleRepo: vehicleRepo,
		serviceRepo: serviceRepo,
		eventRepo:   eventRepo,
		events:      events,
	}
}

type CreateDossierInput struct {
	VehicleID                   uint
	Type                        model.DossierType
	MonthlyIncome               float64
	EmploymentContractType      string
	EmployerName                string
	EmploymentStartDate         time.Time
	CurrentLoansMonthlyPayments float64
	DesiredRentalMonths         int
	Comments                    string
}

// Create opens a new dossier in PENDING for the calling user.
func (s *DossierService) Create(ctx context.Context, actor Actor, input CreateDossierInput) (*model.Dossier, error) {
	if actor.ID == 0 || !actor.IsActive {
		return nil, ErrForbidden
	}
	if input.VehicleID == 0 || !input.Type.Valid() {
		return nil, ErrInvalidInput
	}
	if input.MonthlyIncome <= 0 || input.CurrentLoansMonthlyPayments < 0 {
		return nil, ErrInvalidInput
	}
	if input.DesiredRentalMonths != 0 && (input.DesiredRentalMonths < 12 || input.DesiredRentalMonths > 84) {
		return nil, ErrInvalidInput
	}

	vehicle, err := s.vehicleRepo.GetByID(input.VehicleID)
	if err != nil {
		return nil, err
	}
	if vehicle == nil || !offeredFor(vehicle, input.Type) {
		return nil, fmt.Errorf("%w: vehicle unavailable for %s", ErrNotFound, input.Type)
	}

	existing, err := s.dossierRepo.FindActive(actor.ID, input.VehicleID, model.BlockingStatuses)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: dossier %d already open for this vehicle", ErrConflict, existing.ID)
	}

	dossier := &model.Dossier{
		UserID:                      actor.ID,
		VehicleID:                   input.VehicleID,
		Type:                        input.Type,
		Status:                      model.DossierPending,
		MonthlyIncome:               input.MonthlyIncome,
		EmploymentContractType:      strings.TrimSpace(input.EmploymentContractType),
		EmployerName:                strings.TrimSpace(input.EmployerName),
		EmploymentStartDate:         input.EmploymentStartDate,
		CurrentLoansMonthlyPayments: input.CurrentLoansMonthlyPayments,
		DesiredRentalMonths:         input.DesiredRentalMonths,
		Comments:                    strings.TrimSpace(input.Comments),
	}
	dossier.SetDocumentList(nil)
	if err := s.dossierRepo.Create(dossier); err != nil {
		return nil, err
	}

	s.publish(ctx, model.DossierEvent{
		DossierID: dossier.ID,
		Action:    model.EventDossierCreated,
		ToStatus:  dossier.Status,
		ActorID:   actor.ID,
	})
	return dossier, nil
}

// Get returns one dossier; owners see their own, admins see any.
func (s *DossierService) Get(actor Actor, dossierID uint) (*model.Dossier, error) {
	dossier, err := s.fetchFor(actor, dossierID)
	if err != nil {
		return nil, err
	}
	return dossier, nil
}

// List returns dossiers matching the filter. Unrestricted listing is
// admin-only.
func (s *DossierService) List(actor Actor, filter repository.DossierFilter) ([]model.Dossier, error) {
	if !actor.IsAdmin {
		return nil, ErrForbidden
	}
	return s.dossierRepo.List(filter)
}

// ListMine returns the caller's dossiers, optionally narrowed by status.
func (s *DossierService) ListMine(actor Actor, status model.DossierStatus) ([]model.Dossier, error) {
	if actor.ID == 0 {
		return nil, ErrInvalidInput
	}
	filter := repository.DossierFilter{UserID: actor.ID}
	if status != "" {
		if !status.Valid() {
			return nil, ErrInvalidInput
		}
		filter.Status = status
	}
	return s.dossierRepo.List(filter)
}

// UpdateStatus overwrites a dossier's status. Admin-only; terminal dossiers
// are frozen.
func (s *DossierService) UpdateStatus(ctx context.Context, actor Actor, dossierID uint, newStatus model.DossierStatus, adminComment string) (*model.Dossier, error) {
	if !actor.IsAdmin {
		return nil, ErrForbidden
	}
	if !newStatus.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, newStatus)
	}

	dossier, err := s.dossierRepo.GetByID(dossierID)
	if err != nil {
		return nil, err
	}
	if dossier == nil {
		return nil, ErrNotFound
	}
	if dossier.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: dossier is %s", ErrInvalidTransition, dossier.Status)
	}

	previous := dossier.Status
	dossier.Status = newStatus
	if comment := strings.TrimSpace(adminComment); comment != "" {
		dossier.AdminComments = comment
	}
	if err := s.dossierRepo.Update(dossier); err != nil {
		return nil, err
	}

	s.publish(ctx, model.DossierEvent{
		DossierID:  dossier.ID,
		Action:     model.EventStatusUpdated,
		FromStatus: previous,
		ToStatus:   newStatus,
		ActorID:    actor.ID,
		Note:       strings.TrimSpace(adminComment),
	})
	return dossier, nil
}

// RequestDocuments forces a non-terminal dossier to DOCUMENTS_MISSING and
// appends a timestamped entry to the admin-comment log. The log is an
// append-only audit trail: each call grows it.
func (s *DossierService) RequestDocuments(ctx context.Context, actor Actor, dossierID uint, documentTypes []string, message string) (*model.Dossier, error) {
	if !actor.IsAdmin {
		return nil, ErrForbidden
	}
	if len(documentTypes) == 0 {
		return nil, ErrInvalidInput
	}

	dossier, err := s.dossierRepo.GetByID(dossierID)
	if err != nil {
		return nil, err
	}
	if dossier == nil {
		return nil, ErrNotFound
	}
	if dossier.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: dossier is %s", ErrInvalidTransition, dossier.Status)
	}

	previous := dossier.Status
	dossier.Status = model.DossierDocumentsMissing
	note := fmt.Sprintf("Documents requested: %s\nMessage: %s",
		strings.Join(documentTypes, ", "), strings.TrimSpace(message))
	dossier.AppendAdminComment(time.Now(), note)
	if err := s.dossierRepo.Update(dossier); err != nil {
		return nil, err
	}

	s.publish(ctx, model.DossierEvent{
		DossierID:  dossier.ID,
		Action:     model.EventDocumentsRequested,
		FromStatus: previous,
		ToStatus:   dossier.Status,
		ActorID:    actor.ID,
		Note:       note,
	})
	return dossier, nil
}

// FieldPatch carries the partial update of a dossier; only non-nil fields
// are applied. Status and AdminComments are admin-only and silently dropped
// for other callers.
type FieldPatch struct {
	MonthlyIncome               *float64
	EmploymentContractType      *string
	EmployerName                *string
	EmploymentStartDate         *time.Time
	CurrentLoansMonthlyPayments *float64
	DesiredRentalMonths         *int
	Comments                    *string
	Status                      *model.DossierStatus
	AdminComments               *string
}

// UpdateFields applies an allow-listed partial update.
func (s *DossierService) UpdateFields(actor Actor, dossierID uint, patch FieldPatch) (*model.Dossier, error) {
	dossier, err := s.fetchFor(actor, dossierID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin {
		patch.Status = nil
		patch.AdminComments = nil
		if dossier.Status.IsTerminal() {
			return nil, fmt.Errorf("%w: dossier is %s", ErrInvalidTransition, dossier.Status)
		}
	}

	if patch.MonthlyIncome != nil {
		if *patch.MonthlyIncome <= 0 {
			return nil, ErrInvalidInput
		}
		dossier.MonthlyIncome = *patch.MonthlyIncome
	}
	if patch.EmploymentContractType != nil {
		dossier.EmploymentContractType = strings.TrimSpace(*patch.EmploymentContractType)
	}
	if patch.EmployerName != nil {
		dossier.EmployerName = strings.TrimSpace(*patch.EmployerName)
	}
	if patch.EmploymentStartDate != nil {
		dossier.EmploymentStartDate = *patch.EmploymentStartDate
	}
	if patch.CurrentLoansMonthlyPayments != nil {
		if *patch.CurrentLoansMonthlyPayments < 0 {
			return nil, ErrInvalidInput
		}
		dossier.CurrentLoansMonthlyPayments = *patch.CurrentLoansMonthlyPayments
	}
	if patch.DesiredRentalMonths != nil {
		if *patch.DesiredRentalMonths < 12 || *patch.DesiredRentalMonths > 84 {
			return nil, ErrInvalidInput
		}
		dossier.DesiredRentalMonths = *patch.DesiredRentalMonths
	}
	if patch.Comments != nil {
		dossier.Comments = strings.TrimSpace(*patch.Comments)
	}
	if patch.Status != nil {
		if !patch.Status.Valid() {
			return nil, ErrInvalidInput
		}
		dossier.Status = *patch.Status
	}
	if patch.AdminComments != nil {
		dossier.AdminComments = strings.TrimSpace(*patch.AdminComments)
	}

	if err := s.dossierRepo.Update(dossier); err != nil {
		return nil, err
	}
	return dossier, nil
}

// AddDocument appends a document record with status "pending" to the
// dossier's ordered document list. The dossier status is left untouched.
func (s *DossierService) AddDocument(actor Actor, dossierID uint, documentType, name, url string) (*model.Dossier, error) {
	if strings.TrimSpace(documentType) == "" || strings.TrimSpace(name) == "" {
		return nil, ErrInvalidInput
	}
	dossier, err := s.fetchFor(actor, dossierID)
	if err != nil {
		return nil, err
	}

	docs := dossier.DocumentList()
	docs = append(docs, model.DossierDocument{
		Name:       strings.TrimSpace(name),
		Type:       strings.TrimSpace(documentType),
		URL:        strings.TrimSpace(url),
		UploadedAt: time.Now(),
		Status:     "pending",
	})
	dossier.SetDocumentList(docs)

	if err := s.dossierRepo.Update(dossier); err != nil {
		return nil, err
	}
	return dossier, nil
}

// Cancel moves a dossier to CANCELLED. Accepted and rejected dossiers can no
// longer be cancelled.
func (s *DossierService) Cancel(ctx context.Context, actor Actor, dossierID uint) (*model.Dossier, error) {
	dossier, err := s.fetchFor(actor, dossierID)
	if err != nil {
		return nil, err
	}
	if dossier.Status == model.DossierAccepted || dossier.Status == model.DossierRejected {
		return nil, fmt.Errorf("%w: dossier is %s", ErrInvalidTransition, dossier.Status)
	}

	previous := dossier.Status
	dossier.Status = model.DossierCancelled
	if err := s.dossierRepo.Update(dossier); err != nil {
		return nil, err
	}

	s.publish(ctx, model.DossierEvent{
		DossierID:  dossier.ID,
		Action:     model.EventDossierCancelled,
		FromStatus: previous,
		ToStatus:   dossier.Status,
		ActorID:    actor.ID,
	})
	return dossier, nil
}

type AttachServiceInput struct {
	ServiceID    uint
	MonthlyPrice *float64 // nil = service list price
	StartDate    time.Time
	EndDate      time.Time
}

// AttachService subscribes a dossier to a rental service, freezing the
// monthly price and validity period on the link row.
func (s *DossierService) AttachService(actor Actor, dossierID uint, input AttachServiceInput) (*model.DossierService, error) {
	dossier, err := s.fetchFor(actor, dossierID)
	if err != nil {
		return nil, err
	}
	if dossier.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: dossier is %s", ErrInvalidTransition, dossier.Status)
	}

	service, err := s.serviceRepo.GetByID(input.ServiceID)
	if err != nil {
		return nil, err
	}
	if service == nil || service.Status != model.ServiceActive {
		return nil, fmt.Errorf("%w: rental service unavailable", ErrNotFound)
	}

	existing, err := s.serviceRepo.GetDossierLink(dossierID, input.ServiceID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: service already attached", ErrConflict)
	}

	price := service.PricePerMonth
	if input.MonthlyPrice != nil {
		if *input.MonthlyPrice < 0 {
			return nil, ErrInvalidInput
		}
		price = *input.MonthlyPrice
	}
	start := input.StartDate
	if start.IsZero() {
		start = time.Now()
	}
	end := input.EndDate
	if end.IsZero() {
		end = start.AddDate(0, service.DurationMonths, 0)
	}

	link := &model.DossierService{
		DossierID:    dossierID,
		ServiceID:    input.ServiceID,
		MonthlyPrice: price,
		StartDate:    start,
		EndDate:      end,
	}
	if err := s.serviceRepo.AttachToDossier(link); err != nil {
		return nil, err
	}
	return link, nil
}

// DetachService removes a service subscription from a dossier.
func (s *DossierService) DetachService(actor Actor, dossierID, serviceID uint) error {
	dossier, err := s.fetchFor(actor, dossierID)
	if err != nil {
		return err
	}
	link, err := s.serviceRepo.GetDossierLink(dossier.ID, serviceID)
	if err != nil {
		return err
	}
	if link == nil {
		return ErrNotFound
	}
	return s.serviceRepo.DetachFromDossier(dossier.ID, serviceID)
}

// ListServices returns a dossier's service subscriptions.
func (s *DossierService) ListServices(actor Actor, dossierID uint) ([]model.DossierService, error) {
	dossier, err := s.fetchFor(actor, dossierID)
	if err != nil {
		return nil, err
	}
	return s.serviceRepo.ListForDossier(dossier.ID)
}

// ListEvents exposes the audit trail of one dossier. Admin-only.
func (s *DossierService) ListEvents(actor Actor, dossierID uint) ([]model.DossierEvent, error) {
	if !actor.IsAdmin {
		return nil, ErrForbidden
	}
	return s.eventRepo.ListByDossierID(dossierID)
}

// fetchFor loads a dossier with ownership scoping: admins see any dossier,
// other callers only their own. A foreign dossier reads as absent.
func (s *DossierService) fetchFor(actor Actor, dossierID uint) (*model.Dossier, error) {
	if dossierID == 0 {
		return nil, ErrInvalidInput
	}
	var (
		dossier *model.Dossier
		err     error
	)
	if actor.IsAdmin {
		dossier, err = s.dossierRepo.GetByID(dossierID)
	} else {
		dossier, err = s.dossierRepo.GetByIDAndUserID(dossierID, actor.ID)
	}
	if err != nil {
		return nil, err
	}
	if dossier == nil {
		return nil, ErrNotFound
	}
	return dossier, nil
}

func offeredFor(vehicle *model.Vehicle, t model.DossierType) bool {
	if t == model.DossierTypePurchase {
		return vehicle.IsAvailableForSale
	}
	return vehicle.IsAvailableForRent
}

func (s *DossierService) publish(ctx context.Context, event model.DossierEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, event); err != nil {
		log.Printf("publish dossier event failed: %v", err)
	}
}
