package app

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mmotors/backoffice/internal/model"
	"github.com/mmotors/backoffice/internal/repository"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)

	// a single connection keeps the in-memory database alive and isolated
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Vehicle{},
		&model.Dossier{},
		&model.DossierEvent{},
		&model.RentalOption{},
		&model.RentalService{},
		&model.DossierService{},
		&model.KnowledgeDocument{},
		&model.DocumentChunk{},
		&model.ChatSession{},
		&model.ChatMessage{},
	))
	return db
}

type capturePublisher struct {
	events []model.DossierEvent
}

func (p *capturePublisher) Publish(_ context.Context, event model.DossierEvent) error {
	p.events = append(p.events, event)
	return nil
}

type dossierEnv struct {
	svc       *DossierService
	published *capturePublisher
	dossiers  *repository.DossierRepository
	vehicles  *repository.VehicleRepository
	services  *repository.RentalServiceRepository
	eventRepo *repository.DossierEventRepository
}

func newDossierEnv(t *testing.T) *dossierEnv {
	t.Helper()
	db := newTestDB(t)

	env := &dossierEnv{
		published: &capturePublisher{},
		dossiers:  repository.NewDossierRepository(db),
		vehicles:  repository.NewVehicleRepository(db),
		services:  repository.NewRentalServiceRepository(db),
		eventRepo: repository.NewDossierEventRepository(db),
	}
	env.svc = NewDossierService(env.dossiers, env.vehicles, env.services, env.eventRepo, env.published)
	return env
}

func (e *dossierEnv) seedVehicle(t *testing.T, forSale, forRent bool) *model.Vehicle {
	t.Helper()
	vehicle := &model.Vehicle{
		Brand:              "Peugeot",
		Model:              "308",
		Year:               2021,
		Price:              18900,
		MonthlyRentalPrice: 349,
		IsAvailableForSale: forSale,
		IsAvailableForRent: forRent,
	}
	require.NoError(t, e.vehicles.Create(vehicle))
	return vehicle
}

var (
	customer = Actor{ID: 1, Username: "alice", IsActive: true}
	other    = Actor{ID: 2, Username: "bob", IsActive: true}
	admin    = Actor{ID: 9, Username: "root", IsAdmin: true, IsActive: true}
)

func validCreateInput(vehicleID uint) CreateDossierInput {
	return CreateDossierInput{
		VehicleID:     vehicleID,
		Type:          model.DossierTypePurchase,
		MonthlyIncome: 3200,
	}
}

func TestCreateDossier(t *testing.T) {
	env := newDossierEnv(t)
	vehicle := env.seedVehicle(t, true, false)

	dossier, err := env.svc.Create(context.Background(), customer, validCreateInput(vehicle.ID))
	require.NoError(t, err)
	require.Equal(t, model.DossierPending, dossier.Status)
	require.Equal(t, customer.ID, dossier.UserID)
	require.Empty(t, dossier.DocumentList())

	require.Len(t, env.published.events, 1)
	require.Equal(t, model.EventDossierCreated, env.published.events[0].Action)
	require.Equal(t, dossier.ID, env.published.events[0].DossierID)
}

func TestCreateDossierVehicleNotOffered(t *testing.T) {
	env := newDossierEnv(t)
	vehicle := env.seedVehicle(t, true, false)

	input := validCreateInput(vehicle.ID)
	input.Type = model.DossierTypeRental
	_, err := env.svc.Create(context.Background(), customer, input)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCreateDossierValidation(t *testing.T) {
	env := newDossierEnv(t)
	vehicle := env.seedVehicle(t, false, true)

	input := CreateDossierInput{
		VehicleID:           vehicle.ID,
		Type:                model.DossierTypeRental,
		MonthlyIncome:       3200,
		DesiredRentalMonths: 6, // below minimum term
	}
	_, err := env.svc.Create(context.Background(), customer, input)
	require.ErrorIs(t, err, ErrInvalidInput)

	input.DesiredRentalMonths = 36
	_, err = env.svc.Create(context.Background(), customer, input)
	require.NoError(t, err)
}

func TestCreateDossierDuplicateBlocked(t *testing.T) {
	env := newDossierEnv(t)
	vehicle := env.seedVehicle(t, true, false)
	ctx := context.Background()

	first, err := env.svc.Create(ctx, customer, validCreateInput(vehicle.ID))
	require.NoError(t, err)

	_, err = env.svc.Create(ctx, customer, validCreateInput(vehicle.ID))
	require.ErrorIs(t, err, ErrConflict)

	first.Status = model.DossierInProgress
	require.NoError(t, env.dossiers.Update(first))
	_, err = env.svc.Create(ctx, customer, validCreateInput(vehicle.ID))
	require.ErrorIs(t, err, ErrConflict)

	// a different user is free to apply for the same vehicle
	_, err = env.svc.Create(ctx, other, validCreateInput(vehicle.ID))
	require.NoError(t, err)
}

func TestCreateDossierDocumentsMissingDoesNotBlock(t *testing.T) {
	env := newDossierEnv(t)
	vehicle := env.seedVehicle(t, true, false)
	ctx := context.Background()

	first, err := env.svc.Create(ctx, customer, validCreateInput(vehicle.ID))
	require.NoError(t, err)

	first.Status = model.DossierDocumentsMissing
	require.NoError(t, env.dossiers.Update(first))

	_, err = env.svc.Create(ctx, customer, validCreateInput(vehicle.ID))
	require.NoError(t, err)
}

func TestUpdateStatus(t *testing.T) {
	env := newDossierEnv(t)
	vehicle := env.seedVehicle(t, true, false)
	ctx := context.Background()

	dossier, err := env.svc.Create(ctx, customer, validCreateInput(vehicle.ID))
	require.NoError(t, err)

	_, err = env.svc.UpdateStatus(ctx, customer, dossier.ID, model.DossierAccepted, "")
	require.ErrorIs(t, err, ErrForbidden)

	_, err = env.svc.UpdateStatus(ctx, admin, dossier.ID, "approved", "")
	require.ErrorIs(t, err, ErrInvalidInput)

	updated, err := env.svc.UpdateStatus(ctx, admin, dossier.ID, model.DossierInProgress, "under review")
	require.NoError(t, err)
	require.Equal(t, model.DossierInProgress, updated.Status)
	require.Equal(t, "under review", updated.AdminComments)

	// the status endpoint overwrites the comment, it does not append
	updated, err = env.svc.UpdateStatus(ctx, admin, dossier.ID, model.DossierAccepted, "income verified")
	require.NoError(t, err)
	require.Equal(t, "income verified", updated.AdminComments)

	// terminal dossiers are frozen, including re-applying the same status
	_, err = env.svc.UpdateStatus(ctx, admin, dossier.ID, model.DossierAccepted, "")
	require.ErrorIs(t, err, ErrInvalidTransition)
	_, err = env.svc.UpdateStatus(ctx, admin, dossier.ID, model.DossierRejected, "")
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestRequestDocuments(t *testing.T) {
	env := newDossierEnv(t)
	vehicle := env.seedVehicle(t, true, false)
	ctx := context.Background()

	dossier, err := env.svc.Create(ctx, customer, validCreateInput(vehicle.ID))
	require.NoError(t, err)

	_, err = env.svc.RequestDocuments(ctx, customer, dossier.ID, []string{"payslip"}, "")
	require.ErrorIs(t, err, ErrForbidden)

	_, err = env.svc.RequestDocuments(ctx, admin, dossier.ID, nil, "")
	require.ErrorIs(t, err, ErrInvalidInput)

	updated, err := env.svc.RequestDocuments(ctx, admin, dossier.ID, []string{"payslip", "id card"}, "last three months")
	require.NoError(t, err)
	require.Equal(t, model.DossierDocumentsMissing, updated.Status)
	require.Contains(t, updated.AdminComments, "payslip, id card")
	require.Contains(t, updated.AdminComments, "last three months")

	// the comment log is append-only: a second request grows it
	updated, err = env.svc.RequestDocuments(ctx, admin, dossier.ID, []string{"bank statement"}, "")
	require.NoError(t, err)
	require.Equal(t, model.DossierDocumentsMissing, updated.Status)
	require.Equal(t, 2, strings.Count(updated.AdminComments, "Documents requested:"))

	_, err = env.svc.UpdateStatus(ctx, admin, dossier.ID, model.DossierRejected, "")
	require.NoError(t, err)
	_, err = env.svc.RequestDocuments(ctx, admin, dossier.ID, []string{"payslip"}, "")
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestUpdateFields(t *testing.T) {
	env := newDossierEnv(t)
	vehicle := env.seedVehicle(t, true, false)
	ctx := context.Background()

	dossier, err := env.svc.Create(ctx, customer, validCreateInput(vehicle.ID))
	require.NoError(t, err)

	income := 4100.0
	status := model.DossierAccepted
	adminNote := "self approved"
	updated, err := env.svc.UpdateFields(customer, dossier.ID, FieldPatch{
		MonthlyIncome: &income,
		Status:        &status,
		AdminComments: &adminNote,
	})
	require.NoError(t, err)
	require.Equal(t, 4100.0, updated.MonthlyIncome)
	// privileged fields are silently dropped for non-admin callers
	require.Equal(t, model.DossierPending, updated.Status)
	require.Empty(t, updated.AdminComments)

	bad := -5.0
	_, err = env.svc.UpdateFields(customer, dossier.ID, FieldPatch{MonthlyIncome: &bad})
	require.ErrorIs(t, err, ErrInvalidInput)

	updated, err = env.svc.UpdateFields(admin, dossier.ID, FieldPatch{Status: &status})
	require.NoError(t, err)
	require.Equal(t, model.DossierAccepted, updated.Status)

	// owners cannot edit a terminal dossier
	_, err = env.svc.UpdateFields(customer, dossier.ID, FieldPatch{MonthlyIncome: &income})
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCancel(t *testing.T) {
	env := newDossierEnv(t)
	vehicle := env.seedVehicle(t, true, false)
	ctx := context.Background()

	dossier, err := env.svc.Create(ctx, customer, validCreateInput(vehicle.ID))
	require.NoError(t, err)

	cancelled, err := env.svc.Cancel(ctx, customer, dossier.ID)
	require.NoError(t, err)
	require.Equal(t, model.DossierCancelled, cancelled.Status)

	// cancelling twice is harmless, decided dossiers are not cancellable
	_, err = env.svc.Cancel(ctx, customer, dossier.ID)
	require.NoError(t, err)

	second, err := env.svc.Create(ctx, customer, validCreateInput(vehicle.ID))
	require.NoError(t, err)
	_, err = env.svc.UpdateStatus(ctx, admin, second.ID, model.DossierAccepted, "")
	require.NoError(t, err)
	_, err = env.svc.Cancel(ctx, customer, second.ID)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestAddDocument(t *testing.T) {
	env := newDossierEnv(t)
	vehicle := env.seedVehicle(t, true, false)
	ctx := context.Background()

	dossier, err := env.svc.Create(ctx, customer, validCreateInput(vehicle.ID))
	require.NoError(t, err)

	updated, err := env.svc.AddDocument(customer, dossier.ID, "payslip", "payslip-june.pdf", "s3://bucket/payslip-june.pdf")
	require.NoError(t, err)

	docs := updated.DocumentList()
	require.Len(t, docs, 1)
	require.Equal(t, "payslip", docs[0].Type)
	require.Equal(t, "pending", docs[0].Status)
	// uploading does not move the workflow by itself
	require.Equal(t, model.DossierPending, updated.Status)

	_, err = env.svc.AddDocument(customer, dossier.ID, "", "x.pdf", "")
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestOwnershipScoping(t *testing.T) {
	env := newDossierEnv(t)
	vehicle := env.seedVehicle(t, true, false)
	ctx := context.Background()

	dossier, err := env.svc.Create(ctx, customer, validCreateInput(vehicle.ID))
	require.NoError(t, err)

	_, err = env.svc.Get(other, dossier.ID)
	require.ErrorIs(t, err, ErrNotFound)

	got, err := env.svc.Get(admin, dossier.ID)
	require.NoError(t, err)
	require.Equal(t, dossier.ID, got.ID)

	_, err = env.svc.List(customer, repository.DossierFilter{})
	require.ErrorIs(t, err, ErrForbidden)

	mine, err := env.svc.ListMine(customer, "")
	require.NoError(t, err)
	require.Len(t, mine, 1)
}

func TestAttachService(t *testing.T) {
	env := newDossierEnv(t)
	vehicle := env.seedVehicle(t, false, true)
	ctx := context.Background()

	service := &model.RentalService{
		Type:           model.ServiceInsurance,
		Name:           "All-risk insurance",
		PricePerMonth:  49.9,
		DurationMonths: 36,
		Status:         model.ServiceActive,
	}
	require.NoError(t, env.services.Create(service))

	input := validCreateInput(vehicle.ID)
	input.Type = model.DossierTypeRental
	input.DesiredRentalMonths = 36
	dossier, err := env.svc.Create(ctx, customer, input)
	require.NoError(t, err)

	link, err := env.svc.AttachService(customer, dossier.ID, AttachServiceInput{ServiceID: service.ID})
	require.NoError(t, err)
	require.Equal(t, 49.9, link.MonthlyPrice)
	require.True(t, link.EndDate.Equal(link.StartDate.AddDate(0, 36, 0)))

	_, err = env.svc.AttachService(customer, dossier.ID, AttachServiceInput{ServiceID: service.ID})
	require.ErrorIs(t, err, ErrConflict)

	links, err := env.svc.ListServices(customer, dossier.ID)
	require.NoError(t, err)
	require.Len(t, links, 1)

	require.NoError(t, env.svc.DetachService(customer, dossier.ID, service.ID))
	require.ErrorIs(t, env.svc.DetachService(customer, dossier.ID, service.ID), ErrNotFound)

	// inactive services cannot be attached
	service.Status = model.ServiceInactive
	require.NoError(t, env.services.Update(service))
	_, err = env.svc.AttachService(customer, dossier.ID, AttachServiceInput{ServiceID: service.ID})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListEvents(t *testing.T) {
	env := newDossierEnv(t)
	vehicle := env.seedVehicle(t, true, false)
	ctx := context.Background()

	dossier, err := env.svc.Create(ctx, customer, validCreateInput(vehicle.ID))
	require.NoError(t, err)

	// simulate the queue worker persisting the published events
	for _, event := range env.published.events {
		e := event
		require.NoError(t, env.eventRepo.Create(&e))
	}

	_, err = env.svc.ListEvents(customer, dossier.ID)
	require.ErrorIs(t, err, ErrForbidden)

	events, err := env.svc.ListEvents(admin, dossier.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, model.EventDossierCreated, events[0].Action)
}
