package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"kredit-api/models"
	"kredit-api/repository"
	"kredit-api/session"
	"kredit-api/statemachine"

	"github.com/google/uuid"
)

type ApplicantData struct {
	Nama             string `json:"nama" validate:"required"`
	NIK              string `json:"nik" validate:"required"`
	TanggalLahir     string `json:"tanggalLahir" validate:"required"`
	StatusPerkawinan string `json:"statusPerkawinan" validate:"required"`
	DataPasangan     string `json:"dataPasangan"`
}

type VehicleData struct {
	Dealer         string            `json:"dealer" validate:"required"`
	MerkKendaraan  string            `json:"merkKendaraan" validate:"required"`
	ModelKendaraan string            `json:"modelKendaraan" validate:"required"`
	TipeKendaraan  string            `json:"tipeKendaraan"`
	WarnaKendaraan string            `json:"warnaKendaraan"`
	HargaKendaraan models.FlexNumber `json:"hargaKendaraan" validate:"required"`
}

type LoanData struct {
	Asuransi         string            `json:"asuransi"`
	DownPayment      models.FlexNumber `json:"downPayment" validate:"required"`
	LamaKredit       models.FlexNumber `json:"lamaKredit" validate:"required"`
	AngsuranPerBulan models.FlexNumber `json:"angsuranPerBulan" validate:"required"`
}

// ApplicationInput is the flat submission body; the embedded groups only
// exist so each section validates with its own message.
type ApplicationInput struct {
	ApplicantData
	VehicleData
	LoanData
}

type StatusRequest struct {
	Status models.ApplicationStatus `json:"status"`
	Notes  string                   `json:"notes"`
}

// WorkflowDescription documents the status pipeline for clients.
type WorkflowDescription struct {
	Statuses         []models.ApplicationStatus `json:"statuses"`
	Initial          models.ApplicationStatus   `json:"initial"`
	Terminal         []models.ApplicationStatus `json:"terminal"`
	Strict           bool                       `json:"strict"`
	StampsBackoffice bool                       `json:"stampsBackoffice"`
	Transitions      []statemachine.Rule        `json:"transitions"`
}

type ApplicationService struct {
	apps   repository.ApplicationRepository
	policy *statemachine.Policy
	now    func() time.Time
}

func NewApplicationService(apps repository.ApplicationRepository, policy *statemachine.Policy) *ApplicationService {
	return &ApplicationService{apps: apps, policy: policy, now: time.Now}
}

// Create stores a new pending application owned by the consumer actor.
func (s *ApplicationService) Create(ctx context.Context, actor *session.Claims, in *ApplicationInput) (*models.Application, error) {
	if err := s.Allow(actor, statemachine.OpCreate); err != nil {
		return nil, err
	}

	if err := validate.Struct(&in.ApplicantData); err != nil {
		return nil, validationError("incomplete consumer data")
	}
	if err := validate.Struct(&in.VehicleData); err != nil {
		return nil, validationError("incomplete vehicle data")
	}
	if err := validate.Struct(&in.LoanData); err != nil {
		return nil, validationError("incomplete loan data")
	}

	harga, err := positiveFloat(in.HargaKendaraan, "hargaKendaraan")
	if err != nil {
		return nil, err
	}
	dp, err := positiveFloat(in.DownPayment, "downPayment")
	if err != nil {
		return nil, err
	}
	angsuran, err := positiveFloat(in.AngsuranPerBulan, "angsuranPerBulan")
	if err != nil {
		return nil, err
	}
	tenor, err := in.LamaKredit.Int()
	if err != nil || tenor <= 0 {
		return nil, validationError("lamaKredit must be a positive whole number of months")
	}

	now := s.timestamp()
	app := &models.Application{
		ID:               uuid.NewString(),
		OwnerID:          actor.UserID,
		Nama:             in.Nama,
		NIK:              in.NIK,
		TanggalLahir:     in.TanggalLahir,
		StatusPerkawinan: in.StatusPerkawinan,
		DataPasangan:     in.DataPasangan,
		Dealer:           in.Dealer,
		MerkKendaraan:    in.MerkKendaraan,
		ModelKendaraan:   in.ModelKendaraan,
		TipeKendaraan:    in.TipeKendaraan,
		WarnaKendaraan:   in.WarnaKendaraan,
		HargaKendaraan:   harga,
		Asuransi:         in.Asuransi,
		DownPayment:      dp,
		LamaKredit:       tenor,
		AngsuranPerBulan: angsuran,
		Status:           models.StatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.apps.Create(ctx, app); err != nil {
		return nil, unexpectedError("failed to create application", err)
	}
	return app, nil
}

// List returns the applications visible to actor, newest first. Consumers
// only ever see their own.
func (s *ApplicationService) List(ctx context.Context, actor *session.Claims, status models.ApplicationStatus) ([]models.Application, error) {
	if err := s.Allow(actor, statemachine.OpList); err != nil {
		return nil, err
	}
	if status != "" && !status.Valid() {
		return nil, validationError("invalid status filter")
	}

	apps, err := s.apps.List(ctx, s.scope(actor, status))
	if err != nil {
		return nil, unexpectedError("failed to list applications", err)
	}
	for i := range apps {
		attachOwner(&apps[i])
	}
	return apps, nil
}

func (s *ApplicationService) Get(ctx context.Context, actor *session.Claims, id string) (*models.Application, error) {
	if err := s.Allow(actor, statemachine.OpGet); err != nil {
		return nil, err
	}
	app, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.policy.SeesAll(actor.Role) && app.OwnerID != actor.UserID {
		return nil, forbiddenError("you do not have access to this application", nil)
	}
	return app, nil
}

// UpdateStatus moves an application to req.Status and stamps the acting
// user where the policy says so. Concurrent updates are last-writer-wins.
func (s *ApplicationService) UpdateStatus(ctx context.Context, actor *session.Claims, id string, req *StatusRequest) (*models.Application, error) {
	if err := s.Allow(actor, statemachine.OpUpdateStatus); err != nil {
		return nil, err
	}
	if !req.Status.Valid() {
		return nil, validationError("invalid status")
	}
	stamp, err := s.policy.Authorize(actor.Role, req.Status)
	if err != nil {
		return nil, forbiddenError(fmt.Sprintf("role %s cannot set status %s", actor.Role, req.Status), err)
	}

	update := models.StatusUpdate{
		Status:    req.Status,
		Notes:     req.Notes,
		UpdatedAt: s.timestamp(),
	}
	actorID := actor.UserID
	switch stamp {
	case statemachine.StampReviewer:
		update.ReviewedBy = &actorID
	case statemachine.StampApprover:
		update.ApprovedBy = &actorID
	}

	if err := s.apps.UpdateStatus(ctx, id, update); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrApplicationNotFound
		}
		return nil, unexpectedError("failed to update status", err)
	}
	return s.find(ctx, id)
}

func (s *ApplicationService) Stats(ctx context.Context, actor *session.Claims) (*models.Stats, error) {
	if err := s.Allow(actor, statemachine.OpStats); err != nil {
		return nil, err
	}
	stats, err := s.apps.CountByStatus(ctx, s.scope(actor, ""))
	if err != nil {
		return nil, unexpectedError("failed to load stats", err)
	}
	return &stats, nil
}

var deniedMessages = map[statemachine.Operation]string{
	statemachine.OpCreate:       "only consumers can submit applications",
	statemachine.OpUpdateStatus: "you are not allowed to change application status",
}

// Allow reports whether actor may call op at all, before any input is read.
func (s *ApplicationService) Allow(actor *session.Claims, op statemachine.Operation) error {
	if actor == nil {
		return ErrInvalidToken
	}
	if err := s.policy.CanPerform(actor.Role, op); err != nil {
		msg, ok := deniedMessages[op]
		if !ok {
			msg = "access denied"
		}
		return forbiddenError(msg, err)
	}
	return nil
}

func (s *ApplicationService) DescribeWorkflow() *WorkflowDescription {
	return &WorkflowDescription{
		Statuses:         models.Statuses,
		Initial:          models.StatusPending,
		Terminal:         statemachine.TerminalStatuses(),
		Strict:           s.policy.Strict(),
		StampsBackoffice: s.policy.StampsBackoffice(),
		Transitions:      s.policy.Rules(),
	}
}

func (s *ApplicationService) find(ctx context.Context, id string) (*models.Application, error) {
	app, err := s.apps.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrApplicationNotFound
		}
		return nil, unexpectedError("failed to load application", err)
	}
	attachOwner(app)
	return app, nil
}

func (s *ApplicationService) scope(actor *session.Claims, status models.ApplicationStatus) models.ApplicationFilter {
	filter := models.ApplicationFilter{Status: status}
	if !s.policy.SeesAll(actor.Role) {
		filter.OwnerID = actor.UserID
	}
	return filter
}

// timestamp is truncated to what every store can hold.
func (s *ApplicationService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

func attachOwner(app *models.Application) {
	if app.Owner != nil {
		app.User = &models.OwnerView{Name: app.Owner.Name, Email: app.Owner.Email}
	}
}

func positiveFloat(n models.FlexNumber, field string) (float64, error) {
	v, err := n.Float()
	if err != nil || v <= 0 {
		return 0, validationError(field + " must be a positive number")
	}
	return v, nil
}
