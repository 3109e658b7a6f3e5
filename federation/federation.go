// Package federation drives the lifecycle of a federated workspace: creating
// or joining it, generating invites and toggling sync pulsing.
package federation

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/absmach/cleanroom/pkg/cron"
	pkgerrors "github.com/absmach/cleanroom/pkg/errors"
	"github.com/absmach/cleanroom/pkg/sdk"
	"github.com/absmach/cleanroom/store"
	"github.com/go-playground/validator/v10"
)

const (
	DefaultNATSHosts    = "nats://charm:4222"
	DefaultSyncSchedule = "m1"
)

// SyncSchedules are the shorthand schedules offered to operators. Five field
// cron expressions are accepted as well.
var SyncSchedules = []string{"m1", "m5", "h1", "h6", "d1"}

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("syncschedule", func(fl validator.FieldLevel) bool {
		return cron.ValidateSyncSchedule(fl.Field().String()) == nil
	})
}

// Controller is the federation lifecycle state machine. At most one of Create,
// Join and GenerateInvite runs at a time.
type Controller interface {
	// Create creates workspace req.WorkspaceID on the remote service and, on
	// success, makes it the current workspace.
	Create(ctx context.Context, req CreateRequest) error

	// Join joins an existing federation using an invite.
	Join(ctx context.Context, req JoinRequest) error

	// GenerateInvite asks the remote service for an invite to workspaceID. The
	// federation status is not touched.
	GenerateInvite(ctx context.Context, workspaceID, password string) (Invite, error)

	// Reset moves a failed federation back to idle.
	Reset(ctx context.Context) error

	// StartSync turns sync pulsing on. Only allowed while active.
	StartSync(ctx context.Context) error

	// StopSync turns sync pulsing off. Only allowed while active.
	StopSync(ctx context.Context) error

	// SyncStats returns the sync statistics of the current workspace.
	SyncStats(ctx context.Context) ([]store.SyncStatsEntry, error)

	// RefreshSyncStats fetches sync statistics bypassing the cache and appends
	// entries newer than the last stored one to the store. It returns the
	// number of appended entries.
	RefreshSyncStats(ctx context.Context) (int, error)

	// Schedule returns the sync schedule of the current workspace.
	Schedule() string
}

type Transport struct {
	NATSHosts string `json:"natsHosts" validate:"required"`
}

type CreateRequest struct {
	WorkspaceID  string `json:"pid"          validate:"required,max=128"`
	Transport    Transport
	SyncSchedule string `json:"syncSchedule" validate:"required,syncschedule"`
	// Config defaults to the workspace configuration held in the store.
	Config *store.WorkspaceConfig `json:"config,omitempty" validate:"-"`
}

type JoinRequest struct {
	WorkspaceID string `json:"pid"         validate:"required,max=128"`
	InviteToken string `json:"inviteToken" validate:"required"`
	// Config defaults to the workspace configuration held in the store.
	Config *store.WorkspaceConfig `json:"config,omitempty" validate:"-"`
}

// Invite is the payload handed to the party joining a workspace. Its content
// is opaque to the dashboard.
type Invite struct {
	WorkspaceID string          `json:"pid"`
	Payload     json.RawMessage `json:"invite"`
}

func (req CreateRequest) validate(cfg store.WorkspaceConfig) error {
	return validateRequest(req, cfg)
}

func (req JoinRequest) validate(cfg store.WorkspaceConfig) error {
	return validateRequest(req, cfg)
}

func validateRequest(req any, cfg store.WorkspaceConfig) error {
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %w", pkgerrors.ErrMalformedRequest, err)
	}
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("%w: %w", pkgerrors.ErrMalformedRequest, err)
	}

	return nil
}

func wireConfig(cfg store.WorkspaceConfig) sdk.WorkspaceConfig {
	return sdk.WorkspaceConfig{
		ProcessingType:  string(cfg.ProcessingType),
		PersistData:     cfg.PersistData,
		EnableHistogram: cfg.EnableHistogram,
		TargetList:      nonNil(cfg.TargetList),
		ConditionList:   nonNil(cfg.ConditionList),
	}
}

func configPatch(cfg store.WorkspaceConfig) *store.WorkspaceConfigPatch {
	return &store.WorkspaceConfigPatch{
		ProcessingType:  &cfg.ProcessingType,
		PersistData:     &cfg.PersistData,
		EnableHistogram: &cfg.EnableHistogram,
		TargetList:      nonNil(cfg.TargetList),
		ConditionList:   nonNil(cfg.ConditionList),
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}

	return s
}
