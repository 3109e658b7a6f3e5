package dashboard

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/absmach/cleanroom/analysis"
	"github.com/absmach/cleanroom/federation"
	pkgerrors "github.com/absmach/cleanroom/pkg/errors"
	"github.com/absmach/cleanroom/store"
	"github.com/absmach/cleanroom/upload"
)

var _ Service = (*service)(nil)

type service struct {
	store    *store.Store
	ctrl     federation.Controller
	explorer *analysis.Explorer
	uploader *upload.Orchestrator
}

func NewService(st *store.Store, ctrl federation.Controller, explorer *analysis.Explorer, uploader *upload.Orchestrator) Service {
	return &service{
		store:    st,
		ctrl:     ctrl,
		explorer: explorer,
		uploader: uploader,
	}
}

func (svc *service) State(_ context.Context) (store.State, error) {
	return svc.store.Get(), nil
}

func (svc *service) UpdateSettings(ctx context.Context, s Settings) (store.State, error) {
	if s.ActiveTab != nil && *s.ActiveTab < 0 {
		return store.State{}, fmt.Errorf("%w: negative tab index", pkgerrors.ErrMalformedRequest)
	}
	if cfg := s.WorkspaceConfig; cfg != nil && cfg.ProcessingType != nil && !cfg.ProcessingType.Valid() {
		return store.State{}, fmt.Errorf("%w: unknown processing type %q", pkgerrors.ErrMalformedRequest, *cfg.ProcessingType)
	}

	svc.store.Update(ctx, store.Patch{
		DarkMode:           s.DarkMode,
		CurrentWorkspaceID: s.CurrentWorkspaceID,
		WorkspaceConfig:    s.WorkspaceConfig,
		ActiveTab:          s.ActiveTab,
		SearchQuery:        s.SearchQuery,
	})

	return svc.store.Get(), nil
}

func (svc *service) ClearState(ctx context.Context) (store.State, error) {
	if svc.store.Get().FederationStatus.Pending() {
		return store.State{}, pkgerrors.ErrConcurrencyConflict
	}
	if err := svc.store.Clear(ctx); err != nil {
		return store.State{}, err
	}

	return svc.store.Get(), nil
}

func (svc *service) CreateFederation(ctx context.Context, req federation.CreateRequest) (store.State, error) {
	if err := svc.ctrl.Create(ctx, req); err != nil {
		return store.State{}, err
	}

	return svc.store.Get(), nil
}

func (svc *service) JoinFederation(ctx context.Context, req federation.JoinRequest) (store.State, error) {
	if err := svc.ctrl.Join(ctx, req); err != nil {
		return store.State{}, err
	}

	return svc.store.Get(), nil
}

func (svc *service) GenerateInvite(ctx context.Context, workspaceID, password string) (federation.Invite, error) {
	return svc.ctrl.GenerateInvite(ctx, svc.workspace(workspaceID), password)
}

func (svc *service) ResetFederation(ctx context.Context) (store.State, error) {
	if err := svc.ctrl.Reset(ctx); err != nil {
		return store.State{}, err
	}

	return svc.store.Get(), nil
}

func (svc *service) StartSync(ctx context.Context) error {
	return svc.ctrl.StartSync(ctx)
}

func (svc *service) StopSync(ctx context.Context) error {
	return svc.ctrl.StopSync(ctx)
}

func (svc *service) SyncStats(ctx context.Context) ([]store.SyncStatsEntry, error) {
	return svc.ctrl.SyncStats(ctx)
}

func (svc *service) PushData(ctx context.Context, workspaceID string, p upload.Payload) (store.UploadRecord, error) {
	return svc.uploader.Push(ctx, svc.workspace(workspaceID), p), nil
}

func (svc *service) PushAll(ctx context.Context, workspaceID string, payloads []upload.Payload) ([]store.UploadRecord, error) {
	return svc.uploader.PushAll(ctx, svc.workspace(workspaceID), payloads), nil
}

func (svc *service) ProjectInfo(ctx context.Context, workspaceID string) (json.RawMessage, error) {
	return svc.explorer.ProjectInfo(ctx, svc.workspace(workspaceID))
}

func (svc *service) Explore(ctx context.Context, workspaceID string, req analysis.Request) (json.RawMessage, error) {
	return svc.explorer.Explore(ctx, svc.workspace(workspaceID), req)
}

func (svc *service) Overview(ctx context.Context, workspaceID string) (json.RawMessage, error) {
	return svc.explorer.Overview(ctx, svc.workspace(workspaceID))
}

func (svc *service) BuildModel(ctx context.Context, workspaceID string, req analysis.ModelRequest) (json.RawMessage, error) {
	return svc.explorer.BuildModel(ctx, svc.workspace(workspaceID), req)
}

func (svc *service) Predict(ctx context.Context, workspaceID string, input json.RawMessage) (json.RawMessage, error) {
	return svc.explorer.Predict(ctx, svc.workspace(workspaceID), input)
}

func (svc *service) workspace(id string) string {
	if id != "" {
		return id
	}

	return svc.store.Get().CurrentWorkspaceID
}
