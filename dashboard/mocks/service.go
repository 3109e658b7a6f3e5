package mocks

import (
	"context"
	"encoding/json"

	"github.com/absmach/cleanroom/analysis"
	"github.com/absmach/cleanroom/dashboard"
	"github.com/absmach/cleanroom/federation"
	"github.com/absmach/cleanroom/store"
	"github.com/absmach/cleanroom/upload"
	"github.com/stretchr/testify/mock"
)

var _ dashboard.Service = (*Service)(nil)

// Service is a mock implementation of the dashboard.Service interface.
type Service struct {
	mock.Mock
}

func (m *Service) State(ctx context.Context) (store.State, error) {
	args := m.Called(ctx)

	return args.Get(0).(store.State), args.Error(1)
}

func (m *Service) UpdateSettings(ctx context.Context, s dashboard.Settings) (store.State, error) {
	args := m.Called(ctx, s)

	return args.Get(0).(store.State), args.Error(1)
}

func (m *Service) ClearState(ctx context.Context) (store.State, error) {
	args := m.Called(ctx)

	return args.Get(0).(store.State), args.Error(1)
}

func (m *Service) CreateFederation(ctx context.Context, req federation.CreateRequest) (store.State, error) {
	args := m.Called(ctx, req)

	return args.Get(0).(store.State), args.Error(1)
}

func (m *Service) JoinFederation(ctx context.Context, req federation.JoinRequest) (store.State, error) {
	args := m.Called(ctx, req)

	return args.Get(0).(store.State), args.Error(1)
}

func (m *Service) GenerateInvite(ctx context.Context, workspaceID, password string) (federation.Invite, error) {
	args := m.Called(ctx, workspaceID, password)

	return args.Get(0).(federation.Invite), args.Error(1)
}

func (m *Service) ResetFederation(ctx context.Context) (store.State, error) {
	args := m.Called(ctx)

	return args.Get(0).(store.State), args.Error(1)
}

func (m *Service) StartSync(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *Service) StopSync(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *Service) SyncStats(ctx context.Context) ([]store.SyncStatsEntry, error) {
	args := m.Called(ctx)

	return args.Get(0).([]store.SyncStatsEntry), args.Error(1)
}

func (m *Service) PushData(ctx context.Context, workspaceID string, p upload.Payload) (store.UploadRecord, error) {
	args := m.Called(ctx, workspaceID, p)

	return args.Get(0).(store.UploadRecord), args.Error(1)
}

func (m *Service) PushAll(ctx context.Context, workspaceID string, payloads []upload.Payload) ([]store.UploadRecord, error) {
	args := m.Called(ctx, workspaceID, payloads)

	return args.Get(0).([]store.UploadRecord), args.Error(1)
}

func (m *Service) ProjectInfo(ctx context.Context, workspaceID string) (json.RawMessage, error) {
	args := m.Called(ctx, workspaceID)

	return raw(args.Get(0)), args.Error(1)
}

func (m *Service) Explore(ctx context.Context, workspaceID string, req analysis.Request) (json.RawMessage, error) {
	args := m.Called(ctx, workspaceID, req)

	return raw(args.Get(0)), args.Error(1)
}

func (m *Service) Overview(ctx context.Context, workspaceID string) (json.RawMessage, error) {
	args := m.Called(ctx, workspaceID)

	return raw(args.Get(0)), args.Error(1)
}

func (m *Service) BuildModel(ctx context.Context, workspaceID string, req analysis.ModelRequest) (json.RawMessage, error) {
	args := m.Called(ctx, workspaceID, req)

	return raw(args.Get(0)), args.Error(1)
}

func (m *Service) Predict(ctx context.Context, workspaceID string, input json.RawMessage) (json.RawMessage, error) {
	args := m.Called(ctx, workspaceID, input)

	return raw(args.Get(0)), args.Error(1)
}

func raw(v any) json.RawMessage {
	r, _ := v.(json.RawMessage)

	return r
}
