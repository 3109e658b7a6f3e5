package mocks

import (
	"context"
	"encoding/json"

	"github.com/absmach/cleanroom/pkg/sdk"
	"github.com/stretchr/testify/mock"
)

var _ sdk.SDK = (*SDK)(nil)

// SDK is a mock implementation of the sdk.SDK interface.
type SDK struct {
	mock.Mock
}

func (m *SDK) CreateFederation(ctx context.Context, req sdk.CreateFederationReq) error {
	args := m.Called(ctx, req)

	return args.Error(0)
}

func (m *SDK) GenerateInvite(ctx context.Context, pid, password string) (json.RawMessage, error) {
	args := m.Called(ctx, pid, password)

	return raw(args.Get(0)), args.Error(1)
}

func (m *SDK) JoinFederation(ctx context.Context, req sdk.JoinFederationReq) error {
	args := m.Called(ctx, req)

	return args.Error(0)
}

func (m *SDK) StartPulsing(ctx context.Context, pid string) error {
	args := m.Called(ctx, pid)

	return args.Error(0)
}

func (m *SDK) StopPulsing(ctx context.Context, pid string) error {
	args := m.Called(ctx, pid)

	return args.Error(0)
}

func (m *SDK) SyncStats(ctx context.Context, pid string) ([]sdk.SyncStat, error) {
	args := m.Called(ctx, pid)
	stats, _ := args.Get(0).([]sdk.SyncStat)

	return stats, args.Error(1)
}

func (m *SDK) PushData(ctx context.Context, pid string, csv []byte) (json.RawMessage, error) {
	args := m.Called(ctx, pid, csv)

	return raw(args.Get(0)), args.Error(1)
}

func (m *SDK) ProjectInfo(ctx context.Context, pid string) (json.RawMessage, error) {
	args := m.Called(ctx, pid)

	return raw(args.Get(0)), args.Error(1)
}

func (m *SDK) Explore(ctx context.Context, pid, metric string, req sdk.ExploreReq) (json.RawMessage, error) {
	args := m.Called(ctx, pid, metric, req)

	return raw(args.Get(0)), args.Error(1)
}

func (m *SDK) BuildModel(ctx context.Context, pid string, req sdk.BuildModelReq) (json.RawMessage, error) {
	args := m.Called(ctx, pid, req)

	return raw(args.Get(0)), args.Error(1)
}

func (m *SDK) Predict(ctx context.Context, pid string, req json.RawMessage) (json.RawMessage, error) {
	args := m.Called(ctx, pid, req)

	return raw(args.Get(0)), args.Error(1)
}

func raw(v any) json.RawMessage {
	switch r := v.(type) {
	case json.RawMessage:
		return r
	case string:
		return json.RawMessage(r)
	case []byte:
		return r
	default:
		return nil
	}
}
