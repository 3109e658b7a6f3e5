package middleware

import (
	"context"
	"encoding/json"
	"time"

	"github.com/absmach/cleanroom/analysis"
	"github.com/absmach/cleanroom/dashboard"
	"github.com/absmach/cleanroom/federation"
	"github.com/absmach/cleanroom/store"
	"github.com/absmach/cleanroom/upload"
	"github.com/go-kit/kit/metrics"
)

var _ dashboard.Service = (*metricsMiddleware)(nil)

type metricsMiddleware struct {
	counter metrics.Counter
	latency metrics.Histogram
	svc     dashboard.Service
}

func Metrics(counter metrics.Counter, latency metrics.Histogram, svc dashboard.Service) dashboard.Service {
	return &metricsMiddleware{
		counter: counter,
		latency: latency,
		svc:     svc,
	}
}

func (mm *metricsMiddleware) observe(method string, begin time.Time) {
	mm.counter.With("method", method).Add(1)
	mm.latency.With("method", method).Observe(time.Since(begin).Seconds())
}

func (mm *metricsMiddleware) State(ctx context.Context) (store.State, error) {
	defer mm.observe("get-state", time.Now())

	return mm.svc.State(ctx)
}

func (mm *metricsMiddleware) UpdateSettings(ctx context.Context, s dashboard.Settings) (store.State, error) {
	defer mm.observe("update-settings", time.Now())

	return mm.svc.UpdateSettings(ctx, s)
}

func (mm *metricsMiddleware) ClearState(ctx context.Context) (store.State, error) {
	defer mm.observe("clear-state", time.Now())

	return mm.svc.ClearState(ctx)
}

func (mm *metricsMiddleware) CreateFederation(ctx context.Context, req federation.CreateRequest) (store.State, error) {
	defer mm.observe("create-federation", time.Now())

	return mm.svc.CreateFederation(ctx, req)
}

func (mm *metricsMiddleware) JoinFederation(ctx context.Context, req federation.JoinRequest) (store.State, error) {
	defer mm.observe("join-federation", time.Now())

	return mm.svc.JoinFederation(ctx, req)
}

func (mm *metricsMiddleware) GenerateInvite(ctx context.Context, workspaceID, password string) (federation.Invite, error) {
	defer mm.observe("generate-invite", time.Now())

	return mm.svc.GenerateInvite(ctx, workspaceID, password)
}

func (mm *metricsMiddleware) ResetFederation(ctx context.Context) (store.State, error) {
	defer mm.observe("reset-federation", time.Now())

	return mm.svc.ResetFederation(ctx)
}

func (mm *metricsMiddleware) StartSync(ctx context.Context) error {
	defer mm.observe("start-sync", time.Now())

	return mm.svc.StartSync(ctx)
}

func (mm *metricsMiddleware) StopSync(ctx context.Context) error {
	defer mm.observe("stop-sync", time.Now())

	return mm.svc.StopSync(ctx)
}

func (mm *metricsMiddleware) SyncStats(ctx context.Context) ([]store.SyncStatsEntry, error) {
	defer mm.observe("sync-stats", time.Now())

	return mm.svc.SyncStats(ctx)
}

func (mm *metricsMiddleware) PushData(ctx context.Context, workspaceID string, p upload.Payload) (store.UploadRecord, error) {
	defer mm.observe("push-data", time.Now())

	return mm.svc.PushData(ctx, workspaceID, p)
}

func (mm *metricsMiddleware) PushAll(ctx context.Context, workspaceID string, payloads []upload.Payload) ([]store.UploadRecord, error) {
	defer mm.observe("push-all", time.Now())

	return mm.svc.PushAll(ctx, workspaceID, payloads)
}

func (mm *metricsMiddleware) ProjectInfo(ctx context.Context, workspaceID string) (json.RawMessage, error) {
	defer mm.observe("project-info", time.Now())

	return mm.svc.ProjectInfo(ctx, workspaceID)
}

func (mm *metricsMiddleware) Explore(ctx context.Context, workspaceID string, req analysis.Request) (json.RawMessage, error) {
	defer mm.observe("explore", time.Now())

	return mm.svc.Explore(ctx, workspaceID, req)
}

func (mm *metricsMiddleware) Overview(ctx context.Context, workspaceID string) (json.RawMessage, error) {
	defer mm.observe("overview", time.Now())

	return mm.svc.Overview(ctx, workspaceID)
}

func (mm *metricsMiddleware) BuildModel(ctx context.Context, workspaceID string, req analysis.ModelRequest) (json.RawMessage, error) {
	defer mm.observe("build-model", time.Now())

	return mm.svc.BuildModel(ctx, workspaceID, req)
}

func (mm *metricsMiddleware) Predict(ctx context.Context, workspaceID string, input json.RawMessage) (json.RawMessage, error) {
	defer mm.observe("predict", time.Now())

	return mm.svc.Predict(ctx, workspaceID, input)
}
