package middleware

import (
	"context"
	"encoding/json"

	"github.com/absmach/cleanroom/analysis"
	"github.com/absmach/cleanroom/dashboard"
	"github.com/absmach/cleanroom/federation"
	"github.com/absmach/cleanroom/store"
	"github.com/absmach/cleanroom/upload"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var _ dashboard.Service = (*tracing)(nil)

type tracing struct {
	tracer trace.Tracer
	svc    dashboard.Service
}

func Tracing(tracer trace.Tracer, svc dashboard.Service) dashboard.Service {
	return &tracing{tracer, svc}
}

func (tm *tracing) State(ctx context.Context) (store.State, error) {
	ctx, span := tm.tracer.Start(ctx, "get-state")
	defer span.End()

	return tm.svc.State(ctx)
}

func (tm *tracing) UpdateSettings(ctx context.Context, s dashboard.Settings) (store.State, error) {
	ctx, span := tm.tracer.Start(ctx, "update-settings")
	defer span.End()

	return tm.svc.UpdateSettings(ctx, s)
}

func (tm *tracing) ClearState(ctx context.Context) (store.State, error) {
	ctx, span := tm.tracer.Start(ctx, "clear-state")
	defer span.End()

	return tm.svc.ClearState(ctx)
}

func (tm *tracing) CreateFederation(ctx context.Context, req federation.CreateRequest) (store.State, error) {
	ctx, span := tm.tracer.Start(ctx, "create-federation", trace.WithAttributes(
		attribute.String("workspace_id", req.WorkspaceID),
		attribute.String("sync_schedule", req.SyncSchedule),
	))
	defer span.End()

	return tm.svc.CreateFederation(ctx, req)
}

func (tm *tracing) JoinFederation(ctx context.Context, req federation.JoinRequest) (store.State, error) {
	ctx, span := tm.tracer.Start(ctx, "join-federation", trace.WithAttributes(
		attribute.String("workspace_id", req.WorkspaceID),
	))
	defer span.End()

	return tm.svc.JoinFederation(ctx, req)
}

func (tm *tracing) GenerateInvite(ctx context.Context, workspaceID, password string) (federation.Invite, error) {
	ctx, span := tm.tracer.Start(ctx, "generate-invite", trace.WithAttributes(
		attribute.String("workspace_id", workspaceID),
	))
	defer span.End()

	return tm.svc.GenerateInvite(ctx, workspaceID, password)
}

func (tm *tracing) ResetFederation(ctx context.Context) (store.State, error) {
	ctx, span := tm.tracer.Start(ctx, "reset-federation")
	defer span.End()

	return tm.svc.ResetFederation(ctx)
}

func (tm *tracing) StartSync(ctx context.Context) error {
	ctx, span := tm.tracer.Start(ctx, "start-sync")
	defer span.End()

	return tm.svc.StartSync(ctx)
}

func (tm *tracing) StopSync(ctx context.Context) error {
	ctx, span := tm.tracer.Start(ctx, "stop-sync")
	defer span.End()

	return tm.svc.StopSync(ctx)
}

func (tm *tracing) SyncStats(ctx context.Context) ([]store.SyncStatsEntry, error) {
	ctx, span := tm.tracer.Start(ctx, "sync-stats")
	defer span.End()

	return tm.svc.SyncStats(ctx)
}

func (tm *tracing) PushData(ctx context.Context, workspaceID string, p upload.Payload) (store.UploadRecord, error) {
	ctx, span := tm.tracer.Start(ctx, "push-data", trace.WithAttributes(
		attribute.String("workspace_id", workspaceID),
		attribute.String("file", p.FileName),
		attribute.Int("size", len(p.Data)),
	))
	defer span.End()

	return tm.svc.PushData(ctx, workspaceID, p)
}

func (tm *tracing) PushAll(ctx context.Context, workspaceID string, payloads []upload.Payload) ([]store.UploadRecord, error) {
	ctx, span := tm.tracer.Start(ctx, "push-all", trace.WithAttributes(
		attribute.String("workspace_id", workspaceID),
		attribute.Int("files", len(payloads)),
	))
	defer span.End()

	return tm.svc.PushAll(ctx, workspaceID, payloads)
}

func (tm *tracing) ProjectInfo(ctx context.Context, workspaceID string) (json.RawMessage, error) {
	ctx, span := tm.tracer.Start(ctx, "project-info", trace.WithAttributes(
		attribute.String("workspace_id", workspaceID),
	))
	defer span.End()

	return tm.svc.ProjectInfo(ctx, workspaceID)
}

func (tm *tracing) Explore(ctx context.Context, workspaceID string, req analysis.Request) (json.RawMessage, error) {
	ctx, span := tm.tracer.Start(ctx, "explore", trace.WithAttributes(
		attribute.String("workspace_id", workspaceID),
		attribute.String("metric", string(req.Metric)),
		attribute.StringSlice("attributes", req.Attributes),
		attribute.String("cohort", req.Cohort),
	))
	defer span.End()

	return tm.svc.Explore(ctx, workspaceID, req)
}

func (tm *tracing) Overview(ctx context.Context, workspaceID string) (json.RawMessage, error) {
	ctx, span := tm.tracer.Start(ctx, "overview", trace.WithAttributes(
		attribute.String("workspace_id", workspaceID),
	))
	defer span.End()

	return tm.svc.Overview(ctx, workspaceID)
}

func (tm *tracing) BuildModel(ctx context.Context, workspaceID string, req analysis.ModelRequest) (json.RawMessage, error) {
	ctx, span := tm.tracer.Start(ctx, "build-model", trace.WithAttributes(
		attribute.String("workspace_id", workspaceID),
		attribute.String("algorithm", string(req.Algorithm)),
	))
	defer span.End()

	return tm.svc.BuildModel(ctx, workspaceID, req)
}

func (tm *tracing) Predict(ctx context.Context, workspaceID string, input json.RawMessage) (json.RawMessage, error) {
	ctx, span := tm.tracer.Start(ctx, "predict", trace.WithAttributes(
		attribute.String("workspace_id", workspaceID),
	))
	defer span.End()

	return tm.svc.Predict(ctx, workspaceID, input)
}
