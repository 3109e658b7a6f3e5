package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/absmach/cleanroom/analysis"
	"github.com/absmach/cleanroom/dashboard"
	"github.com/absmach/cleanroom/federation"
	"github.com/absmach/cleanroom/store"
	"github.com/absmach/cleanroom/upload"
)

var _ dashboard.Service = (*loggingMiddleware)(nil)

type loggingMiddleware struct {
	logger *slog.Logger
	svc    dashboard.Service
}

func Logging(logger *slog.Logger, svc dashboard.Service) dashboard.Service {
	return &loggingMiddleware{
		logger: logger,
		svc:    svc,
	}
}

func (lm *loggingMiddleware) State(ctx context.Context) (st store.State, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Get state failed", args...)

			return
		}
		lm.logger.Debug("Get state completed successfully", args...)
	}(time.Now())

	return lm.svc.State(ctx)
}

func (lm *loggingMiddleware) UpdateSettings(ctx context.Context, s dashboard.Settings) (st store.State, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
		}
		if s.CurrentWorkspaceID != nil {
			args = append(args, slog.String("workspace_id", *s.CurrentWorkspaceID))
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Update settings failed", args...)

			return
		}
		lm.logger.Info("Update settings completed successfully", args...)
	}(time.Now())

	return lm.svc.UpdateSettings(ctx, s)
}

func (lm *loggingMiddleware) ClearState(ctx context.Context) (st store.State, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Clear state failed", args...)

			return
		}
		lm.logger.Info("Clear state completed successfully", args...)
	}(time.Now())

	return lm.svc.ClearState(ctx)
}

func (lm *loggingMiddleware) CreateFederation(ctx context.Context, req federation.CreateRequest) (st store.State, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("workspace",
				slog.String("id", req.WorkspaceID),
				slog.String("sync_schedule", req.SyncSchedule),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Create federation failed", args...)

			return
		}
		lm.logger.Info("Create federation completed successfully", args...)
	}(time.Now())

	return lm.svc.CreateFederation(ctx, req)
}

func (lm *loggingMiddleware) JoinFederation(ctx context.Context, req federation.JoinRequest) (st store.State, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("workspace",
				slog.String("id", req.WorkspaceID),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Join federation failed", args...)

			return
		}
		lm.logger.Info("Join federation completed successfully", args...)
	}(time.Now())

	return lm.svc.JoinFederation(ctx, req)
}

func (lm *loggingMiddleware) GenerateInvite(ctx context.Context, workspaceID, password string) (inv federation.Invite, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.String("workspace_id", workspaceID),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Generate invite failed", args...)

			return
		}
		lm.logger.Info("Generate invite completed successfully", args...)
	}(time.Now())

	return lm.svc.GenerateInvite(ctx, workspaceID, password)
}

func (lm *loggingMiddleware) ResetFederation(ctx context.Context) (st store.State, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Reset federation failed", args...)

			return
		}
		lm.logger.Info("Reset federation completed successfully", args...)
	}(time.Now())

	return lm.svc.ResetFederation(ctx)
}

func (lm *loggingMiddleware) StartSync(ctx context.Context) (err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Start sync failed", args...)

			return
		}
		lm.logger.Info("Start sync completed successfully", args...)
	}(time.Now())

	return lm.svc.StartSync(ctx)
}

func (lm *loggingMiddleware) StopSync(ctx context.Context) (err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Stop sync failed", args...)

			return
		}
		lm.logger.Info("Stop sync completed successfully", args...)
	}(time.Now())

	return lm.svc.StopSync(ctx)
}

func (lm *loggingMiddleware) SyncStats(ctx context.Context) (stats []store.SyncStatsEntry, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Int("entries", len(stats)),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Get sync stats failed", args...)

			return
		}
		lm.logger.Debug("Get sync stats completed successfully", args...)
	}(time.Now())

	return lm.svc.SyncStats(ctx)
}

func (lm *loggingMiddleware) PushData(ctx context.Context, workspaceID string, p upload.Payload) (rec store.UploadRecord, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.String("workspace_id", workspaceID),
			slog.Group("upload",
				slog.String("id", rec.ID),
				slog.String("file", p.FileName),
				slog.String("status", string(rec.Status)),
				slog.Int("rows", rec.RowCount),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Push data failed", args...)

			return
		}
		lm.logger.Info("Push data completed", args...)
	}(time.Now())

	return lm.svc.PushData(ctx, workspaceID, p)
}

func (lm *loggingMiddleware) PushAll(ctx context.Context, workspaceID string, payloads []upload.Payload) (recs []store.UploadRecord, err error) {
	defer func(begin time.Time) {
		failed := 0
		for _, r := range recs {
			if r.Status == store.UploadError {
				failed++
			}
		}
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.String("workspace_id", workspaceID),
			slog.Int("files", len(payloads)),
			slog.Int("failed", failed),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Push all failed", args...)

			return
		}
		lm.logger.Info("Push all completed", args...)
	}(time.Now())

	return lm.svc.PushAll(ctx, workspaceID, payloads)
}

func (lm *loggingMiddleware) ProjectInfo(ctx context.Context, workspaceID string) (info json.RawMessage, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.String("workspace_id", workspaceID),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Get project info failed", args...)

			return
		}
		lm.logger.Debug("Get project info completed successfully", args...)
	}(time.Now())

	return lm.svc.ProjectInfo(ctx, workspaceID)
}

func (lm *loggingMiddleware) Explore(ctx context.Context, workspaceID string, req analysis.Request) (res json.RawMessage, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.String("workspace_id", workspaceID),
			slog.Group("request",
				slog.String("metric", string(req.Metric)),
				slog.Any("attributes", req.Attributes),
				slog.String("cohort", req.Cohort),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Explore failed", args...)

			return
		}
		lm.logger.Info("Explore completed successfully", args...)
	}(time.Now())

	return lm.svc.Explore(ctx, workspaceID, req)
}

func (lm *loggingMiddleware) Overview(ctx context.Context, workspaceID string) (res json.RawMessage, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.String("workspace_id", workspaceID),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Overview failed", args...)

			return
		}
		lm.logger.Info("Overview completed successfully", args...)
	}(time.Now())

	return lm.svc.Overview(ctx, workspaceID)
}

func (lm *loggingMiddleware) BuildModel(ctx context.Context, workspaceID string, req analysis.ModelRequest) (res json.RawMessage, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.String("workspace_id", workspaceID),
			slog.Group("model",
				slog.String("algorithm", string(req.Algorithm)),
				slog.Any("inputs", req.Inputs),
				slog.Any("targets", req.Targets),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Build model failed", args...)

			return
		}
		lm.logger.Info("Build model completed successfully", args...)
	}(time.Now())

	return lm.svc.BuildModel(ctx, workspaceID, req)
}

func (lm *loggingMiddleware) Predict(ctx context.Context, workspaceID string, input json.RawMessage) (res json.RawMessage, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.String("workspace_id", workspaceID),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Predict failed", args...)

			return
		}
		lm.logger.Info("Predict completed successfully", args...)
	}(time.Now())

	return lm.svc.Predict(ctx, workspaceID, input)
}
