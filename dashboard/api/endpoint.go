package api

import (
	"context"
	"errors"

	"github.com/absmach/cleanroom/analysis"
	"github.com/absmach/cleanroom/dashboard"
	"github.com/absmach/cleanroom/federation"
	pkgerrors "github.com/absmach/cleanroom/pkg/errors"
	"github.com/absmach/cleanroom/upload"
	apiutil "github.com/absmach/supermq/api/http/util"
	"github.com/go-kit/kit/endpoint"
)

func getStateEndpoint(svc dashboard.Service) endpoint.Endpoint {
	return func(ctx context.Context, _ any) (any, error) {
		st, err := svc.State(ctx)
		if err != nil {
			return stateRes{}, err
		}

		return stateRes{State: st}, nil
	}
}

func updateSettingsEndpoint(svc dashboard.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(settingsReq)
		if !ok {
			return stateRes{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return stateRes{}, errors.Join(apiutil.ErrValidation, err)
		}

		st, err := svc.UpdateSettings(ctx, req.Settings)
		if err != nil {
			return stateRes{}, err
		}

		return stateRes{State: st}, nil
	}
}

func clearStateEndpoint(svc dashboard.Service) endpoint.Endpoint {
	return func(ctx context.Context, _ any) (any, error) {
		st, err := svc.ClearState(ctx)
		if err != nil {
			return stateRes{}, err
		}

		return stateRes{State: st}, nil
	}
}

func createFederationEndpoint(svc dashboard.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(createFederationReq)
		if !ok {
			return stateRes{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return stateRes{}, errors.Join(apiutil.ErrValidation, err)
		}

		st, err := svc.CreateFederation(ctx, req.toRequest())
		if err != nil {
			return stateRes{}, err
		}

		return stateRes{State: st}, nil
	}
}

func joinFederationEndpoint(svc dashboard.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(joinFederationReq)
		if !ok {
			return stateRes{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return stateRes{}, errors.Join(apiutil.ErrValidation, err)
		}

		st, err := svc.JoinFederation(ctx, federation.JoinRequest{
			WorkspaceID: req.WorkspaceID,
			InviteToken: req.InviteToken,
			Config:      req.Config,
		})
		if err != nil {
			return stateRes{}, err
		}

		return stateRes{State: st}, nil
	}
}

func generateInviteEndpoint(svc dashboard.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(inviteReq)
		if !ok {
			return inviteRes{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return inviteRes{}, errors.Join(apiutil.ErrValidation, err)
		}

		invite, err := svc.GenerateInvite(ctx, req.WorkspaceID, req.Password)
		if err != nil {
			return inviteRes{}, err
		}

		return inviteRes{Invite: invite}, nil
	}
}

func resetFederationEndpoint(svc dashboard.Service) endpoint.Endpoint {
	return func(ctx context.Context, _ any) (any, error) {
		st, err := svc.ResetFederation(ctx)
		if err != nil {
			return stateRes{}, err
		}

		return stateRes{State: st}, nil
	}
}

func startSyncEndpoint(svc dashboard.Service) endpoint.Endpoint {
	return func(ctx context.Context, _ any) (any, error) {
		if err := svc.StartSync(ctx); err != nil {
			return emptyRes{}, err
		}

		return emptyRes{}, nil
	}
}

func stopSyncEndpoint(svc dashboard.Service) endpoint.Endpoint {
	return func(ctx context.Context, _ any) (any, error) {
		if err := svc.StopSync(ctx); err != nil {
			return emptyRes{}, err
		}

		return emptyRes{}, nil
	}
}

func syncStatsEndpoint(svc dashboard.Service) endpoint.Endpoint {
	return func(ctx context.Context, _ any) (any, error) {
		stats, err := svc.SyncStats(ctx)
		if err != nil {
			return syncStatsRes{}, err
		}

		return syncStatsRes{Stats: stats}, nil
	}
}

func pushDataEndpoint(svc dashboard.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(uploadReq)
		if !ok {
			return uploadRes{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return uploadRes{}, errors.Join(apiutil.ErrValidation, err)
		}

		rec, err := svc.PushData(ctx, req.workspaceID, upload.Payload{
			FileName: req.fileName,
			Data:     req.data,
		})
		if err != nil {
			return uploadRes{}, err
		}

		return uploadRes{UploadRecord: rec}, nil
	}
}

func projectInfoEndpoint(svc dashboard.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(projectReq)
		if !ok {
			return rawRes{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return rawRes{}, errors.Join(apiutil.ErrValidation, err)
		}

		info, err := svc.ProjectInfo(ctx, req.workspaceID)
		if err != nil {
			return rawRes{}, err
		}

		return rawRes{RawMessage: info}, nil
	}
}

func exploreEndpoint(svc dashboard.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(exploreReq)
		if !ok {
			return rawRes{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return rawRes{}, errors.Join(apiutil.ErrValidation, err)
		}
		ar, err := req.toRequest()
		if err != nil {
			return rawRes{}, err
		}

		res, err := svc.Explore(ctx, req.workspaceID, ar)
		if err != nil {
			return rawRes{}, err
		}

		return rawRes{RawMessage: res}, nil
	}
}

func overviewEndpoint(svc dashboard.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(projectReq)
		if !ok {
			return rawRes{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return rawRes{}, errors.Join(apiutil.ErrValidation, err)
		}

		res, err := svc.Overview(ctx, req.workspaceID)
		if err != nil {
			return rawRes{}, err
		}

		return rawRes{RawMessage: res}, nil
	}
}

func buildModelEndpoint(svc dashboard.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(buildModelReq)
		if !ok {
			return rawRes{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return rawRes{}, errors.Join(apiutil.ErrValidation, err)
		}
		mr, err := analysis.BuildModel(analysis.Algorithm(req.Algorithm), req.Inputs, req.Targets)
		if err != nil {
			return rawRes{}, err
		}

		res, err := svc.BuildModel(ctx, req.workspaceID, mr)
		if err != nil {
			return rawRes{}, err
		}

		return rawRes{RawMessage: res}, nil
	}
}

func predictEndpoint(svc dashboard.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(predictReq)
		if !ok {
			return rawRes{}, errors.Join(apiutil.ErrValidation, pkgerrors.ErrInvalidData)
		}
		if err := req.validate(); err != nil {
			return rawRes{}, errors.Join(apiutil.ErrValidation, err)
		}

		res, err := svc.Predict(ctx, req.workspaceID, req.input)
		if err != nil {
			return rawRes{}, err
		}

		return rawRes{RawMessage: res}, nil
	}
}
