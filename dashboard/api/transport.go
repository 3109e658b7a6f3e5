package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/absmach/cleanroom/dashboard"
	"github.com/absmach/cleanroom/pkg/api"
	pkgerrors "github.com/absmach/cleanroom/pkg/errors"
	"github.com/absmach/supermq"
	apiutil "github.com/absmach/supermq/api/http/util"
	"github.com/go-chi/chi/v5"
	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	maxFileSize = 1024 * 1024 * 100
	pidKey      = "pid"
)

func MakeHandler(svc dashboard.Service, logger *slog.Logger, instanceID string) http.Handler {
	mux := chi.NewRouter()

	opts := []kithttp.ServerOption{
		kithttp.ServerErrorEncoder(apiutil.LoggingErrorEncoder(logger, api.EncodeError)),
	}

	mux.Route("/state", func(r chi.Router) {
		r.Get("/", otelhttp.NewHandler(kithttp.NewServer(
			getStateEndpoint(svc),
			decodeEmptyReq,
			api.EncodeResponse,
			opts...,
		), "get-state").ServeHTTP)
		r.Patch("/", otelhttp.NewHandler(kithttp.NewServer(
			updateSettingsEndpoint(svc),
			decodeSettingsReq,
			api.EncodeResponse,
			opts...,
		), "update-settings").ServeHTTP)
		r.Delete("/", otelhttp.NewHandler(kithttp.NewServer(
			clearStateEndpoint(svc),
			decodeEmptyReq,
			api.EncodeResponse,
			opts...,
		), "clear-state").ServeHTTP)
	})

	mux.Route("/federation", func(r chi.Router) {
		r.Post("/create", otelhttp.NewHandler(kithttp.NewServer(
			createFederationEndpoint(svc),
			decodeJSONReq[createFederationReq],
			api.EncodeResponse,
			opts...,
		), "create-federation").ServeHTTP)
		r.Post("/join", otelhttp.NewHandler(kithttp.NewServer(
			joinFederationEndpoint(svc),
			decodeJSONReq[joinFederationReq],
			api.EncodeResponse,
			opts...,
		), "join-federation").ServeHTTP)
		r.Post("/invite", otelhttp.NewHandler(kithttp.NewServer(
			generateInviteEndpoint(svc),
			decodeJSONReq[inviteReq],
			api.EncodeResponse,
			opts...,
		), "generate-invite").ServeHTTP)
		r.Post("/reset", otelhttp.NewHandler(kithttp.NewServer(
			resetFederationEndpoint(svc),
			decodeEmptyReq,
			api.EncodeResponse,
			opts...,
		), "reset-federation").ServeHTTP)
		r.Route("/sync", func(r chi.Router) {
			r.Post("/start", otelhttp.NewHandler(kithttp.NewServer(
				startSyncEndpoint(svc),
				decodeEmptyReq,
				api.EncodeResponse,
				opts...,
			), "start-sync").ServeHTTP)
			r.Post("/stop", otelhttp.NewHandler(kithttp.NewServer(
				stopSyncEndpoint(svc),
				decodeEmptyReq,
				api.EncodeResponse,
				opts...,
			), "stop-sync").ServeHTTP)
			r.Get("/stats", otelhttp.NewHandler(kithttp.NewServer(
				syncStatsEndpoint(svc),
				decodeEmptyReq,
				api.EncodeResponse,
				opts...,
			), "sync-stats").ServeHTTP)
		})
	})

	mux.Route("/projects/{pid}", func(r chi.Router) {
		r.Get("/", otelhttp.NewHandler(kithttp.NewServer(
			projectInfoEndpoint(svc),
			decodeProjectReq,
			api.EncodeResponse,
			opts...,
		), "project-info").ServeHTTP)
		r.Post("/uploads", otelhttp.NewHandler(kithttp.NewServer(
			pushDataEndpoint(svc),
			decodeUploadReq,
			api.EncodeResponse,
			opts...,
		), "push-data").ServeHTTP)
		r.Post("/explore", otelhttp.NewHandler(kithttp.NewServer(
			exploreEndpoint(svc),
			decodeExploreReq,
			api.EncodeResponse,
			opts...,
		), "explore").ServeHTTP)
		r.Get("/overview", otelhttp.NewHandler(kithttp.NewServer(
			overviewEndpoint(svc),
			decodeProjectReq,
			api.EncodeResponse,
			opts...,
		), "overview").ServeHTTP)
		r.Post("/models", otelhttp.NewHandler(kithttp.NewServer(
			buildModelEndpoint(svc),
			decodeBuildModelReq,
			api.EncodeResponse,
			opts...,
		), "build-model").ServeHTTP)
		r.Post("/predict", otelhttp.NewHandler(kithttp.NewServer(
			predictEndpoint(svc),
			decodePredictReq,
			api.EncodeResponse,
			opts...,
		), "predict").ServeHTTP)
	})

	mux.Get("/health", supermq.Health("dashboard", instanceID))
	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

func decodeEmptyReq(_ context.Context, _ *http.Request) (any, error) {
	return nil, nil
}

func decodeSettingsReq(_ context.Context, r *http.Request) (any, error) {
	if !strings.Contains(r.Header.Get("Content-Type"), api.ContentType) {
		return nil, errors.Join(apiutil.ErrValidation, apiutil.ErrUnsupportedContentType)
	}

	var req settingsReq
	if err := json.NewDecoder(r.Body).Decode(&req.Settings); err != nil {
		return nil, errors.Join(err, apiutil.ErrValidation)
	}

	return req, nil
}

func decodeJSONReq[T any](_ context.Context, r *http.Request) (any, error) {
	if !strings.Contains(r.Header.Get("Content-Type"), api.ContentType) {
		return nil, errors.Join(apiutil.ErrValidation, apiutil.ErrUnsupportedContentType)
	}

	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, errors.Join(err, apiutil.ErrValidation)
	}

	return req, nil
}

func decodeProjectReq(_ context.Context, r *http.Request) (any, error) {
	return projectReq{
		workspaceID: chi.URLParam(r, pidKey),
	}, nil
}

func decodeUploadReq(_ context.Context, r *http.Request) (any, error) {
	ct := r.Header.Get("Content-Type")
	if !strings.Contains(ct, api.CSVContentType) && !strings.Contains(ct, "application/octet-stream") {
		return nil, errors.Join(apiutil.ErrValidation, apiutil.ErrUnsupportedContentType)
	}

	data, err := readBody(r)
	if err != nil {
		return nil, err
	}

	return uploadReq{
		workspaceID: chi.URLParam(r, pidKey),
		fileName:    r.Header.Get(api.FileNameHeader),
		data:        data,
	}, nil
}

func decodeExploreReq(ctx context.Context, r *http.Request) (any, error) {
	v, err := decodeJSONReq[exploreReq](ctx, r)
	if err != nil {
		return nil, err
	}
	req := v.(exploreReq)
	req.workspaceID = chi.URLParam(r, pidKey)
	if m := r.URL.Query().Get("metric"); m != "" && req.Metric == "" {
		req.Metric = m
	}

	return req, nil
}

func decodeBuildModelReq(ctx context.Context, r *http.Request) (any, error) {
	v, err := decodeJSONReq[buildModelReq](ctx, r)
	if err != nil {
		return nil, err
	}
	req := v.(buildModelReq)
	req.workspaceID = chi.URLParam(r, pidKey)

	return req, nil
}

func decodePredictReq(_ context.Context, r *http.Request) (any, error) {
	if !strings.Contains(r.Header.Get("Content-Type"), api.ContentType) {
		return nil, errors.Join(apiutil.ErrValidation, apiutil.ErrUnsupportedContentType)
	}

	data, err := readBody(r)
	if err != nil {
		return nil, err
	}
	if len(data) > 0 && !json.Valid(data) {
		return nil, errors.Join(apiutil.ErrValidation, pkgerrors.ErrMalformedRequest)
	}

	return predictReq{
		workspaceID: chi.URLParam(r, pidKey),
		input:       data,
	}, nil
}

// readBody reads at most maxFileSize bytes and rejects longer bodies instead
// of truncating them.
func readBody(r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxFileSize+1))
	if err != nil {
		return nil, errors.Join(err, apiutil.ErrValidation)
	}
	if len(data) > maxFileSize {
		return nil, errors.Join(apiutil.ErrValidation, pkgerrors.ErrPayloadTooLarge)
	}

	return data, nil
}
