package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	pkgerrors "github.com/absmach/cleanroom/pkg/errors"
	"github.com/absmach/cleanroom/pkg/sdk"
	"github.com/absmach/cleanroom/query"
)

// Explorer executes analysis requests through the query cache.
type Explorer struct {
	sdk    sdk.SDK
	cache  *query.Cache
	logger *slog.Logger
}

func NewExplorer(client sdk.SDK, cache *query.Cache, logger *slog.Logger) *Explorer {
	if logger == nil {
		logger = slog.Default()
	}

	return &Explorer{
		sdk:    client,
		cache:  cache,
		logger: logger,
	}
}

// Explore returns the statistical summary for req, waiting for the remote
// service when the cached one is missing or stale.
func (e *Explorer) Explore(ctx context.Context, workspaceID string, req Request) (json.RawMessage, error) {
	key, fetch, err := e.explore(workspaceID, req)
	if err != nil {
		return nil, err
	}

	return query.FetchAs(ctx, e.cache, key, fetch)
}

// Query is the non-blocking form of Explore.
func (e *Explorer) Query(ctx context.Context, workspaceID string, req Request) (query.Result, error) {
	key, fetch, err := e.explore(workspaceID, req)
	if err != nil {
		return query.Result{}, err
	}

	return e.cache.Query(ctx, key, func(ctx context.Context) (any, error) {
		return fetch(ctx)
	}), nil
}

// Overview returns the univariate summary shown on the overview page.
func (e *Explorer) Overview(ctx context.Context, workspaceID string) (json.RawMessage, error) {
	req, err := Build(Univariate, OverviewAttributes, "")
	if err != nil {
		return nil, err
	}

	return e.Explore(ctx, workspaceID, req)
}

func (e *Explorer) ProjectInfo(ctx context.Context, workspaceID string) (json.RawMessage, error) {
	if workspaceID == "" {
		return nil, errNoWorkspace
	}

	key := query.NewKey(query.ProjectPath(workspaceID), nil)

	return query.FetchAs(ctx, e.cache, key, func(ctx context.Context) (json.RawMessage, error) {
		return e.sdk.ProjectInfo(ctx, workspaceID)
	})
}

// BuildModel trains a model on the workspace data. Model building is a
// mutation and is never cached.
func (e *Explorer) BuildModel(ctx context.Context, workspaceID string, req ModelRequest) (json.RawMessage, error) {
	if workspaceID == "" {
		return nil, errNoWorkspace
	}
	if _, err := BuildModel(req.Algorithm, req.Inputs, req.Targets); err != nil {
		return nil, err
	}

	data, err := e.cache.Mutate(ctx, func(ctx context.Context) (any, error) {
		return e.sdk.BuildModel(ctx, workspaceID, req.Body())
	})
	if err != nil {
		return nil, err
	}
	e.logger.Info("model built",
		slog.String("workspace_id", workspaceID),
		slog.String("algorithm", string(req.Algorithm)))

	return asRaw(data), nil
}

func (e *Explorer) Predict(ctx context.Context, workspaceID string, input json.RawMessage) (json.RawMessage, error) {
	if workspaceID == "" {
		return nil, errNoWorkspace
	}
	if len(input) > 0 && !json.Valid(input) {
		return nil, fmt.Errorf("%w: prediction input is not valid JSON", pkgerrors.ErrMalformedRequest)
	}

	data, err := e.cache.Mutate(ctx, func(ctx context.Context) (any, error) {
		return e.sdk.Predict(ctx, workspaceID, input)
	})
	if err != nil {
		return nil, err
	}

	return asRaw(data), nil
}

var errNoWorkspace = fmt.Errorf("%w: no workspace selected", pkgerrors.ErrMalformedRequest)

func (e *Explorer) explore(workspaceID string, req Request) (query.Key, func(context.Context) (json.RawMessage, error), error) {
	if workspaceID == "" {
		return "", nil, errNoWorkspace
	}
	if req.Metric == Predictive {
		return "", nil, fmt.Errorf("%w: predictive selections go through model building", pkgerrors.ErrInvalidSelection)
	}
	// re-run the builder so hand made requests get the same checks
	built, err := Build(req.Metric, req.Attributes, req.Cohort)
	if err != nil {
		return "", nil, err
	}

	key := query.NewKey(query.ProjectPath(workspaceID)+"/explore", built.Params())
	fetch := func(ctx context.Context) (json.RawMessage, error) {
		return e.sdk.Explore(ctx, workspaceID, built.Metric.Wire(), built.Body())
	}

	return key, fetch, nil
}

func asRaw(data any) json.RawMessage {
	raw, _ := data.(json.RawMessage)

	return raw
}
