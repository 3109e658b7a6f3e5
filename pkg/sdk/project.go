package sdk

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
)

const projectsEndpoint = "projects"

type ExploreReq struct {
	InputAttributeNames []string        `json:"inputAttributeNames"`
	ExtraParameters     map[string]bool `json:"extraParameters,omitempty"`
}

type BuildModelReq struct {
	Algorithm string   `json:"algorithm"`
	Inputs    []string `json:"inputs"`
	Targets   []string `json:"targets"`
}

func (sdk *cleanroomSDK) PushData(ctx context.Context, pid string, csv []byte) (json.RawMessage, error) {
	body, err := sdk.processRequest(ctx, http.MethodPost, endpoint(sdk.url, projectsEndpoint, url.PathEscape(pid), "learn"), CTCSV, csv)
	if err != nil {
		return nil, err
	}

	return rawOrNull(body), nil
}

func (sdk *cleanroomSDK) ProjectInfo(ctx context.Context, pid string) (json.RawMessage, error) {
	body, err := sdk.processRequest(ctx, http.MethodGet, endpoint(sdk.url, projectsEndpoint, url.PathEscape(pid)), CTJSON, nil)
	if err != nil {
		return nil, err
	}

	return rawOrNull(body), nil
}

func (sdk *cleanroomSDK) Explore(ctx context.Context, pid, metric string, req ExploreReq) (json.RawMessage, error) {
	reqURL := endpoint(sdk.url, projectsEndpoint, url.PathEscape(pid), "explore") + "?metric=" + url.QueryEscape(metric)

	body, err := sdk.postJSON(ctx, reqURL, req)
	if err != nil {
		return nil, err
	}

	return rawOrNull(body), nil
}

func (sdk *cleanroomSDK) BuildModel(ctx context.Context, pid string, req BuildModelReq) (json.RawMessage, error) {
	body, err := sdk.postJSON(ctx, endpoint(sdk.url, projectsEndpoint, url.PathEscape(pid), "build"), req)
	if err != nil {
		return nil, err
	}

	return rawOrNull(body), nil
}

func (sdk *cleanroomSDK) Predict(ctx context.Context, pid string, req json.RawMessage) (json.RawMessage, error) {
	if len(req) == 0 {
		req = json.RawMessage("{}")
	}

	body, err := sdk.processRequest(ctx, http.MethodPost, endpoint(sdk.url, projectsEndpoint, url.PathEscape(pid), "predict"), CTJSON, req)
	if err != nil {
		return nil, err
	}

	return rawOrNull(body), nil
}
