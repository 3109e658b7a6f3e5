package sdk

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
)

const fedEndpoint = "fed"

type WorkspaceConfig struct {
	ProcessingType  string   `json:"processingType"`
	PersistData     bool     `json:"persistData"`
	EnableHistogram bool     `json:"enableHistogram"`
	TargetList      []string `json:"targetList"`
	ConditionList   []string `json:"conditionList"`
}

type CreateFederationReq struct {
	PID          string `json:"pid"`
	NATSHosts    string `json:"natsHosts"`
	SyncSchedule string `json:"syncSchedule"`
	WorkspaceConfig
}

type JoinFederationReq struct {
	PID        string `json:"pid"`
	InviteJSON string `json:"inviteJson"`
	WorkspaceConfig
}

type SyncStat struct {
	Timestamp   string `json:"timestamp"`
	Status      string `json:"status"`
	MergedCount int    `json:"mergedCount"`
}

func (sdk *cleanroomSDK) CreateFederation(ctx context.Context, req CreateFederationReq) error {
	_, err := sdk.postJSON(ctx, endpoint(sdk.url, fedEndpoint, "create"), req)

	return err
}

func (sdk *cleanroomSDK) GenerateInvite(ctx context.Context, pid, password string) (json.RawMessage, error) {
	body, err := sdk.postJSON(ctx, endpoint(sdk.url, fedEndpoint, url.PathEscape(pid), "invite"), map[string]string{
		"password": password,
	})
	if err != nil {
		return nil, err
	}

	return rawOrNull(body), nil
}

func (sdk *cleanroomSDK) JoinFederation(ctx context.Context, req JoinFederationReq) error {
	_, err := sdk.postJSON(ctx, endpoint(sdk.url, fedEndpoint, "join"), req)

	return err
}

func (sdk *cleanroomSDK) StartPulsing(ctx context.Context, pid string) error {
	_, err := sdk.processRequest(ctx, http.MethodGet, endpoint(sdk.url, fedEndpoint, url.PathEscape(pid), "startPulsing"), CTJSON, nil)

	return err
}

func (sdk *cleanroomSDK) StopPulsing(ctx context.Context, pid string) error {
	_, err := sdk.processRequest(ctx, http.MethodGet, endpoint(sdk.url, fedEndpoint, url.PathEscape(pid), "stopPulsing"), CTJSON, nil)

	return err
}

func (sdk *cleanroomSDK) SyncStats(ctx context.Context, pid string) ([]SyncStat, error) {
	body, err := sdk.processRequest(ctx, http.MethodGet, endpoint(sdk.url, fedEndpoint, url.PathEscape(pid), "syncStats"), CTJSON, nil)
	if err != nil {
		return nil, err
	}

	var stats []SyncStat
	if err := json.Unmarshal(body, &stats); err != nil {
		return nil, err
	}

	return stats, nil
}
