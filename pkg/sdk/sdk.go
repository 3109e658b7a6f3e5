package sdk

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	pkgerrors "github.com/absmach/cleanroom/pkg/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	CTJSON string = "application/json"
	CTCSV  string = "text/csv"

	DefURL     = "http://localhost:3101/api"
	DefTimeout = 30 * time.Second
)

// SDK is the client of the remote analysis and federation service.
type SDK interface {
	// CreateFederation creates a federated workspace.
	//
	// example:
	//  err := sdk.CreateFederation(ctx, sdk.CreateFederationReq{
	//    PID:          "clean-room-1",
	//    NATSHosts:    "nats://charm:4222",
	//    SyncSchedule: "m1",
	//  })
	CreateFederation(ctx context.Context, req CreateFederationReq) error

	// GenerateInvite generates an invite for a workspace. The payload is opaque.
	//
	// example:
	//  invite, _ := sdk.GenerateInvite(ctx, "clean-room-1", "passwd66")
	//  fmt.Println(string(invite))
	GenerateInvite(ctx context.Context, pid, password string) (json.RawMessage, error)

	// JoinFederation joins a federation using an invite.
	JoinFederation(ctx context.Context, req JoinFederationReq) error

	// StartPulsing starts workspace synchronization.
	StartPulsing(ctx context.Context, pid string) error

	// StopPulsing stops workspace synchronization.
	StopPulsing(ctx context.Context, pid string) error

	// SyncStats returns the synchronization statistics of a workspace.
	SyncStats(ctx context.Context, pid string) ([]SyncStat, error)

	// PushData pushes raw CSV content into a workspace.
	//
	// example:
	//  _ = sdk.PushData(ctx, "clean-room-1", []byte("age,bmi\n63,27.1\n"))
	PushData(ctx context.Context, pid string, csv []byte) (json.RawMessage, error)

	// ProjectInfo returns workspace metadata.
	ProjectInfo(ctx context.Context, pid string) (json.RawMessage, error)

	// Explore requests a statistical summary for the given metric (uni or bi).
	//
	// example:
	//  summary, _ := sdk.Explore(ctx, "clean-room-1", "uni", sdk.ExploreReq{
	//    InputAttributeNames: []string{"age", "bmi"},
	//  })
	Explore(ctx context.Context, pid, metric string, req ExploreReq) (json.RawMessage, error)

	// BuildModel builds a predictive model.
	BuildModel(ctx context.Context, pid string, req BuildModelReq) (json.RawMessage, error)

	// Predict runs a prediction against a built model.
	Predict(ctx context.Context, pid string, req json.RawMessage) (json.RawMessage, error)
}

type cleanroomSDK struct {
	url    string
	client *http.Client
}

type Config struct {
	URL             string        `env:"DCR_REMOTE_URL"              envDefault:"http://localhost:3101/api" toml:"url"`
	Timeout         time.Duration `env:"DCR_REMOTE_TIMEOUT"          envDefault:"30s"                       toml:"timeout"`
	TLSVerification bool          `env:"DCR_REMOTE_TLS_VERIFICATION" envDefault:"true"                      toml:"tls_verification"`
}

func NewSDK(cfg Config) SDK {
	if cfg.URL == "" {
		cfg.URL = DefURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefTimeout
	}

	return &cleanroomSDK{
		url: strings.TrimSuffix(cfg.URL, "/"),
		client: &http.Client{
			Timeout: cfg.Timeout,
			Transport: otelhttp.NewTransport(&http.Transport{
				TLSClientConfig: &tls.Config{
					InsecureSkipVerify: !cfg.TLSVerification,
				},
			}),
		},
	}
}

func (sdk *cleanroomSDK) processRequest(ctx context.Context, method, reqURL, contentType string, data []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, reqURL, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	req.Header.Add("Content-Type", contentType)

	resp, err := sdk.client.Do(req)
	if err != nil {
		return nil, errors.Join(pkgerrors.ErrNetworkFailure, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Join(pkgerrors.ErrNetworkFailure, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &pkgerrors.RemoteError{
			StatusCode: resp.StatusCode,
			Message:    remoteMessage(body),
		}
	}

	return body, nil
}

func (sdk *cleanroomSDK) postJSON(ctx context.Context, reqURL string, v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	return sdk.processRequest(ctx, http.MethodPost, reqURL, CTJSON, data)
}

// remoteMessage extracts the service provided message from an error body.
func remoteMessage(body []byte) string {
	var msg struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &msg); err == nil {
		switch {
		case msg.Message != "":
			return msg.Message
		case msg.Error != "":
			return msg.Error
		}
	}

	return strings.TrimSpace(string(body))
}

func rawOrNull(body []byte) json.RawMessage {
	if len(bytes.TrimSpace(body)) == 0 {
		return json.RawMessage("null")
	}
	if !json.Valid(body) {
		quoted, _ := json.Marshal(string(body))

		return quoted
	}

	return json.RawMessage(body)
}

func endpoint(base string, parts ...string) string {
	return fmt.Sprintf("%s/%s", base, strings.Join(parts, "/"))
}
