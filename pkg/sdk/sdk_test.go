package sdk_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	pkgerrors "github.com/absmach/cleanroom/pkg/errors"
	"github.com/absmach/cleanroom/pkg/sdk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	method      string
	path        string
	query       string
	contentType string
	body        []byte
}

func newServer(t *testing.T, status int, resp string) (*httptest.Server, *recorded) {
	t.Helper()

	rec := &recorded{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.method = r.Method
		rec.path = r.URL.Path
		rec.query = r.URL.RawQuery
		rec.contentType = r.Header.Get("Content-Type")
		rec.body, _ = io.ReadAll(r.Body)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(resp))
	}))
	t.Cleanup(srv.Close)

	return srv, rec
}

func TestCreateFederationBody(t *testing.T) {
	srv, rec := newServer(t, http.StatusOK, `{"ok":true}`)
	s := sdk.NewSDK(sdk.Config{URL: srv.URL + "/api"})

	err := s.CreateFederation(context.Background(), sdk.CreateFederationReq{
		PID:          "wsA",
		NATSHosts:    "nats://charm:4222",
		SyncSchedule: "m1",
		WorkspaceConfig: sdk.WorkspaceConfig{
			ProcessingType: "cpu",
			PersistData:    true,
			TargetList:     []string{"age"},
			ConditionList:  []string{"smoker"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, rec.method)
	assert.Equal(t, "/api/fed/create", rec.path)
	assert.Equal(t, sdk.CTJSON, rec.contentType)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.body, &body))
	assert.Equal(t, "wsA", body["pid"])
	assert.Equal(t, "nats://charm:4222", body["natsHosts"])
	assert.Equal(t, "cpu", body["processingType"])
	assert.Equal(t, true, body["persistData"])
	assert.Equal(t, []any{"smoker"}, body["conditionList"])
}

func TestExploreRequest(t *testing.T) {
	srv, rec := newServer(t, http.StatusOK, `{"age":{"mean":63.2}}`)
	s := sdk.NewSDK(sdk.Config{URL: srv.URL})

	summary, err := s.Explore(context.Background(), "wsA", "bi", sdk.ExploreReq{
		InputAttributeNames: []string{"Smokers", "age"},
		ExtraParameters:     map[string]bool{"need_bi_conditional": true},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"age":{"mean":63.2}}`, string(summary))
	assert.Equal(t, "/projects/wsA/explore", rec.path)
	assert.Equal(t, "metric=bi", rec.query)
	assert.JSONEq(t, `{"inputAttributeNames":["Smokers","age"],"extraParameters":{"need_bi_conditional":true}}`, string(rec.body))
}

func TestPushDataSendsCSV(t *testing.T) {
	srv, rec := newServer(t, http.StatusCreated, "")
	s := sdk.NewSDK(sdk.Config{URL: srv.URL})

	resp, err := s.PushData(context.Background(), "wsA", []byte("age,bmi\n1,2\n"))
	require.NoError(t, err)
	assert.Equal(t, "null", string(resp))
	assert.Equal(t, sdk.CTCSV, rec.contentType)
	assert.Equal(t, "/projects/wsA/learn", rec.path)
	assert.Equal(t, "age,bmi\n1,2\n", string(rec.body))
}

func TestSyncStats(t *testing.T) {
	srv, rec := newServer(t, http.StatusOK, `[{"timestamp":"2024-01-01T00:00:00Z","status":"ok","mergedCount":3}]`)
	s := sdk.NewSDK(sdk.Config{URL: srv.URL})

	stats, err := s.SyncStats(context.Background(), "wsA")
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, 3, stats[0].MergedCount)
	assert.Equal(t, http.MethodGet, rec.method)
	assert.Equal(t, "/fed/wsA/syncStats", rec.path)
}

func TestRemoteRejection(t *testing.T) {
	cases := []struct {
		desc    string
		body    string
		message string
	}{
		{desc: "message field", body: `{"message":"project exists"}`, message: "project exists"},
		{desc: "error field", body: `{"error":"bad invite"}`, message: "bad invite"},
		{desc: "plain text", body: "boom\n", message: "boom"},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			srv, _ := newServer(t, http.StatusConflict, tc.body)
			s := sdk.NewSDK(sdk.Config{URL: srv.URL})

			err := s.StartPulsing(context.Background(), "wsA")
			require.Error(t, err)
			assert.ErrorIs(t, err, pkgerrors.ErrRemoteRejection)
			assert.False(t, pkgerrors.IsRetryable(err))

			var remote *pkgerrors.RemoteError
			require.ErrorAs(t, err, &remote)
			assert.Equal(t, http.StatusConflict, remote.StatusCode)
			assert.Equal(t, tc.message, remote.Message)
		})
	}
}

func TestNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := srv.URL
	srv.Close()

	s := sdk.NewSDK(sdk.Config{URL: addr, Timeout: time.Second})
	_, err := s.ProjectInfo(context.Background(), "wsA")
	require.Error(t, err)
	assert.ErrorIs(t, err, pkgerrors.ErrNetworkFailure)
	assert.True(t, pkgerrors.IsRetryable(err))
}
