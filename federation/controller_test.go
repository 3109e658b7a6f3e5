package federation_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/absmach/cleanroom/federation"
	pkgerrors "github.com/absmach/cleanroom/pkg/errors"
	"github.com/absmach/cleanroom/pkg/sdk"
	"github.com/absmach/cleanroom/pkg/sdk/mocks"
	"github.com/absmach/cleanroom/pkg/storage"
	"github.com/absmach/cleanroom/query"
	"github.com/absmach/cleanroom/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var errNetwork = errors.Join(pkgerrors.ErrNetworkFailure, errors.New("dial tcp: connection refused"))

func newController(t *testing.T) (federation.Controller, *store.Store, *mocks.SDK) {
	t.Helper()

	st := store.New(context.Background(), storage.NewInMemoryStorage(), nil)
	cache := query.New(nil, query.WithPolicy(query.Policy{
		StaleTime:       time.Minute,
		Retries:         2,
		MutationRetries: 1,
		InitialBackoff:  time.Millisecond,
		MaxBackoff:      time.Millisecond,
	}))
	client := new(mocks.SDK)

	return federation.NewController(client, cache, st, nil), st, client
}

func createRequest(pid string) federation.CreateRequest {
	return federation.CreateRequest{
		WorkspaceID:  pid,
		Transport:    federation.Transport{NATSHosts: federation.DefaultNATSHosts},
		SyncSchedule: "m5",
	}
}

func activate(t *testing.T, ctrl federation.Controller, client *mocks.SDK, pid string) {
	t.Helper()

	client.On("CreateFederation", mock.Anything, mock.Anything).Return(nil).Once()
	require.NoError(t, ctrl.Create(context.Background(), createRequest(pid)))
}

func TestCreate(t *testing.T) {
	ctrl, st, client := newController(t)

	client.On("CreateFederation", mock.Anything, sdk.CreateFederationReq{
		PID:          "wsA",
		NATSHosts:    "nats://charm:4222",
		SyncSchedule: "m5",
		WorkspaceConfig: sdk.WorkspaceConfig{
			ProcessingType: "cpu",
			PersistData:    true,
			TargetList:     []string{"age", "bmi"},
			ConditionList:  []string{"smoker", "on_statins"},
		},
	}).Return(nil).Once()

	err := ctrl.Create(context.Background(), createRequest("wsA"))
	require.NoError(t, err)

	state := st.Get()
	assert.Equal(t, store.StatusActive, state.FederationStatus)
	assert.Equal(t, "wsA", state.CurrentWorkspaceID)
	assert.Empty(t, state.LastError)
	assert.Equal(t, "m5", ctrl.Schedule())
	client.AssertExpectations(t)
}

func TestCreateWithConfig(t *testing.T) {
	ctrl, st, client := newController(t)

	cfg := store.WorkspaceConfig{
		ProcessingType:  store.ProcessingGPU,
		EnableHistogram: true,
		TargetList:      []string{"ldl"},
		ConditionList:   []string{"diabetic"},
	}
	client.On("CreateFederation", mock.Anything, mock.MatchedBy(func(req sdk.CreateFederationReq) bool {
		return req.ProcessingType == "gpu" && req.EnableHistogram && !req.PersistData
	})).Return(nil).Once()

	req := createRequest("wsB")
	req.Config = &cfg
	require.NoError(t, ctrl.Create(context.Background(), req))

	assert.Equal(t, cfg, st.Get().WorkspaceConfig)
	client.AssertExpectations(t)
}

func TestCreateFailures(t *testing.T) {
	cases := []struct {
		desc     string
		err      error
		attempts int
	}{
		{
			desc:     "remote rejection is not retried",
			err:      &pkgerrors.RemoteError{StatusCode: 409, Message: "project already exists"},
			attempts: 1,
		},
		{
			desc:     "network failure is retried once",
			err:      errNetwork,
			attempts: 2,
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			ctrl, st, client := newController(t)
			client.On("CreateFederation", mock.Anything, mock.Anything).Return(tc.err)

			err := ctrl.Create(context.Background(), createRequest("wsA"))
			assert.ErrorIs(t, err, tc.err)

			state := st.Get()
			assert.Equal(t, store.StatusError, state.FederationStatus)
			assert.Equal(t, tc.err.Error(), state.LastError)
			assert.Empty(t, state.CurrentWorkspaceID)
			client.AssertNumberOfCalls(t, "CreateFederation", tc.attempts)
		})
	}
}

func TestCreateValidation(t *testing.T) {
	tpu := store.WorkspaceConfig{ProcessingType: "tpu"}

	cases := []struct {
		desc string
		req  federation.CreateRequest
	}{
		{
			desc: "empty workspace id",
			req:  federation.CreateRequest{Transport: federation.Transport{NATSHosts: "nats://h:4222"}, SyncSchedule: "m1"},
		},
		{
			desc: "missing transport",
			req:  federation.CreateRequest{WorkspaceID: "ws", SyncSchedule: "m1"},
		},
		{
			desc: "invalid sync schedule",
			req:  federation.CreateRequest{WorkspaceID: "ws", Transport: federation.Transport{NATSHosts: "nats://h:4222"}, SyncSchedule: "x5"},
		},
		{
			desc: "invalid processing type",
			req:  federation.CreateRequest{WorkspaceID: "ws", Transport: federation.Transport{NATSHosts: "nats://h:4222"}, SyncSchedule: "*/5 * * * *", Config: &tpu},
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			ctrl, st, client := newController(t)

			err := ctrl.Create(context.Background(), tc.req)
			assert.ErrorIs(t, err, pkgerrors.ErrMalformedRequest)
			assert.Equal(t, store.StatusIdle, st.Get().FederationStatus)
			client.AssertNotCalled(t, "CreateFederation", mock.Anything, mock.Anything)
		})
	}
}

func TestJoinWhileCreatingConflicts(t *testing.T) {
	ctrl, st, client := newController(t)

	started := make(chan struct{})
	release := make(chan struct{})
	client.On("CreateFederation", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		close(started)
		<-release
	}).Return(nil).Once()

	done := make(chan error, 1)
	go func() {
		done <- ctrl.Create(context.Background(), createRequest("wsA"))
	}()
	<-started

	before := st.Get()
	assert.Equal(t, store.StatusCreating, before.FederationStatus)

	err := ctrl.Join(context.Background(), federation.JoinRequest{WorkspaceID: "wsB", InviteToken: `{"pid":"wsA"}`})
	assert.ErrorIs(t, err, pkgerrors.ErrConcurrencyConflict)
	err = ctrl.Create(context.Background(), createRequest("wsC"))
	assert.ErrorIs(t, err, pkgerrors.ErrConcurrencyConflict)
	_, err = ctrl.GenerateInvite(context.Background(), "wsA", "secret")
	assert.ErrorIs(t, err, pkgerrors.ErrConcurrencyConflict)
	assert.Equal(t, before, st.Get())

	close(release)
	require.NoError(t, <-done)

	state := st.Get()
	assert.Equal(t, store.StatusActive, state.FederationStatus)
	assert.Equal(t, "wsA", state.CurrentWorkspaceID)
	client.AssertNotCalled(t, "JoinFederation", mock.Anything, mock.Anything)
	client.AssertNotCalled(t, "GenerateInvite", mock.Anything, mock.Anything, mock.Anything)
}

func TestJoin(t *testing.T) {
	ctrl, st, client := newController(t)

	client.On("JoinFederation", mock.Anything, mock.MatchedBy(func(req sdk.JoinFederationReq) bool {
		return req.PID == "wsB" && req.InviteJSON == `{"pid":"wsA","token":"abc"}` && req.ProcessingType == "cpu"
	})).Return(nil).Once()

	err := ctrl.Join(context.Background(), federation.JoinRequest{WorkspaceID: "wsB", InviteToken: `{"pid":"wsA","token":"abc"}`})
	require.NoError(t, err)

	state := st.Get()
	assert.Equal(t, store.StatusActive, state.FederationStatus)
	assert.Equal(t, "wsB", state.CurrentWorkspaceID)
	client.AssertExpectations(t)
}

func TestJoinFailureKeepsReason(t *testing.T) {
	ctrl, st, client := newController(t)
	client.On("JoinFederation", mock.Anything, mock.Anything).Return(&pkgerrors.RemoteError{StatusCode: 400, Message: "invalid invite"})

	err := ctrl.Join(context.Background(), federation.JoinRequest{WorkspaceID: "wsB", InviteToken: "garbage"})
	assert.ErrorIs(t, err, pkgerrors.ErrRemoteRejection)

	state := st.Get()
	assert.Equal(t, store.StatusError, state.FederationStatus)
	assert.Contains(t, state.LastError, "invalid invite")

	// a failed federation only accepts a reset
	err = ctrl.Join(context.Background(), federation.JoinRequest{WorkspaceID: "wsB", InviteToken: "garbage"})
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidTransition)

	require.NoError(t, ctrl.Reset(context.Background()))
	state = st.Get()
	assert.Equal(t, store.StatusIdle, state.FederationStatus)
	assert.Empty(t, state.LastError)
}

func TestCreateWhileActive(t *testing.T) {
	ctrl, st, client := newController(t)
	activate(t, ctrl, client, "wsA")

	err := ctrl.Create(context.Background(), createRequest("wsB"))
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidTransition)
	assert.Equal(t, "wsA", st.Get().CurrentWorkspaceID)
}

func TestReset(t *testing.T) {
	cases := []struct {
		desc string
		err  error
	}{
		{
			desc: "reset from idle",
			err:  pkgerrors.ErrInvalidTransition,
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			ctrl, st, _ := newController(t)

			err := ctrl.Reset(context.Background())
			assert.ErrorIs(t, err, tc.err)
			assert.Equal(t, store.StatusIdle, st.Get().FederationStatus)
		})
	}
}

func TestGenerateInvite(t *testing.T) {
	ctrl, st, client := newController(t)
	activate(t, ctrl, client, "wsA")

	payload := json.RawMessage(`{"pid":"wsA","key":"k1"}`)
	client.On("GenerateInvite", mock.Anything, "wsA", "secret").Return(payload, nil).Once()

	before := st.Get()
	invite, err := ctrl.GenerateInvite(context.Background(), "wsA", "secret")
	require.NoError(t, err)
	assert.Equal(t, "wsA", invite.WorkspaceID)
	assert.JSONEq(t, string(payload), string(invite.Payload))
	assert.Equal(t, before, st.Get())

	_, err = ctrl.GenerateInvite(context.Background(), "wsA", "")
	assert.ErrorIs(t, err, pkgerrors.ErrMalformedRequest)
}

func TestGenerateInviteFailureKeepsStatus(t *testing.T) {
	ctrl, st, client := newController(t)
	activate(t, ctrl, client, "wsA")
	client.On("GenerateInvite", mock.Anything, "wsA", "secret").Return(nil, &pkgerrors.RemoteError{StatusCode: 500}).Once()

	_, err := ctrl.GenerateInvite(context.Background(), "wsA", "secret")
	assert.ErrorIs(t, err, pkgerrors.ErrRemoteRejection)
	assert.Equal(t, store.StatusActive, st.Get().FederationStatus)
}

func TestSyncPulsing(t *testing.T) {
	ctrl, st, client := newController(t)

	assert.ErrorIs(t, ctrl.StartSync(context.Background()), pkgerrors.ErrNotActive)
	assert.ErrorIs(t, ctrl.StopSync(context.Background()), pkgerrors.ErrNotActive)

	activate(t, ctrl, client, "wsA")
	client.On("StartPulsing", mock.Anything, "wsA").Return(nil).Once()
	client.On("StopPulsing", mock.Anything, "wsA").Return(nil).Once()

	require.NoError(t, ctrl.StartSync(context.Background()))
	assert.True(t, st.Get().Syncing)
	assert.Equal(t, store.StatusActive, st.Get().FederationStatus)

	require.NoError(t, ctrl.StopSync(context.Background()))
	assert.False(t, st.Get().Syncing)
	client.AssertExpectations(t)
}

func TestStartSyncFailureKeepsFlag(t *testing.T) {
	ctrl, st, client := newController(t)
	activate(t, ctrl, client, "wsA")
	client.On("StartPulsing", mock.Anything, "wsA").Return(&pkgerrors.RemoteError{StatusCode: 503, Message: "nats unavailable"})

	err := ctrl.StartSync(context.Background())
	assert.ErrorIs(t, err, pkgerrors.ErrRemoteRejection)
	assert.False(t, st.Get().Syncing)
	assert.Equal(t, store.StatusActive, st.Get().FederationStatus)
}

func TestRefreshSyncStats(t *testing.T) {
	ctrl, st, client := newController(t)

	_, err := ctrl.SyncStats(context.Background())
	assert.ErrorIs(t, err, pkgerrors.ErrNotActive)

	activate(t, ctrl, client, "wsA")

	client.On("SyncStats", mock.Anything, "wsA").Return([]sdk.SyncStat{
		{Timestamp: "2024-03-01T10:01:00Z", Status: "ok", MergedCount: 4},
		{Timestamp: "2024-03-01T10:00:00Z", Status: "ok", MergedCount: 3},
		{Timestamp: "not a time", Status: "ok"},
	}, nil).Once()
	client.On("SyncStats", mock.Anything, "wsA").Return([]sdk.SyncStat{
		{Timestamp: "2024-03-01T10:00:00Z", Status: "ok", MergedCount: 3},
		{Timestamp: "2024-03-01T10:01:00Z", Status: "ok", MergedCount: 4},
		{Timestamp: "2024-03-01T10:02:00Z", Status: "failed", MergedCount: 0},
	}, nil).Once()

	n, err := ctrl.RefreshSyncStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = ctrl.RefreshSyncStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	stats := st.Get().SyncStats
	require.Len(t, stats, 3)
	assert.Equal(t, 3, stats[0].MergedCount)
	assert.Equal(t, 4, stats[1].MergedCount)
	assert.Equal(t, "failed", stats[2].Status)

	// served from the cache
	cached, err := ctrl.SyncStats(context.Background())
	require.NoError(t, err)
	assert.Len(t, cached, 3)
	client.AssertNumberOfCalls(t, "SyncStats", 2)
}

func TestSyncStatsTimestampLayouts(t *testing.T) {
	cases := []struct {
		desc      string
		timestamp string
		want      time.Time
	}{
		{
			desc:      "RFC3339",
			timestamp: "2024-03-01T10:00:00Z",
			want:      time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		},
		{
			desc:      "fractional seconds with offset",
			timestamp: "2024-03-01T11:00:00.250+01:00",
			want:      time.Date(2024, 3, 1, 10, 0, 0, 250*int(time.Millisecond), time.UTC),
		},
		{
			desc:      "no zone",
			timestamp: "2024-03-01T10:00:00.123456",
			want:      time.Date(2024, 3, 1, 10, 0, 0, 123456000, time.UTC),
		},
		{
			desc:      "space separated",
			timestamp: "2024-03-01 10:00:00",
			want:      time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		},
		{
			desc:      "unix seconds",
			timestamp: "1709287200",
			want:      time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			ctrl, _, client := newController(t)
			activate(t, ctrl, client, "wsA")
			client.On("SyncStats", mock.Anything, "wsA").Return([]sdk.SyncStat{
				{Timestamp: tc.timestamp, Status: "ok", MergedCount: 2},
				{Timestamp: "yesterday", Status: "ok"},
			}, nil).Once()

			stats, err := ctrl.SyncStats(context.Background())
			require.NoError(t, err)
			require.Len(t, stats, 1)
			assert.True(t, tc.want.Equal(stats[0].Timestamp), "got %s", stats[0].Timestamp)
			assert.Equal(t, 2, stats[0].MergedCount)
		})
	}
}

func TestStoreSubscribersMayCallController(t *testing.T) {
	ctrl, st, client := newController(t)

	var schedules []string
	var nested []error
	defer st.Subscribe(func(s store.State) {
		schedules = append(schedules, ctrl.Schedule())
		if s.FederationStatus.Pending() || s.FederationStatus == store.StatusIdle {
			nested = append(nested, ctrl.Reset(context.Background()))
		}
	})()

	done := make(chan struct{})
	go func() {
		defer close(done)
		activate(t, ctrl, client, "wsA")
		assert.NoError(t, ctrl.Reset(context.Background()))
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("controller deadlocked in a store subscriber")
	}

	assert.NotEmpty(t, schedules)
	assert.Equal(t, store.StatusIdle, st.Get().FederationStatus)
	// the controller is busy while its own updates are delivered
	require.NotEmpty(t, nested)
	for _, err := range nested {
		assert.ErrorIs(t, err, pkgerrors.ErrConcurrencyConflict)
	}
}
