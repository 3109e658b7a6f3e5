package dashboard_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/absmach/cleanroom/analysis"
	"github.com/absmach/cleanroom/dashboard"
	"github.com/absmach/cleanroom/federation"
	pkgerrors "github.com/absmach/cleanroom/pkg/errors"
	"github.com/absmach/cleanroom/pkg/sdk"
	"github.com/absmach/cleanroom/pkg/sdk/mocks"
	"github.com/absmach/cleanroom/pkg/storage"
	"github.com/absmach/cleanroom/query"
	"github.com/absmach/cleanroom/store"
	"github.com/absmach/cleanroom/upload"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T, repo storage.Storage) (dashboard.Service, *mocks.SDK) {
	t.Helper()

	ctx := context.Background()
	st := store.New(ctx, repo, nil)
	cache := query.New(nil, query.WithPolicy(query.Policy{
		StaleTime:       time.Minute,
		Retries:         2,
		MutationRetries: 1,
		InitialBackoff:  time.Millisecond,
		MaxBackoff:      time.Millisecond,
	}))
	client := new(mocks.SDK)

	svc := dashboard.NewService(
		st,
		federation.NewController(client, cache, st, nil),
		analysis.NewExplorer(client, cache, nil),
		upload.New(client, cache, st, nil),
	)

	return svc, client
}

func TestUpdateSettings(t *testing.T) {
	gpu := store.ProcessingGPU
	tpu := store.ProcessingType("tpu")

	cases := []struct {
		desc     string
		settings dashboard.Settings
		err      error
		check    func(t *testing.T, st store.State)
	}{
		{
			desc:     "dark mode",
			settings: dashboard.Settings{DarkMode: store.Ptr(true)},
			check: func(t *testing.T, st store.State) {
				assert.True(t, st.DarkMode)
			},
		},
		{
			desc: "workspace config merged",
			settings: dashboard.Settings{WorkspaceConfig: &store.WorkspaceConfigPatch{
				ProcessingType: &gpu,
				TargetList:     []string{"ldl", "ldl", "hdl"},
			}},
			check: func(t *testing.T, st store.State) {
				assert.Equal(t, store.ProcessingGPU, st.WorkspaceConfig.ProcessingType)
				assert.Equal(t, []string{"ldl", "hdl"}, st.WorkspaceConfig.TargetList)
				assert.Equal(t, []string{"smoker", "on_statins"}, st.WorkspaceConfig.ConditionList)
			},
		},
		{
			desc:     "invalid processing type",
			settings: dashboard.Settings{WorkspaceConfig: &store.WorkspaceConfigPatch{ProcessingType: &tpu}},
			err:      pkgerrors.ErrMalformedRequest,
		},
		{
			desc:     "negative tab",
			settings: dashboard.Settings{ActiveTab: store.Ptr(-1)},
			err:      pkgerrors.ErrMalformedRequest,
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			svc, _ := newService(t, storage.NewInMemoryStorage())

			st, err := svc.UpdateSettings(context.Background(), tc.settings)
			assert.ErrorIs(t, err, tc.err)
			if tc.check != nil {
				tc.check(t, st)
			}
		})
	}
}

func TestSettingsSurviveRestart(t *testing.T) {
	repo := storage.NewInMemoryStorage()
	ctx := context.Background()

	svc, _ := newService(t, repo)
	_, err := svc.UpdateSettings(ctx, dashboard.Settings{
		DarkMode:           store.Ptr(true),
		CurrentWorkspaceID: store.Ptr("ws1"),
		ActiveTab:          store.Ptr(2),
		SearchQuery:        store.Ptr("bmi"),
	})
	require.NoError(t, err)

	svc, _ = newService(t, repo)
	st, err := svc.State(ctx)
	require.NoError(t, err)
	assert.True(t, st.DarkMode)
	assert.Equal(t, "ws1", st.CurrentWorkspaceID)
	assert.Zero(t, st.ActiveTab)
	assert.Empty(t, st.SearchQuery)
	assert.Equal(t, store.StatusIdle, st.FederationStatus)
}

func TestClearState(t *testing.T) {
	repo := storage.NewInMemoryStorage()
	ctx := context.Background()

	svc, client := newService(t, repo)
	_, err := svc.UpdateSettings(ctx, dashboard.Settings{
		DarkMode:           store.Ptr(true),
		CurrentWorkspaceID: store.Ptr("ws1"),
	})
	require.NoError(t, err)

	creating := make(chan struct{})
	release := make(chan struct{})
	client.On("CreateFederation", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			close(creating)
			<-release
		}).
		Return(nil).Once()

	done := make(chan error, 1)
	go func() {
		_, err := svc.CreateFederation(ctx, federation.CreateRequest{
			WorkspaceID:  "ws1",
			Transport:    federation.Transport{NATSHosts: federation.DefaultNATSHosts},
			SyncSchedule: "m5",
		})
		done <- err
	}()
	<-creating

	_, err = svc.ClearState(ctx)
	assert.ErrorIs(t, err, pkgerrors.ErrConcurrencyConflict)

	close(release)
	require.NoError(t, <-done)

	st, err := svc.ClearState(ctx)
	require.NoError(t, err)
	assert.Equal(t, store.DefaultState(), st)

	svc, _ = newService(t, repo)
	st, err = svc.State(ctx)
	require.NoError(t, err)
	assert.False(t, st.DarkMode)
	assert.Empty(t, st.CurrentWorkspaceID)
}

func TestCurrentWorkspaceFallback(t *testing.T) {
	svc, client := newService(t, storage.NewInMemoryStorage())
	ctx := context.Background()

	client.On("CreateFederation", mock.Anything, mock.Anything).Return(nil).Once()
	client.On("ProjectInfo", mock.Anything, "wsA").Return(json.RawMessage(`{"name":"wsA"}`), nil).Once()
	client.On("PushData", mock.Anything, "wsA", mock.Anything).Return(nil, nil).Once()
	client.On("Explore", mock.Anything, "wsA", "uni", sdk.ExploreReq{InputAttributeNames: []string{"age", "bmi", "sex"}}).
		Return(json.RawMessage(`{}`), nil).Once()

	st, err := svc.CreateFederation(ctx, federation.CreateRequest{
		WorkspaceID:  "wsA",
		Transport:    federation.Transport{NATSHosts: federation.DefaultNATSHosts},
		SyncSchedule: "h1",
	})
	require.NoError(t, err)
	assert.Equal(t, store.StatusActive, st.FederationStatus)

	info, err := svc.ProjectInfo(ctx, "")
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"wsA"}`, string(info))

	rec, err := svc.PushData(ctx, "", upload.Payload{FileName: "a.csv", Data: []byte("a\n1\n")})
	require.NoError(t, err)
	assert.Equal(t, store.UploadSuccess, rec.Status)

	_, err = svc.Overview(ctx, "")
	require.NoError(t, err)

	client.AssertExpectations(t)
}

func TestPushDataNeverFails(t *testing.T) {
	svc, client := newService(t, storage.NewInMemoryStorage())
	client.On("PushData", mock.Anything, "ws1", mock.Anything).Return(nil, &pkgerrors.RemoteError{StatusCode: 500})

	recs, err := svc.PushAll(context.Background(), "ws1", []upload.Payload{
		{FileName: "a.csv", Data: []byte("a\n1\n")},
		{FileName: "b.csv", Data: []byte("a\n1\n")},
	})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	for _, rec := range recs {
		assert.Equal(t, store.UploadError, rec.Status)
	}

	st, err := svc.State(context.Background())
	require.NoError(t, err)
	assert.Len(t, st.UploadHistory, 2)
}
