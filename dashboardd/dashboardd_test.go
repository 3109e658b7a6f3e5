package dashboardd_test

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/absmach/cleanroom"
	"github.com/absmach/cleanroom/analysis"
	"github.com/absmach/cleanroom/dashboardd"
	"github.com/absmach/cleanroom/federation"
	"github.com/absmach/cleanroom/pkg/sdk/mocks"
	"github.com/absmach/cleanroom/pkg/storage"
	"github.com/absmach/cleanroom/store"
	"github.com/absmach/cleanroom/upload"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSessionSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	cfg := cleanroom.DefaultConfig()
	repo := storage.NewInMemoryStorage()
	client := new(mocks.SDK)

	client.On("CreateFederation", mock.Anything, mock.Anything).Return(nil).Once()
	client.On("PushData", mock.Anything, "wsA", mock.Anything).Return(`{"ok":true}`, nil).Once()

	comps := dashboardd.NewWithStorage(ctx, cfg, repo, client, logger())

	_, err := comps.Service.CreateFederation(ctx, federation.CreateRequest{
		WorkspaceID:  "wsA",
		Transport:    federation.Transport{NATSHosts: federation.DefaultNATSHosts},
		SyncSchedule: federation.DefaultSyncSchedule,
	})
	require.NoError(t, err)

	rec, err := comps.Service.PushData(ctx, "", upload.Payload{FileName: "a.csv", Data: []byte("age\n40\n41\n")})
	require.NoError(t, err)
	assert.Equal(t, store.UploadSuccess, rec.Status)
	assert.Equal(t, 2, rec.RowCount)

	restarted := dashboardd.NewWithStorage(ctx, cfg, repo, client, logger())
	st, err := restarted.Service.State(ctx)
	require.NoError(t, err)

	assert.Equal(t, "wsA", st.CurrentWorkspaceID)
	assert.Equal(t, store.StatusActive, st.FederationStatus)
	require.Len(t, st.UploadHistory, 1)
	assert.Equal(t, "a.csv", st.UploadHistory[0].FileName)
	client.AssertExpectations(t)
}

func TestExploreSharesCache(t *testing.T) {
	ctx := context.Background()
	client := new(mocks.SDK)
	client.On("Explore", mock.Anything, "wsA", "uni", mock.Anything).Return(`{"age":{}}`, nil).Once()

	comps := dashboardd.NewWithStorage(ctx, cleanroom.DefaultConfig(), storage.NewInMemoryStorage(), client, logger())
	req, err := analysis.Build(analysis.Univariate, []string{"age"}, "")
	require.NoError(t, err)

	for range 3 {
		res, err := comps.Service.Explore(ctx, "wsA", req)
		require.NoError(t, err)
		assert.JSONEq(t, `{"age":{}}`, string(res))
	}
	client.AssertExpectations(t)
}

func TestNew(t *testing.T) {
	cases := []struct {
		desc    string
		backend string
		err     bool
	}{
		{desc: "memory", backend: storage.BackendMemory},
		{desc: "badger", backend: storage.BackendBadger},
		{desc: "bolt", backend: storage.BackendBolt},
		{desc: "unknown", backend: "etcd", err: true},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			cfg := cleanroom.DefaultConfig()
			cfg.Store = storage.Config{Backend: tc.backend, Dir: filepath.Join(t.TempDir(), "data")}
			cfg.Upload.Rate = 5

			comps, err := dashboardd.New(context.Background(), cfg, logger())
			if tc.err {
				assert.ErrorIs(t, err, storage.ErrUnknownBackend)

				return
			}
			require.NoError(t, err)
			assert.NoError(t, comps.Close())
		})
	}
}

func TestNewLogger(t *testing.T) {
	_, err := dashboardd.NewLogger("debug")
	assert.NoError(t, err)

	_, err = dashboardd.NewLogger("loud")
	assert.Error(t, err)
}
