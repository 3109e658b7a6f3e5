// Package dashboard is the entry point used by the HTTP API and the CLI. It
// ties the store, the federation controller, the explorer and the upload
// orchestrator together.
package dashboard

import (
	"context"
	"encoding/json"

	"github.com/absmach/cleanroom/analysis"
	"github.com/absmach/cleanroom/federation"
	"github.com/absmach/cleanroom/store"
	"github.com/absmach/cleanroom/upload"
)

// Settings is a partial update of the user controlled part of the state.
type Settings struct {
	DarkMode           *bool                       `json:"isDarkMode,omitempty"`
	CurrentWorkspaceID *string                     `json:"currentProjectId,omitempty"`
	WorkspaceConfig    *store.WorkspaceConfigPatch `json:"projectProperties,omitempty"`
	ActiveTab          *int                        `json:"activeTab,omitempty"`
	SearchQuery        *string                     `json:"searchQuery,omitempty"`
}

// Service operations taking a workspace ID fall back to the current workspace
// when it is empty.
type Service interface {
	State(ctx context.Context) (store.State, error)
	UpdateSettings(ctx context.Context, s Settings) (store.State, error)
	// ClearState deletes the persisted state and restores the defaults. It
	// fails while a federation is being created or joined.
	ClearState(ctx context.Context) (store.State, error)

	CreateFederation(ctx context.Context, req federation.CreateRequest) (store.State, error)
	JoinFederation(ctx context.Context, req federation.JoinRequest) (store.State, error)
	GenerateInvite(ctx context.Context, workspaceID, password string) (federation.Invite, error)
	ResetFederation(ctx context.Context) (store.State, error)
	StartSync(ctx context.Context) error
	StopSync(ctx context.Context) error
	SyncStats(ctx context.Context) ([]store.SyncStatsEntry, error)

	// PushData never fails: the outcome is carried by the returned record.
	PushData(ctx context.Context, workspaceID string, p upload.Payload) (store.UploadRecord, error)
	PushAll(ctx context.Context, workspaceID string, payloads []upload.Payload) ([]store.UploadRecord, error)
	ProjectInfo(ctx context.Context, workspaceID string) (json.RawMessage, error)

	Explore(ctx context.Context, workspaceID string, req analysis.Request) (json.RawMessage, error)
	Overview(ctx context.Context, workspaceID string) (json.RawMessage, error)
	BuildModel(ctx context.Context, workspaceID string, req analysis.ModelRequest) (json.RawMessage, error)
	Predict(ctx context.Context, workspaceID string, input json.RawMessage) (json.RawMessage, error)
}
