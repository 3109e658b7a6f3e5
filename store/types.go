package store

import (
	"slices"
	"strings"
	"time"
)

const (
	// MaxUploadHistory is the number of upload records kept, newest first.
	MaxUploadHistory = 100
	// MaxSyncStats is the number of sync stats entries kept, oldest evicted first.
	MaxSyncStats = 50
)

type ProcessingType string

const (
	ProcessingCPU ProcessingType = "cpu"
	ProcessingGPU ProcessingType = "gpu"
)

func (p ProcessingType) Valid() bool {
	return p == ProcessingCPU || p == ProcessingGPU
}

// WorkspaceConfig is the configuration of a clean room workspace.
type WorkspaceConfig struct {
	ProcessingType  ProcessingType `json:"processingType"  validate:"oneof=cpu gpu"`
	PersistData     bool           `json:"persistData"`
	EnableHistogram bool           `json:"enableHistogram"`
	TargetList      []string       `json:"targetList"`
	ConditionList   []string       `json:"conditionList"`
}

func DefaultWorkspaceConfig() WorkspaceConfig {
	return WorkspaceConfig{
		ProcessingType:  ProcessingCPU,
		PersistData:     true,
		EnableHistogram: false,
		TargetList:      []string{"age", "bmi"},
		ConditionList:   []string{"smoker", "on_statins"},
	}
}

func (c WorkspaceConfig) clone() WorkspaceConfig {
	c.TargetList = slices.Clone(c.TargetList)
	c.ConditionList = slices.Clone(c.ConditionList)

	return c
}

// WorkspaceConfigPatch is merged field by field into a WorkspaceConfig.
type WorkspaceConfigPatch struct {
	ProcessingType  *ProcessingType `json:"processingType,omitempty"`
	PersistData     *bool           `json:"persistData,omitempty"`
	EnableHistogram *bool           `json:"enableHistogram,omitempty"`
	TargetList      []string        `json:"targetList,omitempty"`
	ConditionList   []string        `json:"conditionList,omitempty"`
}

func (p WorkspaceConfigPatch) apply(c WorkspaceConfig) WorkspaceConfig {
	if p.ProcessingType != nil && p.ProcessingType.Valid() {
		c.ProcessingType = *p.ProcessingType
	}
	if p.PersistData != nil {
		c.PersistData = *p.PersistData
	}
	if p.EnableHistogram != nil {
		c.EnableHistogram = *p.EnableHistogram
	}
	if p.TargetList != nil {
		c.TargetList = UniqueAttributes(p.TargetList)
	}
	if p.ConditionList != nil {
		c.ConditionList = UniqueAttributes(p.ConditionList)
	}

	return c
}

type UploadStatus string

const (
	UploadPending UploadStatus = "pending"
	UploadSuccess UploadStatus = "success"
	UploadError   UploadStatus = "error"
)

func (s UploadStatus) Valid() bool {
	switch s {
	case UploadPending, UploadSuccess, UploadError:
		return true
	default:
		return false
	}
}

// UploadRecord is the immutable outcome of a single data push.
type UploadRecord struct {
	ID        string       `json:"id"`
	Timestamp time.Time    `json:"timestamp"`
	FileName  string       `json:"fileName"`
	Status    UploadStatus `json:"status"`
	RowCount  int          `json:"rowCount"`
	Error     string       `json:"error,omitempty"`
}

type SyncStatsEntry struct {
	Timestamp   time.Time `json:"timestamp"`
	Status      string    `json:"status"`
	MergedCount int       `json:"mergedCount"`
}

// State is a snapshot of the application state.
type State struct {
	DarkMode           bool             `json:"isDarkMode"`
	CurrentWorkspaceID string           `json:"currentProjectId"`
	WorkspaceConfig    WorkspaceConfig  `json:"projectProperties"`
	UploadHistory      []UploadRecord   `json:"uploadHistory"`
	ActiveTab          int              `json:"activeTab"`
	FederationStatus   FederationStatus `json:"federationStatus"`
	LastError          string           `json:"lastError,omitempty"`
	Syncing            bool             `json:"isSyncing"`
	SyncStats          []SyncStatsEntry `json:"syncStats"`
	SearchQuery        string           `json:"searchQuery"`
}

func DefaultState() State {
	return State{
		WorkspaceConfig:  DefaultWorkspaceConfig(),
		UploadHistory:    []UploadRecord{},
		FederationStatus: StatusIdle,
		SyncStats:        []SyncStatsEntry{},
	}
}

func (s State) clone() State {
	s.WorkspaceConfig = s.WorkspaceConfig.clone()
	s.UploadHistory = slices.Clone(s.UploadHistory)
	s.SyncStats = slices.Clone(s.SyncStats)

	return s
}

// Patch is a partial update of State. Nil fields are left untouched.
type Patch struct {
	DarkMode           *bool
	CurrentWorkspaceID *string
	WorkspaceConfig    *WorkspaceConfigPatch
	ActiveTab          *int
	FederationStatus   *FederationStatus
	LastError          *string
	Syncing            *bool
	SearchQuery        *string

	// AppendUploads are prepended to the upload history in the given order,
	// so the last one ends up newest.
	AppendUploads []UploadRecord
	// AppendSyncStats are appended to the sync stats in the given order.
	AppendSyncStats []SyncStatsEntry
	// ClearSyncStats empties sync stats before AppendSyncStats is applied.
	ClearSyncStats bool
}

func (p Patch) persisted() bool {
	return p.DarkMode != nil ||
		p.CurrentWorkspaceID != nil ||
		p.WorkspaceConfig != nil ||
		len(p.AppendUploads) > 0
}

// Ptr returns a pointer to v, for building patches.
func Ptr[T any](v T) *T {
	return &v
}

// UniqueAttributes trims attribute names, drops empty ones and keeps the
// first occurrence of each name.
func UniqueAttributes(attrs []string) []string {
	out := make([]string, 0, len(attrs))
	seen := make(map[string]struct{}, len(attrs))
	for _, a := range attrs {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}

	return out
}
