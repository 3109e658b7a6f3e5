package store

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	pkgerrors "github.com/absmach/cleanroom/pkg/errors"
)

// StorageKey is the key of the single persisted state record.
const StorageKey = "healthcare-dcr-app"

const persistVersion = 0

type persistedState struct {
	DarkMode           bool            `json:"isDarkMode"`
	CurrentWorkspaceID string          `json:"currentProjectId"`
	WorkspaceConfig    WorkspaceConfig `json:"projectProperties"`
	UploadHistory      []UploadRecord  `json:"uploadHistory"`
}

type persistedRecord struct {
	State   persistedState `json:"state"`
	Version int            `json:"version"`
}

// caller holds s.mu
func (s *Store) persist(ctx context.Context, st State) {
	if s.storage == nil {
		return
	}

	data, err := json.Marshal(persistedRecord{
		State: persistedState{
			DarkMode:           st.DarkMode,
			CurrentWorkspaceID: st.CurrentWorkspaceID,
			WorkspaceConfig:    st.WorkspaceConfig,
			UploadHistory:      st.UploadHistory,
		},
		Version: persistVersion,
	})
	if err != nil {
		s.logger.Warn("failed to encode persisted state", slog.Any("error", err))

		return
	}

	if err := s.storage.Put(ctx, StorageKey, data); err != nil {
		s.logger.Warn("failed to persist state", slog.Any("error", err))
	}
}

func (s *Store) rehydrate(ctx context.Context) {
	if s.storage == nil {
		return
	}

	data, err := s.storage.Get(ctx, StorageKey)
	switch {
	case errors.Is(err, pkgerrors.ErrNotFound):
		return
	case err != nil:
		s.logger.Warn("failed to load persisted state", slog.Any("error", err))

		return
	}

	st, err := decodePersisted(data)
	if err != nil {
		s.logger.Warn("discarding malformed persisted state", slog.Any("error", err))
	}

	s.state.DarkMode = st.DarkMode
	s.state.CurrentWorkspaceID = st.CurrentWorkspaceID
	s.state.WorkspaceConfig = st.WorkspaceConfig
	s.state.UploadHistory = st.UploadHistory
}

// decodePersisted decodes every field on its own so that one malformed field
// only resets that field. The returned error reports the first bad field.
func decodePersisted(data []byte) (persistedState, error) {
	out := persistedState{
		WorkspaceConfig: DefaultWorkspaceConfig(),
		UploadHistory:   []UploadRecord{},
	}

	var record struct {
		State map[string]json.RawMessage `json:"state"`
	}
	if err := json.Unmarshal(data, &record); err != nil {
		return out, err
	}

	var errs []error
	field := func(name string, dst any) bool {
		raw, ok := record.State[name]
		if !ok {
			return false
		}
		if err := json.Unmarshal(raw, dst); err != nil {
			errs = append(errs, errors.New(name+": "+err.Error()))

			return false
		}

		return true
	}

	var darkMode bool
	if field("isDarkMode", &darkMode) {
		out.DarkMode = darkMode
	}
	var id string
	if field("currentProjectId", &id) {
		out.CurrentWorkspaceID = id
	}
	var props map[string]json.RawMessage
	if field("projectProperties", &props) {
		cfg, err := decodeWorkspaceConfig(props)
		if err != nil {
			errs = append(errs, err)
		}
		out.WorkspaceConfig = cfg
	}
	var history []json.RawMessage
	if field("uploadHistory", &history) {
		out.UploadHistory = decodeUploads(history)
	}

	return out, errors.Join(errs...)
}

func decodeWorkspaceConfig(props map[string]json.RawMessage) (WorkspaceConfig, error) {
	cfg := DefaultWorkspaceConfig()
	var errs []error

	decode := func(name string, dst any) bool {
		raw, ok := props[name]
		if !ok {
			return false
		}
		if err := json.Unmarshal(raw, dst); err != nil {
			errs = append(errs, errors.New("projectProperties."+name+": "+err.Error()))

			return false
		}

		return true
	}

	var pt ProcessingType
	if decode("processingType", &pt) && pt.Valid() {
		cfg.ProcessingType = pt
	}
	var persistData bool
	if decode("persistData", &persistData) {
		cfg.PersistData = persistData
	}
	var histogram bool
	if decode("enableHistogram", &histogram) {
		cfg.EnableHistogram = histogram
	}
	var targets []string
	if decode("targetList", &targets) && targets != nil {
		cfg.TargetList = UniqueAttributes(targets)
	}
	var conditions []string
	if decode("conditionList", &conditions) && conditions != nil {
		cfg.ConditionList = UniqueAttributes(conditions)
	}

	return cfg, errors.Join(errs...)
}

func decodeUploads(raw []json.RawMessage) []UploadRecord {
	out := make([]UploadRecord, 0, min(len(raw), MaxUploadHistory))
	for _, r := range raw {
		if len(out) == MaxUploadHistory {
			break
		}
		var rec UploadRecord
		if err := json.Unmarshal(r, &rec); err != nil {
			continue
		}
		if rec.ID == "" || !rec.Status.Valid() {
			continue
		}
		out = append(out, rec)
	}

	return out
}
