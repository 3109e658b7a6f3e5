package store

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	pkgerrors "github.com/absmach/cleanroom/pkg/errors"
	"github.com/absmach/cleanroom/pkg/storage"
)

// Listener receives the state snapshot produced by every update.
type Listener func(State)

// Store holds the application state. All mutations go through Update.
type Store struct {
	mu        sync.Mutex
	state     State
	storage   storage.Storage
	logger    *slog.Logger
	listeners map[uint64]Listener
	nextID    uint64
}

// New creates a store and rehydrates the persisted subset of the state from
// repo. Missing or malformed persisted fields fall back to their defaults.
func New(ctx context.Context, repo storage.Storage, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Store{
		state:     DefaultState(),
		storage:   repo,
		logger:    logger,
		listeners: make(map[uint64]Listener),
	}
	s.rehydrate(ctx)

	return s
}

// Get returns a copy of the current state.
func (s *Store) Get() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state.clone()
}

// Update merges p into the current state, persists the durable subset when it
// changed and notifies subscribers synchronously.
func (s *Store) Update(ctx context.Context, p Patch) {
	s.mu.Lock()
	s.state = apply(s.state, p)
	snapshot := s.state.clone()
	if p.persisted() {
		s.persist(ctx, snapshot)
	}
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(snapshot.clone())
	}
}

// Subscribe registers l for state changes and returns a function removing it.
func (s *Store) Subscribe(l Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners[id] = l

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// Clear deletes the persisted record and puts every field back to its
// default. Subscribers are notified as for Update.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	if s.storage != nil {
		if err := s.storage.Delete(ctx, StorageKey); err != nil && !errors.Is(err, pkgerrors.ErrNotFound) {
			s.mu.Unlock()

			return err
		}
	}
	s.state = DefaultState()
	snapshot := s.state.clone()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(snapshot.clone())
	}

	return nil
}

func (s *Store) AddUpload(ctx context.Context, rec UploadRecord) {
	s.Update(ctx, Patch{AppendUploads: []UploadRecord{rec}})
}

func (s *Store) AddSyncStats(ctx context.Context, entries ...SyncStatsEntry) {
	s.Update(ctx, Patch{AppendSyncStats: entries})
}

func (s *Store) ClearSyncStats(ctx context.Context) {
	s.Update(ctx, Patch{ClearSyncStats: true})
}

func (s *Store) SetWorkspaceConfig(ctx context.Context, p WorkspaceConfigPatch) {
	s.Update(ctx, Patch{WorkspaceConfig: &p})
}

func (s *Store) SetCurrentWorkspace(ctx context.Context, id string) {
	s.Update(ctx, Patch{CurrentWorkspaceID: &id})
}

func apply(st State, p Patch) State {
	if p.DarkMode != nil {
		st.DarkMode = *p.DarkMode
	}
	if p.CurrentWorkspaceID != nil {
		st.CurrentWorkspaceID = *p.CurrentWorkspaceID
	}
	if p.WorkspaceConfig != nil {
		st.WorkspaceConfig = p.WorkspaceConfig.apply(st.WorkspaceConfig.clone())
	}
	if p.ActiveTab != nil {
		st.ActiveTab = *p.ActiveTab
	}
	if p.FederationStatus != nil && p.FederationStatus.Valid() {
		st.FederationStatus = *p.FederationStatus
	}
	if p.LastError != nil {
		st.LastError = *p.LastError
	}
	if p.Syncing != nil {
		st.Syncing = *p.Syncing
	}
	if p.SearchQuery != nil {
		st.SearchQuery = *p.SearchQuery
	}
	if len(p.AppendUploads) > 0 {
		st.UploadHistory = prependUploads(st.UploadHistory, p.AppendUploads)
	}
	if p.ClearSyncStats {
		st.SyncStats = []SyncStatsEntry{}
	}
	if len(p.AppendSyncStats) > 0 {
		st.SyncStats = appendSyncStats(st.SyncStats, p.AppendSyncStats)
	}

	return st
}

func prependUploads(history, recs []UploadRecord) []UploadRecord {
	out := make([]UploadRecord, 0, min(len(history)+len(recs), MaxUploadHistory))
	for i := len(recs) - 1; i >= 0 && len(out) < MaxUploadHistory; i-- {
		out = append(out, recs[i])
	}
	for _, rec := range history {
		if len(out) == MaxUploadHistory {
			break
		}
		out = append(out, rec)
	}

	return out
}

func appendSyncStats(stats, entries []SyncStatsEntry) []SyncStatsEntry {
	out := make([]SyncStatsEntry, 0, len(stats)+len(entries))
	out = append(out, stats...)
	out = append(out, entries...)
	if len(out) > MaxSyncStats {
		out = out[len(out)-MaxSyncStats:]
	}

	return out
}
