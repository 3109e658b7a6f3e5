package federation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	pkgerrors "github.com/absmach/cleanroom/pkg/errors"
	"github.com/absmach/cleanroom/pkg/sdk"
	"github.com/absmach/cleanroom/query"
	"github.com/absmach/cleanroom/store"
)

var _ Controller = (*controller)(nil)

type controller struct {
	mu       sync.Mutex
	busy     bool
	schedule string
	sdk      sdk.SDK
	cache    *query.Cache
	store    *store.Store
	logger   *slog.Logger
}

func NewController(client sdk.SDK, cache *query.Cache, st *store.Store, logger *slog.Logger) Controller {
	if logger == nil {
		logger = slog.Default()
	}

	return &controller{
		schedule: DefaultSyncSchedule,
		sdk:      client,
		cache:    cache,
		store:    st,
		logger:   logger,
	}
}

func (c *controller) Create(ctx context.Context, req CreateRequest) error {
	cfg := c.config(req.Config)
	if err := req.validate(cfg); err != nil {
		return err
	}
	if err := c.begin(ctx, store.StatusCreating); err != nil {
		return err
	}
	defer c.end()

	pid := req.WorkspaceID
	wire := sdk.CreateFederationReq{
		PID:             pid,
		NATSHosts:       req.Transport.NATSHosts,
		SyncSchedule:    req.SyncSchedule,
		WorkspaceConfig: wireConfig(cfg),
	}

	// Lifecycle operations run to completion once issued.
	_, err := c.cache.Mutate(context.WithoutCancel(ctx), func(ctx context.Context) (any, error) {
		return nil, c.sdk.CreateFederation(ctx, wire)
	}, query.WithInvalidate(query.FedPath(pid), query.ProjectPath(pid)))
	if err != nil {
		c.fail(ctx, "create", err)

		return err
	}

	c.mu.Lock()
	c.schedule = req.SyncSchedule
	c.mu.Unlock()
	c.succeed(ctx, pid, cfg)

	return nil
}

func (c *controller) Join(ctx context.Context, req JoinRequest) error {
	cfg := c.config(req.Config)
	if err := req.validate(cfg); err != nil {
		return err
	}
	if err := c.begin(ctx, store.StatusJoining); err != nil {
		return err
	}
	defer c.end()

	pid := req.WorkspaceID
	wire := sdk.JoinFederationReq{
		PID:             pid,
		InviteJSON:      req.InviteToken,
		WorkspaceConfig: wireConfig(cfg),
	}

	_, err := c.cache.Mutate(context.WithoutCancel(ctx), func(ctx context.Context) (any, error) {
		return nil, c.sdk.JoinFederation(ctx, wire)
	}, query.WithInvalidate(query.FedPath(pid), query.ProjectPath(pid)))
	if err != nil {
		c.fail(ctx, "join", err)

		return err
	}

	c.succeed(ctx, pid, cfg)

	return nil
}

func (c *controller) GenerateInvite(ctx context.Context, workspaceID, password string) (Invite, error) {
	if workspaceID == "" || password == "" {
		return Invite{}, pkgerrors.ErrMalformedRequest
	}

	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()

		return Invite{}, pkgerrors.ErrConcurrencyConflict
	}
	c.busy = true
	c.mu.Unlock()
	defer c.end()

	data, err := c.cache.Mutate(context.WithoutCancel(ctx), func(ctx context.Context) (any, error) {
		return c.sdk.GenerateInvite(ctx, workspaceID, password)
	})
	if err != nil {
		return Invite{}, err
	}

	payload, _ := data.(json.RawMessage)

	return Invite{WorkspaceID: workspaceID, Payload: payload}, nil
}

func (c *controller) Reset(ctx context.Context) error {
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()

		return pkgerrors.ErrConcurrencyConflict
	}
	if !c.store.Get().FederationStatus.CanTransition(store.StatusIdle) {
		c.mu.Unlock()

		return pkgerrors.ErrInvalidTransition
	}
	c.busy = true
	c.mu.Unlock()
	defer c.end()

	// store subscribers run synchronously, so c.mu is not held here
	c.store.Update(ctx, store.Patch{
		FederationStatus: store.Ptr(store.StatusIdle),
		LastError:        store.Ptr(""),
		Syncing:          store.Ptr(false),
		ClearSyncStats:   true,
	})

	return nil
}

func (c *controller) StartSync(ctx context.Context) error {
	return c.pulse(ctx, true)
}

func (c *controller) StopSync(ctx context.Context) error {
	return c.pulse(ctx, false)
}

func (c *controller) pulse(ctx context.Context, on bool) error {
	st := c.store.Get()
	if st.FederationStatus != store.StatusActive {
		return pkgerrors.ErrNotActive
	}
	pid := st.CurrentWorkspaceID

	_, err := c.cache.Mutate(ctx, func(ctx context.Context) (any, error) {
		if on {
			return nil, c.sdk.StartPulsing(ctx, pid)
		}

		return nil, c.sdk.StopPulsing(ctx, pid)
	}, query.WithInvalidate(query.FedPath(pid)))
	if err != nil {
		return err
	}

	c.store.Update(ctx, store.Patch{Syncing: store.Ptr(on)})

	return nil
}

func (c *controller) SyncStats(ctx context.Context) ([]store.SyncStatsEntry, error) {
	return c.syncStats(ctx)
}

func (c *controller) RefreshSyncStats(ctx context.Context) (int, error) {
	entries, err := c.syncStats(ctx, query.WithForce())
	if err != nil {
		return 0, err
	}

	var last time.Time
	if stored := c.store.Get().SyncStats; len(stored) > 0 {
		last = stored[len(stored)-1].Timestamp
	}

	var fresh []store.SyncStatsEntry
	for _, e := range entries {
		if e.Timestamp.After(last) {
			fresh = append(fresh, e)
		}
	}
	if len(fresh) > 0 {
		c.store.AddSyncStats(ctx, fresh...)
	}

	return len(fresh), nil
}

func (c *controller) Schedule() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.schedule
}

func (c *controller) syncStats(ctx context.Context, opts ...query.CallOption) ([]store.SyncStatsEntry, error) {
	pid := c.store.Get().CurrentWorkspaceID
	if pid == "" {
		return nil, pkgerrors.ErrNotActive
	}

	key := query.NewKey(query.FedPath(pid)+"/syncStats", nil)
	stats, err := query.FetchAs(ctx, c.cache, key, func(ctx context.Context) ([]sdk.SyncStat, error) {
		return c.sdk.SyncStats(ctx, pid)
	}, opts...)
	if err != nil {
		return nil, err
	}

	entries := make([]store.SyncStatsEntry, 0, len(stats))
	for _, s := range stats {
		ts, err := parseTimestamp(s.Timestamp)
		if err != nil {
			c.logger.Warn("skipping sync stats entry", slog.String("timestamp", s.Timestamp), slog.Any("error", err))

			continue
		}
		entries = append(entries, store.SyncStatsEntry{
			Timestamp:   ts,
			Status:      s.Status,
			MergedCount: s.MergedCount,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.Before(entries[j].Timestamp)
	})

	return entries, nil
}

// begin takes the busy flag and moves the status to next. Both checks happen
// before any remote call, so a rejected request leaves the state untouched.
func (c *controller) begin(ctx context.Context, next store.FederationStatus) error {
	c.mu.Lock()
	status := c.store.Get().FederationStatus
	if c.busy || status.Pending() {
		c.mu.Unlock()

		return pkgerrors.ErrConcurrencyConflict
	}
	if !status.CanTransition(next) {
		c.mu.Unlock()

		return pkgerrors.ErrInvalidTransition
	}
	c.busy = true
	c.mu.Unlock()

	c.store.Update(ctx, store.Patch{
		FederationStatus: store.Ptr(next),
		LastError:        store.Ptr(""),
	})

	return nil
}

// timestampLayouts are the sync stats timestamp formats seen from the
// analysis service, most specific first.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	time.RFC1123Z,
	time.RFC1123,
}

// parseTimestamp reads the timestamps the analysis service reports. Values
// without a zone are taken as UTC and bare numbers as Unix seconds.
func parseTimestamp(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, v); err == nil {
			return ts, nil
		}
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		sec, frac := math.Modf(secs)

		return time.Unix(int64(sec), int64(frac*float64(time.Second))).UTC(), nil
	}

	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", v)
}

func (c *controller) end() {
	c.mu.Lock()
	c.busy = false
	c.mu.Unlock()
}

func (c *controller) succeed(ctx context.Context, pid string, cfg store.WorkspaceConfig) {
	c.store.Update(ctx, store.Patch{
		CurrentWorkspaceID: &pid,
		WorkspaceConfig:    configPatch(cfg),
		FederationStatus:   store.Ptr(store.StatusActive),
		LastError:          store.Ptr(""),
		Syncing:            store.Ptr(false),
		ClearSyncStats:     true,
	})
	c.logger.Info("federation active", slog.String("workspace_id", pid))
}

func (c *controller) fail(ctx context.Context, op string, err error) {
	c.store.Update(ctx, store.Patch{
		FederationStatus: store.Ptr(store.StatusError),
		LastError:        store.Ptr(err.Error()),
	})
	c.logger.Warn("federation "+op+" failed", slog.Any("error", err))
}

func (c *controller) config(cfg *store.WorkspaceConfig) store.WorkspaceConfig {
	if cfg != nil {
		return *cfg
	}

	return c.store.Get().WorkspaceConfig
}
