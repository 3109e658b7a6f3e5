// Package dashboardd assembles the dashboard components and runs them as a
// service.
package dashboardd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/absmach/cleanroom"
	"github.com/absmach/cleanroom/analysis"
	"github.com/absmach/cleanroom/dashboard"
	"github.com/absmach/cleanroom/federation"
	"github.com/absmach/cleanroom/pkg/sdk"
	"github.com/absmach/cleanroom/pkg/storage"
	"github.com/absmach/cleanroom/query"
	"github.com/absmach/cleanroom/store"
	"github.com/absmach/cleanroom/upload"
	"golang.org/x/time/rate"
)

// Components holds the wired dashboard. Close releases the storage backend.
type Components struct {
	Store      *store.Store
	Cache      *query.Cache
	Controller federation.Controller
	Poller     *federation.Poller
	Explorer   *analysis.Explorer
	Uploader   *upload.Orchestrator
	Service    dashboard.Service

	repo storage.Storage
}

func New(ctx context.Context, cfg cleanroom.Config, logger *slog.Logger, opts ...upload.Option) (*Components, error) {
	repo, err := storage.New(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Store.Backend, err)
	}

	return NewWithStorage(ctx, cfg, repo, sdk.NewSDK(cfg.Remote), logger, opts...), nil
}

// NewWithStorage wires the components over an already opened backend and
// remote client.
func NewWithStorage(ctx context.Context, cfg cleanroom.Config, repo storage.Storage, client sdk.SDK, logger *slog.Logger, opts ...upload.Option) *Components {
	st := store.New(ctx, repo, logger)
	cache := query.New(logger, query.WithPolicy(cfg.Cache))
	ctrl := federation.NewController(client, cache, st, logger)

	if cfg.Upload.Rate > 0 {
		opts = append([]upload.Option{upload.WithRate(rate.Limit(cfg.Upload.Rate), cfg.Upload.Burst)}, opts...)
	}

	c := &Components{
		Store:      st,
		Cache:      cache,
		Controller: ctrl,
		Poller:     federation.NewPoller(ctrl, st, logger),
		Explorer:   analysis.NewExplorer(client, cache, logger),
		Uploader:   upload.New(client, cache, st, logger, opts...),
		repo:       repo,
	}
	c.Service = dashboard.NewService(st, ctrl, c.Explorer, c.Uploader)

	return c
}

func (c *Components) Close() error {
	c.Poller.Stop()

	if err := c.repo.Close(); err != nil {
		return errors.Join(errors.New("failed to close store"), err)
	}

	return nil
}
