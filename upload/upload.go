// Package upload pushes tabular data to the remote analysis service and keeps
// an auditable record of every attempt in the store.
package upload

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/absmach/cleanroom/pkg/sdk"
	"github.com/absmach/cleanroom/query"
	"github.com/absmach/cleanroom/store"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

var (
	errNoWorkspace  = errors.New("no workspace selected")
	errEmptyPayload = errors.New("empty payload")
)

// Payload is one file to push.
type Payload struct {
	FileName string
	Data     []byte
	// RowCount is the number of data rows declared by the caller. When zero it
	// is derived from Data.
	RowCount int
}

// ProgressFunc is called after every push of PushAll.
type ProgressFunc func(done, total int, rec store.UploadRecord)

type Option func(*Orchestrator)

// WithRate paces pushes of PushAll to r per second.
func WithRate(r rate.Limit, burst int) Option {
	return func(o *Orchestrator) {
		if r > 0 {
			o.limiter = rate.NewLimiter(r, max(burst, 1))
		}
	}
}

func WithProgress(fn ProgressFunc) Option {
	return func(o *Orchestrator) {
		o.progress = fn
	}
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// Orchestrator pushes payloads one at a time. Outcomes are reported through
// upload records only; no push error escapes it.
type Orchestrator struct {
	sdk      sdk.SDK
	cache    *query.Cache
	store    *store.Store
	logger   *slog.Logger
	limiter  *rate.Limiter
	progress ProgressFunc
	now      func() time.Time
}

func New(client sdk.SDK, cache *query.Cache, st *store.Store, logger *slog.Logger, opts ...Option) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}

	o := &Orchestrator{
		sdk:    client,
		cache:  cache,
		store:  st,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}

	return o
}

// Push sends p to workspaceID and appends exactly one record to the upload
// history. Pushes are not retried: a retry is a new push with its own record.
func (o *Orchestrator) Push(ctx context.Context, workspaceID string, p Payload) store.UploadRecord {
	rec := store.UploadRecord{
		ID:       uuid.NewString(),
		FileName: p.FileName,
	}

	err := o.push(ctx, workspaceID, p)
	rec.Timestamp = o.now().UTC()
	if err != nil {
		rec.Status = store.UploadError
		rec.Error = err.Error()
		o.logger.Warn("upload failed",
			slog.String("workspace_id", workspaceID),
			slog.String("file", p.FileName),
			slog.Any("error", err))
	} else {
		rec.Status = store.UploadSuccess
		rec.RowCount = p.RowCount
		if rec.RowCount <= 0 {
			rec.RowCount = CountRows(p.Data)
		}
		o.logger.Info("upload succeeded",
			slog.String("workspace_id", workspaceID),
			slog.String("file", p.FileName),
			slog.Int("rows", rec.RowCount))
	}
	o.store.AddUpload(ctx, rec)

	return rec
}

// PushAll pushes payloads in order, starting each push only after the
// previous one finished. It returns one record per payload.
func (o *Orchestrator) PushAll(ctx context.Context, workspaceID string, payloads []Payload) []store.UploadRecord {
	recs := make([]store.UploadRecord, 0, len(payloads))
	for i, p := range payloads {
		var rec store.UploadRecord
		if err := o.wait(ctx, i); err != nil {
			rec = o.record(ctx, p, err)
		} else {
			rec = o.Push(ctx, workspaceID, p)
		}
		recs = append(recs, rec)

		if o.progress != nil {
			o.progress(i+1, len(payloads), rec)
		}
	}

	return recs
}

func (o *Orchestrator) push(ctx context.Context, workspaceID string, p Payload) error {
	if workspaceID == "" {
		return errNoWorkspace
	}
	if len(bytes.TrimSpace(p.Data)) == 0 {
		return errEmptyPayload
	}

	_, err := o.cache.Mutate(ctx, func(ctx context.Context) (any, error) {
		return o.sdk.PushData(ctx, workspaceID, p.Data)
	}, query.WithRetries(0), query.WithInvalidate(query.ProjectPath(workspaceID)))

	return err
}

func (o *Orchestrator) wait(ctx context.Context, i int) error {
	if o.limiter == nil || i == 0 {
		return ctx.Err()
	}

	return o.limiter.Wait(ctx)
}

// record stores a failed attempt that never reached the network.
func (o *Orchestrator) record(ctx context.Context, p Payload, err error) store.UploadRecord {
	rec := store.UploadRecord{
		ID:        uuid.NewString(),
		Timestamp: o.now().UTC(),
		FileName:  p.FileName,
		Status:    store.UploadError,
		Error:     err.Error(),
	}
	o.store.AddUpload(ctx, rec)

	return rec
}

// CountRows counts the non-empty lines of a CSV payload, minus the header.
func CountRows(data []byte) int {
	n := 0
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		if strings.TrimSpace(sc.Text()) != "" {
			n++
		}
	}

	return max(n-1, 0)
}
