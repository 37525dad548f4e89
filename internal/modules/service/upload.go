package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/roomforge/api/internal/config"
	"github.com/roomforge/api/internal/infra/blob"
	"github.com/roomforge/api/internal/pkg/retry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ObjectStore is the part of blob.S3Deps the services use.
type ObjectStore interface {
	Enabled() bool
	Put(ctx context.Context, key string, data []byte, mime string) (*blob.UploadedMeta, error)
	Delete(ctx context.Context, key string) bool
}

type ItemStatus string

const (
	ItemPending   ItemStatus = "pending"
	ItemUploading ItemStatus = "uploading"
	ItemSuccess   ItemStatus = "success"
	ItemError     ItemStatus = "error"
)

type ItemProgress struct {
	Index   int        `json:"index"`
	Status  ItemStatus `json:"status"`
	Percent int        `json:"percent"`
	URL     string     `json:"url,omitempty"`
	Key     string     `json:"key,omitempty"`
	Error   string     `json:"error,omitempty"`
}

// BatchProgress is a snapshot. Percent counts successful items only.
type BatchProgress struct {
	Completed int            `json:"completed"`
	Failed    int            `json:"failed"`
	Total     int            `json:"total"`
	Percent   int            `json:"percent"`
	Items     []ItemProgress `json:"items"`
}

type ProgressFunc func(BatchProgress)

// BatchResult keeps every slice positional: index i always describes
// payload i, successful or not.
type BatchResult struct {
	Success       bool      `json:"success"`
	URLs          []*string `json:"urls"`
	Keys          []*string `json:"keys"`
	Errors        []*string `json:"errors"`
	FailedIndices []int     `json:"failed_indices"`
	Errs          []error   `json:"-"`
}

type uploadOptions struct {
	window          int
	policy          retry.Policy
	interChunkDelay time.Duration
	deadline        time.Duration
	progress        ProgressFunc
	sleep           retry.SleepFunc
}

type UploadOption func(*uploadOptions)

func WithWindow(n int) UploadOption {
	return func(o *uploadOptions) {
		if n > 0 {
			o.window = n
		}
	}
}

func WithRetryPolicy(p retry.Policy) UploadOption {
	return func(o *uploadOptions) { o.policy = p }
}

func WithInterChunkDelay(d time.Duration) UploadOption {
	return func(o *uploadOptions) { o.interChunkDelay = d }
}

// WithDeadline bounds the whole batch. Zero disables the bound.
func WithDeadline(d time.Duration) UploadOption {
	return func(o *uploadOptions) { o.deadline = d }
}

func WithProgress(fn ProgressFunc) UploadOption {
	return func(o *uploadOptions) { o.progress = fn }
}

// WithSleep replaces every wait (backoff and inter-chunk delay).
func WithSleep(fn retry.SleepFunc) UploadOption {
	return func(o *uploadOptions) { o.sleep = fn }
}

type UploadService interface {
	UploadAll(ctx context.Context, ownerID string, payloads []string, viewType string, opts ...UploadOption) *BatchResult
}

type uploadService struct {
	store ObjectStore
	cfg   config.UploadCfg
	log   *zap.Logger
}

func NewUploadService(store ObjectStore, cfg config.UploadCfg, log *zap.Logger) UploadService {
	return &uploadService{store: store, cfg: cfg, log: log.Named("upload")}
}

func (s *uploadService) options(opts []UploadOption) uploadOptions {
	o := uploadOptions{
		window: s.cfg.Window,
		policy: retry.Policy{
			MaxAttempts: s.cfg.MaxAttempts,
			BaseDelay:   s.cfg.BaseBackoff,
			MaxDelay:    s.cfg.MaxBackoff,
		},
		interChunkDelay: s.cfg.InterChunkDelay,
		deadline:        s.cfg.Deadline,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.window < 1 {
		o.window = 3
	}
	if o.sleep != nil {
		o.policy.Sleep = o.sleep
	}
	return o
}

// UploadAll pushes payloads through the store in sequential chunks of at
// most window items. Items inside a chunk run concurrently; chunk n+1 starts
// only after every item of chunk n settled.
func (s *uploadService) UploadAll(ctx context.Context, ownerID string, payloads []string, viewType string, opts ...UploadOption) *BatchResult {
	o := s.options(opts)
	n := len(payloads)

	ctx, span := otel.Tracer(tracerName).Start(ctx, "upload.batch")
	defer span.End()
	span.SetAttributes(attribute.Int("batch.size", n), attribute.Int("batch.window", o.window))

	if o.deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.deadline)
		defer cancel()
	}

	res := &BatchResult{
		URLs:          make([]*string, n),
		Keys:          make([]*string, n),
		Errors:        make([]*string, n),
		FailedIndices: []int{},
		Errs:          make([]error, n),
	}
	tr := newTracker(n, o.progress)

	for start := 0; start < n; start += o.window {
		if start > 0 && o.interChunkDelay > 0 {
			if err := sleepWith(ctx, o.sleep, o.interChunkDelay); err != nil {
				s.abandon(res, tr, start, err)
				break
			}
		}
		if err := ctx.Err(); err != nil {
			s.abandon(res, tr, start, err)
			break
		}

		end := min(start+o.window, n)
		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				s.uploadOne(ctx, o.policy, ownerID, viewType, i, payloads[i], res, tr)
			}(i)
		}
		wg.Wait()
		tr.emit()
	}

	for i, err := range res.Errs {
		if err != nil {
			res.FailedIndices = append(res.FailedIndices, i)
		}
	}
	res.Success = len(res.FailedIndices) == 0

	span.SetAttributes(attribute.Int("batch.failed", len(res.FailedIndices)))
	if !res.Success {
		s.log.Warn("batch upload finished with failures",
			zap.String("owner_id", ownerID),
			zap.String("view_type", viewType),
			zap.Int("total", n),
			zap.Ints("failed_indices", res.FailedIndices))
	}
	return res
}

func (s *uploadService) uploadOne(ctx context.Context, policy retry.Policy, ownerID, viewType string, i int, payload string, res *BatchResult, tr *tracker) {
	tr.set(ItemProgress{Index: i, Status: ItemUploading})

	decoded, err := blob.DecodeDataURI(payload)
	if err != nil {
		s.fail(res, tr, i, err)
		return
	}
	tr.set(ItemProgress{Index: i, Status: ItemUploading, Percent: 30})

	// one key per item; retries overwrite the same object
	key := blob.NewObjectKey(ownerID, viewType, blob.ExtensionFor(decoded.MIME))
	meta, attempts, err := retry.Do(ctx, policy, func(ctx context.Context, attempt int) (*blob.UploadedMeta, error) {
		meta, err := s.store.Put(ctx, key, decoded.Data, decoded.MIME)
		if errors.Is(err, blob.ErrStorageUnavailable) {
			return nil, retry.Permanent(err)
		}
		if err != nil {
			s.log.Debug("upload attempt failed", zap.Int("index", i), zap.Int("attempt", attempt), zap.Error(err))
		}
		return meta, err
	})
	if err != nil {
		s.fail(res, tr, i, fmt.Errorf("after %d attempt(s): %w", attempts, err))
		return
	}

	res.URLs[i] = &meta.URL
	res.Keys[i] = &meta.Key
	tr.set(ItemProgress{Index: i, Status: ItemSuccess, Percent: 100, URL: meta.URL, Key: meta.Key})
}

func (s *uploadService) fail(res *BatchResult, tr *tracker, i int, err error) {
	msg := err.Error()
	res.Errs[i] = err
	res.Errors[i] = &msg
	tr.set(ItemProgress{Index: i, Status: ItemError, Error: msg})
}

// abandon fails every item from start on without attempting it.
func (s *uploadService) abandon(res *BatchResult, tr *tracker, start int, err error) {
	for i := start; i < len(res.Errs); i++ {
		s.fail(res, tr, i, err)
	}
	tr.emit()
}

func sleepWith(ctx context.Context, sleep retry.SleepFunc, d time.Duration) error {
	if sleep != nil {
		return sleep(ctx, d)
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// tracker owns the per-item progress of one batch. The callback runs with
// the lock held, so deliveries never overlap.
type tracker struct {
	mu    sync.Mutex
	items []ItemProgress
	fn    ProgressFunc
}

func newTracker(n int, fn ProgressFunc) *tracker {
	items := make([]ItemProgress, n)
	for i := range items {
		items[i] = ItemProgress{Index: i, Status: ItemPending}
	}
	return &tracker{items: items, fn: fn}
}

func (t *tracker) set(p ItemProgress) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.items[p.Index] = p
	t.deliver()
}

func (t *tracker) emit() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.deliver()
}

func (t *tracker) deliver() {
	if t.fn == nil {
		return
	}
	t.fn(t.snapshot())
}

func (t *tracker) snapshot() BatchProgress {
	p := BatchProgress{Total: len(t.items), Items: make([]ItemProgress, len(t.items))}
	copy(p.Items, t.items)
	for _, it := range t.items {
		switch it.Status {
		case ItemSuccess:
			p.Completed++
		case ItemError:
			p.Failed++
		}
	}
	if p.Total > 0 {
		p.Percent = p.Completed * 100 / p.Total
	}
	return p
}
