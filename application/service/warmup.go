package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/helixml/tafsir/domain/passage"
	"github.com/helixml/tafsir/domain/search"
)

// IndexState is the lifecycle state of the search index.
type IndexState string

// IndexState values.
const (
	IndexWarming IndexState = "warming"
	IndexReady   IndexState = "ready"
	IndexFailed  IndexState = "failed"
)

// IndexStatus describes the index at one point in time.
type IndexStatus struct {
	State    IndexState
	Model    string
	Passages int
	Err      error
	Since    time.Time
}

type indexEntry struct {
	status IndexStatus
	index  *search.Index
}

// IndexHolder publishes the current search index. Readers never block; the
// index itself is immutable once published.
type IndexHolder struct {
	current atomic.Pointer[indexEntry]
	now     func() time.Time
}

// NewIndexHolder creates a holder in the warming state.
func NewIndexHolder(model string) *IndexHolder {
	h := &IndexHolder{now: time.Now}
	h.current.Store(&indexEntry{status: IndexStatus{State: IndexWarming, Model: model, Since: h.now()}})
	return h
}

// Publish makes ix the served index.
func (h *IndexHolder) Publish(ix *search.Index) {
	prev := h.current.Load()
	h.current.Store(&indexEntry{
		index: ix,
		status: IndexStatus{
			State:    IndexReady,
			Model:    prev.status.Model,
			Passages: ix.Len(),
			Since:    h.now(),
		},
	})
}

// Fail records a build failure. A previously published index stays served.
func (h *IndexHolder) Fail(err error) {
	prev := h.current.Load()
	if prev.index != nil {
		return
	}
	h.current.Store(&indexEntry{status: IndexStatus{
		State: IndexFailed,
		Model: prev.status.Model,
		Err:   err,
		Since: h.now(),
	}})
}

// Index returns the served index, or ErrIndexUnavailable.
func (h *IndexHolder) Index() (*search.Index, error) {
	entry := h.current.Load()
	if entry.index != nil {
		return entry.index, nil
	}
	if entry.status.Err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexUnavailable, entry.status.Err)
	}
	return nil, fmt.Errorf("%w: %s", ErrIndexUnavailable, entry.status.State)
}

// Status returns the current index status.
func (h *IndexHolder) Status() IndexStatus {
	return h.current.Load().status
}

// IndexBuilder produces an index for a corpus.
type IndexBuilder interface {
	Ensure(ctx context.Context, corpus passage.Collection) (*search.Index, error)
	Rebuild(ctx context.Context, corpus passage.Collection) (*search.Index, error)
}

// Warmup builds the index in the background and publishes it to a holder.
type Warmup struct {
	builder IndexBuilder
	corpus  passage.Collection
	holder  *IndexHolder
	logger  *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewWarmup creates a Warmup.
func NewWarmup(builder IndexBuilder, corpus passage.Collection, holder *IndexHolder, logger *slog.Logger) *Warmup {
	if logger == nil {
		logger = slog.Default()
	}
	return &Warmup{
		builder: builder,
		corpus:  corpus,
		holder:  holder,
		logger:  logger,
	}
}

// Run builds the index in the foreground. force skips the snapshot.
func (w *Warmup) Run(ctx context.Context, force bool) error {
	var (
		ix  *search.Index
		err error
	)
	if force {
		ix, err = w.builder.Rebuild(ctx, w.corpus)
	} else {
		ix, err = w.builder.Ensure(ctx, w.corpus)
	}
	if err != nil {
		w.holder.Fail(err)
		return fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
	}
	w.holder.Publish(ix)
	return nil
}

// Start builds the index in a background goroutine. Calls after the first
// are no-ops until Stop.
func (w *Warmup) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cancel != nil {
		return
	}
	ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Go(func() {
		start := time.Now()
		if err := w.Run(ctx, false); err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.Error("index warm-up failed, search disabled", slog.String("error", err.Error()))
			return
		}
		w.logger.Info("index ready",
			slog.Int("passages", w.holder.Status().Passages),
			slog.Duration("duration", time.Since(start)),
		)
	})
	w.logger.Info("index warm-up started", slog.Int("passages", w.corpus.Len()))
}

// Stop cancels a running warm-up and waits for it to finish.
func (w *Warmup) Stop() {
	w.mu.Lock()
	cancel := w.cancel
	w.cancel = nil
	w.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	w.wg.Wait()
}

// Wait blocks until a started warm-up finishes.
func (w *Warmup) Wait() {
	w.wg.Wait()
}
