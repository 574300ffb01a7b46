// Package persistence fans a tick's document out to the canonical store and
// its mirrors.
//
// Persistence is best effort: a failed write is handed to a FailureHandler
// (logging by default) and the tick carries on. The next tick's write is the
// implicit retry.
package persistence

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/oshokin/site-environment/internal/domain/environment"
	"github.com/oshokin/site-environment/internal/logger"
)

// DefaultTimeout bounds each individual save.
const DefaultTimeout = 2 * time.Second

// PrimaryTarget names the canonical store in failure reports.
const PrimaryTarget = "file"

// Saver stores one document.
type Saver interface {
	Save(ctx context.Context, doc *environment.Document) error
}

// SaverFunc adapts a function to Saver.
type SaverFunc func(ctx context.Context, doc *environment.Document) error

// Save calls f.
func (f SaverFunc) Save(ctx context.Context, doc *environment.Document) error {
	return f(ctx, doc)
}

// FailureHandler receives every failed save.
type FailureHandler func(ctx context.Context, target string, err error)

// LogFailure is the default FailureHandler: it logs a warning and returns.
func LogFailure(ctx context.Context, target string, err error) {
	logger.WarnKV(ctx, "Could not persist document", "target", target, "error", err)
}

// mirror is a named secondary store.
type mirror struct {
	name  string
	saver Saver
}

// Stats counts write outcomes per target.
type Stats struct {
	Written uint64
	Failed  uint64
}

// Writer persists documents to a primary store and any number of mirrors.
type Writer struct {
	primary   Saver
	mirrors   []mirror
	onFailure FailureHandler
	timeout   time.Duration

	written atomic.Uint64
	failed  atomic.Uint64
}

// Option configures a Writer.
type Option func(*Writer)

// WithMirror adds a best-effort secondary store.
func WithMirror(name string, saver Saver) Option {
	return func(w *Writer) {
		if saver != nil {
			w.mirrors = append(w.mirrors, mirror{name: name, saver: saver})
		}
	}
}

// WithFailureHandler replaces LogFailure.
func WithFailureHandler(handler FailureHandler) Option {
	return func(w *Writer) {
		if handler != nil {
			w.onFailure = handler
		}
	}
}

// WithTimeout sets the per-save timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(w *Writer) {
		if timeout > 0 {
			w.timeout = timeout
		}
	}
}

// NewWriter creates a Writer around the canonical store.
func NewWriter(primary Saver, opts ...Option) *Writer {
	w := &Writer{
		primary:   primary,
		onFailure: LogFailure,
		timeout:   DefaultTimeout,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write saves doc to the primary store, then to every mirror.
// Each failure is reported to the FailureHandler; the joined error is returned
// for visibility only and callers are expected to carry on.
func (w *Writer) Write(ctx context.Context, doc *environment.Document) error {
	errs := make([]error, 0, 1+len(w.mirrors))

	if err := w.save(ctx, PrimaryTarget, w.primary, doc); err != nil {
		errs = append(errs, err)
	}

	for _, m := range w.mirrors {
		if err := w.save(ctx, m.name, m.saver, doc); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Stats returns the number of successful and failed saves so far.
func (w *Writer) Stats() Stats {
	return Stats{
		Written: w.written.Load(),
		Failed:  w.failed.Load(),
	}
}

func (w *Writer) save(ctx context.Context, target string, saver Saver, doc *environment.Document) error {
	// The tick finishes its writes even when shutdown has begun.
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.timeout)
	defer cancel()

	if err := saver.Save(saveCtx, doc); err != nil {
		w.failed.Add(1)

		err = fmt.Errorf("%s: %w", target, err)
		w.onFailure(ctx, target, err)

		return err
	}

	w.written.Add(1)

	return nil
}
