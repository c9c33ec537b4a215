package mappings

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hazyhaar/mcmappings/scheme"
)

// DefaultConcurrency bounds in-flight page fetches in Batch.
const DefaultConcurrency = 4

// BatchItem is the outcome of one class lookup in a Batch.
type BatchItem struct {
	ClassPath string        `json:"class_path"`
	URL       string        `json:"url,omitempty"`
	Result    *Result       `json:"result,omitempty"`
	Err       error         `json:"-"`
	ErrorKind string        `json:"error_kind,omitempty"`
	Error     string        `json:"error,omitempty"`
	Duration  time.Duration `json:"-"`
}

// BatchOptions configures Batch.
type BatchOptions struct {
	// Concurrency caps parallel fetches. Default: DefaultConcurrency.
	Concurrency int
	// Options are applied to every Extractor.
	Options []Option
	// OnResult, if set, is called after each lookup. Calls may be concurrent.
	OnResult func(BatchItem)
}

// Batch looks up every class path, each on its own Extractor. A failing
// lookup is reported in its item and does not cancel the others. The items
// are returned in the order of classPaths.
//
// The version gate is checked once up front: an unsupported scheme fails the
// whole batch before any request.
func Batch(ctx context.Context, version string, s scheme.Scheme, classPaths []string, opts BatchOptions) ([]BatchItem, error) {
	if _, err := New(version, s, opts.Options...); err != nil {
		return nil, err
	}
	limit := opts.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	items := make([]BatchItem, len(classPaths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, cp := range classPaths {
		g.Go(func() error {
			start := time.Now()
			item := BatchItem{ClassPath: cp}
			res, err := batchLookup(gctx, version, cp, s, opts.Options, &item)
			item.Duration = time.Since(start)
			if err != nil {
				item.Err = err
				item.ErrorKind = ErrorKind(err)
				item.Error = err.Error()
			} else {
				item.Result = res
			}
			items[i] = item
			if opts.OnResult != nil {
				opts.OnResult(item)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return items, err
	}
	return items, ctx.Err()
}

func batchLookup(ctx context.Context, version, classPath string, s scheme.Scheme, opts []Option, item *BatchItem) (*Result, error) {
	ex, err := New(version, s, opts...)
	if err != nil {
		return nil, err
	}
	item.URL = ex.PageURL(classPath)
	return ex.Fetch(ctx, classPath)
}
