package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/satindergrewal/gmsamples/internal/job"
)

// GroupFunc is the unit of work for one instrument.
type GroupFunc func(ctx context.Context, g job.Group) error

// Dispatch runs fn over groups with at most workers in flight. Completion
// order across groups is unspecified. The first error cancels ctx for every
// other worker, stops new groups from starting and is returned once all
// started workers have exited. A parent cancellation is reported even when
// no group failed, since some groups may never have started.
func Dispatch(parent context.Context, groups []job.Group, workers int, fn GroupFunc) error {
	if workers < 1 {
		workers = 1
	}
	eg, ctx := errgroup.WithContext(parent)
	eg.SetLimit(workers)
	for _, g := range groups {
		if ctx.Err() != nil {
			break
		}
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return fn(ctx, g)
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}
	return parent.Err()
}
