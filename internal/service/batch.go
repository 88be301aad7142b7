package service

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/stemsi/assessment-pipeline/internal/apperror"
)

// runBatch applies fn to every distinct id with at most limit in flight.
// One failure never stops the others; every id lands in exactly one of
// Succeeded or Failed, and Succeeded keeps input order.
func runBatch(ctx context.Context, ids []string, limit int, fn func(ctx context.Context, id string) error) apperror.BatchOutcome {
	if limit < 1 {
		limit = 1
	}

	unique := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	errs := make([]error, len(unique))

	g := new(errgroup.Group)
	g.SetLimit(limit)
	for i, id := range unique {
		g.Go(func() error {
			errs[i] = fn(ctx, id)
			return nil
		})
	}
	_ = g.Wait()

	out := apperror.BatchOutcome{Succeeded: make([]string, 0, len(unique))}
	for i, id := range unique {
		if errs[i] == nil {
			out.Succeeded = append(out.Succeeded, id)
			continue
		}
		if out.Failed == nil {
			out.Failed = make(map[string]error)
		}
		out.Failed[id] = errs[i]
	}
	return out
}
