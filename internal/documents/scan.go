package documents

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// FileError pairs a path with the error that kept it from being described.
type FileError struct {
	Path string
	Err  error
}

// Describe computes metadata for paths with at most workers files hashed at a
// time. Results keep the input order; files that fail are returned in errs
// and left out of the metadata. Only context cancellation aborts the call.
func Describe(ctx context.Context, adapter StorageAdapter, paths []string, ownerHint string, workers int) ([]FileMetadata, []FileError, error) {
	if workers < 1 {
		workers = 1
	}
	results := make([]FileMetadata, len(paths))
	errs := make([]error, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			meta, err := adapter.Metadata(path, ownerHint)
			if err != nil {
				errs[i] = err
				return nil
			}
			results[i] = meta
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	out := make([]FileMetadata, 0, len(paths))
	var failed []FileError
	for i := range paths {
		if errs[i] != nil {
			failed = append(failed, FileError{Path: paths[i], Err: errs[i]})
			continue
		}
		out = append(out, results[i])
	}
	return out, failed, nil
}
