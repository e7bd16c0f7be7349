package source

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/theirongolddev/finlens/internal/model"
)

// maxConcurrentWrites bounds in-flight document store writes.
const maxConcurrentWrites = 8

// Writer stores one imported transaction under a stable id.
type Writer interface {
	PutTransaction(ctx context.Context, userID, externalID string, in model.TransactionInput) (string, error)
}

// ImportResult summarizes an import run.
type ImportResult struct {
	TotalFiles  int
	ParsedFiles int
	FileErrors  int
	ParseErrors int
	Imported    int
	WriteErrors int
	FirstErr    error // first file or write error, if any
}

// ProgressFunc is called during the write phase to report progress.
// current is the number of records written so far, total is the total count.
type ProgressFunc func(current, total int)

// Import parses files and writes every record for userID. Files are parsed
// with a bounded worker pool; writes run concurrently up to
// maxConcurrentWrites. A failed file or write is counted and the rest of the
// import continues. The returned error is non-nil only when ctx is cancelled.
func Import(ctx context.Context, w Writer, userID string, files []DiscoveredFile, progressFn ProgressFunc) (*ImportResult, error) {
	result := &ImportResult{TotalFiles: len(files)}
	if len(files) == 0 {
		return result, nil
	}

	parsed := parseAll(files)
	var records []Record
	for _, pr := range parsed {
		if pr.Err != nil {
			result.FileErrors++
			if result.FirstErr == nil {
				result.FirstErr = pr.Err
			}
			continue
		}
		result.ParsedFiles++
		result.ParseErrors += pr.ParseErrors
		records = append(records, pr.Records...)
	}

	var (
		imported  atomic.Int64
		failed    atomic.Int64
		processed atomic.Int64
		errOnce   sync.Once
		firstErr  error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentWrites)
	for _, rec := range records {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if _, err := w.PutTransaction(gctx, userID, rec.ExternalID, rec.Input); err != nil {
				failed.Add(1)
				errOnce.Do(func() { firstErr = err })
			} else {
				imported.Add(1)
			}
			n := processed.Add(1)
			if progressFn != nil {
				progressFn(int(n), len(records))
			}
			return nil
		})
	}
	_ = g.Wait()

	result.Imported = int(imported.Load())
	result.WriteErrors = int(failed.Load())
	if result.FirstErr == nil {
		result.FirstErr = firstErr
	}
	return result, ctx.Err()
}

// parseAll parses files in parallel, keeping input order in the results.
func parseAll(files []DiscoveredFile) []ParseResult {
	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers < 1 {
		numWorkers = 4
	}
	if numWorkers > len(files) {
		numWorkers = len(files)
	}

	work := make(chan int, len(files))
	results := make([]ParseResult, len(files))
	for i := range files {
		work <- i
	}
	close(work)

	var wg sync.WaitGroup
	wg.Add(numWorkers)
	for range numWorkers {
		go func() {
			defer wg.Done()
			for idx := range work {
				results[idx] = ParseFile(files[idx])
			}
		}()
	}
	wg.Wait()
	return results
}
