package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"villa-importer/config"
	"villa-importer/models"
	"villa-importer/storage"
	"villa-importer/utils"
)

// Options controls a single import run.
type Options struct {
	MaxBatchSize         int
	DryRun               bool
	ContinueOnBatchError bool
	DuplicatePolicy      string
	// Timeout bounds each batch commit; zero means no limit.
	Timeout time.Duration
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		MaxBatchSize:    config.DefaultBatchSize,
		DuplicatePolicy: config.DuplicatesReject,
	}
}

// Importer loads listing files and upserts them into a document store one
// atomic batch at a time. It owns its store: Run closes it on return.
type Importer struct {
	store   storage.DocumentStore
	cleaner *Cleaner
	logger  *utils.Logger
}

// NewImporter creates an Importer. store may be nil for dry runs.
func NewImporter(store storage.DocumentStore, logger *utils.Logger) *Importer {
	return &Importer{
		store:   store,
		cleaner: NewCleaner(logger),
		logger:  logger,
	}
}

// Run loads, validates and partitions the file at path, then commits each
// batch to collection in order. Nothing is written unless the whole file
// validates. The returned summary is populated even when err is non-nil.
func (im *Importer) Run(ctx context.Context, path, collection string, opts Options) (*models.ImportSummary, error) {
	start := time.Now()
	summary := &models.ImportSummary{
		RunID:      uuid.NewString(),
		Source:     path,
		Collection: collection,
		DryRun:     opts.DryRun,
	}
	defer func() { summary.Elapsed = time.Since(start) }()
	defer im.closeStore()

	if opts.MaxBatchSize == 0 {
		opts.MaxBatchSize = config.DefaultBatchSize
	}
	if !opts.DryRun && im.store == nil {
		return summary, errors.New("importer: no document store configured")
	}

	im.logger.Info("[importer] Run %s: %s → collection %q (batch size %d, dry run %t)",
		summary.RunID, path, collection, opts.MaxBatchSize, opts.DryRun)

	records, err := LoadRecords(path)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			summary.TotalRecords = verr.Total
		}
		return summary, err
	}
	summary.TotalRecords = len(records)
	im.logger.Info("[importer] Loaded %d records from %s", len(records), path)

	cleaned, dropped, err := im.cleaner.Clean(records, opts.DuplicatePolicy)
	if err != nil {
		return summary, err
	}
	summary.DuplicatesDropped = dropped

	batches, err := PartitionIntoBatches(cleaned, opts.MaxBatchSize)
	if err != nil {
		return summary, err
	}
	summary.BatchesPlanned = len(batches)

	if opts.DryRun {
		im.logger.Info("[importer] Dry run: %d records would be written in %d batches",
			len(cleaned), len(batches))
		return summary, nil
	}

	var failures []error
	for _, b := range batches {
		if err := ctx.Err(); err != nil {
			summary.Cancelled = true
			im.logger.Warn("[importer] Cancelled before batch %d/%d", b.Index+1, len(batches))
			return summary, fmt.Errorf("import cancelled before batch %d of %d: %w",
				b.Index+1, len(batches), err)
		}

		res := im.CommitBatch(ctx, collection, b, opts.Timeout)
		summary.BatchesAttempted++
		summary.Results = append(summary.Results, res)

		if res.OK() {
			summary.BatchesSucceeded++
			summary.DocumentsWritten += res.Size
			im.logger.Info("[importer] Batch %d/%d committed (%d records) in %v",
				b.Index+1, len(batches), res.Size, res.Duration.Round(time.Millisecond))
			continue
		}

		summary.BatchesFailed++
		summary.Failures = append(summary.Failures, res)
		im.logger.Error("[importer] Batch %d/%d failed: %v", b.Index+1, len(batches), res.Err)

		if ctx.Err() != nil {
			summary.Cancelled = true
			return summary, res.Err
		}
		if !opts.ContinueOnBatchError {
			return summary, res.Err
		}
		failures = append(failures, res.Err)
	}

	if len(failures) > 0 {
		return summary, fmt.Errorf("%w: %d of %d: %w",
			ErrBatchesFailed, len(failures), len(batches), errors.Join(failures...))
	}
	return summary, nil
}

// CommitBatch issues one atomic multi-document upsert for batch. A failure
// is reported as a *StoreError in the result; records are never retried
// individually.
func (im *Importer) CommitBatch(ctx context.Context, collection string, batch models.Batch, timeout time.Duration) models.BatchResult {
	res := models.BatchResult{
		Index: batch.Index,
		Size:  len(batch.Records),
		IDs:   batch.IDs(),
	}

	commitCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		commitCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	wb := im.store.NewBatch(collection)
	for _, r := range batch.Records {
		wb.Set(r.ID, r.Fields)
	}
	err := wb.Commit(commitCtx)
	res.Duration = time.Since(start)

	if err != nil {
		timedOut := errors.Is(err, context.DeadlineExceeded) ||
			errors.Is(commitCtx.Err(), context.DeadlineExceeded)
		res.Err = &StoreError{Batch: batch.Index, IDs: res.IDs, Timeout: timedOut, Err: err}
	}
	return res
}

func (im *Importer) closeStore() {
	if im.store == nil {
		return
	}
	if err := im.store.Close(); err != nil {
		im.logger.Warn("[importer] Closing store: %v", err)
	}
}
