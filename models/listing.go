package models

import "time"

// ListingRecord is one importable listing. Fields holds the whole JSON
// object, id included, exactly as it will be stored.
type ListingRecord struct {
	ID     string
	Index  int
	Fields map[string]any
}

// Batch is a bounded group of records committed as one atomic write.
type Batch struct {
	Index   int
	Records []ListingRecord
}

// IDs returns the document ids in batch order.
func (b Batch) IDs() []string {
	ids := make([]string, len(b.Records))
	for i, r := range b.Records {
		ids[i] = r.ID
	}
	return ids
}

// BatchResult is the outcome of committing a single batch.
type BatchResult struct {
	Index    int
	Size     int
	IDs      []string
	Err      error
	Duration time.Duration
}

// OK reports whether the batch committed.
func (r BatchResult) OK() bool { return r.Err == nil }

// ImportSummary reports the outcome of one import run.
type ImportSummary struct {
	RunID      string
	Source     string
	Collection string
	DryRun     bool

	TotalRecords      int
	DuplicatesDropped int

	BatchesPlanned   int
	BatchesAttempted int
	BatchesSucceeded int
	BatchesFailed    int
	DocumentsWritten int

	Results  []BatchResult
	Failures []BatchResult

	Cancelled bool
	Elapsed   time.Duration
}
