package services

import (
	"errors"
	"fmt"
	"strings"
)

// ErrBatchesFailed is wrapped by the error Run returns when it kept going
// past failed batches.
var ErrBatchesFailed = errors.New("one or more batches failed")

// InputError reports a problem reading or parsing the input file.
type InputError struct {
	Path string
	Err  error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("input %q: %v", e.Path, e.Err)
}

func (e *InputError) Unwrap() error { return e.Err }

// Problem describes one malformed record.
type Problem struct {
	Index  int
	ID     string
	Reason string
}

func (p Problem) String() string {
	if p.ID != "" {
		return fmt.Sprintf("record %d (id %q): %s", p.Index, p.ID, p.Reason)
	}
	return fmt.Sprintf("record %d: %s", p.Index, p.Reason)
}

// ValidationError lists every malformed record found in the input.
type ValidationError struct {
	// Total is the number of elements in the input, valid or not.
	Total    int
	Problems []Problem
}

func (e *ValidationError) Error() string {
	const shown = 5

	var b strings.Builder
	fmt.Fprintf(&b, "validation failed for %d record(s)", len(e.Problems))
	for i, p := range e.Problems {
		if i == shown {
			fmt.Fprintf(&b, "; and %d more", len(e.Problems)-shown)
			break
		}
		b.WriteString("; ")
		b.WriteString(p.String())
	}
	return b.String()
}

// StoreError reports a failed batch commit.
type StoreError struct {
	Batch   int
	IDs     []string
	Timeout bool
	Err     error
}

func (e *StoreError) Error() string {
	kind := "commit failed"
	if e.Timeout {
		kind = "commit timed out"
	}
	return fmt.Sprintf("batch %d (%d records, ids %s): %s: %v",
		e.Batch, len(e.IDs), idRange(e.IDs), kind, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func idRange(ids []string) string {
	switch len(ids) {
	case 0:
		return "-"
	case 1:
		return ids[0]
	}
	return ids[0] + ".." + ids[len(ids)-1]
}
