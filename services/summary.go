package services

import (
	"fmt"
	"io"
	"strings"
	"time"

	"villa-importer/models"
)

// PrintSummary writes a human-readable report of an import run to w.
func PrintSummary(w io.Writer, s *models.ImportSummary) {
	const maxErrors = 10

	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(w, "\033[1;35m  IMPORT SUMMARY\033[0m\n")
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)

	fmt.Fprintf(w, "  Run id             : %s\n", s.RunID)
	fmt.Fprintf(w, "  Source             : %s\n", s.Source)
	fmt.Fprintf(w, "  Collection         : %s\n", s.Collection)
	if s.DryRun {
		fmt.Fprintf(w, "  Mode               : DRY RUN (no writes)\n")
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1;33m  Records\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Total records      : %d\n", s.TotalRecords)
	fmt.Fprintf(w, "  Duplicates dropped : %d\n", s.DuplicatesDropped)
	fmt.Fprintf(w, "  Documents written  : %d\n", s.DocumentsWritten)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1;33m  Batches\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Batches planned    : %d\n", s.BatchesPlanned)
	fmt.Fprintf(w, "  Batches attempted  : %d\n", s.BatchesAttempted)
	fmt.Fprintf(w, "  Batches succeeded  : %d\n", s.BatchesSucceeded)
	fmt.Fprintf(w, "  Batches failed     : %d\n", s.BatchesFailed)
	if s.Cancelled {
		fmt.Fprintf(w, "  Cancelled          : yes\n")
	}
	fmt.Fprintf(w, "  Elapsed            : %v\n", s.Elapsed.Round(time.Millisecond))

	if len(s.Failures) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "\033[1;31m  Failed batches\033[0m\n")
		fmt.Fprintf(w, "  %s\n", thin)
		for i, f := range s.Failures {
			if i == maxErrors {
				fmt.Fprintf(w, "  ... and %d more\n", len(s.Failures)-maxErrors)
				break
			}
			fmt.Fprintf(w, "  - %v\n", f.Err)
		}
	}

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n\n", sep)
}
