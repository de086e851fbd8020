package ui

import (
	"fmt"
	"time"

	"github.com/floppylabs/floppy/internal/scanner"
)

// BatchLine is the console line printed after each completed batch.
func BatchLine(p scanner.Progress) string {
	return StyleInfo.Render(fmt.Sprintf("Processing batch %d/%d (blocks %d to %d)",
		p.Batch.Index+1, p.Batch.Count, p.Batch.Start, p.Batch.End)) +
		StyleMeta.Render(fmt.Sprintf("  %d logs · %d events · %s", p.Logs, p.Events, p.Elapsed.Round(time.Millisecond)))
}

// FailureLine reports where a failed scan stopped.
func FailureLine(lastBlockTracked uint64, batchesDone uint64, err error) string {
	if batchesDone == 0 {
		return Err(fmt.Sprintf("scan failed before the first batch completed: %v", err))
	}
	return Err(fmt.Sprintf("scan failed; last block tracked: %d: %v", lastBlockTracked, err))
}
