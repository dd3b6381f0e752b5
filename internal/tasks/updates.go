package tasks

import (
	"fmt"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Account string // Account being processed, if any
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	Prepare Phase = iota
	Extract
	Ingest
	Sweep
	Derive
	Report
	Notify
)

func (p Phase) String() string {
	switch p {
	case Prepare:
		return "prepare"
	case Extract:
		return "extract"
	case Ingest:
		return "ingest"
	case Sweep:
		return "sweep"
	case Derive:
		return "derive"
	case Report:
		return "report"
	case Notify:
		return "notify"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func prepareUpdate(title string) ProgressUpdate {
	return ProgressUpdate{Phase: Prepare, Step: 1, Total: 1, Message: fmt.Sprintf("Preparing worksheet %s...", title)}
}

func extractUpdate(step, total int, account, category string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Extract,
		Step:    step,
		Total:   total,
		Account: account,
		Message: fmt.Sprintf("[%d/%d] Reading %s export for %s...", step, total, category, account),
	}
}

func extractFailedUpdate(step, total int, account, category string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Extract,
		Step:    step,
		Total:   total,
		Account: account,
		Message: fmt.Sprintf("[%d/%d] ✗ %s export for %s: %v", step, total, category, account, err),
	}
}

func ingestUpdate(account string, res IngestResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Ingest,
		Step:    1,
		Total:   1,
		Account: account,
		Message: fmt.Sprintf("%s: %d added, %d merged, %d already tracked", account, res.Added, res.Merged, res.Skipped),
		Data:    res,
	}
}

func sweepUpdate(account string, marked int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Sweep,
		Step:    1,
		Total:   1,
		Account: account,
		Message: fmt.Sprintf("%s: %d items disappeared", account, marked),
		Data:    marked,
	}
}

func deriveUpdate(account string, res DeriveResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Derive,
		Step:    1,
		Total:   1,
		Account: account,
		Message: fmt.Sprintf("%s: %d resolution cells updated, %d inconsistent", account, res.Updated, res.Inconsistent),
		Data:    res,
	}
}

func syncFailedUpdate(account string, err error) ProgressUpdate {
	return ProgressUpdate{Phase: Ingest, Step: 1, Total: 1, Account: account, Message: fmt.Sprintf("✗ %s: %v", account, err)}
}

func reportUpdate() ProgressUpdate {
	return ProgressUpdate{Phase: Report, Step: 1, Total: 1, Message: "Building summary report..."}
}

func notifyUpdate(step, total int, what string) ProgressUpdate {
	return ProgressUpdate{Phase: Notify, Step: step, Total: total, Message: fmt.Sprintf("[%d/%d] Sending %s...", step, total, what)}
}
