package distribution

import (
	"fmt"
	"time"
)

// Status is the terminal state of a distribution run.
type Status string

const (
	StatusSkipped      Status = "skipped"
	StatusNoRecipients Status = "no_recipients"
	StatusSuccess      Status = "success"
	StatusPartial      Status = "partial"
	StatusFailed       Status = "failed"
)

// Skip reasons.
const (
	ReasonOutsideWindow = "outside send window"
	ReasonAlreadySent   = "already sent"
	ReasonRunInProgress = "run in progress"
)

// Result summarizes one run.
type Result struct {
	RunID      string    `json:"run_id"`
	Status     Status    `json:"status"`
	Reason     string    `json:"reason,omitempty"`
	ReportDate time.Time `json:"report_date"`
	Filename   string    `json:"filename,omitempty"`
	Total      int       `json:"total"`
	Sent       int       `json:"sent"`
	Failed     int       `json:"failed"`
}

func skipped(runID, reason string, reportDate time.Time) Result {
	return Result{RunID: runID, Status: StatusSkipped, Reason: reason, ReportDate: reportDate}
}

func statusFor(sent, failed int) Status {
	switch {
	case sent+failed == 0:
		return StatusNoRecipients
	case failed == 0:
		return StatusSuccess
	case sent == 0:
		return StatusFailed
	default:
		return StatusPartial
	}
}

// Message is a one-line human summary.
func (r Result) Message() string {
	switch r.Status {
	case StatusSkipped:
		return "skipped: " + r.Reason
	case StatusNoRecipients:
		return "No active recipients found"
	default:
		return fmt.Sprintf("Sent %d of %d emails", r.Sent, r.Total)
	}
}

// ExitCode maps the result to a process exit status: 0 when nothing failed,
// 2 when some sends failed, 1 when all did.
func (r Result) ExitCode() int {
	switch r.Status {
	case StatusPartial:
		return 2
	case StatusFailed:
		return 1
	default:
		return 0
	}
}
