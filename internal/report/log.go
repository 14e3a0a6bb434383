// Package report keeps the in-memory log of abuse reports. The log is
// append-only and never purged while the process lives; everything is
// discarded on exit, which is the privacy policy for this service. Access is
// serialized by the session manager.
package report

import (
	"time"

	"github.com/google/uuid"
)

// Report records one abuse report. Entries are never mutated after append.
type Report struct {
	ID         string
	ReporterID string
	ReportedID string
	Reason     string
	Timestamp  time.Time
}

// Log is the append-only report store.
type Log struct {
	reports []Report
}

// NewLog creates an empty Log.
func NewLog() *Log {
	return &Log{}
}

// Append records a new report and returns it. The id is a fresh UUID.
func (l *Log) Append(reporterID, reportedID, reason string, now time.Time) Report {
	r := Report{
		ID:         uuid.New().String(),
		ReporterID: reporterID,
		ReportedID: reportedID,
		Reason:     reason,
		Timestamp:  now,
	}
	l.reports = append(l.reports, r)
	return r
}

// Len returns the number of reports filed so far.
func (l *Log) Len() int {
	return len(l.reports)
}

// All returns a copy of the log for operator inspection.
func (l *Log) All() []Report {
	out := make([]Report, len(l.reports))
	copy(out, l.reports)
	return out
}
