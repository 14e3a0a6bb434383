package report

import (
	"testing"
	"time"
)

func TestAppend(t *testing.T) {
	l := NewLog()
	now := time.Unix(1000, 0)

	r := l.Append("reporter-1", "reported-1", "harassment", now)

	if r.ID == "" {
		t.Error("report should get a generated id")
	}
	if r.ReporterID != "reporter-1" || r.ReportedID != "reported-1" {
		t.Errorf("unexpected participants: %+v", r)
	}
	if r.Reason != "harassment" {
		t.Errorf("Reason = %q, want %q", r.Reason, "harassment")
	}
	if !r.Timestamp.Equal(now) {
		t.Errorf("Timestamp = %v, want %v", r.Timestamp, now)
	}
	if l.Len() != 1 {
		t.Errorf("Len = %d, want 1", l.Len())
	}
}

func TestAppend_UniqueIDs(t *testing.T) {
	l := NewLog()
	now := time.Now()

	a := l.Append("r1", "x", "spam", now)
	b := l.Append("r1", "x", "spam", now)
	if a.ID == b.ID {
		t.Error("each report should get a distinct id")
	}
}

func TestAll_ReturnsCopy(t *testing.T) {
	l := NewLog()
	l.Append("r1", "x", "spam", time.Now())

	snapshot := l.All()
	snapshot[0].Reason = "mutated"

	if l.All()[0].Reason != "spam" {
		t.Error("mutating the snapshot must not affect the log")
	}
}
