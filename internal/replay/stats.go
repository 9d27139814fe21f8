package replay

import (
	"fmt"
	"io"
	"time"

	"github.com/latticeforge/swarm/internal/events"
)

// Stats holds aggregate statistics over one run's event log, computed
// once so `swarm replay`'s summary footer and `swarm inspect` don't
// each walk the timeline separately.
type Stats struct {
	TotalDurationMs int64
	EventCount      int
	KindCounts      map[events.Kind]int

	VerificationPass int
	VerificationFail int

	RecoveryAttempts  int
	RecoveryRecovered int
	RecoveryExhausted int

	TrustUpdates int
	Checkpoints  int
	Messages     int
}

// ComputeStats aggregates a Stats from a run's ordered events.
func ComputeStats(evs []events.Event) *Stats {
	s := &Stats{KindCounts: make(map[events.Kind]int)}
	if len(evs) == 0 {
		return s
	}

	var first, last time.Time
	for _, ev := range evs {
		if first.IsZero() || ev.Timestamp.Before(first) {
			first = ev.Timestamp
		}
		if last.IsZero() || ev.Timestamp.After(last) {
			last = ev.Timestamp
		}

		s.EventCount++
		s.KindCounts[ev.Kind]++
		p := payloadMap(ev)

		switch ev.Kind {
		case events.KindVerification:
			switch fstr(p, "outcome") {
			case "pass", "success":
				s.VerificationPass++
			default:
				s.VerificationFail++
			}
		case events.KindRecoveryAttempt:
			s.RecoveryAttempts++
			switch fstr(p, "outcome") {
			case "recovered", "success":
				s.RecoveryRecovered++
			case "exhausted", "failed":
				s.RecoveryExhausted++
			}
		case events.KindTrustUpdate:
			s.TrustUpdates++
		case events.KindCheckpoint:
			s.Checkpoints++
		case events.KindMessage:
			s.Messages++
		}
	}
	s.TotalDurationMs = last.Sub(first).Milliseconds()
	return s
}

// PrintStats writes a human-readable summary of s to w.
func PrintStats(w io.Writer, s *Stats) {
	fmt.Fprintf(w, "%s %s\n", labelStyle.Render("events:"), valueStyle.Render(fmt.Sprintf("%d", s.EventCount)))
	fmt.Fprintf(w, "%s %s\n", labelStyle.Render("duration:"), valueStyle.Render(fmt.Sprintf("%dms", s.TotalDurationMs)))
	if s.VerificationPass+s.VerificationFail > 0 {
		fmt.Fprintf(w, "%s %s\n", labelStyle.Render("verifications:"),
			fmt.Sprintf("%s pass / %s fail",
				successStyle.Render(fmt.Sprintf("%d", s.VerificationPass)),
				errorStyle.Render(fmt.Sprintf("%d", s.VerificationFail))))
	}
	if s.RecoveryAttempts > 0 {
		fmt.Fprintf(w, "%s %s\n", labelStyle.Render("recovery attempts:"),
			fmt.Sprintf("%d (%s recovered, %s exhausted)", s.RecoveryAttempts,
				successStyle.Render(fmt.Sprintf("%d", s.RecoveryRecovered)),
				errorStyle.Render(fmt.Sprintf("%d", s.RecoveryExhausted))))
	}
	if s.TrustUpdates > 0 {
		fmt.Fprintf(w, "%s %d\n", labelStyle.Render("trust updates:"), s.TrustUpdates)
	}
	if s.Checkpoints > 0 {
		fmt.Fprintf(w, "%s %d\n", labelStyle.Render("checkpoints:"), s.Checkpoints)
	}
}
