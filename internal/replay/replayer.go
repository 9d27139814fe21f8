package replay

import (
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/latticeforge/swarm/internal/events"
	"github.com/latticeforge/swarm/internal/session"
)

// Replayer renders a Timeline's events for forensic analysis.
type Replayer struct {
	output         io.Writer
	verbosity      int // 0=normal, 1=verbose (-v), 2=very verbose (-vv)
	maxContentSize int // truncation limit for payload content fields, 0 = unlimited
}

// ReplayerOption configures a Replayer.
type ReplayerOption func(*Replayer)

// WithMaxContentSize limits payload content fields to avoid flooding
// the terminal on a long-running incarnation's log.
func WithMaxContentSize(size int) ReplayerOption {
	return func(r *Replayer) { r.maxContentSize = size }
}

// New creates a Replayer. verbosity follows the CLI's -v/-vv flags.
func New(output io.Writer, verbosity int, opts ...ReplayerOption) *Replayer {
	r := &Replayer{
		output:         output,
		verbosity:      verbosity,
		maxContentSize: 4 * 1024,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ReplayRun looks up a run by id and prints its full timeline.
func (r *Replayer) ReplayRun(store *session.Store, runID uuid.UUID) error {
	tl, err := LoadRun(store, runID)
	if err != nil {
		return err
	}
	return r.Replay(tl)
}

// ReplayFile prints the timeline of an event log read directly off
// disk, with no run-index metadata.
func (r *Replayer) ReplayFile(path string) error {
	tl, err := LoadFile(path)
	if err != nil {
		return err
	}
	return r.Replay(tl)
}

// Replay prints a Timeline's header, event-by-event body, and closing
// summary.
func (r *Replayer) Replay(tl *Timeline) error {
	r.printHeader(tl)
	r.printTimeline(tl.Events)
	r.printSummary(tl)
	return nil
}

func (r *Replayer) printHeader(tl *Timeline) {
	fmt.Fprintln(r.output, divider)
	if tl.Run != nil {
		fmt.Fprintf(r.output, "%s %s\n", titleStyle.Render("RUN:"), valueStyle.Render(tl.Run.ID.String()))
		fmt.Fprintf(r.output, "%s %s\n", labelStyle.Render("coordinator:"), valueStyle.Render(tl.Run.CoordinatorID.String()))
		fmt.Fprintf(r.output, "%s %s\n", labelStyle.Render("incarnation:"), valueStyle.Render(tl.Run.IncarnationID))
		fmt.Fprintf(r.output, "%s %s\n", labelStyle.Render("status:"), r.statusStyle(tl.Run.Status).Render(string(tl.Run.Status)))
		fmt.Fprintf(r.output, "%s %s\n", labelStyle.Render("started:"), valueStyle.Render(tl.Run.StartedAt.Format("2006-01-02T15:04:05Z07:00")))
	}
	fmt.Fprintln(r.output, divider)
	fmt.Fprintf(r.output, "TIMELINE (%d events)\n", len(tl.Events))
	fmt.Fprintln(r.output, divider)
}

func (r *Replayer) printTimeline(evs []events.Event) {
	for i, ev := range evs {
		r.formatEvent(i+1, ev)
	}
}

func (r *Replayer) printSummary(tl *Timeline) {
	fmt.Fprintln(r.output)
	fmt.Fprintln(r.output, divider)
	if tl.Run != nil {
		switch tl.Run.Status {
		case session.StatusComplete:
			fmt.Fprintf(r.output, "%s\n", successStyle.Render("COMPLETE: "+tl.Run.Summary))
		case session.StatusFailed:
			fmt.Fprintf(r.output, "%s\n", errorStyle.Render("FAILED: "+tl.Run.Summary))
		default:
			fmt.Fprintf(r.output, "%s\n", warnStyle.Render("RUNNING"))
		}
	}
	PrintStats(r.output, ComputeStats(tl.Events))
}

// ReplayInteractive renders tl into a scrollable, searchable terminal
// pager instead of writing straight to r's output.
func (r *Replayer) ReplayInteractive(tl *Timeline) error {
	var buf strings.Builder
	original := r.output
	r.output = &buf
	err := r.Replay(tl)
	r.output = original
	if err != nil {
		return err
	}

	title := "swarm replay"
	if tl.Run != nil {
		title = fmt.Sprintf("swarm replay: %s", tl.Run.ID)
	}
	return NewPager(title, buf.String()).Run(buf.String())
}

// ReplayFileLive follows an event log that a coordinator is still
// appending to, refreshing the pager each time the file changes.
func (r *Replayer) ReplayFileLive(path string) error {
	render := func() (string, error) {
		tl, err := LoadFile(path)
		if err != nil {
			return "", err
		}
		var buf strings.Builder
		original := r.output
		r.output = &buf
		err = r.Replay(tl)
		r.output = original
		return buf.String(), err
	}
	return NewPager(fmt.Sprintf("swarm replay --follow: %s", path), "").RunLive(path, render)
}

func (r *Replayer) statusStyle(status session.Status) lipglossStyle {
	switch status {
	case session.StatusComplete:
		return successStyle
	case session.StatusFailed:
		return errorStyle
	default:
		return warnStyle
	}
}
