package replay

import (
	"fmt"

	"github.com/latticeforge/swarm/internal/events"
)

// formatEvent renders one timeline entry.
func (r *Replayer) formatEvent(seq int, ev events.Event) {
	seqNum := seqStyle.Render(fmt.Sprintf("%d", seq))
	ts := timeStyle.Render(ev.Timestamp.Format("15:04:05.000"))
	payload := payloadMap(ev)

	switch ev.Kind {
	case events.KindTrustUpdate:
		r.fmtTrustUpdate(seqNum, ts, ev, payload)
	case events.KindIntentDeclared:
		r.fmtIntentDeclared(seqNum, ts, ev, payload)
	case events.KindIntentTransition:
		r.fmtTransition(seqNum, ts, flowStyle, "INTENT", ev, payload)
	case events.KindStepTransition:
		r.fmtTransition(seqNum, ts, flowStyle, "STEP", ev, payload)
	case events.KindPromiseTransition:
		r.fmtTransition(seqNum, ts, flowStyle, "PROMISE", ev, payload)
	case events.KindVerification:
		r.fmtVerification(seqNum, ts, ev, payload)
	case events.KindRecoveryAttempt:
		r.fmtRecoveryAttempt(seqNum, ts, ev, payload)
	case events.KindCheckpoint:
		r.fmtCheckpoint(seqNum, ts, ev, payload)
	case events.KindMessage:
		r.fmtMessage(seqNum, ts, ev, payload)
	default:
		fmt.Fprintf(r.output, "%s │ %s │ %s\n", seqNum, ts, dimStyle.Render(string(ev.Kind)))
	}
}

func (r *Replayer) fmtTrustUpdate(seqNum, ts string, ev events.Event, p map[string]any) {
	fmt.Fprintf(r.output, "%s │ %s │ %s %s value=%s confidence=%s\n",
		seqNum, ts, trustStyle.Render("TRUST"),
		labelStyle.Render(ev.Subject),
		valueStyle.Render(fnum(p, "value")),
		valueStyle.Render(fnum(p, "confidence")))
}

func (r *Replayer) fmtIntentDeclared(seqNum, ts string, ev events.Event, p map[string]any) {
	fmt.Fprintf(r.output, "%s │ %s │ %s %s\n", seqNum, ts,
		flowStyle.Render("INTENT DECLARED"), labelStyle.Render(ev.Subject))
	if desc := fstr(p, "description"); desc != "" && r.verbosity > 0 {
		r.printContent(truncateContent(desc, r.maxContentSize))
	}
}

func (r *Replayer) fmtTransition(seqNum, ts string, style lipglossStyle, label string, ev events.Event, p map[string]any) {
	from, to := fstr(p, "from"), fstr(p, "to")
	fmt.Fprintf(r.output, "%s │ %s │ %s %s %s → %s\n", seqNum, ts,
		style.Render(label), labelStyle.Render(ev.Subject),
		dimStyle.Render(from), valueStyle.Render(to))
}

func (r *Replayer) fmtVerification(seqNum, ts string, ev events.Event, p map[string]any) {
	outcome := fstr(p, "outcome")
	style := successStyle
	if outcome == "" || outcome == "fail" || outcome == "failure" {
		style = errorStyle
		if outcome == "" {
			outcome = "unknown"
		}
	}
	fmt.Fprintf(r.output, "%s │ %s │ %s %s %s", seqNum, ts,
		verificationStyle.Render("VERIFY"), labelStyle.Render(ev.Subject), style.Render(outcome))
	if conf := fnum(p, "confidence"); conf != "" {
		fmt.Fprintf(r.output, " confidence=%s", valueStyle.Render(conf))
	}
	fmt.Fprintln(r.output)
}

func (r *Replayer) fmtRecoveryAttempt(seqNum, ts string, ev events.Event, p map[string]any) {
	outcome := fstr(p, "outcome")
	style := warnStyle
	switch outcome {
	case "recovered", "success":
		style = successStyle
	case "exhausted", "failed":
		style = errorStyle
	}
	fmt.Fprintf(r.output, "%s │ %s │ %s %s strategy=%s %s\n", seqNum, ts,
		recoveryStyle.Render("RECOVERY"), labelStyle.Render(ev.Subject),
		valueStyle.Render(fstr(p, "strategy")), style.Render(outcome))
}

func (r *Replayer) fmtCheckpoint(seqNum, ts string, ev events.Event, p map[string]any) {
	fmt.Fprintf(r.output, "%s │ %s │ %s %s agents=%s tasks=%s\n", seqNum, ts,
		checkpointStyle.Render("CHECKPOINT"), labelStyle.Render(ev.Subject),
		valueStyle.Render(fnum(p, "agent_count")), valueStyle.Render(fnum(p, "task_count")))
}

func (r *Replayer) fmtMessage(seqNum, ts string, ev events.Event, p map[string]any) {
	fmt.Fprintf(r.output, "%s │ %s │ %s %s → %s [%s]\n", seqNum, ts,
		messageStyle.Render("MESSAGE"),
		dimStyle.Render(fstr(p, "from")), dimStyle.Render(fstr(p, "to")),
		valueStyle.Render(fstr(p, "kind")))
}

// payloadMap normalizes an Event's Payload to a string-keyed map. The
// event log round-trips through JSON, so any struct payload an emitter
// passed to Log.Emit decodes back as map[string]interface{}.
func payloadMap(ev events.Event) map[string]any {
	if m, ok := ev.Payload.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

func fstr(p map[string]any, key string) string {
	v, ok := p[key]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

func fnum(p map[string]any, key string) string {
	v, ok := p[key]
	if !ok {
		return ""
	}
	switch n := v.(type) {
	case float64:
		return fmt.Sprintf("%.2f", n)
	default:
		return fmt.Sprintf("%v", n)
	}
}

// lipglossStyle is the minimal interface fmtTransition needs from a
// lipgloss.Style, so one helper serves all three transition kinds.
type lipglossStyle interface {
	Render(...string) string
}
