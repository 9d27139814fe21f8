// Package execengine implements the Execution Engine (spec §4.5): it
// runs one Step's Action under the ordered security checks its
// ContextBounds impose, with a non-extendable timeout and a capped
// output buffer. It never retries — retries are the Recovery Manager's
// job exclusively (spec §4.5 "no engine-driven retries").
package execengine

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/latticeforge/swarm/internal/intent"
	"github.com/latticeforge/swarm/internal/swarmerr"
)

// maxCapturedOutput bounds how much stdout/stderr the engine retains per
// step, regardless of how much the process actually writes.
const maxCapturedOutput = 1 << 20 // 1 MiB

// FunctionRegistry resolves ActionFunctionCall steps to host functions;
// the engine has no built-in function set of its own.
type FunctionRegistry interface {
	Call(ctx context.Context, name string, args map[string]any) (string, error)
}

// SubIntentRunner executes a delegated sub-intent and reports whether it
// ultimately succeeded; wired to the coordinator in production.
type SubIntentRunner interface {
	RunSubIntent(ctx context.Context, id uuid.UUID) (bool, error)
}

// Engine implements intent.StepRunner.
type Engine struct {
	Functions  FunctionRegistry
	SubIntents SubIntentRunner
}

func New(functions FunctionRegistry, subIntents SubIntentRunner) *Engine {
	return &Engine{Functions: functions, SubIntents: subIntents}
}

// Run executes one step under bounds, implementing intent.StepRunner.
func (e *Engine) Run(ctx context.Context, s *intent.Step, bounds intent.ContextBounds) (intent.StepResult, error) {
	if err := checkSecurity(s.Action, bounds); err != nil {
		return intent.StepResult{Kind: intent.ResultErr, Reason: err.Error()}, nil
	}

	wallCtx := ctx
	var cancel context.CancelFunc
	if bounds.MaxWallSecs > 0 {
		wallCtx, cancel = context.WithTimeout(ctx, time.Duration(bounds.MaxWallSecs)*time.Second)
		defer cancel()
	}

	switch s.Action.Kind {
	case intent.ActionCommand:
		return e.runCommand(wallCtx, s.Action, bounds)
	case intent.ActionFileOp:
		return e.runFileOp(s.Action, bounds)
	case intent.ActionFunctionCall:
		return e.runFunctionCall(wallCtx, s.Action)
	case intent.ActionSubIntent:
		return e.runSubIntent(wallCtx, s.Action)
	default:
		return intent.StepResult{Kind: intent.ResultErr, Reason: "unknown action kind"}, nil
	}
}

// checkSecurity applies spec §4.5's fixed check order: command-not-denied,
// command-allowed, path bounds, resource bounds, network policy, argument
// sanitization. The first violation short-circuits the rest.
func checkSecurity(a intent.Action, bounds intent.ContextBounds) error {
	if err := checkCommandNotDenied(a, bounds); err != nil {
		return err
	}
	if err := checkCommandAllowed(a, bounds); err != nil {
		return err
	}
	if err := checkPathBounds(a, bounds); err != nil {
		return err
	}
	if err := checkResourceBounds(bounds); err != nil {
		return err
	}
	if err := checkNetworkPolicy(a, bounds); err != nil {
		return err
	}
	if err := sanitizeArguments(a); err != nil {
		return err
	}
	return nil
}

func checkCommandNotDenied(a intent.Action, bounds intent.ContextBounds) error {
	if a.Kind != intent.ActionCommand || len(a.Argv) == 0 {
		return nil
	}
	for _, denied := range bounds.DeniedCommands {
		if a.Argv[0] == denied {
			return swarmerr.New(swarmerr.KindPolicy, a.Argv[0], "command is explicitly denied")
		}
	}
	return nil
}

func checkCommandAllowed(a intent.Action, bounds intent.ContextBounds) error {
	if a.Kind != intent.ActionCommand || len(bounds.AllowedCommands) == 0 {
		return nil
	}
	if len(a.Argv) == 0 {
		return swarmerr.New(swarmerr.KindPolicy, "", "empty command is not in the allowlist")
	}
	for _, allowed := range bounds.AllowedCommands {
		if a.Argv[0] == allowed {
			return nil
		}
	}
	return swarmerr.New(swarmerr.KindPolicy, a.Argv[0], "command is not in the allowlist")
}

func checkPathBounds(a intent.Action, bounds intent.ContextBounds) error {
	if a.Kind != intent.ActionFileOp || a.Path == "" {
		return nil
	}
	path := filepath.Clean(a.Path)
	for _, denied := range bounds.DeniedPaths {
		if withinOrEqual(path, denied) {
			return swarmerr.New(swarmerr.KindPolicy, path, "path falls under a denied prefix")
		}
	}
	if len(bounds.AllowedPaths) == 0 {
		return nil
	}
	for _, allowed := range bounds.AllowedPaths {
		if withinOrEqual(path, allowed) {
			return nil
		}
	}
	return swarmerr.New(swarmerr.KindPolicy, path, "path is not under any allowed prefix")
}

func withinOrEqual(path, prefix string) bool {
	prefix = filepath.Clean(prefix)
	if path == prefix {
		return true
	}
	return strings.HasPrefix(path, prefix+string(filepath.Separator))
}

// checkResourceBounds is the admission-time half of §4.5's memory/cpu/wall
// check: it rejects a manifestly unenforceable configuration (a wall-clock
// budget of zero isn't "unlimited", it's misconfigured) before the engine
// ever spawns a process. The wall-clock limit is enforced for real via the
// context timeout installed in Run.
func checkResourceBounds(bounds intent.ContextBounds) error {
	if bounds.MaxWallSecs == 0 && bounds.MaxCPUSecs == 0 && bounds.MaxMemoryBytes == 0 {
		return swarmerr.New(swarmerr.KindPolicy, "", "bounds declare no resource limits at all")
	}
	return nil
}

func checkNetworkPolicy(a intent.Action, bounds intent.ContextBounds) error {
	if a.Kind != intent.ActionCommand {
		return nil
	}
	if !bounds.NetworkNone {
		return nil
	}
	// A command claiming no network access may still reach out; the engine
	// can only refuse commands it statically recognizes as network tools.
	for _, netTool := range []string{"curl", "wget", "nc", "ssh", "scp"} {
		if len(a.Argv) > 0 && a.Argv[0] == netTool {
			return swarmerr.New(swarmerr.KindPolicy, a.Argv[0], "network access denied by bounds")
		}
	}
	return nil
}

func sanitizeArguments(a intent.Action) error {
	if a.Kind != intent.ActionCommand {
		return nil
	}
	for _, arg := range a.Argv {
		if strings.ContainsRune(arg, 0) {
			return swarmerr.New(swarmerr.KindPolicy, arg, "argument contains a null byte")
		}
		if len(arg) > 64*1024 {
			return swarmerr.New(swarmerr.KindPolicy, "", "argument exceeds maximum length")
		}
	}
	return nil
}

func (e *Engine) runCommand(ctx context.Context, a intent.Action, bounds intent.ContextBounds) (intent.StepResult, error) {
	if len(a.Argv) == 0 {
		return intent.StepResult{Kind: intent.ResultErr, Reason: "empty argv"}, nil
	}
	cmd := exec.CommandContext(ctx, a.Argv[0], a.Argv[1:]...)
	var out bytes.Buffer
	cmd.Stdout = capped(&out)
	cmd.Stderr = capped(&out)

	err := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return intent.StepResult{Kind: intent.ResultErr, Reason: "wall-clock budget exceeded"}, nil
	}
	if err != nil {
		return intent.StepResult{Kind: intent.ResultErr, Reason: err.Error()}, nil
	}
	return intent.StepResult{Kind: intent.ResultOK, Evidence: out.String()}, nil
}

// capped wraps w so writes beyond maxCapturedOutput are silently dropped
// rather than growing the buffer without limit.
func capped(w *bytes.Buffer) io.Writer {
	return &cappedWriter{buf: w}
}

type cappedWriter struct {
	buf *bytes.Buffer
}

func (c *cappedWriter) Write(p []byte) (int, error) {
	remaining := maxCapturedOutput - c.buf.Len()
	if remaining <= 0 {
		return len(p), nil
	}
	if len(p) > remaining {
		c.buf.Write(p[:remaining])
		return len(p), nil
	}
	c.buf.Write(p)
	return len(p), nil
}

func (e *Engine) runFileOp(a intent.Action, bounds intent.ContextBounds) (intent.StepResult, error) {
	switch a.FileOp {
	case intent.FileOpCreate:
		f, err := os.OpenFile(a.Path, os.O_CREATE|os.O_EXCL, 0644)
		if err != nil {
			return intent.StepResult{Kind: intent.ResultErr, Reason: err.Error()}, nil
		}
		f.Close()
	case intent.FileOpWrite:
		if err := os.WriteFile(a.Path, nil, 0644); err != nil {
			return intent.StepResult{Kind: intent.ResultErr, Reason: err.Error()}, nil
		}
	case intent.FileOpDelete:
		if err := os.Remove(a.Path); err != nil {
			return intent.StepResult{Kind: intent.ResultErr, Reason: err.Error()}, nil
		}
	case intent.FileOpChmod:
		if err := os.Chmod(a.Path, 0644); err != nil {
			return intent.StepResult{Kind: intent.ResultErr, Reason: err.Error()}, nil
		}
	default:
		return intent.StepResult{Kind: intent.ResultErr, Reason: "unknown file op"}, nil
	}
	return intent.StepResult{Kind: intent.ResultOK, Evidence: string(a.FileOp) + " " + a.Path}, nil
}

func (e *Engine) runFunctionCall(ctx context.Context, a intent.Action) (intent.StepResult, error) {
	if e.Functions == nil {
		return intent.StepResult{Kind: intent.ResultErr, Reason: "no function registry configured"}, nil
	}
	out, err := e.Functions.Call(ctx, a.FunctionName, a.FunctionArgs)
	if err != nil {
		return intent.StepResult{Kind: intent.ResultErr, Reason: err.Error()}, nil
	}
	return intent.StepResult{Kind: intent.ResultOK, Evidence: out}, nil
}

func (e *Engine) runSubIntent(ctx context.Context, a intent.Action) (intent.StepResult, error) {
	if e.SubIntents == nil {
		return intent.StepResult{Kind: intent.ResultErr, Reason: "no sub-intent runner configured"}, nil
	}
	ok, err := e.SubIntents.RunSubIntent(ctx, a.SubIntentID)
	if err != nil {
		return intent.StepResult{Kind: intent.ResultErr, Reason: err.Error()}, nil
	}
	if !ok {
		return intent.StepResult{Kind: intent.ResultErr, Reason: "sub-intent did not succeed"}, nil
	}
	return intent.StepResult{Kind: intent.ResultOK, Evidence: "sub-intent succeeded"}, nil
}
