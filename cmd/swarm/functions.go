package main

import (
	"context"
	"fmt"
	"time"

	"github.com/latticeforge/swarm/internal/swarmerr"
)

// builtinFunctions is the default execengine.FunctionRegistry a `swarm
// run` invocation wires in: a small set of host-side functions a
// Swarmfile's FUNCTION steps can call without any external service.
// Anything beyond these (calling out to an LLM, an MCP tool server)
// needs its own registry; this one only serves what the runtime itself
// can compute.
type builtinFunctions struct{}

// Call implements execengine.FunctionRegistry.
func (builtinFunctions) Call(ctx context.Context, name string, args map[string]any) (string, error) {
	switch name {
	case "noop":
		return "", nil
	case "echo":
		msg, _ := args["message"].(string)
		return msg, nil
	case "timestamp":
		return time.Now().UTC().Format(time.RFC3339), nil
	case "summarize":
		// No real summarization happens: this echoes the "input"
		// argument behind a "summary: " prefix, a deterministic
		// result a Swarmfile author can rely on in tests.
		return "summary: " + fmt.Sprint(args["input"]), nil
	default:
		return "", swarmerr.New(swarmerr.KindInput, name, "unknown function")
	}
}
