package agentfile

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/latticeforge/swarm/internal/intent"
)

// maxSubIntentDepth bounds SUBINTENT FROM recursion independent of any
// BOUNDS MAX DEPTH a Swarmfile declares for itself, so a misconfigured
// delegation chain with no depth bound still terminates.
const maxSubIntentDepth = 16

// Loaded is the result of loading a Swarmfile tree: the root intent, plus
// every sub-intent reachable from it via SUBINTENT FROM, keyed by ID so a
// caller can register them all with an execengine.SubIntentRunner.
type Loaded struct {
	Root     *intent.Intent
	Registry map[uuid.UUID]*intent.Intent
}

// ParseString parses raw Swarmfile source into a File AST without touching
// the filesystem or compiling anything to an intent.Intent.
func ParseString(input string) (*File, error) {
	p := NewParser(NewLexer(input))
	return p.Parse()
}

// LoadFile parses the Swarmfile at path and compiles it, and every
// SUBINTENT FROM it references (recursively), into an intent.Intent tree.
// Every returned intent has already passed Declare; the caller still owns
// Activate and execution.
func LoadFile(path string) (*Loaded, error) {
	reg := make(map[uuid.UUID]*intent.Intent)
	root, err := loadFile(path, nil, 0, reg, map[string]bool{})
	if err != nil {
		return nil, err
	}
	return &Loaded{Root: root, Registry: reg}, nil
}

func loadFile(path string, parentBounds *intent.ContextBounds, depth int, reg map[uuid.UUID]*intent.Intent, visiting map[string]bool) (*intent.Intent, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}
	if visiting[abs] {
		return nil, fmt.Errorf("%s: cyclic SUBINTENT FROM reference", path)
	}
	if depth > maxSubIntentDepth {
		return nil, fmt.Errorf("%s: sub-intent nesting exceeds %d levels", path, maxSubIntentDepth)
	}
	visiting[abs] = true
	defer delete(visiting, abs)

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	f, err := ParseString(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	priority, ok := ParsePriority(f.Priority)
	if !ok {
		return nil, fmt.Errorf("%s: unknown PRIORITY %q", path, f.Priority)
	}

	in := intent.New(f.Goal, priority, f.Bounds.compile())
	in.Depth = depth
	for _, c := range f.Preconditions {
		in.Preconditions = append(in.Preconditions, c.compile())
	}
	for _, c := range f.Postconditions {
		in.Postconditions = append(in.Postconditions, c.compile())
	}

	byName := make(map[string]uuid.UUID, len(f.Steps))
	steps := make([]*intent.Step, len(f.Steps))
	for i, spec := range f.Steps {
		if _, dup := byName[spec.Name]; dup {
			return nil, fmt.Errorf("%s: duplicate step name %q", path, spec.Name)
		}
		id := uuid.New()
		byName[spec.Name] = id
		steps[i] = &intent.Step{ID: id, Name: spec.Name}
	}

	baseDir := filepath.Dir(abs)
	for i, spec := range f.Steps {
		step := steps[i]
		for _, pre := range spec.Preconditions {
			step.Preconditions = append(step.Preconditions, pre.compile())
		}
		for _, post := range spec.Postconditions {
			step.Postconditions = append(step.Postconditions, post.compile())
		}
		for _, depName := range spec.DependsOn {
			depID, ok := byName[depName]
			if !ok {
				return nil, fmt.Errorf("%s: step %q depends on unknown step %q", path, spec.Name, depName)
			}
			step.DependsOn = append(step.DependsOn, depID)
		}

		action, err := resolveAction(spec.Action, baseDir, &in.Bounds, depth, reg, visiting)
		if err != nil {
			return nil, fmt.Errorf("%s: step %q: %w", path, spec.Name, err)
		}
		step.Action = action
	}
	in.Steps = steps

	if err := in.Declare(parentBounds); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	reg[in.ID] = in
	return in, nil
}

// resolveAction compiles an ActionSpec into an intent.Action, recursively
// loading the referenced file for a SUBINTENT action.
func resolveAction(spec ActionSpec, baseDir string, parentBounds *intent.ContextBounds, depth int, reg map[uuid.UUID]*intent.Intent, visiting map[string]bool) (intent.Action, error) {
	if spec.Kind != intent.ActionSubIntent {
		return intent.Action{
			Kind:         spec.Kind,
			Argv:         spec.Argv,
			FileOp:       spec.FileOp,
			Path:         spec.Path,
			FunctionName: spec.FunctionName,
		}, nil
	}

	childPath := spec.SubIntentPath
	if !filepath.IsAbs(childPath) {
		childPath = filepath.Join(baseDir, childPath)
	}
	child, err := loadFile(childPath, parentBounds, depth+1, reg, visiting)
	if err != nil {
		return intent.Action{}, err
	}
	return intent.Action{Kind: intent.ActionSubIntent, SubIntentID: child.ID}, nil
}
