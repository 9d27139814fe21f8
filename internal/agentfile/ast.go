package agentfile

import "github.com/latticeforge/swarm/internal/intent"

// File is the root AST node produced by Parse: one Swarmfile, not yet
// resolved into an intent.Intent (step names haven't been turned into
// uuid.UUIDs and SUBINTENT FROM paths haven't been loaded).
type File struct {
	Goal           string
	Priority       string
	Bounds         BoundsSpec
	Preconditions  []ConditionSpec
	Postconditions []ConditionSpec
	Steps          []StepSpec
}

// BoundsSpec is the unresolved form of intent.ContextBounds.
type BoundsSpec struct {
	AllowedPaths       []string
	DeniedPaths        []string
	AllowedCommands    []string
	DeniedCommands     []string
	MaxMemoryBytes     uint64
	MaxCPUSecs         uint64
	MaxWallSecs        uint64
	MaxDelegationDepth int
	NetworkNone        bool
	NetworkAllowlist   []string
}

func (b BoundsSpec) compile() intent.ContextBounds {
	return intent.ContextBounds{
		AllowedPaths:       b.AllowedPaths,
		DeniedPaths:        b.DeniedPaths,
		AllowedCommands:    b.AllowedCommands,
		DeniedCommands:     b.DeniedCommands,
		MaxMemoryBytes:     b.MaxMemoryBytes,
		MaxCPUSecs:         b.MaxCPUSecs,
		MaxWallSecs:        b.MaxWallSecs,
		NetworkNone:        b.NetworkNone,
		NetworkAllowlist:   b.NetworkAllowlist,
		MaxDelegationDepth: b.MaxDelegationDepth,
	}
}

// ConditionSpec is the unresolved form of intent.Condition. Line is kept
// for error messages during loading; it carries no other extra state over
// the compiled form.
type ConditionSpec struct {
	Kind         intent.ConditionKind
	Path         string
	ExpectedCode int
	EnvKey       string
	EnvValue     string
	MinFreeBytes uint64
	MatchPattern string
	Tag          string
	Line         int
}

func (c ConditionSpec) compile() intent.Condition {
	return intent.Condition{
		Kind:         c.Kind,
		Path:         c.Path,
		ExpectedCode: c.ExpectedCode,
		EnvKey:       c.EnvKey,
		EnvValue:     c.EnvValue,
		MinFreeBytes: c.MinFreeBytes,
		MatchPattern: c.MatchPattern,
		Tag:          c.Tag,
	}
}

// ActionSpec is the unresolved form of intent.Action. SubIntentPath names a
// sibling Swarmfile to be loaded recursively; the loader replaces it with a
// resolved intent.Action carrying the child intent's uuid.UUID.
type ActionSpec struct {
	Kind          intent.ActionKind
	Argv          []string
	FileOp        intent.FileOpKind
	Path          string
	FunctionName  string
	SubIntentPath string
}

// StepSpec is the unresolved form of intent.Step. DependsOn holds the
// textual names of earlier STEP blocks; the loader resolves them to
// uuid.UUIDs once every step in the file has been assigned one.
type StepSpec struct {
	Name           string
	DependsOn      []string
	Action         ActionSpec
	Preconditions  []ConditionSpec
	Postconditions []ConditionSpec
	Line           int
}
