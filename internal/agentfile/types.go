package agentfile

import "github.com/latticeforge/swarm/internal/intent"

// conditionKinds maps a condition-kind keyword token to the intent.Condition
// variant it introduces.
var conditionKinds = map[TokenType]intent.ConditionKind{
	TokenFILE_EXISTS:     intent.CondFileExists,
	TokenEXIT_CODE:       intent.CondExitCode,
	TokenENV_EQUALS:      intent.CondEnvEquals,
	TokenFREE_MEMORY_MIN: intent.CondFreeMemoryMin,
	TokenSTDOUT_MATCH:    intent.CondStdoutMatch,
	TokenCUSTOM_TAG:      intent.CondCustomTag,
}

// fileOpKinds maps a FILE_OP operator keyword token to the intent.Action
// file-op variant it introduces.
var fileOpKinds = map[TokenType]intent.FileOpKind{
	TokenCREATE: intent.FileOpCreate,
	TokenWRITE:  intent.FileOpWrite,
	TokenDELETE: intent.FileOpDelete,
	TokenCHMOD:  intent.FileOpChmod,
}

// priorities maps a PRIORITY value to the intent.Priority it introduces.
var priorities = map[string]intent.Priority{
	"low":      intent.PriorityLow,
	"normal":   intent.PriorityNormal,
	"high":     intent.PriorityHigh,
	"critical": intent.PriorityCritical,
}

// ParsePriority resolves a Swarmfile PRIORITY value, defaulting to
// intent.PriorityNormal when the Swarmfile has no PRIORITY statement at all.
func ParsePriority(s string) (intent.Priority, bool) {
	if s == "" {
		return intent.PriorityNormal, true
	}
	p, ok := priorities[s]
	return p, ok
}
