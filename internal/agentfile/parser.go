package agentfile

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/latticeforge/swarm/internal/intent"
)

// Parser parses Swarmfile tokens into an AST.
type Parser struct {
	l         *Lexer
	curToken  Token
	peekToken Token
}

// NewParser creates a new parser for the given lexer.
func NewParser(l *Lexer) *Parser {
	p := &Parser{l: l}
	p.nextToken()
	p.nextToken()
	return p
}

// nextToken advances to the next token.
func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

// Parse parses the input and returns the file AST.
func (p *Parser) Parse() (*File, error) {
	f := &File{}
	curStep := -1

	for p.curToken.Type != TokenEOF {
		switch p.curToken.Type {
		case TokenNewline:
			p.nextToken()
		case TokenINTENT:
			if err := p.parseIntent(f); err != nil {
				return nil, err
			}
		case TokenPRIORITY:
			if err := p.parsePriority(f); err != nil {
				return nil, err
			}
		case TokenBOUNDS:
			if err := p.parseBounds(f); err != nil {
				return nil, err
			}
		case TokenPRECONDITION:
			cond, err := p.parseCondition()
			if err != nil {
				return nil, err
			}
			if curStep >= 0 {
				f.Steps[curStep].Preconditions = append(f.Steps[curStep].Preconditions, cond)
			} else {
				f.Preconditions = append(f.Preconditions, cond)
			}
		case TokenPOSTCONDITION:
			cond, err := p.parseCondition()
			if err != nil {
				return nil, err
			}
			if curStep >= 0 {
				f.Steps[curStep].Postconditions = append(f.Steps[curStep].Postconditions, cond)
			} else {
				f.Postconditions = append(f.Postconditions, cond)
			}
		case TokenSTEP:
			step, err := p.parseStepHeader()
			if err != nil {
				return nil, err
			}
			f.Steps = append(f.Steps, step)
			curStep = len(f.Steps) - 1
		case TokenDEPENDS:
			if curStep < 0 {
				return nil, p.errorf("DEPENDS ON outside of a STEP block")
			}
			deps, err := p.parseDepends()
			if err != nil {
				return nil, err
			}
			f.Steps[curStep].DependsOn = deps
		case TokenCOMMAND, TokenFILE_OP, TokenFUNCTION, TokenSUBINTENT:
			if curStep < 0 {
				return nil, p.errorf("step action outside of a STEP block")
			}
			action, err := p.parseAction()
			if err != nil {
				return nil, err
			}
			f.Steps[curStep].Action = action
		default:
			return nil, p.errorf("unexpected token %s", p.curToken.Type)
		}
	}

	if f.Goal == "" {
		return nil, fmt.Errorf("Swarmfile requires an INTENT statement")
	}
	if len(f.Steps) == 0 {
		return nil, fmt.Errorf("Swarmfile requires at least one STEP")
	}

	return f, nil
}

func (p *Parser) parseIntent(f *File) error {
	p.nextToken() // consume INTENT
	if p.curToken.Type != TokenString {
		return p.errorf("INTENT requires a quoted description, got %s", p.curToken.Type)
	}
	f.Goal = p.curToken.Literal
	p.nextToken()
	return p.skipNewline()
}

func (p *Parser) parsePriority(f *File) error {
	p.nextToken() // consume PRIORITY
	if !p.isIdentifier() {
		return p.errorf("PRIORITY requires an identifier, got %s", p.curToken.Type)
	}
	f.Priority = p.curToken.Literal
	p.nextToken()
	return p.skipNewline()
}

func (p *Parser) parseBounds(f *File) error {
	p.nextToken() // consume BOUNDS
	switch p.curToken.Type {
	case TokenALLOW:
		p.nextToken() // consume ALLOW
		switch p.curToken.Type {
		case TokenPATH:
			p.nextToken() // consume PATH
			if p.curToken.Type != TokenPathLit {
				return p.errorf("BOUNDS ALLOW PATH requires a path, got %s", p.curToken.Type)
			}
			f.Bounds.AllowedPaths = append(f.Bounds.AllowedPaths, p.curToken.Literal)
			p.nextToken()
		case TokenCOMMAND:
			p.nextToken() // consume COMMAND
			idents, err := p.parseIdentList()
			if err != nil {
				return err
			}
			f.Bounds.AllowedCommands = append(f.Bounds.AllowedCommands, idents...)
		default:
			return p.errorf("BOUNDS ALLOW requires PATH or COMMAND, got %s", p.curToken.Type)
		}
	case TokenDENY:
		p.nextToken() // consume DENY
		switch p.curToken.Type {
		case TokenPATH:
			p.nextToken() // consume PATH
			if p.curToken.Type != TokenPathLit {
				return p.errorf("BOUNDS DENY PATH requires a path, got %s", p.curToken.Type)
			}
			f.Bounds.DeniedPaths = append(f.Bounds.DeniedPaths, p.curToken.Literal)
			p.nextToken()
		case TokenCOMMAND:
			p.nextToken() // consume COMMAND
			idents, err := p.parseIdentList()
			if err != nil {
				return err
			}
			f.Bounds.DeniedCommands = append(f.Bounds.DeniedCommands, idents...)
		default:
			return p.errorf("BOUNDS DENY requires PATH or COMMAND, got %s", p.curToken.Type)
		}
	case TokenMAX:
		p.nextToken() // consume MAX
		limitTok := p.curToken.Type
		p.nextToken() // consume MEMORY/CPU/WALL/DEPTH
		if p.curToken.Type != TokenNumber {
			return p.errorf("BOUNDS MAX requires a number, got %s", p.curToken.Type)
		}
		n, err := strconv.ParseUint(p.curToken.Literal, 10, 64)
		if err != nil {
			return p.errorf("invalid number %q", p.curToken.Literal)
		}
		switch limitTok {
		case TokenMEMORY:
			f.Bounds.MaxMemoryBytes = n
		case TokenCPU:
			f.Bounds.MaxCPUSecs = n
		case TokenWALL:
			f.Bounds.MaxWallSecs = n
		case TokenDEPTH:
			f.Bounds.MaxDelegationDepth = int(n)
		default:
			return p.errorf("BOUNDS MAX requires MEMORY, CPU, WALL, or DEPTH, got %s", limitTok)
		}
		p.nextToken()
	case TokenNETWORK:
		p.nextToken() // consume NETWORK
		switch p.curToken.Type {
		case TokenNONE:
			f.Bounds.NetworkNone = true
			p.nextToken()
		case TokenALLOW:
			p.nextToken() // consume ALLOW
			idents, err := p.parseIdentList()
			if err != nil {
				return err
			}
			f.Bounds.NetworkAllowlist = append(f.Bounds.NetworkAllowlist, idents...)
		default:
			return p.errorf("BOUNDS NETWORK requires NONE or ALLOW, got %s", p.curToken.Type)
		}
	default:
		return p.errorf("unexpected BOUNDS clause %s", p.curToken.Type)
	}
	return p.skipNewline()
}

func (p *Parser) parseCondition() (ConditionSpec, error) {
	line := p.curToken.Line
	p.nextToken() // consume PRECONDITION/POSTCONDITION
	kindTok := p.curToken.Type
	kind, ok := conditionKinds[kindTok]
	if !ok {
		return ConditionSpec{}, p.errorf("expected a condition kind, got %s", kindTok)
	}
	p.nextToken() // consume the condition-kind keyword
	cond := ConditionSpec{Kind: kind, Line: line}

	switch kindTok {
	case TokenFILE_EXISTS:
		if p.curToken.Type != TokenPathLit {
			return ConditionSpec{}, p.errorf("FILE_EXISTS requires a path, got %s", p.curToken.Type)
		}
		cond.Path = p.curToken.Literal
		p.nextToken()
	case TokenEXIT_CODE:
		if p.curToken.Type != TokenNumber {
			return ConditionSpec{}, p.errorf("EXIT_CODE requires a number, got %s", p.curToken.Type)
		}
		n, err := strconv.Atoi(p.curToken.Literal)
		if err != nil {
			return ConditionSpec{}, p.errorf("invalid exit code %q", p.curToken.Literal)
		}
		cond.ExpectedCode = n
		p.nextToken()
	case TokenENV_EQUALS:
		if !p.isIdentifier() {
			return ConditionSpec{}, p.errorf("ENV_EQUALS requires an identifier key, got %s", p.curToken.Type)
		}
		cond.EnvKey = p.curToken.Literal
		p.nextToken()
		if p.curToken.Type != TokenString {
			return ConditionSpec{}, p.errorf("ENV_EQUALS requires a quoted value, got %s", p.curToken.Type)
		}
		cond.EnvValue = p.curToken.Literal
		p.nextToken()
	case TokenFREE_MEMORY_MIN:
		if p.curToken.Type != TokenNumber {
			return ConditionSpec{}, p.errorf("FREE_MEMORY_MIN requires a number, got %s", p.curToken.Type)
		}
		n, err := strconv.ParseUint(p.curToken.Literal, 10, 64)
		if err != nil {
			return ConditionSpec{}, p.errorf("invalid byte count %q", p.curToken.Literal)
		}
		cond.MinFreeBytes = n
		p.nextToken()
	case TokenSTDOUT_MATCH:
		if p.curToken.Type != TokenString {
			return ConditionSpec{}, p.errorf("STDOUT_MATCH requires a quoted pattern, got %s", p.curToken.Type)
		}
		cond.MatchPattern = p.curToken.Literal
		p.nextToken()
	case TokenCUSTOM_TAG:
		if p.curToken.Type != TokenString {
			return ConditionSpec{}, p.errorf("CUSTOM_TAG requires a quoted tag, got %s", p.curToken.Type)
		}
		cond.Tag = p.curToken.Literal
		p.nextToken()
	}

	if err := p.skipNewline(); err != nil {
		return ConditionSpec{}, err
	}
	return cond, nil
}

func (p *Parser) parseStepHeader() (StepSpec, error) {
	line := p.curToken.Line
	p.nextToken() // consume STEP
	if !p.isIdentifier() {
		return StepSpec{}, p.errorf("STEP requires a name, got %s", p.curToken.Type)
	}
	step := StepSpec{Name: p.curToken.Literal, Line: line}
	p.nextToken()
	if err := p.skipNewline(); err != nil {
		return StepSpec{}, err
	}
	return step, nil
}

func (p *Parser) parseDepends() ([]string, error) {
	p.nextToken() // consume DEPENDS
	if p.curToken.Type != TokenON {
		return nil, p.errorf("DEPENDS requires ON, got %s", p.curToken.Type)
	}
	p.nextToken() // consume ON
	deps, err := p.parseIdentList()
	if err != nil {
		return nil, err
	}
	if err := p.skipNewline(); err != nil {
		return nil, err
	}
	return deps, nil
}

func (p *Parser) parseAction() (ActionSpec, error) {
	switch p.curToken.Type {
	case TokenCOMMAND:
		p.nextToken() // consume COMMAND; lexer now reads a raw line
		if p.curToken.Type != TokenLine {
			return ActionSpec{}, p.errorf("COMMAND requires a command line, got %s", p.curToken.Type)
		}
		argv := strings.Fields(p.curToken.Literal)
		if len(argv) == 0 {
			return ActionSpec{}, p.errorf("COMMAND requires a non-empty command line")
		}
		p.nextToken()
		if err := p.skipNewline(); err != nil {
			return ActionSpec{}, err
		}
		return ActionSpec{Kind: intent.ActionCommand, Argv: argv}, nil

	case TokenFILE_OP:
		p.nextToken() // consume FILE_OP
		opTok := p.curToken.Type
		op, ok := fileOpKinds[opTok]
		if !ok {
			return ActionSpec{}, p.errorf("FILE_OP requires CREATE, WRITE, DELETE, or CHMOD, got %s", opTok)
		}
		p.nextToken() // consume the op keyword; lexer now reads a path
		if p.curToken.Type != TokenPathLit {
			return ActionSpec{}, p.errorf("FILE_OP requires a path, got %s", p.curToken.Type)
		}
		path := p.curToken.Literal
		p.nextToken()
		if err := p.skipNewline(); err != nil {
			return ActionSpec{}, err
		}
		return ActionSpec{Kind: intent.ActionFileOp, FileOp: op, Path: path}, nil

	case TokenFUNCTION:
		p.nextToken() // consume FUNCTION
		if !p.isIdentifier() {
			return ActionSpec{}, p.errorf("FUNCTION requires a name, got %s", p.curToken.Type)
		}
		name := p.curToken.Literal
		p.nextToken()
		if err := p.skipNewline(); err != nil {
			return ActionSpec{}, err
		}
		return ActionSpec{Kind: intent.ActionFunctionCall, FunctionName: name}, nil

	case TokenSUBINTENT:
		p.nextToken() // consume SUBINTENT
		if p.curToken.Type != TokenFROM {
			return ActionSpec{}, p.errorf("SUBINTENT requires FROM, got %s", p.curToken.Type)
		}
		p.nextToken() // consume FROM; lexer now reads a path
		if p.curToken.Type != TokenPathLit {
			return ActionSpec{}, p.errorf("SUBINTENT FROM requires a path, got %s", p.curToken.Type)
		}
		path := p.curToken.Literal
		p.nextToken()
		if err := p.skipNewline(); err != nil {
			return ActionSpec{}, err
		}
		return ActionSpec{Kind: intent.ActionSubIntent, SubIntentPath: path}, nil

	default:
		return ActionSpec{}, p.errorf("unexpected step action %s", p.curToken.Type)
	}
}

// parseIdentList parses a comma-separated list of at least one identifier.
// After COMMAND the lexer delivers the rest of the line as one LINE
// token, which is split on commas here.
func (p *Parser) parseIdentList() ([]string, error) {
	if p.curToken.Type == TokenLine {
		var out []string
		for _, name := range strings.Split(p.curToken.Literal, ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				return nil, p.errorf("expected an identifier in list %q", p.curToken.Literal)
			}
			out = append(out, name)
		}
		p.nextToken()
		return out, nil
	}
	if !p.isIdentifier() {
		return nil, p.errorf("expected an identifier, got %s", p.curToken.Type)
	}
	out := []string{p.curToken.Literal}
	p.nextToken()
	for p.curToken.Type == TokenComma {
		p.nextToken() // consume comma
		if !p.isIdentifier() {
			return nil, p.errorf("expected an identifier after comma, got %s", p.curToken.Type)
		}
		out = append(out, p.curToken.Literal)
		p.nextToken()
	}
	return out, nil
}

func (p *Parser) isIdentifier() bool {
	return p.curToken.Type == TokenIdent
}

func (p *Parser) skipNewline() error {
	if p.curToken.Type == TokenEOF {
		return nil
	}
	if p.curToken.Type != TokenNewline {
		return p.errorf("expected end of line, got %s %q", p.curToken.Type, p.curToken.Literal)
	}
	p.nextToken()
	return nil
}

func (p *Parser) errorf(format string, args ...any) error {
	return fmt.Errorf("line %d: %s", p.curToken.Line, fmt.Sprintf(format, args...))
}
