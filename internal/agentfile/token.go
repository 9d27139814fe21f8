// Package agentfile provides lexer, parser, and AST for the Swarmfile DSL:
// a declarative source format that compiles to an intent.Intent (spec §4.2)
// instead of being interpreted directly. A Swarmfile declares one intent's
// goal, priority, context bounds, and steps; STEP actions, pre/postconditions,
// and dependency edges map one-to-one onto intent.Action/Condition/Step.
package agentfile

// TokenType represents the type of a token.
type TokenType int

const (
	// Special tokens
	TokenEOF TokenType = iota
	TokenIllegal
	TokenNewline

	// Keywords
	TokenINTENT
	TokenPRIORITY
	TokenBOUNDS
	TokenALLOW
	TokenDENY
	TokenPATH
	TokenCOMMAND
	TokenMAX
	TokenMEMORY
	TokenCPU
	TokenWALL
	TokenDEPTH
	TokenNETWORK
	TokenNONE
	TokenSTEP
	TokenDEPENDS
	TokenON
	TokenPRECONDITION
	TokenPOSTCONDITION
	TokenFILE_OP
	TokenCREATE
	TokenWRITE
	TokenDELETE
	TokenCHMOD
	TokenFUNCTION
	TokenSUBINTENT
	TokenFROM
	TokenFILE_EXISTS
	TokenEXIT_CODE
	TokenENV_EQUALS
	TokenFREE_MEMORY_MIN
	TokenSTDOUT_MATCH
	TokenCUSTOM_TAG

	// Literals
	TokenIdent  // identifier
	TokenString // "quoted string"
	TokenNumber // 123
	TokenPathLit
	TokenLine // raw, space-preserving rest-of-line (COMMAND argv)

	// Punctuation
	TokenComma // ,
)

var tokenNames = map[TokenType]string{
	TokenEOF:             "EOF",
	TokenIllegal:         "ILLEGAL",
	TokenNewline:         "NEWLINE",
	TokenINTENT:          "INTENT",
	TokenPRIORITY:        "PRIORITY",
	TokenBOUNDS:          "BOUNDS",
	TokenALLOW:           "ALLOW",
	TokenDENY:            "DENY",
	TokenPATH:            "PATH",
	TokenCOMMAND:         "COMMAND",
	TokenMAX:             "MAX",
	TokenMEMORY:          "MEMORY",
	TokenCPU:             "CPU",
	TokenWALL:            "WALL",
	TokenDEPTH:           "DEPTH",
	TokenNETWORK:         "NETWORK",
	TokenNONE:            "NONE",
	TokenSTEP:            "STEP",
	TokenDEPENDS:         "DEPENDS",
	TokenON:              "ON",
	TokenPRECONDITION:    "PRECONDITION",
	TokenPOSTCONDITION:   "POSTCONDITION",
	TokenFILE_OP:         "FILE_OP",
	TokenCREATE:          "CREATE",
	TokenWRITE:           "WRITE",
	TokenDELETE:          "DELETE",
	TokenCHMOD:           "CHMOD",
	TokenFUNCTION:        "FUNCTION",
	TokenSUBINTENT:       "SUBINTENT",
	TokenFROM:            "FROM",
	TokenFILE_EXISTS:     "FILE_EXISTS",
	TokenEXIT_CODE:       "EXIT_CODE",
	TokenENV_EQUALS:      "ENV_EQUALS",
	TokenFREE_MEMORY_MIN: "FREE_MEMORY_MIN",
	TokenSTDOUT_MATCH:    "STDOUT_MATCH",
	TokenCUSTOM_TAG:      "CUSTOM_TAG",
	TokenIdent:           "IDENT",
	TokenString:          "STRING",
	TokenNumber:          "NUMBER",
	TokenPathLit:         "PATH_LITERAL",
	TokenLine:            "LINE",
	TokenComma:           "COMMA",
}

// String returns the string representation of the token type.
func (t TokenType) String() string {
	if s, ok := tokenNames[t]; ok {
		return s
	}
	return "UNKNOWN"
}

// Token represents a single token from the lexer.
type Token struct {
	Type    TokenType
	Literal string
	Line    int
	Column  int
}

// keywords maps keyword strings to their token types.
var keywords = map[string]TokenType{
	"INTENT":           TokenINTENT,
	"PRIORITY":         TokenPRIORITY,
	"BOUNDS":           TokenBOUNDS,
	"ALLOW":            TokenALLOW,
	"DENY":             TokenDENY,
	"PATH":             TokenPATH,
	"COMMAND":          TokenCOMMAND,
	"MAX":              TokenMAX,
	"MEMORY":           TokenMEMORY,
	"CPU":              TokenCPU,
	"WALL":             TokenWALL,
	"DEPTH":            TokenDEPTH,
	"NETWORK":          TokenNETWORK,
	"NONE":             TokenNONE,
	"STEP":             TokenSTEP,
	"DEPENDS":          TokenDEPENDS,
	"ON":               TokenON,
	"PRECONDITION":     TokenPRECONDITION,
	"POSTCONDITION":    TokenPOSTCONDITION,
	"FILE_OP":          TokenFILE_OP,
	"CREATE":           TokenCREATE,
	"WRITE":            TokenWRITE,
	"DELETE":           TokenDELETE,
	"CHMOD":            TokenCHMOD,
	"FUNCTION":         TokenFUNCTION,
	"SUBINTENT":        TokenSUBINTENT,
	"FROM":             TokenFROM,
	"FILE_EXISTS":      TokenFILE_EXISTS,
	"EXIT_CODE":        TokenEXIT_CODE,
	"ENV_EQUALS":       TokenENV_EQUALS,
	"FREE_MEMORY_MIN":  TokenFREE_MEMORY_MIN,
	"STDOUT_MATCH":     TokenSTDOUT_MATCH,
	"CUSTOM_TAG":       TokenCUSTOM_TAG,
}

// LookupIdent checks if an identifier is a keyword.
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return TokenIdent
}

// pathArgument and lineArgument mark which keywords are immediately
// followed by a path literal or a raw rest-of-line argument, so the
// lexer knows to switch reading modes after emitting them.
var pathArgument = map[TokenType]bool{
	TokenPATH:        true,
	TokenFILE_EXISTS: true,
	TokenFROM:        true,
	TokenCREATE:      true,
	TokenWRITE:       true,
	TokenDELETE:      true,
	TokenCHMOD:       true,
}

var lineArgument = map[TokenType]bool{
	TokenCOMMAND: true,
}
