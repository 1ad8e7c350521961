package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Лексические
	LexInfo                      Code = 1000
	LexUnknownChar               Code = 1001
	LexUnterminatedString        Code = 1002
	LexUnterminatedInterpolation Code = 1003
	LexBadNumber                 Code = 1004
	LexBadEscape                 Code = 1005
	LexTokenTooLong              Code = 1006

	// Парсерные
	SynInfo             Code = 2000
	SynUnexpectedToken  Code = 2001
	SynExpectExpression Code = 2002
	SynExpectEnd        Code = 2003
	SynUnclosedParen    Code = 2004
	SynUnclosedBracket  Code = 2005
	SynUnclosedBrace    Code = 2006
	SynExpectIdentifier Code = 2007
	SynBadAssignTarget  Code = 2008
	SynTooManyErrors    Code = 2009
	SynBadInterpolation Code = 2010
	SynExpectNewline    Code = 2011

	// Правила (cops)
	CopInfo         Code = 4000
	CopSecurityOpen Code = 4001

	// IO
	IOLoadFileError Code = 5001
	IOWriteError    Code = 5002
	IOCacheError    Code = 5003

	// Конфигурация
	CfgParseError Code = 6001
	CfgUnknownCop Code = 6002
	CfgUnknownKey Code = 6003
	CfgBadValue   Code = 6004
)

var (
	codeDescription = map[Code]string{
		UnknownCode:                  "Unknown error",
		LexInfo:                      "Lexical information",
		LexUnknownChar:               "Unknown character",
		LexUnterminatedString:        "Unterminated string literal",
		LexUnterminatedInterpolation: "Unterminated string interpolation",
		LexBadNumber:                 "Invalid number literal",
		LexBadEscape:                 "Invalid escape sequence",
		LexTokenTooLong:              "Token too long",
		SynInfo:                      "Syntax information",
		SynUnexpectedToken:           "Unexpected token",
		SynExpectExpression:          "Expected expression",
		SynExpectEnd:                 "Missing 'end'",
		SynUnclosedParen:             "Unclosed parenthesis",
		SynUnclosedBracket:           "Unclosed bracket",
		SynUnclosedBrace:             "Unclosed brace",
		SynExpectIdentifier:          "Expected identifier",
		SynBadAssignTarget:           "Invalid assignment target",
		SynTooManyErrors:             "Too many syntax errors",
		SynBadInterpolation:          "Invalid string interpolation",
		SynExpectNewline:             "Expected end of statement",
		CopInfo:                      "Rule information",
		CopSecurityOpen:              "Security/Open",
		IOLoadFileError:              "I/O load file error",
		IOWriteError:                 "I/O write error",
		IOCacheError:                 "Cache error",
		CfgParseError:                "Configuration parse error",
		CfgUnknownCop:                "Unknown cop in configuration",
		CfgUnknownKey:                "Unknown configuration key",
		CfgBadValue:                  "Invalid configuration value",
	}
)

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("LEX%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("SYN%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("COP%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("CFG%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
