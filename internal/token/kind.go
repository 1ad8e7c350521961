package token

// Kind represents the category of a source token.
type Kind uint8

const (
	Invalid Kind = iota
	EOF

	Ident   // open, foo_bar, valid?
	Const   // Kernel, File
	IVar    // @x
	GVar    // $x
	Int     // 42
	Float   // 4.2
	String  // "...", '...', %q(...), %Q(...)
	Symbol  // :name, :"name"
	Label   // name: inside hashes and keyword arguments
	Regexp  // /.../
	XString // `...`, %x(...)
	Heredoc // <<~EOS opener; Body holds the heredoc body
	Words   // %w[...], %i[...]

	// keywords
	KwDef
	KwClass
	KwModule
	KwEnd
	KwIf
	KwElsif
	KwElse
	KwUnless
	KwWhile
	KwUntil
	KwDo
	KwReturn
	KwNil
	KwTrue
	KwFalse
	KwSelf
	KwAnd
	KwOr
	KwNot
	KwThen
	KwBegin
	KwRescue
	KwEnsure
	KwYield
	KwCase
	KwWhen
	KwFor
	KwIn
	KwBreak
	KwNext
	KwRetry
	KwRedo
	KwAlias
	KwUndef

	// punctuation and operators
	LParen
	RParen
	LBracket
	RBracket
	LBrace
	RBrace
	Comma
	Dot
	ColonColon
	Assign
	EqEq
	BangEq
	Plus
	Minus
	Star
	Slash
	Percent
	Lt
	Gt
	LtEq
	GtEq
	AndAnd
	OrOr
	Bang
	FatArrow
	Amp
	Pipe
	PlusAssign
	MinusAssign
	StarAssign
	SlashAssign
	OrAssign
	AndAssign
	Colon
	Question
	Match
	NotMatch
	Cmp
	DotDot
	DotDotDot
	Pow
	Shl
	Shr
	Caret
	Tilde
	Arrow
	SafeNav

	Newline
	Semicolon
)

var kindNames = [...]string{
	Invalid: "Invalid", EOF: "EOF",
	Ident: "Ident", Const: "Const", IVar: "IVar", GVar: "GVar",
	Int: "Int", Float: "Float", String: "String", Symbol: "Symbol",
	Label: "Label", Regexp: "Regexp", XString: "XString", Heredoc: "Heredoc", Words: "Words",
	KwDef: "def", KwClass: "class", KwModule: "module", KwEnd: "end",
	KwIf: "if", KwElsif: "elsif", KwElse: "else", KwUnless: "unless",
	KwWhile: "while", KwUntil: "until", KwDo: "do", KwReturn: "return",
	KwNil: "nil", KwTrue: "true", KwFalse: "false", KwSelf: "self",
	KwAnd: "and", KwOr: "or", KwNot: "not", KwThen: "then",
	KwBegin: "begin", KwRescue: "rescue", KwEnsure: "ensure", KwYield: "yield",
	KwCase: "case", KwWhen: "when", KwFor: "for", KwIn: "in", KwBreak: "break",
	KwNext: "next", KwRetry: "retry", KwRedo: "redo", KwAlias: "alias", KwUndef: "undef",
	LParen: "(", RParen: ")", LBracket: "[", RBracket: "]", LBrace: "{", RBrace: "}",
	Comma: ",", Dot: ".", ColonColon: "::", Assign: "=", EqEq: "==", BangEq: "!=",
	Plus: "+", Minus: "-", Star: "*", Slash: "/", Percent: "%",
	Lt: "<", Gt: ">", LtEq: "<=", GtEq: ">=", AndAnd: "&&", OrOr: "||", Bang: "!",
	FatArrow: "=>", Amp: "&", Pipe: "|",
	PlusAssign: "+=", MinusAssign: "-=", StarAssign: "*=", SlashAssign: "/=",
	OrAssign: "||=", AndAssign: "&&=",
	Colon: ":", Question: "?", Match: "=~", NotMatch: "!~", Cmp: "<=>",
	DotDot: "..", DotDotDot: "...", Pow: "**", Shl: "<<", Shr: ">>",
	Caret: "^", Tilde: "~", Arrow: "->", SafeNav: "&.",
	Newline: "Newline", Semicolon: ";",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "Kind(?)"
}
