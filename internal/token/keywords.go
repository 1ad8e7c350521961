package token

var keywords = map[string]Kind{
	"def":    KwDef,
	"class":  KwClass,
	"module": KwModule,
	"end":    KwEnd,
	"if":     KwIf,
	"elsif":  KwElsif,
	"else":   KwElse,
	"unless": KwUnless,
	"while":  KwWhile,
	"until":  KwUntil,
	"do":     KwDo,
	"return": KwReturn,
	"nil":    KwNil,
	"true":   KwTrue,
	"false":  KwFalse,
	"self":   KwSelf,
	"and":    KwAnd,
	"or":     KwOr,
	"not":    KwNot,
	"then":   KwThen,
	"begin":  KwBegin,
	"rescue": KwRescue,
	"ensure": KwEnsure,
	"yield":  KwYield,
	"case":   KwCase,
	"when":   KwWhen,
	"for":    KwFor,
	"in":     KwIn,
	"break":  KwBreak,
	"next":   KwNext,
	"retry":  KwRetry,
	"redo":   KwRedo,
	"alias":  KwAlias,
	"undef":  KwUndef,
}

// LookupKeyword returns the keyword kind for ident.
func LookupKeyword(ident string) (Kind, bool) {
	k, ok := keywords[ident]
	return k, ok
}
