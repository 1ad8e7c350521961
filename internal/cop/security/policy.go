package security

// Policy holds the options that decide which shapes are offenses.
type Policy struct {
	DisallowAll            bool
	AllowSafeConcatenation bool
}

// Offends reports whether shape is an offense under p.
//
//	shape                   default  DisallowAll
//	NoArgument              -        -
//	DynamicArgument         x        x
//	PipePrefixedLiteral     x        x
//	SafeLiteral             -        x
//	PrefixedInterpolated    -        x
//	UnprefixedInterpolated  x        x
//	EmptyLiteral            x        x
func (p Policy) Offends(shape Shape) bool {
	switch shape {
	case NoArgument:
		return false
	case SafeLiteral, PrefixedInterpolated:
		return p.DisallowAll
	}
	return true
}
