package parser

import (
	"rbsec/internal/token"
)

// Таблица приоритетов для бинарных операторов
// Чем больше число, тем выше приоритет
const (
	precAssignment     = 1  // = += -= *= /= ||= &&=
	precTernary        = 2  // ?:
	precRange          = 3  // .. ...
	precLogicalOr      = 4  // ||
	precLogicalAnd     = 5  // &&
	precEquality       = 6  // <=> == != =~ !~
	precComparison     = 7  // < <= > >=
	precBitwiseOr      = 8  // | ^
	precBitwiseAnd     = 9  // &
	precShift          = 10 // << >>
	precAdditive       = 11 // + -
	precMultiplicative = 12 // * / %
	precUnaryMinus     = 13 // -x
	precPow            = 14 // **
)

// getBinaryOperatorPrec возвращает приоритет и ассоциативность оператора
// Возвращает (приоритет, правоассоциативный)
func (p *Parser) getBinaryOperatorPrec(kind token.Kind) (int, bool) {
	switch kind {
	case token.DotDot, token.DotDotDot:
		return precRange, false
	case token.OrOr:
		return precLogicalOr, false
	case token.AndAnd:
		return precLogicalAnd, false
	case token.Cmp, token.EqEq, token.BangEq, token.Match, token.NotMatch:
		return precEquality, false
	case token.Lt, token.LtEq, token.Gt, token.GtEq:
		return precComparison, false
	case token.Pipe, token.Caret:
		return precBitwiseOr, false
	case token.Amp:
		return precBitwiseAnd, false
	case token.Shl, token.Shr:
		return precShift, false
	case token.Plus, token.Minus:
		return precAdditive, false
	case token.Star, token.Slash, token.Percent:
		return precMultiplicative, false
	case token.Pow:
		return precPow, true
	default:
		return -1, false // не бинарный оператор
	}
}

// assignOpText maps an assignment token to the operator kept on the node.
func assignOpText(kind token.Kind) string {
	switch kind {
	case token.PlusAssign:
		return "+="
	case token.MinusAssign:
		return "-="
	case token.StarAssign:
		return "*="
	case token.SlashAssign:
		return "/="
	case token.OrAssign:
		return "||="
	case token.AndAssign:
		return "&&="
	default:
		return "="
	}
}
