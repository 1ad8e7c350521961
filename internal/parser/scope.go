package parser

// scope tracks local variables. A barrier scope (program, def, class,
// module body) hides the locals of its parents; block scopes see them.
type scope struct {
	vars    map[string]struct{}
	parent  *scope
	barrier bool
}

func newScope(parent *scope, barrier bool) *scope {
	return &scope{vars: make(map[string]struct{}), parent: parent, barrier: barrier}
}

func (s *scope) declare(name string) {
	s.vars[name] = struct{}{}
}

func (s *scope) isLocal(name string) bool {
	for cur := s; cur != nil; cur = cur.parent {
		if _, ok := cur.vars[name]; ok {
			return true
		}
		if cur.barrier {
			return false
		}
	}
	return false
}

func (p *Parser) pushScope(barrier bool) {
	p.scope = newScope(p.scope, barrier)
}

func (p *Parser) popScope() {
	if p.scope.parent != nil {
		p.scope = p.scope.parent
	}
}
