package selector

// Compiler turns selector text into normalized selectors and answers
// derived queries about them. It holds no grammar state besides its
// memoization cache and is safe for concurrent use; construct one instance
// and pass it to every caller instead of relying on process-wide tables.
type Compiler struct {
	depths *depthCache
}

func NewCompiler() *Compiler {
	return &Compiler{depths: newDepthCache()}
}

// Parse compiles selector text into its normalized branch list. Parsing is
// deterministic: the same text always yields a structurally equal selector.
func (c *Compiler) Parse(text string) (Selector, error) {
	toks, err := tokenize(text)
	if err != nil {
		return Selector{}, err
	}
	p := &parser{toks: toks, text: text}
	sel, err := p.parseUnion()
	if err != nil {
		return Selector{}, err
	}
	if p.pos != len(p.toks) {
		return Selector{}, NewError(KindSyntax, "unexpected %s at offset %d in %q",
			p.toks[p.pos].kind, p.toks[p.pos].pos, text)
	}
	return sel, nil
}

// parser implements a recursive descent over the token stream with the
// operator binding order union < product/zip < concatenation < grouping.
type parser struct {
	toks []token
	pos  int
	text string
}

func (p *parser) peek() (token, bool) {
	if p.pos >= len(p.toks) {
		return token{}, false
	}
	return p.toks[p.pos], true
}

// parseUnion handles ','. Union concatenates branch lists left-then-right
// without deduplication.
func (p *parser) parseUnion() (Selector, error) {
	left, err := p.parseProduct()
	if err != nil {
		return Selector{}, err
	}
	for {
		t, ok := p.peek()
		if !ok || t.kind != tokComma {
			return left, nil
		}
		p.pos++
		right, err := p.parseProduct()
		if err != nil {
			return Selector{}, err
		}
		left.Branches = append(left.Branches, right.Branches...)
	}
}

// parseProduct handles '+' (cross product) and '.+' (zip), left
// associative.
func (p *parser) parseProduct() (Selector, error) {
	left, err := p.parseTerm()
	if err != nil {
		return Selector{}, err
	}
	for {
		t, ok := p.peek()
		if !ok || (t.kind != tokPlus && t.kind != tokDotPlus) {
			return left, nil
		}
		p.pos++
		right, err := p.parseTerm()
		if err != nil {
			return Selector{}, err
		}
		if t.kind == tokPlus {
			left = crossProduct(left, right)
		} else {
			left, err = zip(left, right)
			if err != nil {
				return Selector{}, err
			}
		}
	}
}

// parseTerm handles a parenthesized selector or a single level, followed by
// any number of directly concatenated levels (each appended to every
// branch).
func (p *parser) parseTerm() (Selector, error) {
	t, ok := p.peek()
	if !ok {
		return Selector{}, NewError(KindSyntax, "unexpected end of selector in %q", p.text)
	}

	var sel Selector
	switch {
	case t.kind == tokLParen:
		p.pos++
		inner, err := p.parseUnion()
		if err != nil {
			return Selector{}, err
		}
		closing, ok := p.peek()
		if !ok || closing.kind != tokRParen {
			return Selector{}, NewError(KindSyntax, "missing ')' in %q", p.text)
		}
		p.pos++
		sel = inner
	case t.isLevel():
		p.pos++
		sel = Selector{Branches: []Branch{{levelMatcher(t)}}}
	default:
		return Selector{}, NewError(KindSyntax, "unexpected %s at offset %d in %q", t.kind, t.pos, p.text)
	}

	for {
		t, ok := p.peek()
		if !ok || !t.isLevel() {
			return sel, nil
		}
		p.pos++
		m := levelMatcher(t)
		for i := range sel.Branches {
			sel.Branches[i] = append(sel.Branches[i], m)
		}
	}
}

// crossProduct produces one branch a++b for every branch a of the left
// operand and every branch b of the right operand, in left-outer order.
func crossProduct(left, right Selector) Selector {
	out := Selector{Branches: make([]Branch, 0, len(left.Branches)*len(right.Branches))}
	for _, a := range left.Branches {
		for _, b := range right.Branches {
			br := make(Branch, 0, len(a)+len(b))
			br = append(br, a...)
			br = append(br, b...)
			out.Branches = append(out.Branches, br)
		}
	}
	return out
}

// zip fully resolves both operands into flat lists of concrete branches and
// pairwise-concatenates them by position. Unequal branch counts are a
// structural error, never truncated or padded.
func zip(left, right Selector) (Selector, error) {
	lb, err := concreteBranches(left)
	if err != nil {
		return Selector{}, err
	}
	rb, err := concreteBranches(right)
	if err != nil {
		return Selector{}, err
	}
	if len(lb) != len(rb) {
		return Selector{}, NewError(KindStructural,
			"zip operands expand to %d and %d branches", len(lb), len(rb))
	}
	out := Selector{Branches: make([]Branch, 0, len(lb))}
	for i := range lb {
		br := make(Branch, 0, len(lb[i])+len(rb[i]))
		br = append(br, lb[i]...)
		br = append(br, rb[i]...)
		out.Branches = append(out.Branches, br)
	}
	return out, nil
}

// concreteBranches expands every set and interval matcher of the selector
// into one branch per literal element via per-branch cartesian product.
func concreteBranches(sel Selector) ([]Branch, error) {
	var out []Branch
	for _, br := range sel.Branches {
		lists := make([][]Label, len(br))
		for i, m := range br {
			els, err := m.elements()
			if err != nil {
				return nil, err
			}
			lists[i] = els
		}
		for _, id := range cartesian(lists) {
			cb := make(Branch, len(id))
			for i, l := range id {
				cb[i] = Matcher{Kind: MatchLiteral, Literal: l}
			}
			out = append(out, cb)
		}
	}
	return out, nil
}
