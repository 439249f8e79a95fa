package selector

// cartesian generates every ordered combination picking one label per list,
// leftmost list outermost. Recombination order matters: it fixes the final
// identifier ordering inside a branch.
func cartesian(lists [][]Label) []PortID {
	if len(lists) == 0 {
		return nil
	}
	rest := cartesian(lists[1:])
	var out []PortID
	if len(rest) == 0 {
		for _, l := range lists[0] {
			out = append(out, PortID{l})
		}
		return out
	}
	for _, l := range lists[0] {
		for _, tail := range rest {
			id := make(PortID, 0, 1+len(tail))
			id = append(id, l)
			id = append(id, tail...)
			out = append(out, id)
		}
	}
	return out
}

// Expand materializes a fully resolvable selector into its explicit,
// ordered list of concrete identifiers: per branch the cartesian product of
// each level's literal elements, branches concatenated in selector order.
// Selectors containing wildcards or unbounded intervals cannot be expanded.
// All produced identifiers must share one depth.
func (c *Compiler) Expand(text string) ([]PortID, error) {
	sel, err := c.Parse(text)
	if err != nil {
		return nil, err
	}
	return expandSelector(sel)
}

func expandSelector(sel Selector) ([]PortID, error) {
	var ids []PortID
	depth := -1
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
			if depth == -1 {
				depth = len(id)
			} else if len(id) != depth {
				return nil, NewError(KindStructural,
					"identifier %s has depth %d, expected %d", id, len(id), depth)
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// CountPorts returns the number of concrete identifiers the selector
// expands to.
func (c *Compiler) CountPorts(text string) (int, error) {
	ids, err := c.Expand(text)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

// MaxLevels returns the longest branch length of the parsed selector. The
// result is memoized per selector text.
func (c *Compiler) MaxLevels(text string) (int, error) {
	if d, ok := c.depths.get(text); ok {
		return d, nil
	}
	sel, err := c.Parse(text)
	if err != nil {
		return 0, err
	}
	d := sel.MaxLevels()
	c.depths.put(text, d)
	return d, nil
}

// IsIn reports whether every identifier the sub selector expands to is
// matched by the super selector. The sub selector must be fully
// resolvable; super may contain wildcards, sets and intervals. An empty sub
// expansion is trivially contained.
func (c *Compiler) IsIn(sub, super string) (bool, error) {
	ids, err := c.Expand(sub)
	if err != nil {
		return false, err
	}
	superSel, err := c.Parse(super)
	if err != nil {
		return false, err
	}
	for _, id := range ids {
		if !Matches(superSel, id, 0, len(id)) {
			return false, nil
		}
	}
	return true, nil
}

// AreDisjoint reports whether two fully resolvable selectors share no
// identifier.
func (c *Compiler) AreDisjoint(a, b string) (bool, error) {
	idsA, err := c.Expand(a)
	if err != nil {
		return false, err
	}
	idsB, err := c.Expand(b)
	if err != nil {
		return false, err
	}
	seen := make(map[string]bool, len(idsA))
	for _, id := range idsA {
		seen[id.Key()] = true
	}
	for _, id := range idsB {
		if seen[id.Key()] {
			return false, nil
		}
	}
	return true, nil
}
