package selector

// Matches tests a concrete identifier against a normalized selector over
// the level sub-range [start, stop). Branches are OR-combined; the first
// accepting branch short-circuits. A branch shorter than the tested
// sub-range matches on its defined prefix: levels beyond the branch's
// length are not checked. A branch longer than the sub-range cannot match.
func Matches(sel Selector, id PortID, start, stop int) bool {
	if start < 0 {
		start = 0
	}
	if stop > len(id) {
		stop = len(id)
	}
	if start > stop {
		return false
	}
	sub := id[start:stop]
	for _, br := range sel.Branches {
		if branchMatches(br, sub) {
			return true
		}
	}
	return false
}

func branchMatches(br Branch, sub PortID) bool {
	if len(br) > len(sub) {
		return false
	}
	for i, m := range br {
		if !m.Accepts(sub[i]) {
			return false
		}
	}
	return true
}
