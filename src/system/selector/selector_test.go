package selector

import (
	"testing"
)

func expandOrFail(t *testing.T, comp *Compiler, text string) []PortID {
	t.Helper()
	ids, err := comp.Expand(text)
	if err != nil {
		t.Fatalf("expanding %q failed: %v", text, err)
	}
	return ids
}

// Test 1.1 — basic expansion keeps written order and label types
func Test_Expand_BasicUnion_KeepsOrder(t *testing.T) {
	comp := NewCompiler()
	ids := expandOrFail(t, comp, "/foo[0:2],/bar/baz")
	if len(ids) != 3 {
		t.Fatalf("expected 3 ports, got %d", len(ids))
	}
	expected := []string{"/foo/0", "/foo/1", "/bar/baz"}
	for i, want := range expected {
		if ids[i].String() != want {
			t.Fatalf("port %d: expected %s, got %s", i, want, ids[i].String())
		}
	}
	if ids[0][1].IsNum != true || ids[2][1].IsNum != false {
		t.Fatalf("label kinds lost during expansion")
	}
}

// Test 1.2 — cross product distributes a group over the following level
func Test_Expand_CrossProduct_Distributes(t *testing.T) {
	comp := NewCompiler()
	ids := expandOrFail(t, comp, "(/foo,/bar)+/baz")
	if len(ids) != 2 {
		t.Fatalf("expected 2 ports, got %d", len(ids))
	}
	if ids[0].String() != "/foo/baz" || ids[1].String() != "/bar/baz" {
		t.Fatalf("unexpected cross product result: %s, %s", ids[0], ids[1])
	}
}

// Test 1.3 — zip pairs operand expansions elementwise
func Test_Expand_Zip_PairsElementwise(t *testing.T) {
	comp := NewCompiler()
	ids := expandOrFail(t, comp, "/[bar,baz].+/[qux,mof].+/[0,0]")
	if len(ids) != 2 {
		t.Fatalf("expected 2 ports, got %d", len(ids))
	}
	if ids[0].String() != "/bar/qux/0" || ids[1].String() != "/baz/mof/0" {
		t.Fatalf("unexpected zip result: %s, %s", ids[0], ids[1])
	}
}

// Test 1.4 — zip with unequal operand counts is a structural failure
func Test_Expand_Zip_UnequalCounts_Fails(t *testing.T) {
	comp := NewCompiler()
	_, err := comp.Expand("/[bar,baz].+/qux")
	if err == nil {
		t.Fatalf("expected error for unequal zip operands")
	}
	if !IsKind(err, KindStructural) {
		t.Fatalf("expected structural mismatch, got %v", err)
	}
}

// Test 1.5 — wildcards and unbounded intervals cannot be expanded
func Test_Expand_NonConcrete_Fails(t *testing.T) {
	comp := NewCompiler()
	for _, text := range []string{"/foo/*", "/foo[1:]", "/foo[:]"} {
		_, err := comp.Expand(text)
		if err == nil {
			t.Fatalf("expected error expanding %q", text)
		}
		if !IsKind(err, KindStructural) {
			t.Fatalf("expanding %q: expected structural mismatch, got %v", text, err)
		}
	}
}

// Test 1.6 — branches of unequal depth cannot form one port list
func Test_Expand_UnequalDepth_Fails(t *testing.T) {
	comp := NewCompiler()
	_, err := comp.Expand("/foo/0,/bar")
	if err == nil {
		t.Fatalf("expected error for mixed depth expansion")
	}
	if !IsKind(err, KindStructural) {
		t.Fatalf("expected structural mismatch, got %v", err)
	}
}

// Test 2.1 — malformed inputs surface as syntax failures
func Test_Parse_Malformed_Fails(t *testing.T) {
	comp := NewCompiler()
	for _, text := range []string{"foo", "/foo+", "/foo.", "//foo", "(/foo", "/foo)", "/foo[abc:1]", "/foo[]", ",/foo"} {
		_, err := comp.Parse(text)
		if err == nil {
			t.Fatalf("expected syntax error for %q", text)
		}
		if !IsKind(err, KindSyntax) {
			t.Fatalf("parsing %q: expected syntax error, got %v", text, err)
		}
	}
}

// Test 2.2 — integer and string labels never compare equal
func Test_Labels_IntVsString_Distinct(t *testing.T) {
	if NumLabel(0).Equal(StringLabel("0")) {
		t.Fatalf("numeric 0 must not equal string label 0")
	}
	if NumLabel(0).key() == StringLabel("0").key() {
		t.Fatalf("numeric and string label keys must differ")
	}
}

// Test 3.1 — wildcard, interval and set matchers accept the right ports
func Test_Matches_WildcardIntervalSet(t *testing.T) {
	comp := NewCompiler()
	ports := expandOrFail(t, comp, "/foo/mof[0:3]")

	cases := []struct {
		text    string
		matched []int
	}{
		{"/foo/mof[1:]", []int{1, 2}},
		{"/foo/mof[:2]", []int{0, 1}},
		{"/foo/mof[:]", []int{0, 1, 2}},
		{"/foo/*/[0,2]", []int{0, 2}},
		{"/foo/mof/1", []int{1}},
	}
	for _, c := range cases {
		sel, err := comp.Parse(c.text)
		if err != nil {
			t.Fatalf("parsing %q failed: %v", c.text, err)
		}
		var got []int
		for i, id := range ports {
			if Matches(sel, id, 0, len(id)) {
				got = append(got, i)
			}
		}
		if len(got) != len(c.matched) {
			t.Fatalf("%q matched %v, expected %v", c.text, got, c.matched)
		}
		for i := range got {
			if got[i] != c.matched[i] {
				t.Fatalf("%q matched %v, expected %v", c.text, got, c.matched)
			}
		}
	}
}

// Test 3.2 — a selector shorter than the identifier matches as prefix,
// a longer one never matches
func Test_Matches_PrefixSemantics(t *testing.T) {
	comp := NewCompiler()
	id := PortID{StringLabel("foo"), NumLabel(0)}

	short, err := comp.Parse("/foo")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if !Matches(short, id, 0, len(id)) {
		t.Fatalf("prefix selector should match longer identifier")
	}

	long, err := comp.Parse("/foo/0/extra")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if Matches(long, id, 0, len(id)) {
		t.Fatalf("selector longer than identifier must not match")
	}
}

// Test 3.3 — matching against a sub-range of the identifier levels
func Test_Matches_SubRange(t *testing.T) {
	comp := NewCompiler()
	id := PortID{StringLabel("foo"), StringLabel("bar"), NumLabel(3)}
	sel, err := comp.Parse("/bar[0:5]")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if !Matches(sel, id, 1, 3) {
		t.Fatalf("expected match on levels 1..3")
	}
	if Matches(sel, id, 0, 2) {
		t.Fatalf("did not expect match on levels 0..2")
	}
}

// Test 4.1 — containment and disjointness over expansions
func Test_IsIn_AreDisjoint(t *testing.T) {
	comp := NewCompiler()

	in, err := comp.IsIn("/foo[0:2]", "/foo[0:5]")
	if err != nil {
		t.Fatalf("IsIn failed: %v", err)
	}
	if !in {
		t.Fatalf("expected /foo[0:2] to be contained in /foo[0:5]")
	}

	in, err = comp.IsIn("/foo[0:2],/bar/0", "/foo[0:5]")
	if err != nil {
		t.Fatalf("IsIn failed: %v", err)
	}
	if in {
		t.Fatalf("did not expect containment with foreign port present")
	}

	disjoint, err := comp.AreDisjoint("/foo[0:2]", "/foo[2:4]")
	if err != nil {
		t.Fatalf("AreDisjoint failed: %v", err)
	}
	if !disjoint {
		t.Fatalf("expected [0:2] and [2:4] to be disjoint")
	}

	disjoint, err = comp.AreDisjoint("/foo[0:3]", "/foo[2:4]")
	if err != nil {
		t.Fatalf("AreDisjoint failed: %v", err)
	}
	if disjoint {
		t.Fatalf("expected overlap at /foo/2")
	}
}

// Test 4.2 — level counting and the port count shortcut
func Test_MaxLevels_CountPorts(t *testing.T) {
	comp := NewCompiler()
	depth, err := comp.MaxLevels("/foo/bar[0:2],/baz")
	if err != nil {
		t.Fatalf("MaxLevels failed: %v", err)
	}
	if depth != 3 {
		t.Fatalf("expected depth 3, got %d", depth)
	}
	// second call hits the cache, result must be identical
	depth2, err := comp.MaxLevels("/foo/bar[0:2],/baz")
	if err != nil || depth2 != depth {
		t.Fatalf("cached MaxLevels diverged: %d vs %d (%v)", depth, depth2, err)
	}

	count, err := comp.CountPorts("/foo[0:10]+/bar[0:3]")
	if err != nil {
		t.Fatalf("CountPorts failed: %v", err)
	}
	if count != 30 {
		t.Fatalf("expected 30 ports, got %d", count)
	}
}

// Test 4.3 — expansion of the same text is deterministic
func Test_Expand_Deterministic(t *testing.T) {
	comp := NewCompiler()
	first := expandOrFail(t, comp, "/a[0:3]+/[x,y]")
	second := expandOrFail(t, comp, "/a[0:3]+/[x,y]")
	if len(first) != len(second) {
		t.Fatalf("expansion lengths diverged")
	}
	for i := range first {
		if !first[i].Equal(second[i]) {
			t.Fatalf("expansion order diverged at %d: %s vs %s", i, first[i], second[i])
		}
	}
}
