package portmap

import (
	"testing"

	"github.com/voodooEntity/neuroplex/src/system/selector"
)

// Test 1.1 — default positions are the identity over declaration order
func Test_Table_IdentityPositions(t *testing.T) {
	comp := selector.NewCompiler()
	table, err := NewPortTable(comp, []string{"/foo/bar[0:2]", "/foo/baz[0:2]"}, nil)
	if err != nil {
		t.Fatalf("building table failed: %v", err)
	}
	if table.Len() != 4 {
		t.Fatalf("expected 4 ports, got %d", table.Len())
	}
	for i, id := range table.IDs() {
		pos, ok := table.PositionOf(id)
		if !ok || pos != i {
			t.Fatalf("port %s: expected identity position %d, got %d", id, i, pos)
		}
	}
}

// Test 1.2 — one identifier expanded by two selectors is rejected
func Test_Table_DuplicateAcrossSelectors_Fails(t *testing.T) {
	comp := selector.NewCompiler()
	_, err := NewPortTable(comp, []string{"/foo[0:3]", "/foo[2:4]"}, nil)
	if err == nil {
		t.Fatalf("expected duplicate error for overlapping selectors")
	}
	if !selector.IsKind(err, selector.KindDuplicate) {
		t.Fatalf("expected duplicate key error, got %v", err)
	}
}

// Test 1.3 — explicit positions must match the port count
func Test_Table_PositionCountMismatch_Fails(t *testing.T) {
	comp := selector.NewCompiler()
	_, err := NewPortTable(comp, []string{"/foo[0:3]"}, []int{5, 6})
	if err == nil {
		t.Fatalf("expected length error for short position list")
	}
	if !selector.IsKind(err, selector.KindLength) {
		t.Fatalf("expected length mismatch, got %v", err)
	}
}

// Test 1.4 — non-concrete selectors cannot declare a table
func Test_Table_WildcardDeclaration_Fails(t *testing.T) {
	comp := selector.NewCompiler()
	_, err := NewPortTable(comp, []string{"/foo/*"}, nil)
	if err == nil {
		t.Fatalf("expected structural error for wildcard declaration")
	}
	if !selector.IsKind(err, selector.KindStructural) {
		t.Fatalf("expected structural mismatch, got %v", err)
	}
}

// Test 2.1 — read-time wildcard queries over a declared table succeed
func Test_Mapper_WildcardGetSet(t *testing.T) {
	comp := selector.NewCompiler()
	data := []float64{0, 0, 0, 0}
	m, err := NewPortMapper(comp, data, []string{"/foo/bar[0:2]", "/foo/baz[0:2]"}, nil)
	if err != nil {
		t.Fatalf("building mapper failed: %v", err)
	}

	if err := m.Set("/foo/*[0:2]", 1.0); err != nil {
		t.Fatalf("broadcast set failed: %v", err)
	}
	values, err := m.Get("/foo/*[0:2]")
	if err != nil {
		t.Fatalf("wildcard get failed: %v", err)
	}
	if len(values) != 4 {
		t.Fatalf("expected 4 values, got %d", len(values))
	}
	for i, v := range values {
		if v != 1.0 {
			t.Fatalf("value %d: expected 1.0, got %f", i, v)
		}
	}
	for i, v := range data {
		if v != 1.0 {
			t.Fatalf("buffer slot %d: expected 1.0, got %f", i, v)
		}
	}
}

// Test 2.2 — an empty read-time match is valid and yields no data
func Test_Mapper_EmptyMatch_NoError(t *testing.T) {
	comp := selector.NewCompiler()
	data := []float64{1, 2}
	m, err := NewPortMapper(comp, data, []string{"/foo[0:2]"}, nil)
	if err != nil {
		t.Fatalf("building mapper failed: %v", err)
	}
	values, err := m.Get("/unknown")
	if err != nil {
		t.Fatalf("empty match must not error, got %v", err)
	}
	if len(values) != 0 {
		t.Fatalf("expected no values, got %v", values)
	}
	if err := m.Set("/unknown", 9.0); err != nil {
		t.Fatalf("broadcast set over empty match must not error, got %v", err)
	}
}

// Test 2.3 — a query deeper than the table is a structural failure
func Test_Mapper_QueryDeeperThanTable_Fails(t *testing.T) {
	comp := selector.NewCompiler()
	data := []float64{1, 2}
	m, err := NewPortMapper(comp, data, []string{"/foo[0:2]"}, nil)
	if err != nil {
		t.Fatalf("building mapper failed: %v", err)
	}
	_, err = m.Get("/foo/0/deeper")
	if err == nil {
		t.Fatalf("expected structural error for over-deep query")
	}
	if !selector.IsKind(err, selector.KindStructural) {
		t.Fatalf("expected structural mismatch, got %v", err)
	}
}

// Test 2.4 — setting with a wrong value count fails, broadcast succeeds
func Test_Mapper_SetValueCount(t *testing.T) {
	comp := selector.NewCompiler()
	data := []float64{0, 0, 0}
	m, err := NewPortMapper(comp, data, []string{"/foo[0:3]"}, nil)
	if err != nil {
		t.Fatalf("building mapper failed: %v", err)
	}

	if err := m.Set("/foo[0:3]", 1, 2); err == nil {
		t.Fatalf("expected length error for 2 values on 3 ports")
	} else if !selector.IsKind(err, selector.KindLength) {
		t.Fatalf("expected length mismatch, got %v", err)
	}

	if err := m.Set("/foo[0:3]", 1, 2, 3); err != nil {
		t.Fatalf("pairwise set failed: %v", err)
	}
	if data[0] != 1 || data[1] != 2 || data[2] != 3 {
		t.Fatalf("unexpected buffer after pairwise set: %v", data)
	}

	if err := m.Set("/foo[0:3]", 7); err != nil {
		t.Fatalf("broadcast set failed: %v", err)
	}
	if data[0] != 7 || data[1] != 7 || data[2] != 7 {
		t.Fatalf("unexpected buffer after broadcast: %v", data)
	}
}

// Test 2.5 — mapper aliases the caller's buffer instead of copying it
func Test_Mapper_AliasesBuffer(t *testing.T) {
	comp := selector.NewCompiler()
	data := []float64{0, 0}
	m, err := NewPortMapper(comp, data, []string{"/foo[0:2]"}, nil)
	if err != nil {
		t.Fatalf("building mapper failed: %v", err)
	}
	data[1] = 5
	values, err := m.Get("/foo/1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if len(values) != 1 || values[0] != 5 {
		t.Fatalf("expected external write to be visible, got %v", values)
	}
}

// Test 2.6 — buffer length must match the table without explicit positions
func Test_Mapper_BufferLengthMismatch_Fails(t *testing.T) {
	comp := selector.NewCompiler()
	_, err := NewPortMapper(comp, []float64{0, 0}, []string{"/foo[0:3]"}, nil)
	if err == nil {
		t.Fatalf("expected length error for short buffer")
	}
	if !selector.IsKind(err, selector.KindLength) {
		t.Fatalf("expected length mismatch, got %v", err)
	}
}

// Test 3.1 — non-zero scan and identifier translation round trip
func Test_Mapper_Nonzero_PortsToPositions(t *testing.T) {
	comp := selector.NewCompiler()
	data := []float64{0, 1, 0, 2}
	m, err := NewPortMapper(comp, data, []string{"/foo[0:4]"}, nil)
	if err != nil {
		t.Fatalf("building mapper failed: %v", err)
	}

	positions := m.NonzeroPositions()
	if len(positions) != 2 || positions[0] != 1 || positions[1] != 3 {
		t.Fatalf("unexpected nonzero positions: %v", positions)
	}

	ids := m.NonzeroPortIDs()
	if len(ids) != 2 || ids[0].String() != "/foo/1" || ids[1].String() != "/foo/3" {
		t.Fatalf("unexpected nonzero ports: %v", ids)
	}

	back, err := m.PortsToPositions(ids)
	if err != nil {
		t.Fatalf("translating ports failed: %v", err)
	}
	if len(back) != 2 || back[0] != 1 || back[1] != 3 {
		t.Fatalf("unexpected translated positions: %v", back)
	}

	_, err = m.PortsToPositions([]selector.PortID{{selector.StringLabel("nope")}})
	if err == nil {
		t.Fatalf("expected structural error for unknown identifier")
	}
	if !selector.IsKind(err, selector.KindStructural) {
		t.Fatalf("expected structural mismatch, got %v", err)
	}
}

// Test 3.2 — equality covers the full identifier-to-position bijection
func Test_Mapper_Equals(t *testing.T) {
	comp := selector.NewCompiler()
	a, err := NewPortMapper(comp, []float64{0, 0}, []string{"/foo[0:2]"}, nil)
	if err != nil {
		t.Fatalf("building mapper failed: %v", err)
	}
	b, err := NewPortMapper(comp, []float64{9, 9}, []string{"/foo[0:2]"}, nil)
	if err != nil {
		t.Fatalf("building mapper failed: %v", err)
	}
	if !a.Equals(b) {
		t.Fatalf("mappers over identical tables must be equal regardless of data")
	}

	c, err := NewPortMapper(comp, []float64{0, 0}, []string{"/foo[1,0]"}, nil)
	if err != nil {
		t.Fatalf("building mapper failed: %v", err)
	}
	if a.Equals(c) {
		t.Fatalf("mappers with different port order must not be equal")
	}
}
