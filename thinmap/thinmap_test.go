package thinmap

import "testing"

func TestInsertAssignsSequentialIndices(t *testing.T) {
	m := New[string, int]()

	i0, prior0 := m.Insert("a", 1)
	if i0 != 0 || prior0 != nil {
		t.Fatalf("first insert: got (%d, %v), want (0, nil)", i0, prior0)
	}

	i1, prior1 := m.Insert("b", 2)
	if i1 != 1 || prior1 != nil {
		t.Fatalf("second insert: got (%d, %v), want (1, nil)", i1, prior1)
	}

	if m.NextIndex() != 2 {
		t.Fatalf("NextIndex() = %d, want 2", m.NextIndex())
	}
}

func TestInsertReplacesAndInvalidatesPriorIndex(t *testing.T) {
	m := New[string, int]()
	oldIdx, _ := m.Insert("a", 1)

	newIdx, prior := m.Insert("a", 2)
	if prior == nil || *prior != 1 {
		t.Fatalf("prior value = %v, want 1", prior)
	}
	if newIdx == oldIdx {
		t.Fatalf("new index %d must differ from old index %d", newIdx, oldIdx)
	}
	if m.ContainsIndex(oldIdx) {
		t.Fatalf("old index %d should have been invalidated", oldIdx)
	}
	if k, v, ok := m.GetByIndex(newIdx); !ok || k != "a" || v != 2 {
		t.Fatalf("GetByIndex(%d) = (%q, %d, %v), want (a, 2, true)", newIdx, k, v, ok)
	}
}

func TestInsertWithEmbedsOwnIndex(t *testing.T) {
	type node struct{ self Index }
	m := New[string, node]()

	idx, prior := m.InsertWith("x", func(i Index) node { return node{self: i} })
	if prior != nil {
		t.Fatalf("prior = %v, want nil", prior)
	}
	_, v, _ := m.Get("x")
	if v.self != idx {
		t.Fatalf("embedded index %d != assigned index %d", v.self, idx)
	}
}

func TestGetAndGetByIndex(t *testing.T) {
	m := New[string, int]()
	idx, _ := m.Insert("a", 42)

	if i, v, ok := m.Get("a"); !ok || i != idx || v != 42 {
		t.Fatalf("Get(a) = (%d, %d, %v), want (%d, 42, true)", i, v, ok, idx)
	}
	if k, v, ok := m.GetByIndex(idx); !ok || k != "a" || v != 42 {
		t.Fatalf("GetByIndex(%d) = (%q, %d, %v), want (a, 42, true)", idx, k, v, ok)
	}
	if _, _, ok := m.Get("missing"); ok {
		t.Fatal("Get(missing) should fail")
	}
	if _, _, ok := m.GetByIndex(999); ok {
		t.Fatal("GetByIndex(999) should fail")
	}
}

func TestRemoveScrubsBothDirections(t *testing.T) {
	m := New[string, int]()
	idx, _ := m.Insert("a", 1)

	gotIdx, gotVal, ok := m.Remove("a")
	if !ok || gotIdx != idx || gotVal != 1 {
		t.Fatalf("Remove(a) = (%d, %d, %v), want (%d, 1, true)", gotIdx, gotVal, ok, idx)
	}
	if m.Contains("a") || m.ContainsIndex(idx) {
		t.Fatal("both directions should be scrubbed after Remove")
	}
	if _, _, ok := m.Remove("a"); ok {
		t.Fatal("second Remove(a) should fail")
	}
}

func TestRemoveByIndex(t *testing.T) {
	m := New[string, int]()
	idx, _ := m.Insert("a", 7)

	k, v, ok := m.RemoveByIndex(idx)
	if !ok || k != "a" || v != 7 {
		t.Fatalf("RemoveByIndex(%d) = (%q, %d, %v), want (a, 7, true)", idx, k, v, ok)
	}
	if m.Contains("a") {
		t.Fatal("key should be gone after RemoveByIndex")
	}
}

func TestUpdatePreservesIndex(t *testing.T) {
	m := New[string, int]()
	idx, _ := m.Insert("a", 1)

	if !m.Update("a", 2) {
		t.Fatal("Update(a) should succeed")
	}
	i, v, ok := m.Get("a")
	if !ok || i != idx || v != 2 {
		t.Fatalf("Get(a) after Update = (%d, %d, %v), want (%d, 2, true)", i, v, ok, idx)
	}
	if m.Update("missing", 9) {
		t.Fatal("Update(missing) should fail")
	}
}

func TestIndicesNeverReused(t *testing.T) {
	m := New[string, int]()
	seen := make(map[Index]bool)

	keys := []string{"a", "b", "c", "a", "d", "b"}
	for _, k := range keys {
		idx, _ := m.Insert(k, 0)
		if seen[idx] {
			t.Fatalf("index %d reused", idx)
		}
		seen[idx] = true
	}

	idxA, _, _ := m.Remove("a")
	if _, _, ok := m.GetByIndex(idxA); ok {
		t.Fatalf("removed index %d still resolves", idxA)
	}

	idxNew, _ := m.Insert("e", 0)
	if idxNew == idxA {
		t.Fatalf("freshly inserted key reused removed index %d", idxA)
	}
}
