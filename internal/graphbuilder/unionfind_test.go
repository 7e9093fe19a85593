package graphbuilder

import "testing"

func TestUnionFindMergesComponents(t *testing.T) {
	uf := newUnionFind(5)
	uf.union(0, 1)
	uf.union(1, 2)
	uf.union(3, 4)

	if uf.find(0) != uf.find(2) {
		t.Error("0 and 2 should be in the same component")
	}
	if uf.find(0) == uf.find(3) {
		t.Error("0 and 3 should be in different components")
	}
	if uf.find(3) != uf.find(4) {
		t.Error("3 and 4 should be in the same component")
	}
}

func TestUnionFindSingletonsStaySeparate(t *testing.T) {
	uf := newUnionFind(3)
	if uf.find(0) == uf.find(1) || uf.find(1) == uf.find(2) {
		t.Error("untouched nodes should each be their own component")
	}
}
