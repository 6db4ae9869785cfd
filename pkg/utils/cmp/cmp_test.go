package cmp_test

import (
	"testing"

	"github.com/eggrates/eggrate/pkg/utils/cmp"
)

func TestSliceEq(t *testing.T) {
	t.Run("equal slices are equal", func(t *testing.T) {
		if !cmp.SliceEq([]int{1, 2, 3}, []int{1, 2, 3}) {
			t.Error("a != b, unexpectedly")
		}
	})
	t.Run("order matters", func(t *testing.T) {
		if cmp.SliceEq([]int{1, 2, 3}, []int{3, 2, 1}) {
			t.Error("a == b, unexpectedly")
		}
	})
	t.Run("length mismatch is detected", func(t *testing.T) {
		if cmp.SliceEq([]int{1, 2}, []int{1, 2, 3}) {
			t.Error("a == b, unexpectedly")
		}
	})
}

func TestSliceContentEq(t *testing.T) {
	t.Run("same content in different order is equal", func(t *testing.T) {
		if !cmp.SliceContentEq([]string{"a", "b", "b"}, []string{"b", "a", "b"}) {
			t.Error("a != b, unexpectedly")
		}
	})
	t.Run("different multiplicity is not equal", func(t *testing.T) {
		if cmp.SliceContentEq([]string{"a", "a", "b"}, []string{"a", "b", "b"}) {
			t.Error("a == b, unexpectedly")
		}
	})
}

func TestSliceContentEqWith(t *testing.T) {
	type entry struct{ name, value string }
	eq := func(a, b entry) bool { return a.name == b.name && a.value == b.value }

	t.Run("same content in different order is equal", func(t *testing.T) {
		a := []entry{{"x", "1"}, {"y", "2"}, {"y", "2"}}
		b := []entry{{"y", "2"}, {"x", "1"}, {"y", "2"}}
		if !cmp.SliceContentEqWith(a, b, eq) {
			t.Error("a != b, unexpectedly")
		}
	})
	t.Run("different multiplicity is not equal", func(t *testing.T) {
		a := []entry{{"x", "1"}, {"x", "1"}, {"y", "2"}}
		b := []entry{{"x", "1"}, {"y", "2"}, {"y", "2"}}
		if cmp.SliceContentEqWith(a, b, eq) {
			t.Error("a == b, unexpectedly")
		}
	})
	t.Run("length mismatch is detected", func(t *testing.T) {
		a := []entry{{"x", "1"}}
		b := []entry{{"x", "1"}, {"y", "2"}}
		if cmp.SliceContentEqWith(a, b, eq) {
			t.Error("a == b, unexpectedly")
		}
	})
}

func TestMapEq(t *testing.T) {
	t.Run("equal maps are equal", func(t *testing.T) {
		a := map[string]int{"x": 1, "y": 2}
		b := map[string]int{"y": 2, "x": 1}
		if !cmp.MapEq(a, b) {
			t.Error("a != b, unexpectedly")
		}
	})
	t.Run("value mismatch is detected", func(t *testing.T) {
		a := map[string]int{"x": 1}
		b := map[string]int{"x": 2}
		if cmp.MapEq(a, b) {
			t.Error("a == b, unexpectedly")
		}
	})
}
