package cmp

// SliceEq returns true when two slices have the same elements in the same order.
func SliceEq[T comparable](a, b []T) bool {
	return SliceEqWith(a, b, func(x, y T) bool { return x == y })
}

func SliceEqWith[T, U any](a []T, b []U, eq func(T, U) bool) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !eq(a[i], b[i]) {
			return false
		}
	}
	return true
}

// SliceContentEq returns true when two slices have the same elements,
// ignoring order. Duplicates count.
func SliceContentEq[T comparable](a, b []T) bool {
	if len(a) != len(b) {
		return false
	}
	counts := map[T]int{}
	for _, x := range a {
		counts[x] += 1
	}
	for _, y := range b {
		counts[y] -= 1
		if counts[y] < 0 {
			return false
		}
	}
	return true
}

// SliceContentEqWith is SliceContentEq over a custom equivalence,
// for element types that are not comparable. Quadratic; test-sized
// slices only.
func SliceContentEqWith[T, U any](a []T, b []U, eq func(T, U) bool) bool {
	if len(a) != len(b) {
		return false
	}
	used := make([]bool, len(b))
	for _, x := range a {
		matched := false
		for i, y := range b {
			if used[i] || !eq(x, y) {
				continue
			}
			used[i] = true
			matched = true
			break
		}
		if !matched {
			return false
		}
	}
	return true
}

func MapEq[K, V comparable](a, b map[K]V) bool {
	return MapEqWith(a, b, func(x, y V) bool { return x == y })
}

func MapEqWith[K comparable, V, W any](a map[K]V, b map[K]W, eq func(V, W) bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		w, ok := b[k]
		if !ok || !eq(v, w) {
			return false
		}
	}
	return true
}
