package slices

func Map[T, R any](sl []T, mapper func(T) R) []R {
	ret := make([]R, len(sl))
	for i, v := range sl {
		ret[i] = mapper(v)
	}
	return ret
}

func Filter[T any](sl []T, pred func(T) bool) []T {
	ret := make([]T, 0, len(sl))
	for _, v := range sl {
		if pred(v) {
			ret = append(ret, v)
		}
	}
	return ret
}
