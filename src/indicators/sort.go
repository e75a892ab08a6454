package indicators

import "sort"

// SortedTickers returns the keys of a per-ticker map in ascending order.
func SortedTickers[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
