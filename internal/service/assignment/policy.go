package assignment

import "sort"

// AscendingIDPolicy перебирает мастеров по возрастанию ID, дубликаты и неположительные ID отбрасываются
type AscendingIDPolicy struct{}

// Order возвращает отсортированную копию кандидатов
func (AscendingIDPolicy) Order(candidates []int64) []int64 {
	seen := make(map[int64]struct{}, len(candidates))
	result := make([]int64, 0, len(candidates))
	for _, id := range candidates {
		if id <= 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}
