package domain

import (
	"slices"
	"strings"
)

// Algorithm selects one of the in-place sorting strategies.
type Algorithm string

// Supported algorithms.
const (
	AlgorithmBubble    Algorithm = "bubble"
	AlgorithmInsertion Algorithm = "insertion"
	AlgorithmQuick     Algorithm = "quick"
	AlgorithmLibrary   Algorithm = "library"
)

// ParseAlgorithm converts a case-insensitive name into an Algorithm.
func ParseAlgorithm(name string) (Algorithm, error) {
	a := Algorithm(strings.ToLower(strings.TrimSpace(name)))
	switch a {
	case AlgorithmBubble, AlgorithmInsertion, AlgorithmQuick, AlgorithmLibrary:
		return a, nil
	default:
		return "", NewValidationErrorWithValue("algorithm", "must be one of: bubble insertion quick library", name)
	}
}

// Stable reports whether the algorithm preserves the order of equal elements.
func (a Algorithm) Stable() bool {
	return a != AlgorithmQuick
}

// Apply sorts s in place with the algorithm.
// Unknown algorithms fall back to quicksort.
func Apply[T any](a Algorithm, s []T, compare func(a, b T) int) {
	switch a {
	case AlgorithmBubble:
		BubbleSort(s, compare)
	case AlgorithmInsertion:
		InsertionSort(s, compare)
	case AlgorithmLibrary:
		copy(s, LibrarySort(s, compare))
	default:
		QuickSort(s, compare)
	}
}

// BubbleSort sorts s in place by repeated adjacent swaps.
// Swaps happen only on strict inequality, so the sort is stable.
func BubbleSort[T any](s []T, compare func(a, b T) int) {
	n := len(s)
	for i := 0; i < n-1; i++ {
		for j := 0; j < n-i-1; j++ {
			if compare(s[j], s[j+1]) > 0 {
				s[j], s[j+1] = s[j+1], s[j]
			}
		}
	}
}

// InsertionSort sorts s in place by growing a sorted prefix.
// Each element moves left only past strictly greater predecessors, so the sort is stable.
func InsertionSort[T any](s []T, compare func(a, b T) int) {
	for i := 1; i < len(s); i++ {
		key := s[i]
		j := i - 1
		for j >= 0 && compare(s[j], key) > 0 {
			s[j+1] = s[j]
			j--
		}
		s[j+1] = key
	}
}

// QuickSort sorts s in place using a Lomuto partition with the last element
// of each range as pivot. Ranges are kept on an explicit stack instead of
// recursing, and are visited in the same order recursion would visit them.
// The sort is not stable.
func QuickSort[T any](s []T, compare func(a, b T) int) {
	type span struct{ low, high int }

	stack := []span{{0, len(s) - 1}}
	for len(stack) > 0 {
		r := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if r.low >= r.high {
			continue
		}

		p := partition(s, compare, r.low, r.high)

		// Right pushed first so the left range is processed first.
		stack = append(stack, span{p + 1, r.high}, span{r.low, p - 1})
	}
}

func partition[T any](s []T, compare func(a, b T) int, low, high int) int {
	pivot := s[high]
	i := low - 1
	for j := low; j < high; j++ {
		if compare(s[j], pivot) <= 0 {
			i++
			s[i], s[j] = s[j], s[i]
		}
	}
	s[i+1], s[high] = s[high], s[i+1]
	return i + 1
}

// LibrarySort returns a sorted copy of s using the standard library's stable
// sort. The input is left untouched.
func LibrarySort[T any](s []T, compare func(a, b T) int) []T {
	out := slices.Clone(s)
	slices.SortStableFunc(out, compare)
	return out
}
