package listpanel

import (
	"strings"
)

// fuzzyMatch reports whether every space-separated part of pattern appears
// in target as an in-order subsequence, ignoring case.
func fuzzyMatch(pattern, target string) bool {
	target = strings.ToLower(target)
	for _, part := range strings.Fields(strings.ToLower(pattern)) {
		if !subsequence(part, target) {
			return false
		}
	}
	return true
}

func subsequence(pattern, target string) bool {
	p := 0
	for t := 0; t < len(target) && p < len(pattern); t++ {
		if target[t] == pattern[p] {
			p++
		}
	}
	return p == len(pattern)
}
