package oils

import "strings"

var nameReplacer = strings.NewReplacer("-", "", "_", "", " ", "")

// normalizeName lowercases a name and drops everything but letters and digits
// so "Coconut Oil, 76 deg" and "coconut-oil-76-deg" compare equal.
func normalizeName(value string) string {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	if trimmed == "" {
		return ""
	}
	return lettersOnly(nameReplacer.Replace(trimmed))
}

func lettersOnly(value string) string {
	var builder strings.Builder
	for _, r := range value {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			builder.WriteRune(r)
		}
	}
	return builder.String()
}

func uniqueAliases(values []string) []string {
	seen := make(map[string]struct{})
	result := make([]string, 0, len(values))
	for _, value := range values {
		norm := normalizeName(value)
		if norm == "" {
			continue
		}
		if _, ok := seen[norm]; ok {
			continue
		}
		seen[norm] = struct{}{}
		result = append(result, norm)
	}
	return result
}

func exactAlias(candidates, targets []string) bool {
	for _, target := range targets {
		for _, candidate := range candidates {
			if candidate == target {
				return true
			}
		}
	}
	return false
}

func fuzzyAlias(candidates, targets []string) bool {
	for _, target := range targets {
		for _, candidate := range candidates {
			if similarAlias(candidate, target) {
				return true
			}
		}
	}
	return false
}

func similarAlias(a, b string) bool {
	if a == b {
		return true
	}
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	limit := 1
	if len(a) >= 8 || len(b) >= 8 {
		limit = 2
	}
	if len(a) >= 12 || len(b) >= 12 {
		limit = 3
	}
	return levenshteinDistance(a, b) <= limit
}

func levenshteinDistance(a, b string) int {
	if a == b {
		return 0
	}
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			curr[j] = min(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
