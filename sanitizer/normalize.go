package sanitizer

import "strings"

func isDelimiter(r rune) bool {
	return r == '\n' || r == '\r' || r == ',' || r == ';'
}

// Normalize splits each raw chunk on newlines, commas and semicolons, trims
// whitespace, lowercases and drops empty candidates. Output order is
// first-seen order. Purely lexical, no validation.
func Normalize(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, chunk := range raw {
		for _, cand := range strings.FieldsFunc(chunk, isDelimiter) {
			cand = strings.ToLower(strings.TrimSpace(cand))
			if cand != "" {
				out = append(out, cand)
			}
		}
	}
	return out
}

// NormalizeText is Normalize for a single pasted blob.
func NormalizeText(text string) []string {
	return Normalize([]string{text})
}

// Deduplicate collapses normalized addresses into an order-preserving unique
// set (first occurrence wins) and reports how many duplicates were removed.
// When disabled it returns the input unchanged.
func Deduplicate(addrs []string, enabled bool) ([]string, int) {
	if !enabled {
		return addrs, 0
	}
	seen := make(map[string]struct{}, len(addrs))
	unique := make([]string, 0, len(addrs))
	for _, addr := range addrs {
		if _, ok := seen[addr]; ok {
			continue
		}
		seen[addr] = struct{}{}
		unique = append(unique, addr)
	}
	return unique, len(addrs) - len(unique)
}
