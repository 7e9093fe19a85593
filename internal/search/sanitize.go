package search

import "strings"

// sanitizeFTSQuery turns free-form user input into a safe FTS5 MATCH
// expression: boolean operators and wildcard/column-filter syntax are
// dropped, and each surviving token is quoted so it matches literally.
func sanitizeFTSQuery(query string) string {
	words := strings.Fields(query)
	tokens := make([]string, 0, len(words))

	for _, word := range words {
		upper := strings.ToUpper(word)
		switch upper {
		case "OR", "AND", "NOT", "NEAR":
			continue
		}
		if strings.ContainsAny(word, "*:") {
			continue
		}
		escaped := strings.ReplaceAll(word, `"`, "")
		tokens = append(tokens, `"`+escaped+`"`)
	}

	return strings.Join(tokens, " ")
}
