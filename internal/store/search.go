package store

import "strings"

// SanitizeSearch trims a free-text query and strips commas, which would otherwise
// split a multi-field OR filter.
func SanitizeSearch(q string) string {
	return strings.TrimSpace(strings.ReplaceAll(q, ",", ""))
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern matches q as a literal substring; pair it with ESCAPE '\'.
func containsPattern(q string) string {
	return "%" + likeEscaper.Replace(q) + "%"
}
