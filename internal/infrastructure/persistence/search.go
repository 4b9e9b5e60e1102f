package persistence

import "strings"

// likeEscape is appended to every LIKE comparison built from user text
const likeEscape = ` ESCAPE '\'`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern matches text anywhere, case-folded, with LIKE wildcards taken literally.
func containsPattern(text string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(text))) + "%"
}

// prefixPattern matches values starting with text, case-folded, with wildcards taken literally.
func prefixPattern(text string) string {
	return likeEscaper.Replace(strings.ToLower(strings.TrimSpace(text))) + "%"
}
