package nfl

import "strings"

// canonicalByAlias maps provider-specific team abbreviations to one
// canonical code. Includes historical relocations so that payloads written
// before a franchise moved still resolve to the current club.
var canonicalByAlias = map[string]string{
	// Washington: ESPN uses WSH, Sleeper uses WAS.
	"WSH": "WAS",
	// Jacksonville: both spellings appear in the wild.
	"JAC": "JAX",
	// Raiders relocation (Oakland -> Las Vegas).
	"OAK": "LV",
	"LVR": "LV",
	// Chargers relocation (San Diego -> Los Angeles).
	"SD":  "LAC",
	"SDG": "LAC",
	// Rams relocation (St. Louis -> Los Angeles).
	"STL": "LAR",
	"LA":  "LAR",
	// Cardinals historical code.
	"ARZ": "ARI",
	// Texans alternate spelling.
	"HST": "HOU",
	// Browns alternate spelling.
	"CLV": "CLE",
	// Ravens alternate spelling.
	"BLT": "BAL",
}

var aliasesByCanonical = buildAliasIndex()

func buildAliasIndex() map[string][]string {
	out := make(map[string][]string, len(canonicalByAlias))
	for alias, canonical := range canonicalByAlias {
		out[canonical] = append(out[canonical], alias)
	}
	return out
}

// Canonicalize resolves a raw team code to its canonical form. Unknown codes
// are returned uppercased unchanged; this function never fails.
func Canonicalize(code string) string {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if normalized == "" {
		return ""
	}
	if canonical, ok := canonicalByAlias[normalized]; ok {
		return canonical
	}
	return normalized
}

// AliasesOf returns the known alternate codes for a team, excluding the
// canonical code itself. The result is nil for codes with no alias table
// entry.
func AliasesOf(code string) []string {
	canonical := Canonicalize(code)
	aliases := aliasesByCanonical[canonical]
	if len(aliases) == 0 {
		return nil
	}
	out := make([]string, len(aliases))
	copy(out, aliases)
	return out
}

// AreEquivalent reports whether two raw codes refer to the same team.
func AreEquivalent(a, b string) bool {
	ca := Canonicalize(a)
	cb := Canonicalize(b)
	if ca == "" || cb == "" {
		return false
	}
	return ca == cb
}
