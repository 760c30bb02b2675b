package destination

import "strings"

// accentFolds is the fixed fold set used for comparison. Deliberately small:
// full unicode normalization is not needed for "Ciudad, País" strings.
var accentFolds = strings.NewReplacer(
	"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u",
	"ñ", "n", "ü", "u", "ç", "c",
)

// Normalize lowercases, trims and folds accented characters so that
// "París, Francia" and "paris, francia" compare equal.
func Normalize(dest string) string {
	if dest == "" {
		return ""
	}
	return accentFolds.Replace(strings.TrimSpace(strings.ToLower(dest)))
}

// Equal reports whether two destination strings refer to the same place.
// Exact normalized equality, or equality of the city part before the first
// comma — "Paris" matches "Paris, France". Empty input on either side is
// never equal.
func Equal(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	na, nb := Normalize(a), Normalize(b)
	if na == nb {
		return true
	}
	return cityPart(na) == cityPart(nb)
}

func cityPart(normalized string) string {
	city, _, _ := strings.Cut(normalized, ",")
	return strings.TrimSpace(city)
}
