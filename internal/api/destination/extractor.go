package destination

import (
	"regexp"
	"strings"
)

type cityAlias struct {
	alias     string
	canonical string
}

// commonCityAliases maps lowercase city-name variants to the canonical
// "Ciudad, País" form. Many-to-one: English and Spanish spellings collapse to
// the same canonical destination. Kept as an ordered slice so substring lookup
// is deterministic when a text mentions more than one known city.
var commonCityAliases = []cityAlias{
	{"parís", "París, Francia"},
	{"paris", "París, Francia"},
	{"madrid", "Madrid, España"},
	{"barcelona", "Barcelona, España"},
	{"valencia", "Valencia, España"},
	{"sevilla", "Sevilla, España"},
	{"roma", "Roma, Italia"},
	{"rome", "Roma, Italia"},
	{"milán", "Milán, Italia"},
	{"milan", "Milán, Italia"},
	{"venecia", "Venecia, Italia"},
	{"venice", "Venecia, Italia"},
	{"londres", "Londres, Reino Unido"},
	{"london", "Londres, Reino Unido"},
	{"tokio", "Tokio, Japón"},
	{"tokyo", "Tokio, Japón"},
	{"kioto", "Kioto, Japón"},
	{"kyoto", "Kioto, Japón"},
	{"nueva york", "Nueva York, Estados Unidos"},
	{"new york", "Nueva York, Estados Unidos"},
	{"los angeles", "Los Ángeles, Estados Unidos"},
	{"san francisco", "San Francisco, Estados Unidos"},
	{"miami", "Miami, Estados Unidos"},
	{"chicago", "Chicago, Estados Unidos"},
	{"bali", "Bali, Indonesia"},
	{"bangkok", "Bangkok, Tailandia"},
	{"dubai", "Dubái, Emiratos Árabes Unidos"},
	{"sydney", "Sídney, Australia"},
	{"amsterdam", "Ámsterdam, Países Bajos"},
	{"berlín", "Berlín, Alemania"},
	{"berlin", "Berlín, Alemania"},
	{"múnich", "Múnich, Alemania"},
	{"munich", "Múnich, Alemania"},
	{"viena", "Viena, Austria"},
	{"vienna", "Viena, Austria"},
	{"praga", "Praga, República Checa"},
	{"prague", "Praga, República Checa"},
	{"lisboa", "Lisboa, Portugal"},
	{"lisbon", "Lisboa, Portugal"},
	{"atenas", "Atenas, Grecia"},
	{"athens", "Atenas, Grecia"},
	{"estambul", "Estambul, Turquía"},
	{"istanbul", "Estambul, Turquía"},
	{"moscú", "Moscú, Rusia"},
	{"moscow", "Moscú, Rusia"},
	{"buenos aires", "Buenos Aires, Argentina"},
	{"río de janeiro", "Río de Janeiro, Brasil"},
	{"rio de janeiro", "Río de Janeiro, Brasil"},
	{"ciudad de méxico", "Ciudad de México, México"},
	{"mexico city", "Ciudad de México, México"},
	{"cancún", "Cancún, México"},
	{"cancun", "Cancún, México"},
}

// countryNameToISO maps lowercase country-name variants to ISO 3166-1 alpha-2.
var countryNameToISO = map[string]string{
	"españa": "ES", "spain": "ES",
	"francia": "FR", "france": "FR",
	"italia": "IT", "italy": "IT",
	"reino unido": "GB", "united kingdom": "GB", "uk": "GB", "inglaterra": "GB", "england": "GB",
	"estados unidos": "US", "united states": "US", "usa": "US", "eeuu": "US",
	"japón": "JP", "japon": "JP", "japan": "JP",
	"indonesia": "ID",
	"tailandia": "TH", "thailand": "TH",
	"emiratos árabes": "AE", "united arab emirates": "AE", "uae": "AE",
	"australia":    "AU",
	"países bajos": "NL", "netherlands": "NL", "holanda": "NL",
	"alemania": "DE", "germany": "DE",
	"austria":         "AT",
	"república checa": "CZ", "czech republic": "CZ", "chequia": "CZ",
	"portugal": "PT",
	"grecia":   "GR", "greece": "GR",
	"turquía": "TR", "turkey": "TR",
	"rusia": "RU", "russia": "RU",
	"argentina": "AR",
	"brasil":    "BR", "brazil": "BR",
	"méxico": "MX", "mexico": "MX",
}

// isoToSpanishName maps ISO country codes back to the Spanish country name used
// in canonical destinations.
var isoToSpanishName = map[string]string{
	"ES": "España", "FR": "Francia", "IT": "Italia", "GB": "Reino Unido",
	"US": "Estados Unidos", "JP": "Japón", "ID": "Indonesia", "TH": "Tailandia",
	"AE": "Emiratos Árabes Unidos", "AU": "Australia", "NL": "Países Bajos",
	"DE": "Alemania", "AT": "Austria", "CZ": "República Checa", "PT": "Portugal",
	"GR": "Grecia", "TR": "Turquía", "RU": "Rusia", "AR": "Argentina",
	"BR": "Brasil", "MX": "México",
}

// CountryCode resolves a country name against the static table. Callers that
// need names outside the table go through the country resolver instead.
func CountryCode(countryName string) (string, bool) {
	code, ok := countryNameToISO[strings.ToLower(strings.TrimSpace(countryName))]
	return code, ok
}

// CountryName maps an ISO code back to the Spanish country name used in
// canonical destinations.
func CountryName(isoCode string) (string, bool) {
	name, ok := isoToSpanishName[strings.ToUpper(strings.TrimSpace(isoCode))]
	return name, ok
}

// Split divides "Ciudad, País" into its parts. Country is empty when absent.
func Split(dest string) (city, country string) {
	city, country, _ = strings.Cut(dest, ",")
	return strings.TrimSpace(city), strings.TrimSpace(country)
}

const capitalizedSeq = `[A-ZÁÉÍÓÚÑ][a-záéíóúñ]+(?:\s+[A-ZÁÉÍÓÚÑ][a-záéíóúñ]+)*`

var (
	// Case-insensitivity is scoped to the cue words only; the destination
	// itself must be capitalized or the pattern would swallow arbitrary prose.
	cuePairPattern     = regexp.MustCompile(`(?i:viajar\s+a|a|hacia|destino:)\s*(` + capitalizedSeq + `),\s*(` + capitalizedSeq + `)`)
	genericPairPattern = regexp.MustCompile(`(` + capitalizedSeq + `),\s*(` + capitalizedSeq + `)`)
)

// Extract pulls a destination out of free text. Layered, first match wins:
// known-city alias table, then cue-phrase "Ciudad, País" patterns paired with
// the country table, then a bare capitalized-pair regex returned verbatim.
// Deterministic and total: malformed input yields ("", false), never a panic.
func Extract(text string) (string, bool) {
	if strings.TrimSpace(text) == "" {
		return "", false
	}

	textLower := strings.ToLower(text)
	for _, entry := range commonCityAliases {
		if strings.Contains(textLower, entry.alias) {
			return entry.canonical, true
		}
	}

	if city, code, ok := extractCityCountry(text); ok {
		if code != "" {
			if name, known := isoToSpanishName[code]; known {
				return city + ", " + name, true
			}
			return city + ", " + code, true
		}
		return city, true
	}

	if m := genericPairPattern.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1]) + ", " + strings.TrimSpace(m[2]), true
	}

	return "", false
}

// extractCityCountry looks for structured cues ("viajar a X, Y", "destino: X, Y")
// and resolves the country part against the name table. A match whose country is
// unknown still returns the city with an empty code.
func extractCityCountry(text string) (city, countryCode string, ok bool) {
	m := cuePairPattern.FindStringSubmatch(text)
	if m == nil {
		return "", "", false
	}
	city = strings.TrimSpace(m[1])
	countryName := strings.TrimSpace(m[2])
	if code, known := countryNameToISO[strings.ToLower(countryName)]; known {
		return city, code, true
	}
	return city, "", true
}
