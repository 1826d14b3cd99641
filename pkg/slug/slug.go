package slug

import (
	"regexp"
	"strings"
)

var slugRegexp = regexp.MustCompile(`[^a-z0-9]+`)

// Accented Latin letters seen in cosmetics product names, folded to ASCII.
var transliterator = strings.NewReplacer(
	"à", "a", "á", "a", "â", "a", "ä", "a", "ã", "a", "å", "a",
	"ç", "c",
	"è", "e", "é", "e", "ê", "e", "ë", "e",
	"ì", "i", "í", "i", "î", "i", "ï", "i", "ı", "i",
	"ñ", "n",
	"ò", "o", "ó", "o", "ô", "o", "ö", "o", "õ", "o", "ø", "o",
	"ù", "u", "ú", "u", "û", "u", "ü", "u",
	"ğ", "g", "ş", "s", "ß", "ss", "æ", "ae", "œ", "oe",
	"&", " and ",
)

// Generate creates a URL-friendly slug from the given name.
//
// Examples:
//   - "Crème Brûlée Lip Balm" → "creme-brulee-lip-balm"
//   - "Kumkumadi Face Oil (30ml)" → "kumkumadi-face-oil-30ml"
//   - "Aloe & Vera" → "aloe-and-vera"
func Generate(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = transliterator.Replace(s)
	s = slugRegexp.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
