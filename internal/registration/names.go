package registration

import (
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NameFromFile derives a person name from an image file name: the extension
// is dropped, underscores become spaces and every word is title-cased
// (e.g., "ana_maria.jpg" -> "Ana Maria").
func NameFromFile(path string) string {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	stem = strings.ReplaceAll(stem, "_", " ")
	stem = strings.Join(strings.Fields(stem), " ")
	return cases.Title(language.Und).String(norm.NFC.String(stem))
}

// removeDiacritics removes diacritical marks from a string (e.g., "João" -> "Joao").
func removeDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

// normalizeName folds a name for comparison (lowercase, no diacritics, spaces for dashes).
func normalizeName(name string) string {
	name = removeDiacritics(name)
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, "-", " ")
	return strings.Join(strings.Fields(name), " ")
}

// SameName reports whether two person names refer to the same registration.
func SameName(a, b string) bool {
	return normalizeName(a) == normalizeName(b)
}
