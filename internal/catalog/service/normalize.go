package service

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var lowerFrench = cases.Lower(language.French)

// foldKey compares categories ignoring case, accents and spacing:
// "Électricité " and "electricite" share a key.
func foldKey(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, strings.Join(strings.Fields(s), " "))
	if err != nil {
		folded = s
	}
	return lowerFrench.String(folded)
}

// canonicalCategory reuses the spelling of an existing category when one
// folds to the same key.
func canonicalCategory(name string, existing []string) string {
	name = strings.Join(strings.Fields(name), " ")
	key := foldKey(name)
	for _, e := range existing {
		if foldKey(e) == key {
			return e
		}
	}
	return name
}
