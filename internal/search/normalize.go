// Package search holds the text-normalization and year-range primitives
// shared by the query builder and the similarity suggestion logic.
package search

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// accentTable maps accented characters to their plain form. The same table
// drives the SQL-side normalization in NormalizeExpr, so both code paths
// fold identically; keep the two in sync when extending it.
var accentTable = []struct {
	From string
	To   string
}{
	{"á", "a"}, {"à", "a"}, {"â", "a"}, {"ã", "a"}, {"ä", "a"}, {"å", "a"},
	{"æ", "ae"},
	{"ç", "c"},
	{"é", "e"}, {"è", "e"}, {"ê", "e"}, {"ë", "e"},
	{"í", "i"}, {"ì", "i"}, {"î", "i"}, {"ï", "i"},
	{"ó", "o"}, {"ò", "o"}, {"ô", "o"}, {"õ", "o"}, {"ö", "o"}, {"ø", "o"},
	{"œ", "oe"},
	{"ú", "u"}, {"ù", "u"}, {"û", "u"}, {"ü", "u"},
	{"ñ", "n"},
	{"ý", "y"}, {"ÿ", "y"},
}

// stripped are the literal characters removed after case/accent folding.
var stripped = []string{".", "-", ",", " "}

var (
	// NFD then drop combining marks. Covers every decomposable character in
	// accentTable; the ligature replacer below covers the rest (æ, œ, ø).
	foldMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

	ligatures = strings.NewReplacer("æ", "ae", "œ", "oe", "ø", "o")
	stripper  = strings.NewReplacer(".", "", "-", "", ",", "", " ", "")
)

// Normalize canonicalizes free text for comparison: lowercase, diacritics
// stripped, then ".", "-", "," and spaces removed. Total function; empty
// input yields "".
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ToLower(s)
	if folded, _, err := transform.String(foldMarks, s); err == nil {
		s = folded
	}
	s = ligatures.Replace(s)
	return stripper.Replace(s)
}

// NormalizeExpr renders the same normalization as a SQLite expression over
// the given column: chained replace() calls around lower(). SQLite's LIKE
// and lower() are not Unicode-aware, hence the explicit substitution table.
func NormalizeExpr(column string) string {
	expr := fmt.Sprintf("lower(%s)", column)
	for _, sub := range accentTable {
		expr = fmt.Sprintf("replace(%s, '%s', '%s')", expr, sub.From, sub.To)
	}
	for _, ch := range stripped {
		expr = fmt.Sprintf("replace(%s, '%s', '')", expr, ch)
	}
	return expr
}

// AccentTable exposes the substitution table for equivalence tests between
// Normalize and NormalizeExpr.
func AccentTable() []struct{ From, To string } {
	out := make([]struct{ From, To string }, len(accentTable))
	for i, sub := range accentTable {
		out[i] = struct{ From, To string }{sub.From, sub.To}
	}
	return out
}
