package search

import (
	"strconv"
	"strings"
)

// AnoAberto is the upper bound used for open-ended ranges ("2018/...").
const AnoAberto = 9999

// YearRange is a closed interval of production years.
type YearRange struct {
	Inicio int
	Fim    int
}

// ParseYearRange converts a free-form year string into a closed interval.
// Accepted forms: "2012", "2010/2015" (order-independent), "2018/..." or
// "2018/" (open upper bound), ".../2015" or "/2015" (open lower bound).
// Returns ok=false for blank or malformed input; it never fails loudly
// because the field carries heterogeneous legacy data.
func ParseYearRange(s string) (YearRange, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return YearRange{}, false
	}

	switch {
	case strings.HasSuffix(s, "/...") || strings.HasSuffix(s, "/"):
		inicio, err := parseYear(strings.Split(s, "/")[0])
		if err != nil {
			return YearRange{}, false
		}
		return YearRange{Inicio: inicio, Fim: AnoAberto}, true

	case strings.HasPrefix(s, ".../") || strings.HasPrefix(s, "/"):
		parts := strings.Split(s, "/")
		if len(parts) < 2 {
			return YearRange{}, false
		}
		fim, err := parseYear(parts[1])
		if err != nil {
			return YearRange{}, false
		}
		return YearRange{Inicio: 0, Fim: fim}, true

	case strings.Contains(s, "/"):
		parts := strings.Split(s, "/")
		a, errA := parseYear(parts[0])
		b, errB := parseYear(parts[1])
		if errA != nil || errB != nil {
			return YearRange{}, false
		}
		if a > b {
			a, b = b, a
		}
		return YearRange{Inicio: a, Fim: b}, true

	default:
		ano, err := parseYear(s)
		if err != nil {
			return YearRange{}, false
		}
		return YearRange{Inicio: ano, Fim: ano}, true
	}
}

// Overlaps reports whether the two closed intervals intersect. Pure and
// symmetric; callers must have excluded unparseable ranges already.
func (r YearRange) Overlaps(o YearRange) bool {
	return r.Inicio <= o.Fim && o.Inicio <= r.Fim
}

func parseYear(s string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(s))
}
