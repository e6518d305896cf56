package search

import "testing"

func TestParseYearRange(t *testing.T) {
	cases := []struct {
		in   string
		want YearRange
		ok   bool
	}{
		{"2012", YearRange{2012, 2012}, true},
		{" 2012 ", YearRange{2012, 2012}, true},
		{"2010/2015", YearRange{2010, 2015}, true},
		{"2015/2010", YearRange{2010, 2015}, true},
		{"2010/ 2015", YearRange{2010, 2015}, true},
		{"2018/...", YearRange{2018, AnoAberto}, true},
		{"2018/", YearRange{2018, AnoAberto}, true},
		{".../2015", YearRange{0, 2015}, true},
		{"/2015", YearRange{0, 2015}, true},
		{"", YearRange{}, false},
		{"   ", YearRange{}, false},
		{"abc", YearRange{}, false},
		{"2010/abc", YearRange{}, false},
		{"abc/...", YearRange{}, false},
		{".../abc", YearRange{}, false},
	}

	for _, tc := range cases {
		got, ok := ParseYearRange(tc.in)
		if ok != tc.ok {
			t.Errorf("ParseYearRange(%q) ok = %v, want %v", tc.in, ok, tc.ok)
			continue
		}
		if ok && got != tc.want {
			t.Errorf("ParseYearRange(%q) = %+v, want %+v", tc.in, got, tc.want)
		}
	}
}

func TestOverlaps(t *testing.T) {
	cases := []struct {
		a, b YearRange
		want bool
	}{
		{YearRange{2010, 2015}, YearRange{2012, 2018}, true},
		{YearRange{2010, 2015}, YearRange{2015, 2018}, true}, // touching edges count
		{YearRange{2010, 2015}, YearRange{2016, 2018}, false},
		{YearRange{2012, 2012}, YearRange{2010, 2015}, true},
		{YearRange{2018, AnoAberto}, YearRange{2025, 2026}, true},
		{YearRange{0, 2015}, YearRange{1999, 2001}, true},
		{YearRange{2018, AnoAberto}, YearRange{0, 2017}, false},
	}

	for _, tc := range cases {
		if got := tc.a.Overlaps(tc.b); got != tc.want {
			t.Errorf("%+v.Overlaps(%+v) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
		// Symmetry.
		if got := tc.b.Overlaps(tc.a); got != tc.want {
			t.Errorf("%+v.Overlaps(%+v) = %v, want %v", tc.b, tc.a, got, tc.want)
		}
	}
}
