package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeValue(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   any
		want any
	}{
		{"px stripped", "80px", "80"},
		{"pt stripped", "12pt", "12"},
		{"negative px stripped", "-4px", "-4"},
		{"decimal px stripped", "1.5px", "1.5"},
		{"percent preserved", "100%", "100%"},
		{"vw preserved", "50vw", "50vw"},
		{"vh preserved", "100vh", "100vh"},
		{"em preserved", "1.2em", "1.2em"},
		{"rem preserved", "2rem", "2rem"},
		{"bare number string", "42", "42"},
		{"keyword auto", "auto", "auto"},
		{"keyword none", "none", "none"},
		{"keyword inherit", "inherit", "inherit"},
		{"keyword normal", "normal", "normal"},
		{"url preserved", "url(https://example.com/bg.png)", "url(https://example.com/bg.png)"},
		{"scheme preserved", "https://example.com/bg.png", "https://example.com/bg.png"},
		{"grid fr preserved", "1fr", "1fr"},
		{"grid repeat preserved", "repeat(3, 1fr)", "repeat(3, 1fr)"},
		{"grid minmax preserved", "minmax(0, 1fr)", "minmax(0, 1fr)"},
		{"calc preserved", "calc(100% - 40px)", "calc(100% - 40px)"},
		{"two token numeric truncated", "15 40", "15"},
		{"two token with unit truncated", "15px 40px", "15"},
		{"non numeric multi token kept", "1px solid red", "1px solid red"},
		{"int passes", 80, 80},
		{"float passes", 1.5, 1.5},
		{"whitespace trimmed", "  80px ", "80"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, SanitizeValue(tc.in))
		})
	}
}
