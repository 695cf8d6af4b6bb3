package numbering

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAbbreviate(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{name: "single word first four letters", in: "Arshaq", want: "ARSH"},
		{name: "single word camel case", in: "FocalDive", want: "FOCA"},
		{name: "short single word", in: "Ab", want: "AB"},
		{name: "single word strips non letters", in: "K-9 ", want: "K"},
		{name: "single word with trailing dot", in: "Ltd.", want: "LTD"},
		{name: "single word without letters", in: "123", want: PlaceholderAbbreviation},
		{name: "initials", in: "Zigzag Car Wash", want: "ZCW"},
		{name: "initials truncated to four", in: "Alpha Beta Gamma Delta Epsilon", want: "ABGD"},
		{name: "stop words removed", in: "The Bank of Ceylon", want: "BC"},
		{name: "stop words case insensitive", in: "ACME Pvt Ltd", want: "ACME"},
		{name: "stop word in parentheses is kept", in: "FocalDive (Pvt) Ltd", want: "F("},
		{name: "stop word with dot is kept", in: "ABC Co.", want: "AC"},
		{name: "digit initial", in: "7 Eleven", want: "7E"},
		{name: "digit led word", in: "3M Lanka", want: "3L"},
		{name: "symbol token", in: "Smith & Sons", want: "S&S"},
		{name: "all stop words", in: "Pvt Ltd Co", want: PlaceholderAbbreviation},
		{name: "empty", in: "   ", want: PlaceholderAbbreviation},
		{name: "lowercase initials", in: "blue ocean labs", want: "BOL"},
		{name: "extra whitespace", in: "  Sun   Rise  ", want: "SR"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Abbreviate(tc.in))
		})
	}
}

func TestAbbreviateIsDeterministic(t *testing.T) {
	for _, name := range []string{"Zigzag Car Wash", "Arshaq", "Pvt Ltd Co"} {
		assert.Equal(t, Abbreviate(name), Abbreviate(name))
	}
}
