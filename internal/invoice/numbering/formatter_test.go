package numbering

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestYearMonth(t *testing.T) {
	assert.Equal(t, "2601", YearMonth(time.Date(2026, time.January, 31, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2512", YearMonth(time.Date(2025, time.December, 1, 0, 0, 0, 0, time.UTC)))
}

func TestFormatInvoiceNumber(t *testing.T) {
	tokens := Tokens{
		Prefix:   DefaultPrefix,
		Abbr:     "ABC",
		IssuedAt: time.Date(2026, time.January, 10, 0, 0, 0, 0, time.UTC),
		Width:    3,
	}

	got, err := FormatInvoiceNumber(DefaultTemplate, tokens, 3)
	require.NoError(t, err)
	assert.Equal(t, "FD-ABC-2601-003", got)

	got, err = FormatInvoiceNumber(DefaultTemplate, tokens, 1)
	require.NoError(t, err)
	assert.Equal(t, "FD-ABC-2601-001", got)

	got, err = FormatInvoiceNumber(DefaultTemplate, tokens, 1234)
	require.NoError(t, err)
	assert.Equal(t, "FD-ABC-2601-1234", got)

	got, err = FormatInvoiceNumber("INV-{YYYY}{MM}{DD}-{SEQ5}", tokens, 42)
	require.NoError(t, err)
	assert.Equal(t, "INV-20260110-00042", got)
}

func TestFormatInvoiceNumberWidthFloor(t *testing.T) {
	tokens := Tokens{Prefix: "FD", Abbr: "X", IssuedAt: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), Width: 1}
	got, err := FormatInvoiceNumber(DefaultTemplate, tokens, 7)
	require.NoError(t, err)
	assert.Equal(t, "FD-X-2602-007", got)

	tokens.Width = 5
	got, err = FormatInvoiceNumber(DefaultTemplate, tokens, 7)
	require.NoError(t, err)
	assert.Equal(t, "FD-X-2602-00007", got)
}

func TestFormatInvoiceNumberErrors(t *testing.T) {
	tokens := Tokens{Prefix: "FD", Abbr: "ABC", IssuedAt: time.Now()}

	_, err := FormatInvoiceNumber(DefaultTemplate, tokens, 0)
	assert.Error(t, err)

	_, err = FormatInvoiceNumber("", tokens, 1)
	assert.Error(t, err)

	_, err = FormatInvoiceNumber("{PREFIX}-{ABBR}", tokens, 1)
	assert.Error(t, err)

	_, err = FormatInvoiceNumber("{SEQ}-{PREFIX}", tokens, 1)
	assert.Error(t, err)

	_, err = FormatInvoiceNumber("{UNKNOWN}-{SEQ}", tokens, 1)
	assert.Error(t, err)
}

func TestSearchPrefix(t *testing.T) {
	got, err := SearchPrefix(DefaultTemplate, Tokens{
		Prefix:   "FD",
		Abbr:     "ABC",
		IssuedAt: time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, "FD-ABC-2601-", got)
}

func TestParseSequence(t *testing.T) {
	assert.Equal(t, int64(2), ParseSequence("FD-ABC-2601-002"))
	assert.Equal(t, int64(120), ParseSequence("FD-ABC-2601-120"))
	assert.Equal(t, int64(0), ParseSequence("FD-ABC-2601-x1"))
	assert.Equal(t, int64(0), ParseSequence("FD-ABC-2601-"))
	assert.Equal(t, int64(15), ParseSequence("15"))
}
