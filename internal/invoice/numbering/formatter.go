package numbering

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	seqTokenRe = regexp.MustCompile(`\{SEQ(\d*)\}`)
)

const (
	DefaultTemplate = "{PREFIX}-{ABBR}-{YY}{MM}-{SEQ}"
	DefaultPrefix   = "FD"
	MinWidth        = 3
)

// Tokens are the per-invoice values substituted into a number template.
type Tokens struct {
	Prefix   string
	Abbr     string
	IssuedAt time.Time
	// Width pads a bare {SEQ}. Values below MinWidth are raised to it so
	// lexicographic and numeric order agree for typical volumes.
	Width int
}

// YearMonth renders the two-digit year and month, e.g. "2601".
func YearMonth(t time.Time) string {
	return t.Format("0601")
}

// FormatInvoiceNumber renders a template for a given sequence value. It is
// pure: the same inputs always give the same number.
func FormatInvoiceNumber(template string, t Tokens, seq int64) (string, error) {
	if seq <= 0 {
		return "", fmt.Errorf("invalid invoice sequence: %d", seq)
	}
	head, err := SearchPrefix(template, t)
	if err != nil {
		return "", err
	}
	width := t.Width
	if m := seqTokenRe.FindStringSubmatch(template); len(m) == 2 && m[1] != "" {
		width, _ = strconv.Atoi(m[1])
	}
	if width < MinWidth {
		width = MinWidth
	}
	return head + fmt.Sprintf("%0*d", width, seq), nil
}

// SearchPrefix renders everything in the template before the sequence
// token, e.g. "FD-ABC-2601-". Templates must end with the sequence token so
// that every number of a series shares this prefix.
func SearchPrefix(template string, t Tokens) (string, error) {
	if strings.TrimSpace(template) == "" {
		return "", fmt.Errorf("invoice number template is empty")
	}
	loc := seqTokenRe.FindStringIndex(template)
	if loc == nil {
		return "", fmt.Errorf("invoice number template has no sequence token: %s", template)
	}
	if loc[1] != len(template) {
		return "", fmt.Errorf("invoice number template must end with the sequence token: %s", template)
	}

	out := template[:loc[0]]
	out = strings.ReplaceAll(out, "{PREFIX}", t.Prefix)
	out = strings.ReplaceAll(out, "{ABBR}", t.Abbr)
	out = strings.ReplaceAll(out, "{YYYY}", t.IssuedAt.Format("2006"))
	out = strings.ReplaceAll(out, "{YY}", t.IssuedAt.Format("06"))
	out = strings.ReplaceAll(out, "{MM}", t.IssuedAt.Format("01"))
	out = strings.ReplaceAll(out, "{DD}", t.IssuedAt.Format("02"))

	if strings.Contains(out, "{") || strings.Contains(out, "}") {
		return "", fmt.Errorf("unresolved token in invoice format: %s", out)
	}
	return out, nil
}

// ParseSequence reads the sequence of an existing number: the last
// "-"-separated segment as an integer, or 0 when it is not numeric.
func ParseSequence(number string) int64 {
	idx := strings.LastIndex(number, "-")
	segment := number[idx+1:]
	seq, err := strconv.ParseInt(segment, 10, 64)
	if err != nil || seq < 0 {
		return 0
	}
	return seq
}
