// Package shortcode derives stable short identifiers from human-readable names.
// The same name always produces the same code, across calls and process
// restarts, so codes can be regenerated for legacy rows at any time.
// No state, no randomness - the only inputs are the name itself.
package shortcode

import (
	"crypto/md5"
	"errors"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrEmptyName is returned when the name is empty or whitespace-only.
	ErrEmptyName = errors.New("shortcode: name is empty")
)

// codePattern matches a valid code: exactly 4 uppercase letters + 5 digits.
var codePattern = regexp.MustCompile(`^[A-Z]{4}[0-9]{5}$`)

// stripAccents removes Unicode combining marks after NFD decomposition,
// turning e.g. "Matemática" into "Matematica".
var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// ══════════════════════════════════════════════════════════════════════════════
// GENERATION
// ══════════════════════════════════════════════════════════════════════════════

// Generate derives a 9-character code (4 letters + 5 digits) from a name.
//
// The letter prefix comes from the normalized name: with two or more words,
// the first letter of the first word plus the first three letters of the
// second; with a single word, its first four letters. Digits never enter the
// prefix: each word contributes its letters only, and words without letters
// are skipped, so "4 Horas de Estudo" reads as "Horas de Estudo" for prefix
// purposes. Short prefixes are right-padded with 'X'; a name with no letters
// at all gets the all-'X' prefix.
//
// The digit suffix comes from the MD5 digest of the trimmed, lower-cased
// original name: the first 16 bits, mapped into the range 10000-99999.
//
// Generate does NOT guarantee global uniqueness: each prefix bucket only has
// 90000 possible suffixes, so distinct names can collide. The owning store
// must treat a collision on insert as a conflict; there is no renumbering.
func Generate(name string) (string, error) {
	normalized := normalize(name)
	tokens := strings.Fields(normalized)
	if len(tokens) == 0 {
		return "", ErrEmptyName
	}

	letters := letterTokens(tokens)

	var prefix string
	switch {
	case len(letters) >= 2:
		prefix = firstN(letters[0], 1) + firstN(letters[1], 3)
	case len(letters) == 1:
		prefix = firstN(letters[0], 4)
	}
	for len(prefix) < 4 {
		prefix += "X"
	}

	// The hash is computed over the original name (trimmed, lower-cased),
	// not the normalized one, so accents still influence the suffix.
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(name))))
	h := uint32(sum[0])<<8 | uint32(sum[1]) // first 4 hex digits as a 16-bit int
	suffix := h%90000 + 10000

	return prefix + itoa5(suffix), nil
}

// IsValid reports whether code matches the generated format. It validates the
// shape only; it never re-derives the code from a name.
func IsValid(code string) bool {
	return codePattern.MatchString(code)
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// normalize strips accents, removes everything outside [A-Za-z0-9 ],
// upper-cases and collapses whitespace.
func normalize(name string) string {
	decomposed, _, err := transform.String(stripAccents, name)
	if err != nil {
		// transform.String only fails on malformed UTF-8; fall back to
		// the raw input so the ASCII filter below still applies.
		decomposed = name
	}

	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(unicode.ToUpper(r))
		case (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == ' ':
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// letterTokens strips the digits out of each token and drops tokens left
// empty. The inputs are already normalized, so only [A-Z0-9] occurs.
func letterTokens(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		var b strings.Builder
		for _, r := range tok {
			if r >= 'A' && r <= 'Z' {
				b.WriteRune(r)
			}
		}
		if b.Len() > 0 {
			out = append(out, b.String())
		}
	}
	return out
}

func firstN(s string, n int) string {
	if len(s) < n {
		return s
	}
	return s[:n]
}

// itoa5 formats v as exactly 5 digits. v is always in [10000, 99999].
func itoa5(v uint32) string {
	buf := [5]byte{}
	for i := 4; i >= 0; i-- {
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[:])
}
