package glob

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	// MaxExpansions caps the number of patterns one source may expand into
	MaxExpansions = 4096
	// maxGlobstars caps whole-segment ** occurrences rewritten per pattern
	maxGlobstars = 8
)

// ErrTooManyExpansions is returned when brace expansion exceeds MaxExpansions
var ErrTooManyExpansions = errors.New("too many brace expansions")

// Expand performs brace expansion on pattern.
//
// Supported forms:
//
//	{a,b,c}        alternatives, nested braces allowed
//	{1..5}         numeric sequence
//	{01..10}       zero-padded numeric sequence
//	{1..9..2}      sequence with step
//	{a..e}         character sequence
//
// Braces that are not a valid alternative list or sequence are kept
// literally. The result preserves left-to-right order.
func Expand(pattern string) ([]string, error) {
	return expand(pattern)
}

func expand(s string) ([]string, error) {
	from := 0
	for {
		open, end, ok := nextBrace(s, from)
		if !ok {
			return []string{s}, nil
		}

		body := s[open+1 : end]
		alts, nested := alternatives(body)
		if alts == nil {
			alts = sequence(body)
			nested = false
		}
		if alts == nil {
			// Literal brace, keep scanning after it
			from = open + 1
			continue
		}

		suffixes, err := expand(s[end+1:])
		if err != nil {
			return nil, err
		}

		prefix := s[:open]
		out := make([]string, 0, len(alts)*len(suffixes))
		for _, alt := range alts {
			expanded := []string{alt}
			if nested {
				if expanded, err = expand(alt); err != nil {
					return nil, err
				}
			}
			for _, e := range expanded {
				for _, suffix := range suffixes {
					if len(out) >= MaxExpansions {
						return nil, fmt.Errorf("%w: limit %d", ErrTooManyExpansions, MaxExpansions)
					}
					out = append(out, prefix+e+suffix)
				}
			}
		}
		return out, nil
	}
}

// nextBrace finds the first unescaped '{' at or after from that has a
// matching '}', returning both offsets
func nextBrace(s string, from int) (int, int, bool) {
	for i := from; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '{':
			if end := matchingBrace(s, i); end >= 0 {
				return i, end, true
			}
		}
	}
	return 0, 0, false
}

func matchingBrace(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// alternatives splits a brace body on top-level commas.
// Returns nil when the body holds no top-level comma.
func alternatives(body string) ([]string, bool) {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(body); i++ {
		switch body[i] {
		case '\\':
			i++
		case '{':
			depth++
		case '}':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, body[start:i])
				start = i + 1
			}
		}
	}
	if parts == nil {
		return nil, false
	}
	return append(parts, body[start:]), true
}

// sequence expands x..y and x..y..step bodies.
// Returns nil for anything else, or for sequences longer than MaxExpansions.
func sequence(body string) []string {
	parts := strings.Split(body, "..")
	if len(parts) != 2 && len(parts) != 3 {
		return nil
	}

	step := 1
	if len(parts) == 3 {
		n, err := strconv.Atoi(parts[2])
		if err != nil {
			return nil
		}
		if n < 0 {
			n = -n
		}
		if n < 0 {
			return nil
		}
		if n != 0 {
			step = n
		}
	}

	if lo, err := strconv.Atoi(parts[0]); err == nil {
		hi, err := strconv.Atoi(parts[1])
		if err != nil {
			return nil
		}
		width := 0
		if zeroPadded(parts[0]) || zeroPadded(parts[1]) {
			width = max(len(parts[0]), len(parts[1]))
		}
		return numericSequence(lo, hi, step, width)
	}

	lo, hi := []rune(parts[0]), []rune(parts[1])
	if len(lo) != 1 || len(hi) != 1 {
		return nil
	}
	return runeSequence(lo[0], hi[0], step)
}

func zeroPadded(s string) bool {
	s = strings.TrimPrefix(s, "-")
	return len(s) > 1 && s[0] == '0'
}

// sequenceLen returns the number of items from lo to hi, or 0 when the
// sequence would exceed MaxExpansions
func sequenceLen(lo, hi, step int) int {
	var span uint64
	if hi >= lo {
		span = uint64(hi) - uint64(lo)
	} else {
		span = uint64(lo) - uint64(hi)
	}
	n := span/uint64(step) + 1
	if n == 0 || n > MaxExpansions {
		return 0
	}
	return int(n)
}

func numericSequence(lo, hi, step, width int) []string {
	n := sequenceLen(lo, hi, step)
	if n <= 0 {
		return nil
	}
	if lo > hi {
		step = -step
	}

	out := make([]string, 0, n)
	for i, v := 0, lo; i < n; i, v = i+1, v+step {
		if width > 0 {
			out = append(out, fmt.Sprintf("%0*d", width, v))
		} else {
			out = append(out, strconv.Itoa(v))
		}
	}
	return out
}

func runeSequence(lo, hi rune, step int) []string {
	n := sequenceLen(int(lo), int(hi), step)
	if n <= 0 {
		return nil
	}
	if lo > hi {
		step = -step
	}

	out := make([]string, 0, n)
	for i, r := 0, lo; i < n; i, r = i+1, r+rune(step) {
		out = append(out, string(r))
	}
	return out
}

// escapeBraces escapes braces left over after expansion so engines with
// native alternative syntax treat them literally
func escapeBraces(s string) string {
	if !strings.ContainsAny(s, "{}") {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 4)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '\\':
			b.WriteByte(c)
			if i+1 < len(s) {
				i++
				b.WriteByte(s[i])
			}
			continue
		case '{', '}':
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}
	return b.String()
}

// globstarVariants rewrites a slash-separated pattern for engines whose **
// always consumes at least the surrounding separators. Every whole-segment
// ** yields a variant with that segment removed, so /a/**/b also matches
// /a/b. A ** that shares its segment with other characters is collapsed to *.
func globstarVariants(pattern string) []string {
	raw := strings.Split(pattern, "/")
	segments := make([]string, 0, len(raw))
	for _, seg := range raw {
		if seg == "**" {
			// Adjacent globstars are equivalent to one
			if n := len(segments); n > 0 && segments[n-1] == "**" {
				continue
			}
			segments = append(segments, seg)
			continue
		}
		segments = append(segments, collapseStars(seg))
	}

	var stars []int
	for i, seg := range segments {
		if seg == "**" {
			stars = append(stars, i)
		}
	}
	if len(stars) == 0 || len(segments) == 1 || len(stars) > maxGlobstars {
		return []string{strings.Join(segments, "/")}
	}

	seen := make(map[string]struct{}, 1<<len(stars))
	variants := make([]string, 0, 1<<len(stars))
	for mask := 0; mask < 1<<len(stars); mask++ {
		kept := make([]string, 0, len(segments))
		j := 0
		for i, seg := range segments {
			if j < len(stars) && stars[j] == i {
				dropped := mask&(1<<j) != 0
				j++
				if dropped {
					continue
				}
			}
			kept = append(kept, seg)
		}

		v := strings.Join(kept, "/")
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		variants = append(variants, v)
	}
	return variants
}

// collapseStars replaces unescaped runs of '*' with a single '*'
func collapseStars(seg string) string {
	if !strings.Contains(seg, "**") {
		return seg
	}

	var b strings.Builder
	b.Grow(len(seg))
	for i := 0; i < len(seg); i++ {
		c := seg[i]
		if c == '\\' && i+1 < len(seg) {
			b.WriteByte(c)
			i++
			b.WriteByte(seg[i])
			continue
		}
		if c == '*' && i > 0 && seg[i-1] == '*' && (i < 2 || seg[i-2] != '\\') {
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}
