package resizecache

import (
	"strings"
	"unicode"
)

// Request is a parsed resize request. Build one with ParseRequest or
// Validate; the zero Width or Height means "derive from the other side".
type Request struct {
	OriginalPath string
	Width        int
	Height       int
}

// ParseRequest never fails: dimensions that are absent, non-numeric or
// negative become 0. Parsing takes the leading decimal digits, so "120px"
// reads as 120.
func ParseRequest(originalPath, widthRaw, heightRaw string) Request {
	return Request{
		OriginalPath: originalPath,
		Width:        parseDimension(widthRaw),
		Height:       parseDimension(heightRaw),
	}
}

// Validate parses the raw input and checks it against MaxDimension.
func Validate(originalPath, widthRaw, heightRaw string) (Request, error) {
	req := ParseRequest(originalPath, widthRaw, heightRaw)
	if err := req.Validate(MaxDimension); err != nil {
		return Request{}, err
	}
	return req, nil
}

// Validate checks req against max (<=0 means MaxDimension). The error is a
// *ValidationError.
func (req Request) Validate(max int) error {
	if max <= 0 {
		max = MaxDimension
	}
	switch {
	case req.OriginalPath == "":
		return &ValidationError{Reason: ErrMissingPath}
	case req.Width <= 0 && req.Height <= 0:
		return &ValidationError{Reason: ErrNoDimension}
	case req.Width > max || req.Height > max:
		return &ValidationError{Reason: ErrDimensionTooLarge, Max: max}
	}
	return nil
}

// parseDimension mirrors a lenient parseInt: optional leading whitespace
// (Unicode spaces and the BOM included) and sign, then as many digits as
// follow. Anything unparsable or negative is 0. Values saturate instead of
// overflowing.
func parseDimension(s string) int {
	s = strings.TrimLeftFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == '\uFEFF'
	})
	i := 0
	neg := false
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		neg = s[i] == '-'
		i++
	}
	const limit = 1 << 30
	n := 0
	digits := 0
	for ; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
		if n < limit {
			n = n*10 + int(s[i]-'0')
		}
		digits++
	}
	if digits == 0 || neg {
		return 0
	}
	return min(n, limit)
}
