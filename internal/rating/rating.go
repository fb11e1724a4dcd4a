// Package rating turns scraped star-rating text such as "4.5 out of 5 stars"
// into numeric scores.
package rating

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"
)

// Score is a parsed rating or the unparseable marker. The zero value is
// Unparseable.
type Score struct {
	value float64
	valid bool
}

var Unparseable = Score{}

func Value(v float64) Score { return Score{value: v, valid: true} }

// FromPtr maps nil to Unparseable.
func FromPtr(v *float64) Score {
	if v == nil {
		return Unparseable
	}
	return Value(*v)
}

func (s Score) Valid() bool { return s.valid }

func (s Score) Float() (float64, bool) { return s.value, s.valid }

func (s Score) Ptr() *float64 {
	if !s.valid {
		return nil
	}
	v := s.value
	return &v
}

func (s Score) String() string {
	if !s.valid {
		return "unparseable"
	}
	return strconv.FormatFloat(s.value, 'f', -1, 64)
}

func (s Score) MarshalJSON() ([]byte, error) {
	if !s.valid {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(s.value, 'f', -1, 64)), nil
}

func (s *Score) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*s = Unparseable
		return nil
	}
	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return err
	}
	*s = Value(v)
	return nil
}

// ParseFunc converts one rating text into a Score. It never fails; text it
// cannot read yields Unparseable.
type ParseFunc func(raw string) Score

// Parse reads ratings shaped like "4.5 out of 5 stars" or "4 out of 5".
// Text containing a '.' is read as the first two digits of the whole string
// divided by ten; otherwise the first character is taken as a single digit.
// "10 out of 10" and comma-decimal locales are misread; see ParseStrict.
func Parse(raw string) Score {
	if strings.Contains(raw, ".") {
		digits := make([]byte, 0, 2)
		for i := 0; i < len(raw) && len(digits) < 2; i++ {
			if isDigit(raw[i]) {
				digits = append(digits, raw[i])
			}
		}
		if len(digits) == 0 {
			return Unparseable
		}
		n, err := strconv.Atoi(string(digits))
		if err != nil {
			return Unparseable
		}
		return Value(float64(n) / 10)
	}
	if raw == "" || !isDigit(raw[0]) {
		return Unparseable
	}
	return Value(float64(raw[0] - '0'))
}

var strictRe = regexp.MustCompile(`(?i)^(\d)(?:\.(\d))?\s+out\s+of\s+5(?:\s+stars?)?$`)

// ParseStrict accepts only "D out of 5" and "D.D out of 5" (optionally
// followed by "stars") with a value in [0, 5].
func ParseStrict(raw string) Score {
	m := strictRe.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return Unparseable
	}
	v := float64(m[1][0] - '0')
	if m[2] != "" {
		v += float64(m[2][0]-'0') / 10
	}
	if v > 5 {
		return Unparseable
	}
	return Value(v)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
