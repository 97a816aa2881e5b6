package sqltool

import (
	"errors"
	"fmt"
	"strings"
)

// ErrWriteStatement is returned when a statement contains a data-modifying
// keyword. Callers surface it as a policy-violation result rather than an
// execution failure.
var ErrWriteStatement = errors.New("data-modifying statements are not permitted")

// ErrMultipleStatements is returned when the input carries anything beyond a
// single statement. Batched input could smuggle a write past the keyword
// check, so it is refused outright.
var ErrMultipleStatements = errors.New("multiple SQL statements are not permitted")

var writeKeywords = map[string]struct{}{
	"INSERT":   {},
	"UPDATE":   {},
	"DELETE":   {},
	"DROP":     {},
	"ALTER":    {},
	"CREATE":   {},
	"TRUNCATE": {},
	"REPLACE":  {},
}

// CheckReadOnly rejects statements that contain write-intent keywords and
// input that batches more than one statement. The scan handles quoting and
// comments in a single pass: quoted spans are consumed before comment
// markers are considered, so a "--" or "/*" inside a string literal can
// never hide the text that follows it. Keywords are matched as whole
// tokens, case-insensitively; a trailing semicolon is allowed, anything
// other than whitespace or comments after it is not.
func CheckReadOnly(query string) error {
	var current strings.Builder
	terminated := false

	checkToken := func() error {
		if current.Len() == 0 {
			return nil
		}
		tok := strings.ToUpper(current.String())
		current.Reset()
		if _, banned := writeKeywords[tok]; banned {
			return fmt.Errorf("%w: %s", ErrWriteStatement, tok)
		}
		return nil
	}

	i := 0
	for i < len(query) {
		c := query[i]
		switch {
		case c == '\'' || c == '"' || c == '`':
			if err := checkToken(); err != nil {
				return err
			}
			if terminated {
				return ErrMultipleStatements
			}
			i = skipQuoted(query, i, c)
		case strings.HasPrefix(query[i:], "--"):
			if err := checkToken(); err != nil {
				return err
			}
			for i < len(query) && query[i] != '\n' {
				i++
			}
		case strings.HasPrefix(query[i:], "/*"):
			if err := checkToken(); err != nil {
				return err
			}
			end := strings.Index(query[i+2:], "*/")
			if end < 0 {
				i = len(query)
			} else {
				i += 2 + end + 2
			}
		case c == ';':
			if err := checkToken(); err != nil {
				return err
			}
			terminated = true
			i++
		case isIdentChar(c):
			if terminated {
				return ErrMultipleStatements
			}
			current.WriteByte(c)
			i++
		default:
			if err := checkToken(); err != nil {
				return err
			}
			if terminated && !isSpace(c) {
				return ErrMultipleStatements
			}
			i++
		}
	}
	return checkToken()
}

func isIdentChar(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9') ||
		c >= 0x80 // multi-byte runes belong to identifiers, never keywords
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// skipQuoted advances past a quoted span starting at i; doubled quote
// characters escape themselves.
func skipQuoted(q string, i int, quote byte) int {
	i++ // opening quote
	for i < len(q) {
		if q[i] == quote {
			if i+1 < len(q) && q[i+1] == quote {
				i += 2
				continue
			}
			return i + 1
		}
		i++
	}
	return i
}
