package calendar

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Token wire format. Fields are separated by '|' and hold ASCII digits only:
//
//	date|<month>|<year>   GoToMonth
//	year|<year>           GoToYear
//	drill|<year>          DrillIntoYear
//	?                     NoOp placeholder
const (
	NoOpToken = "?"

	kindDate  = "date"
	kindYear  = "year"
	kindDrill = "drill"
	separator = "|"

	// MaxTokenLen is the Telegram callback data limit in bytes.
	MaxTokenLen = 64
)

var (
	ErrMalformedToken = errors.New("malformed token")
	ErrUnknownKind    = errors.New("unknown token kind")
	ErrOutOfRange     = errors.New("token value out of range")
)

// Encode returns the button payload for i. NoOp, and any intent outside
// years MinYear..MaxYear, encodes as NoOpToken.
func Encode(i Intent) string {
	if i.Year < MinYear || i.Year > MaxYear {
		return NoOpToken
	}
	switch i.Kind {
	case KindGoToMonth:
		return kindDate + separator + strconv.Itoa(int(i.Month)) + separator + strconv.Itoa(i.Year)
	case KindGoToYear:
		return kindYear + separator + strconv.Itoa(i.Year)
	case KindDrillIntoYear:
		return kindDrill + separator + strconv.Itoa(i.Year)
	default:
		return NoOpToken
	}
}

// Decode returns the intent carried by token. Anything that is not a
// well-formed token, including NoOpToken, decodes to NoOp.
func Decode(token string) Intent {
	i, err := DecodeStrict(token)
	if err != nil {
		return NoOp
	}
	return i
}

// DecodeStrict is like Decode but reports why a token was rejected.
// NoOpToken decodes to NoOp without error.
func DecodeStrict(token string) (Intent, error) {
	if token == NoOpToken {
		return NoOp, nil
	}
	if token == "" || len(token) > MaxTokenLen {
		return NoOp, fmt.Errorf("%w: length %d", ErrMalformedToken, len(token))
	}

	parts := strings.Split(token, separator)
	switch parts[0] {
	case kindDate:
		if len(parts) != 3 {
			return NoOp, fmt.Errorf("%w: %q", ErrMalformedToken, token)
		}
		month, err := parseField(parts[1], 1, 12)
		if err != nil {
			return NoOp, err
		}
		year, err := parseField(parts[2], MinYear, MaxYear)
		if err != nil {
			return NoOp, err
		}
		return GoToMonth(time.Month(month), year), nil
	case kindYear, kindDrill:
		if len(parts) != 2 {
			return NoOp, fmt.Errorf("%w: %q", ErrMalformedToken, token)
		}
		year, err := parseField(parts[1], MinYear, MaxYear)
		if err != nil {
			return NoOp, err
		}
		if parts[0] == kindDrill {
			return DrillIntoYear(year), nil
		}
		return GoToYear(year), nil
	default:
		return NoOp, fmt.Errorf("%w: %q", ErrUnknownKind, parts[0])
	}
}

// parseField accepts 1-4 ASCII digits within [lo, hi].
func parseField(s string, lo, hi int) (int, error) {
	if s == "" || len(s) > 4 {
		return 0, fmt.Errorf("%w: field %q", ErrMalformedToken, s)
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, fmt.Errorf("%w: field %q", ErrMalformedToken, s)
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: field %q", ErrMalformedToken, s)
	}
	if n < lo || n > hi {
		return 0, fmt.Errorf("%w: %d not in [%d, %d]", ErrOutOfRange, n, lo, hi)
	}
	return n, nil
}
