package menu

import (
	"bytes"
	"fmt"
	"math"
	"strconv"

	"github.com/goccy/go-json"
)

// Root is the parent identifier that marks a top-level record.
const Root ID = "0"

// ID is an opaque menu identifier. The wire form may be a JSON number or a
// JSON string; numbers are kept in canonical base-10 form so that 2, 2.0 and
// "2" all compare equal.
type ID string

// IntID returns the canonical identifier for a numeric id.
func IntID(n int64) ID {
	return ID(strconv.FormatInt(n, 10))
}

// String returns the identifier as used for node keys.
func (id ID) String() string {
	return string(id)
}

// UnmarshalJSON accepts a JSON number, a JSON string or null.
func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)

	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*id = ""
		return nil
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("invalid id %s: %w", b, err)
		}
		*id = ID(s)
		return nil
	}

	canonical, err := canonicalNumber(string(b))
	if err != nil {
		return fmt.Errorf("invalid id %s: %w", b, err)
	}

	*id = ID(canonical)

	return nil
}

func canonicalNumber(s string) (string, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return strconv.FormatInt(n, 10), nil
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return "", err
	}

	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return strconv.FormatInt(int64(f), 10), nil
	}

	return strconv.FormatFloat(f, 'f', -1, 64), nil
}
