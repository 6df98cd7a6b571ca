// Package relayid decodes WPGraphQL global IDs into database IDs.
//
// A global ID is base64("<type>:<id>"), e.g. "cG9zdDoxMDI=" is "post:102".
package relayid

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidID = errors.New("invalid identifier")

var encodings = []*base64.Encoding{
	base64.StdEncoding,
	base64.RawStdEncoding,
	base64.URLEncoding,
	base64.RawURLEncoding,
}

// Decode returns the positive database ID behind ref.
//
// ref is either a plain decimal number or a relay global ID.
func Decode(ref string) (int, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidID)
	}

	if isDigits(ref) {
		return positive(ref)
	}

	for _, enc := range encodings {
		raw, err := enc.DecodeString(ref)
		if err != nil {
			continue
		}
		_, id, ok := strings.Cut(string(raw), ":")
		if !ok || !isDigits(id) {
			continue
		}
		return positive(id)
	}

	return 0, fmt.Errorf("%w: %q", ErrInvalidID, ref)
}

// Encode builds the global ID for a database ID of the given type.
func Encode(typ string, id int) string {
	return base64.StdEncoding.EncodeToString(
		[]byte(typ + ":" + strconv.Itoa(id)),
	)
}

func positive(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %q is not a positive integer", ErrInvalidID, s)
	}
	return n, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
