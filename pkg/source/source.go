// Package source fetches the raw menu record payload the tree is built from.
//
// A Source only moves bytes. It unwraps the API envelope when one is present
// but leaves the shape check of the record array to the builder, so a
// malformed payload degrades to an empty menu instead of a fetch failure.
package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
)

var (
	// ErrStatus is wrapped when the menu API answers with a non-2xx status.
	ErrStatus = errors.New("unexpected status")

	// ErrTooLarge is wrapped when the menu response exceeds the size cap.
	ErrTooLarge = errors.New("menu response too large")
)

// Source produces the raw record array payload.
type Source interface {
	// Fetch returns the payload. Implementations honor ctx cancellation.
	Fetch(ctx context.Context) ([]byte, error)
}

// envelope is the menu API response shape: {"result": {"data": [...]}}.
type envelope struct {
	Result *struct {
		Data json.RawMessage `json:"data"`
	} `json:"result"`
}

// Unwrap returns the records payload from body. A body that is an object with
// result.data yields that value; any other body is returned unchanged.
func Unwrap(body []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return trimmed, nil
	}

	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, fmt.Errorf("failed to decode menu response: %w", err)
	}

	if env.Result == nil || env.Result.Data == nil {
		return trimmed, nil
	}

	return env.Result.Data, nil
}
