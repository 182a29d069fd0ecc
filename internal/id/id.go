// Package id generates prefixed identifiers for pipeline runs and API requests.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Alphabet excludes "-" and "_" so ids survive shell copy and double-click selection.
const alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

const size = 16

// Generate creates an id of the form "prefix_<nanoid>", e.g. "run_V1StGXR8Z5jdHi6B".
func Generate(prefix string) (string, error) {
	id, err := gonanoid.Generate(alphabet, size)
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "_" + id, nil
}
