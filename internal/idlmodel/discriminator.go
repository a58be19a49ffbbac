package idlmodel

import (
	"crypto/sha256"
	"strings"

	"github.com/zhivkoto/uho-indexer/internal/tables"
)

// eventDiscriminator computes the first 8 bytes of SHA-256("event:"+name),
// per spec.md §4.1, used whenever the IDL doesn't supply one verbatim.
func eventDiscriminator(name string) [8]byte {
	sum := sha256.Sum256([]byte("event:" + name))
	var d [8]byte
	copy(d[:], sum[:8])
	return d
}

// instructionDiscriminator computes the first 8 bytes of
// SHA-256("global:"+snake_case(name)), per spec.md §4.1.
func instructionDiscriminator(name string) [8]byte {
	sum := sha256.Sum256([]byte("global:" + tables.SnakeCase(name)))
	var d [8]byte
	copy(d[:], sum[:8])
	return d
}

// foldName normalizes a name for case/underscore-insensitive comparison,
// per spec.md §4.4's parsed-mode instruction matching rule.
func foldName(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, "_", ""))
}
