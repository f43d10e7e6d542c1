// Package ident derives stable content identities for catalog entries
// synced from files. The same entry re-parsed from a moved or edited
// file keeps its hash, and with it its review history.
package ident

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

// Normalize cleans and joins the identity fields of an entry. Each
// part is lowercased, trimmed, and has line endings normalized before
// joining with newlines so adjacent fields can never run together.
func Normalize(parts ...string) string {
	cleaned := make([]string, len(parts))
	for i, part := range parts {
		p := strings.ToLower(part)
		p = strings.TrimSpace(p)
		p = strings.ReplaceAll(p, "\r\n", "\n")
		cleaned[i] = p
	}
	return strings.Join(cleaned, "\n")
}

// Hash returns the SHA-256 of the normalized parts as a hex string.
func Hash(parts ...string) string {
	normalized := Normalize(parts...)
	sum := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("%x", sum)
}
